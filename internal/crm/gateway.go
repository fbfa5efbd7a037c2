// internal/crm/gateway.go
package crm

import (
	"context"

	"github.com/google/uuid"
	"github.com/mjwconsult/civicrm-groups-sync/internal/app/system/hooks"
)

// Hook topics for CRM-side changes. Pre-phase payloads are mutable; a
// handler may amend the pending write before it is applied.
const (
	TopicPre  = "civicrm.pre"
	TopicPost = "civicrm.post"
)

// Database operations carried on hook events.
const (
	OpCreate = "create"
	OpEdit   = "edit"
	OpDelete = "delete"
)

// Object types carried on hook events.
const (
	ObjectGroup        = "Group"
	ObjectGroupContact = "GroupContact"
)

// OpState is the short-lived context threaded from the pre phase of one
// logical operation into its post phase. For gateway-originated mutations
// the same pointer rides both events; for webhook-delivered events the
// bridge serializes it into the pre response and the CRM-side shim echoes
// it back with the post request.
type OpState struct {
	SyncRequested bool `json:"sync_requested"`
}

// GroupFields is the mutable group payload on pre-phase events.
type GroupFields struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Source        string `json:"source"`
	GroupType     []int  `json:"group_type"`
	SyncRequested bool   `json:"sync_requested"`
}

// HookEvent is the payload published on TopicPre and TopicPost.
type HookEvent struct {
	OpID       string
	Op         string
	Object     string
	ObjectID   int64
	Group      *GroupFields // Group operations; mutable in the pre phase
	ContactIDs []int64      // GroupContact operations
	State      *OpState
}

// Gateway wraps the CRM API so that every mutation made through it also
// publishes the pre/post hook events a change made inside the CRM would
// have produced. This keeps the sync engine's handler set and the echo
// suppressor working identically for both origins.
type Gateway struct {
	api API
	bus *hooks.Bus
}

func NewGateway(api API, bus *hooks.Bus) *Gateway {
	return &Gateway{api: api, bus: bus}
}

// Publish forwards an externally-assembled hook event (from the webhook
// bridge) onto the local bus. phase is TopicPre or TopicPost.
func (g *Gateway) Publish(ctx context.Context, phase string, e *HookEvent) {
	if e.OpID == "" {
		e.OpID = uuid.NewString()
	}
	if e.State == nil {
		e.State = &OpState{}
	}
	g.bus.Publish(ctx, phase, e)
}

func (g *Gateway) publishPair(ctx context.Context, e *HookEvent, mutate func() error) error {
	e.OpID = uuid.NewString()
	if e.State == nil {
		e.State = &OpState{}
	}
	g.bus.Publish(ctx, TopicPre, e)
	if err := mutate(); err != nil {
		return err
	}
	g.bus.Publish(ctx, TopicPost, e)
	return nil
}

// CreateGroup creates a CRM group and fires create pre/post events around
// the write. Returns the new group's ID.
func (g *Gateway) CreateGroup(ctx context.Context, f *GroupFields) (int64, error) {
	e := &HookEvent{Op: OpCreate, Object: ObjectGroup, Group: f}
	err := g.publishPair(ctx, e, func() error {
		id, err := g.api.CreateGroup(ctx, GroupParams{
			Name:        f.Title,
			Title:       f.Title,
			Description: f.Description,
			Source:      f.Source,
			GroupType:   f.GroupType,
		})
		if err != nil {
			return err
		}
		e.ObjectID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return e.ObjectID, nil
}

// UpdateGroup mirrors title/description onto a CRM group, firing edit
// pre/post events.
func (g *Gateway) UpdateGroup(ctx context.Context, id int64, f *GroupFields) error {
	e := &HookEvent{Op: OpEdit, Object: ObjectGroup, ObjectID: id, Group: f}
	return g.publishPair(ctx, e, func() error {
		return g.api.UpdateGroup(ctx, id, f.Title, f.Description)
	})
}

// SetGroupSource rewrites a group's source field, firing edit pre/post
// events (a source rewrite is an ordinary group edit to the CRM).
func (g *Gateway) SetGroupSource(ctx context.Context, id int64, source string) error {
	e := &HookEvent{Op: OpEdit, Object: ObjectGroup, ObjectID: id, Group: &GroupFields{Source: source}}
	return g.publishPair(ctx, e, func() error {
		return g.api.SetGroupSource(ctx, id, source)
	})
}

// DeleteGroup deletes a CRM group, firing delete pre/post events.
func (g *Gateway) DeleteGroup(ctx context.Context, id int64) error {
	e := &HookEvent{Op: OpDelete, Object: ObjectGroup, ObjectID: id}
	return g.publishPair(ctx, e, func() error {
		return g.api.DeleteGroup(ctx, id)
	})
}

// AddContact writes an Added GroupContact row, firing the GroupContact
// create pre event the CRM itself would fire.
func (g *Gateway) AddContact(ctx context.Context, groupID, contactID int64) error {
	e := &HookEvent{Op: OpCreate, Object: ObjectGroupContact, ObjectID: groupID, ContactIDs: []int64{contactID}}
	return g.publishPair(ctx, e, func() error {
		return g.api.GroupContactCreate(ctx, groupID, contactID, StatusAdded)
	})
}

// RemoveContact writes a Removed GroupContact row, firing the GroupContact
// delete pre event.
func (g *Gateway) RemoveContact(ctx context.Context, groupID, contactID int64) error {
	e := &HookEvent{Op: OpDelete, Object: ObjectGroupContact, ObjectID: groupID, ContactIDs: []int64{contactID}}
	return g.publishPair(ctx, e, func() error {
		return g.api.GroupContactCreate(ctx, groupID, contactID, StatusRemoved)
	})
}

// Query passthroughs. Reads fire no events.

func (g *Gateway) GroupByID(ctx context.Context, id int64) (Group, error) {
	return g.api.GroupByID(ctx, id)
}

func (g *Gateway) GroupBySource(ctx context.Context, source string) (Group, error) {
	return g.api.GroupBySource(ctx, source)
}

func (g *Gateway) GroupsBySourceLike(ctx context.Context, substr string) ([]Group, error) {
	return g.api.GroupsBySourceLike(ctx, substr)
}

func (g *Gateway) ContactIDsInGroup(ctx context.Context, groupID int64, status string) ([]int64, error) {
	return g.api.ContactIDsInGroup(ctx, groupID, status)
}
