// internal/app/sync/engine.go
package sync

import (
	"go.uber.org/zap"

	"github.com/mjwconsult/civicrm-groups-sync/internal/app/groupsvc"
	"github.com/mjwconsult/civicrm-groups-sync/internal/app/system/hooks"
	"github.com/mjwconsult/civicrm-groups-sync/internal/app/system/synclog"
	"github.com/mjwconsult/civicrm-groups-sync/internal/crm"
)

// Handler names registered on the bus. Mirroring code suspends exactly the
// handler its own write would re-trigger, so each direction gets its own
// name.
const (
	HandlerCRMGroupCreatePre  = "sync.crm_group_create_pre"
	HandlerCRMGroupCreatePost = "sync.crm_group_create_post"
	HandlerCRMGroupUpdatePre  = "sync.crm_group_update_pre"
	HandlerCRMGroupUpdatePost = "sync.crm_group_update_post"
	HandlerCRMGroupDeletePre  = "sync.crm_group_delete_pre"
	HandlerCRMContactsAdded   = "sync.crm_contacts_added"
	HandlerCRMContactsRemoved = "sync.crm_contacts_removed"

	HandlerMemberGroupCreated = "sync.member_group_created"
	HandlerMemberGroupUpdated = "sync.member_group_updated"
	HandlerMemberGroupDeleted = "sync.member_group_deleted"
	HandlerMemberUserAdded    = "sync.member_user_added"
	HandlerMemberUserRemoved  = "sync.member_user_removed"
)

// Engine subscribes to both sides' change events and mirrors each change
// onto the counterpart system. A failed counterpart write is logged to the
// failure sink and the triggering event still completes; the reconciliation
// sweep repairs the drift later.
type Engine struct {
	bus      *hooks.Bus
	gateway  *crm.Gateway
	groups   *groupsvc.Service
	mapper   *Mapper
	resolver *Resolver
	failures *synclog.Logger
	logger   *zap.Logger
}

func NewEngine(
	bus *hooks.Bus,
	gateway *crm.Gateway,
	groups *groupsvc.Service,
	mapper *Mapper,
	resolver *Resolver,
	failures *synclog.Logger,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		bus:      bus,
		gateway:  gateway,
		groups:   groups,
		mapper:   mapper,
		resolver: resolver,
		failures: failures,
		logger:   logger,
	}
}

// Register attaches every sync handler to the bus. Call once at startup.
func (e *Engine) Register() {
	e.bus.Subscribe(crm.TopicPre, HandlerCRMGroupCreatePre, 10, e.crmGroupCreatePre)
	e.bus.Subscribe(crm.TopicPost, HandlerCRMGroupCreatePost, 10, e.crmGroupCreatePost)
	e.bus.Subscribe(crm.TopicPre, HandlerCRMGroupUpdatePre, 10, e.crmGroupUpdatePre)
	e.bus.Subscribe(crm.TopicPost, HandlerCRMGroupUpdatePost, 10, e.crmGroupUpdatePost)
	e.bus.Subscribe(crm.TopicPre, HandlerCRMGroupDeletePre, 10, e.crmGroupDeletePre)
	e.bus.Subscribe(crm.TopicPost, HandlerCRMContactsAdded, 10, e.crmContactsAdded)
	e.bus.Subscribe(crm.TopicPost, HandlerCRMContactsRemoved, 10, e.crmContactsRemoved)

	e.bus.Subscribe(groupsvc.TopicGroupCreated, HandlerMemberGroupCreated, 10, e.memberGroupCreated)
	e.bus.Subscribe(groupsvc.TopicGroupUpdated, HandlerMemberGroupUpdated, 10, e.memberGroupUpdated)
	e.bus.Subscribe(groupsvc.TopicGroupDeleted, HandlerMemberGroupDeleted, 10, e.memberGroupDeleted)
	e.bus.Subscribe(groupsvc.TopicUserAdded, HandlerMemberUserAdded, 10, e.memberUserAdded)
	e.bus.Subscribe(groupsvc.TopicUserRemoved, HandlerMemberUserRemoved, 10, e.memberUserRemoved)
}
