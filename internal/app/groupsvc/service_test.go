package groupsvc_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/mjwconsult/civicrm-groups-sync/internal/app/groupsvc"
	groupstore "github.com/mjwconsult/civicrm-groups-sync/internal/app/store/groups"
	"github.com/mjwconsult/civicrm-groups-sync/internal/app/system/hooks"
	"github.com/mjwconsult/civicrm-groups-sync/internal/testutil"
)

type recorded struct {
	topic   string
	payload any
}

func newService(t *testing.T) (*groupsvc.Service, *hooks.Bus, *[]recorded) {
	t.Helper()
	bus := hooks.New()
	var events []recorded
	for _, topic := range []string{
		groupsvc.TopicGroupCreated,
		groupsvc.TopicGroupUpdated,
		groupsvc.TopicGroupDeleted,
		groupsvc.TopicUserAdded,
		groupsvc.TopicUserRemoved,
	} {
		topic := topic
		bus.Subscribe(topic, "test.recorder", 100, func(ctx context.Context, payload any) {
			events = append(events, recorded{topic: topic, payload: payload})
		})
	}
	svc := groupsvc.New(testutil.NewMemGroupStore(), testutil.NewMemMembershipStore(), bus, zap.NewNop())
	return svc, bus, &events
}

func TestCreateGroupPublishesEvent(t *testing.T) {
	svc, _, events := newService(t)
	ctx := context.Background()

	g, err := svc.CreateGroup(ctx, "Volunteers", "<p>weekly <script>x</script>helpers</p>", true)
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if g.ID == 0 {
		t.Error("expected allocated group id")
	}
	if g.Description != "<p>weekly helpers</p>" {
		t.Errorf("description not sanitized: %q", g.Description)
	}

	if len(*events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(*events))
	}
	ev := (*events)[0]
	if ev.topic != groupsvc.TopicGroupCreated {
		t.Errorf("wrong topic %q", ev.topic)
	}
	ge := ev.payload.(*groupsvc.GroupEvent)
	if !ge.SyncToCRM {
		t.Error("expected SyncToCRM flag on event")
	}
	if ge.OpID == "" {
		t.Error("expected OpID on event")
	}
	if ge.Group.ID != g.ID {
		t.Errorf("event carries group %d, want %d", ge.Group.ID, g.ID)
	}
}

func TestCreateGroupDuplicateName(t *testing.T) {
	svc, _, events := newService(t)
	ctx := context.Background()

	if _, err := svc.CreateGroup(ctx, "Volunteers", "", false); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := svc.CreateGroup(ctx, "volunteers", "", false); err != groupstore.ErrDuplicateGroupName {
		t.Errorf("expected ErrDuplicateGroupName, got %v", err)
	}
	if len(*events) != 1 {
		t.Errorf("duplicate create must not publish; got %d events", len(*events))
	}
}

func TestAddMemberIdempotent(t *testing.T) {
	svc, _, events := newService(t)
	ctx := context.Background()

	g, err := svc.CreateGroup(ctx, "Volunteers", "", false)
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	*events = nil

	added, err := svc.AddMember(ctx, g.ID, 7)
	if err != nil || !added {
		t.Fatalf("first add: got (%v, %v)", added, err)
	}
	added, err = svc.AddMember(ctx, g.ID, 7)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if added {
		t.Error("second add reported a change")
	}

	if len(*events) != 1 {
		t.Fatalf("expected exactly 1 user_added event, got %d", len(*events))
	}
	me := (*events)[0].payload.(*groupsvc.MemberEvent)
	if me.GroupID != g.ID || me.UserID != 7 {
		t.Errorf("unexpected event payload: %+v", me)
	}
}

func TestAddMemberUnknownGroup(t *testing.T) {
	svc, _, events := newService(t)

	if _, err := svc.AddMember(context.Background(), 99, 7); err != groupstore.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if len(*events) != 0 {
		t.Errorf("no event expected, got %d", len(*events))
	}
}

func TestRemoveMemberIdempotent(t *testing.T) {
	svc, _, events := newService(t)
	ctx := context.Background()

	g, _ := svc.CreateGroup(ctx, "Volunteers", "", false)
	if _, err := svc.AddMember(ctx, g.ID, 7); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	*events = nil

	removed, err := svc.RemoveMember(ctx, g.ID, 7)
	if err != nil || !removed {
		t.Fatalf("first remove: got (%v, %v)", removed, err)
	}
	removed, err = svc.RemoveMember(ctx, g.ID, 7)
	if err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if removed {
		t.Error("second remove reported a change")
	}
	if len(*events) != 1 {
		t.Fatalf("expected exactly 1 user_removed event, got %d", len(*events))
	}
}

func TestDeleteGroupRemovesMemberships(t *testing.T) {
	svc, _, events := newService(t)
	ctx := context.Background()

	g, _ := svc.CreateGroup(ctx, "Volunteers", "", false)
	_, _ = svc.AddMember(ctx, g.ID, 7)
	_, _ = svc.AddMember(ctx, g.ID, 8)
	*events = nil

	if err := svc.DeleteGroup(ctx, g.ID); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}
	if _, err := svc.Group(ctx, g.ID); err != groupstore.ErrNotFound {
		t.Errorf("group still present after delete: %v", err)
	}
	members, err := svc.Members(ctx, g.ID)
	if err != nil {
		t.Fatalf("Members failed: %v", err)
	}
	if len(members) != 0 {
		t.Errorf("memberships survived delete: %v", members)
	}

	// Only the group delete is announced; membership rows vanish silently.
	if len(*events) != 1 || (*events)[0].topic != groupsvc.TopicGroupDeleted {
		t.Errorf("expected single deleted event, got %+v", *events)
	}
}

func TestUpdateGroupPublishesFreshState(t *testing.T) {
	svc, _, events := newService(t)
	ctx := context.Background()

	g, _ := svc.CreateGroup(ctx, "Volunteers", "old", false)
	*events = nil

	updated, err := svc.UpdateGroup(ctx, g.ID, "Helpers", "new")
	if err != nil {
		t.Fatalf("UpdateGroup failed: %v", err)
	}
	if updated.Name != "Helpers" || updated.Description != "new" {
		t.Errorf("unexpected group after update: %+v", updated)
	}
	ge := (*events)[0].payload.(*groupsvc.GroupEvent)
	if ge.Group.Name != "Helpers" {
		t.Errorf("event carries stale name %q", ge.Group.Name)
	}
}
