// internal/app/sync/crmcontacts.go
package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/mjwconsult/civicrm-groups-sync/internal/app/groupsvc"
	"github.com/mjwconsult/civicrm-groups-sync/internal/crm"
	"github.com/mjwconsult/civicrm-groups-sync/internal/domain/models"
)

// crmContactsAdded mirrors GroupContact additions into member-side
// memberships. An edit is a rejoin of previously-removed contacts and is
// treated as an add. Entries whose contact has no member-side identity are
// skipped without aborting the rest of the batch.
func (e *Engine) crmContactsAdded(ctx context.Context, payload any) {
	ev, ok := payload.(*crm.HookEvent)
	if !ok || ev.Object != crm.ObjectGroupContact {
		return
	}
	if ev.Op != crm.OpCreate && ev.Op != crm.OpEdit {
		return
	}
	memberID, mapped, err := e.mapper.MemberGroupIDFor(ctx, ev.ObjectID)
	if err != nil {
		e.logger.Warn("mapping lookup on contact add failed", zap.Int64("crm_group_id", ev.ObjectID), zap.Error(err))
		return
	}
	if !mapped {
		return
	}

	resume := e.bus.Suspend(groupsvc.TopicUserAdded, HandlerMemberUserAdded)
	defer resume()

	for _, contactID := range ev.ContactIDs {
		userID, found, err := e.resolver.UserForContact(ctx, contactID)
		if err != nil {
			e.failures.Failure(ctx, models.SyncFailure{
				Operation:     "resolve_contact",
				OpID:          ev.OpID,
				CRMGroupID:    ev.ObjectID,
				MemberGroupID: memberID,
				ContactID:     contactID,
				Error:         err.Error(),
			})
			continue
		}
		if !found {
			e.logger.Debug("contact has no member identity; skipped",
				zap.Int64("contact_id", contactID), zap.Int64("crm_group_id", ev.ObjectID))
			continue
		}
		if _, err := e.groups.AddMember(ctx, memberID, userID); err != nil {
			e.failures.Failure(ctx, models.SyncFailure{
				Operation:     "member_user_add",
				OpID:          ev.OpID,
				CRMGroupID:    ev.ObjectID,
				MemberGroupID: memberID,
				ContactID:     contactID,
				UserID:        userID,
				Error:         err.Error(),
			})
		}
	}
}

// crmContactsRemoved mirrors GroupContact removals. Same batch semantics
// as additions: unresolved or failing entries never block the rest.
func (e *Engine) crmContactsRemoved(ctx context.Context, payload any) {
	ev, ok := payload.(*crm.HookEvent)
	if !ok || ev.Op != crm.OpDelete || ev.Object != crm.ObjectGroupContact {
		return
	}
	memberID, mapped, err := e.mapper.MemberGroupIDFor(ctx, ev.ObjectID)
	if err != nil {
		e.logger.Warn("mapping lookup on contact remove failed", zap.Int64("crm_group_id", ev.ObjectID), zap.Error(err))
		return
	}
	if !mapped {
		return
	}

	resume := e.bus.Suspend(groupsvc.TopicUserRemoved, HandlerMemberUserRemoved)
	defer resume()

	for _, contactID := range ev.ContactIDs {
		userID, found, err := e.resolver.UserForContact(ctx, contactID)
		if err != nil {
			e.failures.Failure(ctx, models.SyncFailure{
				Operation:     "resolve_contact",
				OpID:          ev.OpID,
				CRMGroupID:    ev.ObjectID,
				MemberGroupID: memberID,
				ContactID:     contactID,
				Error:         err.Error(),
			})
			continue
		}
		if !found {
			e.logger.Debug("contact has no member identity; skipped",
				zap.Int64("contact_id", contactID), zap.Int64("crm_group_id", ev.ObjectID))
			continue
		}
		if _, err := e.groups.RemoveMember(ctx, memberID, userID); err != nil {
			e.failures.Failure(ctx, models.SyncFailure{
				Operation:     "member_user_remove",
				OpID:          ev.OpID,
				CRMGroupID:    ev.ObjectID,
				MemberGroupID: memberID,
				ContactID:     contactID,
				UserID:        userID,
				Error:         err.Error(),
			})
		}
	}
}
