// internal/app/sync/memberusers.go
package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/mjwconsult/civicrm-groups-sync/internal/app/groupsvc"
	"github.com/mjwconsult/civicrm-groups-sync/internal/crm"
	"github.com/mjwconsult/civicrm-groups-sync/internal/domain/models"
)

// memberUserAdded mirrors a member-side join into the CRM roster. A user
// with no CRM identity, or a group with no CRM counterpart, means there is
// nothing to mirror.
func (e *Engine) memberUserAdded(ctx context.Context, payload any) {
	ev, ok := payload.(*groupsvc.MemberEvent)
	if !ok {
		return
	}
	contactID, found, err := e.resolver.ContactForUser(ctx, ev.UserID)
	if err != nil {
		e.failures.Failure(ctx, models.SyncFailure{
			Operation:     "resolve_user",
			OpID:          ev.OpID,
			MemberGroupID: ev.GroupID,
			UserID:        ev.UserID,
			Error:         err.Error(),
		})
		return
	}
	if !found {
		e.logger.Debug("user has no crm identity; skipped",
			zap.Int64("user_id", ev.UserID), zap.Int64("member_group_id", ev.GroupID))
		return
	}
	crmGroup, mapped, err := e.mapper.CRMGroupForMember(ctx, ev.GroupID)
	if err != nil {
		e.logger.Warn("mapping lookup on user add failed", zap.Int64("member_group_id", ev.GroupID), zap.Error(err))
		return
	}
	if !mapped {
		return
	}

	resume := e.bus.Suspend(crm.TopicPost, HandlerCRMContactsAdded)
	err = e.gateway.AddContact(ctx, crmGroup.ID, contactID)
	resume()
	if err != nil {
		e.failures.Failure(ctx, models.SyncFailure{
			Operation:     "crm_contact_add",
			OpID:          ev.OpID,
			CRMGroupID:    crmGroup.ID,
			MemberGroupID: ev.GroupID,
			ContactID:     contactID,
			UserID:        ev.UserID,
			Error:         err.Error(),
		})
	}
}

// memberUserRemoved mirrors a member-side leave onto the CRM roster.
func (e *Engine) memberUserRemoved(ctx context.Context, payload any) {
	ev, ok := payload.(*groupsvc.MemberEvent)
	if !ok {
		return
	}
	contactID, found, err := e.resolver.ContactForUser(ctx, ev.UserID)
	if err != nil {
		e.failures.Failure(ctx, models.SyncFailure{
			Operation:     "resolve_user",
			OpID:          ev.OpID,
			MemberGroupID: ev.GroupID,
			UserID:        ev.UserID,
			Error:         err.Error(),
		})
		return
	}
	if !found {
		e.logger.Debug("user has no crm identity; skipped",
			zap.Int64("user_id", ev.UserID), zap.Int64("member_group_id", ev.GroupID))
		return
	}
	crmGroup, mapped, err := e.mapper.CRMGroupForMember(ctx, ev.GroupID)
	if err != nil {
		e.logger.Warn("mapping lookup on user remove failed", zap.Int64("member_group_id", ev.GroupID), zap.Error(err))
		return
	}
	if !mapped {
		return
	}

	resume := e.bus.Suspend(crm.TopicPost, HandlerCRMContactsRemoved)
	err = e.gateway.RemoveContact(ctx, crmGroup.ID, contactID)
	resume()
	if err != nil {
		e.failures.Failure(ctx, models.SyncFailure{
			Operation:     "crm_contact_remove",
			OpID:          ev.OpID,
			CRMGroupID:    crmGroup.ID,
			MemberGroupID: ev.GroupID,
			ContactID:     contactID,
			UserID:        ev.UserID,
			Error:         err.Error(),
		})
	}
}
