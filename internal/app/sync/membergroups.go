// internal/app/sync/membergroups.go
package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/mjwconsult/civicrm-groups-sync/internal/app/groupsvc"
	"github.com/mjwconsult/civicrm-groups-sync/internal/crm"
	"github.com/mjwconsult/civicrm-groups-sync/internal/domain/models"
)

// memberGroupCreated mirrors a member-side group creation into the CRM
// when the creation asked for it. The counterpart is created already
// resolved: type Access Control, source carrying the member group's id.
func (e *Engine) memberGroupCreated(ctx context.Context, payload any) {
	ev, ok := payload.(*groupsvc.GroupEvent)
	if !ok || !ev.SyncToCRM {
		return
	}

	resumePre := e.bus.Suspend(crm.TopicPre, HandlerCRMGroupCreatePre)
	resumePost := e.bus.Suspend(crm.TopicPost, HandlerCRMGroupCreatePost)
	crmID, err := e.gateway.CreateGroup(ctx, &crm.GroupFields{
		Title:       ev.Group.Name,
		Description: ev.Group.Description,
		Source:      ResolvedMarker(ev.Group.ID),
		GroupType:   []int{crm.GroupTypeAccessControl},
	})
	resumePost()
	resumePre()
	if err != nil {
		e.failures.Failure(ctx, models.SyncFailure{
			Operation:     "crm_group_create",
			OpID:          ev.OpID,
			MemberGroupID: ev.Group.ID,
			Error:         err.Error(),
		})
		return
	}
	e.logger.Info("member group mirrored",
		zap.Int64("member_group_id", ev.Group.ID),
		zap.Int64("crm_group_id", crmID))
}

// memberGroupUpdated mirrors name/description edits onto the mapped CRM
// group. An unmapped group is simply not synced.
func (e *Engine) memberGroupUpdated(ctx context.Context, payload any) {
	ev, ok := payload.(*groupsvc.GroupEvent)
	if !ok {
		return
	}
	crmGroup, mapped, err := e.mapper.CRMGroupForMember(ctx, ev.Group.ID)
	if err != nil {
		e.logger.Warn("mapping lookup on group update failed", zap.Int64("member_group_id", ev.Group.ID), zap.Error(err))
		return
	}
	if !mapped {
		return
	}

	resumePre := e.bus.Suspend(crm.TopicPre, HandlerCRMGroupUpdatePre)
	resumePost := e.bus.Suspend(crm.TopicPost, HandlerCRMGroupUpdatePost)
	err = e.gateway.UpdateGroup(ctx, crmGroup.ID, &crm.GroupFields{
		Title:       ev.Group.Name,
		Description: ev.Group.Description,
	})
	resumePost()
	resumePre()
	if err != nil {
		e.failures.Failure(ctx, models.SyncFailure{
			Operation:     "crm_group_update",
			OpID:          ev.OpID,
			CRMGroupID:    crmGroup.ID,
			MemberGroupID: ev.Group.ID,
			Error:         err.Error(),
		})
	}
}

// memberGroupDeleted deletes the mapped CRM group. This direction is
// propagated; the reverse (CRM delete → member delete) is not.
func (e *Engine) memberGroupDeleted(ctx context.Context, payload any) {
	ev, ok := payload.(*groupsvc.GroupEvent)
	if !ok {
		return
	}
	crmGroup, mapped, err := e.mapper.CRMGroupForMember(ctx, ev.Group.ID)
	if err != nil {
		e.logger.Warn("mapping lookup on group delete failed", zap.Int64("member_group_id", ev.Group.ID), zap.Error(err))
		return
	}
	if !mapped {
		return
	}

	resume := e.bus.Suspend(crm.TopicPre, HandlerCRMGroupDeletePre)
	err = e.gateway.DeleteGroup(ctx, crmGroup.ID)
	resume()
	if err != nil {
		e.failures.Failure(ctx, models.SyncFailure{
			Operation:     "crm_group_delete",
			OpID:          ev.OpID,
			CRMGroupID:    crmGroup.ID,
			MemberGroupID: ev.Group.ID,
			Error:         err.Error(),
		})
	}
}
