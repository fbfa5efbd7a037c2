// internal/app/sync/crmgroups.go
package sync

import (
	"context"

	"go.uber.org/zap"

	"github.com/mjwconsult/civicrm-groups-sync/internal/app/groupsvc"
	"github.com/mjwconsult/civicrm-groups-sync/internal/crm"
	"github.com/mjwconsult/civicrm-groups-sync/internal/domain/models"
)

// forceAccessControl ensures the Access Control group type is present on a
// pending group write. Synced groups are used for permissioning on the CRM
// side, so the type is enforced rather than trusted.
func forceAccessControl(f *crm.GroupFields) {
	for _, t := range f.GroupType {
		if t == crm.GroupTypeAccessControl {
			return
		}
	}
	f.GroupType = append(f.GroupType, crm.GroupTypeAccessControl)
}

// crmGroupCreatePre claims a CRM group creation for syncing: it forces the
// Access Control type, stamps the pending marker on the source field, and
// flags the op state so the post handler knows the claim was made here.
func (e *Engine) crmGroupCreatePre(ctx context.Context, payload any) {
	ev, ok := payload.(*crm.HookEvent)
	if !ok || ev.Op != crm.OpCreate || ev.Object != crm.ObjectGroup || ev.Group == nil {
		return
	}
	if !ev.Group.SyncRequested {
		return
	}
	forceAccessControl(ev.Group)
	ev.Group.Source = PendingMarker()
	ev.State.SyncRequested = true
}

// crmGroupCreatePost creates the member-side counterpart for a claimed CRM
// group creation, then rewrites the CRM group's source from the pending to
// the resolved marker. The member group stays even when the rewrite fails;
// the failure is logged for repair instead of rolled back.
func (e *Engine) crmGroupCreatePost(ctx context.Context, payload any) {
	ev, ok := payload.(*crm.HookEvent)
	if !ok || ev.Op != crm.OpCreate || ev.Object != crm.ObjectGroup || ev.Group == nil {
		return
	}
	if ev.State == nil || !ev.State.SyncRequested || ev.Group.Source != PendingMarker() {
		return
	}

	resume := e.bus.Suspend(groupsvc.TopicGroupCreated, HandlerMemberGroupCreated)
	g, err := e.groups.CreateGroup(ctx, ev.Group.Title, ev.Group.Description, false)
	resume()
	if err != nil {
		e.failures.Failure(ctx, models.SyncFailure{
			Operation:  "member_group_create",
			OpID:       ev.OpID,
			CRMGroupID: ev.ObjectID,
			Error:      err.Error(),
		})
		return
	}

	resumePre := e.bus.Suspend(crm.TopicPre, HandlerCRMGroupUpdatePre)
	resumePost := e.bus.Suspend(crm.TopicPost, HandlerCRMGroupUpdatePost)
	err = e.gateway.SetGroupSource(ctx, ev.ObjectID, ResolvedMarker(g.ID))
	resumePost()
	resumePre()
	if err != nil {
		e.failures.Failure(ctx, models.SyncFailure{
			Operation:     "crm_group_resolve_marker",
			OpID:          ev.OpID,
			CRMGroupID:    ev.ObjectID,
			MemberGroupID: g.ID,
			Error:         err.Error(),
		})
		return
	}
	e.logger.Info("crm group mirrored",
		zap.Int64("crm_group_id", ev.ObjectID),
		zap.Int64("member_group_id", g.ID))
}

// crmGroupUpdatePre re-forces the Access Control type on edits of synced
// groups. The current source is fetched fresh rather than read off the
// event: the edit payload may carry a stale or absent source.
func (e *Engine) crmGroupUpdatePre(ctx context.Context, payload any) {
	ev, ok := payload.(*crm.HookEvent)
	if !ok || ev.Op != crm.OpEdit || ev.Object != crm.ObjectGroup || ev.Group == nil || ev.ObjectID == 0 {
		return
	}
	g, err := e.gateway.GroupByID(ctx, ev.ObjectID)
	if err != nil {
		e.logger.Debug("group fetch on edit pre failed", zap.Int64("crm_group_id", ev.ObjectID), zap.Error(err))
		return
	}
	if IsSynced(g.Source) {
		forceAccessControl(ev.Group)
	}
}

// crmGroupUpdatePost mirrors title/description edits onto the mapped member
// group and then sweeps the group's roster.
func (e *Engine) crmGroupUpdatePost(ctx context.Context, payload any) {
	ev, ok := payload.(*crm.HookEvent)
	if !ok || ev.Op != crm.OpEdit || ev.Object != crm.ObjectGroup {
		return
	}
	memberID, mapped, err := e.mapper.MemberGroupIDFor(ctx, ev.ObjectID)
	if err != nil {
		e.logger.Warn("mapping lookup on edit post failed", zap.Int64("crm_group_id", ev.ObjectID), zap.Error(err))
		return
	}
	if !mapped {
		return
	}

	if ev.Group != nil && ev.Group.Title != "" {
		resume := e.bus.Suspend(groupsvc.TopicGroupUpdated, HandlerMemberGroupUpdated)
		_, err := e.groups.UpdateGroup(ctx, memberID, ev.Group.Title, ev.Group.Description)
		resume()
		if err != nil {
			e.failures.Failure(ctx, models.SyncFailure{
				Operation:     "member_group_update",
				OpID:          ev.OpID,
				CRMGroupID:    ev.ObjectID,
				MemberGroupID: memberID,
				Error:         err.Error(),
			})
		}
	}

	if _, err := e.SyncGroupToMembers(ctx, ev.ObjectID); err != nil {
		e.logger.Warn("post-edit sweep failed", zap.Int64("crm_group_id", ev.ObjectID), zap.Error(err))
	}
}

// crmGroupDeletePre observes CRM group deletion but does not propagate it.
// Deleting the member group would silently destroy its roster; the pair is
// left dangling for an operator to resolve.
func (e *Engine) crmGroupDeletePre(ctx context.Context, payload any) {
	ev, ok := payload.(*crm.HookEvent)
	if !ok || ev.Op != crm.OpDelete || ev.Object != crm.ObjectGroup {
		return
	}
	e.logger.Info("crm group deleted; member counterpart kept", zap.Int64("crm_group_id", ev.ObjectID))
}
