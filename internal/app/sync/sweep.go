// internal/app/sync/sweep.go
package sync

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mjwconsult/civicrm-groups-sync/internal/app/groupsvc"
	"github.com/mjwconsult/civicrm-groups-sync/internal/crm"
	"github.com/mjwconsult/civicrm-groups-sync/internal/domain/models"
)

// SweepResult summarizes one group's reconciliation pass.
type SweepResult struct {
	CRMGroupID    int64 `json:"crm_group_id"`
	MemberGroupID int64 `json:"member_group_id"`
	Added         int   `json:"added"`
	Removed       int   `json:"removed"`
	// SkippedContacts are CRM roster entries with no member identity.
	SkippedContacts []int64 `json:"skipped_contacts,omitempty"`
	// SkippedUsers are member roster entries with no CRM identity. They
	// are deliberately left in place: absence of an identity is not
	// evidence the CRM removed them.
	SkippedUsers []int64 `json:"skipped_users,omitempty"`
}

// SyncGroupToMembers reconciles one member group's roster against the CRM
// roster, which wins: resolvable contacts missing member-side are added,
// and member entries whose resolved contact is no longer on the CRM roster
// are removed. Running it twice in a row changes nothing the second time.
func (e *Engine) SyncGroupToMembers(ctx context.Context, crmGroupID int64) (SweepResult, error) {
	crmGroup, err := e.gateway.GroupByID(ctx, crmGroupID)
	if err != nil {
		return SweepResult{}, fmt.Errorf("fetch crm group %d: %w", crmGroupID, err)
	}
	memberID, mapped := ExtractGroupID(crmGroup.Source)
	if !mapped {
		return SweepResult{}, fmt.Errorf("crm group %d has no member counterpart", crmGroupID)
	}
	res := SweepResult{CRMGroupID: crmGroupID, MemberGroupID: memberID}

	contactIDs, err := e.gateway.ContactIDsInGroup(ctx, crmGroupID, crm.StatusAdded)
	if err != nil {
		return res, fmt.Errorf("fetch crm roster for group %d: %w", crmGroupID, err)
	}

	// Resolve the CRM roster up front. onRoster holds the member users the
	// CRM says should be in the group.
	onRoster := make(map[int64]bool, len(contactIDs))
	for _, contactID := range contactIDs {
		userID, found, err := e.resolver.UserForContact(ctx, contactID)
		if err != nil {
			return res, fmt.Errorf("resolve contact %d: %w", contactID, err)
		}
		if !found {
			res.SkippedContacts = append(res.SkippedContacts, contactID)
			continue
		}
		onRoster[userID] = true
	}
	if len(res.SkippedContacts) > 0 {
		e.failures.Failure(ctx, models.SyncFailure{
			Operation:     "sweep_unresolved_contacts",
			CRMGroupID:    crmGroupID,
			MemberGroupID: memberID,
			Error:         fmt.Sprintf("%d crm roster entries have no member identity: %v", len(res.SkippedContacts), res.SkippedContacts),
		})
	}

	memberIDs, err := e.groups.Members(ctx, memberID)
	if err != nil {
		return res, fmt.Errorf("fetch member roster for group %d: %w", memberID, err)
	}
	current := make(map[int64]bool, len(memberIDs))
	for _, userID := range memberIDs {
		current[userID] = true
	}

	resumeAdd := e.bus.Suspend(groupsvc.TopicUserAdded, HandlerMemberUserAdded)
	resumeRemove := e.bus.Suspend(groupsvc.TopicUserRemoved, HandlerMemberUserRemoved)
	defer resumeRemove()
	defer resumeAdd()

	for userID := range onRoster {
		if current[userID] {
			continue
		}
		changed, err := e.groups.AddMember(ctx, memberID, userID)
		if err != nil {
			e.failures.Failure(ctx, models.SyncFailure{
				Operation:     "sweep_member_add",
				CRMGroupID:    crmGroupID,
				MemberGroupID: memberID,
				UserID:        userID,
				Error:         err.Error(),
			})
			continue
		}
		if changed {
			res.Added++
		}
	}

	for _, userID := range memberIDs {
		if onRoster[userID] {
			continue
		}
		// A member entry is removed only when the user is known to the CRM
		// and provably off the roster there.
		_, found, err := e.resolver.ContactForUser(ctx, userID)
		if err != nil {
			return res, fmt.Errorf("resolve user %d: %w", userID, err)
		}
		if !found {
			res.SkippedUsers = append(res.SkippedUsers, userID)
			continue
		}
		changed, err := e.groups.RemoveMember(ctx, memberID, userID)
		if err != nil {
			e.failures.Failure(ctx, models.SyncFailure{
				Operation:     "sweep_member_remove",
				CRMGroupID:    crmGroupID,
				MemberGroupID: memberID,
				UserID:        userID,
				Error:         err.Error(),
			})
			continue
		}
		if changed {
			res.Removed++
		}
	}

	e.logger.Info("group swept",
		zap.Int64("crm_group_id", crmGroupID),
		zap.Int64("member_group_id", memberID),
		zap.Int("added", res.Added),
		zap.Int("removed", res.Removed),
		zap.Int("skipped_contacts", len(res.SkippedContacts)),
		zap.Int("skipped_users", len(res.SkippedUsers)))
	return res, nil
}

// SyncAllGroups sweeps every CRM group carrying a sync marker. Per-group
// failures are recorded and do not stop the remaining groups.
func (e *Engine) SyncAllGroups(ctx context.Context) ([]SweepResult, error) {
	crmGroups, err := e.gateway.GroupsBySourceLike(ctx, MarkerPrefix)
	if err != nil {
		return nil, fmt.Errorf("enumerate synced groups: %w", err)
	}

	results := make([]SweepResult, 0, len(crmGroups))
	for _, g := range crmGroups {
		if _, mapped := ExtractGroupID(g.Source); !mapped {
			// Pending or malformed marker; nothing to reconcile against.
			continue
		}
		res, err := e.SyncGroupToMembers(ctx, g.ID)
		if err != nil {
			e.failures.Failure(ctx, models.SyncFailure{
				Operation:  "sweep_group",
				CRMGroupID: g.ID,
				Error:      err.Error(),
			})
			continue
		}
		results = append(results, res)
	}
	return results, nil
}
