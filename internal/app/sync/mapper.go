// internal/app/sync/mapper.go
package sync

import (
	"context"
	"errors"

	"github.com/mjwconsult/civicrm-groups-sync/internal/crm"
)

// Mapper resolves group correspondence in both directions. CRM→member
// reads the marker off the group's source field; member→CRM queries the
// CRM for the single group carrying the resolved marker. Both lookups
// treat anything ambiguous or malformed as absent — two CRM groups
// claiming the same member group means neither mapping can be trusted.
type Mapper struct {
	api crm.API
}

func NewMapper(api crm.API) *Mapper {
	return &Mapper{api: api}
}

// MemberGroupIDFor returns the member group bound to the given CRM group.
func (m *Mapper) MemberGroupIDFor(ctx context.Context, crmGroupID int64) (int64, bool, error) {
	g, err := m.api.GroupByID(ctx, crmGroupID)
	if errors.Is(err, crm.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, ok := ExtractGroupID(g.Source)
	return id, ok, nil
}

// CRMGroupForMember returns the CRM group bound to the given member group.
func (m *Mapper) CRMGroupForMember(ctx context.Context, memberGroupID int64) (crm.Group, bool, error) {
	g, err := m.api.GroupBySource(ctx, ResolvedMarker(memberGroupID))
	if errors.Is(err, crm.ErrNotFound) || errors.Is(err, crm.ErrMultipleMatches) {
		return crm.Group{}, false, nil
	}
	if err != nil {
		return crm.Group{}, false, err
	}
	return g, true, nil
}
