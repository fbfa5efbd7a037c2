package sync_test

import (
	"context"
	"testing"

	appsync "github.com/mjwconsult/civicrm-groups-sync/internal/app/sync"
	"github.com/mjwconsult/civicrm-groups-sync/internal/crm"
	"github.com/mjwconsult/civicrm-groups-sync/internal/testutil"
)

func TestMappingSymmetry(t *testing.T) {
	api := testutil.NewFakeCRM()
	api.SeedGroup(crm.Group{ID: 501, Title: "Volunteers", Source: appsync.ResolvedMarker(12)})
	m := appsync.NewMapper(api)
	ctx := context.Background()

	memberID, ok, err := m.MemberGroupIDFor(ctx, 501)
	if err != nil || !ok {
		t.Fatalf("MemberGroupIDFor: got (%d, %v, %v)", memberID, ok, err)
	}
	if memberID != 12 {
		t.Errorf("MemberGroupIDFor(501) = %d, want 12", memberID)
	}

	crmGroup, ok, err := m.CRMGroupForMember(ctx, 12)
	if err != nil || !ok {
		t.Fatalf("CRMGroupForMember: got (%+v, %v, %v)", crmGroup, ok, err)
	}
	if crmGroup.ID != 501 {
		t.Errorf("CRMGroupForMember(12) = %d, want 501", crmGroup.ID)
	}
}

func TestMapperAbsentCases(t *testing.T) {
	api := testutil.NewFakeCRM()
	api.SeedGroup(crm.Group{ID: 501, Source: "synced-group"})       // pending
	api.SeedGroup(crm.Group{ID: 502, Source: "imported-from-csv"}) // unrelated
	m := appsync.NewMapper(api)
	ctx := context.Background()

	if _, ok, err := m.MemberGroupIDFor(ctx, 501); ok || err != nil {
		t.Errorf("pending marker should map to absent, got (ok=%v, err=%v)", ok, err)
	}
	if _, ok, err := m.MemberGroupIDFor(ctx, 502); ok || err != nil {
		t.Errorf("unrelated source should map to absent, got (ok=%v, err=%v)", ok, err)
	}
	if _, ok, err := m.MemberGroupIDFor(ctx, 999); ok || err != nil {
		t.Errorf("missing group should map to absent, got (ok=%v, err=%v)", ok, err)
	}
	if _, ok, err := m.CRMGroupForMember(ctx, 12); ok || err != nil {
		t.Errorf("unmapped member group should be absent, got (ok=%v, err=%v)", ok, err)
	}
}

func TestMapperAmbiguousClaimIsAbsent(t *testing.T) {
	api := testutil.NewFakeCRM()
	api.SeedGroup(crm.Group{ID: 501, Source: appsync.ResolvedMarker(12)})
	api.SeedGroup(crm.Group{ID: 502, Source: appsync.ResolvedMarker(12)})
	m := appsync.NewMapper(api)

	if _, ok, err := m.CRMGroupForMember(context.Background(), 12); ok || err != nil {
		t.Errorf("two claimants must yield absent, got (ok=%v, err=%v)", ok, err)
	}
}
