package syncfailures_test

import (
	"testing"
	"time"

	"github.com/mjwconsult/civicrm-groups-sync/internal/app/store/syncfailures"
	"github.com/mjwconsult/civicrm-groups-sync/internal/domain/models"
	"github.com/mjwconsult/civicrm-groups-sync/internal/testutil"
)

func TestStore_LogAndGetRecent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := syncfailures.New(db)
	ctx := testutil.Context(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		err := store.Log(ctx, models.SyncFailure{
			Operation:  "crm_contact_add",
			CRMGroupID: 31,
			UserID:     int64(10 + i),
			Error:      "connection refused",
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	got, err := store.GetRecent(ctx, 2)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 failures, got %d", len(got))
	}
	// Newest first.
	if got[0].UserID != 12 || got[1].UserID != 11 {
		t.Errorf("order: got users %d, %d, want 12, 11", got[0].UserID, got[1].UserID)
	}
}

func TestStore_Log_FillsDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := syncfailures.New(db)
	ctx := testutil.Context(t)

	err := store.Log(ctx, models.SyncFailure{
		Operation: "crm_group_create",
		Error:     "boom",
	})
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	got, err := store.GetRecent(ctx, 1)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(got))
	}
	if got[0].ID.IsZero() {
		t.Error("expected ID to be assigned")
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestStore_Query_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := syncfailures.New(db)
	ctx := testutil.Context(t)

	now := time.Now().UTC()
	rows := []models.SyncFailure{
		{Operation: "crm_contact_add", CRMGroupID: 31, Error: "x", CreatedAt: now.Add(-3 * time.Hour)},
		{Operation: "crm_contact_add", CRMGroupID: 32, Error: "x", CreatedAt: now.Add(-2 * time.Hour)},
		{Operation: "member_user_add", CRMGroupID: 31, Error: "x", CreatedAt: now.Add(-1 * time.Hour)},
	}
	for _, f := range rows {
		if err := store.Log(ctx, f); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	byOp, err := store.Query(ctx, syncfailures.QueryFilter{Operation: "crm_contact_add"})
	if err != nil {
		t.Fatalf("Query by operation failed: %v", err)
	}
	if len(byOp) != 2 {
		t.Errorf("by operation: expected 2, got %d", len(byOp))
	}

	byGroup, err := store.Query(ctx, syncfailures.QueryFilter{CRMGroupID: 31})
	if err != nil {
		t.Fatalf("Query by group failed: %v", err)
	}
	if len(byGroup) != 2 {
		t.Errorf("by group: expected 2, got %d", len(byGroup))
	}

	start := now.Add(-90 * time.Minute)
	byTime, err := store.Query(ctx, syncfailures.QueryFilter{StartTime: &start})
	if err != nil {
		t.Fatalf("Query by time failed: %v", err)
	}
	if len(byTime) != 1 || byTime[0].Operation != "member_user_add" {
		t.Errorf("by time: expected the newest row only, got %d rows", len(byTime))
	}
}

func TestStore_EnsureIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := syncfailures.New(db)
	ctx := testutil.Context(t)

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}
	// Idempotent on second run.
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("second EnsureIndexes failed: %v", err)
	}
}
