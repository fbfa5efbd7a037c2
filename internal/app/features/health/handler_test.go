package health_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mjwconsult/civicrm-groups-sync/internal/app/features/health"
	"github.com/mjwconsult/civicrm-groups-sync/internal/testutil"
	"go.uber.org/zap"
)

func TestServe_OK(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := health.NewHandler(db.Client(), testutil.NewFakeCRM(), zap.NewNop())

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	var resp struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		CRM      string `json:"crm"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("status field: got %q, want %q", resp.Status, "ok")
	}
	if resp.Database != "connected" {
		t.Errorf("database: got %q, want %q", resp.Database, "connected")
	}
	// The fake CRM answers GroupByID with a not-found API response, which
	// still proves the endpoint is up.
	if resp.CRM != "reachable" {
		t.Errorf("crm: got %q, want %q", resp.CRM, "reachable")
	}
}

func TestServe_NoCRMConfigured(t *testing.T) {
	db := testutil.SetupTestDB(t)
	h := health.NewHandler(db.Client(), nil, zap.NewNop())

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, present := resp["crm"]; present {
		t.Error("expected crm field omitted when no CRM client is wired")
	}
}
