package crm_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mjwconsult/civicrm-groups-sync/internal/crm"
)

// newServer fakes the CRM REST endpoint. The handler receives the decoded
// entity, action and json params and returns the raw response body.
func newServer(t *testing.T, handler func(entity, action string, params map[string]any) string) (*httptest.Server, *crm.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("bad form: %v", err)
		}
		if r.Form.Get("api_key") != "test-api-key" {
			t.Errorf("missing api_key, got %q", r.Form.Get("api_key"))
		}
		if r.Form.Get("key") != "test-site-key" {
			t.Errorf("missing site key, got %q", r.Form.Get("key"))
		}
		var params map[string]any
		if raw := r.Form.Get("json"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &params); err != nil {
				t.Fatalf("bad json param: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(handler(r.Form.Get("entity"), r.Form.Get("action"), params)))
	}))
	t.Cleanup(srv.Close)
	return srv, crm.NewClient(srv.URL, "test-api-key", "test-site-key", 5*time.Second)
}

func TestGroupByID(t *testing.T) {
	_, client := newServer(t, func(entity, action string, params map[string]any) string {
		if entity != "Group" || action != "get" {
			t.Errorf("unexpected call %s.%s", entity, action)
		}
		if params["id"] != float64(9) {
			t.Errorf("expected id=9, got %v", params["id"])
		}
		return `{"is_error":0,"count":1,"values":{"9":{"id":"9","name":"vips","title":"VIPs","description":"d","source":"synced-group-5"}}}`
	})

	g, err := client.GroupByID(context.Background(), 9)
	if err != nil {
		t.Fatalf("GroupByID failed: %v", err)
	}
	if g.ID != 9 || g.Title != "VIPs" || g.Source != "synced-group-5" {
		t.Errorf("unexpected group: %+v", g)
	}
}

func TestGroupByID_NotFound(t *testing.T) {
	_, client := newServer(t, func(entity, action string, params map[string]any) string {
		return `{"is_error":0,"count":0,"values":{}}`
	})

	if _, err := client.GroupByID(context.Background(), 404); err != crm.ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGroupBySource_SingleContract(t *testing.T) {
	responses := map[string]string{
		"none": `{"is_error":0,"count":0,"values":{}}`,
		"one":  `{"is_error":0,"count":1,"values":{"9":{"id":9,"title":"VIPs","source":"synced-group-5"}}}`,
		"two":  `{"is_error":0,"count":2,"values":{"9":{"id":9},"10":{"id":10}}}`,
	}
	var key string
	_, client := newServer(t, func(entity, action string, params map[string]any) string {
		return responses[key]
	})

	key = "none"
	if _, err := client.GroupBySource(context.Background(), "synced-group-5"); err != crm.ErrNotFound {
		t.Errorf("zero matches: expected ErrNotFound, got %v", err)
	}

	key = "one"
	g, err := client.GroupBySource(context.Background(), "synced-group-5")
	if err != nil || g.ID != 9 {
		t.Errorf("one match: got (%+v, %v)", g, err)
	}

	key = "two"
	if _, err := client.GroupBySource(context.Background(), "synced-group-5"); err != crm.ErrMultipleMatches {
		t.Errorf("two matches: expected ErrMultipleMatches, got %v", err)
	}
}

func TestCreateGroup(t *testing.T) {
	_, client := newServer(t, func(entity, action string, params map[string]any) string {
		if entity != "Group" || action != "create" {
			t.Errorf("unexpected call %s.%s", entity, action)
		}
		if params["title"] != "VIPs" || params["source"] != "synced-group-5" {
			t.Errorf("unexpected params: %v", params)
		}
		return `{"is_error":0,"id":"31","values":{}}`
	})

	id, err := client.CreateGroup(context.Background(), crm.GroupParams{
		Name:   "VIPs",
		Title:  "VIPs",
		Source: "synced-group-5",
	})
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if id != 31 {
		t.Errorf("expected id 31, got %d", id)
	}
}

func TestCreateGroup_APIError(t *testing.T) {
	_, client := newServer(t, func(entity, action string, params map[string]any) string {
		return `{"is_error":1,"error_message":"Group name already exists"}`
	})

	_, err := client.CreateGroup(context.Background(), crm.GroupParams{Title: "VIPs"})
	var apiErr *crm.APIError
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Message != "Group name already exists" {
		t.Errorf("unexpected message: %q", apiErr.Message)
	}
}

func TestContactIDsInGroup(t *testing.T) {
	_, client := newServer(t, func(entity, action string, params map[string]any) string {
		if entity != "GroupContact" || action != "get" {
			t.Errorf("unexpected call %s.%s", entity, action)
		}
		if params["status"] != "Added" {
			t.Errorf("expected status filter, got %v", params["status"])
		}
		return `{"is_error":0,"count":2,"values":{"1":{"contact_id":"42"},"2":{"contact_id":17}}}`
	})

	ids, err := client.ContactIDsInGroup(context.Background(), 9, crm.StatusAdded)
	if err != nil {
		t.Fatalf("ContactIDsInGroup failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}
	seen := map[int64]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	if !seen[42] || !seen[17] {
		t.Errorf("expected ids 42 and 17, got %v", ids)
	}
}
