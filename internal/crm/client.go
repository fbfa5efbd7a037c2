// Package crm talks to the CiviCRM HTTP API (entity/action calls in the
// APIv3 style) and republishes successful mutations as local hook events.
//
// The Client is the bare wire protocol; the Gateway wraps it with event
// publication so the sync engine observes CRM mutations the same way
// whether they were made here or reported by the webhook bridge.
package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// API is the CRM surface the rest of the app consumes. *Client implements
// it against a live CiviCRM; tests substitute an in-memory fake.
type API interface {
	GroupByID(ctx context.Context, id int64) (Group, error)
	GroupBySource(ctx context.Context, source string) (Group, error)
	GroupsBySourceLike(ctx context.Context, substr string) ([]Group, error)
	CreateGroup(ctx context.Context, p GroupParams) (int64, error)
	UpdateGroup(ctx context.Context, id int64, title, description string) error
	SetGroupSource(ctx context.Context, id int64, source string) error
	DeleteGroup(ctx context.Context, id int64) error
	GroupContactCreate(ctx context.Context, groupID, contactID int64, status string) error
	ContactIDsInGroup(ctx context.Context, groupID int64, status string) ([]int64, error)
}

// Client calls the CRM API endpoint with api-key authentication.
type Client struct {
	endpoint string
	apiKey   string
	siteKey  string
	http     *http.Client
}

// NewClient builds a Client for the given REST endpoint
// (e.g. https://crm.example.org/civicrm/ajax/rest).
func NewClient(endpoint, apiKey, siteKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		siteKey:  siteKey,
		http:     &http.Client{Timeout: timeout},
	}
}

// call performs one entity/action request. params is JSON-encoded into the
// "json" form field the way the CRM REST endpoint expects.
func (c *Client) call(ctx context.Context, entity, action string, params map[string]any) (*apiResponse, error) {
	encoded, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("entity", entity)
	form.Set("action", action)
	form.Set("api_key", c.apiKey)
	form.Set("key", c.siteKey)
	form.Set("json", string(encoded))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crm: %s.%s returned HTTP %d", entity, action, resp.StatusCode)
	}

	var out apiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("crm: decoding %s.%s response: %w", entity, action, err)
	}
	if out.IsError != 0 {
		return nil, &APIError{Message: out.ErrorMessage}
	}
	return &out, nil
}

// decodeGroups unpacks the "values" map (keyed by row ID) into a slice.
func decodeGroups(values json.RawMessage) ([]Group, error) {
	if len(values) == 0 {
		return nil, nil
	}
	var m map[string]wireGroup
	if err := json.Unmarshal(values, &m); err != nil {
		return nil, err
	}
	groups := make([]Group, 0, len(m))
	for _, w := range m {
		groups = append(groups, w.toGroup())
	}
	return groups, nil
}

// GroupByID fetches one group. Returns ErrNotFound when the ID is unknown.
func (c *Client) GroupByID(ctx context.Context, id int64) (Group, error) {
	resp, err := c.call(ctx, "Group", "get", map[string]any{"id": id})
	if err != nil {
		return Group{}, err
	}
	groups, err := decodeGroups(resp.Values)
	if err != nil {
		return Group{}, err
	}
	if len(groups) == 0 {
		return Group{}, ErrNotFound
	}
	return groups[0], nil
}

// GroupBySource fetches the single group whose source field equals source
// exactly. Zero matches is ErrNotFound; more than one is ErrMultipleMatches.
func (c *Client) GroupBySource(ctx context.Context, source string) (Group, error) {
	resp, err := c.call(ctx, "Group", "get", map[string]any{"source": source})
	if err != nil {
		return Group{}, err
	}
	groups, err := decodeGroups(resp.Values)
	if err != nil {
		return Group{}, err
	}
	switch len(groups) {
	case 0:
		return Group{}, ErrNotFound
	case 1:
		return groups[0], nil
	default:
		return Group{}, ErrMultipleMatches
	}
}

// GroupsBySourceLike returns every group whose source field contains substr.
func (c *Client) GroupsBySourceLike(ctx context.Context, substr string) ([]Group, error) {
	params := map[string]any{
		"source":  map[string]any{"LIKE": "%" + substr + "%"},
		"options": map[string]any{"limit": 0},
	}
	resp, err := c.call(ctx, "Group", "get", params)
	if err != nil {
		return nil, err
	}
	return decodeGroups(resp.Values)
}

// CreateGroup creates a group and returns its new ID.
func (c *Client) CreateGroup(ctx context.Context, p GroupParams) (int64, error) {
	params := map[string]any{
		"name":        p.Name,
		"title":       p.Title,
		"description": p.Description,
	}
	if p.Source != "" {
		params["source"] = p.Source
	}
	if len(p.GroupType) > 0 {
		params["group_type"] = p.GroupType
	}
	resp, err := c.call(ctx, "Group", "create", params)
	if err != nil {
		return 0, err
	}
	return int64(resp.ID), nil
}

// UpdateGroup sets a group's title (and name) and description.
func (c *Client) UpdateGroup(ctx context.Context, id int64, title, description string) error {
	_, err := c.call(ctx, "Group", "create", map[string]any{
		"id":          id,
		"name":        title,
		"title":       title,
		"description": description,
	})
	return err
}

// SetGroupSource rewrites only the source (provenance) field.
func (c *Client) SetGroupSource(ctx context.Context, id int64, source string) error {
	_, err := c.call(ctx, "Group", "create", map[string]any{
		"id":     id,
		"source": source,
	})
	return err
}

// DeleteGroup deletes a group.
func (c *Client) DeleteGroup(ctx context.Context, id int64) error {
	_, err := c.call(ctx, "Group", "delete", map[string]any{"id": id})
	return err
}

// GroupContactCreate writes a GroupContact row with the given status.
// The CRM upserts on (group_id, contact_id), so re-adding an existing
// member or re-removing a non-member succeeds without duplicating rows.
func (c *Client) GroupContactCreate(ctx context.Context, groupID, contactID int64, status string) error {
	_, err := c.call(ctx, "GroupContact", "create", map[string]any{
		"group_id":   groupID,
		"contact_id": contactID,
		"status":     status,
	})
	return err
}

// ContactIDsInGroup lists the contact IDs in a group filtered by status.
func (c *Client) ContactIDsInGroup(ctx context.Context, groupID int64, status string) ([]int64, error) {
	params := map[string]any{
		"group_id": groupID,
		"options":  map[string]any{"limit": 0},
	}
	if status != "" {
		params["status"] = status
	}
	resp, err := c.call(ctx, "GroupContact", "get", params)
	if err != nil {
		return nil, err
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	var m map[string]wireGroupContact
	if err := json.Unmarshal(resp.Values, &m); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(m))
	for _, w := range m {
		ids = append(ids, int64(w.ContactID))
	}
	return ids, nil
}
