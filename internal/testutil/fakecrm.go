// internal/testutil/fakecrm.go
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mjwconsult/civicrm-groups-sync/internal/crm"
)

// FakeCRM is an in-memory CiviCRM API for gateway and engine tests. It
// keeps group and GroupContact state, records every call, and can be told
// to fail the next mutation.
type FakeCRM struct {
	mu       sync.Mutex
	groups   map[int64]crm.Group
	contacts map[int64]map[int64]string // groupID -> contactID -> status
	nextID   int64

	// Calls records each API call as "Method(args)" in order.
	Calls []string
	// FailNext, when set, is returned by the next mutating call and cleared.
	FailNext error
}

func NewFakeCRM() *FakeCRM {
	return &FakeCRM{
		groups:   make(map[int64]crm.Group),
		contacts: make(map[int64]map[int64]string),
	}
}

var _ crm.API = (*FakeCRM)(nil)

func (f *FakeCRM) record(format string, args ...any) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

func (f *FakeCRM) takeFailure() error {
	err := f.FailNext
	f.FailNext = nil
	return err
}

// SeedGroup inserts a group directly, bypassing call recording.
func (f *FakeCRM) SeedGroup(g crm.Group) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if g.ID > f.nextID {
		f.nextID = g.ID
	}
	f.groups[g.ID] = g
}

// SeedContact puts a contact in a group with the given status.
func (f *FakeCRM) SeedContact(groupID, contactID int64, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contacts[groupID] == nil {
		f.contacts[groupID] = make(map[int64]string)
	}
	f.contacts[groupID][contactID] = status
}

// Group returns the stored group for assertions.
func (f *FakeCRM) Group(id int64) (crm.Group, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.groups[id]
	return g, ok
}

// ContactStatus returns the stored GroupContact status for assertions.
func (f *FakeCRM) ContactStatus(groupID, contactID int64) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	status, ok := f.contacts[groupID][contactID]
	return status, ok
}

func (f *FakeCRM) GroupByID(ctx context.Context, id int64) (crm.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GroupByID(%d)", id)
	g, ok := f.groups[id]
	if !ok {
		return crm.Group{}, crm.ErrNotFound
	}
	return g, nil
}

func (f *FakeCRM) GroupBySource(ctx context.Context, source string) (crm.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GroupBySource(%s)", source)
	var matches []crm.Group
	for _, g := range f.groups {
		if g.Source == source {
			matches = append(matches, g)
		}
	}
	switch len(matches) {
	case 0:
		return crm.Group{}, crm.ErrNotFound
	case 1:
		return matches[0], nil
	default:
		return crm.Group{}, crm.ErrMultipleMatches
	}
}

func (f *FakeCRM) GroupsBySourceLike(ctx context.Context, substr string) ([]crm.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GroupsBySourceLike(%s)", substr)
	var out []crm.Group
	for _, g := range f.groups {
		if strings.Contains(g.Source, substr) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeCRM) CreateGroup(ctx context.Context, p crm.GroupParams) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CreateGroup(%s)", p.Title)
	if err := f.takeFailure(); err != nil {
		return 0, err
	}
	f.nextID++
	f.groups[f.nextID] = crm.Group{
		ID:          f.nextID,
		Name:        p.Name,
		Title:       p.Title,
		Description: p.Description,
		Source:      p.Source,
	}
	return f.nextID, nil
}

func (f *FakeCRM) UpdateGroup(ctx context.Context, id int64, title, description string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateGroup(%d,%s)", id, title)
	if err := f.takeFailure(); err != nil {
		return err
	}
	g, ok := f.groups[id]
	if !ok {
		return crm.ErrNotFound
	}
	g.Title = title
	g.Description = description
	f.groups[id] = g
	return nil
}

func (f *FakeCRM) SetGroupSource(ctx context.Context, id int64, source string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetGroupSource(%d,%s)", id, source)
	if err := f.takeFailure(); err != nil {
		return err
	}
	g, ok := f.groups[id]
	if !ok {
		return crm.ErrNotFound
	}
	g.Source = source
	f.groups[id] = g
	return nil
}

func (f *FakeCRM) DeleteGroup(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteGroup(%d)", id)
	if err := f.takeFailure(); err != nil {
		return err
	}
	delete(f.groups, id)
	delete(f.contacts, id)
	return nil
}

func (f *FakeCRM) GroupContactCreate(ctx context.Context, groupID, contactID int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GroupContactCreate(%d,%d,%s)", groupID, contactID, status)
	if err := f.takeFailure(); err != nil {
		return err
	}
	if f.contacts[groupID] == nil {
		f.contacts[groupID] = make(map[int64]string)
	}
	f.contacts[groupID][contactID] = status
	return nil
}

func (f *FakeCRM) ContactIDsInGroup(ctx context.Context, groupID int64, status string) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ContactIDsInGroup(%d,%s)", groupID, status)
	var out []int64
	for contactID, st := range f.contacts[groupID] {
		if st == status {
			out = append(out, contactID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
