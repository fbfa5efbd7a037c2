// internal/testutil/memstores.go
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/waffle/pantry/text"

	groupstore "github.com/mjwconsult/civicrm-groups-sync/internal/app/store/groups"
	"github.com/mjwconsult/civicrm-groups-sync/internal/domain/models"
)

// MemGroupStore is an in-memory stand-in for the groups store, used to
// drive groupsvc and the sync engine without a database.
type MemGroupStore struct {
	mu     sync.Mutex
	byID   map[int64]models.Group
	nextID int64
}

func NewMemGroupStore() *MemGroupStore {
	return &MemGroupStore{byID: make(map[int64]models.Group)}
}

func (s *MemGroupStore) GetByID(ctx context.Context, id int64) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.byID[id]
	if !ok {
		return models.Group{}, groupstore.ErrNotFound
	}
	return g, nil
}

func (s *MemGroupStore) GetByName(ctx context.Context, name string) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	folded := text.Fold(name)
	for _, g := range s.byID {
		if g.NameCI == folded {
			return g, nil
		}
	}
	return models.Group{}, groupstore.ErrNotFound
}

func (s *MemGroupStore) Create(ctx context.Context, g models.Group) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	folded := text.Fold(g.Name)
	for _, existing := range s.byID {
		if existing.NameCI == folded {
			return models.Group{}, groupstore.ErrDuplicateGroupName
		}
	}
	s.nextID++
	now := time.Now().UTC()
	g.ID = s.nextID
	g.NameCI = folded
	g.CreatedAt = now
	g.UpdatedAt = now
	s.byID[g.ID] = g
	return g, nil
}

func (s *MemGroupStore) UpdateInfo(ctx context.Context, id int64, name, desc string) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.byID[id]
	if !ok {
		return models.Group{}, groupstore.ErrNotFound
	}
	if name != "" {
		g.Name = name
		g.NameCI = text.Fold(name)
	}
	g.Description = desc
	g.UpdatedAt = time.Now().UTC()
	s.byID[id] = g
	return g, nil
}

func (s *MemGroupStore) Delete(ctx context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return 0, nil
	}
	delete(s.byID, id)
	return 1, nil
}

func (s *MemGroupStore) List(ctx context.Context) ([]models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Group, 0, len(s.byID))
	for _, g := range s.byID {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memberKey struct{ groupID, userID int64 }

// MemMembershipStore is an in-memory stand-in for the memberships store.
type MemMembershipStore struct {
	mu      sync.Mutex
	members map[memberKey]struct{}
}

func NewMemMembershipStore() *MemMembershipStore {
	return &MemMembershipStore{members: make(map[memberKey]struct{})}
}

func (s *MemMembershipStore) Add(ctx context.Context, groupID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memberKey{groupID, userID}
	if _, ok := s.members[k]; ok {
		return false, nil
	}
	s.members[k] = struct{}{}
	return true, nil
}

func (s *MemMembershipStore) Remove(ctx context.Context, groupID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := memberKey{groupID, userID}
	if _, ok := s.members[k]; !ok {
		return false, nil
	}
	delete(s.members, k)
	return true, nil
}

func (s *MemMembershipStore) Exists(ctx context.Context, groupID, userID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[memberKey{groupID, userID}]
	return ok, nil
}

func (s *MemMembershipStore) UserIDsForGroup(ctx context.Context, groupID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []int64
	for k := range s.members {
		if k.groupID == groupID {
			out = append(out, k.userID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *MemMembershipStore) DeleteByGroup(ctx context.Context, groupID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.members {
		if k.groupID == groupID {
			delete(s.members, k)
			n++
		}
	}
	return n, nil
}

func (s *MemMembershipStore) CountByGroup(ctx context.Context, groupID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.members {
		if k.groupID == groupID {
			n++
		}
	}
	return n, nil
}

// MemIdentityStore is an in-memory stand-in for the identity link store.
type MemIdentityStore struct {
	mu            sync.Mutex
	userByContact map[int64]int64
	contactByUser map[int64]int64
}

func NewMemIdentityStore() *MemIdentityStore {
	return &MemIdentityStore{
		userByContact: make(map[int64]int64),
		contactByUser: make(map[int64]int64),
	}
}

func (s *MemIdentityStore) Link(ctx context.Context, contactID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userByContact[contactID] = userID
	s.contactByUser[userID] = contactID
	return nil
}

func (s *MemIdentityStore) UserIDForContact(ctx context.Context, contactID int64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.userByContact[contactID]
	return id, ok, nil
}

func (s *MemIdentityStore) ContactIDForUser(ctx context.Context, userID int64) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.contactByUser[userID]
	return id, ok, nil
}
