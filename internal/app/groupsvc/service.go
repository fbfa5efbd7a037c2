// internal/app/groupsvc/service.go
package groupsvc

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mjwconsult/civicrm-groups-sync/internal/app/system/hooks"
	"github.com/mjwconsult/civicrm-groups-sync/internal/app/system/htmlsanitize"
	"github.com/mjwconsult/civicrm-groups-sync/internal/domain/models"
)

// Topics published by the service. Every mutation fires exactly one event,
// after the database write succeeds.
const (
	TopicGroupCreated = "groups.created"
	TopicGroupUpdated = "groups.updated"
	TopicGroupDeleted = "groups.deleted"
	TopicUserAdded    = "groups.user_added"
	TopicUserRemoved  = "groups.user_removed"
)

// GroupEvent is the payload for group-level topics.
type GroupEvent struct {
	OpID      string
	Group     models.Group
	SyncToCRM bool
}

// MemberEvent is the payload for membership topics.
type MemberEvent struct {
	OpID    string
	GroupID int64
	UserID  int64
}

// GroupStore is the slice of the groups store the service needs.
type GroupStore interface {
	GetByID(ctx context.Context, id int64) (models.Group, error)
	Create(ctx context.Context, g models.Group) (models.Group, error)
	UpdateInfo(ctx context.Context, id int64, name, desc string) (models.Group, error)
	Delete(ctx context.Context, id int64) (int64, error)
	List(ctx context.Context) ([]models.Group, error)
}

// MembershipStore is the slice of the memberships store the service needs.
type MembershipStore interface {
	Add(ctx context.Context, groupID, userID int64) (bool, error)
	Remove(ctx context.Context, groupID, userID int64) (bool, error)
	Exists(ctx context.Context, groupID, userID int64) (bool, error)
	UserIDsForGroup(ctx context.Context, groupID int64) ([]int64, error)
	DeleteByGroup(ctx context.Context, groupID int64) (int64, error)
}

// Service owns membership-side group mutations. All writes go through here
// so that every change is announced on the bus.
type Service struct {
	groups      GroupStore
	memberships MembershipStore
	bus         *hooks.Bus
	logger      *zap.Logger
}

func New(groups GroupStore, memberships MembershipStore, bus *hooks.Bus, logger *zap.Logger) *Service {
	return &Service{groups: groups, memberships: memberships, bus: bus, logger: logger}
}

// CreateGroup creates a membership group. syncToCRM marks the group for
// mirroring; the flag rides the created event and is not persisted.
func (s *Service) CreateGroup(ctx context.Context, name, desc string, syncToCRM bool) (models.Group, error) {
	g, err := s.groups.Create(ctx, models.Group{
		Name:        name,
		Description: htmlsanitize.Sanitize(desc),
	})
	if err != nil {
		return models.Group{}, err
	}
	s.logger.Info("group created", zap.Int64("group_id", g.ID), zap.String("name", g.Name))
	s.bus.Publish(ctx, TopicGroupCreated, &GroupEvent{
		OpID:      uuid.NewString(),
		Group:     g,
		SyncToCRM: syncToCRM,
	})
	return g, nil
}

func (s *Service) UpdateGroup(ctx context.Context, id int64, name, desc string) (models.Group, error) {
	g, err := s.groups.UpdateInfo(ctx, id, name, htmlsanitize.Sanitize(desc))
	if err != nil {
		return models.Group{}, err
	}
	s.bus.Publish(ctx, TopicGroupUpdated, &GroupEvent{OpID: uuid.NewString(), Group: g})
	return g, nil
}

// DeleteGroup removes the group and all of its memberships.
func (s *Service) DeleteGroup(ctx context.Context, id int64) error {
	g, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.memberships.DeleteByGroup(ctx, id); err != nil {
		return fmt.Errorf("delete memberships for group %d: %w", id, err)
	}
	if _, err := s.groups.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("group deleted", zap.Int64("group_id", id))
	s.bus.Publish(ctx, TopicGroupDeleted, &GroupEvent{OpID: uuid.NewString(), Group: g})
	return nil
}

// AddMember puts the user in the group. Returns false without publishing
// when the user was already a member.
func (s *Service) AddMember(ctx context.Context, groupID, userID int64) (bool, error) {
	if _, err := s.groups.GetByID(ctx, groupID); err != nil {
		return false, err
	}
	added, err := s.memberships.Add(ctx, groupID, userID)
	if err != nil || !added {
		return added, err
	}
	s.bus.Publish(ctx, TopicUserAdded, &MemberEvent{
		OpID:    uuid.NewString(),
		GroupID: groupID,
		UserID:  userID,
	})
	return true, nil
}

// RemoveMember takes the user out of the group. Returns false without
// publishing when there was no membership to remove.
func (s *Service) RemoveMember(ctx context.Context, groupID, userID int64) (bool, error) {
	removed, err := s.memberships.Remove(ctx, groupID, userID)
	if err != nil || !removed {
		return removed, err
	}
	s.bus.Publish(ctx, TopicUserRemoved, &MemberEvent{
		OpID:    uuid.NewString(),
		GroupID: groupID,
		UserID:  userID,
	})
	return true, nil
}

func (s *Service) Group(ctx context.Context, id int64) (models.Group, error) {
	return s.groups.GetByID(ctx, id)
}

func (s *Service) Groups(ctx context.Context) ([]models.Group, error) {
	return s.groups.List(ctx)
}

func (s *Service) Members(ctx context.Context, groupID int64) ([]int64, error) {
	return s.memberships.UserIDsForGroup(ctx, groupID)
}

func (s *Service) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	return s.memberships.Exists(ctx, groupID, userID)
}
