// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"strings"
	"time"

	counterstore "github.com/mjwconsult/civicrm-groups-sync/internal/app/store/counters"
	"github.com/mjwconsult/civicrm-groups-sync/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when no group exists for the given key.
	ErrNotFound = errors.New("group not found")

	// ErrDuplicateGroupName is returned by Create when a group with the
	// same (case-folded) name already exists. The CiviCRM side treats a
	// name collision as a hard failure, so the store surfaces it as one.
	ErrDuplicateGroupName = errors.New("a group with this name already exists")
)

// Store persists member-side groups in the "groups" collection.
type Store struct {
	c        *mongo.Collection
	counters *counterstore.Store
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("groups"),
		counters: counterstore.New(db),
	}
}

func (s *Store) GetByID(ctx context.Context, id int64) (models.Group, error) {
	var g models.Group
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if err == mongo.ErrNoDocuments {
		return models.Group{}, ErrNotFound
	}
	if err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// GetByName looks a group up by case-folded name.
func (s *Store) GetByName(ctx context.Context, name string) (models.Group, error) {
	var g models.Group
	err := s.c.FindOne(ctx, bson.M{"name_ci": text.Fold(name)}).Decode(&g)
	if err == mongo.ErrNoDocuments {
		return models.Group{}, ErrNotFound
	}
	if err != nil {
		return models.Group{}, err
	}
	return g, nil
}

func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	id, err := s.counters.Next(ctx, counterstore.SeqGroups)
	if err != nil {
		return models.Group{}, err
	}

	now := time.Now().UTC()
	g.ID = id
	g.NameCI = text.Fold(g.Name)
	g.CreatedAt = now
	g.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, g); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Group{}, ErrDuplicateGroupName
		}
		return models.Group{}, err
	}
	return g, nil
}

// UpdateInfo sets name and description. An empty name is left unchanged;
// description can be cleared.
func (s *Store) UpdateInfo(ctx context.Context, id int64, name, desc string) (models.Group, error) {
	set := bson.M{
		"description": desc,
		"updated_at":  time.Now().UTC(),
	}
	if strings.TrimSpace(name) != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}

	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Group{}, ErrDuplicateGroupName
		}
		return models.Group{}, err
	}
	if res.MatchedCount == 0 {
		return models.Group{}, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// Delete removes a group by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// List returns all groups, newest first.
func (s *Store) List(ctx context.Context) ([]models.Group, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var groups []models.Group
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}
