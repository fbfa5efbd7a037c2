// internal/app/store/memberships/membershipstore.go
package membershipstore

import (
	"context"
	"time"

	"github.com/mjwconsult/civicrm-groups-sync/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store persists the user/group join table in "group_memberships".
//
// Add and Remove are idempotent: adding an existing member or removing a
// non-member is a no-op success. The sync engine depends on this — mirrored
// membership changes and the reconciliation sweep both re-apply operations
// that may already have happened.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("group_memberships")}
}

// Add creates the membership document for (groupID, userID).
// Returns true when a document was inserted, false when it already existed.
func (s *Store) Add(ctx context.Context, groupID, userID int64) (bool, error) {
	doc := models.GroupMembership{
		GroupID:   groupID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.c.InsertOne(ctx, doc)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Remove deletes the membership document for (groupID, userID).
// Returns true when a document was deleted, false when none existed.
func (s *Store) Remove(ctx context.Context, groupID, userID int64) (bool, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"group_id": groupID, "user_id": userID})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

// Exists checks if a membership exists for the given group and user.
func (s *Store) Exists(ctx context.Context, groupID, userID int64) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"group_id": groupID, "user_id": userID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UserIDsForGroup returns the raw roster for a group: every user ID with a
// join document, in no particular order.
func (s *Store) UserIDsForGroup(ctx context.Context, groupID int64) ([]int64, error) {
	cur, err := s.c.Find(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var userIDs []int64
	for cur.Next(ctx) {
		var m models.GroupMembership
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, m.UserID)
	}
	return userIDs, cur.Err()
}

// DeleteByGroup removes all memberships for a group.
// Returns the number of documents deleted.
func (s *Store) DeleteByGroup(ctx context.Context, groupID int64) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"group_id": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByGroup returns the count of memberships for a group.
func (s *Store) CountByGroup(ctx context.Context, groupID int64) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"group_id": groupID})
}
