// internal/app/store/identities/identitystore.go
package identitystore

import (
	"context"
	"errors"
	"time"

	"github.com/mjwconsult/civicrm-groups-sync/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateLink is returned when either side of a new link is already
// linked; a contact maps to at most one user and vice versa.
var ErrDuplicateLink = errors.New("contact or user is already linked")

// Store persists Contact↔User identity links in "identity_links".
// This is the match table behind the Membership Resolver.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("identity_links")}
}

// Link records that contactID and userID are the same person.
func (s *Store) Link(ctx context.Context, contactID, userID int64) error {
	doc := models.IdentityLink{
		ContactID: contactID,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateLink
		}
		return err
	}
	return nil
}

// Unlink removes the link for a contact, if any.
func (s *Store) Unlink(ctx context.Context, contactID int64) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"contact_id": contactID})
	return err
}

// UserIDForContact returns the linked user ID, or ok=false when the
// contact is not linked.
func (s *Store) UserIDForContact(ctx context.Context, contactID int64) (int64, bool, error) {
	var link models.IdentityLink
	err := s.c.FindOne(ctx, bson.M{"contact_id": contactID}).Decode(&link)
	if err == mongo.ErrNoDocuments {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return link.UserID, true, nil
}

// ContactIDForUser returns the linked contact ID, or ok=false when the
// user is not linked.
func (s *Store) ContactIDForUser(ctx context.Context, userID int64) (int64, bool, error) {
	var link models.IdentityLink
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&link)
	if err == mongo.ErrNoDocuments {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return link.ContactID, true, nil
}
