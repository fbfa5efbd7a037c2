// internal/domain/models/identitylink.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IdentityLink records that a CiviCRM Contact and a member-side User are
// the same person. It is the match table the Membership Resolver consults;
// how rows get here (import, signup matching, manual linking) is outside
// the sync engine.
type IdentityLink struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ContactID int64              `bson:"contact_id" json:"contact_id"`
	UserID    int64              `bson:"user_id" json:"user_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
