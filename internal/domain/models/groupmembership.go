// internal/domain/models/groupmembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GroupMembership is the authoritative join between users and member-side
// groups. Exactly one document per (group_id, user_id); there is no status
// column — membership is presence or absence of the document. The CiviCRM
// side carries an Added/Removed status instead, which the sync engine maps
// onto create/delete of these documents.
type GroupMembership struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	GroupID   int64              `bson:"group_id" json:"group_id"`
	UserID    int64              `bson:"user_id" json:"user_id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
