// internal/domain/models/group.go
package models

import "time"

// Group is a member-side group: the counterpart of a CiviCRM Group.
//
// NOTE:
//   - The document _id is a small integer allocated from the counters
//     collection, not an ObjectID. The CiviCRM "source" marker embeds
//     this integer, so it has to survive a round trip through a string.
//   - Membership is not embedded here; it lives in the group_memberships
//     collection, one document per (group_id, user_id).
type Group struct {
	ID          int64  `bson:"_id" json:"id"`
	Name        string `bson:"name" json:"name"`
	NameCI      string `bson:"name_ci" json:"name_ci"`
	Description string `bson:"description" json:"description"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
