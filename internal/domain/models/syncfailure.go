// internal/domain/models/syncfailure.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SyncFailure is one persisted entry in the failure log: a counterpart
// mutation that returned an error. The triggering event is still treated
// as complete; these records exist so an operator (or a later sweep) can
// find and repair the drift.
type SyncFailure struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Operation string             `bson:"operation" json:"operation"`
	OpID      string             `bson:"op_id,omitempty" json:"op_id,omitempty"`

	CRMGroupID    int64 `bson:"crm_group_id,omitempty" json:"crm_group_id,omitempty"`
	MemberGroupID int64 `bson:"member_group_id,omitempty" json:"member_group_id,omitempty"`
	ContactID     int64 `bson:"contact_id,omitempty" json:"contact_id,omitempty"`
	UserID        int64 `bson:"user_id,omitempty" json:"user_id,omitempty"`

	Error     string    `bson:"error" json:"error"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
