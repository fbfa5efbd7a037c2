// internal/app/store/syncfailures/store.go
package syncfailures

import (
	"context"
	"time"

	"github.com/mjwconsult/civicrm-groups-sync/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QueryFilter defines filters for querying the failure log.
type QueryFilter struct {
	Operation  string
	CRMGroupID int64
	StartTime  *time.Time
	EndTime    *time.Time
	Limit      int64
	Offset     int64
}

// Store manages the persisted failure log ("sync_failures").
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("sync_failures")}
}

// EnsureIndexes creates the indexes the query paths rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{
				{Key: "operation", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
		{
			Keys: bson.D{
				{Key: "crm_group_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Log records one failure.
func (s *Store) Log(ctx context.Context, f models.SyncFailure) error {
	if f.ID.IsZero() {
		f.ID = primitive.NewObjectID()
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, f)
	return err
}

// Query retrieves failures matching the given filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]models.SyncFailure, error) {
	query := bson.M{}
	if filter.Operation != "" {
		query["operation"] = filter.Operation
	}
	if filter.CRMGroupID != 0 {
		query["crm_group_id"] = filter.CRMGroupID
	}
	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["created_at"] = timeQuery
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var failures []models.SyncFailure
	if err := cursor.All(ctx, &failures); err != nil {
		return nil, err
	}
	return failures, nil
}

// GetRecent retrieves the most recent failures.
func (s *Store) GetRecent(ctx context.Context, limit int64) ([]models.SyncFailure, error) {
	return s.Query(ctx, QueryFilter{Limit: limit})
}
