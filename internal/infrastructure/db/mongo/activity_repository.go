package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/taskflow/tracker/internal/core/ports"
)

const collectionActivity = "task_activity"

// ActivityRepository implements ports.ActivityRepository using MongoDB.
type ActivityRepository struct {
	db *mongo.Database
}

// NewActivityRepository creates a new ActivityRepository.
func NewActivityRepository(db *mongo.Database) ports.ActivityRepository {
	return &ActivityRepository{db: db}
}

// InsertActivity persists one record to the task_activity audit collection.
func (r *ActivityRepository) InsertActivity(ctx context.Context, a ports.TaskActivity) error {
	doc := bson.M{
		"task_id":     a.TaskID,
		"owner_id":    a.OwnerID,
		"action":      a.Action,
		"at":          a.At.UTC(),
		"recorded_at": time.Now().UTC(),
	}

	_, err := r.db.Collection(collectionActivity).InsertOne(ctx, doc)
	return err
}
