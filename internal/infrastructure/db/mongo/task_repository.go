package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskflow/tracker/internal/core/domain"
	"github.com/taskflow/tracker/internal/core/ports"
)

const collectionTasks = "tasks"

// TaskRepository implements ports.TaskStore using MongoDB. Every filter
// carries owner_id next to _id.
type TaskRepository struct {
	col *mongo.Collection
}

func NewTaskRepository(db *mongo.Database) *TaskRepository {
	return &TaskRepository{col: db.Collection(collectionTasks)}
}

type taskDocument struct {
	ID          string    `bson:"_id"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Status      string    `bson:"status"`
	DueDate     time.Time `bson:"due_date"`
	CreatedAt   time.Time `bson:"created_at"`
	OwnerID     string    `bson:"owner_id"`
}

// Insert stores a new task document.
func (r *TaskRepository) Insert(ctx context.Context, t *domain.Task) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, taskDocument{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		DueDate:     t.DueDate.UTC(),
		CreatedAt:   t.CreatedAt.UTC(),
		OwnerID:     t.OwnerID,
	})
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// FindOwned retrieves a task by id, restricted to ownerID.
func (r *TaskRepository) FindOwned(ctx context.Context, ownerID, taskID string) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc taskDocument
	err := r.col.FindOne(ctx, ownedFilter(ownerID, taskID)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

// ListOwned returns one page of tasks ordered by due_date asc, created_at desc.
func (r *TaskRepository) ListOwned(ctx context.Context, f ports.TaskFilter) ([]*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := listFilter(f)

	opts := options.Find().
		SetSort(bson.D{
			{Key: "due_date", Value: 1},
			{Key: "created_at", Value: -1},
			{Key: "_id", Value: 1},
		}).
		SetSkip(int64(f.Offset))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	defer cur.Close(ctx)

	var docs []taskDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}

	tasks := make([]*domain.Task, len(docs))
	for i := range docs {
		tasks[i] = docs[i].toDomain()
	}
	return tasks, nil
}

func (r *TaskRepository) CountOwned(ctx context.Context, ownerID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{"owner_id": ownerID})
}

// UpdateOwned applies patch in a single findAndModify, so it cannot
// interleave with a concurrent delete of the same document.
func (r *TaskRepository) UpdateOwned(ctx context.Context, ownerID, taskID string, p ports.TaskPatch) (*domain.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{}
	if p.Title != nil {
		set["title"] = *p.Title
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.DueDate != nil {
		set["due_date"] = p.DueDate.UTC()
	}
	if p.Status != nil {
		set["status"] = string(*p.Status)
	}

	var doc taskDocument
	err := r.col.FindOneAndUpdate(ctx,
		ownedFilter(ownerID, taskID),
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *TaskRepository) DeleteOwned(ctx context.Context, ownerID, taskID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, ownedFilter(ownerID, taskID))
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes backing owner-scoped listing.
func (r *TaskRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "due_date", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// listFilter translates a TaskFilter into a query document. The owner
// clause is always present.
func listFilter(f ports.TaskFilter) bson.M {
	filter := bson.M{"owner_id": f.OwnerID}
	status := bson.M{}
	if f.Status != "" {
		status["$eq"] = string(f.Status)
	}
	if f.NotStatus != "" {
		status["$ne"] = string(f.NotStatus)
	}
	if len(status) > 0 {
		filter["status"] = status
	}
	if !f.DueBefore.IsZero() {
		filter["due_date"] = bson.M{"$lt": f.DueBefore.UTC()}
	}
	if f.Keyword != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(f.Keyword), "$options": "i"}
		filter["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
	}
	return filter
}

func ownedFilter(ownerID, taskID string) bson.M {
	return bson.M{"_id": taskID, "owner_id": ownerID}
}

func (d taskDocument) toDomain() *domain.Task {
	return &domain.Task{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Status:      domain.TaskStatus(d.Status),
		DueDate:     d.DueDate.UTC(),
		CreatedAt:   d.CreatedAt.UTC(),
		OwnerID:     d.OwnerID,
	}
}
