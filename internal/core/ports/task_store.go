package ports

import (
	"context"
	"time"

	"github.com/taskflow/tracker/internal/core/domain"
)

// TaskFilter carries the query for ListOwned. OwnerID is mandatory; the
// service layer always sets it from the caller's principal.
type TaskFilter struct {
	OwnerID   string
	Status    domain.TaskStatus // optional exact match
	Keyword   string            // optional case-insensitive match on title or description
	DueBefore time.Time         // optional: due_date < DueBefore
	NotStatus domain.TaskStatus // optional exclusion
	Offset    int
	Limit     int
}

// TaskPatch holds the fields an update may replace. Nil means unchanged.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Status      *domain.TaskStatus
}

// Empty reports whether the patch changes nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && p.Status == nil
}

// TaskStore persists tasks. Every lookup is keyed by owner as well as id,
// so a task owned by someone else is indistinguishable from a missing one.
type TaskStore interface {
	Insert(ctx context.Context, task *domain.Task) error
	FindOwned(ctx context.Context, ownerID, taskID string) (*domain.Task, error)
	// ListOwned orders by due_date ascending, then created_at descending.
	ListOwned(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)
	CountOwned(ctx context.Context, ownerID string) (int64, error)
	// UpdateOwned applies patch atomically and returns the updated task.
	UpdateOwned(ctx context.Context, ownerID, taskID string, patch TaskPatch) (*domain.Task, error)
	DeleteOwned(ctx context.Context, ownerID, taskID string) error
}
