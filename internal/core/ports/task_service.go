package ports

import (
	"context"
	"time"

	"github.com/taskflow/tracker/internal/core/domain"
)

// CreateTaskInput carries client-supplied task fields. Owner, id and
// creation time are never taken from the client.
type CreateTaskInput struct {
	Title          string
	Description    string
	DueDate        time.Time
	Status         domain.TaskStatus // empty = PENDING
	IdempotencyKey string
}

// UpdateTaskInput is a partial update; nil fields are left unchanged.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Status      *domain.TaskStatus
}

// ListTasksInput carries paging and optional filters for the list endpoints.
type ListTasksInput struct {
	Page    int // 0-based
	Size    int // clamped to [1, 100] by the service
	Status  domain.TaskStatus
	Keyword string
	Overdue bool
}

// TaskView is the read model returned to callers. Owner fields are
// denormalized for display only.
type TaskView struct {
	ID            string
	Title         string
	Description   string
	Status        domain.TaskStatus
	DueDate       time.Time
	CreatedAt     time.Time
	OwnerID       string
	OwnerUsername string
}

// TaskService exposes task operations constrained to the caller's records.
type TaskService interface {
	List(ctx context.Context, principal *domain.Principal, input ListTasksInput) ([]TaskView, error)
	Count(ctx context.Context, principal *domain.Principal) (int64, error)
	Get(ctx context.Context, principal *domain.Principal, taskID string) (*TaskView, error)
	Create(ctx context.Context, principal *domain.Principal, input CreateTaskInput) (*TaskView, error)
	Update(ctx context.Context, principal *domain.Principal, taskID string, input UpdateTaskInput) (*TaskView, error)
	UpdateStatus(ctx context.Context, principal *domain.Principal, taskID string, status domain.TaskStatus) (*TaskView, error)
	Delete(ctx context.Context, principal *domain.Principal, taskID string) error
}
