package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/taskflow/tracker/internal/core/domain"
	"github.com/taskflow/tracker/internal/core/ports"
	"github.com/taskflow/tracker/internal/pkg/metrics"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100

	// maxOffset bounds page*size so absurd page numbers read as an empty page.
	maxOffset = 1 << 30
)

// TaskService implements ports.TaskService. Every operation is scoped to
// the principal passed in; the owner is never taken from client input.
type TaskService struct {
	store       ports.TaskStore
	idempotency ports.IdempotencyStore
	activity    ports.ActivityPublisher
	logger      zerolog.Logger
	now         func() time.Time
}

// NewTaskService builds a TaskService. idempotency and activity may be nil.
func NewTaskService(store ports.TaskStore, idempotency ports.IdempotencyStore, activity ports.ActivityPublisher, logger zerolog.Logger) *TaskService {
	return &TaskService{
		store:       store,
		idempotency: idempotency,
		activity:    activity,
		logger:      logger,
		now:         time.Now,
	}
}

// List returns one page of the principal's tasks, ordered by due date
// ascending and creation time descending. Out-of-range paging degrades to
// a clamped or empty page.
func (s *TaskService) List(ctx context.Context, principal *domain.Principal, input ports.ListTasksInput) ([]ports.TaskView, error) {
	if input.Status != "" {
		if err := domain.ValidateStatus(input.Status); err != nil {
			s.record("list", err)
			return nil, err
		}
	}

	page, size := clampPage(input.Page, input.Size)
	if int64(page)*int64(size) > maxOffset {
		s.record("list", nil)
		return []ports.TaskView{}, nil
	}

	filter := ports.TaskFilter{
		OwnerID: principal.ID,
		Status:  input.Status,
		Keyword: strings.TrimSpace(input.Keyword),
		Offset:  page * size,
		Limit:   size,
	}
	if input.Overdue {
		filter.DueBefore = s.now().UTC()
		filter.NotStatus = domain.StatusCompleted
	}

	tasks, err := s.store.ListOwned(ctx, filter)
	if err != nil {
		s.record("list", err)
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	views := make([]ports.TaskView, 0, len(tasks))
	for _, t := range tasks {
		if t.OwnerID != principal.ID {
			continue
		}
		views = append(views, toView(t, principal))
	}

	s.record("list", nil)
	return views, nil
}

// Count returns how many tasks the principal owns.
func (s *TaskService) Count(ctx context.Context, principal *domain.Principal) (int64, error) {
	n, err := s.store.CountOwned(ctx, principal.ID)
	s.record("count", err)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return n, nil
}

// Get returns the task only if the principal owns it. Missing and
// foreign tasks both yield domain.ErrTaskNotFound.
func (s *TaskService) Get(ctx context.Context, principal *domain.Principal, taskID string) (*ports.TaskView, error) {
	t, err := s.findOwned(ctx, principal, taskID)
	s.record("get", err)
	if err != nil {
		return nil, err
	}
	view := toView(t, principal)
	return &view, nil
}

// Create persists a new task owned by principal. When an idempotency key
// was already used by the same principal the original task is returned.
func (s *TaskService) Create(ctx context.Context, principal *domain.Principal, input ports.CreateTaskInput) (*ports.TaskView, error) {
	if replay := s.replay(ctx, principal, input.IdempotencyKey); replay != nil {
		metrics.TaskIdempotentReplaysTotal.Inc()
		s.record("create", nil)
		return replay, nil
	}

	now := s.now().UTC().Truncate(time.Millisecond)

	status := input.Status
	if status == "" {
		status = domain.StatusPending
	}
	if err := validateNewTask(input, status, now); err != nil {
		s.record("create", err)
		return nil, err
	}

	task := &domain.Task{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		DueDate:     input.DueDate.UTC().Truncate(time.Millisecond),
		CreatedAt:   now,
		OwnerID:     principal.ID,
	}

	if err := s.store.Insert(ctx, task); err != nil {
		s.record("create", err)
		s.logger.Error().Err(err).Str("owner_id", principal.ID).Msg("failed to create task")
		return nil, fmt.Errorf("insert task: %w", err)
	}

	if input.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.Remember(ctx, principal.ID, input.IdempotencyKey, task.ID); err != nil {
			s.logger.Warn().Err(err).Str("task_id", task.ID).Msg("failed to remember idempotency key")
		}
	}

	s.publish(task, ports.ActionCreated, now)
	s.record("create", nil)
	s.logger.Info().Str("task_id", task.ID).Str("owner_id", principal.ID).Msg("task created")

	view := toView(task, principal)
	return &view, nil
}

// Update replaces only the provided fields of an owned task. A provided due
// date may lie in the past, so overdue tasks can be saved unchanged.
func (s *TaskService) Update(ctx context.Context, principal *domain.Principal, taskID string, input ports.UpdateTaskInput) (*ports.TaskView, error) {
	patch := ports.TaskPatch{
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		Status:      input.Status,
	}
	if err := validatePatch(patch); err != nil {
		s.record("update", err)
		return nil, err
	}
	if patch.DueDate != nil {
		due := patch.DueDate.UTC().Truncate(time.Millisecond)
		patch.DueDate = &due
	}

	return s.apply(ctx, principal, taskID, patch)
}

// UpdateStatus changes only the status of an owned task.
func (s *TaskService) UpdateStatus(ctx context.Context, principal *domain.Principal, taskID string, status domain.TaskStatus) (*ports.TaskView, error) {
	if err := domain.ValidateStatus(status); err != nil {
		s.record("update", err)
		return nil, err
	}
	return s.apply(ctx, principal, taskID, ports.TaskPatch{Status: &status})
}

// Delete removes an owned task permanently.
func (s *TaskService) Delete(ctx context.Context, principal *domain.Principal, taskID string) error {
	if taskID == "" {
		s.record("delete", domain.ErrTaskNotFound)
		return domain.ErrTaskNotFound
	}

	if err := s.store.DeleteOwned(ctx, principal.ID, taskID); err != nil {
		s.record("delete", err)
		if errors.Is(err, domain.ErrTaskNotFound) {
			return domain.ErrTaskNotFound
		}
		return fmt.Errorf("delete task: %w", err)
	}

	s.publish(&domain.Task{ID: taskID, OwnerID: principal.ID}, ports.ActionDeleted, s.now().UTC())
	s.record("delete", nil)
	s.logger.Info().Str("task_id", taskID).Str("owner_id", principal.ID).Msg("task deleted")
	return nil
}

func (s *TaskService) apply(ctx context.Context, principal *domain.Principal, taskID string, patch ports.TaskPatch) (*ports.TaskView, error) {
	if patch.Empty() {
		return s.Get(ctx, principal, taskID)
	}
	if taskID == "" {
		s.record("update", domain.ErrTaskNotFound)
		return nil, domain.ErrTaskNotFound
	}

	t, err := s.store.UpdateOwned(ctx, principal.ID, taskID, patch)
	if err == nil && t.OwnerID != principal.ID {
		err = domain.ErrTaskNotFound
	}
	s.record("update", err)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task: %w", err)
	}

	s.publish(t, ports.ActionUpdated, s.now().UTC())
	view := toView(t, principal)
	return &view, nil
}

func (s *TaskService) findOwned(ctx context.Context, principal *domain.Principal, taskID string) (*domain.Task, error) {
	if taskID == "" {
		return nil, domain.ErrTaskNotFound
	}
	t, err := s.store.FindOwned(ctx, principal.ID, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	if t.OwnerID != principal.ID {
		return nil, domain.ErrTaskNotFound
	}
	return t, nil
}

// replay returns the task previously created with key, or nil. Lookup
// failures fall through to a normal create.
func (s *TaskService) replay(ctx context.Context, principal *domain.Principal, key string) *ports.TaskView {
	if key == "" || s.idempotency == nil {
		return nil
	}

	taskID, err := s.idempotency.Lookup(ctx, principal.ID, key)
	if err != nil {
		s.logger.Warn().Err(err).Msg("idempotency lookup failed")
		return nil
	}
	if taskID == "" {
		return nil
	}

	t, err := s.findOwned(ctx, principal, taskID)
	if err != nil {
		// The task behind the key is gone; release the key so the next
		// create claims it.
		if errors.Is(err, domain.ErrTaskNotFound) {
			if err := s.idempotency.Forget(ctx, principal.ID, key); err != nil {
				s.logger.Warn().Err(err).Str("task_id", taskID).Msg("failed to release stale idempotency key")
			}
		}
		return nil
	}

	s.logger.Info().Str("task_id", t.ID).Msg("idempotent replay")
	view := toView(t, principal)
	return &view
}

func (s *TaskService) publish(t *domain.Task, action string, at time.Time) {
	if s.activity == nil {
		return
	}
	s.activity.Publish(ports.TaskActivity{
		TaskID:  t.ID,
		OwnerID: t.OwnerID,
		Action:  action,
		At:      at,
	})
}

func (s *TaskService) record(operation string, err error) {
	metrics.TaskOperationsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrTaskNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

func clampPage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	switch {
	case size <= 0:
		size = DefaultPageSize
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return page, size
}

func validateNewTask(input ports.CreateTaskInput, status domain.TaskStatus, now time.Time) error {
	if err := domain.ValidateTitle(input.Title); err != nil {
		return err
	}
	if err := domain.ValidateDescription(input.Description); err != nil {
		return err
	}
	if err := domain.ValidateDueDate(input.DueDate, now); err != nil {
		return err
	}
	return domain.ValidateStatus(status)
}

func validatePatch(p ports.TaskPatch) error {
	if p.Title != nil {
		if err := domain.ValidateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if err := domain.ValidateDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.DueDate != nil && p.DueDate.IsZero() {
		return fmt.Errorf("%w: dueDate is required", domain.ErrValidation)
	}
	if p.Status != nil {
		if err := domain.ValidateStatus(*p.Status); err != nil {
			return err
		}
	}
	return nil
}

func toView(t *domain.Task, owner *domain.Principal) ports.TaskView {
	return ports.TaskView{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Status:        t.Status,
		DueDate:       t.DueDate,
		CreatedAt:     t.CreatedAt,
		OwnerID:       t.OwnerID,
		OwnerUsername: owner.Username,
	}
}
