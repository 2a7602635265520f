// Package memory provides process-local implementations of the store ports.
// It backs STORE_DRIVER=memory and the router's end-to-end tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/taskflow/tracker/internal/core/domain"
	"github.com/taskflow/tracker/internal/core/ports"
)

// CredentialStore keeps principals keyed by username.
type CredentialStore struct {
	mu         sync.RWMutex
	byUsername map[string]*domain.Principal
}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{byUsername: make(map[string]*domain.Principal)}
}

func (s *CredentialStore) Create(_ context.Context, p *domain.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byUsername[p.Username]; exists {
		return domain.ErrUsernameTaken
	}
	s.byUsername[p.Username] = clonePrincipal(p)
	return nil
}

func (s *CredentialStore) FindByUsername(_ context.Context, username string) (*domain.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byUsername[username]
	if !ok {
		return nil, domain.ErrPrincipalNotFound
	}
	return clonePrincipal(p), nil
}

// Delete removes a principal. Tasks are left in place.
func (s *CredentialStore) Delete(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byUsername[username]; !ok {
		return domain.ErrPrincipalNotFound
	}
	delete(s.byUsername, username)
	return nil
}

// TaskStore keeps tasks keyed by id. All mutations hold the write lock, so
// a single-task update never interleaves with a delete of the same task.
type TaskStore struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
}

func NewTaskStore() *TaskStore {
	return &TaskStore{tasks: make(map[string]*domain.Task)}
}

func (s *TaskStore) Insert(_ context.Context, t *domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *t
	s.tasks[t.ID] = &clone
	return nil
}

func (s *TaskStore) FindOwned(_ context.Context, ownerID, taskID string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[taskID]
	if !ok || t.OwnerID != ownerID {
		return nil, domain.ErrTaskNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *TaskStore) ListOwned(_ context.Context, f ports.TaskFilter) ([]*domain.Task, error) {
	s.mu.RLock()
	var matched []*domain.Task
	for _, t := range s.tasks {
		if matches(t, f) {
			clone := *t
			matched = append(matched, &clone)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	if f.Offset >= len(matched) {
		return []*domain.Task{}, nil
	}
	end := len(matched)
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], nil
}

func (s *TaskStore) CountOwned(_ context.Context, ownerID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, t := range s.tasks {
		if t.OwnerID == ownerID {
			n++
		}
	}
	return n, nil
}

func (s *TaskStore) UpdateOwned(_ context.Context, ownerID, taskID string, p ports.TaskPatch) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok || t.OwnerID != ownerID {
		return nil, domain.ErrTaskNotFound
	}
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	clone := *t
	return &clone, nil
}

func (s *TaskStore) DeleteOwned(_ context.Context, ownerID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok || t.OwnerID != ownerID {
		return domain.ErrTaskNotFound
	}
	delete(s.tasks, taskID)
	return nil
}

func matches(t *domain.Task, f ports.TaskFilter) bool {
	if t.OwnerID != f.OwnerID {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.NotStatus != "" && t.Status == f.NotStatus {
		return false
	}
	if !f.DueBefore.IsZero() && !t.DueDate.Before(f.DueBefore) {
		return false
	}
	if f.Keyword != "" {
		kw := strings.ToLower(f.Keyword)
		if !strings.Contains(strings.ToLower(t.Title), kw) && !strings.Contains(strings.ToLower(t.Description), kw) {
			return false
		}
	}
	return true
}

func clonePrincipal(p *domain.Principal) *domain.Principal {
	clone := *p
	clone.Roles = append([]string(nil), p.Roles...)
	return &clone
}
