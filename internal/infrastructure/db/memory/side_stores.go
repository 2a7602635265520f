package memory

import (
	"context"
	"sync"

	"github.com/taskflow/tracker/internal/core/ports"
)

// IdempotencyStore remembers task ids per owner and key for the process lifetime.
type IdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{keys: make(map[string]string)}
}

func (s *IdempotencyStore) Lookup(_ context.Context, ownerID, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[ownerID+":"+key], nil
}

// Remember keeps the first task id recorded for a key.
func (s *IdempotencyStore) Remember(_ context.Context, ownerID, key, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := ownerID + ":" + key
	if _, exists := s.keys[k]; !exists {
		s.keys[k] = taskID
	}
	return nil
}

func (s *IdempotencyStore) Forget(_ context.Context, ownerID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, ownerID+":"+key)
	return nil
}

// ActivityLog collects activity records in insertion order.
type ActivityLog struct {
	mu      sync.Mutex
	records []ports.TaskActivity
}

func NewActivityLog() *ActivityLog {
	return &ActivityLog{}
}

func (l *ActivityLog) InsertActivity(_ context.Context, a ports.TaskActivity) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, a)
	return nil
}

// Records returns a copy of everything recorded so far.
func (l *ActivityLog) Records() []ports.TaskActivity {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ports.TaskActivity(nil), l.records...)
}
