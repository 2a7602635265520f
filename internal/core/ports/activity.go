package ports

import (
	"context"
	"time"
)

// Task activity actions recorded in the audit trail.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// TaskActivity is one audit record for a successful task write.
type TaskActivity struct {
	TaskID  string
	OwnerID string
	Action  string
	At      time.Time
}

// ActivityPublisher hands activity records to the background recorder.
// Publish must not block the request path.
type ActivityPublisher interface {
	Publish(activity TaskActivity)
}

// ActivityRepository persists activity records.
type ActivityRepository interface {
	InsertActivity(ctx context.Context, activity TaskActivity) error
}

// IdempotencyStore remembers which task a client-supplied key created.
// Keys are scoped per owner.
type IdempotencyStore interface {
	// Lookup returns "" when the key has not been seen.
	Lookup(ctx context.Context, ownerID, key string) (string, error)
	Remember(ctx context.Context, ownerID, key, taskID string) error
	// Forget drops the mapping for a key whose task no longer exists.
	Forget(ctx context.Context, ownerID, key string) error
}
