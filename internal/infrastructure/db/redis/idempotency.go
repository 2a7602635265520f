package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyTTL = 24 * time.Hour

// IdempotencyStore maps client-supplied Idempotency-Key values to the task
// they created, backed by Redis.
// Key format: idem:<owner_id>:<key>
type IdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore creates an IdempotencyStore wrapping the given Redis client.
func NewIdempotencyStore(client *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

// Lookup returns the task id recorded for key, or "" if none.
func (s *IdempotencyStore) Lookup(ctx context.Context, ownerID, key string) (string, error) {
	taskID, err := s.client.Get(ctx, s.key(ownerID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("idempotency lookup: %w", err)
	}
	return taskID, nil
}

// Remember records taskID for key unless the key is already taken (expires
// after idempotencyTTL).
func (s *IdempotencyStore) Remember(ctx context.Context, ownerID, key, taskID string) error {
	if err := s.client.SetNX(ctx, s.key(ownerID, key), taskID, idempotencyTTL).Err(); err != nil {
		return fmt.Errorf("idempotency remember: %w", err)
	}
	return nil
}

// Forget deletes the mapping for key.
func (s *IdempotencyStore) Forget(ctx context.Context, ownerID, key string) error {
	if err := s.client.Del(ctx, s.key(ownerID, key)).Err(); err != nil {
		return fmt.Errorf("idempotency forget: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) key(ownerID, key string) string {
	return fmt.Sprintf("idem:%s:%s", ownerID, key)
}
