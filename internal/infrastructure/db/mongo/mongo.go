package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultTimeout = 10 * time.Second

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// EnsureIndexes creates the indexes of every collection the API writes to.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := NewCredentialRepository(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("principal indexes: %w", err)
	}
	if err := NewTaskRepository(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("task indexes: %w", err)
	}
	return nil
}

// Ping reports whether the primary is reachable; used by the readiness probe.
func Ping(db *mongo.Database) func(context.Context) error {
	return func(ctx context.Context) error {
		return db.Client().Ping(ctx, readpref.Primary())
	}
}
