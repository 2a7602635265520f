// Command api serves the task tracker HTTP API.
//
// @title                       Taskflow Tracker API
// @version                     1.0
// @description                 Per-tenant task tracker with bearer-token sessions.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/taskflow/tracker/internal/api"
	"github.com/taskflow/tracker/internal/core/ports"
	"github.com/taskflow/tracker/internal/core/service"
	"github.com/taskflow/tracker/internal/infrastructure/db/memory"
	mongostore "github.com/taskflow/tracker/internal/infrastructure/db/mongo"
	redisstore "github.com/taskflow/tracker/internal/infrastructure/db/redis"
	"github.com/taskflow/tracker/internal/infrastructure/http/handlers"
	"github.com/taskflow/tracker/internal/infrastructure/queue"
	"github.com/taskflow/tracker/internal/pkg/config"
	"github.com/taskflow/tracker/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "taskflow-api",
		Env:     cfg.Env,
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

// stores bundles the persistence adapters selected by STORE_DRIVER.
type stores struct {
	credentials ports.CredentialStore
	tasks       ports.TaskStore
	idempotency ports.IdempotencyStore
	activity    ports.ActivityRepository
	checks      map[string]handlers.Check
	close       func(context.Context)
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.close(context.Background())

	tokens, err := service.NewTokenService(service.TokenConfig{
		Issuer:      cfg.Auth.Issuer,
		ActiveKeyID: cfg.Auth.KeyID,
		Keys:        cfg.Auth.SigningKeys(),
	})
	if err != nil {
		return err
	}

	dispatcher := queue.NewDispatcher(cfg.Activity.Workers, st.activity, logger.Component("activity"))
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)

	identity := service.NewIdentityService(st.credentials, service.NewBcryptHasher(cfg.Auth.BcryptCost), tokens, logger.Component("identity"))
	tasks := service.NewTaskService(st.tasks, st.idempotency, dispatcher, logger.Component("tasks"))

	e := api.NewRouter(api.Dependencies{
		Identity:      identity,
		Tasks:         tasks,
		Checks:        st.checks,
		Logger:        logger.Component("http"),
		EnableMetrics: true,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			stopWorkers()
			dispatcher.Wait()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	stopWorkers()
	dispatcher.Wait()
	log.Info().Msg("server stopped")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn().Msg("using in-memory stores; data is lost on restart")
		return &stores{
			credentials: memory.NewCredentialStore(),
			tasks:       memory.NewTaskStore(),
			idempotency: memory.NewIdempotencyStore(),
			activity:    memory.NewActivityLog(),
			checks:      map[string]handlers.Check{},
			close:       func(context.Context) {},
		}, nil
	}

	client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return nil, err
	}
	if err := mongostore.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return &stores{
		credentials: mongostore.NewCredentialRepository(db),
		tasks:       mongostore.NewTaskRepository(db),
		idempotency: redisstore.NewIdempotencyStore(rdb),
		activity:    mongostore.NewActivityRepository(db),
		checks: map[string]handlers.Check{
			"mongo": mongostore.Ping(db),
			"redis": redisstore.Ping(rdb),
		},
		close: func(ctx context.Context) {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("redis close failed")
			}
			if err := client.Disconnect(ctx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect failed")
			}
		},
	}, nil
}
