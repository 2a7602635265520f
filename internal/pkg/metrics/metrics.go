// Package metrics defines and registers all custom Prometheus metrics for the
// taskflow API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "taskflow"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts register/login/token-resolution outcomes.
// Labels:
//   - operation: "register", "login" or "token"
//   - result: "success" or a short failure reason (e.g. "invalid_credentials", "expired")
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by operation and result.",
	},
	[]string{"operation", "result"},
)

// ── Task metrics ──────────────────────────────────────────────────────────────

// TaskOperationsTotal counts task operations.
// Labels:
//   - operation: "list", "get", "create", "update", "delete", "count"
//   - result: "success", "not_found", "invalid" or "error"
var TaskOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_operations_total",
		Help:      "Total number of task operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// TaskIdempotentReplaysTotal counts creates answered from an idempotency key.
var TaskIdempotentReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_idempotent_replays_total",
		Help:      "Total number of task creations replayed from an Idempotency-Key.",
	},
)

// ── Activity metrics ──────────────────────────────────────────────────────────

// ActivityQueueDepth tracks the number of records waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var ActivityQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "activity_queue_depth",
		Help:      "Current number of activity records pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ActivityDroppedTotal counts activity records dropped because a shard was full.
var ActivityDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activity_dropped_total",
		Help:      "Total number of activity records dropped on a full worker channel.",
	},
)

// ActivityWriteDuration measures how long persisting one activity record takes.
// Label:
//   - result: "success" or "error"
var ActivityWriteDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "activity_write_duration_seconds",
		Help:      "Duration of activity record persistence.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)
