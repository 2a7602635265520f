package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskflow/tracker/internal/core/ports"
	"github.com/taskflow/tracker/internal/pkg/metrics"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
	writeTimeout   = 5 * time.Second
)

// Dispatcher routes task activity records to a fixed set of workers using
// consistent hashing on the task id, preserving per-task ordering.
type Dispatcher struct {
	workers []chan ports.TaskActivity
	repo    ports.ActivityRepository
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, repo ports.ActivityRepository, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.TaskActivity, numWorkers),
		repo:    repo,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.TaskActivity, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers drain their channel and
// stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Publish hands a record to the worker responsible for its task. It never
// blocks: when that worker's channel is full the record is dropped.
func (d *Dispatcher) Publish(activity ports.TaskActivity) {
	idx := d.shardIndex(activity.TaskID)
	select {
	case d.workers[idx] <- activity:
		metrics.ActivityQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
	default:
		metrics.ActivityDroppedTotal.Inc()
		d.log.Warn().
			Str("task_id", activity.TaskID).
			Str("action", activity.Action).
			Int("worker_id", idx).
			Msg("activity queue full, record dropped")
	}
}

// shardIndex maps a task id deterministically to a worker index.
func (d *Dispatcher) shardIndex(taskID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(taskID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.TaskActivity) {
	defer d.wg.Done()
	label := strconv.Itoa(id)

	for {
		select {
		case <-ctx.Done():
			d.drain(id, ch)
			return
		case activity := <-ch:
			metrics.ActivityQueueDepth.WithLabelValues(label).Set(float64(len(ch)))
			d.write(ctx, id, activity)
		}
	}
}

// drain flushes whatever is still buffered after shutdown was requested.
func (d *Dispatcher) drain(id int, ch <-chan ports.TaskActivity) {
	for {
		select {
		case activity := <-ch:
			d.write(context.Background(), id, activity)
		default:
			return
		}
	}
}

func (d *Dispatcher) write(ctx context.Context, id int, activity ports.TaskActivity) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	start := time.Now()
	err := d.repo.InsertActivity(ctx, activity)
	result := "success"
	if err != nil {
		result = "error"
		d.log.Error().Err(err).
			Str("task_id", activity.TaskID).
			Int("worker_id", id).
			Msg("activity write failed")
	}
	metrics.ActivityWriteDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
}
