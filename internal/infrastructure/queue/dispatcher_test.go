package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/taskflow/tracker/internal/core/ports"
	"github.com/taskflow/tracker/internal/infrastructure/db/memory"
	"github.com/taskflow/tracker/internal/pkg/metrics"
)

type failingRepo struct {
	mu    sync.Mutex
	calls int
}

func (r *failingRepo) InsertActivity(context.Context, ports.TaskActivity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return errors.New("write failed")
}

func TestDispatcher_DeliversAndDrainsOnShutdown(t *testing.T) {
	log := memory.NewActivityLog()
	d := NewDispatcher(3, log, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	for i := 0; i < 50; i++ {
		d.Publish(ports.TaskActivity{
			TaskID: fmt.Sprintf("task-%d", i%5),
			Action: ports.ActionUpdated,
			At:     time.Unix(int64(i), 0),
		})
	}

	cancel()
	d.Wait()

	if got := len(log.Records()); got != 50 {
		t.Fatalf("expected 50 records after shutdown, got %d", got)
	}
}

func TestDispatcher_PreservesPerTaskOrder(t *testing.T) {
	log := memory.NewActivityLog()
	d := NewDispatcher(4, log, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	actions := []string{ports.ActionCreated, ports.ActionUpdated, ports.ActionUpdated, ports.ActionDeleted}
	for _, a := range actions {
		d.Publish(ports.TaskActivity{TaskID: "task-1", Action: a})
	}

	cancel()
	d.Wait()

	var got []string
	for _, r := range log.Records() {
		if r.TaskID == "task-1" {
			got = append(got, r.Action)
		}
	}
	if fmt.Sprint(got) != fmt.Sprint(actions) {
		t.Fatalf("expected %v, got %v", actions, got)
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, memory.NewActivityLog(), zerolog.Nop())
	first := d.shardIndex("task-42")
	for i := 0; i < 10; i++ {
		if d.shardIndex("task-42") != first {
			t.Fatal("shard index must be deterministic")
		}
	}
	if first < 0 || first >= 8 {
		t.Fatalf("shard index out of range: %d", first)
	}
}

func TestDispatcher_DefaultWorkers(t *testing.T) {
	d := NewDispatcher(0, memory.NewActivityLog(), zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d := NewDispatcher(1, memory.NewActivityLog(), zerolog.Nop())
	before := testutil.ToFloat64(metrics.ActivityDroppedTotal)

	// Not started: nothing drains the channel.
	for i := 0; i < channelBuffer+3; i++ {
		d.Publish(ports.TaskActivity{TaskID: "task-1", Action: ports.ActionCreated})
	}

	if dropped := testutil.ToFloat64(metrics.ActivityDroppedTotal) - before; dropped != 3 {
		t.Fatalf("expected 3 dropped records, got %v", dropped)
	}
}

func TestDispatcher_WriteFailureDoesNotStopWorker(t *testing.T) {
	repo := &failingRepo{}
	d := NewDispatcher(1, repo, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	d.Publish(ports.TaskActivity{TaskID: "a"})
	d.Publish(ports.TaskActivity{TaskID: "b"})
	cancel()
	d.Wait()

	repo.mu.Lock()
	defer repo.mu.Unlock()
	if repo.calls != 2 {
		t.Fatalf("expected 2 write attempts, got %d", repo.calls)
	}
}
