package recall

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTaskGroupRunsAndDrains(t *testing.T) {
	tg := NewTaskGroup(context.Background())

	var ran atomic.Int32
	for i := 0; i < 3; i++ {
		tg.Go(func(ctx context.Context) {
			ran.Add(1)
		})
	}

	waitFor(t, time.Second, func() bool { return tg.InFlight() == 0 }, "tasks did not finish")
	tg.Shutdown()
	if got := ran.Load(); got != 3 {
		t.Errorf("ran = %d, want 3", got)
	}
}

func TestTaskGroupShutdownCancelsPending(t *testing.T) {
	tg := NewTaskGroup(context.Background())

	var cancelled atomic.Bool
	started := make(chan struct{})
	tg.Go(func(ctx context.Context) {
		close(started)
		select {
		case <-ctx.Done():
			cancelled.Store(true)
		case <-time.After(5 * time.Second):
		}
	})

	<-started
	if tg.InFlight() != 1 {
		t.Fatalf("InFlight = %d, want 1", tg.InFlight())
	}
	tg.Shutdown()

	if !cancelled.Load() {
		t.Error("pending task was not cancelled by Shutdown")
	}
	if tg.InFlight() != 0 {
		t.Errorf("InFlight after Shutdown = %d, want 0", tg.InFlight())
	}
}

func TestTaskGroupShutdownIdempotent(t *testing.T) {
	tg := NewTaskGroup(context.Background())
	tg.Go(func(ctx context.Context) {})
	tg.Shutdown()
	tg.Shutdown()
}
