package recall

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// TaskGroup owns the deferred deletions spawned by the coordinator. Every
// spawned task runs under one cancellable context, and Shutdown cancels and
// drains them all, so no background work outlives the owner.
type TaskGroup struct {
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	inFlight int
}

func NewTaskGroup(parent context.Context) *TaskGroup {
	ctx, cancel := context.WithCancel(parent)
	g, ctx := errgroup.WithContext(ctx)
	return &TaskGroup{group: g, ctx: ctx, cancel: cancel}
}

// Go spawns fn as a tracked task. fn must honor ctx cancellation.
func (t *TaskGroup) Go(fn func(ctx context.Context)) {
	t.mu.Lock()
	t.inFlight++
	t.mu.Unlock()

	t.group.Go(func() error {
		defer func() {
			t.mu.Lock()
			t.inFlight--
			t.mu.Unlock()
		}()
		fn(t.ctx)
		return nil
	})
}

// InFlight returns the number of tasks not yet finished.
func (t *TaskGroup) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inFlight
}

// Shutdown cancels all tracked tasks and waits for each to reach a
// terminal state.
func (t *TaskGroup) Shutdown() {
	t.cancel()
	_ = t.group.Wait()
}
