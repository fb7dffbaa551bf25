package pkgroutine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

const DefaultMaxGoroutine int = 10

var ErrPanic = errors.New("task panicked")

// Manager runs at most max tasks at a time. Go blocks while all slots are
// taken.
type Manager struct {
	mu      sync.Mutex
	errs    []error
	wg      sync.WaitGroup
	sema    chan struct{}
	running atomic.Int64
}

func NewManager(maxGoroutine int) *Manager {
	if maxGoroutine < 1 {
		maxGoroutine = DefaultMaxGoroutine
	}

	return &Manager{sema: make(chan struct{}, maxGoroutine)}
}

// Go schedules f. It reports false when ctx ended before a slot was free.
func (g *Manager) Go(ctx context.Context, f func(ctx context.Context) error) bool {
	select {
	case g.sema <- struct{}{}:
	case <-ctx.Done():
		slog.WarnContext(ctx, "task canceled before start", "because", ctx.Err())
		return false
	}

	g.wg.Add(1)
	g.running.Add(1)
	go func() {
		defer func() {
			if rvr := recover(); rvr != nil {
				slog.ErrorContext(ctx, "panic occurred in task", "panic", rvr, "stack", string(debug.Stack()))
				g.record(fmt.Errorf("%w: %v", ErrPanic, rvr))
			}
			g.running.Add(-1)
			<-g.sema
			g.wg.Done()
		}()

		if err := ctx.Err(); err != nil {
			slog.WarnContext(ctx, "task canceled", "because", err)
			return
		}
		if err := f(ctx); err != nil {
			g.record(err)
		}
	}()

	return true
}

// Running is the number of tasks in flight.
func (g *Manager) Running() int {
	return int(g.running.Load())
}

// Wait blocks until every scheduled task returned and joins their errors.
func (g *Manager) Wait() error {
	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}

func (g *Manager) record(err error) {
	g.mu.Lock()
	g.errs = append(g.errs, err)
	g.mu.Unlock()
}
