package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task is a unit of deferred work.
type Task func(ctx context.Context)

// Scheduler runs tasks on a later turn, never on the caller's stack.
type Scheduler interface {
	// Defer schedules fn. Returns false if the scheduler is stopped.
	Defer(fn Task) bool
}

// Loop is a FIFO task loop drained by a single goroutine.
//
// The queue is unbounded so a next-action hook that proposes again can
// schedule further work without blocking the proposer.
//
// Thread-safety: Defer is safe from any goroutine. Run must be called from
// exactly one goroutine; Drain must not run concurrently with Run.
type Loop struct {
	mu     sync.Mutex
	tasks  []Task
	closed bool
	signal chan struct{} // buffered, size 1
}

// NewLoop creates an empty loop.
func NewLoop() *Loop {
	return &Loop{
		tasks:  make([]Task, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Defer implements Scheduler.
func (l *Loop) Defer(fn Task) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}
	l.tasks = append(l.tasks, fn)

	// Buffer of 1 coalesces multiple signals.
	select {
	case l.signal <- struct{}{}:
	default:
	}
	return true
}

func (l *Loop) tryDequeue() (Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.tasks) == 0 {
		return nil, false
	}
	fn := l.tasks[0]
	l.tasks[0] = nil // release the closure
	if len(l.tasks) == 1 {
		l.tasks = l.tasks[:0]
	} else {
		l.tasks = l.tasks[1:]
	}
	return fn, true
}

// Len returns the number of queued tasks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Run drains tasks until ctx is cancelled or Stop is called and the queue
// is empty. A panicking task is logged and the loop continues.
func (l *Loop) Run(ctx context.Context) error {
	slog.Debug("loop starting")

	for {
		if fn, ok := l.tryDequeue(); ok {
			l.exec(ctx, fn)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Debug("loop stopping: context cancelled")
			l.Stop()
			return ctx.Err()
		case <-l.signal:
			// The signal channel closes on Stop.
			l.mu.Lock()
			done := l.closed && len(l.tasks) == 0
			l.mu.Unlock()
			if done {
				slog.Debug("loop stopping: closed")
				return nil
			}
		}
	}
}

// Drain runs queued tasks on the calling goroutine until the queue is
// empty, including tasks deferred while draining. Returns the number run.
func (l *Loop) Drain(ctx context.Context) int {
	n := 0
	for ctx.Err() == nil {
		fn, ok := l.tryDequeue()
		if !ok {
			break
		}
		l.exec(ctx, fn)
		n++
	}
	return n
}

// Stop closes the loop. Queued tasks still run under Run; Defer fails.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	close(l.signal)
}

func (l *Loop) exec(ctx context.Context, fn Task) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("deferred task panicked", "panic", fmt.Sprint(r))
		}
	}()
	fn(ctx)
}

// TimerScheduler defers tasks through time.AfterFunc.
// Each task runs on its own goroutine with the scheduler's context.
type TimerScheduler struct {
	ctx context.Context
}

// NewTimerScheduler creates a scheduler whose tasks receive ctx.
func NewTimerScheduler(ctx context.Context) *TimerScheduler {
	return &TimerScheduler{ctx: ctx}
}

// Defer implements Scheduler.
func (s *TimerScheduler) Defer(fn Task) bool {
	if s.ctx.Err() != nil {
		return false
	}
	time.AfterFunc(0, func() { fn(s.ctx) })
	return true
}
