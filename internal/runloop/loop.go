// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package runloop provides a single-goroutine event loop. Player events and
// timer callbacks are posted to the loop so that handlers bound to one
// controller never run concurrently.
package runloop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/teleport/internal/clock"
)

// ErrStopped is returned when work is submitted to a loop that is not running anymore.
var ErrStopped = errors.New("runloop: stopped")

// Loop executes posted functions one at a time, in FIFO order, on the
// goroutine that called Run.
type Loop struct {
	clock clock.Clock

	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake chan struct{}
	done chan struct{}
	once sync.Once
}

// New creates a loop whose timers use clk. A nil clock means the wall clock.
func New(clk clock.Clock) *Loop {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Loop{
		clock: clk,
		wake:  make(chan struct{}, 1),
		done:  make(chan struct{}),
	}
}

// Clock returns the time source used by the loop's timers.
func (l *Loop) Clock() clock.Clock { return l.clock }

// Run processes posted work until ctx is cancelled. Work still queued when
// the loop stops is dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer l.stop()
	for {
		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			fn()
			if ctx.Err() != nil {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-l.wake:
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return fn, true
}

func (l *Loop) stop() {
	l.once.Do(func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
		close(l.done)
	})
}

// Done is closed once the loop has stopped.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Post enqueues fn. It never blocks and is safe to call from the loop itself.
// It reports false when the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to finish.
// It must not be called from the loop goroutine.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrStopped
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sync waits until everything posted before the call has been processed.
func (l *Loop) Sync(ctx context.Context) error {
	return l.Do(ctx, func() {})
}

// Timer is a loop-bound timer: its callback runs on the loop goroutine and
// never runs after Stop, even if the underlying clock already fired.
type Timer struct {
	t         clock.Timer
	cancelled atomic.Bool
}

// AfterFunc schedules fn to run on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	lt := &Timer{}
	lt.t = l.clock.AfterFunc(d, func() {
		l.Post(func() {
			if lt.cancelled.Load() {
				return
			}
			fn()
		})
	})
	return lt
}

// Stop cancels the timer. Calling Stop more than once is harmless.
func (t *Timer) Stop() {
	if t == nil {
		return
	}
	t.cancelled.Store(true)
	t.t.Stop()
}
