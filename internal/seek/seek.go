// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package seek drives a player's reported time to a target offset when the
// player applies seeks late or imprecisely.
package seek

import (
	"math"
	"sync"
	"time"

	xglog "github.com/ManuGH/teleport/internal/log"
	"github.com/ManuGH/teleport/internal/metrics"
	"github.com/ManuGH/teleport/internal/player"
	"github.com/ManuGH/teleport/internal/runloop"
	"github.com/rs/zerolog"
)

const (
	// Tolerance is the largest distance, in seconds, still considered on target.
	Tolerance = 2.0
	// RetryDelay is the pause between a seek and its re-check.
	RetryDelay = 250 * time.Millisecond
)

// Outcome is the terminal state of an Operation.
type Outcome string

const (
	Running   Outcome = ""
	Converged Outcome = "converged"
	Forced    Outcome = "forced"
	Cancelled Outcome = "cancelled"
)

// CloseEnough reports whether reported is within Tolerance of target.
// NaN on either side is never close enough.
func CloseEnough(reported, target float64) bool {
	diff := reported - target
	if math.IsNaN(diff) {
		return false
	}
	return math.Abs(diff) < Tolerance
}

// Operation is one seek invocation. All methods except Outcome and Done must
// be called on the loop goroutine.
type Operation struct {
	loop   *runloop.Loop
	player player.Player
	target float64
	delay  time.Duration
	logger zerolog.Logger
	onDone func(*Operation)

	timer    *runloop.Timer
	offTick  func()
	attempts int

	mu      sync.Mutex
	outcome Outcome
	done    chan struct{}
}

// Option configures an Operation.
type Option func(*Operation)

// WithRetryDelay overrides RetryDelay.
func WithRetryDelay(d time.Duration) Option {
	return func(op *Operation) {
		if d > 0 {
			op.delay = d
		}
	}
}

// WithOnDone registers a callback run on the loop when the operation ends.
func WithOnDone(fn func(*Operation)) Option {
	return func(op *Operation) { op.onDone = fn }
}

// WithLogger sets the logger used for attempt tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(op *Operation) { op.logger = l }
}

// Start begins seeking p to target and returns the running operation. When
// the player is already close enough the operation is converged on return
// and no seek is issued.
//
// The retry loop is bounded by the player's first timeupdate: at that point
// retries stop and, unless convergence was already observed, one final
// forced seek is issued.
func Start(loop *runloop.Loop, p player.Player, target float64, opts ...Option) *Operation {
	op := &Operation{
		loop:   loop,
		player: p,
		target: target,
		delay:  RetryDelay,
		logger: xglog.WithComponent("seek"),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(op)
	}

	if CloseEnough(p.CurrentTime(), target) {
		op.finish(Converged)
		return op
	}

	op.offTick = p.On(player.EventTimeUpdate, func() {
		loop.Post(op.onTimeUpdate)
	})
	op.attempt()
	return op
}

// Target returns the seek target in seconds.
func (op *Operation) Target() float64 { return op.target }

// Attempts returns the number of seeks issued so far, including a forced one.
func (op *Operation) Attempts() int { return op.attempts }

// Outcome returns the terminal state, or Running. Safe for concurrent use.
func (op *Operation) Outcome() Outcome {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.outcome
}

// Done is closed when the operation reaches a terminal state.
func (op *Operation) Done() <-chan struct{} { return op.done }

// Cancel stops a running operation without a final seek.
func (op *Operation) Cancel() {
	if op.Outcome() != Running {
		return
	}
	op.teardown()
	op.finish(Cancelled)
}

func (op *Operation) attempt() {
	if op.Outcome() != Running {
		return
	}
	if CloseEnough(op.player.CurrentTime(), op.target) {
		op.teardown()
		op.finish(Converged)
		return
	}
	op.seek()
	op.timer = op.loop.AfterFunc(op.delay, op.attempt)
}

func (op *Operation) onTimeUpdate() {
	if op.Outcome() != Running {
		return
	}
	op.teardown()
	op.seek()
	op.finish(Forced)
}

func (op *Operation) seek() {
	op.attempts++
	metrics.IncSeekAttempt()
	op.logger.Debug().
		Str("event", "seek.attempt").
		Float64(xglog.FieldTarget, op.target).
		Int("attempt", op.attempts).
		Msg("seeking player")
	op.player.SetCurrentTime(op.target)
}

func (op *Operation) teardown() {
	op.timer.Stop()
	op.timer = nil
	if op.offTick != nil {
		op.offTick()
		op.offTick = nil
	}
}

func (op *Operation) finish(outcome Outcome) {
	op.mu.Lock()
	op.outcome = outcome
	op.mu.Unlock()
	close(op.done)

	metrics.RecordSeek(string(outcome))
	op.logger.Debug().
		Str("event", "seek.finished").
		Float64(xglog.FieldTarget, op.target).
		Str(xglog.FieldOutcome, string(outcome)).
		Int("attempts", op.attempts).
		Msg("seek finished")

	if op.onDone != nil {
		op.onDone(op)
	}
}
