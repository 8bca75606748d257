// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package progress periodically reports the playback position while media plays.
package progress

import (
	"time"

	xglog "github.com/ManuGH/teleport/internal/log"
	"github.com/ManuGH/teleport/internal/metrics"
	"github.com/ManuGH/teleport/internal/player"
	"github.com/ManuGH/teleport/internal/runloop"
	"github.com/rs/zerolog"
)

// SaveFunc receives a position that changed since the previous tick.
type SaveFunc func(position float64)

// Reporter saves the player position every interval while running. It is
// confined to the loop goroutine.
type Reporter struct {
	loop     *runloop.Loop
	player   player.Player
	interval time.Duration
	save     SaveFunc
	logger   zerolog.Logger

	slot runloop.Slot
}

// New creates a stopped reporter. An interval <= 0 disables it.
func New(loop *runloop.Loop, p player.Player, interval time.Duration, save SaveFunc) *Reporter {
	return &Reporter{
		loop:     loop,
		player:   p,
		interval: interval,
		save:     save,
		logger:   xglog.WithComponent("progress"),
	}
}

// Interval returns the configured period.
func (r *Reporter) Interval() time.Duration { return r.interval }

// Start stops any running instance and begins a new one whose last reported
// position is 0. It does nothing else when the reporter is disabled.
func (r *Reporter) Start() {
	r.slot.Start(func() runloop.Task {
		if r.interval <= 0 {
			return nil
		}
		t := &ticker{r: r}
		t.arm()
		r.logger.Debug().
			Str("event", "progress.started").
			Dur("interval", r.interval).
			Msg("progress reporter started")
		return t
	})
}

// Stop cancels the running instance. It reports whether one was running.
func (r *Reporter) Stop() bool {
	stopped := r.slot.Stop()
	if stopped {
		r.logger.Debug().Str("event", "progress.stopped").Msg("progress reporter stopped")
	}
	return stopped
}

// Running reports whether an instance is active.
func (r *Reporter) Running() bool { return r.slot.Active() }

type ticker struct {
	r     *Reporter
	timer *runloop.Timer
	last  float64
}

func (t *ticker) arm() {
	t.timer = t.r.loop.AfterFunc(t.r.interval, t.fire)
}

func (t *ticker) fire() {
	current := t.r.player.CurrentTime()
	if current != t.last {
		t.last = current
		metrics.IncReporterSave()
		t.r.logger.Debug().
			Str("event", "progress.tick").
			Float64(xglog.FieldPosition, current).
			Msg("position changed, saving")
		t.r.save(current)
	}
	t.arm()
}

func (t *ticker) Cancel() {
	t.timer.Stop()
}
