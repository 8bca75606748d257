// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package controller binds a media player to the remote position store: it
// fetches the saved position when media loads, seeks there once when playback
// starts, saves progress while playing and on pause, and deletes the record
// when playback ends.
package controller

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/teleport/internal/clock"
	"github.com/ManuGH/teleport/internal/config"
	xglog "github.com/ManuGH/teleport/internal/log"
	"github.com/ManuGH/teleport/internal/metrics"
	"github.com/ManuGH/teleport/internal/player"
	"github.com/ManuGH/teleport/internal/progress"
	"github.com/ManuGH/teleport/internal/runloop"
	"github.com/ManuGH/teleport/internal/seek"
	"github.com/ManuGH/teleport/internal/store"
)

var (
	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("controller: closed")
	// ErrSaveSuppressed is returned by SavePosition when the position lies
	// within the end guard of the media (or the duration is unknown).
	ErrSaveSuppressed = errors.New("controller: save suppressed near end of media")
)

// Trigger names used in logs and metrics.
const (
	TriggerFetch  = "fetch"
	TriggerSeek   = "seek"
	TriggerSave   = "save"
	TriggerDelete = "delete"
)

// Controller manages exactly one player/video pairing. Player events and
// timers are handled one at a time on an internal loop; the exported methods
// are safe for concurrent use.
type Controller struct {
	player    player.Player
	loop      *runloop.Loop
	ctx       context.Context
	cancel    context.CancelFunc
	logger    zerolog.Logger
	closed    atomic.Bool
	closeOnce sync.Once

	ownStore  bool
	storeOpts []store.Option

	mu       sync.RWMutex
	settings config.Settings

	// Loop-confined state.
	store    store.Positions
	userID   string
	videoID  string
	pending  *string
	cycleID  string
	reporter *progress.Reporter
	seeks    runloop.Slot
	lastSeek *seek.Operation
	offs     []func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithStore injects the position store. By default a store.Client for the
// configured endpoint is used.
func WithStore(s store.Positions) Option {
	return func(c *Controller) {
		c.store = s
		c.ownStore = false
	}
}

// WithStoreOptions configures the default store client.
func WithStoreOptions(opts ...store.Option) Option {
	return func(c *Controller) { c.storeOpts = append(c.storeOpts, opts...) }
}

// WithClock sets the time source of all timers.
func WithClock(clk clock.Clock) Option {
	return func(c *Controller) { c.loop = runloop.New(clk) }
}

// New validates settings, resolves the session identity once and subscribes
// to the player's trigger events.
func New(p player.Player, settings config.Settings, opts ...Option) (*Controller, error) {
	if p == nil {
		return nil, errors.New("controller: nil player")
	}
	if err := config.ValidateSettings(settings); err != nil {
		return nil, err
	}

	c := &Controller{
		player:   p,
		settings: settings,
		ownStore: true,
		logger:   xglog.WithComponent("controller"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.loop == nil {
		c.loop = runloop.New(nil)
	}
	if c.ownStore {
		c.store = store.New(settings.StoreEndpoint, c.storeOpts...)
	}
	c.reporter = c.newReporter(settings)
	c.resolveIdentity()
	c.bind()

	c.ctx, c.cancel = context.WithCancel(context.Background())
	go func() { _ = c.loop.Run(c.ctx) }()

	c.logger.Info().
		Str("event", "controller.started").
		Str(xglog.FieldBaseURL, settings.StoreEndpoint).
		Strs("triggers", triggerList(settings)).
		Dur("update_interval", settings.UpdateInterval).
		Float64("end_guard_seconds", settings.EndGuardSeconds).
		Msg("playback position controller started")
	return c, nil
}

func triggerList(s config.Settings) []string {
	ev := s.TriggerEvents()
	return ev[:]
}

func (c *Controller) newReporter(s config.Settings) *progress.Reporter {
	return progress.New(c.loop, c.player, s.UpdateInterval, func(pos float64) {
		_ = c.savePosition(c.ctx, pos, "reporter")
	})
}

// bind subscribes to the four trigger events. Handlers only enqueue work.
func (c *Controller) bind() {
	s := c.currentSettings()
	handlers := []struct {
		event string
		fn    func()
	}{
		{s.FetchTriggerEvent, c.onFetch},
		{s.SeekTriggerEvent, c.onSeek},
		{s.SaveTriggerEvent, c.onSave},
		{s.DeleteTriggerEvent, c.onDelete},
	}
	for _, h := range handlers {
		fn := h.fn
		c.offs = append(c.offs, c.player.On(h.event, func() { c.loop.Post(fn) }))
	}
}

func (c *Controller) unbind() {
	for _, off := range c.offs {
		off()
	}
	c.offs = nil
}

func (c *Controller) currentSettings() config.Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

func (c *Controller) resolveIdentity() {
	s := c.currentSettings()
	c.userID = s.UserID()
	c.videoID = s.VideoID()
}

func (c *Controller) log() zerolog.Logger {
	return c.logger.With().
		Str(xglog.FieldUserID, c.userID).
		Str(xglog.FieldVideoID, c.videoID).
		Str(xglog.FieldCycleID, c.cycleID).
		Logger()
}

func (c *Controller) cycleContext(ctx context.Context) context.Context {
	if c.cycleID == "" {
		return ctx
	}
	return xglog.ContextWithCycleID(ctx, c.cycleID)
}

func (c *Controller) onFetch() {
	metrics.RecordControllerEvent(TriggerFetch)
	c.resolveIdentity()
	c.pending = nil
	c.cycleID = uuid.NewString()

	logger := c.log()
	if c.userID == "" {
		logger.Debug().Str("event", "controller.fetch_skipped").Msg("no user identity, not fetching saved position")
		return
	}

	raw, err := c.store.Fetch(c.cycleContext(c.ctx), c.userID, c.videoID)
	if err != nil {
		logger.Warn().Err(err).Str("event", "controller.fetch_failed").Msg("could not fetch saved position")
		return
	}
	if strings.TrimSpace(raw) == "" {
		logger.Debug().Str("event", "controller.fetch_empty").Msg("no saved position")
		return
	}
	c.pending = &raw
	logger.Debug().Str("event", "controller.fetched").Str(xglog.FieldTarget, raw).Msg("saved position fetched")
}

func (c *Controller) onSeek() {
	metrics.RecordControllerEvent(TriggerSeek)
	if c.userID == "" || c.pending == nil {
		return
	}
	raw := *c.pending
	c.pending = nil

	logger := c.log()
	target, marker, ok := parseOffset(raw)
	if !ok {
		logger.Debug().Str("event", "controller.seek_unparseable").Str(xglog.FieldTarget, raw).Msg("saved position is not a number, not seeking")
		return
	}
	if marker == c.player.Duration() {
		logger.Debug().Str("event", "controller.seek_at_end").Float64(xglog.FieldTarget, target).Msg("saved position equals duration, not seeking")
		return
	}

	c.reporter.Start()
	c.startSeek(target)
	logger.Info().Str("event", "controller.resume").Float64(xglog.FieldTarget, target).Msg("resuming at saved position")
}

func (c *Controller) startSeek(target float64) {
	c.seeks.Start(func() runloop.Task {
		op := seek.Start(c.loop, c.player, target,
			seek.WithLogger(c.log()),
			seek.WithOnDone(func(op *seek.Operation) { c.seeks.Release(op) }),
		)
		c.lastSeek = op
		if op.Outcome() != seek.Running {
			return nil
		}
		return op
	})
}

func (c *Controller) onSave() {
	metrics.RecordControllerEvent(TriggerSave)
	c.reporter.Stop()
	if c.userID == "" {
		return
	}
	if c.player.CurrentTime() == c.player.Duration() {
		metrics.RecordSaveSuppressed("at_end")
		return
	}
	_ = c.savePosition(c.ctx, 0, TriggerSave)
}

func (c *Controller) onDelete() {
	metrics.RecordControllerEvent(TriggerDelete)
	c.reporter.Stop()
	if c.userID == "" {
		return
	}
	_ = c.deletePosition(c.ctx)
}

// savePosition applies the end guard and saves. A zero (or NaN) position
// means the player's current time.
func (c *Controller) savePosition(ctx context.Context, pos float64, source string) error {
	if pos == 0 || math.IsNaN(pos) {
		pos = c.player.CurrentTime()
	}
	duration := c.player.Duration()
	logger := c.log().With().
		Str(xglog.FieldTrigger, source).
		Float64(xglog.FieldPosition, pos).
		Float64(xglog.FieldDuration, duration).
		Logger()

	// Comparisons with NaN are false, so an unknown duration never saves.
	if !(duration-pos > c.currentSettings().EndGuardSeconds) {
		metrics.RecordSaveSuppressed("end_guard")
		logger.Debug().Str("event", "controller.save_suppressed").Msg("position within end guard, not saving")
		return ErrSaveSuppressed
	}

	if err := c.store.Save(c.cycleContext(ctx), c.userID, c.videoID, pos); err != nil {
		if errors.Is(err, store.ErrNoIdentity) {
			logger.Debug().Str("event", "controller.save_skipped").Msg("no user identity, not saving")
		} else {
			logger.Warn().Err(err).Str("event", "controller.save_failed").Msg("could not save position")
		}
		return err
	}
	logger.Debug().Str("event", "controller.saved").Msg("position saved")
	return nil
}

func (c *Controller) deletePosition(ctx context.Context) error {
	err := c.store.Delete(c.cycleContext(ctx), c.userID, c.videoID)
	logger := c.log()
	switch {
	case err == nil:
		logger.Debug().Str("event", "controller.deleted").Msg("saved position deleted")
	case errors.Is(err, store.ErrNoIdentity):
		logger.Debug().Str("event", "controller.delete_skipped").Msg("no user identity, not deleting")
	default:
		logger.Warn().Err(err).Str("event", "controller.delete_failed").Msg("could not delete saved position")
	}
	return err
}

// run executes fn on the loop and waits for it.
func (c *Controller) run(ctx context.Context, fn func()) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if err := c.loop.Do(ctx, fn); err != nil {
		if errors.Is(err, runloop.ErrStopped) {
			return ErrClosed
		}
		return err
	}
	return nil
}

// Settings returns a copy of the effective settings.
func (c *Controller) Settings() config.Settings {
	return c.currentSettings()
}

// StartUpdateTimer starts (or restarts) the periodic progress reporter.
func (c *Controller) StartUpdateTimer(ctx context.Context) error {
	return c.run(ctx, c.reporter.Start)
}

// StopUpdateTimer stops the periodic progress reporter.
func (c *Controller) StopUpdateTimer(ctx context.Context) error {
	return c.run(ctx, func() { c.reporter.Stop() })
}

// SavePosition saves pos (0 meaning the current time) for the current
// identity, subject to the end guard.
func (c *Controller) SavePosition(ctx context.Context, pos float64) error {
	var err error
	if runErr := c.run(ctx, func() { err = c.savePosition(ctx, pos, "manual") }); runErr != nil {
		return runErr
	}
	return err
}

// SavedPosition fetches the raw stored offset for the current identity
// without touching the pending seek target.
func (c *Controller) SavedPosition(ctx context.Context) (string, error) {
	var (
		raw string
		err error
	)
	if runErr := c.run(ctx, func() {
		raw, err = c.store.Fetch(c.cycleContext(ctx), c.userID, c.videoID)
	}); runErr != nil {
		return "", runErr
	}
	return raw, err
}

// DeletePosition removes the stored offset for the current identity.
func (c *Controller) DeletePosition(ctx context.Context) error {
	var err error
	if runErr := c.run(ctx, func() { err = c.deletePosition(ctx) }); runErr != nil {
		return runErr
	}
	return err
}

// Sync waits until every event delivered before the call has been handled.
func (c *Controller) Sync(ctx context.Context) error {
	return c.run(ctx, func() {})
}

// Reconfigure replaces the settings. It is equivalent to re-initializing the
// controller on the same player: the reporter and any running seek are
// stopped, subscriptions are rebound, the identity is re-resolved and the
// pending seek target is dropped.
func (c *Controller) Reconfigure(ctx context.Context, settings config.Settings) error {
	if err := config.ValidateSettings(settings); err != nil {
		return err
	}
	return c.run(ctx, func() {
		old := c.currentSettings()
		c.teardown()

		c.mu.Lock()
		c.settings = settings
		c.mu.Unlock()

		if c.ownStore && settings.StoreEndpoint != old.StoreEndpoint {
			c.store = store.New(settings.StoreEndpoint, c.storeOpts...)
		}
		c.reporter = c.newReporter(settings)
		c.pending = nil
		c.resolveIdentity()
		c.bind()

		logger := c.log()
		logger.Info().
			Str("event", "controller.reconfigured").
			Str(xglog.FieldBaseURL, settings.StoreEndpoint).
			Strs("triggers", triggerList(settings)).
			Msg("controller reconfigured")
	})
}

func (c *Controller) teardown() {
	c.unbind()
	c.reporter.Stop()
	c.seeks.Stop()
}

// Close unsubscribes from the player, cancels timers and in-flight store
// calls and stops the loop. It is safe to call more than once.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.cancel()
		<-c.loop.Done()
		// The loop has exited; its state is owned by this goroutine now.
		c.teardown()
		c.logger.Info().Str("event", "controller.closed").Msg("playback position controller closed")
	})
	return nil
}

// Snapshot is a point-in-time view of the controller state.
type Snapshot struct {
	UserID          string
	VideoID         string
	CycleID         string
	PendingTarget   string
	HasPending      bool
	ReporterRunning bool
	SeekActive      bool
	LastSeek        seek.Outcome
	LastSeekTarget  float64
}

// Snapshot returns the current state, for diagnostics and tests.
func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := c.run(ctx, func() {
		snap = Snapshot{
			UserID:          c.userID,
			VideoID:         c.videoID,
			CycleID:         c.cycleID,
			ReporterRunning: c.reporter.Running(),
			SeekActive:      c.seeks.Active(),
		}
		if c.pending != nil {
			snap.PendingTarget = *c.pending
			snap.HasPending = true
		}
		if c.lastSeek != nil {
			snap.LastSeek = c.lastSeek.Outcome()
			snap.LastSeekTarget = c.lastSeek.Target()
		}
	})
	if err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	return snap, nil
}
