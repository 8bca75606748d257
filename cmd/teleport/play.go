// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/teleport/internal/config"
	"github.com/ManuGH/teleport/internal/controller"
	xglog "github.com/ManuGH/teleport/internal/log"
	"github.com/ManuGH/teleport/internal/player"
	"github.com/ManuGH/teleport/internal/store"
)

type playOptions struct {
	duration float64
	start    float64
	watch    time.Duration
	tick     time.Duration
	end      bool
}

func newPlayCmd(root *rootOptions) *cobra.Command {
	opts := &playOptions{}
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Drive a simulated player against the configured store",
		Long: `play loads a simulated media element, lets the controller restore the
saved position, plays for --watch and then pauses (or ends with --end).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader, cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			holder := config.NewHolder(cfg, loader, root.configPath)
			return runPlay(cmd.Context(), cmd.OutOrStdout(), holder, opts)
		},
	}
	cmd.Flags().Float64Var(&opts.duration, "duration", 600, "media duration in seconds")
	cmd.Flags().Float64Var(&opts.start, "start", 0, "position the media element starts at")
	cmd.Flags().DurationVar(&opts.watch, "watch", 5*time.Second, "how long to play before pausing")
	cmd.Flags().DurationVar(&opts.tick, "tick", 250*time.Millisecond, "timeupdate interval")
	cmd.Flags().BoolVar(&opts.end, "end", false, "play to the end instead of pausing")
	return cmd
}

// playSession is one simulated playback through the controller.
type playSession struct {
	out    io.Writer
	player *player.Simulated
	ctrl   *controller.Controller
	events [4]string
	opts   *playOptions
}

func runPlay(ctx context.Context, out io.Writer, holder *config.Holder, opts *playOptions) error {
	if opts.tick <= 0 {
		return fmt.Errorf("play: --tick must be positive")
	}
	cfg := holder.Get()

	p := player.NewSimulated()
	p.SetDuration(opts.duration)
	p.SetReportedTime(opts.start)

	ctrl, err := controller.New(p, cfg.Settings(), controller.WithStoreOptions(storeClientOptions(cfg)...))
	if err != nil {
		return err
	}
	defer func() { _ = ctrl.Close() }()

	holder.RegisterListener(func(next config.AppConfig) {
		if err := ctrl.Reconfigure(ctx, next.Settings()); err != nil {
			logger := xglog.WithComponent("play")
			logger.Warn().Err(err).Msg("reconfigure failed")
		}
	})

	s := &playSession{out: out, player: p, ctrl: ctrl, events: cfg.TriggerEvents(), opts: opts}

	g, gctx := errgroup.WithContext(ctx)
	playCtx, finish := context.WithCancel(gctx)
	g.Go(func() error {
		if err := holder.StartWatcher(playCtx); err != nil {
			return err
		}
		<-playCtx.Done()
		holder.Stop()
		return nil
	})
	g.Go(func() error {
		defer finish()
		return s.run(gctx)
	})
	return g.Wait()
}

func (s *playSession) emit(ctx context.Context, event string) error {
	s.player.Emit(event)
	return s.ctrl.Sync(ctx)
}

func (s *playSession) run(ctx context.Context) error {
	fetch, seekEv, save, del := s.events[0], s.events[1], s.events[2], s.events[3]

	if err := s.emit(ctx, fetch); err != nil {
		return err
	}
	if err := s.emit(ctx, seekEv); err != nil {
		return err
	}
	snap, err := s.ctrl.Snapshot(ctx)
	if err != nil {
		return err
	}
	if snap.SeekActive || snap.LastSeek != "" {
		fmt.Fprintf(s.out, "resuming at %s\n", store.FormatPosition(snap.LastSeekTarget))
	} else {
		fmt.Fprintf(s.out, "starting at %s\n", store.FormatPosition(s.player.CurrentTime()))
	}

	ticker := time.NewTicker(s.opts.tick)
	defer ticker.Stop()
	deadline := time.NewTimer(s.opts.watch)
	defer deadline.Stop()

	ended := false
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-deadline.C:
			if !s.opts.end {
				break loop
			}
		case <-ticker.C:
			s.player.Advance(s.opts.tick)
			if s.player.CurrentTime() >= s.player.Duration() {
				ended = true
				break loop
			}
		}
	}

	// The final save or delete still runs after an interrupt.
	finalCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if ended {
		if err := s.emit(finalCtx, del); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "ended; stored position deleted")
		return nil
	}
	if err := s.emit(finalCtx, save); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "paused at %s\n", store.FormatPosition(s.player.CurrentTime()))
	return nil
}
