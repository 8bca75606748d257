// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/teleport/internal/config"
	xglog "github.com/ManuGH/teleport/internal/log"
	"github.com/ManuGH/teleport/internal/metrics"
	"github.com/ManuGH/teleport/internal/positionstore"
	"github.com/ManuGH/teleport/internal/telemetry"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference position store server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader, cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = listen
			}
			return runServe(cmd.Context(), root, loader, cfg)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config)")
	return cmd
}

func telemetryConfig(cfg config.AppConfig) telemetry.Config {
	return telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	}
}

func runServe(ctx context.Context, root *rootOptions, loader *config.Loader, cfg config.AppConfig) error {
	logger := xglog.WithComponent("serve")

	tp, err := telemetry.NewProvider(ctx, telemetryConfig(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	st, err := positionstore.NewStore(cfg.Server.Backend, positionstore.Options{
		DataDir:       cfg.Server.DataDir,
		RedisAddr:     cfg.Server.RedisAddr,
		RedisPassword: cfg.Server.RedisPassword,
		RedisDB:       cfg.Server.RedisDB,
	})
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	metrics.SetPositionStoreBackend(cfg.Server.Backend)

	service := ""
	if cfg.Telemetry.Enabled {
		service = cfg.LogService
	}
	srv := positionstore.NewServer(cfg.Server.Listen, st, positionstore.Config{
		RateLimit:  cfg.Server.RateLimit,
		RateWindow: cfg.Server.RateWindow,
		CORSOrigin: cfg.Server.CORSOrigin,
		Service:    service,
	})

	holder := config.NewHolder(cfg, loader, root.configPath)
	holder.RegisterListener(func(next config.AppConfig) {
		xglog.Configure(xglog.Config{
			Level:   next.LogLevel,
			Output:  os.Stderr,
			Service: next.LogService,
			Version: next.Version,
		})
		if next.Server != cfg.Server {
			logger.Warn().
				Str("event", "config.restart_required").
				Msg("server settings changed; restart to apply them")
		}
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := holder.StartWatcher(gctx); err != nil {
			logger.Warn().Err(err).Msg("config watcher unavailable")
		}
		<-gctx.Done()
		holder.Stop()
		return nil
	})
	g.Go(func() error {
		return srv.ListenAndServe(gctx)
	})

	logger.Info().
		Str(xglog.FieldBackend, cfg.Server.Backend).
		Str("listen", cfg.Server.Listen).
		Msg("position store starting")
	return g.Wait()
}
