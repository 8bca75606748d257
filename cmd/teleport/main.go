// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Command teleport keeps playback positions in sync with a remote store.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ManuGH/teleport/internal/config"
	xglog "github.com/ManuGH/teleport/internal/log"
	"github.com/ManuGH/teleport/internal/store"
)

var (
	version   = "v0.1.0"
	commit    = "none"
	buildDate = "unknown"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "teleport",
		Short:         "Playback position synchronization",
		Long:          "teleport saves and restores playback positions through a remote position store.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file (YAML)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")

	root.AddCommand(
		newServeCmd(opts),
		newPositionCmd(opts),
		newPlayCmd(opts),
		newConfigCmd(opts),
		newVerifyCmd(opts),
		newVersionCmd(),
	)
	return root
}

// loadConfig reads file and environment configuration and configures the
// global logger from it.
func (o *rootOptions) loadConfig() (*config.Loader, config.AppConfig, error) {
	loader := config.NewLoader(o.configPath, version)
	cfg, err := loader.Load()
	if err != nil {
		return nil, cfg, fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Output:  os.Stderr,
		Service: cfg.LogService,
		Version: cfg.Version,
	})
	return loader, cfg, nil
}

func storeClientOptions(cfg config.AppConfig) []store.Option {
	return []store.Option{
		store.WithTimeout(cfg.Client.Timeout),
		store.WithDeleteTimeout(cfg.Client.DeleteTimeout),
		store.WithCircuitBreaker(cfg.Client.BreakerThreshold, cfg.Client.BreakerReset),
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "teleport %s (commit: %s, built: %s)\n", version, commit, buildDate)
			return err
		},
	}
}
