// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ManuGH/teleport/internal/persistence/sqlite"
	"github.com/ManuGH/teleport/internal/positionstore"
)

func newVerifyCmd(root *rootOptions) *cobra.Command {
	var (
		mode string
		path string
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the integrity of the sqlite position database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if mode != sqlite.VerifyQuick && mode != sqlite.VerifyFull {
				return fmt.Errorf("invalid --mode %q (quick|full)", mode)
			}
			if path == "" {
				_, cfg, err := root.loadConfig()
				if err != nil {
					return err
				}
				path = filepath.Join(cfg.Server.DataDir, positionstore.SqliteFileName)
			}

			issues, err := sqlite.VerifyIntegrity(cmd.Context(), path, mode)
			if err != nil {
				return err
			}
			if len(issues) > 0 {
				for _, issue := range issues {
					fmt.Fprintln(cmd.ErrOrStderr(), issue)
				}
				return fmt.Errorf("%s: %d integrity problems", path, len(issues))
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s)\n", path, mode)
			return err
		},
	}
	cmd.Flags().StringVar(&mode, "mode", sqlite.VerifyQuick, "quick or full")
	cmd.Flags().StringVar(&path, "path", "", "database file (defaults to <data_dir>/positions.sqlite)")
	return cmd
}
