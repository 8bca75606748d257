// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ManuGH/teleport/internal/store"
)

type positionOptions struct {
	userID   string
	videoID  string
	position float64
}

func newPositionCmd(root *rootOptions) *cobra.Command {
	opts := &positionOptions{}
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Read, save or delete a stored position",
	}
	cmd.PersistentFlags().StringVar(&opts.userID, "user", "", "user identifier (defaults to the configured identity)")
	cmd.PersistentFlags().StringVar(&opts.videoID, "video", "", "video identifier (defaults to the configured identity)")

	get := &cobra.Command{
		Use:   "get",
		Short: "Print the stored offset verbatim",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, userID, videoID, err := opts.client(cmd, root)
			if err != nil {
				return err
			}
			body, err := client.Fetch(cmd.Context(), userID, videoID)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), body)
			return err
		},
	}

	save := &cobra.Command{
		Use:   "save",
		Short: "Store an offset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, userID, videoID, err := opts.client(cmd, root)
			if err != nil {
				return err
			}
			if err := client.Save(cmd.Context(), userID, videoID, opts.position); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved %s for %s/%s\n", store.FormatPosition(opts.position), userID, videoID)
			return err
		},
	}
	save.Flags().Float64Var(&opts.position, "position", 0, "offset in seconds")
	_ = save.MarkFlagRequired("position")

	del := &cobra.Command{
		Use:   "delete",
		Short: "Forget the stored offset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, userID, videoID, err := opts.client(cmd, root)
			if err != nil {
				return err
			}
			if err := client.Delete(cmd.Context(), userID, videoID); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s/%s\n", userID, videoID)
			return err
		},
	}

	cmd.AddCommand(get, save, del)
	return cmd
}

// client resolves the identity from flags, falling back to the configured
// resolvers, and builds a store client for the configured endpoint.
func (o *positionOptions) client(cmd *cobra.Command, root *rootOptions) (*store.Client, string, string, error) {
	_, cfg, err := root.loadConfig()
	if err != nil {
		return nil, "", "", err
	}
	settings := cfg.Settings()

	userID, videoID := settings.UserID(), settings.VideoID()
	if cmd.Flags().Changed("user") {
		userID = o.userID
	}
	if cmd.Flags().Changed("video") {
		videoID = o.videoID
	}
	return store.New(cfg.StoreEndpoint, storeClientOptions(cfg)...), userID, videoID, nil
}

