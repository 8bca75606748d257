// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package positionstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	xglog "github.com/ManuGH/teleport/internal/log"
)

const shutdownTimeout = 5 * time.Second

// Server runs the handler on a listener until its context ends.
type Server struct {
	srv *http.Server
}

// NewServer wires store behind the HTTP handler on addr.
func NewServer(addr string, store Store, cfg Config) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           NewHandler(store, cfg),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}}
}

// Serve accepts on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger := xglog.WithComponent("positionstore")
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", ln.Addr().String()).Msg("position store listening")
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("positionstore: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("positionstore: shutdown: %w", err)
	}
	logger.Info().Msg("position store stopped")
	return nil
}

// ListenAndServe listens on the configured address and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("positionstore: listen %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}
