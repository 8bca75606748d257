// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package positionstore

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	xglog "github.com/ManuGH/teleport/internal/log"
)

// Config configures the HTTP surface.
type Config struct {
	RateLimit  int // per client IP and window; 0 disables
	RateWindow time.Duration
	CORSOrigin string
	Service    string // otel service name; empty disables tracing
}

// Handler serves the position store wire contract.
type Handler struct {
	store Store
	now   func() time.Time
}

// NewHandler builds the routed handler with its middleware stack.
func NewHandler(store Store, cfg Config) http.Handler {
	h := &Handler{store: store, now: time.Now}

	r := chi.NewRouter()
	r.Use(recoverer)
	r.Use(requestID)
	r.Use(cors(cfg.CORSOrigin))
	if cfg.Service != "" {
		r.Use(instrument(cfg.Service))
	}
	r.Use(accessLog)

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if cfg.RateLimit > 0 && cfg.RateWindow > 0 {
			r.Use(rateLimit(cfg.RateLimit, cfg.RateWindow))
		}
		for _, base := range []string{"/userId/{userId}/videoId/{videoId}", "/userId/{userId}/videoId/{videoId}/"} {
			r.Get(base, h.get)
			r.Delete(base, h.delete)
		}
		r.Post("/userId/{userId}/videoId/{videoId}/position/{position}", h.save)
	})
	return r
}

// param returns the decoded route parameter. chi matches against RawPath
// when the request carried non-canonical escapes.
func param(r *http.Request, name string) (string, bool) {
	v := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return v, v != ""
	}
	dec, err := url.PathUnescape(v)
	if err != nil {
		return "", false
	}
	return dec, dec != ""
}

func identifiers(w http.ResponseWriter, r *http.Request) (userID, videoID string, ok bool) {
	userID, okU := param(r, "userId")
	videoID, okV := param(r, "videoId")
	if !okU || !okV {
		http.Error(w, "missing or malformed identifier", http.StatusBadRequest)
		return "", "", false
	}
	return userID, videoID, true
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	userID, videoID, ok := identifiers(w, r)
	if !ok {
		return
	}
	raw, _ := param(r, "position")
	pos, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(pos) || math.IsInf(pos, 0) || pos < 0 {
		http.Error(w, "position must be a non-negative number", http.StatusBadRequest)
		return
	}

	if err := h.store.Put(r.Context(), userID, videoID, &State{PosSeconds: pos, UpdatedAt: h.now()}); err != nil {
		h.fail(w, r, "put", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	userID, videoID, ok := identifiers(w, r)
	if !ok {
		return
	}
	state, err := h.store.Get(r.Context(), userID, videoID)
	if err != nil {
		h.fail(w, r, "get", err)
		return
	}
	body := "0"
	if state != nil {
		body = strconv.FormatFloat(state.PosSeconds, 'f', -1, 64)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(body))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	userID, videoID, ok := identifiers(w, r)
	if !ok {
		return
	}
	if err := h.store.Delete(r.Context(), userID, videoID); err != nil {
		h.fail(w, r, "delete", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger := xglog.WithComponentFromContext(r.Context(), "positionstore")
	logger.Error().Err(err).Str(xglog.FieldOp, op).Msg("store operation failed")
	http.Error(w, "store unavailable", http.StatusServiceUnavailable)
}
