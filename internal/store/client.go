// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package store is the client of the remote position store.
//
// Wire contract:
//
//	POST   {endpoint}/userId/{u}/videoId/{v}/position/{p}
//	GET    {endpoint}/userId/{u}/videoId/{v}/
//	DELETE {endpoint}/userId/{u}/videoId/{v}/
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	xglog "github.com/ManuGH/teleport/internal/log"
	"github.com/ManuGH/teleport/internal/metrics"
	"github.com/ManuGH/teleport/internal/platform/httpx"
	"github.com/ManuGH/teleport/internal/resilience"
	"github.com/ManuGH/teleport/internal/telemetry"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	OpSave   = "save"
	OpFetch  = "fetch"
	OpDelete = "delete"

	// DefaultDeleteTimeout bounds delete requests issued at end of media.
	DefaultDeleteTimeout = 1500 * time.Millisecond
	DefaultTimeout       = 5 * time.Second

	maxBodyBytes = 64 << 10
)

// Positions is the capability the controller needs from a store.
type Positions interface {
	Save(ctx context.Context, userID, videoID string, position float64) error
	Fetch(ctx context.Context, userID, videoID string) (string, error)
	Delete(ctx context.Context, userID, videoID string) error
}

// Client talks to one position store endpoint. It is safe for concurrent use.
type Client struct {
	endpoint      string
	http          *http.Client
	deleteTimeout time.Duration
	breaker       *resilience.CircuitBreaker
	logger        zerolog.Logger
	tracer        trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default traced client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithTimeout sets the overall request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.http = httpx.NewClient(d) }
}

// WithDeleteTimeout overrides DefaultDeleteTimeout.
func WithDeleteTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.deleteTimeout = d
		}
	}
}

// WithCircuitBreaker guards all calls with a breaker that opens after
// threshold consecutive store failures. A threshold <= 0 disables it.
func WithCircuitBreaker(threshold int, reset time.Duration) Option {
	return func(cl *Client) {
		if threshold <= 0 {
			cl.breaker = nil
			return
		}
		cl.breaker = resilience.NewCircuitBreaker("store", threshold, reset,
			resilience.WithFailureFilter(countsAgainstBreaker))
	}
}

// WithBreaker installs a preconstructed breaker.
func WithBreaker(cb *resilience.CircuitBreaker) Option {
	return func(cl *Client) { cl.breaker = cb }
}

// New creates a client for endpoint. Trailing slashes are ignored.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint:      strings.TrimRight(endpoint, "/"),
		http:          httpx.NewClient(DefaultTimeout),
		deleteTimeout: DefaultDeleteTimeout,
		logger:        xglog.WithComponent("store"),
		tracer:        telemetry.Tracer("github.com/ManuGH/teleport/internal/store"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the normalized base URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Save records position for (userID, videoID). It is not retried.
func (c *Client) Save(ctx context.Context, userID, videoID string, position float64) error {
	if userID == "" {
		return c.noIdentity(OpSave)
	}
	target := c.recordURL(userID, videoID) + "position/" + FormatPosition(position)
	_, err := c.do(ctx, OpSave, http.MethodPost, target, userID, videoID, position)
	return err
}

// Fetch returns the stored offset verbatim. A 404 yields an empty string.
func (c *Client) Fetch(ctx context.Context, userID, videoID string) (string, error) {
	if userID == "" {
		return "", c.noIdentity(OpFetch)
	}
	return c.do(ctx, OpFetch, http.MethodGet, c.recordURL(userID, videoID), userID, videoID, -1)
}

// Delete removes the record. Deleting an absent record succeeds.
func (c *Client) Delete(ctx context.Context, userID, videoID string) error {
	if userID == "" {
		return c.noIdentity(OpDelete)
	}
	ctx, cancel := context.WithTimeout(ctx, c.deleteTimeout)
	defer cancel()
	_, err := c.do(ctx, OpDelete, http.MethodDelete, c.recordURL(userID, videoID), userID, videoID, -1)
	return err
}

// FormatPosition renders an offset the way it appears in the save path.
func FormatPosition(pos float64) string {
	return strconv.FormatFloat(pos, 'f', -1, 64)
}

func (c *Client) recordURL(userID, videoID string) string {
	return fmt.Sprintf("%s/userId/%s/videoId/%s/", c.endpoint, url.PathEscape(userID), url.PathEscape(videoID))
}

func (c *Client) noIdentity(op string) error {
	metrics.RecordStoreRequest(op, Result(ErrNoIdentity), 0)
	return ErrNoIdentity
}

func (c *Client) do(ctx context.Context, op, method, target, userID, videoID string, position float64) (string, error) {
	ctx, span := c.tracer.Start(ctx, "store."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(telemetry.StoreAttributes(op, c.endpoint, userID, videoID)...),
	)
	defer span.End()
	if position >= 0 {
		span.SetAttributes(telemetry.PositionAttribute(position))
	}

	start := time.Now()
	var body string
	call := func() error {
		var err error
		body, err = c.roundTrip(httpx.WithOperation(ctx, op), op, method, target)
		return err
	}

	var err error
	if c.breaker != nil {
		err = c.breaker.Execute(call)
		if errors.Is(err, resilience.ErrCircuitOpen) {
			err = &Error{Sentinel: ErrCircuitOpen, Op: op, Err: err}
		}
	} else {
		err = call()
	}
	took := time.Since(start)
	result := Result(err)
	metrics.RecordStoreRequest(op, result, took)

	logger := xglog.WithContext(ctx, c.logger).With().
		Str(xglog.FieldOp, op).
		Str(xglog.FieldVideoID, videoID).
		Dur("took", took).
		Logger()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
		span.SetAttributes(telemetry.ErrorAttributes(result)...)
		logger.Debug().Err(err).Str("event", "store.request_failed").Msg("position store request failed")
		return "", err
	}
	logger.Debug().Str("event", "store.request_ok").Msg("position store request succeeded")
	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return "", &Error{Sentinel: ErrRejected, Op: op, Err: err}
	}
	if method == http.MethodGet {
		req.Header.Set("Accept", "text/plain")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", transportError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	switch {
	case resp.StatusCode == http.StatusNotFound && (op == OpDelete || op == OpFetch):
		return "", nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return "", statusError(op, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if readErr != nil {
		return "", transportError(op, readErr)
	}
	return string(data), nil
}
