// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package store

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	// ErrNoIdentity is returned without any network traffic when the user id is empty.
	ErrNoIdentity = errors.New("store: no user identity")

	ErrUnavailable = errors.New("store: host unreachable or transport failure")
	ErrTimeout     = errors.New("store: request timed out")
	ErrUpstream    = errors.New("store: server error (5xx)")
	ErrRejected    = errors.New("store: request rejected (4xx)")
	ErrCircuitOpen = errors.New("store: circuit breaker open")
)

// Error carries the operation context of a failed store call. errors.Is matches
// both the sentinel and the underlying transport error.
type Error struct {
	Sentinel error
	Op       string
	Status   int
	Body     string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("store: %s: %v", e.Op, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}

// transportError maps a failed round trip to a typed error.
func transportError(op string, err error) *Error {
	sentinel := ErrUnavailable
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		sentinel = ErrTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		sentinel = ErrTimeout
	}
	return &Error{Sentinel: sentinel, Op: op, Err: err}
}

// statusError maps a non-2xx response to a typed error.
func statusError(op string, status int, body string) *Error {
	sentinel := ErrRejected
	if status >= 500 {
		sentinel = ErrUpstream
	}
	return &Error{Sentinel: sentinel, Op: op, Status: status, Body: body}
}

// Result returns the metrics label for err ("ok" for nil).
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNoIdentity):
		return "no_identity"
	case errors.Is(err, ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	case errors.Is(err, ErrRejected):
		return "rejected"
	default:
		return "unavailable"
	}
}

// countsAgainstBreaker reports whether err indicates an unhealthy store.
// Rejections and caller cancellations say nothing about store health.
func countsAgainstBreaker(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrUpstream)
}
