// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestContextWithRequestID(t *testing.T) {
	tests := []struct {
		name      string
		ctx       context.Context
		requestID string
		want      string
	}{
		{
			name:      "nil context",
			ctx:       nil,
			requestID: "test-id-123",
			want:      "test-id-123",
		},
		{
			name:      "background context",
			ctx:       context.Background(),
			requestID: "req-456",
			want:      "req-456",
		},
		{
			name:      "empty request ID",
			ctx:       context.Background(),
			requestID: "",
			want:      "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ContextWithRequestID(tt.ctx, tt.requestID)
			if got := RequestIDFromContext(ctx); got != tt.want {
				t.Errorf("RequestIDFromContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCycleIDFromContext(t *testing.T) {
	assert.Equal(t, "", CycleIDFromContext(nil))
	assert.Equal(t, "", CycleIDFromContext(context.Background()))
	assert.Equal(t, "", CycleIDFromContext(context.WithValue(context.Background(), cycleIDKey, 42)))
	assert.Equal(t, "c-1", CycleIDFromContext(ContextWithCycleID(context.Background(), "c-1")))
}

func captureBase(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	mu.Lock()
	prev := base
	base = zerolog.New(&buf)
	mu.Unlock()
	t.Cleanup(func() {
		mu.Lock()
		base = prev
		mu.Unlock()
	})
	return &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestWithComponentFromContext_AddsCorrelationFields(t *testing.T) {
	buf := captureBase(t)

	ctx := ContextWithCycleID(ContextWithRequestID(context.Background(), "req-1"), "cycle-9")
	l := WithComponentFromContext(ctx, "controller")
	l.Info().Msg("hello")

	entry := decodeLine(t, buf)
	assert.Equal(t, "controller", entry[FieldComponent])
	assert.Equal(t, "req-1", entry[FieldRequestID])
	assert.Equal(t, "cycle-9", entry[FieldCycleID])
}

func TestWithContext_EmptyContextKeepsLogger(t *testing.T) {
	buf := captureBase(t)
	l := WithContext(context.Background(), Base())
	l.Info().Msg("plain")

	entry := decodeLine(t, buf)
	_, hasRequest := entry[FieldRequestID]
	assert.False(t, hasRequest)
}

func TestWithTraceContext(t *testing.T) {
	noopTracer := noop.NewTracerProvider().Tracer("test")
	ctx, span := noopTracer.Start(context.Background(), "test-span")
	defer span.End()

	buf := captureBase(t)
	l := WithTraceContext(ctx)
	l.Info().Msg("noop span")
	_, hasTrace := decodeLine(t, buf)["trace_id"]
	assert.False(t, hasTrace, "noop span context is invalid and must not add trace fields")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	spanCtx := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})

	buf.Reset()
	l = WithTraceContext(trace.ContextWithSpanContext(context.Background(), spanCtx))
	l.Info().Msg("valid span")
	entry := decodeLine(t, buf)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
}

func TestConfigure_ServiceAndVersion(t *testing.T) {
	captureBase(t)
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "teleport-test", Version: "v0.0.1"})
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	l := WithComponent("store")
	l.Debug().Msg("configured")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "teleport-test", entry["service"])
	assert.Equal(t, "v0.0.1", entry["version"])
	assert.Equal(t, "store", entry[FieldComponent])
}
