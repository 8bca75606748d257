// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/ManuGH/teleport/internal/metrics"
)

type mockClock struct {
	now time.Time
}

func (m *mockClock) Now() time.Time { return m.now }

var errBoom = errors.New("boom")

func fail() error    { return errBoom }
func succeed() error { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clk := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 3, 30*time.Second, WithClock(clk))

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(fail), errBoom)
	}
	assert.Equal(t, StateClosed, cb.State())

	assert.ErrorIs(t, cb.Execute(fail), errBoom)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called, "open breaker must not call through")
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", 2, time.Second, WithClock(&mockClock{now: time.Now()}))

	_ = cb.Execute(fail)
	assert.NoError(t, cb.Execute(succeed))
	_ = cb.Execute(fail)
	assert.Equal(t, StateClosed, cb.State(), "failures are counted consecutively")
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	clk := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("test", 1, 10*time.Second, WithClock(clk))

	_ = cb.Execute(fail)
	assert.Equal(t, StateOpen, cb.State())

	clk.now = clk.now.Add(11 * time.Second)
	assert.ErrorIs(t, cb.Execute(fail), errBoom)
	assert.Equal(t, StateOpen, cb.State(), "failed probe re-opens")

	clk.now = clk.now.Add(11 * time.Second)
	assert.NoError(t, cb.Execute(succeed))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_FailureFilter(t *testing.T) {
	benign := errors.New("client error")
	cb := NewCircuitBreaker("test", 1, time.Second,
		WithClock(&mockClock{now: time.Now()}),
		WithFailureFilter(func(err error) bool { return !errors.Is(err, benign) }),
	)

	assert.ErrorIs(t, cb.Execute(func() error { return benign }), benign)
	assert.Equal(t, StateClosed, cb.State())

	_ = cb.Execute(fail)
	assert.Equal(t, StateOpen, cb.State())
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker("test", 0, 0)
	assert.Equal(t, 3, cb.threshold)
	assert.Equal(t, 30*time.Second, cb.resetTimeout)
}

func TestCircuitBreaker_OpenRecordsMetrics(t *testing.T) {
	clk := &mockClock{now: time.Now()}
	cb := NewCircuitBreaker("metrics-test", 1, time.Minute, WithClock(clk))

	state := func(s string) float64 {
		return testutil.ToFloat64(metrics.StoreBreakerState.WithLabelValues("metrics-test", s))
	}
	assert.Equal(t, 1.0, state("closed"))

	opens := metrics.StoreBreakerOpens.WithLabelValues("metrics-test", metrics.BreakerCauseFailures)
	assert.ErrorIs(t, cb.Execute(fail), errBoom)
	assert.Equal(t, 1.0, state("open"))
	assert.Equal(t, 0.0, state("closed"))
	assert.Equal(t, 1.0, testutil.ToFloat64(opens))

	rejected := metrics.StoreBreakerRejected.WithLabelValues("metrics-test")
	before := testutil.ToFloat64(rejected)
	assert.ErrorIs(t, cb.Execute(succeed), ErrCircuitOpen)
	assert.Equal(t, before+1, testutil.ToFloat64(rejected))
}
