// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/teleport/internal/clock"
	"github.com/ManuGH/teleport/internal/player"
	"github.com/ManuGH/teleport/internal/runloop"
)

const interval = 25 * time.Millisecond

type saves struct {
	mu  sync.Mutex
	got []float64
}

func (s *saves) record(pos float64) {
	s.mu.Lock()
	s.got = append(s.got, pos)
	s.mu.Unlock()
}

func (s *saves) list() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.got...)
}

func runLoop(t *testing.T, clk clock.Clock) *runloop.Loop {
	t.Helper()
	loop := runloop.New(clk)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
		goleak.VerifyNone(t)
	})
	return loop
}

func do(t *testing.T, loop *runloop.Loop, fn func()) {
	t.Helper()
	require.NoError(t, loop.Do(context.Background(), fn))
}

func step(t *testing.T, clk *clock.Fake, loop *runloop.Loop, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		clk.Advance(interval)
		require.NoError(t, loop.Sync(context.Background()))
	}
}

func TestReporter_SavesOnceOnSingleChange(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	loop := runLoop(t, clk)
	p := player.NewSimulated()
	var s saves
	r := New(loop, p, interval, s.record)

	do(t, loop, r.Start)
	p.SetReportedTime(12)
	step(t, clk, loop, 4)

	assert.Equal(t, []float64{12}, s.list())
	do(t, loop, func() { assert.True(t, r.Stop()) })
}

func TestReporter_NoChangeNoSave(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	loop := runLoop(t, clk)
	p := player.NewSimulated()
	var s saves
	r := New(loop, p, interval, s.record)

	do(t, loop, r.Start)
	step(t, clk, loop, 4)

	assert.Empty(t, s.list())
	do(t, loop, func() { r.Stop() })
}

func TestReporter_RestartResetsLastPosition(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	loop := runLoop(t, clk)
	p := player.NewSimulated()
	var s saves
	r := New(loop, p, interval, s.record)

	p.SetReportedTime(30)
	do(t, loop, r.Start)
	step(t, clk, loop, 2)
	do(t, loop, r.Start)
	step(t, clk, loop, 2)

	assert.Equal(t, []float64{30, 30}, s.list())
	assert.Equal(t, 1, clk.Pending(), "restart must cancel the previous instance")
	do(t, loop, func() { r.Stop() })
}

func TestReporter_DisabledWithZeroInterval(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	loop := runLoop(t, clk)
	p := player.NewSimulated()
	var s saves
	r := New(loop, p, 0, s.record)

	do(t, loop, r.Start)
	p.SetReportedTime(5)
	step(t, clk, loop, 3)

	assert.Empty(t, s.list())
	assert.Zero(t, clk.Pending())
	do(t, loop, func() {
		assert.False(t, r.Running())
		assert.False(t, r.Stop())
	})
}

func TestReporter_StopCancelsQueuedTick(t *testing.T) {
	clk := clock.NewFake(time.Unix(0, 0))
	loop := runLoop(t, clk)
	p := player.NewSimulated()
	var s saves
	r := New(loop, p, interval, s.record)

	do(t, loop, r.Start)
	p.SetReportedTime(7)
	do(t, loop, func() {
		// The tick is queued behind this function; stopping here must drop it.
		clk.Advance(interval)
		r.Stop()
	})
	require.NoError(t, loop.Sync(context.Background()))

	assert.Empty(t, s.list())
	assert.Zero(t, clk.Pending())
}

func TestReporter_WallClock(t *testing.T) {
	loop := runLoop(t, nil)
	p := player.NewSimulated()
	var s saves
	r := New(loop, p, interval, s.record)

	do(t, loop, r.Start)
	p.SetReportedTime(3)

	assert.Eventually(t, func() bool { return len(s.list()) == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(4 * interval)
	assert.Equal(t, []float64{3}, s.list())
	do(t, loop, func() { r.Stop() })
}
