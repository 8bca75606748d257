// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package player

import (
	"math"
	"sync"
	"time"
)

// SeekMode controls how Simulated reacts to SetCurrentTime.
type SeekMode int

const (
	// SeekImmediate applies seeks right away.
	SeekImmediate SeekMode = iota
	// SeekDeferred queues the last seek until Settle is called.
	SeekDeferred
	// SeekIgnored records seeks but never applies them.
	SeekIgnored
)

type handler struct {
	id int
	fn func()
}

// Simulated is an in-memory Player used by tests and the play command.
// It is safe for concurrent use; handlers run on the caller of Emit.
type Simulated struct {
	mu          sync.Mutex
	current     float64
	duration    float64
	mode        SeekMode
	pendingSeek *float64
	seeks       []float64
	nextID      int
	handlers    map[string][]handler
}

// NewSimulated returns a player with unknown duration positioned at 0.
func NewSimulated() *Simulated {
	return &Simulated{
		duration: math.NaN(),
		handlers: make(map[string][]handler),
	}
}

func (p *Simulated) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Simulated) SetCurrentTime(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeks = append(p.seeks, seconds)
	switch p.mode {
	case SeekImmediate:
		p.current = seconds
	case SeekDeferred:
		s := seconds
		p.pendingSeek = &s
	}
}

func (p *Simulated) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

func (p *Simulated) On(event string, fn func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.handlers[event] = append(p.handlers[event], handler{id: id, fn: fn})
	return func() { p.off(event, id) }
}

func (p *Simulated) off(event string, id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	hs := p.handlers[event]
	out := hs[:0]
	for _, h := range hs {
		if h.id != id {
			out = append(out, h)
		}
	}
	if len(out) == 0 {
		delete(p.handlers, event)
		return
	}
	p.handlers[event] = out
}

// Emit invokes every handler subscribed to event.
func (p *Simulated) Emit(event string) {
	p.mu.Lock()
	hs := append([]handler(nil), p.handlers[event]...)
	p.mu.Unlock()
	for _, h := range hs {
		h.fn()
	}
}

// Subscribers returns the number of handlers bound to event.
func (p *Simulated) Subscribers(event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handlers[event])
}

// SetDuration sets the media length reported by Duration.
func (p *Simulated) SetDuration(seconds float64) {
	p.mu.Lock()
	p.duration = seconds
	p.mu.Unlock()
}

// SetReportedTime overrides the reported position without counting as a seek.
func (p *Simulated) SetReportedTime(seconds float64) {
	p.mu.Lock()
	p.current = seconds
	p.mu.Unlock()
}

// SetSeekMode changes how subsequent seeks are applied.
func (p *Simulated) SetSeekMode(m SeekMode) {
	p.mu.Lock()
	p.mode = m
	p.mu.Unlock()
}

// Settle applies a deferred seek, if any.
func (p *Simulated) Settle() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pendingSeek != nil {
		p.current = *p.pendingSeek
		p.pendingSeek = nil
	}
}

// Seeks returns every seek target requested so far.
func (p *Simulated) Seeks() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.seeks...)
}

// Advance moves playback forward by d (clamped to the duration when known)
// and emits timeupdate.
func (p *Simulated) Advance(d time.Duration) {
	p.mu.Lock()
	p.current += d.Seconds()
	if !math.IsNaN(p.duration) && p.current > p.duration {
		p.current = p.duration
	}
	p.mu.Unlock()
	p.Emit(EventTimeUpdate)
}

var _ Player = (*Simulated)(nil)
