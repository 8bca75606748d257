// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package player defines the media player capability consumed by the
// controller, plus a simulated implementation.
package player

// Event names emitted by HTML5-style players.
const (
	EventLoadStart  = "loadstart"
	EventPlay       = "play"
	EventPause      = "pause"
	EventEnded      = "ended"
	EventTimeUpdate = "timeupdate"
)

// Player is the capability the controller needs from a media player.
// Times are in seconds; Duration and CurrentTime may be NaN while the media
// is not loaded yet.
type Player interface {
	// CurrentTime returns the playback position as reported by the player.
	CurrentTime() float64
	// SetCurrentTime requests a seek. The player may apply it late or
	// report a slightly different position afterwards.
	SetCurrentTime(seconds float64)
	// Duration returns the media length.
	Duration() float64
	// On subscribes fn to the named event and returns a function that
	// removes the subscription. Handlers may be invoked on any goroutine.
	On(event string, fn func()) (off func())
}
