// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"time"

	"github.com/ManuGH/teleport/internal/identity"
)

// Documented defaults for every playback option.
const (
	DefaultStoreEndpoint      = "http://localhost"
	DefaultUserID             = "testUser"
	DefaultVideoID            = "testId"
	DefaultFetchTriggerEvent  = "loadstart"
	DefaultSeekTriggerEvent   = "play"
	DefaultSaveTriggerEvent   = "pause"
	DefaultDeleteTriggerEvent = "ended"
	DefaultUpdateInterval     = 10000 * time.Millisecond
	DefaultEndGuardSeconds    = 5.0
)

// Settings is the effective, immutable option set of one controller.
// It is a value type: copies handed out for introspection cannot alter the
// controller that owns the original.
type Settings struct {
	// StoreEndpoint is the base URL of the remote position store.
	StoreEndpoint string
	// ResolveUserID returns the current user, "" meaning anonymous.
	ResolveUserID func() string
	// ResolveVideoID returns the current video.
	ResolveVideoID func() string

	FetchTriggerEvent  string
	SeekTriggerEvent   string
	SaveTriggerEvent   string
	DeleteTriggerEvent string

	// UpdateInterval is the periodic save interval; 0 disables periodic saves.
	UpdateInterval time.Duration
	// EndGuardSeconds suppresses saves this close to the end of the media.
	EndGuardSeconds float64
}

// Option overrides one setting.
type Option func(*Settings)

// Defaults returns the documented default settings.
func Defaults() Settings {
	return Settings{
		StoreEndpoint:      DefaultStoreEndpoint,
		ResolveUserID:      identity.Static(DefaultUserID),
		ResolveVideoID:     identity.Static(DefaultVideoID),
		FetchTriggerEvent:  DefaultFetchTriggerEvent,
		SeekTriggerEvent:   DefaultSeekTriggerEvent,
		SaveTriggerEvent:   DefaultSaveTriggerEvent,
		DeleteTriggerEvent: DefaultDeleteTriggerEvent,
		UpdateInterval:     DefaultUpdateInterval,
		EndGuardSeconds:    DefaultEndGuardSeconds,
	}
}

// New merges opts over the defaults. Options not supplied keep their default.
func New(opts ...Option) Settings {
	s := Defaults()
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return s
}

func WithStoreEndpoint(endpoint string) Option {
	return func(s *Settings) { s.StoreEndpoint = endpoint }
}

// WithUserIDResolver installs a custom user lookup. Its results are normalized;
// a nil fn leaves the controller anonymous.
func WithUserIDResolver(fn func() string) Option {
	return func(s *Settings) { s.ResolveUserID = normalized(fn) }
}

func WithVideoIDResolver(fn func() string) Option {
	return func(s *Settings) { s.ResolveVideoID = normalized(fn) }
}

func normalized(fn func() string) func() string {
	if fn == nil {
		return nil
	}
	return identity.Func(fn)
}

func WithFetchTriggerEvent(name string) Option {
	return func(s *Settings) { s.FetchTriggerEvent = name }
}

func WithSeekTriggerEvent(name string) Option {
	return func(s *Settings) { s.SeekTriggerEvent = name }
}

func WithSaveTriggerEvent(name string) Option {
	return func(s *Settings) { s.SaveTriggerEvent = name }
}

func WithDeleteTriggerEvent(name string) Option {
	return func(s *Settings) { s.DeleteTriggerEvent = name }
}

// WithUpdateInterval sets the periodic save interval. Zero disables it.
func WithUpdateInterval(d time.Duration) Option {
	return func(s *Settings) { s.UpdateInterval = d }
}

// WithEndGuardSeconds sets the end-of-media window in which saves are suppressed.
func WithEndGuardSeconds(seconds float64) Option {
	return func(s *Settings) { s.EndGuardSeconds = seconds }
}

// UserID resolves the current user id ("" when no resolver is set).
func (s Settings) UserID() string {
	if s.ResolveUserID == nil {
		return ""
	}
	return s.ResolveUserID()
}

// VideoID resolves the current video id ("" when no resolver is set).
func (s Settings) VideoID() string {
	if s.ResolveVideoID == nil {
		return ""
	}
	return s.ResolveVideoID()
}

// TriggerEvents returns the four lifecycle event names in fetch, seek, save,
// delete order.
func (s Settings) TriggerEvents() [4]string {
	return [4]string{s.FetchTriggerEvent, s.SeekTriggerEvent, s.SaveTriggerEvent, s.DeleteTriggerEvent}
}
