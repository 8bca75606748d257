// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"time"

	"github.com/ManuGH/teleport/internal/identity"
)

// AppConfig is the full process configuration: the playback settings plus the
// ambient knobs of the CLI, the store client and the reference server.
type AppConfig struct {
	Version string

	StoreEndpoint string
	// UserID and VideoID feed static resolvers. A nil pointer keeps the
	// default resolver; an empty string means "no identity".
	UserID  *string
	VideoID *string
	// UserIDEnv and VideoIDEnv name environment variables read on every
	// resolution. A non-empty variable wins over the static id.
	UserIDEnv  string
	VideoIDEnv string

	FetchTriggerEvent  string
	SeekTriggerEvent   string
	SaveTriggerEvent   string
	DeleteTriggerEvent string
	UpdateInterval     time.Duration
	EndGuardSeconds    float64

	Client    ClientConfig
	Server    ServerConfig
	Telemetry TelemetryConfig

	LogLevel   string
	LogService string
}

// ClientConfig tunes the remote position store client.
type ClientConfig struct {
	Timeout          time.Duration
	DeleteTimeout    time.Duration
	BreakerThreshold int // 0 disables the circuit breaker
	BreakerReset     time.Duration
}

// ServerConfig configures the reference position store server.
type ServerConfig struct {
	Listen        string
	Backend       string // memory|sqlite|redis
	DataDir       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RateLimit     int // requests per window per client IP; 0 disables
	RateWindow    time.Duration
	CORSOrigin    string
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string // grpc|http
	Endpoint     string
	SamplingRate float64
}

// DefaultAppConfig returns the configuration used when nothing is supplied.
func DefaultAppConfig() AppConfig {
	d := Defaults()
	return AppConfig{
		StoreEndpoint:      d.StoreEndpoint,
		FetchTriggerEvent:  d.FetchTriggerEvent,
		SeekTriggerEvent:   d.SeekTriggerEvent,
		SaveTriggerEvent:   d.SaveTriggerEvent,
		DeleteTriggerEvent: d.DeleteTriggerEvent,
		UpdateInterval:     d.UpdateInterval,
		EndGuardSeconds:    d.EndGuardSeconds,
		Client: ClientConfig{
			Timeout:          5 * time.Second,
			DeleteTimeout:    1500 * time.Millisecond,
			BreakerThreshold: 5,
			BreakerReset:     30 * time.Second,
		},
		Server: ServerConfig{
			Listen:     ":8080",
			Backend:    "sqlite",
			DataDir:    "/var/lib/teleport",
			RedisAddr:  "localhost:6379",
			RateLimit:  100,
			RateWindow: time.Second,
			CORSOrigin: "*",
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
		},
		LogLevel:   "info",
		LogService: "teleport",
	}
}

// Settings converts the file/env configuration into controller settings.
// Extra options are applied last, so callers can plug in resolvers that
// cannot be expressed in a file (cookies, sessions).
func (c AppConfig) Settings(extra ...Option) Settings {
	opts := []Option{
		WithStoreEndpoint(c.StoreEndpoint),
		WithFetchTriggerEvent(c.FetchTriggerEvent),
		WithSeekTriggerEvent(c.SeekTriggerEvent),
		WithSaveTriggerEvent(c.SaveTriggerEvent),
		WithDeleteTriggerEvent(c.DeleteTriggerEvent),
		WithUpdateInterval(c.UpdateInterval),
		WithEndGuardSeconds(c.EndGuardSeconds),
	}
	if r := resolver(c.UserIDEnv, c.UserID, DefaultUserID); r != nil {
		opts = append(opts, WithUserIDResolver(r))
	}
	if r := resolver(c.VideoIDEnv, c.VideoID, DefaultVideoID); r != nil {
		opts = append(opts, WithVideoIDResolver(r))
	}
	return New(append(opts, extra...)...)
}

// resolver builds the id lookup for one identity key. nil keeps the default.
func resolver(envKey string, id *string, fallback string) identity.Resolver {
	var static identity.Resolver
	switch {
	case id == nil:
		static = identity.Static(fallback)
	case *id == "":
		static = identity.None()
	default:
		static = identity.Static(*id)
	}
	if envKey != "" {
		return identity.FirstOf(identity.Env(envKey), static)
	}
	if id == nil {
		return nil
	}
	return static
}

// TriggerEvents returns the four lifecycle event names in fetch, seek, save,
// delete order.
func (c AppConfig) TriggerEvents() [4]string {
	return [4]string{c.FetchTriggerEvent, c.SeekTriggerEvent, c.SaveTriggerEvent, c.DeleteTriggerEvent}
}
