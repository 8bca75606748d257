// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// ErrInvalidEndpoint is wrapped by NormalizeEndpoint failures.
var ErrInvalidEndpoint = errors.New("invalid store endpoint")

// NormalizeEndpoint checks that raw is an absolute http(s) URL, converts an
// internationalized host to its ASCII form and strips trailing slashes.
func NormalizeEndpoint(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidEndpoint, u.Scheme)
	}
	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidEndpoint)
	}
	if net.ParseIP(host) == nil {
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return "", fmt.Errorf("%w: host %q: %v", ErrInvalidEndpoint, host, err)
		}
		if port := u.Port(); port != "" {
			u.Host = net.JoinHostPort(ascii, port)
		} else {
			u.Host = ascii
		}
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String(), nil
}

// ValidateSettings checks controller settings.
func ValidateSettings(s Settings) error {
	var problems []string
	if _, err := NormalizeEndpoint(s.StoreEndpoint); err != nil {
		problems = append(problems, err.Error())
	}
	problems = append(problems, eventProblems(s.TriggerEvents())...)
	if s.UpdateInterval < 0 {
		problems = append(problems, "update interval must not be negative")
	}
	if s.EndGuardSeconds < 0 {
		problems = append(problems, "end guard must not be negative")
	}
	if s.ResolveVideoID == nil {
		problems = append(problems, "video id resolver is required")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func eventProblems(events [4]string) []string {
	var problems []string
	names := [4]string{"fetch", "seek", "save", "delete"}
	for i, ev := range events {
		if strings.TrimSpace(ev) == "" {
			problems = append(problems, names[i]+" trigger event must not be empty")
		}
	}
	return problems
}

// Validate checks the full application configuration.
func Validate(cfg AppConfig) error {
	var problems []string

	if err := ValidateSettings(cfg.Settings()); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			problems = append(problems, ve.Problems...)
		}
	}
	if cfg.Client.Timeout <= 0 {
		problems = append(problems, "store timeout must be positive")
	}
	if cfg.Client.DeleteTimeout <= 0 {
		problems = append(problems, "store delete timeout must be positive")
	}
	if cfg.Client.BreakerThreshold < 0 {
		problems = append(problems, "breaker threshold must not be negative")
	}
	switch cfg.Server.Backend {
	case "memory", "sqlite", "redis":
	default:
		problems = append(problems, fmt.Sprintf("unknown server backend %q (supported: memory, sqlite, redis)", cfg.Server.Backend))
	}
	if cfg.Server.RateLimit < 0 {
		problems = append(problems, "rate limit must not be negative")
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.RateWindow <= 0 {
		problems = append(problems, "rate limit window must be positive")
	}
	if cfg.Telemetry.Enabled {
		switch cfg.Telemetry.Exporter {
		case "grpc", "http":
		default:
			problems = append(problems, fmt.Sprintf("unknown telemetry exporter %q (supported: grpc, http)", cfg.Telemetry.Exporter))
		}
		if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
			problems = append(problems, "telemetry sampling rate must be within [0,1]")
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
