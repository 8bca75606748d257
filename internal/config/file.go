// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML representation. Pointer fields distinguish "not set"
// from an explicit zero value (update_interval_ms: 0 disables periodic saves).
type FileConfig struct {
	Store     *StoreFileConfig     `yaml:"store,omitempty"`
	Identity  *IdentityFileConfig  `yaml:"identity,omitempty"`
	Events    *EventsFileConfig    `yaml:"events,omitempty"`
	Playback  *PlaybackFileConfig  `yaml:"playback,omitempty"`
	Server    *ServerFileConfig    `yaml:"server,omitempty"`
	Log       *LogFileConfig       `yaml:"log,omitempty"`
	Telemetry *TelemetryFileConfig `yaml:"telemetry,omitempty"`
}

type StoreFileConfig struct {
	Endpoint         *string `yaml:"endpoint,omitempty"`
	TimeoutMS        *int    `yaml:"timeout_ms,omitempty"`
	DeleteTimeoutMS  *int    `yaml:"delete_timeout_ms,omitempty"`
	BreakerThreshold *int    `yaml:"breaker_threshold,omitempty"`
	BreakerResetMS   *int    `yaml:"breaker_reset_ms,omitempty"`
}

type IdentityFileConfig struct {
	UserID     *string `yaml:"user_id,omitempty"`
	VideoID    *string `yaml:"video_id,omitempty"`
	UserIDEnv  *string `yaml:"user_id_env,omitempty"`
	VideoIDEnv *string `yaml:"video_id_env,omitempty"`
}

type EventsFileConfig struct {
	Fetch  *string `yaml:"fetch,omitempty"`
	Seek   *string `yaml:"seek,omitempty"`
	Save   *string `yaml:"save,omitempty"`
	Delete *string `yaml:"delete,omitempty"`
}

type PlaybackFileConfig struct {
	UpdateIntervalMS *int     `yaml:"update_interval_ms,omitempty"`
	EndGuardSeconds  *float64 `yaml:"end_guard_seconds,omitempty"`
}

type ServerFileConfig struct {
	Listen     *string           `yaml:"listen,omitempty"`
	Backend    *string           `yaml:"backend,omitempty"`
	DataDir    *string           `yaml:"data_dir,omitempty"`
	Redis      *RedisFileConfig  `yaml:"redis,omitempty"`
	RateLimit  *RateLimitFileCfg `yaml:"rate_limit,omitempty"`
	CORSOrigin *string           `yaml:"cors_origin,omitempty"`
}

type RedisFileConfig struct {
	Addr     *string `yaml:"addr,omitempty"`
	Password *string `yaml:"password,omitempty"`
	DB       *int    `yaml:"db,omitempty"`
}

type RateLimitFileCfg struct {
	Requests *int `yaml:"requests,omitempty"`
	WindowMS *int `yaml:"window_ms,omitempty"`
}

type LogFileConfig struct {
	Level   *string `yaml:"level,omitempty"`
	Service *string `yaml:"service,omitempty"`
}

type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     *string  `yaml:"exporter,omitempty"`
	Endpoint     *string  `yaml:"endpoint,omitempty"`
	SamplingRate *float64 `yaml:"sampling_rate,omitempty"`
}

func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parseFile(data)
}

func parseFile(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(&fileCfg); err != nil {
		if err == io.EOF {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}

	return &fileCfg, nil
}

// mergeFileConfig applies every field present in src onto dst.
func mergeFileConfig(dst *AppConfig, src *FileConfig) {
	if src == nil {
		return
	}
	if s := src.Store; s != nil {
		setString(&dst.StoreEndpoint, s.Endpoint)
		setMillis(&dst.Client.Timeout, s.TimeoutMS)
		setMillis(&dst.Client.DeleteTimeout, s.DeleteTimeoutMS)
		setInt(&dst.Client.BreakerThreshold, s.BreakerThreshold)
		setMillis(&dst.Client.BreakerReset, s.BreakerResetMS)
	}
	if id := src.Identity; id != nil {
		if id.UserID != nil {
			v := *id.UserID
			dst.UserID = &v
		}
		if id.VideoID != nil {
			v := *id.VideoID
			dst.VideoID = &v
		}
		setString(&dst.UserIDEnv, id.UserIDEnv)
		setString(&dst.VideoIDEnv, id.VideoIDEnv)
	}
	if e := src.Events; e != nil {
		setString(&dst.FetchTriggerEvent, e.Fetch)
		setString(&dst.SeekTriggerEvent, e.Seek)
		setString(&dst.SaveTriggerEvent, e.Save)
		setString(&dst.DeleteTriggerEvent, e.Delete)
	}
	if p := src.Playback; p != nil {
		setMillis(&dst.UpdateInterval, p.UpdateIntervalMS)
		if p.EndGuardSeconds != nil {
			dst.EndGuardSeconds = *p.EndGuardSeconds
		}
	}
	if s := src.Server; s != nil {
		setString(&dst.Server.Listen, s.Listen)
		setString(&dst.Server.Backend, s.Backend)
		setString(&dst.Server.DataDir, s.DataDir)
		setString(&dst.Server.CORSOrigin, s.CORSOrigin)
		if r := s.Redis; r != nil {
			setString(&dst.Server.RedisAddr, r.Addr)
			setString(&dst.Server.RedisPassword, r.Password)
			setInt(&dst.Server.RedisDB, r.DB)
		}
		if rl := s.RateLimit; rl != nil {
			setInt(&dst.Server.RateLimit, rl.Requests)
			setMillis(&dst.Server.RateWindow, rl.WindowMS)
		}
	}
	if lg := src.Log; lg != nil {
		setString(&dst.LogLevel, lg.Level)
		setString(&dst.LogService, lg.Service)
	}
	if t := src.Telemetry; t != nil {
		if t.Enabled != nil {
			dst.Telemetry.Enabled = *t.Enabled
		}
		setString(&dst.Telemetry.Exporter, t.Exporter)
		setString(&dst.Telemetry.Endpoint, t.Endpoint)
		if t.SamplingRate != nil {
			dst.Telemetry.SamplingRate = *t.SamplingRate
		}
	}
}

// ToFileConfig renders cfg in its YAML shape (used by "config init").
func ToFileConfig(cfg AppConfig) FileConfig {
	intervalMS := int(cfg.UpdateInterval.Milliseconds())
	timeoutMS := int(cfg.Client.Timeout.Milliseconds())
	deleteMS := int(cfg.Client.DeleteTimeout.Milliseconds())
	resetMS := int(cfg.Client.BreakerReset.Milliseconds())
	windowMS := int(cfg.Server.RateWindow.Milliseconds())
	return FileConfig{
		Store: &StoreFileConfig{
			Endpoint:         &cfg.StoreEndpoint,
			TimeoutMS:        &timeoutMS,
			DeleteTimeoutMS:  &deleteMS,
			BreakerThreshold: &cfg.Client.BreakerThreshold,
			BreakerResetMS:   &resetMS,
		},
		Identity: &IdentityFileConfig{
			UserID:     cfg.UserID,
			VideoID:    cfg.VideoID,
			UserIDEnv:  optional(cfg.UserIDEnv),
			VideoIDEnv: optional(cfg.VideoIDEnv),
		},
		Events: &EventsFileConfig{
			Fetch:  &cfg.FetchTriggerEvent,
			Seek:   &cfg.SeekTriggerEvent,
			Save:   &cfg.SaveTriggerEvent,
			Delete: &cfg.DeleteTriggerEvent,
		},
		Playback: &PlaybackFileConfig{
			UpdateIntervalMS: &intervalMS,
			EndGuardSeconds:  &cfg.EndGuardSeconds,
		},
		Server: &ServerFileConfig{
			Listen:     &cfg.Server.Listen,
			Backend:    &cfg.Server.Backend,
			DataDir:    &cfg.Server.DataDir,
			CORSOrigin: &cfg.Server.CORSOrigin,
			Redis: &RedisFileConfig{
				Addr: &cfg.Server.RedisAddr,
				DB:   &cfg.Server.RedisDB,
			},
			RateLimit: &RateLimitFileCfg{
				Requests: &cfg.Server.RateLimit,
				WindowMS: &windowMS,
			},
		},
		Log: &LogFileConfig{Level: &cfg.LogLevel, Service: &cfg.LogService},
		Telemetry: &TelemetryFileConfig{
			Enabled:      &cfg.Telemetry.Enabled,
			Exporter:     &cfg.Telemetry.Exporter,
			Endpoint:     &cfg.Telemetry.Endpoint,
			SamplingRate: &cfg.Telemetry.SamplingRate,
		},
	}
}

// WriteFile atomically writes cfg as YAML to path.
func WriteFile(path string, cfg AppConfig) error {
	fc := ToFileConfig(cfg)
	data, err := yaml.Marshal(&fc)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	// renameio handles: temp file creation, fsync, atomic rename, cleanup on error
	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o600))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() { _ = pendingFile.Cleanup() }()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace config: %w", err)
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setMillis(dst *time.Duration, v *int) {
	if v != nil {
		*dst = time.Duration(*v) * time.Millisecond
	}
}
