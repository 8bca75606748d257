// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"fmt"
	"os"
	"time"
)

// Environment keys understood by the loader.
const (
	EnvStoreEndpoint   = "TELEPORT_STORE_ENDPOINT"
	EnvStoreTimeoutMS  = "TELEPORT_STORE_TIMEOUT_MS"
	EnvUserID          = "TELEPORT_USER_ID"
	EnvVideoID         = "TELEPORT_VIDEO_ID"
	EnvUserIDEnv       = "TELEPORT_USER_ID_ENV"
	EnvVideoIDEnv      = "TELEPORT_VIDEO_ID_ENV"
	EnvEventFetch      = "TELEPORT_EVENT_FETCH"
	EnvEventSeek       = "TELEPORT_EVENT_SEEK"
	EnvEventSave       = "TELEPORT_EVENT_SAVE"
	EnvEventDelete     = "TELEPORT_EVENT_DELETE"
	EnvUpdateInterval  = "TELEPORT_UPDATE_INTERVAL_MS"
	EnvEndGuardSeconds = "TELEPORT_END_GUARD_SECONDS"
	EnvServerListen    = "TELEPORT_SERVER_LISTEN"
	EnvServerBackend   = "TELEPORT_SERVER_BACKEND"
	EnvDataDir         = "TELEPORT_DATA_DIR"
	EnvRedisAddr       = "TELEPORT_REDIS_ADDR"
	EnvRedisPassword   = "TELEPORT_REDIS_PASSWORD"
	EnvRedisDB         = "TELEPORT_REDIS_DB"
	EnvOTelEnabled     = "TELEPORT_OTEL_ENABLED"
	EnvOTelExporter    = "TELEPORT_OTEL_EXPORTER"
	EnvOTelEndpoint    = "TELEPORT_OTEL_ENDPOINT"
	EnvLogLevel        = "LOG_LEVEL"
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envMillis(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return time.Duration(ParseInt(key, int(defaultVal.Milliseconds()))) * time.Millisecond
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envLookup(key string) (string, bool) {
	l.ConsumedEnvKeys[key] = struct{}{}
	return os.LookupEnv(key)
}

// Load loads configuration with precedence: ENV > File > Defaults,
// then validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := DefaultAppConfig()
	cfg.Version = l.version

	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFileConfig(&cfg, fileCfg)
	}

	l.mergeEnvConfig(&cfg)

	endpoint, err := NormalizeEndpoint(cfg.StoreEndpoint)
	if err != nil {
		return cfg, err
	}
	cfg.StoreEndpoint = endpoint

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.StoreEndpoint = l.envString(EnvStoreEndpoint, cfg.StoreEndpoint)
	cfg.Client.Timeout = l.envMillis(EnvStoreTimeoutMS, cfg.Client.Timeout)

	// An identity variable that is present but empty explicitly clears the identity.
	if v, ok := l.envLookup(EnvUserID); ok {
		cfg.UserID = &v
	}
	if v, ok := l.envLookup(EnvVideoID); ok {
		cfg.VideoID = &v
	}
	cfg.UserIDEnv = l.envString(EnvUserIDEnv, cfg.UserIDEnv)
	cfg.VideoIDEnv = l.envString(EnvVideoIDEnv, cfg.VideoIDEnv)

	cfg.FetchTriggerEvent = l.envString(EnvEventFetch, cfg.FetchTriggerEvent)
	cfg.SeekTriggerEvent = l.envString(EnvEventSeek, cfg.SeekTriggerEvent)
	cfg.SaveTriggerEvent = l.envString(EnvEventSave, cfg.SaveTriggerEvent)
	cfg.DeleteTriggerEvent = l.envString(EnvEventDelete, cfg.DeleteTriggerEvent)
	cfg.UpdateInterval = l.envMillis(EnvUpdateInterval, cfg.UpdateInterval)
	cfg.EndGuardSeconds = l.envFloat(EnvEndGuardSeconds, cfg.EndGuardSeconds)

	cfg.Server.Listen = l.envString(EnvServerListen, cfg.Server.Listen)
	cfg.Server.Backend = l.envString(EnvServerBackend, cfg.Server.Backend)
	cfg.Server.DataDir = l.envString(EnvDataDir, cfg.Server.DataDir)
	cfg.Server.RedisAddr = l.envString(EnvRedisAddr, cfg.Server.RedisAddr)
	cfg.Server.RedisPassword = l.envString(EnvRedisPassword, cfg.Server.RedisPassword)
	cfg.Server.RedisDB = l.envInt(EnvRedisDB, cfg.Server.RedisDB)

	cfg.Telemetry.Enabled = l.envBool(EnvOTelEnabled, cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString(EnvOTelExporter, cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString(EnvOTelEndpoint, cfg.Telemetry.Endpoint)

	cfg.LogLevel = l.envString(EnvLogLevel, cfg.LogLevel)
}
