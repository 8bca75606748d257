// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package positionstore is the reference implementation of the remote
// position store: a small HTTP service that keeps one offset per
// (user, video) pair.
package positionstore

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ManuGH/teleport/internal/persistence/sqlite"
)

// Backend names accepted by NewStore.
const (
	BackendMemory = "memory"
	BackendSqlite = "sqlite"
	BackendRedis  = "redis"

	// SqliteFileName is the database file created under the data dir.
	SqliteFileName = "positions.sqlite"
)

var (
	ErrUnknownBackend = errors.New("positionstore: unknown backend")
	ErrRemovedBackend = errors.New("positionstore: backend removed")
)

// State is one stored playback position.
type State struct {
	PosSeconds float64
	UpdatedAt  time.Time
}

// Store persists positions keyed by (userID, videoID).
// Get returns nil, nil when nothing is stored.
type Store interface {
	Put(ctx context.Context, userID, videoID string, state *State) error
	Get(ctx context.Context, userID, videoID string) (*State, error)
	Delete(ctx context.Context, userID, videoID string) error
	Close() error
}

// Options carries backend-specific settings for NewStore.
type Options struct {
	DataDir       string
	SQLite        sqlite.Config
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// NewStore builds the store for backend.
func NewStore(backend string, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSqlite, "":
		cfg := opts.SQLite
		if cfg == (sqlite.Config{}) {
			cfg = sqlite.DefaultConfig()
		}
		return NewSqliteStore(filepath.Join(opts.DataDir, SqliteFileName), cfg)
	case BackendRedis:
		return NewRedisStore(RedisConfig{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
	case "bolt", "badger":
		return nil, fmt.Errorf("%w: %q, use sqlite", ErrRemovedBackend, backend)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func compositeKey(userID, videoID string) string {
	return userID + "\x00" + videoID
}

func (s *MemoryStore) Put(_ context.Context, userID, videoID string, state *State) error {
	if state == nil {
		return errors.New("positionstore: nil state")
	}
	s.mu.Lock()
	s.states[compositeKey(userID, videoID)] = *state
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, userID, videoID string) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[compositeKey(userID, videoID)]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func (s *MemoryStore) Delete(_ context.Context, userID, videoID string) error {
	s.mu.Lock()
	delete(s.states, compositeKey(userID, videoID))
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// Len reports the number of stored positions.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
