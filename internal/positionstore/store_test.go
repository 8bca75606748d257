// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package positionstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/teleport/internal/persistence/sqlite"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedisStore(RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func backends(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := NewSqliteStore(filepath.Join(t.TempDir(), "positions.sqlite"), sqlite.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })

	rs, _ := newRedisStore(t)
	return map[string]Store{
		BackendMemory: NewMemoryStore(),
		BackendSqlite: sq,
		BackendRedis:  rs,
	}
}

func TestStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := s.Get(ctx, "u1", "v1")
			require.NoError(t, err)
			assert.Nil(t, got, "absent record")

			require.NoError(t, s.Put(ctx, "u1", "v1", &State{PosSeconds: 12.5, UpdatedAt: at}))
			require.NoError(t, s.Put(ctx, "u1", "v2", &State{PosSeconds: 3, UpdatedAt: at}))

			got, err = s.Get(ctx, "u1", "v1")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, 12.5, got.PosSeconds)
			assert.True(t, got.UpdatedAt.Equal(at))

			require.NoError(t, s.Put(ctx, "u1", "v1", &State{PosSeconds: 40.25, UpdatedAt: at.Add(time.Minute)}))
			got, err = s.Get(ctx, "u1", "v1")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, 40.25, got.PosSeconds)

			require.NoError(t, s.Delete(ctx, "u1", "v1"))
			require.NoError(t, s.Delete(ctx, "u1", "v1"), "delete is idempotent")
			got, err = s.Get(ctx, "u1", "v1")
			require.NoError(t, err)
			assert.Nil(t, got)

			other, err := s.Get(ctx, "u1", "v2")
			require.NoError(t, err)
			require.NotNil(t, other)
			assert.Equal(t, 3.0, other.PosSeconds)
		})
	}
}

func TestStore_SeparatorsDoNotCollide(t *testing.T) {
	ctx := context.Background()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Put(ctx, "a:b", "c", &State{PosSeconds: 1}))
			require.NoError(t, s.Put(ctx, "a", "b:c", &State{PosSeconds: 2}))

			first, err := s.Get(ctx, "a:b", "c")
			require.NoError(t, err)
			second, err := s.Get(ctx, "a", "b:c")
			require.NoError(t, err)
			require.NotNil(t, first)
			require.NotNil(t, second)
			assert.Equal(t, 1.0, first.PosSeconds)
			assert.Equal(t, 2.0, second.PosSeconds)
		})
	}
}

func TestStore_NilStateRejected(t *testing.T) {
	for name, s := range backends(t) {
		assert.Error(t, s.Put(context.Background(), "u", "v", nil), name)
	}
}

func TestSqliteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "positions.sqlite")

	s, err := NewSqliteStore(path, sqlite.DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, "u", "v", &State{PosSeconds: 99.5, UpdatedAt: time.Now()}))
	require.NoError(t, s.Close())

	s, err = NewSqliteStore(path, sqlite.DefaultConfig())
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	var version int
	require.NoError(t, s.DB.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, schemaVersion, version)

	got, err := s.Get(ctx, "u", "v")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 99.5, got.PosSeconds)
}

func TestRedisStore_HashLayout(t *testing.T) {
	s, mr := newRedisStore(t)
	require.NoError(t, s.Put(context.Background(), "user 1", "vid", &State{PosSeconds: 7.5}))

	key := redisKeyPrefix + "user+1:vid"
	assert.True(t, mr.Exists(key))
	assert.Equal(t, "7.5", mr.HGet(key, fieldPos))
}

func TestRedisStore_ConnectFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStore(RedisConfig{Addr: addr})
	assert.Error(t, err)
}

func TestNewStore(t *testing.T) {
	s, err := NewStore("memory", Options{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	dir := t.TempDir()
	s, err = NewStore(" SQLite ", Options{DataDir: dir})
	require.NoError(t, err)
	sq, ok := s.(*SqliteStore)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "positions.sqlite"), sq.Path())
	require.NoError(t, s.Close())

	mr := miniredis.RunT(t)
	s, err = NewStore("redis", Options{RedisAddr: mr.Addr()})
	require.NoError(t, err)
	assert.IsType(t, &RedisStore{}, s)
	require.NoError(t, s.Close())

	for _, removed := range []string{"bolt", "badger"} {
		_, err = NewStore(removed, Options{})
		assert.ErrorIs(t, err, ErrRemovedBackend, removed)
	}
	_, err = NewStore("etcd", Options{})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
