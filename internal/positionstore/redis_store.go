// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package positionstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	xglog "github.com/ManuGH/teleport/internal/log"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "teleport:position:"
	fieldPos       = "pos"
	fieldUpdated   = "updated_at"
)

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore implements Store as one hash per (user, video).
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects and pings the server.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("positionstore: redis connection failed: %w", err)
	}

	logger := xglog.WithComponent("positionstore")
	logger.Info().
		Str("addr", cfg.Addr).
		Int("db", cfg.DB).
		Msg("connected to redis")

	return &RedisStore{client: client}, nil
}

// redisKey query-escapes both parts so ':' inside identifiers cannot collide.
func redisKey(userID, videoID string) string {
	return redisKeyPrefix + url.QueryEscape(userID) + ":" + url.QueryEscape(videoID)
}

func (s *RedisStore) Put(ctx context.Context, userID, videoID string, state *State) error {
	if state == nil {
		return errors.New("positionstore: nil state")
	}
	return s.client.HSet(ctx, redisKey(userID, videoID),
		fieldPos, strconv.FormatFloat(state.PosSeconds, 'f', -1, 64),
		fieldUpdated, state.UpdatedAt.UTC().Format(time.RFC3339Nano),
	).Err()
}

func (s *RedisStore) Get(ctx context.Context, userID, videoID string) (*State, error) {
	fields, err := s.client.HGetAll(ctx, redisKey(userID, videoID)).Result()
	if err != nil {
		return nil, err
	}
	raw, ok := fields[fieldPos]
	if !ok {
		return nil, nil
	}
	pos, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("positionstore: corrupt position %q: %w", raw, err)
	}
	state := &State{PosSeconds: pos}
	state.UpdatedAt, _ = time.Parse(time.RFC3339Nano, fields[fieldUpdated])
	return state, nil
}

func (s *RedisStore) Delete(ctx context.Context, userID, videoID string) error {
	return s.client.Del(ctx, redisKey(userID, videoID)).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
