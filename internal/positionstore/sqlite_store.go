// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package positionstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/teleport/internal/persistence/sqlite"
)

const schemaVersion = 1

// SqliteStore implements Store on a single SQLite file.
type SqliteStore struct {
	DB   *sql.DB
	path string
}

// NewSqliteStore opens (or creates) dbPath and migrates the schema.
func NewSqliteStore(dbPath string, cfg sqlite.Config) (*SqliteStore, error) {
	db, err := sqlite.Open(dbPath, cfg)
	if err != nil {
		return nil, err
	}

	s := &SqliteStore{DB: db, path: dbPath}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("positionstore: migration failed: %w", err)
	}
	return s, nil
}

// Path returns the database file.
func (s *SqliteStore) Path() string { return s.path }

func (s *SqliteStore) migrate() error {
	var current int
	if err := s.DB.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS positions (
		user_id TEXT NOT NULL,
		video_id TEXT NOT NULL,
		pos_seconds REAL NOT NULL,
		updated_at TEXT NOT NULL,
		PRIMARY KEY (user_id, video_id)
	);
	CREATE INDEX IF NOT EXISTS idx_positions_updated ON positions(updated_at);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SqliteStore) Put(ctx context.Context, userID, videoID string, state *State) error {
	if state == nil {
		return errors.New("positionstore: nil state")
	}
	query := `
	INSERT INTO positions (user_id, video_id, pos_seconds, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(user_id, video_id) DO UPDATE SET
		pos_seconds = excluded.pos_seconds,
		updated_at = excluded.updated_at
	`
	_, err := s.DB.ExecContext(ctx, query,
		userID, videoID, state.PosSeconds, state.UpdatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SqliteStore) Get(ctx context.Context, userID, videoID string) (*State, error) {
	var state State
	var updatedAt string
	err := s.DB.QueryRowContext(ctx,
		`SELECT pos_seconds, updated_at FROM positions WHERE user_id = ? AND video_id = ?`,
		userID, videoID,
	).Scan(&state.PosSeconds, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	state.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return &state, nil
}

func (s *SqliteStore) Delete(ctx context.Context, userID, videoID string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM positions WHERE user_id = ? AND video_id = ?`, userID, videoID)
	return err
}

func (s *SqliteStore) Close() error {
	return s.DB.Close()
}
