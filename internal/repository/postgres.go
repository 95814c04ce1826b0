package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/draftday/draftroom/internal/models"
)

// PostgresStore persists rooms as JSONB documents keyed by code.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the rooms table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS rooms (
			code TEXT PRIMARY KEY,
			state JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure rooms schema: %w", err)
	}
	return nil
}

// Get loads and unmarshals the room state for a code.
func (s *PostgresStore) Get(ctx context.Context, code string) (*models.Room, error) {
	var state []byte
	err := s.db.QueryRowContext(ctx, `SELECT state FROM rooms WHERE code = $1`, code).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room %s: %w", code, err)
	}

	var room models.Room
	if err := json.Unmarshal(state, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room %s: %w", code, err)
	}
	return &room, nil
}

// Upsert writes the room state, replacing any prior document for the code.
func (s *PostgresStore) Upsert(ctx context.Context, room *models.Room) error {
	state, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("failed to marshal room %s: %w", room.Code, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rooms (code, state, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (code) DO UPDATE SET state = EXCLUDED.state, updated_at = now()`,
		room.Code, state)
	if err != nil {
		return fmt.Errorf("failed to upsert room %s: %w", room.Code, err)
	}
	return nil
}

// Delete removes the room row for the code.
func (s *PostgresStore) Delete(ctx context.Context, code string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rooms WHERE code = $1`, code)
	if err != nil {
		return fmt.Errorf("failed to delete room %s: %w", code, err)
	}
	return nil
}
