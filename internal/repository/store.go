package repository

import (
	"context"
	"errors"

	"github.com/draftday/draftroom/internal/models"
)

// ErrNotFound is returned when no room exists for a code.
var ErrNotFound = errors.New("room not found")

// RoomStore is the durable mapping from room code to room state. Callers are
// expected to serialize access per code; the store itself only guarantees
// that individual operations are atomic.
type RoomStore interface {
	Get(ctx context.Context, code string) (*models.Room, error)
	Upsert(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, code string) error
}
