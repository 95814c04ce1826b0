package history

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/draftday/draftroom/internal/models"
)

// Completion is the record handed off when a room finishes selection.
type Completion struct {
	RoomCode    string                   `json:"room_code"`
	Assignments map[string][]models.Item `json:"assignments"`
	CompletedAt time.Time                `json:"completed_at"`
}

// Sink receives completion records. Recording is best-effort: a sink failure
// never affects selection-ended delivery.
type Sink interface {
	Record(ctx context.Context, rec Completion) error
}

// LogSink logs completions instead of publishing them; used when no message
// bus is configured.
type LogSink struct{}

// NewLogSink creates a sink that only logs.
func NewLogSink() *LogSink {
	return &LogSink{}
}

// Record logs the completion.
func (s *LogSink) Record(ctx context.Context, rec Completion) error {
	log.Info().
		Str("room_code", rec.RoomCode).
		Int("participants", len(rec.Assignments)).
		Time("completed_at", rec.CompletedAt).
		Msg("room completed")
	return nil
}
