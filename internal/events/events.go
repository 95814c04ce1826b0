package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Type names an outbound room event.
type Type string

const (
	TypeRoomJoined       Type = "room-joined"
	TypeUserJoined       Type = "user-joined"
	TypeUserLeft         Type = "user-left"
	TypeUserDisconnected Type = "user-disconnected"
	TypeSelectionStarted Type = "selection-started"
	TypeItemSelected     Type = "item-selected"
	TypeAutoSelected     Type = "auto-selected"
	TypeTurnChanged      Type = "turn-changed"
	TypeSelectionEnded   Type = "selection-ended"
	TypeError            Type = "error"
)

// Event is the envelope delivered to clients over the transport.
type Event struct {
	ID        string          `json:"id"`
	RoomCode  string          `json:"room_code,omitempty"`
	Type      Type            `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New builds an event envelope, marshaling the payload. A payload that fails
// to marshal is a programming error; the event is emitted with empty data so
// the stream never stalls on it.
func New(eventType Type, roomCode string, payload any) *Event {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to marshal event payload")
		data = []byte("{}")
	}
	return &Event{
		ID:        uuid.New().String(),
		RoomCode:  roomCode,
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}
