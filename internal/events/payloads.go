package events

import (
	"time"

	"github.com/draftday/draftroom/internal/models"
)

// RoomJoinedPayload carries the full room snapshot to the joining connection.
type RoomJoinedPayload struct {
	Room models.Snapshot `json:"room"`
}

// RosterPayload is the roster delta broadcast on join, leave and disconnect.
type RosterPayload struct {
	Roster []models.RosterEntry `json:"roster"`
	HostID string               `json:"host_id"`
}

// TurnEntry pairs a turn-order slot with its display name so clients can
// render the order without a roster lookup.
type TurnEntry struct {
	ConnectionID string `json:"connection_id"`
	DisplayName  string `json:"display_name"`
}

// SelectionStartedPayload announces the fixed turn order and the first turn.
type SelectionStartedPayload struct {
	TurnOrder    []TurnEntry `json:"turn_order"`
	CurrentTurn  string      `json:"current_turn"`
	TurnDeadline time.Time   `json:"turn_deadline"`
}

// ItemSelectedPayload is shared by item-selected and auto-selected events;
// only the event type distinguishes a manual pick from a timeout pick.
type ItemSelectedPayload struct {
	Item        models.Item              `json:"item"`
	SelectedBy  string                   `json:"selected_by"`
	Pool        []models.Item            `json:"pool"`
	Assignments map[string][]models.Item `json:"assignments"`
}

// TurnChangedPayload announces the next turn holder and its deadline.
type TurnChangedPayload struct {
	CurrentTurn  string    `json:"current_turn"`
	DisplayName  string    `json:"display_name"`
	TurnDeadline time.Time `json:"turn_deadline"`
}

// SelectionEndedPayload carries the final assignments keyed by identity.
type SelectionEndedPayload struct {
	Assignments map[string][]models.Item `json:"assignments"`
}

// ErrorPayload is sent to the originating connection when an operation is
// rejected. Kind is one of the taxonomy kinds in the room package.
type ErrorPayload struct {
	Message string `json:"message"`
	Kind    string `json:"kind"`
}
