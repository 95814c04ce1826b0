package models

import (
	"time"
)

// Phase defines the lifecycle phase of a room.
type Phase string

const (
	PhaseWaiting   Phase = "WAITING"
	PhaseSelecting Phase = "SELECTING"
	PhaseCompleted Phase = "COMPLETED"
)

// Item is a selectable entry in a room's pool. Items are immutable; one item
// moves from the pool to exactly one participant's assignments.
type Item struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Role    string `json:"role"`
	Country string `json:"country"`
}

// Participant is a durable identity's membership in a room. The identity
// survives reconnects; ConnectionID is rewritten on every rejoin.
type Participant struct {
	Identity     string    `json:"identity"`
	ConnectionID string    `json:"connection_id"`
	DisplayName  string    `json:"display_name"`
	Connected    bool      `json:"connected"`
	JoinedAt     time.Time `json:"joined_at"`
}

// Room is one draft session. Participants are ordered by join time and unique
// by identity. Assignments are keyed by durable identity so a reconnect never
// resets progress; TurnOrder is keyed by connection id and remapped on rejoin.
type Room struct {
	Code         string            `json:"code"`
	HostID       string            `json:"host_id"`
	Participants []*Participant    `json:"participants"`
	Pool         []Item            `json:"pool"`
	Assignments  map[string][]Item `json:"assignments"`
	TurnOrder    []string          `json:"turn_order"`
	TurnIndex    int               `json:"turn_index"`
	Phase        Phase             `json:"phase"`
	TurnDeadline *time.Time        `json:"turn_deadline,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// ParticipantByIdentity returns the participant with the given durable
// identity, or nil.
func (r *Room) ParticipantByIdentity(identity string) *Participant {
	for _, p := range r.Participants {
		if p.Identity == identity {
			return p
		}
	}
	return nil
}

// ParticipantByConnection returns the participant currently bound to the
// given connection id, or nil.
func (r *Room) ParticipantByConnection(connectionID string) *Participant {
	for _, p := range r.Participants {
		if p.ConnectionID == connectionID {
			return p
		}
	}
	return nil
}

// ConnectedParticipants returns participants with a live connection, in join
// order.
func (r *Room) ConnectedParticipants() []*Participant {
	var out []*Participant
	for _, p := range r.Participants {
		if p.Connected {
			out = append(out, p)
		}
	}
	return out
}

// CurrentTurn returns the connection id that holds the turn, or "" outside
// the Selecting phase.
func (r *Room) CurrentTurn() string {
	if r.Phase != PhaseSelecting || r.TurnIndex < 0 || r.TurnIndex >= len(r.TurnOrder) {
		return ""
	}
	return r.TurnOrder[r.TurnIndex]
}

// PoolIndex returns the pool position of the item with the given id, or -1.
func (r *Room) PoolIndex(itemID int) int {
	for i, item := range r.Pool {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the room. Store adapters hand out clones so a
// caller's in-memory mutations are never visible until persisted.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	out := *r
	out.Participants = make([]*Participant, len(r.Participants))
	for i, p := range r.Participants {
		cp := *p
		out.Participants[i] = &cp
	}
	out.Pool = append([]Item(nil), r.Pool...)
	out.Assignments = make(map[string][]Item, len(r.Assignments))
	for identity, items := range r.Assignments {
		out.Assignments[identity] = append([]Item(nil), items...)
	}
	out.TurnOrder = append([]string(nil), r.TurnOrder...)
	if r.TurnDeadline != nil {
		d := *r.TurnDeadline
		out.TurnDeadline = &d
	}
	return &out
}
