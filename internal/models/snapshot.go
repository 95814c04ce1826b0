package models

import "time"

// RosterEntry is the public view of a participant sent to clients.
type RosterEntry struct {
	Identity     string `json:"identity"`
	ConnectionID string `json:"connection_id"`
	DisplayName  string `json:"display_name"`
	Connected    bool   `json:"connected"`
}

// Snapshot is the full room view delivered to a joining connection and the
// HTTP room endpoints.
type Snapshot struct {
	Code         string            `json:"code"`
	HostID       string            `json:"host_id"`
	Phase        Phase             `json:"phase"`
	Roster       []RosterEntry     `json:"roster"`
	Pool         []Item            `json:"pool"`
	Assignments  map[string][]Item `json:"assignments"`
	CurrentTurn  string            `json:"current_turn,omitempty"`
	TurnDeadline *time.Time        `json:"turn_deadline,omitempty"`
}

// Snapshot builds the client-facing view of the room. Disconnected
// participants stay in the roster so clients can render rejoin state.
func (r *Room) Snapshot() Snapshot {
	snap := Snapshot{
		Code:         r.Code,
		HostID:       r.HostID,
		Phase:        r.Phase,
		Pool:         append([]Item(nil), r.Pool...),
		Assignments:  make(map[string][]Item, len(r.Assignments)),
		CurrentTurn:  r.CurrentTurn(),
		TurnDeadline: r.TurnDeadline,
	}
	for _, p := range r.Participants {
		snap.Roster = append(snap.Roster, RosterEntry{
			Identity:     p.Identity,
			ConnectionID: p.ConnectionID,
			DisplayName:  p.DisplayName,
			Connected:    p.Connected,
		})
	}
	for identity, items := range r.Assignments {
		snap.Assignments[identity] = append([]Item(nil), items...)
	}
	return snap
}
