package sessions

import "sync"

// Binding is the ephemeral association between a live connection and a
// durable identity inside a room. It is superseded on every reconnect.
type Binding struct {
	ConnectionID string
	Identity     string
	RoomCode     string
	DisplayName  string
}

// Map routes inbound events to the right room and participant. It holds no
// room state; the room itself is the source of truth for membership.
type Map struct {
	mu         sync.RWMutex
	byConn     map[string]Binding
	byIdentity map[string]string // identity -> current connection id
}

// NewMap creates an empty session map.
func NewMap() *Map {
	return &Map{
		byConn:     make(map[string]Binding),
		byIdentity: make(map[string]string),
	}
}

// Bind records the binding for a connection. Any prior connection bound to
// the same identity is dropped so stale connections stop routing.
func (m *Map) Bind(b Binding) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.byIdentity[b.Identity]; ok && old != b.ConnectionID {
		delete(m.byConn, old)
	}
	m.byConn[b.ConnectionID] = b
	m.byIdentity[b.Identity] = b.ConnectionID
}

// Lookup returns the binding for a connection id.
func (m *Map) Lookup(connectionID string) (Binding, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.byConn[connectionID]
	return b, ok
}

// LookupByIdentity returns the binding for an identity's current connection.
func (m *Map) LookupByIdentity(identity string) (Binding, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	conn, ok := m.byIdentity[identity]
	if !ok {
		return Binding{}, false
	}
	b, ok := m.byConn[conn]
	return b, ok
}

// Unbind removes the binding for a connection id, if present.
func (m *Map) Unbind(connectionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.byConn[connectionID]
	if !ok {
		return
	}
	delete(m.byConn, connectionID)
	if m.byIdentity[b.Identity] == connectionID {
		delete(m.byIdentity, b.Identity)
	}
}
