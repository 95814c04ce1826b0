package sessions

import "testing"

func TestBindAndLookup(t *testing.T) {
	m := NewMap()
	m.Bind(Binding{ConnectionID: "c1", Identity: "u1", RoomCode: "ROOM01", DisplayName: "Ana"})

	b, ok := m.Lookup("c1")
	if !ok {
		t.Fatal("Lookup(c1) missing")
	}
	if b.Identity != "u1" || b.RoomCode != "ROOM01" {
		t.Errorf("binding = %+v", b)
	}

	if _, ok := m.Lookup("c2"); ok {
		t.Error("Lookup(c2) should be absent")
	}
}

func TestRebindDropsStaleConnection(t *testing.T) {
	m := NewMap()
	m.Bind(Binding{ConnectionID: "c1", Identity: "u1", RoomCode: "ROOM01"})
	m.Bind(Binding{ConnectionID: "c2", Identity: "u1", RoomCode: "ROOM01"})

	if _, ok := m.Lookup("c1"); ok {
		t.Error("stale connection c1 still routes")
	}
	b, ok := m.Lookup("c2")
	if !ok || b.Identity != "u1" {
		t.Errorf("Lookup(c2) = %+v, %v", b, ok)
	}

	b, ok = m.LookupByIdentity("u1")
	if !ok || b.ConnectionID != "c2" {
		t.Errorf("LookupByIdentity(u1) = %+v, %v", b, ok)
	}
}

func TestUnbind(t *testing.T) {
	m := NewMap()
	m.Bind(Binding{ConnectionID: "c1", Identity: "u1", RoomCode: "ROOM01"})
	m.Unbind("c1")

	if _, ok := m.Lookup("c1"); ok {
		t.Error("Lookup(c1) survived Unbind")
	}
	if _, ok := m.LookupByIdentity("u1"); ok {
		t.Error("LookupByIdentity(u1) survived Unbind")
	}

	// Unbinding an unknown connection is a no-op.
	m.Unbind("c9")
}

func TestUnbindStaleConnectionKeepsCurrent(t *testing.T) {
	m := NewMap()
	m.Bind(Binding{ConnectionID: "c1", Identity: "u1", RoomCode: "ROOM01"})
	m.Bind(Binding{ConnectionID: "c2", Identity: "u1", RoomCode: "ROOM01"})

	// A late disconnect of the superseded connection must not unroute the
	// identity's current one.
	m.Unbind("c1")

	b, ok := m.LookupByIdentity("u1")
	if !ok || b.ConnectionID != "c2" {
		t.Errorf("LookupByIdentity(u1) = %+v, %v", b, ok)
	}
}
