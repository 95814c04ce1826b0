package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/draftday/draftroom/internal/models"
)

func testRoom(code string) *models.Room {
	return &models.Room{
		Code:   code,
		HostID: "c1",
		Phase:  models.PhaseWaiting,
		Participants: []*models.Participant{
			{Identity: "u1", ConnectionID: "c1", DisplayName: "Ana", Connected: true},
		},
		Pool:        []models.Item{{ID: 1, Name: "Alpha"}},
		Assignments: map[string][]models.Item{"u1": {}},
	}
}

func TestGetMissingRoom(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.Get(context.Background(), "NOPE"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestUpsertAndGet(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Upsert(context.Background(), testRoom("ROOM01")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, err := s.Get(context.Background(), "ROOM01")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Code != "ROOM01" || got.HostID != "c1" || len(got.Participants) != 1 {
		t.Errorf("room = %+v", got)
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestGetReturnsIndependentCopy(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Upsert(context.Background(), testRoom("ROOM01")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	a, _ := s.Get(context.Background(), "ROOM01")
	a.Participants[0].Connected = false
	a.Pool = a.Pool[:0]
	a.Assignments["u1"] = append(a.Assignments["u1"], models.Item{ID: 2})

	b, _ := s.Get(context.Background(), "ROOM01")
	if !b.Participants[0].Connected {
		t.Error("participant mutation leaked into the store")
	}
	if len(b.Pool) != 1 {
		t.Error("pool mutation leaked into the store")
	}
	if len(b.Assignments["u1"]) != 0 {
		t.Error("assignment mutation leaked into the store")
	}
}

func TestUpsertStoresCopy(t *testing.T) {
	s := NewMemoryStore()
	room := testRoom("ROOM01")
	if err := s.Upsert(context.Background(), room); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	room.HostID = "c9"
	got, _ := s.Get(context.Background(), "ROOM01")
	if got.HostID != "c1" {
		t.Error("caller mutation after Upsert leaked into the store")
	}
}

func TestDelete(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Upsert(context.Background(), testRoom("ROOM01")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := s.Delete(context.Background(), "ROOM01"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(context.Background(), "ROOM01"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err after delete = %v, want ErrNotFound", err)
	}

	// Deleting a missing room is fine.
	if err := s.Delete(context.Background(), "ROOM01"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}
