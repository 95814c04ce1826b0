package repository

import (
	"context"
	"sync"

	"github.com/draftday/draftroom/internal/models"
)

// MemoryStore is an in-process RoomStore used in tests and single-node
// deployments without Postgres.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*models.Room
}

// NewMemoryStore creates an empty in-memory room store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rooms: make(map[string]*models.Room),
	}
}

// Get returns a deep copy of the stored room so callers can mutate freely
// before persisting.
func (s *MemoryStore) Get(ctx context.Context, code string) (*models.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, ok := s.rooms[code]
	if !ok {
		return nil, ErrNotFound
	}
	return room.Clone(), nil
}

// Upsert stores a deep copy of the room under its code.
func (s *MemoryStore) Upsert(ctx context.Context, room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms[room.Code] = room.Clone()
	return nil
}

// Delete removes the room for the code. Deleting a missing room is not an
// error.
func (s *MemoryStore) Delete(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rooms, code)
	return nil
}

// Len reports the number of stored rooms.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}
