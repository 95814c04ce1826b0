package room

import "sync"

// codeLocks serializes all mutating operations per room code. Operations on
// different codes never block each other; no cross-room locking exists.
type codeLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newCodeLocks() *codeLocks {
	return &codeLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for a code, creating it on first use, and returns
// the unlock func. The read-modify-write cycle against the store is the
// critical section it must cover.
func (l *codeLocks) Lock(code string) func() {
	l.mu.Lock()
	m, ok := l.locks[code]
	if !ok {
		m = &sync.Mutex{}
		l.locks[code] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
