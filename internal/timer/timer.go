package timer

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Expirer is what the timer service needs from the room engine. Expiry
// callbacks run outside any request call stack; the engine re-validates
// state before acting on them.
type Expirer interface {
	AutoPick(ctx context.Context, roomCode, connectionID string)
	CleanupRoom(ctx context.Context, roomCode string)
}

// Service owns the per-room single-shot timers: at most one turn timer and
// one cleanup timer per room code. It holds no game state beyond the open
// timer handles.
type Service struct {
	clock   clockwork.Clock
	expirer Expirer

	mu       sync.Mutex
	turns    map[string]*handle
	cleanups map[string]*handle
}

type handle struct {
	timer  clockwork.Timer
	cancel chan struct{}
}

// New creates a timer service on the given clock. Bind must be called before
// any timer is armed.
func New(clock clockwork.Clock) *Service {
	return &Service{
		clock:    clock,
		turns:    make(map[string]*handle),
		cleanups: make(map[string]*handle),
	}
}

// Bind wires the engine in after construction; the engine and the service
// reference each other, so one side has to come second.
func (s *Service) Bind(e Expirer) {
	s.expirer = e
}

// Arm starts the turn countdown for a room, replacing any timer already
// armed for that code. On expiry the engine's auto-pick path runs exactly
// once with the connection id the timer was armed with.
func (s *Service) Arm(roomCode, connectionID string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replace(s.turns, roomCode, d, func() {
		s.expirer.AutoPick(context.Background(), roomCode, connectionID)
	})

	log.Debug().
		Str("room_code", roomCode).
		Str("connection_id", connectionID).
		Dur("duration", d).
		Msg("armed turn timer")
}

// Cancel stops the turn timer for a room, if one is armed. Cancellation
// narrows the expiry race; the engine's staleness check closes it.
func (s *Service) Cancel(roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop(s.turns, roomCode)
}

// ScheduleCleanup starts the delayed room-deletion countdown, replacing any
// pending cleanup for the code.
func (s *Service) ScheduleCleanup(roomCode string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replace(s.cleanups, roomCode, d, func() {
		s.expirer.CleanupRoom(context.Background(), roomCode)
	})

	log.Debug().Str("room_code", roomCode).Dur("grace", d).Msg("scheduled room cleanup")
}

// CancelCleanup drops a pending cleanup for the code.
func (s *Service) CancelCleanup(roomCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop(s.cleanups, roomCode)
}

// replace swaps in a fresh timer for the code, stopping any prior one.
// Caller holds s.mu.
func (s *Service) replace(m map[string]*handle, code string, d time.Duration, fire func()) {
	s.stop(m, code)

	h := &handle{
		timer:  s.clock.NewTimer(d),
		cancel: make(chan struct{}),
	}
	m[code] = h

	go func() {
		select {
		case <-h.timer.Chan():
			s.mu.Lock()
			// Only clear the entry if it is still ours; a re-arm may have
			// replaced it while this goroutine was being scheduled.
			if m[code] == h {
				delete(m, code)
			}
			s.mu.Unlock()
			fire()
		case <-h.cancel:
		}
	}()
}

// stop cancels and removes the timer for the code, draining a timer that
// already fired so its goroutine cannot leak. Caller holds s.mu.
func (s *Service) stop(m map[string]*handle, code string) {
	h, ok := m[code]
	if !ok {
		return
	}
	if !h.timer.Stop() {
		select {
		case <-h.timer.Chan():
		default:
		}
	}
	close(h.cancel)
	delete(m, code)
}
