package room

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/draftday/draftroom/internal/events"
	"github.com/draftday/draftroom/internal/history"
	"github.com/draftday/draftroom/internal/models"
	"github.com/draftday/draftroom/internal/repository"
	"github.com/draftday/draftroom/internal/sessions"
)

// TurnTimer is what the engine needs from the timer service.
type TurnTimer interface {
	Arm(roomCode, connectionID string, d time.Duration)
	Cancel(roomCode string)
	ScheduleCleanup(roomCode string, d time.Duration)
	CancelCleanup(roomCode string)
}

// Broadcaster is what the engine needs from the transport adapter.
type Broadcaster interface {
	BroadcastToRoom(roomCode string, event *events.Event)
	SendToConnection(connectionID string, event *events.Event)
}

// Config holds the engine's tunables.
type Config struct {
	TurnDuration        time.Duration
	ItemsPerParticipant int
	MinParticipants     int
	CleanupGrace        time.Duration
	CodeLength          int
	CodeAttempts        int
	StoreTimeout        time.Duration
}

// DefaultConfig mirrors the production defaults.
func DefaultConfig() Config {
	return Config{
		TurnDuration:        10 * time.Second,
		ItemsPerParticipant: 5,
		MinParticipants:     2,
		CleanupGrace:        10 * time.Minute,
		CodeLength:          6,
		CodeAttempts:        8,
		StoreTimeout:        5 * time.Second,
	}
}

// Engine owns the room session state machine. All mutating operations on a
// room code run under that code's lock; the read-modify-write cycle against
// the store is the critical section.
type Engine struct {
	store       repository.RoomStore
	sessions    *sessions.Map
	timer       TurnTimer
	broadcaster Broadcaster
	sink        history.Sink
	pool        []models.Item
	cfg         Config
	locks       *codeLocks
}

// NewEngine wires the engine onto its collaborators. initialPool is the full
// item pool every new room starts with.
func NewEngine(store repository.RoomStore, sess *sessions.Map, timer TurnTimer, broadcaster Broadcaster, sink history.Sink, initialPool []models.Item, cfg Config) *Engine {
	return &Engine{
		store:       store,
		sessions:    sess,
		timer:       timer,
		broadcaster: broadcaster,
		sink:        sink,
		pool:        initialPool,
		cfg:         cfg,
		locks:       newCodeLocks(),
	}
}

// JoinRequest carries everything the join path needs. Identity comes from the
// auth collaborator, ConnectionID from the transport.
type JoinRequest struct {
	RoomCode     string
	Identity     string
	DisplayName  string
	ConnectionID string
}

// CreateRoom allocates a fresh room with a unique code and persists it in the
// Waiting phase. The creator joins through the normal join path.
func (e *Engine) CreateRoom(ctx context.Context) (*models.Room, error) {
	for attempt := 0; attempt < e.cfg.CodeAttempts; attempt++ {
		code := randomCode(e.cfg.CodeLength)

		unlock := e.locks.Lock(code)
		_, err := e.getRoom(ctx, code)
		if err == nil {
			unlock()
			continue // collision, retry with a new code
		}
		if !errors.Is(err, ErrRoomNotFound) {
			unlock()
			return nil, err
		}

		room := &models.Room{
			Code:         code,
			Participants: []*models.Participant{},
			Pool:         append([]models.Item(nil), e.pool...),
			Assignments:  make(map[string][]models.Item),
			Phase:        models.PhaseWaiting,
			CreatedAt:    time.Now(),
		}
		if err := e.putRoom(ctx, room); err != nil {
			unlock()
			return nil, err
		}
		unlock()

		log.Info().Str("room_code", code).Int("pool_size", len(room.Pool)).Msg("created room")
		return room, nil
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrCodeExhausted, e.cfg.CodeAttempts)
}

// Join adds a participant to a room or re-binds an existing identity to its
// new connection. On rejoin the host handle and any turn-order slot held by
// the old connection are remapped in place.
func (e *Engine) Join(ctx context.Context, req JoinRequest) error {
	unlock := e.locks.Lock(req.RoomCode)
	defer unlock()

	room, err := e.getRoom(ctx, req.RoomCode)
	if err != nil {
		return err
	}

	existing := room.ParticipantByIdentity(req.Identity)

	if existing != nil {
		oldConn := existing.ConnectionID
		existing.ConnectionID = req.ConnectionID
		existing.Connected = true

		if room.HostID == oldConn {
			room.HostID = req.ConnectionID
		}
		for i, c := range room.TurnOrder {
			if c == oldConn {
				room.TurnOrder[i] = req.ConnectionID
			}
		}

		log.Info().
			Str("room_code", room.Code).
			Str("identity", req.Identity).
			Str("old_connection", oldConn).
			Str("connection_id", req.ConnectionID).
			Msg("participant reconnected")
	} else {
		if room.Phase != models.PhaseWaiting {
			return ErrAlreadyStarted
		}
		for _, p := range room.Participants {
			if p.Connected && p.DisplayName == req.DisplayName && p.Identity != req.Identity {
				return ErrNameTaken
			}
		}
		room.Participants = append(room.Participants, &models.Participant{
			Identity:     req.Identity,
			ConnectionID: req.ConnectionID,
			DisplayName:  req.DisplayName,
			Connected:    true,
			JoinedAt:     time.Now(),
		})
		if _, ok := room.Assignments[req.Identity]; !ok {
			room.Assignments[req.Identity] = []models.Item{}
		}
	}

	electHost(room)

	// The turn holder rejoining restarts the countdown from a full turn: a
	// frozen room resumes, and a rejoin that superseded a still-live
	// connection replaces the timer left armed for the old id.
	resumedTurn := existing != nil &&
		room.Phase == models.PhaseSelecting &&
		room.CurrentTurn() == req.ConnectionID
	if resumedTurn {
		deadline := time.Now().Add(e.cfg.TurnDuration)
		room.TurnDeadline = &deadline
	}

	if err := e.putRoom(ctx, room); err != nil {
		return err
	}

	e.sessions.Bind(sessions.Binding{
		ConnectionID: req.ConnectionID,
		Identity:     req.Identity,
		RoomCode:     req.RoomCode,
		DisplayName:  req.DisplayName,
	})
	e.timer.CancelCleanup(room.Code)

	e.broadcaster.SendToConnection(req.ConnectionID,
		events.New(events.TypeRoomJoined, room.Code, events.RoomJoinedPayload{Room: room.Snapshot()}))
	e.broadcaster.BroadcastToRoom(room.Code,
		events.New(events.TypeUserJoined, room.Code, rosterPayload(room)))

	if resumedTurn {
		e.broadcaster.BroadcastToRoom(room.Code,
			events.New(events.TypeTurnChanged, room.Code, turnChangedPayload(room)))
		e.timer.Arm(room.Code, req.ConnectionID, e.cfg.TurnDuration)
	}
	return nil
}

// IsMember reports whether an identity has a participant record in the room.
// The rejoin path uses it to reject identities that were never members.
func (e *Engine) IsMember(ctx context.Context, roomCode, identity string) (bool, error) {
	unlock := e.locks.Lock(roomCode)
	defer unlock()

	room, err := e.getRoom(ctx, roomCode)
	if err != nil {
		return false, err
	}
	return room.ParticipantByIdentity(identity) != nil, nil
}

// Snapshot returns the current client view of a room.
func (e *Engine) Snapshot(ctx context.Context, roomCode string) (models.Snapshot, error) {
	unlock := e.locks.Lock(roomCode)
	defer unlock()

	room, err := e.getRoom(ctx, roomCode)
	if err != nil {
		return models.Snapshot{}, err
	}
	return room.Snapshot(), nil
}

// StartSelection moves the room into the Selecting phase: the turn order is a
// uniformly random permutation of the currently connected participants, and
// the first turn timer is armed.
func (e *Engine) StartSelection(ctx context.Context, connectionID string) error {
	binding, ok := e.sessions.Lookup(connectionID)
	if !ok {
		return ErrRoomNotFound
	}

	unlock := e.locks.Lock(binding.RoomCode)
	defer unlock()

	room, err := e.getRoom(ctx, binding.RoomCode)
	if err != nil {
		return err
	}
	if room.HostID != connectionID {
		return ErrNotHost
	}
	if room.Phase != models.PhaseWaiting {
		return ErrAlreadyStarted
	}

	connected := room.ConnectedParticipants()
	if len(connected) < e.cfg.MinParticipants {
		return ErrNotEnoughPlayers
	}

	order := make([]string, len(connected))
	for i, p := range connected {
		order[i] = p.ConnectionID
	}
	rand.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})

	room.TurnOrder = order
	room.TurnIndex = 0
	room.Phase = models.PhaseSelecting
	deadline := time.Now().Add(e.cfg.TurnDuration)
	room.TurnDeadline = &deadline

	if err := e.putRoom(ctx, room); err != nil {
		return err
	}

	payload := events.SelectionStartedPayload{
		CurrentTurn:  order[0],
		TurnDeadline: deadline,
	}
	for _, conn := range order {
		p := room.ParticipantByConnection(conn)
		payload.TurnOrder = append(payload.TurnOrder, events.TurnEntry{
			ConnectionID: conn,
			DisplayName:  p.DisplayName,
		})
	}
	e.broadcaster.BroadcastToRoom(room.Code,
		events.New(events.TypeSelectionStarted, room.Code, payload))
	e.timer.Arm(room.Code, order[0], e.cfg.TurnDuration)

	log.Info().
		Str("room_code", room.Code).
		Int("participants", len(order)).
		Msg("selection started")
	return nil
}

// SelectItem applies a manual pick by the current turn holder: the item moves
// from the pool to the holder's assignments, the armed timer is cancelled and
// the turn advances.
func (e *Engine) SelectItem(ctx context.Context, connectionID string, itemID int) error {
	binding, ok := e.sessions.Lookup(connectionID)
	if !ok {
		return ErrRoomNotFound
	}

	unlock := e.locks.Lock(binding.RoomCode)
	defer unlock()

	room, err := e.getRoom(ctx, binding.RoomCode)
	if err != nil {
		return err
	}
	if room.Phase != models.PhaseSelecting {
		return ErrNotStarted
	}
	if room.CurrentTurn() != connectionID {
		return ErrNotYourTurn
	}

	holder := room.ParticipantByConnection(connectionID)
	if holder == nil {
		return ErrNotYourTurn
	}
	if len(room.Assignments[holder.Identity]) >= e.cfg.ItemsPerParticipant {
		return ErrCapReached
	}

	idx := room.PoolIndex(itemID)
	if idx < 0 {
		return ErrItemUnavailable
	}

	item := room.Pool[idx]
	room.Pool = append(room.Pool[:idx], room.Pool[idx+1:]...)
	room.Assignments[holder.Identity] = append(room.Assignments[holder.Identity], item)

	e.timer.Cancel(room.Code)

	if err := e.putRoom(ctx, room); err != nil {
		return err
	}

	e.broadcaster.BroadcastToRoom(room.Code,
		events.New(events.TypeItemSelected, room.Code, selectedPayload(room, item, holder.Identity)))

	log.Info().
		Str("room_code", room.Code).
		Str("identity", holder.Identity).
		Int("item_id", item.ID).
		Msg("item selected")

	return e.advance(ctx, room)
}

// AutoPick is the timer expiry path. It re-validates that the armed
// connection still holds the turn; a firing superseded by a manual pick or a
// re-arm is dropped silently.
func (e *Engine) AutoPick(ctx context.Context, roomCode, connectionID string) {
	unlock := e.locks.Lock(roomCode)
	defer unlock()

	room, err := e.getRoom(ctx, roomCode)
	if err != nil {
		log.Debug().Err(err).Str("room_code", roomCode).Msg("auto-pick fired for missing room")
		return
	}
	if room.Phase != models.PhaseSelecting || room.CurrentTurn() != connectionID {
		log.Debug().
			Str("room_code", roomCode).
			Str("connection_id", connectionID).
			Msg("stale auto-pick dropped")
		return
	}

	holder := room.ParticipantByConnection(connectionID)
	if holder == nil {
		log.Debug().Str("room_code", roomCode).Msg("auto-pick holder no longer in room")
		return
	}

	// A holder already at cap (or an emptied pool) advances without consuming.
	if len(room.Assignments[holder.Identity]) >= e.cfg.ItemsPerParticipant || len(room.Pool) == 0 {
		if err := e.advance(ctx, room); err != nil {
			log.Error().Err(err).Str("room_code", roomCode).Msg("auto-pick advance failed")
		}
		return
	}

	idx := rand.Intn(len(room.Pool))
	item := room.Pool[idx]
	room.Pool = append(room.Pool[:idx], room.Pool[idx+1:]...)
	room.Assignments[holder.Identity] = append(room.Assignments[holder.Identity], item)

	if err := e.putRoom(ctx, room); err != nil {
		log.Error().Err(err).Str("room_code", roomCode).Msg("auto-pick persist failed")
		return
	}

	e.broadcaster.BroadcastToRoom(room.Code,
		events.New(events.TypeAutoSelected, room.Code, selectedPayload(room, item, holder.Identity)))

	log.Info().
		Str("room_code", room.Code).
		Str("identity", holder.Identity).
		Int("item_id", item.ID).
		Msg("item auto-selected on timeout")

	if err := e.advance(ctx, room); err != nil {
		log.Error().Err(err).Str("room_code", roomCode).Msg("auto-pick advance failed")
	}
}

// advance runs the shared turn-advancement step. Completion is evaluated
// over the identities holding a turn slot: a drafting participant who
// disconnected completes through its prior assignments, while one that
// disconnected before the start holds no slot and cannot gate completion.
// Caller holds the room lock.
func (e *Engine) advance(ctx context.Context, room *models.Room) error {
	done := true
	for _, conn := range room.TurnOrder {
		p := room.ParticipantByConnection(conn)
		if p == nil {
			continue
		}
		if len(room.Assignments[p.Identity]) < e.cfg.ItemsPerParticipant {
			done = false
			break
		}
	}

	if done {
		room.Phase = models.PhaseCompleted
		room.TurnDeadline = nil
		if err := e.putRoom(ctx, room); err != nil {
			return err
		}

		e.broadcaster.BroadcastToRoom(room.Code,
			events.New(events.TypeSelectionEnded, room.Code, events.SelectionEndedPayload{
				Assignments: room.Snapshot().Assignments,
			}))
		e.recordCompletion(room)

		log.Info().Str("room_code", room.Code).Msg("selection completed")
		return nil
	}

	room.TurnIndex = (room.TurnIndex + 1) % len(room.TurnOrder)
	deadline := time.Now().Add(e.cfg.TurnDuration)
	room.TurnDeadline = &deadline

	if err := e.putRoom(ctx, room); err != nil {
		return err
	}

	e.broadcaster.BroadcastToRoom(room.Code,
		events.New(events.TypeTurnChanged, room.Code, turnChangedPayload(room)))
	e.timer.Arm(room.Code, room.CurrentTurn(), e.cfg.TurnDuration)
	return nil
}

// recordCompletion hands the final assignments to the history sink,
// fire-and-forget; a sink failure never rolls back completion.
func (e *Engine) recordCompletion(room *models.Room) {
	rec := history.Completion{
		RoomCode:    room.Code,
		Assignments: room.Snapshot().Assignments,
		CompletedAt: time.Now(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), e.cfg.StoreTimeout)
		defer cancel()
		if err := e.sink.Record(ctx, rec); err != nil {
			log.Warn().Err(err).Str("room_code", rec.RoomCode).Msg("failed to record completion")
		}
	}()
}

// Disconnect handles a transport-level connection drop. The participant is
// only marked disconnected; identity and assignments survive for rejoin.
func (e *Engine) Disconnect(ctx context.Context, connectionID string) {
	e.leave(ctx, connectionID, events.TypeUserDisconnected)
}

// LeaveRoom handles an explicit leave. Same state transition as a disconnect;
// only the broadcast name differs.
func (e *Engine) LeaveRoom(ctx context.Context, connectionID string) {
	e.leave(ctx, connectionID, events.TypeUserLeft)
}

func (e *Engine) leave(ctx context.Context, connectionID string, evtType events.Type) {
	binding, ok := e.sessions.Lookup(connectionID)
	if !ok {
		return
	}
	e.sessions.Unbind(connectionID)

	unlock := e.locks.Lock(binding.RoomCode)
	defer unlock()

	room, err := e.getRoom(ctx, binding.RoomCode)
	if err != nil {
		// Room already cleaned up; nothing to surface to anyone.
		log.Debug().Err(err).Str("room_code", binding.RoomCode).Msg("leave for missing room")
		return
	}

	p := room.ParticipantByConnection(connectionID)
	if p == nil {
		// A rejoin already superseded this connection.
		return
	}
	p.Connected = false

	if room.Phase == models.PhaseSelecting && room.CurrentTurn() == connectionID {
		// Freeze: the room waits for the holder to rejoin rather than
		// forcing an immediate auto-pick.
		e.timer.Cancel(room.Code)
	}

	electHost(room)

	if err := e.putRoom(ctx, room); err != nil {
		log.Error().Err(err).Str("room_code", room.Code).Msg("failed to persist disconnect")
		return
	}

	e.broadcaster.BroadcastToRoom(room.Code, events.New(evtType, room.Code, rosterPayload(room)))

	if len(room.ConnectedParticipants()) == 0 {
		e.timer.ScheduleCleanup(room.Code, e.cfg.CleanupGrace)
	}

	log.Info().
		Str("room_code", room.Code).
		Str("identity", p.Identity).
		Str("event", string(evtType)).
		Msg("participant left")
}

// CleanupRoom deletes a room whose participants are all still disconnected
// when the grace window ends. A reconnect during the window aborts it.
func (e *Engine) CleanupRoom(ctx context.Context, roomCode string) {
	unlock := e.locks.Lock(roomCode)
	defer unlock()

	room, err := e.getRoom(ctx, roomCode)
	if err != nil {
		log.Debug().Err(err).Str("room_code", roomCode).Msg("cleanup for missing room")
		return
	}
	if len(room.ConnectedParticipants()) > 0 {
		log.Debug().Str("room_code", roomCode).Msg("cleanup aborted, participant reconnected")
		return
	}

	e.timer.Cancel(roomCode)

	storeCtx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()
	if err := e.store.Delete(storeCtx, roomCode); err != nil {
		log.Warn().Err(err).Str("room_code", roomCode).Msg("room cleanup failed")
		return
	}

	log.Info().Str("room_code", roomCode).Msg("cleaned up abandoned room")
}

// electHost keeps the host handle on a connected participant: the current
// host if still connected, else the first connected participant by join
// order, else nobody.
func electHost(room *models.Room) {
	if host := room.ParticipantByConnection(room.HostID); host != nil && host.Connected {
		return
	}
	room.HostID = ""
	for _, p := range room.Participants {
		if p.Connected {
			room.HostID = p.ConnectionID
			return
		}
	}
}

// getRoom reads the room under a bounded store timeout, mapping store
// failures onto the taxonomy.
func (e *Engine) getRoom(ctx context.Context, code string) (*models.Room, error) {
	storeCtx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	room, err := e.store.Get(storeCtx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return room, nil
}

// putRoom persists the room under a bounded store timeout. A failed persist
// means the in-memory mutation is not committed; callers surface the error
// without broadcasting.
func (e *Engine) putRoom(ctx context.Context, room *models.Room) error {
	storeCtx, cancel := context.WithTimeout(ctx, e.cfg.StoreTimeout)
	defer cancel()

	if err := e.store.Upsert(storeCtx, room); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func rosterPayload(room *models.Room) events.RosterPayload {
	return events.RosterPayload{
		Roster: room.Snapshot().Roster,
		HostID: room.HostID,
	}
}

func turnChangedPayload(room *models.Room) events.TurnChangedPayload {
	payload := events.TurnChangedPayload{CurrentTurn: room.CurrentTurn()}
	if room.TurnDeadline != nil {
		payload.TurnDeadline = *room.TurnDeadline
	}
	if p := room.ParticipantByConnection(room.CurrentTurn()); p != nil {
		payload.DisplayName = p.DisplayName
	}
	return payload
}

func selectedPayload(room *models.Room, item models.Item, identity string) events.ItemSelectedPayload {
	snap := room.Snapshot()
	return events.ItemSelectedPayload{
		Item:        item,
		SelectedBy:  identity,
		Pool:        snap.Pool,
		Assignments: snap.Assignments,
	}
}
