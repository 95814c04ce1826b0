package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/draftday/draftroom/internal/models"
	"github.com/draftday/draftroom/internal/room"
	"github.com/draftday/draftroom/internal/sessions"
)

// Handler serves the WebSocket upgrade endpoint and the small HTTP surface
// around it (room creation, active-room lookup, health, stats).
type Handler struct {
	manager  *ConnectionManager
	engine   Engine
	sessions *sessions.Map
}

// NewHandler creates the HTTP handler set.
func NewHandler(manager *ConnectionManager, engine Engine, sess *sessions.Map) *Handler {
	return &Handler{
		manager:  manager,
		engine:   engine,
		sessions: sess,
	}
}

// RegisterRoutes registers all routes on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.handleWebSocket)
	mux.HandleFunc("/ws/stats", h.handleStats)
	mux.HandleFunc("/api/rooms", h.handleCreateRoom)
	mux.HandleFunc("/api/rooms/state", h.handleRoomState)
	mux.HandleFunc("/api/rooms/active", h.handleActiveRoom)
	mux.HandleFunc("/healthz", h.handleHealth)
}

// handleWebSocket upgrades the connection. The identity and display name come
// from query parameters; in production these are resolved from the auth
// token by the fronting auth service.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity := r.URL.Query().Get("identity")
	if identity == "" {
		http.Error(w, "identity is required", http.StatusBadRequest)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	if err := h.manager.UpgradeConnection(w, r, identity, name); err != nil {
		log.Error().Err(err).Str("identity", identity).Msg("failed to upgrade WebSocket connection")
	}
}

// handleCreateRoom creates a fresh room and returns its code. The creator
// then joins over the WebSocket like everyone else.
func (h *Handler) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	created, err := withRetry(func() (*models.Room, error) {
		return h.engine.CreateRoom(r.Context())
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"code": created.Code})
}

// handleRoomState returns the snapshot for ?code=.
func (h *Handler) handleRoomState(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}

	snap, err := h.engine.Snapshot(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleActiveRoom returns the room an identity is currently bound to, so a
// reconnecting client can offer to rejoin.
func (h *Handler) handleActiveRoom(w http.ResponseWriter, r *http.Request) {
	identity := r.URL.Query().Get("identity")
	if identity == "" {
		http.Error(w, "identity is required", http.StatusBadRequest)
		return
	}

	binding, ok := h.sessions.LookupByIdentity(identity)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}

	snap, err := h.engine.Snapshot(r.Context(), binding.RoomCode)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"active": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"active": true, "room": snap})
}

// handleStats reports active connection counts.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	total, rooms := h.manager.Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"total_connections": total,
		"active_rooms":      len(rooms),
		"room_connections":  rooms,
	})
}

// handleHealth is the liveness probe.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		status = http.StatusNotFound
	case errors.Is(err, room.ErrCodeExhausted), errors.Is(err, room.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  room.Kind(err),
	})
}
