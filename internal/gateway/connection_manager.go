package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/draftday/draftroom/internal/events"
)

// ConnectionManager owns the WebSocket connections: a global index by
// connection id plus per-room pools for broadcasting. It implements the
// engine's Broadcaster.
type ConnectionManager struct {
	mu        sync.RWMutex
	byID      map[string]*Connection
	roomConns map[string]map[*Connection]bool

	upgrader websocket.Upgrader
	config   ConnectionConfig
	engine   Engine

	broadcastCh chan broadcastMessage
}

// Connection represents one WebSocket client.
type Connection struct {
	ID          string
	Identity    string
	DisplayName string

	conn    *websocket.Conn
	send    chan []byte
	manager *ConnectionManager

	mu       sync.Mutex
	roomCode string
	closed   bool

	ConnectedAt time.Time
}

// ConnectionConfig holds the WebSocket tuning knobs.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns the default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

type broadcastMessage struct {
	roomCode     string
	connectionID string // if set, only this connection
	event        *events.Event
}

// NewConnectionManager creates a connection manager. Bind must be called
// before any connection is upgraded.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		byID:      make(map[string]*Connection),
		roomConns: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan broadcastMessage, 1000),
	}
}

// Bind wires the engine in after construction; the manager is the engine's
// broadcaster, so one side has to come second.
func (cm *ConnectionManager) Bind(e Engine) {
	cm.engine = e
}

// Start processes broadcast messages until the context ends.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.deliver(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection and
// starts its pumps. The identity comes from the auth layer in the handler.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, identity, displayName string) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Identity:    identity,
		DisplayName: displayName,
		conn:        conn,
		send:        make(chan []byte, 256),
		manager:     cm,
		ConnectedAt: time.Now(),
	}

	cm.mu.Lock()
	cm.byID[connection.ID] = connection
	cm.mu.Unlock()

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("identity", identity).
		Msg("WebSocket connection established")
	return nil
}

// addToRoom registers the connection in a room's broadcast pool. The dispatch
// layer adds before calling the engine's join so the joiner receives the
// join-time broadcasts, and removes again if the join is rejected.
func (cm *ConnectionManager) addToRoom(conn *Connection, roomCode string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	// A connection belongs to at most one pool; joining a new room drops it
	// from the old one first.
	cm.removeFromRoomLocked(conn)

	conn.setRoom(roomCode)
	if cm.roomConns[roomCode] == nil {
		cm.roomConns[roomCode] = make(map[*Connection]bool)
	}
	cm.roomConns[roomCode][conn] = true
}

// removeFromRoom drops the connection from its room pool.
func (cm *ConnectionManager) removeFromRoom(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.removeFromRoomLocked(conn)
}

func (cm *ConnectionManager) removeFromRoomLocked(conn *Connection) {
	roomCode := conn.Room()
	if roomCode == "" {
		return
	}
	conn.setRoom("")
	if pool, ok := cm.roomConns[roomCode]; ok {
		delete(pool, conn)
		if len(pool) == 0 {
			delete(cm.roomConns, roomCode)
		}
	}
}

// unregister removes a connection entirely; called when a pump exits.
func (cm *ConnectionManager) unregister(conn *Connection) {
	cm.mu.Lock()
	if _, ok := cm.byID[conn.ID]; !ok {
		cm.mu.Unlock()
		return
	}
	delete(cm.byID, conn.ID)
	cm.removeFromRoomLocked(conn)
	conn.close()
	cm.mu.Unlock()

	log.Info().
		Str("connection_id", conn.ID).
		Str("identity", conn.Identity).
		Msg("connection unregistered")
}

// BroadcastToRoom queues an event for every connection in a room.
func (cm *ConnectionManager) BroadcastToRoom(roomCode string, event *events.Event) {
	select {
	case cm.broadcastCh <- broadcastMessage{roomCode: roomCode, event: event}:
	default:
		log.Warn().Str("room_code", roomCode).Msg("broadcast channel full, dropping message")
	}
}

// SendToConnection queues an event for a single connection.
func (cm *ConnectionManager) SendToConnection(connectionID string, event *events.Event) {
	select {
	case cm.broadcastCh <- broadcastMessage{connectionID: connectionID, event: event}:
	default:
		log.Warn().Str("connection_id", connectionID).Msg("broadcast channel full, dropping message")
	}
}

// deliver fans a queued message out to its targets.
func (cm *ConnectionManager) deliver(message broadcastMessage) {
	cm.mu.RLock()
	var targets []*Connection
	if message.connectionID != "" {
		if conn, ok := cm.byID[message.connectionID]; ok {
			targets = append(targets, conn)
		}
	} else {
		for conn := range cm.roomConns[message.roomCode] {
			targets = append(targets, conn)
		}
	}
	cm.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(message.event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for delivery")
		return
	}

	for _, conn := range targets {
		if !conn.enqueue(data) {
			// Slow or dead client; drop it rather than stall the room.
			log.Warn().
				Str("connection_id", conn.ID).
				Msg("connection closed or send buffer full, dropping connection")
			cm.unregister(conn)
			conn.conn.Close()
		}
	}
}

// Stats reports active connection counts per room.
func (cm *ConnectionManager) Stats() (total int, rooms map[string]int) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	rooms = make(map[string]int, len(cm.roomConns))
	for code, pool := range cm.roomConns {
		rooms[code] = len(pool)
	}
	return len(cm.byID), rooms
}

// Room returns the room pool this connection currently belongs to.
func (c *Connection) Room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomCode
}

func (c *Connection) setRoom(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = code
}

// enqueue queues data for the write pump without blocking. It reports false
// when the connection is closed or its buffer is full. The closed check and
// the send share the connection mutex with close, so a delivery racing an
// unregister can never reach the closed channel.
func (c *Connection) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// close marks the connection closed and closes its send channel exactly once.
func (c *Connection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// writePump sends queued messages and pings on the connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to write message")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads inbound messages and dispatches them; when it exits the
// engine's disconnect path runs.
func (c *Connection) readPump() {
	defer func() {
		c.manager.engine.Disconnect(context.Background(), c.ID)
		c.manager.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.manager.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected WebSocket close")
			}
			break
		}
		c.manager.dispatch(c, message)
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	}
}
