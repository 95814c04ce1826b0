package gateway

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/draftday/draftroom/internal/events"
	"github.com/draftday/draftroom/internal/models"
	"github.com/draftday/draftroom/internal/room"
)

// Engine is what the gateway needs from the room session engine.
type Engine interface {
	CreateRoom(ctx context.Context) (*models.Room, error)
	Join(ctx context.Context, req room.JoinRequest) error
	IsMember(ctx context.Context, roomCode, identity string) (bool, error)
	Snapshot(ctx context.Context, roomCode string) (models.Snapshot, error)
	StartSelection(ctx context.Context, connectionID string) error
	SelectItem(ctx context.Context, connectionID string, itemID int) error
	LeaveRoom(ctx context.Context, connectionID string)
	Disconnect(ctx context.Context, connectionID string)
}

// Inbound client command names.
const (
	cmdJoinRoom       = "join-room"
	cmdRejoinRoom     = "rejoin-room"
	cmdStartSelection = "start-selection"
	cmdSelectItem     = "select-item"
	cmdLeaveRoom      = "leave-room"
)

// clientCommand is the inbound message envelope.
type clientCommand struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type joinRoomData struct {
	RoomCode    string `json:"room_code"`
	DisplayName string `json:"display_name"`
}

type selectItemData struct {
	ItemID int `json:"item_id"`
}

// dispatch routes one inbound client message to the engine, turning taxonomy
// errors into an error event back to the originating connection.
func (cm *ConnectionManager) dispatch(conn *Connection, message []byte) {
	var cmd clientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		log.Debug().Err(err).Str("connection_id", conn.ID).Msg("unparseable client message")
		return
	}

	ctx := context.Background()

	switch cmd.Type {
	case cmdJoinRoom:
		var data joinRoomData
		if err := json.Unmarshal(cmd.Data, &data); err != nil {
			cm.sendError(conn, errors.New("malformed join-room payload"))
			return
		}
		cm.joinRoom(ctx, conn, data.RoomCode, data.DisplayName)

	case cmdRejoinRoom:
		var data joinRoomData
		if err := json.Unmarshal(cmd.Data, &data); err != nil {
			cm.sendError(conn, errors.New("malformed rejoin-room payload"))
			return
		}
		member, err := withRetry(func() (bool, error) {
			return cm.engine.IsMember(ctx, data.RoomCode, conn.Identity)
		})
		if err != nil {
			cm.sendError(conn, err)
			return
		}
		if !member {
			cm.sendError(conn, room.ErrRoomNotFound)
			return
		}
		cm.joinRoom(ctx, conn, data.RoomCode, conn.DisplayName)

	case cmdStartSelection:
		_, err := withRetry(func() (struct{}, error) {
			return struct{}{}, cm.engine.StartSelection(ctx, conn.ID)
		})
		if err != nil {
			cm.sendError(conn, err)
		}

	case cmdSelectItem:
		var data selectItemData
		if err := json.Unmarshal(cmd.Data, &data); err != nil {
			cm.sendError(conn, errors.New("malformed select-item payload"))
			return
		}
		_, err := withRetry(func() (struct{}, error) {
			return struct{}{}, cm.engine.SelectItem(ctx, conn.ID, data.ItemID)
		})
		if err != nil {
			cm.sendError(conn, err)
		}

	case cmdLeaveRoom:
		cm.engine.LeaveRoom(ctx, conn.ID)
		cm.removeFromRoom(conn)

	default:
		log.Debug().Str("type", cmd.Type).Str("connection_id", conn.ID).Msg("unknown client command")
	}
}

// joinRoom registers the connection in the room pool before the engine join
// so join-time broadcasts reach the joiner, and rolls the registration back
// when the join is rejected.
func (cm *ConnectionManager) joinRoom(ctx context.Context, conn *Connection, roomCode, displayName string) {
	if displayName == "" {
		displayName = conn.DisplayName
	}

	cm.addToRoom(conn, roomCode)
	_, err := withRetry(func() (struct{}, error) {
		return struct{}{}, cm.engine.Join(ctx, room.JoinRequest{
			RoomCode:     roomCode,
			Identity:     conn.Identity,
			DisplayName:  displayName,
			ConnectionID: conn.ID,
		})
	})
	if err != nil {
		cm.removeFromRoom(conn)
		cm.sendError(conn, err)
	}
}

// sendError delivers a typed error event to the originating connection.
func (cm *ConnectionManager) sendError(conn *Connection, err error) {
	cm.SendToConnection(conn.ID, events.New(events.TypeError, conn.Room(), events.ErrorPayload{
		Message: err.Error(),
		Kind:    room.Kind(err),
	}))
}

// withRetry retries an engine call once on a store failure; a second failure
// is surfaced and the operation is considered uncommitted.
func withRetry[T any](op func() (T, error)) (T, error) {
	out, err := op()
	if errors.Is(err, room.ErrStoreUnavailable) {
		log.Warn().Err(err).Msg("store unavailable, retrying once")
		return op()
	}
	return out, err
}
