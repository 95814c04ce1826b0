package room

import "errors"

// Engine operation errors. Each maps to a kind surfaced to the originating
// connection as an error event; none of them terminate the room.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrNameTaken        = errors.New("display name already taken")
	ErrNotHost          = errors.New("only the host can start selection")
	ErrAlreadyStarted   = errors.New("selection already started")
	ErrNotEnoughPlayers = errors.New("not enough connected participants")
	ErrNotStarted       = errors.New("selection has not started")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrCapReached       = errors.New("selection cap reached")
	ErrItemUnavailable  = errors.New("item not available")
	ErrCodeExhausted    = errors.New("no free room code available")
	ErrStoreUnavailable = errors.New("room store unavailable")
)

// Kind maps an engine error to the stable identifier clients switch on.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrRoomNotFound):
		return "ROOM_NOT_FOUND"
	case errors.Is(err, ErrNameTaken):
		return "NAME_TAKEN"
	case errors.Is(err, ErrNotHost):
		return "NOT_HOST"
	case errors.Is(err, ErrAlreadyStarted):
		return "ALREADY_STARTED"
	case errors.Is(err, ErrNotEnoughPlayers):
		return "NOT_ENOUGH_PLAYERS"
	case errors.Is(err, ErrNotStarted):
		return "NOT_STARTED"
	case errors.Is(err, ErrNotYourTurn):
		return "NOT_YOUR_TURN"
	case errors.Is(err, ErrCapReached):
		return "CAP_REACHED"
	case errors.Is(err, ErrItemUnavailable):
		return "ITEM_UNAVAILABLE"
	case errors.Is(err, ErrCodeExhausted):
		return "CODE_EXHAUSTED"
	case errors.Is(err, ErrStoreUnavailable):
		return "STORE_UNAVAILABLE"
	default:
		return "INTERNAL"
	}
}
