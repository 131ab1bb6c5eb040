package apperror

import "errors"

// Admission errors.
var (
	ErrInvalidVariant = errors.New("unknown game variant")
	ErrRoomNotFound   = errors.New("room not found")
	ErrRoomFull       = errors.New("room is full")
	ErrRoomNotStarted = errors.New("room is not started")
)

// Turn and identity errors. Surfaced only to the offending requester.
var (
	ErrNotAParticipant = errors.New("player is not in this room")
	ErrNotYourTurn     = errors.New("it's not your turn")
	ErrPlayerNotFound  = errors.New("player not found")
)

// Move legality errors, returned through the move acknowledgment.
var (
	ErrGameAlreadyOver     = errors.New("game is already over")
	ErrCellOccupied        = errors.New("cell is already occupied")
	ErrInvalidCell         = errors.New("invalid cell index")
	ErrInvalidBoard        = errors.New("invalid board index")
	ErrSubBoardNotEligible = errors.New("board is already decided")
	ErrWrongActiveBoard    = errors.New("move must target the active board")
)
