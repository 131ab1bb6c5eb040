package websocket

import (
	"encoding/json"

	"github.com/playrelay/tictactoe-relay/internal/entity"
	"github.com/playrelay/tictactoe-relay/internal/rules"
)

// Client to server actions.
const (
	ActionConnect    = "connect"
	ActionRoomCreate = "room:create"
	ActionRoomJoin   = "room:join"
	ActionRoomLeave  = "room:leave"
	ActionGameMove   = "game:move"
)

// Server to client actions.
const (
	ActionGameStart    = "game:start"
	ActionGameUpdate   = "game:update"
	ActionOpponentLeft = "room:opponent_left"
	ActionError        = "error"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Player  *entity.Player `json:"player,omitempty"`
	Room    *entity.Room   `json:"room,omitempty"`
	Move    *rules.Move    `json:"move,omitempty"`
	Token   string         `json:"token,omitempty"`
	Variant string         `json:"variant,omitempty"`
	Error   string         `json:"error,omitempty"`
}
