package websocket

import (
	"context"
	"fmt"
)

func (that *Server) handleCreateRoom(ctx context.Context, playerID string, payload *Payload) error {
	log := that.logger.With("method", "handleCreateRoom", "playerID", playerID)

	room, err := that.manager.CreateRoom(ctx, playerID, payload.Variant)
	if err != nil {
		log.Error("failed to create room", "variant", payload.Variant, "error", err)
		that.sendError(playerID, err.Error())
		return nil
	}

	that.sendTo(playerID, Message{
		Action:  ActionRoomCreate,
		Payload: mustMarshal(Payload{Player: room.PlayerByID(playerID), Room: room}),
	})

	log.Info("room created", "token", room.Token)

	return nil
}

// handleJoinRoom admits the second participant and broadcasts the
// start-of-game state to both players. The room payload carries the
// participant order, so each client derives its own mark from it.
func (that *Server) handleJoinRoom(ctx context.Context, playerID string, payload *Payload) error {
	log := that.logger.With("method", "handleJoinRoom", "playerID", playerID)

	room, err := that.manager.JoinRoom(ctx, payload.Token, playerID)
	if err != nil {
		log.Error("failed to join room", "token", payload.Token, "error", err)
		that.sendError(playerID, err.Error())
		return nil
	}

	for _, player := range room.Players {
		that.sendTo(player.ID, Message{
			Action:  ActionGameStart,
			Payload: mustMarshal(Payload{Player: player, Room: room}),
		})
	}

	log.Info("player joined room", "token", room.Token)

	return nil
}

// handleGameMove acknowledges the mover and fans the committed state
// out to the other participant. A rejected move is reported to the
// mover only; the room is untouched.
func (that *Server) handleGameMove(ctx context.Context, playerID string, payload *Payload) error {
	log := that.logger.With("method", "handleGameMove", "playerID", playerID)

	if payload.Move == nil {
		that.sendTo(playerID, Message{Action: ActionGameMove, Payload: mustMarshal(Payload{Error: "move is required"})})
		return nil
	}

	room, err := that.manager.MakeMove(ctx, payload.Token, playerID, *payload.Move)
	if err != nil {
		log.Info("move rejected", "token", payload.Token, "error", err)
		that.sendTo(playerID, Message{Action: ActionGameMove, Payload: mustMarshal(Payload{Error: err.Error()})})
		return nil
	}

	that.sendTo(playerID, Message{Action: ActionGameMove, Payload: mustMarshal(Payload{Room: room})})

	if opponent := room.Opponent(playerID); opponent != nil {
		that.sendTo(opponent.ID, Message{Action: ActionGameUpdate, Payload: mustMarshal(Payload{Room: room})})
	}

	log.Info("move committed", "token", room.Token, "status", room.Status)

	return nil
}

func (that *Server) handleLeaveRoom(ctx context.Context, playerID string, payload *Payload) error {
	log := that.logger.With("method", "handleLeaveRoom", "playerID", playerID)

	room, err := that.manager.LeaveRoom(ctx, payload.Token, playerID)
	if err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}

	if room == nil {
		return nil
	}

	that.notifyOpponentLeft(room, playerID)

	log.Info("player left room", "token", room.Token)

	return nil
}
