// Package projector mirrors authoritative room state on the client
// side for rendering. The local player's own moves are applied
// optimistically through an explicit pending state that is either
// committed by the server's acknowledgment or rolled back on
// rejection. The projector's copy is never authoritative.
package projector

import (
	"errors"

	"github.com/playrelay/tictactoe-relay/internal/entity"
	"github.com/playrelay/tictactoe-relay/internal/rules"
)

var (
	ErrNotInGame     = errors.New("no game in progress")
	ErrNotYourTurn   = errors.New("it's not your turn")
	ErrMovePending   = errors.New("a move is already awaiting acknowledgment")
	ErrNoPendingMove = errors.New("no move awaiting acknowledgment")
)

// Projector holds one participant's view of a room.
type Projector struct {
	PlayerID  string
	Mark      string
	Connected bool
	MyTurn    bool

	Variant  string
	Status   string
	Winner   string
	Board    [9]string
	Ultimate *entity.UltimateBoard

	pending *snapshot
}

// snapshot captures everything a rolled-back move must restore.
type snapshot struct {
	board    [9]string
	ultimate *entity.UltimateBoard
	turn     bool
	status   string
	winner   string
}

func New(playerID string) *Projector {
	return &Projector{PlayerID: playerID}
}

// ApplyStartOfGame seeds local state from the start-of-game broadcast.
// The own mark comes from the participant record matching our player
// id; the first participant moves first.
func (that *Projector) ApplyStartOfGame(room *entity.Room) error {
	player := room.PlayerByID(that.PlayerID)
	if player == nil {
		return ErrNotInGame
	}

	that.Mark = player.Mark
	that.Variant = room.Variant
	that.replaceState(room)
	that.pending = nil

	return nil
}

// ApplyLocalMove optimistically applies the player's own move before
// the server acknowledges it. The previous state is kept so the move
// can be rolled back if the acknowledgment reports an error.
func (that *Projector) ApplyLocalMove(move rules.Move) error {
	if that.Status != entity.StatusOngoing {
		return ErrNotInGame
	}

	if !that.MyTurn {
		return ErrNotYourTurn
	}

	if that.pending != nil {
		return ErrMovePending
	}

	saved := that.capture()

	room := that.asRoom()
	if err := rules.Apply(room, that.Mark, move); err != nil {
		return err
	}

	that.replaceState(room)
	that.MyTurn = false
	that.pending = saved

	return nil
}

// ConfirmMove commits the pending optimistic move after a successful
// acknowledgment.
func (that *Projector) ConfirmMove() error {
	if that.pending == nil {
		return ErrNoPendingMove
	}

	that.pending = nil

	return nil
}

// RollbackMove restores the state captured before the optimistic move,
// including the turn flag, after the server rejected it.
func (that *Projector) RollbackMove() error {
	if that.pending == nil {
		return ErrNoPendingMove
	}

	that.Board = that.pending.board
	that.Ultimate = that.pending.ultimate
	that.MyTurn = that.pending.turn
	that.Status = that.pending.status
	that.Winner = that.pending.winner
	that.pending = nil

	return nil
}

// ApplyRemoteUpdate replaces local state wholesale with a broadcast
// from the authority. The authority always carries explicit terminal
// state, so it is taken as-is rather than recomputed.
func (that *Projector) ApplyRemoteUpdate(room *entity.Room) {
	that.replaceState(room)
	that.pending = nil
}

// ApplyOpponentLeft ends the game locally after the opponent departed.
func (that *Projector) ApplyOpponentLeft() {
	that.Status = entity.StatusFinished
	that.MyTurn = false
	that.pending = nil
}

// TerminalCheck re-derives the terminal result from the visible board
// with the shared rule engine. Rendering code may use it to
// cross-check the authority's explicit result.
func (that *Projector) TerminalCheck() (winner string, finished bool) {
	if that.Variant == entity.VariantUltimate {
		return that.ultimateTerminalCheck()
	}

	if raw := rules.RawWinner(that.Board); raw != entity.EmptyCell {
		return rules.Orient(that.Variant, raw), true
	}

	if rules.IsFull(that.Board) {
		return entity.PlayerTie, true
	}

	return entity.EmptyCell, false
}

func (that *Projector) ultimateTerminalCheck() (string, bool) {
	var meta [9]string

	for i, outcome := range that.Ultimate.Outcomes {
		if outcome == entity.PlayerX || outcome == entity.PlayerO {
			meta[i] = outcome
		}
	}

	if raw := rules.RawWinner(meta); raw != entity.EmptyCell {
		return rules.Orient(that.Variant, raw), true
	}

	for _, outcome := range that.Ultimate.Outcomes {
		if outcome == entity.EmptyCell {
			return entity.EmptyCell, false
		}
	}

	return entity.PlayerTie, true
}

func (that *Projector) replaceState(room *entity.Room) {
	that.Status = room.Status
	that.Winner = room.Winner
	that.Board = room.Board
	that.Ultimate = cloneUltimate(room.Ultimate)
	that.MyTurn = room.IsOngoing() && room.Turn == that.Mark
}

func (that *Projector) capture() *snapshot {
	return &snapshot{
		board:    that.Board,
		ultimate: cloneUltimate(that.Ultimate),
		turn:     that.MyTurn,
		status:   that.Status,
		winner:   that.Winner,
	}
}

// asRoom builds a throwaway room the rule engine can mutate.
func (that *Projector) asRoom() *entity.Room {
	return &entity.Room{
		Variant:  that.Variant,
		Status:   that.Status,
		Turn:     that.Mark,
		Winner:   that.Winner,
		Board:    that.Board,
		Ultimate: cloneUltimate(that.Ultimate),
	}
}

func cloneUltimate(ult *entity.UltimateBoard) *entity.UltimateBoard {
	if ult == nil {
		return nil
	}

	clone := *ult

	return &clone
}
