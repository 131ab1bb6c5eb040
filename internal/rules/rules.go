// Package rules validates proposed moves against authoritative room
// state and computes terminal results for all three game variants. It
// has no side effects beyond the room it is handed: callers pass a
// private copy and decide whether to commit it.
package rules

import (
	"github.com/playrelay/tictactoe-relay/internal/apperror"
	"github.com/playrelay/tictactoe-relay/internal/entity"
)

// Move is a proposed placement. Board is only meaningful for the
// ultimate variant and ignored otherwise.
type Move struct {
	Board int `json:"board,omitempty"`
	Cell  int `json:"cell"`
}

var WinCombos = [][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Apply validates the move for the room's variant and, when legal,
// writes the new board state, turn, and terminal result into the room.
// The room is left untouched when an error is returned.
func Apply(room *entity.Room, mark string, move Move) error {
	if room.IsFinished() {
		return apperror.ErrGameAlreadyOver
	}

	if room.Variant == entity.VariantUltimate {
		return applyUltimate(room, mark, move)
	}

	return applyFlat(room, mark, move)
}

func applyFlat(room *entity.Room, mark string, move Move) error {
	if move.Cell < 0 || move.Cell >= len(room.Board) {
		return apperror.ErrInvalidCell
	}

	if room.Board[move.Cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	room.Board[move.Cell] = mark

	winner := RawWinner(room.Board)
	switch {
	case winner != entity.EmptyCell:
		finish(room, Orient(room.Variant, winner))
	case IsFull(room.Board):
		finish(room, entity.PlayerTie)
	default:
		room.Turn = ToggleMark(mark)
	}

	return nil
}

func finish(room *entity.Room, winner string) {
	room.Winner = winner
	room.Status = entity.StatusFinished
	room.Turn = entity.EmptyCell
}

// RawWinner returns the mark holding a completed triple, or empty when
// no triple is complete.
func RawWinner(board [9]string) string {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != entity.EmptyCell && a == b && b == c {
			return a
		}
	}

	return entity.EmptyCell
}

func IsFull(board [9]string) bool {
	for _, cell := range board {
		if cell == entity.EmptyCell {
			return false
		}
	}

	return true
}

// Orient maps a raw triple winner to the declared game winner. Under
// misere rules completing a triple loses, so the other mark wins.
func Orient(variant, rawWinner string) string {
	if variant == entity.VariantMisere {
		return ToggleMark(rawWinner)
	}

	return rawWinner
}

func ToggleMark(mark string) string {
	if mark == entity.PlayerX {
		return entity.PlayerO
	}

	return entity.PlayerX
}
