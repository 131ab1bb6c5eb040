package rules

import (
	"github.com/playrelay/tictactoe-relay/internal/apperror"
	"github.com/playrelay/tictactoe-relay/internal/entity"
)

// applyUltimate validates and commits a move on the nested board.
// Legality is checked in order: indexes in range, target sub-board
// still undecided, active-region constraint honored, cell empty.
func applyUltimate(room *entity.Room, mark string, move Move) error {
	ult := room.Ultimate

	if move.Board < 0 || move.Board >= len(ult.Boards) {
		return apperror.ErrInvalidBoard
	}

	if move.Cell < 0 || move.Cell >= len(ult.Boards[move.Board]) {
		return apperror.ErrInvalidCell
	}

	if ult.Outcomes[move.Board] != entity.EmptyCell {
		return apperror.ErrSubBoardNotEligible
	}

	if ult.Active != entity.AnyBoard && move.Board != ult.Active {
		return apperror.ErrWrongActiveBoard
	}

	if ult.Boards[move.Board][move.Cell] != entity.EmptyCell {
		return apperror.ErrCellOccupied
	}

	ult.Boards[move.Board][move.Cell] = mark

	// A sub-board outcome records the raw triple winner; misere
	// reorientation applies only at the meta level.
	switch {
	case RawWinner(ult.Boards[move.Board]) != entity.EmptyCell:
		ult.Outcomes[move.Board] = RawWinner(ult.Boards[move.Board])
	case IsFull(ult.Boards[move.Board]):
		ult.Outcomes[move.Board] = entity.PlayerTie
	}

	// The played cell index names the next sub-board; a decided target
	// collapses the constraint to any eligible board.
	if ult.Outcomes[move.Cell] == entity.EmptyCell {
		ult.Active = move.Cell
	} else {
		ult.Active = entity.AnyBoard
	}

	metaWinner := RawWinner(metaBoard(ult.Outcomes))
	switch {
	case metaWinner != entity.EmptyCell:
		finish(room, Orient(room.Variant, metaWinner))
	case allDecided(ult.Outcomes):
		finish(room, entity.PlayerTie)
	default:
		room.Turn = ToggleMark(mark)
	}

	return nil
}

// metaBoard projects sub-board outcomes onto a flat board for triple
// matching. Drawn sub-boards count as empty: they belong to neither
// mark.
func metaBoard(outcomes [9]string) [9]string {
	var board [9]string

	for i, outcome := range outcomes {
		if outcome == entity.PlayerX || outcome == entity.PlayerO {
			board[i] = outcome
		}
	}

	return board
}

func allDecided(outcomes [9]string) bool {
	for _, outcome := range outcomes {
		if outcome == entity.EmptyCell {
			return false
		}
	}

	return true
}
