package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playrelay/tictactoe-relay/internal/apperror"
	"github.com/playrelay/tictactoe-relay/internal/entity"
)

func TestApplyUltimate_ActiveRegion(t *testing.T) {
	t.Run("First move constrains the opponent to the played cell index", func(t *testing.T) {
		// Given: a fresh ultimate room with no constraint
		room := ongoingRoom(entity.VariantUltimate)

		// When: X plays sub-board 0, cell 4
		err := Apply(room, entity.PlayerX, Move{Board: 0, Cell: 4})

		// Then: the next mover must play in sub-board 4
		require.NoError(t, err)
		assert.Equal(t, 4, room.Ultimate.Active)
		assert.Equal(t, entity.PlayerO, room.Turn)
	})

	t.Run("Move outside the active board is rejected", func(t *testing.T) {
		// Given: the active region is sub-board 4
		room := ongoingRoom(entity.VariantUltimate)
		require.NoError(t, Apply(room, entity.PlayerX, Move{Board: 0, Cell: 4}))

		// When: O plays sub-board 5 instead
		err := Apply(room, entity.PlayerO, Move{Board: 5, Cell: 0})

		// Then: the move is rejected with ErrWrongActiveBoard
		require.ErrorIs(t, err, apperror.ErrWrongActiveBoard)
		assert.Equal(t, entity.EmptyCell, room.Ultimate.Boards[5][0])
	})

	t.Run("Cell pointing at a decided board collapses the constraint", func(t *testing.T) {
		// Given: sub-board 3 is already won by X
		room := ongoingRoom(entity.VariantUltimate)
		room.Ultimate.Outcomes[3] = entity.PlayerX

		// When: X plays local cell 3 of sub-board 6
		err := Apply(room, entity.PlayerX, Move{Board: 6, Cell: 3})

		// Then: the active region is unconstrained
		require.NoError(t, err)
		assert.Equal(t, entity.AnyBoard, room.Ultimate.Active)
	})

	t.Run("Cell pointing at an undecided board constrains to it", func(t *testing.T) {
		room := ongoingRoom(entity.VariantUltimate)

		err := Apply(room, entity.PlayerX, Move{Board: 6, Cell: 3})

		require.NoError(t, err)
		assert.Equal(t, 3, room.Ultimate.Active)
	})
}

func TestApplyUltimate_SubBoardOutcome(t *testing.T) {
	t.Run("Completing a triple decides the sub-board and closes it", func(t *testing.T) {
		// Given: X holds cells 0 and 1 of sub-board 4 and must play there
		room := ongoingRoom(entity.VariantUltimate)
		room.Ultimate.Boards[4][0] = entity.PlayerX
		room.Ultimate.Boards[4][1] = entity.PlayerX
		room.Ultimate.Active = 4

		// When: X completes the top row of sub-board 4
		err := Apply(room, entity.PlayerX, Move{Board: 4, Cell: 2})
		require.NoError(t, err)

		// Then: the outcome is recorded for X
		assert.Equal(t, entity.PlayerX, room.Ultimate.Outcomes[4])

		// Then: any further move into sub-board 4 is rejected, even on an empty cell
		room.Ultimate.Active = entity.AnyBoard
		err = Apply(room, entity.PlayerO, Move{Board: 4, Cell: 8})
		require.ErrorIs(t, err, apperror.ErrSubBoardNotEligible)
	})

	t.Run("Full sub-board with no triple is recorded drawn", func(t *testing.T) {
		// Given: sub-board 2 with one empty cell and no line possible
		room := ongoingRoom(entity.VariantUltimate)
		room.Ultimate.Boards[2] = [9]string{"X", "O", "X", "X", "O", "O", "O", "X", ""}

		// When: X fills the last cell
		err := Apply(room, entity.PlayerX, Move{Board: 2, Cell: 8})

		// Then: the sub-board is drawn and the meta game continues
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerTie, room.Ultimate.Outcomes[2])
		assert.Equal(t, entity.StatusOngoing, room.Status)
	})

	t.Run("Misere orientation does not flip the sub-board outcome", func(t *testing.T) {
		// Given: a misere-oriented nested room where X completes a
		// triple inside sub-board 0
		room := ongoingRoom(entity.VariantUltimate)
		room.Variant = entity.VariantMisere
		room.Ultimate.Boards[0][0] = entity.PlayerX
		room.Ultimate.Boards[0][1] = entity.PlayerX

		// When: X completes the triple
		err := applyUltimate(room, entity.PlayerX, Move{Board: 0, Cell: 2})

		// Then: the acting mark still owns the sub-board
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, room.Ultimate.Outcomes[0])
	})
}

func TestApplyUltimate_MetaBoard(t *testing.T) {
	t.Run("Three sub-board wins in a line end the game", func(t *testing.T) {
		// Given: X owns sub-boards 0 and 1 and is about to win sub-board 2
		room := ongoingRoom(entity.VariantUltimate)
		room.Ultimate.Outcomes[0] = entity.PlayerX
		room.Ultimate.Outcomes[1] = entity.PlayerX
		room.Ultimate.Boards[2][0] = entity.PlayerX
		room.Ultimate.Boards[2][1] = entity.PlayerX

		// When: X completes sub-board 2
		err := Apply(room, entity.PlayerX, Move{Board: 2, Cell: 2})

		// Then: X wins the game
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerX, room.Winner)
		assert.Equal(t, entity.StatusFinished, room.Status)
	})

	t.Run("Misere flips the meta winner", func(t *testing.T) {
		// Given: the same position in a misere-oriented room
		room := ongoingRoom(entity.VariantUltimate)
		room.Variant = entity.VariantMisere
		room.Ultimate.Outcomes[0] = entity.PlayerX
		room.Ultimate.Outcomes[1] = entity.PlayerX
		room.Ultimate.Boards[2][0] = entity.PlayerX
		room.Ultimate.Boards[2][1] = entity.PlayerX

		// When: X completes the meta line
		err := applyUltimate(room, entity.PlayerX, Move{Board: 2, Cell: 2})

		// Then: O is the declared winner
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerO, room.Winner)
	})

	t.Run("Drawn sub-boards do not count toward a meta line", func(t *testing.T) {
		// Given: X owns 0 and 1, sub-board 2 ends drawn
		room := ongoingRoom(entity.VariantUltimate)
		room.Ultimate.Outcomes[0] = entity.PlayerX
		room.Ultimate.Outcomes[1] = entity.PlayerX
		room.Ultimate.Boards[2] = [9]string{"X", "O", "X", "X", "O", "O", "O", "X", ""}

		// When: X fills the last cell of sub-board 2
		err := Apply(room, entity.PlayerX, Move{Board: 2, Cell: 8})

		// Then: no meta winner, the game continues
		require.NoError(t, err)
		assert.Equal(t, entity.StatusOngoing, room.Status)
		assert.Empty(t, room.Winner)
	})

	t.Run("All sub-boards decided with no meta line is a draw", func(t *testing.T) {
		// Given: eight decided sub-boards in a pattern with no meta triple
		room := ongoingRoom(entity.VariantUltimate)
		room.Ultimate.Outcomes = [9]string{"X", "O", "X", "O", "-", "X", "O", "X", ""}
		room.Ultimate.Boards[8] = [9]string{"X", "O", "X", "X", "O", "O", "O", "X", ""}

		// When: the last sub-board ends drawn
		err := Apply(room, entity.PlayerX, Move{Board: 8, Cell: 8})

		// Then: the game is a tie
		require.NoError(t, err)
		assert.Equal(t, entity.PlayerTie, room.Winner)
		assert.Equal(t, entity.StatusFinished, room.Status)
	})
}

func TestApplyUltimate_Validation(t *testing.T) {
	t.Run("Board index out of range", func(t *testing.T) {
		room := ongoingRoom(entity.VariantUltimate)

		require.ErrorIs(t, Apply(room, entity.PlayerX, Move{Board: 9, Cell: 0}), apperror.ErrInvalidBoard)
		require.ErrorIs(t, Apply(room, entity.PlayerX, Move{Board: -1, Cell: 0}), apperror.ErrInvalidBoard)
	})

	t.Run("Cell index out of range", func(t *testing.T) {
		room := ongoingRoom(entity.VariantUltimate)

		require.ErrorIs(t, Apply(room, entity.PlayerX, Move{Board: 0, Cell: 9}), apperror.ErrInvalidCell)
	})

	t.Run("Occupied cell", func(t *testing.T) {
		room := ongoingRoom(entity.VariantUltimate)
		require.NoError(t, Apply(room, entity.PlayerX, Move{Board: 0, Cell: 0}))

		// Active region is now sub-board 0 again, same cell occupied.
		err := Apply(room, entity.PlayerO, Move{Board: 0, Cell: 0})

		require.ErrorIs(t, err, apperror.ErrCellOccupied)
	})
}
