package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/playrelay/tictactoe-relay/internal/apperror"
	"github.com/playrelay/tictactoe-relay/internal/entity"
	"github.com/playrelay/tictactoe-relay/internal/pkg"
	"github.com/playrelay/tictactoe-relay/internal/rules"
)

const maxTokenAttempts = 5

var errTokenExhausted = errors.New("could not allocate a free room token")

type roomRepo interface {
	CreateOrUpdate(ctx context.Context, room *entity.Room) error
	GetByToken(ctx context.Context, token string) (*entity.Room, error)
	DeleteByToken(ctx context.Context, token string) error
}

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
	DeleteByID(ctx context.Context, id string) error
}

// RoomManager is the single authority over room state. Every mutation
// runs under one mutex, so concurrent proposals from both participants
// are serialized and the loser of the race is rejected by the turn
// check instead of corrupting state.
type RoomManager struct {
	logger *slog.Logger

	mu      sync.Mutex
	rooms   roomRepo
	players playerRepo
}

func NewRoomManager(logger *slog.Logger, rooms roomRepo, players playerRepo) *RoomManager {
	return &RoomManager{
		logger:  logger.With("component", "room_manager"),
		rooms:   rooms,
		players: players,
	}
}

// CreateRoom allocates a fresh room with the requesting player admitted
// as mark X.
func (that *RoomManager) CreateRoom(ctx context.Context, playerID, variant string) (*entity.Room, error) {
	if !entity.IsValidVariant(variant) {
		return nil, fmt.Errorf("%w: %q", apperror.ErrInvalidVariant, variant)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	token, err := that.freeToken(ctx)
	if err != nil {
		return nil, err
	}

	room := entity.NewRoom(token, variant)
	player := &entity.Player{ID: playerID, Mark: entity.PlayerX, RoomToken: token}
	room.Players = append(room.Players, player)

	if err = that.players.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to save player: %w", err)
	}

	if err = that.rooms.CreateOrUpdate(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to save room: %w", err)
	}

	that.logger.Info("room created", "token", token, "variant", variant, "playerID", playerID)

	return room, nil
}

// JoinRoom admits the player as the second participant with mark O and
// moves the room to ongoing.
func (that *RoomManager) JoinRoom(ctx context.Context, token, playerID string) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.rooms.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if existing := room.PlayerByID(playerID); existing != nil {
		return room, nil
	}

	if !room.HasSeat() {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomFull, token)
	}

	player := &entity.Player{ID: playerID, Mark: entity.PlayerO, RoomToken: token}
	room.Players = append(room.Players, player)
	room.Status = entity.StatusOngoing

	if err = that.players.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to save player: %w", err)
	}

	if err = that.rooms.CreateOrUpdate(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to save room: %w", err)
	}

	that.logger.Info("player joined room", "token", token, "playerID", playerID)

	return room, nil
}

// MakeMove validates the proposal against the acting player's identity
// and turn, delegates board legality to the rules package, and commits
// the result. The terminal state is always computed here, never left to
// clients. Finished rooms are removed from the store after the final
// state is returned.
func (that *RoomManager) MakeMove(ctx context.Context, token, playerID string, move rules.Move) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, err := that.rooms.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if room.IsWaiting() {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotStarted, token)
	}

	player := room.PlayerByID(playerID)
	if player == nil {
		return nil, fmt.Errorf("%w: %s", apperror.ErrNotAParticipant, playerID)
	}

	if room.IsOngoing() && room.Turn != player.Mark {
		return nil, apperror.ErrNotYourTurn
	}

	if err = rules.Apply(room, player.Mark, move); err != nil {
		return nil, fmt.Errorf("invalid move in room %s: %w", token, err)
	}

	if room.IsFinished() {
		that.teardown(ctx, room)
		return room, nil
	}

	if err = that.rooms.CreateOrUpdate(ctx, room); err != nil {
		return nil, fmt.Errorf("failed to save room: %w", err)
	}

	return room, nil
}

// LeaveRoom destroys the room and reports it back so the transport can
// notify the remaining participant. Idempotent when the room is gone.
func (that *RoomManager) LeaveRoom(ctx context.Context, token, playerID string) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.leaveRoom(ctx, token, playerID)
}

// DisconnectPlayer treats a dropped connection as an implicit leave for
// whatever room the player occupies.
func (that *RoomManager) DisconnectPlayer(ctx context.Context, playerID string) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	player, err := that.players.GetByID(ctx, playerID)
	if errors.Is(err, apperror.ErrPlayerNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	if player.RoomToken == "" {
		if err = that.players.DeleteByID(ctx, playerID); err != nil {
			return nil, fmt.Errorf("failed to delete player: %w", err)
		}

		return nil, nil
	}

	return that.leaveRoom(ctx, player.RoomToken, playerID)
}

func (that *RoomManager) leaveRoom(ctx context.Context, token, playerID string) (*entity.Room, error) {
	room, err := that.rooms.GetByToken(ctx, token)
	if errors.Is(err, apperror.ErrRoomNotFound) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	room.Status = entity.StatusFinished
	that.teardown(ctx, room)

	that.logger.Info("player left room", "token", token, "playerID", playerID)

	return room, nil
}

// teardown removes the room and its participant records. Failures are
// logged, not returned: the room is already finished from the caller's
// point of view.
func (that *RoomManager) teardown(ctx context.Context, room *entity.Room) {
	if err := that.rooms.DeleteByToken(ctx, room.Token); err != nil {
		that.logger.Error("failed to delete room", "token", room.Token, "error", err)
	}

	for _, player := range room.Players {
		if err := that.players.DeleteByID(ctx, player.ID); err != nil {
			that.logger.Error("failed to delete player", "playerID", player.ID, "error", err)
		}
	}
}

func (that *RoomManager) freeToken(ctx context.Context) (string, error) {
	for i := 0; i < maxTokenAttempts; i++ {
		token := pkg.GenerateRoomToken()
		if token == "" {
			continue
		}

		_, err := that.rooms.GetByToken(ctx, token)
		if errors.Is(err, apperror.ErrRoomNotFound) {
			return token, nil
		}

		if err != nil {
			return "", fmt.Errorf("failed to check token: %w", err)
		}
	}

	return "", errTokenExhausted
}
