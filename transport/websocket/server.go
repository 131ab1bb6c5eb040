package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/playrelay/tictactoe-relay/internal/entity"
	"github.com/playrelay/tictactoe-relay/internal/rules"
)

type roomManager interface {
	CreateRoom(ctx context.Context, playerID, variant string) (*entity.Room, error)
	JoinRoom(ctx context.Context, token, playerID string) (*entity.Room, error)
	MakeMove(ctx context.Context, token, playerID string, move rules.Move) (*entity.Room, error)
	LeaveRoom(ctx context.Context, token, playerID string) (*entity.Room, error)
	DisconnectPlayer(ctx context.Context, playerID string) (*entity.Room, error)
}

// connection wraps a WebSocket connection with a write lock, because
// broadcasts may originate from the opposite participant's read loop.
type connection struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (that *connection) send(msg Message) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.ws.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

type Server struct {
	logger  *slog.Logger
	manager roomManager

	upgrader websocket.Upgrader

	connectionsMutex sync.RWMutex
	connections      map[string]*connection

	handlers map[string]func(ctx context.Context, playerID string, payload *Payload) error
}

func New(logger *slog.Logger, manager roomManager) *Server {
	server := &Server{
		logger:  logger,
		manager: manager,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		connections: make(map[string]*connection),
	}

	server.handlers = map[string]func(context.Context, string, *Payload) error{
		ActionRoomCreate: server.handleCreateRoom,
		ActionRoomJoin:   server.handleJoinRoom,
		ActionRoomLeave:  server.handleLeaveRoom,
		ActionGameMove:   server.handleGameMove,
	}

	return server
}

// Start - starts the WebSocket server and blocks until it stops.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.handleConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// handleConnection upgrades the request, assigns the connection its
// stable player id, and runs the read loop until the client drops.
func (that *Server) handleConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "handleConnection")

	ws, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	playerID := uuid.NewString()
	conn := &connection{ws: ws}

	that.connectionsMutex.Lock()
	that.connections[playerID] = conn
	that.connectionsMutex.Unlock()

	log = log.With("playerID", playerID)
	log.Info("WebSocket connection established")

	// The client learns its connection id before any game event.
	if err = conn.send(Message{Action: ActionConnect, Payload: mustMarshal(Payload{Player: &entity.Player{ID: playerID}})}); err != nil {
		log.Error("failed to send connect message", "error", err)
	}

	defer func() {
		_ = ws.Close()
		that.handleDisconnect(ctx, playerID)
	}()

	that.readLoop(ctx, playerID, conn)
}

func (that *Server) readLoop(ctx context.Context, playerID string, conn *connection) {
	log := that.logger.With("method", "readLoop", "playerID", playerID)

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			log.Info("connection closed", "error", err)
			return
		}

		var message Message
		if err = json.Unmarshal(data, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			that.sendError(playerID, "malformed message")
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			that.sendError(playerID, fmt.Sprintf("unknown action %q", message.Action))
			continue
		}

		var payload Payload
		if len(message.Payload) > 0 {
			if err = json.Unmarshal(message.Payload, &payload); err != nil {
				log.Error("failed to unmarshal payload", "action", message.Action, "error", err)
				that.sendError(playerID, "malformed payload")
				continue
			}
		}

		if err = handler(ctx, playerID, &payload); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

// handleDisconnect treats a dropped connection as an implicit leave.
func (that *Server) handleDisconnect(ctx context.Context, playerID string) {
	log := that.logger.With("method", "handleDisconnect", "playerID", playerID)

	that.connectionsMutex.Lock()
	delete(that.connections, playerID)
	that.connectionsMutex.Unlock()

	room, err := that.manager.DisconnectPlayer(ctx, playerID)
	if err != nil {
		log.Error("failed to handle disconnect", "error", err)
		return
	}

	if room == nil {
		return
	}

	that.notifyOpponentLeft(room, playerID)

	log.Info("player disconnected", "token", room.Token)
}

func (that *Server) notifyOpponentLeft(room *entity.Room, leaverID string) {
	opponent := room.Opponent(leaverID)
	if opponent == nil {
		return
	}

	that.sendTo(opponent.ID, Message{Action: ActionOpponentLeft, Payload: mustMarshal(Payload{Token: room.Token})})
}

func (that *Server) sendTo(playerID string, msg Message) {
	that.connectionsMutex.RLock()
	conn, ok := that.connections[playerID]
	that.connectionsMutex.RUnlock()

	if !ok {
		that.logger.Warn("connection not found for player", "playerID", playerID)
		return
	}

	if err := conn.send(msg); err != nil {
		that.logger.Error("failed to send message", "playerID", playerID, "error", err)
	}
}

func (that *Server) sendError(playerID, errorMsg string) {
	that.sendTo(playerID, Message{Action: ActionError, Payload: mustMarshal(Payload{Error: errorMsg})})
}

func mustMarshal(payload Payload) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}

	return data
}
