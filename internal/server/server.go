package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anchal00/gameroom/internal/db"
	"github.com/anchal00/gameroom/internal/hub"
	"github.com/anchal00/gameroom/internal/logger"
	"github.com/anchal00/gameroom/internal/orchestrator"
	"github.com/anchal00/gameroom/internal/room"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

const HTTP_API_V1_PREFIX = "/api/v1"

const shutdownTimeout = 10 * time.Second

// Users is the profile store behind PUT /users/{userId}.
type Users interface {
	UpsertUser(ctx context.Context, user db.User) error
}

// Dispatcher is the part of the orchestrator the transport talks to.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID string, cmd orchestrator.Command) error
	RoomOf(userID string) (string, bool)
	Disconnect(userID string)
	Rooms() []room.Summary
	Room(roomID string) (room.Snapshot, error)
}

type Options struct {
	Port              string
	CommandsPerSecond float64
	SendBuffer        int
}

type GameServer struct {
	Users        Users
	Orchestrator Dispatcher
	Hub          *hub.Hub
	Logger       logger.Logger
	port         string
	wssUpgrader  websocket.Upgrader
	Router       *mux.Router
	opts         Options
}

func NewGameServer(opts Options, users Users, orch Dispatcher, h *hub.Hub, log logger.Logger) *GameServer {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 64
	}
	if opts.CommandsPerSecond <= 0 {
		opts.CommandsPerSecond = 20
	}
	router := mux.NewRouter().PathPrefix(HTTP_API_V1_PREFIX).Subrouter()
	gs := &GameServer{
		Users:        users,
		Orchestrator: orch,
		Hub:          h,
		Logger:       log,
		port:         opts.Port,
		wssUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		Router: router,
		opts:   opts,
	}
	router.HandleFunc("/rooms", gs.ListRooms).Methods("GET")
	router.HandleFunc("/rooms/{roomId}", gs.GetRoom).Methods("GET")
	router.HandleFunc("/users/{userId}", gs.UpsertUser).Methods("PUT")
	router.HandleFunc("/connect", gs.HandlePlayerConnection)
	return gs
}

// Run serves until ctx is cancelled and then shuts the listener down
// gracefully.
func (s *GameServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.port),
		Handler:           s.Router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Logger.Info(fmt.Sprintf("Starting server on port %s", s.port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.Logger.Error(fmt.Sprintf("Failed to start server on port %s", s.port), err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.Logger.Info("Shutting down server....")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *GameServer) UpgradeToWebsocket(writer http.ResponseWriter, request *http.Request) *websocket.Conn {
	conn, err := s.wssUpgrader.Upgrade(writer, request, nil)
	if err != nil {
		s.Logger.Error("Failed to upgrade to WS connection", err)
		return nil
	}
	return conn
}

func (s *GameServer) ReadRequestBody(request *http.Request) ([]byte, error) {
	bytesRead, err := io.ReadAll(io.LimitReader(request.Body, 1<<16))
	if err != nil {
		s.Logger.Error("Failed to read request body", err)
		return nil, err
	}
	return bytesRead, nil
}

func (s *GameServer) sendResponse(writer http.ResponseWriter, responseBody []byte, status int) {
	if responseBody != nil {
		writer.Header().Set("Content-Type", "application/json")
	}
	writer.WriteHeader(status)
	if responseBody == nil {
		return
	}
	if _, err := writer.Write(responseBody); err != nil {
		s.Logger.Error("Failed to write response body", err)
	}
}

func (s *GameServer) sendJSON(writer http.ResponseWriter, v any, status int) {
	respBody, err := json.Marshal(v)
	if err != nil {
		s.Logger.Error("Failed to encode response body", err)
		s.sendResponse(writer, nil, http.StatusInternalServerError)
		return
	}
	s.sendResponse(writer, respBody, status)
}

func (s *GameServer) ListRooms(writer http.ResponseWriter, request *http.Request) {
	s.sendJSON(writer, s.Orchestrator.Rooms(), http.StatusOK)
}

func (s *GameServer) GetRoom(writer http.ResponseWriter, request *http.Request) {
	roomId := mux.Vars(request)["roomId"]
	snap, err := s.Orchestrator.Room(roomId)
	if err != nil {
		if errors.Is(err, room.ErrRoomNotFound) {
			s.sendResponse(writer, nil, http.StatusNotFound)
			return
		}
		s.Logger.Error(fmt.Sprintf("Failed to load room %s", roomId), err)
		s.sendResponse(writer, nil, http.StatusInternalServerError)
		return
	}
	s.sendJSON(writer, snap, http.StatusOK)
}

func (s *GameServer) UpsertUser(writer http.ResponseWriter, request *http.Request) {
	userId := mux.Vars(request)["userId"]
	data, err := s.ReadRequestBody(request)
	if err != nil {
		s.sendResponse(writer, nil, http.StatusBadRequest)
		return
	}
	userRequest, err := ParseUserRequest(data)
	if err != nil {
		s.Logger.Error("Failed to parse user request", err)
		s.sendResponse(writer, nil, http.StatusBadRequest)
		return
	}
	user := userRequest.User(userId)
	if err := s.Users.UpsertUser(request.Context(), user); err != nil {
		if errors.Is(err, db.ErrInvalidUser) {
			s.sendResponse(writer, nil, http.StatusBadRequest)
			return
		}
		s.Logger.Error(fmt.Sprintf("Failed to save user %s", userId), err)
		s.sendResponse(writer, nil, http.StatusInternalServerError)
		return
	}
	s.sendJSON(writer, user.Identity(), http.StatusOK)
}
