// Package game holds what every minigame shares: the lifecycle contract the
// orchestrator drives, the environment a session runs in, and per-room
// session bookkeeping.
package game

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/anchal00/gameroom/internal/events"
	"github.com/anchal00/gameroom/internal/logger"
	"github.com/anchal00/gameroom/internal/room"
	"github.com/anchal00/gameroom/internal/scheduler"
)

var (
	ErrNoSession          = errors.New("no-active-game")
	ErrAlreadyRunning     = errors.New("game-already-running")
	ErrNotEnoughPlayers   = errors.New("not-enough-players")
	ErrNotPlayer          = errors.New("not-a-player")
	ErrWrongPhase         = errors.New("wrong-phase")
	ErrRoomPlaysOtherGame = errors.New("room-plays-other-game")
)

// Game is the lifecycle the orchestrator drives. Every method is called with
// rm locked.
type Game interface {
	Start(rm *room.Room) error
	// Stop cancels the session's timer and drops it without announcing a
	// result.
	Stop(rm *room.Room)
	// PlayerDeparted reacts to a player leaving mid-game and reports whether
	// the game was force-ended.
	PlayerDeparted(rm *room.Room, userID string) bool
	State(rm *room.Room) (any, bool)
}

// Env is what a session needs from the rest of the server.
type Env struct {
	Rooms     *room.Registry
	Publisher events.Publisher
	Scheduler *scheduler.Scheduler
	Logger    logger.Logger
	IntN      func(n int) int
	Float64   func() float64
}

func NewEnv(rooms *room.Registry, publisher events.Publisher, sched *scheduler.Scheduler, log logger.Logger) *Env {
	return &Env{
		Rooms:     rooms,
		Publisher: publisher,
		Scheduler: sched,
		Logger:    log,
		IntN:      rand.IntN,
		Float64:   rand.Float64,
	}
}

func (e *Env) Broadcast(rm *room.Room, t events.Type, payload any) {
	e.Publisher.Publish(events.RoomTopic(rm.ID), events.New(t, rm.ID, payload))
}

// Tell sends an event to a single user.
func (e *Env) Tell(userID string, rm *room.Room, t events.Type, payload any) {
	e.Publisher.Publish(events.UserTopic(userID), events.New(t, rm.ID, payload))
}

type Started struct {
	Game    room.GameType `json:"game"`
	Players []string      `json:"players"`
	Detail  any           `json:"detail,omitempty"`
}

// Begin puts the room into the playing state and announces the game.
func (e *Env) Begin(rm *room.Room, detail any) {
	rm.Playing = true
	rm.GameOver = false
	e.Broadcast(rm, events.GameStarted, Started{Game: rm.Game, Players: rm.PlayerIDs(), Detail: detail})
	e.Rooms.Announce(rm)
	e.Logger.Info(fmt.Sprintf("Game %s started in room %s", rm.Game, rm.ID))
}

type Ended struct {
	Game   room.GameType `json:"game"`
	Result any           `json:"result"`
}

// End announces the result and returns the room to waiting.
func (e *Env) End(rm *room.Room, result any) {
	e.Broadcast(rm, events.GameEnded, Ended{Game: rm.Game, Result: result})
	rm.Finish()
	rm.GameOver = true
	e.Rooms.Announce(rm)
	e.Logger.Info(fmt.Sprintf("Game %s ended in room %s", rm.Game, rm.ID))
}

type ForceEnded struct {
	Game   room.GameType `json:"game"`
	Reason string        `json:"reason"`
}

const ReasonInsufficientPlayers = "insufficient-players"

// ForceEnd tells the room the game was cut short. It is a different event
// from a normal result.
func (e *Env) ForceEnd(rm *room.Room, reason string) {
	e.Broadcast(rm, events.GameForceEnded, ForceEnded{Game: rm.Game, Reason: reason})
	rm.Finish()
	rm.GameOver = true
	e.Rooms.Announce(rm)
	e.Logger.Info(fmt.Sprintf("Game %s force-ended in room %s: %s", rm.Game, rm.ID, reason))
}

// WithRoom runs fn with the room locked, skipping rooms that are gone. Timer
// tasks use it to get back into the room's critical section.
func (e *Env) WithRoom(roomID string, fn func(rm *room.Room)) {
	rm, err := e.Rooms.Acquire(roomID)
	if err != nil {
		return
	}
	defer rm.Unlock()
	fn(rm)
}

// Sessions maps room ids to the live session of one game.
type Sessions[S any] struct {
	mu sync.RWMutex
	m  map[string]S
}

func NewSessions[S any]() *Sessions[S] {
	return &Sessions[S]{m: make(map[string]S)}
}

func (s *Sessions[S]) Get(roomID string) (S, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[roomID]
	return v, ok
}

func (s *Sessions[S]) Put(roomID string, v S) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[roomID] = v
}

func (s *Sessions[S]) Delete(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, roomID)
}

func (s *Sessions[S]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// CheckStart validates the common start preconditions.
func CheckStart(rm *room.Room, want room.GameType, minPlayers int, running bool) error {
	if rm.Game != want {
		return fmt.Errorf("%w: room plays %s", ErrRoomPlaysOtherGame, rm.Game)
	}
	if running || rm.Playing {
		return ErrAlreadyRunning
	}
	if len(rm.Players) < minPlayers {
		return fmt.Errorf("%w: %s needs %d", ErrNotEnoughPlayers, want, minPlayers)
	}
	return nil
}
