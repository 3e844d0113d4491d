// Package reaction runs the reaction-speed round: wait for the signal, hit
// first. Hitting before the signal is a false start.
package reaction

import (
	"errors"
	"time"

	"github.com/anchal00/gameroom/internal/events"
	"github.com/anchal00/gameroom/internal/game"
	"github.com/anchal00/gameroom/internal/room"
	"github.com/anchal00/gameroom/internal/scheduler"
	"github.com/hashicorp/go-set/v3"
)

var ErrDisqualified = errors.New("false-started")

type Config struct {
	MinDelay time.Duration
	MaxDelay time.Duration
	Window   time.Duration
}

func DefaultConfig() Config {
	return Config{MinDelay: 2 * time.Second, MaxDelay: 5 * time.Second, Window: 5 * time.Second}
}

type session struct {
	players      *set.Set[string]
	disqualified *set.Set[string]
	goAt         time.Time
	timer        *scheduler.Slot
}

func (s *session) signalled() bool {
	return !s.goAt.IsZero()
}

type Manager struct {
	env      *game.Env
	cfg      Config
	sessions *game.Sessions[*session]
	now      func() time.Time
}

func New(env *game.Env, cfg Config) *Manager {
	return &Manager{env: env, cfg: cfg, sessions: game.NewSessions[*session](), now: time.Now}
}

func (m *Manager) Start(rm *room.Room) error {
	_, running := m.sessions.Get(rm.ID)
	if err := game.CheckStart(rm, room.GameReaction, 1, running); err != nil {
		return err
	}
	s := &session{
		players:      set.From(rm.PlayerIDs()),
		disqualified: set.New[string](0),
		timer:        m.env.Scheduler.NewSlot(),
	}
	m.sessions.Put(rm.ID, s)
	m.env.Begin(rm, nil)
	m.env.Broadcast(rm, events.ReactionWait, nil)

	delay := m.cfg.MinDelay + time.Duration(m.env.Float64()*float64(m.cfg.MaxDelay-m.cfg.MinDelay))
	roomID := rm.ID
	s.timer.After(delay, func(h *scheduler.Handle) {
		m.env.WithRoom(roomID, func(rm *room.Room) {
			if cur, ok := m.sessions.Get(roomID); ok && cur == s && s.timer.Owns(h) {
				m.signal(rm, s)
			}
		})
	})
	return nil
}

func (m *Manager) signal(rm *room.Room, s *session) {
	s.goAt = m.now()
	m.env.Broadcast(rm, events.ReactionGo, nil)
	roomID := rm.ID
	s.timer.After(m.cfg.Window, func(h *scheduler.Handle) {
		m.env.WithRoom(roomID, func(rm *room.Room) {
			if cur, ok := m.sessions.Get(roomID); ok && cur == s && s.timer.Owns(h) {
				m.finish(rm, s, "", 0)
			}
		})
	})
}

// Hit registers userID's press. Before the signal it disqualifies the player;
// after it the first eligible hit wins.
func (m *Manager) Hit(roomID, userID string) error {
	rm, err := m.env.Rooms.Acquire(roomID)
	if err != nil {
		return err
	}
	defer rm.Unlock()
	s, ok := m.sessions.Get(roomID)
	if !ok {
		return game.ErrNoSession
	}
	if !s.players.Contains(userID) {
		return game.ErrNotPlayer
	}
	if s.disqualified.Contains(userID) {
		return ErrDisqualified
	}
	if !s.signalled() {
		s.disqualified.Insert(userID)
		m.env.Broadcast(rm, events.ReactionFalseStart, map[string]string{"player": userID})
		if s.disqualified.Size() >= s.players.Size() {
			m.finish(rm, s, "", 0)
		}
		return nil
	}
	m.finish(rm, s, userID, m.now().Sub(s.goAt))
	return nil
}

func (m *Manager) finish(rm *room.Room, s *session, winner string, took time.Duration) {
	s.timer.Stop()
	m.sessions.Delete(rm.ID)
	m.env.End(rm, map[string]any{
		"winner":      winner,
		"reactionMs":  took.Milliseconds(),
		"falseStarts": s.disqualified.Slice(),
	})
}

func (m *Manager) Stop(rm *room.Room) {
	if s, ok := m.sessions.Get(rm.ID); ok {
		s.timer.Stop()
		m.sessions.Delete(rm.ID)
	}
}

// PlayerDeparted force-ends the round once nobody is left to hit.
func (m *Manager) PlayerDeparted(rm *room.Room, userID string) bool {
	s, ok := m.sessions.Get(rm.ID)
	if !ok {
		return false
	}
	s.players.Remove(userID)
	s.disqualified.Remove(userID)
	if s.players.Empty() || len(rm.Players) == 0 {
		m.Stop(rm)
		m.env.ForceEnd(rm, game.ReasonInsufficientPlayers)
		return true
	}
	if s.disqualified.Size() >= s.players.Size() {
		m.finish(rm, s, "", 0)
	}
	return false
}

type State struct {
	Signalled    bool     `json:"signalled"`
	Disqualified []string `json:"disqualified"`
}

func (m *Manager) State(rm *room.Room) (any, bool) {
	s, ok := m.sessions.Get(rm.ID)
	if !ok {
		return nil, false
	}
	return State{Signalled: s.signalled(), Disqualified: s.disqualified.Slice()}, true
}
