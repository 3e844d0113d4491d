// Package aim runs the aim-target shooter: targets pop up on a normalized
// board and players race to hit them before the clock runs out.
package aim

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/anchal00/gameroom/internal/events"
	"github.com/anchal00/gameroom/internal/game"
	"github.com/anchal00/gameroom/internal/room"
	"github.com/anchal00/gameroom/internal/scheduler"
)

var ErrTargetGone = errors.New("target-gone")

type Config struct {
	Duration   time.Duration
	Tick       time.Duration
	MaxTargets int
	SpawnEvery int
	TargetTTL  time.Duration
}

func DefaultConfig() Config {
	return Config{
		Duration:   30 * time.Second,
		Tick:       time.Second,
		MaxTargets: 3,
		SpawnEvery: 2,
		TargetTTL:  3 * time.Second,
	}
}

type Target struct {
	ID        int           `json:"id"`
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	Radius    float64       `json:"radius"`
	SpawnedAt time.Time     `json:"spawnedAt"`
	TTL       time.Duration `json:"ttl"`
}

type session struct {
	targets   map[int]*Target
	scores    map[string]int
	remaining int
	ticks     int
	nextID    int
	timer     *scheduler.Slot
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
	if err := game.CheckStart(rm, room.GameAim, 1, running); err != nil {
		return err
	}
	s := &session{
		targets:   make(map[int]*Target),
		scores:    make(map[string]int),
		remaining: int(m.cfg.Duration / m.cfg.Tick),
		timer:     m.env.Scheduler.NewSlot(),
	}
	for _, id := range rm.PlayerIDs() {
		s.scores[id] = 0
	}
	m.sessions.Put(rm.ID, s)
	m.env.Begin(rm, map[string]int{"seconds": s.remaining, "maxTargets": m.cfg.MaxTargets})
	for range m.cfg.MaxTargets {
		m.spawnTarget(rm, s)
	}
	roomID := rm.ID
	s.timer.Every(m.cfg.Tick, func(h *scheduler.Handle) {
		m.env.WithRoom(roomID, func(rm *room.Room) {
			if cur, ok := m.sessions.Get(roomID); ok && cur == s && s.timer.Owns(h) {
				m.advance(rm, s)
			}
		})
	})
	return nil
}

// advance is one clock tick. Must be called with rm locked.
func (m *Manager) advance(rm *room.Room, s *session) {
	s.remaining--
	s.ticks++
	now := m.now()
	for _, id := range slices.Sorted(maps.Keys(s.targets)) {
		t := s.targets[id]
		if now.Sub(t.SpawnedAt) >= t.TTL {
			m.removeTarget(rm, s, id, "expired", "")
		}
	}
	m.env.Broadcast(rm, events.AimTick, map[string]int{"remaining": s.remaining})
	if s.remaining <= 0 {
		m.finish(rm, s)
		return
	}
	if s.ticks%m.cfg.SpawnEvery == 0 {
		m.spawnTarget(rm, s)
	}
}

// spawnTarget is the only place targets are added. It does nothing when the
// board already holds the maximum.
func (m *Manager) spawnTarget(rm *room.Room, s *session) {
	if len(s.targets) >= m.cfg.MaxTargets {
		return
	}
	s.nextID++
	t := &Target{
		ID:        s.nextID,
		X:         0.1 + 0.8*m.env.Float64(),
		Y:         0.1 + 0.8*m.env.Float64(),
		Radius:    0.04 + 0.04*m.env.Float64(),
		SpawnedAt: m.now(),
		TTL:       m.cfg.TargetTTL,
	}
	s.targets[t.ID] = t
	m.env.Broadcast(rm, events.AimTargetSpawned, t)
}

// removeTarget deletes the target if it is still on the board and reports
// whether this call removed it. A hit and an expiry racing for one target
// are serialized by the room lock, so only one of them sees true.
func (m *Manager) removeTarget(rm *room.Room, s *session, id int, reason, by string) bool {
	if _, ok := s.targets[id]; !ok {
		return false
	}
	delete(s.targets, id)
	m.env.Broadcast(rm, events.AimTargetRemoved, map[string]any{"targetId": id, "reason": reason, "by": by})
	return true
}

// Hit credits userID with targetID if the target is still live.
func (m *Manager) Hit(roomID, userID string, targetID int) error {
	rm, err := m.env.Rooms.Acquire(roomID)
	if err != nil {
		return err
	}
	defer rm.Unlock()
	s, ok := m.sessions.Get(roomID)
	if !ok {
		return game.ErrNoSession
	}
	if !rm.IsPlayer(userID) {
		return game.ErrNotPlayer
	}
	if !m.removeTarget(rm, s, targetID, "hit", userID) {
		return fmt.Errorf("%w: %d", ErrTargetGone, targetID)
	}
	s.scores[userID]++
	m.env.Broadcast(rm, events.AimScore, map[string]any{"userId": userID, "score": s.scores[userID], "scores": maps.Clone(s.scores)})
	m.spawnTarget(rm, s)
	return nil
}

func (m *Manager) finish(rm *room.Room, s *session) {
	s.timer.Stop()
	m.sessions.Delete(rm.ID)
	m.env.End(rm, map[string]any{"scores": maps.Clone(s.scores)})
}

func (m *Manager) Stop(rm *room.Room) {
	if s, ok := m.sessions.Get(rm.ID); ok {
		s.timer.Stop()
		m.sessions.Delete(rm.ID)
	}
}

func (m *Manager) PlayerDeparted(rm *room.Room, userID string) bool {
	if _, ok := m.sessions.Get(rm.ID); !ok || len(rm.Players) > 0 {
		return false
	}
	m.Stop(rm)
	m.env.ForceEnd(rm, game.ReasonInsufficientPlayers)
	return true
}

type State struct {
	Targets   []Target       `json:"targets"`
	Scores    map[string]int `json:"scores"`
	Remaining int            `json:"remaining"`
}

func (m *Manager) State(rm *room.Room) (any, bool) {
	s, ok := m.sessions.Get(rm.ID)
	if !ok {
		return nil, false
	}
	st := State{Scores: maps.Clone(s.scores), Remaining: s.remaining}
	for _, id := range slices.Sorted(maps.Keys(s.targets)) {
		st.Targets = append(st.Targets, *s.targets[id])
	}
	return st, true
}
