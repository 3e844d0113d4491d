// Package omok runs the turn-based five-in-a-row board game. Each turn has
// its own countdown; when it runs out a random empty cell is played for the
// player whose turn it was.
package omok

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/anchal00/gameroom/internal/events"
	"github.com/anchal00/gameroom/internal/game"
	"github.com/anchal00/gameroom/internal/room"
	"github.com/anchal00/gameroom/internal/scheduler"
)

const (
	Size     = 15
	cells    = Size * Size
	winCount = 5
)

type Stone uint8

const (
	Empty Stone = iota
	Black
	White
)

var (
	ErrNotYourTurn  = errors.New("not-your-turn")
	ErrOutOfBounds  = errors.New("out-of-bounds")
	ErrCellOccupied = errors.New("cell-occupied")
)

type Config struct {
	TurnDuration time.Duration
	Tick         time.Duration
}

func DefaultConfig() Config {
	return Config{TurnDuration: 15 * time.Second, Tick: time.Second}
}

type session struct {
	board        [cells]Stone
	participants []string
	moveCount    int
	remaining    int
	timer        *scheduler.Slot
}

// turnOwner is moveCount modulo the number of participants.
func (s *session) turnOwner() string {
	return s.participants[s.moveCount%len(s.participants)]
}

// stone alternates with the parity of the move count.
func (s *session) stone() Stone {
	if s.moveCount%2 == 0 {
		return Black
	}
	return White
}

type Manager struct {
	env      *game.Env
	cfg      Config
	sessions *game.Sessions[*session]
}

func New(env *game.Env, cfg Config) *Manager {
	return &Manager{env: env, cfg: cfg, sessions: game.NewSessions[*session]()}
}

const MinPlayers = 2

func (m *Manager) Start(rm *room.Room) error {
	_, running := m.sessions.Get(rm.ID)
	if err := game.CheckStart(rm, room.GameOmok, MinPlayers, running); err != nil {
		return err
	}
	s := &session{
		participants: rm.PlayerIDs()[:MinPlayers],
		timer:        m.env.Scheduler.NewSlot(),
	}
	m.sessions.Put(rm.ID, s)
	m.env.Begin(rm, map[string]any{"size": Size, "black": s.participants[0], "white": s.participants[1]})
	m.startTurnTimer(rm, s)
	return nil
}

// startTurnTimer restarts the countdown for the current turn. The slot
// cancels the previous turn's timer before the new one is scheduled.
func (m *Manager) startTurnTimer(rm *room.Room, s *session) {
	s.remaining = int(m.cfg.TurnDuration / m.cfg.Tick)
	roomID := rm.ID
	s.timer.Every(m.cfg.Tick, func(h *scheduler.Handle) {
		m.env.WithRoom(roomID, func(rm *room.Room) {
			if cur, ok := m.sessions.Get(roomID); ok && cur == s && s.timer.Owns(h) {
				m.tick(rm, s)
			}
		})
	})
	m.env.Broadcast(rm, events.OmokTick, map[string]any{"turn": s.turnOwner(), "remaining": s.remaining})
}

func (m *Manager) tick(rm *room.Room, s *session) {
	s.remaining--
	if s.remaining > 0 {
		m.env.Broadcast(rm, events.OmokTick, map[string]any{"turn": s.turnOwner(), "remaining": s.remaining})
		return
	}
	m.forceMove(rm, s)
}

// forceMove plays a random empty cell for the player who ran out of time.
func (m *Manager) forceMove(rm *room.Room, s *session) {
	var free []int
	for i, c := range s.board {
		if c == Empty {
			free = append(free, i)
		}
	}
	if len(free) == 0 {
		m.finish(rm, s, map[string]any{"draw": true})
		return
	}
	cell := free[m.env.IntN(len(free))]
	player := s.turnOwner()
	m.place(rm, s, player, cell, events.OmokForcedMove)
}

// Move places the player's stone at (x, y) and hands the turn over.
func (m *Manager) Move(roomID, userID string, x, y int) error {
	rm, err := m.env.Rooms.Acquire(roomID)
	if err != nil {
		return err
	}
	defer rm.Unlock()
	s, ok := m.sessions.Get(roomID)
	if !ok {
		return game.ErrNoSession
	}
	if s.turnOwner() != userID {
		return ErrNotYourTurn
	}
	if x < 0 || x >= Size || y < 0 || y >= Size {
		return fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, x, y)
	}
	cell := y*Size + x
	if s.board[cell] != Empty {
		return fmt.Errorf("%w: (%d, %d)", ErrCellOccupied, x, y)
	}
	m.place(rm, s, userID, cell, events.OmokMove)
	return nil
}

type Placed struct {
	Player    string `json:"player"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Stone     Stone  `json:"stone"`
	MoveCount int    `json:"moveCount"`
	Next      string `json:"next,omitempty"`
}

func (m *Manager) place(rm *room.Room, s *session, player string, cell int, t events.Type) {
	stone := s.stone()
	s.board[cell] = stone
	s.moveCount++
	placed := Placed{Player: player, X: cell % Size, Y: cell / Size, Stone: stone, MoveCount: s.moveCount}
	if wins(&s.board, cell) {
		m.env.Broadcast(rm, t, placed)
		m.finish(rm, s, map[string]any{"winner": player, "stone": stone})
		return
	}
	if s.moveCount == cells {
		m.env.Broadcast(rm, t, placed)
		m.finish(rm, s, map[string]any{"draw": true})
		return
	}
	placed.Next = s.turnOwner()
	m.env.Broadcast(rm, t, placed)
	m.startTurnTimer(rm, s)
}

var directions = [4][2]int{{1, 0}, {0, 1}, {1, 1}, {1, -1}}

// wins reports whether the stone at cell completes five in a row.
func wins(board *[cells]Stone, cell int) bool {
	stone := board[cell]
	x, y := cell%Size, cell/Size
	for _, d := range directions {
		run := 1
		for _, sign := range [2]int{1, -1} {
			cx, cy := x+sign*d[0], y+sign*d[1]
			for cx >= 0 && cx < Size && cy >= 0 && cy < Size && board[cy*Size+cx] == stone {
				run++
				cx += sign * d[0]
				cy += sign * d[1]
			}
		}
		if run >= winCount {
			return true
		}
	}
	return false
}

func (m *Manager) finish(rm *room.Room, s *session, result map[string]any) {
	s.timer.Stop()
	m.sessions.Delete(rm.ID)
	result["moves"] = s.moveCount
	m.env.End(rm, result)
}

func (m *Manager) Stop(rm *room.Room) {
	if s, ok := m.sessions.Get(rm.ID); ok {
		s.timer.Stop()
		m.sessions.Delete(rm.ID)
	}
}

// PlayerDeparted ends the game when fewer than two players remain or one of
// the two participants left.
func (m *Manager) PlayerDeparted(rm *room.Room, userID string) bool {
	s, ok := m.sessions.Get(rm.ID)
	if !ok {
		return false
	}
	if len(rm.Players) >= MinPlayers && !slices.Contains(s.participants, userID) {
		return false
	}
	m.Stop(rm)
	m.env.ForceEnd(rm, game.ReasonInsufficientPlayers)
	return true
}

type State struct {
	Board        []Stone  `json:"board"`
	Participants []string `json:"participants"`
	MoveCount    int      `json:"moveCount"`
	Turn         string   `json:"turn"`
	Remaining    int      `json:"remaining"`
}

func (m *Manager) State(rm *room.Room) (any, bool) {
	s, ok := m.sessions.Get(rm.ID)
	if !ok {
		return nil, false
	}
	return State{
		Board:        slices.Clone(s.board[:]),
		Participants: slices.Clone(s.participants),
		MoveCount:    s.moveCount,
		Turn:         s.turnOwner(),
		Remaining:    s.remaining,
	}, true
}
