// Package wordchain runs the word-chain game: each player in turn says a word
// that starts with the last syllable of the previous one.
package wordchain

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
	"unicode/utf8"

	"github.com/anchal00/gameroom/internal/dictionary"
	"github.com/anchal00/gameroom/internal/events"
	"github.com/anchal00/gameroom/internal/game"
	"github.com/anchal00/gameroom/internal/room"
	"github.com/anchal00/gameroom/internal/scheduler"
	"github.com/hashicorp/go-set/v3"
)

var (
	ErrNotYourTurn   = errors.New("not-your-turn")
	ErrTooShort      = errors.New("word-too-short")
	ErrBadLink       = errors.New("word-does-not-link")
	ErrDuplicateWord = errors.New("word-already-used")
	ErrUnknownWord   = errors.New("word-not-in-dictionary")
	ErrTurnOver      = errors.New("turn-over")
)

type Dictionary interface {
	IsValid(ctx context.Context, word string) bool
}

type Config struct {
	TurnDuration time.Duration
	Tick         time.Duration
}

func DefaultConfig() Config {
	return Config{TurnDuration: 10 * time.Second, Tick: time.Second}
}

const MinPlayers = 2

type session struct {
	order     []string
	current   int
	word      string
	history   []string
	used      *set.Set[string]
	turn      int
	remaining int
	timer     *scheduler.Slot
}

func (s *session) turnOwner() string {
	return s.order[s.current]
}

type Manager struct {
	env      *game.Env
	cfg      Config
	dict     Dictionary
	starters []string
	sessions *game.Sessions[*session]
}

// New builds the manager. Starting words are drawn from starters.
func New(env *game.Env, cfg Config, dict Dictionary, starters []string) *Manager {
	return &Manager{env: env, cfg: cfg, dict: dict, starters: starters, sessions: game.NewSessions[*session]()}
}

func (m *Manager) Start(rm *room.Room) error {
	_, running := m.sessions.Get(rm.ID)
	if err := game.CheckStart(rm, room.GameWordChain, MinPlayers, running); err != nil {
		return err
	}
	first := m.starters[m.env.IntN(len(m.starters))]
	s := &session{
		order:   rm.PlayerIDs(),
		word:    first,
		history: []string{first},
		used:    set.From([]string{first}),
		timer:   m.env.Scheduler.NewSlot(),
	}
	m.sessions.Put(rm.ID, s)
	m.env.Begin(rm, map[string]any{"word": first, "order": s.order})
	m.startTurnTimer(rm, s)
	return nil
}

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
	m.env.Broadcast(rm, events.WordChainTick, map[string]any{"turn": s.turnOwner(), "remaining": s.remaining})
}

func (m *Manager) tick(rm *room.Room, s *session) {
	s.remaining--
	if s.remaining > 0 {
		m.env.Broadcast(rm, events.WordChainTick, map[string]any{"turn": s.turnOwner(), "remaining": s.remaining})
		return
	}
	loser := s.turnOwner()
	m.finish(rm, s, map[string]any{"loser": loser, "reason": "timeout", "words": slices.Clone(s.history)})
}

// Submit plays word for userID. The dictionary lookup may go over the
// network, so it runs without the room lock; the turn is checked again
// afterwards and the word is refused if the turn moved on in between.
func (m *Manager) Submit(ctx context.Context, roomID, userID, word string) error {
	word = dictionary.Normalize(word)
	s, turn, err := m.precheck(roomID, userID, word)
	if err != nil {
		return err
	}

	valid := m.dict.IsValid(ctx, word)

	rm, err := m.env.Rooms.Acquire(roomID)
	if err != nil {
		return err
	}
	defer rm.Unlock()
	if cur, ok := m.sessions.Get(roomID); !ok || cur != s || s.turn != turn {
		return ErrTurnOver
	}
	if !valid {
		return fmt.Errorf("%w: %s", ErrUnknownWord, word)
	}
	m.accept(rm, s, userID, word)
	return nil
}

func (m *Manager) precheck(roomID, userID, word string) (*session, int, error) {
	rm, err := m.env.Rooms.Acquire(roomID)
	if err != nil {
		return nil, 0, err
	}
	defer rm.Unlock()
	s, ok := m.sessions.Get(roomID)
	if !ok {
		return nil, 0, game.ErrNoSession
	}
	if s.turnOwner() != userID {
		return nil, 0, ErrNotYourTurn
	}
	if utf8.RuneCountInString(word) < 2 {
		return nil, 0, ErrTooShort
	}
	last, _ := utf8.DecodeLastRuneInString(s.word)
	first, _ := utf8.DecodeRuneInString(word)
	if !links(last, first) {
		return nil, 0, fmt.Errorf("%w: %s must start with %c", ErrBadLink, word, last)
	}
	if s.used.Contains(word) {
		return nil, 0, fmt.Errorf("%w: %s", ErrDuplicateWord, word)
	}
	return s, s.turn, nil
}

type Accepted struct {
	Player string `json:"player"`
	Word   string `json:"word"`
	Next   string `json:"next"`
	Count  int    `json:"count"`
}

func (m *Manager) accept(rm *room.Room, s *session, userID, word string) {
	s.word = word
	s.history = append(s.history, word)
	s.used.Insert(word)
	s.turn++
	s.current = (s.current + 1) % len(s.order)
	m.env.Broadcast(rm, events.WordChainAccepted, Accepted{Player: userID, Word: word, Next: s.turnOwner(), Count: len(s.history)})
	m.startTurnTimer(rm, s)
}

func (m *Manager) finish(rm *room.Room, s *session, result map[string]any) {
	s.timer.Stop()
	m.sessions.Delete(rm.ID)
	m.env.End(rm, result)
}

func (m *Manager) Stop(rm *room.Room) {
	if s, ok := m.sessions.Get(rm.ID); ok {
		s.timer.Stop()
		m.sessions.Delete(rm.ID)
	}
}

// PlayerDeparted drops the player from the rotation. Below two players the
// game is force-ended; if it was the leaver's turn the next player starts a
// fresh turn.
func (m *Manager) PlayerDeparted(rm *room.Room, userID string) bool {
	s, ok := m.sessions.Get(rm.ID)
	if !ok {
		return false
	}
	i := slices.Index(s.order, userID)
	if i < 0 {
		return false
	}
	s.order = slices.Delete(s.order, i, i+1)
	if len(s.order) < MinPlayers || len(rm.Players) < MinPlayers {
		m.Stop(rm)
		m.env.ForceEnd(rm, game.ReasonInsufficientPlayers)
		return true
	}
	wasTurn := i == s.current
	if i < s.current {
		s.current--
	}
	s.current %= len(s.order)
	if wasTurn {
		s.turn++
		m.startTurnTimer(rm, s)
	}
	return false
}

type State struct {
	Word      string   `json:"word"`
	History   []string `json:"history"`
	Order     []string `json:"order"`
	Turn      string   `json:"turn"`
	Remaining int      `json:"remaining"`
}

func (m *Manager) State(rm *room.Room) (any, bool) {
	s, ok := m.sessions.Get(rm.ID)
	if !ok {
		return nil, false
	}
	return State{
		Word:      s.word,
		History:   slices.Clone(s.history),
		Order:     slices.Clone(s.order),
		Turn:      s.turnOwner(),
		Remaining: s.remaining,
	}, true
}
