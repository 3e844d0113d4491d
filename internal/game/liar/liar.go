// Package liar runs the social deduction game: everybody but one player
// learns the keyword, the table discusses, votes, and a caught liar gets one
// chance to name the keyword.
package liar

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/anchal00/gameroom/internal/events"
	"github.com/anchal00/gameroom/internal/game"
	"github.com/anchal00/gameroom/internal/room"
	"github.com/anchal00/gameroom/internal/scheduler"
	"github.com/hashicorp/go-set/v3"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	MinPlayers      = 4
	minToContinue   = 3
	liarPlaceholder = "?"
)

var (
	ErrAlreadyVoted = errors.New("already-voted")
	ErrSelfVote     = errors.New("cannot-vote-for-self")
	ErrBadTarget    = errors.New("vote-target-not-playing")
	ErrNotLiar      = errors.New("not-the-liar")
	ErrEmpty        = errors.New("empty-text")
)

type Phase string

const (
	PhaseReveal     Phase = "reveal"
	PhaseDiscussion Phase = "discussion"
	PhaseVoting     Phase = "voting"
	PhaseGuessing   Phase = "guessing"
)

type Config struct {
	Reveal     time.Duration
	Discussion time.Duration
	Voting     time.Duration
	Guess      time.Duration
	Tick       time.Duration
}

func DefaultConfig() Config {
	return Config{
		Reveal:     5 * time.Second,
		Discussion: 60 * time.Second,
		Voting:     15 * time.Second,
		Guess:      10 * time.Second,
		Tick:       time.Second,
	}
}

type session struct {
	liar      string
	category  string
	keyword   string
	players   *set.Set[string]
	votes     map[string]string
	phase     Phase
	remaining int
	caught    bool
	timer     *scheduler.Slot
}

type Manager struct {
	env      *game.Env
	cfg      Config
	bank     Bank
	sessions *game.Sessions[*session]
}

func New(env *game.Env, cfg Config, bank Bank) *Manager {
	return &Manager{env: env, cfg: cfg, bank: bank, sessions: game.NewSessions[*session]()}
}

type Role struct {
	Liar     bool   `json:"liar"`
	Category string `json:"category"`
	Keyword  string `json:"keyword"`
}

// Start deals the roles. Exactly one current player, chosen uniformly at
// random, is the liar and gets a placeholder instead of the keyword.
func (m *Manager) Start(rm *room.Room) error {
	_, running := m.sessions.Get(rm.ID)
	if err := game.CheckStart(rm, room.GameLiar, MinPlayers, running); err != nil {
		return err
	}
	ids := rm.PlayerIDs()
	categories := m.bank.categories()
	category := categories[m.env.IntN(len(categories))]
	keywords := m.bank[category]
	s := &session{
		liar:     ids[m.env.IntN(len(ids))],
		category: category,
		keyword:  keywords[m.env.IntN(len(keywords))],
		players:  set.From(ids),
		votes:    make(map[string]string),
		timer:    m.env.Scheduler.NewSlot(),
	}
	m.sessions.Put(rm.ID, s)
	m.env.Begin(rm, map[string]any{"category": category})
	for _, id := range ids {
		role := Role{Category: category, Keyword: s.keyword}
		if id == s.liar {
			role = Role{Liar: true, Category: category, Keyword: liarPlaceholder}
		}
		m.env.Tell(id, rm, events.LiarRole, role)
	}
	m.enter(rm, s, PhaseReveal, m.cfg.Reveal)
	return nil
}

// enter switches phase and restarts the phase countdown.
func (m *Manager) enter(rm *room.Room, s *session, p Phase, d time.Duration) {
	s.phase = p
	s.remaining = int(d / m.cfg.Tick)
	roomID := rm.ID
	s.timer.Every(m.cfg.Tick, func(h *scheduler.Handle) {
		m.env.WithRoom(roomID, func(rm *room.Room) {
			if cur, ok := m.sessions.Get(roomID); ok && cur == s && s.timer.Owns(h) {
				m.tick(rm, s)
			}
		})
	})
	m.env.Broadcast(rm, events.LiarPhase, map[string]any{"phase": p, "remaining": s.remaining})
}

func (m *Manager) tick(rm *room.Room, s *session) {
	s.remaining--
	if s.remaining > 0 {
		m.env.Broadcast(rm, events.LiarTick, map[string]any{"phase": s.phase, "remaining": s.remaining})
		return
	}
	m.phaseExpired(rm, s)
}

func (m *Manager) phaseExpired(rm *room.Room, s *session) {
	switch s.phase {
	case PhaseReveal:
		m.enter(rm, s, PhaseDiscussion, m.cfg.Discussion)
	case PhaseDiscussion:
		m.enter(rm, s, PhaseVoting, m.cfg.Voting)
	case PhaseVoting:
		m.tally(rm, s)
	case PhaseGuessing:
		m.finish(rm, s, "citizens", "")
	}
}

func (m *Manager) acquire(roomID string) (*room.Room, *session, error) {
	rm, err := m.env.Rooms.Acquire(roomID)
	if err != nil {
		return nil, nil, err
	}
	s, ok := m.sessions.Get(roomID)
	if !ok {
		rm.Unlock()
		return nil, nil, game.ErrNoSession
	}
	return rm, s, nil
}

// Chat relays discussion text to the room as is.
func (m *Manager) Chat(roomID, userID, text string) error {
	rm, s, err := m.acquire(roomID)
	if err != nil {
		return err
	}
	defer rm.Unlock()
	if !s.players.Contains(userID) || !rm.IsPlayer(userID) {
		return game.ErrNotPlayer
	}
	if s.phase != PhaseDiscussion {
		return game.ErrWrongPhase
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmpty
	}
	m.env.Broadcast(rm, events.LiarChat, map[string]string{"userId": userID, "name": rm.PlayerName(userID), "text": text})
	return nil
}

// Vote records userID's suspect. Voting closes early once every player
// still in the game has voted.
func (m *Manager) Vote(roomID, userID, target string) error {
	rm, s, err := m.acquire(roomID)
	if err != nil {
		return err
	}
	defer rm.Unlock()
	if !s.players.Contains(userID) || !rm.IsPlayer(userID) {
		return game.ErrNotPlayer
	}
	if s.phase != PhaseVoting {
		return game.ErrWrongPhase
	}
	if _, ok := s.votes[userID]; ok {
		return ErrAlreadyVoted
	}
	if target == userID {
		return ErrSelfVote
	}
	if !s.players.Contains(target) || !rm.IsPlayer(target) {
		return fmt.Errorf("%w: %s", ErrBadTarget, target)
	}
	s.votes[userID] = target
	m.env.Broadcast(rm, events.LiarVoteCast, map[string]any{"voter": userID, "votes": len(s.votes), "voters": s.players.Size()})
	if len(s.votes) >= s.players.Size() {
		m.tally(rm, s)
	}
	return nil
}

type VoteResult struct {
	Counts  map[string]int `json:"counts"`
	Accused string         `json:"accused,omitempty"`
	Caught  bool           `json:"caught"`
}

// countVotes returns the single most voted player, or "" on a tie or when
// nobody voted.
func countVotes(votes map[string]string) (map[string]int, string) {
	counts := make(map[string]int)
	for _, target := range votes {
		counts[target]++
	}
	best, top, tied := 0, "", false
	for _, target := range slices.Sorted(maps.Keys(counts)) {
		switch c := counts[target]; {
		case c > best:
			best, top, tied = c, target, false
		case c == best:
			tied = true
		}
	}
	if tied {
		return counts, ""
	}
	return counts, top
}

func (m *Manager) tally(rm *room.Room, s *session) {
	counts, accused := countVotes(s.votes)
	s.caught = accused != "" && accused == s.liar
	m.env.Broadcast(rm, events.LiarVoteResult, VoteResult{Counts: counts, Accused: accused, Caught: s.caught})
	if !s.caught {
		m.finish(rm, s, "liar", "")
		return
	}
	m.enter(rm, s, PhaseGuessing, m.cfg.Guess)
}

// Guess is the caught liar's last chance: naming the keyword wins the game.
func (m *Manager) Guess(roomID, userID, guess string) error {
	rm, s, err := m.acquire(roomID)
	if err != nil {
		return err
	}
	defer rm.Unlock()
	if userID != s.liar {
		return ErrNotLiar
	}
	if s.phase != PhaseGuessing {
		return game.ErrWrongPhase
	}
	fold := cases.Fold()
	guess = strings.TrimSpace(guess)
	if fold.String(norm.NFC.String(guess)) == fold.String(norm.NFC.String(s.keyword)) {
		m.finish(rm, s, "liar", guess)
		return nil
	}
	m.finish(rm, s, "citizens", guess)
	return nil
}

func (m *Manager) finish(rm *room.Room, s *session, winner, guess string) {
	s.timer.Stop()
	m.sessions.Delete(rm.ID)
	m.env.End(rm, map[string]any{
		"winner":   winner,
		"liar":     s.liar,
		"caught":   s.caught,
		"category": s.category,
		"keyword":  s.keyword,
		"guess":    guess,
		"votes":    maps.Clone(s.votes),
	})
}

func (m *Manager) Stop(rm *room.Room) {
	if s, ok := m.sessions.Get(rm.ID); ok {
		s.timer.Stop()
		m.sessions.Delete(rm.ID)
	}
}

// PlayerDeparted force-ends when the liar leaves or fewer than three players
// remain. Otherwise the leaver's vote and the votes against them are dropped.
func (m *Manager) PlayerDeparted(rm *room.Room, userID string) bool {
	s, ok := m.sessions.Get(rm.ID)
	if !ok || !s.players.Contains(userID) {
		return false
	}
	s.players.Remove(userID)
	if userID == s.liar || s.players.Size() < minToContinue {
		m.Stop(rm)
		m.env.ForceEnd(rm, game.ReasonInsufficientPlayers)
		return true
	}
	delete(s.votes, userID)
	for voter, target := range s.votes {
		if target == userID {
			delete(s.votes, voter)
		}
	}
	if s.phase == PhaseVoting && len(s.votes) >= s.players.Size() {
		m.tally(rm, s)
	}
	return false
}

type State struct {
	Phase     Phase    `json:"phase"`
	Category  string   `json:"category"`
	Players   []string `json:"players"`
	Voted     []string `json:"voted"`
	Remaining int      `json:"remaining"`
}

func (m *Manager) State(rm *room.Room) (any, bool) {
	s, ok := m.sessions.Get(rm.ID)
	if !ok {
		return nil, false
	}
	return State{
		Phase:     s.phase,
		Category:  s.category,
		Players:   slices.Sorted(s.players.Items()),
		Voted:     slices.Sorted(maps.Keys(s.votes)),
		Remaining: s.remaining,
	}, true
}
