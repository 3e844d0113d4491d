// Package twentyq runs twenty questions: one questioner holds a secret, the
// others ask yes/no questions and may guess at any time.
package twentyq

import (
	"errors"
	"slices"
	"strings"

	"github.com/anchal00/gameroom/internal/events"
	"github.com/anchal00/gameroom/internal/game"
	"github.com/anchal00/gameroom/internal/room"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	MaxQuestions = 20
	MinPlayers   = 2
)

var (
	ErrNotQuestioner   = errors.New("not-questioner")
	ErrQuestioner      = errors.New("questioner-cannot-do-this")
	ErrEmpty           = errors.New("empty-text")
	ErrQuestionPending = errors.New("question-pending")
	ErrNoQuestion      = errors.New("no-pending-question")
)

type phase int

const (
	phaseSelecting phase = iota
	phaseAsking
)

type QA struct {
	Number   int    `json:"number"`
	Asker    string `json:"asker"`
	Question string `json:"question"`
	Answer   bool   `json:"answer"`
}

type pending struct {
	asker string
	text  string
}

type session struct {
	questioner string
	category   string
	answer     string
	phase      phase
	pending    *pending
	history    []QA
}

type Manager struct {
	env      *game.Env
	sessions *game.Sessions[*session]
}

func New(env *game.Env) *Manager {
	return &Manager{env: env, sessions: game.NewSessions[*session]()}
}

// Start makes the first player in the room the questioner.
func (m *Manager) Start(rm *room.Room) error {
	_, running := m.sessions.Get(rm.ID)
	if err := game.CheckStart(rm, room.GameTwentyQ, MinPlayers, running); err != nil {
		return err
	}
	s := &session{questioner: rm.Players[0].UserID}
	m.sessions.Put(rm.ID, s)
	m.env.Begin(rm, map[string]any{"questioner": s.questioner, "maxQuestions": MaxQuestions})
	return nil
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

// Select records the questioner's secret. The answer is only sent back to
// the questioner; the room learns the category.
func (m *Manager) Select(roomID, userID, category, answer string) error {
	rm, s, err := m.acquire(roomID)
	if err != nil {
		return err
	}
	defer rm.Unlock()
	if userID != s.questioner {
		return ErrNotQuestioner
	}
	if s.phase != phaseSelecting {
		return game.ErrWrongPhase
	}
	category, answer = strings.TrimSpace(category), strings.TrimSpace(answer)
	if category == "" || answer == "" {
		return ErrEmpty
	}
	s.category = category
	s.answer = answer
	s.phase = phaseAsking
	m.env.Tell(userID, rm, events.TwentyQSecret, map[string]string{"category": category, "answer": answer})
	m.env.Broadcast(rm, events.TwentyQReady, map[string]string{"category": category, "questioner": s.questioner})
	return nil
}

func (m *Manager) Ask(roomID, userID, question string) error {
	rm, s, err := m.acquire(roomID)
	if err != nil {
		return err
	}
	defer rm.Unlock()
	if err := s.checkGuesser(rm, userID); err != nil {
		return err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return ErrEmpty
	}
	if s.pending != nil {
		return ErrQuestionPending
	}
	s.pending = &pending{asker: userID, text: question}
	m.env.Broadcast(rm, events.TwentyQQuestion, map[string]any{"asker": userID, "question": question, "number": len(s.history) + 1})
	return nil
}

func (m *Manager) Answer(roomID, userID string, yes bool) error {
	rm, s, err := m.acquire(roomID)
	if err != nil {
		return err
	}
	defer rm.Unlock()
	if userID != s.questioner {
		return ErrNotQuestioner
	}
	if s.pending == nil {
		return ErrNoQuestion
	}
	qa := QA{Number: len(s.history) + 1, Asker: s.pending.asker, Question: s.pending.text, Answer: yes}
	s.history = append(s.history, qa)
	s.pending = nil
	m.env.Broadcast(rm, events.TwentyQAnswer, map[string]any{"qa": qa, "remaining": MaxQuestions - len(s.history)})
	if len(s.history) >= MaxQuestions {
		m.finish(rm, s, "")
	}
	return nil
}

// Guess ends the game in the guesser's favor on a case-insensitive match.
// Wrong guesses are announced and do not use up a question.
func (m *Manager) Guess(roomID, userID, guess string) error {
	rm, s, err := m.acquire(roomID)
	if err != nil {
		return err
	}
	defer rm.Unlock()
	if err := s.checkGuesser(rm, userID); err != nil {
		return err
	}
	guess = strings.TrimSpace(guess)
	if guess == "" {
		return ErrEmpty
	}
	correct := sameWord(guess, s.answer)
	m.env.Broadcast(rm, events.TwentyQGuess, map[string]any{"player": userID, "guess": guess, "correct": correct})
	if correct {
		m.finish(rm, s, userID)
	}
	return nil
}

func (s *session) checkGuesser(rm *room.Room, userID string) error {
	if userID == s.questioner {
		return ErrQuestioner
	}
	if !rm.IsPlayer(userID) {
		return game.ErrNotPlayer
	}
	if s.phase != phaseAsking {
		return game.ErrWrongPhase
	}
	return nil
}

func sameWord(a, b string) bool {
	fold := cases.Fold()
	return fold.String(norm.NFC.String(a)) == fold.String(norm.NFC.String(b))
}

func (m *Manager) finish(rm *room.Room, s *session, winner string) {
	m.sessions.Delete(rm.ID)
	m.env.End(rm, map[string]any{
		"winner":    winner,
		"answer":    s.answer,
		"category":  s.category,
		"questions": len(s.history),
		"history":   slices.Clone(s.history),
	})
}

func (m *Manager) Stop(rm *room.Room) {
	m.sessions.Delete(rm.ID)
}

// PlayerDeparted force-ends when the questioner leaves or only one player is
// left. A departing asker's unanswered question is withdrawn.
func (m *Manager) PlayerDeparted(rm *room.Room, userID string) bool {
	s, ok := m.sessions.Get(rm.ID)
	if !ok {
		return false
	}
	if userID == s.questioner || len(rm.Players) < MinPlayers {
		m.Stop(rm)
		m.env.ForceEnd(rm, game.ReasonInsufficientPlayers)
		return true
	}
	if s.pending != nil && s.pending.asker == userID {
		s.pending = nil
	}
	return false
}

type State struct {
	Questioner string `json:"questioner"`
	Category   string `json:"category,omitempty"`
	Selecting  bool   `json:"selecting"`
	Pending    string `json:"pending,omitempty"`
	History    []QA   `json:"history"`
	Remaining  int    `json:"remaining"`
}

func (m *Manager) State(rm *room.Room) (any, bool) {
	s, ok := m.sessions.Get(rm.ID)
	if !ok {
		return nil, false
	}
	st := State{
		Questioner: s.questioner,
		Category:   s.category,
		Selecting:  s.phase == phaseSelecting,
		History:    slices.Clone(s.history),
		Remaining:  MaxQuestions - len(s.history),
	}
	if s.pending != nil {
		st.Pending = s.pending.text
	}
	return st, true
}
