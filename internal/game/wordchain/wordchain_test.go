package wordchain

import (
	"context"
	"testing"
	"time"

	"github.com/anchal00/gameroom/internal/events"
	"github.com/anchal00/gameroom/internal/game"
	"github.com/anchal00/gameroom/internal/game/gametest"
	"github.com/anchal00/gameroom/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dictFunc func(ctx context.Context, word string) bool

func (f dictFunc) IsValid(ctx context.Context, word string) bool { return f(ctx, word) }

func knownWords(words ...string) Dictionary {
	return dictFunc(func(_ context.Context, word string) bool {
		for _, w := range words {
			if w == word {
				return true
			}
		}
		return false
	})
}

func slowConfig() Config {
	return Config{TurnDuration: 10 * time.Hour, Tick: time.Hour}
}

func startGame(t *testing.T, f *gametest.Fixture, m *Manager, players int) *room.Room {
	rm := f.Room(t, room.GameWordChain, players)
	gametest.Locked(rm, func() { require.NoError(t, m.Start(rm)) })
	return rm
}

func TestLinkVariant(t *testing.T) {
	tests := []struct {
		description string
		last, next  rune
		links       bool
	}{
		{"Test with identical syllable", '과', '과', true},
		{"Test with rieul before i", '리', '이', true},
		{"Test with rieul before yeo keeping the final", '력', '역', true},
		{"Test with rieul before a", '라', '나', true},
		{"Test with rieul before eu", '름', '늠', true},
		{"Test with nieun before yeo", '녀', '여', true},
		{"Test with nieun before a", '나', '아', false},
		{"Test with unrelated syllable", '과', '자', false},
		{"Test with latin letters", 'a', 'a', true},
		{"Test with latin letters differing", 'a', 'b', false},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.links, links(tc.last, tc.next))
		})
	}
}

func TestChainScenario(t *testing.T) {
	f := gametest.New(t)
	m := New(f.Env, slowConfig(), knownWords("과자", "자두", "두부"), []string{"사과"})
	rm := startGame(t, f, m, 2)
	ctx := context.Background()

	require.NoError(t, m.Submit(ctx, rm.ID, "p1", "과자"))
	require.NoError(t, m.Submit(ctx, rm.ID, "p2", "자두"))
	require.NoError(t, m.Submit(ctx, rm.ID, "p1", "두부"))

	st, ok := m.State(rm)
	require.True(t, ok)
	state := st.(State)
	assert.Equal(t, []string{"사과", "과자", "자두", "두부"}, state.History)
	assert.Equal(t, "p2", state.Turn)
	assert.Len(t, f.Publisher.OfType(events.RoomTopic(rm.ID), events.WordChainAccepted), 3)
}

func TestDuplicateWordRejected(t *testing.T) {
	f := gametest.New(t)
	m := New(f.Env, slowConfig(), knownWords("과자", "자과", "과자"), []string{"사과"})
	rm := startGame(t, f, m, 2)
	ctx := context.Background()

	require.NoError(t, m.Submit(ctx, rm.ID, "p1", "과자"))
	require.NoError(t, m.Submit(ctx, rm.ID, "p2", "자과"))

	assert.ErrorIs(t, m.Submit(ctx, rm.ID, "p1", "과자"), ErrDuplicateWord)
}

func TestSubmitRejections(t *testing.T) {
	f := gametest.New(t)
	m := New(f.Env, slowConfig(), knownWords("과자"), []string{"사과"})
	rm := startGame(t, f, m, 2)
	ctx := context.Background()

	tests := []struct {
		description string
		player      string
		word        string
		err         error
	}{
		{"Test with out of turn player", "p2", "과자", ErrNotYourTurn},
		{"Test with single syllable", "p1", "과", ErrTooShort},
		{"Test with broken chain", "p1", "자두", ErrBadLink},
		{"Test with repeating the opening word", "p1", "사과", ErrBadLink},
		{"Test with unknown word", "p1", "과일즙", ErrUnknownWord},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert.ErrorIs(t, m.Submit(ctx, rm.ID, tc.player, tc.word), tc.err)
		})
	}
	assert.Empty(t, f.Publisher.OfType(events.RoomTopic(rm.ID), events.WordChainAccepted))
}

func TestInitialSoundLinkAccepted(t *testing.T) {
	f := gametest.New(t)
	m := New(f.Env, slowConfig(), knownWords("역사"), []string{"능력"})
	rm := startGame(t, f, m, 2)

	assert.NoError(t, m.Submit(context.Background(), rm.ID, "p1", "역사"))
}

func TestTurnExpiresDuringLookup(t *testing.T) {
	f := gametest.New(t)
	var m *Manager
	var rm *room.Room
	m = New(f.Env, slowConfig(), dictFunc(func(_ context.Context, word string) bool {
		gametest.Locked(rm, func() {
			s, _ := m.sessions.Get(rm.ID)
			s.remaining = 1
			m.tick(rm, s)
		})
		return true
	}), []string{"사과"})
	rm = startGame(t, f, m, 2)

	assert.ErrorIs(t, m.Submit(context.Background(), rm.ID, "p1", "과자"), ErrTurnOver)
	ended := f.Publisher.OfType(events.RoomTopic(rm.ID), events.GameEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, "p1", ended[0].Payload.(game.Ended).Result.(map[string]any)["loser"])
}

func TestTimeoutEndsGame(t *testing.T) {
	f := gametest.New(t)
	m := New(f.Env, Config{TurnDuration: 20 * time.Millisecond, Tick: 10 * time.Millisecond}, knownWords(), []string{"사과"})
	rm := startGame(t, f, m, 3)

	require.Eventually(t, func() bool {
		return len(f.Publisher.OfType(events.RoomTopic(rm.ID), events.GameEnded)) == 1
	}, time.Second, time.Millisecond)
	_, ok := m.State(rm)
	assert.False(t, ok)
}

func TestDepartureAdjustsRotation(t *testing.T) {
	f := gametest.New(t)
	m := New(f.Env, slowConfig(), knownWords("과자"), []string{"사과"})
	rm := startGame(t, f, m, 3)

	gametest.Locked(rm, func() {
		rm.Players = rm.Players[1:]
		assert.False(t, m.PlayerDeparted(rm, "p1"))
	})
	st, _ := m.State(rm)
	assert.Equal(t, "p2", st.(State).Turn)
	require.NoError(t, m.Submit(context.Background(), rm.ID, "p2", "과자"))

	gametest.Locked(rm, func() {
		rm.Players = rm.Players[1:]
		assert.True(t, m.PlayerDeparted(rm, "p2"))
	})
	assert.Len(t, f.Publisher.OfType(events.RoomTopic(rm.ID), events.GameForceEnded), 1)
}
