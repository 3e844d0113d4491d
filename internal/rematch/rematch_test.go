package rematch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFiresOnceWhenEveryoneAgrees(t *testing.T) {
	tr := New()
	players := []string{"a", "b", "c"}

	tally, agreed := tr.Vote("r1", "omok", "a", players)
	assert.False(t, agreed)
	assert.Equal(t, Tally{Game: "omok", Voters: []string{"a"}, Votes: 1, Needed: 3}, tally)

	_, agreed = tr.Vote("r1", "omok", "a", players)
	assert.False(t, agreed)
	_, agreed = tr.Vote("r1", "omok", "b", players)
	assert.False(t, agreed)
	_, agreed = tr.Vote("r1", "omok", "c", players)
	assert.True(t, agreed)

	assert.Equal(t, 0, tr.Count("r1"))
	_, agreed = tr.Vote("r1", "omok", "c", players)
	assert.False(t, agreed)
}

func TestUsesCurrentPlayerCount(t *testing.T) {
	tr := New()
	tr.Vote("r1", "omok", "a", []string{"a", "b", "c"})
	tr.Vote("r1", "omok", "b", []string{"a", "b", "c"})

	_, agreed := tr.Vote("r1", "omok", "a", []string{"a", "b"})
	assert.True(t, agreed)
}

func TestVotesFromDepartedPlayersAreDropped(t *testing.T) {
	tr := New()
	tr.Vote("r1", "omok", "c", []string{"a", "b", "c"})

	tally, agreed := tr.Vote("r1", "omok", "a", []string{"a", "b"})
	assert.False(t, agreed)
	assert.Equal(t, []string{"a"}, tally.Voters)
}

func TestSpectatorVoteIgnored(t *testing.T) {
	tr := New()
	tally, agreed := tr.Vote("r1", "omok", "s", []string{"a"})
	assert.False(t, agreed)
	assert.Equal(t, 0, tally.Votes)
}

func TestWithdrawAndClear(t *testing.T) {
	tr := New()
	tr.Vote("r1", "omok", "a", []string{"a", "b"})
	tr.Vote("r2", "omok", "a", []string{"a", "b"})

	tr.Withdraw("r1", "a")
	tr.Clear("r2")

	assert.Equal(t, 0, tr.Count("r1"))
	assert.Equal(t, 0, tr.Count("r2"))
}

func TestRoomsAreIndependent(t *testing.T) {
	tr := New()
	tr.Vote("r1", "omok", "a", []string{"a", "b"})

	_, agreed := tr.Vote("r2", "omok", "b", []string{"a", "b"})
	assert.False(t, agreed)
	assert.Equal(t, 1, tr.Count("r1"))
}

func TestVotesForAnotherGameAreDiscarded(t *testing.T) {
	tr := New()
	players := []string{"a", "b"}
	tr.Vote("r1", "omok", "b", players)

	tally, agreed := tr.Vote("r1", "word-chain", "a", players)
	assert.False(t, agreed)
	assert.Equal(t, Tally{Game: "word-chain", Voters: []string{"a"}, Votes: 1, Needed: 2}, tally)

	_, agreed = tr.Vote("r1", "word-chain", "b", players)
	assert.True(t, agreed)
}
