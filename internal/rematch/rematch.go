// Package rematch collects "play again" votes per room and reports when every
// current player agreed.
package rematch

import (
	"slices"
	"sync"

	"github.com/hashicorp/go-set/v3"
)

type Tally struct {
	Game   string   `json:"game"`
	Voters []string `json:"voters"`
	Votes  int      `json:"votes"`
	Needed int      `json:"needed"`
}

// ballot is one room's open round of voting, for one game.
type ballot struct {
	game   string
	voters *set.Set[string]
}

type Tracker struct {
	mu    sync.Mutex
	rooms map[string]*ballot
}

func New() *Tracker {
	return &Tracker{rooms: make(map[string]*ballot)}
}

// Vote records userID's vote to play game again. players is the room's
// current player list; votes from users no longer in it are discarded first,
// and votes cast for a different game are thrown away. When the votes cover
// every player the room's votes are cleared and agreed is true, so a round of
// voting fires at most once.
func (t *Tracker) Vote(roomID, game, userID string, players []string) (tally Tally, agreed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	current := set.From(players)
	b, ok := t.rooms[roomID]
	if !ok || b.game != game {
		b = &ballot{game: game, voters: set.New[string](len(players))}
		t.rooms[roomID] = b
	}
	b.voters.RemoveFunc(func(id string) bool { return !current.Contains(id) })
	if current.Contains(userID) {
		b.voters.Insert(userID)
	}
	tally = Tally{Game: game, Voters: slices.Sorted(b.voters.Items()), Votes: b.voters.Size(), Needed: len(players)}
	if len(players) > 0 && b.voters.Size() == len(players) {
		delete(t.rooms, roomID)
		return tally, true
	}
	return tally, false
}

// Withdraw drops userID's vote, if any.
func (t *Tracker) Withdraw(roomID, userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.rooms[roomID]; ok {
		b.voters.Remove(userID)
		if b.voters.Empty() {
			delete(t.rooms, roomID)
		}
	}
}

func (t *Tracker) Clear(roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.rooms, roomID)
}

func (t *Tracker) Count(roomID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if b, ok := t.rooms[roomID]; ok {
		return b.voters.Size()
	}
	return 0
}
