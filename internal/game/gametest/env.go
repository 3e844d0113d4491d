// Package gametest builds minigame environments for tests.
package gametest

import (
	"fmt"
	"testing"

	"github.com/anchal00/gameroom/internal/events/eventstest"
	"github.com/anchal00/gameroom/internal/game"
	"github.com/anchal00/gameroom/internal/logger"
	"github.com/anchal00/gameroom/internal/room"
	"github.com/anchal00/gameroom/internal/scheduler"
	"github.com/stretchr/testify/require"
)

type Fixture struct {
	Env       *game.Env
	Publisher *eventstest.Recorder
	Rooms     *room.Registry
}

func New(t *testing.T) *Fixture {
	t.Helper()
	publisher := eventstest.NewRecorder()
	rooms := room.NewRegistry(publisher, 8, logger.Nop())
	sched := scheduler.New(2, 64, logger.Nop())
	t.Cleanup(sched.Close)
	return &Fixture{
		Env:       game.NewEnv(rooms, publisher, sched, logger.Nop()),
		Publisher: publisher,
		Rooms:     rooms,
	}
}

// Room creates a room for g with players p1..pN, p1 hosting.
func (f *Fixture) Room(t *testing.T, g room.GameType, players int) *room.Room {
	t.Helper()
	snap, err := f.Rooms.Create(room.CreateParams{
		Game: g, Host: room.Identity{UserID: "p1", Name: "P1"}, MaxPlayers: 8,
	})
	require.NoError(t, err)
	for i := 2; i <= players; i++ {
		id := fmt.Sprintf("p%d", i)
		_, err := f.Rooms.Join(snap.ID, room.Identity{UserID: id, Name: fmt.Sprintf("P%d", i)})
		require.NoError(t, err)
	}
	rm, ok := f.Rooms.Get(snap.ID)
	require.True(t, ok)
	return rm
}

// Locked runs fn with rm locked.
func Locked(rm *room.Room, fn func()) {
	rm.Lock()
	defer rm.Unlock()
	fn()
}
