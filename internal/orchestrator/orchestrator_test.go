package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anchal00/gameroom/internal/dictionary"
	"github.com/anchal00/gameroom/internal/events"
	"github.com/anchal00/gameroom/internal/game"
	"github.com/anchal00/gameroom/internal/game/aim"
	"github.com/anchal00/gameroom/internal/game/gametest"
	"github.com/anchal00/gameroom/internal/game/liar"
	"github.com/anchal00/gameroom/internal/game/omok"
	"github.com/anchal00/gameroom/internal/game/reaction"
	"github.com/anchal00/gameroom/internal/game/twentyq"
	"github.com/anchal00/gameroom/internal/game/wordchain"
	"github.com/anchal00/gameroom/internal/logger"
	"github.com/anchal00/gameroom/internal/room"
	"github.com/stretchr/testify/suite"
)

type fakeUsers map[string]room.Identity

var errNoUser = errors.New("no such user")

func (f fakeUsers) GetUserById(_ context.Context, id string) (room.Identity, error) {
	u, ok := f[id]
	if !ok {
		return room.Identity{}, errNoUser
	}
	return u, nil
}

type OrchestratorTestSuite struct {
	suite.Suite
	ctx     context.Context
	fixture *gametest.Fixture
	orch    *Orchestrator
}

func (suite *OrchestratorTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.fixture = gametest.New(suite.T())
	env := suite.fixture.Env
	hour := time.Hour
	users := fakeUsers{}
	for _, id := range []string{"u1", "u2", "u3", "u4"} {
		users[id] = room.Identity{UserID: id, Name: "User " + id, Level: 1}
	}
	dict := dictionary.NewValidator(dictionary.DefaultStaticList(), nil, dictionary.Options{}, logger.Nop())
	games := Games{
		Aim:       aim.New(env, aim.Config{Duration: hour, Tick: hour, MaxTargets: 3, SpawnEvery: 2, TargetTTL: hour}),
		Omok:      omok.New(env, omok.Config{TurnDuration: hour, Tick: hour}),
		WordChain: wordchain.New(env, wordchain.Config{TurnDuration: hour, Tick: hour}, dict, []string{"사과"}),
		TwentyQ:   twentyq.New(env),
		Liar:      liar.New(env, liar.Config{Reveal: hour, Discussion: hour, Voting: hour, Guess: hour, Tick: hour}, liar.DefaultBank()),
		Reaction:  reaction.New(env, reaction.Config{MinDelay: hour, MaxDelay: hour, Window: hour}),
	}
	suite.orch = New(env, users, games, Config{CountdownFrom: 3, CountdownTick: 5 * time.Millisecond}, logger.Nop())
}

func TestOrchestratorSuite(t *testing.T) {
	suite.Run(t, new(OrchestratorTestSuite))
}

func (suite *OrchestratorTestSuite) dispatch(userID string, cmd Command) error {
	return suite.orch.Dispatch(suite.ctx, userID, cmd)
}

func (suite *OrchestratorTestSuite) createRoom(host string, g room.GameType, maxPlayers int) string {
	suite.Require().NoError(suite.dispatch(host, CreateRoom{Name: "room", Game: g, MaxPlayers: maxPlayers}))
	roomID, ok := suite.orch.RoomOf(host)
	suite.Require().True(ok)
	return roomID
}

// readyRoom creates a room hosted by u1 with the given guests joined and
// ready.
func (suite *OrchestratorTestSuite) readyRoom(g room.GameType, guests ...string) string {
	roomID := suite.createRoom("u1", g, 4)
	for _, id := range guests {
		suite.Require().NoError(suite.dispatch(id, JoinRoom{RoomID: roomID}))
		suite.Require().NoError(suite.dispatch(id, ToggleReady{RoomID: roomID}))
	}
	return roomID
}

func (suite *OrchestratorTestSuite) snapshot(roomID string) room.Snapshot {
	snap, err := suite.orch.Room(roomID)
	suite.Require().NoError(err)
	return snap
}

func (suite *OrchestratorTestSuite) TestJoinFullRoomOverflowsToSpectators() {
	roomID := suite.createRoom("u1", room.GameOmok, 2)
	suite.Require().NoError(suite.dispatch("u2", JoinRoom{RoomID: roomID}))
	suite.Require().NoError(suite.dispatch("u3", JoinRoom{RoomID: roomID}))

	snap := suite.snapshot(roomID)
	suite.Len(snap.Players, 2)
	suite.Require().Len(snap.Spectators, 1)
	suite.Equal("u3", snap.Spectators[0].UserID)

	acks := suite.fixture.Publisher.OfType(events.UserTopic("u3"), events.Ack)
	suite.Require().Len(acks, 1)
	suite.Equal("join-room", acks[0].Payload.(Reply).Command)
}

func (suite *OrchestratorTestSuite) TestHostLeavingOmokForceEndsFirst() {
	roomID := suite.readyRoom(room.GameOmok, "u2")
	suite.Require().NoError(suite.dispatch("u1", StartGame{RoomID: roomID}))
	suite.fixture.Publisher.Reset()

	suite.Require().NoError(suite.dispatch("u1", LeaveRoom{RoomID: roomID}))

	types := suite.fixture.Publisher.Types(events.RoomTopic(roomID))
	suite.Require().NotEmpty(types)
	suite.Equal(events.GameForceEnded, types[0])
	snap := suite.snapshot(roomID)
	suite.False(snap.Playing)
	suite.Equal("u2", snap.HostID)
}

func (suite *OrchestratorTestSuite) TestJoinUnknownRoomRepliesNotFound() {
	err := suite.dispatch("u1", JoinRoom{RoomID: "missing"})
	suite.ErrorIs(err, room.ErrRoomNotFound)

	suite.Len(suite.fixture.Publisher.OfType(events.UserTopic("u1"), events.NotFound), 1)
	suite.Empty(suite.fixture.Publisher.OnTopic(events.RoomTopic("missing")))
}

func (suite *OrchestratorTestSuite) TestUnknownUserCannotCreate() {
	err := suite.dispatch("ghost", CreateRoom{Game: room.GameAim})
	suite.ErrorIs(err, ErrUnknownUser)
	suite.Len(suite.fixture.Publisher.OfType(events.UserTopic("ghost"), events.Rejected), 1)
	suite.Empty(suite.orch.Rooms())
}

func (suite *OrchestratorTestSuite) TestUserOccupiesOneRoom() {
	first := suite.createRoom("u1", room.GameAim, 4)
	suite.Require().NoError(suite.dispatch("u2", JoinRoom{RoomID: first}))
	second := suite.createRoom("u3", room.GameAim, 4)

	suite.Require().NoError(suite.dispatch("u2", JoinRoom{RoomID: second}))

	current, _ := suite.orch.RoomOf("u2")
	suite.Equal(second, current)
	suite.Len(suite.snapshot(first).Players, 1)

	third := suite.createRoom("u1", room.GameOmok, 2)
	suite.NotEqual(first, third)
	_, err := suite.orch.Room(first)
	suite.ErrorIs(err, room.ErrRoomNotFound)
}

func (suite *OrchestratorTestSuite) TestStartRequiresHostAndReadyPlayers() {
	roomID := suite.createRoom("u1", room.GameOmok, 4)
	suite.Require().NoError(suite.dispatch("u2", JoinRoom{RoomID: roomID}))

	suite.ErrorIs(suite.dispatch("u2", StartGame{RoomID: roomID}), room.ErrNotHost)
	suite.ErrorIs(suite.dispatch("u1", StartGame{RoomID: roomID}), ErrNotReady)
	suite.Require().NoError(suite.dispatch("u2", ToggleReady{RoomID: roomID}))
	suite.ErrorIs(suite.dispatch("u1", WordChainStart{RoomID: roomID}), game.ErrRoomPlaysOtherGame)
	suite.Require().NoError(suite.dispatch("u1", OmokStart{RoomID: roomID}))
	suite.ErrorIs(suite.dispatch("u1", StartGame{RoomID: roomID}), game.ErrAlreadyRunning)

	suite.True(suite.snapshot(roomID).Playing)
}

func (suite *OrchestratorTestSuite) TestRejectionOnlyReachesSender() {
	roomID := suite.readyRoom(room.GameWordChain, "u2")
	suite.Require().NoError(suite.dispatch("u1", StartGame{RoomID: roomID}))
	suite.fixture.Publisher.Reset()

	err := suite.dispatch("u2", WordChainWord{RoomID: roomID, Word: "과자"})
	suite.ErrorIs(err, wordchain.ErrNotYourTurn)

	rejected := suite.fixture.Publisher.OfType(events.UserTopic("u2"), events.Rejected)
	suite.Require().Len(rejected, 1)
	suite.Equal(Reply{Command: "word-chain-word", Reason: "not-your-turn"}, rejected[0].Payload)
	suite.Empty(suite.fixture.Publisher.OnTopic(events.RoomTopic(roomID)))
}

func (suite *OrchestratorTestSuite) TestWordChainThroughDispatch() {
	roomID := suite.readyRoom(room.GameWordChain, "u2")
	suite.Require().NoError(suite.dispatch("u1", StartGame{RoomID: roomID}))

	suite.Require().NoError(suite.dispatch("u1", WordChainWord{RoomID: roomID, Word: "과자"}))
	suite.Require().NoError(suite.dispatch("u2", WordChainWord{RoomID: roomID, Word: "자동차"}))
	suite.ErrorIs(suite.dispatch("u1", WordChainWord{RoomID: roomID, Word: "과자"}), wordchain.ErrBadLink)
}

func (suite *OrchestratorTestSuite) TestRematchRestartsWhenEveryoneAgrees() {
	roomID := suite.readyRoom(room.GameTwentyQ, "u2")
	suite.Require().NoError(suite.dispatch("u1", TwentyQStart{RoomID: roomID}))
	suite.Require().NoError(suite.dispatch("u1", TwentyQSelect{RoomID: roomID, Category: "fruit", Answer: "apple"}))
	suite.Require().NoError(suite.dispatch("u2", TwentyQGuess{RoomID: roomID, Guess: "Apple"}))
	suite.False(suite.snapshot(roomID).Playing)

	suite.fixture.Publisher.Reset()
	suite.ErrorIs(suite.dispatch("u1", OmokRematch{RoomID: roomID}), game.ErrRoomPlaysOtherGame)
	suite.ErrorIs(suite.dispatch("u3", TwentyQRematch{RoomID: roomID}), game.ErrNotPlayer)
	suite.Require().NoError(suite.dispatch("u1", TwentyQRematch{RoomID: roomID}))
	suite.False(suite.snapshot(roomID).Playing)
	suite.Require().NoError(suite.dispatch("u2", TwentyQRematch{RoomID: roomID}))

	suite.True(suite.snapshot(roomID).Playing)
	suite.Len(suite.fixture.Publisher.OfType(events.RoomTopic(roomID), events.RematchVote), 2)
	suite.Len(suite.fixture.Publisher.OfType(events.RoomTopic(roomID), events.GameStarted), 1)
}

func (suite *OrchestratorTestSuite) TestRematchRejectedWhilePlaying() {
	roomID := suite.readyRoom(room.GameOmok, "u2")
	suite.Require().NoError(suite.dispatch("u1", StartGame{RoomID: roomID}))

	suite.ErrorIs(suite.dispatch("u2", OmokRematch{RoomID: roomID}), game.ErrAlreadyRunning)
}

// finishTwentyQ plays a twenty-questions round in a ready room to its end.
func (suite *OrchestratorTestSuite) finishTwentyQ(roomID string) {
	suite.Require().NoError(suite.dispatch("u1", TwentyQStart{RoomID: roomID}))
	suite.Require().NoError(suite.dispatch("u1", TwentyQSelect{RoomID: roomID, Category: "fruit", Answer: "apple"}))
	suite.Require().NoError(suite.dispatch("u2", TwentyQGuess{RoomID: roomID, Guess: "apple"}))
	suite.Require().True(suite.snapshot(roomID).GameOver)
}

func (suite *OrchestratorTestSuite) TestRematchNeedsFinishedGame() {
	roomID := suite.createRoom("u1", room.GameOmok, 4)
	suite.Require().NoError(suite.dispatch("u2", JoinRoom{RoomID: roomID}))

	suite.ErrorIs(suite.dispatch("u2", OmokRematch{RoomID: roomID}), ErrNoGameOver)
	suite.ErrorIs(suite.dispatch("u1", OmokRematch{RoomID: roomID}), ErrNoGameOver)

	suite.False(suite.snapshot(roomID).Playing)
	suite.Empty(suite.fixture.Publisher.OfType(events.RoomTopic(roomID), events.RematchVote))
}

func (suite *OrchestratorTestSuite) TestBackToWaitingClosesRematch() {
	roomID := suite.readyRoom(room.GameTwentyQ, "u2")
	suite.finishTwentyQ(roomID)
	suite.Require().NoError(suite.dispatch("u2", TwentyQRematch{RoomID: roomID}))

	suite.Require().NoError(suite.dispatch("u1", BackToWaiting{RoomID: roomID}))

	suite.False(suite.snapshot(roomID).GameOver)
	suite.ErrorIs(suite.dispatch("u1", TwentyQRematch{RoomID: roomID}), ErrNoGameOver)
	suite.False(suite.snapshot(roomID).Playing)
}

func (suite *OrchestratorTestSuite) TestRematchVotesDoNotCarryAcrossGames() {
	roomID := suite.readyRoom(room.GameTwentyQ, "u2")
	suite.finishTwentyQ(roomID)
	suite.Require().NoError(suite.dispatch("u2", TwentyQRematch{RoomID: roomID}))
	suite.Equal(1, suite.orch.rematch.Count(roomID))

	suite.Require().NoError(suite.dispatch("u1", UpdateSettings{RoomID: roomID, Game: room.GameWordChain}))

	suite.Equal(0, suite.orch.rematch.Count(roomID))
	suite.ErrorIs(suite.dispatch("u1", WordChainRematch{RoomID: roomID}), ErrNoGameOver)
	snap := suite.snapshot(roomID)
	suite.Equal(room.GameWordChain, snap.Game)
	suite.False(snap.Playing)
}

func (suite *OrchestratorTestSuite) TestRefusalsNameTheRoom() {
	roomID := suite.createRoom("u1", room.GameOmok, 4)
	suite.Require().NoError(suite.dispatch("u2", JoinRoom{RoomID: roomID}))

	suite.Error(suite.dispatch("u2", StartGame{RoomID: roomID}))
	suite.Error(suite.dispatch("u3", JoinRoom{RoomID: "missing"}))

	rejected := suite.fixture.Publisher.OfType(events.UserTopic("u2"), events.Rejected)
	suite.Require().Len(rejected, 1)
	suite.Equal(roomID, rejected[0].RoomID)
	notFound := suite.fixture.Publisher.OfType(events.UserTopic("u3"), events.NotFound)
	suite.Require().Len(notFound, 1)
	suite.Equal("missing", notFound[0].RoomID)
}

func (suite *OrchestratorTestSuite) TestLiarStartNeedsFourPlayers() {
	roomID := suite.readyRoom(room.GameLiar, "u2", "u3")

	suite.ErrorIs(suite.dispatch("u1", LiarStart{RoomID: roomID}), game.ErrNotEnoughPlayers)
	suite.Len(suite.fixture.Publisher.OfType(events.UserTopic("u1"), events.Rejected), 1)

	suite.Require().NoError(suite.dispatch("u4", JoinRoom{RoomID: roomID}))
	suite.Require().NoError(suite.dispatch("u4", ToggleReady{RoomID: roomID}))
	suite.Require().NoError(suite.dispatch("u1", LiarStart{RoomID: roomID}))
	for _, id := range []string{"u1", "u2", "u3", "u4"} {
		suite.Len(suite.fixture.Publisher.OfType(events.UserTopic(id), events.LiarRole), 1)
	}
}

func (suite *OrchestratorTestSuite) TestCountdown() {
	roomID := suite.createRoom("u1", room.GameAim, 4)
	suite.ErrorIs(suite.dispatch("u2", CountdownStart{RoomID: roomID}), room.ErrNotHost)
	suite.Require().NoError(suite.dispatch("u1", CountdownStart{RoomID: roomID}))

	suite.Eventually(func() bool {
		return len(suite.fixture.Publisher.OfType(events.RoomTopic(roomID), events.CountdownDone)) == 1
	}, time.Second, time.Millisecond)
	suite.Len(suite.fixture.Publisher.OfType(events.RoomTopic(roomID), events.Countdown), 3)
}

func (suite *OrchestratorTestSuite) TestBackToWaitingStopsGame() {
	roomID := suite.readyRoom(room.GameAim, "u2")
	suite.Require().NoError(suite.dispatch("u1", StartGame{RoomID: roomID}))

	suite.ErrorIs(suite.dispatch("u2", BackToWaiting{RoomID: roomID}), room.ErrNotHost)
	suite.Require().NoError(suite.dispatch("u1", BackToWaiting{RoomID: roomID}))

	snap := suite.snapshot(roomID)
	suite.False(snap.Playing)
	suite.False(snap.Players[1].Ready)
	suite.ErrorIs(suite.dispatch("u2", AimHit{RoomID: roomID, TargetID: 1}), game.ErrNoSession)
	suite.Len(suite.fixture.Publisher.OfType(events.UserTopic("u2"), events.NotFound), 1)
}

func (suite *OrchestratorTestSuite) TestRequestGameState() {
	roomID := suite.readyRoom(room.GameTwentyQ, "u2")
	suite.ErrorIs(suite.dispatch("u2", RequestGameState{RoomID: roomID}), game.ErrNoSession)

	suite.Require().NoError(suite.dispatch("u1", StartGame{RoomID: roomID}))
	suite.Require().NoError(suite.dispatch("u2", RequestGameState{RoomID: roomID}))

	states := suite.fixture.Publisher.OfType(events.UserTopic("u2"), events.GameState)
	suite.Require().Len(states, 1)
	suite.Equal("u1", states[0].Payload.(twentyq.State).Questioner)
	suite.ErrorIs(suite.dispatch("u3", RequestGameState{RoomID: roomID}), room.ErrNotInRoom)
}

func (suite *OrchestratorTestSuite) TestDeleteRoomStopsSession() {
	roomID := suite.readyRoom(room.GameAim, "u2")
	suite.Require().NoError(suite.dispatch("u1", StartGame{RoomID: roomID}))
	rm, ok := suite.fixture.Rooms.Get(roomID)
	suite.Require().True(ok)

	suite.ErrorIs(suite.dispatch("u2", DeleteRoom{RoomID: roomID}), room.ErrNotHost)
	suite.Require().NoError(suite.dispatch("u1", DeleteRoom{RoomID: roomID}))

	_, running := suite.orch.games.Aim.State(rm)
	suite.False(running)
	suite.Len(suite.fixture.Publisher.OfType(events.RoomTopic(roomID), events.RoomDeleted), 1)
	_, inRoom := suite.orch.RoomOf("u2")
	suite.False(inRoom)
}

func (suite *OrchestratorTestSuite) TestSwitchRoleIntoFullRoom() {
	roomID := suite.createRoom("u1", room.GameOmok, 2)
	suite.Require().NoError(suite.dispatch("u2", JoinRoom{RoomID: roomID}))
	suite.Require().NoError(suite.dispatch("u3", JoinRoom{RoomID: roomID}))

	suite.ErrorIs(suite.dispatch("u3", SwitchRole{RoomID: roomID}), room.ErrRoomFull)
	suite.Require().NoError(suite.dispatch("u2", SwitchRole{RoomID: roomID}))
	suite.Require().NoError(suite.dispatch("u3", SwitchRole{RoomID: roomID}))

	snap := suite.snapshot(roomID)
	suite.Equal([]string{"u1", "u3"}, []string{snap.Players[0].UserID, snap.Players[1].UserID})
}

func (suite *OrchestratorTestSuite) TestDisconnectLeavesRoom() {
	roomID := suite.createRoom("u1", room.GameAim, 4)
	suite.Require().NoError(suite.dispatch("u2", JoinRoom{RoomID: roomID}))

	suite.orch.Disconnect("u2")

	_, ok := suite.orch.RoomOf("u2")
	suite.False(ok)
	suite.Len(suite.snapshot(roomID).Players, 1)
}
