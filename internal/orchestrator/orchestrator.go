// Package orchestrator turns client commands into registry and game calls and
// reports the outcome back to the user who sent them.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anchal00/gameroom/internal/events"
	"github.com/anchal00/gameroom/internal/game"
	"github.com/anchal00/gameroom/internal/game/aim"
	"github.com/anchal00/gameroom/internal/game/liar"
	"github.com/anchal00/gameroom/internal/game/omok"
	"github.com/anchal00/gameroom/internal/game/reaction"
	"github.com/anchal00/gameroom/internal/game/twentyq"
	"github.com/anchal00/gameroom/internal/game/wordchain"
	"github.com/anchal00/gameroom/internal/logger"
	"github.com/anchal00/gameroom/internal/rematch"
	"github.com/anchal00/gameroom/internal/room"
	"github.com/anchal00/gameroom/internal/scheduler"
)

var (
	ErrUnknownUser = errors.New("unknown-user")
	ErrNotReady    = errors.New("players-not-ready")
	ErrNoGameOver  = errors.New("no-finished-game")
)

// IdentityStore resolves the durable identity of a user.
type IdentityStore interface {
	GetUserById(ctx context.Context, id string) (room.Identity, error)
}

type Games struct {
	Aim       *aim.Manager
	Omok      *omok.Manager
	WordChain *wordchain.Manager
	TwentyQ   *twentyq.Manager
	Liar      *liar.Manager
	Reaction  *reaction.Manager
}

type Config struct {
	CountdownFrom int
	CountdownTick time.Duration
}

func DefaultConfig() Config {
	return Config{CountdownFrom: 3, CountdownTick: time.Second}
}

type Orchestrator struct {
	env     *game.Env
	rooms   *room.Registry
	users   IdentityStore
	games   Games
	byType  map[room.GameType]game.Game
	rematch *rematch.Tracker
	timers  *game.Sessions[*scheduler.Slot]
	cfg     Config
	log     logger.Logger
}

// New wires the orchestrator and registers it as the registry's observer.
func New(env *game.Env, users IdentityStore, games Games, cfg Config, log logger.Logger) *Orchestrator {
	o := &Orchestrator{
		env:   env,
		rooms: env.Rooms,
		users: users,
		games: games,
		byType: map[room.GameType]game.Game{
			room.GameAim:       games.Aim,
			room.GameOmok:      games.Omok,
			room.GameWordChain: games.WordChain,
			room.GameTwentyQ:   games.TwentyQ,
			room.GameLiar:      games.Liar,
			room.GameReaction:  games.Reaction,
		},
		rematch: rematch.New(),
		timers:  game.NewSessions[*scheduler.Slot](),
		cfg:     cfg,
		log:     log,
	}
	env.Rooms.SetObserver(o)
	return o
}

// Dispatch runs cmd on behalf of userID. Failures are reported to the user's
// own topic and returned for logging; they are never broadcast to the room.
func (o *Orchestrator) Dispatch(ctx context.Context, userID string, cmd Command) error {
	err := o.dispatch(ctx, userID, cmd)
	if err != nil {
		o.reply(userID, cmd, err)
	}
	return err
}

func (o *Orchestrator) dispatch(ctx context.Context, userID string, cmd Command) error {
	switch c := cmd.(type) {
	case CreateRoom:
		return o.createRoom(ctx, userID, c)
	case ListRooms:
		o.ack(userID, "", cmd, o.rooms.List())
		return nil
	case JoinRoom:
		return o.joinRoom(ctx, userID, c.RoomID)
	case LeaveRoom:
		return o.leaveRoom(userID, c.RoomID)
	case DeleteRoom:
		if err := o.rooms.Delete(c.RoomID, userID); err != nil {
			return err
		}
		o.ack(userID, c.RoomID, cmd, nil)
		return nil
	case UpdateSettings:
		snap, err := o.rooms.UpdateSettings(c.RoomID, userID, c.Game, c.MaxPlayers)
		if err != nil {
			return err
		}
		// Switching games leaves nothing to rematch.
		if !snap.GameOver {
			o.rematch.Clear(c.RoomID)
		}
		o.ack(userID, c.RoomID, cmd, snap)
		return nil
	case ToggleReady:
		snap, err := o.rooms.ToggleReady(c.RoomID, userID)
		if err != nil {
			return err
		}
		o.ack(userID, c.RoomID, cmd, snap)
		return nil
	case SwitchRole:
		snap, ok, err := o.rooms.SwitchRole(c.RoomID, userID)
		if err != nil {
			return err
		}
		if !ok {
			return room.ErrRoomFull
		}
		o.ack(userID, c.RoomID, cmd, snap)
		return nil
	case StartGame:
		return o.startGame(userID, c.RoomID, "")
	case RequestGameState:
		return o.gameState(userID, c.RoomID)

	case AimHit:
		return o.games.Aim.Hit(c.RoomID, userID, c.TargetID)

	case OmokStart:
		return o.startGame(userID, c.RoomID, room.GameOmok)
	case OmokMove:
		return o.games.Omok.Move(c.RoomID, userID, c.X, c.Y)
	case OmokRematch:
		return o.rematchVote(userID, c.RoomID, room.GameOmok)

	case WordChainStart:
		return o.startGame(userID, c.RoomID, room.GameWordChain)
	case WordChainWord:
		return o.games.WordChain.Submit(ctx, c.RoomID, userID, c.Word)
	case WordChainRematch:
		return o.rematchVote(userID, c.RoomID, room.GameWordChain)

	case TwentyQStart:
		return o.startGame(userID, c.RoomID, room.GameTwentyQ)
	case TwentyQSelect:
		return o.games.TwentyQ.Select(c.RoomID, userID, c.Category, c.Answer)
	case TwentyQQuestion:
		return o.games.TwentyQ.Ask(c.RoomID, userID, c.Question)
	case TwentyQAnswer:
		return o.games.TwentyQ.Answer(c.RoomID, userID, c.Yes)
	case TwentyQGuess:
		return o.games.TwentyQ.Guess(c.RoomID, userID, c.Guess)
	case TwentyQRematch:
		return o.rematchVote(userID, c.RoomID, room.GameTwentyQ)

	case LiarStart:
		return o.startGame(userID, c.RoomID, room.GameLiar)
	case LiarVote:
		return o.games.Liar.Vote(c.RoomID, userID, c.Target)
	case LiarGuess:
		return o.games.Liar.Guess(c.RoomID, userID, c.Guess)
	case LiarChat:
		return o.games.Liar.Chat(c.RoomID, userID, c.Text)
	case LiarRematch:
		return o.rematchVote(userID, c.RoomID, room.GameLiar)

	case ReactionStart:
		return o.startGame(userID, c.RoomID, room.GameReaction)
	case ReactionHit:
		return o.games.Reaction.Hit(c.RoomID, userID)

	case CountdownStart:
		return o.countdown(userID, c.RoomID)
	case BackToWaiting:
		return o.backToWaiting(userID, c.RoomID)
	}
	return fmt.Errorf("unhandled command %T", cmd)
}

type Reply struct {
	Command string `json:"command"`
	Reason  string `json:"reason,omitempty"`
	Result  any    `json:"result,omitempty"`
}

func (o *Orchestrator) ack(userID, roomID string, cmd Command, result any) {
	o.env.Publisher.Publish(events.UserTopic(userID), events.New(events.Ack, roomID, Reply{Command: cmd.kind(), Result: result}))
}

func (o *Orchestrator) reply(userID string, cmd Command, err error) {
	t := events.Rejected
	if errors.Is(err, room.ErrRoomNotFound) || errors.Is(err, game.ErrNoSession) {
		t = events.NotFound
	}
	o.log.Debug(fmt.Sprintf("%s from %s refused: %v", cmd.kind(), userID, err))
	o.env.Publisher.Publish(events.UserTopic(userID), events.New(t, cmd.room(), Reply{Command: cmd.kind(), Reason: err.Error()}))
}

func (o *Orchestrator) identity(ctx context.Context, userID string) (room.Identity, error) {
	id, err := o.users.GetUserById(ctx, userID)
	if err != nil {
		return room.Identity{}, fmt.Errorf("%w: %w", ErrUnknownUser, err)
	}
	return id, nil
}

// leaveCurrent takes the user out of whatever room they occupy, unless it is
// keep.
func (o *Orchestrator) leaveCurrent(userID, keep string) {
	prev, ok := o.rooms.RoomOf(userID)
	if !ok || prev == keep {
		return
	}
	if _, _, err := o.rooms.Leave(prev, userID); err != nil {
		o.log.Debug(fmt.Sprintf("Leaving room %s for %s: %v", prev, userID, err))
		return
	}
	o.rematch.Withdraw(prev, userID)
}

func (o *Orchestrator) createRoom(ctx context.Context, userID string, c CreateRoom) error {
	id, err := o.identity(ctx, userID)
	if err != nil {
		return err
	}
	if !c.Game.Valid() {
		return fmt.Errorf("%w: %q", room.ErrInvalidGame, c.Game)
	}
	o.leaveCurrent(userID, "")
	snap, err := o.rooms.Create(room.CreateParams{
		Name:       c.Name,
		Game:       c.Game,
		Host:       id,
		MaxPlayers: c.MaxPlayers,
		Locked:     c.Locked,
		Coords:     c.Coords,
	})
	if err != nil {
		return err
	}
	o.ack(userID, snap.ID, c, snap)
	return nil
}

func (o *Orchestrator) joinRoom(ctx context.Context, userID, roomID string) error {
	if _, ok := o.rooms.Get(roomID); !ok {
		return room.ErrRoomNotFound
	}
	id, err := o.identity(ctx, userID)
	if err != nil {
		return err
	}
	o.leaveCurrent(userID, roomID)
	snap, err := o.rooms.Join(roomID, id)
	if err != nil {
		return err
	}
	o.ack(userID, roomID, JoinRoom{RoomID: roomID}, snap)
	return nil
}

type Left struct {
	Room    *room.Snapshot `json:"room,omitempty"`
	Deleted bool           `json:"deleted"`
}

func (o *Orchestrator) leaveRoom(userID, roomID string) error {
	snap, deleted, err := o.rooms.Leave(roomID, userID)
	if err != nil {
		return err
	}
	o.rematch.Withdraw(roomID, userID)
	left := Left{Deleted: deleted}
	if !deleted {
		left.Room = &snap
	}
	o.ack(userID, roomID, LeaveRoom{RoomID: roomID}, left)
	return nil
}

// Disconnect removes the user from their room, if any.
func (o *Orchestrator) Disconnect(userID string) {
	o.leaveCurrent(userID, "")
}

// RoomOf returns the room the user occupies.
func (o *Orchestrator) RoomOf(userID string) (string, bool) {
	return o.rooms.RoomOf(userID)
}

func (o *Orchestrator) Rooms() []room.Summary {
	return o.rooms.List()
}

func (o *Orchestrator) Room(roomID string) (room.Snapshot, error) {
	rm, err := o.rooms.Acquire(roomID)
	if err != nil {
		return room.Snapshot{}, err
	}
	defer rm.Unlock()
	return rm.Snapshot(), nil
}

// startGame starts the room's selected game. want, when set, must match it.
// Only the host may start, and only once every other player is ready.
func (o *Orchestrator) startGame(userID, roomID string, want room.GameType) error {
	rm, err := o.rooms.Acquire(roomID)
	if err != nil {
		return err
	}
	defer rm.Unlock()
	if rm.HostID != userID {
		return room.ErrNotHost
	}
	if want != "" && rm.Game != want {
		return fmt.Errorf("%w: room plays %s", game.ErrRoomPlaysOtherGame, rm.Game)
	}
	if rm.Playing {
		return game.ErrAlreadyRunning
	}
	if !rm.AllReady() {
		return ErrNotReady
	}
	return o.start(rm)
}

func (o *Orchestrator) start(rm *room.Room) error {
	g, ok := o.byType[rm.Game]
	if !ok {
		return fmt.Errorf("%w: %q", room.ErrInvalidGame, rm.Game)
	}
	o.stopCountdown(rm.ID)
	o.rematch.Clear(rm.ID)
	return g.Start(rm)
}

// rematchVote records a play-again vote on the game that just finished and
// restarts it once every current player has voted.
func (o *Orchestrator) rematchVote(userID, roomID string, want room.GameType) error {
	rm, err := o.rooms.Acquire(roomID)
	if err != nil {
		return err
	}
	defer rm.Unlock()
	if rm.Game != want {
		return fmt.Errorf("%w: room plays %s", game.ErrRoomPlaysOtherGame, rm.Game)
	}
	if rm.Playing {
		return game.ErrAlreadyRunning
	}
	if !rm.GameOver {
		return ErrNoGameOver
	}
	if !rm.IsPlayer(userID) {
		return game.ErrNotPlayer
	}
	tally, agreed := o.rematch.Vote(rm.ID, string(want), userID, rm.PlayerIDs())
	o.env.Broadcast(rm, events.RematchVote, tally)
	if !agreed {
		return nil
	}
	o.log.Info(fmt.Sprintf("Rematch agreed in room %s", rm.ID))
	return o.start(rm)
}

func (o *Orchestrator) gameState(userID, roomID string) error {
	rm, err := o.rooms.Acquire(roomID)
	if err != nil {
		return err
	}
	defer rm.Unlock()
	if !rm.Has(userID) {
		return room.ErrNotInRoom
	}
	st, ok := o.byType[rm.Game].State(rm)
	if !ok {
		return game.ErrNoSession
	}
	o.env.Tell(userID, rm, events.GameState, st)
	return nil
}

// slot returns the room's countdown timer. Must be called with the room
// locked.
func (o *Orchestrator) slot(roomID string) *scheduler.Slot {
	if s, ok := o.timers.Get(roomID); ok {
		return s
	}
	s := o.env.Scheduler.NewSlot()
	o.timers.Put(roomID, s)
	return s
}

func (o *Orchestrator) stopCountdown(roomID string) {
	if s, ok := o.timers.Get(roomID); ok {
		s.Stop()
	}
}

// countdown broadcasts CountdownFrom..1 once per tick and then
// countdown-finished.
func (o *Orchestrator) countdown(userID, roomID string) error {
	rm, err := o.rooms.Acquire(roomID)
	if err != nil {
		return err
	}
	defer rm.Unlock()
	if rm.HostID != userID {
		return room.ErrNotHost
	}
	if rm.Playing {
		return game.ErrAlreadyRunning
	}
	remaining := o.cfg.CountdownFrom
	slot := o.slot(roomID)
	o.env.Broadcast(rm, events.Countdown, map[string]int{"remaining": remaining})
	slot.Every(o.cfg.CountdownTick, func(h *scheduler.Handle) {
		o.env.WithRoom(roomID, func(rm *room.Room) {
			if !slot.Owns(h) {
				return
			}
			remaining--
			if remaining > 0 {
				o.env.Broadcast(rm, events.Countdown, map[string]int{"remaining": remaining})
				return
			}
			slot.Stop()
			o.env.Broadcast(rm, events.CountdownDone, nil)
		})
	})
	return nil
}

// backToWaiting lets the host abandon whatever is running and return the room
// to the waiting state.
func (o *Orchestrator) backToWaiting(userID, roomID string) error {
	rm, err := o.rooms.Acquire(roomID)
	if err != nil {
		return err
	}
	defer rm.Unlock()
	if rm.HostID != userID {
		return room.ErrNotHost
	}
	if g, ok := o.byType[rm.Game]; ok && rm.Playing {
		g.Stop(rm)
	}
	o.stopCountdown(rm.ID)
	o.rematch.Clear(rm.ID)
	rm.Finish()
	rm.GameOver = false
	o.env.Broadcast(rm, events.BackToWaiting, nil)
	o.rooms.Announce(rm)
	return nil
}

// PlayerDeparted is called by the registry, with the room locked, when a
// player leaves a room that is playing.
func (o *Orchestrator) PlayerDeparted(rm *room.Room, userID string) {
	if g, ok := o.byType[rm.Game]; ok {
		g.PlayerDeparted(rm, userID)
	}
}

// RoomClosed drops every piece of per-room state.
func (o *Orchestrator) RoomClosed(rm *room.Room) {
	if g, ok := o.byType[rm.Game]; ok {
		g.Stop(rm)
	}
	o.stopCountdown(rm.ID)
	o.timers.Delete(rm.ID)
	o.rematch.Clear(rm.ID)
}
