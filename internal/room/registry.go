package room

import (
	"cmp"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/anchal00/gameroom/internal/events"
	"github.com/anchal00/gameroom/internal/logger"
	"github.com/google/uuid"
)

// Observer is told about membership changes that affect a running game.
// Both methods are called with the room locked.
type Observer interface {
	PlayerDeparted(rm *Room, userID string)
	RoomClosed(rm *Room)
}

// Registry owns every live room. Lock order is room first, registry second:
// the registry lock is never held while waiting for a room lock.
type Registry struct {
	mu        sync.RWMutex
	rooms     map[string]*Room
	summaries map[string]Summary
	members   map[string]string

	maxPlayers int
	observer   Observer
	Publisher  events.Publisher
	Logger     logger.Logger
	newID      func() string
}

func NewRegistry(publisher events.Publisher, maxPlayers int, log logger.Logger) *Registry {
	return &Registry{
		rooms:      make(map[string]*Room),
		summaries:  make(map[string]Summary),
		members:    make(map[string]string),
		maxPlayers: maxPlayers,
		Publisher:  publisher,
		Logger:     log,
		newID:      uuid.NewString,
	}
}

func (r *Registry) SetObserver(o Observer) {
	r.observer = o
}

type CreateParams struct {
	Name       string
	Game       GameType
	Host       Identity
	MaxPlayers int
	Locked     bool
	Coords     *Coordinates
}

func (r *Registry) Create(params CreateParams) (Snapshot, error) {
	if !params.Game.Valid() {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrInvalidGame, params.Game)
	}
	host := newPlayer(params.Host)
	host.Host = true
	rm := &Room{
		ID:         r.newID(),
		Name:       params.Name,
		Game:       params.Game,
		HostID:     host.UserID,
		Players:    []*Player{host},
		MaxPlayers: r.clampMax(params.MaxPlayers),
		Locked:     params.Locked,
		Coords:     params.Coords,
		CreatedAt:  time.Now().UTC(),
	}
	if rm.Name == "" {
		rm.Name = host.Name + "'s room"
	}

	rm.Lock()
	defer rm.Unlock()
	r.mu.Lock()
	r.rooms[rm.ID] = rm
	r.members[host.UserID] = rm.ID
	r.mu.Unlock()
	r.Logger.Info(fmt.Sprintf("Room %s created by %s", rm.ID, host.UserID))
	r.Announce(rm)
	return rm.Snapshot(), nil
}

func (r *Registry) clampMax(n int) int {
	if n < 1 || n > r.maxPlayers {
		return r.maxPlayers
	}
	return n
}

func (r *Registry) Get(roomID string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[roomID]
	return rm, ok
}

// Acquire returns the room locked, or ErrRoomNotFound if it is gone. The
// caller must unlock it.
func (r *Registry) Acquire(roomID string) (*Room, error) {
	rm, ok := r.Get(roomID)
	if !ok {
		return nil, ErrRoomNotFound
	}
	rm.Lock()
	if rm.deleted {
		rm.Unlock()
		return nil, ErrRoomNotFound
	}
	return rm, nil
}

// List returns the lobby view of every room, oldest first.
func (r *Registry) List() []Summary {
	r.mu.RLock()
	out := make([]Summary, 0, len(r.summaries))
	for _, s := range r.summaries {
		out = append(out, s)
	}
	created := make(map[string]time.Time, len(r.rooms))
	for id, rm := range r.rooms {
		created[id] = rm.CreatedAt
	}
	r.mu.RUnlock()
	slices.SortFunc(out, func(a, b Summary) int {
		if c := created[a.ID].Compare(created[b.ID]); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// RoomOf returns the room the user currently occupies.
func (r *Registry) RoomOf(userID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.members[userID]
	return id, ok
}

// Join seats the user as a player, or as a spectator when the room is full.
// Joining a room the user is already in changes nothing.
func (r *Registry) Join(roomID string, id Identity) (Snapshot, error) {
	rm, err := r.Acquire(roomID)
	if err != nil {
		return Snapshot{}, err
	}
	defer rm.Unlock()
	if rm.Has(id.UserID) {
		return rm.Snapshot(), nil
	}
	p := newPlayer(id)
	if len(rm.Players) < rm.MaxPlayers {
		rm.Players = append(rm.Players, p)
		r.Logger.Info(fmt.Sprintf("User %s joined room %s as player", id.UserID, roomID))
	} else {
		rm.Spectators = append(rm.Spectators, p)
		r.Logger.Info(fmt.Sprintf("Room %s is full, user %s joined as spectator", roomID, id.UserID))
	}
	r.mu.Lock()
	r.members[id.UserID] = roomID
	r.mu.Unlock()
	r.Announce(rm)
	return rm.Snapshot(), nil
}

// Leave removes the user from the room. The returned bool is true when the
// room was deleted because nobody could take over as host.
func (r *Registry) Leave(roomID, userID string) (Snapshot, bool, error) {
	rm, err := r.Acquire(roomID)
	if err != nil {
		return Snapshot{}, false, err
	}
	defer rm.Unlock()

	wasPlayer := false
	if i := rm.playerIndex(userID); i >= 0 {
		rm.Players = slices.Delete(rm.Players, i, i+1)
		wasPlayer = true
	} else if i := rm.spectatorIndex(userID); i >= 0 {
		rm.Spectators = slices.Delete(rm.Spectators, i, i+1)
	} else {
		return Snapshot{}, false, ErrNotInRoom
	}
	r.mu.Lock()
	delete(r.members, userID)
	r.mu.Unlock()
	r.Logger.Info(fmt.Sprintf("User %s left room %s", userID, roomID))

	// A new host is seated before the observer runs, so a force-end it
	// announces already shows exactly one host.
	if rm.HostID == userID {
		if len(rm.Players) == 0 {
			r.remove(rm)
			return rm.Snapshot(), true, nil
		}
		next := rm.Players[0]
		next.Host = true
		next.Ready = false
		rm.HostID = next.UserID
		r.Logger.Info(fmt.Sprintf("User %s is now host of room %s", next.UserID, roomID))
	}

	if wasPlayer && rm.Playing && r.observer != nil {
		r.observer.PlayerDeparted(rm, userID)
	}
	r.Announce(rm)
	return rm.Snapshot(), false, nil
}

// Delete removes the room on the host's request.
func (r *Registry) Delete(roomID, userID string) error {
	rm, err := r.Acquire(roomID)
	if err != nil {
		return err
	}
	defer rm.Unlock()
	if rm.HostID != userID {
		return ErrNotHost
	}
	r.remove(rm)
	return nil
}

// remove must be called with rm locked.
func (r *Registry) remove(rm *Room) {
	if r.observer != nil {
		r.observer.RoomClosed(rm)
	}
	rm.deleted = true
	rm.Playing = false
	r.mu.Lock()
	delete(r.rooms, rm.ID)
	delete(r.summaries, rm.ID)
	for _, p := range slices.Concat(rm.Players, rm.Spectators) {
		if r.members[p.UserID] == rm.ID {
			delete(r.members, p.UserID)
		}
	}
	r.mu.Unlock()
	r.Logger.Info(fmt.Sprintf("Room %s deleted", rm.ID))
	r.Publisher.Publish(events.RoomTopic(rm.ID), events.New(events.RoomDeleted, rm.ID, nil))
	r.publishLobby()
}

// UpdateSettings changes the game and capacity. Players beyond a lowered
// capacity are moved to the spectators, latest arrivals first, never the host.
func (r *Registry) UpdateSettings(roomID, userID string, game GameType, maxPlayers int) (Snapshot, error) {
	rm, err := r.Acquire(roomID)
	if err != nil {
		return Snapshot{}, err
	}
	defer rm.Unlock()
	if rm.HostID != userID {
		return Snapshot{}, ErrNotHost
	}
	if rm.Playing {
		return Snapshot{}, ErrGameInProgress
	}
	if game != "" {
		if !game.Valid() {
			return Snapshot{}, fmt.Errorf("%w: %q", ErrInvalidGame, game)
		}
		if rm.Game != game {
			rm.GameOver = false
		}
		rm.Game = game
	}
	if maxPlayers > 0 {
		rm.MaxPlayers = r.clampMax(maxPlayers)
		for i := len(rm.Players) - 1; i >= 0 && len(rm.Players) > rm.MaxPlayers; i-- {
			p := rm.Players[i]
			if p.Host {
				continue
			}
			p.Ready = false
			rm.Players = slices.Delete(rm.Players, i, i+1)
			rm.Spectators = append(rm.Spectators, p)
			r.Logger.Debug(fmt.Sprintf("Moved %s to spectators in room %s", p.UserID, roomID))
		}
	}
	r.Announce(rm)
	return rm.Snapshot(), nil
}

func (r *Registry) ToggleReady(roomID, userID string) (Snapshot, error) {
	rm, err := r.Acquire(roomID)
	if err != nil {
		return Snapshot{}, err
	}
	defer rm.Unlock()
	p := rm.Player(userID)
	if p == nil {
		return Snapshot{}, ErrNotInRoom
	}
	if rm.Playing {
		return Snapshot{}, ErrGameInProgress
	}
	p.Ready = !p.Ready
	r.Announce(rm)
	return rm.Snapshot(), nil
}

// SwitchRole moves a player to the spectators or a spectator to the players.
// It returns false without changing anything when a spectator asks for a
// seat in a full room.
func (r *Registry) SwitchRole(roomID, userID string) (Snapshot, bool, error) {
	rm, err := r.Acquire(roomID)
	if err != nil {
		return Snapshot{}, false, err
	}
	defer rm.Unlock()

	if i := rm.playerIndex(userID); i >= 0 {
		p := rm.Players[i]
		p.Ready = false
		rm.Players = slices.Delete(rm.Players, i, i+1)
		rm.Spectators = append(rm.Spectators, p)
		if rm.Playing && r.observer != nil {
			r.observer.PlayerDeparted(rm, userID)
		}
		r.Announce(rm)
		return rm.Snapshot(), true, nil
	}
	i := rm.spectatorIndex(userID)
	if i < 0 {
		return Snapshot{}, false, ErrNotInRoom
	}
	if rm.Playing {
		return Snapshot{}, false, ErrGameInProgress
	}
	if len(rm.Players) >= rm.MaxPlayers {
		return rm.Snapshot(), false, nil
	}
	p := rm.Spectators[i]
	rm.Spectators = slices.Delete(rm.Spectators, i, i+1)
	rm.Players = append(rm.Players, p)
	r.Announce(rm)
	return rm.Snapshot(), true, nil
}

// Announce publishes the room to its own topic and refreshes the lobby feed.
// Must be called with rm locked.
func (r *Registry) Announce(rm *Room) {
	if rm.deleted {
		return
	}
	r.mu.Lock()
	r.summaries[rm.ID] = rm.summary()
	r.mu.Unlock()
	r.Publisher.Publish(events.RoomTopic(rm.ID), events.New(events.RoomUpdated, rm.ID, rm.Snapshot()))
	r.publishLobby()
}

func (r *Registry) publishLobby() {
	r.Publisher.Publish(events.LobbyTopic, events.New(events.RoomsUpdated, "", r.List()))
}
