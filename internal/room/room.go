package room

import (
	"errors"
	"slices"
	"sync"
	"time"
)

var (
	ErrRoomNotFound   = errors.New("room-not-found")
	ErrNotInRoom      = errors.New("not-in-room")
	ErrNotHost        = errors.New("not-host")
	ErrRoomFull       = errors.New("room-full")
	ErrGameInProgress = errors.New("game-in-progress")
	ErrInvalidGame    = errors.New("invalid-game")
)

type GameType string

const (
	GameAim       GameType = "aim"
	GameOmok      GameType = "omok"
	GameWordChain GameType = "word-chain"
	GameTwentyQ   GameType = "twenty-q"
	GameLiar      GameType = "liar"
	GameReaction  GameType = "reaction"
)

func (g GameType) Valid() bool {
	switch g {
	case GameAim, GameOmok, GameWordChain, GameTwentyQ, GameLiar, GameReaction:
		return true
	}
	return false
}

type Cosmetics struct {
	Avatar string `json:"avatar,omitempty"`
	Frame  string `json:"frame,omitempty"`
	Title  string `json:"title,omitempty"`
}

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Identity is what the user directory knows about a user.
type Identity struct {
	UserID    string
	Name      string
	Level     int
	Cosmetics Cosmetics
}

type Player struct {
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	Level     int       `json:"level"`
	Ready     bool      `json:"ready"`
	Host      bool      `json:"host"`
	Cosmetics Cosmetics `json:"cosmetics"`
}

func newPlayer(id Identity) *Player {
	return &Player{UserID: id.UserID, Name: id.Name, Level: id.Level, Cosmetics: id.Cosmetics}
}

// Room is one lobby. Every field is guarded by the room's lock; callers that
// read or mutate a room outside the Registry must hold it.
type Room struct {
	mu sync.Mutex

	ID         string
	Name       string
	Game       GameType
	HostID     string
	Players    []*Player
	Spectators []*Player
	MaxPlayers int
	Locked     bool
	Playing    bool
	// GameOver is set when a game ends and cleared when the next one starts
	// or the room goes back to waiting. Rematch votes need it.
	GameOver  bool
	Coords    *Coordinates
	CreatedAt time.Time

	deleted bool
}

func (r *Room) Lock() {
	r.mu.Lock()
}

func (r *Room) Unlock() {
	r.mu.Unlock()
}

// Deleted reports whether the room was removed from the registry while the
// caller was waiting for the lock. Must be called with the lock held.
func (r *Room) Deleted() bool {
	return r.deleted
}

func (r *Room) Player(userID string) *Player {
	for _, p := range r.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (r *Room) IsPlayer(userID string) bool {
	return r.Player(userID) != nil
}

func (r *Room) spectatorIndex(userID string) int {
	return slices.IndexFunc(r.Spectators, func(p *Player) bool { return p.UserID == userID })
}

func (r *Room) playerIndex(userID string) int {
	return slices.IndexFunc(r.Players, func(p *Player) bool { return p.UserID == userID })
}

func (r *Room) Has(userID string) bool {
	return r.playerIndex(userID) >= 0 || r.spectatorIndex(userID) >= 0
}

// PlayerIDs returns the players in arrival order.
func (r *Room) PlayerIDs() []string {
	ids := make([]string, len(r.Players))
	for i, p := range r.Players {
		ids[i] = p.UserID
	}
	return ids
}

func (r *Room) PlayerName(userID string) string {
	if p := r.Player(userID); p != nil {
		return p.Name
	}
	if i := r.spectatorIndex(userID); i >= 0 {
		return r.Spectators[i].Name
	}
	return ""
}

// Finish marks the game over: the room leaves the playing state and every
// player but the host has to ready up again.
func (r *Room) Finish() {
	r.Playing = false
	for _, p := range r.Players {
		if !p.Host {
			p.Ready = false
		}
	}
}

// AllReady reports whether every non-host player is ready.
func (r *Room) AllReady() bool {
	for _, p := range r.Players {
		if !p.Host && !p.Ready {
			return false
		}
	}
	return true
}

type Snapshot struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Game       GameType     `json:"game"`
	HostID     string       `json:"hostId"`
	Players    []Player     `json:"players"`
	Spectators []Player     `json:"spectators"`
	MaxPlayers int          `json:"maxPlayers"`
	Locked     bool         `json:"locked"`
	Playing    bool         `json:"playing"`
	GameOver   bool         `json:"gameOver"`
	Coords     *Coordinates `json:"coords,omitempty"`
}

// Snapshot copies the room. Must be called with the lock held.
func (r *Room) Snapshot() Snapshot {
	s := Snapshot{
		ID:         r.ID,
		Name:       r.Name,
		Game:       r.Game,
		HostID:     r.HostID,
		Players:    make([]Player, len(r.Players)),
		Spectators: make([]Player, len(r.Spectators)),
		MaxPlayers: r.MaxPlayers,
		Locked:     r.Locked,
		Playing:    r.Playing,
		GameOver:   r.GameOver,
	}
	for i, p := range r.Players {
		s.Players[i] = *p
	}
	for i, p := range r.Spectators {
		s.Spectators[i] = *p
	}
	if r.Coords != nil {
		c := *r.Coords
		s.Coords = &c
	}
	return s
}

type Summary struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Game        GameType     `json:"game"`
	HostName    string       `json:"hostName"`
	PlayerCount int          `json:"playerCount"`
	MaxPlayers  int          `json:"maxPlayers"`
	Spectators  int          `json:"spectators"`
	Locked      bool         `json:"locked"`
	Playing     bool         `json:"playing"`
	Coords      *Coordinates `json:"coords,omitempty"`
}

func (r *Room) summary() Summary {
	return Summary{
		ID:          r.ID,
		Name:        r.Name,
		Game:        r.Game,
		HostName:    r.PlayerName(r.HostID),
		PlayerCount: len(r.Players),
		MaxPlayers:  r.MaxPlayers,
		Spectators:  len(r.Spectators),
		Locked:      r.Locked,
		Playing:     r.Playing,
		Coords:      r.Coords,
	}
}
