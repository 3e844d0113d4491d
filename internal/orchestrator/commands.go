package orchestrator

import "github.com/anchal00/gameroom/internal/room"

// Command is one decoded client request. The set is closed: Dispatch handles
// every implementation.
type Command interface {
	kind() string
	room() string
}

type CreateRoom struct {
	Name       string
	Game       room.GameType
	MaxPlayers int
	Locked     bool
	Coords     *room.Coordinates
}

type ListRooms struct{}

type JoinRoom struct{ RoomID string }

type LeaveRoom struct{ RoomID string }

type DeleteRoom struct{ RoomID string }

type UpdateSettings struct {
	RoomID     string
	Game       room.GameType
	MaxPlayers int
}

type ToggleReady struct{ RoomID string }

type SwitchRole struct{ RoomID string }

type StartGame struct{ RoomID string }

type RequestGameState struct{ RoomID string }

type AimHit struct {
	RoomID   string
	TargetID int
}

type OmokStart struct{ RoomID string }

type OmokMove struct {
	RoomID string
	X, Y   int
}

type OmokRematch struct{ RoomID string }

type WordChainStart struct{ RoomID string }

type WordChainWord struct {
	RoomID string
	Word   string
}

type WordChainRematch struct{ RoomID string }

type TwentyQStart struct{ RoomID string }

type TwentyQSelect struct {
	RoomID   string
	Category string
	Answer   string
}

type TwentyQQuestion struct {
	RoomID   string
	Question string
}

type TwentyQAnswer struct {
	RoomID string
	Yes    bool
}

type TwentyQGuess struct {
	RoomID string
	Guess  string
}

type TwentyQRematch struct{ RoomID string }

type LiarStart struct{ RoomID string }

type LiarVote struct {
	RoomID string
	Target string
}

type LiarGuess struct {
	RoomID string
	Guess  string
}

type LiarChat struct {
	RoomID string
	Text   string
}

type LiarRematch struct{ RoomID string }

type ReactionStart struct{ RoomID string }

type ReactionHit struct{ RoomID string }

type CountdownStart struct{ RoomID string }

type BackToWaiting struct{ RoomID string }

func (CreateRoom) kind() string       { return "create-room" }
func (ListRooms) kind() string        { return "list-rooms" }
func (JoinRoom) kind() string         { return "join-room" }
func (LeaveRoom) kind() string        { return "leave-room" }
func (DeleteRoom) kind() string       { return "delete-room" }
func (UpdateSettings) kind() string   { return "update-room-settings" }
func (ToggleReady) kind() string      { return "toggle-ready" }
func (SwitchRole) kind() string       { return "switch-role" }
func (StartGame) kind() string        { return "start-game" }
func (RequestGameState) kind() string { return "request-game-state" }
func (AimHit) kind() string           { return "hit" }
func (OmokStart) kind() string        { return "omok-start" }
func (OmokMove) kind() string         { return "omok-move" }
func (OmokRematch) kind() string      { return "omok-rematch-request" }
func (WordChainStart) kind() string   { return "word-chain-start" }
func (WordChainWord) kind() string    { return "word-chain-word" }
func (WordChainRematch) kind() string { return "word-chain-rematch-request" }
func (TwentyQStart) kind() string     { return "twenty-q-start" }
func (TwentyQSelect) kind() string    { return "twenty-q-word-selected" }
func (TwentyQQuestion) kind() string  { return "twenty-q-question" }
func (TwentyQAnswer) kind() string    { return "twenty-q-answer" }
func (TwentyQGuess) kind() string     { return "twenty-q-guess" }
func (TwentyQRematch) kind() string   { return "twenty-q-rematch-request" }
func (LiarStart) kind() string        { return "liar-game-start" }
func (LiarVote) kind() string         { return "liar-vote" }
func (LiarGuess) kind() string        { return "liar-guess" }
func (LiarChat) kind() string         { return "liar-chat" }
func (LiarRematch) kind() string      { return "liar-rematch-request" }
func (ReactionStart) kind() string    { return "reaction-start" }
func (ReactionHit) kind() string      { return "reaction-hit" }
func (CountdownStart) kind() string   { return "countdown-start" }
func (BackToWaiting) kind() string    { return "back-to-waiting" }

func (CreateRoom) room() string         { return "" }
func (ListRooms) room() string          { return "" }
func (c JoinRoom) room() string         { return c.RoomID }
func (c LeaveRoom) room() string        { return c.RoomID }
func (c DeleteRoom) room() string       { return c.RoomID }
func (c UpdateSettings) room() string   { return c.RoomID }
func (c ToggleReady) room() string      { return c.RoomID }
func (c SwitchRole) room() string       { return c.RoomID }
func (c StartGame) room() string        { return c.RoomID }
func (c RequestGameState) room() string { return c.RoomID }
func (c AimHit) room() string           { return c.RoomID }
func (c OmokStart) room() string        { return c.RoomID }
func (c OmokMove) room() string         { return c.RoomID }
func (c OmokRematch) room() string      { return c.RoomID }
func (c WordChainStart) room() string   { return c.RoomID }
func (c WordChainWord) room() string    { return c.RoomID }
func (c WordChainRematch) room() string { return c.RoomID }
func (c TwentyQStart) room() string     { return c.RoomID }
func (c TwentyQSelect) room() string    { return c.RoomID }
func (c TwentyQQuestion) room() string  { return c.RoomID }
func (c TwentyQAnswer) room() string    { return c.RoomID }
func (c TwentyQGuess) room() string     { return c.RoomID }
func (c TwentyQRematch) room() string   { return c.RoomID }
func (c LiarStart) room() string        { return c.RoomID }
func (c LiarVote) room() string         { return c.RoomID }
func (c LiarGuess) room() string        { return c.RoomID }
func (c LiarChat) room() string         { return c.RoomID }
func (c LiarRematch) room() string      { return c.RoomID }
func (c ReactionStart) room() string    { return c.RoomID }
func (c ReactionHit) room() string      { return c.RoomID }
func (c CountdownStart) room() string   { return c.RoomID }
func (c BackToWaiting) room() string    { return c.RoomID }

// Kind returns the wire name of cmd.
func Kind(cmd Command) string {
	return cmd.kind()
}

// RoomID returns the room cmd is addressed to, empty for lobby commands.
func RoomID(cmd Command) string {
	return cmd.room()
}
