// Package events defines the outbound events published to room, lobby and
// user topics.
package events

import "time"

const LobbyTopic = "lobby"

func RoomTopic(roomID string) string { return "room:" + roomID }

func UserTopic(userID string) string { return "user:" + userID }

type Type string

const (
	// Lobby and acknowledgments.
	RoomsUpdated Type = "rooms-updated"
	Ack          Type = "ack"
	NotFound     Type = "not-found"
	Rejected     Type = "rejected"
	GameState    Type = "game-state"

	// Room lifecycle.
	RoomUpdated    Type = "room-updated"
	RoomDeleted    Type = "room-deleted"
	GameStarted    Type = "game-started"
	GameEnded      Type = "game-ended"
	GameForceEnded Type = "game-force-ended"
	BackToWaiting  Type = "back-to-waiting"
	Countdown      Type = "countdown"
	CountdownDone  Type = "countdown-finished"
	RematchVote    Type = "rematch-vote"

	// Aim-target.
	AimTick          Type = "aim-tick"
	AimTargetSpawned Type = "aim-target-spawned"
	AimTargetRemoved Type = "aim-target-removed"
	AimScore         Type = "aim-score"

	// Omok.
	OmokTick       Type = "omok-tick"
	OmokMove       Type = "omok-move"
	OmokForcedMove Type = "omok-forced-move"

	// Word-chain.
	WordChainTick     Type = "word-chain-tick"
	WordChainAccepted Type = "word-chain-accepted"

	// Twenty-questions.
	TwentyQReady    Type = "twenty-q-ready"
	TwentyQSecret   Type = "twenty-q-secret"
	TwentyQQuestion Type = "twenty-q-question"
	TwentyQAnswer   Type = "twenty-q-answer"
	TwentyQGuess    Type = "twenty-q-guess"

	// Liar.
	LiarRole       Type = "liar-role"
	LiarPhase      Type = "liar-phase"
	LiarTick       Type = "liar-tick"
	LiarChat       Type = "liar-chat"
	LiarVoteCast   Type = "liar-vote-cast"
	LiarVoteResult Type = "liar-vote-result"

	// Reaction.
	ReactionWait       Type = "reaction-wait"
	ReactionGo         Type = "reaction-go"
	ReactionFalseStart Type = "reaction-false-start"
)

type Event struct {
	Type      Type      `json:"type"`
	RoomID    string    `json:"roomId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

func New(t Type, roomID string, payload any) Event {
	return Event{Type: t, RoomID: roomID, Timestamp: time.Now().UTC(), Payload: payload}
}

// Publisher fans an event out to every subscriber of topic. Implementations
// must not block the caller on slow subscribers.
type Publisher interface {
	Publish(topic string, ev Event)
}
