package server

import (
	"errors"
	"fmt"

	"github.com/anchal00/gameroom/internal/orchestrator"
	"github.com/anchal00/gameroom/internal/room"
	"github.com/tidwall/gjson"
)

var (
	ErrBadFrame       = errors.New("bad-frame")
	ErrUnknownCommand = errors.New("unknown-command")
)

const submitGameEvent = "submit-game-event"

// DecodeCommand turns a client frame into a command. Frames look like
// {"type": "...", "roomId": "...", "payload": {...}}; game events may also
// arrive wrapped as {"type": "submit-game-event", "payload": {"type": ...}}.
// The frame's type is returned even when decoding fails so the rejection can
// name it.
func DecodeCommand(data []byte) (orchestrator.Command, string, error) {
	if !gjson.ValidBytes(data) {
		return nil, "", ErrBadFrame
	}
	frame := gjson.ParseBytes(data)
	kind := frame.Get("type").String()
	roomID := frame.Get("roomId").String()
	p := frame.Get("payload")
	if kind == submitGameEvent {
		kind = p.Get("type").String()
		if roomID == "" {
			roomID = p.Get("roomId").String()
		}
	}
	if kind == "" {
		return nil, "", fmt.Errorf("%w: missing type", ErrBadFrame)
	}

	switch kind {
	case "create-room":
		cmd := orchestrator.CreateRoom{
			Name:       p.Get("name").String(),
			Game:       room.GameType(p.Get("game").String()),
			MaxPlayers: int(p.Get("maxPlayers").Int()),
			Locked:     p.Get("locked").Bool(),
		}
		if coords := p.Get("coords"); coords.IsObject() {
			cmd.Coords = &room.Coordinates{Lat: coords.Get("lat").Float(), Lng: coords.Get("lng").Float()}
		}
		return cmd, kind, nil
	case "list-rooms":
		return orchestrator.ListRooms{}, kind, nil
	case "update-room-settings":
		return orchestrator.UpdateSettings{
			RoomID:     roomID,
			Game:       room.GameType(p.Get("game").String()),
			MaxPlayers: int(p.Get("maxPlayers").Int()),
		}, kind, nil
	case "hit":
		target := p.Get("targetId")
		if !target.Exists() {
			return nil, kind, fmt.Errorf("%w: targetId", ErrBadFrame)
		}
		return orchestrator.AimHit{RoomID: roomID, TargetID: int(target.Int())}, kind, nil
	case "omok-move":
		x, y := p.Get("x"), p.Get("y")
		if !x.Exists() || !y.Exists() {
			return nil, kind, fmt.Errorf("%w: x and y", ErrBadFrame)
		}
		return orchestrator.OmokMove{RoomID: roomID, X: int(x.Int()), Y: int(y.Int())}, kind, nil
	case "word-chain-word":
		return orchestrator.WordChainWord{RoomID: roomID, Word: p.Get("word").String()}, kind, nil
	case "twenty-q-word-selected":
		return orchestrator.TwentyQSelect{RoomID: roomID, Category: p.Get("category").String(), Answer: p.Get("answer").String()}, kind, nil
	case "twenty-q-question":
		return orchestrator.TwentyQQuestion{RoomID: roomID, Question: p.Get("question").String()}, kind, nil
	case "twenty-q-answer":
		yes := p.Get("yes")
		if !yes.IsBool() {
			return nil, kind, fmt.Errorf("%w: yes", ErrBadFrame)
		}
		return orchestrator.TwentyQAnswer{RoomID: roomID, Yes: yes.Bool()}, kind, nil
	case "twenty-q-guess":
		return orchestrator.TwentyQGuess{RoomID: roomID, Guess: p.Get("guess").String()}, kind, nil
	case "liar-vote":
		return orchestrator.LiarVote{RoomID: roomID, Target: p.Get("target").String()}, kind, nil
	case "liar-guess":
		return orchestrator.LiarGuess{RoomID: roomID, Guess: p.Get("guess").String()}, kind, nil
	case "liar-chat":
		return orchestrator.LiarChat{RoomID: roomID, Text: p.Get("text").String()}, kind, nil
	}

	build, ok := roomCommands[kind]
	if !ok {
		return nil, kind, fmt.Errorf("%w: %q", ErrUnknownCommand, kind)
	}
	if roomID == "" {
		return nil, kind, fmt.Errorf("%w: roomId", ErrBadFrame)
	}
	return build(roomID), kind, nil
}

// roomCommands are the commands that carry nothing but the room id.
var roomCommands = map[string]func(roomID string) orchestrator.Command{
	"join-room":                  func(id string) orchestrator.Command { return orchestrator.JoinRoom{RoomID: id} },
	"leave-room":                 func(id string) orchestrator.Command { return orchestrator.LeaveRoom{RoomID: id} },
	"delete-room":                func(id string) orchestrator.Command { return orchestrator.DeleteRoom{RoomID: id} },
	"toggle-ready":               func(id string) orchestrator.Command { return orchestrator.ToggleReady{RoomID: id} },
	"switch-role":                func(id string) orchestrator.Command { return orchestrator.SwitchRole{RoomID: id} },
	"start-game":                 func(id string) orchestrator.Command { return orchestrator.StartGame{RoomID: id} },
	"request-game-state":         func(id string) orchestrator.Command { return orchestrator.RequestGameState{RoomID: id} },
	"omok-start":                 func(id string) orchestrator.Command { return orchestrator.OmokStart{RoomID: id} },
	"omok-rematch-request":       func(id string) orchestrator.Command { return orchestrator.OmokRematch{RoomID: id} },
	"word-chain-start":           func(id string) orchestrator.Command { return orchestrator.WordChainStart{RoomID: id} },
	"word-chain-rematch-request": func(id string) orchestrator.Command { return orchestrator.WordChainRematch{RoomID: id} },
	"twenty-q-start":             func(id string) orchestrator.Command { return orchestrator.TwentyQStart{RoomID: id} },
	"twenty-q-rematch-request":   func(id string) orchestrator.Command { return orchestrator.TwentyQRematch{RoomID: id} },
	"liar-game-start":            func(id string) orchestrator.Command { return orchestrator.LiarStart{RoomID: id} },
	"liar-rematch-request":       func(id string) orchestrator.Command { return orchestrator.LiarRematch{RoomID: id} },
	"reaction-start":             func(id string) orchestrator.Command { return orchestrator.ReactionStart{RoomID: id} },
	"reaction-hit":               func(id string) orchestrator.Command { return orchestrator.ReactionHit{RoomID: id} },
	"countdown-start":            func(id string) orchestrator.Command { return orchestrator.CountdownStart{RoomID: id} },
	"back-to-waiting":            func(id string) orchestrator.Command { return orchestrator.BackToWaiting{RoomID: id} },
}

// frameRoomID digs the room id out of a frame that failed to decode.
func frameRoomID(data []byte) string {
	if !gjson.ValidBytes(data) {
		return ""
	}
	frame := gjson.ParseBytes(data)
	if id := frame.Get("roomId").String(); id != "" {
		return id
	}
	return frame.Get("payload.roomId").String()
}
