package server

import (
	"testing"

	"github.com/anchal00/gameroom/internal/orchestrator"
	"github.com/anchal00/gameroom/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		description string
		frame       string
		kind        string
		expected    orchestrator.Command
	}{
		{
			"Test with create room",
			`{"type": "create-room", "payload": {"name": "Friday", "game": "liar", "maxPlayers": 6, "coords": {"lat": 37.5, "lng": 127}}}`,
			"create-room",
			orchestrator.CreateRoom{Name: "Friday", Game: room.GameLiar, MaxPlayers: 6, Coords: &room.Coordinates{Lat: 37.5, Lng: 127}},
		},
		{
			"Test with room only command",
			`{"type": "toggle-ready", "roomId": "r1"}`,
			"toggle-ready",
			orchestrator.ToggleReady{RoomID: "r1"},
		},
		{
			"Test with wrapped game event",
			`{"type": "submit-game-event", "payload": {"type": "hit", "roomId": "r1", "targetId": 3}}`,
			"hit",
			orchestrator.AimHit{RoomID: "r1", TargetID: 3},
		},
		{
			"Test with omok move",
			`{"type": "omok-move", "roomId": "r1", "payload": {"x": 7, "y": 0}}`,
			"omok-move",
			orchestrator.OmokMove{RoomID: "r1", X: 7, Y: 0},
		},
		{
			"Test with twenty questions answer",
			`{"type": "twenty-q-answer", "roomId": "r1", "payload": {"yes": false}}`,
			"twenty-q-answer",
			orchestrator.TwentyQAnswer{RoomID: "r1", Yes: false},
		},
		{
			"Test with liar vote",
			`{"type": "liar-vote", "roomId": "r1", "payload": {"target": "u2"}}`,
			"liar-vote",
			orchestrator.LiarVote{RoomID: "r1", Target: "u2"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			cmd, kind, err := DecodeCommand([]byte(tc.frame))
			require.NoError(t, err)
			assert.Equal(t, tc.kind, kind)
			assert.Equal(t, tc.expected, cmd)
			assert.Equal(t, tc.kind, orchestrator.Kind(cmd))
		})
	}
}

func TestDecodeCommandErrors(t *testing.T) {
	tests := []struct {
		description string
		frame       string
		kind        string
		expected    error
	}{
		{"Test with invalid json", `{"type":`, "", ErrBadFrame},
		{"Test with missing type", `{"roomId": "r1"}`, "", ErrBadFrame},
		{"Test with unknown type", `{"type": "teleport", "roomId": "r1"}`, "teleport", ErrUnknownCommand},
		{"Test with missing room", `{"type": "join-room"}`, "join-room", ErrBadFrame},
		{"Test with missing coordinates", `{"type": "omok-move", "roomId": "r1", "payload": {"x": 1}}`, "omok-move", ErrBadFrame},
		{"Test with non boolean answer", `{"type": "twenty-q-answer", "roomId": "r1", "payload": {"yes": "yes"}}`, "twenty-q-answer", ErrBadFrame},
		{"Test with missing target", `{"type": "hit", "roomId": "r1"}`, "hit", ErrBadFrame},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			cmd, kind, err := DecodeCommand([]byte(tc.frame))
			assert.ErrorIs(t, err, tc.expected)
			assert.Nil(t, cmd)
			assert.Equal(t, tc.kind, kind)
		})
	}
}

func TestFrameRoomID(t *testing.T) {
	assert.Equal(t, "r1", frameRoomID([]byte(`{"type": "omok-move", "roomId": "r1"}`)))
	assert.Equal(t, "r2", frameRoomID([]byte(`{"type": "submit-game-event", "payload": {"roomId": "r2"}}`)))
	assert.Empty(t, frameRoomID([]byte(`{"type":`)))
}
