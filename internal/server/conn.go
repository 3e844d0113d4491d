package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anchal00/gameroom/internal/events"
	"github.com/anchal00/gameroom/internal/hub"
	"github.com/anchal00/gameroom/internal/orchestrator"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 1 << 14
)

var ErrRateLimited = errors.New("rate-limited")

// connection is one websocket session of a user.
type connection struct {
	server  *GameServer
	ws      *websocket.Conn
	client  *hub.Client
	limiter *rate.Limiter
	room    string
}

// HandlePlayerConnection upgrades to a websocket, subscribes the user to the
// lobby and their own topic, and feeds their frames to the orchestrator until
// they disconnect. Closing the last connection of a user leaves the room.
func (s *GameServer) HandlePlayerConnection(writer http.ResponseWriter, request *http.Request) {
	userId := strings.TrimSpace(request.URL.Query().Get("user"))
	if userId == "" {
		s.sendResponse(writer, nil, http.StatusBadRequest)
		return
	}
	wssConn := s.UpgradeToWebsocket(writer, request)
	if wssConn == nil {
		return
	}
	s.Logger.Info(fmt.Sprintf("Player %s connected", userId))
	burst := max(1, int(s.opts.CommandsPerSecond))
	c := &connection{
		server:  s,
		ws:      wssConn,
		client:  hub.NewClient(userId, s.opts.SendBuffer),
		limiter: rate.NewLimiter(rate.Limit(s.opts.CommandsPerSecond), burst),
	}
	s.Hub.Subscribe(c.client, events.LobbyTopic)
	s.Hub.Subscribe(c.client, events.UserTopic(userId))
	c.syncRoom()

	go c.writeLoop()
	c.readLoop(request.Context())

	// Another open connection of the same user keeps their seat.
	if s.Hub.Remove(c.client) {
		s.Orchestrator.Disconnect(userId)
	}
	s.Logger.Info(fmt.Sprintf("Player %s disconnected", userId))
}

func (c *connection) readLoop(ctx context.Context) {
	c.ws.SetReadLimit(maxMessageSize)
	userId := c.client.UserID
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.Logger.Error(fmt.Sprintf("Connection of %s closed unexpectedly", userId), err)
			}
			return
		}
		cmd, kind, err := DecodeCommand(data)
		if err != nil {
			c.reject(kind, frameRoomID(data), err)
			continue
		}
		if !c.limiter.Allow() {
			c.reject(kind, orchestrator.RoomID(cmd), ErrRateLimited)
			continue
		}
		if err := c.server.Orchestrator.Dispatch(ctx, userId, cmd); err != nil {
			c.server.Logger.Debug(fmt.Sprintf("Command %s from %s failed: %v", kind, userId, err))
		}
		c.syncRoom()
	}
}

func (c *connection) writeLoop() {
	defer c.ws.Close()
	for data := range c.client.Messages() {
		c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
			c.server.Logger.Error(fmt.Sprintf("Failed to write to %s", c.client.UserID), err)
			return
		}
	}
	c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// syncRoom keeps the room topic subscription pointed at the user's current
// room.
func (c *connection) syncRoom() {
	current, _ := c.server.Orchestrator.RoomOf(c.client.UserID)
	if current == c.room {
		return
	}
	if c.room != "" {
		c.server.Hub.Unsubscribe(c.client, events.RoomTopic(c.room))
	}
	if current != "" {
		c.server.Hub.Subscribe(c.client, events.RoomTopic(current))
	}
	c.room = current
}

func (c *connection) reject(kind, roomID string, err error) {
	c.server.Hub.Publish(events.UserTopic(c.client.UserID), events.New(events.Rejected, roomID, orchestrator.Reply{Command: kind, Reason: err.Error()}))
}
