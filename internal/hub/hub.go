// Package hub is the in-process event broadcaster: clients subscribe to
// topics and every published event is queued to each subscriber.
package hub

import (
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/anchal00/gameroom/internal/events"
	"github.com/anchal00/gameroom/internal/logger"
	"github.com/google/uuid"
	"github.com/hashicorp/go-set/v3"
)

// Client is one connected user. Published messages arrive on Messages until
// the client is removed from the hub, which closes the channel.
type Client struct {
	ID     string
	UserID string
	send   chan []byte
}

func NewClient(userID string, buffer int) *Client {
	return &Client{ID: uuid.NewString(), UserID: userID, send: make(chan []byte, buffer)}
}

func (c *Client) Messages() <-chan []byte {
	return c.send
}

type Hub struct {
	mu      sync.RWMutex
	topics  map[string]*set.Set[*Client]
	clients map[*Client]*set.Set[string]
	// users counts the live clients of each user.
	users  map[string]int
	Logger logger.Logger
}

func New(log logger.Logger) *Hub {
	return &Hub{
		topics:  make(map[string]*set.Set[*Client]),
		clients: make(map[*Client]*set.Set[string]),
		users:   make(map[string]int),
		Logger:  log,
	}
}

func (h *Hub) Subscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = set.New[*Client](1)
		h.topics[topic] = subs
	}
	subs.Insert(c)
	topics, ok := h.clients[c]
	if !ok {
		topics = set.New[string](3)
		h.clients[c] = topics
		h.users[c.UserID]++
	}
	topics.Insert(topic)
}

func (h *Hub) Unsubscribe(c *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribe(c, topic)
}

func (h *Hub) unsubscribe(c *Client, topic string) {
	if subs, ok := h.topics[topic]; ok {
		subs.Remove(c)
		if subs.Empty() {
			delete(h.topics, topic)
		}
	}
	if topics, ok := h.clients[c]; ok {
		topics.Remove(topic)
	}
}

// Remove drops every subscription of c and closes its message channel. It
// reports whether c was the user's last live client.
func (h *Hub) Remove(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	topics, ok := h.clients[c]
	if !ok {
		return false
	}
	for _, topic := range topics.Slice() {
		h.unsubscribe(c, topic)
	}
	delete(h.clients, c)
	close(c.send)
	h.users[c.UserID]--
	if h.users[c.UserID] > 0 {
		return false
	}
	delete(h.users, c.UserID)
	return true
}

// Connections returns how many live clients userID has.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.users[userID]
}

// Topics returns the topics c is subscribed to, sorted.
func (h *Hub) Topics(c *Client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	topics, ok := h.clients[c]
	if !ok {
		return nil
	}
	return slices.Sorted(topics.Items())
}

// Publish marshals ev once and queues it to every subscriber of topic. A
// subscriber whose queue is full misses the message.
func (h *Hub) Publish(topic string, ev events.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.Logger.Error(fmt.Sprintf("Failed to encode %s event", ev.Type), err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	for c := range subs.Items() {
		select {
		case c.send <- data:
		default:
			h.Logger.Warn(fmt.Sprintf("Dropped %s event on %s for slow client %s", ev.Type, topic, c.UserID))
		}
	}
}
