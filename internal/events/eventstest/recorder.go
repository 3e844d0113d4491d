// Package eventstest provides a Publisher that records what was published.
package eventstest

import (
	"sync"

	"github.com/anchal00/gameroom/internal/events"
)

type Published struct {
	Topic string
	Event events.Event
}

type Recorder struct {
	mu     sync.Mutex
	events []Published
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(topic string, ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Published{Topic: topic, Event: ev})
}

func (r *Recorder) All() []Published {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Published, len(r.events))
	copy(out, r.events)
	return out
}

// OnTopic returns the events published to topic, in order.
func (r *Recorder) OnTopic(topic string) []events.Event {
	var out []events.Event
	for _, p := range r.All() {
		if p.Topic == topic {
			out = append(out, p.Event)
		}
	}
	return out
}

func (r *Recorder) OfType(topic string, t events.Type) []events.Event {
	var out []events.Event
	for _, ev := range r.OnTopic(topic) {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func (r *Recorder) Types(topic string) []events.Type {
	var out []events.Type
	for _, ev := range r.OnTopic(topic) {
		out = append(out, ev.Type)
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
