// Package events provides the in-process event bus for consultation
// lifecycle events. Dispatch is synchronous: every handler registered for
// a topic runs in registration order on the publisher's goroutine, so the
// core never depends on subscriber scheduling for correctness.
package events

import (
	"sync"
	"time"
)

// Event is the base interface for all events.
type Event interface {
	EventTopic() string
	Timestamp() time.Time
	ConsultationID() string
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	Topic        string    `json:"topic"`
	Time         time.Time `json:"timestamp"`
	Consultation string    `json:"consultation_id"`
}

func (e BaseEvent) EventTopic() string     { return e.Topic }
func (e BaseEvent) Timestamp() time.Time   { return e.Time }
func (e BaseEvent) ConsultationID() string { return e.Consultation }

// NewBaseEvent creates a new base event.
func NewBaseEvent(topic, consultationID string) BaseEvent {
	return BaseEvent{
		Topic:        topic,
		Time:         time.Now(),
		Consultation: consultationID,
	}
}

// Handler receives an event. Handlers must not panic and must not retain
// the event value beyond the call.
type Handler func(Event)

// Subscription identifies a registered handler for later removal.
type Subscription struct {
	id     int
	topics map[string]bool // empty means all topics
}

// Bus dispatches events to subscribers by topic.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []*subscriber
}

type subscriber struct {
	id      int
	topics  map[string]bool
	handler Handler
}

// New creates a new Bus.
func New() *Bus {
	return &Bus{}
}

var (
	defaultBus  *Bus
	defaultOnce sync.Once
)

// Default returns the process-wide bus, created lazily on first use.
func Default() *Bus {
	defaultOnce.Do(func() {
		defaultBus = New()
	})
	return defaultBus
}

// Subscribe registers a handler for the given topics. With no topics the
// handler receives every event. Handlers for a topic run in registration
// order on the publisher's goroutine.
func (b *Bus) Subscribe(handler Handler, topics ...string) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &subscriber{
		id:      b.nextID,
		topics:  make(map[string]bool, len(topics)),
		handler: handler,
	}
	for _, t := range topics {
		sub.topics[t] = true
	}
	b.subs = append(b.subs, sub)
	return Subscription{id: sub.id, topics: sub.topics}
}

// Unsubscribe removes a previously registered handler.
func (b *Bus) Unsubscribe(s Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub.id == s.id {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers an event synchronously to all matching subscribers.
func (b *Bus) Emit(event Event) {
	b.mu.RLock()
	subs := make([]*subscriber, len(b.subs))
	copy(subs, b.subs)
	b.mu.RUnlock()

	topic := event.EventTopic()
	for _, sub := range subs {
		if len(sub.topics) == 0 || sub.topics[topic] {
			sub.handler(event)
		}
	}
}
