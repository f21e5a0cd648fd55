// Package web serves the local status endpoint: a snapshot of the
// running consultation and a ring buffer of recent lifecycle events,
// fed from the in-process bus.
package web

import (
	"sync"
	"time"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/events"
)

// defaultRingCapacity bounds the event history kept in memory.
const defaultRingCapacity = 256

// Status is the current-consultation snapshot served at /api/v1/status.
type Status struct {
	Active          bool      `json:"active"`
	ConsultationID  string    `json:"consultation_id,omitempty"`
	Question        string    `json:"question,omitempty"`
	Mode            string    `json:"mode,omitempty"`
	Agents          []string  `json:"agents,omitempty"`
	MaxRounds       int       `json:"max_rounds,omitempty"`
	CurrentRound    int       `json:"current_round,omitempty"`
	RoundsCompleted int       `json:"rounds_completed,omitempty"`
	EstimatedUSD    float64   `json:"estimated_usd,omitempty"`
	ActualUSD       float64   `json:"actual_usd,omitempty"`
	Confidence      float64   `json:"confidence,omitempty"`
	Outcome         string    `json:"outcome,omitempty"` // completed, aborted
	AbortCause      string    `json:"abort_cause,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// RecordedEvent is one ring buffer entry.
type RecordedEvent struct {
	Topic          string       `json:"topic"`
	ConsultationID string       `json:"consultation_id"`
	Time           time.Time    `json:"timestamp"`
	Event          events.Event `json:"event"`
}

// Tracker accumulates bus events into a status snapshot and a bounded
// event history.
type Tracker struct {
	mu     sync.RWMutex
	status Status
	ring   []RecordedEvent
	cap    int
	sub    events.Subscription
	bus    *events.Bus
}

// NewTracker subscribes to every topic on the bus.
func NewTracker(bus *events.Bus) *Tracker {
	t := &Tracker{cap: defaultRingCapacity, bus: bus}
	t.sub = bus.Subscribe(t.record)
	return t
}

// Close detaches the tracker from the bus.
func (t *Tracker) Close() {
	t.bus.Unsubscribe(t.sub)
}

func (t *Tracker) record(ev events.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ring = append(t.ring, RecordedEvent{
		Topic:          ev.EventTopic(),
		ConsultationID: ev.ConsultationID(),
		Time:           ev.Timestamp(),
		Event:          ev,
	})
	if len(t.ring) > t.cap {
		t.ring = t.ring[len(t.ring)-t.cap:]
	}

	t.status.UpdatedAt = ev.Timestamp()
	switch e := ev.(type) {
	case events.ConsultationStartedEvent:
		t.status = Status{
			Active:         true,
			ConsultationID: e.ConsultationID(),
			Question:       e.Question,
			Mode:           e.Mode,
			Agents:         e.Agents,
			MaxRounds:      e.MaxRounds,
			UpdatedAt:      e.Timestamp(),
		}
	case events.CostEstimatedEvent:
		t.status.EstimatedUSD = e.EstimatedUSD
	case events.AgentThinkingEvent:
		t.status.CurrentRound = e.Round
	case events.RoundCompletedEvent:
		t.status.RoundsCompleted = e.Round
		t.status.ActualUSD = e.ActualCostUSD
	case events.ConsultationCompletedEvent:
		t.status.Active = false
		t.status.Outcome = "completed"
		t.status.RoundsCompleted = e.RoundsCompleted
		t.status.Confidence = e.Confidence
		t.status.ActualUSD = e.ActualCostUSD
	case events.ConsultationAbortedEvent:
		t.status.Active = false
		t.status.Outcome = "aborted"
		t.status.AbortCause = e.Cause
		t.status.RoundsCompleted = e.RoundsCompleted
	}
}

// Status returns the current snapshot.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Events returns up to limit most recent events, oldest first. A
// non-positive limit returns the whole buffer.
func (t *Tracker) Events(limit int) []RecordedEvent {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := len(t.ring)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]RecordedEvent, n)
	copy(out, t.ring[len(t.ring)-n:])
	return out
}
