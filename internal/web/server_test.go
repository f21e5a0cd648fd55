package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/events"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/logging"
)

func newTestServer(t *testing.T, opts ...ServerOption) (*Server, *events.Bus) {
	t.Helper()
	bus := events.New()
	tracker := NewTracker(bus)
	t.Cleanup(tracker.Close)
	return New(DefaultConfig(), tracker, logging.NewNop().Logger, opts...), bus
}

func getJSON(t *testing.T, s *Server, path string, into interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code == http.StatusOK && into != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
			t.Fatalf("decoding %s: %v\n%s", path, err, rec.Body.String())
		}
	}
	return rec
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	var body map[string]string
	rec := getJSON(t, s, "/health", &body)
	if rec.Code != http.StatusOK || body["status"] != "healthy" {
		t.Fatalf("health = %d %v", rec.Code, body)
	}
}

func TestStatus_TracksLifecycle(t *testing.T) {
	s, bus := newTestServer(t)

	var status Status
	getJSON(t, s, "/api/v1/status", &status)
	if status.Active {
		t.Fatal("idle tracker reports active")
	}

	bus.Emit(events.NewConsultationStartedEvent("c-1", "q?", "converge", []string{"A", "B"}, 4))
	bus.Emit(events.NewCostEstimatedEvent("c-1", 0.42, 10, 2, 4))
	bus.Emit(events.NewRoundCompletedEvent("c-1", 1, 2, 0, 0.05))

	getJSON(t, s, "/api/v1/status", &status)
	if !status.Active || status.ConsultationID != "c-1" {
		t.Fatalf("status = %+v", status)
	}
	if status.EstimatedUSD != 0.42 || status.RoundsCompleted != 1 || status.ActualUSD != 0.05 {
		t.Errorf("status not accumulated: %+v", status)
	}

	bus.Emit(events.NewConsultationCompletedEvent("c-1", 4, 0.9, 0.2, 3000))
	getJSON(t, s, "/api/v1/status", &status)
	if status.Active || status.Outcome != "completed" || status.Confidence != 0.9 {
		t.Errorf("completed status = %+v", status)
	}
}

func TestStatus_AbortCause(t *testing.T) {
	s, bus := newTestServer(t)
	bus.Emit(events.NewConsultationStartedEvent("c-2", "q?", "converge", []string{"A"}, 4))
	bus.Emit(events.NewConsultationAbortedEvent("c-2", "cost_exceeded_estimate", 1))

	var status Status
	getJSON(t, s, "/api/v1/status", &status)
	if status.Outcome != "aborted" || status.AbortCause != "cost_exceeded_estimate" {
		t.Errorf("aborted status = %+v", status)
	}
}

func TestEvents_RingAndLimit(t *testing.T) {
	s, bus := newTestServer(t)
	for i := 0; i < 5; i++ {
		bus.Emit(events.NewAgentThinkingEvent("c-3", "A", 1, "m"))
	}

	var body struct {
		Count  int `json:"count"`
		Events []struct {
			Topic string `json:"topic"`
		} `json:"events"`
	}
	getJSON(t, s, "/api/v1/events", &body)
	if body.Count != 5 {
		t.Fatalf("count = %d", body.Count)
	}

	getJSON(t, s, "/api/v1/events?limit=2", &body)
	if body.Count != 2 {
		t.Fatalf("limited count = %d", body.Count)
	}
	if body.Events[0].Topic != events.TopicAgentThinking {
		t.Errorf("topic = %s", body.Events[0].Topic)
	}

	rec := getJSON(t, s, "/api/v1/events?limit=-1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative limit = %d", rec.Code)
	}
}

func TestTracker_RingCapacity(t *testing.T) {
	bus := events.New()
	tracker := NewTracker(bus)
	defer tracker.Close()
	tracker.cap = 3

	for i := 0; i < 10; i++ {
		bus.Emit(events.NewAgentThinkingEvent("c-4", "A", 1, "m"))
	}
	if got := len(tracker.Events(0)); got != 3 {
		t.Errorf("ring grew to %d, want 3", got)
	}
}

type stubStore struct {
	summaries []core.ResultSummary
}

func (s *stubStore) Save(ctx context.Context, r *core.ConsultationResult) error { return nil }
func (s *stubStore) Load(ctx context.Context, id string) (*core.ConsultationResult, error) {
	return nil, nil
}
func (s *stubStore) List(ctx context.Context) ([]core.ResultSummary, error) {
	return s.summaries, nil
}
func (s *stubStore) Close() error { return nil }

func TestHistory(t *testing.T) {
	store := &stubStore{summaries: []core.ResultSummary{
		{ConsultationID: "c-5", Question: "q", Status: core.StatusComplete},
	}}
	s, _ := newTestServer(t, WithStore(store))

	var body struct {
		Count         int                  `json:"count"`
		Consultations []core.ResultSummary `json:"consultations"`
	}
	rec := getJSON(t, s, "/api/v1/history", &body)
	if rec.Code != http.StatusOK || body.Count != 1 || body.Consultations[0].ConsultationID != "c-5" {
		t.Fatalf("history = %d %+v", rec.Code, body)
	}

	// Without a store the route is absent.
	bare, _ := newTestServer(t)
	rec = getJSON(t, bare, "/api/v1/history", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("history without store = %d", rec.Code)
	}
}
