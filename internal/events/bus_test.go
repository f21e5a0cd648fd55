package events

import "testing"

func TestBus_RegistrationOrder(t *testing.T) {
	bus := New()
	var order []int

	bus.Subscribe(func(Event) { order = append(order, 1) }, TopicRoundCompleted)
	bus.Subscribe(func(Event) { order = append(order, 2) }, TopicRoundCompleted)
	bus.Subscribe(func(Event) { order = append(order, 3) }, TopicRoundCompleted)

	bus.Emit(NewRoundCompletedEvent("c-1", 1, 3, 0, 0.12))

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("expected handlers in registration order, got %v", order)
	}
}

func TestBus_TopicFiltering(t *testing.T) {
	bus := New()
	var got []string

	bus.Subscribe(func(e Event) { got = append(got, e.EventTopic()) }, TopicAgentCompleted)

	bus.Emit(NewAgentThinkingEvent("c-1", "SecExpert", 1, "claude-sonnet-4"))
	bus.Emit(NewAgentCompletedEvent("c-1", "SecExpert", 1, "claude-sonnet-4", 100, 200, 1500, ""))

	if len(got) != 1 || got[0] != TopicAgentCompleted {
		t.Fatalf("expected only agent:completed, got %v", got)
	}
}

func TestBus_AllTopics(t *testing.T) {
	bus := New()
	count := 0

	bus.Subscribe(func(Event) { count++ })

	bus.Emit(NewConsultationStartedEvent("c-1", "q", "converge", []string{"A"}, 4))
	bus.Emit(NewCostEstimatedEvent("c-1", 0.2, 50, 3, 4))
	bus.Emit(NewConsultationAbortedEvent("c-1", "timeout", 2))

	if count != 3 {
		t.Fatalf("expected 3 deliveries, got %d", count)
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	count := 0

	sub := bus.Subscribe(func(Event) { count++ }, TopicConsultationComplete)
	bus.Emit(NewConsultationCompletedEvent("c-1", 4, 0.9, 0.3, 9000))
	bus.Unsubscribe(sub)
	bus.Emit(NewConsultationCompletedEvent("c-1", 4, 0.9, 0.3, 9000))

	if count != 1 {
		t.Fatalf("expected 1 delivery after unsubscribe, got %d", count)
	}
}

func TestBus_EventFields(t *testing.T) {
	bus := New()
	var seen Event

	bus.Subscribe(func(e Event) { seen = e }, TopicProviderSubstituted)
	bus.Emit(NewProviderSubstitutedEvent("c-9", "Architect", "openai", "anthropic", SubstitutionReasonLatency, "claude-sonnet-4"))

	ev, ok := seen.(ProviderSubstitutedEvent)
	if !ok {
		t.Fatalf("expected ProviderSubstitutedEvent, got %T", seen)
	}
	if ev.ConsultationID() != "c-9" || ev.Reason != SubstitutionReasonLatency || ev.Backup != "anthropic" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Timestamp().IsZero() {
		t.Fatalf("expected timestamp to be set")
	}
}
