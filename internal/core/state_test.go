package core

import "testing"

func TestStateMachine_ForwardPath(t *testing.T) {
	m := NewStateMachine()
	if m.Current() != StateEstimating {
		t.Fatalf("expected initial state estimating, got %s", m.Current())
	}

	path := []State{
		StateAwaitingConsent, StateIndependent, StateSynthesis,
		StateCrossExam, StateVerdict, StateComplete,
	}
	for _, s := range path {
		if err := m.Transition(s); err != nil {
			t.Fatalf("transition to %s: %v", s, err)
		}
	}
	if m.Current() != StateComplete {
		t.Fatalf("expected complete, got %s", m.Current())
	}
}

func TestStateMachine_RejectsBackwardAndSkipping(t *testing.T) {
	m := NewStateMachine()
	if err := m.Transition(StateIndependent); err == nil {
		t.Fatalf("expected skipping transition to fail")
	}
	if err := m.Transition(StateAwaitingConsent); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.Transition(StateEstimating); err == nil {
		t.Fatalf("expected backward transition to fail")
	}
	if err := m.Transition(StateSynthesis); err == nil {
		t.Fatalf("expected round skip to fail")
	}
	if !IsCategory(m.Transition(StateVerdict), ErrCatState) {
		t.Fatalf("expected state category error")
	}
}

func TestStateMachine_EarlyComplete(t *testing.T) {
	// Early termination jumps from synthesis straight to complete.
	m := NewStateMachine()
	for _, s := range []State{StateAwaitingConsent, StateIndependent, StateSynthesis} {
		if err := m.Transition(s); err != nil {
			t.Fatalf("transition to %s: %v", s, err)
		}
	}
	if err := m.Transition(StateComplete); err != nil {
		t.Fatalf("expected synthesis -> complete to be legal: %v", err)
	}
}

func TestStateMachine_CompleteNotLegalBeforeRounds(t *testing.T) {
	m := NewStateMachine()
	if err := m.Transition(StateComplete); err == nil {
		t.Fatalf("estimating -> complete must be illegal")
	}
}

func TestStateMachine_AbortFromAnyState(t *testing.T) {
	for _, start := range []int{0, 1, 2, 3, 4, 5} {
		m := NewStateMachine()
		cur := StateEstimating
		for i := 0; i < start; i++ {
			cur = NextState(cur)
			if err := m.Transition(cur); err != nil {
				t.Fatalf("setup transition: %v", err)
			}
		}
		if err := m.Abort(AbortCostExceeded); err != nil {
			t.Fatalf("abort from %s: %v", cur, err)
		}
		if m.Current() != StateAborted {
			t.Fatalf("expected aborted, got %s", m.Current())
		}
		if m.AbortCause() != AbortCostExceeded {
			t.Fatalf("expected cause recorded, got %s", m.AbortCause())
		}
	}
}

func TestStateMachine_TerminalIsFrozen(t *testing.T) {
	m := NewStateMachine()
	if err := m.Abort(AbortUserCancelled); err != nil {
		t.Fatalf("abort: %v", err)
	}
	if err := m.Transition(StateAwaitingConsent); err == nil {
		t.Fatalf("expected transition out of aborted to fail")
	}
	if err := m.Abort(AbortError); err == nil {
		t.Fatalf("expected second abort to fail")
	}
	if m.AbortCause() != AbortUserCancelled {
		t.Fatalf("abort cause must not change, got %s", m.AbortCause())
	}
}

func TestStateMachine_DirectAbortTransitionRejected(t *testing.T) {
	m := NewStateMachine()
	if err := m.Transition(StateAborted); err == nil {
		t.Fatalf("expected Transition(aborted) to be rejected")
	}
}

func TestStateMachine_TraceOrdered(t *testing.T) {
	m := NewStateMachine()
	_ = m.Transition(StateAwaitingConsent)
	_ = m.Transition(StateIndependent)
	_ = m.Abort(AbortAllAgentsFailed)

	trace := m.Trace()
	prev := -1
	for i, s := range trace {
		if s == StateAborted {
			if i != len(trace)-1 {
				t.Fatalf("aborted must be terminal in trace")
			}
			continue
		}
		if StateOrder(s) <= prev {
			t.Fatalf("trace out of order at %d: %v", i, trace)
		}
		prev = StateOrder(s)
	}
}

func TestParseState(t *testing.T) {
	if _, err := ParseState("synthesis"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseState("bogus"); err == nil {
		t.Fatalf("expected invalid state error")
	}
}
