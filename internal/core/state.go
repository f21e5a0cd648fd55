package core

import (
	"fmt"
	"sync"
)

// State represents a stage in the consultation lifecycle.
type State string

const (
	// StateEstimating is the initial state where pre-flight cost is computed.
	StateEstimating State = "estimating"

	// StateAwaitingConsent is entered after estimation while the cost gate
	// decides whether the consultation may proceed.
	StateAwaitingConsent State = "awaiting_consent"

	// StateIndependent is Round 1: every panel agent takes a position
	// independently, in parallel.
	StateIndependent State = "independent"

	// StateSynthesis is Round 2: a single judge call merges the independent
	// positions into consensus points and tensions.
	StateSynthesis State = "synthesis"

	// StateCrossExam is Round 3: agents challenge the synthesis and each
	// other; a judge call distills the exchange.
	StateCrossExam State = "cross_exam"

	// StateVerdict is Round 4: a single judge call issues the final
	// recommendation.
	StateVerdict State = "verdict"

	// StateComplete is the successful terminal state.
	StateComplete State = "complete"

	// StateAborted is the failure terminal state, reachable from any
	// non-terminal state. It carries an abort cause and is frozen.
	StateAborted State = "aborted"
)

// AbortCause identifies why a consultation entered StateAborted.
type AbortCause string

const (
	AbortAllAgentsFailed AbortCause = "all-agents-failed"
	AbortSynthesisFailed AbortCause = "synthesis-failed"
	AbortCostExceeded    AbortCause = "cost-exceeded"
	AbortUserCancelled   AbortCause = "user-cancelled"
	AbortTimeout         AbortCause = "timeout"
	AbortError           AbortCause = "error"
)

// StateOrder returns the numeric order of a state on the forward path
// (0-indexed), or -1 for StateAborted and unknown states.
func StateOrder(s State) int {
	switch s {
	case StateEstimating:
		return 0
	case StateAwaitingConsent:
		return 1
	case StateIndependent:
		return 2
	case StateSynthesis:
		return 3
	case StateCrossExam:
		return 4
	case StateVerdict:
		return 5
	case StateComplete:
		return 6
	default:
		return -1
	}
}

// NextState returns the state following the given state on the forward
// path. Returns empty string for terminal states.
func NextState(s State) State {
	switch s {
	case StateEstimating:
		return StateAwaitingConsent
	case StateAwaitingConsent:
		return StateIndependent
	case StateIndependent:
		return StateSynthesis
	case StateSynthesis:
		return StateCrossExam
	case StateCrossExam:
		return StateVerdict
	case StateVerdict:
		return StateComplete
	default:
		return ""
	}
}

// IsTerminal reports whether a state permits no further transitions.
func IsTerminal(s State) bool {
	return s == StateComplete || s == StateAborted
}

// roundStates are states from which an early jump to StateComplete is
// legal (maxRounds caps and early termination).
func isRoundState(s State) bool {
	switch s {
	case StateIndependent, StateSynthesis, StateCrossExam, StateVerdict:
		return true
	default:
		return false
	}
}

// StateMachine enforces the legal consultation state transitions: a single
// forward path, plus StateComplete reachable from any round state and
// StateAborted reachable from any non-terminal state. Once terminal, the
// machine is frozen.
type StateMachine struct {
	mu      sync.Mutex
	current State
	cause   AbortCause
	trace   []State
}

// NewStateMachine creates a machine in StateEstimating.
func NewStateMachine() *StateMachine {
	return &StateMachine{
		current: StateEstimating,
		trace:   []State{StateEstimating},
	}
}

// Current returns the current state.
func (m *StateMachine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// AbortCause returns the recorded abort cause, empty unless aborted.
func (m *StateMachine) AbortCause() AbortCause {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cause
}

// Trace returns the ordered sequence of states visited so far.
func (m *StateMachine) Trace() []State {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]State, len(m.trace))
	copy(out, m.trace)
	return out
}

// Transition advances the machine to the given state. Backward and
// skipping transitions fail with an invalid-transition error, as does any
// transition out of a terminal state. Use Abort to enter StateAborted.
func (m *StateMachine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if to == StateAborted {
		return ErrInvalidTransition(m.current, to).
			WithDetail("hint", "use Abort to record a cause")
	}
	if IsTerminal(m.current) {
		return ErrInvalidTransition(m.current, to)
	}
	legal := to == NextState(m.current) ||
		(to == StateComplete && isRoundState(m.current))
	if !legal {
		return ErrInvalidTransition(m.current, to)
	}
	m.current = to
	m.trace = append(m.trace, to)
	return nil
}

// Abort moves the machine to StateAborted with the given cause. Legal
// from any non-terminal state; the machine is frozen afterwards.
func (m *StateMachine) Abort(cause AbortCause) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if IsTerminal(m.current) {
		return ErrInvalidTransition(m.current, StateAborted)
	}
	m.current = StateAborted
	m.cause = cause
	m.trace = append(m.trace, StateAborted)
	return nil
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// ParseState converts a string to a State with validation.
func ParseState(s string) (State, error) {
	st := State(s)
	switch st {
	case StateEstimating, StateAwaitingConsent, StateIndependent,
		StateSynthesis, StateCrossExam, StateVerdict, StateComplete, StateAborted:
		return st, nil
	default:
		return "", fmt.Errorf("invalid state: %s", s)
	}
}
