package core

import "time"

// Round numbers for the four debate phases.
const (
	RoundIndependent = 1
	RoundSynthesis   = 2
	RoundCrossExam   = 3
	RoundVerdict     = 4
)

// RoundName returns the human-readable name for a round number.
func RoundName(round int) string {
	switch round {
	case RoundIndependent:
		return "independent"
	case RoundSynthesis:
		return "synthesis"
	case RoundCrossExam:
		return "cross_exam"
	case RoundVerdict:
		return "verdict"
	default:
		return "unknown"
	}
}

// ClampConfidence clamps a confidence value into [0,1].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// IndependentArtifact is the structured position an agent takes in Round 1.
type IndependentArtifact struct {
	AgentID      string    `json:"agent_id"`
	Round        int       `json:"round"`
	Position     string    `json:"position"`
	KeyPoints    []string  `json:"key_points"`
	Rationale    string    `json:"rationale"`
	Confidence   float64   `json:"confidence"`
	ProseExcerpt string    `json:"prose_excerpt"`
	CreatedAt    time.Time `json:"created_at"`
}

// ConsensusPoint is a point of agreement found during synthesis.
type ConsensusPoint struct {
	Point            string   `json:"point"`
	SupportingAgents []string `json:"supporting_agents"`
	Confidence       float64  `json:"confidence"`
}

// Viewpoint is one agent's stance inside a tension.
type Viewpoint struct {
	AgentID   string `json:"agent_id"`
	Viewpoint string `json:"viewpoint"`
}

// Tension is a topic on which the panel disagrees.
type Tension struct {
	Topic      string      `json:"topic"`
	Viewpoints []Viewpoint `json:"viewpoints"`
}

// SynthesisArtifact is the judge's Round 2 merge of the panel's positions.
type SynthesisArtifact struct {
	Round           int              `json:"round"`
	ConsensusPoints []ConsensusPoint `json:"consensus_points"`
	Tensions        []Tension        `json:"tensions"`
	PriorityOrder   []string         `json:"priority_order"`
}

// ConsensusConfidence returns the maximum confidence among consensus
// points; zero when there are none. Used for early-termination tests.
func (s *SynthesisArtifact) ConsensusConfidence() float64 {
	var max float64
	for _, cp := range s.ConsensusPoints {
		if cp.Confidence > max {
			max = cp.Confidence
		}
	}
	return max
}

// TopConsensus returns the highest-confidence consensus point, if any.
func (s *SynthesisArtifact) TopConsensus() (ConsensusPoint, bool) {
	if len(s.ConsensusPoints) == 0 {
		return ConsensusPoint{}, false
	}
	best := s.ConsensusPoints[0]
	for _, cp := range s.ConsensusPoints[1:] {
		if cp.Confidence > best.Confidence {
			best = cp
		}
	}
	return best, true
}

// Challenge is a single cross-examination attack on an agent's position
// or on the consensus itself.
type Challenge struct {
	Challenger string   `json:"challenger"`
	Target     string   `json:"target"` // agent name or "Consensus"
	Challenge  string   `json:"challenge"`
	Evidence   []string `json:"evidence"`
}

// Rebuttal is an agent's reply to a challenge.
type Rebuttal struct {
	Agent    string `json:"agent"`
	Rebuttal string `json:"rebuttal"`
}

// CrossExamArtifact is the judge's Round 3 distillation of the
// cross-examination exchange.
type CrossExamArtifact struct {
	Round      int         `json:"round"`
	Challenges []Challenge `json:"challenges"`
	Rebuttals  []Rebuttal  `json:"rebuttals"`
	Unresolved []string    `json:"unresolved"`
}

// Dissent records a concern an agent maintains against the verdict.
type Dissent struct {
	Agent    string `json:"agent"`
	Concern  string `json:"concern"`
	Severity string `json:"severity"` // low, medium, high
}

// VerdictArtifact is the judge's Round 4 final decision. In converge mode
// Recommendation is exactly one decision; in explore mode it may present a
// menu of labelled options.
type VerdictArtifact struct {
	Round          int       `json:"round"`
	Recommendation string    `json:"recommendation"`
	Confidence     float64   `json:"confidence"`
	Evidence       []string  `json:"evidence"`
	Dissent        []Dissent `json:"dissent"`
}
