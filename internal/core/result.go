package core

import "time"

// CurrentSchemaVersion is the schema version stamped on persisted results,
// checkpoints and partial records.
const CurrentSchemaVersion = "1.0"

// Result status values.
const (
	StatusComplete = "complete"
	StatusPartial  = "partial"
	StatusAborted  = "aborted"
)

// TokenCount aggregates token usage.
type TokenCount struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// Add accumulates another count into this one.
func (t *TokenCount) Add(other TokenCount) {
	t.Input += other.Input
	t.Output += other.Output
	t.Total += other.Total
}

// Cost pairs token usage with its USD price.
type Cost struct {
	Tokens TokenCount `json:"tokens"`
	USD    float64    `json:"usd"`
}

// AgentResponse is the envelope paired with each Round 1 or Round 3 call.
// It is created when a call resolves or fails and never mutated after.
type AgentResponse struct {
	AgentID    string     `json:"agent_id"`
	Model      string     `json:"model"`
	Provider   string     `json:"provider"`
	Content    string     `json:"content"`
	Tokens     TokenCount `json:"tokens"`
	DurationMS int64      `json:"duration_ms"`
	Timestamp  time.Time  `json:"timestamp"`
	Error      string     `json:"error,omitempty"`
}

// Failed reports whether the call behind this response failed.
func (r *AgentResponse) Failed() bool {
	return r.Error != ""
}

// RoundResponses groups raw responses by round. Round 2 and 4 are
// single-flight judge calls; Round 3 carries both the per-agent fan-out
// and the judge synthesis of it.
type RoundResponses struct {
	Round1          []AgentResponse `json:"round1,omitempty"`
	Round2          *AgentResponse  `json:"round2,omitempty"`
	Round3          []AgentResponse `json:"round3,omitempty"`
	Round3Synthesis *AgentResponse  `json:"round3_synthesis,omitempty"`
	Round4          *AgentResponse  `json:"round4,omitempty"`
}

// RoundArtifacts groups extracted artifacts by round.
type RoundArtifacts struct {
	Independent []IndependentArtifact `json:"independent,omitempty"`
	Synthesis   *SynthesisArtifact    `json:"synthesis,omitempty"`
	CrossExam   *CrossExamArtifact    `json:"cross_exam,omitempty"`
	Verdict     *VerdictArtifact      `json:"verdict,omitempty"`
}

// Perspective is a per-agent summary derived from Round 1 for the final
// result's user-facing view.
type Perspective struct {
	Agent      string  `json:"agent"`
	Position   string  `json:"position"`
	Confidence float64 `json:"confidence"`
}

// ConsultationResult is the single structured decision artifact a
// consultation produces. It is constructed incrementally inside the
// orchestrator and sealed at completion or abort.
type ConsultationResult struct {
	SchemaVersion  string `json:"schema_version"`
	ConsultationID string `json:"consultation_id"`
	Question       string `json:"question"`
	Context        string `json:"context,omitempty"`
	Mode           string `json:"mode"`

	Agents []string `json:"agents"`
	State  State    `json:"state"`

	ProjectPath      string `json:"project_path,omitempty"`
	Greenfield       bool   `json:"greenfield,omitempty"`
	ScrubbedFindings int    `json:"scrubbed_findings,omitempty"`

	RoundsRequested int `json:"rounds_requested"`
	RoundsCompleted int `json:"rounds_completed"`

	Responses RoundResponses `json:"responses"`
	Artifacts RoundArtifacts `json:"artifacts"`

	Consensus      string        `json:"consensus"`
	Confidence     float64       `json:"confidence"`
	Recommendation string        `json:"recommendation"`
	Concerns       []string      `json:"concerns,omitempty"`
	Dissent        []Dissent     `json:"dissent,omitempty"`
	Perspectives   []Perspective `json:"perspectives,omitempty"`

	Cost                       Cost    `json:"cost"`
	EstimatedCostUSD           float64 `json:"estimated_cost_usd"`
	ActualCostUSD              float64 `json:"actual_cost_usd"`
	CostExceeded               bool    `json:"cost_exceeded"`
	EarlyTerminationSavingsUSD float64 `json:"early_termination_savings_usd,omitempty"`

	DurationMS     int64             `json:"duration_ms"`
	PromptVersions map[string]string `json:"prompt_versions,omitempty"`

	Status      string `json:"status"`
	AbortReason string `json:"abort_reason,omitempty"`
	ResumeToken string `json:"resume_token,omitempty"`
	Signature   string `json:"signature,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CompletedRoundNames returns the names of rounds that fully resolved,
// in order.
func (r *ConsultationResult) CompletedRoundNames() []string {
	names := make([]string, 0, r.RoundsCompleted)
	for round := 1; round <= r.RoundsCompleted && round <= RoundVerdict; round++ {
		names = append(names, RoundName(round))
	}
	return names
}

// IncompleteRoundNames returns the names of requested rounds that did not
// resolve, in order.
func (r *ConsultationResult) IncompleteRoundNames() []string {
	var names []string
	for round := r.RoundsCompleted + 1; round <= r.RoundsRequested && round <= RoundVerdict; round++ {
		names = append(names, RoundName(round))
	}
	return names
}

// SuccessfulRound1Agents returns the names of agents whose Round 1 call
// produced an artifact, in panel order.
func (r *ConsultationResult) SuccessfulRound1Agents() []string {
	names := make([]string, 0, len(r.Artifacts.Independent))
	for _, art := range r.Artifacts.Independent {
		names = append(names, art.AgentID)
	}
	return names
}
