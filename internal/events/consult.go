package events

// Topics published by the consultation core.
const (
	TopicConsultationStarted  = "consultation:started"
	TopicCostEstimated        = "consultation:cost_estimated"
	TopicUserConsent          = "consultation:user_consent"
	TopicRoundArtifact        = "consultation:round_artifact"
	TopicRoundCompleted       = "round:completed"
	TopicAgentThinking        = "agent:thinking"
	TopicAgentCompleted       = "agent:completed"
	TopicProviderSubstituted  = "consultation:provider_substituted"
	TopicConsultationComplete = "consultation:completed"
	TopicConsultationAborted  = "consultation:aborted"
	TopicCancelRequested      = "consultation:cancel_requested"
)

// ConsultationStartedEvent is emitted once when a consultation begins.
type ConsultationStartedEvent struct {
	BaseEvent
	Question   string   `json:"question"`
	Mode       string   `json:"mode"`
	Agents     []string `json:"agents"`
	MaxRounds  int      `json:"max_rounds"`
	Greenfield bool     `json:"greenfield,omitempty"`
}

// NewConsultationStartedEvent creates a consultation started event.
func NewConsultationStartedEvent(id, question, mode string, agents []string, maxRounds int) ConsultationStartedEvent {
	return ConsultationStartedEvent{
		BaseEvent: NewBaseEvent(TopicConsultationStarted, id),
		Question:  question,
		Mode:      mode,
		Agents:    agents,
		MaxRounds: maxRounds,
	}
}

// CostEstimatedEvent is emitted after pre-flight cost projection.
type CostEstimatedEvent struct {
	BaseEvent
	EstimatedUSD   float64 `json:"estimated_usd"`
	QuestionTokens int     `json:"question_tokens"`
	AgentCount     int     `json:"agent_count"`
	Rounds         int     `json:"rounds"`
}

// NewCostEstimatedEvent creates a cost estimated event.
func NewCostEstimatedEvent(id string, usd float64, questionTokens, agents, rounds int) CostEstimatedEvent {
	return CostEstimatedEvent{
		BaseEvent:      NewBaseEvent(TopicCostEstimated, id),
		EstimatedUSD:   usd,
		QuestionTokens: questionTokens,
		AgentCount:     agents,
		Rounds:         rounds,
	}
}

// UserConsentEvent is emitted after the cost gate resolves.
type UserConsentEvent struct {
	BaseEvent
	Decision     string  `json:"decision"` // approved, denied, always
	EstimatedUSD float64 `json:"estimated_usd"`
	AutoApproved bool    `json:"auto_approved"`
}

// NewUserConsentEvent creates a user consent event.
func NewUserConsentEvent(id, decision string, usd float64, auto bool) UserConsentEvent {
	return UserConsentEvent{
		BaseEvent:    NewBaseEvent(TopicUserConsent, id),
		Decision:     decision,
		EstimatedUSD: usd,
		AutoApproved: auto,
	}
}

// RoundArtifactEvent is emitted when a round produces its artifact.
type RoundArtifactEvent struct {
	BaseEvent
	Round int    `json:"round"`
	Agent string `json:"agent,omitempty"` // empty for judge artifacts
}

// NewRoundArtifactEvent creates a round artifact event.
func NewRoundArtifactEvent(id string, round int, agent string) RoundArtifactEvent {
	return RoundArtifactEvent{
		BaseEvent: NewBaseEvent(TopicRoundArtifact, id),
		Round:     round,
		Agent:     agent,
	}
}

// RoundCompletedEvent is emitted at each round's join barrier.
type RoundCompletedEvent struct {
	BaseEvent
	Round         int     `json:"round"`
	Succeeded     int     `json:"succeeded"`
	Failed        int     `json:"failed"`
	ActualCostUSD float64 `json:"actual_cost_usd"`
}

// NewRoundCompletedEvent creates a round completed event.
func NewRoundCompletedEvent(id string, round, succeeded, failed int, costUSD float64) RoundCompletedEvent {
	return RoundCompletedEvent{
		BaseEvent:     NewBaseEvent(TopicRoundCompleted, id),
		Round:         round,
		Succeeded:     succeeded,
		Failed:        failed,
		ActualCostUSD: costUSD,
	}
}

// AgentThinkingEvent is emitted when an agent call is dispatched.
type AgentThinkingEvent struct {
	BaseEvent
	Agent string `json:"agent"`
	Round int    `json:"round"`
	Model string `json:"model"`
}

// NewAgentThinkingEvent creates an agent thinking event.
func NewAgentThinkingEvent(id, agent string, round int, model string) AgentThinkingEvent {
	return AgentThinkingEvent{
		BaseEvent: NewBaseEvent(TopicAgentThinking, id),
		Agent:     agent,
		Round:     round,
		Model:     model,
	}
}

// AgentCompletedEvent is emitted when an agent call resolves.
type AgentCompletedEvent struct {
	BaseEvent
	Agent        string `json:"agent"`
	Round        int    `json:"round"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	DurationMS   int64  `json:"duration_ms"`
	Error        string `json:"error,omitempty"`
}

// NewAgentCompletedEvent creates an agent completed event.
func NewAgentCompletedEvent(id, agent string, round int, model string, in, out int, durationMS int64, errMsg string) AgentCompletedEvent {
	return AgentCompletedEvent{
		BaseEvent:    NewBaseEvent(TopicAgentCompleted, id),
		Agent:        agent,
		Round:        round,
		Model:        model,
		InputTokens:  in,
		OutputTokens: out,
		DurationMS:   durationMS,
		Error:        errMsg,
	}
}

// ProviderSubstitutedEvent is emitted when a non-primary provider serves
// an agent call.
type ProviderSubstitutedEvent struct {
	BaseEvent
	Agent    string `json:"agent"`
	Primary  string `json:"primary"`
	Backup   string `json:"backup"`
	Reason   string `json:"reason"` // latency, failure
	NewModel string `json:"new_model"`
}

// Substitution reasons.
const (
	SubstitutionReasonLatency = "latency"
	SubstitutionReasonFailure = "failure"
)

// NewProviderSubstitutedEvent creates a provider substituted event.
func NewProviderSubstitutedEvent(id, agent, primary, backup, reason, newModel string) ProviderSubstitutedEvent {
	return ProviderSubstitutedEvent{
		BaseEvent: NewBaseEvent(TopicProviderSubstituted, id),
		Agent:     agent,
		Primary:   primary,
		Backup:    backup,
		Reason:    reason,
		NewModel:  newModel,
	}
}

// ConsultationCompletedEvent is emitted when a consultation seals a
// complete result.
type ConsultationCompletedEvent struct {
	BaseEvent
	RoundsCompleted int     `json:"rounds_completed"`
	Confidence      float64 `json:"confidence"`
	ActualCostUSD   float64 `json:"actual_cost_usd"`
	DurationMS      int64   `json:"duration_ms"`
}

// NewConsultationCompletedEvent creates a consultation completed event.
func NewConsultationCompletedEvent(id string, rounds int, confidence, costUSD float64, durationMS int64) ConsultationCompletedEvent {
	return ConsultationCompletedEvent{
		BaseEvent:       NewBaseEvent(TopicConsultationComplete, id),
		RoundsCompleted: rounds,
		Confidence:      confidence,
		ActualCostUSD:   costUSD,
		DurationMS:      durationMS,
	}
}

// ConsultationAbortedEvent is emitted when a consultation aborts.
type ConsultationAbortedEvent struct {
	BaseEvent
	Cause           string `json:"cause"`
	RoundsCompleted int    `json:"rounds_completed"`
}

// NewConsultationAbortedEvent creates a consultation aborted event.
func NewConsultationAbortedEvent(id, cause string, rounds int) ConsultationAbortedEvent {
	return ConsultationAbortedEvent{
		BaseEvent:       NewBaseEvent(TopicConsultationAborted, id),
		Cause:           cause,
		RoundsCompleted: rounds,
	}
}

// CancelRequestedEvent carries a cooperative cancellation request from an
// outer surface (for example the pulse UI) into the orchestrator.
type CancelRequestedEvent struct {
	BaseEvent
	Source string `json:"source"`
}

// NewCancelRequestedEvent creates a cancel requested event.
func NewCancelRequestedEvent(id, source string) CancelRequestedEvent {
	return CancelRequestedEvent{
		BaseEvent: NewBaseEvent(TopicCancelRequested, id),
		Source:    source,
	}
}
