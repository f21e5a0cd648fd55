package consult

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

// Consultation modes.
const (
	ModeConverge = "converge"
	ModeExplore  = "explore"
)

// Strategy parameterises the debate by mode: it owns the per-round prompt
// phrasing and the early-termination policy. Strategies are stateless
// values injected into the orchestrator at construction.
type Strategy interface {
	// Name returns the mode name.
	Name() string

	// PromptVersions reports the version string of each round's prompt
	// template, recorded in the final result for reproducible logs.
	PromptVersions() map[string]string

	// IndependentPrompt builds the Round 1 prompt for one agent.
	IndependentPrompt(question, context string, agent core.Agent) string

	// SynthesisPrompt builds the Round 2 judge prompt over the successful
	// Round 1 artifacts.
	SynthesisPrompt(question string, artifacts []core.IndependentArtifact) string

	// CrossExamPrompt builds a per-agent Round 3 prompt parameterised by
	// the agent's own Round 1 artifact and the Round 2 synthesis.
	CrossExamPrompt(question string, own core.IndependentArtifact, synthesis *core.SynthesisArtifact) string

	// CrossExamSynthesisPrompt builds the judge prompt that distills the
	// combined Round 3 exchange.
	CrossExamSynthesisPrompt(question string, exchanges []core.AgentResponse) string

	// VerdictPrompt builds the Round 4 judge prompt over all prior rounds.
	VerdictPrompt(question string, independent []core.IndependentArtifact, synthesis *core.SynthesisArtifact, crossExam *core.CrossExamArtifact) string

	// ShouldTerminateEarly reports whether the debate may stop after the
	// given round at the given consensus confidence.
	ShouldTerminateEarly(confidence float64, round int) bool
}

// NewStrategy constructs the strategy for a mode. The threshold only
// affects converge's early-termination test; pass 0 for the default.
func NewStrategy(mode string, earlyTerminationThreshold float64) (Strategy, error) {
	switch mode {
	case ModeConverge, "":
		return NewConvergeStrategy(earlyTerminationThreshold), nil
	case ModeExplore:
		return NewExploreStrategy(), nil
	default:
		return nil, core.ErrValidation(core.CodeInvalidMode,
			fmt.Sprintf("unknown mode %q (want %s or %s)", mode, ModeExplore, ModeConverge))
	}
}

// jsonOnly is appended to every prompt so models answer in a parseable
// shape. The schema line is round-specific.
func jsonOnly(schema string) string {
	return "\n\nRespond with JSON only, no prose before or after. Schema:\n" + schema
}

func renderArtifacts(artifacts []core.IndependentArtifact) string {
	var b strings.Builder
	for _, a := range artifacts {
		data, _ := json.Marshal(a)
		b.WriteString(string(data))
		b.WriteByte('\n')
	}
	return b.String()
}

func renderSynthesis(s *core.SynthesisArtifact) string {
	if s == nil {
		return "{}"
	}
	data, _ := json.Marshal(s)
	return string(data)
}

func renderCrossExam(c *core.CrossExamArtifact) string {
	if c == nil {
		return "{}"
	}
	data, _ := json.Marshal(c)
	return string(data)
}

func renderExchanges(exchanges []core.AgentResponse) string {
	var b strings.Builder
	for _, r := range exchanges {
		if r.Failed() {
			continue
		}
		fmt.Fprintf(&b, "--- %s ---\n%s\n", r.AgentID, r.Content)
	}
	return b.String()
}

const (
	independentSchema = `{"position": "short string", "key_points": ["string"], "rationale": "string", "confidence": 0.0, "prose_excerpt": "short string"}`
	synthesisSchema   = `{"consensus_points": [{"point": "string", "supporting_agents": ["agent name"], "confidence": 0.0}], "tensions": [{"topic": "string", "viewpoints": [{"agent_id": "agent name", "viewpoint": "string"}]}], "priority_order": ["topic"]}`
	crossExamSchema   = `{"challenges": [{"challenger": "agent name", "target": "agent name or Consensus", "challenge": "string", "evidence": ["string"]}], "rebuttals": [{"agent": "agent name", "rebuttal": "string"}], "unresolved": ["string"]}`
	verdictSchema     = `{"recommendation": "string", "confidence": 0.0, "evidence": ["string"], "dissent": [{"agent": "agent name", "concern": "string", "severity": "low|medium|high"}]}`
)
