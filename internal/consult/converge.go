package consult

import (
	"fmt"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

// DefaultEarlyTerminationThreshold is converge's consensus confidence bar
// for skipping Rounds 3 and 4.
const DefaultEarlyTerminationThreshold = 0.95

// ConvergeStrategy drives the debate toward one definitive decision.
type ConvergeStrategy struct {
	threshold float64
}

// NewConvergeStrategy creates the decisive strategy. A non-positive
// threshold selects the default.
func NewConvergeStrategy(threshold float64) *ConvergeStrategy {
	if threshold <= 0 {
		threshold = DefaultEarlyTerminationThreshold
	}
	return &ConvergeStrategy{threshold: threshold}
}

func (s *ConvergeStrategy) Name() string { return ModeConverge }

func (s *ConvergeStrategy) PromptVersions() map[string]string {
	return map[string]string{
		"independent":          "converge-r1-v2",
		"synthesis":            "converge-r2-v2",
		"cross_exam":           "converge-r3-v2",
		"cross_exam_synthesis": "converge-r3s-v1",
		"verdict":              "converge-r4-v3",
	}
}

func (s *ConvergeStrategy) IndependentPrompt(question, context string, agent core.Agent) string {
	prompt := fmt.Sprintf(
		"You are %s, an expert in %s.\n\nQuestion: %s\n",
		agent.Name, agent.Role, question)
	if context != "" {
		prompt += "\nContext:\n" + context + "\n"
	}
	prompt += "\nTake a STRONG position. Commit to one answer and defend it. " +
		"State your position in one sentence, list your key points, explain your rationale, " +
		"and rate your confidence from 0 to 1."
	return prompt + jsonOnly(independentSchema)
}

func (s *ConvergeStrategy) SynthesisPrompt(question string, artifacts []core.IndependentArtifact) string {
	return fmt.Sprintf(
		"You are the judge of an expert debate on:\n%s\n\n"+
			"The panel took these independent positions:\n%s\n"+
			"Find the disagreements and conflicts. Identify where the experts genuinely agree "+
			"(consensus_points, each with the agents who support it and a confidence), where they "+
			"conflict (tensions), and order the open topics by priority.",
		question, renderArtifacts(artifacts)) + jsonOnly(synthesisSchema)
}

func (s *ConvergeStrategy) CrossExamPrompt(question string, own core.IndependentArtifact, synthesis *core.SynthesisArtifact) string {
	return fmt.Sprintf(
		"You are %s in an expert debate on:\n%s\n\n"+
			"Your position was:\n%s\n\n"+
			"The judge synthesised the panel as:\n%s\n\n"+
			"Challenge the WEAK arguments. Attack positions (including the consensus) that lack "+
			"evidence, and defend your own against the tensions raised. Cite evidence for every challenge.",
		own.AgentID, question, own.Position, renderSynthesis(synthesis)) + jsonOnly(crossExamSchema)
}

func (s *ConvergeStrategy) CrossExamSynthesisPrompt(question string, exchanges []core.AgentResponse) string {
	return fmt.Sprintf(
		"You are the judge of an expert debate on:\n%s\n\n"+
			"The cross-examination exchange was:\n%s\n"+
			"Distill the exchange: list the challenges raised (with challenger, target and evidence), "+
			"the rebuttals given, and which disputes remain unresolved.",
		question, renderExchanges(exchanges)) + jsonOnly(crossExamSchema)
}

func (s *ConvergeStrategy) VerdictPrompt(question string, independent []core.IndependentArtifact, synthesis *core.SynthesisArtifact, crossExam *core.CrossExamArtifact) string {
	// _analysis forces the model to reason before committing to the
	// recommendation field.
	schema := `{"_analysis": "work through the evidence here first", ` + verdictSchema[1:]
	return fmt.Sprintf(
		"You are the judge issuing the final verdict on:\n%s\n\n"+
			"Independent positions:\n%s\n"+
			"Synthesis:\n%s\n\n"+
			"Cross-examination:\n%s\n\n"+
			"Issue ONE definitive recommendation. Fill _analysis before recommendation. "+
			"Record any dissent an expert would maintain against your decision, with severity.",
		question, renderArtifacts(independent), renderSynthesis(synthesis), renderCrossExam(crossExam)) +
		jsonOnly(schema)
}

// ShouldTerminateEarly fires once consensus confidence reaches the
// threshold at or after Round 2.
func (s *ConvergeStrategy) ShouldTerminateEarly(confidence float64, round int) bool {
	return round >= core.RoundSynthesis && confidence >= s.threshold
}
