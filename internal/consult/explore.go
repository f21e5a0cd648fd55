package consult

import (
	"fmt"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

// ExploreStrategy drives the debate toward a breadth of options rather
// than one decision. It never terminates early.
type ExploreStrategy struct{}

// NewExploreStrategy creates the divergent strategy.
func NewExploreStrategy() *ExploreStrategy {
	return &ExploreStrategy{}
}

func (s *ExploreStrategy) Name() string { return ModeExplore }

func (s *ExploreStrategy) PromptVersions() map[string]string {
	return map[string]string{
		"independent":          "explore-r1-v2",
		"synthesis":            "explore-r2-v1",
		"cross_exam":           "explore-r3-v1",
		"cross_exam_synthesis": "explore-r3s-v1",
		"verdict":              "explore-r4-v2",
	}
}

func (s *ExploreStrategy) IndependentPrompt(question, context string, agent core.Agent) string {
	prompt := fmt.Sprintf(
		"You are %s, an expert in %s.\n\nQuestion: %s\n",
		agent.Name, agent.Role, question)
	if context != "" {
		prompt += "\nContext:\n" + context + "\n"
	}
	prompt += "\nGenerate DIVERSE perspectives. Surface angles the others are unlikely to raise, " +
		"including unconventional ones. State your most interesting position, list the distinct " +
		"perspectives you see as key points, explain your rationale, and rate your confidence from 0 to 1."
	return prompt + jsonOnly(independentSchema)
}

func (s *ExploreStrategy) SynthesisPrompt(question string, artifacts []core.IndependentArtifact) string {
	return fmt.Sprintf(
		"You are the judge of an expert exploration of:\n%s\n\n"+
			"The panel offered these independent perspectives:\n%s\n"+
			"Find the common themes AND preserve the unique insights. Record shared themes as "+
			"consensus_points, keep genuinely different viewpoints as tensions rather than flattening "+
			"them, and order the most promising topics first.",
		question, renderArtifacts(artifacts)) + jsonOnly(synthesisSchema)
}

func (s *ExploreStrategy) CrossExamPrompt(question string, own core.IndependentArtifact, synthesis *core.SynthesisArtifact) string {
	return fmt.Sprintf(
		"You are %s in an expert exploration of:\n%s\n\n"+
			"Your perspective was:\n%s\n\n"+
			"The judge synthesised the panel as:\n%s\n\n"+
			"Build on the other ideas and bridge the differences. Where you challenge, do it to "+
			"strengthen an idea, not to eliminate it; note combinations of perspectives worth pursuing.",
		own.AgentID, question, own.Position, renderSynthesis(synthesis)) + jsonOnly(crossExamSchema)
}

func (s *ExploreStrategy) CrossExamSynthesisPrompt(question string, exchanges []core.AgentResponse) string {
	return fmt.Sprintf(
		"You are the judge of an expert exploration of:\n%s\n\n"+
			"The exchange was:\n%s\n"+
			"Distill it: record the challenges and refinements raised, the responses, and which "+
			"questions remain open.",
		question, renderExchanges(exchanges)) + jsonOnly(crossExamSchema)
}

func (s *ExploreStrategy) VerdictPrompt(question string, independent []core.IndependentArtifact, synthesis *core.SynthesisArtifact, crossExam *core.CrossExamArtifact) string {
	return fmt.Sprintf(
		"You are the judge concluding an exploration of:\n%s\n\n"+
			"Independent perspectives:\n%s\n"+
			"Synthesis:\n%s\n\n"+
			"Exchange:\n%s\n\n"+
			"Present a MENU of labelled options with trade-offs in the recommendation field "+
			"(for example \"Option A: ... Option B: ...\"). Do not collapse to a single answer. "+
			"Record dissent for options an expert considers risky.",
		question, renderArtifacts(independent), renderSynthesis(synthesis), renderCrossExam(crossExam)) +
		jsonOnly(verdictSchema)
}

// ShouldTerminateEarly always declines: exploration runs every round.
func (s *ExploreStrategy) ShouldTerminateEarly(confidence float64, round int) bool {
	return false
}
