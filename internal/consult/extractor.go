package consult

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

// firstJSONObject locates the first balanced top-level JSON object in
// free-form text, tolerating preamble and postamble prose. Returns the
// empty string when no balanced object exists.
func firstJSONObject(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func parseObject(text string, round int, out interface{}) error {
	raw := firstJSONObject(text)
	if raw == "" {
		return core.ErrExtraction(round, "no JSON object found in model output")
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return core.ErrExtraction(round, "malformed JSON object").WithCause(err)
	}
	return nil
}

// ExtractIndependent parses a Round 1 response into an artifact. A blank
// or missing position rejects the extraction: an agent that took no
// position contributed nothing to the round.
func ExtractIndependent(agentID, text string) (*core.IndependentArtifact, error) {
	var raw struct {
		Position     string   `json:"position"`
		KeyPoints    []string `json:"key_points"`
		Rationale    string   `json:"rationale"`
		Confidence   float64  `json:"confidence"`
		ProseExcerpt string   `json:"prose_excerpt"`
	}
	if err := parseObject(text, core.RoundIndependent, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.Position) == "" {
		return nil, core.ErrExtraction(core.RoundIndependent, "artifact missing required position")
	}

	return &core.IndependentArtifact{
		AgentID:      agentID,
		Round:        core.RoundIndependent,
		Position:     raw.Position,
		KeyPoints:    emptyIfNil(raw.KeyPoints),
		Rationale:    raw.Rationale,
		Confidence:   core.ClampConfidence(raw.Confidence),
		ProseExcerpt: raw.ProseExcerpt,
		CreatedAt:    time.Now(),
	}, nil
}

// ExtractSynthesis parses a Round 2 judge response. Supporting-agent and
// viewpoint references are filtered to agents that actually produced a
// Round 1 artifact, so downstream rounds never cite a failed agent.
func ExtractSynthesis(text string, successfulAgents []string) (*core.SynthesisArtifact, error) {
	var raw struct {
		ConsensusPoints []struct {
			Point            string   `json:"point"`
			SupportingAgents []string `json:"supporting_agents"`
			Confidence       float64  `json:"confidence"`
		} `json:"consensus_points"`
		Tensions []struct {
			Topic      string `json:"topic"`
			Viewpoints []struct {
				AgentID   string `json:"agent_id"`
				Viewpoint string `json:"viewpoint"`
			} `json:"viewpoints"`
		} `json:"tensions"`
		PriorityOrder []string `json:"priority_order"`
	}
	if err := parseObject(text, core.RoundSynthesis, &raw); err != nil {
		return nil, err
	}
	if raw.ConsensusPoints == nil {
		return nil, core.ErrExtraction(core.RoundSynthesis, "artifact missing required consensus_points")
	}

	known := make(map[string]bool, len(successfulAgents))
	for _, name := range successfulAgents {
		known[name] = true
	}

	artifact := &core.SynthesisArtifact{
		Round:           core.RoundSynthesis,
		ConsensusPoints: make([]core.ConsensusPoint, 0, len(raw.ConsensusPoints)),
		Tensions:        []core.Tension{},
		PriorityOrder:   emptyIfNil(raw.PriorityOrder),
	}

	for _, cp := range raw.ConsensusPoints {
		supporting := make([]string, 0, len(cp.SupportingAgents))
		for _, agent := range cp.SupportingAgents {
			if known[agent] {
				supporting = append(supporting, agent)
			}
		}
		artifact.ConsensusPoints = append(artifact.ConsensusPoints, core.ConsensusPoint{
			Point:            cp.Point,
			SupportingAgents: supporting,
			Confidence:       core.ClampConfidence(cp.Confidence),
		})
	}

	for _, t := range raw.Tensions {
		viewpoints := make([]core.Viewpoint, 0, len(t.Viewpoints))
		for _, v := range t.Viewpoints {
			if known[v.AgentID] {
				viewpoints = append(viewpoints, core.Viewpoint{AgentID: v.AgentID, Viewpoint: v.Viewpoint})
			}
		}
		artifact.Tensions = append(artifact.Tensions, core.Tension{Topic: t.Topic, Viewpoints: viewpoints})
	}

	return artifact, nil
}

// ExtractCrossExam parses the Round 3 judge distillation.
func ExtractCrossExam(text string) (*core.CrossExamArtifact, error) {
	var raw struct {
		Challenges []struct {
			Challenger string   `json:"challenger"`
			Target     string   `json:"target"`
			Challenge  string   `json:"challenge"`
			Evidence   []string `json:"evidence"`
		} `json:"challenges"`
		Rebuttals []struct {
			Agent    string `json:"agent"`
			Rebuttal string `json:"rebuttal"`
		} `json:"rebuttals"`
		Unresolved []string `json:"unresolved"`
	}
	if err := parseObject(text, core.RoundCrossExam, &raw); err != nil {
		return nil, err
	}
	if raw.Challenges == nil {
		return nil, core.ErrExtraction(core.RoundCrossExam, "artifact missing required challenges")
	}

	artifact := &core.CrossExamArtifact{
		Round:      core.RoundCrossExam,
		Challenges: make([]core.Challenge, 0, len(raw.Challenges)),
		Rebuttals:  make([]core.Rebuttal, 0, len(raw.Rebuttals)),
		Unresolved: emptyIfNil(raw.Unresolved),
	}
	for _, c := range raw.Challenges {
		artifact.Challenges = append(artifact.Challenges, core.Challenge{
			Challenger: c.Challenger,
			Target:     c.Target,
			Challenge:  c.Challenge,
			Evidence:   emptyIfNil(c.Evidence),
		})
	}
	for _, r := range raw.Rebuttals {
		artifact.Rebuttals = append(artifact.Rebuttals, core.Rebuttal{Agent: r.Agent, Rebuttal: r.Rebuttal})
	}
	return artifact, nil
}

// ExtractVerdict parses the Round 4 judge decision. The _analysis
// scratchpad converge prompts require is deliberately ignored here.
func ExtractVerdict(text string) (*core.VerdictArtifact, error) {
	var raw struct {
		Recommendation string   `json:"recommendation"`
		Confidence     float64  `json:"confidence"`
		Evidence       []string `json:"evidence"`
		Dissent        []struct {
			Agent    string `json:"agent"`
			Concern  string `json:"concern"`
			Severity string `json:"severity"`
		} `json:"dissent"`
	}
	if err := parseObject(text, core.RoundVerdict, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.Recommendation) == "" {
		return nil, core.ErrExtraction(core.RoundVerdict, "artifact missing required recommendation")
	}

	artifact := &core.VerdictArtifact{
		Round:          core.RoundVerdict,
		Recommendation: raw.Recommendation,
		Confidence:     core.ClampConfidence(raw.Confidence),
		Evidence:       emptyIfNil(raw.Evidence),
		Dissent:        make([]core.Dissent, 0, len(raw.Dissent)),
	}
	for _, d := range raw.Dissent {
		severity := d.Severity
		switch severity {
		case "low", "medium", "high":
		default:
			severity = "medium"
		}
		artifact.Dissent = append(artifact.Dissent, core.Dissent{
			Agent:    d.Agent,
			Concern:  d.Concern,
			Severity: severity,
		})
	}
	return artifact, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
