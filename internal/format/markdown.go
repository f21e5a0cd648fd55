package format

import (
	"fmt"
	"strings"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

// Markdown renders the full human-readable report for a result.
func Markdown(result *core.ConsultationResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Consultation %s\n\n", result.ConsultationID)
	fmt.Fprintf(&b, "**Question:** %s\n\n", result.Question)

	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Status | %s |\n", result.Status)
	fmt.Fprintf(&b, "| Mode | %s |\n", result.Mode)
	fmt.Fprintf(&b, "| Agents | %s |\n", strings.Join(result.Agents, ", "))
	fmt.Fprintf(&b, "| Rounds | %d of %d |\n", result.RoundsCompleted, result.RoundsRequested)
	fmt.Fprintf(&b, "| Confidence | %.0f%% |\n", result.Confidence*100)
	fmt.Fprintf(&b, "| Cost | $%.4f (estimated $%.4f) |\n", result.ActualCostUSD, result.EstimatedCostUSD)
	if result.EarlyTerminationSavingsUSD > 0 {
		fmt.Fprintf(&b, "| Saved by early termination | $%.4f |\n", result.EarlyTerminationSavingsUSD)
	}
	fmt.Fprintf(&b, "| Duration | %.1fs |\n", float64(result.DurationMS)/1000)
	b.WriteString("\n")

	if result.Status == core.StatusAborted || result.Status == core.StatusPartial {
		fmt.Fprintf(&b, "> Aborted: %s. Completed rounds: %s.\n\n",
			result.AbortReason, joinOrNone(result.CompletedRoundNames()))
	}

	if result.Recommendation != "" {
		b.WriteString("## Recommendation\n\n")
		fmt.Fprintf(&b, "%s\n\n", result.Recommendation)
	}
	if result.Consensus != "" && result.Consensus != result.Recommendation {
		b.WriteString("## Consensus\n\n")
		fmt.Fprintf(&b, "%s\n\n", result.Consensus)
	}

	if len(result.Perspectives) > 0 {
		b.WriteString("## Panel Perspectives\n\n")
		for _, p := range result.Perspectives {
			fmt.Fprintf(&b, "- **%s** (%.0f%%): %s\n", p.Agent, p.Confidence*100, p.Position)
		}
		b.WriteString("\n")
	}

	if syn := result.Artifacts.Synthesis; syn != nil {
		if len(syn.ConsensusPoints) > 0 {
			b.WriteString("## Points of Agreement\n\n")
			for _, cp := range syn.ConsensusPoints {
				fmt.Fprintf(&b, "- %s (%.0f%%, backed by %s)\n",
					cp.Point, cp.Confidence*100, joinOrNone(cp.SupportingAgents))
			}
			b.WriteString("\n")
		}
		if len(syn.Tensions) > 0 {
			b.WriteString("## Tensions\n\n")
			for _, tn := range syn.Tensions {
				fmt.Fprintf(&b, "### %s\n\n", tn.Topic)
				for _, vp := range tn.Viewpoints {
					fmt.Fprintf(&b, "- **%s**: %s\n", vp.AgentID, vp.Viewpoint)
				}
				b.WriteString("\n")
			}
		}
	}

	if cx := result.Artifacts.CrossExam; cx != nil && len(cx.Challenges) > 0 {
		b.WriteString("## Cross-Examination\n\n")
		for _, ch := range cx.Challenges {
			fmt.Fprintf(&b, "- **%s → %s**: %s\n", ch.Challenger, ch.Target, ch.Challenge)
		}
		if len(cx.Unresolved) > 0 {
			b.WriteString("\nUnresolved:\n\n")
			for _, u := range cx.Unresolved {
				fmt.Fprintf(&b, "- %s\n", u)
			}
		}
		b.WriteString("\n")
	}

	if len(result.Dissent) > 0 {
		b.WriteString("## Dissent\n\n")
		for _, d := range result.Dissent {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", d.Agent, d.Severity, d.Concern)
		}
		b.WriteString("\n")
	}

	if len(result.Concerns) > 0 {
		b.WriteString("## Open Concerns\n\n")
		for _, c := range result.Concerns {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
