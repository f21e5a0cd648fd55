package format

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#a78bfa"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3b0764")).
			Padding(1, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6b7280"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10b981"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f59e0b"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ef4444")).
			Bold(true)

	dissentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f59e0b")).
			Italic(true)
)

// Summary renders the short styled verdict box printed after a
// consultation finishes.
func Summary(result *core.ConsultationResult) string {
	var b strings.Builder

	switch result.Status {
	case core.StatusComplete:
		b.WriteString(okStyle.Render("✓ consultation complete"))
	case core.StatusPartial, core.StatusAborted:
		b.WriteString(errStyle.Render("✗ consultation aborted: " + result.AbortReason))
	default:
		b.WriteString(warnStyle.Render("consultation " + result.Status))
	}
	b.WriteString("\n\n")

	if result.Recommendation != "" {
		b.WriteString(titleStyle.Render("Recommendation"))
		b.WriteString("\n" + result.Recommendation + "\n\n")
	} else if result.Consensus != "" {
		b.WriteString(titleStyle.Render("Consensus"))
		b.WriteString("\n" + result.Consensus + "\n\n")
	}

	fmt.Fprintf(&b, "%s %.0f%%   %s $%.4f   %s %d/%d\n",
		labelStyle.Render("confidence"), result.Confidence*100,
		labelStyle.Render("cost"), result.ActualCostUSD,
		labelStyle.Render("rounds"), result.RoundsCompleted, result.RoundsRequested)

	if result.EarlyTerminationSavingsUSD > 0 {
		fmt.Fprintf(&b, "%s $%.4f\n",
			labelStyle.Render("saved by early termination"), result.EarlyTerminationSavingsUSD)
	}

	for _, d := range result.Dissent {
		b.WriteString(dissentStyle.Render(fmt.Sprintf("dissent (%s, %s): %s", d.Agent, d.Severity, d.Concern)))
		b.WriteString("\n")
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// RenderTerminal renders markdown for terminal display. When the
// renderer cannot be built the raw markdown is returned unchanged.
func RenderTerminal(markdown string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return markdown
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
