package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/consult"
)

// terminalPrompter collects consent and fallback decisions from stdin.
type terminalPrompter struct {
	in  io.Reader
	out io.Writer
}

func newTerminalPrompter() *terminalPrompter {
	return &terminalPrompter{in: os.Stdin, out: os.Stderr}
}

// PromptConsent asks the user to approve an over-threshold estimate.
func (p *terminalPrompter) PromptConsent(estimate consult.Estimate, agents, rounds int) (consult.ConsentDecision, float64, error) {
	fmt.Fprintf(p.out, "\nEstimated cost: $%.4f (%d agents, %d rounds, ~%d output tokens)\n",
		estimate.USD, agents, rounds, estimate.OutputTokens)
	fmt.Fprint(p.out, "Proceed? [y]es / [n]o / [a]lways allow under a new threshold: ")

	reader := bufio.NewReader(p.in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return consult.ConsentDenied, 0, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return consult.ConsentApproved, 0, nil
	case "a", "always":
		fmt.Fprint(p.out, "Auto-approve estimates under (USD): ")
		raw, err := reader.ReadString('\n')
		if err != nil && raw == "" {
			return consult.ConsentDenied, 0, err
		}
		threshold, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return consult.ConsentDenied, 0, fmt.Errorf("parsing threshold: %w", err)
		}
		return consult.ConsentAlways, threshold, nil
	default:
		return consult.ConsentDenied, 0, nil
	}
}

// PromptFallback asks whether to retry a failed agent on a backup
// provider. Yes retries on the backup; no and fail both leave the agent
// marked failed for this round.
func (p *terminalPrompter) PromptFallback(agent, primary, backup string, cause error) (consult.FallbackDecision, error) {
	fmt.Fprintf(p.out, "\n%s failed on %s: %v\n", agent, primary, cause)
	fmt.Fprintf(p.out, "Retry on %s? [y]es / [n]o / [f]ail: ", backup)

	reader := bufio.NewReader(p.in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return consult.FallbackFail, err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return consult.FallbackYes, nil
	case "f", "fail":
		return consult.FallbackFail, nil
	default:
		return consult.FallbackNo, nil
	}
}
