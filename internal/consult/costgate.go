package consult

import (
	"os"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/logging"
)

// ConsentDecision is the outcome of the cost gate prompt.
type ConsentDecision string

const (
	ConsentApproved ConsentDecision = "approved"
	ConsentDenied   ConsentDecision = "denied"
	ConsentAlways   ConsentDecision = "always"
)

// DefaultAlwaysAllowUnder is the admission threshold applied when the
// config carries no consult.alwaysAllowUnder value.
const DefaultAlwaysAllowUnder = 0.50

// NonInteractiveEnv suppresses consent and fallback prompts when set to a
// non-empty value; estimates are auto-approved with a logged notice.
const NonInteractiveEnv = "LLM_CONCLAVE_MCP"

// ConsentPrompter collects the user's decision for an over-threshold
// estimate. Implementations live at the CLI boundary.
type ConsentPrompter interface {
	// PromptConsent presents the estimate and returns the decision. For
	// ConsentAlways it also returns the new threshold to persist.
	PromptConsent(estimate Estimate, agents, rounds int) (ConsentDecision, float64, error)
}

// ThresholdStore persists the auto-approve threshold across runs.
type ThresholdStore interface {
	AlwaysAllowUnder() float64
	SaveAlwaysAllowUnder(threshold float64) error
}

// CostGate is the admission controller in front of the orchestrator.
type CostGate struct {
	store    ThresholdStore
	prompter ConsentPrompter
	logger   *logging.Logger
}

// NewCostGate creates a cost gate over the given threshold store and
// prompter.
func NewCostGate(store ThresholdStore, prompter ConsentPrompter, logger *logging.Logger) *CostGate {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CostGate{store: store, prompter: prompter, logger: logger}
}

// ShouldPrompt reports whether the estimate requires explicit consent.
// The comparison is strictly greater-than: an estimate equal to the
// threshold passes silently.
func (g *CostGate) ShouldPrompt(estimate Estimate) bool {
	return estimate.USD > g.threshold()
}

func (g *CostGate) threshold() float64 {
	if g.store == nil {
		return DefaultAlwaysAllowUnder
	}
	t := g.store.AlwaysAllowUnder()
	if t <= 0 {
		return DefaultAlwaysAllowUnder
	}
	return t
}

// GetUserConsent resolves the admission decision for an estimate. Under
// the threshold it approves without prompting. In non-interactive mode it
// auto-approves with a logged notice. A decision of "always" persists the
// new threshold and approves the current run.
func (g *CostGate) GetUserConsent(estimate Estimate, agents, rounds int) (ConsentDecision, error) {
	if !g.ShouldPrompt(estimate) {
		return ConsentApproved, nil
	}

	if os.Getenv(NonInteractiveEnv) != "" {
		g.logger.Info("auto-approving estimate in non-interactive mode",
			"estimate_usd", estimate.USD,
			"threshold_usd", g.threshold())
		return ConsentApproved, nil
	}

	if g.prompter == nil {
		return ConsentDenied, core.ErrAdmissionDenied(estimate.USD).
			WithDetail("reason", "no prompter available for over-threshold estimate")
	}

	decision, newThreshold, err := g.prompter.PromptConsent(estimate, agents, rounds)
	if err != nil {
		return ConsentDenied, err
	}

	if decision == ConsentAlways {
		if newThreshold <= 0 {
			return ConsentDenied, core.ErrValidation(core.CodeInvalidThreshold,
				"auto-approve threshold must be a positive number")
		}
		if g.store != nil {
			if err := g.store.SaveAlwaysAllowUnder(newThreshold); err != nil {
				// The run itself was approved; losing the persisted
				// threshold only costs a prompt next time.
				g.logger.Warn("failed to persist auto-approve threshold", "error", err)
			}
		}
		return ConsentApproved, nil
	}

	return decision, nil
}
