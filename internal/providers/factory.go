package providers

import (
	"fmt"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

// Known provider handles.
const (
	HandleOpenAI    = "openai"
	HandleAnthropic = "anthropic"
)

// New creates the adapter for a provider handle bound to one model.
func New(handle, model, apiKey string) (core.ProviderChat, error) {
	switch handle {
	case HandleOpenAI:
		return NewOpenAIProvider(model, apiKey), nil
	case HandleAnthropic:
		return NewAnthropicProvider(model, apiKey), nil
	default:
		return nil, core.ErrValidation(core.CodeInvalidAgent,
			fmt.Sprintf("unknown provider %q (want %s or %s)", handle, HandleOpenAI, HandleAnthropic))
	}
}

// defaultTier maps provider handles to their hedging tier.
func defaultTier(handle string) int {
	switch handle {
	case HandleOpenAI, HandleAnthropic:
		return core.Tier1
	default:
		return core.Tier2
	}
}

// BuildRegistry constructs the registry for a panel plus the judge
// provider. Each agent gets its own binding, keyed by provider handle
// and model, so agents sharing a backend stay distinct; the judge is
// returned separately, outside the panel's tiers.
func BuildRegistry(panel core.Panel, judgeProvider, judgeModel string) (*StaticRegistry, core.ProviderChat, error) {
	registry := NewStaticRegistry()
	for _, agent := range panel {
		p, err := New(agent.Provider, agent.Model, "")
		if err != nil {
			return nil, nil, err
		}
		registry.Register(p, defaultTier(agent.Provider))
	}

	judge, err := New(judgeProvider, judgeModel, "")
	if err != nil {
		return nil, nil, err
	}
	return registry, judge, nil
}
