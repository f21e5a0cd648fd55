package core

import "context"

// =============================================================================
// Provider Port
// =============================================================================

// ChatUsage reports token consumption for a single chat call.
type ChatUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ChatResponse is the raw outcome of a provider chat call.
type ChatResponse struct {
	Text  string    `json:"text"`
	Usage ChatUsage `json:"usage"`
}

// ProviderChat is the transport capability the core requires from a
// language-model provider. Implementations live outside the core; the
// orchestrator only depends on this contract.
type ProviderChat interface {
	// Name returns the provider handle used in registries and results.
	Name() string

	// Model returns the model identifier this provider handle serves.
	Model() string

	// Chat sends a conversation and returns the model's reply. It must
	// honor ctx cancellation and may return transport errors.
	Chat(ctx context.Context, messages []Message, systemPrompt string) (*ChatResponse, error)
}

// Provider tiers, typical latency/quality descending.
const (
	Tier1 = 1
	Tier2 = 2
	Tier3 = 3
)

// ProviderKey is the registry key for a provider handle bound to one
// model. Two agents on the same backend with different models are
// distinct registry entries; keying by handle alone would let one
// binding shadow the other.
func ProviderKey(provider, model string) string {
	return provider + "/" + model
}

// ProviderRegistry resolves provider keys and their static tier
// partition for hedging and fallback decisions.
type ProviderRegistry interface {
	// Get retrieves a provider binding by key (see ProviderKey).
	Get(key string) (ProviderChat, error)

	// Tier returns the tier a binding belongs to (Tier1..Tier3), or 0 if
	// the key is unknown.
	Tier(key string) int

	// InTier returns the keys in a tier, in stable order.
	InTier(tier int) []string

	// List returns all registered keys in stable order.
	List() []string
}

// =============================================================================
// Result Store Port
// =============================================================================

// ResultSummary is a lightweight view of a stored consultation for listing.
type ResultSummary struct {
	ConsultationID string  `json:"consultation_id"`
	Question       string  `json:"question"` // truncated for display
	Mode           string  `json:"mode"`
	Status         string  `json:"status"`
	Confidence     float64 `json:"confidence"`
	CostUSD        float64 `json:"cost_usd"`
	DurationMS     int64   `json:"duration_ms"`
	CreatedAt      string  `json:"created_at"`
}

// ResultStore persists sealed consultation results for later inspection.
type ResultStore interface {
	// Save persists a sealed result.
	Save(ctx context.Context, result *ConsultationResult) error

	// Load retrieves a result by consultation ID. Returns nil and no
	// error if the result does not exist.
	Load(ctx context.Context, id string) (*ConsultationResult, error)

	// List returns summaries of all stored results, newest first.
	List(ctx context.Context) ([]ResultSummary, error)

	// Close releases any underlying resources.
	Close() error
}
