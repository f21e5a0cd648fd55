package consult

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/events"
	"github.com/thebenlamm/LLM-Conclave-sub004/internal/logging"
)

// unhealthyAfter is the consecutive-failure count that marks a provider
// unhealthy until its next success.
const unhealthyAfter = 3

// HealthTracker tracks health per provider binding (see
// core.ProviderKey) across concurrent agent calls. Updates are atomic
// per key.
type HealthTracker struct {
	mu      sync.Mutex
	entries map[string]*healthEntry
}

type healthEntry struct {
	consecutiveFailures int
}

// NewHealthTracker creates an empty tracker; unknown providers are
// considered healthy.
func NewHealthTracker() *HealthTracker {
	return &HealthTracker{entries: make(map[string]*healthEntry)}
}

// RecordSuccess resets a provider's failure streak.
func (t *HealthTracker) RecordSuccess(provider string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entry(provider).consecutiveFailures = 0
}

// RecordFailure extends a provider's failure streak.
func (t *HealthTracker) RecordFailure(provider string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entry(provider).consecutiveFailures++
}

// Healthy reports whether a provider is below the failure cutoff.
func (t *HealthTracker) Healthy(provider string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entry(provider).consecutiveFailures < unhealthyAfter
}

func (t *HealthTracker) entry(provider string) *healthEntry {
	e, ok := t.entries[provider]
	if !ok {
		e = &healthEntry{}
		t.entries[provider] = e
	}
	return e
}

// FallbackDecision is the user's answer to a primary-failure prompt.
type FallbackDecision int

const (
	FallbackYes FallbackDecision = iota
	FallbackNo
	FallbackFail
)

func (d FallbackDecision) String() string {
	switch d {
	case FallbackYes:
		return "yes"
	case FallbackNo:
		return "no"
	default:
		return "fail"
	}
}

// FallbackPrompter asks the user whether to try a backup provider after
// the primary failed. Implementations live at the CLI boundary.
type FallbackPrompter interface {
	PromptFallback(agent, primary, backup string, cause error) (FallbackDecision, error)
}

// Default hedging timings. The per-call timeout is a small multiple of
// the hedge deadline so a hedged pair cannot outlive the round for long.
const (
	DefaultHedgeDeadline = 10 * time.Second
	DefaultCallTimeout   = 30 * time.Second
)

// Hedger executes a single agent call with latency hedging and tiered
// fallback. It never returns an error: a call that cannot be served
// degrades to an empty-content response with the error recorded, so the
// round continues with the agent marked failed.
type Hedger struct {
	registry      core.ProviderRegistry
	health        *HealthTracker
	prompter      FallbackPrompter
	bus           *events.Bus
	logger        *logging.Logger
	hedgeDeadline time.Duration
	callTimeout   time.Duration
}

// HedgerOption customises a Hedger.
type HedgerOption func(*Hedger)

// WithHedgeDeadline overrides the latency threshold for dispatching the
// backup provider.
func WithHedgeDeadline(d time.Duration) HedgerOption {
	return func(h *Hedger) { h.hedgeDeadline = d }
}

// WithCallTimeout overrides the per-call timeout.
func WithCallTimeout(d time.Duration) HedgerOption {
	return func(h *Hedger) { h.callTimeout = d }
}

// WithFallbackPrompter sets the interactive prompt for primary failures.
func WithFallbackPrompter(p FallbackPrompter) HedgerOption {
	return func(h *Hedger) { h.prompter = p }
}

// NewHedger creates a hedged request manager over a provider registry.
func NewHedger(registry core.ProviderRegistry, health *HealthTracker, bus *events.Bus, logger *logging.Logger, opts ...HedgerOption) *Hedger {
	if health == nil {
		health = NewHealthTracker()
	}
	if bus == nil {
		bus = events.Default()
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	h := &Hedger{
		registry:      registry,
		health:        health,
		bus:           bus,
		logger:        logger,
		hedgeDeadline: DefaultHedgeDeadline,
		callTimeout:   DefaultCallTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health exposes the shared tracker.
func (h *Hedger) Health() *HealthTracker { return h.health }

// providerKey returns the registry key for the binding that served or
// will serve a call. Health is tracked under the same keys.
func providerKey(p core.ProviderChat) string {
	return core.ProviderKey(p.Name(), p.Model())
}

// BackupProvider selects a healthy binding to stand in for the primary
// key: first any other binding in the primary's tier, then Tier2, then
// Tier3. Returns false when every candidate is unhealthy.
func (h *Hedger) BackupProvider(primary string) (core.ProviderChat, bool) {
	primaryTier := h.registry.Tier(primary)

	tiers := []int{primaryTier, core.Tier2, core.Tier3}
	seen := map[int]bool{}
	for _, tier := range tiers {
		if tier == 0 || seen[tier] {
			continue
		}
		seen[tier] = true
		for _, key := range h.registry.InTier(tier) {
			if key == primary || !h.health.Healthy(key) {
				continue
			}
			p, err := h.registry.Get(key)
			if err != nil {
				continue
			}
			return p, true
		}
	}
	return nil, false
}

type callOutcome struct {
	provider core.ProviderChat
	resp     *core.ChatResponse
	err      error
}

// Execute runs one agent call. The returned response always carries the
// provider and model that actually served it.
func (h *Hedger) Execute(ctx context.Context, consultationID string, agent core.Agent, round int, messages []core.Message, systemPrompt string) core.AgentResponse {
	started := time.Now()
	log := h.logger.WithConsultation(consultationID).WithAgent(agent.Name).WithRound(round)

	primaryKey := core.ProviderKey(agent.Provider, agent.Model)
	primary, err := h.registry.Get(primaryKey)
	if err != nil || !h.health.Healthy(primaryKey) {
		if err == nil {
			err = core.ErrTransport(agent.Provider, "provider is unhealthy")
		}
		return h.fallbackAfterFailure(ctx, consultationID, agent, started, err, messages, systemPrompt, log)
	}

	callCtx, cancel := context.WithTimeout(ctx, h.callTimeout)
	defer cancel()

	outcomes := make(chan callOutcome, 2)
	go h.dispatch(callCtx, primary, messages, systemPrompt, outcomes)

	hedgeTimer := time.NewTimer(h.hedgeDeadline)
	defer hedgeTimer.Stop()

	hedged := false
	pending := 1
	var firstErr error

	for pending > 0 {
		select {
		case <-hedgeTimer.C:
			if hedged {
				continue
			}
			backup, ok := h.BackupProvider(primaryKey)
			if !ok {
				continue
			}
			hedged = true
			pending++
			log.Debug("hedging slow primary", "backup", backup.Name())
			go h.dispatch(callCtx, backup, messages, systemPrompt, outcomes)

		case out := <-outcomes:
			pending--
			if out.err != nil {
				h.health.RecordFailure(providerKey(out.provider))
				if firstErr == nil {
					firstErr = out.err
				}
				if pending > 0 {
					continue
				}
				if !hedged {
					// Primary failed outright before any hedge fired.
					return h.fallbackAfterFailure(ctx, consultationID, agent, started, out.err, messages, systemPrompt, log)
				}
				return failedResponse(agent, started, firstErr)
			}

			h.health.RecordSuccess(providerKey(out.provider))
			cancel() // release the losing call, if any
			if providerKey(out.provider) != primaryKey {
				h.bus.Emit(events.NewProviderSubstitutedEvent(consultationID, agent.Name,
					agent.Provider, out.provider.Name(), events.SubstitutionReasonLatency, out.provider.Model()))
			}
			return successResponse(agent, out, started)

		case <-ctx.Done():
			return failedResponse(agent, started, core.ErrTimeout("agent call cancelled").WithCause(ctx.Err()))
		}
	}

	return failedResponse(agent, started, firstErr)
}

func (h *Hedger) dispatch(ctx context.Context, provider core.ProviderChat, messages []core.Message, systemPrompt string, out chan<- callOutcome) {
	resp, err := provider.Chat(ctx, messages, systemPrompt)
	out <- callOutcome{provider: provider, resp: resp, err: err}
}

// fallbackAfterFailure handles a primary that failed before producing any
// result: auto-attempt the backup in non-interactive mode, otherwise ask.
func (h *Hedger) fallbackAfterFailure(ctx context.Context, consultationID string, agent core.Agent, started time.Time, cause error, messages []core.Message, systemPrompt string, log *logging.Logger) core.AgentResponse {
	backup, ok := h.BackupProvider(core.ProviderKey(agent.Provider, agent.Model))
	if !ok {
		return failedResponse(agent, started, cause)
	}

	if os.Getenv(NonInteractiveEnv) == "" && h.prompter != nil {
		decision, err := h.prompter.PromptFallback(agent.Name, agent.Provider, backup.Name(), cause)
		if err != nil || decision != FallbackYes {
			return failedResponse(agent, started, cause)
		}
	}

	log.Info("retrying via backup provider", "backup", backup.Name(), "cause", cause.Error())

	callCtx, cancel := context.WithTimeout(ctx, h.callTimeout)
	defer cancel()

	resp, err := backup.Chat(callCtx, messages, systemPrompt)
	if err != nil {
		h.health.RecordFailure(providerKey(backup))
		return failedResponse(agent, started, cause)
	}
	h.health.RecordSuccess(providerKey(backup))
	h.bus.Emit(events.NewProviderSubstitutedEvent(consultationID, agent.Name,
		agent.Provider, backup.Name(), events.SubstitutionReasonFailure, backup.Model()))

	return successResponse(agent, callOutcome{provider: backup, resp: resp}, started)
}

func successResponse(agent core.Agent, out callOutcome, started time.Time) core.AgentResponse {
	return core.AgentResponse{
		AgentID:  agent.Name,
		Model:    out.provider.Model(),
		Provider: out.provider.Name(),
		Content:  out.resp.Text,
		Tokens: core.TokenCount{
			Input:  out.resp.Usage.InputTokens,
			Output: out.resp.Usage.OutputTokens,
			Total:  out.resp.Usage.InputTokens + out.resp.Usage.OutputTokens,
		},
		DurationMS: time.Since(started).Milliseconds(),
		Timestamp:  time.Now(),
	}
}

func failedResponse(agent core.Agent, started time.Time, cause error) core.AgentResponse {
	msg := "agent call failed"
	if cause != nil {
		msg = cause.Error()
	}
	return core.AgentResponse{
		AgentID:    agent.Name,
		Model:      agent.Model,
		Provider:   agent.Provider,
		DurationMS: time.Since(started).Milliseconds(),
		Timestamp:  time.Now(),
		Error:      msg,
	}
}
