// Package providers implements the ProviderChat transport adapters over
// the official SDKs, plus the static tiered registry consumed by the
// hedged request manager.
package providers

import (
	"sort"
	"sync"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

// StaticRegistry is a fixed provider set partitioned into tiers. The
// partition never changes after construction; health is tracked
// separately by the hedger.
type StaticRegistry struct {
	mu        sync.RWMutex
	providers map[string]core.ProviderChat
	tiers     map[string]int
}

// NewStaticRegistry creates an empty registry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{
		providers: make(map[string]core.ProviderChat),
		tiers:     make(map[string]int),
	}
}

// Register adds a provider binding to a tier, keyed by handle and model
// so agents sharing a backend keep their own model binding. A previous
// entry with the same key is replaced.
func (r *StaticRegistry) Register(p core.ProviderChat, tier int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := core.ProviderKey(p.Name(), p.Model())
	r.providers[key] = p
	r.tiers[key] = tier
}

// Get retrieves a provider binding by key.
func (r *StaticRegistry) Get(key string) (core.ProviderChat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[key]
	if !ok {
		return nil, core.ErrTransport(key, "provider not registered")
	}
	return p, nil
}

// Tier returns the tier a binding belongs to, or 0 if unknown.
func (r *StaticRegistry) Tier(key string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tiers[key]
}

// InTier returns the binding keys in a tier, sorted for stable
// selection order.
func (r *StaticRegistry) InTier(tier int) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var keys []string
	for key, t := range r.tiers {
		if t == tier {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// List returns all registered binding keys, sorted.
func (r *StaticRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.providers))
	for key := range r.providers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
