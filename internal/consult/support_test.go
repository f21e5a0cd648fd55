package consult

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

// fakeProvider is a scripted ProviderChat for tests.
type fakeProvider struct {
	name   string
	model  string
	delay  time.Duration
	reply  string
	err    error
	inTok  int
	outTok int
	calls  atomic.Int32
}

func (p *fakeProvider) Name() string  { return p.name }
func (p *fakeProvider) Model() string { return p.model }

func (p *fakeProvider) usage() core.ChatUsage {
	in, out := p.inTok, p.outTok
	if in == 0 {
		in = 100
	}
	if out == 0 {
		out = 200
	}
	return core.ChatUsage{InputTokens: in, OutputTokens: out}
}

func (p *fakeProvider) Chat(ctx context.Context, messages []core.Message, systemPrompt string) (*core.ChatResponse, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return &core.ChatResponse{
		Text:  p.reply,
		Usage: p.usage(),
	}, nil
}

// scriptedProvider returns a different reply per call, for multi-round
// orchestrator tests.
type scriptedProvider struct {
	name    string
	model   string
	replies []string
	errs    []error
	outToks []int
	call    atomic.Int32
}

func (p *scriptedProvider) Name() string  { return p.name }
func (p *scriptedProvider) Model() string { return p.model }

func (p *scriptedProvider) Chat(ctx context.Context, messages []core.Message, systemPrompt string) (*core.ChatResponse, error) {
	n := int(p.call.Add(1)) - 1
	if n < len(p.errs) && p.errs[n] != nil {
		return nil, p.errs[n]
	}
	reply := ""
	if n < len(p.replies) {
		reply = p.replies[n]
	} else if len(p.replies) > 0 {
		reply = p.replies[len(p.replies)-1]
	}
	out := 200
	if n < len(p.outToks) && p.outToks[n] > 0 {
		out = p.outToks[n]
	}
	return &core.ChatResponse{
		Text:  reply,
		Usage: core.ChatUsage{InputTokens: 100, OutputTokens: out},
	}, nil
}

// fakeRegistry is a static ProviderRegistry for tests, keyed like the
// real one: provider handle plus model.
type fakeRegistry struct {
	providers map[string]core.ProviderChat
	tiers     map[string]int
	order     []string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		providers: make(map[string]core.ProviderChat),
		tiers:     make(map[string]int),
	}
}

func (r *fakeRegistry) add(p core.ProviderChat, tier int) *fakeRegistry {
	key := core.ProviderKey(p.Name(), p.Model())
	r.providers[key] = p
	r.tiers[key] = tier
	r.order = append(r.order, key)
	return r
}

func (r *fakeRegistry) Get(key string) (core.ProviderChat, error) {
	p, ok := r.providers[key]
	if !ok {
		return nil, core.ErrTransport(key, "unknown provider")
	}
	return p, nil
}

func (r *fakeRegistry) Tier(key string) int { return r.tiers[key] }

func (r *fakeRegistry) InTier(tier int) []string {
	var keys []string
	for _, key := range r.order {
		if r.tiers[key] == tier {
			keys = append(keys, key)
		}
	}
	return keys
}

func (r *fakeRegistry) List() []string { return append([]string(nil), r.order...) }
