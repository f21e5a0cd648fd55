package providers

import (
	"context"
	"testing"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

type stubProvider struct {
	name  string
	model string
}

func (p *stubProvider) Name() string  { return p.name }
func (p *stubProvider) Model() string { return p.model }

func (p *stubProvider) Chat(ctx context.Context, messages []core.Message, systemPrompt string) (*core.ChatResponse, error) {
	return &core.ChatResponse{Text: "ok"}, nil
}

func TestStaticRegistry(t *testing.T) {
	r := NewStaticRegistry()
	r.Register(&stubProvider{name: "openai", model: "gpt-4o"}, core.Tier1)
	r.Register(&stubProvider{name: "anthropic", model: "claude-sonnet-4"}, core.Tier1)
	r.Register(&stubProvider{name: "gemini", model: "gemini-2.0-flash"}, core.Tier2)

	p, err := r.Get(core.ProviderKey("openai", "gpt-4o"))
	if err != nil || p.Model() != "gpt-4o" {
		t.Fatalf("Get: %v %v", p, err)
	}
	if _, err := r.Get("nope"); err == nil {
		t.Errorf("expected error for unknown key")
	}

	if r.Tier(core.ProviderKey("gemini", "gemini-2.0-flash")) != core.Tier2 || r.Tier("nope") != 0 {
		t.Errorf("tier lookup wrong")
	}

	tier1 := r.InTier(core.Tier1)
	if len(tier1) != 2 || tier1[0] != "anthropic/claude-sonnet-4" || tier1[1] != "openai/gpt-4o" {
		t.Errorf("InTier order not stable: %v", tier1)
	}
	if got := r.List(); len(got) != 3 {
		t.Errorf("List = %v", got)
	}
}

func TestStaticRegistry_SharedHandleDistinctModels(t *testing.T) {
	r := NewStaticRegistry()
	r.Register(&stubProvider{name: "openai", model: "gpt-4o"}, core.Tier1)
	r.Register(&stubProvider{name: "openai", model: "gpt-4o-mini"}, core.Tier1)

	if got := r.List(); len(got) != 2 {
		t.Fatalf("bindings must not shadow each other: %v", got)
	}
	p, err := r.Get(core.ProviderKey("openai", "gpt-4o"))
	if err != nil || p.Model() != "gpt-4o" {
		t.Errorf("gpt-4o binding = %v %v", p, err)
	}
	p, err = r.Get(core.ProviderKey("openai", "gpt-4o-mini"))
	if err != nil || p.Model() != "gpt-4o-mini" {
		t.Errorf("gpt-4o-mini binding = %v %v", p, err)
	}
}

func TestNew(t *testing.T) {
	p, err := New(HandleOpenAI, "gpt-4o", "test-key")
	if err != nil || p.Name() != HandleOpenAI || p.Model() != "gpt-4o" {
		t.Fatalf("New openai: %v %v", p, err)
	}
	p, err = New(HandleAnthropic, "claude-sonnet-4", "test-key")
	if err != nil || p.Name() != HandleAnthropic {
		t.Fatalf("New anthropic: %v %v", p, err)
	}
	if _, err := New("watson", "m", ""); !core.IsCategory(err, core.ErrCatValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBuildRegistry(t *testing.T) {
	panel := core.Panel{
		{Name: "SecExpert", Role: "security", Model: "claude-sonnet-4", Provider: HandleAnthropic},
		{Name: "Architect", Role: "architecture", Model: "gpt-4o", Provider: HandleOpenAI},
	}
	registry, judge, err := BuildRegistry(panel, HandleOpenAI, "gpt-4o")
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	if judge.Model() != "gpt-4o" {
		t.Errorf("judge model = %s", judge.Model())
	}
	if len(registry.List()) != 2 {
		t.Errorf("registry = %v", registry.List())
	}
}

func TestBuildRegistry_AgentsSharingProvider(t *testing.T) {
	panel := core.Panel{
		{Name: "SecExpert", Role: "security", Model: "claude-sonnet-4", Provider: HandleAnthropic},
		{Name: "Architect", Role: "architecture", Model: "gpt-4o", Provider: HandleOpenAI},
		{Name: "Pragmatist", Role: "delivery", Model: "gpt-4o-mini", Provider: HandleOpenAI},
	}
	registry, _, err := BuildRegistry(panel, HandleOpenAI, "gpt-4o")
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}

	// Every agent must resolve to a binding serving its own model.
	for _, agent := range panel {
		p, err := registry.Get(core.ProviderKey(agent.Provider, agent.Model))
		if err != nil {
			t.Fatalf("agent %s: %v", agent.Name, err)
		}
		if p.Model() != agent.Model {
			t.Errorf("agent %s wants model %s but binding serves %s", agent.Name, agent.Model, p.Model())
		}
	}
}
