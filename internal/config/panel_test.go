package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

func TestDefaultPanel(t *testing.T) {
	pf := DefaultPanel()
	if len(pf.Agents) != 3 {
		t.Fatalf("default panel has %d agents, want 3", len(pf.Agents))
	}
	if err := core.Panel(pf.Agents).Validate(); err != nil {
		t.Errorf("default panel invalid: %v", err)
	}
	if pf.Judge.Provider != "openai" || pf.Judge.Model != "gpt-4o" {
		t.Errorf("default judge = %+v", pf.Judge)
	}
}

func TestLoadPanel_EmptyPathReturnsDefault(t *testing.T) {
	pf, err := LoadPanel("")
	if err != nil {
		t.Fatalf("LoadPanel: %v", err)
	}
	if len(pf.Agents) != 3 || pf.Agents[0].Name != "SecExpert" {
		t.Errorf("expected default panel, got %+v", pf.Agents)
	}
}

func TestLoadPanel_FromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.yaml")
	body := `agents:
  - name: Skeptic
    role: review
    model: claude-sonnet-4
    provider: anthropic
  - name: Builder
    role: implementation
    model: gpt-4o
    provider: openai
judge:
  provider: anthropic
  model: claude-sonnet-4
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	pf, err := LoadPanel(path)
	if err != nil {
		t.Fatalf("LoadPanel: %v", err)
	}
	if len(pf.Agents) != 2 || pf.Agents[0].Name != "Skeptic" || pf.Agents[1].Provider != "openai" {
		t.Errorf("agents = %+v", pf.Agents)
	}
	if pf.Judge.Provider != "anthropic" {
		t.Errorf("judge = %+v", pf.Judge)
	}
}

func TestLoadPanel_JudgeDefaultsWhenOmitted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "panel.yaml")
	body := `agents:
  - name: Solo
    role: generalist
    model: gpt-4o
    provider: openai
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	pf, err := LoadPanel(path)
	if err != nil {
		t.Fatalf("LoadPanel: %v", err)
	}
	if pf.Judge.Provider != "openai" || pf.Judge.Model != "gpt-4o" {
		t.Errorf("judge not defaulted: %+v", pf.Judge)
	}
}

func TestLoadPanel_Errors(t *testing.T) {
	if _, err := LoadPanel(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("expected error for missing panel file")
	}

	path := filepath.Join(t.TempDir(), "panel.yaml")
	if err := os.WriteFile(path, []byte("agents: [{name: '', model: m, provider: openai}]"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPanel(path); !core.IsCategory(err, core.ErrCatValidation) {
		t.Errorf("expected validation error for nameless agent, got %v", err)
	}
}
