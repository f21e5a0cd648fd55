package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

// PanelFile is the on-disk YAML shape of a panel definition.
type PanelFile struct {
	Agents []core.Agent `yaml:"agents"`
	Judge  PanelJudge   `yaml:"judge"`
}

// PanelJudge names the model that runs synthesis, cross-exam synthesis,
// and the verdict.
type PanelJudge struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// DefaultPanel returns the built-in three-expert panel used when no
// panel file is configured.
func DefaultPanel() PanelFile {
	return PanelFile{
		Agents: []core.Agent{
			{
				Name:         "SecExpert",
				Role:         "security",
				Model:        "claude-sonnet-4",
				Provider:     "anthropic",
				SystemPrompt: "You are a senior security engineer. Weigh threat models, attack surface, and failure modes before anything else.",
			},
			{
				Name:         "Architect",
				Role:         "architecture",
				Model:        "gpt-4o",
				Provider:     "openai",
				SystemPrompt: "You are a principal software architect. Weigh long-term structure, coupling, and operational cost.",
			},
			{
				Name:         "Pragmatist",
				Role:         "delivery",
				Model:        "gpt-4o-mini",
				Provider:     "openai",
				SystemPrompt: "You are a pragmatic tech lead. Weigh shipping speed, team capacity, and what can actually be maintained.",
			},
		},
		Judge: PanelJudge{Provider: "openai", Model: "gpt-4o"},
	}
}

// LoadPanel reads a panel definition from a YAML file. An empty path
// returns the default panel; a missing file is an error so typos in
// --panel do not silently fall back.
func LoadPanel(path string) (PanelFile, error) {
	if path == "" {
		return DefaultPanel(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return PanelFile{}, fmt.Errorf("reading panel file: %w", err)
	}

	var pf PanelFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return PanelFile{}, fmt.Errorf("parsing panel file: %w", err)
	}

	if pf.Judge.Provider == "" {
		pf.Judge = DefaultPanel().Judge
	}
	if err := core.Panel(pf.Agents).Validate(); err != nil {
		return PanelFile{}, err
	}
	return pf, nil
}
