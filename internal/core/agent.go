package core

import (
	"fmt"
	"strings"
)

// Agent is an expert persona bound to a specific model and provider.
// Agents are value objects; the panel is fixed at construction time and
// never mutates during a consultation.
type Agent struct {
	Name         string `json:"name" yaml:"name"`
	Role         string `json:"role" yaml:"role"`
	Model        string `json:"model" yaml:"model"`
	Provider     string `json:"provider" yaml:"provider"`
	SystemPrompt string `json:"system_prompt" yaml:"system_prompt"`
}

// Validate checks that the agent carries the minimum identity required
// to participate in a consultation.
func (a Agent) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrValidation(CodeInvalidAgent, "agent name is required")
	}
	if strings.TrimSpace(a.Model) == "" {
		return ErrValidation(CodeInvalidAgent, fmt.Sprintf("agent %s: model is required", a.Name))
	}
	if strings.TrimSpace(a.Provider) == "" {
		return ErrValidation(CodeInvalidAgent, fmt.Sprintf("agent %s: provider is required", a.Name))
	}
	return nil
}

// Panel is the ordered set of agents convened for a consultation.
// Ordering is significant: round artifacts are emitted in panel order so
// downstream prompts are deterministic given the same responses.
type Panel []Agent

// Validate checks panel invariants: at least one agent, unique names,
// each agent individually valid.
func (p Panel) Validate() error {
	if len(p) == 0 {
		return ErrValidation(CodeNoAgents, "panel must contain at least one agent")
	}
	seen := make(map[string]bool, len(p))
	for _, a := range p {
		if err := a.Validate(); err != nil {
			return err
		}
		if seen[a.Name] {
			return ErrValidation(CodeInvalidAgent, fmt.Sprintf("duplicate agent name: %s", a.Name))
		}
		seen[a.Name] = true
	}
	return nil
}

// Names returns the agent names in panel order.
func (p Panel) Names() []string {
	names := make([]string, len(p))
	for i, a := range p {
		names[i] = a.Name
	}
	return names
}

// Get returns the agent with the given name.
func (p Panel) Get(name string) (Agent, bool) {
	for _, a := range p {
		if a.Name == name {
			return a, true
		}
	}
	return Agent{}, false
}

// Message represents a single message in a model conversation.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Message role constants.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)
