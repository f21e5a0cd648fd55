package providers

import (
	"context"
	"os"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

// AnthropicEnvKey names the environment variable holding the Anthropic
// API key.
const AnthropicEnvKey = "ANTHROPIC_API_KEY"

// anthropicMaxTokens caps reply length; round artifacts fit well within.
const anthropicMaxTokens = 4096

// AnthropicProvider serves chat calls through the Anthropic API.
type AnthropicProvider struct {
	client sdk.Client
	model  string
}

// NewAnthropicProvider creates a provider bound to one model. The API key
// is read from ANTHROPIC_API_KEY when apiKey is empty.
func NewAnthropicProvider(model, apiKey string) *AnthropicProvider {
	if apiKey == "" {
		apiKey = os.Getenv(AnthropicEnvKey)
	}
	return &AnthropicProvider{
		client: sdk.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *AnthropicProvider) Name() string  { return "anthropic" }
func (p *AnthropicProvider) Model() string { return p.model }

// Chat sends the conversation and returns the concatenated text blocks.
func (p *AnthropicProvider) Chat(ctx context.Context, messages []core.Message, systemPrompt string) (*core.ChatResponse, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(p.model),
		MaxTokens: anthropicMaxTokens,
	}
	if systemPrompt != "" {
		params.System = []sdk.TextBlockParam{{Text: systemPrompt}}
	}
	for _, m := range messages {
		switch m.Role {
		case core.RoleAssistant:
			params.Messages = append(params.Messages, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		default:
			params.Messages = append(params.Messages, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, core.ErrTransport(p.Name(), "message call failed").WithCause(err)
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &core.ChatResponse{
		Text: text.String(),
		Usage: core.ChatUsage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}, nil
}
