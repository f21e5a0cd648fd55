package providers

import (
	"context"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

// OpenAIEnvKey names the environment variable holding the OpenAI API key.
const OpenAIEnvKey = "OPENAI_API_KEY"

// OpenAIProvider serves chat calls through the OpenAI API.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates a provider bound to one model. The API key is
// read from OPENAI_API_KEY when apiKey is empty.
func NewOpenAIProvider(model, apiKey string) *OpenAIProvider {
	if apiKey == "" {
		apiKey = os.Getenv(OpenAIEnvKey)
	}
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *OpenAIProvider) Name() string  { return "openai" }
func (p *OpenAIProvider) Model() string { return p.model }

// Chat sends the conversation and returns the first choice's text.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []core.Message, systemPrompt string) (*core.ChatResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.model),
	}
	if systemPrompt != "" {
		params.Messages = append(params.Messages, openai.SystemMessage(systemPrompt))
	}
	for _, m := range messages {
		switch m.Role {
		case core.RoleAssistant:
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		case core.RoleSystem:
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, core.ErrTransport(p.Name(), "chat completion failed").WithCause(err)
	}
	if len(resp.Choices) == 0 {
		return nil, core.ErrTransport(p.Name(), "chat completion returned no choices")
	}

	return &core.ChatResponse{
		Text: resp.Choices[0].Message.Content,
		Usage: core.ChatUsage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}, nil
}
