package llm

import (
	"context"
	"fmt"

	"github.com/awein/winnow/errors"
	"github.com/awein/winnow/session"
)

// Client is the interface for interacting with a Large Language Model.
// Chat drives the dialog loop; Summarize is the delegate the compaction
// engine calls with a rendered transcript.
type Client interface {
	Chat(ctx context.Context, messages []session.Message) (*session.Message, error)
	Summarize(ctx context.Context, transcript string) (string, error)
}

// NewClient constructs the provider named in the configuration.
func NewClient(ctx context.Context, provider, model string) (Client, error) {
	switch provider {
	case "anthropic":
		return NewAnthropicClient(ctx, model)
	case "openai":
		return NewOpenAIClient(ctx, model)
	case "gemini":
		return NewGeminiClient(ctx, model)
	case "bedrock":
		return NewBedrockClient(ctx, model)
	case "mock":
		return &MockClient{}, nil
	default:
		return nil, errors.New("unknown llm provider %q", provider)
	}
}

// MockClient is a placeholder for testing without network access.
type MockClient struct{}

func (m *MockClient) Chat(ctx context.Context, messages []session.Message) (*session.Message, error) {
	last := ""
	if len(messages) > 0 {
		last = messages[len(messages)-1].Text()
	}
	return &session.Message{
		Role:    session.RoleAssistant,
		Content: fmt.Sprintf("I am a mock LLM. You said: '%s'.", last),
	}, nil
}

func (m *MockClient) Summarize(ctx context.Context, transcript string) (string, error) {
	return fmt.Sprintf("Mock summary of %d characters of conversation.", len(transcript)), nil
}
