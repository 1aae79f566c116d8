package llm

import (
	"context"
	"os"

	"github.com/awein/winnow/compact"
	"github.com/awein/winnow/errors"
	"github.com/awein/winnow/session"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// OpenAIClient is a client for the OpenAI Chat Completion API.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a new OpenAIClient. It requires the OPENAI_API_KEY environment variable to be set.
// It also supports OPENAI_BASE_URL for custom API endpoints.
func NewOpenAIClient(ctx context.Context, modelName string) (*OpenAIClient, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	options := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	baseURL := os.Getenv("OPENAI_BASE_URL")
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}

	// The v2 SDK uses functional options for configuration.
	c := openai.NewClient(options...)
	return &OpenAIClient{client: &c, model: modelName}, nil
}

// Chat sends a chat request to OpenAI and converts the response into our internal session.Message format.
func (o *OpenAIClient) Chat(ctx context.Context, messages []session.Message) (*session.Message, error) {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.model),
		Messages: convertMessagesToOpenAIContent(messages),
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send message to OpenAI")
	}
	if len(resp.Choices) == 0 {
		return &session.Message{Role: session.RoleAssistant}, nil
	}
	return &session.Message{
		Role:    session.RoleAssistant,
		Content: resp.Choices[0].Message.Content,
	}, nil
}

// Summarize asks the model to compress a rendered conversation
// transcript into a summary.
func (o *OpenAIClient) Summarize(ctx context.Context, transcript string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(compact.SummarizationSystemPrompt),
			openai.UserMessage(compact.BuildSummarizationPrompt(transcript)),
		},
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to summarize with OpenAI")
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("received an empty summarization response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// convertMessagesToOpenAIContent converts our internal message format to OpenAI's.
// Multi-part payloads become content-part arrays so image references and
// their detail hints survive the conversion.
func convertMessagesToOpenAIContent(messages []session.Message) []openai.ChatCompletionMessageParamUnion {
	var chatMessages []openai.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		switch msg.Role {
		case session.RoleSystem:
			chatMessages = append(chatMessages, openai.SystemMessage(msg.Text()))
		case session.RoleAssistant:
			chatMessages = append(chatMessages, openai.AssistantMessage(msg.Text()))
		case session.RoleTool:
			chatMessages = append(chatMessages, openai.UserMessage("Tool result:\n"+msg.Text()))
		default:
			if len(msg.Parts) == 0 {
				chatMessages = append(chatMessages, openai.UserMessage(msg.Content))
				continue
			}
			var parts []openai.ChatCompletionContentPartUnionParam
			for _, p := range msg.Parts {
				switch p.Type {
				case session.PartText:
					parts = append(parts, openai.TextContentPart(p.Text))
				case session.PartImage:
					parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
						URL:    p.ImageURL,
						Detail: p.Detail,
					}))
				}
			}
			chatMessages = append(chatMessages, openai.UserMessage(parts))
		}
	}
	return chatMessages
}
