package llm

import (
	"context"
	"os"

	"github.com/awein/winnow/compact"
	"github.com/awein/winnow/errors"
	"github.com/awein/winnow/session"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient is a client for the Google Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a new GeminiClient.
// It requires the GEMINI_API_KEY environment variable to be set.
func NewGeminiClient(ctx context.Context, modelName string) (*GeminiClient, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create genai client")
	}

	return &GeminiClient{
		client: client,
		model:  modelName,
	}, nil
}

// Chat sends a chat request to the Gemini API.
func (g *GeminiClient) Chat(ctx context.Context, messages []session.Message) (*session.Message, error) {
	model := g.client.GenerativeModel(g.model)
	history, system := convertMessagesToGeminiContent(messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
	if len(history) == 0 {
		return nil, errors.New("no messages to send to Gemini")
	}

	// The last message is the new prompt.
	lastMessage := history[len(history)-1]

	chatSession := model.StartChat()
	chatSession.History = history[:len(history)-1]
	resp, err := chatSession.SendMessage(ctx, lastMessage.Parts...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to send message to Gemini")
	}

	text, err := collectGeminiText(resp)
	if err != nil {
		return nil, err
	}
	return &session.Message{Role: session.RoleAssistant, Content: text}, nil
}

// Summarize asks the model to compress a rendered conversation
// transcript into a summary.
func (g *GeminiClient) Summarize(ctx context.Context, transcript string) (string, error) {
	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(compact.SummarizationSystemPrompt)},
	}
	resp, err := model.GenerateContent(ctx, genai.Text(compact.BuildSummarizationPrompt(transcript)))
	if err != nil {
		return "", errors.Wrapf(err, "failed to summarize with Gemini")
	}
	return collectGeminiText(resp)
}

// convertMessagesToGeminiContent converts our internal message format to Gemini's.
// System messages are folded into the system instruction (the last one wins).
func convertMessagesToGeminiContent(messages []session.Message) ([]*genai.Content, string) {
	var contents []*genai.Content
	var system string
	for _, msg := range messages {
		if msg.Role == session.RoleSystem {
			system = msg.Text()
			continue
		}
		role := "user"
		if msg.Role == session.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Text())},
		})
	}
	return contents, system
}

// collectGeminiText concatenates the text parts of a response.
func collectGeminiText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("received an empty response from Gemini")
	}
	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	return out, nil
}
