package llm

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/awein/winnow/compact"
	"github.com/awein/winnow/errors"
	"github.com/awein/winnow/session"
)

// BedrockClient is a client for the Anthropic models on AWS Bedrock.
type BedrockClient struct {
	client  *bedrockruntime.Client
	modelID string
	region  string
}

// NewBedrockClient creates a new BedrockClient.
// It requires AWS credentials to be configured in the environment.
func NewBedrockClient(ctx context.Context, modelID string) (*BedrockClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load AWS config")
	}

	client := bedrockruntime.NewFromConfig(cfg)

	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	return &BedrockClient{
		client:  client,
		modelID: modelID,
		region:  region,
	}, nil
}

// Chat sends a chat request to the Anthropic model via AWS Bedrock.
func (b *BedrockClient) Chat(ctx context.Context, messages []session.Message) (*session.Message, error) {
	anthropicMessages, systemPrompt := convertMessagesToBedrockFormat(messages)

	text, err := b.invoke(ctx, anthropicMessages, systemPrompt)
	if err != nil {
		return nil, err
	}
	return &session.Message{Role: session.RoleAssistant, Content: text}, nil
}

// Summarize asks the model to compress a rendered conversation
// transcript into a summary.
func (b *BedrockClient) Summarize(ctx context.Context, transcript string) (string, error) {
	messages := []map[string]interface{}{
		{
			"role": "user",
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": compact.BuildSummarizationPrompt(transcript),
				},
			},
		},
	}
	return b.invoke(ctx, messages, compact.SummarizationSystemPrompt)
}

// invoke sends an Anthropic-format request body through the Bedrock
// runtime and extracts the text of the response.
func (b *BedrockClient) invoke(ctx context.Context, messages []map[string]interface{}, systemPrompt string) (string, error) {
	request := map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        anthropicMaxTokens,
		"messages":          messages,
	}
	if systemPrompt != "" {
		request["system"] = systemPrompt
	}

	body, err := json.Marshal(request)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create Bedrock request")
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", errors.Wrapf(err, "failed to invoke Bedrock model")
	}
	return extractBedrockText(resp.Body)
}

// convertMessagesToBedrockFormat converts our internal message format to the
// Anthropic JSON shape Bedrock expects. System messages are lifted into the
// system prompt (the last one wins).
func convertMessagesToBedrockFormat(messages []session.Message) ([]map[string]interface{}, string) {
	var out []map[string]interface{}
	var systemPrompt string

	for _, msg := range messages {
		var role, text string
		switch msg.Role {
		case session.RoleSystem:
			systemPrompt = msg.Text()
			continue
		case session.RoleAssistant:
			role, text = "assistant", msg.Text()
			if text == "" {
				continue
			}
		case session.RoleTool:
			role, text = "user", "Tool result:\n"+msg.Text()
		default:
			role, text = "user", msg.Text()
		}
		out = append(out, map[string]interface{}{
			"role": role,
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": text,
				},
			},
		})
	}

	return out, systemPrompt
}

// extractBedrockText pulls the concatenated text blocks out of a Bedrock
// response body.
func extractBedrockText(body []byte) (string, error) {
	var response map[string]interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", errors.Wrapf(err, "failed to unmarshal Bedrock response")
	}

	if errMsg, ok := response["error"]; ok {
		return "", errors.New("Bedrock API error: %v", errMsg)
	}

	content, ok := response["content"]
	if !ok {
		return "", nil
	}
	contentArray, ok := content.([]interface{})
	if !ok {
		return "", errors.New("unexpected content format in Bedrock response")
	}

	var out string
	for _, item := range contentArray {
		itemMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if itemMap["type"] == "text" {
			if text, ok := itemMap["text"].(string); ok {
				out += text
			}
		}
	}
	return out, nil
}
