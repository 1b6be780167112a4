package synthesis

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/curatohealth/medrag/helper"
)

// DefaultOpenAIChatModel is used when no model is configured.
const DefaultOpenAIChatModel = "gpt-4o-mini"

// OpenAIGenerator generates answers via the OpenAI chat completion API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator backed by the OpenAI API.
func NewOpenAIGenerator(apiKey string, model string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, helper.NewError("openai generator setup", fmt.Errorf("api key is empty"))
	}
	if model == "" {
		model = DefaultOpenAIChatModel
	}

	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

// Generate implements Generator.
func (g *OpenAIGenerator) Generate(ctx context.Context, request GenerationRequest) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: request.SystemInstruction,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: request.Prompt,
			},
		},
		Temperature: request.Temperature,
		MaxTokens:   request.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: empty completion", ErrGenerationUnavailable)
	}

	return resp.Choices[0].Message.Content, nil
}
