package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/curatohealth/medrag/helper"
)

// DefaultClaudeModel is used when no model is configured.
const DefaultClaudeModel = "claude-sonnet-4-20250514"

// ClaudeGenerator generates answers via the Anthropic messages API.
type ClaudeGenerator struct {
	client anthropic.Client
	model  string
}

// NewClaudeGenerator creates a generator backed by the Anthropic API.
func NewClaudeGenerator(apiKey string, model string) (*ClaudeGenerator, error) {
	if apiKey == "" {
		return nil, helper.NewError("claude generator setup", fmt.Errorf("api key is empty"))
	}
	if model == "" {
		model = DefaultClaudeModel
	}

	return &ClaudeGenerator{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

// Generate implements Generator.
func (g *ClaudeGenerator) Generate(ctx context.Context, request GenerationRequest) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: int64(request.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(request.Prompt)),
		},
	}

	if request.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(request.Temperature))
	}
	if request.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: request.SystemInstruction},
		}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	var answer strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			answer.WriteString(block.Text)
		}
	}

	if answer.Len() == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrGenerationUnavailable)
	}

	return answer.String(), nil
}
