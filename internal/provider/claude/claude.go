// Package claude provides a commit message generator using Anthropic's
// Messages API.
package claude

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mwistrand/commitwise/internal/config"
	"github.com/mwistrand/commitwise/internal/provider"
)

// DefaultModel is the model used when none is configured.
var DefaultModel = config.DefaultProviderSettings(config.ProviderAnthropic).Model

// maxTemperature is the upper bound the Messages API accepts.
const maxTemperature = 1.0

// Provider implements provider.Generator using Claude.
type Provider struct {
	client anthropic.Client
	model  anthropic.Model
}

// New creates a new Claude provider with the given API key and model.
// If model is empty, DefaultModel is used.
func New(apiKey, model string, opts ...option.RequestOption) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Provider{
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(model),
	}, nil
}

// Factory adapts New to provider.Factory.
func Factory(apiKey, model string) (provider.Generator, error) {
	return New(apiKey, model)
}

// Name returns "anthropic".
func (p *Provider) Name() string {
	return config.ProviderAnthropic.String()
}

// GenerateMessage asks Claude for a commit message.
func (p *Provider) GenerateMessage(ctx context.Context, req *provider.MessageRequest) (*provider.MessageResponse, error) {
	model := p.model
	if req.Options.Model != "" {
		model = anthropic.Model(req.Options.Model)
	}
	maxTokens := req.Options.MaxTokens
	if maxTokens <= 0 {
		maxTokens = config.DefaultMaxTokens
	}

	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       model,
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(min(req.Options.Temperature, maxTemperature)),
		System: []anthropic.TextBlockParam{
			{Text: provider.BuildSystemPrompt(req)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(provider.BuildUserPrompt(req))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude API error: %w", err)
	}

	return provider.ParseMessage(extractTextContent(resp))
}

// extractTextContent returns the first text block of a response.
func extractTextContent(resp *anthropic.Message) string {
	for _, block := range resp.Content {
		if block.Type == "text" {
			return block.Text
		}
	}
	return ""
}
