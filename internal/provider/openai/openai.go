// Package openai provides a commit message generator for any backend that
// speaks the OpenAI chat-completions protocol. OpenAI itself and Gemini's
// compatibility endpoint are both served by it.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mwistrand/commitwise/internal/config"
	"github.com/mwistrand/commitwise/internal/provider"
)

// Base URLs of the supported chat-completions endpoints.
const (
	OpenAIBaseURL = "https://api.openai.com/v1"
	GeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai"
)

const requestTimeout = 2 * time.Minute

// Provider implements provider.Generator over HTTP.
type Provider struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// New creates a provider named name that talks to baseURL.
func New(name, baseURL, apiKey, model string) (*Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%s API key is required", name)
	}
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}

	return &Provider{
		name:    name,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{Timeout: requestTimeout},
	}, nil
}

// OpenAIFactory creates a generator for api.openai.com.
func OpenAIFactory(apiKey, model string) (provider.Generator, error) {
	if model == "" {
		model = config.DefaultProviderSettings(config.ProviderOpenAI).Model
	}
	return New(config.ProviderOpenAI.String(), OpenAIBaseURL, apiKey, model)
}

// GeminiFactory creates a generator for Gemini's OpenAI-compatible endpoint.
func GeminiFactory(apiKey, model string) (provider.Generator, error) {
	if model == "" {
		model = config.DefaultProviderSettings(config.ProviderGemini).Model
	}
	return New(config.ProviderGemini.String(), GeminiBaseURL, apiKey, model)
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}

// chatRequest represents an OpenAI-compatible chat completion request.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse represents an OpenAI-compatible chat completion response.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GenerateMessage asks the backend for a commit message.
func (p *Provider) GenerateMessage(ctx context.Context, req *provider.MessageRequest) (*provider.MessageResponse, error) {
	model := p.model
	if req.Options.Model != "" {
		model = req.Options.Model
	}

	text, err := p.chat(ctx, chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: provider.BuildSystemPrompt(req)},
			{Role: "user", Content: provider.BuildUserPrompt(req)},
		},
		MaxTokens:   req.Options.MaxTokens,
		Temperature: req.Options.Temperature,
	})
	if err != nil {
		return nil, err
	}
	return provider.ParseMessage(text)
}

// chat sends a chat completion request and returns the reply text.
func (p *Provider) chat(ctx context.Context, reqBody chatRequest) (string, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := p.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%s API error: %w", p.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var chatResp chatResponse
	decodeErr := json.Unmarshal(respBody, &chatResp)

	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && chatResp.Error != nil {
			return "", fmt.Errorf("%s API returned status %d: %s", p.name, resp.StatusCode, chatResp.Error.Message)
		}
		return "", fmt.Errorf("%s API returned status %d: %s", p.name, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	if decodeErr != nil {
		return "", fmt.Errorf("parsing response: %w", decodeErr)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%s API error: %s", p.name, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s API", p.name)
	}

	return chatResp.Choices[0].Message.Content, nil
}
