// Package provider defines the interface for AI backends that write commit
// messages. Implementations use different APIs (Anthropic, OpenAI-compatible)
// while presenting a consistent interface to the rest of the application.
package provider

import (
	"context"

	"github.com/mwistrand/commitwise/internal/config"
	"github.com/mwistrand/commitwise/internal/git"
)

// Generator writes a commit message for a set of staged changes.
type Generator interface {
	// Name returns the provider identifier (e.g., "anthropic", "openai").
	Name() string

	// GenerateMessage asks the model for a commit message.
	GenerateMessage(ctx context.Context, req *MessageRequest) (*MessageResponse, error)
}

// MessageRequest contains the changes to describe and how to describe them.
type MessageRequest struct {
	// Changes is what is staged for the next commit.
	Changes *git.StagedChanges

	// Branch is the current branch name, used as a hint for ticket ids.
	Branch string

	Style    config.Style
	Language string

	Options GenerateOptions
}

// GenerateOptions tunes the model call.
type GenerateOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// MessageResponse is the generated commit message.
type MessageResponse struct {
	Subject string
	Body    string
}

// Message returns the full commit message (subject + body).
func (m *MessageResponse) Message() string {
	if m.Body == "" {
		return m.Subject
	}
	return m.Subject + "\n\n" + m.Body
}

// WithPrefix returns the message with prefix glued to the subject line.
func (m *MessageResponse) WithPrefix(prefix string) string {
	return prefix + m.Message()
}

// NewMessageRequest builds a request from resolved settings.
func NewMessageRequest(cfg *config.ResolvedConfig, changes *git.StagedChanges, branch string) *MessageRequest {
	return &MessageRequest{
		Changes:  changes,
		Branch:   branch,
		Style:    cfg.Style,
		Language: cfg.Language,
		Options: GenerateOptions{
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		},
	}
}
