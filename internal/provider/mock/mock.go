// Package mock provides a mock commit message generator for testing.
package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwistrand/commitwise/internal/git"
	"github.com/mwistrand/commitwise/internal/provider"
)

// Provider is a mock generator that records its calls.
type Provider struct {
	// GenerateFunc allows customizing the GenerateMessage behavior.
	GenerateFunc func(ctx context.Context, req *provider.MessageRequest) (*provider.MessageResponse, error)

	// GenerateCalls tracks calls to GenerateMessage.
	GenerateCalls []*provider.MessageRequest
}

// New creates a new mock provider with default behavior.
func New() *Provider {
	return &Provider{}
}

// Factory returns a provider.Factory that always yields p.
func (p *Provider) Factory() provider.Factory {
	return func(string, string) (provider.Generator, error) {
		return p, nil
	}
}

// Name returns "mock".
func (p *Provider) Name() string {
	return "mock"
}

// GenerateMessage returns a message derived from the staged files or calls
// the custom function.
func (p *Provider) GenerateMessage(ctx context.Context, req *provider.MessageRequest) (*provider.MessageResponse, error) {
	p.GenerateCalls = append(p.GenerateCalls, req)

	if p.GenerateFunc != nil {
		return p.GenerateFunc(ctx, req)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var files []git.StagedFile
	if req.Changes != nil {
		files = req.Changes.Files
	}
	return &provider.MessageResponse{
		Subject: fmt.Sprintf("%s: update %s", commitType(files), pluralize(len(files), "file")),
	}, nil
}

// Reset clears recorded calls.
func (p *Provider) Reset() {
	p.GenerateCalls = nil
}

// commitType guesses a Conventional Commits type from file paths.
func commitType(files []git.StagedFile) string {
	if len(files) == 0 {
		return "chore"
	}
	kind := ""
	for _, f := range files {
		var k string
		switch {
		case strings.Contains(f.Path, "_test.") || strings.HasPrefix(f.Path, "test"):
			k = "test"
		case strings.HasSuffix(f.Path, ".md") || strings.HasPrefix(f.Path, "docs/"):
			k = "docs"
		case f.Status == git.StatusAdded:
			k = "feat"
		default:
			k = "chore"
		}
		if kind != "" && kind != k {
			return "chore"
		}
		kind = k
	}
	return kind
}

// pluralize adds "s" for plural counts.
func pluralize(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
