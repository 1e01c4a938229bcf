// Package prompts provides embedded prompt templates for AI providers.
package prompts

import (
	_ "embed"
)

// CommitWriterPrompt is the system prompt shared by every provider.
//
//go:embed commit-writer.md
var CommitWriterPrompt string
