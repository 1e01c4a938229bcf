package provider

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/mwistrand/commitwise/internal/config"
	"github.com/mwistrand/commitwise/internal/provider/prompts"
)

// maxDiffLen caps the diff sent to a model.
const maxDiffLen = 50000

// ErrEmptyMessage is returned when a model reply holds no usable text.
var ErrEmptyMessage = errors.New("model returned an empty commit message")

var languageNames = map[string]string{
	"de": "German",
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"it": "Italian",
	"ja": "Japanese",
	"ko": "Korean",
	"nl": "Dutch",
	"pl": "Polish",
	"pt": "Portuguese",
	"ru": "Russian",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"zh": "Chinese",
}

var styleInstructions = map[config.Style]string{
	config.StyleConcise:  "Write only a subject line. Add no body.",
	config.StyleDetailed: "Write a subject line, a blank line, then a body of short bullet points explaining the motivation and the notable changes.",
	config.StyleFunny:    "Write a subject line with a light, witty tone. Keep it accurate and professional enough for a shared history. A one or two line body is allowed.",
}

// LanguageName returns the English name of a two-letter language code,
// falling back to the code itself.
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// BuildSystemPrompt constructs the system prompt for a request.
func BuildSystemPrompt(req *MessageRequest) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(prompts.CommitWriterPrompt))
	b.WriteString("\n\n")

	style, ok := styleInstructions[req.Style]
	if !ok {
		style = styleInstructions[config.StyleConcise]
	}
	b.WriteString(style)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Write the message in %s.\n", LanguageName(req.Language))
	return b.String()
}

// BuildUserPrompt constructs the user message carrying the changes.
func BuildUserPrompt(req *MessageRequest) string {
	var b strings.Builder

	if req.Branch != "" && req.Branch != "HEAD" {
		fmt.Fprintf(&b, "Branch: %s\n\n", req.Branch)
	}

	b.WriteString("## Staged Files\n")
	for _, f := range req.Changes.Files {
		status := f.Status
		if f.OldPath != "" {
			status = fmt.Sprintf("%s from %s", status, f.OldPath)
		}
		if f.IsBinary {
			status += ", binary"
		}
		fmt.Fprintf(&b, "- %s (%s: +%d/-%d)\n", f.Path, status, f.Additions, f.Deletions)
	}
	b.WriteString("\n")

	if diff := req.Changes.Patch; diff != "" {
		if len(diff) > maxDiffLen {
			diff = diff[:maxDiffLen] + "\n\n... [diff truncated for length] ..."
		}
		b.WriteString("## Diff\n```diff\n")
		b.WriteString(diff)
		b.WriteString("\n```\n")
	}

	return b.String()
}

var fence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\n(.*?)\\n?```$")

// ParseMessage turns a raw model reply into a MessageResponse. Markdown
// fences and wrapping quotes are removed.
func ParseMessage(text string) (*MessageResponse, error) {
	text = strings.TrimSpace(text)
	if m := fence.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}
	if len(text) >= 2 && (text[0] == '"' && text[len(text)-1] == '"' || text[0] == '`' && text[len(text)-1] == '`') {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	if text == "" {
		return nil, ErrEmptyMessage
	}

	subject, body, _ := strings.Cut(text, "\n")
	return &MessageResponse{
		Subject: strings.TrimSpace(subject),
		Body:    strings.TrimSpace(body),
	}, nil
}
