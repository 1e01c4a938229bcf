package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
)

// Hint classifies the most likely cause of a JSON syntax error.
type Hint int

const (
	HintGeneric Hint = iota
	HintTrailingComma
	HintUnquotedKey
	HintUnquotedValue
	HintUnclosedBrace
)

var hintNames = map[Hint]string{
	HintGeneric:       "generic",
	HintTrailingComma: "trailing-comma",
	HintUnquotedKey:   "unquoted-key",
	HintUnquotedValue: "unquoted-value",
	HintUnclosedBrace: "unclosed-brace",
}

func (h Hint) String() string {
	return hintNames[h]
}

// Advice returns the user-facing suggestion for h.
func (h Hint) Advice() string {
	switch h {
	case HintTrailingComma:
		return "Remove the trailing comma before a closing } or ]."
	case HintUnquotedKey:
		return `Property names must be wrapped in double quotes, e.g. "style": "concise".`
	case HintUnquotedValue:
		return `String values must be wrapped in double quotes, e.g. "defaultProvider": "gemini".`
	case HintUnclosedBrace:
		return "Every { and [ needs a matching } or ]."
	default:
		return "Check for missing quotes, commas, or braces."
	}
}

var (
	stringLiteral   = regexp.MustCompile(`"(?:[^"\\\n]|\\.)*"`)
	trailingComma   = regexp.MustCompile(`,\s*[}\]]`)
	unquotedKey     = regexp.MustCompile(`[{,]\s*[A-Za-z_$][A-Za-z0-9_$\-]*\s*:`)
	unquotedValue   = regexp.MustCompile(`:\s*([A-Za-z_][A-Za-z0-9_\-]*)`)
	jsonBareLiteral = map[string]bool{"true": true, "false": true, "null": true}
)

// Classify inspects raw, malformed JSON and picks the most likely mistake.
// Checks run in priority order and string literals are blanked first so their
// contents cannot trigger a match.
func Classify(raw string) Hint {
	skeleton := stringLiteral.ReplaceAllString(raw, `""`)

	if trailingComma.MatchString(skeleton) {
		return HintTrailingComma
	}
	if unquotedKey.MatchString(skeleton) {
		return HintUnquotedKey
	}
	for _, m := range unquotedValue.FindAllStringSubmatch(skeleton, -1) {
		if !jsonBareLiteral[m[1]] {
			return HintUnquotedValue
		}
	}
	if strings.Count(skeleton, "{") != strings.Count(skeleton, "}") ||
		strings.Count(skeleton, "[") != strings.Count(skeleton, "]") {
		return HintUnclosedBrace
	}
	return HintGeneric
}

// LineAt converts a byte offset reported by the JSON parser into a 1-based
// line and column.
func LineAt(data []byte, offset int64) (line, column int) {
	if offset < 0 {
		offset = 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	head := data[:offset]
	line = bytes.Count(head, []byte{'\n'}) + 1
	column = len(head) - bytes.LastIndexByte(head, '\n')
	return line, column
}

// SyntaxError reports a config file that is not valid JSON.
type SyntaxError struct {
	Path   string
	Line   int
	Column int
	Size   int64
	Hint   Hint
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("malformed JSON in %s near line %d: %v", e.Path, e.Line, e.Err)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Diagnostic renders the location-anchored message shown before exiting.
// The file's contents are never included.
func (e *SyntaxError) Diagnostic() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Configuration file contains invalid JSON.\n")
	fmt.Fprintf(&b, "  File:  %s (%s)\n", e.Path, humanize.Bytes(uint64(e.Size)))
	fmt.Fprintf(&b, "  Where: near line %d, column %d\n", e.Line, e.Column)
	fmt.Fprintf(&b, "  Hint:  %s\n", e.Hint.Advice())
	fmt.Fprintf(&b, "Fix the file by hand, or delete it to start over with defaults.")
	return b.String()
}

// checkSyntax validates that data is well-formed JSON before any schema
// decoding happens.
func checkSyntax(path string, data []byte) error {
	var v any
	err := json.Unmarshal(data, &v)
	if err == nil {
		return nil
	}

	var offset int64
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		offset = syntaxErr.Offset
	}
	line, col := LineAt(data, offset)
	return &SyntaxError{
		Path:   path,
		Line:   line,
		Column: col,
		Size:   int64(len(data)),
		Hint:   Classify(string(data)),
		Err:    err,
	}
}

// looksLikeJSON reports whether trimmed content starts like a JSON document.
func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
}
