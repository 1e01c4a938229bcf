package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfig is returned when a config document parses as JSON but
	// violates the schema.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ValidationError lists the schema violations found in a config document.
type ValidationError struct {
	Path     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration in %s: %s", e.Path, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// globalFile mirrors GlobalConfig with every field optional so missing keys
// can be told apart from zero values and back-filled.
type globalFile struct {
	DefaultProvider *ProviderID                      `json:"defaultProvider"`
	Providers       map[ProviderID]ProviderOverrides `json:"providers"`
	Default         *defaultsFile                    `json:"default"`
	Presets         map[string]Preset                `json:"presets"`
}

type defaultsFile struct {
	Prepend  *string `json:"prepend"`
	Style    *Style  `json:"style"`
	Language *string `json:"language"`
}

// decodeGlobal parses a syntactically valid document, validates it and fills
// every missing field with its schema default.
func decodeGlobal(path string, data []byte) (*GlobalConfig, error) {
	var raw globalFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Path: path, Problems: []string{typeProblem(err)}}
	}

	var problems []string
	cfg := DefaultGlobalConfig()

	if raw.DefaultProvider != nil {
		if !raw.DefaultProvider.Valid() {
			problems = append(problems, fmt.Sprintf("defaultProvider: unknown provider %q", *raw.DefaultProvider))
		} else {
			cfg.DefaultProvider = *raw.DefaultProvider
		}
	}

	problems = append(problems, validateOverrides("providers", raw.Providers)...)
	for id, o := range raw.Providers {
		if !id.Valid() {
			continue
		}
		cfg.Providers[id] = applyOverrides(cfg.Providers[id], o)
	}

	if d := raw.Default; d != nil {
		if d.Prepend != nil {
			cfg.Default.Prepend = *d.Prepend
		}
		if d.Style != nil {
			cfg.Default.Style = *d.Style
		}
		if d.Language != nil {
			cfg.Default.Language = *d.Language
		}
		problems = append(problems, validateText("default", d.Style, d.Language)...)
	}

	for name, p := range raw.Presets {
		problems = append(problems, validatePreset(name, p)...)
		cfg.Presets[name] = p
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Path: path, Problems: problems}
	}
	return cfg, nil
}

// decodeLocal parses and validates a local override document.
func decodeLocal(path string, data []byte) (*LocalConfig, error) {
	var local LocalConfig
	if err := json.Unmarshal(data, &local); err != nil {
		return nil, &ValidationError{Path: path, Problems: []string{typeProblem(err)}}
	}
	if problems := validateLocal(&local); len(problems) > 0 {
		return nil, &ValidationError{Path: path, Problems: problems}
	}
	return &local, nil
}

// Validate checks a fully populated GlobalConfig against the schema.
func (g *GlobalConfig) Validate() error {
	var problems []string
	if !g.DefaultProvider.Valid() {
		problems = append(problems, fmt.Sprintf("defaultProvider: unknown provider %q", g.DefaultProvider))
	}
	for id, s := range g.Providers {
		prefix := "providers." + string(id)
		if !id.Valid() {
			problems = append(problems, fmt.Sprintf("%s: unknown provider", prefix))
			continue
		}
		problems = append(problems, validateNumbers(prefix, &s.Temperature, &s.MaxTokens)...)
	}
	style := g.Default.Style
	lang := g.Default.Language
	problems = append(problems, validateText("default", &style, &lang)...)
	for name, p := range g.Presets {
		problems = append(problems, validatePreset(name, p)...)
	}
	if len(problems) > 0 {
		return &ValidationError{Path: "config", Problems: problems}
	}
	return nil
}

func validatePreset(name string, p Preset) []string {
	prefix := "presets." + name
	var problems []string
	if strings.TrimSpace(name) == "" {
		problems = append(problems, "presets: preset name must not be empty")
	}
	if p.DefaultProvider != "" && !p.DefaultProvider.Valid() {
		problems = append(problems, fmt.Sprintf("%s.defaultProvider: unknown provider %q", prefix, p.DefaultProvider))
	}
	problems = append(problems, validateText(prefix, p.Style, p.Language)...)
	problems = append(problems, validateOverrides(prefix+".providers", p.Providers)...)
	return problems
}

func validateLocal(l *LocalConfig) []string {
	var problems []string
	if l.DefaultProvider != "" && !l.DefaultProvider.Valid() {
		problems = append(problems, fmt.Sprintf("defaultProvider: unknown provider %q", l.DefaultProvider))
	}
	problems = append(problems, validateText("", l.Style, l.Language)...)
	problems = append(problems, validateOverrides("providers", l.Providers)...)
	return problems
}

func validateOverrides(prefix string, overrides map[ProviderID]ProviderOverrides) []string {
	var problems []string
	for id, o := range overrides {
		p := prefix + "." + string(id)
		if !id.Valid() {
			problems = append(problems, fmt.Sprintf("%s: unknown provider; available: %s", p, providerList()))
			continue
		}
		problems = append(problems, validateNumbers(p, o.Temperature, o.MaxTokens)...)
	}
	return problems
}

func validateNumbers(prefix string, temperature *float64, maxTokens *int) []string {
	var problems []string
	if temperature != nil && (*temperature < 0 || *temperature > 2) {
		problems = append(problems, fmt.Sprintf("%s.temperature: %v is outside [0, 2]", prefix, *temperature))
	}
	if maxTokens != nil && *maxTokens <= 0 {
		problems = append(problems, fmt.Sprintf("%s.maxTokens: must be positive, got %d", prefix, *maxTokens))
	}
	return problems
}

func validateText(prefix string, style *Style, language *string) []string {
	if prefix != "" {
		prefix += "."
	}
	var problems []string
	if style != nil && !style.Valid() {
		problems = append(problems, fmt.Sprintf("%sstyle: %q is not one of concise, detailed, funny", prefix, *style))
	}
	if language != nil && !ValidLanguage(*language) {
		problems = append(problems, fmt.Sprintf("%slanguage: %q is not a two-letter language code", prefix, *language))
	}
	return problems
}

// ValidLanguage reports whether s is a two-letter language code.
func ValidLanguage(s string) bool {
	if len(s) != 2 {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// ValidTemperature reports whether t is an accepted sampling temperature.
func ValidTemperature(t float64) bool {
	return t >= 0 && t <= 2
}

func typeProblem(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("%s: expected %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value)
	}
	return err.Error()
}
