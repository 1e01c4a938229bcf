package config

import (
	"fmt"
	"sort"
	"strings"
)

// ProviderID identifies a supported AI provider.
type ProviderID string

// Supported providers.
const (
	ProviderOpenAI    ProviderID = "openai"
	ProviderGemini    ProviderID = "gemini"
	ProviderAnthropic ProviderID = "anthropic"
)

// Providers returns every supported provider in a stable order.
func Providers() []ProviderID {
	ids := make([]ProviderID, 0, len(providerDefaults))
	for id := range providerDefaults {
		ids = append(ids, id)
	}
	sortProviders(ids)
	return ids
}

// ParseProvider converts a user-supplied name into a ProviderID.
func ParseProvider(s string) (ProviderID, error) {
	id := ProviderID(strings.ToLower(strings.TrimSpace(s)))
	if !id.Valid() {
		return "", fmt.Errorf("unknown provider %q; available: %s", s, providerList())
	}
	return id, nil
}

// Valid reports whether id is a supported provider.
func (id ProviderID) Valid() bool {
	_, ok := providerDefaults[id]
	return ok
}

func (id ProviderID) String() string {
	return string(id)
}

func sortProviders(ids []ProviderID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

func providerList() string {
	ids := Providers()
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return strings.Join(names, ", ")
}

// Style is the tone of the generated commit message.
type Style string

// Supported styles.
const (
	StyleConcise  Style = "concise"
	StyleDetailed Style = "detailed"
	StyleFunny    Style = "funny"
)

// Valid reports whether s is a supported style.
func (s Style) Valid() bool {
	switch s {
	case StyleConcise, StyleDetailed, StyleFunny:
		return true
	}
	return false
}

// ProviderSettings is the fully populated configuration of one provider.
type ProviderSettings struct {
	APIKey      string  `json:"apiKey"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"maxTokens"`
}

// ProviderOverrides is a partial provider configuration used by presets and
// local config. Nil fields are not set.
type ProviderOverrides struct {
	APIKey      *string  `json:"apiKey,omitempty"`
	Model       *string  `json:"model,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"maxTokens,omitempty"`
}

// Defaults are the global text settings applied when no other tier sets them.
type Defaults struct {
	Prepend  string `json:"prepend"`
	Style    Style  `json:"style"`
	Language string `json:"language"`
}

// Preset is a named bundle of overrides stored in the global config.
type Preset struct {
	Prepend         *string                          `json:"prepend,omitempty"`
	Style           *Style                           `json:"style,omitempty"`
	Language        *string                          `json:"language,omitempty"`
	DefaultProvider ProviderID                       `json:"defaultProvider,omitempty"`
	Providers       map[ProviderID]ProviderOverrides `json:"providers,omitempty"`
}

// GlobalConfig is the per-user configuration document. A loaded GlobalConfig
// is always fully populated.
type GlobalConfig struct {
	DefaultProvider ProviderID                      `json:"defaultProvider"`
	Providers       map[ProviderID]ProviderSettings `json:"providers"`
	Default         Defaults                        `json:"default"`
	Presets         map[string]Preset               `json:"presets"`
}

// Provider returns the settings for id, falling back to schema defaults.
func (g *GlobalConfig) Provider(id ProviderID) ProviderSettings {
	if s, ok := g.Providers[id]; ok {
		return s
	}
	return DefaultProviderSettings(id)
}

// Clone returns a deep copy of g.
func (g *GlobalConfig) Clone() *GlobalConfig {
	c := &GlobalConfig{
		DefaultProvider: g.DefaultProvider,
		Providers:       make(map[ProviderID]ProviderSettings, len(g.Providers)),
		Default:         g.Default,
		Presets:         make(map[string]Preset, len(g.Presets)),
	}
	for id, s := range g.Providers {
		c.Providers[id] = s
	}
	for name, p := range g.Presets {
		c.Presets[name] = p
	}
	return c
}

// LocalConfig is the optional per-repository override file. Every field is
// optional.
type LocalConfig struct {
	Preset          *string                          `json:"preset,omitempty"`
	Prepend         *string                          `json:"prepend,omitempty"`
	Style           *Style                           `json:"style,omitempty"`
	Language        *string                          `json:"language,omitempty"`
	DefaultProvider ProviderID                       `json:"defaultProvider,omitempty"`
	Providers       map[ProviderID]ProviderOverrides `json:"providers,omitempty"`
}

// Options are the per-invocation overrides parsed from the command line.
// Pointer fields are nil when the flag was not given; a non-nil pointer to a
// zero value is an explicit override.
type Options struct {
	Provider     ProviderID
	Preset       string
	Prepend      *string
	ForcePrepend bool
	Style        *Style
	Language     *string
	Model        *string
	Temperature  *float64
	MaxTokens    *int
}

// ResolvedConfig is the fully merged configuration for one invocation.
type ResolvedConfig struct {
	Provider    ProviderID
	APIKey      string
	Prepend     string
	Style       Style
	Language    string
	Model       string
	Temperature float64
	MaxTokens   int
}
