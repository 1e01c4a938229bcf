package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoAPIKey is returned when no tier supplies an API key.
var ErrNoAPIKey = errors.New("no API key found")

// NoAPIKeyError names the provider that is missing a key.
type NoAPIKeyError struct {
	Provider ProviderID
}

func (e *NoAPIKeyError) Error() string {
	vars := EnvVars(e.Provider)
	env := "the provider's API key variable"
	if len(vars) > 0 {
		env = vars[0]
	}
	return fmt.Sprintf(
		"no API key found for %s; run 'commitwise config set-key %s <key>' or export %s",
		e.Provider, e.Provider, env,
	)
}

func (e *NoAPIKeyError) Unwrap() error {
	return ErrNoAPIKey
}

// EnvFunc looks up an environment variable.
type EnvFunc func(key string) (string, bool)

var envVars = map[ProviderID][]string{
	ProviderOpenAI:    {"OPENAI_API_KEY"},
	ProviderGemini:    {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
	ProviderAnthropic: {"ANTHROPIC_API_KEY", "CLAUDE_API_KEY"},
}

// EnvVars returns the environment variables consulted for a provider's key,
// primary first.
func EnvVars(id ProviderID) []string {
	return envVars[id]
}

// ResolveAPIKey finds the key for provider. Config tiers are consulted first,
// most specific first: local override, preset override, then the global
// store. Environment variables are only read when every config tier is empty.
func ResolveAPIKey(provider ProviderID, g *GlobalConfig, preset *Preset, local *LocalConfig, lookup EnvFunc) (string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if local != nil {
		if key := overrideKey(local.Providers, provider); key != "" {
			return key, nil
		}
	}
	if preset != nil {
		if key := overrideKey(preset.Providers, provider); key != "" {
			return key, nil
		}
	}
	if key := strings.TrimSpace(g.Provider(provider).APIKey); key != "" {
		return key, nil
	}

	for _, name := range EnvVars(provider) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return "", &NoAPIKeyError{Provider: provider}
}

func overrideKey(overrides map[ProviderID]ProviderOverrides, id ProviderID) string {
	o, ok := overrides[id]
	if !ok || o.APIKey == nil {
		return ""
	}
	return strings.TrimSpace(*o.APIKey)
}

// MaskAPIKey returns a masked version of an API key for display.
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
