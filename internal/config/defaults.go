// Package config resolves the settings commitwise uses for a single invocation.
//
// Settings come from four tiers, highest priority first: command-line options,
// the per-repository override file, a named preset from the global file, and
// the global defaults. API keys additionally fall back to environment variables.
package config

const (
	// DefaultConfigDir is the directory name for commitwise configuration.
	DefaultConfigDir = ".config/commitwise"

	// DefaultConfigFile is the global configuration file name.
	DefaultConfigFile = "config.json"

	// LocalConfigFile is the per-repository override file, stored inside the
	// repository's git directory so it is never committed.
	LocalConfigFile = "commitwise.json"

	// ConfigPathEnv relocates the global configuration file.
	ConfigPathEnv = "COMMITWISE_CONFIG"

	// DefaultProvider is the provider used when no tier names one.
	DefaultProvider = ProviderGemini

	// DefaultStyle is the default commit message style.
	DefaultStyle = StyleConcise

	// DefaultLanguage is the default commit message language.
	DefaultLanguage = "en"

	// DefaultTemperature is the sampling temperature for every provider.
	DefaultTemperature = 0.7

	// DefaultMaxTokens is the response token limit for every provider.
	DefaultMaxTokens = 2048
)

// providerDefaults holds the schema default for each supported provider.
var providerDefaults = map[ProviderID]ProviderSettings{
	ProviderOpenAI: {
		Model:       "gpt-4o-mini",
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	},
	ProviderGemini: {
		Model:       "gemini-2.0-flash",
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	},
	ProviderAnthropic: {
		Model:       "claude-sonnet-4-20250514",
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	},
}

// DefaultProviderSettings returns the schema defaults for a provider.
func DefaultProviderSettings(id ProviderID) ProviderSettings {
	return providerDefaults[id]
}

// DefaultGlobalConfig returns a fully populated GlobalConfig with schema defaults.
func DefaultGlobalConfig() *GlobalConfig {
	cfg := &GlobalConfig{
		DefaultProvider: DefaultProvider,
		Providers:       make(map[ProviderID]ProviderSettings, len(providerDefaults)),
		Default: Defaults{
			Prepend:  "",
			Style:    DefaultStyle,
			Language: DefaultLanguage,
		},
		Presets: make(map[string]Preset),
	}
	for id, settings := range providerDefaults {
		cfg.Providers[id] = settings
	}
	return cfg
}
