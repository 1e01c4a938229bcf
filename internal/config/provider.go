package config

// ProviderSource records which rule picked the provider.
type ProviderSource int

const (
	SourceGlobal ProviderSource = iota
	SourcePreset
	SourceNeedsPrompt
	SourceAutoDetected
	SourceLocal
	SourceCLI
)

var providerSourceNames = map[ProviderSource]string{
	SourceGlobal:       "global",
	SourcePreset:       "preset",
	SourceNeedsPrompt:  "prompt",
	SourceAutoDetected: "auto-detected",
	SourceLocal:        "local",
	SourceCLI:          "flag",
}

func (s ProviderSource) String() string {
	return providerSourceNames[s]
}

// ProviderDecision is the outcome of provider detection. When Source is
// SourceNeedsPrompt, Provider is empty and the user must pick one of
// Candidates.
type ProviderDecision struct {
	Provider   ProviderID
	Source     ProviderSource
	Candidates []ProviderID
}

// NeedsPrompt reports whether the user has to choose between candidates.
func (d ProviderDecision) NeedsPrompt() bool {
	return d.Source == SourceNeedsPrompt
}

// DetectProvider applies the provider precedence rules without performing
// any I/O. First match wins:
//  1. provider given on the command line
//  2. local defaultProvider
//  3. local providers naming exactly one provider (auto-detected)
//  4. local providers naming several providers (user must choose)
//  5. the active preset's defaultProvider
//  6. the global defaultProvider
func DetectProvider(opts Options, g *GlobalConfig, local *LocalConfig) ProviderDecision {
	if opts.Provider != "" {
		return ProviderDecision{Provider: opts.Provider, Source: SourceCLI}
	}

	if local != nil {
		if local.DefaultProvider != "" {
			return ProviderDecision{Provider: local.DefaultProvider, Source: SourceLocal}
		}
		candidates := localProviders(local)
		switch {
		case len(candidates) == 1:
			return ProviderDecision{Provider: candidates[0], Source: SourceAutoDetected}
		case len(candidates) > 1:
			return ProviderDecision{Source: SourceNeedsPrompt, Candidates: candidates}
		}
	}

	if preset, ok := LookupPreset(ActivePreset(opts, local), g); ok && preset.DefaultProvider != "" {
		return ProviderDecision{Provider: preset.DefaultProvider, Source: SourcePreset}
	}

	return ProviderDecision{Provider: g.DefaultProvider, Source: SourceGlobal}
}

func localProviders(local *LocalConfig) []ProviderID {
	ids := make([]ProviderID, 0, len(local.Providers))
	for id := range local.Providers {
		if id.Valid() {
			ids = append(ids, id)
		}
	}
	sortProviders(ids)
	return ids
}
