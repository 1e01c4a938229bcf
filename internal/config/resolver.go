package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// ErrProviderChoiceRequired is returned when the local config names several
// providers and nobody can be asked which one to use.
var ErrProviderChoiceRequired = errors.New("several providers are configured for this repository")

// ProviderChooser asks the user to pick one of several providers.
type ProviderChooser interface {
	ChooseProvider(ctx context.Context, candidates []ProviderID) (ProviderID, error)
}

// Resolver merges every configuration tier into a ResolvedConfig.
type Resolver struct {
	store    *Store
	local    *LocalStore
	chooser  ProviderChooser
	notifier Notifier
	env      EnvFunc
	logger   *slog.Logger

	// chosen remembers an interactive provider choice so the prompt and the
	// write-back happen at most once per Resolver.
	chosen ProviderID
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithChooser sets the collaborator used to disambiguate providers.
func WithChooser(c ProviderChooser) ResolverOption {
	return func(r *Resolver) { r.chooser = c }
}

// WithNotifier sets where warnings and informational notes go.
func WithNotifier(n Notifier) ResolverOption {
	return func(r *Resolver) { r.notifier = n }
}

// WithEnv replaces the environment lookup used for API key fallback.
func WithEnv(fn EnvFunc) ResolverOption {
	return func(r *Resolver) { r.env = fn }
}

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a Resolver. local may be nil outside a repository.
func NewResolver(store *Store, local *LocalStore, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:    store,
		local:    local,
		notifier: discardNotifier{},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve produces the configuration for one invocation. The API key is
// resolved right after the provider, before any other assembly, so a missing
// key fails fast.
func (r *Resolver) Resolve(ctx context.Context, opts Options) (*ResolvedConfig, error) {
	g, err := r.store.Load()
	if err != nil {
		return nil, err
	}
	var local *LocalConfig
	if r.local != nil {
		local = r.local.Read()
	}

	decision := DetectProvider(opts, g, local)
	provider, err := r.settle(ctx, decision)
	if err != nil {
		return nil, err
	}
	decision.Provider = provider
	r.logger.Debug("provider resolved", "provider", provider, "source", decision.Source)

	presetName := ActivePreset(opts, local)
	var preset *Preset
	if p, ok := LookupPreset(presetName, g); ok {
		preset = &p
		r.logger.Debug("preset in effect", "preset", presetName)
	} else if presetName != "" {
		r.logger.Debug("preset not found, using global defaults", "preset", presetName)
	}

	apiKey, err := ResolveAPIKey(provider, g, preset, local, r.env)
	if err != nil {
		return nil, err
	}

	resolved := Merge(g, decision, preset, local, opts)
	resolved.APIKey = apiKey
	return resolved, nil
}

// settle turns a decision into a provider, prompting when required.
func (r *Resolver) settle(ctx context.Context, d ProviderDecision) (ProviderID, error) {
	if !d.NeedsPrompt() {
		if d.Source == SourceAutoDetected {
			r.notifier.Info(fmt.Sprintf("Using %s, the only provider configured for this repository.", d.Provider))
		}
		return d.Provider, nil
	}

	if r.chosen != "" {
		return r.chosen, nil
	}
	if r.chooser == nil {
		return "", fmt.Errorf("%w (%v); pass --provider to pick one", ErrProviderChoiceRequired, d.Candidates)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	choice, err := r.chooser.ChooseProvider(ctx, d.Candidates)
	if err != nil {
		return "", fmt.Errorf("choosing provider: %w", err)
	}
	if !slices.Contains(d.Candidates, choice) {
		return "", fmt.Errorf("provider %q is not one of %v", choice, d.Candidates)
	}
	r.chosen = choice

	if r.local != nil {
		if err := r.local.SetDefaultProvider(choice); err != nil {
			r.notifier.Warn(
				fmt.Sprintf("could not remember %s for this repository: %v", choice, err),
				"You will be asked again next time.",
			)
		}
	}
	return choice, nil
}

// Merge layers global, preset, local and command-line settings. decision is
// the already settled provider decision. The returned config has no API key.
func Merge(g *GlobalConfig, decision ProviderDecision, preset *Preset, local *LocalConfig, opts Options) *ResolvedConfig {
	pinned := opts.Provider != ""

	resolved := &ResolvedConfig{
		Provider: decision.Provider,
		Prepend:  g.Default.Prepend,
		Style:    g.Default.Style,
		Language: g.Default.Language,
	}
	seedProvider(resolved, g, decision.Provider)

	if preset != nil {
		applyText(resolved, preset.Prepend, preset.Style, preset.Language)
		if !pinned {
			switchProvider(resolved, g, preset.DefaultProvider)
		}
		applyProviderOverrides(resolved, preset.Providers)
	}

	if local != nil {
		applyText(resolved, local.Prepend, local.Style, local.Language)
		if !pinned {
			switchProvider(resolved, g, localProvider(local, decision))
		}
		applyProviderOverrides(resolved, local.Providers)
	}

	if opts.Model != nil && *opts.Model != "" {
		resolved.Model = *opts.Model
	}
	if opts.Temperature != nil {
		resolved.Temperature = *opts.Temperature
	}
	if opts.MaxTokens != nil {
		resolved.MaxTokens = *opts.MaxTokens
	}
	if opts.Style != nil {
		resolved.Style = *opts.Style
	}
	if opts.Language != nil {
		resolved.Language = *opts.Language
	}

	resolved.Prepend = ComposePrepend(resolved.Prepend, opts.Prepend, opts.ForcePrepend)
	return resolved
}

// ComposePrepend combines the accumulated prefix with the command-line text.
// In append mode a missing or empty cli value leaves accumulated untouched.
// In force mode cli replaces accumulated entirely; force without any text
// clears the prefix.
func ComposePrepend(accumulated string, cli *string, force bool) string {
	if force {
		if cli == nil {
			return ""
		}
		return *cli
	}
	if cli == nil || *cli == "" {
		return accumulated
	}
	return accumulated + *cli
}

// localProvider is the provider the local tier asks for. A provider the user
// picked interactively or that was auto-detected counts as local.
func localProvider(local *LocalConfig, d ProviderDecision) ProviderID {
	if local.DefaultProvider != "" {
		return local.DefaultProvider
	}
	if d.Source == SourceAutoDetected || d.Source == SourceNeedsPrompt {
		return d.Provider
	}
	return ""
}

// switchProvider changes the provider and re-seeds its model settings from
// the global config, so nothing carries over from the previous provider.
func switchProvider(resolved *ResolvedConfig, g *GlobalConfig, id ProviderID) {
	if id == "" || id == resolved.Provider {
		return
	}
	resolved.Provider = id
	seedProvider(resolved, g, id)
}

func seedProvider(resolved *ResolvedConfig, g *GlobalConfig, id ProviderID) {
	s := g.Provider(id)
	resolved.Model = s.Model
	resolved.Temperature = s.Temperature
	resolved.MaxTokens = s.MaxTokens
}

func applyProviderOverrides(resolved *ResolvedConfig, overrides map[ProviderID]ProviderOverrides) {
	o, ok := overrides[resolved.Provider]
	if !ok {
		return
	}
	s := applyOverrides(ProviderSettings{
		Model:       resolved.Model,
		Temperature: resolved.Temperature,
		MaxTokens:   resolved.MaxTokens,
	}, o)
	resolved.Model = s.Model
	resolved.Temperature = s.Temperature
	resolved.MaxTokens = s.MaxTokens
}

func applyText(resolved *ResolvedConfig, prepend *string, style *Style, language *string) {
	if prepend != nil {
		resolved.Prepend = *prepend
	}
	if style != nil {
		resolved.Style = *style
	}
	if language != nil {
		resolved.Language = *language
	}
}
