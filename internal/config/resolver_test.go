package config

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChooser struct {
	choice ProviderID
	err    error
	calls  int
	seen   []ProviderID
}

func (c *stubChooser) ChooseProvider(_ context.Context, candidates []ProviderID) (ProviderID, error) {
	c.calls++
	c.seen = candidates
	return c.choice, c.err
}

type resolverFixture struct {
	resolver *Resolver
	notifier *recordingNotifier
	gitDir   string
}

// newFixture builds a Resolver over a temporary global file and git dir.
// Empty strings leave the corresponding file absent.
func newFixture(t *testing.T, global, local string, env map[string]string, opts ...ResolverOption) *resolverFixture {
	t.Helper()
	gitDir := t.TempDir()
	if local != "" {
		writeFile(t, gitDir, LocalConfigFile, local)
	}
	notifier := &recordingNotifier{}
	opts = append([]ResolverOption{WithNotifier(notifier), WithEnv(mapEnv(env))}, opts...)
	return &resolverFixture{
		resolver: NewResolver(newTestStore(t, global), NewLocalStore(gitDir, notifier), opts...),
		notifier: notifier,
		gitDir:   gitDir,
	}
}

var geminiEnv = map[string]string{"GEMINI_API_KEY": "gemini-env"}

func TestResolve_Scenarios(t *testing.T) {
	const presetWork = `{"presets": {"work": {"prepend": "PROJ-"}}}`

	t.Run("global prepend only", func(t *testing.T) {
		f := newFixture(t, `{"default": {"prepend": "GLOBAL-"}}`, "", geminiEnv)
		got, err := f.resolver.Resolve(context.Background(), Options{})
		require.NoError(t, err)
		assert.Equal(t, "GLOBAL-", got.Prepend)
	})

	t.Run("preset prepend with appended cli text", func(t *testing.T) {
		f := newFixture(t, presetWork, "", geminiEnv)
		got, err := f.resolver.Resolve(context.Background(), Options{Preset: "work", Prepend: ptr("123")})
		require.NoError(t, err)
		assert.Equal(t, "PROJ-123", got.Prepend)
	})

	t.Run("force prepend replaces preset prepend", func(t *testing.T) {
		f := newFixture(t, presetWork, "", geminiEnv)
		got, err := f.resolver.Resolve(context.Background(), Options{
			Preset: "work", Prepend: ptr("HOTFIX-"), ForcePrepend: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "HOTFIX-", got.Prepend)
	})

	t.Run("preset switches provider with partial overrides", func(t *testing.T) {
		f := newFixture(t, `{
  "defaultProvider": "openai",
  "providers": {
    "openai": {"apiKey": "sk-openai", "model": "gpt-x", "temperature": 0.2, "maxTokens": 500},
    "gemini": {"temperature": 0.7, "maxTokens": 2048}
  },
  "presets": {"work": {"defaultProvider": "gemini", "providers": {"gemini": {"model": "gemini-pro"}}}}
}`, "", geminiEnv)
		got, err := f.resolver.Resolve(context.Background(), Options{Preset: "work"})
		require.NoError(t, err)
		assert.Equal(t, ProviderGemini, got.Provider)
		assert.Equal(t, "gemini-pro", got.Model)
		assert.Equal(t, 0.7, got.Temperature)
		assert.Equal(t, 2048, got.MaxTokens)
		assert.Equal(t, "gemini-env", got.APIKey)
	})

	t.Run("secondary environment variable", func(t *testing.T) {
		f := newFixture(t, `{"providers": {"gemini": {"apiKey": ""}}}`, "", map[string]string{"GOOGLE_API_KEY": "x"})
		got, err := f.resolver.Resolve(context.Background(), Options{})
		require.NoError(t, err)
		assert.Equal(t, "x", got.APIKey)
	})

	t.Run("malformed local config falls back to global", func(t *testing.T) {
		f := newFixture(t,
			`{"defaultProvider": "openai", "providers": {"openai": {"apiKey": "sk-openai"}}}`,
			`{ "defaultProvider": "gemini", "invalid": json }`,
			geminiEnv,
		)
		first, err := f.resolver.Resolve(context.Background(), Options{})
		require.NoError(t, err)
		assert.Equal(t, ProviderOpenAI, first.Provider)
		require.Len(t, f.notifier.warnings, 1)
		assert.Contains(t, f.notifier.warnings[0], "malformed")

		second, err := f.resolver.Resolve(context.Background(), Options{})
		require.NoError(t, err)
		assert.Equal(t, first, second)
		require.Len(t, f.notifier.warnings, 2)
		assert.Equal(t, f.notifier.warnings[0], f.notifier.warnings[1])
		assert.Equal(t, f.notifier.hints[0], f.notifier.hints[1])
	})
}

func TestResolve_FullPopulation(t *testing.T) {
	f := newFixture(t, "", "", geminiEnv)
	got, err := f.resolver.Resolve(context.Background(), Options{})
	require.NoError(t, err)

	want := DefaultProviderSettings(DefaultProvider)
	assert.Equal(t, &ResolvedConfig{
		Provider:    DefaultProvider,
		APIKey:      "gemini-env",
		Prepend:     "",
		Style:       DefaultStyle,
		Language:    DefaultLanguage,
		Model:       want.Model,
		Temperature: want.Temperature,
		MaxTokens:   want.MaxTokens,
	}, got)
}

func TestResolve_NoAPIKey(t *testing.T) {
	f := newFixture(t, "", "", nil)
	_, err := f.resolver.Resolve(context.Background(), Options{})
	require.ErrorIs(t, err, ErrNoAPIKey)
	assert.Contains(t, err.Error(), "gemini")
}

func TestResolve_GlobalSyntaxErrorPropagates(t *testing.T) {
	f := newFixture(t, `{"defaultProvider": "gemini",}`, "", geminiEnv)
	_, err := f.resolver.Resolve(context.Background(), Options{})
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, HintTrailingComma, syntaxErr.Hint)
}

func TestResolve_ProviderSwitchReset(t *testing.T) {
	global := `{
  "providers": {
    "anthropic": {"apiKey": "sk-ant", "model": "claude-x", "temperature": 1.1, "maxTokens": 333}
  },
  "presets": {
    "work": {"defaultProvider": "gemini", "providers": {"gemini": {"temperature": 0.1, "maxTokens": 99}}}
  }
}`
	f := newFixture(t, global, `{"defaultProvider": "anthropic"}`, nil)

	got, err := f.resolver.Resolve(context.Background(), Options{Preset: "work"})
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, got.Provider)
	assert.Equal(t, "claude-x", got.Model)
	assert.Equal(t, 1.1, got.Temperature)
	assert.Equal(t, 333, got.MaxTokens)
	assert.Equal(t, "sk-ant", got.APIKey)
}

func TestMerge_ProviderSwitchResetsToGlobalDefaults(t *testing.T) {
	g := DefaultGlobalConfig()
	g.Providers[ProviderOpenAI] = ProviderSettings{Model: "gpt-x", Temperature: 0.2, MaxTokens: 500}
	g.Providers[ProviderGemini] = ProviderSettings{Model: "gemini-global", Temperature: 0.9, MaxTokens: 4096}

	preset := &Preset{DefaultProvider: ProviderGemini}
	got := Merge(g, ProviderDecision{Provider: ProviderOpenAI, Source: SourceGlobal}, preset, nil, Options{})

	assert.Equal(t, ProviderGemini, got.Provider)
	assert.Equal(t, "gemini-global", got.Model)
	assert.Equal(t, 0.9, got.Temperature)
	assert.Equal(t, 4096, got.MaxTokens)

	preset.Providers = map[ProviderID]ProviderOverrides{ProviderGemini: {Model: ptr("g-custom")}}
	got = Merge(g, ProviderDecision{Provider: ProviderOpenAI, Source: SourceGlobal}, preset, nil, Options{})
	assert.Equal(t, "g-custom", got.Model)
	assert.Equal(t, 0.9, got.Temperature)
	assert.Equal(t, 4096, got.MaxTokens)
}

func TestResolve_CLIPinsProvider(t *testing.T) {
	global := `{
  "providers": {"openai": {"apiKey": "sk-openai", "temperature": 0.4}},
  "presets": {"work": {"defaultProvider": "gemini", "providers": {"openai": {"model": "preset-openai"}}}}
}`
	local := `{"defaultProvider": "anthropic", "providers": {"openai": {"maxTokens": 77}}}`
	f := newFixture(t, global, local, nil)

	got, err := f.resolver.Resolve(context.Background(), Options{Provider: ProviderOpenAI, Preset: "work"})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, got.Provider)
	assert.Equal(t, "preset-openai", got.Model)
	assert.Equal(t, 0.4, got.Temperature)
	assert.Equal(t, 77, got.MaxTokens)
	assert.Equal(t, "sk-openai", got.APIKey)
}

func TestMerge_PrecedenceLaw(t *testing.T) {
	g := DefaultGlobalConfig()
	global := g.Providers[ProviderGemini]
	decision := ProviderDecision{Provider: ProviderGemini, Source: SourceGlobal}

	// Every combination of preset, local and cli defining the fields; global
	// always defines them.
	for mask := 0; mask < 8; mask++ {
		usePreset, useLocal, useCLI := mask&1 != 0, mask&2 != 0, mask&4 != 0

		var preset *Preset
		var local *LocalConfig
		var opts Options
		wantLang, wantModel, wantTemp, wantTokens := g.Default.Language, global.Model, global.Temperature, global.MaxTokens

		if usePreset {
			preset = &Preset{
				Language: ptr("fr"),
				Providers: map[ProviderID]ProviderOverrides{
					ProviderGemini: {Model: ptr("m-preset"), Temperature: ptr(0.3), MaxTokens: ptr(300)},
				},
			}
			wantLang, wantModel, wantTemp, wantTokens = "fr", "m-preset", 0.3, 300
		}
		if useLocal {
			local = &LocalConfig{
				Language: ptr("de"),
				Providers: map[ProviderID]ProviderOverrides{
					ProviderGemini: {Model: ptr("m-local"), Temperature: ptr(0.0), MaxTokens: ptr(400)},
				},
			}
			wantLang, wantModel, wantTemp, wantTokens = "de", "m-local", 0.0, 400
		}
		if useCLI {
			opts = Options{Language: ptr("ja"), Model: ptr("m-cli"), Temperature: ptr(1.5), MaxTokens: ptr(500)}
			wantLang, wantModel, wantTemp, wantTokens = "ja", "m-cli", 1.5, 500
		}

		got := Merge(g, decision, preset, local, opts)
		assert.Equal(t, wantLang, got.Language, "mask %03b", mask)
		assert.Equal(t, wantModel, got.Model, "mask %03b", mask)
		assert.Equal(t, wantTemp, got.Temperature, "mask %03b", mask)
		assert.Equal(t, wantTokens, got.MaxTokens, "mask %03b", mask)
		assert.Equal(t, ProviderGemini, got.Provider, "mask %03b", mask)
	}
}

func TestMerge_TextTiers(t *testing.T) {
	g := DefaultGlobalConfig()
	g.Default.Prepend = "G-"
	decision := ProviderDecision{Provider: ProviderGemini, Source: SourceGlobal}

	preset := &Preset{Prepend: ptr("P-"), Style: ptr(StyleDetailed)}
	local := &LocalConfig{Prepend: ptr(""), Style: ptr(StyleFunny)}

	got := Merge(g, decision, preset, nil, Options{})
	assert.Equal(t, "P-", got.Prepend)
	assert.Equal(t, StyleDetailed, got.Style)

	got = Merge(g, decision, preset, local, Options{})
	assert.Equal(t, "", got.Prepend, "an explicit empty local prepend still overrides")
	assert.Equal(t, StyleFunny, got.Style)

	got = Merge(g, decision, preset, local, Options{Style: ptr(StyleConcise)})
	assert.Equal(t, StyleConcise, got.Style)
}

func TestMerge_CLIZeroValuesArePresent(t *testing.T) {
	g := DefaultGlobalConfig()
	got := Merge(g, ProviderDecision{Provider: ProviderGemini}, nil, nil, Options{
		Temperature: ptr(0.0),
		Model:       ptr(""),
	})
	assert.Equal(t, 0.0, got.Temperature)
	assert.Equal(t, g.Providers[ProviderGemini].Model, got.Model, "an empty model is treated as unset")
}

func TestComposePrepend(t *testing.T) {
	tests := []struct {
		name        string
		accumulated string
		cli         *string
		force       bool
		want        string
	}{
		{"append without cli text", "PROJ-", nil, false, "PROJ-"},
		{"append concatenates", "PROJ-", ptr("123"), false, "PROJ-123"},
		{"append empty is a no-op", "PROJ-", ptr(""), false, "PROJ-"},
		{"append onto nothing", "", ptr("WIP "), false, "WIP "},
		{"force replaces", "PROJ-", ptr("HOTFIX-"), true, "HOTFIX-"},
		{"force empty clears", "PROJ-", ptr(""), true, ""},
		{"force without text clears", "PROJ-", nil, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComposePrepend(tt.accumulated, tt.cli, tt.force))
		})
	}
}

func TestResolve_AutoDetectedProvider(t *testing.T) {
	f := newFixture(t, "",
		`{"providers": {"anthropic": {"apiKey": "sk-local", "model": "claude-local"}}}`, nil)

	got, err := f.resolver.Resolve(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, got.Provider)
	assert.Equal(t, "claude-local", got.Model)
	assert.Equal(t, "sk-local", got.APIKey)
	require.Len(t, f.notifier.infos, 1)
	assert.Contains(t, f.notifier.infos[0], "anthropic")
}

func TestResolve_AutoDetectedBeatsPresetProvider(t *testing.T) {
	f := newFixture(t,
		`{"presets": {"work": {"defaultProvider": "openai"}}}`,
		`{"preset": "work", "providers": {"gemini": {"model": "gemini-local"}}}`,
		geminiEnv,
	)
	got, err := f.resolver.Resolve(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, got.Provider)
	assert.Equal(t, "gemini-local", got.Model)
	assert.Equal(t, "gemini-env", got.APIKey)
}

func TestResolve_PromptsOnceAndPersists(t *testing.T) {
	env := map[string]string{"GEMINI_API_KEY": "g", "OPENAI_API_KEY": "o"}
	chooser := &stubChooser{choice: ProviderOpenAI}
	f := newFixture(t, "", `{"providers": {"gemini": {}, "openai": {"model": "gpt-local"}}}`, env, WithChooser(chooser))

	for i := 0; i < 2; i++ {
		got, err := f.resolver.Resolve(context.Background(), Options{})
		require.NoError(t, err)
		assert.Equal(t, ProviderOpenAI, got.Provider)
		assert.Equal(t, "gpt-local", got.Model)
		assert.Equal(t, "o", got.APIKey)
	}
	assert.Equal(t, 1, chooser.calls)
	assert.Equal(t, []ProviderID{ProviderGemini, ProviderOpenAI}, chooser.seen)

	local := NewLocalStore(f.gitDir, nil).Read()
	require.NotNil(t, local)
	assert.Equal(t, ProviderOpenAI, local.DefaultProvider)
	assert.Contains(t, local.Providers, ProviderGemini, "other keys survive the write-back")

	// A later invocation reads the remembered choice instead of prompting.
	next := &stubChooser{choice: ProviderGemini}
	r := NewResolver(newTestStore(t, ""), NewLocalStore(f.gitDir, nil), WithChooser(next), WithEnv(mapEnv(env)))
	got, err := r.Resolve(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, got.Provider)
	assert.Zero(t, next.calls)
}

func TestResolve_PromptFailures(t *testing.T) {
	local := `{"providers": {"gemini": {}, "openai": {}}}`
	env := map[string]string{"GEMINI_API_KEY": "g", "OPENAI_API_KEY": "o"}

	t.Run("no chooser", func(t *testing.T) {
		f := newFixture(t, "", local, env)
		_, err := f.resolver.Resolve(context.Background(), Options{})
		require.ErrorIs(t, err, ErrProviderChoiceRequired)
	})

	t.Run("chooser error propagates", func(t *testing.T) {
		aborted := errors.New("user aborted")
		f := newFixture(t, "", local, env, WithChooser(&stubChooser{err: aborted}))
		_, err := f.resolver.Resolve(context.Background(), Options{})
		require.ErrorIs(t, err, aborted)
	})

	t.Run("choice outside candidates", func(t *testing.T) {
		f := newFixture(t, "", local, env, WithChooser(&stubChooser{choice: ProviderAnthropic}))
		_, err := f.resolver.Resolve(context.Background(), Options{})
		require.Error(t, err)
	})

	t.Run("cancelled context skips the prompt", func(t *testing.T) {
		chooser := &stubChooser{choice: ProviderGemini}
		f := newFixture(t, "", local, env, WithChooser(chooser))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.resolver.Resolve(ctx, Options{})
		require.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, chooser.calls)
	})

	t.Run("cli provider skips the prompt", func(t *testing.T) {
		chooser := &stubChooser{choice: ProviderGemini}
		f := newFixture(t, "", local, env, WithChooser(chooser))
		got, err := f.resolver.Resolve(context.Background(), Options{Provider: ProviderOpenAI})
		require.NoError(t, err)
		assert.Equal(t, ProviderOpenAI, got.Provider)
		assert.Zero(t, chooser.calls)
	})
}

func TestResolve_MissingPresetFallsBack(t *testing.T) {
	f := newFixture(t, `{"default": {"prepend": "G-", "style": "detailed"}}`, `{"preset": "gone"}`, geminiEnv)
	got, err := f.resolver.Resolve(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "G-", got.Prepend)
	assert.Equal(t, StyleDetailed, got.Style)
	assert.Empty(t, f.notifier.warnings)
}
