package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwistrand/commitwise/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetSave(t *testing.T) {
	path := newConfigFile(t, "")

	_, err := executeCommand(t, path, "preset", "save", "work",
		"--prepend", "PROJ-", "--style", "detailed",
		"--provider", "openai", "--model", "gpt-4o", "--temperature", "0")
	require.NoError(t, err)

	cfg, err := config.NewStore(path).Load()
	require.NoError(t, err)
	preset, ok := config.LookupPreset("work", cfg)
	require.True(t, ok)

	require.NotNil(t, preset.Prepend)
	assert.Equal(t, "PROJ-", *preset.Prepend)
	require.NotNil(t, preset.Style)
	assert.Equal(t, config.StyleDetailed, *preset.Style)
	assert.Nil(t, preset.Language)
	assert.Equal(t, config.ProviderOpenAI, preset.DefaultProvider)

	o := preset.Providers[config.ProviderOpenAI]
	require.NotNil(t, o.Model)
	assert.Equal(t, "gpt-4o", *o.Model)
	require.NotNil(t, o.Temperature)
	assert.Zero(t, *o.Temperature)
	assert.Nil(t, o.MaxTokens)
}

func TestPresetSave_OverridesNeedProvider(t *testing.T) {
	path := newConfigFile(t, "")

	_, err := executeCommand(t, path, "preset", "save", "fast", "--model", "gpt-4o")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--provider")
}

func TestPresetSave_Invalid(t *testing.T) {
	path := newConfigFile(t, "")

	_, err := executeCommand(t, path, "preset", "save", "bad", "--language", "english")
	require.ErrorIs(t, err, config.ErrInvalidConfig)

	cfg, err := config.NewStore(path).Load()
	require.NoError(t, err)
	assert.NotContains(t, cfg.Presets, "bad")
}

func TestPresetListShowDelete(t *testing.T) {
	path := newConfigFile(t, `{"presets": {
  "work": {"prepend": "PROJ-", "providers": {"openai": {"apiKey": "sk-preset-key-abcdef"}}},
  "funny": {"style": "funny"}
}}`)

	output, err := executeCommand(t, path, "preset", "list")
	require.NoError(t, err)
	assert.Less(t, strings.Index(output, "funny"), strings.Index(output, "work"), "presets are listed by name")
	assert.Contains(t, output, `prepend="PROJ-"`)
	assert.Contains(t, output, "style=funny")

	output, err = executeCommand(t, path, "preset", "show", "work")
	require.NoError(t, err)
	assert.Contains(t, output, `"prepend": "PROJ-"`)
	assert.Contains(t, output, "sk-p...cdef")
	assert.NotContains(t, output, "sk-preset-key-abcdef")

	_, err = executeCommand(t, path, "preset", "delete", "funny")
	require.NoError(t, err)

	output, err = executeCommand(t, path, "preset", "list")
	require.NoError(t, err)
	assert.NotContains(t, output, "funny")

	_, err = executeCommand(t, path, "preset", "delete", "funny")
	require.Error(t, err)
}

func TestPresetList_Empty(t *testing.T) {
	output, err := executeCommand(t, newConfigFile(t, ""), "preset", "list")
	require.NoError(t, err)
	assert.Contains(t, output, "No presets defined.")
}

func TestPresetLinkUnlink(t *testing.T) {
	dir := setupRepo(t)
	path := newConfigFile(t, `{"presets": {"work": {"prepend": "PROJ-"}}}`)
	localPath := filepath.Join(dir, ".git", config.LocalConfigFile)

	_, err := executeCommand(t, path, "preset", "link", "missing")
	require.Error(t, err)
	assert.NoFileExists(t, localPath)

	_, err = executeCommand(t, path, "preset", "link", "work")
	require.NoError(t, err)
	data, err := os.ReadFile(localPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"preset": "work"`)

	_, err = executeCommand(t, path, "preset", "unlink")
	require.NoError(t, err)
	data, err = os.ReadFile(localPath)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "preset")
}

func TestSummarizePreset(t *testing.T) {
	model := "gpt-4o"
	style := config.StyleFunny
	p := config.Preset{
		Style:           &style,
		DefaultProvider: config.ProviderOpenAI,
		Providers: map[config.ProviderID]config.ProviderOverrides{
			config.ProviderOpenAI: {Model: &model},
		},
	}
	assert.Equal(t, "provider=openai style=funny openai.model=gpt-4o", summarizePreset(p))
	assert.Equal(t, "(empty)", summarizePreset(config.Preset{}))
}
