package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/hashstructure/v2"
)

// Store owns the global configuration file. The first Load parses and
// validates the file; later calls return the same in-memory value.
type Store struct {
	path   string
	cfg    *GlobalConfig
	onDisk uint64
}

// NewStore creates a Store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the global configuration path, honoring
// COMMITWISE_CONFIG when set.
func DefaultPath() (string, error) {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile), nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load returns the global configuration, creating the file with defaults on
// first run. A file that is not valid JSON yields a *SyntaxError; one that
// violates the schema yields a *ValidationError.
func (s *Store) Load() (*GlobalConfig, error) {
	if s.cfg != nil {
		return s.cfg, nil
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && strings.TrimSpace(string(data)) == "") {
		cfg := DefaultGlobalConfig()
		if err := s.write(cfg); err != nil {
			return nil, err
		}
		s.cfg = cfg
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := checkSyntax(s.path, data); err != nil {
		return nil, err
	}

	cfg, err := decodeGlobal(s.path, data)
	if err != nil {
		return nil, err
	}
	s.cfg = cfg
	return cfg, nil
}

// Partial is a set of changes to merge into the global configuration.
// Zero-valued fields are left untouched.
type Partial struct {
	DefaultProvider ProviderID
	Providers       map[ProviderID]ProviderOverrides
	Default         *DefaultsPatch
	// Presets replaces each named preset wholesale.
	Presets map[string]Preset
	// DeletePresets removes the named presets.
	DeletePresets []string
}

// DefaultsPatch updates the global text defaults.
type DefaultsPatch struct {
	Prepend  *string
	Style    *Style
	Language *string
}

// Save merges p into the loaded configuration and rewrites the whole file.
// The in-memory value is only replaced once the merged document validates and
// has been written.
func (s *Store) Save(p Partial) error {
	current, err := s.Load()
	if err != nil {
		return err
	}

	next := current.Clone()
	if p.DefaultProvider != "" {
		next.DefaultProvider = p.DefaultProvider
	}
	for id, o := range p.Providers {
		settings := applyOverrides(next.Provider(id), o)
		if o.APIKey != nil {
			settings.APIKey = *o.APIKey
		}
		next.Providers[id] = settings
	}
	if d := p.Default; d != nil {
		if d.Prepend != nil {
			next.Default.Prepend = *d.Prepend
		}
		if d.Style != nil {
			next.Default.Style = *d.Style
		}
		if d.Language != nil {
			next.Default.Language = *d.Language
		}
	}
	for name, preset := range p.Presets {
		next.Presets[name] = preset
	}
	for _, name := range p.DeletePresets {
		delete(next.Presets, name)
	}

	if err := next.Validate(); err != nil {
		return err
	}
	if err := s.write(next); err != nil {
		return err
	}
	s.cfg = next
	return nil
}

// SetAPIKey stores the API key for a provider.
func (s *Store) SetAPIKey(id ProviderID, key string) error {
	return s.Save(Partial{Providers: map[ProviderID]ProviderOverrides{id: {APIKey: &key}}})
}

// SetDefaultProvider changes the global default provider.
func (s *Store) SetDefaultProvider(id ProviderID) error {
	if !id.Valid() {
		return fmt.Errorf("unknown provider %q; available: %s", id, providerList())
	}
	return s.Save(Partial{DefaultProvider: id})
}

// SetDefaults updates the global prepend, style and language. Nil fields are
// left as they are.
func (s *Store) SetDefaults(d DefaultsPatch) error {
	return s.Save(Partial{Default: &d})
}

// SavePreset creates or replaces a named preset.
func (s *Store) SavePreset(name string, p Preset) error {
	return s.Save(Partial{Presets: map[string]Preset{name: p}})
}

// DeletePreset removes a named preset. Removing a missing preset is an error.
func (s *Store) DeletePreset(name string) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	if _, ok := cfg.Presets[name]; !ok {
		return fmt.Errorf("preset %q not found", name)
	}
	return s.Save(Partial{DeletePresets: []string{name}})
}

// write persists cfg unless the file already holds an identical document.
func (s *Store) write(cfg *GlobalConfig) error {
	sum, err := hashstructure.Hash(cfg, hashstructure.FormatV2, nil)
	if err != nil {
		return fmt.Errorf("hashing config: %w", err)
	}
	if sum == s.onDisk && s.onDisk != 0 {
		if _, err := os.Stat(s.path); err == nil {
			return nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(s.path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	s.onDisk = sum
	return nil
}

// applyOverrides layers o onto base. Model and API key only override when
// non-empty; temperature and max tokens override whenever present, so an
// explicit 0 temperature is honored.
func applyOverrides(base ProviderSettings, o ProviderOverrides) ProviderSettings {
	if o.APIKey != nil && *o.APIKey != "" {
		base.APIKey = *o.APIKey
	}
	if o.Model != nil && *o.Model != "" {
		base.Model = *o.Model
	}
	if o.Temperature != nil {
		base.Temperature = *o.Temperature
	}
	if o.MaxTokens != nil {
		base.MaxTokens = *o.MaxTokens
	}
	return base
}
