package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"
)

// LocalStore reads and updates the per-repository override file.
type LocalStore struct {
	path     string
	notifier Notifier
}

// NewLocalStore returns a LocalStore for the repository whose git metadata
// directory is gitDir. A nil notifier discards warnings.
func NewLocalStore(gitDir string, notifier Notifier) *LocalStore {
	if notifier == nil {
		notifier = discardNotifier{}
	}
	return &LocalStore{
		path:     filepath.Join(gitDir, LocalConfigFile),
		notifier: notifier,
	}
}

// Path returns the override file path.
func (l *LocalStore) Path() string {
	return l.path
}

// Read returns the repository's overrides, or nil when there are none.
// A missing file or content that is clearly not JSON is silently ignored;
// malformed JSON or a schema violation is reported as a warning. Read never
// fails and never caches: each call re-reads the file.
func (l *LocalStore) Read() *LocalConfig {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			l.notifier.Warn(
				fmt.Sprintf("could not read local configuration %s: %v", l.path, err),
				"Using global configuration only.",
			)
		}
		return nil
	}

	if !looksLikeJSON(data) {
		return nil
	}

	if err := checkSyntax(l.path, data); err != nil {
		var syntaxErr *SyntaxError
		hint := ""
		if errors.As(err, &syntaxErr) {
			hint = fmt.Sprintf("Line %d: %s ", syntaxErr.Line, syntaxErr.Hint.Advice())
		}
		l.notifier.Warn(
			"local configuration has malformed syntax; falling back to global configuration",
			fmt.Sprintf("%sFix or delete %s.", hint, l.path),
		)
		return nil
	}

	local, err := decodeLocal(l.path, data)
	if err != nil {
		l.notifier.Warn(
			fmt.Sprintf("local configuration is invalid; falling back to global configuration: %v", err),
			fmt.Sprintf("Fix or delete %s.", l.path),
		)
		return nil
	}
	return local
}

// SetDefaultProvider records a provider choice in the override file,
// preserving every other key.
func (l *LocalStore) SetDefaultProvider(id ProviderID) error {
	if !id.Valid() {
		return fmt.Errorf("unknown provider %q; available: %s", id, providerList())
	}
	return l.set("defaultProvider", string(id))
}

// LinkPreset makes the repository inherit the named preset.
func (l *LocalStore) LinkPreset(name string) error {
	return l.set("preset", name)
}

// Unlink removes any preset reference from the override file.
func (l *LocalStore) Unlink() error {
	data, err := l.readForUpdate()
	if err != nil {
		return err
	}
	updated, err := sjson.DeleteBytes(data, "preset")
	if err != nil {
		return fmt.Errorf("updating local configuration: %w", err)
	}
	return l.write(updated)
}

func (l *LocalStore) set(key string, value any) error {
	data, err := l.readForUpdate()
	if err != nil {
		return err
	}
	updated, err := sjson.SetBytes(data, key, value)
	if err != nil {
		return fmt.Errorf("updating local configuration: %w", err)
	}
	return l.write(updated)
}

// readForUpdate returns the current document, or an empty object when the
// file does not exist. A malformed file is never overwritten.
func (l *LocalStore) readForUpdate() ([]byte, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return []byte("{}"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading local configuration: %w", err)
	}
	if !looksLikeJSON(data) {
		return nil, fmt.Errorf("local configuration %s is not JSON; refusing to overwrite it", l.path)
	}
	if err := checkSyntax(l.path, data); err != nil {
		return nil, fmt.Errorf("refusing to overwrite local configuration: %w", err)
	}
	return data, nil
}

func (l *LocalStore) write(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("creating local configuration directory: %w", err)
	}
	if err := os.WriteFile(l.path, pretty.Pretty(data), 0o600); err != nil {
		return fmt.Errorf("writing local configuration: %w", err)
	}
	return nil
}
