package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

// recordingNotifier captures warnings and notes for assertions.
type recordingNotifier struct {
	warnings []string
	hints    []string
	infos    []string
}

func (n *recordingNotifier) Warn(msg, hint string) {
	n.warnings = append(n.warnings, msg)
	n.hints = append(n.hints, hint)
}

func (n *recordingNotifier) Info(msg string) {
	n.infos = append(n.infos, msg)
}

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// newTestStore creates a Store whose file holds content. An empty content
// leaves the file absent.
func newTestStore(t *testing.T, content string) *Store {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultConfigFile)
	if content != "" {
		writeFile(t, dir, DefaultConfigFile, content)
	}
	return NewStore(path)
}

// mapEnv returns an EnvFunc backed by vars.
func mapEnv(vars map[string]string) EnvFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}
