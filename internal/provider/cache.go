package provider

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CacheDir is the directory, inside the git metadata directory, that holds
// generated messages.
const CacheDir = "commitwise/messages"

// CachedMessage is a generated message remembered for a staged diff.
type CachedMessage struct {
	Key      string    `json:"key"`
	Provider string    `json:"provider"`
	Model    string    `json:"model"`
	Subject  string    `json:"subject"`
	Body     string    `json:"body,omitempty"`
	CachedAt time.Time `json:"cachedAt"`
}

// Response returns the cached message as a MessageResponse.
func (c *CachedMessage) Response() *MessageResponse {
	return &MessageResponse{Subject: c.Subject, Body: c.Body}
}

// MessageCache stores generated messages so a rejected commit (a failing
// hook, say) can be retried without another model call.
type MessageCache struct {
	gitDir string
}

// NewMessageCache creates a cache under gitDir.
func NewMessageCache(gitDir string) *MessageCache {
	return &MessageCache{gitDir: gitDir}
}

// CacheKey derives a deterministic key from the generator and the request.
// Any change to the staged patch or to the message settings changes the key.
func CacheKey(generator string, req *MessageRequest) string {
	h := sha256.New()
	for _, part := range []string{
		generator,
		req.Options.Model,
		string(req.Style),
		strings.ToLower(req.Language),
		req.Changes.Patch,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Directory returns the cache directory.
func (c *MessageCache) Directory() string {
	return filepath.Join(c.gitDir, filepath.FromSlash(CacheDir))
}

// Path returns the file for key.
func (c *MessageCache) Path(key string) string {
	return filepath.Join(c.Directory(), key+".json")
}

// Load reads a cached message. A missing or unreadable entry yields nil.
func (c *MessageCache) Load(key string) (*CachedMessage, error) {
	data, err := os.ReadFile(c.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading message cache: %w", err)
	}

	var cached CachedMessage
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, nil
	}
	return &cached, nil
}

// Save writes a message to the cache.
func (c *MessageCache) Save(cached *CachedMessage) error {
	if err := os.MkdirAll(c.Directory(), 0o700); err != nil {
		return fmt.Errorf("creating message cache directory: %w", err)
	}

	data, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling message cache: %w", err)
	}

	if err := os.WriteFile(c.Path(cached.Key), data, 0o600); err != nil {
		return fmt.Errorf("writing message cache: %w", err)
	}
	return nil
}

// List returns every cached message.
func (c *MessageCache) List() ([]*CachedMessage, error) {
	entries, err := os.ReadDir(c.Directory())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}

	var messages []*CachedMessage
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		msg, err := c.Load(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil || msg == nil {
			continue
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Clear removes the entry for key.
func (c *MessageCache) Clear(key string) error {
	err := os.Remove(c.Path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ClearAll removes every cached message.
func (c *MessageCache) ClearAll() error {
	return os.RemoveAll(c.Directory())
}

// ClearStale removes entries older than maxAge and returns how many went.
func (c *MessageCache) ClearStale(maxAge time.Duration) (int, error) {
	messages, err := c.List()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	cleared := 0
	for _, msg := range messages {
		if msg.CachedAt.Before(cutoff) {
			if err := c.Clear(msg.Key); err != nil {
				return cleared, fmt.Errorf("clearing %s: %w", msg.Key, err)
			}
			cleared++
		}
	}
	return cleared, nil
}
