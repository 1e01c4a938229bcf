package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mwistrand/commitwise/internal/git"
	"github.com/mwistrand/commitwise/internal/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	p, err := New("test-api-key", "")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", p.Name())
	assert.Equal(t, DefaultModel, string(p.model))
	assert.Equal(t, "claude-sonnet-4-20250514", DefaultModel)
}

func TestNew_CustomModel(t *testing.T) {
	p, err := New("test-api-key", "claude-opus-4-20250514")
	require.NoError(t, err)
	assert.Equal(t, "claude-opus-4-20250514", string(p.model))
}

func TestNew_NoAPIKey(t *testing.T) {
	_, err := New("", "")
	require.Error(t, err)
}

func TestFactory(t *testing.T) {
	g, err := Factory("key", "")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", g.Name())
}

func request() *provider.MessageRequest {
	return &provider.MessageRequest{
		Changes: &git.StagedChanges{
			Files: []git.StagedFile{{Path: "main.go", Status: git.StatusModified, Additions: 1}},
			Patch: "+fmt.Println()",
		},
		Style:    "concise",
		Language: "en",
		Options:  provider.GenerateOptions{Model: "claude-x", Temperature: 1.5, MaxTokens: 256},
	}
}

func TestGenerateMessage(t *testing.T) {
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "id": "msg_01",
  "type": "message",
  "role": "assistant",
  "model": "claude-x",
  "content": [{"type": "text", "text": "feat: print a line\n\n- add println"}],
  "stop_reason": "end_turn",
  "usage": {"input_tokens": 10, "output_tokens": 5}
}`))
	}))
	defer server.Close()

	p, err := New("test-key", "", option.WithBaseURL(server.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	resp, err := p.GenerateMessage(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "feat: print a line", resp.Subject)
	assert.Equal(t, "- add println", resp.Body)

	assert.Equal(t, "claude-x", body["model"])
	assert.EqualValues(t, 256, body["max_tokens"])
	assert.EqualValues(t, 1, body["temperature"], "temperature is capped at the API maximum")
	system, ok := body["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 1)
	assert.Contains(t, system[0].(map[string]any)["text"], "commit messages")
}

func TestGenerateMessage_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "authentication_error", "message": "invalid x-api-key"}}`))
	}))
	defer server.Close()

	p, err := New("bad-key", "", option.WithBaseURL(server.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = p.GenerateMessage(context.Background(), request())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "claude API error")
}

func TestGenerateMessage_EmptyReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "msg_02", "type": "message", "role": "assistant", "model": "m", "content": [], "usage": {"input_tokens": 1, "output_tokens": 0}}`))
	}))
	defer server.Close()

	p, err := New("key", "", option.WithBaseURL(server.URL), option.WithMaxRetries(0))
	require.NoError(t, err)

	_, err = p.GenerateMessage(context.Background(), request())
	require.ErrorIs(t, err, provider.ErrEmptyMessage)
}
