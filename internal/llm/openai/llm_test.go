package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igvf/catalog-llm/internal/llm"
)

func newTestService(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	svc, err := NewLLMService(LLMConfig{
		APIKey:            "test_key",
		BaseURL:           ts.URL,
		RequestsPerSecond: -1,
	})
	require.NoError(t, err)
	return svc
}

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	assert.Error(t, err)
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc, err := NewLLMService(LLMConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
}

func TestChat_SendsDeterministicJSONRequest(t *testing.T) {
	var got map[string]any
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"model": "gpt-4o",
			"choices": [{"message": {"content": "{\"category_names\": [\"genes\"]}"}}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
		}`))
	})

	c, err := svc.Chat(context.Background(), llm.UserMessage("which collections?"), llm.Options{
		Model:       "gpt-4o",
		Temperature: 0,
		JSONMode:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"category_names": ["genes"]}`, c.Content)
	assert.Equal(t, 17, c.Usage.TotalTokens)
	assert.Equal(t, 1, c.Usage.Requests)

	assert.Equal(t, "gpt-4o", got["model"])
	// temperature zero must be sent, not omitted
	assert.Contains(t, got, "temperature")
	assert.Equal(t, float64(0), got["temperature"])
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])

	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	assert.Equal(t, "user", msgs[0].(map[string]any)["role"])
}

func TestChat_DefaultModelWithoutJSONMode(t *testing.T) {
	var got map[string]any
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
	})

	_, err := svc.Chat(context.Background(), llm.UserMessage("hi"), llm.Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, got["model"])
	assert.NotContains(t, got, "response_format")
}

func TestChat_APIError(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`))
	})

	_, err := svc.Chat(context.Background(), llm.UserMessage("hi"), llm.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect API key provided")
}

func TestChat_NonJSONErrorBody(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unavailable"))
	})

	_, err := svc.Chat(context.Background(), llm.UserMessage("hi"), llm.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestChat_NoChoices(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	})

	_, err := svc.Chat(context.Background(), llm.UserMessage("hi"), llm.Options{})
	assert.True(t, errors.Is(err, llm.ErrNoChoices))
}

func TestPing(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, svc.Ping(context.Background()))

	bad := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("nope"))
	})
	err := bad.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
