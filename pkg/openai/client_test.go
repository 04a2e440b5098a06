package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigured(t *testing.T) {
	assert.True(t, NewClient("http://x", "key", "model").Configured())
	assert.False(t, NewClient("http://x", "", "model").Configured())

	var nilClient *Client
	assert.False(t, nilClient.Configured())
}

func TestChatCompletionJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.NotNil(t, req.ResponseFormat)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)
		require.Len(t, req.Messages, 2)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"items\": [\"x\"]}"}, "finish_reason": "stop"}]
		}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "test-model")
	messages := []ChatMessage{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "user"},
	}

	content, err := client.ChatCompletionJSON(context.Background(), messages, 500, 0.4)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items": ["x"]}`, content)
}

func TestChatCompletionJSONNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "chatcmpl-1", "choices": []}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "test-model")
	_, err := client.ChatCompletionJSON(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, 100, 0)
	assert.ErrorContains(t, err, "no choices")
}

func TestChatCompletionJSONAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"code": "rate_limit_exceeded", "message": "Rate limit reached", "type": "requests"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "test-key", "test-model")
	_, err := client.ChatCompletionJSON(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, 100, 0)
	require.Error(t, err)
	assert.ErrorContains(t, err, "status 429")
	assert.ErrorContains(t, err, "Rate limit reached")
}

func TestChatCompletionJSONUnconfigured(t *testing.T) {
	client := NewClient("http://localhost:1", "", "test-model")
	_, err := client.ChatCompletionJSON(context.Background(), []ChatMessage{{Role: "user", Content: "hi"}}, 100, 0)
	assert.ErrorContains(t, err, "API key is not configured")
}
