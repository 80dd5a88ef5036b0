package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteReturnsFirstChoice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		resp := map[string]interface{}{
			"id": "cmpl-1",
			"choices": []map[string]interface{}{
				{"index": 0, "message": map[string]string{"role": "assistant", "content": "The market is growing."}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model")
	require.True(t, client.IsConfigured())

	content, err := client.Complete(context.Background(), "You are an analyst.", "How is the market?", 100, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "The market is growing.", content)
}

func TestCompleteErrorEnvelope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":"rate_limit_exceeded","message":"Rate limit reached","type":"requests"}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model")
	_, err := client.Complete(context.Background(), "sys", "user", 100, 0.7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Rate limit reached")
	assert.Contains(t, err.Error(), "429")
}

func TestCompleteNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"cmpl-2","choices":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", "test-model")
	_, err := client.Complete(context.Background(), "sys", "user", 100, 0.7)
	assert.Error(t, err)
}

func TestCompleteWithoutAPIKey(t *testing.T) {
	client := NewClient("http://localhost:0", "", "test-model")
	assert.False(t, client.IsConfigured())

	_, err := client.Complete(context.Background(), "sys", "user", 100, 0.7)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is not set")
}
