// ABOUTME: Tests for the OpenAI client against a local HTTP server
// ABOUTME: Covers batch position mapping, retries, permanent failures, and completions
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/ragdoc/internal/models"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

func newTestOpenAI(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	cfg.MaxRetries = 2
	cfg.RetryDelay = time.Millisecond
	client, err := NewOpenAIClient(cfg)
	require.NoError(t, err)
	return client
}

func embeddingsHandler(t *testing.T, seen *[]string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*seen = req.Input

		data := make([]map[string]any, len(req.Input))
		// answer in reverse order to prove results are re-sorted by index
		for i := range req.Input {
			j := len(req.Input) - 1 - i
			data[i] = map[string]any{"object": "embedding", "index": j, "embedding": []float32{float32(j), 1}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": req.Model})
	}
}

func TestNewOpenAIClient_RequiresKey(t *testing.T) {
	_, err := NewOpenAIClient(DefaultConfig(""))
	assert.Error(t, err)
}

func TestOpenAIEmbedBatch_MapsPositions(t *testing.T) {
	var seen []string
	client := newTestOpenAI(t, embeddingsHandler(t, &seen))

	vectors, err := client.EmbedBatch(context.Background(), []string{"first\nline", "   ", "second", ""})
	require.NoError(t, err)

	assert.Equal(t, []string{"first line", "second"}, seen, "blanks are skipped and newlines flattened")
	require.Len(t, vectors, 4)
	assert.Equal(t, []float32{0, 1}, vectors[0])
	assert.Nil(t, vectors[1])
	assert.Equal(t, []float32{1, 1}, vectors[2])
	assert.Nil(t, vectors[3])
}

func TestOpenAIEmbedBatch_AllEmpty(t *testing.T) {
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	_, err := client.EmbedBatch(context.Background(), []string{"", " \n "})
	assert.ErrorIs(t, err, ErrAllEmpty)
}

func TestOpenAIEmbed(t *testing.T) {
	var seen []string
	client := newTestOpenAI(t, embeddingsHandler(t, &seen))

	v, err := client.Embed(context.Background(), "  hello\nworld ")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello world"}, seen)
	assert.Len(t, v, 2)

	_, err = client.Embed(context.Background(), "\n")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestOpenAIEmbed_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	var seen []string
	ok := embeddingsHandler(t, &seen)
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, `{"error":{"message":"overloaded","type":"server_error"}}`, http.StatusServiceUnavailable)
			return
		}
		ok(w, r)
	})

	_, err := client.Embed(context.Background(), "retry me")
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOpenAIEmbed_UnauthorizedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	_, err := client.Embed(context.Background(), "anything")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIComplete(t *testing.T) {
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			MaxTokens   int     `json:"max_tokens"`
			Temperature float64 `json:"temperature"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultChatModel, req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "be grounded", req.Messages[0].Content)
		assert.Equal(t, "user", req.Messages[1].Role)
		assert.Equal(t, 2000, req.MaxTokens)
		assert.InDelta(t, 0.3, req.Temperature, 1e-6)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"generated text"},"finish_reason":"stop"}]}`))
	})

	out, err := client.Complete(context.Background(), models.CompletionRequest{
		System: "be grounded", User: "question", Temperature: 0.3, MaxTokens: 2000,
	})
	require.NoError(t, err)
	assert.Equal(t, "generated text", out)
	assert.Equal(t, DefaultChatModel, client.Model())
}

func TestOpenAIComplete_EmptyChoices(t *testing.T) {
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","choices":[]}`))
	})
	client.opts.MaxRetries = 0

	_, err := client.Complete(context.Background(), models.CompletionRequest{User: "q"})
	assert.True(t, errors.Is(err, ErrNoContent), "got %v", err)
}
