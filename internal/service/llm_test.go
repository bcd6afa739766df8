package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pageza/foodflow/backend/config"
	"github.com/pageza/foodflow/backend/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLLM(url, key string) *LLMService {
	return NewLLMService(&config.Config{
		LLMAPIKey:  key,
		LLMAPIURL:  url,
		LLMModel:   "test-model",
		LLMTimeout: 5 * time.Second,
	})
}

func TestLLMServiceComplete(t *testing.T) {
	var got Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ciao"}}]}`))
	}))
	defer server.Close()

	llm := newTestLLM(server.URL, "test-key")
	content, err := llm.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "ciao", content)
	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, 2000, got.MaxTokens)
	assert.Equal(t, 0.7, got.Temperature)
}

func TestLLMServiceErrors(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		_, err := newTestLLM("http://127.0.0.1:1", "").Complete(context.Background(), nil)
		assert.ErrorIs(t, err, ErrLLMNotConfigured)
	})

	t.Run("non 200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}))
		defer server.Close()

		_, err := newTestLLM(server.URL, "k").Complete(context.Background(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 429")
	})

	t.Run("empty content", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  "}}]}`))
		}))
		defer server.Close()

		_, err := newTestLLM(server.URL, "k").Complete(context.Background(), nil)
		assert.ErrorIs(t, err, ErrEmptyCompletion)
	})
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "plain", content: `{"name":"Risotto"}`},
		{name: "fenced", content: "```json\n{\"name\":\"Risotto\"}\n```"},
		{name: "surrounded by prose", content: "Ecco la ricetta: {\"name\":\"Risotto\"} buon appetito"},
		{name: "no json", content: "nessuna ricetta", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v struct {
				Name string `json:"name"`
			}
			err := ExtractJSON(tt.content, &v)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Risotto", v.Name)
		})
	}
}

func TestCompletionKey(t *testing.T) {
	userID := uuid.New()
	messages := []Message{{Role: "user", Content: "pasta"}}
	key := CompletionKey("recipes", userID, messages)
	assert.Equal(t, key, CompletionKey("recipes", userID, messages))
	assert.NotEqual(t, key, CompletionKey("recipes", userID, []Message{{Role: "user", Content: "riso"}}))
	assert.NotEqual(t, key, CompletionKey("recipes", uuid.New(), messages))
	assert.Contains(t, key, "ai:recipes:")
}

func TestCompletionCacheWithoutRedis(t *testing.T) {
	cache := NewCompletionCache(nil)
	require.NoError(t, cache.Set(context.Background(), "k", "v"))
	_, ok, err := cache.Get(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWithFallback(t *testing.T) {
	ctx := context.Background()

	res := WithFallback(ctx, "ok", func(context.Context) (int, types.Source, error) {
		return 1, "", nil
	}, func() int { return 2 })
	assert.Equal(t, 1, res.Value)
	assert.Equal(t, types.SourceAI, res.Source)

	res = WithFallback(ctx, "error", func(context.Context) (int, types.Source, error) {
		return 0, "", ErrUnexpectedShape
	}, func() int { return 2 })
	assert.Equal(t, 2, res.Value)
	assert.Equal(t, types.SourceFallback, res.Source)
	assert.ErrorIs(t, res.Err, ErrUnexpectedShape)

	res = WithFallback(ctx, "panic", func(context.Context) (int, types.Source, error) {
		panic("boom")
	}, func() int { return 3 })
	assert.Equal(t, 3, res.Value)
	assert.Equal(t, types.SourceFallback, res.Source)
	assert.Error(t, res.Err)
}
