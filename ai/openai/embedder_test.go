package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
)

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// embeddingServer fakes the /embeddings endpoint, recording each request's
// input size and returning a small vector per input.
func embeddingServer(t *testing.T, inputSizes *[]int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"))
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if inputSizes != nil {
			*inputSizes = append(*inputSizes, len(req.Input))
		}

		var data []map[string]any
		for i := range req.Input {
			data = append(data, map[string]any{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{0.1, 0.2, 0.3},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data})
	}))
}

func errorServer(status int, message string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"error":{"message":%q,"type":"test_error"}}`, message)
	}))
}

func TestConfigure(t *testing.T) {
	e := NewEmbedder()

	t.Run("starts unconfigured", func(t *testing.T) {
		assert.False(t, e.IsConfigured())
		assert.ErrorIs(t, e.Ready(context.Background()), ai.ErrNotConfigured)

		_, err := e.EmbedText(context.Background(), "hello")
		assert.ErrorIs(t, err, ai.ErrNotConfigured)
	})

	t.Run("key enables", func(t *testing.T) {
		assert.True(t, e.Configure("test-key"))
		assert.True(t, e.IsConfigured())
		assert.NoError(t, e.Ready(context.Background()))
	})

	t.Run("blank key clears", func(t *testing.T) {
		assert.False(t, e.Configure("   "))
		assert.False(t, e.IsConfigured())
	})
}

func TestEmbedText(t *testing.T) {
	srv := embeddingServer(t, nil)
	defer srv.Close()

	e := NewEmbedder(WithBaseURL(srv.URL))
	e.Configure("test-key")

	t.Run("returns vector", func(t *testing.T) {
		vec, err := e.EmbedText(context.Background(), "docker networking")
		require.NoError(t, err)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	})

	t.Run("empty text rejected", func(t *testing.T) {
		_, err := e.EmbedText(context.Background(), "   ")
		assert.ErrorIs(t, err, ai.ErrEmptyText)
	})
}

func TestEmbedTextsChunks(t *testing.T) {
	var sizes []int
	srv := embeddingServer(t, &sizes)
	defer srv.Close()

	e := NewEmbedder(WithBaseURL(srv.URL), WithPause(0))
	e.Configure("test-key")

	texts := make([]string, 45)
	for i := range texts {
		texts[i] = fmt.Sprintf("memory %d", i)
	}

	var updates []ai.Progress
	vectors, err := e.EmbedTexts(context.Background(), texts, func(p ai.Progress) {
		updates = append(updates, p)
	})
	require.NoError(t, err)

	assert.Len(t, vectors, 45)
	assert.Equal(t, []int{20, 20, 5}, sizes)
	require.Len(t, updates, 3)
	assert.Equal(t, ai.Progress{Processed: 20, Total: 45, Percent: 44}, updates[0])
	assert.Equal(t, ai.Progress{Processed: 40, Total: 45, Percent: 89}, updates[1])
	assert.Equal(t, ai.Progress{Processed: 45, Total: 45, Percent: 100}, updates[2])
}

func TestEmbedTextsEmpty(t *testing.T) {
	e := NewEmbedder()
	e.Configure("test-key")

	vectors, err := e.EmbedTexts(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ai.ErrInvalidCredential},
		{http.StatusForbidden, ai.ErrInvalidCredential},
		{http.StatusTooManyRequests, ai.ErrRateLimited},
		{http.StatusInternalServerError, ai.ErrUpstream},
		{http.StatusBadGateway, ai.ErrUpstream},
		{http.StatusBadRequest, ai.ErrEmbeddingFailed},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("status %d", tt.status), func(t *testing.T) {
			srv := errorServer(tt.status, "nope")
			defer srv.Close()

			e := NewEmbedder(WithBaseURL(srv.URL))
			e.Configure("test-key")

			_, err := e.EmbedText(context.Background(), "hello")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestTestCredential(t *testing.T) {
	t.Run("valid key", func(t *testing.T) {
		srv := embeddingServer(t, nil)
		defer srv.Close()

		e := NewEmbedder(WithBaseURL(srv.URL))
		assert.NoError(t, e.TestCredential(context.Background(), "test-key"))
	})

	t.Run("rejected key", func(t *testing.T) {
		srv := errorServer(http.StatusUnauthorized, "invalid api key")
		defer srv.Close()

		e := NewEmbedder(WithBaseURL(srv.URL))
		assert.ErrorIs(t, e.TestCredential(context.Background(), "bad-key"), ai.ErrInvalidCredential)
	})

	t.Run("blank key", func(t *testing.T) {
		e := NewEmbedder()
		assert.ErrorIs(t, e.TestCredential(context.Background(), "  "), ai.ErrInvalidCredential)
	})

	t.Run("configured credential untouched", func(t *testing.T) {
		srv := errorServer(http.StatusUnauthorized, "invalid api key")
		defer srv.Close()

		e := NewEmbedder(WithBaseURL(srv.URL))
		e.Configure("good-key")
		assert.Error(t, e.TestCredential(context.Background(), "bad-key"))
		assert.True(t, e.IsConfigured())
	})
}

func TestModelIdentity(t *testing.T) {
	e := NewEmbedder()
	assert.Equal(t, core.EmbeddingModelRemote, e.Model())
	assert.Equal(t, core.RemoteDimensions, e.Dimensions())
}
