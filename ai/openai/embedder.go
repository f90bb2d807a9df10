// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openai

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
)

const (
	defaultModel     = "text-embedding-3-small"
	defaultChunkSize = 20
	defaultPause     = 100 * time.Millisecond
)

// Embedder implements ai.Embedder against the OpenAI embeddings API.
// The credential is mutable at runtime: Configure swaps the underlying
// client, and an unconfigured embedder rejects all requests with
// ai.ErrNotConfigured.
type Embedder struct {
	mu      sync.RWMutex
	client  *openai.Client
	baseURL string

	model     openai.EmbeddingModel
	chunkSize int
	pause     time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
	logger    *slog.Logger
}

// Option configures an Embedder.
type Option func(*Embedder)

// WithBaseURL points the embedder at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(e *Embedder) { e.baseURL = url }
}

// WithModel overrides the embedding model identifier.
func WithModel(model string) Option {
	return func(e *Embedder) { e.model = openai.EmbeddingModel(model) }
}

// WithChunkSize overrides how many texts are sent per batch request.
func WithChunkSize(n int) Option {
	return func(e *Embedder) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithPause overrides the delay between batch requests.
func WithPause(d time.Duration) Option {
	return func(e *Embedder) { e.pause = d }
}

// NewEmbedder creates an unconfigured remote embedder. Call Configure
// with an API key before use.
func NewEmbedder(opts ...Option) *Embedder {
	e := &Embedder{
		model:     defaultModel,
		chunkSize: defaultChunkSize,
		pause:     defaultPause,
		sleep:     sleepCtx,
		logger:    slog.Default().With("component", "openai-embedder"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Configure sets the API credential, replacing any previous client. An
// empty or whitespace-only key clears the configuration. Returns true
// when the embedder ends up configured.
func (e *Embedder) Configure(apiKey string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		e.client = nil
		e.logger.Info("remote embedding configuration cleared")
		return false
	}

	cfg := openai.DefaultConfig(apiKey)
	if e.baseURL != "" {
		cfg.BaseURL = e.baseURL
	}
	e.client = openai.NewClientWithConfig(cfg)
	e.logger.Info("remote embedding configured", "model", string(e.model))
	return true
}

// IsConfigured reports whether an API credential is set.
func (e *Embedder) IsConfigured() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.client != nil
}

// Ready implements ai.Embedder.
func (e *Embedder) Ready(_ context.Context) error {
	if !e.IsConfigured() {
		return ai.ErrNotConfigured
	}
	return nil
}

// Model implements ai.Embedder.
func (e *Embedder) Model() string { return core.EmbeddingModelRemote }

// Dimensions implements ai.Embedder.
func (e *Embedder) Dimensions() int { return core.RemoteDimensions }

func (e *Embedder) currentClient() (*openai.Client, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.client == nil {
		return nil, ai.ErrNotConfigured
	}
	return e.client, nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	client, err := e.currentClient()
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ai.ErrEmptyText
	}
	return e.request(ctx, client, []string{text})
}

func (e *Embedder) request(ctx context.Context, client *openai.Client, input []string) ([]float32, error) {
	resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:          input,
		Model:          e.model,
		EncodingFormat: openai.EmbeddingEncodingFormatFloat,
	})
	if err != nil {
		return nil, normalizeAPIError(err)
	}
	if len(resp.Data) == 0 {
		return nil, ai.ErrEmbeddingFailed
	}
	return resp.Data[0].Embedding, nil
}

// EmbedTexts generates embeddings in chunks, pausing briefly between
// chunks to stay under rate limits. Unlike the local embedder, any chunk
// failure aborts the whole batch. onProgress fires after each chunk.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string, onProgress ai.ProgressFunc) ([][]float32, error) {
	client, err := e.currentClient()
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.chunkSize {
		end := min(start+e.chunkSize, len(texts))

		resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input:          texts[start:end],
			Model:          e.model,
			EncodingFormat: openai.EmbeddingEncodingFormatFloat,
		})
		if err != nil {
			e.logger.Error("batch embedding chunk failed",
				"start", start, "size", end-start, "err", err)
			return nil, normalizeAPIError(err)
		}
		for _, item := range resp.Data {
			vectors = append(vectors, item.Embedding)
		}

		if onProgress != nil {
			onProgress(ai.NewProgress(end, len(texts)))
		}
		if end < len(texts) {
			if err := e.sleep(ctx, e.pause); err != nil {
				return nil, err
			}
		}
	}
	return vectors, nil
}

// TestCredential verifies a candidate API key by requesting a single
// tiny embedding through a throwaway client. The configured credential,
// if any, is left untouched. Classification of the returned error tells
// the caller whether the key is bad or the service is merely
// unavailable.
func (e *Embedder) TestCredential(ctx context.Context, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return ai.ErrInvalidCredential
	}

	cfg := openai.DefaultConfig(apiKey)
	e.mu.RLock()
	if e.baseURL != "" {
		cfg.BaseURL = e.baseURL
	}
	e.mu.RUnlock()

	_, err := e.request(ctx, openai.NewClientWithConfig(cfg), []string{"test"})
	return err
}

var _ ai.Embedder = (*Embedder)(nil)
