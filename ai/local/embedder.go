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

package local

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
)

// Embedder implements ai.Embedder with the in-process model. The model
// loads lazily on first use; concurrent first calls share a single load
// via singleflight. A failed load is remembered for status reporting but
// the next call attempts the load again.
type Embedder struct {
	mu      sync.RWMutex
	model   *model
	loading bool
	loadErr error

	group  singleflight.Group
	loader func(dims int) (*model, error)
	logger *slog.Logger
}

// Status describes the model lifecycle for diagnostics.
type Status struct {
	Ready   bool
	Loading bool
	Err     error
}

// NewEmbedder creates a local embedder. The model is not loaded until
// the first embedding request or an explicit Preload.
func NewEmbedder() *Embedder {
	return &Embedder{
		loader: loadModel,
		logger: slog.Default().With("component", "local-embedder"),
	}
}

// Preload loads the model eagerly. Call at startup so the first search
// does not pay the load cost.
func (e *Embedder) Preload(ctx context.Context) error {
	_, err := e.ensureLoaded(ctx)
	return err
}

// Status reports the current model lifecycle state.
func (e *Embedder) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Status{Ready: e.model != nil, Loading: e.loading, Err: e.loadErr}
}

// Ready implements ai.Embedder, loading the model if necessary.
func (e *Embedder) Ready(ctx context.Context) error {
	_, err := e.ensureLoaded(ctx)
	return err
}

// Model implements ai.Embedder.
func (e *Embedder) Model() string { return core.EmbeddingModelLocal }

// Dimensions implements ai.Embedder.
func (e *Embedder) Dimensions() int { return core.LocalDimensions }

func (e *Embedder) ensureLoaded(ctx context.Context) (*model, error) {
	e.mu.RLock()
	m := e.model
	e.mu.RUnlock()
	if m != nil {
		return m, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, err, _ := e.group.Do("load", func() (any, error) {
		e.mu.Lock()
		if e.model != nil {
			m := e.model
			e.mu.Unlock()
			return m, nil
		}
		e.loading = true
		e.mu.Unlock()

		m, err := e.loader(core.LocalDimensions)

		e.mu.Lock()
		e.loading = false
		e.loadErr = err
		if err == nil {
			e.model = m
		}
		e.mu.Unlock()

		if err != nil {
			e.logger.Error("local model load failed", "err", err)
			return nil, fmt.Errorf("%w: %v", ai.ErrNotReady, err)
		}
		e.logger.Debug("local model loaded", "dimensions", core.LocalDimensions)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model), nil
}

// EmbedText generates a vector embedding for a single text string.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ai.ErrEmptyText
	}
	m, err := e.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	return m.encode(text), nil
}

// EmbedTexts encodes texts sequentially. An item that cannot be encoded
// is returned as nil rather than aborting the batch; onProgress fires
// after each item.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string, onProgress ai.ProgressFunc) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	m, err := e.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			vectors[i] = m.encode(trimmed)
		}
		if onProgress != nil {
			onProgress(ai.NewProgress(i+1, len(texts)))
		}
	}
	return vectors, nil
}

var _ ai.Embedder = (*Embedder)(nil)
