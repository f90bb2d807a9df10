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

package mock

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
)

// MockEmbedder is a test double implementing ai.Embedder. By default it
// returns deterministic vectors derived from the text hash, so the same
// text always embeds identically without a model or network access.
// Behavior can be overridden per test via the Func fields.
type MockEmbedder struct {
	mu        sync.Mutex
	callCount int

	EmbedTextFunc  func(ctx context.Context, text string) ([]float32, error)
	EmbedTextsFunc func(ctx context.Context, texts []string, onProgress ai.ProgressFunc) ([][]float32, error)
	ReadyErr       error
	ModelTag       string
	Dims           int
}

// NewMockEmbedder creates a mock that reports itself as the local model
// with 384-dimension vectors.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		ModelTag: core.EmbeddingModelLocal,
		Dims:     core.LocalDimensions,
	}
}

// EmbedText returns a deterministic vector for text, or delegates to
// EmbedTextFunc when set.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.bump()
	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	if text == "" {
		return nil, ai.ErrEmptyText
	}
	return generateDeterministicVector(text, m.Dims), nil
}

// EmbedTexts returns deterministic vectors for each text, or delegates
// to EmbedTextsFunc when set. onProgress fires once per item.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string, onProgress ai.ProgressFunc) ([][]float32, error) {
	m.bump()
	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts, onProgress)
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		if text != "" {
			vectors[i] = generateDeterministicVector(text, m.Dims)
		}
		if onProgress != nil {
			onProgress(ai.NewProgress(i+1, len(texts)))
		}
	}
	return vectors, nil
}

// Ready returns ReadyErr, nil by default.
func (m *MockEmbedder) Ready(context.Context) error { return m.ReadyErr }

// Model returns the configured model tag.
func (m *MockEmbedder) Model() string { return m.ModelTag }

// Dimensions returns the configured vector length.
func (m *MockEmbedder) Dimensions() int { return m.Dims }

// CallCount returns the number of embedding calls made.
func (m *MockEmbedder) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and any injected behavior.
func (m *MockEmbedder) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
	m.ReadyErr = nil
}

func (m *MockEmbedder) bump() {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()
}

// generateDeterministicVector creates a deterministic embedding vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func generateDeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		// Simple pseudo-random generation based on seed and index
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}

	// Normalize to unit vector
	var sumSquares float32
	for _, v := range vector {
		sumSquares += v * v
	}
	if sumSquares > 0 {
		norm := float32(1.0) / sumSquares
		for i := range vector {
			vector[i] *= norm
		}
	}

	return vector
}

var _ ai.Embedder = (*MockEmbedder)(nil)
