package ai

import (
	"context"
	"math"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings.
	// The returned slice contains embeddings in the same order as the
	// input texts; a failed item is returned as a nil vector rather than
	// aborting the batch. onProgress, when non-nil, is invoked after each
	// processed chunk.
	EmbedTexts(ctx context.Context, texts []string, onProgress ProgressFunc) ([][]float32, error)

	// Ready reports whether the embedder can serve requests right now.
	// A remote embedder without a credential, or a local model that
	// failed to load, returns a descriptive error.
	Ready(ctx context.Context) error

	// Model returns the tag recorded on memories embedded by this
	// embedder. Vectors from different models are never compared.
	Model() string

	// Dimensions returns the length of the vectors this embedder produces.
	Dimensions() int
}

// Progress describes how far a batch embedding run has advanced.
type Progress struct {
	Processed int
	Total     int
	Percent   int
}

// ProgressFunc receives batch progress updates. Implementations must not
// block; they are called synchronously from the embedding loop.
type ProgressFunc func(Progress)

// NewProgress builds a Progress for processed items out of total, with
// the percentage rounded to the nearest whole number.
func NewProgress(processed, total int) Progress {
	p := Progress{Processed: processed, Total: total}
	if total > 0 {
		p.Percent = int(math.Round(float64(processed) / float64(total) * 100))
	}
	return p
}
