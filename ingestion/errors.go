package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when a memory repository is not provided.
	ErrRepositoryRequired = errors.New("memory repository required")

	// ErrEmbedderRequired is returned when an embedding backend is not provided.
	ErrEmbedderRequired = errors.New("embedder required")
)
