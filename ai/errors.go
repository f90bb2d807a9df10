package ai

import "errors"

var (
	// ErrEmptyText is returned when an empty or whitespace-only string is
	// submitted for embedding.
	ErrEmptyText = errors.New("cannot embed empty text")

	// ErrNotConfigured is returned by a remote embedder that has no API
	// credential set.
	ErrNotConfigured = errors.New("remote embedding is not configured")

	// ErrNotReady is returned when an embedder cannot currently serve
	// requests, for example a local model that failed to load.
	ErrNotReady = errors.New("embedder is not ready")

	// ErrInvalidCredential indicates the configured API credential was
	// rejected by the remote service.
	ErrInvalidCredential = errors.New("embedding credential rejected")

	// ErrRateLimited indicates the remote service throttled the request.
	ErrRateLimited = errors.New("embedding request rate limited")

	// ErrUpstream indicates a server-side failure at the remote service.
	ErrUpstream = errors.New("embedding service unavailable")

	// ErrEmbeddingFailed wraps failures that fit no narrower class.
	ErrEmbeddingFailed = errors.New("embedding generation failed")
)
