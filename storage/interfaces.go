package storage

import (
	"context"
	"time"

	"github.com/poiesic/recall/core"
)

// Filter narrows FindAll results. Zero-valued fields do not constrain.
type Filter struct {
	// Date keeps memories whose CreatedAt falls inside the range.
	Date *core.DateRange

	// Domain keeps memories whose source URL contains this domain,
	// compared case-insensitively.
	Domain string

	// Tags keeps memories carrying at least one of these tags.
	Tags []string

	// HasEmbedding, when set, keeps only memories with (true) or
	// without (false) a stored vector.
	HasEmbedding *bool

	// Model keeps memories embedded by this model tag.
	Model string

	// ExcludeID drops a single memory, used by similar-to queries.
	ExcludeID core.ID
}

// EmbeddingStats summarizes vector coverage across the store.
type EmbeddingStats struct {
	Total            int
	WithEmbedding    int
	WithoutEmbedding int
	ByModel          map[string]int
	CoveragePercent  float64
}

// MemoryRepository provides operations for managing saved memories.
// Implementations must be thread-safe and support concurrent access.
type MemoryRepository interface {
	// AddMemories adds one or more memories to storage. For memories
	// with Id=0, generates new IDs from sequence. Sets CreatedAt if not
	// already set. Returns the memories with IDs and timestamps
	// populated, and ErrDuplicateContent when a memory with the same
	// content hash already exists.
	AddMemories(ctx context.Context, memories ...*core.Memory) ([]*core.Memory, error)

	// UpdateMemories updates existing memories, refreshing UpdatedAt.
	// Returns ErrNotFound if any memory does not exist.
	UpdateMemories(ctx context.Context, memories ...*core.Memory) ([]*core.Memory, error)

	// DeleteMemories removes memories and their indices by ID.
	// Returns ErrNotFound if any memory does not exist.
	DeleteMemories(ctx context.Context, ids ...core.ID) error

	// GetMemory retrieves a single memory by ID.
	// Returns ErrNotFound if the memory does not exist.
	GetMemory(ctx context.Context, id core.ID) (*core.Memory, error)

	// FindByContentHash retrieves the memory with the given content
	// hash. Returns ErrNotFound if none exists.
	FindByContentHash(ctx context.Context, hash core.ID) (*core.Memory, error)

	// FindAll retrieves memories matching the filter, newest first.
	// A nil filter returns everything.
	FindAll(ctx context.Context, filter *Filter) ([]*core.Memory, error)

	// GetRecentMemories retrieves up to limit memories, newest first.
	GetRecentMemories(ctx context.Context, limit int) ([]*core.Memory, error)

	// GetMemoriesByDateRange retrieves memories created within
	// [start, end), ordered by creation time.
	GetMemoriesByDateRange(ctx context.Context, start, end time.Time) ([]*core.Memory, error)

	// SearchText scores memories against query terms with lexical
	// matching and returns matches ordered by score, highest first.
	// The filter, when non-nil, narrows the candidate set.
	SearchText(ctx context.Context, terms string, filter *Filter, limit int) ([]*core.ScoredMemory, error)

	// UpdateEmbedding stores a vector and its model tag on a memory,
	// stamping EmbeddingGeneratedAt. Returns ErrNotFound if the memory
	// does not exist.
	UpdateEmbedding(ctx context.Context, id core.ID, vector []float32, model string) error

	// EmbeddingStats reports vector coverage across all memories.
	EmbeddingStats(ctx context.Context) (*EmbeddingStats, error)

	// Count returns the total number of stored memories.
	Count(ctx context.Context) (int, error)

	// Close closes the storage backend and releases resources.
	Close() error
}
