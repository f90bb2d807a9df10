// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package recall

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/recall/ai/local"
	"github.com/poiesic/recall/ai/openai"
	"github.com/poiesic/recall/backfill"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/ingestion"
	"github.com/poiesic/recall/search"
	"github.com/poiesic/recall/storage"
	"github.com/poiesic/recall/storage/badger"
)

// Store is the top-level handle over a memory database: storage,
// embedding backends, search, ingestion and backfill wired together.
type Store struct {
	backend    *badger.Backend
	memories   storage.MemoryRepository
	remote     *openai.Embedder
	local      *local.Embedder
	pipeline   *ingestion.Pipeline
	searcher   *search.Searcher
	backfiller *backfill.Backfiller
	logger     *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	apiKey string
	logger *slog.Logger
}

// WithAPIKey configures the remote embedding backend at open time.
func WithAPIKey(key string) StoreOption {
	return func(o *storeOptions) {
		o.apiKey = key
	}
}

// WithStoreLogger sets a custom logger for the store and everything it
// wires up. Default is slog.Default().
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(o *storeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open opens or creates a memory database at filePath.
func Open(filePath string, opts ...StoreOption) (*Store, error) {
	return open(filePath, false, opts...)
}

// OpenInMemory opens a transient database that is lost on close. Used
// in tests and for scratch environments.
func OpenInMemory(opts ...StoreOption) (*Store, error) {
	return open("", true, opts...)
}

func open(filePath string, inMemory bool, opts ...StoreOption) (*Store, error) {
	options := &storeOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, inMemory)
	if err != nil {
		return nil, err
	}

	memories, err := badger.NewMemoryRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	remote := openai.NewEmbedder()
	if options.apiKey != "" {
		remote.Configure(options.apiKey)
	}
	localEmb := local.NewEmbedder()

	pipeline, err := ingestion.NewPipeline(memories, remote, localEmb,
		ingestion.WithLogger(options.logger))
	if err != nil {
		memories.Close()
		backend.Close()
		return nil, err
	}

	searcher, err := search.NewSearcher(memories, remote, localEmb,
		search.WithLogger(options.logger))
	if err != nil {
		pipeline.Release()
		memories.Close()
		backend.Close()
		return nil, err
	}

	backfiller, err := backfill.NewBackfiller(memories, remote, localEmb,
		backfill.WithLogger(options.logger))
	if err != nil {
		pipeline.Release()
		memories.Close()
		backend.Close()
		return nil, err
	}

	return &Store{
		backend:    backend,
		memories:   memories,
		remote:     remote,
		local:      localEmb,
		pipeline:   pipeline,
		searcher:   searcher,
		backfiller: backfiller,
		logger:     options.logger,
	}, nil
}

// Close waits for in-flight embedding work and releases all resources.
func (s *Store) Close() error {
	s.pipeline.Release()

	if err := s.memories.Close(); err != nil {
		s.logger.Error("error closing memory repository", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Save validates and stores memories, generating embeddings in the
// background.
func (s *Store) Save(ctx context.Context, memories ...*core.Memory) ([]*core.Memory, error) {
	return s.pipeline.Save(ctx, memories...)
}

// Search runs a natural-language search over saved memories.
func (s *Store) Search(ctx context.Context, req search.Request) (*search.Result, error) {
	return s.searcher.Search(ctx, req)
}

// SimilarTo finds memories similar to an existing one.
func (s *Store) SimilarTo(ctx context.Context, id core.ID, limit int) ([]*core.ScoredMemory, error) {
	return s.searcher.SimilarTo(ctx, id, limit)
}

// Backfill generates embeddings for memories saved without one.
func (s *Store) Backfill(ctx context.Context, opts backfill.Options) (*backfill.Report, error) {
	s.pipeline.Wait()
	return s.backfiller.Run(ctx, opts)
}

// Stats reports embedding coverage across the database.
func (s *Store) Stats(ctx context.Context) (*storage.EmbeddingStats, error) {
	s.pipeline.Wait()
	return s.memories.EmbeddingStats(ctx)
}

// Configure validates an API key against the remote backend and keeps
// it when it works. The previously configured key, if any, survives a
// failed validation. An empty key clears the remote configuration.
func (s *Store) Configure(ctx context.Context, apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		s.remote.Configure("")
		return nil
	}
	if err := s.remote.TestCredential(ctx, apiKey); err != nil {
		return err
	}
	s.remote.Configure(apiKey)
	return nil
}

// PreloadLocal loads the local embedding model ahead of first use.
func (s *Store) PreloadLocal(ctx context.Context) error {
	return s.local.Preload(ctx)
}

// Memories exposes the underlying repository for direct reads.
func (s *Store) Memories() storage.MemoryRepository {
	return s.memories
}

// RemoteConfigured reports whether the remote embedding backend has a
// credential.
func (s *Store) RemoteConfigured() bool {
	return s.remote.IsConfigured()
}
