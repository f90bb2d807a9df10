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

package backfill

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/search"
	"github.com/poiesic/recall/storage"
)

// remotePause spaces out remote embedding calls so a large backfill does
// not trip upstream rate limits. Local embedding runs unthrottled.
const remotePause = 100 * time.Millisecond

// Backfiller generates embeddings for memories that were saved without
// one, or regenerates them all when forced.
type Backfiller struct {
	memories storage.MemoryRepository
	remote   ai.Embedder
	local    ai.Embedder
	pause    time.Duration
	logger   *slog.Logger
}

// Option configures a Backfiller.
type Option func(*Backfiller) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backfiller) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// WithPause overrides the delay between remote embedding calls. Tests
// pass zero.
func WithPause(d time.Duration) Option {
	return func(b *Backfiller) error {
		b.pause = d
		return nil
	}
}

// NewBackfiller creates a backfiller over the given repository and
// embedding backends.
func NewBackfiller(
	memories storage.MemoryRepository,
	remote ai.Embedder,
	local ai.Embedder,
	opts ...Option,
) (*Backfiller, error) {
	if memories == nil {
		return nil, search.ErrRepositoryRequired
	}
	if remote == nil || local == nil {
		return nil, search.ErrEmbedderRequired
	}

	b := &Backfiller{
		memories: memories,
		remote:   remote,
		local:    local,
		pause:    remotePause,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Options controls a single backfill run.
type Options struct {
	// Method selects the embedding backend. MethodAuto prefers remote
	// when configured. MethodKeyword is invalid here.
	Method search.Method

	// Force regenerates embeddings for every memory, including those
	// that already have one.
	Force bool

	// OnProgress, when set, is called after each memory is handled.
	OnProgress ai.ProgressFunc
}

// Report summarizes a backfill run.
type Report struct {
	// Total is how many memories were candidates for embedding.
	Total int

	// Processed is how many received a new embedding.
	Processed int

	// Failed is how many could not be embedded. Failures are logged and
	// skipped; they do not abort the run.
	Failed int

	// Model is the embedding model tag that was used.
	Model string
}

// Run embeds every candidate memory one at a time. Candidates are
// memories without an embedding, or all memories when opts.Force is set.
func (b *Backfiller) Run(ctx context.Context, opts Options) (*Report, error) {
	embedder, err := b.resolveEmbedder(ctx, opts.Method)
	if err != nil {
		return nil, err
	}

	filter := &storage.Filter{}
	if !opts.Force {
		embedded := false
		filter.HasEmbedding = &embedded
	}
	candidates, err := b.memories.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Total: len(candidates),
		Model: embedder.Model(),
	}
	b.logger.Info("starting embedding backfill",
		"candidates", report.Total,
		"model", report.Model,
		"force", opts.Force)

	throttle := embedder == b.remote
	for i, memory := range candidates {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		vector, err := embedder.EmbedText(ctx, memory.EmbeddingText())
		if err != nil {
			b.logger.Warn("embedding failed, skipping memory",
				"id", memory.Id, "err", err)
			report.Failed++
		} else if err := b.memories.UpdateEmbedding(ctx, memory.Id, vector, embedder.Model()); err != nil {
			b.logger.Warn("storing embedding failed, skipping memory",
				"id", memory.Id, "err", err)
			report.Failed++
		} else {
			report.Processed++
		}

		if opts.OnProgress != nil {
			opts.OnProgress(ai.NewProgress(i+1, report.Total))
		}
		if (i+1)%10 == 0 {
			b.logger.Info("backfill progress",
				"done", i+1, "total", report.Total, "failed", report.Failed)
		}

		if throttle && i+1 < len(candidates) {
			if err := sleepCtx(ctx, b.pause); err != nil {
				return report, err
			}
		}
	}

	b.logger.Info("embedding backfill finished",
		"processed", report.Processed,
		"failed", report.Failed,
		"total", report.Total)
	return report, nil
}

// resolveEmbedder picks the backend for a run. Unlike search there is no
// keyword fallback: a backfill without a usable embedder is an error.
func (b *Backfiller) resolveEmbedder(ctx context.Context, method search.Method) (ai.Embedder, error) {
	switch method {
	case search.MethodAuto, "":
		if b.remote.Ready(ctx) == nil {
			return b.remote, nil
		}
		if err := b.local.Ready(ctx); err != nil {
			return nil, err
		}
		return b.local, nil
	case search.MethodRemote:
		if err := b.remote.Ready(ctx); err != nil {
			return nil, err
		}
		return b.remote, nil
	case search.MethodLocal:
		if err := b.local.Ready(ctx); err != nil {
			return nil, err
		}
		return b.local, nil
	default:
		return nil, ErrInvalidMethod
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
