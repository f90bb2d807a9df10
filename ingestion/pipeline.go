package ingestion

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// Pipeline orchestrates saving memories. The memory itself is stored
// synchronously so duplicate detection and validation errors surface to
// the caller; embedding generation runs afterwards on a worker pool so
// a save never waits on a model or the network.
type Pipeline struct {
	memories      storage.MemoryRepository
	embeddingPool *ants.Pool
	embeddingProc processor
	pending       sync.WaitGroup
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for embedding generation.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embeddingPool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline. Embeddings are generated
// with the remote backend when it is configured, falling back to the
// local one; when neither is available, memories are stored without a
// vector and picked up by a later backfill.
func NewPipeline(
	memories storage.MemoryRepository,
	remote ai.Embedder,
	local ai.Embedder,
	opts ...Option,
) (*Pipeline, error) {
	if memories == nil {
		return nil, ErrRepositoryRequired
	}
	if remote == nil || local == nil {
		return nil, ErrEmbedderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		memories:      memories,
		embeddingPool: pool,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	proc, err := newEmbeddingProcessor(memories, remote, local, p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.embeddingProc = proc

	return p, nil
}

// Save validates and stores memories, then submits them for asynchronous
// embedding. Validation and duplicate-content errors fail the save;
// embedding errors are logged and left for backfill.
func (p *Pipeline) Save(ctx context.Context, memories ...*core.Memory) ([]*core.Memory, error) {
	for _, memory := range memories {
		if err := core.ValidateMemory(memory); err != nil {
			return nil, err
		}
	}

	added, err := p.memories.AddMemories(ctx, memories...)
	if err != nil {
		return nil, err
	}
	if len(added) == 0 {
		return added, nil
	}

	ids := make([]core.ID, len(added))
	for i, memory := range added {
		ids[i] = memory.Id
	}

	p.pending.Add(1)
	err = p.embeddingPool.Submit(func() {
		defer p.pending.Done()
		if err := p.embeddingProc.process(context.Background(), ids...); err != nil {
			p.logger.Error("error generating embeddings", "err", err)
		}
	})
	if err != nil {
		p.pending.Done()
		p.logger.Error("error submitting embedding work", "err", err)
	}

	return added, nil
}

// Wait blocks until all submitted embedding work has finished.
func (p *Pipeline) Wait() {
	p.pending.Wait()
}

// Release waits for in-flight embedding work and releases the worker
// pool. The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.pending.Wait()
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}
