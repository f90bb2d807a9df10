package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
)

// processor is an internal interface for enriching stored memories.
type processor interface {
	process(ctx context.Context, ids ...core.ID) error
}

// embeddingProcessor generates embeddings for saved memories.
type embeddingProcessor struct {
	memories storage.MemoryRepository
	remote   ai.Embedder
	local    ai.Embedder
	logger   *slog.Logger
}

var _ processor = (*embeddingProcessor)(nil)

func newEmbeddingProcessor(memories storage.MemoryRepository, remote, local ai.Embedder, logger *slog.Logger) (processor, error) {
	if memories == nil {
		return nil, ErrRepositoryRequired
	}
	if remote == nil || local == nil {
		return nil, ErrEmbedderRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &embeddingProcessor{
		memories: memories,
		remote:   remote,
		local:    local,
		logger:   logger.With("processor", "embeddings"),
	}, nil
}

// process embeds the memories identified by the given IDs and stores the
// vectors. Memories deleted since submission are skipped. When no
// backend is available the memories stay unembedded for backfill to
// pick up.
func (ep *embeddingProcessor) process(ctx context.Context, ids ...core.ID) error {
	embedder := ep.pickEmbedder(ctx)
	if embedder == nil {
		ep.logger.Info("no embedding backend available, leaving memories for backfill",
			"records", len(ids))
		return nil
	}

	slices.Sort(ids)

	memories := make([]*core.Memory, 0, len(ids))
	for _, id := range ids {
		memory, err := ep.memories.GetMemory(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			ep.logger.Error("error retrieving memory", "id", id, "err", err)
			return err
		}
		memories = append(memories, memory)
	}
	if len(memories) == 0 {
		return nil
	}

	texts := make([]string, len(memories))
	for i, memory := range memories {
		texts[i] = memory.EmbeddingText()
	}

	ep.logger.Debug("generating embeddings for memories",
		"records", len(texts), "model", embedder.Model())
	embeddings, err := embedder.EmbedTexts(ctx, texts, nil)
	if err != nil {
		return err
	}
	if len(embeddings) != len(memories) {
		return fmt.Errorf("embedding result mismatch. expected %d, received %d", len(memories), len(embeddings))
	}

	for i, vector := range embeddings {
		if vector == nil {
			ep.logger.Warn("memory could not be embedded, skipping", "id", memories[i].Id)
			continue
		}
		if err := ep.memories.UpdateEmbedding(ctx, memories[i].Id, vector, embedder.Model()); err != nil {
			return err
		}
	}

	return nil
}

// pickEmbedder prefers the remote backend when configured, nil when
// neither backend can serve.
func (ep *embeddingProcessor) pickEmbedder(ctx context.Context) ai.Embedder {
	if ep.remote.Ready(ctx) == nil {
		return ep.remote
	}
	if ep.local.Ready(ctx) == nil {
		return ep.local
	}
	return nil
}
