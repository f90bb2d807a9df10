package ingestion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/ai/mock"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/storage"
	badgerstore "github.com/poiesic/recall/storage/badger"
)

type pipelineFixture struct {
	repo     storage.MemoryRepository
	remote   *mock.MockEmbedder
	local    *mock.MockEmbedder
	pipeline *Pipeline
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	repo, backend, err := badgerstore.NewInMemoryRepository()
	require.NoError(t, err)

	remote := mock.NewMockEmbedder()
	remote.ModelTag = core.EmbeddingModelRemote
	remote.ReadyErr = ai.ErrNotConfigured

	local := mock.NewMockEmbedder()

	pipeline, err := NewPipeline(repo, remote, local, WithPoolSize(2))
	require.NoError(t, err)

	t.Cleanup(func() {
		pipeline.Release()
		repo.Close()
		backend.Close()
	})

	return &pipelineFixture{repo: repo, remote: remote, local: local, pipeline: pipeline}
}

func memoryFor(title string) *core.Memory {
	return &core.Memory{
		Title: title,
		Text:  "captured text for " + title,
		URL:   "https://example.com/" + title,
	}
}

func TestNewPipelineValidation(t *testing.T) {
	repo, backend, err := badgerstore.NewInMemoryRepository()
	require.NoError(t, err)
	defer backend.Close()
	defer repo.Close()

	embedder := mock.NewMockEmbedder()

	_, err = NewPipeline(nil, embedder, embedder)
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewPipeline(repo, nil, embedder)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}

func TestSaveStoresAndEmbeds(t *testing.T) {
	f := newPipelineFixture(t)

	saved, err := f.pipeline.Save(context.Background(), memoryFor("alpha"))
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.NotZero(t, saved[0].Id)

	f.pipeline.Wait()

	m, err := f.repo.GetMemory(context.Background(), saved[0].Id)
	require.NoError(t, err)
	assert.True(t, m.HasEmbedding())
	assert.Equal(t, core.EmbeddingModelLocal, m.EmbeddingModel)
}

func TestSavePrefersRemoteBackend(t *testing.T) {
	f := newPipelineFixture(t)
	f.remote.ReadyErr = nil

	saved, err := f.pipeline.Save(context.Background(), memoryFor("alpha"))
	require.NoError(t, err)
	f.pipeline.Wait()

	m, err := f.repo.GetMemory(context.Background(), saved[0].Id)
	require.NoError(t, err)
	assert.Equal(t, core.EmbeddingModelRemote, m.EmbeddingModel)
}

func TestSaveRejectsInvalidMemory(t *testing.T) {
	f := newPipelineFixture(t)

	_, err := f.pipeline.Save(context.Background(), &core.Memory{Title: "no text or url"})
	assert.ErrorIs(t, err, core.ErrInvalidMemory)

	count, err := f.repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSaveSurfacesDuplicates(t *testing.T) {
	f := newPipelineFixture(t)

	_, err := f.pipeline.Save(context.Background(), memoryFor("alpha"))
	require.NoError(t, err)

	_, err = f.pipeline.Save(context.Background(), memoryFor("alpha"))
	assert.ErrorIs(t, err, storage.ErrDuplicateContent)
}

func TestSaveWithoutBackendLeavesUnembedded(t *testing.T) {
	f := newPipelineFixture(t)
	f.local.ReadyErr = ai.ErrNotReady

	saved, err := f.pipeline.Save(context.Background(), memoryFor("alpha"))
	require.NoError(t, err)
	f.pipeline.Wait()

	m, err := f.repo.GetMemory(context.Background(), saved[0].Id)
	require.NoError(t, err)
	assert.False(t, m.HasEmbedding())
	assert.Zero(t, f.local.CallCount())
}

func TestSaveEmbeddingFailureDoesNotFailSave(t *testing.T) {
	f := newPipelineFixture(t)
	f.local.EmbedTextsFunc = func(context.Context, []string, ai.ProgressFunc) ([][]float32, error) {
		return nil, errors.New("model exploded")
	}

	saved, err := f.pipeline.Save(context.Background(), memoryFor("alpha"))
	require.NoError(t, err)
	f.pipeline.Wait()

	m, err := f.repo.GetMemory(context.Background(), saved[0].Id)
	require.NoError(t, err)
	assert.False(t, m.HasEmbedding())
}

func TestSaveBatch(t *testing.T) {
	f := newPipelineFixture(t)

	saved, err := f.pipeline.Save(context.Background(),
		memoryFor("alpha"), memoryFor("beta"), memoryFor("gamma"))
	require.NoError(t, err)
	require.Len(t, saved, 3)

	f.pipeline.Wait()

	for _, m := range saved {
		got, err := f.repo.GetMemory(context.Background(), m.Id)
		require.NoError(t, err)
		assert.True(t, got.HasEmbedding(), "memory %q", got.Title)
	}
}
