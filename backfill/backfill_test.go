package backfill

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/ai/mock"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/search"
	"github.com/poiesic/recall/storage"
	badgerstore "github.com/poiesic/recall/storage/badger"
)

type backfillFixture struct {
	repo       storage.MemoryRepository
	remote     *mock.MockEmbedder
	local      *mock.MockEmbedder
	backfiller *Backfiller
}

func newBackfillFixture(t *testing.T) *backfillFixture {
	t.Helper()

	repo, backend, err := badgerstore.NewInMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	remote := mock.NewMockEmbedder()
	remote.ModelTag = core.EmbeddingModelRemote
	remote.ReadyErr = ai.ErrNotConfigured

	local := mock.NewMockEmbedder()

	b, err := NewBackfiller(repo, remote, local, WithPause(0))
	require.NoError(t, err)

	return &backfillFixture{repo: repo, remote: remote, local: local, backfiller: b}
}

func (f *backfillFixture) addMemory(t *testing.T, title, text string, embedded bool) *core.Memory {
	t.Helper()
	saved, err := f.repo.AddMemories(context.Background(), &core.Memory{
		Title: title,
		Text:  text,
		URL:   "https://example.com/" + title,
	})
	require.NoError(t, err)
	if embedded {
		vec := make([]float32, 4)
		vec[0] = 1
		require.NoError(t, f.repo.UpdateEmbedding(context.Background(), saved[0].Id, vec, core.EmbeddingModelLocal))
	}
	return saved[0]
}

func TestBackfillMissingOnly(t *testing.T) {
	f := newBackfillFixture(t)

	bare1 := f.addMemory(t, "first", "no vector", false)
	bare2 := f.addMemory(t, "second", "also no vector", false)
	f.addMemory(t, "third", "already embedded", true)

	var texts []string
	f.local.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		texts = append(texts, text)
		return []float32{1, 0}, nil
	}

	report, err := f.backfiller.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Processed)
	assert.Zero(t, report.Failed)
	assert.Equal(t, core.EmbeddingModelLocal, report.Model)

	// The embedded text joins title and body.
	assert.ElementsMatch(t, []string{"first. no vector", "second. also no vector"}, texts)

	for _, id := range []core.ID{bare1.Id, bare2.Id} {
		m, err := f.repo.GetMemory(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, m.HasEmbedding())
		assert.Equal(t, core.EmbeddingModelLocal, m.EmbeddingModel)
		assert.False(t, m.EmbeddingGeneratedAt.IsZero())
	}
}

func TestBackfillForceRegeneratesAll(t *testing.T) {
	f := newBackfillFixture(t)

	f.addMemory(t, "first", "no vector", false)
	f.addMemory(t, "second", "already embedded", true)

	report, err := f.backfiller.Run(context.Background(), Options{Force: true})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 2, report.Processed)
}

func TestBackfillCountsFailures(t *testing.T) {
	f := newBackfillFixture(t)

	f.addMemory(t, "first", "fine", false)
	f.addMemory(t, "second", "broken", false)
	f.addMemory(t, "third", "fine too", false)

	boom := errors.New("embedding exploded")
	f.local.EmbedTextFunc = func(_ context.Context, text string) ([]float32, error) {
		if text == "second. broken" {
			return nil, boom
		}
		return []float32{1, 0}, nil
	}

	var progress []ai.Progress
	report, err := f.backfiller.Run(context.Background(), Options{
		OnProgress: func(p ai.Progress) { progress = append(progress, p) },
	})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Failed)

	// Progress fires per memory regardless of the outcome.
	require.Len(t, progress, 3)
	assert.Equal(t, ai.Progress{Processed: 3, Total: 3, Percent: 100}, progress[2])
}

func TestBackfillMethodResolution(t *testing.T) {
	f := newBackfillFixture(t)
	f.addMemory(t, "first", "text", false)

	// Remote unavailable resolves auto to local.
	report, err := f.backfiller.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, core.EmbeddingModelLocal, report.Model)

	// Remote configured wins auto.
	f.remote.ReadyErr = nil
	report, err = f.backfiller.Run(context.Background(), Options{Force: true})
	require.NoError(t, err)
	assert.Equal(t, core.EmbeddingModelRemote, report.Model)

	// Explicit remote while unconfigured fails.
	f.remote.ReadyErr = ai.ErrNotConfigured
	_, err = f.backfiller.Run(context.Background(), Options{Method: search.MethodRemote})
	assert.ErrorIs(t, err, ai.ErrNotConfigured)

	// Keyword cannot backfill.
	_, err = f.backfiller.Run(context.Background(), Options{Method: search.MethodKeyword})
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestBackfillNothingToDo(t *testing.T) {
	f := newBackfillFixture(t)
	f.addMemory(t, "only", "already embedded", true)

	report, err := f.backfiller.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Zero(t, report.Total)
	assert.Zero(t, report.Processed)
	assert.Zero(t, f.local.CallCount())
}

func TestBackfillCancellation(t *testing.T) {
	f := newBackfillFixture(t)
	f.addMemory(t, "first", "text one", false)
	f.addMemory(t, "second", "text two", false)

	ctx, cancel := context.WithCancel(context.Background())
	f.local.EmbedTextFunc = func(context.Context, string) ([]float32, error) {
		cancel()
		return []float32{1, 0}, nil
	}

	report, err := f.backfiller.Run(ctx, Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, report.Processed)
}
