package local

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/recall/ai"
	"github.com/poiesic/recall/core"
	"github.com/poiesic/recall/similarity"
)

func TestEmbedText(t *testing.T) {
	e := NewEmbedder()
	ctx := context.Background()

	t.Run("deterministic", func(t *testing.T) {
		a, err := e.EmbedText(ctx, "docker container networking")
		require.NoError(t, err)
		b, err := e.EmbedText(ctx, "docker container networking")
		require.NoError(t, err)
		assert.Equal(t, a, b)
		assert.Len(t, a, core.LocalDimensions)
	})

	t.Run("unit length", func(t *testing.T) {
		v, err := e.EmbedText(ctx, "rust ownership")
		require.NoError(t, err)
		self, err := similarity.Cosine(v, v)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, self, 1e-5)
	})

	t.Run("shared tokens score higher than disjoint", func(t *testing.T) {
		a, err := e.EmbedText(ctx, "docker container networking guide")
		require.NoError(t, err)
		b, err := e.EmbedText(ctx, "docker container storage guide")
		require.NoError(t, err)
		c, err := e.EmbedText(ctx, "banana bread recipe ideas")
		require.NoError(t, err)

		near, err := similarity.Cosine(a, b)
		require.NoError(t, err)
		far, err := similarity.Cosine(a, c)
		require.NoError(t, err)
		assert.Greater(t, near, far)
	})

	t.Run("empty text rejected", func(t *testing.T) {
		_, err := e.EmbedText(ctx, "  ")
		assert.ErrorIs(t, err, ai.ErrEmptyText)
	})
}

func TestEmbedTexts(t *testing.T) {
	e := NewEmbedder()
	ctx := context.Background()

	t.Run("order preserved with nil for blanks", func(t *testing.T) {
		vectors, err := e.EmbedTexts(ctx, []string{"first", "", "third"}, nil)
		require.NoError(t, err)
		require.Len(t, vectors, 3)
		assert.NotNil(t, vectors[0])
		assert.Nil(t, vectors[1])
		assert.NotNil(t, vectors[2])
	})

	t.Run("progress per item", func(t *testing.T) {
		var updates []ai.Progress
		_, err := e.EmbedTexts(ctx, []string{"a", "b", "c", "d"}, func(p ai.Progress) {
			updates = append(updates, p)
		})
		require.NoError(t, err)
		require.Len(t, updates, 4)
		assert.Equal(t, ai.Progress{Processed: 1, Total: 4, Percent: 25}, updates[0])
		assert.Equal(t, ai.Progress{Processed: 4, Total: 4, Percent: 100}, updates[3])
	})

	t.Run("empty batch", func(t *testing.T) {
		vectors, err := e.EmbedTexts(ctx, nil, nil)
		require.NoError(t, err)
		assert.Nil(t, vectors)
	})
}

func TestLazyLoad(t *testing.T) {
	t.Run("status transitions", func(t *testing.T) {
		e := NewEmbedder()
		assert.False(t, e.Status().Ready)

		require.NoError(t, e.Preload(context.Background()))
		st := e.Status()
		assert.True(t, st.Ready)
		assert.False(t, st.Loading)
		assert.NoError(t, st.Err)
	})

	t.Run("concurrent first use loads once", func(t *testing.T) {
		e := NewEmbedder()
		var loads atomic.Int32
		e.loader = func(dims int) (*model, error) {
			loads.Add(1)
			return loadModel(dims)
		}

		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := e.EmbedText(context.Background(), "concurrent load")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), loads.Load())
	})

	t.Run("failed load retried on next call", func(t *testing.T) {
		e := NewEmbedder()
		boom := errors.New("boom")
		fail := true
		e.loader = func(dims int) (*model, error) {
			if fail {
				return nil, boom
			}
			return loadModel(dims)
		}

		_, err := e.EmbedText(context.Background(), "hello")
		assert.ErrorIs(t, err, ai.ErrNotReady)
		assert.ErrorIs(t, e.Status().Err, boom)

		fail = false
		v, err := e.EmbedText(context.Background(), "hello")
		require.NoError(t, err)
		assert.Len(t, v, core.LocalDimensions)
		assert.True(t, e.Status().Ready)
	})
}

func TestModelIdentity(t *testing.T) {
	e := NewEmbedder()
	assert.Equal(t, core.EmbeddingModelLocal, e.Model())
	assert.Equal(t, core.LocalDimensions, e.Dimensions())
}
