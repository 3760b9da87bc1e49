package vector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoIndex_StartsFlat(t *testing.T) {
	cfg := DefaultConfig(2)
	cfg.AutoThreshold = 5
	idx, err := NewAutoIndex(cfg)
	require.NoError(t, err)
	assert.Equal(t, Flat, idx.Backend())
}

func TestAutoIndex_PromotesPastThreshold(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig(2)
	cfg.AutoThreshold = 3
	idx, err := NewAutoIndex(cfg)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, idx.Insert(ctx, string(rune('a'+i)), []float32{float32(i), 1}))
	}

	assert.Equal(t, Hnsw, idx.Backend())
	assert.Equal(t, 5, idx.Count())
}

func TestAutoIndex_PreservesVectorsAcrossPromotion(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig(2)
	cfg.AutoThreshold = 2
	idx, err := NewAutoIndex(cfg)
	require.NoError(t, err)

	require.NoError(t, idx.Insert(ctx, "a", []float32{1, 0}))
	require.NoError(t, idx.Insert(ctx, "b", []float32{0, 1}))
	require.NoError(t, idx.Insert(ctx, "c", []float32{0.9, 0.1}))

	require.Equal(t, Hnsw, idx.Backend())

	results, err := idx.Search(ctx, []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)
}

func TestAutoIndex_StaysPromotedAfterRemovalsBelowThreshold(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig(2)
	cfg.AutoThreshold = 2
	idx, err := NewAutoIndex(cfg)
	require.NoError(t, err)

	require.NoError(t, idx.Insert(ctx, "a", []float32{1, 0}))
	require.NoError(t, idx.Insert(ctx, "b", []float32{0, 1}))
	require.Equal(t, Hnsw, idx.Backend())

	require.NoError(t, idx.Remove(ctx, "a"))
	assert.Equal(t, Hnsw, idx.Backend())
}
