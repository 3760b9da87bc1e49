package vector

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIndex_InsertAndSearch(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(3)

	require.NoError(t, idx.Insert(ctx, "a", []float32{1, 0, 0}))
	require.NoError(t, idx.Insert(ctx, "b", []float32{0, 1, 0}))
	require.NoError(t, idx.Insert(ctx, "c", []float32{0.9, 0.1, 0}))

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
}

func TestMemoryIndex_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(3)

	err := idx.Insert(ctx, "a", []float32{1, 0})
	require.Error(t, err)
	var dimErr ErrDimensionMismatch
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Got)

	_, err = idx.Search(ctx, []float32{1, 0}, 1)
	require.Error(t, err)
}

func TestMemoryIndex_RejectsNonFiniteVectors(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(3)

	err := idx.Insert(ctx, "a", []float32{1, float32(math.NaN()), 0})
	require.Error(t, err)

	err = idx.Insert(ctx, "b", []float32{1, float32(math.Inf(1)), 0})
	require.Error(t, err)
}

func TestMemoryIndex_SearchAtMostK(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(2)
	for i := 0; i < 5; i++ {
		require.NoError(t, idx.Insert(ctx, string(rune('a'+i)), []float32{float32(i), 1}))
	}

	results, err := idx.Search(ctx, []float32{1, 1}, 3)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	results, err = idx.Search(ctx, []float32{1, 1}, 100)
	require.NoError(t, err)
	assert.Len(t, results, 5)
}

func TestMemoryIndex_DeterministicTieBreakByID(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(2)
	require.NoError(t, idx.Insert(ctx, "z", []float32{1, 0}))
	require.NoError(t, idx.Insert(ctx, "a", []float32{1, 0}))
	require.NoError(t, idx.Insert(ctx, "m", []float32{1, 0}))

	results, err := idx.Search(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"a", "m", "z"}, []string{results[0].ID, results[1].ID, results[2].ID})
}

func TestMemoryIndex_SearchFilteredPredicate(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(2)
	require.NoError(t, idx.Insert(ctx, "a", []float32{1, 0}))
	require.NoError(t, idx.Insert(ctx, "b", []float32{1, 0}))

	results, err := idx.SearchFiltered(ctx, []float32{1, 0}, func(id string) bool { return id == "b" }, 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)
}

func TestMemoryIndex_RemoveAndUpdate(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(2)
	require.NoError(t, idx.Insert(ctx, "a", []float32{1, 0}))
	assert.True(t, idx.Contains("a"))

	require.NoError(t, idx.Remove(ctx, "a"))
	assert.False(t, idx.Contains("a"))
	assert.Equal(t, 0, idx.Count())

	require.NoError(t, idx.Update(ctx, "a", []float32{0, 1}))
	assert.True(t, idx.Contains("a"))
	assert.Equal(t, 1, idx.Count())
}

func TestMemoryIndex_CloseMarksNotReady(t *testing.T) {
	idx := NewMemoryIndex(2)
	assert.True(t, idx.IsReady())
	require.NoError(t, idx.Close())
	assert.False(t, idx.IsReady())
}
