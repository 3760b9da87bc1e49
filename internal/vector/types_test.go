package vector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DispatchesByType(t *testing.T) {
	cases := []struct {
		typ  IndexType
		want any
	}{
		{Flat, &MemoryIndex{}},
		{Hnsw, &HNSWIndex{}},
		{Ivf, &IVFIndex{}},
		{Auto, &AutoIndex{}},
	}
	for _, c := range cases {
		cfg := DefaultConfig(4)
		cfg.Type = c.typ
		idx, err := New(cfg)
		require.NoError(t, err)
		assert.IsType(t, c.want, idx)
	}
}

func TestNew_UnknownTypeErrors(t *testing.T) {
	cfg := DefaultConfig(4)
	cfg.Type = IndexType("bogus")
	_, err := New(cfg)
	require.Error(t, err)
}

func TestErrDimensionMismatch_Message(t *testing.T) {
	err := ErrDimensionMismatch{Expected: 4, Got: 2}
	assert.Contains(t, err.Error(), "4")
	assert.Contains(t, err.Error(), "2")
}

func TestCosineSimilarity_OrthogonalIsZero(t *testing.T) {
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
}

func TestCosineSimilarity_ZeroVectorIsZero(t *testing.T) {
	assert.Equal(t, float32(0), cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}

func TestHasNonFinite_FalseForFiniteVector(t *testing.T) {
	assert.False(t, hasNonFinite([]float32{1, 2, 3}))
}
