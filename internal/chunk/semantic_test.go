package chunk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemanticChunker_MergesSimilarSentences(t *testing.T) {
	text := "Cats are small mammals. Cats like to sleep a lot. " +
		"Rocket engines burn liquid oxygen and kerosene. Rocket engines produce immense thrust."

	c := NewSemanticChunker(SemanticChunkerOptions{MinChunkSize: 1, MaxChunkSize: 2000, MergeThreshold: 0.1}, nil)
	chunks, err := c.Chunk(context.Background(), text, map[string]string{"source": "doc"})
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0].Text, "Cats")
	assert.Contains(t, chunks[1].Text, "Rocket")
}

func TestSemanticChunker_RespectsMaxChunkSize(t *testing.T) {
	text := "Alpha beta gamma. Alpha beta gamma delta. Alpha beta gamma epsilon zeta."
	c := NewSemanticChunker(SemanticChunkerOptions{MinChunkSize: 1, MaxChunkSize: 20, MergeThreshold: 0.0}, nil)
	chunks, err := c.Chunk(context.Background(), text, nil)
	require.NoError(t, err)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 40)
	}
}

func TestSemanticChunker_EmptyInputRejected(t *testing.T) {
	c := NewSemanticChunker(DefaultSemanticChunkerOptions(), nil)
	_, err := c.Chunk(context.Background(), "", nil)
	require.Error(t, err)
}

func TestJaccard_IdenticalSetsScoreOne(t *testing.T) {
	a := wordSet("the quick brown fox")
	b := wordSet("the quick brown fox")
	assert.Equal(t, 1.0, jaccard(a, b))
}

func TestJaccard_DisjointSetsScoreZero(t *testing.T) {
	a := wordSet("apples oranges")
	b := wordSet("rockets engines")
	assert.Equal(t, 0.0, jaccard(a, b))
}
