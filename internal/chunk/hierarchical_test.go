package chunk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hierarchicalSample = `Introduction paragraph about cats. Cats are independent animals.

Second paragraph about dogs. Dogs are loyal companions. Dogs love walks.`

func TestHierarchicalChunker_BuildsThreeTiers(t *testing.T) {
	c := NewHierarchicalChunker(DefaultHierarchicalChunkerOptions(), nil)
	hc, err := c.ChunkHierarchical(context.Background(), hierarchicalSample, map[string]string{"source": "doc"})
	require.NoError(t, err)

	assert.NotEmpty(t, hc.Doc.ID)
	assert.Len(t, hc.Paragraphs, 2)
	assert.NotEmpty(t, hc.Sentences)

	for _, p := range hc.Paragraphs {
		assert.Equal(t, hc.Doc.ID, p.ParentID)
		assert.Contains(t, hc.Doc.ChildIDs, p.ID)
		assert.NotEmpty(t, p.ChildIDs)
	}
	for _, s := range hc.Sentences {
		found := false
		for _, p := range hc.Paragraphs {
			if p.ID == s.ParentID {
				found = true
				assert.Contains(t, p.ChildIDs, s.ID)
			}
		}
		assert.True(t, found, "sentence must belong to a known paragraph")
	}
}

func TestHierarchicalChunker_FlattenMatchesChunk(t *testing.T) {
	c := NewHierarchicalChunker(DefaultHierarchicalChunkerOptions(), nil)
	flat, err := c.Chunk(context.Background(), hierarchicalSample, map[string]string{"source": "doc"})
	require.NoError(t, err)

	hc, err := c.ChunkHierarchical(context.Background(), hierarchicalSample, map[string]string{"source": "doc"})
	require.NoError(t, err)

	assert.Len(t, flat, 1+len(hc.Paragraphs)+len(hc.Sentences))
}

func TestHierarchicalChunker_EmptyInputRejected(t *testing.T) {
	c := NewHierarchicalChunker(DefaultHierarchicalChunkerOptions(), nil)
	_, err := c.ChunkHierarchical(context.Background(), "", nil)
	require.Error(t, err)
}

func TestSplitParagraphs_SplitsOnBlankLines(t *testing.T) {
	spans := splitParagraphs(hierarchicalSample)
	require.Len(t, spans, 2)
	assert.Equal(t, hierarchicalSample[spans[0][0]:spans[0][1]], "Introduction paragraph about cats. Cats are independent animals.")
}
