package chunk

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synton-db/syntondb/internal/syntonerr"
)

func TestFixedChunker_SplitsAtMaxSize(t *testing.T) {
	text := strings.Repeat("word ", 1000)
	c := NewFixedChunker(FixedChunkerOptions{MaxChunkSize: 500, Overlap: 50, ToleranceWindow: 20})

	chunks, err := c.Chunk(context.Background(), text, map[string]string{"source": "doc1"})
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, len(ch.Text), 520)
		assert.NotEmpty(t, ch.ID)
	}
}

func TestFixedChunker_OverlapsAdjacentChunks(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 200)
	c := NewFixedChunker(FixedChunkerOptions{MaxChunkSize: 300, Overlap: 60, ToleranceWindow: 20})

	chunks, err := c.Chunk(context.Background(), text, nil)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		assert.Less(t, chunks[i].ByteStart, chunks[i-1].ByteEnd)
	}
}

func TestFixedChunker_EmptyInputRejected(t *testing.T) {
	c := NewFixedChunker(DefaultFixedChunkerOptions())
	_, err := c.Chunk(context.Background(), "   ", nil)
	require.Error(t, err)
	assert.Equal(t, syntonerr.InvalidArgument, syntonerr.Of(err))
}

func TestFixedChunker_ShortTextSingleChunk(t *testing.T) {
	c := NewFixedChunker(DefaultFixedChunkerOptions())
	chunks, err := c.Chunk(context.Background(), "a short document.", map[string]string{"source": "s"})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "a short document.", chunks[0].Text)
}

func TestFixedChunker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewFixedChunker(FixedChunkerOptions{MaxChunkSize: 10, Overlap: 1, ToleranceWindow: 2})
	_, err := c.Chunk(ctx, strings.Repeat("x", 1000), nil)
	require.Error(t, err)
	assert.Equal(t, syntonerr.Cancelled, syntonerr.Of(err))
}
