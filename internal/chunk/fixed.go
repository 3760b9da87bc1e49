package chunk

import (
	"context"
	"strings"

	"github.com/synton-db/syntondb/internal/syntonerr"
)

// boundaryChars are the characters FixedChunker prefers to split on
// inside its tolerance window, so chunks end near token boundaries
// rather than mid-word (spec §4.6).
const boundaryChars = " \t\n.,;:!?"

// FixedChunkerOptions configures FixedChunker.
type FixedChunkerOptions struct {
	// MaxChunkSize is the maximum chunk length in characters.
	MaxChunkSize int
	// Overlap is how many trailing characters of one chunk are repeated
	// at the start of the next.
	Overlap int
	// ToleranceWindow bounds how far back FixedChunker will look for a
	// whitespace/punctuation split point before giving up and cutting
	// exactly at MaxChunkSize.
	ToleranceWindow int
}

// DefaultFixedChunkerOptions mirrors the teacher's default window/overlap
// ratio (roughly 12.5% overlap), generalized from tokens to characters.
func DefaultFixedChunkerOptions() FixedChunkerOptions {
	return FixedChunkerOptions{MaxChunkSize: 2000, Overlap: 250, ToleranceWindow: 80}
}

// FixedChunker emits substrings of at most MaxChunkSize characters with
// Overlap overlap (spec §4.6 "Fixed"), adapted from the teacher's
// sliding-window line splitter in code_chunker.go's chunkByLines/
// splitByLines, generalized from line counts to byte offsets and from
// tokens to plain characters.
type FixedChunker struct {
	opts FixedChunkerOptions
}

// NewFixedChunker builds a FixedChunker with opts, filling in defaults
// for zero fields.
func NewFixedChunker(opts FixedChunkerOptions) *FixedChunker {
	if opts.MaxChunkSize <= 0 {
		opts.MaxChunkSize = DefaultFixedChunkerOptions().MaxChunkSize
	}
	if opts.Overlap < 0 || opts.Overlap >= opts.MaxChunkSize {
		opts.Overlap = DefaultFixedChunkerOptions().Overlap
	}
	if opts.ToleranceWindow <= 0 {
		opts.ToleranceWindow = DefaultFixedChunkerOptions().ToleranceWindow
	}
	return &FixedChunker{opts: opts}
}

// Chunk implements Chunker.
func (c *FixedChunker) Chunk(ctx context.Context, text string, metadata map[string]string) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, syntonerr.New(syntonerr.InvalidArgument, "cannot chunk empty content")
	}

	var chunks []Chunk
	start := 0
	for start < len(text) {
		if ctx.Err() != nil {
			return nil, syntonerr.Wrap(syntonerr.Cancelled, "chunking cancelled", ctx.Err())
		}
		end := start + c.opts.MaxChunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = c.splitPoint(text, start, end)
		}

		chunks = append(chunks, Chunk{
			ID:        chunkID(metadata, start, end),
			Text:      text[start:end],
			ByteStart: start,
			ByteEnd:   end,
			Metadata:  metadata,
		})

		if end >= len(text) {
			break
		}
		next := end - c.opts.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks, nil
}

// splitPoint looks backward from end, within ToleranceWindow, for a
// whitespace/punctuation boundary so the chunk ends at a word/sentence
// edge rather than mid-token.
func (c *FixedChunker) splitPoint(text string, start, end int) int {
	floor := end - c.opts.ToleranceWindow
	if floor < start {
		floor = start
	}
	for i := end; i > floor; i-- {
		if strings.ContainsRune(boundaryChars, rune(text[i-1])) {
			return i
		}
	}
	return end
}
