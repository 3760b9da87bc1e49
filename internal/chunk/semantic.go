package chunk

import (
	"context"
	"math"
	"strings"

	"github.com/synton-db/syntondb/internal/embed"
	"github.com/synton-db/syntondb/internal/syntonerr"
)

// SemanticChunkerOptions configures SemanticChunker.
type SemanticChunkerOptions struct {
	// MinChunkSize and MaxChunkSize bound merged chunk length in characters.
	MinChunkSize int
	MaxChunkSize int
	// MergeThreshold is the minimum similarity (Jaccard, or cosine when an
	// Embedder is supplied) two adjacent sentences must have to be merged
	// into the same chunk.
	MergeThreshold float64
}

// DefaultSemanticChunkerOptions mirrors FixedChunker's window, generalized
// to a merge-by-similarity strategy.
func DefaultSemanticChunkerOptions() SemanticChunkerOptions {
	return SemanticChunkerOptions{MinChunkSize: 200, MaxChunkSize: 2000, MergeThreshold: 0.15}
}

// SemanticChunker merges consecutive sentences into chunks as long as they
// stay topically related, per spec §4.6 "Semantic". Boundary decision 3
// (DESIGN.md): word-overlap (Jaccard) is the default signal; when an
// embed.Embedder is supplied, cosine similarity over sentence embeddings
// is used instead.
type SemanticChunker struct {
	opts     SemanticChunkerOptions
	embedder embed.Embedder
}

// NewSemanticChunker builds a SemanticChunker. embedder may be nil, in
// which case Jaccard word-overlap is used as the boundary signal.
func NewSemanticChunker(opts SemanticChunkerOptions, embedder embed.Embedder) *SemanticChunker {
	if opts.MinChunkSize <= 0 {
		opts.MinChunkSize = DefaultSemanticChunkerOptions().MinChunkSize
	}
	if opts.MaxChunkSize <= 0 {
		opts.MaxChunkSize = DefaultSemanticChunkerOptions().MaxChunkSize
	}
	if opts.MergeThreshold <= 0 {
		opts.MergeThreshold = DefaultSemanticChunkerOptions().MergeThreshold
	}
	return &SemanticChunker{opts: opts, embedder: embedder}
}

// Chunk implements Chunker.
func (c *SemanticChunker) Chunk(ctx context.Context, text string, metadata map[string]string) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, syntonerr.New(syntonerr.InvalidArgument, "cannot chunk empty content")
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil, nil
	}

	sims, err := c.similarities(ctx, sentences)
	if err != nil {
		return nil, err
	}

	var chunks []Chunk
	cur := sentences[0]
	for i := 1; i < len(sentences); i++ {
		if ctx.Err() != nil {
			return nil, syntonerr.Wrap(syntonerr.Cancelled, "chunking cancelled", ctx.Err())
		}
		next := sentences[i]
		merged := cur.ByteEnd-cur.ByteStart+next.ByteEnd-next.ByteStart <= c.opts.MaxChunkSize
		if merged && sims[i-1] >= c.opts.MergeThreshold {
			cur = Chunk{
				Text:      text[cur.ByteStart:next.ByteEnd],
				ByteStart: cur.ByteStart,
				ByteEnd:   next.ByteEnd,
			}
			continue
		}
		cur.BoundaryScore = 1 - sims[i-1]
		chunks = append(chunks, c.finalize(cur, metadata))
		cur = next
	}
	cur.BoundaryScore = 1
	chunks = append(chunks, c.finalize(cur, metadata))

	return c.absorbShort(chunks, text, metadata), nil
}

func (c *SemanticChunker) finalize(ch Chunk, metadata map[string]string) Chunk {
	ch.ID = chunkID(metadata, ch.ByteStart, ch.ByteEnd)
	ch.Metadata = metadata
	return ch
}

// absorbShort merges any chunk below MinChunkSize into its neighbor, since
// the per-sentence merge loop can leave a short trailing fragment.
func (c *SemanticChunker) absorbShort(chunks []Chunk, text string, metadata map[string]string) []Chunk {
	if len(chunks) < 2 {
		return chunks
	}
	out := make([]Chunk, 0, len(chunks))
	for _, ch := range chunks {
		if len(out) > 0 && ch.ByteEnd-ch.ByteStart < c.opts.MinChunkSize {
			prev := out[len(out)-1]
			prev.ByteEnd = ch.ByteEnd
			prev.Text = text[prev.ByteStart:prev.ByteEnd]
			prev.ID = chunkID(metadata, prev.ByteStart, prev.ByteEnd)
			out[len(out)-1] = prev
			continue
		}
		out = append(out, ch)
	}
	return out
}

// similarities returns, for each adjacent sentence pair i, i+1, a
// similarity score: Jaccard overlap in [0,1], or embedding cosine in
// [-1,1] when an embedder is available.
func (c *SemanticChunker) similarities(ctx context.Context, sentences []Chunk) ([]float64, error) {
	if len(sentences) < 2 {
		return nil, nil
	}
	if c.embedder == nil || !c.embedder.Available(ctx) {
		sims := make([]float64, len(sentences)-1)
		sets := make([]map[string]bool, len(sentences))
		for i, s := range sentences {
			sets[i] = wordSet(s.Text)
		}
		for i := 0; i < len(sentences)-1; i++ {
			sims[i] = jaccard(sets[i], sets[i+1])
		}
		return sims, nil
	}

	texts := make([]string, len(sentences))
	for i, s := range sentences {
		texts[i] = s.Text
	}
	vecs, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	sims := make([]float64, len(sentences)-1)
	for i := 0; i < len(vecs)-1; i++ {
		sims[i] = cosine(vecs[i], vecs[i+1])
	}
	return sims, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
