package chunk

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/synton-db/syntondb/internal/embed"
	"github.com/synton-db/syntondb/internal/syntonerr"
)

var paragraphPattern = regexp.MustCompile(`\n\s*\n`)

// HierarchicalChunkerOptions configures HierarchicalChunker.
type HierarchicalChunkerOptions struct {
	// SummaryLength caps the document-level summary chunk (the first
	// SummaryLength characters of the text, per spec §4.5.4's
	// hierarchical-summary levels).
	SummaryLength int
	// Semantic carries the paragraph-merge tuning passed through to each
	// paragraph's internal SemanticChunker pass.
	Semantic SemanticChunkerOptions
}

// DefaultHierarchicalChunkerOptions returns sane defaults.
func DefaultHierarchicalChunkerOptions() HierarchicalChunkerOptions {
	return HierarchicalChunkerOptions{SummaryLength: 500, Semantic: DefaultSemanticChunkerOptions()}
}

// HierarchicalChunker builds a three-tier chunk tree — document summary,
// paragraphs, sentences — connected by parent/child ids, per spec §4.6
// "Hierarchical". Paragraphs are split on blank lines; sentences within
// each paragraph reuse SemanticChunker's sentence splitter and similarity
// merge so paragraph/sentence boundaries are found the same way.
type HierarchicalChunker struct {
	opts     HierarchicalChunkerOptions
	embedder embed.Embedder
}

// NewHierarchicalChunker builds a HierarchicalChunker. embedder may be
// nil (see SemanticChunker's boundary-signal decision).
func NewHierarchicalChunker(opts HierarchicalChunkerOptions, embedder embed.Embedder) *HierarchicalChunker {
	if opts.SummaryLength <= 0 {
		opts.SummaryLength = DefaultHierarchicalChunkerOptions().SummaryLength
	}
	if opts.Semantic.MaxChunkSize <= 0 {
		opts.Semantic = DefaultHierarchicalChunkerOptions().Semantic
	}
	return &HierarchicalChunker{opts: opts, embedder: embedder}
}

// ChunkHierarchical runs the full three-tier decomposition, returning the
// structured form IngestDocument needs to emit IsPartOf edges.
func (c *HierarchicalChunker) ChunkHierarchical(ctx context.Context, text string, metadata map[string]string) (HierarchicalChunks, error) {
	if strings.TrimSpace(text) == "" {
		return HierarchicalChunks{}, syntonerr.New(syntonerr.InvalidArgument, "cannot chunk empty content")
	}

	docID := chunkID(metadata, 0, len(text))
	summary := text
	if len(summary) > c.opts.SummaryLength {
		summary = summary[:c.opts.SummaryLength]
	}
	doc := Chunk{ID: docID, Text: summary, ByteStart: 0, ByteEnd: len(text), Level: 0, Metadata: metadata}

	paraSpans := splitParagraphs(text)
	semantic := NewSemanticChunker(c.opts.Semantic, c.embedder)

	var paragraphs, sentences []Chunk
	for _, span := range paraSpans {
		if ctx.Err() != nil {
			return HierarchicalChunks{}, syntonerr.Wrap(syntonerr.Cancelled, "chunking cancelled", ctx.Err())
		}
		paraText := text[span[0]:span[1]]
		if strings.TrimSpace(paraText) == "" {
			continue
		}
		paraID := chunkID(metadata, span[0], span[1])
		para := Chunk{
			ID: paraID, Text: paraText, ByteStart: span[0], ByteEnd: span[1],
			Level: 1, ParentID: docID, Metadata: metadata,
		}

		sents, err := semantic.Chunk(ctx, paraText, metadata)
		if err != nil {
			return HierarchicalChunks{}, fmt.Errorf("hierarchical: splitting paragraph sentences: %w", err)
		}
		for i := range sents {
			sents[i].Level = 2
			sents[i].ParentID = paraID
			sents[i].ByteStart += span[0]
			sents[i].ByteEnd += span[0]
			sents[i].ID = chunkID(metadata, sents[i].ByteStart, sents[i].ByteEnd)
			para.ChildIDs = append(para.ChildIDs, sents[i].ID)
		}
		sentences = append(sentences, sents...)
		doc.ChildIDs = append(doc.ChildIDs, paraID)
		paragraphs = append(paragraphs, para)
	}

	return HierarchicalChunks{Doc: doc, Paragraphs: paragraphs, Sentences: sentences}, nil
}

// Chunk implements Chunker by flattening the three-tier decomposition.
func (c *HierarchicalChunker) Chunk(ctx context.Context, text string, metadata map[string]string) ([]Chunk, error) {
	hc, err := c.ChunkHierarchical(ctx, text, metadata)
	if err != nil {
		return nil, err
	}
	return hc.Flatten(), nil
}

// splitParagraphs returns [start,end) byte spans for each blank-line-
// separated paragraph in text.
func splitParagraphs(text string) [][2]int {
	var spans [][2]int
	locs := paragraphPattern.FindAllStringIndex(text, -1)
	start := 0
	for _, loc := range locs {
		if loc[0] > start {
			spans = append(spans, [2]int{start, loc[0]})
		}
		start = loc[1]
	}
	if start < len(text) {
		spans = append(spans, [2]int{start, len(text)})
	}
	if len(spans) == 0 {
		spans = append(spans, [2]int{0, len(text)})
	}
	return spans
}
