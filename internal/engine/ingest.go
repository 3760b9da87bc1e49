package engine

import (
	"context"

	"github.com/synton-db/syntondb/internal/chunk"
	"github.com/synton-db/syntondb/internal/graph"
	"github.com/synton-db/syntondb/internal/syntonerr"
	"golang.org/x/sync/errgroup"
)

// IngestResult is ingest_document's return shape (spec §6).
type IngestResult struct {
	DocumentID graph.ID
	ChunkIDs   []graph.ID
	EdgeCount  int
}

// IngestDocument chunks text per strategy, turns each chunk into a node,
// links them by IsPartOf edges, and optionally embeds every chunk (spec
// §6 ingest_document). "hierarchical" runs the three-tier decomposition
// (scenario S6: one Document root, its Paragraph children, their
// Sentence children); every other strategy produces one Document root
// over a flat run of RawChunk children.
func (e *Engine) IngestDocument(ctx context.Context, text, strategy string, embed bool) (*IngestResult, error) {
	if strategy == "hierarchical" {
		return e.ingestHierarchical(ctx, text, embed)
	}
	return e.ingestFlat(ctx, text, strategy, embed)
}

func (e *Engine) ingestFlat(ctx context.Context, text, strategy string, doEmbed bool) (*IngestResult, error) {
	chunker, ok := e.chunkers[strategy]
	if !ok {
		return nil, syntonerr.New(syntonerr.InvalidArgument, "unknown chunking strategy: "+strategy)
	}
	chunks, err := chunker.Chunk(ctx, text, nil)
	if err != nil {
		return nil, err
	}

	docNode := &graph.Node{
		Content:  summarizeDoc(text),
		NodeType: graph.NodeDocument,
		Meta:     graph.Meta{Confidence: 1},
	}
	docID, err := e.Graph.InsertNode(ctx, docNode)
	if err != nil {
		return nil, err
	}

	embeddings, err := e.embedChunks(ctx, chunks, doEmbed)
	if err != nil {
		return nil, err
	}

	chunkIDs := make([]graph.ID, 0, len(chunks))
	edgeCount := 0
	for i, c := range chunks {
		n := &graph.Node{
			Content:   c.Text,
			NodeType:  graph.NodeRawChunk,
			Embedding: embeddings[i],
			Meta:      graph.Meta{Confidence: 1, DocumentID: idPtr(docID), ChunkIndex: intPtr(i)},
		}
		id, err := e.Graph.InsertNode(ctx, n)
		if err != nil {
			return nil, err
		}
		chunkIDs = append(chunkIDs, id)

		if err := e.Graph.InsertEdge(ctx, &graph.Edge{
			EdgeKey: graph.EdgeKey{Source: id, Target: docID, Relation: graph.IsPartOf},
			Weight:  1,
		}); err != nil {
			return nil, err
		}
		edgeCount++
	}

	return &IngestResult{DocumentID: docID, ChunkIDs: chunkIDs, EdgeCount: edgeCount}, nil
}

func (e *Engine) ingestHierarchical(ctx context.Context, text string, doEmbed bool) (*IngestResult, error) {
	hc, err := e.hierarchy.ChunkHierarchical(ctx, text, nil)
	if err != nil {
		return nil, err
	}

	paragraphEmbeddings, err := e.embedChunks(ctx, hc.Paragraphs, doEmbed)
	if err != nil {
		return nil, err
	}
	sentenceEmbeddings, err := e.embedChunks(ctx, hc.Sentences, doEmbed)
	if err != nil {
		return nil, err
	}
	docEmbedding, err := e.embedChunks(ctx, []chunk.Chunk{hc.Doc}, doEmbed)
	if err != nil {
		return nil, err
	}

	docNode := &graph.Node{
		Content:   hc.Doc.Text,
		NodeType:  graph.NodeDocument,
		Embedding: docEmbedding[0],
		Meta:      graph.Meta{Confidence: 1},
	}
	docID, err := e.Graph.InsertNode(ctx, docNode)
	if err != nil {
		return nil, err
	}

	chunkIDs := []graph.ID{docID}
	edgeCount := 0

	// paragraph chunk.ID -> graph node ID, so sentences can link to
	// their parent paragraph via hc.Sentences[i].ParentID.
	paragraphNodeID := make(map[string]graph.ID, len(hc.Paragraphs))
	for i, p := range hc.Paragraphs {
		n := &graph.Node{
			Content:   p.Text,
			NodeType:  graph.NodeParagraph,
			Embedding: paragraphEmbeddings[i],
			Meta:      graph.Meta{Confidence: 1, DocumentID: idPtr(docID), ChunkIndex: intPtr(i)},
		}
		id, err := e.Graph.InsertNode(ctx, n)
		if err != nil {
			return nil, err
		}
		paragraphNodeID[p.ID] = id
		chunkIDs = append(chunkIDs, id)

		if err := e.Graph.InsertEdge(ctx, &graph.Edge{
			EdgeKey: graph.EdgeKey{Source: id, Target: docID, Relation: graph.IsPartOf},
			Weight:  1,
		}); err != nil {
			return nil, err
		}
		edgeCount++
	}

	for i, s := range hc.Sentences {
		n := &graph.Node{
			Content:   s.Text,
			NodeType:  graph.NodeSentence,
			Embedding: sentenceEmbeddings[i],
			Meta:      graph.Meta{Confidence: 1, DocumentID: idPtr(docID), ChunkIndex: intPtr(i)},
		}
		id, err := e.Graph.InsertNode(ctx, n)
		if err != nil {
			return nil, err
		}
		chunkIDs = append(chunkIDs, id)

		parentID, ok := paragraphNodeID[s.ParentID]
		if !ok {
			parentID = docID
		}
		if err := e.Graph.InsertEdge(ctx, &graph.Edge{
			EdgeKey: graph.EdgeKey{Source: id, Target: parentID, Relation: graph.IsPartOf},
			Weight:  1,
		}); err != nil {
			return nil, err
		}
		edgeCount++
	}

	return &IngestResult{DocumentID: docID, ChunkIDs: chunkIDs, EdgeCount: edgeCount}, nil
}

// embedChunks computes one embedding per chunk concurrently when embed
// is requested and an embedder is configured; it returns a nil-per-slot
// slice otherwise so callers can pass the result straight into
// Node.Embedding. Carried from the teacher's errgroup-based parallel
// embedding batches (internal/search/engine.go).
func (e *Engine) embedChunks(ctx context.Context, chunks []chunk.Chunk, doEmbed bool) ([][]float32, error) {
	out := make([][]float32, len(chunks))
	if !doEmbed || e.embedder == nil {
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		i, c := i, c
		g.Go(func() error {
			v, err := e.embedder.Embed(gctx, c.Text)
			if err != nil {
				if syntonerr.Is(err, syntonerr.EmbedderUnavailable) {
					e.logger.Warn("embedder unavailable during ingest, chunk stored unembedded", "error", err)
					return nil
				}
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func summarizeDoc(text string) string {
	const maxLen = 500
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen]
}

func idPtr(id graph.ID) *graph.ID { return &id }
func intPtr(i int) *int           { return &i }
