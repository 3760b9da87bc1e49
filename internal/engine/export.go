package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/synton-db/syntondb/internal/graph"
	"github.com/synton-db/syntondb/internal/syntonerr"
)

// nodeRecord and edgeRecord are export()/import()'s JSONL wire shapes
// (spec §4.6). They are deliberately separate from graph/codec.go's
// internal binary encoding: export is a portable snapshot format meant
// to survive across store versions, the KV codec is not.
type nodeRecord struct {
	Kind       string         `json:"kind"`
	ID         graph.ID       `json:"id"`
	Content    string         `json:"content"`
	NodeType   graph.NodeType `json:"node_type"`
	Embedding  []float32      `json:"embedding,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	AccessedAt *time.Time     `json:"accessed_at,omitempty"`
	AccessScore float64       `json:"access_score"`
	Confidence float64        `json:"confidence"`
	Source     string         `json:"source,omitempty"`
	DocumentID *graph.ID      `json:"document_id,omitempty"`
	ChunkIndex *int           `json:"chunk_index,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

type edgeRecord struct {
	Kind       string         `json:"kind"`
	Source     graph.ID       `json:"source"`
	Target     graph.ID       `json:"target"`
	Relation   graph.Relation `json:"relation"`
	Weight     float32        `json:"weight"`
	Vector     []float32      `json:"vector,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	Expired    bool           `json:"expired"`
	ReplacedBy *graph.ID      `json:"replaced_by,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Export writes every node then every edge as one JSON object per line
// (spec §4.6 export). Nodes are written before edges so Import can
// insert edges only after both their endpoints exist (I1).
func (e *Engine) Export(ctx context.Context, w io.Writer) error {
	enc := json.NewEncoder(w)

	err := e.Graph.ScanNodes(ctx, func(n *graph.Node) error {
		return enc.Encode(nodeRecord{
			Kind:        "node",
			ID:          n.ID,
			Content:     n.Content,
			NodeType:    n.NodeType,
			Embedding:   n.Embedding,
			CreatedAt:   n.Meta.CreatedAt,
			UpdatedAt:   n.Meta.UpdatedAt,
			AccessedAt:  n.Meta.AccessedAt,
			AccessScore: n.Meta.AccessScore,
			Confidence:  n.Meta.Confidence,
			Source:      n.Meta.Source,
			DocumentID:  n.Meta.DocumentID,
			ChunkIndex:  n.Meta.ChunkIndex,
			Attributes:  n.Attributes,
		})
	})
	if err != nil {
		return syntonerr.Wrap(syntonerr.Storage, "export nodes", err)
	}

	err = e.Graph.ScanEdges(ctx, func(edge *graph.Edge) error {
		return enc.Encode(edgeRecord{
			Kind:       "edge",
			Source:     edge.Source,
			Target:     edge.Target,
			Relation:   edge.Relation,
			Weight:     edge.Weight,
			Vector:     edge.Vector,
			CreatedAt:  edge.CreatedAt,
			Expired:    edge.Expired,
			ReplacedBy: edge.ReplacedBy,
			Attributes: edge.Attributes,
		})
	})
	if err != nil {
		return syntonerr.Wrap(syntonerr.Storage, "export edges", err)
	}
	return nil
}

// Import reads a stream previously produced by Export and replays it
// (spec §4.6 import). Edges whose endpoints are missing are reported in
// the returned skip count rather than aborting the whole import, since a
// partial snapshot (e.g. a filtered export) is a legitimate input.
type ImportResult struct {
	NodesInserted int
	EdgesInserted int
	EdgesSkipped  int
}

func (e *Engine) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	dec := json.NewDecoder(bufio.NewReader(r))
	result := &ImportResult{}

	var pendingEdges []edgeRecord
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if err == io.EOF {
				break
			}
			return nil, syntonerr.Wrap(syntonerr.InvalidArgument, "decode import record", err)
		}
		var kind struct {
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(raw, &kind); err != nil {
			return nil, syntonerr.Wrap(syntonerr.InvalidArgument, "decode import record kind", err)
		}
		switch kind.Kind {
		case "node":
			var rec nodeRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, syntonerr.Wrap(syntonerr.InvalidArgument, "decode node record", err)
			}
			n := &graph.Node{
				ID:        rec.ID,
				Content:   rec.Content,
				NodeType:  rec.NodeType,
				Embedding: rec.Embedding,
				Meta: graph.Meta{
					CreatedAt:   rec.CreatedAt,
					UpdatedAt:   rec.UpdatedAt,
					AccessedAt:  rec.AccessedAt,
					AccessScore: rec.AccessScore,
					Confidence:  rec.Confidence,
					Source:      rec.Source,
					DocumentID:  rec.DocumentID,
					ChunkIndex:  rec.ChunkIndex,
				},
				Attributes: rec.Attributes,
			}
			if err := e.Graph.PutNodeRaw(n); err != nil {
				return nil, err
			}
			if n.Embedding != nil {
				if err := e.vec.Update(ctx, n.ID.String(), n.Embedding); err != nil {
					return nil, syntonerr.Wrap(syntonerr.DimensionMismatch, "index imported embedding", err)
				}
			}
			result.NodesInserted++
		case "edge":
			var rec edgeRecord
			if err := json.Unmarshal(raw, &rec); err != nil {
				return nil, syntonerr.Wrap(syntonerr.InvalidArgument, "decode edge record", err)
			}
			pendingEdges = append(pendingEdges, rec)
		default:
			return nil, syntonerr.New(syntonerr.InvalidArgument, "unknown import record kind: "+kind.Kind)
		}
	}

	for _, rec := range pendingEdges {
		edge := &graph.Edge{
			EdgeKey: graph.EdgeKey{
				Source:   rec.Source,
				Target:   rec.Target,
				Relation: rec.Relation,
			},
			Weight:     rec.Weight,
			Vector:     rec.Vector,
			CreatedAt:  rec.CreatedAt,
			Expired:    rec.Expired,
			ReplacedBy: rec.ReplacedBy,
			Attributes: rec.Attributes,
		}
		if err := e.Graph.InsertEdge(ctx, edge); err != nil {
			if syntonerr.Is(err, syntonerr.DanglingEdge) {
				result.EdgesSkipped++
				continue
			}
			return nil, err
		}
		result.EdgesInserted++
	}
	return result, nil
}
