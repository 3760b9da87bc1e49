package engine

import (
	"context"

	"github.com/synton-db/syntondb/internal/graph"
	"github.com/synton-db/syntondb/internal/retrieval"
)

// InsertEdge adds a typed weighted edge (spec §4.1 insert_edge). For
// single-valued relations, an existing active edge sharing (source,
// relation) with a different target triggers the Contradiction detector
// (spec §4.5.5): when the new edge's target node carries higher
// confidence, the insert is promoted to a supersede so the old edge is
// marked expired atomically; otherwise both edges remain active and the
// returned note says so, for the caller to surface under a
// "contradictions" section. Multi-target relations (Causes, SimilarTo,
// ...) accumulate edges without conflict.
func (e *Engine) InsertEdge(ctx context.Context, edge *graph.Edge) (*retrieval.ContradictionNote, error) {
	if !edge.Relation.SingleValued() {
		return nil, e.Graph.InsertEdge(ctx, edge)
	}
	conflict, err := retrieval.FindActiveConflict(ctx, e.Graph, edge.Source, edge.Relation, edge.Target)
	if err != nil {
		return nil, err
	}
	if conflict == nil {
		return nil, e.Graph.InsertEdge(ctx, edge)
	}

	newTarget, err := e.Graph.GetNode(ctx, edge.Target)
	if err != nil {
		return nil, err
	}
	oldTarget, err := e.Graph.GetNode(ctx, conflict.Target)
	if err != nil {
		return nil, err
	}
	note := retrieval.DetectContradiction(edge, conflict, newTarget.Meta.Confidence, oldTarget.Meta.Confidence)
	if note == nil {
		return nil, e.Graph.InsertEdge(ctx, edge)
	}
	if note.Recommend {
		if err := e.Graph.SupersedeEdge(ctx, conflict.EdgeKey, edge); err != nil {
			return nil, err
		}
		return note, nil
	}
	if err := e.Graph.InsertEdge(ctx, edge); err != nil {
		return nil, err
	}
	return note, nil
}

// GetEdgesOut returns id's outgoing edges, optionally restricted to one
// relation (spec §4.1 get_edges_out).
func (e *Engine) GetEdgesOut(ctx context.Context, id graph.ID, relation *graph.Relation) ([]graph.Neighbor, error) {
	return e.Graph.Neighbors(ctx, id, graph.Out, relation)
}

// GetEdgesIn returns id's incoming edges, optionally restricted to one
// relation (spec §4.1 get_edges_in).
func (e *Engine) GetEdgesIn(ctx context.Context, id graph.ID, relation *graph.Relation) ([]graph.Neighbor, error) {
	return e.Graph.Neighbors(ctx, id, graph.In, relation)
}

// DeleteEdge removes a single edge.
func (e *Engine) DeleteEdge(ctx context.Context, key graph.EdgeKey) error {
	return e.Graph.DeleteEdge(ctx, key)
}

// Supersede marks old expired and links it to a freshly inserted
// replacement, atomically (spec §4.3 supersede).
func (e *Engine) Supersede(ctx context.Context, old graph.EdgeKey, replacement *graph.Edge) error {
	return e.Graph.SupersedeEdge(ctx, old, replacement)
}
