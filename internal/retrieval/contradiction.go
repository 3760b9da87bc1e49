package retrieval

import (
	"context"

	"github.com/synton-db/syntondb/internal/graph"
)

// ContradictionNote surfaces one detected fact conflict in a QueryResult
// (spec §4.5.5): a node's IsA/Causes/... edge disagrees with another
// active edge sharing the same (source, relation) but pointing at a
// different target.
type ContradictionNote struct {
	Source        graph.ID
	Relation      graph.Relation
	Kept          graph.EdgeKey
	Superseded    graph.EdgeKey
	Recommend     bool // true when Kept's confidence beat Superseded's and supersede() should run
}

// DetectContradiction compares a newly-inserted edge against any existing
// active edge sharing (source, relation) but a different target (spec
// §4.5.5: "A Contradicts edge inserted against an existing edge with the
// same (source, relation)"). It is a pure function over already-fetched
// edges; internal/engine.InsertEdge calls it before the new edge is
// written, since internal/graph cannot import internal/retrieval without
// a cycle.
//
// confidence is compared via each edge's target node's Meta.Confidence, since
// spec §3 attaches confidence to nodes, not edges. The higher-confidence
// edge is recommended for retention; supersede(old, new) is the caller's
// responsibility to invoke when Recommend is true.
func DetectContradiction(newEdge, existing *graph.Edge, newConfidence, existingConfidence float64) *ContradictionNote {
	if existing == nil || existing.Expired {
		return nil
	}
	if existing.Source != newEdge.Source || existing.Relation != newEdge.Relation {
		return nil
	}
	if existing.Target == newEdge.Target {
		return nil // same key - InsertEdge's upsert handles this, not a contradiction
	}

	note := &ContradictionNote{
		Source:     newEdge.Source,
		Relation:   newEdge.Relation,
		Superseded: existing.EdgeKey,
		Kept:       newEdge.EdgeKey,
	}
	if newConfidence > existingConfidence {
		note.Recommend = true
		return note
	}
	// New fact didn't win: the existing edge is "kept" from the caller's
	// point of view and the new one is the one surfaced as a footnote.
	note.Kept = existing.EdgeKey
	note.Superseded = newEdge.EdgeKey
	note.Recommend = false
	return note
}

// FindActiveConflict scans id's outgoing edges for an active edge sharing
// relation but a different target than excludeTarget, returning the first
// one found (spec §4.5.5's "existing edge with the same (source,
// relation)"). Returns nil if none exists.
func FindActiveConflict(ctx context.Context, store *graph.Store, id graph.ID, relation graph.Relation, excludeTarget graph.ID) (*graph.Edge, error) {
	neighbors, err := store.Neighbors(ctx, id, graph.Out, &relation)
	if err != nil {
		return nil, err
	}
	for _, nb := range neighbors {
		if nb.Edge.Expired {
			continue
		}
		if nb.NodeID == excludeTarget {
			continue
		}
		edge := nb.Edge
		return &edge, nil
	}
	return nil, nil
}
