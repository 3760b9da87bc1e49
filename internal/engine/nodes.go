package engine

import (
	"context"

	"github.com/synton-db/syntondb/internal/graph"
)

// InsertNode persists a new semantic atom (spec §4.1 insert_node).
func (e *Engine) InsertNode(ctx context.Context, n *graph.Node) (graph.ID, error) {
	return e.Graph.InsertNode(ctx, n)
}

// GetNode fetches a node by id (spec §4.1 get_node).
func (e *Engine) GetNode(ctx context.Context, id graph.ID) (*graph.Node, error) {
	return e.Graph.GetNode(ctx, id)
}

// UpdateNode merges patch into the stored node (spec §4.1 update_node).
// The id never changes.
func (e *Engine) UpdateNode(ctx context.Context, n *graph.Node) error {
	return e.Graph.UpdateNode(ctx, n)
}

// DeleteNode removes a node and cascades to every incident edge and its
// vector-index entry (spec §4.1 delete_node). Idempotent on a missing id
// per spec §3's lifecycle note: deleting an id that does not exist does
// nothing and returns nil.
func (e *Engine) DeleteNode(ctx context.Context, id graph.ID) error {
	return e.Graph.DeleteNode(ctx, id)
}
