package engine

import (
	"context"

	"github.com/synton-db/syntondb/internal/graph"
	"github.com/synton-db/syntondb/internal/paql"
	"github.com/synton-db/syntondb/internal/retrieval"
)

// TraverseResult is traverse's (nodes, edges) pair plus whether the
// node_limit bound was hit (spec §6 traverse, §4.5.6 "partial expansion").
type TraverseResult struct {
	Nodes     []*graph.Node
	Edges     []graph.Edge
	Truncated bool
}

// Traverse runs a bounded BFS from startID (spec §6's exposed
// `traverse(start_id, direction, depth, node_limit, filter?)`). filter,
// if non-nil, is a PaQL filter expression evaluated against each
// candidate node after expansion, same compiler the Planner/Executor use
// for query filters.
func (e *Engine) Traverse(ctx context.Context, startID graph.ID, dir graph.Direction, depth, nodeLimit int, filter *paql.FilterExpr) (*TraverseResult, error) {
	result, err := e.Graph.BFS(ctx, startID, depth, nodeLimit, dir, nil)
	if err != nil {
		return nil, err
	}
	truncated := nodeLimit > 0 && len(result.Nodes) >= nodeLimit

	pred, err := retrieval.CompileFilter(filter)
	if err != nil {
		return nil, err
	}

	nodes := make([]*graph.Node, 0, len(result.Nodes))
	for _, id := range result.Nodes {
		n, err := e.Graph.GetNode(ctx, id)
		if err != nil {
			continue
		}
		if pred != nil && !pred(n) {
			continue
		}
		nodes = append(nodes, n)
	}
	return &TraverseResult{Nodes: nodes, Edges: result.Edges, Truncated: truncated}, nil
}
