package engine

import (
	"context"

	"github.com/synton-db/syntondb/internal/graph"
	"github.com/synton-db/syntondb/internal/paql"
	"github.com/synton-db/syntondb/internal/retrieval"
)

// QueryOptions controls context synthesis over a query's ranked result
// (spec §4.5.4); the zero value renders Flat with no compression.
type QueryOptions struct {
	Format      retrieval.Format
	Level       retrieval.SummaryLevel
	Compression retrieval.Compression
	TokenBudget int
}

// RankedResult is the engine-level outcome of query() (spec §6): a
// ranked node list, its synthesized textual context, and the bookkeeping
// spec §4.5.3/§4.5.5/§4.5.6 call for (truncation, degraded-text mode,
// and surfaced contradictions).
type RankedResult struct {
	Ranked         []retrieval.RankedNode
	TotalCount     int
	Truncated      bool
	DegradedText   bool
	Contradictions []retrieval.ContradictionNote
	Context        string
}

// Query parses paqlText, plans and executes it (vector-only, graph-only,
// or hybrid per the Planner's choice), touches every returned node via
// the Memory Manager, and renders the requested synthesis format (spec
// §6 `query(paql_text, options) -> RankedResult`).
func (e *Engine) Query(ctx context.Context, paqlText string, opts QueryOptions) (*RankedResult, error) {
	ast, err := paql.Parse(paqlText)
	if err != nil {
		return nil, err
	}
	plan, err := e.planner.Plan(ast)
	if err != nil {
		return nil, err
	}
	result, err := e.executor.Execute(ctx, plan)
	if err != nil {
		return nil, err
	}

	contradictions := e.collectContradictions(ctx, result.Ranked)

	synthOpts := retrieval.SynthesisOptions{
		Format:      opts.Format,
		Level:       opts.Level,
		Compression: opts.Compression,
		TokenBudget: opts.TokenBudget,
	}
	if synthOpts.Format == "" {
		synthOpts.Format = retrieval.FormatFlat
	}
	text, err := retrieval.Synthesize(result.Ranked, synthOpts)
	if err != nil {
		return nil, err
	}

	return &RankedResult{
		Ranked:         result.Ranked,
		TotalCount:     len(result.Ranked),
		Truncated:      result.Truncated,
		DegradedText:   result.DegradedText,
		Contradictions: contradictions,
		Context:        text,
	}, nil
}

// collectContradictions surfaces, for each ranked node, any of its
// outgoing edges marked Expired alongside the active edge of the same
// relation that superseded it (spec §4.5.5: "a query returning P
// surfaces the new target in its primary view and the old one under a
// contradictions section").
func (e *Engine) collectContradictions(ctx context.Context, ranked []retrieval.RankedNode) []retrieval.ContradictionNote {
	var notes []retrieval.ContradictionNote
	for _, r := range ranked {
		neighbors, err := e.Graph.Neighbors(ctx, r.Node.ID, graph.Out, nil)
		if err != nil {
			continue
		}
		for _, nb := range neighbors {
			if !nb.Edge.Expired {
				continue
			}
			active := findActiveSibling(neighbors, nb.Relation, nb.NodeID)
			if active == nil {
				continue
			}
			notes = append(notes, retrieval.ContradictionNote{
				Source:     r.Node.ID,
				Relation:   nb.Relation,
				Kept:       active.EdgeKey,
				Superseded: nb.Edge.EdgeKey,
				Recommend:  true,
			})
		}
	}
	return notes
}

func findActiveSibling(neighbors []graph.Neighbor, relation graph.Relation, excludeTarget graph.ID) *graph.Edge {
	for _, nb := range neighbors {
		if nb.Edge.Expired || nb.Relation != relation || nb.NodeID == excludeTarget {
			continue
		}
		edge := nb.Edge
		return &edge
	}
	return nil
}
