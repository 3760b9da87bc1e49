// Package retrieval implements the Retrieval Engine (C5): turning a
// paql.AST into a physical plan, executing the hybrid vector+graph
// search, and formatting the ranked result for an agent (spec §4.5).
package retrieval

import (
	"github.com/synton-db/syntondb/internal/graph"
)

// PlanKind selects which physical plan Executor runs (spec §4.5.2).
type PlanKind string

const (
	VectorOnly PlanKind = "vector_only"
	GraphOnly  PlanKind = "graph_only"
	Hybrid     PlanKind = "hybrid"
)

// Plan is the physical execution plan the Planner derives from a
// paql.AST.
type Plan struct {
	Kind PlanKind

	// VectorOnly / Hybrid
	QueryText string
	KSeeds    int

	// GraphOnly
	SeedIDs      []graph.ID
	Depth        int
	RelationFilt *graph.Relation

	// Hybrid
	Hops  int
	Alpha float64
	Beta  float64

	Filter *filterPredicate
	Limit  int
}

// RankedNode is one scored, ranked result of a query (spec §4.5.3/4.5.4).
type RankedNode struct {
	Node          *graph.Node
	VectorScore   float64
	GraphScore    float64
	FusedScore    float64
	GraphDistance int
	Truncated     bool
}

// QueryResult is the outcome of Executor.Execute. Contradiction notes
// are attached one level up, by the engine facade, which owns the edge
// lookups they require.
type QueryResult struct {
	Ranked       []RankedNode
	Truncated    bool
	DegradedText bool // true if an embedder was unavailable and a text-contains fallback ran
}
