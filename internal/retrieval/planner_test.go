package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synton-db/syntondb/internal/graph"
	"github.com/synton-db/syntondb/internal/paql"
	"github.com/synton-db/syntondb/internal/syntonerr"
)

func TestPlanner_SemanticBecomesVectorOnly(t *testing.T) {
	p := NewPlanner(DefaultPlannerConfig())

	plan, err := p.Plan(&paql.AST{Kind: paql.KindSemantic, Text: "capital of france", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, VectorOnly, plan.Kind)
	assert.Equal(t, "capital of france", plan.QueryText)
	assert.Equal(t, DefaultKSeeds, plan.KSeeds)
	assert.Equal(t, 5, plan.Limit)
}

func TestPlanner_HybridCarriesFusionWeightsAndHops(t *testing.T) {
	p := NewPlanner(PlannerConfig{Alpha: 0.6, Beta: 0.4, DefaultKSeeds: 7, DefaultLimit: 15})

	plan, err := p.Plan(&paql.AST{Kind: paql.KindHybrid, Text: "recent events", Hops: 2})
	require.NoError(t, err)
	assert.Equal(t, Hybrid, plan.Kind)
	assert.Equal(t, 2, plan.Hops)
	assert.Equal(t, 0.6, plan.Alpha)
	assert.Equal(t, 0.4, plan.Beta)
	assert.Equal(t, 7, plan.KSeeds)
	assert.Equal(t, 15, plan.Limit, "unset LIMIT falls back to the configured default")
}

func TestPlanner_GraphBecomesGraphOnlyWithParsedSeed(t *testing.T) {
	p := NewPlanner(DefaultPlannerConfig())
	id := graph.NewID()

	plan, err := p.Plan(&paql.AST{Kind: paql.KindGraph, From: id.String(), Traverse: "IsA", Depth: 3})
	require.NoError(t, err)
	assert.Equal(t, GraphOnly, plan.Kind)
	require.Len(t, plan.SeedIDs, 1)
	assert.Equal(t, id, plan.SeedIDs[0])
	require.NotNil(t, plan.RelationFilt)
	assert.Equal(t, graph.IsA, *plan.RelationFilt)
	assert.Equal(t, 3, plan.Depth)
}

func TestPlanner_GraphWithLabelSeedYieldsNoSeedIDs(t *testing.T) {
	p := NewPlanner(DefaultPlannerConfig())

	// A non-UUID label can't be resolved by the planner itself; the
	// executor then fails with RetrievalUnavailable, spec §4.5.6.
	plan, err := p.Plan(&paql.AST{Kind: paql.KindGraph, From: "france", Depth: 1})
	require.NoError(t, err)
	assert.Empty(t, plan.SeedIDs)
	assert.Nil(t, plan.RelationFilt)
}

func TestPlanner_NilASTIsInvalidArgument(t *testing.T) {
	p := NewPlanner(DefaultPlannerConfig())

	_, err := p.Plan(nil)
	require.Error(t, err)
	assert.Equal(t, syntonerr.InvalidArgument, syntonerr.Of(err))
}

func TestPlanner_ZeroConfigFallsBackToSpecDefaults(t *testing.T) {
	p := NewPlanner(PlannerConfig{})

	plan, err := p.Plan(&paql.AST{Kind: paql.KindHybrid, Text: "x", Hops: 1})
	require.NoError(t, err)
	assert.Equal(t, 0.7, plan.Alpha)
	assert.Equal(t, 0.3, plan.Beta)
	assert.Equal(t, DefaultLimit, plan.Limit)
}

func TestPlanner_CompilesFilterIntoPlan(t *testing.T) {
	p := NewPlanner(DefaultPlannerConfig())
	ast := &paql.AST{
		Kind: paql.KindSemantic,
		Text: "query",
		Filter: &paql.FilterExpr{
			Field: "confidence", Op: paql.OpGt, Value: 0.5,
		},
	}

	plan, err := p.Plan(ast)
	require.NoError(t, err)
	require.NotNil(t, plan.Filter)

	high := &graph.Node{Meta: graph.Meta{Confidence: 0.9}}
	low := &graph.Node{Meta: graph.Meta{Confidence: 0.1}}
	assert.True(t, (*plan.Filter)(high))
	assert.False(t, (*plan.Filter)(low))
}
