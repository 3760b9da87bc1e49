package engine

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synton-db/syntondb/internal/graph"
)

func TestExportImport_RoundTripReproducesStore(t *testing.T) {
	ctx := context.Background()
	src := openTestEngine(t, newStubEmbedder([]float32{1, 0, 0, 0}))

	a := mustInsertNode(t, src, "embedded fact", graph.NodeFact, []float32{0, 1, 0, 0}, 0.9)
	b := mustInsertNode(t, src, "plain entity", graph.NodeEntity, nil, 0.7)
	_, err := src.InsertEdge(ctx, &graph.Edge{
		EdgeKey:    graph.EdgeKey{Source: a, Target: b, Relation: graph.BelongsTo},
		Weight:     0.8,
		Attributes: map[string]any{"origin": "test"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, src.Export(ctx, &buf))

	dst := openTestEngine(t, newStubEmbedder([]float32{1, 0, 0, 0}))
	result, err := dst.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 2, result.NodesInserted)
	assert.Equal(t, 1, result.EdgesInserted)
	assert.Zero(t, result.EdgesSkipped)

	gotA, err := dst.GetNode(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "embedded fact", gotA.Content)
	assert.Equal(t, []float32{0, 1, 0, 0}, gotA.Embedding)
	assert.Equal(t, 0.9, gotA.Meta.Confidence)

	edge, err := dst.Graph.GetEdge(ctx, graph.EdgeKey{Source: a, Target: b, Relation: graph.BelongsTo})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, float64(edge.Weight), 1e-6)
	assert.Equal(t, "test", edge.Attributes["origin"])

	// The imported embedding is searchable immediately (I3/P4), no
	// restart-time reconciliation required.
	stats, err := dst.Stats(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.NodeCount)
	assert.Equal(t, 1, stats.EdgeCount)
	assert.Equal(t, 1, stats.EmbeddedCount)
}

func TestExport_PreservesExpiredEdges(t *testing.T) {
	ctx := context.Background()
	src := openTestEngine(t, newStubEmbedder([]float32{1, 0, 0, 0}))

	p := mustInsertNode(t, src, "P", graph.NodeEntity, nil, 0.5)
	x := mustInsertNode(t, src, "X", graph.NodeConcept, nil, 0.5)
	y := mustInsertNode(t, src, "Y", graph.NodeConcept, nil, 0.5)
	_, err := src.InsertEdge(ctx, &graph.Edge{
		EdgeKey: graph.EdgeKey{Source: p, Target: x, Relation: graph.Causes}, Weight: 1,
	})
	require.NoError(t, err)
	require.NoError(t, src.Supersede(ctx,
		graph.EdgeKey{Source: p, Target: x, Relation: graph.Causes},
		&graph.Edge{EdgeKey: graph.EdgeKey{Source: p, Target: y, Relation: graph.Causes}, Weight: 1}))

	var buf bytes.Buffer
	require.NoError(t, src.Export(ctx, &buf))
	assert.Equal(t, 1, strings.Count(buf.String(), `"expired":true`))

	dst := openTestEngine(t, newStubEmbedder([]float32{1, 0, 0, 0}))
	_, err = dst.Import(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	old, err := dst.Graph.GetEdge(ctx, graph.EdgeKey{Source: p, Target: x, Relation: graph.Causes})
	require.NoError(t, err)
	assert.True(t, old.Expired)
	assert.NotNil(t, old.ReplacedBy)
}

func TestImport_SkipsEdgesWithMissingEndpoints(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t, newStubEmbedder([]float32{1, 0, 0, 0}))

	missing := graph.NewID()
	present := graph.NewID()
	jsonl := `{"kind":"node","id":"` + present.String() + `","content":"present","node_type":"Fact","created_at":"2026-01-01T00:00:00Z","updated_at":"2026-01-01T00:00:00Z","access_score":0,"confidence":0.5}
{"kind":"edge","source":"` + present.String() + `","target":"` + missing.String() + `","relation":"Causes","weight":0.5,"created_at":"2026-01-01T00:00:00Z","expired":false}
`
	result, err := e.Import(ctx, strings.NewReader(jsonl))
	require.NoError(t, err)
	assert.Equal(t, 1, result.NodesInserted)
	assert.Zero(t, result.EdgesInserted)
	assert.Equal(t, 1, result.EdgesSkipped)
}

func TestImport_UnknownRecordKindIsInvalidArgument(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t, newStubEmbedder([]float32{1, 0, 0, 0}))

	_, err := e.Import(ctx, strings.NewReader(`{"kind":"mystery"}`))
	require.Error(t, err)
}
