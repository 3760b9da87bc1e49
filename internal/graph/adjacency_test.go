package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeighbors_OutInBoth(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.InsertNode(ctx, &Node{Content: "a", NodeType: NodeEntity})
	require.NoError(t, err)
	b, err := s.InsertNode(ctx, &Node{Content: "b", NodeType: NodeEntity})
	require.NoError(t, err)
	c, err := s.InsertNode(ctx, &Node{Content: "c", NodeType: NodeEntity})
	require.NoError(t, err)

	require.NoError(t, s.InsertEdge(ctx, &Edge{EdgeKey: EdgeKey{Source: a, Target: b, Relation: IsA}, Weight: 0.5}))
	require.NoError(t, s.InsertEdge(ctx, &Edge{EdgeKey: EdgeKey{Source: c, Target: a, Relation: Causes}, Weight: 0.5}))

	out, err := s.Neighbors(ctx, a, Out, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, b, out[0].NodeID)
	assert.Equal(t, IsA, out[0].Relation)

	in, err := s.Neighbors(ctx, a, In, nil)
	require.NoError(t, err)
	require.Len(t, in, 1)
	assert.Equal(t, c, in[0].NodeID)

	both, err := s.Neighbors(ctx, a, Both, nil)
	require.NoError(t, err)
	assert.Len(t, both, 2)
}

func TestNeighbors_FilteredByRelation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.InsertNode(ctx, &Node{Content: "a", NodeType: NodeEntity})
	require.NoError(t, err)
	b, err := s.InsertNode(ctx, &Node{Content: "b", NodeType: NodeEntity})
	require.NoError(t, err)
	c, err := s.InsertNode(ctx, &Node{Content: "c", NodeType: NodeEntity})
	require.NoError(t, err)

	require.NoError(t, s.InsertEdge(ctx, &Edge{EdgeKey: EdgeKey{Source: a, Target: b, Relation: IsA}, Weight: 0.5}))
	require.NoError(t, s.InsertEdge(ctx, &Edge{EdgeKey: EdgeKey{Source: a, Target: c, Relation: Causes}, Weight: 0.5}))

	rel := IsA
	filtered, err := s.Neighbors(ctx, a, Out, &rel)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, b, filtered[0].NodeID)
}

func TestDegree(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	a, err := s.InsertNode(ctx, &Node{Content: "a", NodeType: NodeEntity})
	require.NoError(t, err)
	b, err := s.InsertNode(ctx, &Node{Content: "b", NodeType: NodeEntity})
	require.NoError(t, err)

	require.NoError(t, s.InsertEdge(ctx, &Edge{EdgeKey: EdgeKey{Source: a, Target: b, Relation: IsA}, Weight: 0.5}))

	deg, err := s.Degree(ctx, a, Out)
	require.NoError(t, err)
	assert.Equal(t, 1, deg)
}
