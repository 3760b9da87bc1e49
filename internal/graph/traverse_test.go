package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chain builds a -> b -> c -> d with IsA edges of weight 0.8 each.
func chain(t *testing.T, s *Store) (a, b, c, d ID) {
	t.Helper()
	ctx := context.Background()
	var err error
	a, err = s.InsertNode(ctx, &Node{Content: "a", NodeType: NodeEntity})
	require.NoError(t, err)
	b, err = s.InsertNode(ctx, &Node{Content: "b", NodeType: NodeEntity})
	require.NoError(t, err)
	c, err = s.InsertNode(ctx, &Node{Content: "c", NodeType: NodeEntity})
	require.NoError(t, err)
	d, err = s.InsertNode(ctx, &Node{Content: "d", NodeType: NodeEntity})
	require.NoError(t, err)

	require.NoError(t, s.InsertEdge(ctx, &Edge{EdgeKey: EdgeKey{Source: a, Target: b, Relation: IsA}, Weight: 0.8}))
	require.NoError(t, s.InsertEdge(ctx, &Edge{EdgeKey: EdgeKey{Source: b, Target: c, Relation: IsA}, Weight: 0.8}))
	require.NoError(t, s.InsertEdge(ctx, &Edge{EdgeKey: EdgeKey{Source: c, Target: d, Relation: IsA}, Weight: 0.8}))
	return a, b, c, d
}

func TestBFS_DepthZeroReturnsOnlyStart(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, _, _, _ := chain(t, s)

	result, err := s.BFS(ctx, a, 0, 0, Out, nil)
	require.NoError(t, err)
	assert.Equal(t, []ID{a}, result.Nodes)
	assert.Empty(t, result.Edges)
}

func TestBFS_RespectsDepthLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, b, c, _ := chain(t, s)

	result, err := s.BFS(ctx, a, 2, 0, Out, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []ID{a, b, c}, result.Nodes)
}

func TestBFS_RespectsNodeLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, _, _, _ := chain(t, s)

	result, err := s.BFS(ctx, a, 10, 2, Out, nil)
	require.NoError(t, err)
	assert.Len(t, result.Nodes, 2)
	assert.Equal(t, a, result.Nodes[0])
}

func TestBFS_SkipsExpiredEdges(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, b, _, _ := chain(t, s)

	k := EdgeKey{Source: a, Target: b, Relation: IsA}
	require.NoError(t, s.SupersedeEdge(ctx, k, &Edge{EdgeKey: EdgeKey{Source: a, Target: b, Relation: SimilarTo}, Weight: 0.5}))

	result, err := s.BFS(ctx, a, 1, 0, Out, nil)
	require.NoError(t, err)
	// the IsA edge is now expired but its SimilarTo replacement keeps b reachable
	assert.Contains(t, result.Nodes, b)
}

func TestDFS_RespectsDepthLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, b, c, _ := chain(t, s)

	result, err := s.DFS(ctx, a, 2, 0, Out, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []ID{a, b, c}, result.Nodes)
}

func TestShortestPath_FindsPathAndConfidence(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, _, _, d := chain(t, s)

	path, err := s.ShortestPath(ctx, a, d, 5)
	require.NoError(t, err)
	require.NotNil(t, path)
	assert.Equal(t, a, path.Nodes[0])
	assert.Equal(t, d, path.Nodes[len(path.Nodes)-1])
	assert.InDelta(t, 0.8*0.8*0.8, path.Confidence, 1e-6)
}

func TestShortestPath_UnreachableWithinMaxHopsReturnsNil(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, _, _, d := chain(t, s)

	path, err := s.ShortestPath(ctx, a, d, 1)
	require.NoError(t, err)
	assert.Nil(t, path)
}

func TestShortestPath_SameNodeIsTrivial(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, _, _, _ := chain(t, s)

	path, err := s.ShortestPath(ctx, a, a, 5)
	require.NoError(t, err)
	require.NotNil(t, path)
	assert.Equal(t, []ID{a}, path.Nodes)
}

func TestSubgraph_UnionsSeedsWithDedup(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	a, b, c, d := chain(t, s)

	result, err := s.Subgraph(ctx, []ID{a, d}, 1)
	require.NoError(t, err)
	assert.ElementsMatch(t, []ID{a, b, c, d}, result.Nodes)
}

func TestSubgraph_RequiresAtLeastOneSeed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.Subgraph(ctx, nil, 1)
	require.Error(t, err)
}
