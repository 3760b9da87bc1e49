package paql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synton-db/syntondb/internal/syntonerr"
)

func TestParse_Semantic_PlainText(t *testing.T) {
	ast, err := Parse("quarterly revenue projections")
	require.NoError(t, err)
	assert.Equal(t, KindSemantic, ast.Kind)
	assert.Equal(t, "quarterly revenue projections", ast.Text)
	assert.Nil(t, ast.Filter)
	assert.Equal(t, 0, ast.Limit)
}

func TestParse_Semantic_WithLimit(t *testing.T) {
	ast, err := Parse("revenue growth LIMIT 5")
	require.NoError(t, err)
	assert.Equal(t, "revenue growth", ast.Text)
	assert.Equal(t, 5, ast.Limit)
}

func TestParse_Semantic_WithWhereAndLimit(t *testing.T) {
	ast, err := Parse(`revenue WHERE confidence > 0.5 AND status = "active" LIMIT 10`)
	require.NoError(t, err)
	require.NotNil(t, ast.Filter)
	assert.Equal(t, 10, ast.Limit)
	assert.Equal(t, BoolAnd, ast.Filter.Bool)
	assert.Equal(t, "confidence", ast.Filter.Left.Field)
	assert.Equal(t, OpGt, ast.Filter.Left.Op)
	assert.Equal(t, "status", ast.Filter.Right.Field)
	assert.Equal(t, OpEq, ast.Filter.Right.Op)
	assert.Equal(t, "active", ast.Filter.Right.Value)
}

func TestParse_Filter_OrHasLowerPrecedenceThanAnd(t *testing.T) {
	ast, err := Parse("x WHERE a = 1 OR b = 2 AND c = 3")
	require.NoError(t, err)
	require.Equal(t, BoolOr, ast.Filter.Bool)
	assert.Equal(t, "a", ast.Filter.Left.Field)
	assert.Equal(t, BoolAnd, ast.Filter.Right.Bool)
}

func TestParse_Filter_NotAndParens(t *testing.T) {
	ast, err := Parse("x WHERE NOT (a = 1 OR b = 2)")
	require.NoError(t, err)
	require.Equal(t, BoolNot, ast.Filter.Bool)
	assert.Equal(t, BoolOr, ast.Filter.Left.Bool)
}

func TestParse_Filter_ContainsAndIn(t *testing.T) {
	ast, err := Parse(`x WHERE tag CONTAINS "urgent" AND status IN ("open", "pending")`)
	require.NoError(t, err)
	assert.Equal(t, OpContains, ast.Filter.Left.Op)
	assert.Equal(t, OpIn, ast.Filter.Right.Op)
	values, ok := ast.Filter.Right.Value.([]any)
	require.True(t, ok)
	assert.Equal(t, []any{"open", "pending"}, values)
}

func TestParse_Graph_Basic(t *testing.T) {
	ast, err := Parse("FROM node-123 DEPTH 2")
	require.NoError(t, err)
	assert.Equal(t, KindGraph, ast.Kind)
	assert.Equal(t, "node-123", ast.From)
	assert.Equal(t, 2, ast.Depth)
	assert.Empty(t, ast.Traverse)
}

func TestParse_Graph_WithTraverse(t *testing.T) {
	ast, err := Parse("FROM concept:revenue TRAVERSE Supports DEPTH 3")
	require.NoError(t, err)
	assert.Equal(t, "Supports", ast.Traverse)
	assert.Equal(t, 3, ast.Depth)
}

func TestParse_Graph_UUIDStartingWithDigit(t *testing.T) {
	ast, err := Parse("FROM 123e4567-e89b-12d3-a456-426614174000 DEPTH 1")
	require.NoError(t, err)
	assert.Equal(t, "123e4567-e89b-12d3-a456-426614174000", ast.From)
}

func TestParse_Hybrid_Basic(t *testing.T) {
	ast, err := Parse("recent customer complaints HOPS 2")
	require.NoError(t, err)
	assert.Equal(t, KindHybrid, ast.Kind)
	assert.Equal(t, "recent customer complaints", ast.Text)
	assert.Equal(t, 2, ast.Hops)
}

func TestParse_Graph_MissingDepth_ReturnsParseError(t *testing.T) {
	_, err := Parse("FROM node-123")
	require.Error(t, err)
	assert.Equal(t, syntonerr.InvalidArgument, syntonerr.Of(err))
}

func TestParse_Hybrid_MissingHopsValue_ReturnsOffset(t *testing.T) {
	_, err := Parse("some query HOPS")
	require.Error(t, err)
	var pErr *syntonerr.Error
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, syntonerr.InvalidArgument, pErr.Kind)
	assert.Equal(t, 15, pErr.Offset)
}

func TestParse_Semantic_TrailingGarbageRejected(t *testing.T) {
	_, err := Parse("x WHERE a = 1 )")
	require.Error(t, err)
}
