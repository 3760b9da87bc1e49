package retrieval

import (
	"fmt"
	"strings"

	"github.com/synton-db/syntondb/internal/graph"
	"github.com/synton-db/syntondb/internal/paql"
	"github.com/synton-db/syntondb/internal/syntonerr"
)

// filterPredicate is a compiled paql.FilterExpr: a pure function over a
// node's attribute bag plus its well-known scalar fields.
type filterPredicate func(n *graph.Node) bool

// CompileFilter exposes compileNode to callers outside this package
// (internal/engine's Traverse, which has no Plan/AST of its own to run
// through Planner).
func CompileFilter(expr *paql.FilterExpr) (func(*graph.Node) bool, error) {
	if expr == nil {
		return nil, nil
	}
	return compileNode(expr)
}

// compileFilter turns a parsed filter-expression tree into an
// executable predicate (spec §4.5.1's filter grammar).
func compileFilter(expr *paql.FilterExpr) (*filterPredicate, error) {
	if expr == nil {
		return nil, nil
	}
	fn, err := compileNode(expr)
	if err != nil {
		return nil, err
	}
	pred := filterPredicate(fn)
	return &pred, nil
}

func compileNode(expr *paql.FilterExpr) (func(*graph.Node) bool, error) {
	if expr.IsLeaf() {
		return compilePredicate(expr)
	}
	switch expr.Bool {
	case paql.BoolAnd:
		l, err := compileNode(expr.Left)
		if err != nil {
			return nil, err
		}
		r, err := compileNode(expr.Right)
		if err != nil {
			return nil, err
		}
		return func(n *graph.Node) bool { return l(n) && r(n) }, nil
	case paql.BoolOr:
		l, err := compileNode(expr.Left)
		if err != nil {
			return nil, err
		}
		r, err := compileNode(expr.Right)
		if err != nil {
			return nil, err
		}
		return func(n *graph.Node) bool { return l(n) || r(n) }, nil
	case paql.BoolNot:
		l, err := compileNode(expr.Left)
		if err != nil {
			return nil, err
		}
		return func(n *graph.Node) bool { return !l(n) }, nil
	default:
		return nil, syntonerr.New(syntonerr.InvalidArgument, "unknown filter boolean operator")
	}
}

// fieldValue resolves a predicate's field against a node's well-known
// scalar fields (content, node_type, confidence, access_score, source)
// falling back to its attribute bag.
func fieldValue(n *graph.Node, field string) any {
	switch strings.ToLower(field) {
	case "content":
		return n.Content
	case "node_type", "type":
		return string(n.NodeType)
	case "confidence":
		return n.Meta.Confidence
	case "access_score":
		return n.Meta.AccessScore
	case "source":
		return n.Meta.Source
	default:
		if n.Attributes == nil {
			return nil
		}
		return n.Attributes[field]
	}
}

func compilePredicate(expr *paql.FilterExpr) (func(*graph.Node) bool, error) {
	field := expr.Field
	op := expr.Op
	value := expr.Value

	switch op {
	case paql.OpEq, paql.OpNeq, paql.OpGt, paql.OpLt, paql.OpGte, paql.OpLte:
		return func(n *graph.Node) bool {
			return compareOrdered(fieldValue(n, field), op, value)
		}, nil
	case paql.OpContains:
		needle, ok := value.(string)
		if !ok {
			return nil, syntonerr.New(syntonerr.InvalidArgument, "CONTAINS requires a string value")
		}
		return func(n *graph.Node) bool {
			hay := fmt.Sprintf("%v", fieldValue(n, field))
			return strings.Contains(strings.ToLower(hay), strings.ToLower(needle))
		}, nil
	case paql.OpIn:
		values, ok := value.([]any)
		if !ok {
			return nil, syntonerr.New(syntonerr.InvalidArgument, "IN requires a value list")
		}
		return func(n *graph.Node) bool {
			v := fieldValue(n, field)
			for _, candidate := range values {
				if equalValue(v, candidate) {
					return true
				}
			}
			return false
		}, nil
	default:
		return nil, syntonerr.New(syntonerr.InvalidArgument, "unsupported filter operator: "+string(op))
	}
}

func equalValue(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	}
	return 0, false
}

// compareOrdered evaluates a comparison predicate, falling back to
// string comparison for non-numeric operands on every operator
// (lexicographic for the ordering operators).
func compareOrdered(fv any, op paql.FilterOp, rv any) bool {
	af, aok := toFloat(fv)
	bf, bok := toFloat(rv)
	if aok && bok {
		switch op {
		case paql.OpEq:
			return af == bf
		case paql.OpNeq:
			return af != bf
		case paql.OpGt:
			return af > bf
		case paql.OpLt:
			return af < bf
		case paql.OpGte:
			return af >= bf
		case paql.OpLte:
			return af <= bf
		}
	}
	as, bs := fmt.Sprintf("%v", fv), fmt.Sprintf("%v", rv)
	switch op {
	case paql.OpEq:
		return as == bs
	case paql.OpNeq:
		return as != bs
	case paql.OpGt:
		return as > bs
	case paql.OpLt:
		return as < bs
	case paql.OpGte:
		return as >= bs
	case paql.OpLte:
		return as <= bs
	}
	return false
}
