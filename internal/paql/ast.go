// Package paql implements PaQL, the small query language a human or an
// LLM agent authors retrieval requests in (spec §4.5.1). A hand-written
// recursive-descent parser turns PaQL text into an AST of one of three
// kinds (semantic, graph, hybrid), with filter expressions carried in its
// Filter field, for internal/retrieval.Planner to turn into a physical plan.
package paql

// QueryKind classifies the parsed AST's shape.
type QueryKind string

const (
	KindSemantic QueryKind = "semantic"
	KindGraph    QueryKind = "graph"
	KindHybrid   QueryKind = "hybrid"
)

// AST is the parsed form of one PaQL query. Exactly the fields relevant
// to Kind are populated; the zero value of the rest is meaningless.
type AST struct {
	Kind QueryKind

	// Semantic / Hybrid
	Text string

	// Graph
	From     string // id or label
	Traverse string // relation name; empty means any relation
	Depth    int

	// Hybrid
	Hops int

	// Semantic
	Filter *FilterExpr
	Limit  int // 0 means unset
}

// FilterOp is a predicate comparison operator.
type FilterOp string

const (
	OpEq       FilterOp = "="
	OpNeq      FilterOp = "≠"
	OpGt       FilterOp = ">"
	OpLt       FilterOp = "<"
	OpGte      FilterOp = "≥"
	OpLte      FilterOp = "≤"
	OpContains FilterOp = "CONTAINS"
	OpIn       FilterOp = "IN"
)

// BoolOp combines FilterExpr nodes.
type BoolOp string

const (
	BoolAnd BoolOp = "AND"
	BoolOr  BoolOp = "OR"
	BoolNot BoolOp = "NOT"
)

// FilterExpr is a node in the boolean filter-expression tree: either a
// leaf predicate (Field/Op/Value set, BoolOp empty) or an internal AND/
// OR/NOT node (BoolOp set, Left/Right or just Left for NOT).
type FilterExpr struct {
	// Leaf predicate
	Field string
	Op    FilterOp
	Value any

	// Internal node
	Bool  BoolOp
	Left  *FilterExpr
	Right *FilterExpr // nil for NOT
}

// IsLeaf reports whether this node is a predicate rather than a boolean
// combinator.
func (f *FilterExpr) IsLeaf() bool {
	return f != nil && f.Bool == ""
}
