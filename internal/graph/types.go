// Package graph implements the Tensor-Graph storage engine (C3): the
// durable node/edge data model layered over kvstore (C1) and vector (C2),
// its adjacency indices, and the invariants of spec §3.
package graph

import (
	"time"

	"github.com/google/uuid"
)

// ID is the 128-bit stable identifier of spec §3.
type ID = uuid.UUID

// NewID allocates a fresh node/document id.
func NewID() ID { return uuid.New() }

// ParseID parses a string-form id.
func ParseID(s string) (ID, error) { return uuid.Parse(s) }

// NodeType is purely descriptive (spec §3: "no invariant ties it to edge
// relations").
type NodeType string

const (
	NodeEntity    NodeType = "Entity"
	NodeConcept   NodeType = "Concept"
	NodeFact      NodeType = "Fact"
	NodeRawChunk  NodeType = "RawChunk"
	NodeDocument  NodeType = "Document" // supplement: root node of an ingested document
	NodeParagraph NodeType = "Paragraph"
	NodeSentence  NodeType = "Sentence"
)

// MaxContentBytes is spec §3's content size bound (10 MiB).
const MaxContentBytes = 10 << 20

// Meta holds a node's bookkeeping fields (spec §3).
type Meta struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	AccessedAt   *time.Time
	AccessScore  float64 // [0, 10]
	Confidence   float64 // [0, 1]
	Source       string
	DocumentID   *ID
	ChunkIndex   *int
}

// Node is a semantic atom (spec §3).
type Node struct {
	ID         ID
	Content    string
	NodeType   NodeType
	Embedding  []float32 // nil means "not indexed in C2"
	Meta       Meta
	Attributes map[string]any
}

// Relation is one of the seven built-in relation kinds, or Custom.
type Relation string

const (
	IsA           Relation = "IsA"
	IsPartOf      Relation = "IsPartOf"
	Causes        Relation = "Causes"
	SimilarTo     Relation = "SimilarTo"
	Contradicts   Relation = "Contradicts"
	HappenedAfter Relation = "HappenedAfter"
	BelongsTo     Relation = "BelongsTo"
)

// CustomRelation builds a Relation carrying an arbitrary name, encoded on
// disk with the 0xFF escape tag (spec §6).
func CustomRelation(name string) Relation { return Relation(name) }

// IsBuiltin reports whether r is one of the seven named relations.
func (r Relation) IsBuiltin() bool {
	switch r {
	case IsA, IsPartOf, Causes, SimilarTo, Contradicts, HappenedAfter, BelongsTo:
		return true
	}
	return false
}

// irreflexiveRelations forbid self-loops (spec §7).
var irreflexiveRelations = map[Relation]bool{
	HappenedAfter: true,
	IsPartOf:      true,
}

// ForbidsSelfLoop reports whether r's semantics forbid source == target.
func (r Relation) ForbidsSelfLoop() bool {
	return irreflexiveRelations[r]
}

// singleValuedRelations expect one active target per source: a second
// active edge with a different target is a conflicting fact, not an
// additional one. Causes/SimilarTo/etc. are naturally multi-target and
// never conflict by themselves.
var singleValuedRelations = map[Relation]bool{
	IsA:       true,
	BelongsTo: true,
}

// SingleValued reports whether two active r-edges from one source with
// different targets contradict each other.
func (r Relation) SingleValued() bool {
	return singleValuedRelations[r]
}

// EdgeKey is an edge's identity (source, target, relation) per spec §3.
type EdgeKey struct {
	Source   ID
	Target   ID
	Relation Relation
}

// Edge is a typed weighted directed link (spec §3).
type Edge struct {
	EdgeKey
	Weight     float32 // clamped to [0, 1] on write
	Vector     []float32
	CreatedAt  time.Time
	Expired    bool
	ReplacedBy *ID
	Attributes map[string]any
}

// ClampWeight clamps w into [0, 1] per spec §3.
func ClampWeight(w float32) float32 {
	if w < 0 {
		return 0
	}
	if w > 1 {
		return 1
	}
	return w
}

// ClampUnit clamps a float64 into [0, 1].
func ClampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClampAccessScore clamps a float64 into [0, 10] per spec §3/I2.
func ClampAccessScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// Direction selects which adjacency index a traversal walks.
type Direction int

const (
	Out Direction = iota
	In
	Both
)

// ReasoningPath is a derived (not persisted) explanation trace (spec §3).
type ReasoningPath struct {
	Nodes      []ID
	Edges      []Edge
	Confidence float64
	PathType   string
}
