// Package chunk implements the Chunker (C6): a pure, stateless transform
// from document text to an ordered sequence of sub-node chunks (spec
// §4.6), behind one shared interface with four interchangeable
// strategies.
package chunk

import "context"

// Chunk is one retrievable unit produced by a Chunker. ByteStart/ByteEnd
// index into the original document text; Level distinguishes a
// hierarchical chunk's tier (0 = document, 1 = paragraph, 2 = sentence)
// and is always 0 for Fixed/Semantic/CodeAware output. ParentID/ChildIDs
// are populated only by HierarchicalChunker.
type Chunk struct {
	ID            string
	Text          string
	ByteStart     int
	ByteEnd       int
	Level         int
	BoundaryScore float64
	ParentID      string
	ChildIDs      []string
	Metadata      map[string]string
}

// Chunker is the C6 capability contract: a pure function of text and
// caller-supplied metadata (e.g. "language", "source") to an ordered
// chunk sequence. Implementations must not mutate shared state between
// calls.
type Chunker interface {
	Chunk(ctx context.Context, text string, metadata map[string]string) ([]Chunk, error)
}

// HierarchicalChunks is the structured three-tier output of
// HierarchicalChunker (spec §4.6): one document-level summary chunk, its
// paragraph children, and their sentence children, connected by
// parent/child id pointers so the ingest layer can emit IsPartOf edges
// (scenario S6).
type HierarchicalChunks struct {
	Doc        Chunk
	Paragraphs []Chunk
	Sentences  []Chunk
}

// Flatten returns every chunk in Doc, Paragraphs, Sentences order — the
// shape HierarchicalChunker.Chunk returns to satisfy the plain Chunker
// interface.
func (h HierarchicalChunks) Flatten() []Chunk {
	out := make([]Chunk, 0, 1+len(h.Paragraphs)+len(h.Sentences))
	out = append(out, h.Doc)
	out = append(out, h.Paragraphs...)
	out = append(out, h.Sentences...)
	return out
}

// Tree is a parsed AST, used internally by CodeAwareChunker.
type Tree struct {
	Root     *Node
	Source   []byte
	Language string
}

// Node is one node in a parsed AST.
type Node struct {
	Type       string
	StartByte  uint32
	EndByte    uint32
	StartPoint Point
	EndPoint   Point
	Children   []*Node
	HasError   bool
}

// Point is a row/column position in source text.
type Point struct {
	Row    uint32
	Column uint32
}

// LanguageConfig holds tree-sitter node-type configuration for one
// supported source language.
type LanguageConfig struct {
	Name       string
	Extensions []string

	FunctionTypes  []string
	ClassTypes     []string
	InterfaceTypes []string
	MethodTypes    []string
	TypeDefTypes   []string
	ConstantTypes  []string
	VariableTypes  []string
}

// SymbolType classifies a code symbol extracted by SymbolExtractor.
type SymbolType string

const (
	SymbolTypeFunction  SymbolType = "function"
	SymbolTypeClass     SymbolType = "class"
	SymbolTypeInterface SymbolType = "interface"
	SymbolTypeType      SymbolType = "type"
	SymbolTypeVariable  SymbolType = "variable"
	SymbolTypeConstant  SymbolType = "constant"
	SymbolTypeMethod    SymbolType = "method"
)

// Symbol is one code symbol (function, class, ...) found by parsing.
type Symbol struct {
	Name       string
	Type       SymbolType
	StartLine  int
	EndLine    int
	Signature  string
	DocComment string
}
