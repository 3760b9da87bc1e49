package chunk

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Parser turns source text into a Tree via tree-sitter, for the
// code-aware chunking strategy. One Parser may parse any language its
// registry knows; Close releases the underlying native parser.
type Parser struct {
	ts       *sitter.Parser
	registry *LanguageRegistry
}

// NewParser builds a Parser over the default language registry.
func NewParser() *Parser {
	return NewParserWithRegistry(DefaultRegistry())
}

// NewParserWithRegistry builds a Parser over a caller-supplied registry.
func NewParserWithRegistry(registry *LanguageRegistry) *Parser {
	return &Parser{ts: sitter.NewParser(), registry: registry}
}

// Parse parses source as the named language. Tree-sitter recovers from
// syntax errors, so a malformed file still yields a (partial) tree with
// HasError set on the broken subtrees rather than failing outright.
func (p *Parser) Parse(ctx context.Context, source []byte, language string) (*Tree, error) {
	grammar, ok := p.registry.GetTreeSitterLanguage(language)
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", language)
	}
	p.ts.SetLanguage(grammar)

	parsed, err := p.ts.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s source: %w", language, err)
	}
	if parsed == nil {
		return nil, fmt.Errorf("parse %s source: no tree produced", language)
	}

	return &Tree{
		Root:     liftNode(parsed.RootNode()),
		Source:   source,
		Language: language,
	}, nil
}

// Close releases the native tree-sitter parser.
func (p *Parser) Close() {
	if p.ts != nil {
		p.ts.Close()
	}
}

// liftNode copies a tree-sitter node (and, recursively, its children)
// into the package's own Node shape so nothing downstream holds cgo
// memory alive.
func liftNode(src *sitter.Node) *Node {
	if src == nil {
		return nil
	}
	n := &Node{
		Type:       src.Type(),
		StartByte:  src.StartByte(),
		EndByte:    src.EndByte(),
		StartPoint: Point{Row: src.StartPoint().Row, Column: src.StartPoint().Column},
		EndPoint:   Point{Row: src.EndPoint().Row, Column: src.EndPoint().Column},
		HasError:   src.HasError(),
	}
	count := int(src.ChildCount())
	if count > 0 {
		n.Children = make([]*Node, 0, count)
		for i := 0; i < count; i++ {
			if child := src.Child(i); child != nil {
				n.Children = append(n.Children, liftNode(child))
			}
		}
	}
	return n
}

// Text returns the slice of source this node spans.
func (n *Node) Text(source []byte) string {
	if n.StartByte >= n.EndByte || int(n.EndByte) > len(source) {
		return ""
	}
	return string(source[n.StartByte:n.EndByte])
}

// Walk visits the subtree depth-first. Returning false from fn prunes
// that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.Children {
		child.Walk(fn)
	}
}

// Child returns the first direct child of the given type, or nil.
func (n *Node) Child(nodeType string) *Node {
	for _, child := range n.Children {
		if child.Type == nodeType {
			return child
		}
	}
	return nil
}

// DescendantsOfType collects every node of the given type in the
// subtree, including n itself.
func (n *Node) DescendantsOfType(nodeType string) []*Node {
	var out []*Node
	n.Walk(func(m *Node) bool {
		if m.Type == nodeType {
			out = append(out, m)
		}
		return true
	})
	return out
}
