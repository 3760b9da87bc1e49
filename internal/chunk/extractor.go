package chunk

import (
	"strings"
)

// SymbolExtractor finds the named top-level symbols (functions, methods,
// classes, types, consts, vars) in a parsed Tree, using the language's
// node-type configuration to decide what counts as a symbol.
type SymbolExtractor struct {
	registry *LanguageRegistry
}

// NewSymbolExtractor builds an extractor over the default registry.
func NewSymbolExtractor() *SymbolExtractor {
	return NewSymbolExtractorWithRegistry(DefaultRegistry())
}

// NewSymbolExtractorWithRegistry builds an extractor over a
// caller-supplied registry.
func NewSymbolExtractorWithRegistry(registry *LanguageRegistry) *SymbolExtractor {
	return &SymbolExtractor{registry: registry}
}

// kindTable flattens a LanguageConfig's per-kind node-type lists into
// one lookup from AST node type to symbol kind.
func kindTable(config *LanguageConfig) map[string]SymbolType {
	table := make(map[string]SymbolType)
	for kind, types := range map[SymbolType][]string{
		SymbolTypeFunction:  config.FunctionTypes,
		SymbolTypeMethod:    config.MethodTypes,
		SymbolTypeClass:     config.ClassTypes,
		SymbolTypeInterface: config.InterfaceTypes,
		SymbolTypeType:      config.TypeDefTypes,
		SymbolTypeConstant:  config.ConstantTypes,
		SymbolTypeVariable:  config.VariableTypes,
	} {
		for _, t := range types {
			table[t] = kind
		}
	}
	return table
}

// Extract walks the tree and returns every symbol it recognizes. The
// result is never nil, so callers can range without a nil check.
func (e *SymbolExtractor) Extract(tree *Tree, source []byte) []*Symbol {
	symbols := []*Symbol{}
	if tree == nil || tree.Root == nil {
		return symbols
	}
	config, ok := e.registry.GetByName(tree.Language)
	if !ok {
		return symbols
	}

	kinds := kindTable(config)
	tree.Root.Walk(func(n *Node) bool {
		// Function-valued const/let bindings outrank their grammar-level
		// classification as variable declarations.
		if sym := e.extractSpecialSymbol(n, source, tree.Language); sym != nil {
			symbols = append(symbols, sym)
			return true
		}
		kind, isSymbol := kinds[n.Type]
		if !isSymbol {
			return true
		}
		name := symbolName(n, source, tree.Language)
		if name == "" {
			return true
		}
		symbols = append(symbols, &Symbol{
			Name:       name,
			Type:       kind,
			StartLine:  int(n.StartPoint.Row) + 1,
			EndLine:    int(n.EndPoint.Row) + 1,
			Signature:  signatureOf(n.Text(source), kind, tree.Language),
			DocComment: docCommentAbove(n, source, tree.Language),
		})
		return true
	})
	return symbols
}

// symbolName finds the identifier naming a symbol node. Go buries the
// name one or two levels down (method names are field_identifiers,
// type/const/var names sit inside their *_spec child); the scripting
// languages keep an identifier as a direct child.
func symbolName(n *Node, source []byte, language string) string {
	switch language {
	case "go":
		switch n.Type {
		case "method_declaration":
			if id := n.Child("field_identifier"); id != nil {
				return id.Text(source)
			}
			return ""
		case "type_declaration":
			return nestedName(n, source, "type_spec", "type_identifier")
		case "const_declaration":
			return nestedName(n, source, "const_spec", "identifier")
		case "var_declaration":
			return nestedName(n, source, "var_spec", "identifier")
		}
	case "typescript", "tsx", "javascript", "jsx":
		if n.Type == "lexical_declaration" || n.Type == "variable_declaration" {
			return nestedName(n, source, "variable_declarator", "identifier")
		}
		if id := n.Child("type_identifier"); id != nil {
			return id.Text(source)
		}
	}
	if id := n.Child("identifier"); id != nil {
		return id.Text(source)
	}
	return ""
}

// nestedName returns the text of the first inner-type child found under
// the first outer-type child.
func nestedName(n *Node, source []byte, outer, inner string) string {
	spec := n.Child(outer)
	if spec == nil {
		return ""
	}
	if id := spec.Child(inner); id != nil {
		return id.Text(source)
	}
	return ""
}

// extractSpecialSymbol catches the JS/TS idiom of binding a function to
// a const/let/var (`const handler = () => {...}`), which classifies as a
// variable declaration in the grammar but reads as a function to anyone
// searching the code.
func (e *SymbolExtractor) extractSpecialSymbol(n *Node, source []byte, language string) *Symbol {
	switch language {
	case "typescript", "tsx", "javascript", "jsx":
	default:
		return nil
	}
	if n.Type != "lexical_declaration" && n.Type != "variable_declaration" {
		return nil
	}

	decl := n.Child("variable_declarator")
	if decl == nil {
		return nil
	}
	var name string
	var bindsFunction bool
	for _, child := range decl.Children {
		switch child.Type {
		case "identifier":
			name = child.Text(source)
		case "arrow_function", "function", "function_expression":
			bindsFunction = true
		}
	}
	if name == "" || !bindsFunction {
		return nil
	}
	return &Symbol{
		Name:      name,
		Type:      SymbolTypeFunction,
		StartLine: int(n.StartPoint.Row) + 1,
		EndLine:   int(n.EndPoint.Row) + 1,
		Signature: signatureOf(n.Text(source), SymbolTypeFunction, language),
	}
}

// docCommentAbove returns the line-comment text immediately above a
// symbol, stripped of its marker. Python is skipped (its docstrings live
// inside the definition, not above it).
func docCommentAbove(n *Node, source []byte, language string) string {
	if language == "python" || n.StartPoint.Row == 0 {
		return ""
	}

	lineStart := int(n.StartByte)
	for lineStart > 0 && source[lineStart-1] != '\n' {
		lineStart--
	}
	if lineStart <= 1 {
		return ""
	}
	prevEnd := lineStart - 1
	prevStart := prevEnd
	for prevStart > 0 && source[prevStart-1] != '\n' {
		prevStart--
	}

	prev := strings.TrimSpace(string(source[prevStart:prevEnd]))
	if strings.HasPrefix(prev, "//") {
		return strings.TrimPrefix(prev, "//")
	}
	return ""
}

// signatureOf condenses a symbol's declaration to its header line — up
// to the opening brace for brace languages, the whole first line for
// Python — so an embedding of the chunk leads with the interface rather
// than the body.
func signatureOf(content string, kind SymbolType, language string) string {
	switch kind {
	case SymbolTypeFunction, SymbolTypeMethod, SymbolTypeClass, SymbolTypeInterface, SymbolTypeType:
	default:
		return ""
	}
	first, _, _ := strings.Cut(content, "\n")
	first = strings.TrimSpace(first)
	if language == "python" {
		return first
	}
	if idx := strings.Index(first, "{"); idx >= 0 {
		return strings.TrimSpace(first[:idx])
	}
	return first
}
