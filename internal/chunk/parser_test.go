package chunk

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseSource(t *testing.T, source, language string) *Tree {
	t.Helper()
	p := NewParser()
	t.Cleanup(p.Close)
	tree, err := p.Parse(context.Background(), []byte(source), language)
	require.NoError(t, err)
	require.NotNil(t, tree.Root)
	return tree
}

func TestParser_GoSourceYieldsFunctionNodes(t *testing.T) {
	tree := parseSource(t, `package main

func hello() {}

func goodbye() {}
`, "go")

	assert.Equal(t, "go", tree.Language)
	funcs := tree.Root.DescendantsOfType("function_declaration")
	assert.Len(t, funcs, 2)
}

func TestParser_UnsupportedLanguageErrors(t *testing.T) {
	p := NewParser()
	defer p.Close()
	_, err := p.Parse(context.Background(), []byte("x"), "cobol")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported language")
}

func TestParser_SyntaxErrorStillYieldsPartialTree(t *testing.T) {
	tree := parseSource(t, `package main

func broken( {
`, "go")

	hasError := false
	tree.Root.Walk(func(n *Node) bool {
		if n.HasError {
			hasError = true
		}
		return true
	})
	assert.True(t, hasError, "broken source marks subtrees with HasError")
}

func TestParser_ReusableAcrossLanguages(t *testing.T) {
	p := NewParser()
	defer p.Close()

	goTree, err := p.Parse(context.Background(), []byte("package x\nfunc a() {}\n"), "go")
	require.NoError(t, err)
	pyTree, err := p.Parse(context.Background(), []byte("def a():\n    pass\n"), "python")
	require.NoError(t, err)

	assert.NotEmpty(t, goTree.Root.DescendantsOfType("function_declaration"))
	assert.NotEmpty(t, pyTree.Root.DescendantsOfType("function_definition"))
}

func TestNode_TextSlicesSource(t *testing.T) {
	source := "package main\n\nfunc hi() {}\n"
	tree := parseSource(t, source, "go")

	fn := tree.Root.Child("function_declaration")
	require.NotNil(t, fn)
	assert.Equal(t, "func hi() {}", fn.Text(tree.Source))

	bogus := &Node{StartByte: 5, EndByte: 2}
	assert.Empty(t, bogus.Text(tree.Source))
}

func TestRegistry_ExtensionLookupNormalizesDot(t *testing.T) {
	r := NewLanguageRegistry()

	withDot, ok := r.GetByExtension(".go")
	require.True(t, ok)
	withoutDot, ok2 := r.GetByExtension("GO")
	require.True(t, ok2)
	assert.Equal(t, withDot.Name, withoutDot.Name)

	_, ok = r.GetByExtension(".zig")
	assert.False(t, ok)
}

func TestRegistry_CoversBuiltinExtensions(t *testing.T) {
	exts := NewLanguageRegistry().SupportedExtensions()
	for _, want := range []string{".go", ".ts", ".tsx", ".js", ".jsx", ".py"} {
		assert.Contains(t, exts, want)
	}
}

func TestExtractor_GoSymbols(t *testing.T) {
	tree := parseSource(t, `package main

// Greet says hello.
func Greet(name string) string {
	return "hi " + name
}

type Store struct{}

func (s *Store) Put(k string) {}

const MaxSize = 10

var registry = map[string]int{}
`, "go")

	symbols := NewSymbolExtractor().Extract(tree, tree.Source)
	byName := map[string]*Symbol{}
	for _, s := range symbols {
		byName[s.Name] = s
	}

	require.Contains(t, byName, "Greet")
	assert.Equal(t, SymbolTypeFunction, byName["Greet"].Type)
	assert.Equal(t, "func Greet(name string) string", byName["Greet"].Signature)
	assert.Equal(t, " Greet says hello.", byName["Greet"].DocComment)

	require.Contains(t, byName, "Put")
	assert.Equal(t, SymbolTypeMethod, byName["Put"].Type)

	require.Contains(t, byName, "Store")
	assert.Equal(t, SymbolTypeType, byName["Store"].Type)

	require.Contains(t, byName, "MaxSize")
	assert.Equal(t, SymbolTypeConstant, byName["MaxSize"].Type)

	require.Contains(t, byName, "registry")
	assert.Equal(t, SymbolTypeVariable, byName["registry"].Type)
}

func TestExtractor_PythonSymbols(t *testing.T) {
	tree := parseSource(t, `class Engine:
    def run(self):
        pass

def main():
    pass
`, "python")

	symbols := NewSymbolExtractor().Extract(tree, tree.Source)
	names := map[string]SymbolType{}
	for _, s := range symbols {
		names[s.Name] = s.Type
	}
	assert.Equal(t, SymbolTypeClass, names["Engine"])
	assert.Equal(t, SymbolTypeFunction, names["main"])
	assert.Equal(t, SymbolTypeFunction, names["run"], "methods parse as nested function definitions")
}

func TestExtractor_TypeScriptSymbols(t *testing.T) {
	tree := parseSource(t, `interface Shape {
  area(): number
}

class Circle implements Shape {
  area(): number { return 0 }
}

function build(): Circle { return new Circle() }
`, "typescript")

	symbols := NewSymbolExtractor().Extract(tree, tree.Source)
	names := map[string]SymbolType{}
	for _, s := range symbols {
		names[s.Name] = s.Type
	}
	assert.Equal(t, SymbolTypeInterface, names["Shape"])
	assert.Equal(t, SymbolTypeClass, names["Circle"])
	assert.Equal(t, SymbolTypeFunction, names["build"])
}

func TestExtractor_JavaScriptArrowFunctionBinding(t *testing.T) {
	tree := parseSource(t, `const handler = (req) => {
  return req
}
`, "javascript")

	symbols := NewSymbolExtractor().Extract(tree, tree.Source)
	require.NotEmpty(t, symbols)
	found := false
	for _, s := range symbols {
		if s.Name == "handler" && s.Type == SymbolTypeFunction {
			found = true
		}
	}
	assert.True(t, found, "const-bound arrow functions surface as functions")
}

func TestExtractor_NilTreeYieldsEmptySlice(t *testing.T) {
	symbols := NewSymbolExtractor().Extract(nil, nil)
	require.NotNil(t, symbols)
	assert.Empty(t, symbols)
}
