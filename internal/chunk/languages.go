package chunk

import (
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// LanguageRegistry maps language names and file extensions to their
// tree-sitter grammar and node-type configuration.
type LanguageRegistry struct {
	mu       sync.RWMutex
	configs  map[string]*LanguageConfig
	byExt    map[string]string
	grammars map[string]*sitter.Language
}

// NewLanguageRegistry builds a registry covering the built-in languages:
// Go, TypeScript/TSX, JavaScript/JSX, Python.
func NewLanguageRegistry() *LanguageRegistry {
	r := &LanguageRegistry{
		configs:  make(map[string]*LanguageConfig),
		byExt:    make(map[string]string),
		grammars: make(map[string]*sitter.Language),
	}
	for _, b := range builtinLanguages() {
		r.Register(b.config, b.grammar)
	}
	return r
}

// Register adds (or replaces) a language.
func (r *LanguageRegistry) Register(config *LanguageConfig, grammar *sitter.Language) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs[config.Name] = config
	r.grammars[config.Name] = grammar
	for _, ext := range config.Extensions {
		r.byExt[ext] = config.Name
	}
}

// GetByName returns the configuration for a language name.
func (r *LanguageRegistry) GetByName(name string) (*LanguageConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	config, ok := r.configs[name]
	return config, ok
}

// GetByExtension returns the configuration for a file extension, with
// or without the leading dot.
func (r *LanguageRegistry) GetByExtension(ext string) (*LanguageConfig, bool) {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byExt[ext]
	if !ok {
		return nil, false
	}
	config, ok := r.configs[name]
	return config, ok
}

// GetTreeSitterLanguage returns the grammar for a language name.
func (r *LanguageRegistry) GetTreeSitterLanguage(name string) (*sitter.Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	grammar, ok := r.grammars[name]
	return grammar, ok
}

// SupportedExtensions lists every registered file extension.
func (r *LanguageRegistry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	return exts
}

type builtinLanguage struct {
	config  *LanguageConfig
	grammar *sitter.Language
}

// builtinLanguages enumerates the grammars this build links in. TSX and
// JSX reuse their base language's node-type lists under a different name
// and extension (JSX even shares the JavaScript grammar).
func builtinLanguages() []builtinLanguage {
	goConfig := &LanguageConfig{
		Name:          "go",
		Extensions:    []string{".go"},
		FunctionTypes: []string{"function_declaration"},
		MethodTypes:   []string{"method_declaration"},
		// Go has no classes; interfaces arrive as type_declaration.
		TypeDefTypes:  []string{"type_declaration"},
		ConstantTypes: []string{"const_declaration"},
		VariableTypes: []string{"var_declaration"},
	}

	tsConfig := &LanguageConfig{
		Name:           "typescript",
		Extensions:     []string{".ts"},
		FunctionTypes:  []string{"function_declaration"},
		MethodTypes:    []string{"method_definition"},
		ClassTypes:     []string{"class_declaration"},
		InterfaceTypes: []string{"interface_declaration"},
		TypeDefTypes:   []string{"type_alias_declaration"},
		ConstantTypes:  []string{"lexical_declaration"}, // const, let
		VariableTypes:  []string{"variable_declaration"},
	}

	jsConfig := &LanguageConfig{
		Name:          "javascript",
		Extensions:    []string{".js", ".mjs"},
		FunctionTypes: []string{"function_declaration", "function"},
		MethodTypes:   []string{"method_definition"},
		ClassTypes:    []string{"class_declaration"},
		ConstantTypes: []string{"lexical_declaration"},
		VariableTypes: []string{"variable_declaration"},
	}

	pyConfig := &LanguageConfig{
		Name:          "python",
		Extensions:    []string{".py"},
		FunctionTypes: []string{"function_definition"},
		// Methods are function_definitions nested in a class; the walker
		// picks them up through FunctionTypes.
		ClassTypes:    []string{"class_definition"},
		VariableTypes: []string{"assignment"},
	}

	return []builtinLanguage{
		{goConfig, golang.GetLanguage()},
		{tsConfig, typescript.GetLanguage()},
		{renamed(tsConfig, "tsx", ".tsx"), tsx.GetLanguage()},
		{jsConfig, javascript.GetLanguage()},
		{renamed(jsConfig, "jsx", ".jsx"), javascript.GetLanguage()},
		{pyConfig, python.GetLanguage()},
	}
}

// renamed clones a config under a new name and extension set.
func renamed(base *LanguageConfig, name string, exts ...string) *LanguageConfig {
	clone := *base
	clone.Name = name
	clone.Extensions = exts
	return &clone
}

var defaultRegistry = NewLanguageRegistry()

// DefaultRegistry returns the process-wide registry the chunkers share.
// It holds only immutable grammar metadata, so sharing it is safe.
func DefaultRegistry() *LanguageRegistry {
	return defaultRegistry
}
