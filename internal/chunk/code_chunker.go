package chunk

import (
	"context"
	"fmt"
	"strings"

	"github.com/synton-db/syntondb/internal/syntonerr"
)

// CodeAwareChunkerOptions configures CodeAwareChunker.
type CodeAwareChunkerOptions struct {
	// MaxChunkSize bounds a single symbol chunk in characters; larger
	// symbols fall back to FixedChunker's sliding window.
	MaxChunkSize int
	Overlap      int
}

// DefaultCodeAwareChunkerOptions mirrors FixedChunker's defaults, the
// fallback path CodeAwareChunker uses for oversized symbols and
// unsupported languages.
func DefaultCodeAwareChunkerOptions() CodeAwareChunkerOptions {
	return CodeAwareChunkerOptions{MaxChunkSize: 2000, Overlap: 250}
}

// CodeAwareChunker splits source code along AST symbol boundaries
// (function/method/class/type/const/var) instead of raw character
// windows. Unsupported languages and parse failures fall back to
// FixedChunker over the raw text, as do symbols larger than
// MaxChunkSize.
type CodeAwareChunker struct {
	parser    *Parser
	extractor *SymbolExtractor
	registry  *LanguageRegistry
	opts      CodeAwareChunkerOptions
	fallback  *FixedChunker
}

// NewCodeAwareChunker builds a CodeAwareChunker with opts, filling in
// defaults for zero fields.
func NewCodeAwareChunker(opts CodeAwareChunkerOptions) *CodeAwareChunker {
	if opts.MaxChunkSize <= 0 {
		opts.MaxChunkSize = DefaultCodeAwareChunkerOptions().MaxChunkSize
	}
	if opts.Overlap <= 0 {
		opts.Overlap = DefaultCodeAwareChunkerOptions().Overlap
	}
	registry := DefaultRegistry()
	return &CodeAwareChunker{
		parser:    NewParserWithRegistry(registry),
		extractor: NewSymbolExtractorWithRegistry(registry),
		registry:  registry,
		opts:      opts,
		fallback:  NewFixedChunker(FixedChunkerOptions{MaxChunkSize: opts.MaxChunkSize, Overlap: opts.Overlap, ToleranceWindow: 80}),
	}
}

// Close releases tree-sitter parser resources.
func (c *CodeAwareChunker) Close() {
	if c.parser != nil {
		c.parser.Close()
	}
}

// SupportedExtensions returns file extensions this chunker can parse
// with tree-sitter; anything else uses the FixedChunker fallback.
func (c *CodeAwareChunker) SupportedExtensions() []string {
	return c.registry.SupportedExtensions()
}

// Chunk implements Chunker. metadata["language"] selects the tree-sitter
// grammar; a missing/unsupported language, or a parse failure, falls
// back to FixedChunker over the raw text.
func (c *CodeAwareChunker) Chunk(ctx context.Context, text string, metadata map[string]string) ([]Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, syntonerr.New(syntonerr.InvalidArgument, "cannot chunk empty content")
	}

	language := metadata["language"]
	if _, supported := c.registry.GetByName(language); !supported {
		return c.fallback.Chunk(ctx, text, metadata)
	}

	tree, err := c.parser.Parse(ctx, []byte(text), language)
	if err != nil {
		return c.fallback.Chunk(ctx, text, metadata)
	}

	fileContext := c.extractFileContext(tree, language)
	symbolNodes := c.findSymbolNodes(tree, language)
	if len(symbolNodes) == 0 {
		return c.fallback.Chunk(ctx, text, metadata)
	}

	var chunks []Chunk
	for _, info := range symbolNodes {
		if ctx.Err() != nil {
			return nil, syntonerr.Wrap(syntonerr.Cancelled, "chunking cancelled", ctx.Err())
		}
		nodeChunks, err := c.createChunksFromNode(ctx, info, tree, fileContext, metadata)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, nodeChunks...)
	}
	return chunks, nil
}

type symbolNodeInfo struct {
	node   *Node
	symbol *Symbol
}

func (c *CodeAwareChunker) findSymbolNodes(tree *Tree, language string) []*symbolNodeInfo {
	config, ok := c.registry.GetByName(language)
	if !ok {
		return nil
	}

	symbolTypes := kindTable(config)

	var symbolNodes []*symbolNodeInfo
	tree.Root.Walk(func(n *Node) bool {
		if n.Type == "lexical_declaration" || n.Type == "variable_declaration" {
			if sym := c.extractor.extractSpecialSymbol(n, tree.Source, language); sym != nil {
				symbolNodes = append(symbolNodes, &symbolNodeInfo{node: n, symbol: sym})
				return true
			}
		}
		if symType, isSymbol := symbolTypes[n.Type]; isSymbol {
			if sym := c.extractSymbol(n, tree, symType, language); sym != nil {
				symbolNodes = append(symbolNodes, &symbolNodeInfo{node: n, symbol: sym})
			}
		}
		return true
	})
	return symbolNodes
}

func (c *CodeAwareChunker) extractSymbol(n *Node, tree *Tree, symType SymbolType, language string) *Symbol {
	name := symbolName(n, tree.Source, language)
	if name == "" {
		return nil
	}
	return &Symbol{
		Name:       name,
		Type:       symType,
		StartLine:  int(n.StartPoint.Row) + 1,
		EndLine:    int(n.EndPoint.Row) + 1,
		DocComment: docCommentAbove(n, tree.Source, language),
	}
}

// createChunksFromNode emits one chunk per symbol, or falls back to
// FixedChunker over the symbol's own text when it exceeds MaxChunkSize.
func (c *CodeAwareChunker) createChunksFromNode(ctx context.Context, info *symbolNodeInfo, tree *Tree, fileContext string, metadata map[string]string) ([]Chunk, error) {
	node := info.node
	raw := string(tree.Source[node.StartByte:node.EndByte])
	body := raw
	if fileContext != "" {
		body = fileContext + "\n\n" + raw
	}

	if len(body) <= c.opts.MaxChunkSize {
		start := int(node.StartByte)
		end := int(node.EndByte)
		return []Chunk{{
			ID:        chunkID(metadata, start, end),
			Text:      body,
			ByteStart: start,
			ByteEnd:   end,
			Metadata:  symbolMetadata(metadata, info.symbol),
		}}, nil
	}

	sub, err := c.fallback.Chunk(ctx, raw, metadata)
	if err != nil {
		return nil, fmt.Errorf("code chunker: splitting oversized symbol %q: %w", info.symbol.Name, err)
	}
	base := int(node.StartByte)
	for i := range sub {
		sub[i].ByteStart += base
		sub[i].ByteEnd += base
		sub[i].ID = chunkID(metadata, sub[i].ByteStart, sub[i].ByteEnd)
		sub[i].Metadata = symbolMetadata(metadata, info.symbol)
	}
	return sub, nil
}

func symbolMetadata(metadata map[string]string, sym *Symbol) map[string]string {
	out := make(map[string]string, len(metadata)+2)
	for k, v := range metadata {
		out[k] = v
	}
	out["symbol"] = sym.Name
	out["symbol_type"] = string(sym.Type)
	return out
}

// extractFileContext pulls the package/import header so each symbol
// chunk carries enough surrounding context to embed meaningfully on its
// own.
func (c *CodeAwareChunker) extractFileContext(tree *Tree, language string) string {
	var parts []string
	switch language {
	case "go":
		for _, node := range tree.Root.Children {
			if node.Type == "package_clause" {
				parts = append(parts, node.Text(tree.Source))
			}
		}
		for _, node := range tree.Root.Children {
			if node.Type == "import_declaration" {
				parts = append(parts, node.Text(tree.Source))
			}
		}
	case "typescript", "tsx", "javascript", "jsx":
		for _, node := range tree.Root.Children {
			if node.Type == "import_statement" {
				parts = append(parts, node.Text(tree.Source))
			}
		}
	case "python":
		for _, node := range tree.Root.Children {
			if node.Type == "import_statement" || node.Type == "import_from_statement" {
				parts = append(parts, node.Text(tree.Source))
			}
		}
	}
	return strings.Join(parts, "\n\n")
}
