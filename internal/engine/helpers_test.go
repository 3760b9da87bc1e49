package engine

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/synton-db/syntondb/internal/config"
	"github.com/synton-db/syntondb/internal/graph"
)

const testDim = 4

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Vector.Dimension = testDim
	cfg.Vector.Type = "flat"
	return cfg
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openTestEngine opens an Engine over a fresh temp dir with a
// deterministic stub embedder, closed automatically at test end.
func openTestEngine(t *testing.T, emb *stubEmbedder) *Engine {
	t.Helper()
	return openTestEngineAt(t, t.TempDir(), emb)
}

func openTestEngineAt(t *testing.T, dataDir string, emb *stubEmbedder) *Engine {
	t.Helper()
	opts := []Option{WithLogger(discardLogger())}
	if emb != nil {
		opts = append(opts, WithEmbedder(emb))
	}
	e, err := Open(context.Background(), dataDir, testConfig(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func mustInsertNode(t *testing.T, e *Engine, content string, nodeType graph.NodeType, embedding []float32, confidence float64) graph.ID {
	t.Helper()
	id, err := e.InsertNode(context.Background(), &graph.Node{
		Content:   content,
		NodeType:  nodeType,
		Embedding: embedding,
		Meta:      graph.Meta{Confidence: confidence},
	})
	require.NoError(t, err)
	return id
}

// stubEmbedder maps known texts to fixed vectors so tests control query
// similarity; unknown texts get the fallback vector.
type stubEmbedder struct {
	vectors   map[string][]float32
	fallback  []float32
	available bool
}

func newStubEmbedder(fallback []float32) *stubEmbedder {
	return &stubEmbedder{vectors: map[string][]float32{}, fallback: fallback, available: true}
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return s.fallback, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, txt := range texts {
		v, err := s.Embed(ctx, txt)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int                     { return len(s.fallback) }
func (s *stubEmbedder) ModelName() string                  { return "stub" }
func (s *stubEmbedder) Available(ctx context.Context) bool { return s.available }
func (s *stubEmbedder) Close() error                       { return nil }
