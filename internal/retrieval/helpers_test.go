package retrieval

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/synton-db/syntondb/internal/decay"
	"github.com/synton-db/syntondb/internal/graph"
	"github.com/synton-db/syntondb/internal/kvstore"
	"github.com/synton-db/syntondb/internal/vector"
)

const testDim = 4

// testHarness bundles the live capabilities an Executor needs, wired the
// same way the engine facade wires them but scoped to one test.
type testHarness struct {
	store  *graph.Store
	vec    vector.Index
	memory *decay.Manager
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	path := filepath.Join(t.TempDir(), "retrieval.db")
	kv, err := kvstore.Open(path, kvstore.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	vec := vector.NewMemoryIndex(testDim)
	store := graph.NewStore(kv, vec)
	memory := decay.NewManager(store, decay.DefaultConfig())
	return &testHarness{store: store, vec: vec, memory: memory}
}

func (h *testHarness) executor(e *stubEmbedder) *Executor {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if e == nil {
		return NewExecutor(h.store, h.vec, nil, h.memory, DefaultExecutorConfig(), logger)
	}
	return NewExecutor(h.store, h.vec, e, h.memory, DefaultExecutorConfig(), logger)
}

func (h *testHarness) mustInsertNode(t *testing.T, content string, nodeType graph.NodeType, embedding []float32, confidence float64) graph.ID {
	t.Helper()
	id, err := h.store.InsertNode(context.Background(), &graph.Node{
		Content:   content,
		NodeType:  nodeType,
		Embedding: embedding,
		Meta:      graph.Meta{Confidence: confidence},
	})
	require.NoError(t, err)
	return id
}

func (h *testHarness) mustInsertEdge(t *testing.T, source, target graph.ID, rel graph.Relation, weight float32) {
	t.Helper()
	err := h.store.InsertEdge(context.Background(), &graph.Edge{
		EdgeKey: graph.EdgeKey{Source: source, Target: target, Relation: rel},
		Weight:  weight,
	})
	require.NoError(t, err)
}

// stubEmbedder returns a fixed vector for every text, so tests control
// which stored node a query lands nearest.
type stubEmbedder struct {
	vec       []float32
	available bool
	embeds    int
}

func newStubEmbedder(vec []float32) *stubEmbedder {
	return &stubEmbedder{vec: vec, available: true}
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	s.embeds++
	return s.vec, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.vec
	}
	return out, nil
}

func (s *stubEmbedder) Dimension() int                    { return len(s.vec) }
func (s *stubEmbedder) ModelName() string                 { return "stub" }
func (s *stubEmbedder) Available(ctx context.Context) bool { return s.available }
func (s *stubEmbedder) Close() error                      { return nil }
