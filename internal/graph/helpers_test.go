package graph

import (
	"path/filepath"
	"testing"

	"github.com/synton-db/syntondb/internal/kvstore"
	"github.com/synton-db/syntondb/internal/vector"
)

// newTestStore builds a Store over a temp-dir bbolt file and a flat
// in-memory vector index, mirroring how the engine facade wires C1-C3
// together but scoped to one test.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.db")
	kv, err := kvstore.Open(path, kvstore.DefaultConfig())
	if err != nil {
		t.Fatalf("open kvstore: %v", err)
	}
	t.Cleanup(func() { _ = kv.Close() })

	vec := vector.NewMemoryIndex(4)
	return NewStore(kv, vec)
}

func testEmbedding() []float32 { return []float32{0.1, 0.2, 0.3, 0.4} }
