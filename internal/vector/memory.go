package vector

import (
	"context"
	"sort"
	"sync"
)

// MemoryIndex is the exact, in-memory cosine-similarity backend (spec
// §4.2's "In-memory: exact cosine similarity; O(N) search; used for
// small corpora and tests").
type MemoryIndex struct {
	mu     sync.RWMutex
	dim    int
	vecs   map[string][]float32 // normalised copies, keyed by id
	closed bool
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty exact-search index for dimension d.
func NewMemoryIndex(d int) *MemoryIndex {
	return &MemoryIndex{dim: d, vecs: make(map[string][]float32)}
}

func (m *MemoryIndex) Insert(ctx context.Context, id string, v []float32) error {
	return m.InsertBatch(ctx, []string{id}, [][]float32{v})
}

func (m *MemoryIndex) InsertBatch(ctx context.Context, ids []string, vs [][]float32) error {
	if len(ids) != len(vs) {
		return ErrBatchMismatch{IDs: len(ids), Vectors: len(vs)}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		if len(vs[i]) != m.dim {
			return ErrDimensionMismatch{Expected: m.dim, Got: len(vs[i])}
		}
		if hasNonFinite(vs[i]) {
			return ErrDimensionMismatch{Expected: m.dim, Got: len(vs[i])}
		}
		m.vecs[id] = normalize(vs[i])
	}
	return nil
}

func (m *MemoryIndex) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.vecs, id)
	return nil
}

func (m *MemoryIndex) Update(ctx context.Context, id string, v []float32) error {
	if err := m.Remove(ctx, id); err != nil {
		return err
	}
	return m.Insert(ctx, id, v)
}

func (m *MemoryIndex) Search(ctx context.Context, q []float32, k int) ([]Result, error) {
	return m.SearchFiltered(ctx, q, nil, k)
}

func (m *MemoryIndex) SearchFiltered(ctx context.Context, q []float32, pred Predicate, k int) ([]Result, error) {
	if len(q) != m.dim {
		return nil, ErrDimensionMismatch{Expected: m.dim, Got: len(q)}
	}
	nq := normalize(q)

	m.mu.RLock()
	results := make([]Result, 0, len(m.vecs))
	for id, v := range m.vecs {
		if pred != nil && !pred(id) {
			continue
		}
		results = append(results, Result{ID: id, Similarity: cosineSimilarity(nq, v)})
	}
	m.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].ID < results[j].ID
	})
	if k >= 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (m *MemoryIndex) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vecs)
}

func (m *MemoryIndex) Dimension() int { return m.dim }

func (m *MemoryIndex) IsReady() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.closed
}

func (m *MemoryIndex) Contains(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.vecs[id]
	return ok
}

func (m *MemoryIndex) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.vecs = nil
	return nil
}
