package vector

import (
	"context"
	"sync"

	"github.com/coder/hnsw"
)

// HNSWIndex implements Index over coder/hnsw's pure-Go HNSW graph,
// adapted from the teacher's internal/store/hnsw.go: same string<->uint64
// key-mapping scheme and the same lazy-delete workaround for the
// upstream library's last-node-delete bug, retargeted from chunk ids to
// node ids.
type HNSWIndex struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[uint64]
	cfg   Config

	idToKey map[string]uint64
	keyToID map[uint64]string
	nextKey uint64

	closed bool
}

var _ Index = (*HNSWIndex)(nil)

// NewHNSWIndex builds an HNSW-backed index per cfg's {m, ef_search}
// tuning (spec §4.2); cfg.EfConstruction is not used by this backend.
func NewHNSWIndex(cfg Config) (*HNSWIndex, error) {
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 64
	}

	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = cfg.M
	g.EfSearch = cfg.EfSearch
	g.Ml = 0.25

	return &HNSWIndex{
		graph:   g,
		cfg:     cfg,
		idToKey: make(map[string]uint64),
		keyToID: make(map[uint64]string),
	}, nil
}

func (h *HNSWIndex) Insert(ctx context.Context, id string, v []float32) error {
	return h.InsertBatch(ctx, []string{id}, [][]float32{v})
}

func (h *HNSWIndex) InsertBatch(ctx context.Context, ids []string, vs [][]float32) error {
	if len(ids) != len(vs) {
		return ErrBatchMismatch{IDs: len(ids), Vectors: len(vs)}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrIndexClosed
	}
	for _, v := range vs {
		if len(v) != h.cfg.Dimension {
			return ErrDimensionMismatch{Expected: h.cfg.Dimension, Got: len(v)}
		}
		if hasNonFinite(v) {
			return ErrDimensionMismatch{Expected: h.cfg.Dimension, Got: len(v)}
		}
	}

	for i, id := range ids {
		// Lazy delete: if id already exists, orphan its old graph node
		// rather than calling graph.Delete, which corrupts the graph when
		// the deleted node is the last one (upstream coder/hnsw bug).
		if oldKey, exists := h.idToKey[id]; exists {
			delete(h.keyToID, oldKey)
			delete(h.idToKey, id)
		}

		key := h.nextKey
		h.nextKey++

		vec := normalize(vs[i])
		h.graph.Add(hnsw.MakeNode(key, vec))

		h.idToKey[id] = key
		h.keyToID[key] = id
	}
	return nil
}

func (h *HNSWIndex) Remove(ctx context.Context, id string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if key, ok := h.idToKey[id]; ok {
		delete(h.keyToID, key)
		delete(h.idToKey, id)
	}
	return nil
}

func (h *HNSWIndex) Update(ctx context.Context, id string, v []float32) error {
	return h.Insert(ctx, id, v)
}

func (h *HNSWIndex) Search(ctx context.Context, q []float32, k int) ([]Result, error) {
	return h.SearchFiltered(ctx, q, nil, k)
}

func (h *HNSWIndex) SearchFiltered(ctx context.Context, q []float32, pred Predicate, k int) ([]Result, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return nil, ErrIndexClosed
	}
	if len(q) != h.cfg.Dimension {
		return nil, ErrDimensionMismatch{Expected: h.cfg.Dimension, Got: len(q)}
	}
	if h.graph.Len() == 0 {
		return []Result{}, nil
	}

	nq := normalize(q)

	// Over-fetch to absorb orphaned (lazily-deleted) nodes and filtered
	// candidates while still returning up to k live results.
	fetch := k
	if fetch < 32 {
		fetch = 32
	}
	fetch += h.graph.Len() - len(h.keyToID) // account for known orphans
	if fetch < k {
		fetch = k
	}
	if fetch > h.graph.Len() {
		fetch = h.graph.Len()
	}

	nodes := h.graph.Search(nq, fetch)
	out := make([]Result, 0, k)
	for _, node := range nodes {
		id, ok := h.keyToID[node.Key]
		if !ok {
			continue // orphaned by lazy delete
		}
		if pred != nil && !pred(id) {
			continue
		}
		dist := h.graph.Distance(nq, node.Value)
		sim := 1.0 - dist // CosineDistance is 1-cos in [0,2], so this recovers cos in [-1,1]
		out = append(out, Result{ID: id, Similarity: sim})
		if len(out) == k {
			break
		}
	}
	return out, nil
}

func (h *HNSWIndex) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.idToKey)
}

func (h *HNSWIndex) Dimension() int { return h.cfg.Dimension }

func (h *HNSWIndex) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.closed
}

func (h *HNSWIndex) Contains(id string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.idToKey[id]
	return ok
}

func (h *HNSWIndex) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.graph = nil
	return nil
}
