package vector

import (
	"context"
	"sync"
)

// AutoIndex starts as a Flat (exact) index and promotes itself to HNSW
// once the corpus crosses cfg.AutoThreshold, matching spec §4.2's "Auto:
// picks flat for small corpora, hnsw once cardinality crosses a
// threshold". Once promoted it never demotes back to Flat.
type AutoIndex struct {
	mu        sync.RWMutex
	cfg       Config
	threshold int
	active    Index
	promoted  bool
}

var _ Index = (*AutoIndex)(nil)

// NewAutoIndex builds a self-promoting index for cfg.
func NewAutoIndex(cfg Config) (*AutoIndex, error) {
	threshold := cfg.AutoThreshold
	if threshold <= 0 {
		threshold = 1000
	}
	return &AutoIndex{
		cfg:       cfg,
		threshold: threshold,
		active:    NewMemoryIndex(cfg.Dimension),
	}, nil
}

// maybePromoteLocked swaps the Flat backend for an HNSW one, carrying
// over every vector currently indexed. Promotion is one-way: once the
// corpus has proven large it stays on the ANN backend even if entries
// are later removed below the threshold, avoiding churn.
func (a *AutoIndex) maybePromoteLocked(ctx context.Context) error {
	if a.promoted || a.active.Count() < a.threshold {
		return nil
	}
	flat, ok := a.active.(*MemoryIndex)
	if !ok {
		return nil
	}

	hnswCfg := a.cfg
	hnswCfg.Type = Hnsw
	next, err := NewHNSWIndex(hnswCfg)
	if err != nil {
		return err
	}

	flat.mu.RLock()
	ids := make([]string, 0, len(flat.vecs))
	vecs := make([][]float32, 0, len(flat.vecs))
	for id, v := range flat.vecs {
		ids = append(ids, id)
		vecs = append(vecs, v)
	}
	flat.mu.RUnlock()

	if len(ids) > 0 {
		if err := next.InsertBatch(ctx, ids, vecs); err != nil {
			return err
		}
	}

	a.active = next
	a.promoted = true
	return nil
}

func (a *AutoIndex) Insert(ctx context.Context, id string, v []float32) error {
	return a.InsertBatch(ctx, []string{id}, [][]float32{v})
}

func (a *AutoIndex) InsertBatch(ctx context.Context, ids []string, vs [][]float32) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.active.InsertBatch(ctx, ids, vs); err != nil {
		return err
	}
	return a.maybePromoteLocked(ctx)
}

func (a *AutoIndex) Remove(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active.Remove(ctx, id)
}

func (a *AutoIndex) Update(ctx context.Context, id string, v []float32) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.active.Update(ctx, id, v); err != nil {
		return err
	}
	return a.maybePromoteLocked(ctx)
}

func (a *AutoIndex) Search(ctx context.Context, q []float32, k int) ([]Result, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active.Search(ctx, q, k)
}

func (a *AutoIndex) SearchFiltered(ctx context.Context, q []float32, pred Predicate, k int) ([]Result, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active.SearchFiltered(ctx, q, pred, k)
}

func (a *AutoIndex) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active.Count()
}

func (a *AutoIndex) Dimension() int { return a.cfg.Dimension }

func (a *AutoIndex) IsReady() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active.IsReady()
}

func (a *AutoIndex) Contains(id string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.active.Contains(id)
}

func (a *AutoIndex) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active.Close()
}

// Backend reports which concrete backend is currently active, useful for
// tests and stats() reporting.
func (a *AutoIndex) Backend() IndexType {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.promoted {
		return Hnsw
	}
	return Flat
}
