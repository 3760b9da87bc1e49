package vector

import (
	"context"
	"sort"
	"sync"
)

// IVFIndex is an inverted-file ANN index: vectors are partitioned into
// NList clusters by nearest centroid, and a search probes only the
// NProbe clusters closest to the query before ranking exactly within
// them (spec §4.2's "Disk-backed columnar... IVF-type index" with
// {nlist, nprobe} tuning).
//
// No example repo in the retrieval pack ships an IVF implementation (the
// teacher pairs an in-memory exact index with HNSW only), so this is
// built directly from the spec's description rather than adapted from a
// pack file — see DESIGN.md.
type IVFIndex struct {
	mu        sync.RWMutex
	dim       int
	nlist     int
	nprobe    int
	centroids [][]float32    // len <= nlist, normalised
	clusters  []map[string][]float32 // bucket i holds ids assigned to centroids[i]
	vecs      map[string][]float32   // id -> normalised vector, authoritative
	assigned  map[string]int         // id -> cluster index
	built     bool
	closed    bool
}

var _ Index = (*IVFIndex)(nil)

// NewIVFIndex creates an empty IVF index. Clustering is deferred until
// enough vectors have accumulated to seed NList centroids.
func NewIVFIndex(cfg Config) (*IVFIndex, error) {
	nlist := cfg.NList
	if nlist <= 0 {
		nlist = 64
	}
	nprobe := cfg.NProbe
	if nprobe <= 0 {
		nprobe = 8
	}
	return &IVFIndex{
		dim:      cfg.Dimension,
		nlist:    nlist,
		nprobe:   nprobe,
		vecs:     make(map[string][]float32),
		assigned: make(map[string]int),
	}, nil
}

func (ivf *IVFIndex) Insert(ctx context.Context, id string, v []float32) error {
	return ivf.InsertBatch(ctx, []string{id}, [][]float32{v})
}

func (ivf *IVFIndex) InsertBatch(ctx context.Context, ids []string, vs [][]float32) error {
	if len(ids) != len(vs) {
		return ErrBatchMismatch{IDs: len(ids), Vectors: len(vs)}
	}
	ivf.mu.Lock()
	defer ivf.mu.Unlock()
	for i, id := range ids {
		if len(vs[i]) != ivf.dim {
			return ErrDimensionMismatch{Expected: ivf.dim, Got: len(vs[i])}
		}
		if hasNonFinite(vs[i]) {
			return ErrDimensionMismatch{Expected: ivf.dim, Got: len(vs[i])}
		}
		ivf.removeLocked(id)
		ivf.vecs[id] = normalize(vs[i])
	}
	ivf.maybeRebuildLocked()
	return nil
}

func (ivf *IVFIndex) Remove(ctx context.Context, id string) error {
	ivf.mu.Lock()
	defer ivf.mu.Unlock()
	ivf.removeLocked(id)
	return nil
}

func (ivf *IVFIndex) removeLocked(id string) {
	if ci, ok := ivf.assigned[id]; ok {
		delete(ivf.clusters[ci], id)
		delete(ivf.assigned, id)
	}
	delete(ivf.vecs, id)
}

func (ivf *IVFIndex) Update(ctx context.Context, id string, v []float32) error {
	return ivf.Insert(ctx, id, v)
}

// maybeRebuildLocked (re)seeds centroids once the corpus has grown enough
// to support NList partitions, and assigns any unassigned vectors to
// their nearest centroid. Re-clustering from scratch is cheap enough for
// the corpus sizes this engine targets (single-process, spec §2) and
// avoids the complexity of incremental k-means.
func (ivf *IVFIndex) maybeRebuildLocked() {
	n := len(ivf.vecs)
	if n == 0 {
		return
	}
	targetCentroids := ivf.nlist
	if targetCentroids > n {
		targetCentroids = n
	}
	if ivf.built && len(ivf.centroids) == targetCentroids && len(ivf.assigned) == n {
		return
	}

	ids := make([]string, 0, n)
	for id := range ivf.vecs {
		ids = append(ids, id)
	}
	sort.Strings(ids) // deterministic seed order

	stride := n / targetCentroids
	if stride < 1 {
		stride = 1
	}
	centroids := make([][]float32, 0, targetCentroids)
	for i := 0; i < len(ids) && len(centroids) < targetCentroids; i += stride {
		centroids = append(centroids, append([]float32(nil), ivf.vecs[ids[i]]...))
	}
	if len(centroids) == 0 {
		centroids = append(centroids, append([]float32(nil), ivf.vecs[ids[0]]...))
	}

	clusters := make([]map[string][]float32, len(centroids))
	for i := range clusters {
		clusters[i] = make(map[string][]float32)
	}
	assigned := make(map[string]int, n)
	for _, id := range ids {
		v := ivf.vecs[id]
		best, bestSim := 0, float32(-2)
		for ci, c := range centroids {
			if sim := cosineSimilarity(v, c); sim > bestSim {
				best, bestSim = ci, sim
			}
		}
		clusters[best][id] = v
		assigned[id] = best
	}

	ivf.centroids = centroids
	ivf.clusters = clusters
	ivf.assigned = assigned
	ivf.built = true
}

func (ivf *IVFIndex) Search(ctx context.Context, q []float32, k int) ([]Result, error) {
	return ivf.SearchFiltered(ctx, q, nil, k)
}

func (ivf *IVFIndex) SearchFiltered(ctx context.Context, q []float32, pred Predicate, k int) ([]Result, error) {
	if len(q) != ivf.dim {
		return nil, ErrDimensionMismatch{Expected: ivf.dim, Got: len(q)}
	}
	nq := normalize(q)

	ivf.mu.RLock()
	defer ivf.mu.RUnlock()

	if len(ivf.centroids) == 0 {
		return []Result{}, nil
	}

	type centroidDist struct {
		idx int
		sim float32
	}
	cds := make([]centroidDist, len(ivf.centroids))
	for i, c := range ivf.centroids {
		cds[i] = centroidDist{idx: i, sim: cosineSimilarity(nq, c)}
	}
	sort.Slice(cds, func(i, j int) bool { return cds[i].sim > cds[j].sim })

	probe := ivf.nprobe
	if probe > len(cds) {
		probe = len(cds)
	}

	results := make([]Result, 0, k*4)
	for _, cd := range cds[:probe] {
		for id, v := range ivf.clusters[cd.idx] {
			if pred != nil && !pred(id) {
				continue
			}
			results = append(results, Result{ID: id, Similarity: cosineSimilarity(nq, v)})
		}
	}
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

func (ivf *IVFIndex) Count() int {
	ivf.mu.RLock()
	defer ivf.mu.RUnlock()
	return len(ivf.vecs)
}

func (ivf *IVFIndex) Dimension() int { return ivf.dim }

func (ivf *IVFIndex) IsReady() bool {
	ivf.mu.RLock()
	defer ivf.mu.RUnlock()
	return !ivf.closed
}

func (ivf *IVFIndex) Contains(id string) bool {
	ivf.mu.RLock()
	defer ivf.mu.RUnlock()
	_, ok := ivf.vecs[id]
	return ok
}

func (ivf *IVFIndex) Close() error {
	ivf.mu.Lock()
	defer ivf.mu.Unlock()
	ivf.closed = true
	ivf.vecs = nil
	ivf.clusters = nil
	return nil
}
