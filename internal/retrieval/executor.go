package retrieval

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/synton-db/syntondb/internal/decay"
	"github.com/synton-db/syntondb/internal/embed"
	"github.com/synton-db/syntondb/internal/graph"
	"github.com/synton-db/syntondb/internal/syntonerr"
	"github.com/synton-db/syntondb/internal/vector"
)

// ExecutorConfig carries execution-time bounds not derivable from a Plan.
type ExecutorConfig struct {
	// NodeLimit bounds a single seed's BFS expansion (spec §4.5.3's
	// "partial expansion (node limit hit)" failure mode).
	NodeLimit int
}

// DefaultExecutorConfig returns a conservative node-limit default.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{NodeLimit: 500}
}

// Executor runs a Plan against the live store capabilities (spec
// §4.5.3). It owns no state of its own beyond its dependencies.
type Executor struct {
	graphStore *graph.Store
	vec        vector.Index
	embedder   embed.Embedder
	memory     *decay.Manager
	cfg        ExecutorConfig
	logger     *slog.Logger
}

// NewExecutor wires an Executor over the engine's live capabilities.
func NewExecutor(graphStore *graph.Store, vec vector.Index, embedder embed.Embedder, memory *decay.Manager, cfg ExecutorConfig, logger *slog.Logger) *Executor {
	if cfg.NodeLimit <= 0 {
		cfg.NodeLimit = DefaultExecutorConfig().NodeLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{graphStore: graphStore, vec: vec, embedder: embedder, memory: memory, cfg: cfg, logger: logger}
}

// Execute runs plan to completion, fusing scores, sorting, truncating to
// plan.Limit, and touching every returned node (spec §4.5.3 steps 1-7).
func (ex *Executor) Execute(ctx context.Context, plan *Plan) (*QueryResult, error) {
	switch plan.Kind {
	case VectorOnly:
		return ex.executeVectorOnly(ctx, plan)
	case GraphOnly:
		return ex.executeGraphOnly(ctx, plan)
	case Hybrid:
		return ex.executeHybrid(ctx, plan)
	default:
		return nil, syntonerr.New(syntonerr.InvalidArgument, "unknown plan kind")
	}
}

// embedOrDegrade computes the query embedding, or reports degraded=true
// when no embedder is configured/available (spec §4.5.6: "Missing
// embedder -> degrade to text search; log once per query, not per node").
func (ex *Executor) embedOrDegrade(ctx context.Context, text string) (vec []float32, degraded bool, err error) {
	if ex.embedder == nil || !ex.embedder.Available(ctx) {
		ex.logger.Warn("embedder unavailable, degrading to text search", "query", text)
		return nil, true, nil
	}
	q, err := ex.embedder.Embed(ctx, text)
	if err != nil {
		ex.logger.Warn("embed failed, degrading to text search", "query", text, "error", err)
		return nil, true, nil
	}
	return q, false, nil
}

// textContainsSeeds is the degraded-mode fallback: a case-insensitive
// substring scan over node content, standing in for vector search.
func (ex *Executor) textContainsSeeds(ctx context.Context, text string, k int) ([]RankedNode, error) {
	needle := strings.ToLower(text)
	var hits []RankedNode
	err := ex.graphStore.ScanNodes(ctx, func(n *graph.Node) error {
		if strings.Contains(strings.ToLower(n.Content), needle) {
			hits = append(hits, RankedNode{Node: n, VectorScore: 1})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (ex *Executor) executeVectorOnly(ctx context.Context, plan *Plan) (*QueryResult, error) {
	q, degraded, err := ex.embedOrDegrade(ctx, plan.QueryText)
	if err != nil {
		return nil, err
	}

	var candidates []RankedNode
	if degraded {
		candidates, err = ex.textContainsSeeds(ctx, plan.QueryText, plan.KSeeds)
		if err != nil {
			return nil, err
		}
	} else {
		if ex.vec == nil || !ex.vec.IsReady() {
			return nil, syntonerr.New(syntonerr.RetrievalUnavailable, "vector index unavailable and no seed ids provided")
		}
		results, err := ex.vec.Search(ctx, q, plan.KSeeds)
		if err != nil {
			return nil, err
		}
		candidates, err = ex.resultsToRanked(ctx, results)
		if err != nil {
			return nil, err
		}
	}

	candidates = applyFilter(candidates, plan.Filter)
	fuseScores(candidates, 1, 0)
	return ex.finalize(ctx, candidates, plan, degraded)
}

func (ex *Executor) executeGraphOnly(ctx context.Context, plan *Plan) (*QueryResult, error) {
	seeds := plan.SeedIDs
	if len(seeds) == 0 {
		return nil, syntonerr.New(syntonerr.RetrievalUnavailable, "graph query requires at least one resolvable seed id")
	}

	reach, truncated, err := ex.expandSeeds(ctx, seeds, plan.Depth, plan.RelationFilt)
	if err != nil {
		return nil, err
	}

	candidates := make([]RankedNode, 0, len(reach))
	for id, r := range reach {
		n, err := ex.graphStore.GetNode(ctx, id)
		if err != nil {
			continue
		}
		graphScore := 0.0
		if plan.Depth+1 > 0 {
			graphScore = maxFloat(0, 1-float64(r.distance)/float64(plan.Depth+1)) * r.weightProduct
		}
		candidates = append(candidates, RankedNode{Node: n, GraphScore: graphScore, GraphDistance: r.distance})
	}
	candidates = applyFilter(candidates, plan.Filter)
	fuseScores(candidates, 0, 1)

	result, err := ex.finalize(ctx, candidates, plan, false)
	if err != nil {
		return nil, err
	}
	result.Truncated = result.Truncated || truncated
	return result, nil
}

func (ex *Executor) executeHybrid(ctx context.Context, plan *Plan) (*QueryResult, error) {
	q, degraded, err := ex.embedOrDegrade(ctx, plan.QueryText)
	if err != nil {
		return nil, err
	}

	var seedResults []vector.Result
	if !degraded {
		if ex.vec != nil && ex.vec.IsReady() {
			seedResults, err = ex.vec.Search(ctx, q, plan.KSeeds)
			if err != nil {
				return nil, err
			}
		} else {
			degraded = true
		}
	}

	if degraded {
		candidates, err := ex.textContainsSeeds(ctx, plan.QueryText, plan.KSeeds)
		if err != nil {
			return nil, err
		}
		candidates = applyFilter(candidates, plan.Filter)
		fuseScores(candidates, plan.Alpha, plan.Beta)
		return ex.finalize(ctx, candidates, plan, true)
	}

	vectorScores := make(map[graph.ID]float64, len(seedResults))
	seeds := make([]graph.ID, 0, len(seedResults))
	for _, r := range seedResults {
		id, err := graph.ParseID(r.ID)
		if err != nil {
			continue
		}
		vectorScores[id] = float64(r.Similarity)
		seeds = append(seeds, id)
	}

	reach, truncated, err := ex.expandSeeds(ctx, seeds, plan.Hops, nil)
	if err != nil {
		return nil, err
	}
	// Ensure seeds with no further expansion still appear as candidates.
	for _, id := range seeds {
		if _, ok := reach[id]; !ok {
			reach[id] = seedReach{distance: 0, weightProduct: 1}
		}
	}

	candidates := make([]RankedNode, 0, len(reach))
	for id, r := range reach {
		n, err := ex.graphStore.GetNode(ctx, id)
		if err != nil {
			continue
		}
		graphScore := maxFloat(0, 1-float64(r.distance)/float64(plan.Hops+1)) * r.weightProduct
		candidates = append(candidates, RankedNode{
			Node:          n,
			VectorScore:   vectorScores[id],
			GraphScore:    graphScore,
			GraphDistance: r.distance,
		})
	}
	candidates = applyFilter(candidates, plan.Filter)
	fuseScores(candidates, plan.Alpha, plan.Beta)

	result, err := ex.finalize(ctx, candidates, plan, false)
	if err != nil {
		return nil, err
	}
	result.Truncated = result.Truncated || truncated
	return result, nil
}

func (ex *Executor) resultsToRanked(ctx context.Context, results []vector.Result) ([]RankedNode, error) {
	out := make([]RankedNode, 0, len(results))
	for _, r := range results {
		id, err := graph.ParseID(r.ID)
		if err != nil {
			continue
		}
		n, err := ex.graphStore.GetNode(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, RankedNode{Node: n, VectorScore: float64(r.Similarity)})
	}
	return out, nil
}

func applyFilter(candidates []RankedNode, pred *filterPredicate) []RankedNode {
	if pred == nil {
		return candidates
	}
	out := candidates[:0]
	for _, c := range candidates {
		if (*pred)(c.Node) {
			out = append(out, c)
		}
	}
	return out
}

// finalize truncates to plan.Limit and touches every returned node
// (spec §4.5.3 steps 6-7).
func (ex *Executor) finalize(ctx context.Context, candidates []RankedNode, plan *Plan, degraded bool) (*QueryResult, error) {
	truncated := false
	if plan.Limit > 0 && len(candidates) > plan.Limit {
		candidates = candidates[:plan.Limit]
		truncated = true
	}
	for i := range candidates {
		candidates[i].Truncated = truncated
		if ex.memory != nil {
			if err := ex.memory.Touch(ctx, candidates[i].Node.ID); err != nil {
				return nil, err
			}
		}
	}
	return &QueryResult{Ranked: candidates, Truncated: truncated, DegradedText: degraded}, nil
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// seedReach records, per node reached during expansion, the minimum hop
// distance from any seed and the edge-weight product along the path that
// achieved it (spec §4.5.3 step 4's "Π edge_weight along the cheapest
// path from any seed").
type seedReach struct {
	distance      int
	weightProduct float64
}

// expandSeeds runs one BFS per seed concurrently via errgroup.Group
// (spec §6: "using errgroup to run the per-seed BFS expansions
// concurrently"), then merges the per-seed reach maps deterministically
// by node id — ordering within a single seed's BFS stays sequential, so
// the concurrency across seeds is invisible to callers.
func (ex *Executor) expandSeeds(ctx context.Context, seeds []graph.ID, hops int, relFilter *graph.Relation) (map[graph.ID]seedReach, bool, error) {
	perSeed := make([]map[graph.ID]seedReach, len(seeds))
	truncatedFlags := make([]bool, len(seeds))

	g, gctx := errgroup.WithContext(ctx)
	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			reach, truncated, err := ex.bfsFromSeed(gctx, seed, hops, relFilter)
			if err != nil {
				return err
			}
			perSeed[i] = reach
			truncatedFlags[i] = truncated
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	merged := make(map[graph.ID]seedReach)
	truncated := false
	for i, reach := range perSeed {
		truncated = truncated || truncatedFlags[i]
		for id, r := range reach {
			existing, ok := merged[id]
			if !ok || r.distance < existing.distance ||
				(r.distance == existing.distance && r.weightProduct > existing.weightProduct) {
				merged[id] = r
			}
		}
	}
	return merged, truncated, nil
}

// bfsFromSeed walks the graph breadth-first from seed up to hops deep,
// bounded by Executor.cfg.NodeLimit, tracking per-node hop distance and
// cumulative edge-weight product.
func (ex *Executor) bfsFromSeed(ctx context.Context, seed graph.ID, hops int, relFilter *graph.Relation) (map[graph.ID]seedReach, bool, error) {
	reach := map[graph.ID]seedReach{seed: {distance: 0, weightProduct: 1}}

	type frontierItem struct {
		id    graph.ID
		depth int
		prod  float64
	}
	frontier := []frontierItem{{seed, 0, 1}}
	truncated := false

	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		if cur.depth >= hops {
			continue
		}
		if len(reach) >= ex.cfg.NodeLimit {
			truncated = true
			break
		}
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}

		neighbors, err := ex.graphStore.Neighbors(ctx, cur.id, graph.Both, relFilter)
		if err != nil {
			return nil, false, err
		}
		for _, nb := range neighbors {
			if nb.Edge.Expired {
				continue
			}
			prod := cur.prod * float64(graph.ClampWeight(nb.Edge.Weight))
			depth := cur.depth + 1
			existing, seen := reach[nb.NodeID]
			if !seen || depth < existing.distance || (depth == existing.distance && prod > existing.weightProduct) {
				reach[nb.NodeID] = seedReach{distance: depth, weightProduct: prod}
			}
			if len(reach) >= ex.cfg.NodeLimit {
				truncated = true
				break
			}
			frontier = append(frontier, frontierItem{nb.NodeID, depth, prod})
		}
		if len(reach) >= ex.cfg.NodeLimit {
			truncated = true
			break
		}
	}
	return reach, truncated, nil
}
