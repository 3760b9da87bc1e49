package engine

import "context"

// Stats is the engine-level snapshot returned by stats() (spec §4.6):
// node/edge counts, how many nodes carry an embedding, and the Memory
// Manager's current view of retention pressure.
type Stats struct {
	NodeCount     int
	EdgeCount     int
	EmbeddedCount int
	MemoryStats   MemoryStats
}

// MemoryStats summarizes the decay manager's configured retention
// behaviour, not a live recount (spec §4.4).
type MemoryStats struct {
	Model              string
	RetentionThreshold float64
}

// Stats reports node_count, edge_count, and embedded_count (spec §4.6
// stats(detailed)). embedded_count is the vector index's live entry count
// on both paths: detailed=true reads it from the index directly, and the
// default path reads the same count through Graph.EmbeddedCount, so both
// return the same figure (DESIGN.md open question decision #2).
func (e *Engine) Stats(ctx context.Context, detailed bool) (*Stats, error) {
	nodeCount, err := e.Graph.NodeCount(ctx)
	if err != nil {
		return nil, err
	}
	edgeCount, err := e.Graph.EdgeCount(ctx)
	if err != nil {
		return nil, err
	}

	embedded := e.Graph.EmbeddedCount()
	if detailed {
		embedded = e.vec.Count()
	}

	return &Stats{
		NodeCount:     nodeCount,
		EdgeCount:     edgeCount,
		EmbeddedCount: embedded,
		MemoryStats: MemoryStats{
			Model:              e.cfg.Decay.Model,
			RetentionThreshold: e.cfg.Decay.RetentionThreshold,
		},
	}, nil
}
