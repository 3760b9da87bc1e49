package graph

import (
	"context"
	"math"
	"time"

	"github.com/synton-db/syntondb/internal/kvstore"
	"github.com/synton-db/syntondb/internal/syntonerr"
	"github.com/synton-db/syntondb/internal/vector"
)

// validateEmbedding rejects a vector carrying a NaN or infinite
// component before it ever reaches the vector index (spec §8 boundary:
// "Vector with NaN or ±∞ components -> InvalidArgument").
func validateEmbedding(v []float32) error {
	for _, f := range v {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return syntonerr.New(syntonerr.InvalidArgument, "embedding contains NaN or infinite component")
		}
	}
	return nil
}

// Store is the Tensor-Graph: the durable node/edge model (spec §3) over
// kvstore's column families, with vector.Index kept in lockstep for any
// node carrying an embedding. Every mutation that touches more than one
// column family commits through one kvstore WriteBatch so a crash
// mid-mutation never leaves nodes, edges, and adjacency indices
// disagreeing (I6); vector index updates are applied outside that batch.
type Store struct {
	kv  *kvstore.Store
	vec vector.Index
	now func() time.Time
}

// Option customizes a Store at construction.
type Option func(*Store)

// WithClock overrides the wall clock, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore wires a Tensor-Graph over an already-open kv store and vector
// index (both owned by the caller — typically the engine facade).
func NewStore(kv *kvstore.Store, vec vector.Index, opts ...Option) *Store {
	s := &Store{kv: kv, vec: vec, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// InsertNode persists a new node (spec §4.1 insert_node). If n.ID is the
// zero value a fresh id is allocated. If n.Embedding is non-nil it is
// inserted into the vector index in the same logical operation (the
// index write happens outside the kv transaction since vector.Index has
// its own durability story, but the node record is the source of truth
// for "has this node been embedded" — see engine.Open's reconcileVectorIndex).
func (s *Store) InsertNode(ctx context.Context, n *Node) (ID, error) {
	if n.ID == (ID{}) {
		n.ID = NewID()
	}
	if n.Content == "" {
		return ID{}, syntonerr.New(syntonerr.InvalidArgument, "node content must not be empty")
	}
	if len(n.Content) > MaxContentBytes {
		return ID{}, syntonerr.New(syntonerr.InvalidArgument, "node content exceeds maximum size")
	}
	if n.Embedding != nil {
		if err := validateEmbedding(n.Embedding); err != nil {
			return ID{}, err
		}
	}
	now := s.now()
	if n.Meta.CreatedAt.IsZero() {
		n.Meta.CreatedAt = now
	}
	n.Meta.UpdatedAt = now
	n.Meta.Confidence = ClampUnit(n.Meta.Confidence)
	n.Meta.AccessScore = ClampAccessScore(n.Meta.AccessScore)

	data, err := encodeNode(n)
	if err != nil {
		return ID{}, syntonerr.Wrap(syntonerr.Storage, "encode node", err)
	}
	if err := s.kv.Put(kvstore.CFNodes, nodeKey(n.ID), data); err != nil {
		return ID{}, err
	}
	if n.Embedding != nil {
		if err := s.vec.Insert(ctx, n.ID.String(), n.Embedding); err != nil {
			return ID{}, syntonerr.Wrap(syntonerr.DimensionMismatch, "index node embedding", err)
		}
	}
	return n.ID, nil
}

// GetNode fetches a node by id (spec §4.1 get_node).
func (s *Store) GetNode(ctx context.Context, id ID) (*Node, error) {
	data, ok, err := s.kv.Get(kvstore.CFNodes, nodeKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, syntonerr.New(syntonerr.NotFound, "node not found: "+id.String())
	}
	return decodeNode(id, data)
}

// UpdateNode overwrites a node's mutable fields, keeping CreatedAt and
// bumping UpdatedAt. If the embedding changed, the vector index entry is
// updated (or removed, if the new embedding is nil) to match.
func (s *Store) UpdateNode(ctx context.Context, n *Node) error {
	existing, err := s.GetNode(ctx, n.ID)
	if err != nil {
		return err
	}
	if n.Content == "" {
		return syntonerr.New(syntonerr.InvalidArgument, "node content must not be empty")
	}
	if len(n.Content) > MaxContentBytes {
		return syntonerr.New(syntonerr.InvalidArgument, "node content exceeds maximum size")
	}
	if n.Embedding != nil {
		if err := validateEmbedding(n.Embedding); err != nil {
			return err
		}
	}
	n.Meta.CreatedAt = existing.Meta.CreatedAt
	n.Meta.UpdatedAt = s.now()
	n.Meta.Confidence = ClampUnit(n.Meta.Confidence)
	n.Meta.AccessScore = ClampAccessScore(n.Meta.AccessScore)

	data, err := encodeNode(n)
	if err != nil {
		return syntonerr.Wrap(syntonerr.Storage, "encode node", err)
	}
	if err := s.kv.Put(kvstore.CFNodes, nodeKey(n.ID), data); err != nil {
		return err
	}

	switch {
	case n.Embedding != nil:
		if err := s.vec.Update(ctx, n.ID.String(), n.Embedding); err != nil {
			return syntonerr.Wrap(syntonerr.DimensionMismatch, "update node embedding", err)
		}
	case existing.Embedding != nil:
		if err := s.vec.Remove(ctx, n.ID.String()); err != nil {
			return syntonerr.Wrap(syntonerr.Storage, "remove stale embedding", err)
		}
	}
	return nil
}

// DeleteNode removes a node and cascades to every edge touching it, on
// both sides of the adjacency indices, plus its vector-index entry (spec
// §4.1 delete_node "cascades to incident edges").
func (s *Store) DeleteNode(ctx context.Context, id ID) error {
	if _, err := s.GetNode(ctx, id); err != nil {
		if syntonerr.Is(err, syntonerr.NotFound) {
			return nil // idempotent on missing id, spec §3 lifecycle
		}
		return err
	}

	ops := []kvstore.Op{{CF: kvstore.CFNodes, Key: nodeKey(id), IsDelete: true}}

	outKVs, err := s.kv.ScanAll(kvstore.CFEdgesOut, id[:])
	if err != nil {
		return err
	}
	for _, kv := range outKVs {
		rel, target, err := decodeEdgesOutKey(id, kv.Key)
		if err != nil {
			return syntonerr.Wrap(syntonerr.Corrupted, "decode outgoing adjacency key", err)
		}
		k := EdgeKey{Source: id, Target: target, Relation: rel}
		ops = append(ops,
			kvstore.Op{CF: kvstore.CFEdges, Key: edgeKey(k), IsDelete: true},
			kvstore.Op{CF: kvstore.CFEdgesOut, Key: kv.Key, IsDelete: true},
			kvstore.Op{CF: kvstore.CFEdgesIn, Key: edgesInKey(k), IsDelete: true},
		)
	}

	inKVs, err := s.kv.ScanAll(kvstore.CFEdgesIn, id[:])
	if err != nil {
		return err
	}
	for _, kv := range inKVs {
		rel, source, err := decodeEdgesOutKey(id, kv.Key)
		if err != nil {
			return syntonerr.Wrap(syntonerr.Corrupted, "decode incoming adjacency key", err)
		}
		k := EdgeKey{Source: source, Target: id, Relation: rel}
		ops = append(ops,
			kvstore.Op{CF: kvstore.CFEdges, Key: edgeKey(k), IsDelete: true},
			kvstore.Op{CF: kvstore.CFEdgesOut, Key: edgesOutKey(k), IsDelete: true},
			kvstore.Op{CF: kvstore.CFEdgesIn, Key: kv.Key, IsDelete: true},
		)
	}

	if err := s.kv.WriteBatch(ops); err != nil {
		return err
	}
	if s.vec.Contains(id.String()) {
		if err := s.vec.Remove(ctx, id.String()); err != nil {
			return syntonerr.Wrap(syntonerr.Storage, "remove deleted node's embedding", err)
		}
	}
	return nil
}

// InsertEdge adds a typed weighted edge (spec §4.1 insert_edge),
// enforcing I3 (no edge to/from a nonexistent node — DanglingEdge) and I4
// (no self-loop for relations that forbid it).
func (s *Store) InsertEdge(ctx context.Context, e *Edge) error {
	if e.Source == e.Target && e.Relation.ForbidsSelfLoop() {
		return syntonerr.New(syntonerr.InvalidArgument, "relation "+string(e.Relation)+" forbids self-loops")
	}
	if _, err := s.GetNode(ctx, e.Source); err != nil {
		return syntonerr.Wrap(syntonerr.DanglingEdge, "edge source does not exist", err)
	}
	if _, err := s.GetNode(ctx, e.Target); err != nil {
		return syntonerr.Wrap(syntonerr.DanglingEdge, "edge target does not exist", err)
	}

	e.Weight = ClampWeight(e.Weight)
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	data, err := encodeEdge(e)
	if err != nil {
		return syntonerr.Wrap(syntonerr.Storage, "encode edge", err)
	}

	ops := []kvstore.Op{
		{CF: kvstore.CFEdges, Key: edgeKey(e.EdgeKey), Value: data},
		{CF: kvstore.CFEdgesOut, Key: edgesOutKey(e.EdgeKey), Value: data},
		{CF: kvstore.CFEdgesIn, Key: edgesInKey(e.EdgeKey), Value: data},
	}
	return s.kv.WriteBatch(ops)
}

// GetEdge fetches a single edge by its (source, target, relation) key.
func (s *Store) GetEdge(ctx context.Context, k EdgeKey) (*Edge, error) {
	data, ok, err := s.kv.Get(kvstore.CFEdges, edgeKey(k))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, syntonerr.New(syntonerr.NotFound, "edge not found")
	}
	return decodeEdge(k, data)
}

// DeleteEdge removes a single edge from all three edge column families.
func (s *Store) DeleteEdge(ctx context.Context, k EdgeKey) error {
	if _, err := s.GetEdge(ctx, k); err != nil {
		return err
	}
	ops := []kvstore.Op{
		{CF: kvstore.CFEdges, Key: edgeKey(k), IsDelete: true},
		{CF: kvstore.CFEdgesOut, Key: edgesOutKey(k), IsDelete: true},
		{CF: kvstore.CFEdgesIn, Key: edgesInKey(k), IsDelete: true},
	}
	return s.kv.WriteBatch(ops)
}

// SupersedeEdge marks an existing edge Expired and points it at a
// replacement, then inserts the replacement edge, both atomically (spec
// §4.5.5's contradiction-resolution "supersede" operation, scenario S4).
func (s *Store) SupersedeEdge(ctx context.Context, old EdgeKey, replacement *Edge) error {
	oldEdge, err := s.GetEdge(ctx, old)
	if err != nil {
		return err
	}
	if replacement.Source == replacement.Target && replacement.Relation.ForbidsSelfLoop() {
		return syntonerr.New(syntonerr.InvalidArgument, "relation "+string(replacement.Relation)+" forbids self-loops")
	}
	if _, err := s.GetNode(ctx, replacement.Source); err != nil {
		return syntonerr.Wrap(syntonerr.DanglingEdge, "replacement edge source does not exist", err)
	}
	if _, err := s.GetNode(ctx, replacement.Target); err != nil {
		return syntonerr.Wrap(syntonerr.DanglingEdge, "replacement edge target does not exist", err)
	}

	replacement.Weight = ClampWeight(replacement.Weight)
	if replacement.CreatedAt.IsZero() {
		replacement.CreatedAt = s.now()
	}
	replacementID := NewID()
	replacement.Attributes = withReplacementMarker(replacement.Attributes, replacementID)

	oldEdge.Expired = true
	oldEdge.ReplacedBy = &replacementID
	oldData, err := encodeEdge(oldEdge)
	if err != nil {
		return syntonerr.Wrap(syntonerr.Storage, "encode superseded edge", err)
	}
	newData, err := encodeEdge(replacement)
	if err != nil {
		return syntonerr.Wrap(syntonerr.Storage, "encode replacement edge", err)
	}

	ops := []kvstore.Op{
		{CF: kvstore.CFEdges, Key: edgeKey(old), Value: oldData},
		{CF: kvstore.CFEdgesOut, Key: edgesOutKey(old), Value: oldData},
		{CF: kvstore.CFEdgesIn, Key: edgesInKey(old), Value: oldData},
		{CF: kvstore.CFEdges, Key: edgeKey(replacement.EdgeKey), Value: newData},
		{CF: kvstore.CFEdgesOut, Key: edgesOutKey(replacement.EdgeKey), Value: newData},
		{CF: kvstore.CFEdgesIn, Key: edgesInKey(replacement.EdgeKey), Value: newData},
	}
	return s.kv.WriteBatch(ops)
}

// withReplacementMarker stamps the replacement's synthetic id into its
// attribute bag so ReplacedBy can be resolved back to a concrete edge
// even though EdgeKey itself carries no surrogate id.
func withReplacementMarker(attrs map[string]any, id ID) map[string]any {
	if attrs == nil {
		attrs = make(map[string]any, 1)
	}
	attrs["_replacement_id"] = id.String()
	return attrs
}

// ScanNodes walks every node in id order, invoking fn for each. It is
// used by the decay sweep (spec §4.4), by export, by the retrieval
// executor, and by engine.Open's vector-index reconciliation; fn
// returning an error stops the scan early.
func (s *Store) ScanNodes(ctx context.Context, fn func(*Node) error) error {
	kvs, err := s.kv.ScanAll(kvstore.CFNodes, nil)
	if err != nil {
		return err
	}
	for _, kv := range kvs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var id ID
		copy(id[:], kv.Key)
		n, err := decodeNode(id, kv.Value)
		if err != nil {
			return syntonerr.Wrap(syntonerr.Corrupted, "decode node during scan", err)
		}
		if err := fn(n); err != nil {
			return err
		}
	}
	return nil
}

// ScanEdges walks every edge in the `edges` column family, including
// expired ones left behind by SupersedeEdge, for export() (spec §4.6).
func (s *Store) ScanEdges(ctx context.Context, fn func(*Edge) error) error {
	kvs, err := s.kv.ScanAll(kvstore.CFEdges, nil)
	if err != nil {
		return err
	}
	for _, kv := range kvs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if len(kv.Key) < 32 {
			return syntonerr.New(syntonerr.Corrupted, "edge key too short during scan")
		}
		var source, target ID
		copy(source[:], kv.Key[:16])
		copy(target[:], kv.Key[16:32])
		relation, _, err := decodeRelationTag(kv.Key[32:])
		if err != nil {
			return syntonerr.Wrap(syntonerr.Corrupted, "decode edge key during scan", err)
		}
		key := EdgeKey{Source: source, Target: target, Relation: relation}
		e, err := decodeEdge(key, kv.Value)
		if err != nil {
			return syntonerr.Wrap(syntonerr.Corrupted, "decode edge during scan", err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

// PutNodeRaw writes back a node record as-is, without touching
// CreatedAt/UpdatedAt or the vector index — used by the decay sweep to
// rewrite only access_score/accessed_at (spec §4.4: a sweep "rewrites
// stale access_score/accessed_at fields").
func (s *Store) PutNodeRaw(n *Node) error {
	data, err := encodeNode(n)
	if err != nil {
		return syntonerr.Wrap(syntonerr.Storage, "encode node", err)
	}
	return s.kv.Put(kvstore.CFNodes, nodeKey(n.ID), data)
}

// NodeCount returns the number of nodes currently stored, for
// stats()/detailed recount (spec §4.6).
func (s *Store) NodeCount(ctx context.Context) (int, error) {
	kvs, err := s.kv.ScanAll(kvstore.CFNodes, nil)
	if err != nil {
		return 0, err
	}
	return len(kvs), nil
}

// EdgeCount returns the number of edges currently stored, including
// expired ones left in place by SupersedeEdge, for stats() (spec §4.6).
func (s *Store) EdgeCount(ctx context.Context) (int, error) {
	kvs, err := s.kv.ScanAll(kvstore.CFEdges, nil)
	if err != nil {
		return 0, err
	}
	return len(kvs), nil
}

// EmbeddedCount returns the live count of nodes currently present in the
// vector index, for stats() on both its default and detailed paths
// (DESIGN.md open question decision #2).
func (s *Store) EmbeddedCount() int {
	return s.vec.Count()
}

// Touch bumps a node's access bookkeeping (spec §4.4 touch): AccessedAt
// to now, AccessScore incremented and reclamped to [0, 10] (I2). The
// rewritten node row and its access_log event land in one batch.
func (s *Store) Touch(ctx context.Context, id ID, delta float64) error {
	n, err := s.GetNode(ctx, id)
	if err != nil {
		return err
	}
	now := s.now()
	n.Meta.AccessedAt = &now
	n.Meta.AccessScore = ClampAccessScore(n.Meta.AccessScore + delta)
	data, err := encodeNode(n)
	if err != nil {
		return syntonerr.Wrap(syntonerr.Storage, "encode node", err)
	}
	event, err := encodeAccessEvent(delta, n.Meta.AccessScore)
	if err != nil {
		return syntonerr.Wrap(syntonerr.Storage, "encode access event", err)
	}
	return s.kv.WriteBatch([]kvstore.Op{
		{CF: kvstore.CFNodes, Key: nodeKey(id), Value: data},
		{CF: kvstore.CFAccessLog, Key: accessLogKey(id, now), Value: event},
	})
}

// AccessLog returns id's recorded touch events in timestamp order.
func (s *Store) AccessLog(ctx context.Context, id ID) ([]AccessEvent, error) {
	kvs, err := s.kv.ScanAll(kvstore.CFAccessLog, id[:])
	if err != nil {
		return nil, err
	}
	out := make([]AccessEvent, 0, len(kvs))
	for _, kv := range kvs {
		ev, err := decodeAccessEvent(kv.Key, kv.Value)
		if err != nil {
			return nil, syntonerr.Wrap(syntonerr.Corrupted, "decode access event", err)
		}
		out = append(out, ev)
	}
	return out, nil
}
