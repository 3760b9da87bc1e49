package graph

import (
	"context"

	"github.com/synton-db/syntondb/internal/kvstore"
	"github.com/synton-db/syntondb/internal/syntonerr"
)

// Neighbor is one adjacency-index hit: the relation the edge carries and
// the node at the other end.
type Neighbor struct {
	Relation Relation
	NodeID   ID
	Edge     Edge
}

// Neighbors enumerates a node's incident edges in the given direction,
// optionally restricted to one relation (spec §4.1 get_edges_out/in):
// O(degree) thanks to the edges_out/edges_in prefix layout (spec §6),
// never O(|E|).
func (s *Store) Neighbors(ctx context.Context, id ID, dir Direction, rel *Relation) ([]Neighbor, error) {
	switch dir {
	case Out:
		return s.scanAdjacency(ctx, kvstore.CFEdgesOut, id, rel, true)
	case In:
		return s.scanAdjacency(ctx, kvstore.CFEdgesIn, id, rel, false)
	case Both:
		out, err := s.scanAdjacency(ctx, kvstore.CFEdgesOut, id, rel, true)
		if err != nil {
			return nil, err
		}
		in, err := s.scanAdjacency(ctx, kvstore.CFEdgesIn, id, rel, false)
		if err != nil {
			return nil, err
		}
		return append(out, in...), nil
	default:
		return nil, syntonerr.New(syntonerr.InvalidArgument, "unknown direction")
	}
}

func (s *Store) scanAdjacency(ctx context.Context, cf string, anchor ID, filterRel *Relation, anchorIsSource bool) ([]Neighbor, error) {
	prefix := anchor[:]
	if filterRel != nil {
		prefix = append(append([]byte(nil), anchor[:]...), encodeRelationTag(*filterRel)...)
	}

	kvs, err := s.kv.ScanAll(cf, prefix)
	if err != nil {
		return nil, err
	}

	out := make([]Neighbor, 0, len(kvs))
	for _, kv := range kvs {
		rel, other, err := decodeEdgesOutKey(anchor, kv.Key)
		if err != nil {
			return nil, syntonerr.Wrap(syntonerr.Corrupted, "decode adjacency key", err)
		}
		var ek EdgeKey
		if anchorIsSource {
			ek = EdgeKey{Source: anchor, Target: other, Relation: rel}
		} else {
			ek = EdgeKey{Source: other, Target: anchor, Relation: rel}
		}
		edge, err := decodeEdge(ek, kv.Value)
		if err != nil {
			return nil, syntonerr.Wrap(syntonerr.Corrupted, "decode edge record", err)
		}
		out = append(out, Neighbor{Relation: rel, NodeID: other, Edge: *edge})
	}
	return out, nil
}

// Degree returns the number of edges incident to id in the given
// direction, without materializing neighbour records.
func (s *Store) Degree(ctx context.Context, id ID, dir Direction) (int, error) {
	neighbors, err := s.Neighbors(ctx, id, dir, nil)
	if err != nil {
		return 0, err
	}
	return len(neighbors), nil
}
