package graph

import (
	"container/heap"
	"context"

	"github.com/synton-db/syntondb/internal/syntonerr"
)

// TraversalResult is the (visited_nodes, visited_edges) pair bfs/dfs
// return (spec §4.3).
type TraversalResult struct {
	Nodes []ID
	Edges []Edge
}

// BFS walks breadth-first from start, stopping at whichever of
// depthLimit or nodeLimit is hit first. Nodes are yielded in the order
// first reached; expired edges are skipped. depthLimit == 0 returns just
// {start} with no edges.
func (s *Store) BFS(ctx context.Context, start ID, depthLimit, nodeLimit int, dir Direction, relFilter *Relation) (*TraversalResult, error) {
	if _, err := s.GetNode(ctx, start); err != nil {
		return nil, err
	}
	visited := map[ID]bool{start: true}
	order := []ID{start}
	var edges []Edge

	type frontierItem struct {
		id    ID
		depth int
	}
	frontier := []frontierItem{{start, 0}}

	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		if cur.depth >= depthLimit {
			continue
		}
		if nodeLimit > 0 && len(order) >= nodeLimit {
			break
		}

		neighbors, err := s.Neighbors(ctx, cur.id, dir, relFilter)
		if err != nil {
			return nil, err
		}
		for _, nb := range neighbors {
			if nb.Edge.Expired {
				continue
			}
			if visited[nb.NodeID] {
				continue
			}
			visited[nb.NodeID] = true
			order = append(order, nb.NodeID)
			edges = append(edges, nb.Edge)
			if nodeLimit > 0 && len(order) >= nodeLimit {
				break
			}
			frontier = append(frontier, frontierItem{nb.NodeID, cur.depth + 1})
		}
		if nodeLimit > 0 && len(order) >= nodeLimit {
			break
		}
	}

	return &TraversalResult{Nodes: order, Edges: edges}, nil
}

// DFS is BFS's depth-first analogue, same termination rules.
func (s *Store) DFS(ctx context.Context, start ID, depthLimit, nodeLimit int, dir Direction, relFilter *Relation) (*TraversalResult, error) {
	if _, err := s.GetNode(ctx, start); err != nil {
		return nil, err
	}
	visited := map[ID]bool{start: true}
	order := []ID{start}
	var edges []Edge

	var walk func(id ID, depth int) error
	walk = func(id ID, depth int) error {
		if depth >= depthLimit {
			return nil
		}
		if nodeLimit > 0 && len(order) >= nodeLimit {
			return nil
		}
		neighbors, err := s.Neighbors(ctx, id, dir, relFilter)
		if err != nil {
			return err
		}
		for _, nb := range neighbors {
			if nb.Edge.Expired || visited[nb.NodeID] {
				continue
			}
			visited[nb.NodeID] = true
			order = append(order, nb.NodeID)
			edges = append(edges, nb.Edge)
			if nodeLimit > 0 && len(order) >= nodeLimit {
				return nil
			}
			if err := walk(nb.NodeID, depth+1); err != nil {
				return err
			}
			if nodeLimit > 0 && len(order) >= nodeLimit {
				return nil
			}
		}
		return nil
	}
	if err := walk(start, 0); err != nil {
		return nil, err
	}
	return &TraversalResult{Nodes: order, Edges: edges}, nil
}

// pqItem is one entry in shortestPath's Dijkstra priority queue.
type pqItem struct {
	id   ID
	cost float64
}

type priorityQueue []pqItem

func (pq priorityQueue) Len() int            { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool  { return pq[i].cost < pq[j].cost }
func (pq priorityQueue) Swap(i, j int)       { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

// ShortestPath runs Dijkstra over edge weight transformed to cost 1-w
// (spec §4.3: "stronger relations prefer shorter cost"), bounded to
// maxHops edges. Returns (nil, nil) if unreachable within maxHops.
func (s *Store) ShortestPath(ctx context.Context, from, to ID, maxHops int) (*ReasoningPath, error) {
	if _, err := s.GetNode(ctx, from); err != nil {
		return nil, err
	}
	if _, err := s.GetNode(ctx, to); err != nil {
		return nil, err
	}
	if from == to {
		return &ReasoningPath{Nodes: []ID{from}, Confidence: 1, PathType: "shortest_path"}, nil
	}

	type state struct {
		cost  float64
		hops  int
		prev  ID
		edge  *Edge
		known bool
	}
	best := map[ID]state{from: {cost: 0, hops: 0, known: true}}

	pq := &priorityQueue{{id: from, cost: 0}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(pqItem)
		curState := best[cur.id]
		if cur.cost > curState.cost {
			continue // stale entry
		}
		if cur.id == to {
			break
		}
		if curState.hops >= maxHops {
			continue
		}

		neighbors, err := s.Neighbors(ctx, cur.id, Out, nil)
		if err != nil {
			return nil, err
		}
		for _, nb := range neighbors {
			if nb.Edge.Expired {
				continue
			}
			cost := cur.cost + float64(1-ClampWeight(nb.Edge.Weight))
			hops := curState.hops + 1
			existing, seen := best[nb.NodeID]
			if !seen || cost < existing.cost {
				edge := nb.Edge
				best[nb.NodeID] = state{cost: cost, hops: hops, prev: cur.id, edge: &edge, known: true}
				heap.Push(pq, pqItem{id: nb.NodeID, cost: cost})
			}
		}
	}

	destState, ok := best[to]
	if !ok || !destState.known || destState.hops > maxHops {
		return nil, nil
	}

	var nodes []ID
	var edges []Edge
	cursor := to
	for cursor != from {
		st := best[cursor]
		nodes = append([]ID{cursor}, nodes...)
		edges = append([]Edge{*st.edge}, edges...)
		cursor = st.prev
	}
	nodes = append([]ID{from}, nodes...)

	confidence := 1.0
	for _, e := range edges {
		confidence *= float64(ClampWeight(e.Weight))
	}

	return &ReasoningPath{
		Nodes:      nodes,
		Edges:      edges,
		Confidence: ClampUnit(confidence),
		PathType:   "shortest_path",
	}, nil
}

// Subgraph returns the union of BFS(radius) from each seed (spec §4.3),
// deduplicated by node id.
func (s *Store) Subgraph(ctx context.Context, seeds []ID, radius int) (*TraversalResult, error) {
	if len(seeds) == 0 {
		return nil, syntonerr.New(syntonerr.InvalidArgument, "subgraph requires at least one seed")
	}
	seenNodes := map[ID]bool{}
	seenEdges := map[EdgeKey]bool{}
	var nodes []ID
	var edges []Edge

	for _, seed := range seeds {
		result, err := s.BFS(ctx, seed, radius, 0, Both, nil)
		if err != nil {
			return nil, err
		}
		for _, id := range result.Nodes {
			if !seenNodes[id] {
				seenNodes[id] = true
				nodes = append(nodes, id)
			}
		}
		for _, e := range result.Edges {
			if !seenEdges[e.EdgeKey] {
				seenEdges[e.EdgeKey] = true
				edges = append(edges, e)
			}
		}
	}
	return &TraversalResult{Nodes: nodes, Edges: edges}, nil
}
