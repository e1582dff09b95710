package aggregates

import (
	"github.com/emirpasic/gods/queues/linkedlistqueue"
	"github.com/emirpasic/gods/sets/hashset"

	"graph-engine/domain/core/entities"
)

// TraversalRecord pairs a node with the depth at which the explorer first reached it.
type TraversalRecord struct {
	Node  *entities.Node `json:"node"`
	Depth int            `json:"depth"`
}

// FindShortestPath runs a breadth-first search over path copies from sourceID to targetID.
//
// maxDepth bounds the number of nodes in a returned path: a path is only extended while it holds
// fewer than maxDepth nodes. This differs from ExploreNeighborhood, where maxDepth bounds the edge
// distance from the start. The visited set is shared by the whole search, so the result is one
// shortest path among possibly several. A nil slice means no path exists within the bound.
func (g *Graph) FindShortestPath(sourceID, targetID string, maxDepth int) []string {
	queue := linkedlistqueue.New()
	visited := hashset.New()

	queue.Enqueue([]string{sourceID})
	visited.Add(sourceID)

	for !queue.Empty() {
		value, _ := queue.Dequeue()
		path := value.([]string)
		current := path[len(path)-1]

		if current == targetID {
			return path
		}

		for _, edge := range g.Edges(current) {
			if visited.Contains(edge.To) || len(path) >= maxDepth {
				continue
			}
			visited.Add(edge.To)

			next := make([]string, len(path), len(path)+1)
			copy(next, path)
			queue.Enqueue(append(next, edge.To))
		}
	}

	return nil
}

// ExploreNeighborhood walks the graph depth-first from startID and records every node reachable
// within maxDepth edges, each at the depth of its first discovery. Ids that are not graph nodes
// (an unknown start, a dangling target) are skipped. Output order follows edge insertion order.
func (g *Graph) ExploreNeighborhood(startID string, maxDepth int) []TraversalRecord {
	records := make([]TraversalRecord, 0)
	visited := hashset.New()

	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		if depth > maxDepth || visited.Contains(id) {
			return
		}
		v, ok := g.vertices[id]
		if !ok {
			return
		}
		visited.Add(id)
		records = append(records, TraversalRecord{Node: v.node, Depth: depth})

		for _, edge := range v.edges {
			visit(edge.To, depth+1)
		}
	}

	visit(startID, 0)
	return records
}

// ResolvePath maps node ids back to their records. Ids without a record resolve to nil.
func (g *Graph) ResolvePath(ids []string) []*entities.Node {
	nodes := make([]*entities.Node, len(ids))
	for i, id := range ids {
		nodes[i] = g.Node(id)
	}
	return nodes
}
