package aggregates

import (
	"graph-engine/domain/core/entities"
)

// Edge is an outgoing adjacency entry. To may reference a node that was not loaded.
type Edge struct {
	To           string
	Relationship *entities.Relationship
}

type vertex struct {
	node  *entities.Node
	edges []Edge
}

// Graph is the per-request directed adjacency list built from a store snapshot.
// It is private to one request and never mutated after NewGraph returns.
type Graph struct {
	vertices      map[string]*vertex
	relationships []*entities.Relationship
	edgeCount     int
	droppedEdges  int
}

// NewGraph builds the adjacency list. Every node gets an entry; a relationship becomes an edge
// only when its source node was loaded. Relationships with an unknown source are skipped, and
// targets are not checked. Edge order follows the relationship order given.
func NewGraph(nodes []*entities.Node, relationships []*entities.Relationship) *Graph {
	g := &Graph{
		vertices:      make(map[string]*vertex, len(nodes)),
		relationships: relationships,
	}

	for _, node := range nodes {
		if node == nil {
			continue
		}
		g.vertices[node.ID] = &vertex{node: node}
	}

	for _, rel := range relationships {
		if rel == nil {
			continue
		}
		v, ok := g.vertices[rel.FromNodeID]
		if !ok {
			g.droppedEdges++
			continue
		}
		v.edges = append(v.edges, Edge{To: rel.ToNodeID, Relationship: rel})
		g.edgeCount++
	}

	return g
}

// HasNode reports whether id was loaded.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.vertices[id]
	return ok
}

// Node resolves an id to its record, or nil when the id is unknown.
func (g *Graph) Node(id string) *entities.Node {
	if v, ok := g.vertices[id]; ok {
		return v.node
	}
	return nil
}

// Edges returns the outgoing edges of id in insertion order.
func (g *Graph) Edges(id string) []Edge {
	if v, ok := g.vertices[id]; ok {
		return v.edges
	}
	return nil
}

// Relationships returns the raw relationship list, including those dropped from the adjacency list.
func (g *Graph) Relationships() []*entities.Relationship {
	return g.relationships
}

func (g *Graph) NodeCount() int {
	return len(g.vertices)
}

func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// DroppedEdges is the number of relationships whose source node was missing.
func (g *Graph) DroppedEdges() int {
	return g.droppedEdges
}
