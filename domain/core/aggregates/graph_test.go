package aggregates

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"graph-engine/domain/core/entities"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func node(id string) *entities.Node {
	return &entities.Node{ID: id, Label: "Node " + id, NodeType: "concept", CreatedAt: baseTime}
}

func rel(from, to string) *entities.Relationship {
	return &entities.Relationship{
		ID:               from + "->" + to,
		FromNodeID:       from,
		ToNodeID:         to,
		RelationshipType: "related_to",
		CreatedAt:        baseTime,
	}
}

// diamond is A->B, B->C, A->D, D->C.
func diamond() *Graph {
	return NewGraph(
		[]*entities.Node{node("A"), node("B"), node("C"), node("D")},
		[]*entities.Relationship{rel("A", "B"), rel("B", "C"), rel("A", "D"), rel("D", "C")},
	)
}

func TestNewGraph(t *testing.T) {
	tests := []struct {
		name         string
		nodes        []*entities.Node
		rels         []*entities.Relationship
		wantNodes    int
		wantEdges    int
		wantDropped  int
		wantEdgesOfA []string
	}{
		{
			name:      "empty inputs",
			wantNodes: 0,
			wantEdges: 0,
		},
		{
			name:         "edges keep insertion order",
			nodes:        []*entities.Node{node("A"), node("B"), node("C")},
			rels:         []*entities.Relationship{rel("A", "C"), rel("A", "B")},
			wantNodes:    3,
			wantEdges:    2,
			wantEdgesOfA: []string{"C", "B"},
		},
		{
			name:         "missing source is dropped",
			nodes:        []*entities.Node{node("A")},
			rels:         []*entities.Relationship{rel("X", "A"), rel("A", "A")},
			wantNodes:    1,
			wantEdges:    1,
			wantDropped:  1,
			wantEdgesOfA: []string{"A"},
		},
		{
			name:         "missing target is kept",
			nodes:        []*entities.Node{node("A")},
			rels:         []*entities.Relationship{rel("A", "Z")},
			wantNodes:    1,
			wantEdges:    1,
			wantEdgesOfA: []string{"Z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph(tt.nodes, tt.rels)

			assert.Equal(t, tt.wantNodes, g.NodeCount())
			assert.Equal(t, tt.wantEdges, g.EdgeCount())
			assert.Equal(t, tt.wantDropped, g.DroppedEdges())
			assert.Len(t, g.Relationships(), len(tt.rels))

			var targets []string
			for _, e := range g.Edges("A") {
				targets = append(targets, e.To)
			}
			assert.Equal(t, tt.wantEdgesOfA, targets)
		})
	}
}

func TestGraph_Node(t *testing.T) {
	g := diamond()

	require.NotNil(t, g.Node("B"))
	assert.Equal(t, "Node B", g.Node("B").Label)
	assert.Nil(t, g.Node("missing"))
	assert.True(t, g.HasNode("C"))
	assert.False(t, g.HasNode("missing"))
	assert.Nil(t, g.Edges("missing"))
}

func TestFindShortestPath(t *testing.T) {
	tests := []struct {
		name     string
		graph    *Graph
		source   string
		target   string
		maxDepth int
		want     []string
	}{
		{
			name:     "diamond follows first edge",
			graph:    diamond(),
			source:   "A",
			target:   "C",
			maxDepth: 5,
			want:     []string{"A", "B", "C"},
		},
		{
			name:     "max depth counts nodes",
			graph:    diamond(),
			source:   "A",
			target:   "C",
			maxDepth: 3,
			want:     []string{"A", "B", "C"},
		},
		{
			name:     "max depth too small",
			graph:    diamond(),
			source:   "A",
			target:   "C",
			maxDepth: 2,
			want:     nil,
		},
		{
			name:     "edges are directed",
			graph:    diamond(),
			source:   "C",
			target:   "A",
			maxDepth: 5,
			want:     nil,
		},
		{
			name:     "source equals target",
			graph:    diamond(),
			source:   "B",
			target:   "B",
			maxDepth: 0,
			want:     []string{"B"},
		},
		{
			name:     "unknown source equals target",
			graph:    diamond(),
			source:   "Q",
			target:   "Q",
			maxDepth: 5,
			want:     []string{"Q"},
		},
		{
			name:     "unknown source",
			graph:    diamond(),
			source:   "Q",
			target:   "A",
			maxDepth: 5,
			want:     nil,
		},
		{
			name: "cycle terminates",
			graph: NewGraph(
				[]*entities.Node{node("A"), node("B"), node("C")},
				[]*entities.Relationship{rel("A", "B"), rel("B", "A"), rel("B", "B")},
			),
			source:   "A",
			target:   "C",
			maxDepth: 10,
			want:     nil,
		},
		{
			name: "shortcut wins over long chain",
			graph: NewGraph(
				[]*entities.Node{node("A"), node("B"), node("C"), node("D")},
				[]*entities.Relationship{rel("A", "B"), rel("B", "C"), rel("C", "D"), rel("A", "D")},
			),
			source:   "A",
			target:   "D",
			maxDepth: 10,
			want:     []string{"A", "D"},
		},
		{
			name: "dangling target is reachable",
			graph: NewGraph(
				[]*entities.Node{node("A")},
				[]*entities.Relationship{rel("A", "Z")},
			),
			source:   "A",
			target:   "Z",
			maxDepth: 5,
			want:     []string{"A", "Z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.graph.FindShortestPath(tt.source, tt.target, tt.maxDepth)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindShortestPath_Diamond_LengthTwo(t *testing.T) {
	// Either branch is a valid shortest path; only the length is fixed.
	g := NewGraph(
		[]*entities.Node{node("A"), node("B"), node("C"), node("D")},
		[]*entities.Relationship{rel("A", "D"), rel("D", "C"), rel("A", "B"), rel("B", "C")},
	)

	path := g.FindShortestPath("A", "C", 5)
	require.NotNil(t, path)
	assert.Len(t, path, 3)
	assert.Equal(t, "A", path[0])
	assert.Equal(t, "C", path[2])
}

// grid builds an n x n lattice with right and down edges, so the distance between
// (0,0) and (i,j) is exactly i+j.
func grid(n int) *Graph {
	id := func(i, j int) string { return fmt.Sprintf("%d-%d", i, j) }

	var nodes []*entities.Node
	var rels []*entities.Relationship
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			nodes = append(nodes, node(id(i, j)))
			if j+1 < n {
				rels = append(rels, rel(id(i, j), id(i, j+1)))
			}
			if i+1 < n {
				rels = append(rels, rel(id(i, j), id(i+1, j)))
			}
		}
	}
	return NewGraph(nodes, rels)
}

func TestFindShortestPath_Optimal(t *testing.T) {
	const n = 5
	g := grid(n)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			target := fmt.Sprintf("%d-%d", i, j)
			distance := i + j

			path := g.FindShortestPath("0-0", target, distance+1)
			require.NotNil(t, path, "target %s", target)
			assert.Len(t, path, distance+1, "target %s", target)

			for k := 0; k+1 < len(path); k++ {
				connected := false
				for _, e := range g.Edges(path[k]) {
					if e.To == path[k+1] {
						connected = true
					}
				}
				assert.True(t, connected, "%s -> %s", path[k], path[k+1])
			}

			if distance > 0 {
				assert.Nil(t, g.FindShortestPath("0-0", target, distance), "target %s", target)
			}
		}
	}
}

func depths(records []TraversalRecord) map[string]int {
	out := make(map[string]int, len(records))
	for _, r := range records {
		out[r.Node.ID] = r.Depth
	}
	return out
}

func ids(records []TraversalRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Node.ID)
	}
	return out
}

func TestExploreNeighborhood(t *testing.T) {
	tests := []struct {
		name       string
		graph      *Graph
		start      string
		maxDepth   int
		wantOrder  []string
		wantDepths map[string]int
	}{
		{
			name:       "depth one ceiling",
			graph:      diamond(),
			start:      "A",
			maxDepth:   1,
			wantOrder:  []string{"A", "B", "D"},
			wantDepths: map[string]int{"A": 0, "B": 1, "D": 1},
		},
		{
			name:       "depth two reaches C once",
			graph:      diamond(),
			start:      "A",
			maxDepth:   2,
			wantOrder:  []string{"A", "B", "C", "D"},
			wantDepths: map[string]int{"A": 0, "B": 1, "C": 2, "D": 1},
		},
		{
			name:       "depth zero is the start only",
			graph:      diamond(),
			start:      "A",
			maxDepth:   0,
			wantOrder:  []string{"A"},
			wantDepths: map[string]int{"A": 0},
		},
		{
			name:       "unknown start",
			graph:      diamond(),
			start:      "Q",
			maxDepth:   3,
			wantOrder:  []string{},
			wantDepths: map[string]int{},
		},
		{
			name: "cycle visited once",
			graph: NewGraph(
				[]*entities.Node{node("A"), node("B")},
				[]*entities.Relationship{rel("A", "B"), rel("B", "A")},
			),
			start:      "A",
			maxDepth:   10,
			wantOrder:  []string{"A", "B"},
			wantDepths: map[string]int{"A": 0, "B": 1},
		},
		{
			name: "dangling edges are skipped",
			graph: NewGraph(
				[]*entities.Node{node("A"), node("B")},
				[]*entities.Relationship{rel("A", "Z"), rel("X", "B"), rel("A", "B")},
			),
			start:      "A",
			maxDepth:   3,
			wantOrder:  []string{"A", "B"},
			wantDepths: map[string]int{"A": 0, "B": 1},
		},
		{
			name: "dfs order decides depth",
			graph: NewGraph(
				[]*entities.Node{node("A"), node("B"), node("C")},
				[]*entities.Relationship{rel("A", "B"), rel("B", "C"), rel("A", "C")},
			),
			start:      "A",
			maxDepth:   2,
			wantOrder:  []string{"A", "B", "C"},
			wantDepths: map[string]int{"A": 0, "B": 1, "C": 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := tt.graph.ExploreNeighborhood(tt.start, tt.maxDepth)

			assert.Equal(t, tt.wantOrder, ids(records))
			assert.Equal(t, tt.wantDepths, depths(records))
		})
	}
}

func TestExploreNeighborhood_NoDuplicates(t *testing.T) {
	records := grid(4).ExploreNeighborhood("0-0", 10)

	seen := make(map[string]bool)
	for _, r := range records {
		assert.False(t, seen[r.Node.ID], "duplicate %s", r.Node.ID)
		seen[r.Node.ID] = true
		assert.LessOrEqual(t, r.Depth, 10)
	}
	assert.Len(t, records, 16)
}

func TestResolvePath(t *testing.T) {
	g := diamond()

	nodes := g.ResolvePath([]string{"A", "Z", "C"})
	require.Len(t, nodes, 3)
	assert.Equal(t, "A", nodes[0].ID)
	assert.Nil(t, nodes[1])
	assert.Equal(t, "C", nodes[2].ID)

	assert.Empty(t, g.ResolvePath(nil))
}
