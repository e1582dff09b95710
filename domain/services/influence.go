package services

import (
	"graph-engine/domain/core/aggregates"
)

// Influence is the depth-decayed reach of a node.
type Influence struct {
	Score           float64                      `json:"score"`
	NodesInfluenced int                          `json:"nodes_influenced"`
	Nodes           []aggregates.TraversalRecord `json:"nodes"`
}

// ScoreInfluence explores the neighborhood of startID and sums 1/(depth+1) over every record,
// so the start node contributes 1.0 and each further hop contributes less.
//
// This is a ranking heuristic. It is not a validated centrality measure and the score depends on
// DFS discovery order, since a node is weighted by the depth of its first discovery.
func ScoreInfluence(graph *aggregates.Graph, startID string, maxDepth int) Influence {
	records := graph.ExploreNeighborhood(startID, maxDepth)

	score := 0.0
	for _, record := range records {
		score += 1.0 / float64(record.Depth+1)
	}

	return Influence{
		Score:           score,
		NodesInfluenced: len(records),
		Nodes:           records,
	}
}
