package services

import (
	"graph-engine/domain/core/entities"
)

// DegreeCentrality holds the degree counts of a single node.
type DegreeCentrality struct {
	NodeID      string `json:"node_id"`
	InDegree    int    `json:"in_degree"`
	OutDegree   int    `json:"out_degree"`
	TotalDegree int    `json:"total_degree"`
}

// CalculateCentrality counts the relationships entering and leaving nodeID.
// It works over the raw relationship list, so relationships whose endpoints were not loaded
// as nodes still count. A self-loop counts once in each direction.
func CalculateCentrality(relationships []*entities.Relationship, nodeID string) DegreeCentrality {
	result := DegreeCentrality{NodeID: nodeID}

	for _, rel := range relationships {
		if rel == nil {
			continue
		}
		if rel.ToNodeID == nodeID {
			result.InDegree++
		}
		if rel.FromNodeID == nodeID {
			result.OutDegree++
		}
	}

	result.TotalDegree = result.InDegree + result.OutDegree
	return result
}
