package entities

import (
	"sort"
	"time"
)

// Node is a read-only snapshot of a knowledge-graph entity as delivered by the entity store.
// The traversal engine never mutates it.
type Node struct {
	ID         string                 `json:"id" dynamodbav:"NodeID"`
	Label      string                 `json:"label" dynamodbav:"Label"`
	NodeType   string                 `json:"node_type" dynamodbav:"NodeType"`
	Properties map[string]interface{} `json:"properties,omitempty" dynamodbav:"Properties,omitempty"`
	CreatedAt  time.Time              `json:"created_date" dynamodbav:"CreatedAt"`
}

// Relationship is a directed, typed connection from FromNodeID to ToNodeID.
type Relationship struct {
	ID               string                 `json:"id" dynamodbav:"RelationshipID"`
	FromNodeID       string                 `json:"from_node_id" dynamodbav:"FromNodeID"`
	ToNodeID         string                 `json:"to_node_id" dynamodbav:"ToNodeID"`
	RelationshipType string                 `json:"relationship_type" dynamodbav:"RelationshipType"`
	Properties       map[string]interface{} `json:"properties,omitempty" dynamodbav:"Properties,omitempty"`
	CreatedAt        time.Time              `json:"created_date" dynamodbav:"CreatedAt"`
}

// SortNodes orders nodes by creation time, ties broken by id.
// Stores call this so that traversal output is stable across backends.
func SortNodes(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].CreatedAt.Equal(nodes[j].CreatedAt) {
			return nodes[i].ID < nodes[j].ID
		}
		return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
	})
}

// SortRelationships orders relationships by creation time, ties broken by id.
func SortRelationships(rels []*Relationship) {
	sort.SliceStable(rels, func(i, j int) bool {
		if rels[i].CreatedAt.Equal(rels[j].CreatedAt) {
			return rels[i].ID < rels[j].ID
		}
		return rels[i].CreatedAt.Before(rels[j].CreatedAt)
	})
}
