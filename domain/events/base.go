package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SourceGraphEngine is the EventBridge source for events emitted by this service.
	SourceGraphEngine = "graph-engine.traversal"

	EventTypeAnalysisCompleted = "graph.analysis_completed"
)

// DomainEvent is something that already happened.
type DomainEvent interface {
	GetEventID() string
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventID     string    `json:"event_id"`
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetEventID() string      { return e.EventID }
func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// AnalysisCompleted is raised after a traversal request produced a result.
// The aggregate is the source node the analysis started from.
type AnalysisCompleted struct {
	BaseEvent
	UserID       string `json:"user_id"`
	AnalysisType string `json:"analysis_type"`
	SourceNodeID string `json:"source_node_id"`
	TargetNodeID string `json:"target_node_id,omitempty"`
	MaxDepth     int    `json:"max_depth"`
	ResultSize   int    `json:"result_size"`
	NodesLoaded  int    `json:"nodes_loaded"`
	EdgesLoaded  int    `json:"edges_loaded"`
	DurationMs   int64  `json:"duration_ms"`
}

// NewAnalysisCompleted creates an AnalysisCompleted event with a fresh event id.
func NewAnalysisCompleted(userID, analysisType, sourceNodeID, targetNodeID string, maxDepth, resultSize int, timestamp time.Time) AnalysisCompleted {
	return AnalysisCompleted{
		BaseEvent: BaseEvent{
			EventID:     uuid.New().String(),
			AggregateID: sourceNodeID,
			EventType:   EventTypeAnalysisCompleted,
			Timestamp:   timestamp,
			Version:     1,
		},
		UserID:       userID,
		AnalysisType: analysisType,
		SourceNodeID: sourceNodeID,
		TargetNodeID: targetNodeID,
		MaxDepth:     maxDepth,
		ResultSize:   resultSize,
	}
}
