package ports

import (
	"context"

	"graph-engine/domain/core/entities"
	"graph-engine/domain/events"
)

// EntityStore is the read side of the external persistence layer.
// Both lists are returned complete and ordered by creation date, ties broken by id.
type EntityStore interface {
	ListNodes(ctx context.Context) ([]*entities.Node, error)
	ListRelationships(ctx context.Context) ([]*entities.Relationship, error)
}

// EventPublisher delivers domain events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, event events.DomainEvent) error
}
