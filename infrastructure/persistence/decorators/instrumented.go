package decorators

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"graph-engine/application/ports"
	"graph-engine/domain/core/entities"
)

// StoreMetrics is the part of observability.Recorder the instrumented store reports to.
type StoreMetrics interface {
	RecordStoreOperation(operation, store string, duration time.Duration, err error)
}

// InstrumentedStore adds a span and a metric observation to every store call.
type InstrumentedStore struct {
	inner   ports.EntityStore
	name    string
	metrics StoreMetrics
	tracer  trace.Tracer
}

var _ ports.EntityStore = (*InstrumentedStore)(nil)

// NewInstrumentedStore wraps inner. name labels the backend, e.g. "dynamodb".
func NewInstrumentedStore(inner ports.EntityStore, name string, metrics StoreMetrics, tracer trace.Tracer) *InstrumentedStore {
	return &InstrumentedStore{
		inner:   inner,
		name:    name,
		metrics: metrics,
		tracer:  tracer,
	}
}

// ListNodes implements ports.EntityStore
func (s *InstrumentedStore) ListNodes(ctx context.Context) ([]*entities.Node, error) {
	ctx, span := s.start(ctx, "list_nodes")
	defer span.End()

	start := time.Now()
	nodes, err := s.inner.ListNodes(ctx)
	s.finish(span, "list_nodes", start, len(nodes), err)

	return nodes, err
}

// ListRelationships implements ports.EntityStore
func (s *InstrumentedStore) ListRelationships(ctx context.Context) ([]*entities.Relationship, error) {
	ctx, span := s.start(ctx, "list_relationships")
	defer span.End()

	start := time.Now()
	rels, err := s.inner.ListRelationships(ctx)
	s.finish(span, "list_relationships", start, len(rels), err)

	return rels, err
}

func (s *InstrumentedStore) start(ctx context.Context, operation string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "store."+operation, trace.WithAttributes(
		attribute.String("store.backend", s.name),
	))
}

func (s *InstrumentedStore) finish(span trace.Span, operation string, start time.Time, count int, err error) {
	s.metrics.RecordStoreOperation(operation, s.name, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, operation+" failed")
		return
	}
	span.SetAttributes(attribute.Int("store.items", count))
}
