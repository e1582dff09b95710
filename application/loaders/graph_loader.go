package loaders

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"graph-engine/application/ports"
	"graph-engine/domain/core/aggregates"
	"graph-engine/domain/core/entities"
	pkgerrors "graph-engine/pkg/errors"
)

// GraphLoader fetches the store snapshot and builds the per-request graph.
type GraphLoader struct {
	store        ports.EntityStore
	fetchTimeout time.Duration
	logger       *zap.Logger
}

// NewGraphLoader creates a loader. fetchTimeout bounds each of the two store reads separately.
func NewGraphLoader(store ports.EntityStore, fetchTimeout time.Duration, logger *zap.Logger) *GraphLoader {
	return &GraphLoader{
		store:        store,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

// Load reads nodes and relationships concurrently and returns the adjacency list.
// If either read fails the other is cancelled and the first error is returned.
func (l *GraphLoader) Load(ctx context.Context) (*aggregates.Graph, error) {
	var (
		nodes         []*entities.Node
		relationships []*entities.Relationship
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fetchCtx, cancel := l.withTimeout(gctx)
		defer cancel()

		result, err := l.store.ListNodes(fetchCtx)
		if err != nil {
			return l.fetchError("list nodes", err)
		}
		nodes = result
		return nil
	})

	g.Go(func() error {
		fetchCtx, cancel := l.withTimeout(gctx)
		defer cancel()

		result, err := l.store.ListRelationships(fetchCtx)
		if err != nil {
			return l.fetchError("list relationships", err)
		}
		relationships = result
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	graph := aggregates.NewGraph(nodes, relationships)

	l.logger.Debug("Graph loaded",
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("edges", graph.EdgeCount()),
		zap.Int("dropped_edges", graph.DroppedEdges()),
	)

	return graph, nil
}

func (l *GraphLoader) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.fetchTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, l.fetchTimeout)
}

func (l *GraphLoader) fetchError(operation string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.NewTimeoutError(operation).WithCause(err)
	}
	if pkgerrors.GetAppError(err) != nil {
		return err
	}
	return pkgerrors.NewDatabaseError(operation, err)
}
