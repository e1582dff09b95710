package handlers

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"graph-engine/application/ports"
	"graph-engine/application/queries"
	"graph-engine/application/queries/bus"
	"graph-engine/domain/core/aggregates"
	"graph-engine/domain/events"
	"graph-engine/pkg/observability"
)

const publishTimeout = 2 * time.Second

// GraphSource produces the per-request graph.
type GraphSource interface {
	Load(ctx context.Context) (*aggregates.Graph, error)
}

// AnalysisMetrics is the part of observability.Recorder this handler reports to.
type AnalysisMetrics interface {
	RecordAnalysis(analysisType string, duration time.Duration, resultSize int)
	RecordGraphSize(nodes, edges, dropped int)
}

// AnalyzeGraphHandler loads a fresh graph and runs the requested analysis on it.
type AnalyzeGraphHandler struct {
	source    GraphSource
	publisher ports.EventPublisher
	metrics   AnalysisMetrics
	tracer    trace.Tracer
	xray      *observability.XRay
	logger    *zap.Logger
}

// NewAnalyzeGraphHandler creates a new analyze graph handler. publisher may be nil.
func NewAnalyzeGraphHandler(
	source GraphSource,
	publisher ports.EventPublisher,
	metrics AnalysisMetrics,
	tracer trace.Tracer,
	xray *observability.XRay,
	logger *zap.Logger,
) *AnalyzeGraphHandler {
	return &AnalyzeGraphHandler{
		source:    source,
		publisher: publisher,
		metrics:   metrics,
		tracer:    tracer,
		xray:      xray,
		logger:    logger,
	}
}

// Handle implements bus.QueryHandler
func (h *AnalyzeGraphHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.AnalyzeGraphQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}
	return h.Analyze(ctx, q)
}

// Analyze runs q. The query is assumed to be validated.
func (h *AnalyzeGraphHandler) Analyze(ctx context.Context, q queries.AnalyzeGraphQuery) (*queries.AnalyzeGraphResult, error) {
	ctx, span := h.tracer.Start(ctx, "AnalyzeGraph", trace.WithAttributes(
		attribute.String("analysis.type", string(q.AnalysisType)),
		attribute.String("analysis.source_node_id", q.SourceNodeID),
		attribute.Int("analysis.max_depth", q.MaxDepth),
	))
	defer span.End()

	h.xray.Annotate(ctx, "analysis_type", string(q.AnalysisType))

	var graph *aggregates.Graph
	err := h.xray.Capture(ctx, "LoadGraph", func(ctx context.Context) error {
		loadCtx, loadSpan := h.tracer.Start(ctx, "LoadGraph")
		defer loadSpan.End()

		var err error
		graph, err = h.source.Load(loadCtx)
		if err != nil {
			loadSpan.RecordError(err)
			loadSpan.SetStatus(codes.Error, "load failed")
		}
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "graph load failed")
		return nil, fmt.Errorf("failed to load graph: %w", err)
	}

	h.metrics.RecordGraphSize(graph.NodeCount(), graph.EdgeCount(), graph.DroppedEdges())
	if dropped := graph.DroppedEdges(); dropped > 0 {
		h.logger.Debug("Relationships without a loaded source node were skipped", zap.Int("count", dropped))
	}

	start := time.Now()
	result := queries.Run(graph, q)
	elapsed := time.Since(start)

	h.metrics.RecordAnalysis(string(q.AnalysisType), elapsed, result.Size())
	span.SetAttributes(
		attribute.Int("graph.nodes", graph.NodeCount()),
		attribute.Int("graph.edges", graph.EdgeCount()),
		attribute.Int("analysis.result_size", result.Size()),
	)

	h.logger.Info("Graph analysis completed",
		zap.String("user_id", q.UserID),
		zap.String("analysis_type", string(q.AnalysisType)),
		zap.String("source_node_id", q.SourceNodeID),
		zap.Int("max_depth", q.MaxDepth),
		zap.Int("result_size", result.Size()),
		zap.Duration("duration", elapsed),
	)

	h.publish(ctx, q, graph, result, elapsed)

	return &queries.AnalyzeGraphResult{
		Success:      true,
		AnalysisType: q.AnalysisType,
		Result:       result,
	}, nil
}

// publish emits AnalysisCompleted. Failures are logged and never fail the request.
func (h *AnalyzeGraphHandler) publish(ctx context.Context, q queries.AnalyzeGraphQuery, graph *aggregates.Graph, result queries.AnalysisResult, elapsed time.Duration) {
	if h.publisher == nil {
		return
	}

	event := events.NewAnalysisCompleted(q.UserID, string(q.AnalysisType), q.SourceNodeID, q.TargetNodeID, q.MaxDepth, result.Size(), time.Now())
	event.NodesLoaded = graph.NodeCount()
	event.EdgesLoaded = graph.EdgeCount()
	event.DurationMs = elapsed.Milliseconds()

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := h.publisher.Publish(pubCtx, event); err != nil {
		h.logger.Warn("Failed to publish analysis event",
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
	}
}
