package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the service on a private registry,
// so several collectors can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Store metrics
	StoreOperations *prometheus.CounterVec
	StoreDuration   *prometheus.HistogramVec

	// Query bus metrics
	Queries       *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec

	// Analysis metrics
	Analyses         *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	ResultSize       *prometheus.HistogramVec
	GraphNodes       prometheus.Histogram
	GraphEdges       prometheus.Histogram
	DroppedEdges     prometheus.Counter
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	sizeBuckets := prometheus.ExponentialBuckets(1, 4, 10)

	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		StoreOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Total number of entity store operations",
			},
			[]string{"operation", "store", "status"},
		),
		StoreDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_duration_seconds",
				Help:      "Entity store operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "store"},
		),
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Total number of queries dispatched through the query bus",
			},
			[]string{"query", "status"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "query_duration_seconds",
				Help:      "Query handling duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"query"},
		),
		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analyses_total",
				Help:      "Total number of completed graph analyses",
			},
			[]string{"analysis_type"},
		),
		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Time spent running the traversal algorithm",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"analysis_type"},
		),
		ResultSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_result_size",
				Help:      "Number of nodes in an analysis result",
				Buckets:   sizeBuckets,
			},
			[]string{"analysis_type"},
		),
		GraphNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Number of nodes loaded per request",
			Buckets:   sizeBuckets,
		}),
		GraphEdges: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Number of edges in the adjacency list per request",
			Buckets:   sizeBuckets,
		}),
		DroppedEdges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_dropped_edges_total",
			Help:      "Relationships skipped because their source node was not loaded",
		}),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.StoreOperations,
		c.StoreDuration,
		c.Queries,
		c.QueryDuration,
		c.Analyses,
		c.AnalysisDuration,
		c.ResultSize,
		c.GraphNodes,
		c.GraphEdges,
		c.DroppedEdges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry exposes the collector's registry for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (c *Collector) RecordStoreOperation(operation, store string, duration time.Duration, err error) {
	c.StoreOperations.WithLabelValues(operation, store, statusLabel(err)).Inc()
	c.StoreDuration.WithLabelValues(operation, store).Observe(duration.Seconds())
}

func (c *Collector) RecordQuery(queryType string, duration time.Duration, err error) {
	c.Queries.WithLabelValues(queryType, statusLabel(err)).Inc()
	c.QueryDuration.WithLabelValues(queryType).Observe(duration.Seconds())
}

func (c *Collector) RecordAnalysis(analysisType string, duration time.Duration, resultSize int) {
	c.Analyses.WithLabelValues(analysisType).Inc()
	c.AnalysisDuration.WithLabelValues(analysisType).Observe(duration.Seconds())
	c.ResultSize.WithLabelValues(analysisType).Observe(float64(resultSize))
}

func (c *Collector) RecordGraphSize(nodes, edges, dropped int) {
	c.GraphNodes.Observe(float64(nodes))
	c.GraphEdges.Observe(float64(edges))
	if dropped > 0 {
		c.DroppedEdges.Add(float64(dropped))
	}
}
