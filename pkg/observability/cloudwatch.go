package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// maxDatumsPerRequest is the PutMetricData limit.
const maxDatumsPerRequest = 1000

// MetricsAPI is the subset of the CloudWatch client used here.
type MetricsAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchRecorder buffers datums in memory and ships them on Flush. In Lambda the handler
// flushes once per invocation, before the execution environment is frozen.
type CloudWatchRecorder struct {
	namespace string
	client    MetricsAPI
	logger    *zap.Logger

	mu     sync.Mutex
	buffer []types.MetricDatum
}

var _ Recorder = (*CloudWatchRecorder)(nil)

// NewCloudWatchRecorder creates a buffered CloudWatch recorder
func NewCloudWatchRecorder(namespace string, client MetricsAPI, logger *zap.Logger) *CloudWatchRecorder {
	return &CloudWatchRecorder{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

func dimension(name, value string) types.Dimension {
	return types.Dimension{Name: aws.String(name), Value: aws.String(value)}
}

func (r *CloudWatchRecorder) add(name string, value float64, unit types.StandardUnit, dims ...types.Dimension) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffer = append(r.buffer, types.MetricDatum{
		MetricName: aws.String(name),
		Dimensions: dims,
		Value:      aws.Float64(value),
		Unit:       unit,
		Timestamp:  aws.Time(time.Now()),
	})
}

func (r *CloudWatchRecorder) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	dims := []types.Dimension{dimension("Route", method+" "+route), dimension("Status", fmt.Sprintf("%d", status))}
	r.add("RequestCount", 1, types.StandardUnitCount, dims...)
	r.add("RequestLatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds, dims[0])
}

func (r *CloudWatchRecorder) RecordStoreOperation(operation, store string, duration time.Duration, err error) {
	r.add("StoreLatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds,
		dimension("Operation", operation), dimension("Store", store), dimension("Status", statusLabel(err)))
}

func (r *CloudWatchRecorder) RecordQuery(queryType string, duration time.Duration, err error) {
	r.add("QueryLatency", float64(duration.Milliseconds()), types.StandardUnitMilliseconds,
		dimension("Query", queryType), dimension("Status", statusLabel(err)))
}

func (r *CloudWatchRecorder) RecordAnalysis(analysisType string, duration time.Duration, resultSize int) {
	r.add("AnalysisLatency", float64(duration.Microseconds()), types.StandardUnitMicroseconds,
		dimension("AnalysisType", analysisType))
	r.add("AnalysisResultSize", float64(resultSize), types.StandardUnitCount,
		dimension("AnalysisType", analysisType))
}

func (r *CloudWatchRecorder) RecordGraphSize(nodes, edges, dropped int) {
	r.add("GraphNodes", float64(nodes), types.StandardUnitCount)
	r.add("GraphEdges", float64(edges), types.StandardUnitCount)
	if dropped > 0 {
		r.add("GraphDroppedEdges", float64(dropped), types.StandardUnitCount)
	}
}

// Pending returns the number of buffered datums.
func (r *CloudWatchRecorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffer)
}

// Flush sends every buffered datum. Datums from a failed request are dropped and the error
// is returned after the remaining chunks were attempted.
func (r *CloudWatchRecorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	pending := r.buffer
	r.buffer = nil
	r.mu.Unlock()

	var firstErr error
	for start := 0; start < len(pending); start += maxDatumsPerRequest {
		end := min(start+maxDatumsPerRequest, len(pending))

		_, err := r.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(r.namespace),
			MetricData: pending[start:end],
		})
		if err != nil {
			r.logger.Warn("Failed to send metrics",
				zap.Error(err),
				zap.Int("datums", end-start),
				zap.String("namespace", r.namespace),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}
