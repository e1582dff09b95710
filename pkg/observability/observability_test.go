package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollector_Records(t *testing.T) {
	c := NewCollector("graph_engine")

	c.RecordHTTPRequest(http.MethodPost, "/api/v2/graph/traversal", 200, 10*time.Millisecond)
	c.RecordHTTPRequest(http.MethodPost, "/api/v2/graph/traversal", 400, time.Millisecond)
	c.RecordStoreOperation("list_nodes", "memory", time.Millisecond, nil)
	c.RecordStoreOperation("list_nodes", "memory", time.Millisecond, errors.New("down"))
	c.RecordQuery("AnalyzeGraphQuery", time.Millisecond, nil)
	c.RecordAnalysis("influence", time.Microsecond, 4)
	c.RecordGraphSize(4, 3, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("POST", "/api/v2/graph/traversal", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.HTTPRequests.WithLabelValues("POST", "/api/v2/graph/traversal", "400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.StoreOperations.WithLabelValues("list_nodes", "memory", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Queries.WithLabelValues("AnalyzeGraphQuery", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Analyses.WithLabelValues("influence")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.DroppedEdges))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("graph_engine")
	c.RecordAnalysis("centrality", time.Microsecond, 1)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `graph_engine_analyses_total{analysis_type="centrality"} 1`)
}

func TestCollectors_AreIndependent(t *testing.T) {
	a := NewCollector("graph_engine")
	b := NewCollector("graph_engine")

	a.RecordAnalysis("centrality", time.Microsecond, 1)

	assert.Equal(t, 0.0, testutil.ToFloat64(b.Analyses.WithLabelValues("centrality")))
}

type mockMetricsAPI struct {
	mock.Mock
}

func (m *mockMetricsAPI) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	args := m.Called(ctx, params)
	if out := args.Get(0); out != nil {
		return out.(*cloudwatch.PutMetricDataOutput), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCloudWatchRecorder_Flush(t *testing.T) {
	client := new(mockMetricsAPI)
	r := NewCloudWatchRecorder("GraphEngine/test", client, zap.NewNop())

	r.RecordHTTPRequest(http.MethodPost, "/api/v2/graph/traversal", 200, time.Millisecond)
	r.RecordAnalysis("neighborhood", time.Microsecond, 3)
	r.RecordGraphSize(10, 9, 0)
	require.Equal(t, 6, r.Pending())

	client.On("PutMetricData", mock.Anything, mock.MatchedBy(func(in *cloudwatch.PutMetricDataInput) bool {
		return aws.ToString(in.Namespace) == "GraphEngine/test" && len(in.MetricData) == 6
	})).Return(&cloudwatch.PutMetricDataOutput{}, nil).Once()

	require.NoError(t, r.Flush(context.Background()))
	assert.Equal(t, 0, r.Pending())
	client.AssertExpectations(t)

	// Nothing buffered, nothing sent.
	require.NoError(t, r.Flush(context.Background()))
	client.AssertNumberOfCalls(t, "PutMetricData", 1)
}

func TestCloudWatchRecorder_FlushChunksAndReportsErrors(t *testing.T) {
	client := new(mockMetricsAPI)
	r := NewCloudWatchRecorder("GraphEngine/test", client, zap.NewNop())

	for i := 0; i < maxDatumsPerRequest+5; i++ {
		r.RecordQuery("AnalyzeGraphQuery", time.Millisecond, nil)
	}

	client.On("PutMetricData", mock.Anything, mock.Anything).Return(nil, errors.New("throttled")).Once()
	client.On("PutMetricData", mock.Anything, mock.Anything).Return(&cloudwatch.PutMetricDataOutput{}, nil).Once()

	err := r.Flush(context.Background())
	assert.EqualError(t, err, "throttled")
	assert.Equal(t, 0, r.Pending())
	client.AssertNumberOfCalls(t, "PutMetricData", 2)
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = NopRecorder{}
	r.RecordAnalysis("influence", time.Second, 1)
	r.RecordGraphSize(1, 1, 1)
}

func TestXRay_DisabledRunsInline(t *testing.T) {
	x := NewXRay(false)
	called := false

	err := x.Capture(context.Background(), "load", func(ctx context.Context) error {
		called = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, called)
	x.Annotate(context.Background(), "k", "v")
}
