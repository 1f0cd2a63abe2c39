package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gomeasure/internal/types"
)

func TestPrometheus_RecordsAndExposes(t *testing.T) {
	p := NewPrometheus("gomeasure")
	ctx := context.Background()

	p.RecordRequest(http.MethodGet, "/v1/geocode", "200", 40*time.Millisecond)
	p.RecordRequest(http.MethodGet, "/v1/geocode", "200", 10*time.Millisecond)
	p.RecordCacheLookup(ctx, true)
	p.RecordCacheLookup(ctx, false)
	p.RecordCacheLookup(ctx, false)
	p.RecordUpstream(ctx, types.OutcomeSuccess, 300*time.Millisecond)
	p.RecordGeocodeResults(ctx, 4)
	p.RecordAreaMeasurement(ctx, SourceStateless, 1850)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.httpRequests.WithLabelValues("GET", "/v1/geocode", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.upstreamCalls.WithLabelValues(types.OutcomeSuccess)))

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `gomeasure_http_requests_total{method="GET",route="/v1/geocode",status="200"} 2`)
	assert.Contains(t, body, "gomeasure_geocode_result_count_count 1")
	assert.Contains(t, body, `gomeasure_area_square_feet_count{source="stateless"} 1`)
}

func TestPrometheus_InstancesAreIndependent(t *testing.T) {
	a := NewPrometheus("gomeasure")
	b := NewPrometheus("gomeasure")

	a.RecordCacheLookup(context.Background(), true)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.cacheLookups.WithLabelValues("hit")))
}

type mockCloudWatch struct {
	mu     sync.Mutex
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (m *mockCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	if _, ok := ctx.Deadline(); !ok {
		return nil, errors.New("missing deadline")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, m.err
}

func (m *mockCloudWatch) metricNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for _, in := range m.inputs {
		for _, d := range in.MetricData {
			names = append(names, aws.ToString(d.MetricName))
		}
	}
	return names
}

func TestCloudWatch_EmitsNamedMetrics(t *testing.T) {
	client := &mockCloudWatch{}
	cw := NewCloudWatch(client, "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	cw.RecordRequest(http.MethodPost, "/v1/area", "200", 5*time.Millisecond)
	cw.RecordCacheLookup(ctx, false)
	cw.RecordUpstream(ctx, types.OutcomeTimeout, 4*time.Second)
	cw.RecordGeocodeResults(ctx, 0)
	cw.RecordAreaMeasurement(ctx, SourceWorkspace, 2100)

	assert.Equal(t, []string{
		types.MetricAPIRequestCount,
		types.MetricAPILatency,
		types.MetricGeocodeCache,
		types.MetricGeocodeUpstream,
		types.MetricGeocodeLatency,
		types.MetricGeocodeResults,
		types.MetricAreaMeasurements,
	}, client.metricNames())

	client.mu.Lock()
	defer client.mu.Unlock()
	for _, in := range client.inputs {
		assert.Equal(t, types.MetricNamespace, aws.ToString(in.Namespace))
	}
	req := client.inputs[0].MetricData[0]
	require.Len(t, req.Dimensions, 3)
	assert.Equal(t, types.DimEndpoint, aws.ToString(req.Dimensions[1].Name))
	assert.Equal(t, "/v1/area", aws.ToString(req.Dimensions[1].Value))
}

func TestCloudWatch_PublishesAfterRequestContextEnds(t *testing.T) {
	client := &mockCloudWatch{}
	cw := NewCloudWatch(client, "Custom", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cw.RecordCacheLookup(ctx, true)

	assert.Len(t, client.metricNames(), 1)
}

func TestCloudWatch_ErrorsAreLoggedNotReturned(t *testing.T) {
	var logs strings.Builder
	client := &mockCloudWatch{err: errors.New("throttled")}
	cw := NewCloudWatch(client, "Custom", slog.New(slog.NewTextHandler(&logs, nil)))

	cw.RecordGeocodeResults(context.Background(), 3)

	assert.Contains(t, logs.String(), "failed to record result count metric")
	assert.Contains(t, logs.String(), "throttled")
}

func TestNoop(t *testing.T) {
	var c Collector = Noop{}
	c.RecordRequest("GET", "/", "200", time.Millisecond)
	c.RecordAreaMeasurement(context.Background(), SourceStateless, 1)
}
