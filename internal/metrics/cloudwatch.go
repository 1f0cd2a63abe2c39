package metrics

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"gomeasure/internal/types"
)

// putTimeout bounds a single PutMetricData call.
const putTimeout = 2 * time.Second

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatch emits metrics to AWS CloudWatch, one PutMetricData call per
// observation. Publishing failures are logged and never surface to callers.
//
// Metrics emitted:
//   - APIRequestCount, APILatency: Dims {Method, Endpoint, Status}
//   - GeocodeCacheLookup: Dims {Result}
//   - GeocodeUpstreamCall, GeocodeUpstreamLatency: Dims {Outcome}
//   - GeocodeResultCount: no dims
//   - AreaMeasurement: Dims {Result: source}
type CloudWatch struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatch creates a collector publishing to namespace. An empty
// namespace uses types.MetricNamespace.
func NewCloudWatch(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatch {
	if namespace == "" {
		namespace = types.MetricNamespace
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatch{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordRequest emits APIRequestCount and APILatency in one call.
func (m *CloudWatch) RecordRequest(method, endpoint, status string, duration time.Duration) {
	dims := []cwtypes.Dimension{
		dim(types.DimMethod, method),
		dim(types.DimEndpoint, endpoint),
		dim(types.DimStatus, status),
	}
	m.put(context.Background(), "request",
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPIRequestCount),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: dims,
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricAPILatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: dims,
		},
	)
}

func (m *CloudWatch) RecordCacheLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.put(ctx, "cache lookup", cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricGeocodeCache),
		Value:      aws.Float64(1),
		Unit:       cwtypes.StandardUnitCount,
		Dimensions: []cwtypes.Dimension{dim(types.DimResult, result)},
	})
}

func (m *CloudWatch) RecordUpstream(ctx context.Context, outcome string, duration time.Duration) {
	dims := []cwtypes.Dimension{dim(types.DimOutcome, outcome)}
	m.put(ctx, "upstream",
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricGeocodeUpstream),
			Value:      aws.Float64(1),
			Unit:       cwtypes.StandardUnitCount,
			Dimensions: dims,
		},
		cwtypes.MetricDatum{
			MetricName: aws.String(types.MetricGeocodeLatency),
			Value:      aws.Float64(float64(duration.Milliseconds())),
			Unit:       cwtypes.StandardUnitMilliseconds,
			Dimensions: dims,
		},
	)
}

func (m *CloudWatch) RecordGeocodeResults(ctx context.Context, count int) {
	m.put(ctx, "result count", cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricGeocodeResults),
		Value:      aws.Float64(float64(count)),
		Unit:       cwtypes.StandardUnitCount,
	})
}

func (m *CloudWatch) RecordAreaMeasurement(ctx context.Context, source string, sqft int64) {
	m.put(ctx, "area", cwtypes.MetricDatum{
		MetricName: aws.String(types.MetricAreaMeasurements),
		Value:      aws.Float64(float64(sqft)),
		Unit:       cwtypes.StandardUnitNone,
		Dimensions: []cwtypes.Dimension{dim(types.DimResult, source)},
	})
}

func (m *CloudWatch) put(ctx context.Context, what string, data ...cwtypes.MetricDatum) {
	// Metrics from a finished request must still be published.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), putTimeout)
	defer cancel()

	input := &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(m.namespace),
		MetricData: data,
	}
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record "+what+" metric",
			"error", err.Error(),
			"namespace", m.namespace,
			"datums", strconv.Itoa(len(data)),
		)
	}
}

func dim(name, value string) cwtypes.Dimension {
	return cwtypes.Dimension{Name: aws.String(name), Value: aws.String(value)}
}
