package redis

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
)

var (
	redisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mensa_bot",
			Subsystem: "redis",
			Name:      "requests_total",
			Help:      "Total number of Redis requests by method.",
		},
		[]string{"method"},
	)
	redisErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mensa_bot",
			Subsystem: "redis",
			Name:      "errors_total",
			Help:      "Total number of Redis errors by method. Missing keys are not errors.",
		},
		[]string{"method"},
	)
	redisRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mensa_bot",
			Subsystem: "redis",
			Name:      "request_duration_seconds",
			Help:      "Redis request latency distributions.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

func init() {
	prometheus.MustRegister(redisRequestsTotal, redisErrorsTotal, redisRequestDuration)
}

// MetricsClient wraps Client to collect Prometheus metrics.
type MetricsClient struct {
	next *Client
}

// NewMetricsClient creates an instrumented Redis client.
func NewMetricsClient(next *Client) *MetricsClient {
	return &MetricsClient{next: next}
}

func observe(method string, started time.Time, err error) {
	redisRequestDuration.WithLabelValues(method).Observe(time.Since(started).Seconds())
	redisRequestsTotal.WithLabelValues(method).Inc()
	if err != nil && err != goredis.Nil {
		redisErrorsTotal.WithLabelValues(method).Inc()
	}
}

// Get instruments Client.Get.
func (m *MetricsClient) Get(ctx context.Context, key string) (string, error) {
	started := time.Now()
	result, err := m.next.Get(ctx, key)
	observe("get", started, err)
	return result, err
}

// Set instruments Client.Set.
func (m *MetricsClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	started := time.Now()
	err := m.next.Set(ctx, key, value, ttl)
	observe("set", started, err)
	return err
}

// SetNX instruments Client.SetNX.
func (m *MetricsClient) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	started := time.Now()
	ok, err := m.next.SetNX(ctx, key, value, ttl)
	observe("setnx", started, err)
	return ok, err
}

// Delete instruments Client.Delete.
func (m *MetricsClient) Delete(ctx context.Context, key string) error {
	started := time.Now()
	err := m.next.Delete(ctx, key)
	observe("delete", started, err)
	return err
}

// HealthCheck instruments Client.HealthCheck.
func (m *MetricsClient) HealthCheck(ctx context.Context) error {
	started := time.Now()
	err := m.next.HealthCheck(ctx)
	observe("ping", started, err)
	return err
}

// Close closes underlying client.
func (m *MetricsClient) Close() error {
	return m.next.Close()
}

// TxPipeline forwards to the underlying client.
func (m *MetricsClient) TxPipeline() goredis.Pipeliner {
	return m.next.TxPipeline()
}

// Unwrap returns the instrumented client.
func (m *MetricsClient) Unwrap() *Client {
	return m.next
}
