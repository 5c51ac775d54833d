package outbox

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector defines the interface for collecting outbox metrics
type MetricsCollector interface {
	RecordEventProcessed(eventType string, success bool, duration time.Duration)
	RecordBatchProcessed(count int, duration time.Duration)
	RecordOutboxLag(lag int)
	RecordPublishAttempt(eventType string, attempt int, success bool)
}

// NoOpMetricsCollector is a no-op implementation for when metrics aren't needed
type NoOpMetricsCollector struct{}

func (n *NoOpMetricsCollector) RecordEventProcessed(eventType string, success bool, duration time.Duration) {
}
func (n *NoOpMetricsCollector) RecordBatchProcessed(count int, duration time.Duration)           {}
func (n *NoOpMetricsCollector) RecordOutboxLag(lag int)                                          {}
func (n *NoOpMetricsCollector) RecordPublishAttempt(eventType string, attempt int, success bool) {}

// PrometheusMetrics implements MetricsCollector using the Prometheus client
type PrometheusMetrics struct {
	eventCounter    *prometheus.CounterVec
	eventDuration   *prometheus.HistogramVec
	batchSize       prometheus.Histogram
	batchDuration   prometheus.Histogram
	outboxLag       prometheus.Gauge
	publishAttempts *prometheus.CounterVec
}

func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		eventCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "market_outbox_events_total",
			Help: "Outbox events processed, by event type and outcome.",
		}, []string{"event_type", "success"}),
		eventDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "market_outbox_event_duration_seconds",
			Help:    "Time spent publishing a single outbox event.",
			Buckets: prometheus.DefBuckets,
		}, []string{"event_type"}),
		batchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "market_outbox_batch_size",
			Help:    "Number of events per outbox batch.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		batchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "market_outbox_batch_duration_seconds",
			Help:    "Time spent processing an outbox batch.",
			Buckets: prometheus.DefBuckets,
		}),
		outboxLag: factory.NewGauge(prometheus.GaugeOpts{
			Name: "market_outbox_lag_events",
			Help: "Unsent events remaining in the outbox.",
		}),
		publishAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "market_outbox_publish_attempts_total",
			Help: "Publish attempts, by event type, attempt number and outcome.",
		}, []string{"event_type", "attempt", "success"}),
	}
}

func (p *PrometheusMetrics) RecordEventProcessed(eventType string, success bool, duration time.Duration) {
	p.eventCounter.WithLabelValues(eventType, strconv.FormatBool(success)).Inc()
	p.eventDuration.WithLabelValues(eventType).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) RecordBatchProcessed(count int, duration time.Duration) {
	p.batchSize.Observe(float64(count))
	p.batchDuration.Observe(duration.Seconds())
}

func (p *PrometheusMetrics) RecordOutboxLag(lag int) {
	p.outboxLag.Set(float64(lag))
}

func (p *PrometheusMetrics) RecordPublishAttempt(eventType string, attempt int, success bool) {
	p.publishAttempts.WithLabelValues(eventType, strconv.Itoa(attempt), strconv.FormatBool(success)).Inc()
}
