package wallet

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NoopMetricsCollector is a no-op implementation of MetricsCollector
type NoopMetricsCollector struct{}

func (n *NoopMetricsCollector) RecordOperationDuration(string, time.Duration) {}
func (n *NoopMetricsCollector) RecordOperationResult(string, string)          {}
func (n *NoopMetricsCollector) RecordCacheHit(string)                         {}
func (n *NoopMetricsCollector) RecordCacheMiss(string)                        {}
func (n *NoopMetricsCollector) RecordTransactionVolume(string, int64)         {}

// PrometheusMetrics exports wallet metrics to a prometheus registry.
type PrometheusMetrics struct {
	duration *prometheus.HistogramVec
	results  *prometheus.CounterVec
	cache    *prometheus.CounterVec
	volume   *prometheus.CounterVec
}

func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Ledger operation latency",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"operation"}),
		results: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_operations_total",
			Help: "Ledger operations by result",
		}, []string{"operation", "result"}),
		cache: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_balance_cache_total",
			Help: "Balance cache lookups",
		}, []string{"result"}),
		volume: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_volume_minor_units_total",
			Help: "Committed amounts in minor units",
		}, []string{"operation"}),
	}
}

func (m *PrometheusMetrics) RecordOperationDuration(operation string, d time.Duration) {
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *PrometheusMetrics) RecordOperationResult(operation, result string) {
	m.results.WithLabelValues(operation, result).Inc()
}

func (m *PrometheusMetrics) RecordCacheHit(string)  { m.cache.WithLabelValues("hit").Inc() }
func (m *PrometheusMetrics) RecordCacheMiss(string) { m.cache.WithLabelValues("miss").Inc() }

func (m *PrometheusMetrics) RecordTransactionVolume(operation string, amount int64) {
	m.volume.WithLabelValues(operation).Add(float64(amount))
}
