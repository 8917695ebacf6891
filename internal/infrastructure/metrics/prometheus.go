package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusExporter exports metrics to Prometheus format.
type PrometheusExporter struct {
	collector *Collector

	cacheHits          prometheus.Counter
	cacheMisses        prometheus.Counter
	cacheHitRate       prometheus.Gauge
	cacheKeys          prometheus.Gauge
	cacheMemoryBytes   prometheus.Gauge
	cacheInvalidated   prometheus.Gauge
	grpcRequests       *prometheus.CounterVec
	grpcDuration       *prometheus.HistogramVec
	grpcErrors         *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	decodeFailures     prometheus.Counter
}

// NewPrometheusExporter creates a new Prometheus exporter registered with reg.
// A nil reg uses the default registerer.
func NewPrometheusExporter(collector *Collector, reg prometheus.Registerer) *PrometheusExporter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusExporter{
		collector: collector,
		cacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "typegraph_type_cache_hits_total",
			Help: "Total number of type definition cache hits",
		}),
		cacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "typegraph_type_cache_misses_total",
			Help: "Total number of type definition cache misses",
		}),
		cacheHitRate: factory.NewGauge(prometheus.GaugeOpts{
			Name: "typegraph_type_cache_hit_rate",
			Help: "Current type definition cache hit rate (0.0 to 1.0)",
		}),
		cacheKeys: factory.NewGauge(prometheus.GaugeOpts{
			Name: "typegraph_type_cache_keys_current",
			Help: "Current number of keys in the type definition cache",
		}),
		cacheMemoryBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "typegraph_type_cache_memory_bytes",
			Help: "Estimated memory usage of the type definition cache in bytes",
		}),
		cacheInvalidated: factory.NewGauge(prometheus.GaugeOpts{
			Name: "typegraph_type_cache_invalidated_keys",
			Help: "Type definition cache entries dropped by invalidation since start",
		}),
		grpcRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "typegraph_grpc_requests_total",
				Help: "Total number of gRPC requests",
			},
			[]string{"method"},
		),
		grpcDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "typegraph_grpc_request_duration_seconds",
				Help:    "Duration of gRPC requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 10.0},
			},
			[]string{"method"},
		),
		grpcErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "typegraph_grpc_errors_total",
				Help: "Total number of gRPC errors",
			},
			[]string{"method"},
		),
		validationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "typegraph_validation_failures_total",
				Help: "Total number of failed attribute checks by kind",
			},
			[]string{"kind"},
		),
		decodeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "typegraph_agtype_decode_failures_total",
			Help: "Total number of agtype values that could not be decoded",
		}),
	}
}

// Update updates Gauge metrics from the collector.
// Counters are updated as events happen, so only gauges are refreshed here.
// This should be called periodically (e.g., every 10 seconds).
func (e *PrometheusExporter) Update() {
	cacheMetrics := e.collector.GetCacheMetrics()
	e.cacheHitRate.Set(cacheMetrics.HitRate)
	e.cacheKeys.Set(float64(cacheMetrics.KeysCurrent))
	e.cacheMemoryBytes.Set(float64(cacheMetrics.MemoryBytes))
	e.cacheInvalidated.Set(float64(cacheMetrics.Invalidations))
}

// RecordRequest records a request in Prometheus.
func (e *PrometheusExporter) RecordRequest(method string) {
	e.grpcRequests.WithLabelValues(method).Inc()
}

// RecordDuration records a duration in Prometheus.
func (e *PrometheusExporter) RecordDuration(method string, durationSeconds float64) {
	e.grpcDuration.WithLabelValues(method).Observe(durationSeconds)
}

// RecordError records an error in Prometheus.
func (e *PrometheusExporter) RecordError(method string) {
	e.grpcErrors.WithLabelValues(method).Inc()
}

// RecordCacheHit records a cache hit.
func (e *PrometheusExporter) RecordCacheHit() {
	e.cacheHits.Inc()
}

// RecordCacheMiss records a cache miss.
func (e *PrometheusExporter) RecordCacheMiss() {
	e.cacheMisses.Inc()
}

// RecordValidationFailure records a failed attribute check.
func (e *PrometheusExporter) RecordValidationFailure(kind string) {
	e.validationFailures.WithLabelValues(kind).Inc()
}

// RecordDecodeFailure records an undecodable agtype value.
func (e *PrometheusExporter) RecordDecodeFailure() {
	e.decodeFailures.Inc()
}
