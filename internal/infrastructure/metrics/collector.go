package metrics

import (
	"sync"
	"sync/atomic"

	"github.com/agegraph/typegraph/pkg/cache"
)

// CacheStats is implemented by caches that can report their size
type CacheStats interface {
	Metrics() *cache.Metrics
	Len() int
	Size() int64
}

// Collector collects and aggregates metrics for the application.
type Collector struct {
	// API metrics
	apiRequests sync.Map // map[string]*uint64 - method -> count
	apiErrors   sync.Map // map[string]*uint64 - method -> error count
	apiDuration sync.Map // map[string]*durationValue - method -> total duration in seconds

	// Domain metrics
	validationFailures sync.Map // map[string]*uint64 - failure kind -> count
	decodeFailures     uint64

	// Type definition cache (optional)
	cache CacheStats
}

// durationValue holds duration with mutex for thread-safe updates.
type durationValue struct {
	mu           sync.Mutex
	totalSeconds float64
}

// CacheMetrics holds cache performance metrics.
type CacheMetrics struct {
	Hits        uint64
	Misses      uint64
	HitRate     float64
	KeysCurrent int64
	MemoryBytes int64
	Evictions   uint64

	Invalidations uint64
}

// APIMetrics holds API request metrics.
type APIMetrics struct {
	RequestCounts        map[string]uint64
	ErrorCounts          map[string]uint64
	TotalDurationSeconds map[string]float64
}

// DomainMetrics holds validation and wire decoding metrics.
type DomainMetrics struct {
	ValidationFailures map[string]uint64 // keyed by failure kind
	DecodeFailures     uint64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// SetCache sets the cache instance for collecting cache metrics.
func (c *Collector) SetCache(cache CacheStats) {
	c.cache = cache
}

// RecordRequest records an API request.
func (c *Collector) RecordRequest(method string) {
	counter := c.getOrCreateCounter(&c.apiRequests, method)
	atomic.AddUint64(counter, 1)
}

// RecordError records an API error.
func (c *Collector) RecordError(method string) {
	counter := c.getOrCreateCounter(&c.apiErrors, method)
	atomic.AddUint64(counter, 1)
}

// RecordDuration records the duration of an API call in seconds.
func (c *Collector) RecordDuration(method string, durationSeconds float64) {
	val, _ := c.apiDuration.LoadOrStore(method, &durationValue{})
	dv := val.(*durationValue)

	dv.mu.Lock()
	dv.totalSeconds += durationSeconds
	dv.mu.Unlock()
}

// RecordValidationFailure records one rejected attribute check of the given kind.
func (c *Collector) RecordValidationFailure(kind string) {
	counter := c.getOrCreateCounter(&c.validationFailures, kind)
	atomic.AddUint64(counter, 1)
}

// RecordDecodeFailure records an agtype value that could not be decoded.
func (c *Collector) RecordDecodeFailure() {
	atomic.AddUint64(&c.decodeFailures, 1)
}

// GetCacheMetrics returns current cache metrics.
func (c *Collector) GetCacheMetrics() *CacheMetrics {
	if c.cache == nil {
		return &CacheMetrics{}
	}

	metrics := c.cache.Metrics()
	if metrics == nil {
		return &CacheMetrics{}
	}

	return &CacheMetrics{
		Hits:        metrics.Hits,
		Misses:      metrics.Misses,
		HitRate:     metrics.HitRate(),
		Evictions:   metrics.KeysEvicted,

		Invalidations: metrics.KeysInvalidated,
		KeysCurrent: int64(c.cache.Len()),
		MemoryBytes: c.cache.Size(),
	}
}

// GetAPIMetrics returns current API metrics.
func (c *Collector) GetAPIMetrics() *APIMetrics {
	result := &APIMetrics{
		RequestCounts:        loadCounters(&c.apiRequests),
		ErrorCounts:          loadCounters(&c.apiErrors),
		TotalDurationSeconds: make(map[string]float64),
	}

	c.apiDuration.Range(func(key, value any) bool {
		dv := value.(*durationValue)
		dv.mu.Lock()
		result.TotalDurationSeconds[key.(string)] = dv.totalSeconds
		dv.mu.Unlock()
		return true
	})

	return result
}

// GetDomainMetrics returns current validation and decode metrics.
func (c *Collector) GetDomainMetrics() *DomainMetrics {
	return &DomainMetrics{
		ValidationFailures: loadCounters(&c.validationFailures),
		DecodeFailures:     atomic.LoadUint64(&c.decodeFailures),
	}
}

func loadCounters(m *sync.Map) map[string]uint64 {
	result := make(map[string]uint64)
	m.Range(func(key, value any) bool {
		result[key.(string)] = atomic.LoadUint64(value.(*uint64))
		return true
	})
	return result
}

// getOrCreateCounter gets or creates a counter for the given key.
func (c *Collector) getOrCreateCounter(m *sync.Map, key string) *uint64 {
	val, _ := m.LoadOrStore(key, new(uint64))
	return val.(*uint64)
}
