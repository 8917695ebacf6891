package metrics

// Recorder forwards service events to the collector and, when set, the
// Prometheus exporter. A nil *Recorder discards everything.
type Recorder struct {
	collector *Collector
	exporter  *PrometheusExporter
}

// NewRecorder creates a Recorder. exporter may be nil.
func NewRecorder(collector *Collector, exporter *PrometheusExporter) *Recorder {
	return &Recorder{collector: collector, exporter: exporter}
}

// ValidationFailed records one failed attribute check of the given kind
func (r *Recorder) ValidationFailed(kind string) {
	if r == nil {
		return
	}
	r.collector.RecordValidationFailure(kind)
	if r.exporter != nil {
		r.exporter.RecordValidationFailure(kind)
	}
}

// DecodeFailed records an agtype value that could not be decoded
func (r *Recorder) DecodeFailed() {
	if r == nil {
		return
	}
	r.collector.RecordDecodeFailure()
	if r.exporter != nil {
		r.exporter.RecordDecodeFailure()
	}
}

// CacheHit records a type definition cache hit
func (r *Recorder) CacheHit() {
	if r != nil && r.exporter != nil {
		r.exporter.RecordCacheHit()
	}
}

// CacheMiss records a type definition cache miss
func (r *Recorder) CacheMiss() {
	if r != nil && r.exporter != nil {
		r.exporter.RecordCacheMiss()
	}
}
