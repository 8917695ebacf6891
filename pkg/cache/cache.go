// Package cache defines the key/value cache used for read-mostly lookups such
// as type definitions.
package cache

import (
	"context"
	"time"
)

// Cache stores values of type V under string keys with a per-entry TTL.
type Cache[V any] interface {
	// Get returns the value and true on a hit, or the zero value and false.
	Get(ctx context.Context, key string) (V, bool)

	// Set stores value under key. A zero ttl uses the cache default.
	Set(ctx context.Context, key string, value V, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every entry whose key starts with prefix.
	// Callers namespace keys so a prefix drops one logical group.
	DeletePrefix(ctx context.Context, prefix string) error

	Clear(ctx context.Context) error

	Close() error

	Metrics() *Metrics
}

// Metrics is a point-in-time snapshot of cache counters.
type Metrics struct {
	Hits   uint64
	Misses uint64

	KeysAdded   uint64
	KeysEvicted uint64 // removed for capacity

	// KeysInvalidated counts entries removed by DeletePrefix or Clear
	KeysInvalidated uint64
}

// HitRate returns hits over lookups, or 0 before the first lookup.
func (m *Metrics) HitRate() float64 {
	total := m.Hits + m.Misses
	if total == 0 {
		return 0.0
	}
	return float64(m.Hits) / float64(total)
}
