package memorycache

import (
	"container/list"
	"context"
	"strings"
	"sync"
	"time"

	"github.com/agegraph/typegraph/pkg/cache"
)

// entry represents a cache entry with value and metadata
type entry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
	size      int64 // Approximate memory size in bytes
}

// Cache implements an LRU cache with TTL support.
type Cache[V any] struct {
	mu sync.Mutex

	// LRU tracking
	items     map[string]*list.Element // key -> list element
	evictList *list.List               // front = most recent, back = least recent

	maxSize int64
	ttl     time.Duration
	sizeOf  func(key string, value V) int64

	currentSize int64

	metrics *cacheMetrics
	now     func() time.Time
}

type cacheMetrics struct {
	hits        uint64
	misses      uint64
	keysAdded   uint64
	keysEvicted uint64
	invalidated uint64
}

// Config holds configuration for the memory cache.
type Config[V any] struct {
	// MaxSizeBytes is the maximum total size of cached items in bytes.
	// When this limit is exceeded, least recently used items are evicted.
	MaxSizeBytes int64

	// DefaultTTL is used by Set when it is called with a zero ttl.
	DefaultTTL time.Duration

	// EnableMetrics enables collection of cache metrics.
	EnableMetrics bool

	// SizeOf estimates the memory held by an entry. Defaults to 100 bytes plus the key length.
	SizeOf func(key string, value V) int64
}

var _ cache.Cache[string] = (*Cache[string])(nil)

// New creates a new memory cache with the given configuration.
func New[V any](config *Config[V]) (*Cache[V], error) {
	c := &Cache[V]{
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		maxSize:   config.MaxSizeBytes,
		ttl:       config.DefaultTTL,
		sizeOf:    config.SizeOf,
		now:       time.Now,
	}
	if c.sizeOf == nil {
		c.sizeOf = func(key string, _ V) int64 { return int64(100 + len(key)) }
	}

	if config.EnableMetrics {
		c.metrics = &cacheMetrics{}
	}

	return c, nil
}

// Get retrieves a value from cache and marks it most recently used.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, exists := c.items[key]
	if !exists {
		c.recordMiss()
		return zero, false
	}

	ent := elem.Value.(*entry[V])
	if c.now().After(ent.expiresAt) {
		c.removeElement(elem)
		c.recordMiss()
		return zero, false
	}

	c.evictList.MoveToFront(elem)
	if c.metrics != nil {
		c.metrics.hits++
	}
	return ent.value, true
}

func (c *Cache[V]) recordMiss() {
	if c.metrics != nil {
		c.metrics.misses++
	}
}

// Set stores a value in cache with the specified TTL.
func (c *Cache[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		ttl = c.ttl
	}
	size := c.sizeOf(key, value)
	expiresAt := c.now().Add(ttl)

	if elem, exists := c.items[key]; exists {
		ent := elem.Value.(*entry[V])
		c.currentSize += size - ent.size
		ent.value = value
		ent.expiresAt = expiresAt
		ent.size = size
		c.evictList.MoveToFront(elem)
	} else {
		elem := c.evictList.PushFront(&entry[V]{
			key:       key,
			value:     value,
			expiresAt: expiresAt,
			size:      size,
		})
		c.items[key] = elem
		c.currentSize += size

		if c.metrics != nil {
			c.metrics.keysAdded++
		}
	}

	// Evict LRU items if over capacity
	for c.currentSize > c.maxSize && c.evictList.Len() > 0 {
		c.removeElement(c.evictList.Back())
		if c.metrics != nil {
			c.metrics.keysEvicted++
		}
	}

	return nil
}

// Delete removes a value from cache.
func (c *Cache[V]) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}
	return nil
}

// DeletePrefix removes every entry whose key starts with prefix.
func (c *Cache[V]) DeletePrefix(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, elem := range c.items {
		if strings.HasPrefix(key, prefix) {
			c.removeElement(elem)
			if c.metrics != nil {
				c.metrics.invalidated++
			}
		}
	}
	return nil
}

// Clear removes all entries from cache.
func (c *Cache[V]) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.invalidated += uint64(len(c.items))
	}
	c.items = make(map[string]*list.Element)
	c.evictList.Init()
	c.currentSize = 0
	return nil
}

// Close releases resources (no-op for memory cache).
func (c *Cache[V]) Close() error {
	return nil
}

// Metrics returns cache statistics.
func (c *Cache[V]) Metrics() *cache.Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.metrics == nil {
		return &cache.Metrics{}
	}
	return &cache.Metrics{
		Hits:        c.metrics.hits,
		Misses:      c.metrics.misses,
		KeysAdded:   c.metrics.keysAdded,
		KeysEvicted: c.metrics.keysEvicted,

		KeysInvalidated: c.metrics.invalidated,
	}
}

// removeElement removes an element from cache (must be called with lock held).
func (c *Cache[V]) removeElement(elem *list.Element) {
	c.evictList.Remove(elem)
	ent := elem.Value.(*entry[V])
	delete(c.items, ent.key)
	c.currentSize -= ent.size
}

// Len returns the current number of items in cache.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Size returns the current total size in bytes.
func (c *Cache[V]) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentSize
}
