package filetype

import (
	"container/list"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Cache stores detection results keyed by CacheKey.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached result and true if found, nil and false otherwise.
	Get(key string) (*Info, bool)

	// Set stores a result. A TTL of 0 means no expiration.
	Set(key string, info *Info, ttl time.Duration)

	Delete(key string)
	Clear()
}

// CacheStats is implemented by caches that track usage.
type CacheStats interface {
	Stats() CacheStatistics
}

// CacheStatistics contains cache performance metrics.
type CacheStatistics struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int64
	HitRate   float64
}

// CacheKey identifies a file version. A file that is rewritten gets a new
// key as long as its size or modification time changes.
func CacheKey(path string, size int64, modTime time.Time) string {
	h := xxhash.New()
	_, _ = h.WriteString(path)
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(strconv.FormatInt(size, 10))
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(strconv.FormatInt(modTime.UnixNano(), 10))
	return strconv.FormatUint(h.Sum64(), 16)
}

type memoryEntry struct {
	key     string
	info    *Info
	expires time.Time // zero when the entry never expires
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

// MemoryCacheOption configures a MemoryCache
type MemoryCacheOption func(*MemoryCache)

// WithMaxEntries bounds the cache; the least recently used result is evicted
// once n results are stored. n <= 0 means unbounded.
func WithMaxEntries(n int) MemoryCacheOption {
	return func(c *MemoryCache) {
		c.maxEntries = n
	}
}

// MemoryCache is an in-memory Cache with TTL-based expiration and optional
// LRU eviction.
type MemoryCache struct {
	mu         sync.Mutex
	maxEntries int
	order      *list.List // front is most recently used
	entries    map[string]*list.Element

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache(opts ...MemoryCacheOption) *MemoryCache {
	c := &MemoryCache{
		order:   list.New(),
		entries: make(map[string]*list.Element),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get retrieves a result from the cache.
func (c *MemoryCache) Get(key string) (*Info, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	entry := el.Value.(*memoryEntry)
	if entry.expired(time.Now()) {
		c.remove(el)
		c.misses.Add(1)
		return nil, false
	}

	c.order.MoveToFront(el)
	c.hits.Add(1)
	return entry.info, true
}

// Set stores a result in the cache.
func (c *MemoryCache) Set(key string, info *Info, ttl time.Duration) {
	entry := &memoryEntry{key: key, info: info}
	if ttl > 0 {
		entry.expires = time.Now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value = entry
		c.order.MoveToFront(el)
		return
	}
	c.entries[key] = c.order.PushFront(entry)

	for c.maxEntries > 0 && c.order.Len() > c.maxEntries {
		c.remove(c.order.Back())
		c.evictions.Add(1)
	}
}

// Delete removes a result from the cache.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
}

// Clear removes all results from the cache.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
}

// Stats returns cache statistics.
func (c *MemoryCache) Stats() CacheStatistics {
	c.mu.Lock()
	size := int64(c.order.Len())
	c.mu.Unlock()

	hits, misses := c.hits.Load(), c.misses.Load()
	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStatistics{
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
		Size:      size,
		HitRate:   hitRate,
	}
}

// Cleanup removes expired entries from the cache.
// Call this periodically when entries carry a TTL.
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if el.Value.(*memoryEntry).expired(now) {
			c.remove(el)
		}
		el = next
	}
}

func (c *MemoryCache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*memoryEntry).key)
}

var (
	_ Cache      = (*MemoryCache)(nil)
	_ CacheStats = (*MemoryCache)(nil)
)
