package download

import (
	"container/list"
	"sync"
	"time"
)

// CacheStats is a point-in-time snapshot of cache effectiveness
type CacheStats struct {
	Size      int   `json:"size"`
	Capacity  int   `json:"capacity"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

type cacheEntry struct {
	contentHash string
	data        []byte
	expiresAt   time.Time
}

// contentCache is a bounded in-memory content cache with FIFO eviction and
// per-entry TTL. Content-addressing means entries never go stale, only old;
// insertion order is therefore as good an eviction signal as recency and
// avoids bookkeeping on the read path.
type contentCache struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List
	capacity int
	ttl      time.Duration

	hits      int64
	misses    int64
	evictions int64

	now func() time.Time
}

func newContentCache(capacity int, ttl time.Duration) *contentCache {
	return &contentCache{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// get returns cached content for a hash, or (nil, false) on miss or expiry.
// Expired entries are removed on access.
func (c *contentCache) get(contentHash string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[contentHash]
	if !ok {
		c.misses++
		return nil, false
	}

	entry := elem.Value.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.entries, contentHash)
		c.misses++
		return nil, false
	}

	c.hits++
	return entry.data, true
}

// put stores content, evicting the oldest entry when at capacity
func (c *contentCache) put(contentHash string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[contentHash]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.data = data
		entry.expiresAt = c.now().Add(c.ttl)
		return
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Front()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).contentHash)
			c.evictions++
		}
	}

	elem := c.order.PushBack(&cacheEntry{
		contentHash: contentHash,
		data:        data,
		expiresAt:   c.now().Add(c.ttl),
	})
	c.entries[contentHash] = elem
}

// clear drops all entries, keeping hit and miss counters
func (c *contentCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// stats returns a snapshot of cache counters
func (c *contentCache) stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Size:      c.order.Len(),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
