package download

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestCache_HitAndMiss tests basic lookup behaviour and counters
func TestCache_HitAndMiss(t *testing.T) {
	c := newContentCache(4, time.Minute)

	_, ok := c.get("hash-1")
	assert.False(t, ok)

	c.put("hash-1", []byte("content"))
	data, ok := c.get("hash-1")
	assert.True(t, ok)
	assert.Equal(t, []byte("content"), data)

	stats := c.stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

// TestCache_TTLExpiry tests that entries expire after their TTL and expired
// entries count as misses
func TestCache_TTLExpiry(t *testing.T) {
	c := newContentCache(4, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.put("hash-1", []byte("content"))

	now = now.Add(30 * time.Second)
	_, ok := c.get("hash-1")
	assert.True(t, ok, "entry should survive within TTL")

	now = now.Add(31 * time.Second)
	_, ok = c.get("hash-1")
	assert.False(t, ok, "entry should expire after TTL")
	assert.Equal(t, 0, c.stats().Size)
}

// TestCache_FIFOEviction tests that the oldest entry leaves first at
// capacity, regardless of access recency
func TestCache_FIFOEviction(t *testing.T) {
	c := newContentCache(3, time.Minute)

	for i := 1; i <= 3; i++ {
		c.put(fmt.Sprintf("hash-%d", i), []byte{byte(i)})
	}

	// Touching the oldest entry must not save it from FIFO eviction.
	_, ok := c.get("hash-1")
	assert.True(t, ok)

	c.put("hash-4", []byte{4})

	_, ok = c.get("hash-1")
	assert.False(t, ok, "oldest entry should have been evicted")
	_, ok = c.get("hash-2")
	assert.True(t, ok)
	_, ok = c.get("hash-4")
	assert.True(t, ok)
	assert.Equal(t, int64(1), c.stats().Evictions)
}

// TestCache_PutExistingRefreshes tests that re-putting a hash refreshes its
// TTL without growing the cache
func TestCache_PutExistingRefreshes(t *testing.T) {
	c := newContentCache(2, time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	c.put("hash-1", []byte("v1"))
	now = now.Add(50 * time.Second)
	c.put("hash-1", []byte("v1"))
	now = now.Add(30 * time.Second)

	_, ok := c.get("hash-1")
	assert.True(t, ok, "refreshed entry should still be live")
	assert.Equal(t, 1, c.stats().Size)
}

// TestCache_Clear tests that clearing drops entries but keeps counters
func TestCache_Clear(t *testing.T) {
	c := newContentCache(4, time.Minute)
	c.put("hash-1", []byte("content"))
	c.get("hash-1")

	c.clear()

	_, ok := c.get("hash-1")
	assert.False(t, ok)
	stats := c.stats()
	assert.Equal(t, 0, stats.Size)
	assert.Equal(t, int64(1), stats.Hits)
}
