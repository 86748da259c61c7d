package results

import (
	"container/list"
	"context"
	"encoding/json"
	"sync"
	"time"
)

const (
	// DefaultTTL matches the 7-day retention the Redis backend uses.
	DefaultTTL = 7 * 24 * time.Hour

	// DefaultCapacity bounds the memory backend so it cannot grow without
	// limit under sustained unique submissions.
	DefaultCapacity = 1024
)

type memoryEntry struct {
	fingerprint string
	entry       Entry
	expiresAt   time.Time
}

// MemoryCache is a TTL plus LRU-capacity bounded in-process cache.
type MemoryCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	capacity int
	items    map[string]*list.Element
	order    *list.List // front = most recently used
	now      func() time.Time
}

// NewMemoryCache constructs a MemoryCache. Non-positive ttl or capacity
// fall back to the defaults.
func NewMemoryCache(ttl time.Duration, capacity int) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &MemoryCache{
		ttl:      ttl,
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the cached entry for a fingerprint, expiring it lazily.
func (c *MemoryCache) Get(ctx context.Context, fingerprint string) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[fingerprint]
	if !ok {
		return Entry{}, false, nil
	}
	item := elem.Value.(*memoryEntry)
	if c.now().After(item.expiresAt) {
		c.order.Remove(elem)
		delete(c.items, fingerprint)
		return Entry{}, false, nil
	}
	c.order.MoveToFront(elem)
	return item.entry, true, nil
}

// Put stores a result, overwriting any existing entry and evicting the
// least recently used entry when over capacity.
func (c *MemoryCache) Put(ctx context.Context, fingerprint string, result json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if elem, ok := c.items[fingerprint]; ok {
		item := elem.Value.(*memoryEntry)
		item.entry = Entry{Result: result, CachedAt: now}
		item.expiresAt = now.Add(c.ttl)
		c.order.MoveToFront(elem)
		return nil
	}

	elem := c.order.PushFront(&memoryEntry{
		fingerprint: fingerprint,
		entry:       Entry{Result: result, CachedAt: now},
		expiresAt:   now.Add(c.ttl),
	})
	c.items[fingerprint] = elem

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*memoryEntry).fingerprint)
	}
	return nil
}

var _ Cache = (*MemoryCache)(nil)
