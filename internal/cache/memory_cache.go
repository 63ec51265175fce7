package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	page      *HistoryPage
	expiresAt time.Time
}

// MemoryHistoryCache is the in-process fallback used when Redis is not
// configured, and in tests.
type MemoryHistoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	prefix  string
}

func NewMemoryHistoryCache(prefix string) *MemoryHistoryCache {
	return &MemoryHistoryCache{
		entries: make(map[string]memoryEntry),
		prefix:  prefix,
	}
}

func (c *MemoryHistoryCache) BuildKey(roomID, viewerID string, beforeMillis int64, limit int) string {
	return fmt.Sprintf("%s:%s:%s:%d:%d", c.prefix, roomID, viewerID, beforeMillis, limit)
}

func (c *MemoryHistoryCache) Get(_ context.Context, key string) (*HistoryPage, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return entry.page, nil
}

func (c *MemoryHistoryCache) Set(_ context.Context, key string, page *HistoryPage, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = memoryEntry{
		page:      page,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (c *MemoryHistoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]memoryEntry)
	return nil
}
