package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

const defaultMemoryCapacity = 10000

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryClient is a bounded in-process cache. When full it evicts the entry
// closest to expiry, and a background sweeper drops expired entries so the
// map does not grow with dead keys between reads.
type MemoryClient struct {
	mu       sync.RWMutex
	entries  map[string]memoryEntry
	capacity int
	done     chan struct{}
	closeOne sync.Once
}

// NewMemoryClient creates an in-process cache holding at most capacity
// entries. A non-positive capacity falls back to a sensible default.
func NewMemoryClient(capacity int) *MemoryClient {
	if capacity <= 0 {
		capacity = defaultMemoryCapacity
	}

	c := &MemoryClient{
		entries:  make(map[string]memoryEntry),
		capacity: capacity,
		done:     make(chan struct{}),
	}
	go c.sweep()
	return c
}

func (c *MemoryClient) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, ErrCacheMiss
	}
	return entry.value, nil
}

func (c *MemoryClient) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.capacity {
		c.evictEarliest()
	}
	c.entries[key] = memoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
	return nil
}

func (c *MemoryClient) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	return nil
}

func (c *MemoryClient) DeleteByPrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

// Close stops the background sweeper.
func (c *MemoryClient) Close() error {
	c.closeOne.Do(func() { close(c.done) })
	return nil
}

// evictEarliest drops the entry with the nearest expiry. Called with the
// write lock held.
func (c *MemoryClient) evictEarliest() {
	var victim string
	var earliest time.Time
	for key, entry := range c.entries {
		if victim == "" || entry.expiresAt.Before(earliest) {
			victim = key
			earliest = entry.expiresAt
		}
	}
	if victim != "" {
		delete(c.entries, victim)
	}
}

func (c *MemoryClient) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case now := <-ticker.C:
			c.mu.Lock()
			for key, entry := range c.entries {
				if now.After(entry.expiresAt) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}
