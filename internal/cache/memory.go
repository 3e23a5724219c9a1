package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// CleanupInterval is how often expired entries are swept.
const CleanupInterval = 30 * time.Second

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is the single-instance Store used when no Redis is configured.
// Values are stored serialized so callers never share pointers with it.
type MemoryCache[T any] struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

func NewMemoryCache[T any](ttl time.Duration) *MemoryCache[T] {
	c := &MemoryCache[T]{
		entries:     make(map[string]memoryEntry),
		ttl:         ttl,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	c.wg.Add(1)
	go c.cleanupLoop()

	return c
}

func (c *MemoryCache[T]) cleanupLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.expire()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *MemoryCache[T]) expire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *MemoryCache[T]) Get(_ context.Context, key string) (*T, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(entry.expiresAt) {
		return nil, ErrCacheMiss
	}

	var value T
	if err := json.Unmarshal(entry.data, &value); err != nil {
		return nil, fmt.Errorf("unmarshal cached value failed: %w", err)
	}
	return &value, nil
}

func (c *MemoryCache[T]) Set(_ context.Context, key string, value *T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cached value failed: %w", err)
	}

	c.mu.Lock()
	c.entries[key] = memoryEntry{data: data, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache[T]) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Close stops the background cleanup and waits for it to finish.
func (c *MemoryCache[T]) Close() error {
	close(c.stopCleanup)
	c.wg.Wait()
	return nil
}
