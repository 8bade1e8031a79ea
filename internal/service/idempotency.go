package service

import (
	"sync"
	"time"

	"github.com/noah-isme/edt-api/internal/dto"
)

type commandEntry struct {
	result   dto.CommandResult
	storedAt time.Time
}

// CommandCache remembers command outcomes keyed by scope:commandId so a
// retried command replays its recorded result instead of mutating twice.
// Entries expire after the TTL and the map is bounded: inserting past
// capacity evicts the oldest entry.
type CommandCache struct {
	ttl      time.Duration
	capacity int
	mu       sync.RWMutex
	items    map[string]commandEntry
}

// NewCommandCache builds a cache with sane fallbacks for zero values.
func NewCommandCache(ttl time.Duration, capacity int) *CommandCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if capacity <= 0 {
		capacity = 1024
	}
	return &CommandCache{
		ttl:      ttl,
		capacity: capacity,
		items:    make(map[string]commandEntry),
	}
}

// Get returns the recorded outcome for the key if it has not expired.
func (c *CommandCache) Get(key string) (dto.CommandResult, bool) {
	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return dto.CommandResult{}, false
	}
	if time.Since(entry.storedAt) > c.ttl {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return dto.CommandResult{}, false
	}
	return entry.result, true
}

// Put records an outcome, evicting expired entries and, if still over
// capacity, the oldest live one.
func (c *CommandCache) Put(key string, result dto.CommandResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for k, entry := range c.items {
		if now.Sub(entry.storedAt) > c.ttl {
			delete(c.items, k)
		}
	}
	if len(c.items) >= c.capacity {
		oldestKey := ""
		var oldestAt time.Time
		for k, entry := range c.items {
			if oldestKey == "" || entry.storedAt.Before(oldestAt) {
				oldestKey = k
				oldestAt = entry.storedAt
			}
		}
		if oldestKey != "" {
			delete(c.items, oldestKey)
		}
	}
	c.items[key] = commandEntry{result: result, storedAt: now}
}
