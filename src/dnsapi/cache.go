// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package dnsapi

import (
	"sync"
	"time"
)

// Cache defines an interface for caching per-resolver answers.
// Implement this interface to provide a custom cache backend
// (e.g., Redis, memcached) via the [WithCache] option.
type Cache interface {
	// Get retrieves cached answer lines by key.
	// Returns the answers and true if found and not expired,
	// or nil and false otherwise.
	Get(key string) ([]string, bool)

	// Set stores answer lines in the cache with the configured TTL.
	Set(key string, answers []string)

	// Flush removes all entries from the cache.
	Flush()
}

// cacheKey identifies one resolver's answer for one name and type.
func cacheKey(resolver, domain, rtype string) string {
	return resolver + "|" + domain + "|" + rtype
}

// cacheEntry holds cached answers with their expiration time.
type cacheEntry struct {
	answers   []string
	expiresAt time.Time
}

// memoryCache is the default in-memory cache implementation with TTL support.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// newMemoryCache creates a new in-memory cache with the given TTL.
func newMemoryCache(ttl time.Duration) *memoryCache {
	return &memoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves cached answers by key.
// Returns false if the entry does not exist or has expired.
func (c *memoryCache) Get(key string) ([]string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if c.now().After(entry.expiresAt) {
		// Lazily remove expired entries.
		c.mu.Lock()
		// The entry may have been refreshed between the two locks.
		if current, exists := c.entries[key]; exists && current.expiresAt.Equal(entry.expiresAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	out := make([]string, len(entry.answers))
	copy(out, entry.answers)
	return out, true
}

// Set stores answers in the cache with the configured TTL.
func (c *memoryCache) Set(key string, answers []string) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{
		answers:   append(make([]string, 0, len(answers)), answers...),
		expiresAt: c.now().Add(c.ttl),
	}
	c.mu.Unlock()
}

// Flush removes all entries from the cache.
func (c *memoryCache) Flush() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of entries, expired or not.
func (c *memoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
