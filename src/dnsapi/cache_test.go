// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package dnsapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheGetSet(t *testing.T) {
	c := newMemoryCache(5 * time.Minute)

	// Miss on empty cache.
	_, ok := c.Get("miss")
	assert.False(t, ok, "expected miss on empty cache")

	want := []string{"10 mail.example.com.", "20 backup.example.com."}
	c.Set("hit", want)

	got, ok := c.Get("hit")
	require.True(t, ok, "expected hit after Set")
	assert.Equal(t, want, got)

	// Mutating the returned slice must not reach the cache.
	got[0] = "mutated"
	again, ok := c.Get("hit")
	require.True(t, ok)
	assert.Equal(t, want, again)
}

func TestMemoryCacheEmptyAnswers(t *testing.T) {
	c := newMemoryCache(5 * time.Minute)
	c.Set(cacheKey("1.1.1.1", "example.com", "AAAA"), nil)

	got, ok := c.Get(cacheKey("1.1.1.1", "example.com", "AAAA"))
	require.True(t, ok)
	assert.NotNil(t, got, "empty answers must stay an empty list")
	assert.Empty(t, got)
}

func TestMemoryCacheExpiration(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := newMemoryCache(time.Minute)
	c.now = func() time.Time { return now }

	c.Set("expiring", []string{"1.2.3.4"})

	_, ok := c.Get("expiring")
	require.True(t, ok, "expected hit before expiration")

	now = now.Add(2 * time.Minute)

	_, ok = c.Get("expiring")
	assert.False(t, ok, "expected miss after expiration")

	// Verify the expired entry was lazily deleted.
	assert.Zero(t, c.Len(), "expected expired entry to be lazily deleted")
}

func TestMemoryCacheFlush(t *testing.T) {
	c := newMemoryCache(5 * time.Minute)

	c.Set("a", []string{"a"})
	c.Set("b", []string{"b"})
	require.Equal(t, 2, c.Len())

	c.Flush()

	_, ok := c.Get("a")
	assert.False(t, ok, "expected miss after Flush for key 'a'")

	_, ok = c.Get("b")
	assert.False(t, ok, "expected miss after Flush for key 'b'")
}

func TestCacheKey(t *testing.T) {
	assert.NotEqual(t,
		cacheKey("1.1.1.1", "example.com", "A"),
		cacheKey("8.8.8.8", "example.com", "A"),
	)
	assert.NotEqual(t,
		cacheKey("1.1.1.1", "example.com", "A"),
		cacheKey("1.1.1.1", "example.com", "AAAA"),
	)
}
