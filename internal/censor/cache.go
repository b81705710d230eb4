// ABOUTME: Concurrent compiled-pattern cache keyed by pattern text
// ABOUTME: Caches compile failures too so a bad pattern is parsed only once

package censor

import (
	"sync"
	"sync/atomic"
)

// CacheStats contains counters for a PatternCache.
type CacheStats struct {
	Entries int64
	Hits    int64
	Misses  int64
}

type cacheEntry struct {
	matcher *Matcher
	err     error
}

// PatternCache memoizes Compile. Entries are never mutated once stored, so
// any number of goroutines may read it concurrently.
type PatternCache struct {
	entries sync.Map // pattern -> *cacheEntry
	size    atomic.Int64
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewPatternCache creates an empty cache.
func NewPatternCache() *PatternCache {
	return &PatternCache{}
}

// Compile returns the cached matcher for pattern, compiling it on first use.
func (c *PatternCache) Compile(pattern string) (*Matcher, error) {
	if v, ok := c.entries.Load(pattern); ok {
		c.hits.Add(1)
		e := v.(*cacheEntry)
		return e.matcher, e.err
	}

	c.misses.Add(1)
	m, err := Compile(pattern)
	v, loaded := c.entries.LoadOrStore(pattern, &cacheEntry{matcher: m, err: err})
	if !loaded {
		c.size.Add(1)
	}
	e := v.(*cacheEntry)
	return e.matcher, e.err
}

// Stats returns the cache counters.
func (c *PatternCache) Stats() CacheStats {
	return CacheStats{
		Entries: c.size.Load(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
