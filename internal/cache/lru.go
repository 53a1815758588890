package cache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// lruCache implements NameCache using an LRU eviction policy.
type lruCache struct {
	cache      *lru.Cache[string, int]
	hits       atomic.Int64
	misses     atomic.Int64
	maxEntries int
}

// NewLRU creates a new LRU-based name cache holding at most maxEntries
// entries.
func NewLRU(maxEntries int) (NameCache, error) {
	cache, err := lru.New[string, int](maxEntries)
	if err != nil {
		return nil, err
	}
	return &lruCache{
		cache:      cache,
		maxEntries: maxEntries,
	}, nil
}

func (c *lruCache) Get(name string) (int, bool) {
	ino, ok := c.cache.Get(name)
	if !ok {
		c.misses.Add(1)
		return 0, false
	}
	c.hits.Add(1)
	return ino, true
}

func (c *lruCache) Set(name string, ino int) {
	c.cache.Add(name, ino)
}

func (c *lruCache) Delete(name string) {
	c.cache.Remove(name)
}

func (c *lruCache) Clear() {
	c.cache.Purge()
}

func (c *lruCache) Stats() Stats {
	return Stats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Entries:    c.cache.Len(),
		MaxEntries: c.maxEntries,
	}
}
