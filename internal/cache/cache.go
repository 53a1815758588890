// Package cache provides the filename-lookup cache for TinyFS.
package cache

// NameCache caches filename-to-inode-index resolution results.
type NameCache interface {
	// Get returns the inode index for a name, or (0, false) if not cached.
	Get(name string) (ino int, ok bool)

	// Set caches a name-to-inode mapping.
	Set(name string, ino int)

	// Delete removes a single name from the cache.
	Delete(name string)

	// Clear removes all entries.
	Clear()

	// Stats returns cache statistics.
	Stats() Stats
}

// Stats contains cache performance statistics.
type Stats struct {
	Hits       int64 // Number of cache hits
	Misses     int64 // Number of cache misses
	Entries    int   // Current number of entries
	MaxEntries int   // Maximum capacity
}

// HitRate returns the cache hit rate as a percentage (0-100).
// Returns 0 if no lookups have been performed.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Noop is a NameCache that caches nothing. Used when caching is disabled.
type Noop struct{}

func (Noop) Get(string) (int, bool) { return 0, false }
func (Noop) Set(string, int)        {}
func (Noop) Delete(string)          {}
func (Noop) Clear()                 {}
func (Noop) Stats() Stats           { return Stats{} }
