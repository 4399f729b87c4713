// Package cacheengine implements the concurrent LRU+TTL key-value store at
// the core of a cache node: a map for O(1) lookup, an intrusive recency list
// for eviction order, atomic hit/miss counters, and a background sweeper
// that reclaims expired entries independent of reads.
//
// Invariants maintained at every point where the cache's lock is not held:
//
//   - the key set of the map equals the key set of the recency list
//   - every entry's list element locates that same entry's own key
//   - the map never holds more than Capacity() live entries
//   - no two entries share a recency list position
//   - an entry whose expiry has passed is never returned as a hit
//
// Get always takes the exclusive lock because it promotes the accessed key
// to the front of the recency list; there is no read-mostly fast path here,
// since LRU promotion is itself a mutation of shared state.
package cacheengine
