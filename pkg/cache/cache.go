// Package cache provides a TTL cache used to memoize broker contract-id
// resolution across scan cycles; contract ids are stable for the life of
// a listing, so re-resolving every cycle wastes gateway round-trips.
package cache

import "time"

// Cache is the interface for the contract-id cache.
type Cache interface {
	// Get retrieves a value. Returns (value, true) on a hit.
	Get(key string) (interface{}, bool)

	// Set stores a value with a TTL.
	Set(key string, value interface{}, ttl time.Duration) bool

	// Delete removes a value.
	Delete(key string)

	// Close releases cache resources.
	Close()
}
