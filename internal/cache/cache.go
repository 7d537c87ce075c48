// Package cache provides the typed TTL stores that memoize upstream market
// API responses. Entries expire after a fixed TTL and expired entries behave
// as absent; there is no capacity bound because the key space (per-coin,
// per-currency, per-window) is small.
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ctmes/CryptoTwin/internal/pkg/metrics"
)

// Store is a typed TTL cache. It is safe for concurrent use.
type Store[T any] struct {
	name    string
	backend *gocache.Cache
}

// New creates a Store whose entries expire ttl after they are written.
// cleanupInterval controls how often fully expired entries are reclaimed in
// the background; lookups never return expired values regardless. The name
// labels hit/miss metrics.
func New[T any](name string, ttl, cleanupInterval time.Duration) *Store[T] {
	return &Store[T]{
		name:    name,
		backend: gocache.New(ttl, cleanupInterval),
	}
}

// Set stores value under key with the store TTL, overwriting any prior entry.
func (s *Store[T]) Set(key string, value T) {
	s.backend.Set(key, value, gocache.DefaultExpiration)
}

// Get returns the value for key if present and unexpired.
func (s *Store[T]) Get(key string) (T, bool) {
	raw, found := s.backend.Get(key)
	if !found {
		metrics.CacheMisses.WithLabelValues(s.name).Inc()
		var zero T
		return zero, false
	}
	value, ok := raw.(T)
	if !ok {
		metrics.CacheMisses.WithLabelValues(s.name).Inc()
		var zero T
		return zero, false
	}
	metrics.CacheHits.WithLabelValues(s.name).Inc()
	return value, true
}

// Clear empties the store unconditionally.
func (s *Store[T]) Clear() {
	s.backend.Flush()
}

// Len returns the number of entries, counting not-yet-reclaimed expired ones.
func (s *Store[T]) Len() int {
	return s.backend.ItemCount()
}
