package cache

import (
	"net/http"
	"time"
)

// Provider is an interface for a cache provider.
// It stores and retrieves cache entries, which represent HTTP responses.
// It also keeps track of expiration times of cache entries.
// Operating on specific keys or key prefixes is very important
// in order for many origins to be able to be stored in the same cache.
//
// Implementations must be thread-safe!
type Provider interface {
	// Get returns the entry stored under the given key, if it exists.
	// It also returns a boolean indicating whether retrieval was successful.
	// If the cache entry has expired, the boolean is false
	// and the provider purges the entry.
	Get(key string) (Entry, bool, error)
	// Put stores the given entry under its key.
	// Any entry already stored under the same key is replaced.
	Put(entry Entry) error
	// Purge removes the cache entry for the given key.
	Purge(key string)
	// PurgePrefix removes every entry whose key starts with the given prefix.
	// The prefix is matched as a plain string, not a pattern.
	// Purging a prefix that matches nothing is a no-op.
	PurgePrefix(prefix string)
	// Has checks if the specified key exists in the cache.
	Has(key string) bool
	// Keys calls the given callback for each key with the given prefix.
	// It calls the callback in order to enable very large lists of keys to be
	// processable (provider implementation might use paging, for instance).
	Keys(prefix string, cb func(key string))
	// Len returns the number of stored entries.
	Len() int
	// PurgeExpired removes entries whose expiry time has passed.
	// It exists so that expired entries that are never read again
	// do not accumulate.
	PurgeExpired()
}

// Entry is a single cached HTTP response.
type Entry struct {
	Key    string
	Status int
	Header http.Header
	Body   []byte
	// Compression names the compressor that encoded Body, empty for none.
	Compression string
	StoredAt    time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the entry has passed its expiry time.
// Entries with a zero expiry time never expire.
func (e Entry) Expired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}
