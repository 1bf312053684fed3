package store

import (
	"time"

	"github.com/unicache/unicache-go/internal/entry"
)

// Store is the storage backend for a single cache instance: the entry map
// plus the tag index that mirrors it. Implementations are not safe for
// concurrent use; the owning cache serializes all access behind its lock.
type Store interface {
	// Get retrieves the entry for key without touching access metadata.
	Get(key string) (*entry.Entry, bool)

	// Set inserts or overwrites the entry for key and reindexes its tags.
	// Overwriting removes the previous entry's tag references first, so the
	// index stays an exact mirror of stored entries.
	Set(key string, e *entry.Entry)

	// Touch records a hit on key at now.
	Touch(key string, now time.Time)

	// Remove deletes key and its tag references.
	// Returns the removed entry and true if it existed.
	Remove(key string) (*entry.Entry, bool)

	// Contains reports whether key is present, expired or not.
	Contains(key string) bool

	// Keys returns all stored keys in unspecified order.
	Keys() []string

	// KeysWithAnyTag returns the union of keys carrying any of the given
	// tags, sorted.
	KeysWithAnyTag(tags []string) []string

	// TagKeys returns the keys carrying the given tag, sorted.
	TagKeys(tag string) []string

	// Tags returns all tags that index at least one key, sorted.
	Tags() []string

	// ExpiredKeys returns the keys whose entries are expired at now.
	ExpiredKeys(now time.Time) []string

	// Victim returns the eviction candidate chosen by the store's policy.
	Victim() (string, bool)

	// Len returns the number of stored entries.
	Len() int

	// Clear removes all entries and tag references.
	Clear()
}
