// Package memory provides the in-memory storage backend: the entry map,
// the tag index that mirrors it, and the eviction policy tracker.
package memory

import (
	"sort"
	"time"

	"github.com/unicache/unicache-go/internal/entry"
	"github.com/unicache/unicache-go/internal/eviction"
	"github.com/unicache/unicache-go/internal/store"
)

// Store holds entries and their tag index. It is not safe for concurrent
// use; the owning cache serializes access behind its lock.
type Store struct {
	entries map[string]*entry.Entry
	tags    map[string]map[string]struct{}
	policy  eviction.Policy
}

// Ensure Store implements the store interface.
var _ store.Store = (*Store)(nil)

// New creates an empty store tracking eviction order with the given policy.
func New(policy eviction.Policy) *Store {
	return &Store{
		entries: make(map[string]*entry.Entry),
		tags:    make(map[string]map[string]struct{}),
		policy:  policy,
	}
}

// Get retrieves the entry for key without touching access metadata.
func (s *Store) Get(key string) (*entry.Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

// Set inserts or overwrites the entry for key. On overwrite the previous
// entry's tag references are removed first, so the index never keeps a key
// under tags its current entry no longer carries.
func (s *Store) Set(key string, e *entry.Entry) {
	if old, ok := s.entries[key]; ok {
		s.unindex(key, old)
	}
	s.entries[key] = e
	s.index(key, e)
	s.policy.Added(key)
}

// Touch records a hit on key at now.
func (s *Store) Touch(key string, now time.Time) {
	if e, ok := s.entries[key]; ok {
		e.Touch(now)
		s.policy.Accessed(key)
	}
}

// Remove deletes key and its tag references.
func (s *Store) Remove(key string) (*entry.Entry, bool) {
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	delete(s.entries, key)
	s.unindex(key, e)
	s.policy.Removed(key)
	return e, true
}

// Contains reports whether key is present, expired or not.
func (s *Store) Contains(key string) bool {
	_, ok := s.entries[key]
	return ok
}

// Keys returns all stored keys in unspecified order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	return keys
}

// KeysWithAnyTag returns the union of keys carrying any of the given tags,
// sorted so removal batches run in a stable order.
func (s *Store) KeysWithAnyTag(tags []string) []string {
	seen := make(map[string]struct{})
	for _, tag := range tags {
		for key := range s.tags[tag] {
			seen[key] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// TagKeys returns the keys carrying the given tag, sorted.
func (s *Store) TagKeys(tag string) []string {
	bucket := s.tags[tag]
	if len(bucket) == 0 {
		return nil
	}
	keys := make([]string, 0, len(bucket))
	for key := range bucket {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Tags returns all tags that index at least one key, sorted.
func (s *Store) Tags() []string {
	tags := make([]string, 0, len(s.tags))
	for tag := range s.tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// ExpiredKeys returns the keys whose entries are expired at now, sorted.
func (s *Store) ExpiredKeys(now time.Time) []string {
	var keys []string
	for key, e := range s.entries {
		if e.Expired(now) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Victim returns the eviction candidate chosen by the policy.
func (s *Store) Victim() (string, bool) {
	return s.policy.Victim()
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Clear removes all entries and tag references.
func (s *Store) Clear() {
	s.entries = make(map[string]*entry.Entry)
	s.tags = make(map[string]map[string]struct{})
	s.policy.Clear()
}

func (s *Store) index(key string, e *entry.Entry) {
	for tag := range e.Tags {
		bucket, ok := s.tags[tag]
		if !ok {
			bucket = make(map[string]struct{})
			s.tags[tag] = bucket
		}
		bucket[key] = struct{}{}
	}
}

// unindex drops key's tag references, pruning buckets that become empty.
func (s *Store) unindex(key string, e *entry.Entry) {
	for tag := range e.Tags {
		bucket, ok := s.tags[tag]
		if !ok {
			continue
		}
		delete(bucket, key)
		if len(bucket) == 0 {
			delete(s.tags, tag)
		}
	}
}
