package entry

import (
	"sort"
	"time"
)

// Entry is a single cached value with its bookkeeping metadata.
//
// Entries are owned by the cache instance that created them and are only
// read or mutated while that instance's lock is held, so they carry no
// internal synchronization.
type Entry struct {
	// Value is the cached value.
	Value any

	// CreatedAt is when this entry was written. Expiry is measured from it.
	CreatedAt time.Time

	// TTL is the entry lifetime. Non-positive means no expiration.
	TTL time.Duration

	// AccessCount is the number of hits this entry has served.
	AccessCount int64

	// LastAccess is when this entry last served a hit.
	LastAccess time.Time

	// Tags is the set of invalidation tags attached to the entry.
	Tags map[string]struct{}
}

// New creates an entry written at now with the given value, lifetime and tags.
func New(value any, ttl time.Duration, now time.Time, tags []string) *Entry {
	e := &Entry{
		Value:      value,
		CreatedAt:  now,
		TTL:        ttl,
		LastAccess: now,
	}
	if len(tags) > 0 {
		e.Tags = make(map[string]struct{}, len(tags))
		for _, tag := range tags {
			e.Tags[tag] = struct{}{}
		}
	}
	return e
}

// Expired reports whether the entry has outlived its TTL at the given time.
// The boundary is exclusive: an entry is still live when its age equals the
// TTL exactly.
func (e *Entry) Expired(now time.Time) bool {
	if e.TTL <= 0 {
		return false
	}
	return now.Sub(e.CreatedAt) > e.TTL
}

// Touch records a hit at the given time.
func (e *Entry) Touch(now time.Time) {
	e.AccessCount++
	e.LastAccess = now
}

// Age returns how long the entry has existed at the given time.
func (e *Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}

// Remaining returns the time left until expiration.
// Returns 0 if the entry never expires or has already expired.
func (e *Entry) Remaining(now time.Time) time.Duration {
	if e.TTL <= 0 {
		return 0
	}
	remaining := e.TTL - now.Sub(e.CreatedAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// HasTag reports whether the entry carries the given tag.
func (e *Entry) HasTag(tag string) bool {
	_, ok := e.Tags[tag]
	return ok
}

// TagList returns the entry's tags as a sorted slice.
func (e *Entry) TagList() []string {
	if len(e.Tags) == 0 {
		return nil
	}
	tags := make([]string, 0, len(e.Tags))
	for tag := range e.Tags {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
