package eviction

import (
	"github.com/hashicorp/golang-lru/v2/simplelru"
)

// LRUPolicy orders keys by recency of use. Both hits and writes refresh a
// key. Backed by the unsynchronized simplelru core; the extra slot keeps
// the list from evicting on its own, since victim selection belongs to the
// owning cache.
type LRUPolicy struct {
	recency *simplelru.LRU[string, struct{}]
}

// NewLRUPolicy creates an LRU eviction policy sized for capacity entries.
func NewLRUPolicy(capacity int) *LRUPolicy {
	if capacity < 1 {
		capacity = 1
	}
	recency, err := simplelru.NewLRU[string, struct{}](capacity+1, nil)
	if err != nil {
		// Unreachable with a positive size.
		panic("eviction: " + err.Error())
	}
	return &LRUPolicy{recency: recency}
}

// Added registers key as most recently used.
func (p *LRUPolicy) Added(key string) {
	p.recency.Add(key, struct{}{})
}

// Accessed marks key as most recently used.
func (p *LRUPolicy) Accessed(key string) {
	p.recency.Get(key)
}

// Removed drops key from the recency list.
func (p *LRUPolicy) Removed(key string) {
	p.recency.Remove(key)
}

// Victim returns the least recently used key.
func (p *LRUPolicy) Victim() (string, bool) {
	key, _, ok := p.recency.GetOldest()
	return key, ok
}

// Len returns the number of tracked keys.
func (p *LRUPolicy) Len() int {
	return p.recency.Len()
}

// Clear drops all tracked keys.
func (p *LRUPolicy) Clear() {
	p.recency.Purge()
}
