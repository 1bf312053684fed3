package eviction

// Policy tracks candidate ordering for capacity eviction. Policies hold
// keys only; entry storage belongs to the store. Policies are not safe for
// concurrent use; the owning cache serializes access behind its lock.
type Policy interface {
	// Added records that key was inserted or overwritten. Overwriting
	// renews the entry's creation time, so policies that order by creation
	// re-register the key as newest.
	Added(key string)

	// Accessed records a hit on key.
	Accessed(key string)

	// Removed drops key from the tracker.
	Removed(key string)

	// Victim returns the next key to evict, without removing it. Callers
	// remove the entry from the store, which reports back via Removed.
	Victim() (string, bool)

	// Len returns the number of tracked keys.
	Len() int

	// Clear drops all tracked keys.
	Clear()
}

// PolicyType selects an eviction policy.
type PolicyType string

const (
	// FIFO evicts the entry with the oldest creation time.
	FIFO PolicyType = "fifo"

	// LRU evicts the entry that has gone longest without a hit or write.
	LRU PolicyType = "lru"

	// LFU evicts the entry with the fewest hits.
	LFU PolicyType = "lfu"
)

// New creates a policy of the given type sized for capacity entries.
// Unknown types fall back to FIFO.
func New(t PolicyType, capacity int) Policy {
	switch t {
	case LRU:
		return NewLRUPolicy(capacity)
	case LFU:
		return NewLFUPolicy()
	default:
		return NewFIFOPolicy()
	}
}
