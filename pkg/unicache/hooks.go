package unicache

// Hooks defines event callbacks for cache operations. Hooks run while the
// instance lock is held, so they must not call back into the cache.
type Hooks struct {
	// OnHit is called when a lookup finds a live entry
	OnHit []OnHitHook

	// OnMiss is called when a lookup finds nothing usable
	OnMiss []OnMissHook

	// OnEvict is called whenever an entry is removed, with the reason
	OnEvict []OnEvictHook
}

// Hook function type definitions
type (
	// OnHitHook is called when a cache hit occurs
	OnHitHook func(key string, value any)

	// OnMissHook is called when a cache miss occurs
	OnMissHook func(key string)

	// OnEvictHook is called when a cache entry is removed
	OnEvictHook func(key string, value any, reason EvictReason)
)

// EvictReason indicates why a cache entry was removed.
type EvictReason int

const (
	// EvictReasonExpired indicates the entry outlived its TTL
	EvictReasonExpired EvictReason = iota

	// EvictReasonCapacity indicates the entry was evicted to make room
	EvictReasonCapacity

	// EvictReasonInvalidated indicates the entry was removed by tag
	// invalidation
	EvictReasonInvalidated

	// EvictReasonDeleted indicates the entry was removed explicitly
	EvictReasonDeleted
)

func (r EvictReason) String() string {
	switch r {
	case EvictReasonExpired:
		return "Expired"
	case EvictReasonCapacity:
		return "Capacity"
	case EvictReasonInvalidated:
		return "Invalidated"
	case EvictReasonDeleted:
		return "Deleted"
	default:
		return "Unknown"
	}
}

// AddOnHit adds an OnHit hook
func (h *Hooks) AddOnHit(hook OnHitHook) {
	h.OnHit = append(h.OnHit, hook)
}

// AddOnMiss adds an OnMiss hook
func (h *Hooks) AddOnMiss(hook OnMissHook) {
	h.OnMiss = append(h.OnMiss, hook)
}

// AddOnEvict adds an OnEvict hook
func (h *Hooks) AddOnEvict(hook OnEvictHook) {
	h.OnEvict = append(h.OnEvict, hook)
}

// invokeOnHit calls all OnHit hooks
func (h *Hooks) invokeOnHit(key string, value any) {
	for _, hook := range h.OnHit {
		if hook != nil {
			hook(key, value)
		}
	}
}

// invokeOnMiss calls all OnMiss hooks
func (h *Hooks) invokeOnMiss(key string) {
	for _, hook := range h.OnMiss {
		if hook != nil {
			hook(key)
		}
	}
}

// invokeOnEvict calls all OnEvict hooks
func (h *Hooks) invokeOnEvict(key string, value any, reason EvictReason) {
	for _, hook := range h.OnEvict {
		if hook != nil {
			hook(key, value, reason)
		}
	}
}
