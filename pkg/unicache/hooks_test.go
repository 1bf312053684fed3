package unicache

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestHooksInvocation(t *testing.T) {
	hooks := &Hooks{}

	var hits, misses, evicts int32
	hooks.AddOnHit(func(key string, value any) { atomic.AddInt32(&hits, 1) })
	hooks.AddOnHit(func(key string, value any) { atomic.AddInt32(&hits, 1) })
	hooks.AddOnMiss(func(key string) { atomic.AddInt32(&misses, 1) })
	hooks.AddOnEvict(func(key string, value any, reason EvictReason) { atomic.AddInt32(&evicts, 1) })

	hooks.invokeOnHit("k", "v")
	hooks.invokeOnMiss("k")
	hooks.invokeOnEvict("k", "v", EvictReasonExpired)

	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("Expected 2 hit hook invocations, got %d", n)
	}
	if n := atomic.LoadInt32(&misses); n != 1 {
		t.Fatalf("Expected 1 miss hook invocation, got %d", n)
	}
	if n := atomic.LoadInt32(&evicts); n != 1 {
		t.Fatalf("Expected 1 evict hook invocation, got %d", n)
	}
}

func TestHooksNilSafe(t *testing.T) {
	hooks := &Hooks{
		OnHit:   []OnHitHook{nil},
		OnMiss:  []OnMissHook{nil},
		OnEvict: []OnEvictHook{nil},
	}

	// Nil hooks are skipped without panicking.
	hooks.invokeOnHit("k", "v")
	hooks.invokeOnMiss("k")
	hooks.invokeOnEvict("k", "v", EvictReasonDeleted)
}

func TestEvictReasonString(t *testing.T) {
	cases := []struct {
		reason   EvictReason
		expected string
	}{
		{EvictReasonExpired, "Expired"},
		{EvictReasonCapacity, "Capacity"},
		{EvictReasonInvalidated, "Invalidated"},
		{EvictReasonDeleted, "Deleted"},
		{EvictReason(42), "Unknown"},
	}

	for _, tc := range cases {
		if s := tc.reason.String(); s != tc.expected {
			t.Fatalf("Expected %q, got %q", tc.expected, s)
		}
	}
}

func TestCacheHookIntegration(t *testing.T) {
	hooks := &Hooks{}

	type evictEvent struct {
		key    string
		value  any
		reason EvictReason
	}
	var hitKeys, missKeys []string
	var evicts []evictEvent

	// Hooks run under the cache lock, so plain slices are safe here.
	hooks.AddOnHit(func(key string, value any) { hitKeys = append(hitKeys, key) })
	hooks.AddOnMiss(func(key string) { missKeys = append(missKeys, key) })
	hooks.AddOnEvict(func(key string, value any, reason EvictReason) {
		evicts = append(evicts, evictEvent{key, value, reason})
	})

	cache := newTestCache(t, NewDefaultConfig().
		WithMaxEntries(1).
		WithCleanupInterval(0).
		WithHooks(hooks))

	cache.Get("k", "absent")                   // miss
	cache.Set("k", "a", 1, time.Minute)        // fill
	cache.Get("k", "a")                        // hit
	cache.Set("k", "b", 2, time.Minute)        // capacity eviction of a
	cache.Set("k", "b", 2, 5*time.Millisecond) // overwrite with short TTL
	time.Sleep(10 * time.Millisecond)
	cache.Get("k", "b")                          // expired eviction of b
	cache.Set("k", "c", 3, time.Minute, "batch") // fill
	cache.InvalidateTags("batch")                // invalidation eviction of c
	cache.Set("k", "d", 4, time.Minute)          // fill
	cache.Delete("k", "d")                       // explicit delete of d

	if len(hitKeys) != 1 || hitKeys[0] != "k:a" {
		t.Fatalf("Expected one hit for k:a, got %v", hitKeys)
	}
	if len(missKeys) != 2 {
		t.Fatalf("Expected 2 misses, got %v", missKeys)
	}

	expected := []evictEvent{
		{"k:a", 1, EvictReasonCapacity},
		{"k:b", 2, EvictReasonExpired},
		{"k:c", 3, EvictReasonInvalidated},
		{"k:d", 4, EvictReasonDeleted},
	}
	if len(evicts) != len(expected) {
		t.Fatalf("Expected %d evictions, got %v", len(expected), evicts)
	}
	for i, want := range expected {
		if evicts[i] != want {
			t.Fatalf("Expected eviction %d to be %+v, got %+v", i, want, evicts[i])
		}
	}
}
