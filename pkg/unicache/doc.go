// Package unicache provides a thread-safe, in-process cache with per-entry
// TTLs, tag-based bulk invalidation, bounded capacity with pluggable
// eviction, and transparent function memoization.
//
// # Overview
//
// unicache is built for request-serving applications that cache expensive
// lookups (users, tokens, query results) in process memory. Entries are
// addressed by a namespace plus an identifier, carry optional invalidation
// tags, and expire individually. A registry hands out named cache
// instances so independent subsystems share configuration without sharing
// keyspaces.
//
// # Key Features
//
//   - Thread-safe access: every instance serializes operations behind one lock
//   - Per-entry time-to-live with lazy expiry and a background reaper
//   - Tag-based bulk invalidation with per-key invalidation callbacks
//   - Bounded capacity with FIFO (default), LRU or LFU eviction
//   - Deterministic keys for structured identifiers via canonical hashing
//   - Function memoization with identical call signatures
//   - Named instance registry with a fixed tier and a bounded ad-hoc pool
//   - Structured logging via zap, statistics, hooks and a debug HTTP handler
//   - Prometheus and OpenTelemetry metrics export
//   - Optional singleflight deduplication for wrapped functions
//
// # Basic Usage
//
// Create a cache and perform basic operations:
//
//	cache, err := unicache.New(unicache.NewDefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer cache.Close()
//
//	// Store a value with a 1-hour TTL, tagged for bulk invalidation
//	cache.Set("user", 123, userData, time.Hour, "users", "profile")
//
//	// Retrieve a value
//	value, found := cache.Get("user", 123)
//	if found {
//	    user := value.(UserData)
//	    fmt.Printf("Found user: %+v\n", user)
//	}
//
//	// Drop every entry tagged "users"
//	removed := cache.InvalidateTags("users")
//	fmt.Printf("Invalidated %d entries\n", removed)
//
//	// Check statistics
//	stats := cache.Stats()
//	fmt.Printf("Hit rate: %.2f\n", stats.HitRate)
//
// # Keys, Namespaces and Tags
//
// Keys are composed from a namespace and an identifier. String and integer
// identifiers appear verbatim as "namespace:identifier"; structured
// identifiers (structs, maps, slices) are canonicalized and content-hashed
// so identical content always yields the same key:
//
//	cache.Set("query", map[string]any{"page": 1, "sort": "name"}, rows, 0)
//	// key is "query:<sha256 of the canonical form>", independent of map order
//
// Tags group entries across namespaces for bulk removal. Overwriting an
// entry replaces its tags; stale tags never reach the new value.
//
// # Named Instances
//
// The registry owns a fixed tier of long-lived caches and a bounded pool
// of ad-hoc ones:
//
//	registry, err := unicache.NewRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer registry.Close()
//
//	users, _ := registry.User()       // fixed: 1h TTL, 5000 entries
//	sessions, _ := registry.Get("sessions") // ad-hoc, pooled
//
// # Function Memoization
//
// Cache expensive function calls automatically:
//
//	// Original expensive function
//	func fetchUser(ctx context.Context, userID int) (*User, error) {
//	    return queryDatabase(ctx, userID)
//	}
//
//	// Wrap with caching; the context parameter never affects the key
//	cachedFetchUser := unicache.Wrap(cache, fetchUser,
//	    unicache.WithTTL(5*time.Minute),
//	    unicache.WithTags("users"))
//
//	// Use exactly like the original function
//	user1, err := cachedFetchUser(ctx, 123) // database query
//	user2, err := cachedFetchUser(ctx, 123) // cache hit
//
// Errors are returned to the caller and never cached. Concurrent calls
// for the same uncached key each execute the function; add
// WithSingleFlight to share one execution instead.
//
// # Configuration
//
// Customize cache behavior with fluent configuration:
//
//	config := unicache.NewDefaultConfig().
//	    WithMaxEntries(10000).
//	    WithDefaultTTL(30*time.Minute).
//	    WithCleanupInterval(5*time.Minute).
//	    WithEviction(unicache.EvictionLRU).
//	    WithLogger(logger)
//
//	cache, err := unicache.New(config)
//
// # Invalidation Callbacks
//
// React to tag invalidation of specific keys:
//
//	cache.AddInvalidationCallback(unicache.Key("user", 123), func(key string, value any) {
//	    notifySessionLayer(key)
//	})
//
// Callbacks fire only for tag invalidation, with the value the entry last
// held. A panicking callback is logged and never aborts the batch.
//
// # Metrics Integration
//
// Export metrics to Prometheus:
//
//	import "github.com/unicache/unicache-go/pkg/metrics"
//
//	exporter, err := metrics.NewPrometheusExporter(nil, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	config := unicache.NewDefaultConfig().
//	    WithMetricsExporter(exporter, "user-cache")
//
//	cache, _ := unicache.New(config)
//
// # Error Handling
//
// The cache degrades gracefully:
//   - Get never fails; it returns (nil, false) for missing or expired entries
//   - Wrapped functions fall back to direct execution when their cache is unavailable
//   - Callback and hook panics are recovered and logged
//   - Reaper failures are logged and the loop continues on the next tick
//
// # Examples
//
// See the examples directory for complete, runnable examples covering
// basic usage, the instance registry, function memoization, the debug
// server, and Prometheus export.
//
// For more detailed documentation, visit:
// https://github.com/unicache/unicache-go
package unicache
