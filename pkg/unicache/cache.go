package unicache

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/unicache/unicache-go/internal/entry"
	"github.com/unicache/unicache-go/internal/eviction"
	"github.com/unicache/unicache-go/internal/store"
	"github.com/unicache/unicache-go/internal/store/memory"
	"github.com/unicache/unicache-go/pkg/metrics"
)

// InvalidationCallback is called when a key is removed by tag invalidation.
// It receives the key and the value the entry held when it was removed.
type InvalidationCallback func(key string, value any)

// Cache is an in-process key-value cache with per-entry TTLs, tag-based
// invalidation and capacity eviction. All operations on one instance are
// serialized behind a single lock; lookups mutate access metadata, so there
// is no read path that could share the lock.
type Cache struct {
	config *Config
	store  store.Store
	stats  *Stats
	hooks  *Hooks
	logger *zap.Logger
	mu     sync.Mutex

	// callbacks maps a cache key to its invalidation callbacks, keyed by
	// function pointer so a callback can be removed by identity.
	callbacks map[string]map[uintptr]InvalidationCallback

	// Reaper lifecycle. The goroutine starts lazily on the first Get or
	// Set and never restarts once the cache is closed.
	reaperStarted bool
	closed        bool
	reaperStop    chan struct{}
	reaperDone    chan struct{}

	// Metrics
	metricsExporter metrics.Exporter
	metricsLabels   metrics.Labels
	metricsStop     chan struct{}
	metricsWg       sync.WaitGroup
}

func (c *Cache) lock(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

// New creates a new Cache instance with the given configuration
func New(config *Config) (*Cache, error) {
	if config == nil {
		config = NewDefaultConfig()
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Name != "" {
		logger = logger.With(zap.String("cache", config.Name))
	}

	policy := eviction.New(eviction.PolicyType(config.Eviction), config.MaxEntries)

	cache := &Cache{
		config:    config,
		store:     memory.New(policy),
		stats:     &Stats{},
		hooks:     config.Hooks,
		logger:    logger,
		callbacks: make(map[string]map[uintptr]InvalidationCallback),
	}

	if config.CleanupInterval > 0 {
		cache.reaperStop = make(chan struct{})
		cache.reaperDone = make(chan struct{})
	}

	cache.initializeMetrics()

	logger.Info("cache created",
		zap.Int("max_entries", config.MaxEntries),
		zap.Duration("default_ttl", config.DefaultTTL),
		zap.Duration("cleanup_interval", config.CleanupInterval),
		zap.String("eviction", string(config.Eviction)))

	return cache, nil
}

// NewSimple creates a simple cache with minimal configuration
// This is perfect for most use cases where you just need basic caching
func NewSimple(maxEntries int, defaultTTL time.Duration) (*Cache, error) {
	return New(NewDefaultConfig().WithMaxEntries(maxEntries).WithDefaultTTL(defaultTTL))
}

// Get retrieves the value cached under the namespace and identifier.
// An expired entry counts as a miss and is collected on the spot.
func (c *Cache) Get(namespace string, identifier any) (any, bool) {
	start := time.Now()
	defer func() {
		c.recordCacheOperation(metrics.OperationGet, time.Since(start))
	}()

	key := Key(namespace, identifier)

	var result any
	var found bool

	c.lock(func() {
		c.ensureReaperLocked()
		c.stats.incTotalRequests()

		now := time.Now()
		e, ok := c.store.Get(key)
		if !ok {
			c.missLocked(key)
			return
		}

		if e.Expired(now) {
			c.store.Remove(key)
			c.stats.incEvictions()
			c.updateKeyCountLocked()
			if c.hooks != nil {
				c.hooks.invokeOnEvict(key, e.Value, EvictReasonExpired)
			}
			c.missLocked(key)
			return
		}

		c.store.Touch(key, now)
		c.hitLocked(key, e.Value)
		result = e.Value
		found = true
	})

	return result, found
}

// Set stores a value under the namespace and identifier with the given TTL
// and tags. A non-positive TTL falls back to the configured default. When
// the cache is full and the key is new, exactly one entry is evicted to
// make room. Overwriting a key replaces its tags; the old tags no longer
// reach it.
func (c *Cache) Set(namespace string, identifier, value any, ttl time.Duration, tags ...string) bool {
	start := time.Now()
	defer func() {
		c.recordCacheOperation(metrics.OperationSet, time.Since(start))
	}()

	key := Key(namespace, identifier)

	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}

	c.lock(func() {
		c.ensureReaperLocked()

		if c.store.Len() >= c.config.MaxEntries && !c.store.Contains(key) {
			c.evictOneLocked()
		}

		c.store.Set(key, entry.New(value, ttl, time.Now(), tags))
		c.updateKeyCountLocked()
		c.logger.Debug("cache set",
			zap.String("key", key),
			zap.Duration("ttl", ttl),
			zap.Strings("tags", tags))
	})

	return true
}

// Put stores a value using the default TTL
func (c *Cache) Put(namespace string, identifier, value any, tags ...string) bool {
	return c.Set(namespace, identifier, value, c.config.DefaultTTL, tags...)
}

// Delete removes the entry for the namespace and identifier.
// Returns true if the entry existed. An explicit delete does not count as
// an eviction.
func (c *Cache) Delete(namespace string, identifier any) bool {
	start := time.Now()
	defer func() {
		c.recordCacheOperation(metrics.OperationDelete, time.Since(start))
	}()

	key := Key(namespace, identifier)

	var removed bool
	c.lock(func() {
		e, ok := c.store.Remove(key)
		if !ok {
			return
		}
		removed = true
		c.updateKeyCountLocked()
		if c.hooks != nil {
			c.hooks.invokeOnEvict(key, e.Value, EvictReasonDeleted)
		}
	})

	return removed
}

// InvalidateTags removes every entry carrying at least one of the given
// tags and returns the number of entries removed. Each removal counts as
// an eviction and fires the invalidation callbacks registered for that
// key with the value the entry last held.
func (c *Cache) InvalidateTags(tags ...string) int {
	start := time.Now()
	defer func() {
		c.recordCacheOperation(metrics.OperationInvalidate, time.Since(start))
	}()

	var count int
	c.lock(func() {
		keys := c.store.KeysWithAnyTag(tags)
		for _, key := range keys {
			e, ok := c.store.Remove(key)
			if !ok {
				continue
			}
			count++
			c.stats.incEvictions()
			if c.hooks != nil {
				c.hooks.invokeOnEvict(key, e.Value, EvictReasonInvalidated)
			}
			c.runCallbacksLocked(key, e.Value)
		}
		c.updateKeyCountLocked()
	})

	if count > 0 {
		c.logger.Info("invalidated entries by tag",
			zap.Int("count", count),
			zap.Strings("tags", tags))
	}

	return count
}

// Clear removes all entries and resets the statistics in the same
// critical section, so no observer can see old counters next to an empty
// cache. Invalidation callbacks stay registered.
func (c *Cache) Clear() {
	c.lock(func() {
		c.store.Clear()
		c.stats.Reset()
	})
	c.logger.Debug("cache cleared")
}

// AddInvalidationCallback registers a callback for the given key. The
// callback fires only when the key is removed by tag invalidation, not on
// expiry, capacity eviction or explicit delete. Registering the same
// function twice keeps a single registration.
func (c *Cache) AddInvalidationCallback(key string, cb InvalidationCallback) {
	if cb == nil {
		return
	}
	c.lock(func() {
		bucket, ok := c.callbacks[key]
		if !ok {
			bucket = make(map[uintptr]InvalidationCallback)
			c.callbacks[key] = bucket
		}
		bucket[reflect.ValueOf(cb).Pointer()] = cb
	})
}

// RemoveInvalidationCallback removes a previously registered callback,
// matched by function identity.
func (c *Cache) RemoveInvalidationCallback(key string, cb InvalidationCallback) {
	if cb == nil {
		return
	}
	c.lock(func() {
		bucket, ok := c.callbacks[key]
		if !ok {
			return
		}
		delete(bucket, reflect.ValueOf(cb).Pointer())
		if len(bucket) == 0 {
			delete(c.callbacks, key)
		}
	})
}

// Stats returns a snapshot of the current cache statistics.
func (c *Cache) Stats() StatsSnapshot {
	var snap StatsSnapshot
	c.lock(func() {
		c.updateKeyCountLocked()
		snap = c.stats.Snapshot()
	})
	return snap
}

// Keys returns all cache keys, sorted.
func (c *Cache) Keys() []string {
	var keys []string
	c.lock(func() {
		keys = c.store.Keys()
	})
	sort.Strings(keys)
	return keys
}

// Len returns the current number of entries, expired or not.
func (c *Cache) Len() int {
	var length int
	c.lock(func() {
		length = c.store.Len()
	})
	return length
}

// Has reports whether a live entry exists for the namespace and
// identifier. Unlike Get it does not touch access metadata or statistics.
func (c *Cache) Has(namespace string, identifier any) bool {
	key := Key(namespace, identifier)
	var exists bool
	c.lock(func() {
		e, ok := c.store.Get(key)
		exists = ok && !e.Expired(time.Now())
	})
	return exists
}

// TTL returns the remaining lifetime of the entry for the namespace and
// identifier. The second return is false when no live entry exists; a zero
// duration with true means the entry never expires.
func (c *Cache) TTL(namespace string, identifier any) (time.Duration, bool) {
	key := Key(namespace, identifier)
	var remaining time.Duration
	var found bool
	c.lock(func() {
		e, ok := c.store.Get(key)
		if ok && !e.Expired(time.Now()) {
			remaining = e.Remaining(time.Now())
			found = true
		}
	})
	return remaining, found
}

// TagKeys returns the keys currently indexed under the given tag, sorted.
func (c *Cache) TagKeys(tag string) []string {
	var keys []string
	c.lock(func() {
		keys = c.store.TagKeys(tag)
	})
	return keys
}

// Tags returns all tags that currently index at least one key, sorted.
func (c *Cache) Tags() []string {
	var tags []string
	c.lock(func() {
		tags = c.store.Tags()
	})
	return tags
}

// Close stops the background reaper and the metrics reporter and waits for
// both to finish. Closing is terminal: the reaper never restarts on a
// closed cache. The cache itself remains usable for lookups and stores.
// Close is idempotent.
func (c *Cache) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	stopReaper := c.reaperStarted
	c.mu.Unlock()

	// Wait outside the lock; the reaper takes the lock each cycle.
	if stopReaper {
		close(c.reaperStop)
		<-c.reaperDone
	}

	if c.metricsStop != nil {
		close(c.metricsStop)
		c.metricsWg.Wait()
	}
	if c.metricsExporter != nil {
		if err := c.metricsExporter.Close(); err != nil {
			return fmt.Errorf("failed to close metrics exporter: %w", err)
		}
	}

	c.logger.Info("cache closed")
	return nil
}

// hitLocked records a hit. Caller must hold the lock.
func (c *Cache) hitLocked(key string, value any) {
	c.stats.incHits()
	if c.hooks != nil {
		c.hooks.invokeOnHit(key, value)
	}
	c.logger.Debug("cache hit", zap.String("key", key))
}

// missLocked records a miss. Caller must hold the lock.
func (c *Cache) missLocked(key string) {
	c.stats.incMisses()
	if c.hooks != nil {
		c.hooks.invokeOnMiss(key)
	}
	c.logger.Debug("cache miss", zap.String("key", key))
}

// evictOneLocked removes the victim chosen by the eviction policy to make
// room for a new entry. Caller must hold the lock.
func (c *Cache) evictOneLocked() {
	victim, ok := c.store.Victim()
	if !ok {
		return
	}
	e, ok := c.store.Remove(victim)
	if !ok {
		return
	}
	c.stats.incEvictions()
	if c.hooks != nil {
		c.hooks.invokeOnEvict(victim, e.Value, EvictReasonCapacity)
	}
	c.logger.Warn("cache full, evicted entry to make room", zap.String("key", victim))
}

// runCallbacksLocked fires the invalidation callbacks registered for key.
// A panicking callback is recovered and logged so one bad callback cannot
// break the invalidation batch. Caller must hold the lock.
func (c *Cache) runCallbacksLocked(key string, value any) {
	for _, cb := range c.callbacks[key] {
		c.safeCallback(key, value, cb)
	}
}

func (c *Cache) safeCallback(key string, value any, cb InvalidationCallback) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("invalidation callback panicked",
				zap.String("key", key),
				zap.Any("panic", r))
		}
	}()
	cb(key, value)
}

// ensureReaperLocked starts the background reaper on first use. It does
// nothing when no cleanup interval is configured, when the reaper already
// runs, or when the cache has been closed. Caller must hold the lock.
func (c *Cache) ensureReaperLocked() {
	if c.reaperStarted || c.closed || c.config.CleanupInterval <= 0 {
		return
	}
	c.reaperStarted = true
	go c.reapLoop()
}

// reapLoop periodically collects expired entries until Close.
func (c *Cache) reapLoop() {
	defer close(c.reaperDone)

	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.reapCycle()
		case <-c.reaperStop:
			return
		}
	}
}

// reapCycle removes all entries that have expired by now. A panic in one
// cycle is logged and does not stop the loop.
func (c *Cache) reapCycle() {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("cache cleanup error", zap.Any("panic", r))
		}
		c.recordCacheOperation(metrics.OperationCleanup, time.Since(start))
	}()

	var removed int
	c.lock(func() {
		now := time.Now()
		for _, key := range c.store.ExpiredKeys(now) {
			e, ok := c.store.Remove(key)
			if !ok {
				continue
			}
			removed++
			c.stats.incEvictions()
			if c.hooks != nil {
				c.hooks.invokeOnEvict(key, e.Value, EvictReasonExpired)
			}
		}
		c.updateKeyCountLocked()
	})

	if removed > 0 {
		c.logger.Debug("cleaned up expired entries", zap.Int("count", removed))
	}
}

// updateKeyCountLocked refreshes the key count statistic. Caller must hold
// the lock.
func (c *Cache) updateKeyCountLocked() {
	c.stats.setKeyCount(int64(c.store.Len()))
}

// keyFunc returns the identifier derivation function to use
func (c *Cache) keyFunc() KeyFunc {
	if c.config.KeyFunc != nil {
		return c.config.KeyFunc
	}
	return DefaultKeyFunc
}

// initializeMetrics sets up metrics collection if enabled
func (c *Cache) initializeMetrics() {
	if c.config.Metrics == nil || !c.config.Metrics.Enabled || c.config.Metrics.Exporter == nil {
		c.metricsExporter = metrics.NewNoOpExporter()
		return
	}

	c.metricsExporter = c.config.Metrics.Exporter

	c.metricsLabels = make(metrics.Labels)
	switch {
	case c.config.Metrics.CacheName != "":
		c.metricsLabels["cache_name"] = c.config.Metrics.CacheName
	case c.config.Name != "":
		c.metricsLabels["cache_name"] = c.config.Name
	default:
		c.metricsLabels["cache_name"] = "default"
	}

	for k, v := range c.config.Metrics.Labels {
		c.metricsLabels[k] = v
	}

	if c.config.Metrics.ReportingInterval > 0 {
		c.metricsStop = make(chan struct{})
		c.metricsWg.Add(1)
		go c.metricsReporter()
	}
}

// metricsReporter periodically exports cache statistics
func (c *Cache) metricsReporter() {
	defer c.metricsWg.Done()

	ticker := time.NewTicker(c.config.Metrics.ReportingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.exportCurrentStats()
		case <-c.metricsStop:
			// Final stats export before shutting down
			c.exportCurrentStats()
			return
		}
	}
}

// exportCurrentStats exports the current statistics to metrics
func (c *Cache) exportCurrentStats() {
	if c.metricsExporter != nil {
		_ = c.metricsExporter.ExportStats(c.stats, c.metricsLabels) //nolint:errcheck // Error handling done at higher level
	}
}

// recordCacheOperation records a cache operation with timing for metrics
func (c *Cache) recordCacheOperation(operation metrics.Operation, duration time.Duration) {
	if c.metricsExporter != nil {
		_ = c.metricsExporter.RecordCacheOperation(operation, duration, c.metricsLabels) //nolint:errcheck // Error handling done at higher level
	}
}
