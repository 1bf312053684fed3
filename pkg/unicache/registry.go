package unicache

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Well-known fixed-tier cache names.
const (
	// UserCache holds resolved user records.
	UserCache = "user"

	// TokenCache holds verified token lookups.
	TokenCache = "token"

	// QueryCache holds expensive query results.
	QueryCache = "query"
)

const defaultPoolSize = 64

// defaultFixedConfigs returns the fixed-tier templates: long-lived caches
// sized for their workloads.
func defaultFixedConfigs() map[string]*Config {
	return map[string]*Config{
		UserCache:  NewDefaultConfig().WithName(UserCache).WithDefaultTTL(time.Hour).WithMaxEntries(5000),
		TokenCache: NewDefaultConfig().WithName(TokenCache).WithDefaultTTL(24 * time.Hour).WithMaxEntries(5000),
		QueryCache: NewDefaultConfig().WithName(QueryCache).WithDefaultTTL(10 * time.Minute).WithMaxEntries(1000),
	}
}

type registryConfig struct {
	fixed    map[string]*Config
	adhoc    *Config
	poolSize int
	logger   *zap.Logger
}

// RegistryOption is a function that sets a value in a registryConfig.
type RegistryOption func(*registryConfig) error

// getRegistryOpts creates a registryConfig and applies options to it.
func getRegistryOpts(opts []RegistryOption) (registryConfig, error) {
	cfg := registryConfig{
		fixed:    defaultFixedConfigs(),
		adhoc:    NewDefaultConfig(),
		poolSize: defaultPoolSize,
	}
	for i, opt := range opts {
		if err := opt(&cfg); err != nil {
			return registryConfig{}, fmt.Errorf("option %d failed: %s", i, err)
		}
	}
	return cfg, nil
}

// WithFixedCache adds a cache to the fixed tier, or overrides the template
// of one of the default fixed caches. Fixed caches are built eagerly and
// held for the lifetime of the registry.
func WithFixedCache(name string, cfg *Config) RegistryOption {
	return func(rc *registryConfig) error {
		if name == "" {
			return fmt.Errorf("fixed cache name must not be empty")
		}
		if cfg == nil {
			return fmt.Errorf("fixed cache %q requires a config", name)
		}
		rc.fixed[name] = cfg
		return nil
	}
}

// WithAdhocDefaults sets the config template used when constructing ad-hoc
// caches for names outside the fixed tier.
func WithAdhocDefaults(cfg *Config) RegistryOption {
	return func(rc *registryConfig) error {
		if cfg == nil {
			return fmt.Errorf("ad-hoc template config must not be nil")
		}
		rc.adhoc = cfg
		return nil
	}
}

// WithPoolSize bounds the ad-hoc pool. When the pool is full, the least
// recently requested ad-hoc cache is closed and dropped.
//
// Default is 64.
func WithPoolSize(n int) RegistryOption {
	return func(rc *registryConfig) error {
		if n <= 0 {
			return fmt.Errorf("pool size must be positive, got %d", n)
		}
		rc.poolSize = n
		return nil
	}
}

// WithRegistryLogger sets the logger for registry events. The logger is
// also handed to caches built from templates that carry none.
func WithRegistryLogger(logger *zap.Logger) RegistryOption {
	return func(rc *registryConfig) error {
		if logger != nil {
			rc.logger = logger
		}
		return nil
	}
}

// Registry produces and owns named cache instances in two tiers: a fixed
// set built eagerly and held for the registry's lifetime, and a bounded
// pool of ad-hoc caches constructed on demand. When the pool overflows,
// the least recently requested ad-hoc cache is closed and dropped; a
// caller that kept the pointer can keep using it with lazy expiry only.
type Registry struct {
	mu      sync.Mutex
	configs map[string]*Config
	adhoc   *Config
	fixed   map[string]*Cache
	pool    *lru.Cache[string, *Cache]
	logger  *zap.Logger
}

// NewRegistry creates a registry and eagerly builds the fixed tier.
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	cfg, err := getRegistryOpts(opts)
	if err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := &Registry{
		configs: cfg.fixed,
		adhoc:   cfg.adhoc,
		fixed:   make(map[string]*Cache, len(cfg.fixed)),
		logger:  logger,
	}

	pool, err := lru.NewWithEvict[string, *Cache](cfg.poolSize, func(name string, cache *Cache) {
		if cerr := cache.Close(); cerr != nil {
			r.logger.Warn("failed to close evicted ad-hoc cache",
				zap.String("name", name),
				zap.Error(cerr))
		}
	})
	if err != nil {
		return nil, err
	}
	r.pool = pool

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.initFixedTierLocked(); err != nil {
		for _, cache := range r.fixed {
			_ = cache.Close() //nolint:errcheck // Already failing construction
		}
		return nil, err
	}

	return r, nil
}

// Get returns the cache registered under name. The fixed tier is checked
// first, then the ad-hoc pool; an unknown name gets a fresh ad-hoc cache
// built from the ad-hoc template and pooled. Get never rebuilds a missing
// fixed cache; use the tier accessors for that.
func (r *Registry) Get(name string) (*Cache, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cache, ok := r.fixed[name]; ok {
		return cache, nil
	}
	if cache, ok := r.pool.Get(name); ok {
		return cache, nil
	}

	cache, err := r.buildLocked(name, r.adhoc)
	if err != nil {
		return nil, fmt.Errorf("%w: building ad-hoc cache %q: %v", ErrCacheUnavailable, name, err)
	}
	r.pool.Add(name, cache)
	r.logger.Debug("created ad-hoc cache", zap.String("name", name))
	return cache, nil
}

// User returns the fixed user cache, rebuilding the fixed tier if it is
// found missing.
func (r *Registry) User() (*Cache, error) {
	return r.fixedCache(UserCache)
}

// Token returns the fixed token cache, rebuilding the fixed tier if it is
// found missing.
func (r *Registry) Token() (*Cache, error) {
	return r.fixedCache(TokenCache)
}

// Query returns the fixed query cache, rebuilding the fixed tier if it is
// found missing.
func (r *Registry) Query() (*Cache, error) {
	return r.fixedCache(QueryCache)
}

// Names returns the names of all live instances, fixed and pooled, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.fixed)+r.pool.Len())
	for name := range r.fixed {
		names = append(names, name)
	}
	names = append(names, r.pool.Keys()...)
	sort.Strings(names)
	return names
}

// Close closes every fixed and pooled cache, aggregating per-cache
// failures. The fixed tier is emptied so the accessors can rebuild it
// later; the registry itself stays usable.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs *multierror.Error

	fixedNames := make([]string, 0, len(r.fixed))
	for name := range r.fixed {
		fixedNames = append(fixedNames, name)
	}
	sort.Strings(fixedNames)
	for _, name := range fixedNames {
		if err := r.fixed[name].Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("cache %q: %w", name, err))
		}
	}
	r.fixed = make(map[string]*Cache, len(r.configs))

	for _, name := range r.pool.Keys() {
		cache, ok := r.pool.Peek(name)
		if !ok {
			continue
		}
		if err := cache.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("cache %q: %w", name, err))
		}
	}
	// Purge's evict callback closes again, which is a no-op by then.
	r.pool.Purge()

	r.logger.Info("registry closed")
	return errs.ErrorOrNil()
}

// fixedCache returns the named fixed cache, rebuilding the whole fixed
// tier when the instance is missing. Failing to produce the instance even
// after a rebuild means the registry cannot be constructed as configured.
func (r *Registry) fixedCache(name string) (*Cache, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cache, ok := r.fixed[name]; ok {
		return cache, nil
	}

	r.logger.Warn("fixed cache missing, reinitializing tier", zap.String("name", name))
	if err := r.initFixedTierLocked(); err != nil {
		return nil, fmt.Errorf("%w: reinitializing fixed tier: %v", ErrCacheUnavailable, err)
	}

	cache, ok := r.fixed[name]
	if !ok {
		return nil, fmt.Errorf("%w: no configuration for fixed cache %q", ErrCacheUnavailable, name)
	}
	return cache, nil
}

// initFixedTierLocked builds every configured fixed cache that is not
// already live. Caller must hold the registry lock.
func (r *Registry) initFixedTierLocked() error {
	names := make([]string, 0, len(r.configs))
	for name := range r.configs {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs *multierror.Error
	for _, name := range names {
		if _, ok := r.fixed[name]; ok {
			continue
		}
		cache, err := r.buildLocked(name, r.configs[name])
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("cache %q: %w", name, err))
			continue
		}
		r.fixed[name] = cache
	}
	return errs.ErrorOrNil()
}

// buildLocked constructs a cache from a config template. The template is
// cloned so instance naming never leaks back into it; templates without a
// logger inherit the registry's. Caller must hold the registry lock.
func (r *Registry) buildLocked(name string, template *Config) (*Cache, error) {
	cfg := template.clone()
	cfg.Name = name
	if cfg.Logger == nil {
		cfg.Logger = r.logger
	}
	return New(cfg)
}
