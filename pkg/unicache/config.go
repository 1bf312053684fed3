package unicache

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/unicache/unicache-go/internal/eviction"
	"github.com/unicache/unicache-go/pkg/metrics"
)

// EvictionPolicy selects how the cache picks a victim when full.
type EvictionPolicy string

const (
	// EvictionFIFO evicts the entry with the oldest creation time (default).
	EvictionFIFO = EvictionPolicy(eviction.FIFO)

	// EvictionLRU evicts the entry that has gone longest without a hit or
	// write.
	EvictionLRU = EvictionPolicy(eviction.LRU)

	// EvictionLFU evicts the entry with the fewest hits.
	EvictionLFU = EvictionPolicy(eviction.LFU)
)

// MetricsConfig holds metrics exporter configuration
type MetricsConfig struct {
	// Exporter is the metrics exporter to use
	Exporter metrics.Exporter

	// Enabled determines whether metrics collection is enabled
	Enabled bool

	// CacheName is the name label applied to all metrics for this cache instance
	CacheName string

	// ReportingInterval determines how often to export stats automatically
	// Set to 0 to disable automatic reporting
	ReportingInterval time.Duration

	// Labels are additional labels applied to all metrics
	Labels metrics.Labels
}

// Config defines the configuration options for a Cache instance
type Config struct {
	// Name identifies the instance in logs and metrics
	// Default: "" (unnamed)
	Name string

	// MaxEntries sets the maximum number of entries in the cache
	// Default: 1000
	MaxEntries int

	// DefaultTTL is applied when Set is called without a positive TTL
	// Zero means entries never expire unless given an explicit TTL
	// Default: 5 minutes
	DefaultTTL time.Duration

	// CleanupInterval sets how often the background reaper scans for
	// expired entries. Non-positive disables the reaper; expired entries
	// are then only collected lazily on lookup
	// Default: 1 minute
	CleanupInterval time.Duration

	// Eviction selects the capacity eviction policy
	// Default: EvictionFIFO
	Eviction EvictionPolicy

	// KeyFunc derives identifiers for wrapped functions
	// If nil, DefaultKeyFunc will be used
	KeyFunc KeyFunc

	// Hooks defines event callbacks for cache operations
	Hooks *Hooks

	// Logger receives structured cache events
	// If nil, logging is disabled via zap.NewNop
	Logger *zap.Logger

	// Metrics holds metrics exporter configuration
	// If nil, no metrics will be exported
	Metrics *MetricsConfig
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		MaxEntries:      1000,
		DefaultTTL:      5 * time.Minute,
		CleanupInterval: time.Minute,
		Eviction:        EvictionFIFO,
		KeyFunc:         nil, // will use DefaultKeyFunc
		Hooks:           &Hooks{},
	}
}

// validate reports whether the config can back a working cache.
func (c *Config) validate() error {
	if c.MaxEntries <= 0 {
		return fmt.Errorf("%w: MaxEntries must be positive, got %d", ErrInvalidConfig, c.MaxEntries)
	}
	if c.DefaultTTL < 0 {
		return fmt.Errorf("%w: DefaultTTL must not be negative, got %v", ErrInvalidConfig, c.DefaultTTL)
	}
	if c.CleanupInterval < 0 {
		return fmt.Errorf("%w: CleanupInterval must not be negative, got %v", ErrInvalidConfig, c.CleanupInterval)
	}
	switch c.Eviction {
	case "", EvictionFIFO, EvictionLRU, EvictionLFU:
	default:
		return fmt.Errorf("%w: unknown eviction policy %q", ErrInvalidConfig, c.Eviction)
	}
	return nil
}

// clone copies the config so per-instance tweaks never leak into a shared
// template. Hooks and Logger are shared by reference.
func (c *Config) clone() *Config {
	dup := *c
	if c.Metrics != nil {
		m := *c.Metrics
		if c.Metrics.Labels != nil {
			m.Labels = make(metrics.Labels, len(c.Metrics.Labels))
			for k, v := range c.Metrics.Labels {
				m.Labels[k] = v
			}
		}
		dup.Metrics = &m
	}
	return &dup
}

// WithName sets the instance name used in logs and metrics
func (c *Config) WithName(name string) *Config {
	c.Name = name
	return c
}

// WithMaxEntries sets the maximum number of cache entries
func (c *Config) WithMaxEntries(maxEntries int) *Config {
	c.MaxEntries = maxEntries
	return c
}

// WithDefaultTTL sets the default TTL for cache entries
func (c *Config) WithDefaultTTL(ttl time.Duration) *Config {
	c.DefaultTTL = ttl
	return c
}

// WithCleanupInterval sets the background reaper scan interval
func (c *Config) WithCleanupInterval(interval time.Duration) *Config {
	c.CleanupInterval = interval
	return c
}

// WithEviction selects the capacity eviction policy
func (c *Config) WithEviction(policy EvictionPolicy) *Config {
	c.Eviction = policy
	return c
}

// WithKeyFunc sets a custom identifier derivation function
func (c *Config) WithKeyFunc(fn KeyFunc) *Config {
	c.KeyFunc = fn
	return c
}

// WithHooks sets the event hooks for cache operations
func (c *Config) WithHooks(hooks *Hooks) *Config {
	c.Hooks = hooks
	return c
}

// WithLogger sets the logger for structured cache events
func (c *Config) WithLogger(logger *zap.Logger) *Config {
	c.Logger = logger
	return c
}

// WithMetrics configures cache metrics export
func (c *Config) WithMetrics(metricsConfig *MetricsConfig) *Config {
	c.Metrics = metricsConfig
	return c
}

// WithMetricsExporter configures metrics with the given exporter
func (c *Config) WithMetricsExporter(exporter metrics.Exporter, cacheName string) *Config {
	c.Metrics = &MetricsConfig{
		Exporter:          exporter,
		Enabled:           true,
		CacheName:         cacheName,
		ReportingInterval: 30 * time.Second,
		Labels:            make(metrics.Labels),
	}
	return c
}

// WithMetricsLabels adds labels to metrics configuration
func (c *Config) WithMetricsLabels(labels metrics.Labels) *Config {
	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{
			Enabled:           false,
			ReportingInterval: 30 * time.Second,
		}
	}
	if c.Metrics.Labels == nil {
		c.Metrics.Labels = make(metrics.Labels, len(labels))
	}
	for k, v := range labels {
		c.Metrics.Labels[k] = v
	}
	return c
}

// WithMetricsReportingInterval sets the metrics reporting interval
func (c *Config) WithMetricsReportingInterval(interval time.Duration) *Config {
	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{
			Enabled:           false,
			Labels:            make(metrics.Labels),
			ReportingInterval: interval,
		}
	} else {
		c.Metrics.ReportingInterval = interval
	}
	return c
}
