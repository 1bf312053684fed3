package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusExporter implements the Exporter interface for Prometheus metrics
type PrometheusExporter struct {
	config   *Config
	registry prometheus.Registerer

	// Counters
	hitsTotal       *prometheus.CounterVec
	missesTotal     *prometheus.CounterVec
	evictionsTotal  *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	operationsTotal *prometheus.CounterVec

	// Histograms
	operationDuration *prometheus.HistogramVec

	// Gauges
	keysCount *prometheus.GaugeVec
	hitRate   *prometheus.GaugeVec

	// Snapshot counters arrive cumulative; deltas are tracked per cache so
	// repeated exports never double-count.
	last map[string]lastStats

	// Custom metrics (for IncrementCounter, etc.)
	customCounters   map[string]*prometheus.CounterVec
	customHistograms map[string]*prometheus.HistogramVec
	customGauges     map[string]*prometheus.GaugeVec
	mu               sync.Mutex
}

type lastStats struct {
	hits      int64
	misses    int64
	evictions int64
	requests  int64
}

// PrometheusConfig holds Prometheus-specific configuration
type PrometheusConfig struct {
	// Registry is the Prometheus registry to use (optional, uses default if nil)
	Registry prometheus.Registerer

	// DefaultLabels are applied to all metrics
	DefaultLabels prometheus.Labels

	// Buckets for the operation duration histogram
	DurationBuckets []float64
}

// NewPrometheusExporter creates a new Prometheus metrics exporter
func NewPrometheusExporter(config *Config, promConfig *PrometheusConfig) (*PrometheusExporter, error) {
	if config == nil {
		config = NewDefaultConfig()
	}

	if promConfig == nil {
		promConfig = &PrometheusConfig{}
	}

	registry := promConfig.Registry
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	durationBuckets := promConfig.DurationBuckets
	if durationBuckets == nil {
		durationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	}

	var defaultLabels prometheus.Labels
	if promConfig.DefaultLabels != nil {
		defaultLabels = promConfig.DefaultLabels
	} else {
		defaultLabels = make(prometheus.Labels)
	}

	// Add config labels to default labels
	for k, v := range config.Labels {
		defaultLabels[k] = v
	}

	exporter := &PrometheusExporter{
		config:           config,
		registry:         registry,
		last:             make(map[string]lastStats),
		customCounters:   make(map[string]*prometheus.CounterVec),
		customHistograms: make(map[string]*prometheus.HistogramVec),
		customGauges:     make(map[string]*prometheus.GaugeVec),
	}

	if err := exporter.createStandardMetrics(defaultLabels, durationBuckets); err != nil {
		return nil, fmt.Errorf("failed to create standard metrics: %w", err)
	}

	return exporter, nil
}

// createStandardMetrics creates all the standard cache metrics
func (p *PrometheusExporter) createStandardMetrics(defaultLabels prometheus.Labels, durationBuckets []float64) error {
	var err error

	// Use a consistent set of base labels for all metrics
	baseLabels := []string{"cache_name"}

	// Counters
	p.hitsTotal, err = p.createCounterVec(p.config.MetricNames.CacheHitsTotal, "Total number of cache hits", baseLabels, defaultLabels)
	if err != nil {
		return err
	}

	p.missesTotal, err = p.createCounterVec(p.config.MetricNames.CacheMissesTotal, "Total number of cache misses", baseLabels, defaultLabels)
	if err != nil {
		return err
	}

	p.evictionsTotal, err = p.createCounterVec(p.config.MetricNames.CacheEvictionsTotal, "Total number of cache evictions", baseLabels, defaultLabels)
	if err != nil {
		return err
	}

	p.requestsTotal, err = p.createCounterVec(p.config.MetricNames.CacheRequestsTotal, "Total number of cache lookups", baseLabels, defaultLabels)
	if err != nil {
		return err
	}

	p.operationsTotal, err = p.createCounterVec(p.config.MetricNames.CacheOperationsTotal, "Total number of cache operations", append(baseLabels, "operation"), defaultLabels)
	if err != nil {
		return err
	}

	// Histograms
	if p.config.IncludeDetailedTimings {
		p.operationDuration, err = p.createHistogramVec(p.config.MetricNames.CacheOperationDuration, "Cache operation duration in seconds", append(baseLabels, "operation"), defaultLabels, durationBuckets)
		if err != nil {
			return err
		}
	}

	// Gauges
	p.keysCount, err = p.createGaugeVec(p.config.MetricNames.CacheKeysCount, "Current number of keys in cache", baseLabels, defaultLabels)
	if err != nil {
		return err
	}

	p.hitRate, err = p.createGaugeVec(p.config.MetricNames.CacheHitRate, "Cache hit rate as a ratio between 0 and 1", baseLabels, defaultLabels)
	if err != nil {
		return err
	}

	return nil
}

// ExportStats exports the current cache statistics to Prometheus
func (p *PrometheusExporter) ExportStats(stats Stats, labels Labels) error {
	baseLabels := prometheus.Labels{"cache_name": "default"}
	if cacheName, exists := labels["cache_name"]; exists {
		baseLabels["cache_name"] = cacheName
	}

	current := lastStats{
		hits:      stats.Hits(),
		misses:    stats.Misses(),
		evictions: stats.Evictions(),
		requests:  stats.TotalRequests(),
	}

	p.mu.Lock()
	prev := p.last[baseLabels["cache_name"]]
	// A reset (counters went backwards) restarts the baseline
	if current.hits < prev.hits || current.misses < prev.misses ||
		current.evictions < prev.evictions || current.requests < prev.requests {
		prev = lastStats{}
	}
	p.last[baseLabels["cache_name"]] = current
	p.mu.Unlock()

	p.hitsTotal.With(baseLabels).Add(float64(current.hits - prev.hits))
	p.missesTotal.With(baseLabels).Add(float64(current.misses - prev.misses))
	p.evictionsTotal.With(baseLabels).Add(float64(current.evictions - prev.evictions))
	p.requestsTotal.With(baseLabels).Add(float64(current.requests - prev.requests))

	p.keysCount.With(baseLabels).Set(float64(stats.KeyCount()))
	p.hitRate.With(baseLabels).Set(stats.HitRate())

	return nil
}

// RecordCacheOperation records a cache operation with timing
func (p *PrometheusExporter) RecordCacheOperation(operation Operation, duration time.Duration, labels Labels) error {
	opLabels := prometheus.Labels{"cache_name": "default"}
	if cacheName, exists := labels["cache_name"]; exists {
		opLabels["cache_name"] = cacheName
	}
	opLabels["operation"] = string(operation)

	p.operationsTotal.With(opLabels).Inc()

	if p.operationDuration != nil {
		p.operationDuration.With(opLabels).Observe(duration.Seconds())
	}

	return nil
}

// IncrementCounter increments a custom counter
func (p *PrometheusExporter) IncrementCounter(name string, labels Labels) error {
	p.mu.Lock()
	counter, exists := p.customCounters[name]
	if !exists {
		labelNames := p.getLabelNames(labels)
		defaultLabels := p.convertLabels(p.config.Labels)

		var err error
		counter, err = p.createCounterVec(name, fmt.Sprintf("Custom counter: %s", name), labelNames, defaultLabels)
		if err != nil {
			p.mu.Unlock()
			return fmt.Errorf("failed to create counter %s: %w", name, err)
		}
		p.customCounters[name] = counter
	}
	p.mu.Unlock()

	counter.With(p.convertLabels(labels)).Inc()
	return nil
}

// RecordHistogram records a value in a custom histogram
func (p *PrometheusExporter) RecordHistogram(name string, value float64, labels Labels) error {
	p.mu.Lock()
	histogram, exists := p.customHistograms[name]
	if !exists {
		labelNames := p.getLabelNames(labels)
		defaultLabels := p.convertLabels(p.config.Labels)

		var err error
		histogram, err = p.createHistogramVec(name, fmt.Sprintf("Custom histogram: %s", name), labelNames, defaultLabels, prometheus.DefBuckets)
		if err != nil {
			p.mu.Unlock()
			return fmt.Errorf("failed to create histogram %s: %w", name, err)
		}
		p.customHistograms[name] = histogram
	}
	p.mu.Unlock()

	histogram.With(p.convertLabels(labels)).Observe(value)
	return nil
}

// SetGauge sets a custom gauge value
func (p *PrometheusExporter) SetGauge(name string, value float64, labels Labels) error {
	p.mu.Lock()
	gauge, exists := p.customGauges[name]
	if !exists {
		labelNames := p.getLabelNames(labels)
		defaultLabels := p.convertLabels(p.config.Labels)

		var err error
		gauge, err = p.createGaugeVec(name, fmt.Sprintf("Custom gauge: %s", name), labelNames, defaultLabels)
		if err != nil {
			p.mu.Unlock()
			return fmt.Errorf("failed to create gauge %s: %w", name, err)
		}
		p.customGauges[name] = gauge
	}
	p.mu.Unlock()

	gauge.With(p.convertLabels(labels)).Set(value)
	return nil
}

// Close shuts down the exporter
func (p *PrometheusExporter) Close() error {
	// Prometheus metrics don't need explicit cleanup
	return nil
}

// Helper methods

func (p *PrometheusExporter) createCounterVec(name, help string, labelNames []string, defaultLabels prometheus.Labels) (*prometheus.CounterVec, error) {
	counter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        name,
			Help:        help,
			ConstLabels: defaultLabels,
		},
		labelNames,
	)

	if err := p.registry.Register(counter); err != nil {
		return nil, err
	}

	return counter, nil
}

func (p *PrometheusExporter) createHistogramVec(name, help string, labelNames []string, defaultLabels prometheus.Labels, buckets []float64) (*prometheus.HistogramVec, error) {
	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:        name,
			Help:        help,
			ConstLabels: defaultLabels,
			Buckets:     buckets,
		},
		labelNames,
	)

	if err := p.registry.Register(histogram); err != nil {
		return nil, err
	}

	return histogram, nil
}

func (p *PrometheusExporter) createGaugeVec(name, help string, labelNames []string, defaultLabels prometheus.Labels) (*prometheus.GaugeVec, error) {
	gauge := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name:        name,
			Help:        help,
			ConstLabels: defaultLabels,
		},
		labelNames,
	)

	if err := p.registry.Register(gauge); err != nil {
		return nil, err
	}

	return gauge, nil
}

func (p *PrometheusExporter) convertLabels(labels Labels) prometheus.Labels {
	promLabels := make(prometheus.Labels, len(labels))
	for k, v := range labels {
		promLabels[k] = v
	}
	return promLabels
}

func (p *PrometheusExporter) getLabelNames(labels Labels) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}
	return names
}

// Ensure interface is implemented
var _ Exporter = (*PrometheusExporter)(nil)
