package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// stubStats is a fixed Stats snapshot for exporter tests.
type stubStats struct {
	hits      int64
	misses    int64
	evictions int64
	requests  int64
	keys      int64
	rate      float64
}

func (s stubStats) Hits() int64          { return s.hits }
func (s stubStats) Misses() int64        { return s.misses }
func (s stubStats) Evictions() int64     { return s.evictions }
func (s stubStats) TotalRequests() int64 { return s.requests }
func (s stubStats) KeyCount() int64      { return s.keys }
func (s stubStats) HitRate() float64     { return s.rate }

func newPromExporter(t *testing.T) (*PrometheusExporter, *prometheus.Registry) {
	t.Helper()
	registry := prometheus.NewRegistry()
	exporter, err := NewPrometheusExporter(nil, &PrometheusConfig{Registry: registry})
	if err != nil {
		t.Fatalf("Failed to create exporter: %v", err)
	}
	return exporter, registry
}

func TestPrometheusExportStatsDeltas(t *testing.T) {
	exporter, _ := newPromExporter(t)
	labels := Labels{"cache_name": "api"}

	err := exporter.ExportStats(stubStats{hits: 3, misses: 1, requests: 4, keys: 2, rate: 0.75}, labels)
	if err != nil {
		t.Fatalf("Failed to export stats: %v", err)
	}
	err = exporter.ExportStats(stubStats{hits: 5, misses: 2, evictions: 1, requests: 7, keys: 3, rate: 0.7}, labels)
	if err != nil {
		t.Fatalf("Failed to export stats: %v", err)
	}

	// Counters track the snapshot totals, not the sum of snapshots.
	promLabels := prometheus.Labels{"cache_name": "api"}
	if v := testutil.ToFloat64(exporter.hitsTotal.With(promLabels)); v != 5 {
		t.Fatalf("Expected 5 hits, got %v", v)
	}
	if v := testutil.ToFloat64(exporter.missesTotal.With(promLabels)); v != 2 {
		t.Fatalf("Expected 2 misses, got %v", v)
	}
	if v := testutil.ToFloat64(exporter.evictionsTotal.With(promLabels)); v != 1 {
		t.Fatalf("Expected 1 eviction, got %v", v)
	}
	if v := testutil.ToFloat64(exporter.requestsTotal.With(promLabels)); v != 7 {
		t.Fatalf("Expected 7 requests, got %v", v)
	}

	// Gauges hold the latest values.
	if v := testutil.ToFloat64(exporter.keysCount.With(promLabels)); v != 3 {
		t.Fatalf("Expected 3 keys, got %v", v)
	}
	if v := testutil.ToFloat64(exporter.hitRate.With(promLabels)); v != 0.7 {
		t.Fatalf("Expected hit rate 0.7, got %v", v)
	}
}

func TestPrometheusExportStatsResetBaseline(t *testing.T) {
	exporter, _ := newPromExporter(t)
	labels := Labels{"cache_name": "api"}

	exporter.ExportStats(stubStats{hits: 5, requests: 5}, labels)
	// The cache was cleared: its counters restarted from zero.
	exporter.ExportStats(stubStats{hits: 2, requests: 2}, labels)

	promLabels := prometheus.Labels{"cache_name": "api"}
	if v := testutil.ToFloat64(exporter.hitsTotal.With(promLabels)); v != 7 {
		t.Fatalf("Expected 5 pre-reset plus 2 post-reset hits, got %v", v)
	}
	if v := testutil.ToFloat64(exporter.requestsTotal.With(promLabels)); v != 7 {
		t.Fatalf("Expected 7 requests across reset, got %v", v)
	}
}

func TestPrometheusExportStatsPerCacheBaselines(t *testing.T) {
	exporter, _ := newPromExporter(t)

	exporter.ExportStats(stubStats{hits: 10, requests: 10}, Labels{"cache_name": "a"})
	exporter.ExportStats(stubStats{hits: 4, requests: 4}, Labels{"cache_name": "b"})
	exporter.ExportStats(stubStats{hits: 12, requests: 12}, Labels{"cache_name": "a"})

	if v := testutil.ToFloat64(exporter.hitsTotal.With(prometheus.Labels{"cache_name": "a"})); v != 12 {
		t.Fatalf("Expected 12 hits for cache a, got %v", v)
	}
	if v := testutil.ToFloat64(exporter.hitsTotal.With(prometheus.Labels{"cache_name": "b"})); v != 4 {
		t.Fatalf("Expected 4 hits for cache b, got %v", v)
	}
}

func TestPrometheusExportStatsDefaultCacheName(t *testing.T) {
	exporter, _ := newPromExporter(t)

	exporter.ExportStats(stubStats{hits: 1, requests: 1}, nil)

	if v := testutil.ToFloat64(exporter.hitsTotal.With(prometheus.Labels{"cache_name": "default"})); v != 1 {
		t.Fatalf("Expected hits under default cache name, got %v", v)
	}
}

func TestPrometheusRecordCacheOperation(t *testing.T) {
	exporter, _ := newPromExporter(t)
	labels := Labels{"cache_name": "api"}

	exporter.RecordCacheOperation(OperationGet, time.Millisecond, labels)
	exporter.RecordCacheOperation(OperationGet, 2*time.Millisecond, labels)
	exporter.RecordCacheOperation(OperationSet, time.Millisecond, labels)

	getLabels := prometheus.Labels{"cache_name": "api", "operation": "get"}
	if v := testutil.ToFloat64(exporter.operationsTotal.With(getLabels)); v != 2 {
		t.Fatalf("Expected 2 get operations, got %v", v)
	}
	setLabels := prometheus.Labels{"cache_name": "api", "operation": "set"}
	if v := testutil.ToFloat64(exporter.operationsTotal.With(setLabels)); v != 1 {
		t.Fatalf("Expected 1 set operation, got %v", v)
	}
}

func TestPrometheusDetailedTimings(t *testing.T) {
	registry := prometheus.NewRegistry()
	config := NewDefaultConfig().WithDetailedTimings(true)
	exporter, err := NewPrometheusExporter(config, &PrometheusConfig{Registry: registry})
	if err != nil {
		t.Fatalf("Failed to create exporter: %v", err)
	}

	if exporter.operationDuration == nil {
		t.Fatal("Expected duration histogram with detailed timings enabled")
	}

	exporter.RecordCacheOperation(OperationGet, 5*time.Millisecond, Labels{"cache_name": "api"})

	if count := testutil.CollectAndCount(exporter.operationDuration); count != 1 {
		t.Fatalf("Expected 1 duration series, got %d", count)
	}
}

func TestPrometheusCustomMetrics(t *testing.T) {
	exporter, _ := newPromExporter(t)

	for i := 0; i < 3; i++ {
		if err := exporter.IncrementCounter("reaper_runs_total", Labels{"mode": "background"}); err != nil {
			t.Fatalf("Failed to increment counter: %v", err)
		}
	}
	if v := testutil.ToFloat64(exporter.customCounters["reaper_runs_total"]); v != 3 {
		t.Fatalf("Expected counter 3, got %v", v)
	}

	if err := exporter.SetGauge("pool_size", 7, Labels{"tier": "adhoc"}); err != nil {
		t.Fatalf("Failed to set gauge: %v", err)
	}
	if v := testutil.ToFloat64(exporter.customGauges["pool_size"]); v != 7 {
		t.Fatalf("Expected gauge 7, got %v", v)
	}

	if err := exporter.RecordHistogram("invalidation_batch_size", 12, Labels{"tag": "users"}); err != nil {
		t.Fatalf("Failed to record histogram: %v", err)
	}
	if count := testutil.CollectAndCount(exporter.customHistograms["invalidation_batch_size"]); count != 1 {
		t.Fatalf("Expected 1 histogram series, got %d", count)
	}
}

func TestPrometheusDuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()

	if _, err := NewPrometheusExporter(nil, &PrometheusConfig{Registry: registry}); err != nil {
		t.Fatalf("Failed to create first exporter: %v", err)
	}
	if _, err := NewPrometheusExporter(nil, &PrometheusConfig{Registry: registry}); err == nil {
		t.Fatal("Expected duplicate registration to fail")
	}
}

func TestPrometheusClose(t *testing.T) {
	exporter, _ := newPromExporter(t)
	if err := exporter.Close(); err != nil {
		t.Fatalf("Expected clean close, got %v", err)
	}
}
