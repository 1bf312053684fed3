package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	if !config.Enabled {
		t.Fatal("Expected metrics enabled by default")
	}
	if config.Namespace != "unicache" {
		t.Fatalf("Expected namespace 'unicache', got %q", config.Namespace)
	}
	if config.ReportingInterval != 30*time.Second {
		t.Fatalf("Expected 30s reporting interval, got %v", config.ReportingInterval)
	}
	if config.IncludeDetailedTimings {
		t.Fatal("Expected detailed timings disabled by default")
	}
	if config.MetricNames.CacheHitsTotal != "unicache_hits_total" {
		t.Fatalf("Expected default hits metric name, got %q", config.MetricNames.CacheHitsTotal)
	}
}

func TestConfigBuilder(t *testing.T) {
	config := NewDefaultConfig().
		WithNamespace("svc").
		WithLabels(Labels{"env": "prod"}).
		WithReportingInterval(time.Minute).
		WithDetailedTimings(true)

	if config.Namespace != "svc" {
		t.Fatalf("Expected namespace 'svc', got %q", config.Namespace)
	}
	if config.Labels["env"] != "prod" {
		t.Fatalf("Expected label env=prod, got %v", config.Labels)
	}
	if config.ReportingInterval != time.Minute {
		t.Fatalf("Expected 1m reporting interval, got %v", config.ReportingInterval)
	}
	if !config.IncludeDetailedTimings {
		t.Fatal("Expected detailed timings enabled")
	}
}

// failingExporter errors on every call.
type failingExporter struct{}

func (f failingExporter) ExportStats(Stats, Labels) error { return errors.New("export failed") }
func (f failingExporter) RecordCacheOperation(Operation, time.Duration, Labels) error {
	return errors.New("record failed")
}
func (f failingExporter) IncrementCounter(string, Labels) error  { return errors.New("counter failed") }
func (f failingExporter) RecordHistogram(string, float64, Labels) error {
	return errors.New("histogram failed")
}
func (f failingExporter) SetGauge(string, float64, Labels) error { return errors.New("gauge failed") }
func (f failingExporter) Close() error                           { return errors.New("close failed") }

func TestMultiExporterAggregation(t *testing.T) {
	multi := NewMultiExporter(failingExporter{}, NewNoOpExporter(), failingExporter{})

	if err := multi.ExportStats(stubStats{}, nil); err == nil {
		t.Fatal("Expected aggregated export error")
	}
	if err := multi.RecordCacheOperation(OperationGet, time.Millisecond, nil); err == nil {
		t.Fatal("Expected aggregated record error")
	}
	if err := multi.IncrementCounter("c", nil); err == nil {
		t.Fatal("Expected aggregated counter error")
	}
	if err := multi.RecordHistogram("h", 1, nil); err == nil {
		t.Fatal("Expected aggregated histogram error")
	}
	if err := multi.SetGauge("g", 1, nil); err == nil {
		t.Fatal("Expected aggregated gauge error")
	}
	if err := multi.Close(); err == nil {
		t.Fatal("Expected aggregated close error")
	}
}

func TestMultiExporterAllHealthy(t *testing.T) {
	multi := NewMultiExporter(NewNoOpExporter(), NewNoOpExporter())

	if err := multi.ExportStats(stubStats{hits: 1}, Labels{"cache_name": "x"}); err != nil {
		t.Fatalf("Expected clean export, got %v", err)
	}
	if err := multi.Close(); err != nil {
		t.Fatalf("Expected clean close, got %v", err)
	}
}
