package unicache

import (
	"errors"
	"testing"
	"time"

	"github.com/unicache/unicache-go/pkg/metrics"
)

func TestConfigDefaults(t *testing.T) {
	config := NewDefaultConfig()

	if config.MaxEntries != 1000 {
		t.Fatalf("Expected MaxEntries 1000, got %d", config.MaxEntries)
	}
	if config.DefaultTTL != 5*time.Minute {
		t.Fatalf("Expected DefaultTTL 5m, got %v", config.DefaultTTL)
	}
	if config.CleanupInterval != time.Minute {
		t.Fatalf("Expected CleanupInterval 1m, got %v", config.CleanupInterval)
	}
	if config.Eviction != EvictionFIFO {
		t.Fatalf("Expected FIFO eviction, got %v", config.Eviction)
	}
	if config.KeyFunc != nil {
		t.Fatal("Expected KeyFunc to be nil by default")
	}
	if config.Hooks == nil {
		t.Fatal("Expected Hooks to be non-nil")
	}
	if err := config.validate(); err != nil {
		t.Fatalf("Expected default config to validate, got %v", err)
	}
}

func TestConfigBuilder(t *testing.T) {
	customKeyFunc := func(args []any) string {
		return "custom-key"
	}
	hooks := &Hooks{
		OnHit: []OnHitHook{
			func(key string, value any) {},
		},
	}

	config := NewDefaultConfig().
		WithName("sessions").
		WithMaxEntries(200).
		WithDefaultTTL(30 * time.Minute).
		WithCleanupInterval(2 * time.Minute).
		WithEviction(EvictionLRU).
		WithKeyFunc(customKeyFunc).
		WithHooks(hooks)

	if config.Name != "sessions" {
		t.Fatalf("Expected name 'sessions', got %q", config.Name)
	}
	if config.MaxEntries != 200 {
		t.Fatalf("Expected MaxEntries 200, got %d", config.MaxEntries)
	}
	if config.DefaultTTL != 30*time.Minute {
		t.Fatalf("Expected DefaultTTL 30m, got %v", config.DefaultTTL)
	}
	if config.CleanupInterval != 2*time.Minute {
		t.Fatalf("Expected CleanupInterval 2m, got %v", config.CleanupInterval)
	}
	if config.Eviction != EvictionLRU {
		t.Fatalf("Expected LRU eviction, got %v", config.Eviction)
	}
	if config.KeyFunc == nil {
		t.Fatal("Expected KeyFunc to be set")
	}
	if key := config.KeyFunc([]any{"test"}); key != "custom-key" {
		t.Fatalf("Expected 'custom-key', got %q", key)
	}
	if config.Hooks != hooks {
		t.Fatal("Expected Hooks to be set")
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name   string
		config *Config
		valid  bool
	}{
		{"defaults", NewDefaultConfig(), true},
		{"zero cleanup", NewDefaultConfig().WithCleanupInterval(0), true},
		{"zero ttl", NewDefaultConfig().WithDefaultTTL(0), true},
		{"zero max entries", NewDefaultConfig().WithMaxEntries(0), false},
		{"negative max entries", NewDefaultConfig().WithMaxEntries(-5), false},
		{"negative ttl", NewDefaultConfig().WithDefaultTTL(-time.Second), false},
		{"negative cleanup", NewDefaultConfig().WithCleanupInterval(-time.Second), false},
		{"bogus eviction", NewDefaultConfig().WithEviction("random"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.config.validate()
			if tc.valid && err != nil {
				t.Fatalf("Expected valid config, got %v", err)
			}
			if !tc.valid {
				if err == nil {
					t.Fatal("Expected validation error")
				}
				if !errors.Is(err, ErrInvalidConfig) {
					t.Fatalf("Expected ErrInvalidConfig, got %v", err)
				}
			}
		})
	}
}

func TestConfigMetricsBuilder(t *testing.T) {
	exporter := metrics.NewNoOpExporter()
	config := NewDefaultConfig().
		WithMetricsExporter(exporter, "api").
		WithMetricsLabels(metrics.Labels{"env": "test"}).
		WithMetricsReportingInterval(time.Second)

	if config.Metrics == nil {
		t.Fatal("Expected metrics config to be set")
	}
	if !config.Metrics.Enabled {
		t.Fatal("Expected metrics to be enabled")
	}
	if config.Metrics.CacheName != "api" {
		t.Fatalf("Expected cache name 'api', got %q", config.Metrics.CacheName)
	}
	if config.Metrics.Labels["env"] != "test" {
		t.Fatalf("Expected label env=test, got %v", config.Metrics.Labels)
	}
	if config.Metrics.ReportingInterval != time.Second {
		t.Fatalf("Expected reporting interval 1s, got %v", config.Metrics.ReportingInterval)
	}
}

func TestConfigClone(t *testing.T) {
	original := NewDefaultConfig().
		WithName("template").
		WithMaxEntries(50).
		WithMetricsExporter(metrics.NewNoOpExporter(), "template").
		WithMetricsLabels(metrics.Labels{"tier": "fixed"})

	dup := original.clone()
	dup.Name = "copy"
	dup.MaxEntries = 99
	dup.Metrics.CacheName = "copy"
	dup.Metrics.Labels["tier"] = "adhoc"

	if original.Name != "template" {
		t.Fatalf("Expected original name unchanged, got %q", original.Name)
	}
	if original.MaxEntries != 50 {
		t.Fatalf("Expected original MaxEntries unchanged, got %d", original.MaxEntries)
	}
	if original.Metrics.CacheName != "template" {
		t.Fatalf("Expected original metrics name unchanged, got %q", original.Metrics.CacheName)
	}
	if original.Metrics.Labels["tier"] != "fixed" {
		t.Fatalf("Expected original labels unchanged, got %v", original.Metrics.Labels)
	}
}
