package unicache

import (
	"go.uber.org/atomic"
)

// Stats holds cache performance counters. Counters are atomic so the
// metrics reporter can read them without taking the cache lock.
type Stats struct {
	// hits is the number of lookups that returned a live entry
	hits atomic.Int64

	// misses is the number of lookups that found nothing usable
	misses atomic.Int64

	// evictions counts entries removed by expiry, capacity or tag
	// invalidation
	evictions atomic.Int64

	// totalRequests is the number of lookups, hit or miss
	totalRequests atomic.Int64

	// keyCount is the current number of stored entries
	keyCount atomic.Int64
}

// StatsSnapshot is a point-in-time copy of the cache counters.
type StatsSnapshot struct {
	Hits          int64   `json:"hits"`
	Misses        int64   `json:"misses"`
	Evictions     int64   `json:"evictions"`
	TotalRequests int64   `json:"total_requests"`
	KeyCount      int64   `json:"key_count"`
	HitRate       float64 `json:"hit_rate"`
}

// Hits returns the number of cache hits.
func (s *Stats) Hits() int64 {
	return s.hits.Load()
}

// Misses returns the number of cache misses.
func (s *Stats) Misses() int64 {
	return s.misses.Load()
}

// Evictions returns the number of evicted entries.
func (s *Stats) Evictions() int64 {
	return s.evictions.Load()
}

// TotalRequests returns the number of lookups served, hit or miss.
func (s *Stats) TotalRequests() int64 {
	return s.totalRequests.Load()
}

// KeyCount returns the current number of stored entries.
func (s *Stats) KeyCount() int64 {
	return s.keyCount.Load()
}

// HitRate returns hits over total requests as a ratio in [0, 1].
// Returns 0 when no requests have been served.
func (s *Stats) HitRate() float64 {
	total := s.TotalRequests()
	if total == 0 {
		return 0
	}
	return float64(s.Hits()) / float64(total)
}

// Snapshot returns a consistent-enough copy of all counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Hits:          s.Hits(),
		Misses:        s.Misses(),
		Evictions:     s.Evictions(),
		TotalRequests: s.TotalRequests(),
		KeyCount:      s.KeyCount(),
		HitRate:       s.HitRate(),
	}
}

// Reset zeroes all counters.
func (s *Stats) Reset() {
	s.hits.Store(0)
	s.misses.Store(0)
	s.evictions.Store(0)
	s.totalRequests.Store(0)
	s.keyCount.Store(0)
}

// Internal methods for updating stats (not exported)

func (s *Stats) incHits() {
	s.hits.Inc()
}

func (s *Stats) incMisses() {
	s.misses.Inc()
}

func (s *Stats) incEvictions() {
	s.evictions.Inc()
}

func (s *Stats) incTotalRequests() {
	s.totalRequests.Inc()
}

func (s *Stats) setKeyCount(count int64) {
	s.keyCount.Store(count)
}
