package assetstream

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// prommetrics package provides a Prometheus implementation.
//
// Implementations must be safe for concurrent use.
type MetricsCollector interface {
	// RecordRequest is called after each Request.
	// hit reports whether the cache served it, err is nil if successful.
	RecordRequest(t ResourceType, hit bool, duration time.Duration, err error)

	// RecordLoad is called after each executor submission.
	// size is the payload size in bytes on success.
	RecordLoad(t ResourceType, size int, duration time.Duration, err error)

	// RecordEviction is called for every resource reclaimed by budget enforcement.
	RecordEviction(t ResourceType, size int64)

	// RecordMemory is called whenever the cached byte total changes.
	RecordMemory(used, budget int64)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRequest(ResourceType, bool, time.Duration, error) {}
func (NoopMetricsCollector) RecordLoad(ResourceType, int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordEviction(ResourceType, int64)                     {}
func (NoopMetricsCollector) RecordMemory(int64, int64)                              {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RequestCount      atomic.Int64
	RequestHits       atomic.Int64
	RequestErrors     atomic.Int64
	RequestTotalNanos atomic.Int64
	LoadCount         atomic.Int64
	LoadErrors        atomic.Int64
	LoadBytes         atomic.Int64
	LoadTotalNanos    atomic.Int64
	EvictionCount     atomic.Int64
	EvictedBytes      atomic.Int64
	MemoryUsed        atomic.Int64
	MemoryBudget      atomic.Int64
}

// RecordRequest implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRequest(_ ResourceType, hit bool, duration time.Duration, err error) {
	b.RequestCount.Add(1)
	b.RequestTotalNanos.Add(duration.Nanoseconds())
	if hit {
		b.RequestHits.Add(1)
	}
	if err != nil {
		b.RequestErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ ResourceType, size int, duration time.Duration, err error) {
	b.LoadCount.Add(1)
	b.LoadTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadBytes.Add(int64(size))
}

// RecordEviction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEviction(_ ResourceType, size int64) {
	b.EvictionCount.Add(1)
	b.EvictedBytes.Add(size)
}

// RecordMemory implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMemory(used, budget int64) {
	b.MemoryUsed.Store(used)
	b.MemoryBudget.Store(budget)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RequestCount:    b.RequestCount.Load(),
		RequestHits:     b.RequestHits.Load(),
		RequestErrors:   b.RequestErrors.Load(),
		RequestAvgNanos: avg(b.RequestTotalNanos.Load(), b.RequestCount.Load()),
		LoadCount:       b.LoadCount.Load(),
		LoadErrors:      b.LoadErrors.Load(),
		LoadBytes:       b.LoadBytes.Load(),
		LoadAvgNanos:    avg(b.LoadTotalNanos.Load(), b.LoadCount.Load()),
		EvictionCount:   b.EvictionCount.Load(),
		EvictedBytes:    b.EvictedBytes.Load(),
		MemoryUsed:      b.MemoryUsed.Load(),
		MemoryBudget:    b.MemoryBudget.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RequestCount    int64
	RequestHits     int64
	RequestErrors   int64
	RequestAvgNanos int64
	LoadCount       int64
	LoadErrors      int64
	LoadBytes       int64
	LoadAvgNanos    int64
	EvictionCount   int64
	EvictedBytes    int64
	MemoryUsed      int64
	MemoryBudget    int64
}
