// Package stats maintains the running counters of the streaming manager.
//
// Every counter is updated incrementally with atomics, so a snapshot costs
// O(1) regardless of how many resources are cached.
package stats

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/assetstream/model"
	"github.com/hupe1980/assetstream/resource"
)

// Stats is a read-only snapshot.
type Stats struct {
	TotalMemoryUsed  int64
	MemoryBudget     model.MemoryBudget
	ActiveRequests   int
	CacheHits        int64
	CacheMisses      int64
	CacheHitRate     float64
	CachedResources  int64
	EvictedResources int64
	AvgLoadTime      time.Duration
	TotalLoads       int64
	FailedLoads      int64
	MemoryByType     map[model.ResourceType]int64
	Allocator        resource.Stats
}

// Aggregator collects counters. The zero value is ready to use.
type Aggregator struct {
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
	loads     atomic.Int64
	failures  atomic.Int64
	loadNanos atomic.Int64

	memUsed   atomic.Int64
	cached    atomic.Int64
	memByType [model.NumResourceTypes]atomic.Int64
}

// RecordHit counts a cache hit.
func (a *Aggregator) RecordHit() { a.hits.Add(1) }

// RecordMiss counts a cache miss.
func (a *Aggregator) RecordMiss() { a.misses.Add(1) }

// RecordEviction counts an eviction.
func (a *Aggregator) RecordEviction() { a.evictions.Add(1) }

// RecordInsert accounts for a resource entering the cache.
func (a *Aggregator) RecordInsert(t model.ResourceType, size int64) {
	a.memUsed.Add(size)
	a.cached.Add(1)
	if t.Valid() {
		a.memByType[t].Add(size)
	}
}

// RecordRemove accounts for a resource leaving the cache.
func (a *Aggregator) RecordRemove(t model.ResourceType, size int64) {
	a.memUsed.Add(-size)
	a.cached.Add(-1)
	if t.Valid() {
		a.memByType[t].Add(-size)
	}
}

// RecordLoad counts a successful load and its duration.
func (a *Aggregator) RecordLoad(d time.Duration) {
	a.loads.Add(1)
	a.loadNanos.Add(d.Nanoseconds())
}

// RecordFailure counts a failed load.
func (a *Aggregator) RecordFailure() { a.failures.Add(1) }

// Reset zeroes the event counters. Memory and entry gauges are kept.
func (a *Aggregator) Reset() {
	a.hits.Store(0)
	a.misses.Store(0)
	a.evictions.Store(0)
	a.loads.Store(0)
	a.failures.Store(0)
	a.loadNanos.Store(0)
}

// Snapshot returns the current counters.
func (a *Aggregator) Snapshot(active int, budget model.MemoryBudget, alloc resource.Stats) Stats {
	hits, misses := a.hits.Load(), a.misses.Load()
	loads := a.loads.Load()

	s := Stats{
		TotalMemoryUsed:  a.memUsed.Load(),
		MemoryBudget:     budget,
		ActiveRequests:   active,
		CacheHits:        hits,
		CacheMisses:      misses,
		CachedResources:  a.cached.Load(),
		EvictedResources: a.evictions.Load(),
		TotalLoads:       loads,
		FailedLoads:      a.failures.Load(),
		MemoryByType:     make(map[model.ResourceType]int64, model.NumResourceTypes),
		Allocator:        alloc,
	}
	if lookups := hits + misses; lookups > 0 {
		s.CacheHitRate = float64(hits) / float64(lookups)
	}
	if loads > 0 {
		s.AvgLoadTime = time.Duration(a.loadNanos.Load() / loads)
	}
	for i := range a.memByType {
		s.MemoryByType[model.ResourceType(i)] = a.memByType[i].Load()
	}
	return s
}
