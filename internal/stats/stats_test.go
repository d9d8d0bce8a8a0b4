package stats

import (
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/assetstream/model"
	"github.com/hupe1980/assetstream/resource"
	"github.com/stretchr/testify/assert"
)

func TestAggregator_HitRate(t *testing.T) {
	var a Aggregator

	s := a.Snapshot(0, model.MemoryBudget{}, resource.Stats{})
	assert.Equal(t, 0.0, s.CacheHitRate, "no lookups must not divide by zero")

	a.RecordHit()
	a.RecordMiss()
	s = a.Snapshot(0, model.MemoryBudget{}, resource.Stats{})
	assert.Equal(t, 0.5, s.CacheHitRate)
	assert.Equal(t, int64(1), s.CacheHits)
	assert.Equal(t, int64(1), s.CacheMisses)
}

func TestAggregator_LoadTimes(t *testing.T) {
	var a Aggregator

	assert.Equal(t, time.Duration(0), a.Snapshot(0, model.MemoryBudget{}, resource.Stats{}).AvgLoadTime)

	a.RecordLoad(10 * time.Millisecond)
	a.RecordLoad(30 * time.Millisecond)
	a.RecordFailure()

	s := a.Snapshot(0, model.MemoryBudget{}, resource.Stats{})
	assert.Equal(t, int64(2), s.TotalLoads)
	assert.Equal(t, int64(1), s.FailedLoads)
	assert.Equal(t, 20*time.Millisecond, s.AvgLoadTime)
}

func TestAggregator_Memory(t *testing.T) {
	var a Aggregator

	a.RecordInsert(model.TypeMesh, 100)
	a.RecordInsert(model.TypeTexture, 50)
	a.RecordInsert(model.TypeMesh, 10)
	a.RecordRemove(model.TypeMesh, 100)
	a.RecordEviction()

	budget := model.MemoryBudget{Total: 1000, Meshes: 500}
	s := a.Snapshot(3, budget, resource.Stats{Allocated: 60, Peak: 160})

	assert.Equal(t, int64(60), s.TotalMemoryUsed)
	assert.Equal(t, int64(2), s.CachedResources)
	assert.Equal(t, int64(1), s.EvictedResources)
	assert.Equal(t, int64(10), s.MemoryByType[model.TypeMesh])
	assert.Equal(t, int64(50), s.MemoryByType[model.TypeTexture])
	assert.Equal(t, int64(0), s.MemoryByType[model.TypeAudio])
	assert.Len(t, s.MemoryByType, model.NumResourceTypes)
	assert.Equal(t, 3, s.ActiveRequests)
	assert.Equal(t, budget, s.MemoryBudget)
	assert.Equal(t, int64(160), s.Allocator.Peak)
}

func TestAggregator_Reset(t *testing.T) {
	var a Aggregator

	a.RecordHit()
	a.RecordLoad(time.Second)
	a.RecordFailure()
	a.RecordEviction()
	a.RecordInsert(model.TypeAudio, 42)
	a.Reset()

	s := a.Snapshot(0, model.MemoryBudget{}, resource.Stats{})
	assert.Equal(t, int64(0), s.CacheHits)
	assert.Equal(t, int64(0), s.TotalLoads)
	assert.Equal(t, int64(0), s.FailedLoads)
	assert.Equal(t, int64(0), s.EvictedResources)
	assert.Equal(t, int64(42), s.TotalMemoryUsed, "gauges survive a reset")
}

func TestAggregator_Concurrent(t *testing.T) {
	var a Aggregator
	var wg sync.WaitGroup

	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				a.RecordHit()
				a.RecordInsert(model.TypeShader, 1)
			}
		}()
	}
	wg.Wait()

	s := a.Snapshot(0, model.MemoryBudget{}, resource.Stats{})
	assert.Equal(t, int64(5000), s.CacheHits)
	assert.Equal(t, int64(5000), s.MemoryByType[model.TypeShader])
}
