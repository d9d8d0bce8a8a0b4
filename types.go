package assetstream

import (
	"context"

	"github.com/hupe1980/assetstream/internal/stats"
	"github.com/hupe1980/assetstream/lod"
	"github.com/hupe1980/assetstream/model"
	"github.com/hupe1980/assetstream/resource"
)

type (
	// ResourceType classifies an asset.
	ResourceType = model.ResourceType
	// Priority is the eviction weight of a request.
	Priority = model.Priority
	// LODLevel is the detail tier of a resource, LOD0 being the finest.
	LODLevel = lod.Level
	// State is the lifecycle state of a resource.
	State = model.State
	// Vec3 is a point in world space.
	Vec3 = model.Vec3
	// Descriptor is the input of a stream request.
	Descriptor = model.Descriptor
	// Resource is a streamed asset.
	Resource = model.Resource
	// Region is a named area whose resources are prefetched together.
	Region = model.Region
	// ResourceRef names a resource owned by a region.
	ResourceRef = model.ResourceRef
	// MemoryBudget is the byte ceiling of the cache.
	MemoryBudget = model.MemoryBudget
	// Task is a single load job handed to a JobExecutor.
	Task = model.Task
	// Stats is a point-in-time snapshot of the manager counters.
	Stats = stats.Stats
	// Allocation is a reservation returned by an Allocator.
	Allocation = resource.Allocation
	// AllocatorStats reports allocator usage.
	AllocatorStats = resource.Stats
)

const (
	TypeMesh      = model.TypeMesh
	TypeTexture   = model.TypeTexture
	TypeAudio     = model.TypeAudio
	TypeScene     = model.TypeScene
	TypeShader    = model.TypeShader
	TypeAnimation = model.TypeAnimation
	TypeMaterial  = model.TypeMaterial
)

const (
	PriorityLow      = model.PriorityLow
	PriorityNormal   = model.PriorityNormal
	PriorityHigh     = model.PriorityHigh
	PriorityCritical = model.PriorityCritical
)

const (
	LOD0 = lod.LOD0
	LOD1 = lod.LOD1
	LOD2 = lod.LOD2
	LOD3 = lod.LOD3
)

const (
	StatePending = model.StatePending
	StateLoading = model.StateLoading
	StateLoaded  = model.StateLoaded
	StateFailed  = model.StateFailed
	StateEvicted = model.StateEvicted
)

// JobExecutor performs the actual loading of resource bytes.
//
// Submit is called at most once at a time per resource id. The returned
// bytes become the cached payload and must not be modified afterwards.
type JobExecutor interface {
	Submit(ctx context.Context, task Task) ([]byte, error)
}

// JobExecutorFunc adapts a function to the JobExecutor interface.
type JobExecutorFunc func(ctx context.Context, task Task) ([]byte, error)

// Submit implements JobExecutor.
func (f JobExecutorFunc) Submit(ctx context.Context, task Task) ([]byte, error) {
	return f(ctx, task)
}

// Allocator accounts for the memory of cached payloads.
// *resource.Controller is the default implementation.
type Allocator interface {
	Allocate(size int64) (Allocation, error)
	Free(a Allocation)
	AllocatorStats() AllocatorStats
}
