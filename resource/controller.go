package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when an allocation would exceed the hard limit.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// DefaultMaxConcurrentLoads is used when Config.MaxConcurrentLoads is not positive.
const DefaultMaxConcurrentLoads = 4

// Config holds resource limits.
type Config struct {
	// MemoryLimitBytes is the hard limit for allocations.
	// If 0, no hard limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxConcurrentLoads is the maximum number of concurrent loads.
	// If 0, defaults to DefaultMaxConcurrentLoads.
	MaxConcurrentLoads int64

	// IOLimitBytesPerSec is the maximum read throughput of loads.
	// If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Allocation is a handle returned by Allocate and consumed by Free.
type Allocation struct {
	ID   uint64
	Size int64
}

// Stats reports allocator usage.
type Stats struct {
	// Allocated is the number of bytes currently allocated.
	Allocated int64
	// Peak is the highest value Allocated has reached.
	Peak int64
	// Allocations is the number of live allocations.
	Allocations int64
}

// Controller tracks memory and bounds load concurrency and IO.
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64
	memPeak atomic.Int64
	live    atomic.Int64
	nextID  atomic.Uint64

	// Concurrency
	loadSem *semaphore.Weighted

	// IO
	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrentLoads <= 0 {
		cfg.MaxConcurrentLoads = DefaultMaxConcurrentLoads
	}

	c := &Controller{
		cfg:     cfg,
		loadSem: semaphore.NewWeighted(cfg.MaxConcurrentLoads),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// Allocate reserves size bytes.
// Returns ErrMemoryLimitExceeded if the hard limit would be exceeded.
// Non-blocking.
func (c *Controller) Allocate(size int64) (Allocation, error) {
	if c == nil || size <= 0 {
		return Allocation{Size: max(size, 0)}, nil
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(size) {
			return Allocation{}, ErrMemoryLimitExceeded
		}
	}

	used := c.memUsed.Add(size)
	for {
		peak := c.memPeak.Load()
		if used <= peak || c.memPeak.CompareAndSwap(peak, used) {
			break
		}
	}
	c.live.Add(1)

	return Allocation{ID: c.nextID.Add(1), Size: size}, nil
}

// Free releases an allocation. Zero allocations are ignored.
func (c *Controller) Free(a Allocation) {
	if c == nil || a.ID == 0 || a.Size <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(a.Size)
	}
	c.memUsed.Add(-a.Size)
	c.live.Add(-1)
}

// AllocatorStats returns the current allocation statistics.
func (c *Controller) AllocatorStats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		Allocated:   c.memUsed.Load(),
		Peak:        c.memPeak.Load(),
		Allocations: c.live.Load(),
	}
}

// MemoryUsage returns the current memory usage in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured memory limit in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// MaxConcurrentLoads returns the number of load slots.
func (c *Controller) MaxConcurrentLoads() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MaxConcurrentLoads
}

// AcquireLoad reserves a load slot.
// Blocks if all slots are busy.
func (c *Controller) AcquireLoad(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.loadSem.Acquire(ctx, 1)
}

// TryAcquireLoad attempts to reserve a load slot without blocking.
func (c *Controller) TryAcquireLoad() bool {
	if c == nil {
		return true
	}
	return c.loadSem.TryAcquire(1)
}

// ReleaseLoad releases a load slot.
func (c *Controller) ReleaseLoad() {
	if c == nil {
		return
	}
	c.loadSem.Release(1)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than the bucket are split into bucket-sized waits.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
