// Package resource implements the Controller, the default memory allocator and
// load governor of the streaming manager.
//
// The Controller manages three resources:
//
//   - Memory: byte-level allocate/free with peak tracking and an optional hard limit (fail-fast)
//   - Concurrency: a bounded number of concurrent asset loads
//   - IO: a token bucket limiting read throughput of loads
//
// # Architecture
//
//	┌─────────────────────────────────────────────────────────────┐
//	│                         Controller                          │
//	├─────────────────┬─────────────────┬─────────────────────────┤
//	│  Memory         │  Load slots     │  IO Rate Limiter        │
//	│  (fail-fast)    │  (semaphore)    │  (token bucket)         │
//	├─────────────────┼─────────────────┼─────────────────────────┤
//	│  Allocate       │  AcquireLoad    │  AcquireIO              │
//	│  Free           │  TryAcquireLoad │  RateLimitedReader      │
//	│  AllocatorStats │  ReleaseLoad    │                         │
//	└─────────────────┴─────────────────┴─────────────────────────┘
//
// # Memory
//
// Allocate never blocks. With a hard limit configured it returns
// ErrMemoryLimitExceeded when the allocation would not fit:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30,
//	})
//
//	a, err := rc.Allocate(4 << 20)
//	if err != nil {
//	    // ErrMemoryLimitExceeded
//	}
//	defer rc.Free(a)
//
// # Load Slots
//
// Executors bound concurrent loads with AcquireLoad/ReleaseLoad:
//
//	if err := rc.AcquireLoad(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseLoad()
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully: they become no-ops.
package resource
