package assetstream

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/assetstream/internal/cache"
	"github.com/hupe1980/assetstream/internal/region"
	"github.com/hupe1980/assetstream/internal/stats"
	"github.com/hupe1980/assetstream/lod"
	"github.com/hupe1980/assetstream/resource"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Manager streams resources through a JobExecutor into a budgeted cache.
// It is safe for concurrent use.
type Manager struct {
	cfg     Config
	exec    JobExecutor
	alloc   Allocator
	logger  *Logger
	metrics MetricsCollector
	now     func() time.Time

	cache   *cache.Cache
	stats   *stats.Aggregator
	regions *region.Registry
	group   singleflight.Group

	// mu guards the fields below and orders cache inserts against Shutdown.
	mu        sync.Mutex
	closed    bool // no new loads or registrations
	drained   bool // completions are discarded
	budget    MemoryBudget
	loading   map[string]State
	viewer    Vec3
	viewerSet bool
	inflight  sync.WaitGroup
	prefetch  map[uint64]chan struct{}
	nextJob   uint64
	stateMu   sync.Mutex
	lastState map[string]State
}

// New creates a manager. It is the only way to obtain one; there is no
// global instance.
func New(cfg Config, exec JobExecutor, optFns ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if exec == nil {
		return nil, invalid("executor", "must not be nil")
	}

	opts := applyOptions(optFns)
	if opts.allocator == nil {
		opts.allocator = resource.NewController(resource.Config{
			MaxConcurrentLoads: int64(cfg.MaxConcurrentLoads),
		})
	}

	m := &Manager{
		cfg:       cfg,
		exec:      exec,
		alloc:     opts.allocator,
		logger:    opts.logger,
		metrics:   opts.metricsCollector,
		now:       opts.now,
		stats:     &stats.Aggregator{},
		regions:   region.NewRegistry(),
		budget:    cfg.MemoryBudget,
		loading:   make(map[string]State),
		prefetch:  make(map[uint64]chan struct{}),
		lastState: make(map[string]State),
	}
	m.cache = cache.New(cache.Options{
		Budget:     cfg.MemoryBudget.Total,
		MaxEntries: cfg.CacheSize,
		Free:       m.alloc.Free,
		OnEvict:    m.onEvict,
		Recorder:   m.stats,
		Now:        m.now,
	})
	return m, nil
}

// loadKind distinguishes why a load runs.
type loadKind uint8

const (
	loadRequest loadKind = iota
	loadPrefetch
	loadReload
)

// Request returns the resource described by d, loading it on a cache miss.
//
// A cache hit is served without reaching the executor, even if d asks for
// a different LOD. Concurrent requests for the same id share one load.
// The load is not bound to ctx: if ctx ends first the caller gets ctx.Err()
// and the resource is still cached when the load completes.
func (m *Manager) Request(ctx context.Context, d Descriptor) (*Resource, error) {
	return m.request(ctx, d, loadRequest)
}

func (m *Manager) request(ctx context.Context, d Descriptor, kind loadKind) (*Resource, error) {
	if err := validateDescriptor(d); err != nil {
		return nil, err
	}

	start := m.now()
	if m.isClosed() {
		return nil, ErrClosed
	}

	if r, ok := m.cache.Get(d.ID); ok {
		m.metrics.RecordRequest(d.Type, true, m.now().Sub(start), nil)
		m.logger.LogRequest(ctx, d, true, nil)
		return &r, nil
	}

	r, err := m.await(ctx, d, kind)
	m.metrics.RecordRequest(d.Type, false, m.now().Sub(start), err)
	m.logger.LogRequest(ctx, d, false, err)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Reload loads d again and replaces the cached entry once the new load
// succeeds. Until then the previous entry keeps serving hits; on failure it
// stays in place. The new entry takes d's priority, raised to that of any
// region owning it, and keeps existing pins. An id that is not cached is
// simply loaded.
func (m *Manager) Reload(ctx context.Context, d Descriptor) (*Resource, error) {
	if err := validateDescriptor(d); err != nil {
		return nil, err
	}
	if m.isClosed() {
		return nil, ErrClosed
	}

	r, err := m.await(ctx, d, loadReload)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// await joins or starts the load of d.ID and waits for it or for ctx.
func (m *Manager) await(ctx context.Context, d Descriptor, kind loadKind) (Resource, error) {
	loadCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(d.ID, func() (any, error) {
		return m.load(loadCtx, d, kind)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Resource{}, res.Err
		}
		r := res.Val.(Resource)
		// A caller that joined someone else's load still gets its priority.
		if kind != loadPrefetch && d.Priority > r.Priority && m.cache.RaisePriority(d.ID, d.Priority) {
			r.Priority = d.Priority
		}
		return r, nil
	case <-ctx.Done():
		return Resource{}, ctx.Err()
	}
}

// RequestBatch requests every descriptor concurrently.
// Results are returned in input order; failed entries are nil and their
// errors are joined.
func (m *Manager) RequestBatch(ctx context.Context, ds []Descriptor) ([]*Resource, error) {
	out := make([]*Resource, len(ds))
	errs := make([]error, len(ds))

	var wg sync.WaitGroup
	for i, d := range ds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out[i], errs[i] = m.Request(ctx, d)
		}()
	}
	wg.Wait()

	return out, errors.Join(errs...)
}

func (m *Manager) load(ctx context.Context, d Descriptor, kind loadKind) (Resource, error) {
	// A load for this id may have completed between the caller's miss and
	// the start of this flight.
	if kind != loadReload {
		if r, ok := m.cache.Peek(d.ID); ok {
			return r, nil
		}
	}

	level := d.LOD
	if m.cfg.EnableLOD {
		level = lod.Select(d.Distance, m.cfg.LODDistances)
	}
	task := Task{
		JobID: uuid.New(),
		ID:    d.ID,
		Type:  d.Type,
		LOD:   level,
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return Resource{}, ErrClosed
	}
	m.loading[d.ID] = StatePending
	m.inflight.Add(1)
	m.mu.Unlock()
	defer m.inflight.Done()

	m.mu.Lock()
	if _, ok := m.loading[d.ID]; ok {
		m.loading[d.ID] = StateLoading
	}
	m.mu.Unlock()

	start := m.now()
	data, err := m.exec.Submit(ctx, task)
	elapsed := m.now().Sub(start)
	if err != nil {
		return Resource{}, m.fail(ctx, task, elapsed, err)
	}

	alloc, err := m.alloc.Allocate(int64(len(data)))
	if err != nil {
		return Resource{}, m.fail(ctx, task, elapsed, fmt.Errorf("allocate %d bytes: %w", len(data), err))
	}

	m.mu.Lock()
	if m.drained {
		m.mu.Unlock()
		m.alloc.Free(alloc)
		return Resource{}, ErrClosed
	}
	delete(m.loading, d.ID)
	m.clearState(d.ID)
	res, _ := m.cache.Insert(cache.Entry{
		ID:       d.ID,
		Type:     d.Type,
		LOD:      level,
		Priority: m.insertPriority(d, kind),
		Payload:  data,
		Alloc:    alloc,
	})
	budget := m.budget.Total
	m.mu.Unlock()

	m.stats.RecordLoad(elapsed)
	m.metrics.RecordLoad(task.Type, len(data), elapsed, nil)
	m.metrics.RecordMemory(m.cache.Size(), budget)
	m.logger.LogLoad(ctx, task, len(data), elapsed, nil)
	return res, nil
}

// insertPriority must be called with m.mu held so that it is ordered
// against region registration and removal. Prefetched resources take the
// priority of the regions that own them when the load completes, or Low if
// none does anymore.
func (m *Manager) insertPriority(d Descriptor, kind loadKind) Priority {
	p := d.Priority
	if kind == loadPrefetch {
		p = PriorityLow
	}
	if rp, ok := m.regions.Priority(d.ID); ok && rp > p {
		p = rp
	}
	return p
}

func (m *Manager) fail(ctx context.Context, task Task, elapsed time.Duration, cause error) error {
	err := &LoadError{ID: task.ID, Type: task.Type, LOD: task.LOD, cause: cause}

	m.mu.Lock()
	delete(m.loading, task.ID)
	m.mu.Unlock()
	m.setState(task.ID, StateFailed)

	m.stats.RecordFailure()
	m.metrics.RecordLoad(task.Type, 0, elapsed, err)
	m.logger.LogLoad(ctx, task, 0, elapsed, err)
	return err
}

func (m *Manager) onEvict(r Resource) {
	m.setState(r.ID, StateEvicted)
	m.metrics.RecordEviction(r.Type, r.SizeBytes)
	m.logger.LogEviction(context.Background(), r)
}

func (m *Manager) setState(id string, s State) {
	m.stateMu.Lock()
	m.lastState[id] = s
	m.stateMu.Unlock()
}

func (m *Manager) clearState(id string) {
	m.stateMu.Lock()
	delete(m.lastState, id)
	m.stateMu.Unlock()
}

// State reports the lifecycle state of id without touching cache
// recency or hit counters. The second result is false for ids the manager
// has never seen.
func (m *Manager) State(id string) (State, bool) {
	if _, ok := m.cache.Peek(id); ok {
		return StateLoaded, true
	}

	m.mu.Lock()
	s, ok := m.loading[id]
	m.mu.Unlock()
	if ok {
		return s, true
	}

	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	s, ok = m.lastState[id]
	return s, ok
}

// Unload removes id from the cache and frees its memory. It does not
// count as an eviction. A later Request reloads the resource.
func (m *Manager) Unload(id string) error {
	if m.isClosed() {
		return ErrClosed
	}
	r, ok := m.cache.Remove(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	m.setState(id, StateEvicted)
	m.metrics.RecordMemory(m.cache.Size(), m.budgetTotal())
	m.logger.DebugContext(context.Background(), "resource unloaded",
		"resource", id,
		"bytes", r.SizeBytes,
	)
	return nil
}

// UnloadType removes every cached resource of type t and returns how many
// were removed.
func (m *Manager) UnloadType(t ResourceType) (int, error) {
	if m.isClosed() {
		return 0, ErrClosed
	}
	if !t.Valid() {
		return 0, invalid("type", "unknown resource type %d", uint8(t))
	}
	n := m.cache.RemoveType(t)
	m.metrics.RecordMemory(m.cache.Size(), m.budgetTotal())
	return n, nil
}

// UnloadUnused removes every cached resource that is not pinned, whatever
// its priority, and returns how many were removed. Removals do not count as
// evictions.
func (m *Manager) UnloadUnused() (int, error) {
	if m.isClosed() {
		return 0, ErrClosed
	}
	removed := m.cache.RemoveUnpinned()
	for _, r := range removed {
		m.setState(r.ID, StateEvicted)
	}
	m.metrics.RecordMemory(m.cache.Size(), m.budgetTotal())
	m.logger.DebugContext(context.Background(), "unused resources unloaded", "count", len(removed))
	return len(removed), nil
}

// Loaded returns the cached resources of type t, most recently used first.
// It does not affect recency or hit counters.
func (m *Manager) Loaded(t ResourceType) []Resource {
	return m.cache.Resources(t)
}

// Pin protects a cached resource from LRU eviction until Unpin.
// Pins nest.
func (m *Manager) Pin(id string) error {
	if !m.cache.Pin(id) {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return nil
}

// Unpin releases one Pin. Budget enforcement runs immediately.
func (m *Manager) Unpin(id string) error {
	if !m.cache.Unpin(id) {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	m.cache.EvictIfOverBudget()
	return nil
}

// SetBudget changes the enforced byte ceiling and evicts down to it.
func (m *Manager) SetBudget(total int64) error {
	if total <= 0 {
		return invalid("memory_budget.total", "must be positive, got %d", total)
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.budget.Total = total
	m.mu.Unlock()

	m.cache.SetBudget(total)
	m.metrics.RecordMemory(m.cache.Size(), total)
	return nil
}

// SetViewerPosition records the viewer position used to compute the
// distance of region prefetch requests.
func (m *Manager) SetViewerPosition(p Vec3) {
	m.mu.Lock()
	m.viewer = p
	m.viewerSet = true
	m.mu.Unlock()
}

// Stats returns a snapshot of the manager counters. It is O(1) in the
// number of cached resources.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	active := len(m.loading)
	budget := m.budget
	m.mu.Unlock()

	return m.stats.Snapshot(active, budget, m.alloc.AllocatorStats())
}

// ResetStats zeroes the event counters. Memory gauges are kept.
func (m *Manager) ResetStats() {
	m.stats.Reset()
}

// RegisterRegion stores r and prefetches its resources in the background.
// Individual prefetch failures are logged, never returned.
func (m *Manager) RegisterRegion(ctx context.Context, r Region) error {
	if err := validateRegion(r); err != nil {
		return err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if err := m.regions.Register(r); err != nil {
		m.mu.Unlock()
		if errors.Is(err, region.ErrExists) {
			err = fmt.Errorf("%w: %q", ErrRegionExists, r.ID)
		}
		m.logger.LogRegion(ctx, "register", r.ID, len(r.Resources), err)
		return err
	}
	// Resources that are already cached gain the region's protection now;
	// the prefetch below only reaches the cache hit path for them.
	for _, ref := range r.Resources {
		m.cache.RaisePriority(ref.ID, r.Priority)
	}
	var distance float64
	if m.viewerSet {
		distance = m.viewer.Distance(r.Center)
	}
	m.nextJob++
	job, done := m.nextJob, make(chan struct{})
	m.prefetch[job] = done
	m.mu.Unlock()

	m.logger.LogRegion(ctx, "registered", r.ID, len(r.Resources), nil)

	loadCtx := context.WithoutCancel(ctx)
	go func() {
		defer func() {
			m.mu.Lock()
			delete(m.prefetch, job)
			m.mu.Unlock()
			close(done)
		}()
		m.prefetchRegion(loadCtx, r, distance)
	}()
	return nil
}

// WaitPrefetch blocks until every region prefetch started before the call
// has finished or ctx ends.
func (m *Manager) WaitPrefetch(ctx context.Context) error {
	m.mu.Lock()
	pending := make([]chan struct{}, 0, len(m.prefetch))
	for _, done := range m.prefetch {
		pending = append(pending, done)
	}
	m.mu.Unlock()

	for _, done := range pending {
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (m *Manager) prefetchRegion(ctx context.Context, r Region, distance float64) {
	log := m.logger.WithRegion(r.ID)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.MaxConcurrentLoads)
	for _, ref := range r.Resources {
		g.Go(func() error {
			_, err := m.request(gctx, Descriptor{
				ID:       ref.ID,
				Type:     ref.Type,
				Priority: r.Priority,
				Distance: distance,
			}, loadPrefetch)
			if err != nil && !errors.Is(err, ErrClosed) {
				log.WarnContext(ctx, "prefetch failed",
					"resource", ref.ID,
					"type", ref.Type.String(),
					"error", err,
				)
			}
			// Individual failures never cancel the rest of the region.
			return nil
		})
	}
	_ = g.Wait()
}

// UnregisterRegion removes a region. Its resources that no other active
// region references are demoted to PriorityLow so LRU can reclaim them;
// nothing is evicted synchronously. Orphans whose prefetch is still running
// are inserted at PriorityLow when it completes.
func (m *Manager) UnregisterRegion(id string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	orphans, err := m.regions.Unregister(id)
	if err != nil {
		m.mu.Unlock()
		if errors.Is(err, region.ErrNotFound) {
			err = fmt.Errorf("%w: %q", ErrRegionNotFound, id)
		}
		return err
	}
	for _, ref := range orphans {
		m.cache.SetPriority(ref.ID, PriorityLow)
	}
	m.mu.Unlock()

	m.logger.LogRegion(context.Background(), "unregistered", id, len(orphans), nil)
	return nil
}

// Region returns a registered region.
func (m *Manager) Region(id string) (Region, bool) {
	return m.regions.Get(id)
}

// ActiveRegions returns the ids of all registered regions, sorted.
func (m *Manager) ActiveRegions() []string {
	return m.regions.Active()
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *Manager) budgetTotal() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.budget.Total
}

func validateDescriptor(d Descriptor) error {
	switch {
	case d.ID == "":
		return invalid("id", "must not be empty")
	case len(d.ID) > MaxIDLength:
		return invalid("id", "longer than %d bytes", MaxIDLength)
	case math.IsNaN(d.Distance) || d.Distance < 0:
		return invalid("distance", "must be a non-negative number, got %v", d.Distance)
	case !d.Type.Valid():
		return invalid("type", "unknown resource type %d", uint8(d.Type))
	case !d.Priority.Valid():
		return invalid("priority", "unknown priority %d", uint8(d.Priority))
	case !d.LOD.Valid():
		return invalid("lod", "unknown level %d", uint8(d.LOD))
	}
	return nil
}

func validateRegion(r Region) error {
	switch {
	case r.ID == "":
		return invalid("region.id", "must not be empty")
	case math.IsNaN(r.Radius) || r.Radius < 0:
		return invalid("region.radius", "must be a non-negative number, got %v", r.Radius)
	case !r.Priority.Valid():
		return invalid("region.priority", "unknown priority %d", uint8(r.Priority))
	}
	for _, ref := range r.Resources {
		if ref.ID == "" || len(ref.ID) > MaxIDLength {
			return invalid("region.resources", "invalid resource id %q", ref.ID)
		}
		if !ref.Type.Valid() {
			return invalid("region.resources", "unknown resource type %d for %q", uint8(ref.Type), ref.ID)
		}
	}
	return nil
}
