package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/hupe1980/assetstream/model"
	"github.com/hupe1980/assetstream/resource"
)

// Recorder receives cache events. Implementations must be safe for concurrent use.
type Recorder interface {
	RecordHit()
	RecordMiss()
	RecordInsert(t model.ResourceType, size int64)
	RecordRemove(t model.ResourceType, size int64)
	RecordEviction()
}

// Entry is a resource to be inserted.
type Entry struct {
	ID       string
	Type     model.ResourceType
	LOD      model.LODLevel
	Priority model.Priority
	Payload  []byte
	Alloc    resource.Allocation
}

// Options configures a Cache.
type Options struct {
	// Budget is the byte ceiling. 0 disables the byte budget.
	Budget int64
	// MaxEntries bounds the number of entries. 0 disables the cap.
	MaxEntries int
	// Free releases the allocation of a removed entry.
	Free func(resource.Allocation)
	// OnEvict is called outside the cache lock for every evicted entry.
	OnEvict func(model.Resource)
	// Recorder receives hit/miss/insert/remove/eviction events.
	Recorder Recorder
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

type entry struct {
	Entry
	size       int64
	lastAccess time.Time
	pins       int
	seq        uint64
}

func (e *entry) resource(state model.State) model.Resource {
	return model.Resource{
		ID:         e.ID,
		Type:       e.Type,
		State:      state,
		LOD:        e.LOD,
		Priority:   e.Priority,
		SizeBytes:  e.size,
		LastAccess: e.lastAccess,
		Payload:    e.Payload,
	}
}

func (e *entry) evictable() bool {
	return e.pins == 0 && !e.Priority.Protected()
}

// Cache is an LRU resource cache with a byte budget and priority protection.
type Cache struct {
	mu        sync.Mutex
	budget    int64
	maxItems  int
	size      int64
	seq       uint64
	items     map[string]*list.Element
	evictList *list.List

	free    func(resource.Allocation)
	onEvict func(model.Resource)
	rec     Recorder
	now     func() time.Time
}

// New creates a new cache.
func New(opts Options) *Cache {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Free == nil {
		opts.Free = func(resource.Allocation) {}
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	return &Cache{
		budget:    opts.Budget,
		maxItems:  opts.MaxEntries,
		items:     make(map[string]*list.Element),
		evictList: list.New(),
		free:      opts.Free,
		onEvict:   opts.OnEvict,
		rec:       opts.Recorder,
		now:       opts.Now,
	}
}

// Get returns a loaded resource and marks it as most recently used.
// A miss has no side effect other than the miss count.
func (c *Cache) Get(id string) (model.Resource, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[id]; ok {
		c.rec.RecordHit()
		c.evictList.MoveToFront(el)
		e := el.Value.(*entry)
		e.lastAccess = c.now()
		return e.resource(model.StateLoaded), true
	}
	c.rec.RecordMiss()
	return model.Resource{}, false
}

// Peek returns a loaded resource without touching recency or counters.
func (c *Cache) Peek(id string) (model.Resource, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[id]; ok {
		return el.Value.(*entry).resource(model.StateLoaded), true
	}
	return model.Resource{}, false
}

// Insert adds e as the most recently used entry and enforces the budget.
// An existing entry with the same id is replaced and its pins carry over.
// It returns the inserted resource and whether it is still resident after enforcement.
func (c *Cache) Insert(e Entry) (model.Resource, bool) {
	c.mu.Lock()

	var pins int
	if el, ok := c.items[e.ID]; ok {
		pins = el.Value.(*entry).pins
		c.removeElement(el)
	}

	c.seq++
	ent := &entry{
		Entry:      e,
		size:       int64(len(e.Payload)),
		lastAccess: c.now(),
		pins:       pins,
		seq:        c.seq,
	}
	c.items[e.ID] = c.evictList.PushFront(ent)
	c.size += ent.size
	c.rec.RecordInsert(ent.Type, ent.size)

	evicted := c.evict()
	_, resident := c.items[e.ID]
	res := ent.resource(model.StateLoaded)
	if !resident {
		res.State = model.StateEvicted
	}
	c.mu.Unlock()

	c.notify(evicted)
	return res, resident
}

// EvictIfOverBudget evicts entries until the byte budget and entry cap hold.
func (c *Cache) EvictIfOverBudget() {
	c.mu.Lock()
	evicted := c.evict()
	c.mu.Unlock()

	c.notify(evicted)
}

// Remove drops an entry without counting an eviction.
func (c *Cache) Remove(id string) (model.Resource, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[id]
	if !ok {
		return model.Resource{}, false
	}
	e := el.Value.(*entry)
	c.removeElement(el)
	return e.resource(model.StateEvicted), true
}

// RemoveType drops all entries of type t and returns how many were removed.
func (c *Cache) RemoveType(t model.ResourceType) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for _, el := range c.items {
		if el.Value.(*entry).Type == t {
			toRemove = append(toRemove, el)
		}
	}
	for _, el := range toRemove {
		c.removeElement(el)
	}
	return len(toRemove)
}

// RemoveUnpinned drops every unpinned entry regardless of priority without
// counting evictions. It returns the removed resources.
func (c *Cache) RemoveUnpinned() []model.Resource {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed []model.Resource
	for el := c.evictList.Back(); el != nil; {
		prev := el.Prev()
		if e := el.Value.(*entry); e.pins == 0 {
			c.removeElement(el)
			removed = append(removed, e.resource(model.StateEvicted))
		}
		el = prev
	}
	return removed
}

// Resources returns the cached resources of type t, most recently used
// first, without touching recency or counters.
func (c *Cache) Resources(t model.ResourceType) []model.Resource {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []model.Resource
	for el := c.evictList.Front(); el != nil; el = el.Next() {
		if e := el.Value.(*entry); e.Type == t {
			out = append(out, e.resource(model.StateLoaded))
		}
	}
	return out
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for el := c.evictList.Back(); el != nil; {
		prev := el.Prev()
		c.removeElement(el)
		el = prev
	}
}

// SetBudget changes the byte budget and enforces it.
func (c *Cache) SetBudget(budget int64) {
	c.mu.Lock()
	c.budget = budget
	evicted := c.evict()
	c.mu.Unlock()

	c.notify(evicted)
}

// Budget returns the byte budget.
func (c *Cache) Budget() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.budget
}

// SetPriority changes the eviction weight of an entry.
func (c *Cache) SetPriority(id string, p model.Priority) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[id]
	if !ok {
		return false
	}
	el.Value.(*entry).Priority = p
	return true
}

// RaisePriority sets the priority of an entry to p if p is higher than its
// current priority. It reports whether the entry exists.
func (c *Cache) RaisePriority(id string, p model.Priority) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[id]
	if !ok {
		return false
	}
	if e := el.Value.(*entry); p > e.Priority {
		e.Priority = p
	}
	return true
}

// Pin protects an entry from LRU eviction until a matching Unpin.
func (c *Cache) Pin(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[id]
	if !ok {
		return false
	}
	el.Value.(*entry).pins++
	return true
}

// Unpin releases one pin.
func (c *Cache) Unpin(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[id]
	if !ok {
		return false
	}
	e := el.Value.(*entry)
	if e.pins == 0 {
		return false
	}
	e.pins--
	return true
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Size returns the number of cached bytes.
func (c *Cache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *Cache) overBudget() bool {
	if c.budget > 0 && c.size > c.budget {
		return true
	}
	return c.maxItems > 0 && len(c.items) > c.maxItems
}

// evict must be called with c.mu held.
func (c *Cache) evict() []model.Resource {
	var evicted []model.Resource
	for c.overBudget() {
		el := c.victim()
		if el == nil {
			el = c.newest()
		}
		if el == nil {
			break
		}
		e := el.Value.(*entry)
		c.removeElement(el)
		c.rec.RecordEviction()
		evicted = append(evicted, e.resource(model.StateEvicted))
	}
	return evicted
}

// victim returns the least recently used evictable entry.
func (c *Cache) victim() *list.Element {
	for el := c.evictList.Back(); el != nil; el = el.Prev() {
		if el.Value.(*entry).evictable() {
			return el
		}
	}
	return nil
}

// newest returns the most recently inserted entry.
func (c *Cache) newest() *list.Element {
	var best *list.Element
	var bestSeq uint64
	for el := c.evictList.Front(); el != nil; el = el.Next() {
		if s := el.Value.(*entry).seq; best == nil || s > bestSeq {
			best, bestSeq = el, s
		}
	}
	return best
}

func (c *Cache) removeElement(el *list.Element) {
	c.evictList.Remove(el)
	e := el.Value.(*entry)
	delete(c.items, e.ID)
	c.size -= e.size
	c.free(e.Alloc)
	c.rec.RecordRemove(e.Type, e.size)
}

func (c *Cache) notify(evicted []model.Resource) {
	if c.onEvict == nil {
		return
	}
	for _, r := range evicted {
		c.onEvict(r)
	}
}

type nopRecorder struct{}

func (nopRecorder) RecordHit()                             {}
func (nopRecorder) RecordMiss()                            {}
func (nopRecorder) RecordInsert(model.ResourceType, int64) {}
func (nopRecorder) RecordRemove(model.ResourceType, int64) {}
func (nopRecorder) RecordEviction()                        {}
