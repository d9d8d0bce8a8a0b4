// Package region tracks the active streaming regions and their resource sets.
//
// Resource ids are interned to uint32 and each region keeps its members in a
// roaring bitmap, so "which resources of this region are not referenced by any
// other active region" is a single AndNot against the union of the others.
package region

import (
	"errors"
	"slices"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/assetstream/model"
)

var (
	// ErrExists is returned when registering a region id twice.
	ErrExists = errors.New("region already registered")
	// ErrNotFound is returned for unknown region ids.
	ErrNotFound = errors.New("region not found")
)

type entry struct {
	region  model.Region
	members *roaring.Bitmap
}

// Registry is the set of active regions. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	regions map[string]*entry
	ids     map[string]uint32
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		regions: make(map[string]*entry),
		ids:     make(map[string]uint32),
	}
}

// Register stores r. The resource list is copied.
func (g *Registry) Register(r model.Region) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.regions[r.ID]; ok {
		return ErrExists
	}

	r.Resources = slices.Clone(r.Resources)
	members := roaring.New()
	for _, ref := range r.Resources {
		members.Add(g.intern(ref.ID))
	}
	g.regions[r.ID] = &entry{region: r, members: members}
	return nil
}

// Unregister removes a region and returns the resources it owned that no
// other active region references.
func (g *Registry) Unregister(id string) ([]model.ResourceRef, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.regions[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(g.regions, id)

	others := make([]*roaring.Bitmap, 0, len(g.regions))
	for _, o := range g.regions {
		others = append(others, o.members)
	}
	orphans := roaring.AndNot(e.members, roaring.FastOr(others...))

	var refs []model.ResourceRef
	seen := make(map[string]struct{}, orphans.GetCardinality())
	for _, ref := range e.region.Resources {
		if _, dup := seen[ref.ID]; dup {
			continue
		}
		if orphans.Contains(g.ids[ref.ID]) {
			seen[ref.ID] = struct{}{}
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

// Get returns a registered region.
func (g *Registry) Get(id string) (model.Region, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e, ok := g.regions[id]
	if !ok {
		return model.Region{}, false
	}
	r := e.region
	r.Resources = slices.Clone(r.Resources)
	return r, true
}

// Active returns the ids of all registered regions in sorted order.
func (g *Registry) Active() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, 0, len(g.regions))
	for id := range g.regions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Priority returns the highest priority among the active regions that own
// resourceID. The second result is false if no active region owns it.
func (g *Registry) Priority(resourceID string) (model.Priority, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	n, ok := g.ids[resourceID]
	if !ok {
		return 0, false
	}
	var (
		best  model.Priority
		owned bool
	)
	for _, e := range g.regions {
		if e.members.Contains(n) && (!owned || e.region.Priority > best) {
			best, owned = e.region.Priority, true
		}
	}
	return best, owned
}

// Clear removes every region.
func (g *Registry) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	clear(g.regions)
}

// intern must be called with g.mu held.
func (g *Registry) intern(resourceID string) uint32 {
	if n, ok := g.ids[resourceID]; ok {
		return n
	}
	n := uint32(len(g.ids))
	g.ids[resourceID] = n
	return n
}
