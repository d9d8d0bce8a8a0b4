package model

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/assetstream/lod"
)

// ResourceType classifies an asset.
type ResourceType uint8

const (
	TypeMesh ResourceType = iota
	TypeTexture
	TypeAudio
	TypeScene
	TypeShader
	TypeAnimation
	TypeMaterial
)

// NumResourceTypes is the number of defined resource types.
const NumResourceTypes = 7

var resourceTypeNames = [NumResourceTypes]string{
	"mesh", "texture", "audio", "scene", "shader", "animation", "material",
}

// Valid reports whether t is a defined resource type.
func (t ResourceType) Valid() bool {
	return t < NumResourceTypes
}

func (t ResourceType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("ResourceType(%d)", uint8(t))
	}
	return resourceTypeNames[t]
}

// ParseResourceType parses a case-insensitive type name.
func ParseResourceType(s string) (ResourceType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range resourceTypeNames {
		if s == name {
			return ResourceType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown resource type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t ResourceType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid resource type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ResourceType) UnmarshalText(b []byte) error {
	v, err := ParseResourceType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// ResourceTypes returns all defined types in declaration order.
func ResourceTypes() []ResourceType {
	types := make([]ResourceType, NumResourceTypes)
	for i := range types {
		types[i] = ResourceType(i)
	}
	return types
}

// Priority is the eviction weight of a request.
// It never reorders loads; High and Critical only protect cached entries.
type Priority uint8

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityCritical
)

// Valid reports whether p is a defined priority.
func (p Priority) Valid() bool {
	return p <= PriorityCritical
}

// Protected reports whether entries with this priority are shielded from LRU eviction.
func (p Priority) Protected() bool {
	return p == PriorityHigh || p == PriorityCritical
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return fmt.Sprintf("Priority(%d)", uint8(p))
	}
}

// ParsePriority parses a case-insensitive priority name.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "", "normal":
		return PriorityNormal, nil
	case "high":
		return PriorityHigh, nil
	case "critical":
		return PriorityCritical, nil
	}
	return 0, fmt.Errorf("unknown priority %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid priority %d", uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Priority) UnmarshalText(b []byte) error {
	v, err := ParsePriority(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// LODLevel is the detail tier of a resource.
type LODLevel = lod.Level

// State is the lifecycle state of a streamed resource.
type State uint8

const (
	StatePending State = iota
	StateLoading
	StateLoaded
	StateFailed
	StateEvicted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	case StateEvicted:
		return "evicted"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Vec3 is a point in world space.
type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Distance returns the euclidean distance between v and o.
func (v Vec3) Distance(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Descriptor is the input of a stream request.
type Descriptor struct {
	// ID is the stable identity of the asset.
	ID string
	// Type is the kind of asset.
	Type ResourceType
	// Priority is the eviction weight of the loaded entry.
	Priority Priority
	// LOD is the requested level; it is overridden by distance-based
	// selection when LOD is enabled on the manager.
	LOD LODLevel
	// Distance is the non-negative distance from the viewer.
	Distance float64
}

// Resource is a streamed asset.
//
// Payload is a read-only reference to the bytes owned by the cache.
type Resource struct {
	ID         string
	Type       ResourceType
	State      State
	LOD        LODLevel
	Priority   Priority
	SizeBytes  int64
	LastAccess time.Time
	Payload    []byte
}

// Task is a single load job handed to an executor.
type Task struct {
	// JobID correlates log lines of one load.
	JobID uuid.UUID
	ID    string
	Type  ResourceType
	LOD   LODLevel
}

// ResourceRef names a resource owned by a region.
type ResourceRef struct {
	ID   string       `yaml:"id"`
	Type ResourceType `yaml:"type"`
}

// Refs builds references of a single type.
func Refs(t ResourceType, ids ...string) []ResourceRef {
	refs := make([]ResourceRef, len(ids))
	for i, id := range ids {
		refs[i] = ResourceRef{ID: id, Type: t}
	}
	return refs
}

// Region is a named spatial area whose resources are prefetched on
// registration and released on unregistration.
type Region struct {
	ID        string        `yaml:"id"`
	Center    Vec3          `yaml:"center"`
	Radius    float64       `yaml:"radius"`
	Priority  Priority      `yaml:"priority"`
	Resources []ResourceRef `yaml:"resources"`
}

// MemoryBudget is the byte ceiling of the cache.
// Only Total is enforced; the per-type values are informational.
type MemoryBudget struct {
	Total      int64 `yaml:"total"`
	Meshes     int64 `yaml:"meshes"`
	Textures   int64 `yaml:"textures"`
	Audio      int64 `yaml:"audio"`
	Scenes     int64 `yaml:"scenes"`
	Shaders    int64 `yaml:"shaders"`
	Animations int64 `yaml:"animations"`
	Materials  int64 `yaml:"materials"`
}

// ForType returns the informational sub-budget of t.
func (b MemoryBudget) ForType(t ResourceType) int64 {
	switch t {
	case TypeMesh:
		return b.Meshes
	case TypeTexture:
		return b.Textures
	case TypeAudio:
		return b.Audio
	case TypeScene:
		return b.Scenes
	case TypeShader:
		return b.Shaders
	case TypeAnimation:
		return b.Animations
	case TypeMaterial:
		return b.Materials
	default:
		return 0
	}
}

// SubTotal returns the sum of the per-type budgets.
func (b MemoryBudget) SubTotal() int64 {
	return b.Meshes + b.Textures + b.Audio + b.Scenes + b.Shaders + b.Animations + b.Materials
}
