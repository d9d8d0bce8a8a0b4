package assetstream

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/assetstream/lod"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultMemoryBudget is the default byte ceiling of the cache.
	DefaultMemoryBudget = 256 << 20

	// DefaultMaxConcurrentLoads bounds region prefetch fan-out and executor slots.
	DefaultMaxConcurrentLoads = 8

	// MaxIDLength is the longest accepted resource id.
	MaxIDLength = 256
)

// Config holds the manager settings. The zero value is not valid; start
// from DefaultConfig.
type Config struct {
	// MemoryBudget.Total is the enforced byte ceiling; the per-type values
	// are reported by Stats only.
	MemoryBudget MemoryBudget `yaml:"memory_budget"`

	// MaxConcurrentLoads bounds the number of background prefetch loads.
	MaxConcurrentLoads int `yaml:"max_concurrent_loads"`

	// EnableLOD selects the LOD from the request distance instead of the
	// requested level.
	EnableLOD bool `yaml:"enable_lod"`

	// LODDistances are the ascending distance thresholds for LOD0..LOD3.
	LODDistances lod.Thresholds `yaml:"lod_distances"`

	// CacheSize caps the number of cached entries. 0 means unbounded.
	CacheSize int `yaml:"cache_size"`

	// AwaitOnShutdown makes Shutdown wait for in-flight loads.
	AwaitOnShutdown bool `yaml:"await_on_shutdown"`
}

// DefaultConfig returns the default settings.
func DefaultConfig() Config {
	return Config{
		MemoryBudget: MemoryBudget{
			Total: DefaultMemoryBudget,
		},
		MaxConcurrentLoads: DefaultMaxConcurrentLoads,
		EnableLOD:          true,
		LODDistances:       lod.DefaultDistances,
	}
}

// Validate reports the first invalid setting as a *ValidationError.
func (c Config) Validate() error {
	b := c.MemoryBudget
	if b.Total <= 0 {
		return invalid("memory_budget.total", "must be positive, got %d", b.Total)
	}
	for _, v := range []int64{b.Meshes, b.Textures, b.Audio, b.Scenes, b.Shaders, b.Animations, b.Materials} {
		if v < 0 {
			return invalid("memory_budget", "per-type budgets must not be negative")
		}
	}
	if c.MaxConcurrentLoads <= 0 {
		return invalid("max_concurrent_loads", "must be positive, got %d", c.MaxConcurrentLoads)
	}
	if c.CacheSize < 0 {
		return invalid("cache_size", "must not be negative, got %d", c.CacheSize)
	}
	if err := lod.Validate(c.LODDistances); err != nil {
		return &ValidationError{Field: "lod_distances", Reason: err.Error(), cause: err}
	}
	return nil
}

// ParseConfig reads a YAML configuration. Missing keys keep their
// DefaultConfig values.
func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer func() { _ = f.Close() }()
	return ParseConfig(f)
}
