package lod

import (
	"errors"
	"fmt"
	"math"
)

// Level is a discrete detail tier. Lower is finer.
type Level uint8

const (
	LOD0 Level = iota
	LOD1
	LOD2
	LOD3
)

// NumLevels is the number of supported detail levels.
const NumLevels = 4

// Thresholds are the ascending distance boundaries for LOD0..LOD3.
type Thresholds [NumLevels]float64

// DefaultDistances are the thresholds used when none are configured.
var DefaultDistances = Thresholds{10, 50, 200, 1000}

// ErrInvalidThresholds is returned by Validate for malformed thresholds.
var ErrInvalidThresholds = errors.New("invalid lod thresholds")

// Valid reports whether l is one of LOD0..LOD3.
func (l Level) Valid() bool {
	return l < NumLevels
}

func (l Level) String() string {
	if !l.Valid() {
		return fmt.Sprintf("LOD(%d)", uint8(l))
	}
	return fmt.Sprintf("LOD%d", uint8(l))
}

// Select returns the level of detail for distance.
func Select(distance float64, t Thresholds) Level {
	switch {
	case distance <= t[0]:
		return LOD0
	case distance <= t[1]:
		return LOD1
	case distance <= t[2]:
		return LOD2
	default:
		return LOD3
	}
}

// Validate checks that t is non-negative, finite and strictly ascending.
func Validate(t Thresholds) error {
	for i, v := range t {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: threshold %d is %v", ErrInvalidThresholds, i, v)
		}
		if i > 0 && v <= t[i-1] {
			return fmt.Errorf("%w: threshold %d (%v) not above threshold %d (%v)", ErrInvalidThresholds, i, v, i-1, t[i-1])
		}
	}
	return nil
}
