package assetstream

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid request")

	// ErrLoad matches every *LoadError.
	ErrLoad = errors.New("load failed")

	// ErrClosed is returned by operations on a manager after Shutdown.
	ErrClosed = errors.New("manager closed")

	// ErrRegionExists is returned when registering a duplicate region id.
	ErrRegionExists = errors.New("region already registered")

	// ErrRegionNotFound is returned when unregistering an unknown region id.
	ErrRegionNotFound = errors.New("region not found")

	// ErrNotFound is returned when a resource is not cached.
	ErrNotFound = errors.New("resource not found")
)

// ValidationError describes a rejected argument.
//
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
	cause  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return e.cause }

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// LoadError indicates that a resource could not be produced, either
// because the executor failed or because its memory could not be allocated.
//
// The original underlying error can be accessed via errors.Unwrap.
type LoadError struct {
	ID    string
	Type  ResourceType
	LOD   LODLevel
	cause error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s %q at %s: %v", e.Type, e.ID, e.LOD, e.cause)
}

func (e *LoadError) Unwrap() error { return e.cause }

// Is reports whether target is ErrLoad.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }
