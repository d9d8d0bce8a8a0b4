package assetstream

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError(t *testing.T) {
	err := invalid("distance", "must be a non-negative number, got %v", -1)
	assert.EqualError(t, err, "invalid distance: must be a non-negative number, got -1")
	assert.ErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrLoad)

	wrapped := fmt.Errorf("request: %w", err)
	var verr *ValidationError
	assert.ErrorAs(t, wrapped, &verr)
	assert.Equal(t, "distance", verr.Field)
}

func TestLoadError(t *testing.T) {
	cause := errors.New("disk on fire")
	err := &LoadError{ID: "gate", Type: TypeTexture, LOD: LOD2, cause: cause}

	assert.EqualError(t, err, `load texture "gate" at LOD2: disk on fire`)
	assert.ErrorIs(t, err, ErrLoad)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, cause, errors.Unwrap(err))
}
