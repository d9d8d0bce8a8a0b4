package resource

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_Allocate(t *testing.T) {
	c := NewController(Config{MemoryLimitBytes: 100})

	a1, err := c.Allocate(50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), c.MemoryUsage())

	a2, err := c.Allocate(40)
	require.NoError(t, err)
	assert.Equal(t, int64(90), c.MemoryUsage())

	// Limit exceeded
	_, err = c.Allocate(20)
	assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	assert.Equal(t, int64(90), c.MemoryUsage())

	c.Free(a1)
	assert.Equal(t, int64(40), c.MemoryUsage())

	a3, err := c.Allocate(20)
	require.NoError(t, err)

	stats := c.AllocatorStats()
	assert.Equal(t, int64(60), stats.Allocated)
	assert.Equal(t, int64(90), stats.Peak)
	assert.Equal(t, int64(2), stats.Allocations)

	c.Free(a2)
	c.Free(a3)
	assert.Equal(t, int64(0), c.MemoryUsage())
	assert.Equal(t, int64(90), c.AllocatorStats().Peak)
}

func TestController_UnlimitedMemory(t *testing.T) {
	c := NewController(Config{})

	a, err := c.Allocate(1000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), c.MemoryUsage())
	assert.Equal(t, int64(0), c.MemoryLimit())

	c.Free(a)
	assert.Equal(t, int64(0), c.MemoryUsage())

	// Zero handles are ignored.
	c.Free(Allocation{})
	assert.Equal(t, int64(0), c.MemoryUsage())
}

func TestController_LoadSlots(t *testing.T) {
	c := NewController(Config{MaxConcurrentLoads: 2})
	assert.Equal(t, int64(2), c.MaxConcurrentLoads())

	require.NoError(t, c.AcquireLoad(t.Context()))
	require.NoError(t, c.AcquireLoad(t.Context()))

	assert.False(t, c.TryAcquireLoad())

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, c.AcquireLoad(ctx))

	c.ReleaseLoad()
	assert.True(t, c.TryAcquireLoad())
}

func TestController_DefaultLoadSlots(t *testing.T) {
	c := NewController(Config{})
	assert.Equal(t, int64(DefaultMaxConcurrentLoads), c.MaxConcurrentLoads())
}

func TestController_AcquireIOLargerThanBurst(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})

	// First burst is immediately available, the remainder must not error.
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	require.NoError(t, c.AcquireIO(ctx, (1<<20)+512))
}

func TestController_Nil(t *testing.T) {
	var c *Controller

	a, err := c.Allocate(10)
	require.NoError(t, err)
	c.Free(a)
	assert.Equal(t, Stats{}, c.AllocatorStats())
	require.NoError(t, c.AcquireLoad(t.Context()))
	assert.True(t, c.TryAcquireLoad())
	c.ReleaseLoad()
	require.NoError(t, c.AcquireIO(t.Context(), 1<<30))
}

func TestRateLimitedReader(t *testing.T) {
	c := NewController(Config{IOLimitBytesPerSec: 1 << 20})
	data := bytes.Repeat([]byte("x"), 4096)

	got, err := io.ReadAll(NewRateLimitedReader(t.Context(), bytes.NewReader(data), c))
	require.NoError(t, err)
	assert.Equal(t, data, got)
}
