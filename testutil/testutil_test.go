package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/assetstream/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG_Deterministic(t *testing.T) {
	a, b := NewRNG(42), NewRNG(42)
	for range 20 {
		assert.Equal(t, a.Intn(1000), b.Intn(1000))
	}
	assert.Equal(t, int64(42), a.Seed())
}

func TestRNG_Zipf(t *testing.T) {
	rng := NewRNG(7)
	counts := make([]int, 50)
	for range 5000 {
		v := rng.Zipf(50, 1.5)
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, 50)
		counts[v]++
	}
	assert.Greater(t, counts[0], counts[49])
	assert.Equal(t, 0, rng.Zipf(1, 1.5))
}

func TestPayload(t *testing.T) {
	assert.Len(t, Payload("rock", 10), 10)
	assert.Equal(t, []byte("rockro"), Payload("rock", 6))
	assert.Empty(t, Payload("rock", 0))
	assert.Len(t, Payload("", 3), 3)
}

func TestExecutor(t *testing.T) {
	ctx := context.Background()
	e := NewExecutor(8)
	e.SetSize("big", 32)
	e.Fail("bad", errors.New("corrupt"))

	data, err := e.Submit(ctx, model.Task{ID: "small"})
	require.NoError(t, err)
	assert.Len(t, data, 8)

	data, err = e.Submit(ctx, model.Task{ID: "big"})
	require.NoError(t, err)
	assert.Len(t, data, 32)

	_, err = e.Submit(ctx, model.Task{ID: "bad"})
	assert.EqualError(t, err, "corrupt")
	e.Succeed("bad")
	_, err = e.Submit(ctx, model.Task{ID: "bad"})
	assert.NoError(t, err)

	assert.Equal(t, int64(4), e.Calls())
	assert.Equal(t, 2, e.CallsFor("bad"))
	assert.Len(t, e.Tasks(), 4)
}

func TestExecutor_Block(t *testing.T) {
	e := NewExecutor(4)
	release := e.Block()

	done := make(chan error, 1)
	go func() {
		_, err := e.Submit(context.Background(), model.Task{ID: "slow"})
		done <- err
	}()

	require.Eventually(t, func() bool { return e.InFlight() == 1 }, time.Second, time.Millisecond)
	release()
	release()
	require.NoError(t, <-done)
	assert.Equal(t, int64(0), e.InFlight())

	release = e.Block()
	defer release()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Submit(ctx, model.Task{ID: "slow"})
	assert.ErrorIs(t, err, context.Canceled)
}
