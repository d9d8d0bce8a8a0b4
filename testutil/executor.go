package testutil

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/assetstream/model"
)

// Executor is a scripted job executor.
// It is safe for concurrent use.
type Executor struct {
	defaultSize int

	mu    sync.Mutex
	sizes map[string]int
	fails map[string]error
	gate  chan struct{}
	tasks []model.Task
	perID map[string]int

	calls    atomic.Int64
	inFlight atomic.Int64
}

// NewExecutor returns an executor that produces defaultSize bytes per load.
func NewExecutor(defaultSize int) *Executor {
	return &Executor{
		defaultSize: defaultSize,
		sizes:       make(map[string]int),
		fails:       make(map[string]error),
		perID:       make(map[string]int),
	}
}

// SetSize overrides the payload size of id.
func (e *Executor) SetSize(id string, n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sizes[id] = n
}

// Fail makes every load of id return err.
func (e *Executor) Fail(id string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fails[id] = err
}

// Succeed clears a failure installed with Fail.
func (e *Executor) Succeed(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.fails, id)
}

// Block holds every subsequent Submit until the returned function is called.
// The release function is idempotent.
func (e *Executor) Block() (release func()) {
	gate := make(chan struct{})
	e.mu.Lock()
	e.gate = gate
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			if e.gate == gate {
				e.gate = nil
			}
			e.mu.Unlock()
			close(gate)
		})
	}
}

// Submit implements the job executor contract.
func (e *Executor) Submit(ctx context.Context, task model.Task) ([]byte, error) {
	e.calls.Add(1)
	e.inFlight.Add(1)
	defer e.inFlight.Add(-1)

	e.mu.Lock()
	e.tasks = append(e.tasks, task)
	e.perID[task.ID]++
	gate := e.gate
	e.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	e.mu.Lock()
	err := e.fails[task.ID]
	size, ok := e.sizes[task.ID]
	e.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !ok {
		size = e.defaultSize
	}
	return Payload(task.ID, size), nil
}

// Calls returns the total number of submissions.
func (e *Executor) Calls() int64 {
	return e.calls.Load()
}

// CallsFor returns the number of submissions for id.
func (e *Executor) CallsFor(id string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.perID[id]
}

// InFlight returns the number of submissions that have not returned yet.
func (e *Executor) InFlight() int64 {
	return e.inFlight.Load()
}

// Tasks returns a copy of every submitted task in arrival order.
func (e *Executor) Tasks() []model.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Task(nil), e.tasks...)
}

// Payload returns deterministic bytes of length n for id.
func Payload(id string, n int) []byte {
	if n <= 0 {
		return []byte{}
	}
	seed := []byte(id)
	if len(seed) == 0 {
		seed = []byte{0}
	}
	return bytes.Repeat(seed, n/len(seed)+1)[:n]
}
