package assetstream

import (
	"context"
	"sync"
)

// Shutdown stops the manager. It never fails.
//
// New requests are rejected with ErrClosed from the moment Shutdown is
// called. With Config.AwaitOnShutdown, in-flight loads and region
// prefetches are awaited until they finish or ctx ends; otherwise they are
// abandoned and their results discarded. The cache is always cleared and
// ActiveRequests is zero afterwards. Calling Shutdown again is a no-op.
func (m *Manager) Shutdown(ctx context.Context) {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()

	var waitErr error
	if m.cfg.AwaitOnShutdown {
		waitErr = m.WaitPrefetch(ctx)
		if waitErr == nil {
			waitErr = waitGroup(ctx, &m.inflight)
		}
	}

	m.mu.Lock()
	m.drained = true
	abandoned := len(m.loading)
	clear(m.loading)
	m.cache.Clear()
	m.regions.Clear()
	m.mu.Unlock()

	m.stateMu.Lock()
	clear(m.lastState)
	m.stateMu.Unlock()

	m.metrics.RecordMemory(0, m.budgetTotal())
	m.logger.LogShutdown(ctx, abandoned, waitErr)
}

// Close shuts the manager down without a deadline. It always returns nil
// and exists so a Manager can be used as an io.Closer.
func (m *Manager) Close() error {
	m.Shutdown(context.Background())
	return nil
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
