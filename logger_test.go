package assetstream_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/assetstream"
	"github.com/stretchr/testify/assert"
)

// syncBuffer is a goroutine-safe bytes.Buffer for capturing log output.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func textHandler(w io.Writer) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
}

func TestLogger_Helpers(t *testing.T) {
	var buf syncBuffer
	l := assetstream.NewLogger(textHandler(&buf))
	ctx := context.Background()

	task := assetstream.Task{ID: "gate", Type: assetstream.TypeMesh, LOD: assetstream.LOD1}
	l.LogLoad(ctx, task, 512, time.Millisecond, nil)
	l.LogLoad(ctx, task, 0, time.Millisecond, errors.New("eof"))
	l.LogRequest(ctx, assetstream.Descriptor{ID: "gate"}, true, nil)
	l.LogEviction(ctx, assetstream.Resource{ID: "old", SizeBytes: 64})
	l.LogRegion(ctx, "registered", "keep", 3, nil)
	l.LogShutdown(ctx, 2, context.DeadlineExceeded)
	l.WithResource("gate", assetstream.TypeMesh).Info("tagged")

	out := buf.String()
	assert.Contains(t, out, "load completed")
	assert.Contains(t, out, "lod=LOD1")
	assert.Contains(t, out, "bytes=512")
	assert.Contains(t, out, "load failed")
	assert.Contains(t, out, "cache_hit=true")
	assert.Contains(t, out, "resource evicted")
	assert.Contains(t, out, "region registered")
	assert.Contains(t, out, "abandoned=2")
	assert.Contains(t, out, "type=mesh")
}

func TestNoopLogger(t *testing.T) {
	l := assetstream.NoopLogger()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
}
