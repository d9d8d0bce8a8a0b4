package executor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/assetstream/blobstore"
	"github.com/hupe1980/assetstream/codec"
	"github.com/hupe1980/assetstream/model"
	"github.com/hupe1980/assetstream/resource"
)

// Key returns the blob name of a resource at a specific LOD.
func Key(t model.ResourceType, id string, level model.LODLevel) string {
	return fmt.Sprintf("%s/%s.lod%d", t, id, uint8(level))
}

// BaseKey returns the LOD-independent blob name of a resource.
func BaseKey(t model.ResourceType, id string) string {
	return t.String() + "/" + id
}

// Option configures a BlobExecutor.
type Option func(*BlobExecutor)

// WithController bounds concurrent reads and the IO byte rate.
func WithController(rc *resource.Controller) Option {
	return func(e *BlobExecutor) {
		e.rc = rc
	}
}

// WithoutFallback disables the LOD-independent fallback lookup.
func WithoutFallback() Option {
	return func(e *BlobExecutor) {
		e.fallback = false
	}
}

// BlobExecutor loads resources from a blob store.
type BlobExecutor struct {
	store    blobstore.BlobStore
	rc       *resource.Controller
	fallback bool
}

// New creates an executor reading from store.
func New(store blobstore.BlobStore, optFns ...Option) *BlobExecutor {
	e := &BlobExecutor{
		store:    store,
		fallback: true,
	}
	for _, fn := range optFns {
		fn(e)
	}
	return e
}

// Submit reads and decodes the blob of task.
func (e *BlobExecutor) Submit(ctx context.Context, task model.Task) ([]byte, error) {
	if err := e.rc.AcquireLoad(ctx); err != nil {
		return nil, err
	}
	defer e.rc.ReleaseLoad()

	throttle := func(r io.Reader) io.Reader {
		return resource.NewRateLimitedReader(ctx, r, e.rc)
	}

	name := Key(task.Type, task.ID, task.LOD)
	raw, err := blobstore.ReadAll(ctx, e.store, name, throttle)
	if e.fallback && errors.Is(err, blobstore.ErrNotFound) {
		name = BaseKey(task.Type, task.ID)
		raw, err = blobstore.ReadAll(ctx, e.store, name, throttle)
	}
	if err != nil {
		return nil, fmt.Errorf("executor: %s: %w", name, err)
	}

	data, err := codec.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("executor: decode %s: %w", name, err)
	}
	return data, nil
}

// Publish compresses data with c and stores it under name.
func Publish(ctx context.Context, store blobstore.BlobStore, name string, c codec.Compression, data []byte) error {
	enc, err := codec.Encode(c, data)
	if err != nil {
		return fmt.Errorf("executor: encode %s: %w", name, err)
	}
	return store.Put(ctx, name, enc)
}
