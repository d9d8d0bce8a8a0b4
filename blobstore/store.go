package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore is an abstraction for accessing immutable asset blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	// ReadAt reads len(p) bytes starting at off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// Size returns the size of the blob in bytes.
	Size() int64
	io.Closer
}

// NewReader returns a sequential reader over b that reads with ctx.
func NewReader(ctx context.Context, b Blob) io.Reader {
	return io.NewSectionReader(blobReaderAt{ctx: ctx, b: b}, 0, b.Size())
}

type blobReaderAt struct {
	ctx context.Context
	b   Blob
}

func (r blobReaderAt) ReadAt(p []byte, off int64) (int, error) {
	return r.b.ReadAt(r.ctx, p, off)
}

// ReadAll opens name and reads the whole blob. A non-nil through wraps the
// sequential blob reader, for example to rate limit the transfer.
func ReadAll(ctx context.Context, store BlobStore, name string, through func(io.Reader) io.Reader) ([]byte, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = b.Close() }()

	var r io.Reader = NewReader(ctx, b)
	if through != nil {
		r = through(r)
	}

	buf := make([]byte, b.Size())
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("read %s: short read %d of %d bytes", name, n, len(buf))
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return buf, nil
}
