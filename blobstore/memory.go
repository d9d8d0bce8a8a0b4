package blobstore

import (
	"context"
	"io"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps blobs in memory. It is used by tests and tools.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	opens map[string]int
	total int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
		opens: make(map[string]int),
	}
}

// Open returns a handle to the named blob and counts the access, including
// failed lookups.
func (m *MemoryStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.opens[name]++
	data, ok := m.blobs[name]
	if !ok {
		return nil, ErrNotFound
	}
	// Put swaps slices and never writes into a stored one.
	return &memoryBlob{data: data}, nil
}

// Put stores a private copy of data under name.
func (m *MemoryStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.total += int64(len(data)) - int64(len(m.blobs[name]))
	m.blobs[name] = slices.Clone(data)
	if m.blobs[name] == nil {
		m.blobs[name] = []byte{}
	}
	return nil
}

// Delete removes name.
func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.total -= int64(len(m.blobs[name]))
	delete(m.blobs, name)
	return nil
}

// List returns the sorted names starting with prefix.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

// Opens returns how many times name was opened.
func (m *MemoryStore) Opens(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.opens[name]
}

// Len returns the number of stored blobs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

// Bytes returns the total size of all stored blobs.
func (m *MemoryStore) Bytes() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.total
}

type memoryBlob struct {
	data []byte
}

func (b *memoryBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *memoryBlob) Close() error { return nil }

func (b *memoryBlob) Size() int64 { return int64(len(b.data)) }
