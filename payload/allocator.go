package payload

import "sync"

// Allocator satisfies §5's "heap or PSRAM-capable allocator" requirement
// without inventing hardware bindings this module cannot see: it is just
// the seam a host build fills with the plain heap and an embedded build
// could fill with a PSRAM-backed arena.
type Allocator interface {
	Get(size int) []byte
	Put(buf []byte)
}

// HeapAllocator allocates directly from the Go heap. It is the default;
// Put is a no-op since there is nothing to recycle.
type HeapAllocator struct{}

func (HeapAllocator) Get(size int) []byte { return make([]byte, size) }
func (HeapAllocator) Put([]byte)          {}

// PooledAllocator recycles same-size buffers through a sync.Pool, cutting
// GC pressure for the steady-state fixed-size block handoffs a block bus
// performs every job tick.
type PooledAllocator struct {
	size int
	pool sync.Pool
}

// NewPooledAllocator returns an Allocator that only pools buffers of
// exactly size bytes; requests for a different size bypass the pool.
func NewPooledAllocator(size int) *PooledAllocator {
	a := &PooledAllocator{size: size}
	a.pool.New = func() any { return make([]byte, size) }
	return a
}

func (a *PooledAllocator) Get(size int) []byte {
	if size != a.size {
		return make([]byte, size)
	}
	return a.pool.Get().([]byte)
}

func (a *PooledAllocator) Put(buf []byte) {
	if len(buf) != a.size {
		return
	}
	a.pool.Put(buf) //nolint:staticcheck // fixed-size recycling, not a leak
}
