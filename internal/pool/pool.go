package pool

import (
	"sync"
	"sync/atomic"
)

// NodePool recycles slice backing arrays instead of letting garbage
// collection handle them, cutting allocation churn on the hot GCAS retry
// path. Adapted from the teacher's disk-offset node pool, which recycled
// whole on-disk nodes -- here there is no disk offset to reset, so what is
// recycled is the dense backing array a branch copy needs. Generic over
// the element type so the ctrie package can pool its own branch slices
// without an import cycle back into it.
type NodePool[T any] struct {
	maxSize int64
	size    atomic.Int64
	pool    *sync.Pool
}

// New creates a node pool capped at maxSize pooled slices.
func New[T any](maxSize int64) *NodePool[T] {
	return &NodePool[T]{
		maxSize: maxSize,
		pool: &sync.Pool{
			New: func() any {
				return make([]T, 0, 32)
			},
		},
	}
}

// Get returns a zero-length slice with spare capacity, either recycled
// from the pool or freshly allocated.
func (np *NodePool[T]) Get() []T {
	slice := np.pool.Get().([]T)
	if np.size.Load() > 0 {
		np.size.Add(-1)
	}
	return slice[:0]
}

// Put returns a backing array to the pool once its owning node copy has
// been superseded. Dropped once the pool is at capacity and left to the
// garbage collector.
func (np *NodePool[T]) Put(slice []T) {
	if np.size.Load() < np.maxSize {
		var zero T
		for i := range slice {
			slice[i] = zero
		}
		np.pool.Put(slice[:0])
		np.size.Add(1)
	}
}
