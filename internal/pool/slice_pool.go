// Package pool provides pooled scratch slices for hot fitting paths.
//
// Grid search evaluates hundreds of candidate transforms, each needing a
// column-sized float64 scratch slice. Pooling keeps those allocations off
// the per-candidate path.
package pool

import "sync"

var float64SlicePool = sync.Pool{
	New: func() any { return &[]float64{} },
}

// GetFloat64Slice retrieves a float64 slice of exactly the given length from
// the pool, allocating a fresh one when the pooled capacity is insufficient.
// Contents are unspecified; callers must overwrite every element.
//
// The returned cleanup function returns the slice to the pool and is
// typically deferred:
//
//	scratch, cleanup := pool.GetFloat64Slice(n)
//	defer cleanup()
func GetFloat64Slice(size int) ([]float64, func()) {
	ptr, _ := float64SlicePool.Get().(*[]float64)
	slice := (*ptr)[:0]

	if cap(slice) < size {
		slice = make([]float64, size)
		*ptr = slice
	} else {
		slice = slice[:size]
		*ptr = slice
	}

	return slice, func() { float64SlicePool.Put(ptr) }
}
