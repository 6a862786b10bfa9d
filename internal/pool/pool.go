// Package pool provides bucketed sync.Pool instances of float32 slabs for
// reducing allocations in per-frame hot paths. Slabs are organized by size
// class (in elements) to minimize waste; the typical customers are the
// wdst/weight accumulation buffers, which are a handful of plane areas each.
package pool

import "sync"

// Size classes for bucketed pools, in float32 elements.
const (
	Size1K   = 1 << 10
	Size16K  = 1 << 14
	Size256K = 1 << 18
	Size1M   = 1 << 20
	Size4M   = 1 << 22
	Size16M  = 1 << 24
)

// bucketIndex returns the pool index for a given element count.
func bucketIndex(n int) int {
	switch {
	case n <= Size1K:
		return 0
	case n <= Size16K:
		return 1
	case n <= Size256K:
		return 2
	case n <= Size1M:
		return 3
	case n <= Size4M:
		return 4
	default:
		return 5
	}
}

var sizes = [6]int{Size1K, Size16K, Size256K, Size1M, Size4M, Size16M}

var pools [6]sync.Pool

func init() {
	for i := range pools {
		n := sizes[i]
		pools[i] = sync.Pool{
			New: func() any {
				s := make([]float32, n)
				return &s
			},
		}
	}
}

// Get returns a float32 slab of exactly n elements from the pool, with
// every element zeroed. The caller must call Put when done.
func Get(n int) []float32 {
	idx := bucketIndex(n)
	sp := pools[idx].Get().(*[]float32)
	s := *sp
	if cap(s) < n {
		s = make([]float32, n)
		*sp = s
		return s
	}
	s = s[:n]
	clear(s)
	return s
}

// Put returns a slab to the pool. The slab must have been obtained from
// Get. Slabs smaller than Size1K are not pooled.
func Put(s []float32) {
	c := cap(s)
	if c < Size1K {
		return
	}
	idx := bucketIndex(c)
	s = s[:c]
	pools[idx].Put(&s)
}
