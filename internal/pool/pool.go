// Package pool provides bucketed sync.Pool instances for the int32 sample
// and coefficient blocks used in transform and search hot paths. Buffers
// are organized by block-size class to minimize waste.
package pool

import "sync"

// Size classes, in int32 elements, matching square block areas.
const (
	Size4x4     = 16
	Size8x8     = 64
	Size16x16   = 256
	Size32x32   = 1024
	Size64x64   = 4096
	Size128x128 = 16384
)

// bucketIndex returns the pool index for a given length.
func bucketIndex(n int) int {
	switch {
	case n <= Size4x4:
		return 0
	case n <= Size8x8:
		return 1
	case n <= Size16x16:
		return 2
	case n <= Size32x32:
		return 3
	case n <= Size64x64:
		return 4
	default:
		return 5
	}
}

var sizes = [6]int{Size4x4, Size8x8, Size16x16, Size32x32, Size64x64, Size128x128}

var pools [6]sync.Pool

func init() {
	for i := range pools {
		sz := sizes[i]
		pools[i] = sync.Pool{
			New: func() any {
				b := make([]int32, sz)
				return &b
			},
		}
	}
}

// Get returns an int32 slice of length n from the pool. Its contents are
// undefined. The caller must call Put when done.
func Get(n int) []int32 {
	idx := bucketIndex(n)
	bp := pools[idx].Get().(*[]int32)
	b := *bp
	if cap(b) < n {
		b = make([]int32, n)
		*bp = b
		return b
	}
	return b[:n]
}

// GetZeroed is Get with the returned slice cleared.
func GetZeroed(n int) []int32 {
	b := Get(n)
	clear(b)
	return b
}

// Put returns a slice obtained from Get to the pool. Slices larger than
// the biggest class are dropped.
func Put(b []int32) {
	c := cap(b)
	if c < Size4x4 || c > Size128x128 {
		return
	}
	idx := bucketIndex(c)
	if sizes[idx] != c {
		// A buffer short of its class serves the next smaller class.
		if idx == 0 {
			return
		}
		idx--
	}
	b = b[:c]
	pools[idx].Put(&b)
}
