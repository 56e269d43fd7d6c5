package pool

import "sync"

// BytePool is a size-tiered pool of byte slices, avoiding an allocation on every connection's
// read/write buffer by reusing previously-returned slices of a matching tier.
type BytePool struct {
	tiers []*sync.Pool
	sizes []int
}

var defaultSizes = []int{512, 2048, 8192, 32768}

// NewBytePool builds a pool with the default HTTP-sized tiers.
func NewBytePool() *BytePool {
	return NewBytePoolWithSizes(defaultSizes)
}

// NewBytePoolWithSizes builds a pool with custom size tiers. sizes must be ascending.
func NewBytePoolWithSizes(sizes []int) *BytePool {
	bp := &BytePool{
		sizes: sizes,
		tiers: make([]*sync.Pool, len(sizes)),
	}

	for i, size := range sizes {
		sz := size
		bp.tiers[i] = &sync.Pool{
			New: func() any {
				buf := make([]byte, sz)
				return &buf
			},
		}
	}

	return bp
}

// Get returns a slice of exactly size bytes, drawn from the smallest tier that fits it. Sizes
// exceeding every tier fall back to a direct allocation.
func (bp *BytePool) Get(size int) []byte {
	for i, tierSize := range bp.sizes {
		if size <= tierSize {
			buf := *bp.tiers[i].Get().(*[]byte)
			return buf[:size]
		}
	}

	return make([]byte, size)
}

// Put returns buf to the pool, if its capacity matches one of the configured tiers exactly.
// Slices grown past their tier (or never drawn from the pool) are left for the GC.
func (bp *BytePool) Put(buf []byte) {
	capacity := cap(buf)

	for i, tierSize := range bp.sizes {
		if capacity == tierSize {
			bp.tiers[i].Put(&buf)
			return
		}
	}
}

// Bytes is the package-wide byte buffer pool shared by connection read/write paths.
var Bytes = NewBytePool()
