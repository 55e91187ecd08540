// Package objpool provides generic object pooling to reduce allocations on
// the hot execution path.
//
// Object pooling reuses allocated objects instead of creating new ones,
// reducing GC pressure and improving throughput for high-frequency operations
// such as emitting one Record per matched path.
//
// Pooled objects in this package:
//   - Any type, via the generic Pool (pkg/record pools its Records with NewPool)
//   - Byte buffers, via GetByteBuffer/PutByteBuffer
//   - []int slices, via GetIntSlice/PutIntSlice
//
// Usage:
//
//	buf := objpool.GetByteBuffer()
//	defer objpool.PutByteBuffer(buf)
//	buf = append(buf, "hello"...)
package objpool

import "sync"

// Config configures object pooling behavior.
type Config struct {
	// Enabled controls whether pooling is active. Disabled pools allocate
	// fresh objects on every Get and discard on every Put — useful under
	// race detection or when debugging a suspected pooling bug.
	Enabled bool

	// MaxSize limits the capacity a pooled int slice may have before
	// PutIntSlice discards it instead of returning it to the pool, bounding
	// per-object memory retention. Byte buffers use a fixed 64 KiB limit.
	MaxSize int
}

var globalConfig = Config{
	Enabled: true,
	MaxSize: 1000,
}

// Configure sets the global pooling configuration. Should be called once
// during process initialization, before the pools see any traffic.
func Configure(cfg Config) {
	globalConfig = cfg
}

// IsEnabled returns whether pooling is currently active.
func IsEnabled() bool {
	return globalConfig.Enabled
}

// Pool is a typed wrapper over sync.Pool. Unlike sync.Pool it is safe to
// declare as a package-level var with a New function closed over at
// construction time, and Get/Put respect the global Config so pooling can be
// disabled uniformly across the process.
type Pool[T any] struct {
	new  func() T
	pool sync.Pool
}

// NewPool creates a Pool whose Get falls back to calling new when the
// underlying sync.Pool is empty or pooling is disabled.
func NewPool[T any](newFn func() T) *Pool[T] {
	p := &Pool[T]{new: newFn}
	p.pool.New = func() any { return newFn() }
	return p
}

// Get returns a pooled value, or a freshly constructed one if the pool is
// empty or pooling is disabled.
func (p *Pool[T]) Get() T {
	if !globalConfig.Enabled {
		return p.new()
	}
	return p.pool.Get().(T)
}

// Put returns v to the pool for reuse. Callers must not use v after Put.
func (p *Pool[T]) Put(v T) {
	if !globalConfig.Enabled {
		return
	}
	p.pool.Put(v)
}

// =============================================================================
// Byte Buffer Pool
// =============================================================================

var byteBufferPool = sync.Pool{
	New: func() any {
		return make([]byte, 0, 256)
	},
}

// GetByteBuffer returns a zero-length byte buffer from the pool.
func GetByteBuffer() []byte {
	if !globalConfig.Enabled {
		return make([]byte, 0, 256)
	}
	return byteBufferPool.Get().([]byte)[:0]
}

// PutByteBuffer returns a byte buffer to the pool.
func PutByteBuffer(buf []byte) {
	if !globalConfig.Enabled {
		return
	}
	if cap(buf) > 64*1024 { // don't pool huge buffers
		return
	}
	byteBufferPool.Put(buf[:0])
}

// =============================================================================
// Int Slice Pool
// =============================================================================

var intSlicePool = sync.Pool{
	New: func() any {
		return make([]int, 0, 16)
	},
}

// GetIntSlice returns a zero-length int slice from the pool.
func GetIntSlice() []int {
	if !globalConfig.Enabled {
		return make([]int, 0, 16)
	}
	return intSlicePool.Get().([]int)[:0]
}

// PutIntSlice returns an int slice to the pool.
func PutIntSlice(s []int) {
	if !globalConfig.Enabled {
		return
	}
	if cap(s) > globalConfig.MaxSize {
		return
	}
	intSlicePool.Put(s[:0])
}
