package pool

import (
	"errors"
	"sync/atomic"
)

// Size classes. Fixed, closed set — no buffer capacity outside this table
// ever exists in the pool.
const (
	Small  = 256
	Medium = 4096
	Large  = 65536
)

// DefaultPoolSize is the number of buffers held per size class when the
// caller does not override it (matches the bufferPools default in package
// config).
const DefaultPoolSize = 128

var sizeClasses = [...]int{Small, Medium, Large}

// ErrBufferTooLarge is returned by Acquire when the requested size exceeds
// the Large size class.
var ErrBufferTooLarge = errors.New("pool: requested size exceeds largest buffer class")

// classIndex reports the index of the smallest size class >= size, or -1 if
// size exceeds every class.
func classIndex(size int) int {
	for i, c := range sizeClasses {
		if size <= c {
			return i
		}
	}
	return -1
}

// classStats tracks per-class acquire/release counters for diagnostics.
type classStats struct {
	totalAlloc atomic.Uint64
	totalFree  atomic.Uint64
}

// Pool is a process-wide, size-classed buffer pool. A Pool is safe for
// concurrent use; its internal synchronization is entirely the per-class
// blocking channel, matching the ArrayBlockingQueue-per-class design of the
// reference implementation.
type Pool struct {
	classes [len(sizeClasses)]chan *Buffer
	stats   [len(sizeClasses)]classStats
}

// New constructs a Pool with perClass buffers pre-allocated in each of the
// three size classes. Buffers are never created or destroyed afterward.
func New(perClass int) *Pool {
	if perClass <= 0 {
		perClass = DefaultPoolSize
	}
	p := &Pool{}
	for i, class := range sizeClasses {
		ch := make(chan *Buffer, perClass)
		for j := 0; j < perClass; j++ {
			ch <- &Buffer{
				data:  make([]byte, class),
				class: class,
				pool:  p,
			}
		}
		p.classes[i] = ch
	}
	return p
}

// Acquire blocks until a buffer of the smallest class >= size is available,
// and returns it cleared (write cursor at 0, limit at capacity).
//
// Acquire is a contract point: callers invoking it from a connection's read
// or write loop must run on a goroutine that tolerates a bounded wait — the
// call blocks exactly as long as every buffer of that class is on loan.
func (p *Pool) Acquire(size int) (*Buffer, error) {
	idx := classIndex(size)
	if idx < 0 {
		return nil, ErrBufferTooLarge
	}
	buf := <-p.classes[idx]
	buf.reset()
	p.stats[idx].totalAlloc.Add(1)
	return buf, nil
}

// Release returns buf to the class queue matching its capacity. A buffer
// whose capacity does not match any size class, or a nil buffer, is a
// programmer error and panics rather than silently leaking or corrupting
// pool accounting.
func (p *Pool) Release(buf *Buffer) {
	if buf == nil {
		panic("pool: release of nil buffer")
	}
	idx := classIndex(buf.class)
	if idx < 0 || sizeClasses[idx] != buf.class {
		panic("pool: release of buffer with illegal capacity")
	}
	p.stats[idx].totalFree.Add(1)
	p.classes[idx] <- buf
}

// Stats reports allocation/release counters for one size class.
type Stats struct {
	Class      int
	TotalAlloc uint64
	TotalFree  uint64
	InUse      int64
}

// Stats returns a snapshot of acquire/release accounting for every size
// class, smallest first.
func (p *Pool) Stats() []Stats {
	out := make([]Stats, len(sizeClasses))
	for i, class := range sizeClasses {
		alloc := p.stats[i].totalAlloc.Load()
		free := p.stats[i].totalFree.Load()
		out[i] = Stats{
			Class:      class,
			TotalAlloc: alloc,
			TotalFree:  free,
			InUse:      int64(alloc) - int64(free),
		}
	}
	return out
}
