package engine

import (
	"sync"
	"sync/atomic"

	"github.com/go-fastsocket/fastsocket/pool"
)

// pendingWrite is one entry in a connection's write queue: a fully framed
// buffer plus the completion callbacks the encoder registered when it
// called Send.
type pendingWrite struct {
	buf         *pool.Buffer
	onComplete  func()
	onException func(error)
}

var pendingWritePool = &PendingWritePool{}

// PendingWritePool recycles pendingWrite entries the same way the teacher's
// carlolib recycles its own, tracking new-acquire / reuse / put-back counts
// for diagnostics.
type PendingWritePool struct {
	sp sync.Pool
	na uint64
	nr uint64
	np uint64
}

func (p *PendingWritePool) acquire(buf *pool.Buffer, onComplete func(), onException func(error)) *pendingWrite {
	v := p.sp.Get()
	if v == nil {
		v = &pendingWrite{}
		atomic.AddUint64(&p.na, 1)
	} else {
		atomic.AddUint64(&p.nr, 1)
	}
	pw := v.(*pendingWrite)
	pw.buf = buf
	pw.onComplete = onComplete
	pw.onException = onException
	return pw
}

func (p *PendingWritePool) release(pw *pendingWrite) {
	pw.buf = nil
	pw.onComplete = nil
	pw.onException = nil
	p.sp.Put(pw)
	atomic.AddUint64(&p.np, 1)
}

func (p *PendingWritePool) metrics() (na, nr, np uint64) {
	return atomic.LoadUint64(&p.na), atomic.LoadUint64(&p.nr), atomic.LoadUint64(&p.np)
}
