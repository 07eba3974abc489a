package engine

import (
	"sync"
	"time"
)

// timerPool recycles *time.Timer instances across the keep-alive watchdogs
// of every connection, avoiding one allocation per connection per
// keep-alive cycle.
var timerPool = newTimerPool()

type TimerPool struct {
	sp sync.Pool
}

func newTimerPool() *TimerPool {
	return &TimerPool{sp: sync.Pool{}}
}

func (p *TimerPool) acquire(timeout time.Duration) *time.Timer {
	v := p.sp.Get()
	if v == nil {
		return time.NewTimer(timeout)
	}
	t := v.(*time.Timer)
	t.Reset(timeout)
	return t
}

// release stops t, draining any already-fired tick before returning it to
// the pool so the next acquirer never observes a stale fire.
func (p *TimerPool) release(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	p.sp.Put(t)
}
