// Package metrics periodically samples the new-acquire/reuse/put-back
// counters of the engine's recycled-object pools, following the same
// swap-and-accumulate ticker pattern the reference streaming transmit
// layer uses for its own pool instrumentation.
package metrics

import (
	"fmt"
	"sync/atomic"
	"time"
)

// DefaultTickerDuration is how often accumulated counters are rolled up
// when Start is called without an explicit interval.
var DefaultTickerDuration = 1 * time.Second

// Source reports one pool's raw acquire/reuse/put-back counts since the
// source was created. PoolMetrics diffs successive samples so the
// per-tick counters reflect activity in that tick only.
type Source func() (na, nr, np uint64)

// PoolMetrics accumulates na/nr/np activity for one named pool on a
// ticker, the same na+nr==total-acquires / na+nr-np==still-running
// accounting the reference pools use.
type PoolMetrics struct {
	name   string
	source Source

	prevNA, prevNR, prevNP uint64

	na, nr, np    atomic.Uint64 // this tick
	naa, nra, npa atomic.Uint64 // accumulative

	done chan struct{}
}

// New constructs a PoolMetrics that samples source under the given name.
func New(name string, source Source) *PoolMetrics {
	return &PoolMetrics{name: name, source: source, done: make(chan struct{})}
}

// Start begins sampling source every interval (DefaultTickerDuration if
// interval <= 0) until Release is called.
func (p *PoolMetrics) Start(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultTickerDuration
	}
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		defer close(p.done)
		for {
			select {
			case <-ticker.C:
				p.sample()
			case <-p.done:
				p.sample()
				return
			}
		}
	}()
}

// Release stops sampling. It must only be called once.
func (p *PoolMetrics) Release() {
	p.done <- struct{}{}
}

func (p *PoolMetrics) sample() {
	na, nr, np := p.source()
	dna, dnr, dnp := na-p.prevNA, nr-p.prevNR, np-p.prevNP
	p.prevNA, p.prevNR, p.prevNP = na, nr, np

	p.na.Store(dna)
	p.nr.Store(dnr)
	p.np.Store(dnp)
	p.naa.Add(dna)
	p.nra.Add(dnr)
	p.npa.Add(dnp)
}

// String reports "[ na|nr|np, naa|nra|npa ]" for the most recent tick and
// the running accumulation, matching the reference format.
func (p *PoolMetrics) String() string {
	return fmt.Sprintf("%s [ %d|%d|%d, %d|%d|%d ]", p.name,
		p.na.Load(), p.nr.Load(), p.np.Load(),
		p.naa.Load(), p.nra.Load(), p.npa.Load())
}

// Registry owns every PoolMetrics a process starts so the caller can
// report and release them together.
type Registry struct {
	metrics []*PoolMetrics
}

func NewRegistry() *Registry { return &Registry{} }

// Track registers a new PoolMetrics sampling source under name and starts
// it immediately.
func (r *Registry) Track(name string, source Source, interval time.Duration) *PoolMetrics {
	pm := New(name, source)
	pm.Start(interval)
	r.metrics = append(r.metrics, pm)
	return pm
}

// Snapshot returns the current String() of every tracked PoolMetrics.
func (r *Registry) Snapshot() []string {
	out := make([]string, len(r.metrics))
	for i, pm := range r.metrics {
		out[i] = pm.String()
	}
	return out
}

// ReleaseAll stops every tracked PoolMetrics.
func (r *Registry) ReleaseAll() {
	for _, pm := range r.metrics {
		pm.Release()
	}
}
