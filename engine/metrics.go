package engine

// PendingWriteMetrics exposes the pendingWrite pool's acquire/reuse/put-back
// counters to the metrics package, without exporting the pool itself.
func PendingWriteMetrics() (na, nr, np uint64) { return pendingWritePool.metrics() }

// ContextMetrics exposes the receive-Context pool's counters to the
// metrics package.
func ContextMetrics() (na, nr, np uint64) { return contextPool.metrics() }
