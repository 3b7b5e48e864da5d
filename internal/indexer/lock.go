package indexer

import "sync/atomic"

// IndexLock lets a second IndexProject call on the same Indexer fail fast
// instead of queueing behind a long-running scan. The zero value is
// unlocked.
type IndexLock struct {
	held atomic.Bool
}

// TryAcquire reports whether the caller now holds the lock. It never
// blocks.
func (l *IndexLock) TryAcquire() bool {
	return l.held.CompareAndSwap(false, true)
}

// Release frees the lock for the next run. Only the holder may call it.
func (l *IndexLock) Release() {
	l.held.Store(false)
}
