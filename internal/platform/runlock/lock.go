// Package runlock provides a non-blocking mutual exclusion guard for
// scheduled jobs, so a run that overruns its interval is skipped rather
// than stacked.
package runlock

import "sync/atomic"

type Lock struct {
	held atomic.Bool
}

// TryAcquire reports whether the caller obtained the lock. It never blocks.
func (l *Lock) TryAcquire() bool {
	return l.held.CompareAndSwap(false, true)
}

// Release frees the lock. Releasing an unheld lock is a no-op.
func (l *Lock) Release() {
	l.held.Store(false)
}

// Held reports the current state without changing it.
func (l *Lock) Held() bool {
	return l.held.Load()
}
