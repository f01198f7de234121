// SPDX-License-Identifier: MIT
package pipeline

import "time"

// timedMutex is a mutex whose acquisition can give up after a deadline. It is
// not reentrant: locking twice from the same goroutine deadlocks.
type timedMutex struct {
	ch chan struct{}
}

func newTimedMutex() timedMutex {
	return timedMutex{ch: make(chan struct{}, 1)}
}

// Lock blocks until the mutex is held.
func (m timedMutex) Lock() {
	m.ch <- struct{}{}
}

// TryLockFor waits at most d for the mutex and reports whether it was acquired.
func (m timedMutex) TryLockFor(d time.Duration) bool {
	select {
	case m.ch <- struct{}{}:
		return true
	default:
	}
	if d <= 0 {
		return false
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case m.ch <- struct{}{}:
		return true
	case <-t.C:
		return false
	}
}

// Unlock releases the mutex. Unlocking an unlocked mutex panics.
func (m timedMutex) Unlock() {
	select {
	case <-m.ch:
	default:
		panic("pipeline: unlock of unlocked mutex")
	}
}
