// SPDX-License-Identifier: MIT

/*
Package source provides the named audio producers a pipeline follows.

Every source delivers planar float32 blocks to its subscribers. Delivery
happens on the source's own goroutine (or the PortAudio callback thread), so
subscribers must be quick and must not block on the source itself.
Detaching waits for any in-flight delivery to that subscriber to finish.
*/
package source

import (
	"context"
	"sync"
	"time"

	"waveform/internal/pipeline"
)

// Source is a named audio producer.
type Source interface {
	pipeline.Source
	// Info describes the blocks the source delivers.
	Info() pipeline.AudioInfo
	// Start begins delivery. It returns once the source is running; delivery
	// stops when ctx is done or Close is called.
	Start(ctx context.Context) error
	Close() error
	// Gate returns the noise gate applied before delivery.
	Gate() *Gate
}

// blockPeriod is the real-time duration of frames samples at rate.
func blockPeriod(frames int, rate float64) time.Duration {
	return time.Duration(float64(frames) / rate * float64(time.Second))
}

// fanout delivers blocks to a changing set of subscribers.
type fanout struct {
	mu   sync.RWMutex
	subs map[uint64]pipeline.CaptureFunc
	next uint64

	gate Gate
}

func (f *fanout) Gate() *Gate { return &f.gate }

func (f *fanout) AddCaptureCallback(fn pipeline.CaptureFunc) (detach func()) {
	f.mu.Lock()
	if f.subs == nil {
		f.subs = make(map[uint64]pipeline.CaptureFunc)
	}
	id := f.next
	f.next++
	f.subs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}
}

func (f *fanout) emit(data [][]float32, frames int, muted bool) {
	muted = muted || f.gate.closed(data, frames)
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, fn := range f.subs {
		fn(data, frames, muted)
	}
}

func (f *fanout) subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// runLoop calls step every period until ctx is done, stop is closed or step
// reports there is nothing left to deliver.
func runLoop(ctx context.Context, stop <-chan struct{}, period time.Duration, step func() bool) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-t.C:
			if !step() {
				return
			}
		}
	}
}
