// SPDX-License-Identifier: MIT
package pipeline

import "waveform/internal/ringbuf"

// captureBuffers holds the recent samples of each captured channel. Each
// channel retains at most two FFT windows; the oldest samples go first.
type captureBuffers struct {
	queues  []*ringbuf.Queue[float32]
	fftSize int
}

func newCaptureBuffers(channels, fftSize int) *captureBuffers {
	b := &captureBuffers{
		queues:  make([]*ringbuf.Queue[float32], channels),
		fftSize: fftSize,
	}
	for i := range b.queues {
		b.queues[i] = ringbuf.New[float32](2 * fftSize)
	}
	return b
}

func (b *captureBuffers) channels() int { return len(b.queues) }

// push appends frames samples to channel ch, or frames zeros when muted.
func (b *captureBuffers) push(ch int, samples []float32, frames int, muted bool) {
	q := b.queues[ch]
	if muted {
		q.PushZero(frames)
		return
	}
	q.Push(samples[:min(frames, len(samples))])
}

// reset empties every channel and pads it with one window of zeros so a full
// window is always available.
func (b *captureBuffers) reset() {
	for _, q := range b.queues {
		q.Reset()
		q.PushZero(b.fftSize)
	}
}

// window copies the newest len(dst) samples of channel ch into dst.
func (b *captureBuffers) window(ch int, dst []float32) {
	b.queues[ch].Tail(dst)
}

// fill returns the number of samples buffered on channel ch.
func (b *captureBuffers) fill(ch int) int {
	return b.queues[ch].Len()
}
