// SPDX-License-Identifier: MIT
package source

import (
	"context"
	"errors"
	"math"
	"sync"

	"waveform/internal/pipeline"
)

// Tone synthesizes a sum of sines, identical on every channel. It is the
// demo source and a deterministic signal for tests.
type Tone struct {
	fanout

	freqs     []float64
	amplitude float32
	info      pipeline.AudioInfo
	frames    int

	phase []float64 // per frequency, radians
	block [][]float32

	mu      sync.Mutex
	stop    chan struct{}
	running bool
}

// NewTone creates a tone source. Each frequency contributes amplitude, so the
// peak level is len(freqs)*amplitude.
func NewTone(freqs []float64, amplitude float64, sampleRate float64, channels, frames int) (*Tone, error) {
	if sampleRate <= 0 {
		return nil, errors.New("tone: sample rate must be positive")
	}
	if channels < 1 || frames < 1 {
		return nil, errors.New("tone: channels and frames must be positive")
	}
	for _, f := range freqs {
		if f <= 0 || f >= sampleRate/2 {
			return nil, errors.New("tone: frequencies must lie between 0 and Nyquist")
		}
	}

	t := &Tone{
		freqs:     append([]float64(nil), freqs...),
		amplitude: float32(amplitude),
		info:      pipeline.AudioInfo{SampleRate: sampleRate, Channels: channels},
		frames:    frames,
		phase:     make([]float64, len(freqs)),
		block:     make([][]float32, channels),
	}
	for ch := range t.block {
		t.block[ch] = make([]float32, frames)
	}
	return t, nil
}

func (t *Tone) Info() pipeline.AudioInfo { return t.info }

// Step synthesizes one block and delivers it. Phase carries over between
// blocks.
func (t *Tone) Step() bool {
	out := t.block[0]
	clear(out)
	for k, f := range t.freqs {
		inc := 2 * math.Pi * f / t.info.SampleRate
		ph := t.phase[k]
		for i := range out {
			out[i] += t.amplitude * float32(math.Sin(ph))
			ph += inc
		}
		t.phase[k] = math.Mod(ph, 2*math.Pi)
	}
	for _, dup := range t.block[1:] {
		copy(dup, out)
	}
	t.emit(t.block, t.frames, false)
	return true
}

// Start runs Step on a real-time ticker.
func (t *Tone) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return errors.New("tone: already started")
	}
	t.running = true
	t.stop = make(chan struct{})
	go runLoop(ctx, t.stop, blockPeriod(t.frames, t.info.SampleRate), t.Step)
	return nil
}

func (t *Tone) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		close(t.stop)
		t.running = false
	}
	return nil
}
