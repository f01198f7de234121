// SPDX-License-Identifier: MIT
package source

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"waveform/internal/log"
)

// Recorder writes captured blocks to a PCM WAV file. Capture has the
// pipeline.CaptureFunc signature so a recorder can subscribe to any source.
type Recorder struct {
	sampleRate int
	channels   int
	bitDepth   int

	isRecording atomic.Bool // fast path check for Capture

	mu         sync.Mutex
	outputFile *os.File
	wavEncoder *wav.Encoder
	sampleBuf  *audio.IntBuffer // reusable interleaved buffer
	written    int
}

// NewRecorder creates an idle recorder. bitDepth must be 16 or 24.
func NewRecorder(sampleRate float64, channels, bitDepth int) (*Recorder, error) {
	if bitDepth != 16 && bitDepth != 24 {
		return nil, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}
	if channels < 1 || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid recording format: %.0f Hz, %d channels", sampleRate, channels)
	}
	return &Recorder{
		sampleRate: int(sampleRate),
		channels:   channels,
		bitDepth:   bitDepth,
	}, nil
}

// RecordingPath returns a timestamped file name inside dir.
func RecordingPath(dir string, now time.Time) string {
	return filepath.Join(dir, "recording-"+now.Format("20060102-150405")+".wav")
}

// Start creates filename (and its directory) and begins recording.
func (r *Recorder) Start(filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isRecording.Load() {
		return fmt.Errorf("already recording")
	}

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("failed to create recording directory: %w", err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	r.outputFile = file
	r.wavEncoder = wav.NewEncoder(file, r.sampleRate, r.bitDepth, r.channels, 1)
	r.sampleBuf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: r.channels,
			SampleRate:  r.sampleRate,
		},
		SourceBitDepth: r.bitDepth,
	}
	r.written = 0
	r.isRecording.Store(true)
	return nil
}

// Stop finalizes the file. Stopping an idle recorder is a no-op.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.isRecording.Load() {
		return nil
	}
	r.isRecording.Store(false)

	var encErr error
	if r.wavEncoder != nil {
		encErr = r.wavEncoder.Close()
		r.wavEncoder = nil
	}
	var fileErr error
	if r.outputFile != nil {
		fileErr = r.outputFile.Close()
		r.outputFile = nil
	}
	if encErr != nil {
		return encErr
	}
	return fileErr
}

// Recording reports whether a file is open.
func (r *Recorder) Recording() bool { return r.isRecording.Load() }

// Frames returns the number of frames written to the current or last file.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.written
}

// Capture appends a planar block. Missing channels are written as silence,
// as are muted blocks. Samples are clipped to [-1, 1].
func (r *Recorder) Capture(data [][]float32, frames int, muted bool) {
	if !r.isRecording.Load() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wavEncoder == nil {
		return
	}

	n := frames * r.channels
	if cap(r.sampleBuf.Data) < n {
		r.sampleBuf.Data = make([]int, n)
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:n]

	full := float32(int(1)<<(r.bitDepth-1) - 1)
	for ch := range r.channels {
		var plane []float32
		if !muted && ch < len(data) {
			plane = data[ch]
		}
		for i := range frames {
			var v float32
			if i < len(plane) {
				v = max(-1, min(1, plane[i]))
			}
			r.sampleBuf.Data[i*r.channels+ch] = int(math.Round(float64(v * full)))
		}
	}

	if err := r.wavEncoder.Write(r.sampleBuf); err != nil {
		log.Warnf("Recorder: Error writing to WAV file: %v", err)
		return
	}
	r.written += frames
}
