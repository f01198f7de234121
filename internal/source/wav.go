// SPDX-License-Identifier: MIT
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/go-audio/wav"

	"waveform/internal/log"
	"waveform/internal/pipeline"
)

// WAVFile plays a decoded WAV file in real time. The file's channels are
// mapped onto the requested channel count: a mono file is duplicated, extra
// channels are dropped.
type WAVFile struct {
	fanout

	path   string
	loop   bool
	info   pipeline.AudioInfo
	frames int

	samples [][]float32 // planar, normalized to [-1, 1]
	pos     int
	block   [][]float32

	mu      sync.Mutex
	stop    chan struct{}
	running bool
}

// OpenWAV decodes the whole file at path into memory.
func OpenWAV(path string, loop bool, channels, frames int) (*WAVFile, error) {
	if channels < 1 || frames < 1 {
		return nil, errors.New("wav: channels and frames must be positive")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav file: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav file: %w", err)
	}

	fileChannels := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	if fileChannels < 1 || bitDepth == 0 {
		return nil, fmt.Errorf("unsupported WAV format: %d channels, %d bits", fileChannels, bitDepth)
	}

	total := len(buf.Data) / fileChannels
	if total == 0 {
		return nil, fmt.Errorf("wav file has no audio: %s", path)
	}
	scale := 1 / float32(int64(1)<<(bitDepth-1))
	samples := make([][]float32, channels)
	for ch := range samples {
		src := min(ch, fileChannels-1)
		plane := make([]float32, total)
		for i := range plane {
			plane[i] = float32(buf.Data[i*fileChannels+src]) * scale
		}
		samples[ch] = plane
	}

	w := &WAVFile{
		path:    path,
		loop:    loop,
		info:    pipeline.AudioInfo{SampleRate: float64(dec.SampleRate), Channels: channels},
		frames:  frames,
		samples: samples,
		block:   make([][]float32, channels),
	}
	for ch := range w.block {
		w.block[ch] = make([]float32, frames)
	}
	log.Debugf("Source: Loaded %s (%d Hz, %d ch, %d bit, %d frames)", path, dec.SampleRate, fileChannels, bitDepth, total)
	return w, nil
}

func (w *WAVFile) Info() pipeline.AudioInfo { return w.info }

// Len returns the file length in frames.
func (w *WAVFile) Len() int { return len(w.samples[0]) }

// Step delivers the next block. Without looping, the last block is padded
// with zeros and Step reports false once the file is exhausted.
func (w *WAVFile) Step() bool {
	total := w.Len()
	if w.pos >= total {
		if !w.loop {
			return false
		}
		w.pos = 0
	}

	n := 0
	for n < w.frames {
		if w.pos >= total {
			if !w.loop {
				break
			}
			w.pos = 0
		}
		c := min(w.frames-n, total-w.pos)
		for ch, plane := range w.samples {
			copy(w.block[ch][n:n+c], plane[w.pos:w.pos+c])
		}
		n += c
		w.pos += c
	}
	for _, b := range w.block {
		clear(b[n:])
	}
	w.emit(w.block, w.frames, false)
	return true
}

// Start plays the file on a real-time ticker.
func (w *WAVFile) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("wav: already started")
	}
	w.running = true
	w.stop = make(chan struct{})
	go runLoop(ctx, w.stop, blockPeriod(w.frames, w.info.SampleRate), w.Step)
	return nil
}

func (w *WAVFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stop)
		w.running = false
	}
	return nil
}
