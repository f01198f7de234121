// SPDX-License-Identifier: MIT
package render

import (
	"context"
	"time"

	"waveform/internal/geometry"
	"waveform/internal/log"
	"waveform/internal/transport"
)

// Visualizer is the part of a pipeline the renderers drive.
type Visualizer interface {
	Tick(seconds float32)
	Render() (*geometry.Frame, bool)
	Width() int
	Height() int
}

// Step advances v by one frame and forwards the frame, if any, to sink.
// It reports whether a frame was produced.
func Step(v Visualizer, sink transport.Transport, seconds float32) bool {
	v.Tick(seconds)
	frame, ok := v.Render()
	if !ok {
		return false
	}
	if sink != nil {
		if err := sink.Send(frame); err != nil {
			log.Debugf("Render: Transport error: %v", err)
		}
	}
	return true
}

// RunHeadless steps v at fps until ctx is done.
func RunHeadless(ctx context.Context, v Visualizer, sink transport.Transport, fps int) error {
	if fps <= 0 {
		fps = 60
	}
	period := time.Second / time.Duration(fps)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	log.Infof("Render: Running headless at %d fps", fps)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			Step(v, sink, float32(now.Sub(last).Seconds()))
			last = now
		}
	}
}
