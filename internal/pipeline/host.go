// SPDX-License-Identifier: MIT
package pipeline

// AudioInfo describes the host mixer.
type AudioInfo struct {
	SampleRate float64
	Channels   int // 0 when the layout is unknown
}

// CaptureFunc receives planar float32 audio: data[ch][:frames]. When muted is
// set the samples must be treated as silence.
type CaptureFunc func(data [][]float32, frames int, muted bool)

// Source is a named audio producer a pipeline can follow.
type Source interface {
	// AddCaptureCallback registers fn and returns a function that removes it.
	// After detach returns, fn is not called again.
	AddCaptureCallback(fn CaptureFunc) (detach func())
}

// Host provides the environment a pipeline runs in.
type Host interface {
	AudioInfo() AudioInfo
	// VideoFPS returns the frame rate, or 0 if unknown.
	VideoFPS() float64
	LookupSource(name string) (Source, bool)
}
