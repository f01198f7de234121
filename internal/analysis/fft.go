// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"waveform/internal/log"
	"waveform/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

// DBMin is the silence floor: the decibel value of the smallest positive
// normal float32 magnitude. Zero, negative and non-finite results clamp here.
var DBMin = float32(20 * math.Log10(0x1p-126))

// MinFFTSize is the smallest supported transform length.
const MinFFTSize = 128

// plan holds the state shared by every kernel: the FFT, the window and slope
// tables, and pre-allocated scratch.
type plan struct {
	size   int
	bins   int          // size/2, the number of output bins
	fft    *fourier.FFT // reusable real FFT
	window []float32    // nil for a rectangular window
	slope  []float32    // per-bin decibel offsets
	scale  float64      // magnitude normalization, 2/sum(window)
	input  []float32    // windowed samples
	real   []float64    // FFT input
	coeffs []complex128 // FFT output, size/2 + 1 bins
}

// forward runs the FFT over p.input and reports whether all output bins are zero.
func (p *plan) forward() (silent bool) {
	for i, v := range p.input {
		p.real[i] = float64(v)
	}
	p.fft.Coefficients(p.coeffs, p.real)

	for _, c := range p.coeffs[:p.bins] {
		if c != 0 {
			return false
		}
	}
	return true
}

// Engine converts the most recent window of samples into a decibel spectrum.
// An Engine is not safe for concurrent use.
type Engine struct {
	plan   *plan
	kernel Kernel
	wnd    WindowFunc
}

// EngineOptions configures NewEngine.
type EngineOptions struct {
	Size   int        // FFT length; rounded down to a multiple of 16, minimum MinFFTSize
	Window WindowFunc // analysis window
	Slope  float64    // spectral tilt; 0 disables
	Kernel KernelKind // implementation to run
}

// NewEngine pre-allocates everything a Transform needs so the per-frame path
// performs no allocations.
func NewEngine(opts EngineOptions) *Engine {
	size := AlignFFTSize(opts.Size)
	coeffs, sum := windowCoefficients(opts.Window, size)

	p := &plan{
		size:   size,
		bins:   size / 2,
		fft:    fourier.NewFFT(size),
		window: coeffs,
		slope:  slopeOffsets(size/2, opts.Slope),
		scale:  2 / sum,
		input:  make([]float32, size),
		real:   make([]float64, size),
		coeffs: make([]complex128, size/2+1),
	}

	log.Debugf("Analysis: Initializing Engine (Size: %d, Window: %s, Kernel: %s)", size, opts.Window, opts.Kernel)

	return &Engine{
		plan:   p,
		kernel: newKernel(opts.Kernel, p),
		wnd:    opts.Window,
	}
}

// Size returns the FFT length.
func (e *Engine) Size() int { return e.plan.size }

// Bins returns the number of output values, Size()/2.
func (e *Engine) Bins() int { return e.plan.bins }

// Kernel returns the active kernel kind.
func (e *Engine) Kernel() KernelKind { return e.kernel.Kind() }

// Window returns the configured window function.
func (e *Engine) Window() WindowFunc { return e.wnd }

// Analyze writes Bins() decibel values into dst from the first Size() samples
// of window. Short inputs are zero-padded at the front so the newest sample
// stays last.
func (e *Engine) Analyze(dst, window []float32) (silent bool) {
	size := e.plan.size
	if len(window) >= size {
		return e.kernel.Transform(dst, window[len(window)-size:])
	}
	// Only reached by callers that bypass the capture buffers.
	padded := make([]float32, size)
	copy(padded[size-len(window):], window)
	return e.kernel.Transform(dst, padded)
}

// FrequencyForBin returns the center frequency in Hz of bin i.
func (e *Engine) FrequencyForBin(i int, sampleRate float64) float64 {
	if i < 0 || i > e.plan.bins {
		return 0
	}
	return e.plan.fft.Freq(i) * sampleRate
}

// AlignFFTSize rounds size down to a multiple of 16 with a floor of MinFFTSize.
func AlignFFTSize(size int) int {
	if size < MinFFTSize {
		return MinFFTSize
	}
	return bitint.AlignDown(size, 16)
}

// AutoFFTSize derives the FFT length from the audio and video rates so one
// window spans one video frame.
func AutoFFTSize(sampleRate, fps float64) int {
	if fps <= 0 {
		fps = 60
	}
	return AlignFFTSize(int(sampleRate / fps))
}

// slopeOffsets precomputes the decibel tilt added to each bin. The gain at bin
// i is log10 of a log-interpolated value between 10 and 10000, so a slope of
// zero gives a gain of exactly one (0 dB) everywhere.
func slopeOffsets(bins int, slope float64) []float32 {
	out := make([]float32, bins)
	if slope == 0 || bins < 2 {
		return out
	}
	maxmod := float64(bins - 1)
	for i := range out {
		gain := math.Log10(LogInterp(10, 10000, float64(i)*slope/maxmod))
		out[i] = float32(20 * math.Log10(gain))
	}
	return out
}

// LogInterp interpolates between a and b on a logarithmic scale.
func LogInterp(a, b, t float64) float64 {
	return math.Exp(math.Log(a) + (math.Log(b)-math.Log(a))*t)
}

func clampDB(v float32) float32 {
	if !(v >= DBMin) { // also catches NaN
		return DBMin
	}
	return v
}
