// SPDX-License-Identifier: MIT

/*
Package pipeline ties capture, analysis and geometry together for one visual
source.

Three kinds of caller touch a Pipeline concurrently: the audio thread through
CaptureAudio, the video thread through Tick and Render, and the control plane
through Update, Show, Hide and Close. All mutable state sits behind a single
mutex. The audio path waits at most CaptureTimeout for it and otherwise drops
the buffer; every other path blocks.
*/
package pipeline

import (
	"time"

	"waveform/internal/analysis"
	"waveform/internal/axis"
	"waveform/internal/config"
	"waveform/internal/cpuinfo"
	"waveform/internal/filter"
	"waveform/internal/geometry"
	"waveform/internal/log"
)

const (
	// CaptureTimeout bounds how long the audio thread waits for the lock.
	CaptureTimeout = 10 * time.Millisecond

	// DefaultRetryInterval is how often a missing source is looked up again.
	DefaultRetryInterval = 2 * time.Second

	defaultFPS = 60
)

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithCaps overrides the detected CPU capabilities used to pick kernels.
func WithCaps(caps cpuinfo.Caps) Option {
	return func(p *Pipeline) { p.caps = caps }
}

// WithKernel forces a specific spectral kernel.
func WithKernel(kind analysis.KernelKind) Option {
	return func(p *Pipeline) {
		p.kernel = kind
		p.forceKernel = true
	}
}

// WithRetryInterval sets how often a missing source is looked up again.
func WithRetryInterval(d time.Duration) Option {
	return func(p *Pipeline) { p.retryInterval = float32(d.Seconds()) }
}

// Pipeline turns captured audio into per-frame geometry.
type Pipeline struct {
	mu            timedMutex
	host          Host
	caps          cpuinfo.Caps
	kernel        analysis.KernelKind
	forceKernel   bool
	retryInterval float32

	settings        config.Settings
	modes           config.Modes
	info            AudioInfo
	fps             float64
	captureChannels int
	outputChannels  int

	buffers   *captureBuffers
	engine    *analysis.Engine
	smoothers []*analysis.Smoother
	samples   []float32 // one FFT window
	mixR      []float32 // second channel for mono mixdown
	spectrum  []float32 // raw analysis output

	resampler   axis.Resampler
	bars        bool
	interp      [][]float32
	filtered    [][]float32
	kernelGauss filter.Kernel
	applyFilter filter.ApplyFunc
	builder     *geometry.Builder

	source     Source
	detach     func()
	retries    int
	nextRetry  float32
	show       bool
	lastSilent bool
	closed     bool
}

// New creates a pipeline and applies settings.
func New(host Host, settings config.Settings, opts ...Option) *Pipeline {
	p := &Pipeline{
		mu:            newTimedMutex(),
		host:          host,
		caps:          cpuinfo.Detect(),
		retryInterval: float32(DefaultRetryInterval.Seconds()),
	}
	for _, opt := range opts {
		opt(p)
	}
	if !p.forceKernel {
		p.kernel = analysis.SelectKernel(p.caps)
	}
	log.Infof("Pipeline: Using CPU capabilities:%s (kernel: %s)", p.caps, p.kernel)

	p.Update(settings)
	return p
}

// Update replaces the configuration and rebuilds all derived state.
func (p *Pipeline) Update(settings config.Settings) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.releaseCapture()
	p.freeAnalysis()

	s := settings.Normalize()
	modes, err := s.Modes()
	if err != nil {
		log.Warnf("Pipeline: %v", err)
	}
	p.settings = s
	p.modes = modes

	p.info = p.host.AudioInfo()
	p.captureChannels = min(p.info.Channels, 2)
	if p.captureChannels <= 0 {
		p.captureChannels = 0
		log.Warnf("Pipeline: Could not determine audio channel count")
	}

	p.fps = p.host.VideoFPS()
	if p.fps <= 0 {
		p.fps = defaultFPS
	}
	fftSize := s.FFTSize
	if s.AutoFFTSize {
		fftSize = analysis.AutoFFTSize(p.info.SampleRate, p.fps)
	}

	p.outputChannels = s.Channels()
	p.engine = analysis.NewEngine(analysis.EngineOptions{
		Size:   fftSize,
		Window: modes.Window,
		Slope:  s.Slope,
		Kernel: p.kernel,
	})
	fftSize = p.engine.Size()
	p.settings.FFTSize = fftSize

	p.smoothers = make([]*analysis.Smoother, p.outputChannels)
	for i := range p.smoothers {
		p.smoothers[i] = analysis.NewSmoother(modes.Smoothing, p.engine.Bins(), float32(s.Gravity), s.FastPeaks, int(p.fps+0.5))
	}
	p.samples = make([]float32, fftSize)
	p.mixR = make([]float32, fftSize)
	p.spectrum = make([]float32, p.engine.Bins())

	p.lastSilent = false
	p.show = true
	p.retries = 0
	p.nextRetry = p.retryInterval

	p.buffers = newCaptureBuffers(p.captureChannels, fftSize)
	p.acquireSource()
	p.buffers.reset()

	p.bars = modes.Display != geometry.Curve
	points := s.Width
	if p.bars {
		points = axis.BarCount(s.Width, s.BarWidth, s.BarGap) + 1
	}
	p.resampler = axis.Resampler{
		Indices: axis.BuildIndexTable(points, float64(s.CutoffLow), float64(s.CutoffHigh), p.info.SampleRate, fftSize, s.LogScale),
		Mode:    modes.Interpolation,
	}
	outputs := p.resampler.Outputs(p.bars)
	p.interp = make([][]float32, p.outputChannels)
	p.filtered = make([][]float32, p.outputChannels)
	for i := range p.interp {
		p.interp[i] = make([]float32, outputs)
		p.filtered[i] = make([]float32, outputs)
	}

	if modes.Filter == filter.Gauss {
		p.kernelGauss = filter.GaussianKernel(s.FilterRadius)
	} else {
		p.kernelGauss = filter.GaussianKernel(0)
	}
	p.applyFilter = filter.Select(p.caps)

	p.builder = geometry.NewBuilder(geometry.Params{
		Width:      s.Width,
		Height:     s.Height,
		Stereo:     s.Stereo,
		Floor:      float32(s.Floor),
		Ceiling:    float32(s.Ceiling),
		Display:    modes.Display,
		Render:     modes.Render,
		BarWidth:   s.BarWidth,
		BarGap:     s.BarGap,
		StepWidth:  s.StepWidth,
		StepGap:    s.StepGap,
		GradRatio:  float32(s.GradientRatio),
		ColorBase:  geometry.ColorFromARGB(s.ColorBase),
		ColorCrest: geometry.ColorFromARGB(s.ColorCrest),
	})
	p.closed = false

	log.Infof("Pipeline: Initialized (Source: %s, %.0f Hz, %d capture ch, FFT: %d, Window: %s, Kernel: %s, Resolution: %.2f Hz, Display: %s, %dx%d)",
		s.Source, p.info.SampleRate, p.captureChannels, fftSize, p.engine.Window(), p.engine.Kernel(),
		p.engine.FrequencyForBin(1, p.info.SampleRate), modes.Display, s.Width, s.Height)
}

// CaptureAudio appends a block of planar audio. It waits at most
// CaptureTimeout for the lock and drops the block otherwise.
func (p *Pipeline) CaptureAudio(data [][]float32, frames int, muted bool) {
	if !p.mu.TryLockFor(CaptureTimeout) {
		return
	}
	defer p.mu.Unlock()

	if p.source == nil || p.buffers == nil {
		return
	}
	n := min(p.buffers.channels(), len(data))
	for ch := range n {
		p.buffers.push(ch, data[ch], frames, muted)
	}
}

// Tick advances one video frame of seconds duration: it retries a missing
// source and, while shown, analyzes the newest window of every channel.
func (p *Pipeline) Tick(seconds float32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.engine == nil {
		return
	}

	if p.source == nil && p.settings.Source != config.NoSource {
		p.nextRetry -= seconds
		if p.nextRetry <= 0 {
			p.nextRetry = p.retryInterval
			if p.acquireSource() {
				p.buffers.reset()
			}
		}
	}

	if !p.show {
		return
	}

	if p.captureChannels == 0 {
		p.lastSilent = true
		return
	}

	silent := true
	for ch := range p.outputChannels {
		p.loadWindow(ch)
		if !p.engine.Analyze(p.spectrum, p.samples) {
			silent = false
		}
		p.smoothers[ch].Apply(p.spectrum)
	}
	p.lastSilent = silent
}

// loadWindow fills p.samples with the analysis input for output channel ch.
func (p *Pipeline) loadWindow(ch int) {
	if p.outputChannels == 1 && p.captureChannels == 2 {
		p.buffers.window(0, p.samples)
		p.buffers.window(1, p.mixR)
		for i, r := range p.mixR {
			p.samples[i] = (p.samples[i] + r) * 0.5
		}
		return
	}
	// Stereo output from a mono capture duplicates the only channel.
	p.buffers.window(min(ch, p.captureChannels-1), p.samples)
}

// Render builds the geometry for the current spectra. It reports false, with
// no frame, while the last analyzed window was silent.
func (p *Pipeline) Render() (*geometry.Frame, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.engine == nil || p.lastSilent {
		return nil, false
	}

	for ch := range p.outputChannels {
		spectrum := p.smoothers[ch].State()
		if p.bars {
			p.resampler.Bars(p.interp[ch], spectrum)
		} else {
			p.resampler.Curve(p.interp[ch], spectrum)
		}
		if !p.kernelGauss.Identity() {
			p.applyFilter(p.filtered[ch], p.interp[ch], p.kernelGauss)
			p.interp[ch], p.filtered[ch] = p.filtered[ch], p.interp[ch]
		}
	}
	return p.builder.Build(p.interp), true
}

// MagnitudesInto copies the smoothed decibel spectrum of channel ch into dst
// and returns the number of values copied.
func (p *Pipeline) MagnitudesInto(ch int, dst []float32) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.engine == nil || ch < 0 || ch >= len(p.smoothers) {
		return 0
	}
	return copy(dst, p.smoothers[ch].State())
}

// Width returns the configured output width in pixels.
func (p *Pipeline) Width() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings.Width
}

// Height returns the configured output height in pixels.
func (p *Pipeline) Height() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings.Height
}

// FFTSize returns the transform length in use.
func (p *Pipeline) FFTSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings.FFTSize
}

// SampleRate returns the host sample rate captured at the last Update.
func (p *Pipeline) SampleRate() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info.SampleRate
}

// Settings returns the normalized settings in effect.
func (p *Pipeline) Settings() config.Settings {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.settings
}

// Show resumes analysis on Tick.
func (p *Pipeline) Show() {
	p.mu.Lock()
	p.show = true
	p.mu.Unlock()
}

// Hide pauses analysis on Tick. Source retries continue.
func (p *Pipeline) Hide() {
	p.mu.Lock()
	p.show = false
	p.mu.Unlock()
}

// Close detaches from the source and releases all buffers. A closed pipeline
// ignores captures and renders nothing until Update is called again.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.releaseCapture()
	p.freeAnalysis()
	p.buffers = nil
	p.closed = true
	return nil
}

// acquireSource attaches to the configured source. The first failure is
// logged; later ones are silent until the next Update.
func (p *Pipeline) acquireSource() bool {
	name := p.settings.Source
	if name == config.NoSource {
		return false
	}
	src, ok := p.host.LookupSource(name)
	if !ok {
		if p.retries == 0 {
			log.Warnf("Pipeline: Failed to get audio source: \"%s\"", name)
		}
		p.retries++
		return false
	}
	p.source = src
	p.detach = src.AddCaptureCallback(p.CaptureAudio)
	log.Debugf("Pipeline: Attached to audio source \"%s\"", name)
	return true
}

func (p *Pipeline) releaseCapture() {
	if p.detach != nil {
		p.detach()
	}
	p.detach = nil
	p.source = nil
	if p.buffers != nil {
		for _, q := range p.buffers.queues {
			q.Reset()
		}
	}
}

func (p *Pipeline) freeAnalysis() {
	p.engine = nil
	p.smoothers = nil
	p.samples = nil
	p.mixR = nil
	p.spectrum = nil
	p.interp = nil
	p.filtered = nil
	p.builder = nil
}
