// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"

	"waveform/internal/analysis"
	"waveform/internal/axis"
	"waveform/internal/filter"
	"waveform/internal/geometry"
)

// NoSource is the source name meaning "not attached to any audio".
const NoSource = "none"

// Visual defaults.
const (
	DefaultWidth         = 800
	DefaultHeight        = 225
	DefaultFFTSize       = 2048
	DefaultCutoffLow     = 30
	DefaultCutoffHigh    = 17500
	DefaultFloor         = -65
	DefaultCeiling       = 0
	DefaultGravity       = 0.65
	DefaultFilterRadius  = 1.5
	DefaultGradientRatio = 0.75
	DefaultBarWidth      = 24
	DefaultBarGap        = 6
	DefaultStepWidth     = 8
	DefaultStepGap       = 4
	DefaultColor         = 0xffffffff

	// Fallbacks when a configured range is empty.
	fallbackCutoffLow  = 30
	fallbackCutoffHigh = 17500
	fallbackFloor      = -120
	fallbackCeiling    = 0
)

// Settings is one visualizer's configuration. Replacing it rebuilds the
// whole pipeline.
type Settings struct {
	Source        string  `yaml:"source"`         // Name of the audio source to follow, or "none".
	Width         int     `yaml:"width"`          // Output width in pixels.
	Height        int     `yaml:"height"`         // Output height in pixels.
	LogScale      bool    `yaml:"log_scale"`      // Logarithmic frequency axis.
	Stereo        bool    `yaml:"stereo"`         // Draw two mirrored channels.
	FFTSize       int     `yaml:"fft_size"`       // Transform length; aligned down to a multiple of 16.
	AutoFFTSize   bool    `yaml:"auto_fft_size"`  // Derive the FFT length from sample rate and frame rate.
	Window        string  `yaml:"window"`         // none, hann, hamming, blackman, blackman_harris.
	Interpolation string  `yaml:"interpolation"`  // point or lanczos.
	Filter        string  `yaml:"filter"`         // none or gauss.
	FilterRadius  float64 `yaml:"filter_radius"`  // Gaussian radius in output positions.
	Smoothing     string  `yaml:"smoothing"`      // none, exponential or spring.
	Gravity       float64 `yaml:"gravity"`        // Decay retention per frame, 0..1.
	FastPeaks     bool    `yaml:"fast_peaks"`     // Rising values snap instead of easing.
	CutoffLow     int     `yaml:"cutoff_low"`     // Lowest displayed frequency in Hz.
	CutoffHigh    int     `yaml:"cutoff_high"`    // Highest displayed frequency in Hz.
	Floor         int     `yaml:"floor"`          // dB drawn at the baseline.
	Ceiling       int     `yaml:"ceiling"`        // dB drawn at the top line.
	Slope         float64 `yaml:"slope"`          // Spectral tilt, 0 disables.
	RenderMode    string  `yaml:"render_mode"`    // line, solid or gradient.
	ColorBase     uint32  `yaml:"color_base"`     // 0xAARRGGBB.
	ColorCrest    uint32  `yaml:"color_crest"`    // 0xAARRGGBB.
	GradientRatio float64 `yaml:"gradient_ratio"` // Fraction of the peak height the gradient spans.
	Display       string  `yaml:"display"`        // curve, bars or stepped_bars.
	BarWidth      int     `yaml:"bar_width"`
	BarGap        int     `yaml:"bar_gap"`
	StepWidth     int     `yaml:"step_width"`
	StepGap       int     `yaml:"step_gap"`
}

// DefaultSettings returns the built-in visualizer configuration.
func DefaultSettings() Settings {
	return Settings{
		Source:        NoSource,
		Width:         DefaultWidth,
		Height:        DefaultHeight,
		LogScale:      true,
		Stereo:        false,
		FFTSize:       DefaultFFTSize,
		AutoFFTSize:   false,
		Window:        analysis.Hann.String(),
		Interpolation: axis.Lanczos.String(),
		Filter:        filter.None.String(),
		FilterRadius:  DefaultFilterRadius,
		Smoothing:     analysis.SmoothExponential.String(),
		Gravity:       DefaultGravity,
		FastPeaks:     false,
		CutoffLow:     DefaultCutoffLow,
		CutoffHigh:    DefaultCutoffHigh,
		Floor:         DefaultFloor,
		Ceiling:       DefaultCeiling,
		Slope:         0,
		RenderMode:    geometry.Solid.String(),
		ColorBase:     DefaultColor,
		ColorCrest:    DefaultColor,
		GradientRatio: DefaultGradientRatio,
		Display:       geometry.Curve.String(),
		BarWidth:      DefaultBarWidth,
		BarGap:        DefaultBarGap,
		StepWidth:     DefaultStepWidth,
		StepGap:       DefaultStepGap,
	}
}

// Normalize returns a copy with degenerate values replaced: FFT size aligned,
// empty frequency and level ranges reset to their fallbacks, sizes clamped.
func (s Settings) Normalize() Settings {
	if s.Source == "" {
		s.Source = NoSource
	}
	s.Width = max(s.Width, 1)
	s.Height = max(s.Height, 1)
	s.FFTSize = analysis.AlignFFTSize(s.FFTSize)

	if s.CutoffHigh-s.CutoffLow < 1 {
		s.CutoffLow, s.CutoffHigh = fallbackCutoffLow, fallbackCutoffHigh
	}
	if s.Ceiling-s.Floor < 1 {
		s.Floor, s.Ceiling = fallbackFloor, fallbackCeiling
	}

	s.Gravity = min(max(s.Gravity, 0), 1)
	s.FilterRadius = max(s.FilterRadius, 0)
	s.GradientRatio = max(s.GradientRatio, 0)
	s.BarWidth = max(s.BarWidth, 1)
	s.BarGap = max(s.BarGap, 0)
	s.StepWidth = max(s.StepWidth, 1)
	s.StepGap = max(s.StepGap, 0)
	return s
}

// Modes are the enumerated settings in parsed form.
type Modes struct {
	Window        analysis.WindowFunc
	Interpolation axis.Interpolation
	Filter        filter.Mode
	Smoothing     analysis.SmoothingMode
	Render        geometry.RenderMode
	Display       geometry.DisplayMode
}

// Modes parses the enumerated settings. Unknown names resolve to their
// defaults; the returned error lists every name that was not recognized.
func (s Settings) Modes() (Modes, error) {
	var m Modes
	var errs []error
	var err error

	if m.Window, err = analysis.ParseWindowFunc(s.Window); err != nil {
		errs = append(errs, err)
	}
	if m.Interpolation, err = axis.ParseInterpolation(s.Interpolation); err != nil {
		errs = append(errs, err)
	}
	if m.Filter, err = filter.ParseMode(s.Filter); err != nil {
		errs = append(errs, err)
	}
	if m.Smoothing, err = analysis.ParseSmoothingMode(s.Smoothing); err != nil {
		errs = append(errs, err)
	}
	if m.Render, err = geometry.ParseRenderMode(s.RenderMode); err != nil {
		errs = append(errs, err)
	}
	if m.Display, err = geometry.ParseDisplayMode(s.Display); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return m, fmt.Errorf("visual settings: %w", errors.Join(errs...))
	}
	return m, nil
}

// Channels returns the number of channels drawn.
func (s Settings) Channels() int {
	if s.Stereo {
		return 2
	}
	return 1
}
