// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/floats"
)

// WindowFunc selects the analysis window applied before the FFT.
type WindowFunc int

// Available window functions.
const (
	WindowNone WindowFunc = iota
	Hann
	Hamming
	Blackman
	BlackmanHarris
)

// String returns the configuration name of the window.
func (w WindowFunc) String() string {
	switch w {
	case WindowNone:
		return "none"
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Blackman:
		return "blackman"
	case BlackmanHarris:
		return "blackman_harris"
	default:
		return fmt.Sprintf("window(%d)", int(w))
	}
}

// ParseWindowFunc converts a string name (case-insensitive) to a WindowFunc.
// Unknown names return Hann and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "":
		return WindowNone, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "blackman_harris", "blackmanharris", "blackman-harris":
		return BlackmanHarris, nil
	default:
		return Hann, fmt.Errorf("unknown FFT window function name: '%s'", name)
	}
}

// windowCoefficients returns the per-sample coefficients for w and their sum.
// WindowNone yields a nil slice and a sum equal to size, i.e. a rectangular window.
func windowCoefficients(w WindowFunc, size int) ([]float32, float64) {
	if w == WindowNone {
		return nil, float64(size)
	}

	seq := make([]float64, size)
	for i := range seq {
		seq[i] = 1.0
	}
	switch w {
	case Hamming:
		window.Hamming(seq)
	case Blackman:
		window.Blackman(seq)
	case BlackmanHarris:
		window.BlackmanHarris(seq)
	default:
		window.Hann(seq)
	}

	coeffs := make([]float32, size)
	for i, v := range seq {
		coeffs[i] = float32(v)
	}
	return coeffs, floats.Sum(seq)
}
