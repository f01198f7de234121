// SPDX-License-Identifier: MIT

// Package axis maps FFT bins onto display positions: it builds the table of
// fractional bin indices for each output column and resamples a decibel
// spectrum through it.
package axis

import (
	"fmt"
	"math"
	"strings"
)

// lanczosA is the number of lobes of the Lanczos kernel.
const lanczosA = 3

// Interpolation selects how a fractional bin position is sampled.
type Interpolation int

const (
	Point Interpolation = iota // truncate to the containing bin
	Lanczos
)

func (m Interpolation) String() string {
	switch m {
	case Point:
		return "point"
	case Lanczos:
		return "lanczos"
	default:
		return fmt.Sprintf("interp(%d)", int(m))
	}
}

// ParseInterpolation converts a configuration name to an Interpolation.
func ParseInterpolation(name string) (Interpolation, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "point", "nearest", "none":
		return Point, nil
	case "lanczos", "":
		return Lanczos, nil
	default:
		return Lanczos, fmt.Errorf("unknown interpolation mode: '%s'", name)
	}
}

// BuildIndexTable returns size fractional bin positions spanning lowHz to
// highHz. Both ends are clamped to [1, fftSize/2-1]. Positions are spaced
// logarithmically when logScale is set, linearly otherwise.
func BuildIndexTable(size int, lowHz, highHz, sampleRate float64, fftSize int, logScale bool) []float32 {
	if size <= 0 {
		return nil
	}
	maxBin := float64(fftSize/2 - 1)
	lowBin := clamp(lowHz*float64(fftSize)/sampleRate, 1, maxBin)
	highBin := clamp(highHz*float64(fftSize)/sampleRate, 1, maxBin)

	out := make([]float32, size)
	logLow, logHigh := math.Log(lowBin), math.Log(highBin)
	for i := range out {
		t := 0.0
		if size > 1 {
			t = float64(i) / float64(size-1)
		}
		if logScale {
			out[i] = float32(math.Exp(lerp(logLow, logHigh, t)))
		} else {
			out[i] = float32(lerp(lowBin, highBin, t))
		}
	}
	return out
}

// BarCount returns how many bars of barWidth separated by barGap fit in width.
// A trailing bar that fits without its gap is counted.
func BarCount(width, barWidth, barGap int) int {
	if barWidth < 1 {
		barWidth = 1
	}
	if barGap < 0 {
		barGap = 0
	}
	stride := barWidth + barGap
	n := width / stride
	if width-n*stride >= barWidth {
		n++
	}
	return n
}

// LanczosKernel evaluates the Lanczos window of order a at x.
func LanczosKernel(x, a float64) float64 {
	if x == 0 {
		return 1
	}
	if x <= -a || x >= a {
		return 0
	}
	px := math.Pi * x
	return a * math.Sin(px) * math.Sin(px/a) / (px * px)
}

// LanczosSample reconstructs data at the fractional position x. Taps that
// fall outside data are skipped.
func LanczosSample(data []float32, x float64) float32 {
	ix := int(math.Floor(x))
	var sum float64
	for i := ix - lanczosA + 1; i <= ix+lanczosA; i++ {
		if i < 0 {
			continue
		}
		if i >= len(data) {
			break
		}
		sum += float64(data[i]) * LanczosKernel(x-float64(i), lanczosA)
	}
	return float32(sum)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
