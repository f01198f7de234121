// SPDX-License-Identifier: MIT

// Package filter smooths a resampled spectrum across neighboring output
// positions with a normalized Gaussian kernel.
package filter

import (
	"fmt"
	"math"
	"strings"

	"waveform/internal/cpuinfo"

	"github.com/viterin/vek/vek32"
)

// Mode selects the post filter.
type Mode int

const (
	None Mode = iota
	Gauss
)

func (m Mode) String() string {
	switch m {
	case None:
		return "none"
	case Gauss:
		return "gauss"
	default:
		return fmt.Sprintf("filter(%d)", int(m))
	}
}

// ParseMode converts a configuration name to a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "":
		return None, nil
	case "gauss", "gaussian":
		return Gauss, nil
	default:
		return None, fmt.Errorf("unknown filter mode: '%s'", name)
	}
}

// Kernel holds normalized weights for offsets -Radius..Radius.
type Kernel struct {
	Weights []float32
	Radius  int
}

// GaussianKernel builds a kernel with sigma = radius/2 and taps out to
// floor(radius), normalized to sum to one. Radii below one give the identity.
func GaussianKernel(radius float64) Kernel {
	r := int(math.Floor(radius))
	if r < 1 {
		return Kernel{Weights: []float32{1}}
	}

	sigma := radius / 2
	weights := make([]float64, 2*r+1)
	var sum float64
	for k := -r; k <= r; k++ {
		w := math.Exp(-float64(k*k) / (2 * sigma * sigma))
		weights[k+r] = w
		sum += w
	}

	out := make([]float32, len(weights))
	for i, w := range weights {
		out[i] = float32(w / sum)
	}
	return Kernel{Weights: out, Radius: r}
}

// Identity reports whether applying k leaves the input unchanged.
func (k Kernel) Identity() bool {
	return k.Radius == 0
}

// ApplyFunc convolves src with the kernel into dst. dst and src must not
// overlap and must have equal length.
type ApplyFunc func(dst, src []float32, k Kernel)

// Select returns the convolution to use on a machine with the given caps.
func Select(caps cpuinfo.Caps) ApplyFunc {
	if caps.HasWideFilter() {
		return ApplyAccelerated
	}
	return Apply
}

// Apply is the reference convolution. Samples beyond either edge read the
// nearest edge value.
func Apply(dst, src []float32, k Kernel) {
	if k.Identity() {
		copy(dst, src)
		return
	}
	for i := range src {
		dst[i] = edgeSample(src, i, k)
	}
}

// ApplyAccelerated computes interior positions as dot products with vek32 and
// falls back to the clamped scalar path near the edges.
func ApplyAccelerated(dst, src []float32, k Kernel) {
	if k.Identity() {
		copy(dst, src)
		return
	}
	n, r := len(src), k.Radius
	if n <= 2*r {
		Apply(dst, src, k)
		return
	}
	for i := range r {
		dst[i] = edgeSample(src, i, k)
	}
	width := len(k.Weights)
	for i := r; i < n-r; i++ {
		dst[i] = vek32.Dot(src[i-r:i-r+width], k.Weights)
	}
	for i := n - r; i < n; i++ {
		dst[i] = edgeSample(src, i, k)
	}
}

func edgeSample(src []float32, i int, k Kernel) float32 {
	last := len(src) - 1
	var sum float32
	for j, w := range k.Weights {
		idx := min(max(i+j-k.Radius, 0), last)
		sum += src[idx] * w
	}
	return sum
}
