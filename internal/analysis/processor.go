// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"strings"

	"waveform/internal/cpuinfo"
)

// Kernel turns one window of raw samples into a decibel spectrum. All kernels
// share the FFT plan and produce the same values within float32 rounding; they
// differ only in how the windowing and decibel stages are laid out for the CPU.
type Kernel interface {
	// Kind identifies the implementation.
	Kind() KernelKind

	// Transform writes len(samples)/2 decibel values into dst and reports
	// whether every FFT bin of the window was exactly zero.
	Transform(dst, samples []float32) (silent bool)
}

// KernelKind names a kernel implementation.
type KernelKind int

// Kernel implementations, narrowest first.
const (
	KernelGeneric KernelKind = iota // scalar reference
	KernelSSE2                      // 4-lane blocks, baseline on amd64
	KernelAVX                       // 8-lane blocks with fused multiply-add
	KernelAVX2                      // vek32 vector routines
)

// AllKernels lists every implementation, for differential tests and benchmarks.
var AllKernels = []KernelKind{KernelGeneric, KernelSSE2, KernelAVX, KernelAVX2}

// String returns the kernel name.
func (k KernelKind) String() string {
	switch k {
	case KernelGeneric:
		return "generic"
	case KernelSSE2:
		return "sse2"
	case KernelAVX:
		return "avx"
	case KernelAVX2:
		return "avx2"
	default:
		return fmt.Sprintf("kernel(%d)", int(k))
	}
}

// ParseKernelKind converts a kernel name to a KernelKind. The empty string
// and "auto" are not accepted here; callers resolve those via SelectKernel.
func ParseKernelKind(name string) (KernelKind, error) {
	for _, k := range AllKernels {
		if strings.EqualFold(name, k.String()) {
			return k, nil
		}
	}
	return KernelGeneric, fmt.Errorf("unknown kernel name: '%s'", name)
}

// SelectKernel picks the widest kernel the capabilities allow.
func SelectKernel(caps cpuinfo.Caps) KernelKind {
	switch {
	case caps.HasAVX2FMA():
		return KernelAVX2
	case caps.HasAVXFMA():
		return KernelAVX
	case caps.SSE2 || caps.ASIMD:
		return KernelSSE2
	default:
		return KernelGeneric
	}
}

func newKernel(kind KernelKind, p *plan) Kernel {
	switch kind {
	case KernelSSE2:
		return &sse2Kernel{p: p}
	case KernelAVX:
		return &avxKernel{p: p}
	case KernelAVX2:
		n := p.bins
		return &avx2Kernel{
			p:   p,
			mag: make([]float32, n),
		}
	default:
		return &genericKernel{p: p}
	}
}
