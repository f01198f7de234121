// SPDX-License-Identifier: MIT

// Package cpuinfo probes the vector instruction sets available to the numeric
// kernels. Detection runs once per process; the result is a plain value that
// callers pass down explicitly, so tests can substitute any feature matrix.
package cpuinfo

import (
	"strings"
	"sync"

	"golang.org/x/sys/cpu"
)

// Caps is an immutable snapshot of the CPU features the kernels care about.
type Caps struct {
	SSE2  bool
	SSE41 bool
	AVX   bool
	AVX2  bool
	FMA3  bool
	ASIMD bool // arm64 Advanced SIMD
}

var detect = sync.OnceValue(func() Caps {
	return Caps{
		SSE2:  cpu.X86.HasSSE2,
		SSE41: cpu.X86.HasSSE41,
		AVX:   cpu.X86.HasAVX,
		AVX2:  cpu.X86.HasAVX2,
		FMA3:  cpu.X86.HasFMA,
		ASIMD: cpu.ARM64.HasASIMD,
	}
})

// Detect returns the process-wide capability flags.
func Detect() Caps {
	return detect()
}

// Baseline reports a machine with no optional vector features. Useful for
// forcing the reference code paths.
func Baseline() Caps {
	return Caps{}
}

// HasAVX2FMA reports whether the widest kernel can run.
func (c Caps) HasAVX2FMA() bool {
	return c.AVX2 && c.FMA3
}

// HasAVXFMA reports whether the 8-lane FMA kernel can run.
func (c Caps) HasAVXFMA() bool {
	return c.AVX && c.FMA3
}

// HasWideFilter reports whether the accelerated convolution should be used.
func (c Caps) HasWideFilter() bool {
	return c.SSE41 || c.ASIMD
}

// String lists the detected features, widest first, e.g. " AVX2 AVX SSE4.1 FMA3 SSE2".
func (c Caps) String() string {
	var b strings.Builder
	if c.AVX2 {
		b.WriteString(" AVX2")
	}
	if c.AVX {
		b.WriteString(" AVX")
	}
	if c.SSE41 {
		b.WriteString(" SSE4.1")
	}
	if c.FMA3 {
		b.WriteString(" FMA3")
	}
	if c.SSE2 {
		b.WriteString(" SSE2")
	}
	if c.ASIMD {
		b.WriteString(" ASIMD")
	}
	if b.Len() == 0 {
		return " none"
	}
	return b.String()
}
