// SPDX-License-Identifier: MIT
package analysis

import (
	"math"

	"github.com/viterin/vek/vek32"
)

// applyWindow multiplies samples by the window into p.input. The product is
// rounded to float32 in every kernel so the FFT input is identical across them.
func (p *plan) applyWindow(samples []float32) {
	if p.window == nil {
		copy(p.input, samples)
		return
	}
	for i, s := range samples {
		p.input[i] = s * p.window[i]
	}
}

// --- generic ---

type genericKernel struct{ p *plan }

func (k *genericKernel) Kind() KernelKind { return KernelGeneric }

func (k *genericKernel) Transform(dst, samples []float32) bool {
	p := k.p
	p.applyWindow(samples[:p.size])
	silent := p.forward()

	for i := range p.bins {
		c := p.coeffs[i]
		mag := math.Hypot(real(c), imag(c)) * p.scale
		dst[i] = clampDB(float32(20*math.Log10(mag) + float64(p.slope[i])))
	}
	return silent
}

// --- sse2: four lanes per step ---

type sse2Kernel struct{ p *plan }

func (k *sse2Kernel) Kind() KernelKind { return KernelSSE2 }

func (k *sse2Kernel) Transform(dst, samples []float32) bool {
	p := k.p
	samples = samples[:p.size]

	if p.window == nil {
		copy(p.input, samples)
	} else {
		in, w := p.input, p.window
		i := 0
		for ; i+4 <= len(samples); i += 4 {
			in[i] = samples[i] * w[i]
			in[i+1] = samples[i+1] * w[i+1]
			in[i+2] = samples[i+2] * w[i+2]
			in[i+3] = samples[i+3] * w[i+3]
		}
		for ; i < len(samples); i++ {
			in[i] = samples[i] * w[i]
		}
	}
	silent := p.forward()

	scale2 := p.scale * p.scale
	c := p.coeffs
	i := 0
	for ; i+4 <= p.bins; i += 4 {
		p0 := (real(c[i])*real(c[i]) + imag(c[i])*imag(c[i])) * scale2
		p1 := (real(c[i+1])*real(c[i+1]) + imag(c[i+1])*imag(c[i+1])) * scale2
		p2 := (real(c[i+2])*real(c[i+2]) + imag(c[i+2])*imag(c[i+2])) * scale2
		p3 := (real(c[i+3])*real(c[i+3]) + imag(c[i+3])*imag(c[i+3])) * scale2
		dst[i] = clampDB(float32(10*math.Log10(p0)) + p.slope[i])
		dst[i+1] = clampDB(float32(10*math.Log10(p1)) + p.slope[i+1])
		dst[i+2] = clampDB(float32(10*math.Log10(p2)) + p.slope[i+2])
		dst[i+3] = clampDB(float32(10*math.Log10(p3)) + p.slope[i+3])
	}
	for ; i < p.bins; i++ {
		pw := (real(c[i])*real(c[i]) + imag(c[i])*imag(c[i])) * scale2
		dst[i] = clampDB(float32(10*math.Log10(pw)) + p.slope[i])
	}
	return silent
}

// --- avx: eight lanes per step, fused multiply-add for the power ---

type avxKernel struct{ p *plan }

func (k *avxKernel) Kind() KernelKind { return KernelAVX }

func (k *avxKernel) Transform(dst, samples []float32) bool {
	p := k.p
	samples = samples[:p.size]

	if p.window == nil {
		copy(p.input, samples)
	} else {
		in, w := p.input, p.window
		i := 0
		for ; i+8 <= len(samples); i += 8 {
			s, c := samples[i:i+8:i+8], w[i:i+8:i+8]
			o := in[i : i+8 : i+8]
			for j := range 8 {
				o[j] = s[j] * c[j]
			}
		}
		for ; i < len(samples); i++ {
			in[i] = samples[i] * w[i]
		}
	}
	silent := p.forward()

	scale2 := p.scale * p.scale
	var lane [8]float64
	i := 0
	for ; i+8 <= p.bins; i += 8 {
		c := p.coeffs[i : i+8 : i+8]
		for j := range 8 {
			re, im := real(c[j]), imag(c[j])
			lane[j] = math.FMA(re, re, im*im) * scale2
		}
		out, sl := dst[i:i+8:i+8], p.slope[i:i+8:i+8]
		for j := range 8 {
			out[j] = clampDB(float32(10*math.Log10(lane[j])) + sl[j])
		}
	}
	for ; i < p.bins; i++ {
		re, im := real(p.coeffs[i]), imag(p.coeffs[i])
		pw := math.FMA(re, re, im*im) * scale2
		dst[i] = clampDB(float32(10*math.Log10(pw)) + p.slope[i])
	}
	return silent
}

// --- avx2: vek32 vector routines ---

type avx2Kernel struct {
	p   *plan
	mag []float32
}

func (k *avx2Kernel) Kind() KernelKind { return KernelAVX2 }

// minNormal is the smallest normal float32; magnitudes below it land under DBMin.
const minNormal = 0x1p-126

func (k *avx2Kernel) Transform(dst, samples []float32) bool {
	p := k.p
	samples = samples[:p.size]

	if p.window == nil {
		copy(p.input, samples)
	} else {
		vek32.Mul_Into(p.input, samples, p.window)
	}
	silent := p.forward()

	// The magnitude is narrowed, never the power: a float32 power goes
	// subnormal long before the magnitude reaches DBMin.
	for i, c := range p.coeffs[:p.bins] {
		m := math.Hypot(real(c), imag(c)) * p.scale
		if m < minNormal {
			m = 0
		}
		k.mag[i] = float32(m)
	}
	vek32.Log10_Inplace(k.mag)
	vek32.MulNumber_Inplace(k.mag, 20)
	vek32.Add_Inplace(k.mag, p.slope)

	for i, v := range k.mag {
		if p.coeffs[i] == 0 {
			dst[i] = DBMin
			continue
		}
		dst[i] = clampDB(v)
	}
	return silent
}
