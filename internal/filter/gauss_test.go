// SPDX-License-Identifier: MIT
package filter

import (
	"math"
	"testing"

	"waveform/internal/cpuinfo"
)

func TestGaussianKernel(t *testing.T) {
	tests := []struct {
		radius   float64
		wantTaps int
	}{
		{0, 1},
		{0.99, 1},
		{1, 3},
		{1.5, 3},
		{2, 5},
		{8.7, 17},
	}

	for _, tt := range tests {
		k := GaussianKernel(tt.radius)
		if len(k.Weights) != tt.wantTaps {
			t.Errorf("GaussianKernel(%v) taps = %d, want %d", tt.radius, len(k.Weights), tt.wantTaps)
			continue
		}
		var sum float64
		for i, w := range k.Weights {
			sum += float64(w)
			if w != k.Weights[len(k.Weights)-1-i] {
				t.Errorf("GaussianKernel(%v) not symmetric at %d", tt.radius, i)
			}
		}
		if math.Abs(sum-1) > 1e-5 {
			t.Errorf("GaussianKernel(%v) sum = %v, want 1", tt.radius, sum)
		}
		if k.Radius > 0 && k.Weights[k.Radius] <= k.Weights[0] {
			t.Errorf("GaussianKernel(%v) center should dominate", tt.radius)
		}
	}

	if !GaussianKernel(0.5).Identity() {
		t.Error("radius 0.5 should be the identity")
	}
}

func TestApplyIdentity(t *testing.T) {
	src := []float32{1, -2, 3, -4}
	dst := make([]float32, len(src))
	for _, apply := range []ApplyFunc{Apply, ApplyAccelerated} {
		apply(dst, src, GaussianKernel(0))
		for i := range src {
			if dst[i] != src[i] {
				t.Fatalf("identity changed dst[%d] = %v", i, dst[i])
			}
		}
	}
}

func TestApplyPreservesConstant(t *testing.T) {
	src := make([]float32, 64)
	for i := range src {
		src[i] = -37.5
	}
	dst := make([]float32, len(src))
	for _, apply := range []ApplyFunc{Apply, ApplyAccelerated} {
		apply(dst, src, GaussianKernel(4))
		for i, v := range dst {
			if math.Abs(float64(v+37.5)) > 1e-3 {
				t.Fatalf("dst[%d] = %v, want -37.5", i, v)
			}
		}
	}
}

func TestApplyAcceleratedMatchesReference(t *testing.T) {
	for _, n := range []int{1, 3, 5, 16, 100, 801} {
		src := make([]float32, n)
		for i := range src {
			src[i] = float32(-60 + 30*math.Sin(float64(i)*0.37))
		}
		for _, radius := range []float64{1, 2.5, 6} {
			k := GaussianKernel(radius)
			want := make([]float32, n)
			got := make([]float32, n)
			Apply(want, src, k)
			ApplyAccelerated(got, src, k)
			for i := range want {
				if math.Abs(float64(want[i]-got[i])) > 1e-3 {
					t.Fatalf("n=%d r=%v: dst[%d] = %v, reference %v", n, radius, i, got[i], want[i])
				}
			}
		}
	}
}

func TestApplySpike(t *testing.T) {
	src := make([]float32, 11)
	src[5] = 1
	dst := make([]float32, len(src))
	k := GaussianKernel(2)
	Apply(dst, src, k)
	for j, w := range k.Weights {
		if dst[5-k.Radius+j] != w {
			t.Errorf("dst[%d] = %v, want weight %v", 5-k.Radius+j, dst[5-k.Radius+j], w)
		}
	}
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name string
		caps cpuinfo.Caps
		fast bool
	}{
		{"baseline", cpuinfo.Baseline(), false},
		{"sse2 only", cpuinfo.Caps{SSE2: true}, false},
		{"sse4.1", cpuinfo.Caps{SSE2: true, SSE41: true}, true},
		{"neon", cpuinfo.Caps{ASIMD: true}, true},
	}
	src := []float32{0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apply := Select(tt.caps)
			if apply == nil {
				t.Fatal("Select returned nil")
			}
			dst := make([]float32, len(src))
			apply(dst, src, GaussianKernel(1.5))
			if dst[9] >= 1 || dst[8] <= 0 {
				t.Errorf("filter did not spread the spike: %v", dst)
			}
			if tt.caps.HasWideFilter() != tt.fast {
				t.Errorf("HasWideFilter = %v, want %v", tt.caps.HasWideFilter(), tt.fast)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("Gauss"); m != Gauss || err != nil {
		t.Errorf("ParseMode(Gauss) = %v, %v", m, err)
	}
	if m, err := ParseMode("none"); m != None || err != nil {
		t.Errorf("ParseMode(none) = %v, %v", m, err)
	}
	if _, err := ParseMode("median"); err == nil {
		t.Error("ParseMode(median) should fail")
	}
}

func BenchmarkApply(b *testing.B) {
	src := make([]float32, 800)
	dst := make([]float32, 800)
	k := GaussianKernel(4)

	for _, bm := range []struct {
		name  string
		apply ApplyFunc
	}{
		{"reference", Apply},
		{"accelerated", ApplyAccelerated},
	} {
		b.Run(bm.name, func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				bm.apply(dst, src, k)
			}
		})
	}
}
