// SPDX-License-Identifier: MIT
package cpuinfo

import "testing"

func TestDetectIsStable(t *testing.T) {
	if Detect() != Detect() {
		t.Error("Detect should return the same snapshot on every call")
	}
}

func TestCapsPredicates(t *testing.T) {
	tests := []struct {
		name     string
		caps     Caps
		avx2     bool
		avx      bool
		wide     bool
		describe string
	}{
		{"baseline", Baseline(), false, false, false, " none"},
		{"sse2 only", Caps{SSE2: true}, false, false, false, " SSE2"},
		{"avx without fma", Caps{SSE2: true, AVX: true}, false, false, false, " AVX SSE2"},
		{"avx2 fma", Caps{SSE2: true, SSE41: true, AVX: true, AVX2: true, FMA3: true}, true, true, true, " AVX2 AVX SSE4.1 FMA3 SSE2"},
		{"arm64", Caps{ASIMD: true}, false, false, true, " ASIMD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.caps.HasAVX2FMA(); got != tt.avx2 {
				t.Errorf("HasAVX2FMA() = %v, want %v", got, tt.avx2)
			}
			if got := tt.caps.HasAVXFMA(); got != tt.avx {
				t.Errorf("HasAVXFMA() = %v, want %v", got, tt.avx)
			}
			if got := tt.caps.HasWideFilter(); got != tt.wide {
				t.Errorf("HasWideFilter() = %v, want %v", got, tt.wide)
			}
			if got := tt.caps.String(); got != tt.describe {
				t.Errorf("String() = %q, want %q", got, tt.describe)
			}
		})
	}
}
