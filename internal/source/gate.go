// SPDX-License-Identifier: MIT
package source

import (
	"math"
	"sync/atomic"

	"github.com/viterin/vek/vek32"
)

// Gate marks blocks as muted while their peak stays below a threshold.
// The zero value is a disabled gate. All methods are safe to call while the
// source is delivering.
type Gate struct {
	enabled   atomic.Bool
	threshold atomic.Uint32 // math.Float32bits of the linear peak
}

func (g *Gate) Enable() {
	g.enabled.Store(true)
}

func (g *Gate) Disable() {
	g.enabled.Store(false)
}

func (g *Gate) Enabled() bool { return g.enabled.Load() }

// SetThreshold adjusts the gate threshold.
// The value is a linear peak in the range 0.0-1.0; 0 keeps the gate open.
func (g *Gate) SetThreshold(threshold float64) {
	threshold = min(max(threshold, 0), 1)
	g.threshold.Store(math.Float32bits(float32(threshold)))
}

// Threshold returns the current gate threshold.
func (g *Gate) Threshold() float64 {
	return float64(math.Float32frombits(g.threshold.Load()))
}

// closed reports whether every channel of the block peaks below the
// threshold.
func (g *Gate) closed(data [][]float32, frames int) bool {
	if !g.enabled.Load() || frames == 0 {
		return false
	}
	limit := math.Float32frombits(g.threshold.Load())
	for _, ch := range data {
		block := ch[:frames]
		if max(vek32.Max(block), -vek32.Min(block)) >= limit {
			return false
		}
	}
	return true
}
