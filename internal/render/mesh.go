// SPDX-License-Identifier: MIT

// Package render draws pipeline frames, either in a window or by driving the
// pipeline headlessly for the transports.
package render

import (
	"image/color"
	"math"

	"waveform/internal/geometry"
)

// Mesh is one channel of a frame in drawable form: an indexed triangle list,
// or a polyline when Lines is set.
type Mesh struct {
	Vertices []geometry.Vertex
	Indices  []uint16
	Lines    bool
}

// BuildMesh converts channel ch of f into m, reusing m's storage. Triangle
// strips become triangle lists; strips longer than a uint16 index can
// address are truncated.
func BuildMesh(m *Mesh, f *geometry.Frame, ch int) {
	verts := f.Channels[ch]
	m.Vertices = verts
	m.Indices = m.Indices[:0]
	m.Lines = false

	switch f.Primitive {
	case geometry.LineStrip:
		m.Lines = true
	case geometry.TriangleStrip:
		n := min(len(verts), math.MaxUint16+1)
		for i := 0; i+2 < n; i++ {
			m.Indices = append(m.Indices, uint16(i), uint16(i+1), uint16(i+2))
		}
	case geometry.Triangles:
		quads := f.Quads(ch)
		m.Indices = append(m.Indices, f.Indices[:min(6*quads, len(f.Indices))]...)
	}
}

// ColorAt returns the fill color at height y. Gradient frames blend from
// the base color at the baseline to the crest color GradHeight above it;
// other techniques use the base color.
func ColorAt(f *geometry.Frame, y float32) color.NRGBA {
	if f.Technique != geometry.Gradient || f.GradHeight <= 0 {
		return f.ColorBase
	}
	t := (f.GradCenter - y) / f.GradHeight
	if f.GradCenter < y {
		// Mirrored lower channel.
		t = (y - f.GradCenter) / f.GradHeight
	}
	t = max(0, min(1, t))
	return lerpColor(f.ColorBase, f.ColorCrest, t)
}

func lerpColor(a, b color.NRGBA, t float32) color.NRGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float32(x) + (float32(y)-float32(x))*t + 0.5)
	}
	return color.NRGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}
