// SPDX-License-Identifier: MIT
package geometry

import "image/color"

// Params is the layout a Builder renders with.
type Params struct {
	Width, Height int
	Stereo        bool
	Floor         float32
	Ceiling       float32
	Display       DisplayMode
	Render        RenderMode
	BarWidth      int
	BarGap        int
	StepWidth     int
	StepGap       int
	GradRatio     float32
	ColorBase     color.NRGBA
	ColorCrest    color.NRGBA
}

// Builder converts per-channel decibel arrays into a Frame.
type Builder struct {
	p        Params
	cpos     float32 // baseline
	bottom   float32
	dbRange  float32
	maxSteps int
}

// NewBuilder precomputes the layout constants for p.
func NewBuilder(p Params) *Builder {
	p.Width = max(p.Width, 1)
	p.Height = max(p.Height, 1)
	p.BarWidth = max(p.BarWidth, 1)
	p.BarGap = max(p.BarGap, 0)
	p.StepWidth = max(p.StepWidth, 1)
	p.StepGap = max(p.StepGap, 0)

	b := &Builder{
		p:       p,
		bottom:  float32(p.Height) + 0.5,
		dbRange: p.Ceiling - p.Floor,
	}
	if p.Stereo {
		b.cpos = float32(p.Height)/2 + 0.5
	} else {
		b.cpos = b.bottom
	}

	stride := p.StepWidth + p.StepGap
	b.maxSteps = int(b.cpos) / stride
	if int(b.cpos)-b.maxSteps*stride >= p.StepWidth {
		b.maxSteps++
	}
	return b
}

// Baseline returns the y coordinate silence maps to.
func (b *Builder) Baseline() float32 { return b.cpos }

// MaxSteps returns the number of step cells that fit in a full bar.
func (b *Builder) MaxSteps() int { return b.maxSteps }

// MapY converts a decibel value to a y coordinate between the top line and
// the baseline.
func (b *Builder) MapY(db float32) float32 {
	t := b.p.Ceiling - db
	if t < 0 {
		t = 0
	} else if t > b.dbRange {
		t = b.dbRange
	}
	return 0.5 + (b.cpos-0.5)*(t/b.dbRange)
}

// Build converts values, one slice per channel, into a frame. The slices are
// overwritten with their y coordinates. For curves each slice holds one value
// per column; for bars, one per bar.
func (b *Builder) Build(values [][]float32) *Frame {
	f := &Frame{
		Width:      b.p.Width,
		Height:     b.p.Height,
		Technique:  b.p.Render,
		GradCenter: b.cpos,
		ColorBase:  b.p.ColorBase,
		ColorCrest: b.p.ColorCrest,
		Channels:   make([][]Vertex, len(values)),
	}

	minY := b.cpos
	step := 1
	if b.p.Display == Curve && b.p.Render != Line {
		// Odd columns of a filled curve are baseline vertices.
		step = 2
	}
	for _, ch := range values {
		for i := 0; i < len(ch); i += step {
			y := b.MapY(ch[i])
			minY = min(minY, y)
			ch[i] = y
		}
	}
	f.GradHeight = (b.cpos - minY) * b.p.GradRatio

	switch b.p.Display {
	case Curve:
		for c, ch := range values {
			f.Channels[c] = b.curve(ch, c == 1)
		}
		if b.p.Render == Line {
			f.Primitive = LineStrip
		} else {
			f.Primitive = TriangleStrip
		}
	default:
		quads := 0
		for c, ch := range values {
			if b.p.Display == SteppedBars {
				f.Channels[c] = b.steppedBars(ch, c == 1)
			} else {
				f.Channels[c] = b.bars(ch, c == 1)
			}
			quads = max(quads, len(f.Channels[c])/4)
		}
		f.Primitive = Triangles
		f.Indices = QuadIndices(quads)
	}
	return f
}

func (b *Builder) curve(ys []float32, mirrored bool) []Vertex {
	width := min(len(ys), b.p.Width)
	if b.p.Render == Line {
		out := make([]Vertex, width)
		for i := range width {
			y := ys[i]
			if mirrored {
				y = b.bottom - y
			}
			out[i] = Vertex{float32(i) + 0.5, y}
		}
		return out
	}

	out := make([]Vertex, 0, width+2)
	out = append(out, Vertex{-0.5, b.cpos})
	for i := range width {
		x := float32(i) + 0.5
		if i&1 == 1 {
			out = append(out, Vertex{x, b.cpos})
			continue
		}
		y := ys[i]
		if mirrored {
			y = b.bottom - y
		}
		out = append(out, Vertex{x, y})
	}
	out = append(out, Vertex{float32(b.p.Width) + 0.5, b.cpos})
	return out
}

func (b *Builder) bars(ys []float32, mirrored bool) []Vertex {
	n := min(len(ys), MaxQuads)
	stride := float32(b.p.BarWidth + b.p.BarGap)
	out := make([]Vertex, 0, 4*n)
	for i := range n {
		x1 := float32(i)*stride + 0.5
		x2 := x1 + float32(b.p.BarWidth)
		y := ys[i]
		if mirrored {
			y = b.bottom - y
		}
		out = append(out,
			Vertex{x1, y}, Vertex{x2, y},
			Vertex{x1, b.cpos}, Vertex{x2, b.cpos})
	}
	return out
}

func (b *Builder) steppedBars(ys []float32, mirrored bool) []Vertex {
	stride := float32(b.p.StepWidth + b.p.StepGap)
	barStride := float32(b.p.BarWidth + b.p.BarGap)
	out := make([]Vertex, 0, 4*min(len(ys)*b.maxSteps, MaxQuads))

bars:
	for i, v := range ys {
		x1 := float32(i)*barStride + 0.5
		x2 := x1 + float32(b.p.BarWidth)
		height := b.cpos - v
		for j := range b.maxSteps {
			y1 := float32(j) * stride
			y2 := y1 + float32(b.p.StepWidth)
			if height < y2 {
				break
			}
			if len(out) == 4*MaxQuads {
				break bars
			}
			if mirrored {
				y1, y2 = b.cpos+y1, b.cpos+y2
			} else {
				y1, y2 = b.cpos-y1, b.cpos-y2
			}
			out = append(out,
				Vertex{x1, y1}, Vertex{x2, y1},
				Vertex{x1, y2}, Vertex{x2, y2})
		}
	}
	return out
}

// QuadIndices returns the triangle list for n quads laid out as
// (top-left, top-right, bottom-left, bottom-right).
func QuadIndices(n int) []uint16 {
	n = min(n, MaxQuads)
	out := make([]uint16, 6*n)
	for q := range n {
		v := uint16(4 * q)
		i := 6 * q
		out[i] = v
		out[i+1] = v + 1
		out[i+2] = v + 2
		out[i+3] = v + 2
		out[i+4] = v + 1
		out[i+5] = v + 3
	}
	return out
}
