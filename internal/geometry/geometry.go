// SPDX-License-Identifier: MIT

/*
Package geometry turns resampled decibel values into 2D vertex lists ready for
rasterization.

Coordinates are in pixels with the origin at the top left and a half pixel
offset so edges land on pixel centers. A value at the ceiling maps to the top
line (y = 0.5); a value at or below the floor maps to the baseline. In mono
the baseline is the bottom edge; in stereo it is the horizontal center and the
second channel is mirrored below it.
*/
package geometry

import (
	"fmt"
	"image/color"
	"strings"
)

// MaxQuads caps the quads emitted per channel so uint16 indices never overflow.
const MaxQuads = 1 << 14

// DisplayMode selects the layout.
type DisplayMode int

const (
	Curve DisplayMode = iota
	Bars
	SteppedBars
)

func (m DisplayMode) String() string {
	switch m {
	case Curve:
		return "curve"
	case Bars:
		return "bars"
	case SteppedBars:
		return "stepped_bars"
	default:
		return fmt.Sprintf("display(%d)", int(m))
	}
}

// ParseDisplayMode converts a configuration name to a DisplayMode.
func ParseDisplayMode(name string) (DisplayMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "curve", "":
		return Curve, nil
	case "bars", "bar":
		return Bars, nil
	case "stepped_bars", "stepped-bars", "steppedbars", "step_bar":
		return SteppedBars, nil
	default:
		return Curve, fmt.Errorf("unknown display mode: '%s'", name)
	}
}

// RenderMode selects how a curve is drawn and which shading technique applies.
type RenderMode int

const (
	Line RenderMode = iota
	Solid
	Gradient
)

func (m RenderMode) String() string {
	switch m {
	case Line:
		return "line"
	case Solid:
		return "solid"
	case Gradient:
		return "gradient"
	default:
		return fmt.Sprintf("render(%d)", int(m))
	}
}

// ParseRenderMode converts a configuration name to a RenderMode.
func ParseRenderMode(name string) (RenderMode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "line":
		return Line, nil
	case "solid", "":
		return Solid, nil
	case "gradient":
		return Gradient, nil
	default:
		return Solid, fmt.Errorf("unknown render mode: '%s'", name)
	}
}

// Primitive tells the rasterizer how to connect vertices.
type Primitive int

const (
	LineStrip Primitive = iota
	TriangleStrip
	Triangles // indexed, see Frame.Indices
)

// Vertex is a 2D position in pixels.
type Vertex struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// Frame is the output of one render. It is owned by the caller.
type Frame struct {
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	Primitive Primitive  `json:"primitive"`
	Technique RenderMode `json:"technique"`
	Channels  [][]Vertex `json:"channels"`
	Indices   []uint16   `json:"indices,omitempty"`

	// Gradient shading: the base color sits at GradCenter and blends to the
	// crest color over GradHeight pixels.
	GradCenter float32     `json:"grad_center"`
	GradHeight float32     `json:"grad_height"`
	ColorBase  color.NRGBA `json:"color_base"`
	ColorCrest color.NRGBA `json:"color_crest"`
}

// Quads returns the number of quads in channel ch of an indexed frame.
func (f *Frame) Quads(ch int) int {
	return len(f.Channels[ch]) / 4
}

// ColorFromARGB unpacks a 0xAARRGGBB value.
func ColorFromARGB(v uint32) color.NRGBA {
	return color.NRGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: uint8(v >> 24),
	}
}
