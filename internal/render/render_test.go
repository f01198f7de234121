// SPDX-License-Identifier: MIT
package render

import (
	"context"
	"image/color"
	"io"
	"slices"
	"sync"
	"testing"
	"time"

	"waveform/internal/geometry"
	"waveform/internal/log"
	"waveform/pkg/utils"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	m.Run()
}

func TestBuildMesh(t *testing.T) {
	strip := []geometry.Vertex{{X: 0}, {X: 1}, {X: 2}, {X: 3}, {X: 4}}
	quads := []geometry.Vertex{{}, {}, {}, {}, {}, {}, {}, {}}

	tests := []struct {
		name      string
		frame     *geometry.Frame
		wantIdx   []uint16
		wantLines bool
	}{
		{
			name:      "line strip",
			frame:     &geometry.Frame{Primitive: geometry.LineStrip, Channels: [][]geometry.Vertex{strip}},
			wantLines: true,
		},
		{
			name:    "triangle strip",
			frame:   &geometry.Frame{Primitive: geometry.TriangleStrip, Channels: [][]geometry.Vertex{strip}},
			wantIdx: []uint16{0, 1, 2, 1, 2, 3, 2, 3, 4},
		},
		{
			name: "indexed quads",
			frame: &geometry.Frame{
				Primitive: geometry.Triangles,
				Channels:  [][]geometry.Vertex{quads},
				Indices:   geometry.QuadIndices(2),
			},
			wantIdx: geometry.QuadIndices(2),
		},
		{
			name: "shorter channel uses fewer indices",
			frame: &geometry.Frame{
				Primitive: geometry.Triangles,
				Channels:  [][]geometry.Vertex{quads[:4]},
				Indices:   geometry.QuadIndices(2),
			},
			wantIdx: geometry.QuadIndices(1),
		},
	}

	var m Mesh
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			BuildMesh(&m, tt.frame, 0)
			if m.Lines != tt.wantLines {
				t.Errorf("Lines = %v, want %v", m.Lines, tt.wantLines)
			}
			if !slices.Equal(m.Indices, tt.wantIdx) {
				t.Errorf("Indices = %v, want %v", m.Indices, tt.wantIdx)
			}
			if len(m.Vertices) != len(tt.frame.Channels[0]) {
				t.Errorf("vertices = %d", len(m.Vertices))
			}
		})
	}
}

func TestColorAt(t *testing.T) {
	base := color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	crest := color.NRGBA{R: 200, G: 100, B: 50, A: 255}
	f := &geometry.Frame{
		Technique:  geometry.Gradient,
		GradCenter: 100,
		GradHeight: 50,
		ColorBase:  base,
		ColorCrest: crest,
	}

	tests := []struct {
		name string
		y    float32
		want color.NRGBA
	}{
		{"baseline", 100, base},
		{"halfway", 75, color.NRGBA{R: 100, G: 50, B: 25, A: 255}},
		{"crest", 50, crest},
		{"beyond crest", 0, crest},
		{"mirrored halfway", 125, color.NRGBA{R: 100, G: 50, B: 25, A: 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ColorAt(f, tt.y); got != tt.want {
				t.Errorf("ColorAt(%v) = %v, want %v", tt.y, got, tt.want)
			}
		})
	}

	f.Technique = geometry.Solid
	if got := ColorAt(f, 50); got != base {
		t.Errorf("solid ColorAt = %v, want base", got)
	}
}

type fakeVisualizer struct {
	mu     sync.Mutex
	ticks  int
	silent bool
}

func (f *fakeVisualizer) Tick(float32) {
	f.mu.Lock()
	f.ticks++
	f.mu.Unlock()
}

func (f *fakeVisualizer) Render() (*geometry.Frame, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.silent {
		return nil, false
	}
	return &geometry.Frame{Width: 4, Height: 4}, true
}

func (f *fakeVisualizer) Width() int  { return 4 }
func (f *fakeVisualizer) Height() int { return 4 }

func (f *fakeVisualizer) tickCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticks
}

func TestStep(t *testing.T) {
	vis := &fakeVisualizer{}
	sink := &utils.MockTransport{}

	if !Step(vis, sink, 1.0/60) {
		t.Error("Step reported no frame")
	}
	vis.silent = true
	if Step(vis, sink, 1.0/60) {
		t.Error("Step reported a frame while silent")
	}
	if Step(vis, nil, 1.0/60) {
		t.Error("Step without a sink reported a frame while silent")
	}
	if vis.ticks != 3 || sink.Count() != 1 {
		t.Errorf("ticks = %d, sent = %d; want 3 and 1", vis.ticks, sink.Count())
	}
}

func TestRunHeadless(t *testing.T) {
	vis := &fakeVisualizer{}
	sink := &utils.MockTransport{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- RunHeadless(ctx, vis, sink, 200) }()

	deadline := time.Now().Add(2 * time.Second)
	for vis.tickCount() < 3 {
		if time.Now().After(deadline) {
			t.Fatal("headless loop did not tick")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("RunHeadless = %v", err)
	}
	if sink.Count() < 3 {
		t.Errorf("sent %d frames, want at least 3", sink.Count())
	}
}
