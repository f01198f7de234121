// SPDX-License-Identifier: MIT
//go:build !headless

package render

import (
	"context"
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"waveform/internal/log"
	"waveform/internal/transport"
)

// WindowAvailable reports whether this build can open a window.
const WindowAvailable = true

var background = color.NRGBA{A: 0xff}

// Game is an ebiten.Game drawing one visualizer.
type Game struct {
	ctx   context.Context
	vis   Visualizer
	sink  transport.Transport
	tps   int
	white *ebiten.Image

	frameOK  bool
	mesh     Mesh
	vertices []ebiten.Vertex
}

// NewGame creates a game that ticks vis at tps updates per second.
func NewGame(ctx context.Context, vis Visualizer, sink transport.Transport, tps int) *Game {
	if tps <= 0 {
		tps = 60
	}
	img := ebiten.NewImage(3, 3)
	img.Fill(color.White)
	return &Game{
		ctx:   ctx,
		vis:   vis,
		sink:  sink,
		tps:   tps,
		white: img.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image),
	}
}

func (g *Game) Update() error {
	if ebiten.IsWindowBeingClosed() || g.ctx.Err() != nil {
		return ebiten.Termination
	}
	g.frameOK = false
	g.vis.Tick(1 / float32(g.tps))
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	frame, ok := g.vis.Render()
	if !ok {
		return
	}
	if g.sink != nil && !g.frameOK {
		if err := g.sink.Send(frame); err != nil {
			log.Debugf("Render: Transport error: %v", err)
		}
		g.frameOK = true
	}

	for ch := range frame.Channels {
		BuildMesh(&g.mesh, frame, ch)
		if g.mesh.Lines {
			c := frame.ColorBase
			for i := 1; i < len(g.mesh.Vertices); i++ {
				a, b := g.mesh.Vertices[i-1], g.mesh.Vertices[i]
				vector.StrokeLine(screen, a.X, a.Y, b.X, b.Y, 1, c, true)
			}
			continue
		}

		g.vertices = g.vertices[:0]
		for _, v := range g.mesh.Vertices {
			c := ColorAt(frame, v.Y)
			g.vertices = append(g.vertices, ebiten.Vertex{
				DstX:   v.X,
				DstY:   v.Y,
				SrcX:   1,
				SrcY:   1,
				ColorR: float32(c.R) / 0xff,
				ColorG: float32(c.G) / 0xff,
				ColorB: float32(c.B) / 0xff,
				ColorA: float32(c.A) / 0xff,
			})
		}
		screen.DrawTriangles(g.vertices, g.mesh.Indices, g.white, &ebiten.DrawTrianglesOptions{AntiAlias: true})
	}
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.vis.Width(), g.vis.Height()
}

// RunWindow opens a window and draws vis until the window closes or ctx is
// done. It must be called from the main goroutine.
func RunWindow(ctx context.Context, vis Visualizer, sink transport.Transport, tps int, title string) error {
	g := NewGame(ctx, vis, sink, tps)
	ebiten.SetWindowSize(vis.Width(), vis.Height())
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowResizable(true)
	ebiten.SetRunnableOnUnfocused(true)
	ebiten.SetTPS(g.tps)

	log.Infof("Render: Opening %dx%d window", vis.Width(), vis.Height())
	return ebiten.RunGame(g)
}
