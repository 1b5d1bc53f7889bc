//go:build !tinygo

package main

import (
	"context"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/harveysanders/envdisplay/gfx"
	"github.com/harveysanders/envdisplay/input"
)

// keyboard maps the arrow keys and Enter/Space to the 5-way switch. The
// window goroutine stores key levels; the render goroutine samples them.
type keyboard struct {
	down [input.NumButtons]atomic.Bool
}

func (k *keyboard) Sample(b input.Button) bool {
	if b >= input.NumButtons {
		return false
	}
	return k.down[b].Load()
}

func (k *keyboard) poll() {
	k.down[input.Up].Store(ebiten.IsKeyPressed(ebiten.KeyArrowUp))
	k.down[input.Down].Store(ebiten.IsKeyPressed(ebiten.KeyArrowDown))
	k.down[input.Left].Store(ebiten.IsKeyPressed(ebiten.KeyArrowLeft))
	k.down[input.Right].Store(ebiten.IsKeyPressed(ebiten.KeyArrowRight))
	k.down[input.Center].Store(ebiten.IsKeyPressed(ebiten.KeyEnter) || ebiten.IsKeyPressed(ebiten.KeySpace))
}

// simGame shows the framebuffer's front buffer.
type simGame struct {
	ctx    context.Context
	fb     *gfx.Framebuffer
	keys   *keyboard
	img    *ebiten.Image
	pix    []byte
	frame  uint64
	width  int
	height int
}

func (g *simGame) Update() error {
	if g.ctx.Err() != nil {
		return ebiten.Termination
	}
	g.keys.poll()
	return nil
}

func (g *simGame) Draw(screen *ebiten.Image) {
	if n := g.fb.CopyFront(g.pix); n != g.frame {
		g.frame = n
		g.img.WritePixels(g.pix)
	}
	screen.DrawImage(g.img, nil)
}

func (g *simGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.width, g.height
}

// runWindow blocks until the window is closed or ctx is done.
func runWindow(ctx context.Context, fb *gfx.Framebuffer, keys *keyboard, scale int) error {
	w, h := fb.Size()
	g := &simGame{
		ctx:    ctx,
		fb:     fb,
		keys:   keys,
		img:    ebiten.NewImage(int(w), int(h)),
		pix:    make([]byte, int(w)*int(h)*4),
		frame:  ^uint64(0),
		width:  int(w),
		height: int(h),
	}
	ebiten.SetWindowTitle("envdisplay")
	ebiten.SetWindowSize(int(w)*scale, int(h)*scale)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}
