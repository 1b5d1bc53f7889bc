package gfx

import (
	"image"
	"image/color"
	"sync"
)

// Framebuffer is an in-memory drivers.Displayer. Drawing goes to a back
// buffer owned by the render goroutine; Display publishes it to a front
// buffer that other goroutines, such as the simulator window, can copy.
type Framebuffer struct {
	back *image.RGBA

	mu     sync.Mutex
	front  *image.RGBA
	frames uint64
}

// NewFramebuffer returns a black framebuffer of the given size.
func NewFramebuffer(width, height int) *Framebuffer {
	r := image.Rect(0, 0, width, height)
	fb := &Framebuffer{back: image.NewRGBA(r), front: image.NewRGBA(r)}
	fillRGBA(fb.back, r, Black)
	fillRGBA(fb.front, r, Black)
	return fb
}

func (f *Framebuffer) Size() (x, y int16) {
	b := f.back.Bounds()
	return int16(b.Dx()), int16(b.Dy())
}

func (f *Framebuffer) SetPixel(x, y int16, c color.RGBA) {
	if !(image.Point{int(x), int(y)}).In(f.back.Rect) {
		return
	}
	f.back.SetRGBA(int(x), int(y), c)
}

func (f *Framebuffer) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	r := image.Rect(int(x), int(y), int(x)+int(width), int(y)+int(height)).Intersect(f.back.Rect)
	fillRGBA(f.back, r, c)
	return nil
}

// Display copies the back buffer to the front buffer.
func (f *Framebuffer) Display() error {
	f.mu.Lock()
	copy(f.front.Pix, f.back.Pix)
	f.frames++
	f.mu.Unlock()
	return nil
}

// Pixel returns a pixel of the back buffer. Only the drawing goroutine may
// call it.
func (f *Framebuffer) Pixel(x, y int) color.RGBA {
	return f.back.RGBAAt(x, y)
}

// CopyFront copies the last displayed frame into dst, which must hold
// width*height*4 bytes of RGBA pixels. It returns the frame counter.
func (f *Framebuffer) CopyFront(dst []byte) uint64 {
	f.mu.Lock()
	copy(dst, f.front.Pix)
	n := f.frames
	f.mu.Unlock()
	return n
}

// Frames returns how many times Display was called.
func (f *Framebuffer) Frames() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}

func fillRGBA(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := img.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			img.Pix[i+0] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
			i += 4
		}
	}
}
