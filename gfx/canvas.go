// Package gfx is the drawing surface the renderer talks to.
//
// Canvas mirrors the primitive set of the Adafruit GFX family the panel was
// first driven with: rectangles, rounded rectangles, circles, triangles,
// lines and cursor-based text. Display implements it on top of any
// tinygo.org/x/drivers Displayer.
package gfx

import "image/color"

// Canvas is a synchronous, side-effect-only draw sink. Coordinates are
// device pixels.
type Canvas interface {
	Size() (width, height int16)

	FillScreen(c color.RGBA)
	FillRect(x, y, w, h int16, c color.RGBA)
	DrawRect(x, y, w, h int16, c color.RGBA)
	FillRoundRect(x, y, w, h, r int16, c color.RGBA)
	DrawRoundRect(x, y, w, h, r int16, c color.RGBA)
	FillCircle(x, y, r int16, c color.RGBA)
	DrawCircle(x, y, r int16, c color.RGBA)
	FillTriangle(x0, y0, x1, y1, x2, y2 int16, c color.RGBA)
	DrawLine(x0, y0, x1, y1 int16, c color.RGBA)
	DrawHLine(x, y, w int16, c color.RGBA)

	// SetTextSize selects the font scale. 1 is the small font.
	SetTextSize(size uint8)
	SetTextColor(c color.RGBA)
	// SetCursor sets the top-left corner of the next Print.
	SetCursor(x, y int16)
	// Print draws s at the cursor and advances the cursor past it.
	Print(s string)

	// Display flushes the frame to the panel, if the panel buffers.
	Display() error
}

// Colors of the ST77XX palette.
var (
	Black    = color.RGBA{0x00, 0x00, 0x00, 0xFF}
	White    = color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	Red      = color.RGBA{0xFF, 0x00, 0x00, 0xFF}
	Green    = color.RGBA{0x00, 0xFF, 0x00, 0xFF}
	Blue     = color.RGBA{0x00, 0x00, 0xFF, 0xFF}
	Cyan     = color.RGBA{0x00, 0xFF, 0xFF, 0xFF}
	Magenta  = color.RGBA{0xFF, 0x00, 0xFF, 0xFF}
	Yellow   = color.RGBA{0xFF, 0xFF, 0x00, 0xFF}
	Orange   = color.RGBA{0xFF, 0xA5, 0x00, 0xFF}
	DarkGrey = color.RGBA{0x28, 0x28, 0x30, 0xFF}
	Grey     = color.RGBA{0x80, 0x80, 0x80, 0xFF}
)

// RGB565 packs 8-bit components into the panel's 16-bit format:
// rrrrrggggggbbbbb.
func RGB565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// FromRGB565 expands a packed color. The low bits of each component are
// filled from the high bits so white stays white.
func FromRGB565(c uint16) color.RGBA {
	r := uint8(c>>11) & 0x1F
	g := uint8(c>>5) & 0x3F
	b := uint8(c) & 0x1F
	return color.RGBA{
		R: r<<3 | r>>2,
		G: g<<2 | g>>4,
		B: b<<3 | b>>2,
		A: 0xFF,
	}
}
