package gfx

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinydraw"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freemono"
	"tinygo.org/x/tinyfont/proggy"
)

// rectFiller is implemented by panels with a hardware-accelerated fill,
// such as the st7789 driver.
type rectFiller interface {
	FillRectangle(x, y, width, height int16, c color.RGBA) error
}

// textFont is one text size. ascent moves the cursor from the top of the
// line to the font's baseline.
type textFont struct {
	font   tinyfont.Fonter
	ascent int16
}

var textSizes = [...]textFont{
	{font: &proggy.TinySZ8pt7b, ascent: 8},
	{font: &freemono.Bold9pt7b, ascent: 12},
	{font: &freemono.Bold12pt7b, ascent: 16},
}

// Display implements Canvas over a drivers.Displayer using tinydraw for
// shapes and tinyfont for text.
type Display struct {
	dev       drivers.Displayer
	filler    rectFiller
	width     int16
	height    int16
	cursorX   int16
	cursorY   int16
	textColor color.RGBA
	text      textFont
}

// NewDisplay wraps dev. The panel must already be configured.
func NewDisplay(dev drivers.Displayer) *Display {
	w, h := dev.Size()
	d := &Display{
		dev:       dev,
		width:     w,
		height:    h,
		textColor: White,
		text:      textSizes[0],
	}
	if f, ok := dev.(rectFiller); ok {
		d.filler = f
	}
	return d
}

func (d *Display) Size() (width, height int16) { return d.width, d.height }

func (d *Display) FillScreen(c color.RGBA) {
	d.FillRect(0, 0, d.width, d.height, c)
}

// FillRect clips the rectangle to the screen before filling; the st7789
// driver rejects rectangles that leave the panel.
func (d *Display) FillRect(x, y, w, h int16, c color.RGBA) {
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > d.width {
		w = d.width - x
	}
	if y+h > d.height {
		h = d.height - y
	}
	if w <= 0 || h <= 0 {
		return
	}
	if d.filler != nil {
		if err := d.filler.FillRectangle(x, y, w, h, c); err == nil {
			return
		}
	}
	tinydraw.FilledRectangle(d.dev, x, y, w, h, c)
}

func (d *Display) DrawRect(x, y, w, h int16, c color.RGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	d.DrawHLine(x, y, w, c)
	d.DrawHLine(x, y+h-1, w, c)
	d.FillRect(x, y, 1, h, c)
	d.FillRect(x+w-1, y, 1, h, c)
}

func (d *Display) FillRoundRect(x, y, w, h, r int16, c color.RGBA) {
	r = roundRadius(w, h, r)
	if r == 0 {
		d.FillRect(x, y, w, h, c)
		return
	}
	d.FillRect(x+r, y, w-2*r, h, c)
	d.FillRect(x, y+r, r, h-2*r, c)
	d.FillRect(x+w-r, y+r, r, h-2*r, c)
	tinydraw.FilledCircle(d.dev, x+r, y+r, r, c)
	tinydraw.FilledCircle(d.dev, x+w-r-1, y+r, r, c)
	tinydraw.FilledCircle(d.dev, x+r, y+h-r-1, r, c)
	tinydraw.FilledCircle(d.dev, x+w-r-1, y+h-r-1, r, c)
}

func (d *Display) DrawRoundRect(x, y, w, h, r int16, c color.RGBA) {
	r = roundRadius(w, h, r)
	if r == 0 {
		d.DrawRect(x, y, w, h, c)
		return
	}
	d.DrawHLine(x+r, y, w-2*r, c)
	d.DrawHLine(x+r, y+h-1, w-2*r, c)
	d.FillRect(x, y+r, 1, h-2*r, c)
	d.FillRect(x+w-1, y+r, 1, h-2*r, c)
	d.arc(x+r, y+r, r, 1, c)
	d.arc(x+w-r-1, y+r, r, 2, c)
	d.arc(x+w-r-1, y+h-r-1, r, 4, c)
	d.arc(x+r, y+h-r-1, r, 8, c)
}

// arc draws the quarter circles selected by corner (1 top-left, 2
// top-right, 4 bottom-right, 8 bottom-left) with the midpoint algorithm.
func (d *Display) arc(x0, y0, r int16, corner uint8, c color.RGBA) {
	f := 1 - r
	ddx := int16(1)
	ddy := -2 * r
	x := int16(0)
	y := r
	for x < y {
		if f >= 0 {
			y--
			ddy += 2
			f += ddy
		}
		x++
		ddx += 2
		f += ddx
		if corner&1 != 0 {
			d.dev.SetPixel(x0-y, y0-x, c)
			d.dev.SetPixel(x0-x, y0-y, c)
		}
		if corner&2 != 0 {
			d.dev.SetPixel(x0+x, y0-y, c)
			d.dev.SetPixel(x0+y, y0-x, c)
		}
		if corner&4 != 0 {
			d.dev.SetPixel(x0+x, y0+y, c)
			d.dev.SetPixel(x0+y, y0+x, c)
		}
		if corner&8 != 0 {
			d.dev.SetPixel(x0-y, y0+x, c)
			d.dev.SetPixel(x0-x, y0+y, c)
		}
	}
}

func roundRadius(w, h, r int16) int16 {
	if r < 0 {
		r = 0
	}
	if 2*r > w {
		r = w / 2
	}
	if 2*r > h {
		r = h / 2
	}
	return r
}

func (d *Display) FillCircle(x, y, r int16, c color.RGBA) {
	tinydraw.FilledCircle(d.dev, x, y, r, c)
}

func (d *Display) DrawCircle(x, y, r int16, c color.RGBA) {
	tinydraw.Circle(d.dev, x, y, r, c)
}

func (d *Display) FillTriangle(x0, y0, x1, y1, x2, y2 int16, c color.RGBA) {
	tinydraw.FilledTriangle(d.dev, x0, y0, x1, y1, x2, y2, c)
}

func (d *Display) DrawLine(x0, y0, x1, y1 int16, c color.RGBA) {
	tinydraw.Line(d.dev, x0, y0, x1, y1, c)
}

func (d *Display) DrawHLine(x, y, w int16, c color.RGBA) {
	d.FillRect(x, y, w, 1, c)
}

func (d *Display) SetTextSize(size uint8) {
	if size == 0 {
		size = 1
	}
	if int(size) > len(textSizes) {
		size = uint8(len(textSizes))
	}
	d.text = textSizes[size-1]
}

func (d *Display) SetTextColor(c color.RGBA) { d.textColor = c }

func (d *Display) SetCursor(x, y int16) {
	d.cursorX = x
	d.cursorY = y
}

func (d *Display) Print(s string) {
	if s == "" {
		return
	}
	tinyfont.WriteLine(d.dev, d.text.font, d.cursorX, d.cursorY+d.text.ascent, s, d.textColor)
	_, outbox := tinyfont.LineWidth(d.text.font, s)
	d.cursorX += int16(outbox)
}

// TextWidth returns how wide s renders at the current text size.
func (d *Display) TextWidth(s string) int16 {
	_, outbox := tinyfont.LineWidth(d.text.font, s)
	return int16(outbox)
}

func (d *Display) Display() error { return d.dev.Display() }
