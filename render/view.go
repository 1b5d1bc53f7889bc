package render

import (
	"image/color"

	"github.com/harveysanders/envdisplay/gfx"
	"github.com/harveysanders/envdisplay/telemetry"
)

// View is what currently fills the screen.
type View uint8

const (
	ViewMetrics View = iota
	ViewLeft
	ViewRight
	ViewCenter
)

func (v View) String() string {
	switch v {
	case ViewMetrics:
		return "metrics"
	case ViewLeft:
		return "left"
	case ViewRight:
		return "right"
	case ViewCenter:
		return "center"
	}
	return "unknown"
}

// drawMetrics draws the full metric screen: items first, then the header on
// top so partially scrolled items never overlap it, then the scrollbar.
func (w *Worker) drawMetrics(snap telemetry.Snapshot, known bool) {
	c := w.canvas
	l := w.cfg.Layout
	c.FillScreen(gfx.Black)

	pitch := l.Pitch()
	y := l.Header + l.Inset - int16(w.scroll.Offset())
	for _, m := range metricsFor(snap) {
		if y > l.Header-pitch && y < w.height {
			if l.Cards {
				w.drawCard(m, snap, known, y)
			} else {
				w.drawRow(m, snap, known, y)
			}
		}
		y += pitch
	}

	w.drawHeader()

	if th := w.scroll.Scrollbar(); th.Visible {
		c.FillRect(w.width-5, int16(th.Y), 3, int16(th.Height), gfx.Green)
	}
}

func (w *Worker) drawHeader() {
	c := w.canvas
	bar := w.cfg.Layout.Header - 5
	c.FillRect(0, 0, w.width, bar, gfx.Blue)
	c.DrawLine(0, bar, w.width, bar, gfx.Cyan)
	c.SetTextSize(2)
	c.SetTextColor(gfx.White)
	c.SetCursor(10, (bar-16)/2)
	c.Print(w.cfg.Title)

	cy := bar / 2
	c.FillCircle(w.width-26, cy, 4, statusColor(w.linkUp))
	c.FillCircle(w.width-12, cy, 4, statusColor(w.subscribed))
}

func statusColor(ok bool) color.RGBA {
	if ok {
		return gfx.Green
	}
	return gfx.Red
}

// drawRow is the compact layout: icon, value, bar on one 20px line.
func (w *Worker) drawRow(m metric, snap telemetry.Snapshot, known bool, y int16) {
	c := w.canvas
	m.icon(c, 5, y)
	c.SetTextSize(2)
	c.SetTextColor(gfx.White)
	c.SetCursor(25, y)
	w.buf = m.appendValue(w.buf[:0], snap, known)
	c.Print(string(w.buf))
	drawBar(c, w.width-90, y+2, 65, 12, barValue(m, snap, known), m.min, m.max, m.color)
}

// drawCard is the card layout: a rounded panel with label, value and bar.
func (w *Worker) drawCard(m metric, snap telemetry.Snapshot, known bool, y int16) {
	c := w.canvas
	h := w.cfg.Layout.ItemHeight
	cardW := w.width - 14
	c.FillRoundRect(4, y, cardW, h, 6, gfx.DarkGrey)
	c.DrawRoundRect(4, y, cardW, h, 6, m.color)
	m.icon(c, 10, y+(h-12)/2)

	c.SetTextSize(1)
	c.SetTextColor(gfx.Grey)
	c.SetCursor(28, y+3)
	c.Print(m.label)

	c.SetTextSize(2)
	c.SetTextColor(gfx.White)
	c.SetCursor(28, y+h-20)
	w.buf = m.appendValue(w.buf[:0], snap, known)
	c.Print(string(w.buf))

	drawBar(c, w.width-85, y+(h-12)/2, 65, 12, barValue(m, snap, known), m.min, m.max, m.color)
}

func barValue(m metric, snap telemetry.Snapshot, known bool) float32 {
	if !known {
		return m.min
	}
	return m.value(snap)
}

// clearWithLabel blanks the screen and prints text in the top-left corner.
func (w *Worker) clearWithLabel(text string) {
	c := w.canvas
	c.FillScreen(gfx.Black)
	c.SetTextSize(2)
	c.SetTextColor(gfx.White)
	c.SetCursor(10, 10)
	c.Print(text)
}

func (w *Worker) drawArrowLeft() {
	w.clearWithLabel("LEFT")
	cx, cy := w.width/2, w.height/2
	w.canvas.FillTriangle(cx-50, cy, cx+20, cy-30, cx+20, cy+30, gfx.Green)
}

func (w *Worker) drawArrowRight() {
	w.clearWithLabel("RIGHT")
	cx, cy := w.width/2, w.height/2
	w.canvas.FillTriangle(cx+50, cy, cx-20, cy-30, cx-20, cy+30, gfx.Green)
}

func (w *Worker) drawCenterOK() {
	w.clearWithLabel("CENTER")
	c := w.canvas
	cx, cy := w.width/2, w.height/2
	c.FillCircle(cx, cy, 35, gfx.Blue)
	c.SetTextSize(2)
	c.SetTextColor(gfx.White)
	c.SetCursor(cx-20, cy-8)
	c.Print("OK")
}
