package render

import "github.com/harveysanders/envdisplay/gfx"

// Icons are 12x12 glyphs with their top-left corner at (x, y).

func drawTempIcon(c gfx.Canvas, x, y int16) {
	c.FillCircle(x+4, y+12, 3, gfx.Red)
	c.FillRect(x+3, y, 3, 10, gfx.Red)
	c.DrawRect(x+2, y, 5, 10, gfx.White)
}

func drawHumidityIcon(c gfx.Canvas, x, y int16) {
	c.FillTriangle(x+4, y, x, y+8, x+8, y+8, gfx.Cyan)
	c.FillCircle(x+4, y+7, 3, gfx.Cyan)
}

func drawPressureIcon(c gfx.Canvas, x, y int16) {
	c.DrawCircle(x+5, y+6, 5, gfx.Yellow)
	c.DrawLine(x+5, y+6, x+8, y+3, gfx.Yellow)
}

func drawGasIcon(c gfx.Canvas, x, y int16) {
	c.FillCircle(x+3, y+5, 3, gfx.Magenta)
	c.FillCircle(x+7, y+5, 3, gfx.Magenta)
	c.FillRect(x+3, y+5, 5, 3, gfx.Magenta)
}

func drawAltitudeIcon(c gfx.Canvas, x, y int16) {
	c.FillTriangle(x, y+8, x+4, y, x+8, y+8, gfx.Green)
	c.FillTriangle(x+4, y+8, x+8, y+3, x+12, y+8, gfx.Green)
}
