package render

import (
	"image/color"
	"strconv"

	"github.com/harveysanders/envdisplay/gfx"
	"github.com/harveysanders/envdisplay/telemetry"
)

// metric describes one row of the list.
type metric struct {
	label    string
	unit     string
	min, max float32
	color    color.RGBA
	icon     func(c gfx.Canvas, x, y int16)
	value    func(s telemetry.Snapshot) float32
	// whole prints the value without decimals.
	whole bool
	// scale divides the value before printing.
	scale float32
}

var baseMetrics = []metric{
	{
		label: "Temperature", unit: "C", min: 0, max: 50, color: gfx.Red,
		icon:  drawTempIcon,
		value: func(s telemetry.Snapshot) float32 { return s.Temperature },
	},
	{
		label: "Humidity", unit: "%", min: 0, max: 100, color: gfx.Cyan,
		icon:  drawHumidityIcon,
		value: func(s telemetry.Snapshot) float32 { return s.Humidity },
	},
	{
		label: "Pressure", unit: "hPa", min: 950, max: 1050, color: gfx.Yellow,
		icon:  drawPressureIcon,
		value: func(s telemetry.Snapshot) float32 { return s.Pressure },
	},
	{
		label: "Gas", unit: "k", min: 0, max: 300000, color: gfx.Magenta,
		icon:  drawGasIcon,
		value: func(s telemetry.Snapshot) float32 { return float32(s.GasResistance) },
		whole: true, scale: 1000,
	},
	{
		label: "Altitude", unit: "m", min: 0, max: 500, color: gfx.Green,
		icon:  drawAltitudeIcon,
		value: func(s telemetry.Snapshot) float32 { return s.Altitude },
	},
}

var airQualityMetrics = []metric{
	{
		label: "IAQ", unit: "", min: 0, max: 500, color: gfx.Orange,
		icon:  drawGasIcon,
		value: func(s telemetry.Snapshot) float32 { return s.IAQ },
		whole: true,
	},
	{
		label: "CO2", unit: "ppm", min: 400, max: 2000, color: gfx.White,
		icon:  drawGasIcon,
		value: func(s telemetry.Snapshot) float32 { return s.CO2Equivalent },
		whole: true,
	},
}

// metricsFor returns the rows to show for s.
func metricsFor(s telemetry.Snapshot) []metric {
	if !s.HasAirQuality {
		return baseMetrics
	}
	return allMetrics
}

var allMetrics = append(append([]metric(nil), baseMetrics...), airQualityMetrics...)

// appendValue formats m's value into buf. A store that never received an
// update shows placeholders.
func (m metric) appendValue(buf []byte, s telemetry.Snapshot, known bool) []byte {
	if !known {
		buf = append(buf, "--"...)
		return append(buf, m.unit...)
	}
	v := m.value(s)
	if m.scale != 0 {
		v /= m.scale
	}
	if m.whole {
		buf = strconv.AppendInt(buf, int64(v), 10)
	} else {
		buf = strconv.AppendFloat(buf, float64(v), 'f', 1, 32)
	}
	return append(buf, m.unit...)
}

// barFill maps value into [0, width] after clamping to [lo, hi].
func barFill(value, lo, hi float32, width int16) int16 {
	if hi <= lo || width <= 0 {
		return 0
	}
	if value < lo {
		value = lo
	}
	if value > hi {
		value = hi
	}
	return int16((value - lo) * float32(width) / (hi - lo))
}

// drawBar draws an outlined bar filled in proportion to value.
func drawBar(c gfx.Canvas, x, y, w, h int16, value, lo, hi float32, col color.RGBA) {
	c.DrawRect(x, y, w, h, gfx.White)
	if fill := barFill(value, lo, hi, w-2); fill > 0 {
		c.FillRect(x+1, y+1, fill, h-2, col)
	}
}
