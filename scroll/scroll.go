// Package scroll computes the vertical scroll position of the metric list,
// its scrollbar thumb and, optionally, a smoothed position that eases
// toward the target over successive ticks.
package scroll

// DefaultSmoothing is the fraction of the remaining distance covered per
// tick by the animated scroll.
const DefaultSmoothing = 0.3

// settleDistance is how close the smoothed offset must be to the target
// before the animation counts as finished.
const settleDistance = 0.5

// Geometry describes the scrollable content and the viewport showing it.
// All values are device pixels.
type Geometry struct {
	ItemCount   int
	ItemHeight  int
	ItemSpacing int
	Padding     int // Extra space below the last item.
	Viewport    int // Visible height of the list area.
	TopMargin   int // Y of the list area; the scrollbar starts here.
	MinThumb    int // Smallest scrollbar thumb height.
}

// Normalize clamps negative fields to zero. Negative geometry is a
// configuration bug; it must never yield a negative offset range.
func (g Geometry) Normalize() Geometry {
	for _, v := range []*int{&g.ItemCount, &g.ItemHeight, &g.ItemSpacing, &g.Padding, &g.Viewport, &g.TopMargin, &g.MinThumb} {
		if *v < 0 {
			*v = 0
		}
	}
	return g
}

// Pitch is the distance between the tops of two consecutive items.
func (g Geometry) Pitch() int { return g.ItemHeight + g.ItemSpacing }

// ContentHeight is the total height of the list including padding.
func (g Geometry) ContentHeight() int { return g.ItemCount*g.Pitch() + g.Padding }

// MaxOffset is the largest valid scroll offset.
func (g Geometry) MaxOffset() int {
	return max(0, g.ContentHeight()-g.Viewport)
}

// Scroll returns offset moved by delta and clamped to [0, MaxOffset].
func (g Geometry) Scroll(offset, delta int) int {
	return Clamp(offset+delta, 0, g.MaxOffset())
}

// Thumb is the scrollbar indicator.
type Thumb struct {
	Y       int
	Height  int
	Visible bool // False when the content fits the viewport.
}

// Scrollbar returns the thumb for offset. No thumb is shown when the content
// fits in the viewport.
func (g Geometry) Scrollbar(offset int) Thumb {
	maxOff := g.MaxOffset()
	content := g.ContentHeight()
	if maxOff == 0 || content == 0 {
		return Thumb{}
	}
	h := max(g.MinThumb, g.Viewport*g.Viewport/content)
	h = min(h, g.Viewport)
	offset = Clamp(offset, 0, maxOff)
	return Thumb{
		Y:       g.TopMargin + offset*(g.Viewport-h)/maxOff,
		Height:  h,
		Visible: true,
	}
}

// Clamp limits v to [lo, hi]. If hi < lo, lo wins.
func Clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// Model is the scroll state of the list. It is owned by the render
// goroutine.
type Model struct {
	geo      Geometry
	offset   int     // Target offset, always within [0, MaxOffset].
	smoothed float32 // Displayed offset when animated.
	animated bool
	factor   float32
}

// NewModel returns a Model at offset zero. When animated is false the
// displayed offset jumps straight to the target. A factor outside (0, 1]
// uses DefaultSmoothing.
func NewModel(g Geometry, animated bool, factor float32) *Model {
	if factor <= 0 || factor > 1 {
		factor = DefaultSmoothing
	}
	return &Model{geo: g.Normalize(), animated: animated, factor: factor}
}

// Geometry returns the current geometry.
func (m *Model) Geometry() Geometry { return m.geo }

// Animated reports whether the model smooths its displayed offset.
func (m *Model) Animated() bool { return m.animated }

// Target returns the clamped target offset.
func (m *Model) Target() int { return m.offset }

// Smoothed returns the raw smoothed offset.
func (m *Model) Smoothed() float32 { return m.smoothed }

// MaxOffset returns the largest valid offset.
func (m *Model) MaxOffset() int { return m.geo.MaxOffset() }

// Offset returns the offset to draw with.
func (m *Model) Offset() int {
	if !m.animated {
		return m.offset
	}
	return Clamp(int(m.smoothed+0.5), 0, m.geo.MaxOffset())
}

// Scroll moves the target by delta. It reports whether the target changed.
func (m *Model) Scroll(delta int) bool {
	next := m.geo.Scroll(m.offset, delta)
	if next == m.offset {
		return false
	}
	m.offset = next
	if !m.animated {
		m.smoothed = float32(next)
	}
	return true
}

// Reset jumps back to the top without animating.
func (m *Model) Reset() {
	m.offset = 0
	m.smoothed = 0
}

// SetItemCount changes the number of items and re-clamps the offsets.
func (m *Model) SetItemCount(n int) {
	if n < 0 {
		n = 0
	}
	if n == m.geo.ItemCount {
		return
	}
	m.geo.ItemCount = n
	m.offset = Clamp(m.offset, 0, m.geo.MaxOffset())
	if m.smoothed > float32(m.geo.MaxOffset()) {
		m.smoothed = float32(m.geo.MaxOffset())
	}
}

// Animating reports whether the smoothed offset is still visibly away from
// the target.
func (m *Model) Animating() bool {
	if !m.animated {
		return false
	}
	d := float32(m.offset) - m.smoothed
	return d > settleDistance || d < -settleDistance
}

// Step advances the smoothed offset one tick toward the target and reports
// whether it moved. Each step covers the smoothing factor of the remaining
// distance, so it never overshoots. Once within settleDistance it snaps to
// the target.
func (m *Model) Step() bool {
	if !m.animated {
		return false
	}
	target := float32(m.offset)
	if m.smoothed == target {
		return false
	}
	if !m.Animating() {
		m.smoothed = target
		return true
	}
	m.smoothed += (target - m.smoothed) * m.factor
	return true
}

// Scrollbar returns the thumb for the displayed offset.
func (m *Model) Scrollbar() Thumb { return m.geo.Scrollbar(m.Offset()) }
