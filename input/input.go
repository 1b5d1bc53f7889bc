// Package input turns raw per-tick button levels from the 5-way switch
// into discrete press events.
package input

import "time"

// DefaultCooldown is how long a view-changing button is ignored after it
// fired.
const DefaultCooldown = 300 * time.Millisecond

// Button is a logical direction on the 5-way switch.
type Button uint8

const (
	Up Button = iota
	Down
	Left
	Right
	Center
	NumButtons
)

func (b Button) String() string {
	switch b {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	case Center:
		return "center"
	}
	return "unknown"
}

// Sampler reports the current level of a button. True means pressed.
type Sampler interface {
	Sample(b Button) bool
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func(b Button) bool

func (f SamplerFunc) Sample(b Button) bool { return f(b) }

// Pressed is the set of buttons that produced a press event in one poll.
type Pressed uint8

// Has reports whether b is in the set.
func (p Pressed) Has(b Button) bool { return p&(1<<b) != 0 }

// Any reports whether the set is non-empty.
func (p Pressed) Any() bool { return p != 0 }

func (p *Pressed) add(b Button) { *p |= 1 << b }

// Reader detects rising edges. Up and Down fire on every edge; Left, Right
// and Center are additionally held off for the cool-down window after they
// fire, so one physical press cannot trigger two view changes.
type Reader struct {
	sampler    Sampler
	cooldown   time.Duration
	prev       [NumButtons]bool
	lastAction [NumButtons]time.Time
	fired      [NumButtons]bool
}

// NewReader returns a Reader polling s. A non-positive cooldown uses
// DefaultCooldown.
func NewReader(s Sampler, cooldown time.Duration) *Reader {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Reader{sampler: s, cooldown: cooldown}
}

// usesCooldown reports whether b changes the view and needs a cool-down.
func usesCooldown(b Button) bool {
	return b == Left || b == Right || b == Center
}

// Poll samples every button once and returns the buttons that were just
// pressed.
func (r *Reader) Poll(now time.Time) Pressed {
	var p Pressed
	for b := Button(0); b < NumButtons; b++ {
		level := r.sampler.Sample(b)
		edge := level && !r.prev[b]
		r.prev[b] = level
		if !edge {
			continue
		}
		if usesCooldown(b) {
			if r.fired[b] && now.Sub(r.lastAction[b]) < r.cooldown {
				continue
			}
			r.fired[b] = true
			r.lastAction[b] = now
		}
		p.add(b)
	}
	return p
}
