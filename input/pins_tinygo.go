//go:build tinygo

package input

import "machine"

// Pins maps each logical button to a GPIO of an active-low 5-way switch.
type Pins [NumButtons]machine.Pin

// Configure sets every pin as an input with the internal pull-up enabled.
func (p Pins) Configure() {
	for _, pin := range p {
		pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}
}

// Sample reads the pin for b. The switch pulls the line low when pressed.
func (p Pins) Sample(b Button) bool {
	if b >= NumButtons {
		return false
	}
	return !p[b].Get()
}
