//go:build tinygo

package backlight

import "machine"

// pwm is the part of a TinyGo PWM slice the backlight needs.
type pwm interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// Backlight is a PWM channel driving the backlight pin.
type Backlight struct {
	pwm pwm
	ch  uint8
}

// Configure starts the carrier on p, attaches pin and sets level. The pin
// must be wired to one of p's two outputs.
func Configure(p pwm, pin machine.Pin, level uint8) (*Backlight, error) {
	err := p.Configure(machine.PWMConfig{Period: uint64(Period)})
	if err != nil {
		return nil, err
	}
	ch, err := p.Channel(pin)
	if err != nil {
		return nil, err
	}
	b := &Backlight{pwm: p, ch: ch}
	b.Set(level)
	return b, nil
}

// Set changes the brightness.
func (b *Backlight) Set(level uint8) {
	b.pwm.Set(b.ch, Duty(level, b.pwm.Top()))
}
