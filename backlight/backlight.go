// Package backlight drives the panel backlight with PWM.
package backlight

import "time"

const (
	// DefaultLevel is about 80% brightness.
	DefaultLevel uint8 = 200
	// Frequency is the PWM carrier, high enough to be flicker free.
	Frequency = 5000
	// Period is the carrier period handed to the PWM peripheral.
	Period = time.Second / Frequency
)

// Duty converts an 8-bit brightness level to a compare value for a PWM
// counter that wraps at top. Level 255 is fully on and 0 fully off.
func Duty(level uint8, top uint32) uint32 {
	return uint32(uint64(top) * uint64(level) / 255)
}
