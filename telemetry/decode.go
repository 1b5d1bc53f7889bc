package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDecode is wrapped by every error a Decoder returns.
var ErrDecode = errors.New("telemetry: decode")

// ErrNoFields is returned for payloads that parse but carry no known metric.
var ErrNoFields = errors.New("no telemetry fields present")

// DecodeError describes a payload that was rejected. The message is dropped
// and the Store is left untouched.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return "telemetry: decode " + e.Format + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }

// Decoder turns a raw message payload into a partial field set.
type Decoder interface {
	Decode(payload []byte) (Fields, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(payload []byte) (Fields, error)

func (f DecoderFunc) Decode(payload []byte) (Fields, error) { return f(payload) }

var decoders = map[string]func() (Decoder, error){
	"json": func() (Decoder, error) { return JSONDecoder{}, nil },
}

// NewDecoder returns the decoder registered for format.
func NewDecoder(format string) (Decoder, error) {
	mk, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("unsupported payload format %q (available: %v)", format, Formats())
	}
	return mk()
}

// Formats lists the registered payload formats.
func Formats() []string {
	out := make([]string, 0, len(decoders))
	for k := range decoders {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// JSONDecoder decodes payloads such as
//
//	{"temperature_c": 21.4, "humidity_pct": 48.0}
//
// Unknown keys are ignored.
type JSONDecoder struct{}

func (JSONDecoder) Decode(payload []byte) (Fields, error) {
	var f Fields
	if err := json.Unmarshal(payload, &f); err != nil {
		return Fields{}, &DecodeError{Format: "json", Err: err}
	}
	if err := Validate(f); err != nil {
		return Fields{}, &DecodeError{Format: "json", Err: err}
	}
	return f, nil
}

// Validate rejects field sets that are empty or hold values no sensor can
// produce.
func Validate(f Fields) error {
	if f.Empty() {
		return ErrNoFields
	}
	for _, v := range []struct {
		name string
		val  *float32
	}{
		{"temperature_c", f.Temperature},
		{"humidity_pct", f.Humidity},
		{"pressure_hpa", f.Pressure},
		{"altitude_m", f.Altitude},
		{"iaq", f.IAQ},
		{"co2_eq_ppm", f.CO2Equivalent},
	} {
		if v.val == nil {
			continue
		}
		x := float64(*v.val)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%s is not a finite number", v.name)
		}
	}
	if f.Humidity != nil && (*f.Humidity < 0 || *f.Humidity > 100) {
		return fmt.Errorf("humidity_pct out of range: %g (must be 0-100)", *f.Humidity)
	}
	if f.Pressure != nil && *f.Pressure <= 0 {
		return fmt.Errorf("pressure_hpa must be positive: %g", *f.Pressure)
	}
	return nil
}
