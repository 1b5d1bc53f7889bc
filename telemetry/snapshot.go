// Package telemetry holds the environmental readings shown on the display.
//
// A Snapshot is a complete point-in-time copy of every metric. Remote
// publishers send partial updates (Fields) which the Store merges into the
// current Snapshot, leaving metrics the payload did not mention untouched.
package telemetry

// Snapshot is a point-in-time copy of all telemetry values.
type Snapshot struct {
	Temperature   float32 // Degrees Celsius.
	Humidity      float32 // Relative humidity percentage.
	Pressure      float32 // Hectopascal.
	GasResistance uint32  // Ohms, as reported by the BME680 gas sensor.
	Altitude      float32 // Meters.

	// Derived air-quality values. Only meaningful when HasAirQuality is set.
	IAQ           float32 // Indoor air quality index, 0..500.
	CO2Equivalent float32 // Estimated CO2 in ppm.
	HasAirQuality bool
}

// Fields is a partial update. A nil pointer means "not present in the
// payload" and leaves the corresponding Snapshot value unchanged.
type Fields struct {
	Temperature   *float32 `json:"temperature_c,omitempty" cbor:"temperature_c,omitempty" yaml:"temperature_c,omitempty"`
	Humidity      *float32 `json:"humidity_pct,omitempty" cbor:"humidity_pct,omitempty" yaml:"humidity_pct,omitempty"`
	Pressure      *float32 `json:"pressure_hpa,omitempty" cbor:"pressure_hpa,omitempty" yaml:"pressure_hpa,omitempty"`
	GasResistance *uint32  `json:"gas_resistance_ohm,omitempty" cbor:"gas_resistance_ohm,omitempty" yaml:"gas_resistance_ohm,omitempty"`
	Altitude      *float32 `json:"altitude_m,omitempty" cbor:"altitude_m,omitempty" yaml:"altitude_m,omitempty"`
	IAQ           *float32 `json:"iaq,omitempty" cbor:"iaq,omitempty" yaml:"iaq,omitempty"`
	CO2Equivalent *float32 `json:"co2_eq_ppm,omitempty" cbor:"co2_eq_ppm,omitempty" yaml:"co2_eq_ppm,omitempty"`
}

// Empty reports whether f carries no values at all.
func (f Fields) Empty() bool {
	return f.Temperature == nil &&
		f.Humidity == nil &&
		f.Pressure == nil &&
		f.GasResistance == nil &&
		f.Altitude == nil &&
		f.IAQ == nil &&
		f.CO2Equivalent == nil
}

// Merge returns a copy of s with every present field of f applied.
func (s Snapshot) Merge(f Fields) Snapshot {
	if f.Temperature != nil {
		s.Temperature = *f.Temperature
	}
	if f.Humidity != nil {
		s.Humidity = *f.Humidity
	}
	if f.Pressure != nil {
		s.Pressure = *f.Pressure
	}
	if f.GasResistance != nil {
		s.GasResistance = *f.GasResistance
	}
	if f.Altitude != nil {
		s.Altitude = *f.Altitude
	}
	if f.IAQ != nil {
		s.IAQ = *f.IAQ
		s.HasAirQuality = true
	}
	if f.CO2Equivalent != nil {
		s.CO2Equivalent = *f.CO2Equivalent
		s.HasAirQuality = true
	}
	return s
}

// F32 returns a pointer to v. Handy for building Fields literals.
func F32(v float32) *float32 { return &v }

// U32 returns a pointer to v.
func U32(v uint32) *uint32 { return &v }
