package telemetry

import (
	"errors"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func TestJSONDecoder(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Snapshot
		wantErr bool
	}{
		{
			name:    "partial payload",
			payload: `{"temperature_c": 21.5, "humidity_pct": 40}`,
			want:    Snapshot{Temperature: 21.5, Humidity: 40, Pressure: 1000},
		},
		{
			name:    "unknown keys ignored",
			payload: `{"station_id": "attic", "gas_resistance_ohm": 90000}`,
			want:    Snapshot{Pressure: 1000, GasResistance: 90000},
		},
		{name: "malformed", payload: `{"temperature_c": `, wantErr: true},
		{name: "no known fields", payload: `{"station_id": "attic"}`, wantErr: true},
		{name: "humidity out of range", payload: `{"humidity_pct": 140}`, wantErr: true},
		{name: "pressure not positive", payload: `{"pressure_hpa": 0}`, wantErr: true},
		{name: "wrong type", payload: `{"temperature_c": "warm"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := JSONDecoder{}.Decode([]byte(tt.payload))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Decode(%s) error = nil; want error", tt.payload)
				}
				if !errors.Is(err, ErrDecode) {
					t.Errorf("error %v does not wrap ErrDecode", err)
				}
				var de *DecodeError
				if !errors.As(err, &de) || de.Format != "json" {
					t.Errorf("error %v is not a json DecodeError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode(%s) error = %v", tt.payload, err)
			}
			got := Snapshot{Pressure: 1000}.Merge(f)
			if got != tt.want {
				t.Errorf("merged = %+v; want %+v", got, tt.want)
			}
		})
	}
}

func TestDecodeFailureLeavesStoreUnchanged(t *testing.T) {
	s := NewStore(Snapshot{Temperature: 19})
	s.Update(Fields{Humidity: F32(50)})
	before, v := s.Read()

	if f, err := (JSONDecoder{}).Decode([]byte("not json")); err == nil {
		s.Update(f)
	}

	after, v2 := s.Read()
	if v2 != v {
		t.Errorf("version = %d; want %d", v2, v)
	}
	if after != before {
		t.Errorf("snapshot = %+v; want %+v", after, before)
	}
}

func TestCBORDecoder(t *testing.T) {
	d, err := NewDecoder("cbor")
	if err != nil {
		t.Fatalf("NewDecoder(cbor) error = %v", err)
	}

	payload, err := cbor.Marshal(map[string]any{
		"pressure_hpa": 1002.5,
		"co2_eq_ppm":   612.0,
	})
	if err != nil {
		t.Fatal(err)
	}

	f, err := d.Decode(payload)
	if err != nil {
		t.Fatalf("Decode error = %v", err)
	}
	got := Snapshot{}.Merge(f)
	if got.Pressure != 1002.5 || got.CO2Equivalent != 612 || !got.HasAirQuality {
		t.Errorf("merged = %+v; want pressure 1002.5 and co2 612", got)
	}

	if _, err := d.Decode([]byte{0xff, 0x00}); !errors.Is(err, ErrDecode) {
		t.Errorf("Decode(garbage) error = %v; want ErrDecode", err)
	}
}

func TestNewDecoderUnknownFormat(t *testing.T) {
	if _, err := NewDecoder("xml"); err == nil {
		t.Error("NewDecoder(xml) error = nil; want error")
	}
}
