//go:build !tinygo

package telemetry

import "github.com/fxamacker/cbor/v2"

func init() {
	decoders["cbor"] = func() (Decoder, error) { return NewCBORDecoder() }
}

// CBORDecoder decodes CBOR maps keyed like the JSON payload.
type CBORDecoder struct {
	mode cbor.DecMode
}

// NewCBORDecoder builds a decoder that rejects duplicate map keys.
func NewCBORDecoder() (*CBORDecoder, error) {
	mode, err := cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		return nil, err
	}
	return &CBORDecoder{mode: mode}, nil
}

func (d *CBORDecoder) Decode(payload []byte) (Fields, error) {
	var f Fields
	if err := d.mode.Unmarshal(payload, &f); err != nil {
		return Fields{}, &DecodeError{Format: "cbor", Err: err}
	}
	if err := Validate(f); err != nil {
		return Fields{}, &DecodeError{Format: "cbor", Err: err}
	}
	return f, nil
}
