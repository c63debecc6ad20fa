package sysex

import (
	"fmt"
	"os"

	"github.com/syxkit/syxkit/errs"
	"github.com/syxkit/syxkit/format"
)

// Encoder produces bit-exact SysEx messages from normalized parameter sets
// using a device format definition.
//
// Like Decoder, an Encoder holds no mutable state and is safe for
// concurrent use once constructed.
type Encoder struct {
	def *Definition
}

// NewEncoder creates an encoder for the given definition.
func NewEncoder(def *Definition) (*Encoder, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	return &Encoder{def: def}, nil
}

// Definition returns the immutable definition this encoder was built with.
func (e *Encoder) Definition() *Definition {
	return e.def
}

// EncodePreset builds a complete message from normalized parameter values.
//
// The buffer is zero-filled at the definition's total length (or
// DefaultTotalLength when unset), the header bytes are written first, then
// every parameter present in both the input map and the definition, then
// the preset name and checksum when configured, and finally the end marker
// at the last byte.
//
// Sub-byte fields are written with a masked read-modify-write, so several
// parameters sharing one byte through disjoint masks never clobber each
// other. Values are denormalized with round-half-away-from-zero and clamped
// to the parameter's declared range.
func (e *Encoder) EncodePreset(parameters map[string]float64, presetName string) ([]byte, error) {
	totalLength := e.def.TotalLength
	if totalLength <= 0 {
		totalLength = DefaultTotalLength
	}
	if headerLen := e.def.Header.Length(); totalLength < headerLen+1 {
		return nil, fmt.Errorf("%w: total length %d cannot hold a %d-byte header",
			errs.ErrInvalidDefinition, totalLength, headerLen)
	}

	buf := make([]byte, totalLength)
	e.writeHeader(buf)

	for name, param := range e.def.Parameters {
		normalized, ok := parameters[name]
		if !ok {
			continue
		}
		writeParameterValue(buf, param, param.Denormalize(normalized))
	}

	if e.def.PresetNameOffset > 0 {
		e.writePresetName(buf, presetName)
	}

	if pos := e.def.ChecksumOffset; pos > 0 && pos < len(buf)-1 {
		buf[pos] = calculateChecksum(buf, pos)
	}

	buf[len(buf)-1] = EndMarker

	return buf, nil
}

// WriteFile encodes presets back to back into a single .syx file.
//
// names supplies per-preset names; missing entries fall back to
// "Preset_<n>" counted from one.
func (e *Encoder) WriteFile(path string, presets []map[string]float64, names []string) error {
	var out []byte
	for i, preset := range presets {
		name := fmt.Sprintf("Preset_%d", i+1)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}

		data, err := e.EncodePreset(preset, name)
		if err != nil {
			return err
		}
		out = append(out, data...)
	}

	return os.WriteFile(path, out, 0o644)
}

// writeHeader writes the start marker, the manufacturer ID and every
// declared optional header byte at a running offset.
func (e *Encoder) writeHeader(buf []byte) {
	buf[0] = StartMarker
	copy(buf[1:], e.def.Header.ManufacturerID)

	offset := 1 + len(e.def.Header.ManufacturerID)
	for _, declared := range []int{e.def.Header.DeviceID, e.def.Header.ModelID, e.def.Header.Command} {
		if declared < 0 {
			continue
		}
		buf[offset] = byte(declared)
		offset++
	}
}

// writeParameterValue writes one raw value into the buffer, clearing the
// bits selected by the parameter's mask and leaving all other bits of the
// target byte(s) untouched. Fields falling outside the buffer are skipped,
// mirroring the decoder's truncation behavior.
func writeParameterValue(buf []byte, param *ParameterDefinition, raw int) {
	switch param.DataType {
	case format.TypeUint8:
		if param.ByteOffset >= len(buf) {
			return
		}
		b := uint16(buf[param.ByteOffset])
		b &^= param.BitMask
		b |= (uint16(raw) << param.BitShift) & param.BitMask
		buf[param.ByteOffset] = byte(b)
	case format.TypeUint16:
		if param.ByteOffset+1 >= len(buf) {
			return
		}
		combined := wireEngine.Uint16(buf[param.ByteOffset : param.ByteOffset+2])
		combined &^= param.BitMask
		combined |= (uint16(raw) << param.BitShift) & param.BitMask
		wireEngine.PutUint16(buf[param.ByteOffset:param.ByteOffset+2], combined)
	}
}

// writePresetName truncates the name to the configured window, replaces
// non-ASCII characters, and right-pads with NUL to exactly the window size.
func (e *Encoder) writePresetName(buf []byte, name string) {
	start := e.def.PresetNameOffset
	length := e.def.PresetNameLength

	encoded := make([]byte, 0, length)
	for _, r := range name {
		if len(encoded) == length {
			break
		}
		if r > 0x7F {
			encoded = append(encoded, '?')
			continue
		}
		encoded = append(encoded, byte(r))
	}
	for len(encoded) < length {
		encoded = append(encoded, 0x00)
	}

	for i, b := range encoded {
		if start+i >= len(buf) {
			break
		}
		buf[start+i] = b
	}
}
