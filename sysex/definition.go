package sysex

import (
	"fmt"
	"math"

	"github.com/syxkit/syxkit/errs"
	"github.com/syxkit/syxkit/format"
)

// SysEx framing markers.
const (
	StartMarker = 0xF0 // StartMarker opens every SysEx message.
	EndMarker   = 0xF7 // EndMarker terminates every SysEx message.
)

// Defaults applied when a definition leaves the corresponding field unset.
const (
	DefaultTotalLength      = 256
	DefaultPresetNameLength = 16
	DefaultValueMin         = 0
	DefaultValueMax         = 127
)

// ParameterDefinition describes one scalar field of a device's parameter set:
// where it lives inside the message body and how its raw value maps onto the
// normalized [0, 1] range.
//
// Definitions are constructed once when a device format loads and are
// immutable afterwards.
type ParameterDefinition struct {
	// Name is the unique identifier used as the parameter map key.
	Name string

	// ByteOffset is the zero-based index into the message where the raw
	// field begins. For uint16 fields it addresses the most significant byte.
	ByteOffset int

	// BitMask selects the field's bits within the addressed byte (or the
	// combined big-endian value for uint16 fields). BitShift aligns the
	// selected bits down to bit zero.
	BitMask  uint16
	BitShift uint8

	// Min and Max are the inclusive bounds of the raw value domain.
	Min int
	Max int

	// Category is a free-form classification tag ("filter", "lfo", ...)
	// used downstream for grouping; it is not validated against a fixed set.
	Category string

	// CCNumber is the associated MIDI Continuous Controller number, or -1
	// when the parameter is not externally automatable.
	CCNumber int

	// DataType determines how many bytes are read and written.
	DataType format.DataType

	// Description is free text.
	Description string
}

// Normalize rescales a raw value into [0, 1], clamping it to the declared
// range first. A degenerate range (Max == Min) normalizes to 0.
func (p *ParameterDefinition) Normalize(raw int) float64 {
	clamped := min(max(raw, p.Min), p.Max)
	if p.Max > p.Min {
		return float64(clamped-p.Min) / float64(p.Max-p.Min)
	}

	return 0.0
}

// Denormalize converts a normalized value back into the raw domain, rounding
// half away from zero and clamping to the declared range. Normalize and
// Denormalize are inverse affine maps, so every raw value in [Min, Max]
// round-trips exactly.
func (p *ParameterDefinition) Denormalize(normalized float64) int {
	raw := int(math.Round(normalized*float64(p.Max-p.Min) + float64(p.Min)))

	return min(max(raw, p.Min), p.Max)
}

func (p *ParameterDefinition) validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: parameter with empty name", errs.ErrInvalidDefinition)
	}
	if p.ByteOffset < 0 {
		return fmt.Errorf("%w: parameter %q has negative byte offset", errs.ErrInvalidDefinition, p.Name)
	}
	if p.Min > p.Max {
		return fmt.Errorf("%w: parameter %q has inverted value range [%d, %d]", errs.ErrInvalidDefinition, p.Name, p.Min, p.Max)
	}
	if p.CCNumber > 127 {
		return fmt.Errorf("%w: parameter %q has CC number %d out of range", errs.ErrInvalidDefinition, p.Name, p.CCNumber)
	}
	if p.DataType != format.TypeUint8 && p.DataType != format.TypeUint16 {
		return fmt.Errorf("%w: parameter %q has unsupported data type", errs.ErrInvalidDefinition, p.Name)
	}

	return nil
}

// Header identifies a device family on the wire: the manufacturer ID bytes
// that follow the start marker, plus optional device, model and command
// bytes in that order. Optional bytes use -1 for "not declared".
type Header struct {
	ManufacturerID []byte
	DeviceID       int
	ModelID        int
	Command        int
}

// Matches reports whether data starts a message of this device family.
//
// In MatchManufacturer mode only the start marker and manufacturer ID bytes
// are compared; declared device, model and command bytes are informational.
// This tolerates device-ID variance across individual units, which is why it
// is the default. MatchStrict additionally verifies every declared header
// byte.
func (h *Header) Matches(data []byte, mode format.MatchMode) bool {
	if len(data) < 1+len(h.ManufacturerID) {
		return false
	}
	if data[0] != StartMarker {
		return false
	}
	for i, b := range h.ManufacturerID {
		if data[1+i] != b {
			return false
		}
	}
	if mode != format.MatchStrict {
		return true
	}

	offset := 1 + len(h.ManufacturerID)
	for _, declared := range []int{h.DeviceID, h.ModelID, h.Command} {
		if declared < 0 {
			continue
		}
		if offset >= len(data) || data[offset] != byte(declared) {
			return false
		}
		offset++
	}

	return true
}

// Length returns the number of bytes the header occupies on the wire,
// including the start marker and every declared optional byte.
func (h *Header) Length() int {
	n := 1 + len(h.ManufacturerID)
	for _, declared := range []int{h.DeviceID, h.ModelID, h.Command} {
		if declared >= 0 {
			n++
		}
	}

	return n
}

// Definition is one device family's full wire format: the header matcher,
// the named parameter fields and the layout metadata used for preset names,
// checksums and encoding.
//
// Definitions are loaded once (from a built-in constant or a config file)
// and are immutable afterwards; decoders and encoders share them freely.
type Definition struct {
	Name    string
	Version string
	Header  Header

	// Parameters maps parameter name to its definition. Names are unique by
	// construction of the map.
	Parameters map[string]*ParameterDefinition

	// PresetNameOffset locates an embedded ASCII preset-name field,
	// PresetNameLength bytes long. Zero means no preset name: offset 0 is
	// the start marker and can never hold a name byte.
	PresetNameOffset int
	PresetNameLength int

	// ChecksumOffset locates a single-byte checksum. Zero means none.
	ChecksumOffset int

	// TotalLength is the nominal message length used when encoding from
	// scratch. It is not enforced on decode; partial dumps are common.
	TotalLength int
}

// Validate checks the definition's internal consistency. It is called by
// the registry and the codec constructors, so a definition that reaches a
// decoder or encoder is known to be well formed.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: empty definition name", errs.ErrInvalidDefinition)
	}
	if len(d.Header.ManufacturerID) == 0 {
		return fmt.Errorf("%w: definition %q has no manufacturer ID", errs.ErrInvalidDefinition, d.Name)
	}
	if len(d.Parameters) == 0 {
		return fmt.Errorf("%w: definition %q has no parameters", errs.ErrInvalidDefinition, d.Name)
	}
	for name, param := range d.Parameters {
		if param.Name != name {
			return fmt.Errorf("%w: parameter keyed %q is named %q", errs.ErrInvalidDefinition, name, param.Name)
		}
		if err := param.validate(); err != nil {
			return err
		}
		if d.TotalLength > 0 && param.ByteOffset+param.DataType.Size() > d.TotalLength-1 {
			return fmt.Errorf("%w: parameter %q at offset %d does not fit in total length %d",
				errs.ErrInvalidDefinition, name, param.ByteOffset, d.TotalLength)
		}
	}
	if d.PresetNameOffset > 0 && d.TotalLength > 0 && d.PresetNameOffset+d.PresetNameLength > d.TotalLength-1 {
		return fmt.Errorf("%w: preset name window [%d, %d) does not fit in total length %d",
			errs.ErrInvalidDefinition, d.PresetNameOffset, d.PresetNameOffset+d.PresetNameLength, d.TotalLength)
	}
	if d.ChecksumOffset > 0 && d.TotalLength > 0 && d.ChecksumOffset >= d.TotalLength-1 {
		return fmt.Errorf("%w: checksum offset %d does not fit in total length %d",
			errs.ErrInvalidDefinition, d.ChecksumOffset, d.TotalLength)
	}

	return nil
}
