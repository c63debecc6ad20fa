package sysex

import (
	"strings"
)

// DecodedParameter is one parameter's value as extracted from a message.
type DecodedParameter struct {
	Raw        int     `json:"raw_value"`
	Normalized float64 `json:"normalized_value"`
	Category   string  `json:"category"`
	// CCNumber is the parameter's MIDI CC number, or -1 when it has none.
	CCNumber    int    `json:"cc_number"`
	Description string `json:"description,omitempty"`
}

// Metadata describes the message a preset was decoded from.
type Metadata struct {
	Synthesizer       string `json:"synthesizer"`
	MessageLength     int    `json:"sysex_length"`
	DefinitionVersion string `json:"definition_version"`

	// PresetName is set when the definition declares a preset-name window.
	PresetName    string `json:"preset_name,omitempty"`
	HasPresetName bool   `json:"-"`

	// ChecksumValid reports whether the embedded checksum matched; it is
	// meaningful only when HasChecksum is true. A mismatch never aborts
	// decoding.
	ChecksumValid bool `json:"checksum_valid,omitempty"`
	HasChecksum   bool `json:"-"`

	// Provenance fields filled when decoding JSON-wrapped presets.
	SourceFile    string `json:"source_file,omitempty"`
	Plugin        string `json:"plugin,omitempty"`
	PluginVersion string `json:"plugin_version,omitempty"`
}

// RawMessage keeps the original bytes for lossless round-trips and
// debugging. Only the hex rendering is serialized.
type RawMessage struct {
	Bytes []byte `json:"-"`
	Hex   string `json:"sysex_hex"`
}

// DecodedPreset is the result of decoding one SysEx message. Each decode
// call creates a fresh value owned exclusively by the caller.
type DecodedPreset struct {
	Parameters map[string]DecodedParameter `json:"parameters"`
	Metadata   Metadata                    `json:"metadata"`
	Raw        RawMessage                  `json:"raw_data"`
}

// NormalizedMap flattens the preset into the name-to-normalized-value form
// the encoder and the bank writer consume.
func (p *DecodedPreset) NormalizedMap() map[string]float64 {
	values := make(map[string]float64, len(p.Parameters))
	for name, param := range p.Parameters {
		values[name] = param.Normalized
	}

	return values
}

// hexString renders bytes as space-separated lowercase hex pairs.
func hexString(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.Grow(len(data) * 3)
	const digits = "0123456789abcdef"
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(digits[b>>4])
		sb.WriteByte(digits[b&0x0F])
	}

	return sb.String()
}
