package sysex

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/syxkit/syxkit/endian"
	"github.com/syxkit/syxkit/errs"
	"github.com/syxkit/syxkit/format"
	"github.com/syxkit/syxkit/internal/options"
)

// wireEngine reads multi-byte parameter fields, which are big-endian on the
// SysEx wire.
var wireEngine = endian.GetBigEndianEngine()

// Decoder extracts structured parameter sets from raw SysEx messages using
// a device format definition.
//
// A Decoder holds no mutable state; it is safe for concurrent use once
// constructed.
type Decoder struct {
	def       *Definition
	matchMode format.MatchMode
}

// DecoderOption represents a functional option for configuring a Decoder.
type DecoderOption = options.Option[*Decoder]

// WithMatchMode selects how strictly message headers are matched against
// the definition. The default is format.MatchManufacturer.
func WithMatchMode(mode format.MatchMode) DecoderOption {
	return options.New(func(d *Decoder) error {
		switch mode {
		case format.MatchManufacturer, format.MatchStrict:
			d.matchMode = mode
			return nil
		default:
			return fmt.Errorf("invalid match mode: %v", mode)
		}
	})
}

// NewDecoder creates a decoder for the given definition.
//
// The definition is validated once here, so DecodeMessage itself never has
// to fail on a malformed definition.
func NewDecoder(def *Definition, opts ...DecoderOption) (*Decoder, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	decoder := &Decoder{
		def:       def,
		matchMode: format.MatchManufacturer,
	}
	if err := options.Apply(decoder, opts...); err != nil {
		return nil, err
	}

	return decoder, nil
}

// Definition returns the immutable definition this decoder was built with.
func (d *Decoder) Definition() *Definition {
	return d.def
}

// DecodeMessage decodes a single SysEx message.
//
// It reports ok=false when the header does not match the definition; that
// is the only whole-message failure. Individual parameters whose offsets
// fall outside the message are silently omitted, since partial dumps are
// common and still useful for name and header inspection.
func (d *Decoder) DecodeMessage(data []byte) (*DecodedPreset, bool) {
	if !d.def.Header.Matches(data, d.matchMode) {
		return nil, false
	}

	preset := &DecodedPreset{
		Parameters: make(map[string]DecodedParameter, len(d.def.Parameters)),
		Metadata: Metadata{
			Synthesizer:       d.def.Name,
			MessageLength:     len(data),
			DefinitionVersion: d.def.Version,
		},
		Raw: RawMessage{
			Bytes: bytes.Clone(data),
			Hex:   hexString(data),
		},
	}

	if d.def.PresetNameOffset > 0 {
		preset.Metadata.PresetName = d.extractPresetName(data)
		preset.Metadata.HasPresetName = true
	}

	for name, param := range d.def.Parameters {
		raw, ok := extractParameterValue(data, param)
		if !ok {
			continue
		}
		preset.Parameters[name] = DecodedParameter{
			Raw:         raw,
			Normalized:  param.Normalize(raw),
			Category:    param.Category,
			CCNumber:    param.CCNumber,
			Description: param.Description,
		}
	}

	if d.def.ChecksumOffset > 0 {
		preset.Metadata.ChecksumValid = d.verifyChecksum(data)
		preset.Metadata.HasChecksum = true
	}

	return preset, true
}

// DecodeBytes scans a byte stream for SysEx messages and decodes every one
// whose header matches the definition.
//
// Messages are delimited by the start marker and the first subsequent end
// marker, inclusive, scanned left to right with no escaping. Scanning
// resumes immediately after each end marker, so extracted messages never
// overlap. Spans that fail the header match are silently skipped.
func (d *Decoder) DecodeBytes(data []byte) []*DecodedPreset {
	var presets []*DecodedPreset

	pos := 0
	for pos < len(data) {
		start := bytes.IndexByte(data[pos:], StartMarker)
		if start < 0 {
			break
		}
		start += pos

		end := bytes.IndexByte(data[start:], EndMarker)
		if end < 0 {
			break
		}
		end += start

		if preset, ok := d.DecodeMessage(data[start : end+1]); ok {
			presets = append(presets, preset)
		}

		pos = end + 1
	}

	return presets
}

// DecodeFile decodes every matching message in a file.
//
// Binary .syx dumps are scanned for messages; .json files are expected to
// wrap a single hex-encoded message (the patch-librarian export format)
// plus optional plugin metadata.
func (d *Decoder) DecodeFile(path string) ([]*DecodedPreset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".syx":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read syx file: %w", err)
		}

		return d.DecodeBytes(data), nil
	case ".json":
		return d.decodeJSONPreset(path)
	default:
		return nil, fmt.Errorf("%w: %s", errs.ErrUnsupportedFile, filepath.Ext(path))
	}
}

// jsonPreset is the on-disk shape of a JSON-wrapped preset export.
type jsonPreset struct {
	SysEx         string `json:"sysex"`
	Plugin        string `json:"plugin"`
	PluginVersion string `json:"pluginVersion"`
}

func (d *Decoder) decodeJSONPreset(path string) ([]*DecodedPreset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read json preset: %w", err)
	}

	var wrapped jsonPreset
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to parse json preset: %w", err)
	}
	if wrapped.SysEx == "" {
		return nil, fmt.Errorf("%w: %s", errs.ErrNoSysExData, path)
	}

	raw, err := hex.DecodeString(strings.ReplaceAll(wrapped.SysEx, " ", ""))
	if err != nil {
		return nil, fmt.Errorf("invalid sysex hex in %s: %w", path, err)
	}

	preset, ok := d.DecodeMessage(raw)
	if !ok {
		return nil, nil
	}

	preset.Metadata.SourceFile = path
	preset.Metadata.Plugin = wrapped.Plugin
	preset.Metadata.PluginVersion = wrapped.PluginVersion

	return []*DecodedPreset{preset}, nil
}

// extractParameterValue reads one parameter's raw value from the message.
// It reports ok=false when the field lies past the end of the buffer.
func extractParameterValue(data []byte, param *ParameterDefinition) (int, bool) {
	if param.ByteOffset >= len(data) {
		return 0, false
	}

	switch param.DataType {
	case format.TypeUint8:
		value := (uint16(data[param.ByteOffset]) & param.BitMask) >> param.BitShift

		return int(value), true
	case format.TypeUint16:
		if param.ByteOffset+1 >= len(data) {
			return 0, false
		}
		combined := wireEngine.Uint16(data[param.ByteOffset : param.ByteOffset+2])
		value := (combined & param.BitMask) >> param.BitShift

		return int(value), true
	default:
		return 0, false
	}
}

// extractPresetName slices the configured name window, clipped to the
// message length, and decodes it as ASCII. Trailing NULs and surrounding
// whitespace are stripped; an empty or non-ASCII result becomes "Unknown".
func (d *Decoder) extractPresetName(data []byte) string {
	start := d.def.PresetNameOffset
	if start >= len(data) {
		return "Unknown"
	}

	end := min(start+d.def.PresetNameLength, len(data))

	raw := data[start:end]
	for _, b := range raw {
		if b > 0x7F {
			return "Unknown"
		}
	}

	name := strings.TrimSpace(strings.TrimRight(string(raw), "\x00"))
	if name == "" {
		return "Unknown"
	}

	return name
}

// verifyChecksum recomputes the embedded checksum and compares.
func (d *Decoder) verifyChecksum(data []byte) bool {
	pos := d.def.ChecksumOffset
	if pos >= len(data) {
		return false
	}

	return calculateChecksum(data, pos) == data[pos]
}
