// Package syxkit provides a configuration-driven codec for device-specific
// SysEx (System Exclusive MIDI) binary messages.
//
// Raw byte streams decode into named, normalized parameter sets and
// parameter sets re-encode into bit-exact binary messages, driven entirely
// by a per-device format definition rather than hard-coded per-device
// logic. Definitions come from built-in constants or declarative config
// files (JSON, YAML or TOML).
//
// # Core Features
//
//   - Generic decode/encode against declarative device format definitions
//   - Normalized [0, 1] parameter values for device-independent comparison
//   - Bit-field extraction (mask/shift) and big-endian 16-bit fields
//   - Preset name and 7-bit checksum handling
//   - Runtime-extensible format registry with built-in definitions
//   - Compressed preset bank archives (Zstd, S2, LZ4)
//   - MIDI port I/O and CC message generation via gomidi drivers
//
// # Basic Usage
//
// Decoding a dump file against a built-in format:
//
//	library := sysex.NewLibrary()
//	decoder, _ := library.GetDecoder(sysex.FormatAccessVirus)
//	presets, _ := decoder.DecodeFile("bassline.syx")
//	for _, preset := range presets {
//	    fmt.Println(preset.Metadata.PresetName, preset.Parameters["filter_cutoff"].Normalized)
//	}
//
// Encoding a parameter set back to bytes:
//
//	encoder, _ := library.GetEncoder(sysex.FormatAccessVirus)
//	data, _ := encoder.EncodePreset(map[string]float64{"filter_cutoff": 0.5}, "Bass1")
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the sysex
// package, simplifying the most common use cases. For fine-grained control
// (match modes, custom definitions, banks, batch processing) use the
// sysex, bank, analyze, batch and midiio packages directly.
package syxkit

import (
	"github.com/syxkit/syxkit/internal/hash"
	"github.com/syxkit/syxkit/sysex"
)

// DecodeSysExFile decodes every matching message in a .syx or .json file
// against a registered format, using a fresh registry with the built-in
// definitions.
//
// For repeated decodes, build one sysex.Library and reuse its decoders
// instead.
func DecodeSysExFile(path string, formatID sysex.Format) ([]*sysex.DecodedPreset, error) {
	decoder, err := sysex.NewLibrary().GetDecoder(formatID)
	if err != nil {
		return nil, err
	}

	return decoder.DecodeFile(path)
}

// EncodePresetToSysEx encodes a normalized parameter map into a complete
// SysEx message against a registered format, using a fresh registry with
// the built-in definitions.
func EncodePresetToSysEx(parameters map[string]float64, presetName string, formatID sysex.Format) ([]byte, error) {
	encoder, err := sysex.NewLibrary().GetEncoder(formatID)
	if err != nil {
		return nil, err
	}

	return encoder.EncodePreset(parameters, presetName)
}

// PresetID converts a preset name to its 64-bit xxHash64 identifier, the
// same function the bank package uses for content-addressed entries.
func PresetID(name string) uint64 {
	return hash.ID(name)
}
