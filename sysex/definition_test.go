package sysex

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syxkit/syxkit/errs"
	"github.com/syxkit/syxkit/format"
)

// ==============================================================================
// Helper Functions
// ==============================================================================

// createTestDefinition builds a small definition exercising plain bytes,
// shared-byte bit fields and a 16-bit field.
func createTestDefinition() *Definition {
	params := map[string]*ParameterDefinition{
		"cutoff": {
			Name:       "cutoff",
			ByteOffset: 10,
			BitMask:    0xFF,
			Min:        0,
			Max:        127,
			Category:   "filter",
			CCNumber:   74,
			DataType:   format.TypeUint8,
		},
		"resonance": {
			Name:       "resonance",
			ByteOffset: 11,
			BitMask:    0x0F,
			Min:        0,
			Max:        15,
			Category:   "filter",
			CCNumber:   71,
			DataType:   format.TypeUint8,
		},
		"wave": {
			Name:       "wave",
			ByteOffset: 11,
			BitMask:    0xF0,
			BitShift:   4,
			Min:        0,
			Max:        15,
			Category:   "oscillator",
			CCNumber:   -1,
			DataType:   format.TypeUint8,
		},
		"bend_range": {
			Name:       "bend_range",
			ByteOffset: 12,
			BitMask:    0x3FFF,
			Min:        0,
			Max:        16383,
			Category:   "performance",
			CCNumber:   -1,
			DataType:   format.TypeUint16,
		},
	}

	return &Definition{
		Name:    "Test Synth",
		Version: "1.0",
		Header: Header{
			ManufacturerID: []byte{0x00, 0x20, 0x33},
			DeviceID:       0x01,
			ModelID:        0x00,
			Command:        -1,
		},
		Parameters:       params,
		PresetNameOffset: 20,
		PresetNameLength: 16,
		ChecksumOffset:   40,
		TotalLength:      64,
	}
}

// createTestMessage builds a valid message for createTestDefinition with
// every payload byte zeroed.
func createTestMessage() []byte {
	msg := make([]byte, 64)
	msg[0] = StartMarker
	msg[1], msg[2], msg[3] = 0x00, 0x20, 0x33
	msg[4], msg[5] = 0x01, 0x00
	msg[63] = EndMarker

	return msg
}

// ==============================================================================
// Normalize / Denormalize Tests
// ==============================================================================

func TestParameterRoundTripFullRange(t *testing.T) {
	def := createTestDefinition()

	for name, param := range def.Parameters {
		for raw := param.Min; raw <= param.Max; raw++ {
			got := param.Denormalize(param.Normalize(raw))
			require.Equal(t, raw, got, "parameter %s raw %d", name, raw)
		}
	}
}

func TestNormalizeClampsOutOfRange(t *testing.T) {
	param := &ParameterDefinition{Name: "p", Min: 10, Max: 20, DataType: format.TypeUint8}

	require.Equal(t, 0.0, param.Normalize(5))
	require.Equal(t, 1.0, param.Normalize(25))
	require.Equal(t, 0.5, param.Normalize(15))
}

func TestNormalizeDegenerateRange(t *testing.T) {
	param := &ParameterDefinition{Name: "p", Min: 7, Max: 7, DataType: format.TypeUint8}

	require.Equal(t, 0.0, param.Normalize(7))
	require.Equal(t, 7, param.Denormalize(0.99))
}

func TestDenormalizeRoundsHalfUp(t *testing.T) {
	param := &ParameterDefinition{Name: "p", Min: 0, Max: 127, DataType: format.TypeUint8}

	// 0.5 * 127 = 63.5 rounds away from zero to 64.
	require.Equal(t, 64, param.Denormalize(0.5))
	require.Equal(t, 0, param.Denormalize(-0.5))
	require.Equal(t, 127, param.Denormalize(1.5))
}

// ==============================================================================
// Header Matching Tests
// ==============================================================================

func TestHeaderMatches(t *testing.T) {
	header := &Header{ManufacturerID: []byte{0x00, 0x20, 0x33}, DeviceID: 0x01, ModelID: -1, Command: -1}

	require.True(t, header.Matches([]byte{0xF0, 0x00, 0x20, 0x33, 0x01}, format.MatchManufacturer))
	require.True(t, header.Matches([]byte{0xF0, 0x00, 0x20, 0x33}, format.MatchManufacturer))
}

func TestHeaderRejectsShortInput(t *testing.T) {
	header := &Header{ManufacturerID: []byte{0x00, 0x20, 0x33}, DeviceID: -1, ModelID: -1, Command: -1}

	require.False(t, header.Matches(nil, format.MatchManufacturer))
	require.False(t, header.Matches([]byte{0xF0, 0x00, 0x20}, format.MatchManufacturer))
}

func TestHeaderRejectsMissingStartMarker(t *testing.T) {
	header := &Header{ManufacturerID: []byte{0x00, 0x20, 0x33}, DeviceID: -1, ModelID: -1, Command: -1}

	require.False(t, header.Matches([]byte{0xF7, 0x00, 0x20, 0x33}, format.MatchManufacturer))
}

func TestHeaderRejectsManufacturerMismatch(t *testing.T) {
	header := &Header{ManufacturerID: []byte{0x00, 0x20, 0x33}, DeviceID: -1, ModelID: -1, Command: -1}

	require.False(t, header.Matches([]byte{0xF0, 0x00, 0x20, 0x34}, format.MatchManufacturer))
}

func TestHeaderStrictMatching(t *testing.T) {
	header := &Header{ManufacturerID: []byte{0x00, 0x20, 0x33}, DeviceID: 0x01, ModelID: 0x02, Command: -1}

	matching := []byte{0xF0, 0x00, 0x20, 0x33, 0x01, 0x02}
	wrongDevice := []byte{0xF0, 0x00, 0x20, 0x33, 0x7F, 0x02}
	truncated := []byte{0xF0, 0x00, 0x20, 0x33, 0x01}

	require.True(t, header.Matches(matching, format.MatchStrict))
	require.False(t, header.Matches(wrongDevice, format.MatchStrict))
	require.False(t, header.Matches(truncated, format.MatchStrict))

	// Manufacturer-only mode tolerates the device byte variance.
	require.True(t, header.Matches(wrongDevice, format.MatchManufacturer))
}

func TestHeaderLength(t *testing.T) {
	full := &Header{ManufacturerID: []byte{0x00, 0x20, 0x33}, DeviceID: 0x01, ModelID: 0x00, Command: 0x10}
	bare := &Header{ManufacturerID: []byte{0x41}, DeviceID: -1, ModelID: -1, Command: -1}

	require.Equal(t, 7, full.Length())
	require.Equal(t, 2, bare.Length())
}

// ==============================================================================
// Definition Validation Tests
// ==============================================================================

func TestValidateAcceptsTestDefinition(t *testing.T) {
	require.NoError(t, createTestDefinition().Validate())
}

func TestValidateRejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Definition)
	}{
		{"empty name", func(d *Definition) { d.Name = "" }},
		{"no manufacturer", func(d *Definition) { d.Header.ManufacturerID = nil }},
		{"no parameters", func(d *Definition) { d.Parameters = nil }},
		{"inverted range", func(d *Definition) { d.Parameters["cutoff"].Min = 200 }},
		{"negative offset", func(d *Definition) { d.Parameters["cutoff"].ByteOffset = -1 }},
		{"cc out of range", func(d *Definition) { d.Parameters["cutoff"].CCNumber = 128 }},
		{"offset past total length", func(d *Definition) { d.Parameters["cutoff"].ByteOffset = 63 }},
		{"name window past total length", func(d *Definition) { d.PresetNameOffset = 60 }},
		{"checksum past total length", func(d *Definition) { d.ChecksumOffset = 63 }},
		{"key and name disagree", func(d *Definition) { d.Parameters["cutoff"].Name = "other" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := createTestDefinition()
			tt.mutate(def)
			err := def.Validate()
			require.Error(t, err)
			require.ErrorIs(t, err, errs.ErrInvalidDefinition)
		})
	}
}
