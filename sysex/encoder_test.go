package sysex

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syxkit/syxkit/errs"
)

func createTestEncoder(t *testing.T) *Encoder {
	encoder, err := NewEncoder(createTestDefinition())
	require.NoError(t, err)

	return encoder
}

// ==============================================================================
// EncodePreset Tests
// ==============================================================================

func TestEncodePresetFraming(t *testing.T) {
	encoder := createTestEncoder(t)

	data, err := encoder.EncodePreset(nil, "")
	require.NoError(t, err)
	require.Len(t, data, 64)
	require.Equal(t, byte(StartMarker), data[0])
	require.Equal(t, []byte{0x00, 0x20, 0x33}, data[1:4])
	require.Equal(t, byte(0x01), data[4]) // device ID
	require.Equal(t, byte(0x00), data[5]) // model ID
	require.Equal(t, byte(EndMarker), data[63])
}

func TestEncodePresetScenarioCutoffHalf(t *testing.T) {
	// 0.5 on [0, 127] rounds half away from zero to 64.
	encoder := createTestEncoder(t)

	data, err := encoder.EncodePreset(map[string]float64{"cutoff": 0.5}, "")
	require.NoError(t, err)
	require.Equal(t, byte(64), data[10])
}

func TestEncodePresetBitFieldIsolation(t *testing.T) {
	// Two parameters sharing byte 11 through disjoint masks must not
	// clobber each other.
	encoder := createTestEncoder(t)

	data, err := encoder.EncodePreset(map[string]float64{
		"resonance": 1.0, // low nibble = 0xF
		"wave":      0.2, // high nibble = round(0.2*15) = 3
	}, "")
	require.NoError(t, err)
	require.Equal(t, byte(0x3F), data[11])
}

func TestEncodePresetUint16BigEndian(t *testing.T) {
	encoder := createTestEncoder(t)

	data, err := encoder.EncodePreset(map[string]float64{"bend_range": 1.0}, "")
	require.NoError(t, err)
	require.Equal(t, byte(0x3F), data[12])
	require.Equal(t, byte(0xFF), data[13])
}

func TestEncodePresetIgnoresUnknownParameters(t *testing.T) {
	encoder := createTestEncoder(t)

	data, err := encoder.EncodePreset(map[string]float64{"no_such_param": 1.0}, "")
	require.NoError(t, err)
	require.Equal(t, byte(0), data[10])
}

func TestEncodePresetNameRoundTrip(t *testing.T) {
	encoder := createTestEncoder(t)
	decoder := createTestDecoder(t)

	data, err := encoder.EncodePreset(nil, "Bass1")
	require.NoError(t, err)

	preset, ok := decoder.DecodeMessage(data)
	require.True(t, ok)
	require.Equal(t, "Bass1", preset.Metadata.PresetName)
}

func TestEncodePresetNameTruncationAndReplacement(t *testing.T) {
	encoder := createTestEncoder(t)
	decoder := createTestDecoder(t)

	data, err := encoder.EncodePreset(nil, "Pad é 0123456789ABCDEF")
	require.NoError(t, err)

	preset, ok := decoder.DecodeMessage(data)
	require.True(t, ok)
	require.Len(t, data[20:36], 16)
	require.Equal(t, "Pad ? 0123456789", preset.Metadata.PresetName)
}

func TestEncodePresetChecksumSelfConsistency(t *testing.T) {
	encoder := createTestEncoder(t)
	decoder := createTestDecoder(t)

	data, err := encoder.EncodePreset(map[string]float64{"cutoff": 0.75, "resonance": 0.3}, "Wobble")
	require.NoError(t, err)

	preset, ok := decoder.DecodeMessage(data)
	require.True(t, ok)
	require.True(t, preset.Metadata.HasChecksum)
	require.True(t, preset.Metadata.ChecksumValid)
}

func TestEncodeDecodeRoundTripFullRange(t *testing.T) {
	encoder := createTestEncoder(t)
	decoder := createTestDecoder(t)
	def := createTestDefinition()

	for _, name := range []string{"cutoff", "resonance", "wave"} {
		param := def.Parameters[name]
		for raw := param.Min; raw <= param.Max; raw++ {
			data, err := encoder.EncodePreset(map[string]float64{name: param.Normalize(raw)}, "")
			require.NoError(t, err)

			preset, ok := decoder.DecodeMessage(data)
			require.True(t, ok)
			require.Equal(t, raw, preset.Parameters[name].Raw, "parameter %s raw %d", name, raw)
		}
	}
}

func TestEncodePresetDefaultLength(t *testing.T) {
	def := createTestDefinition()
	def.TotalLength = 0
	def.ChecksumOffset = 0

	encoder, err := NewEncoder(def)
	require.NoError(t, err)

	data, err := encoder.EncodePreset(nil, "")
	require.NoError(t, err)
	require.Len(t, data, DefaultTotalLength)
	require.Equal(t, byte(EndMarker), data[DefaultTotalLength-1])
}

func TestEncodePresetHeaderMustFit(t *testing.T) {
	def := createTestDefinition()
	def.TotalLength = 0
	def.ChecksumOffset = 0
	def.PresetNameOffset = 0
	encoder, err := NewEncoder(def)
	require.NoError(t, err)

	// Validation cannot catch this when TotalLength is unset at load time,
	// so the encoder itself guards against an oversized header.
	encoder.def = &Definition{
		Name:       "broken",
		Header:     Header{ManufacturerID: make([]byte, DefaultTotalLength), DeviceID: -1, ModelID: -1, Command: -1},
		Parameters: def.Parameters,
	}
	_, err = encoder.EncodePreset(nil, "")
	require.ErrorIs(t, err, errs.ErrInvalidDefinition)
}

// ==============================================================================
// WriteFile Tests
// ==============================================================================

func TestWriteFileMultiPreset(t *testing.T) {
	encoder := createTestEncoder(t)
	decoder := createTestDecoder(t)

	path := filepath.Join(t.TempDir(), "bank.syx")
	presets := []map[string]float64{
		{"cutoff": 0.0},
		{"cutoff": 0.5},
		{"cutoff": 1.0},
	}
	require.NoError(t, encoder.WriteFile(path, presets, []string{"Low", "", "High"}))

	decoded, err := decoder.DecodeFile(path)
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	require.Equal(t, "Low", decoded[0].Metadata.PresetName)
	require.Equal(t, "Preset_2", decoded[1].Metadata.PresetName)
	require.Equal(t, "High", decoded[2].Metadata.PresetName)
	require.Equal(t, 127, decoded[2].Parameters["cutoff"].Raw)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(3*64), info.Size())
}

func TestNewEncoderRejectsInvalidDefinition(t *testing.T) {
	def := createTestDefinition()
	def.Parameters = map[string]*ParameterDefinition{}

	_, err := NewEncoder(def)
	require.ErrorIs(t, err, errs.ErrInvalidDefinition)
}
