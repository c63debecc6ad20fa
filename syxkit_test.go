package syxkit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syxkit/syxkit/errs"
	"github.com/syxkit/syxkit/sysex"
)

func TestEncodeDecodeFileRoundTrip(t *testing.T) {
	data, err := EncodePresetToSysEx(map[string]float64{"filter_cutoff": 0.75}, "Bass1", sysex.FormatAccessVirus)
	require.NoError(t, err)
	require.Len(t, data, 256)

	path := filepath.Join(t.TempDir(), "bass.syx")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	presets, err := DecodeSysExFile(path, sysex.FormatAccessVirus)
	require.NoError(t, err)
	require.Len(t, presets, 1)
	require.Equal(t, "Bass1", presets[0].Metadata.PresetName)
	require.InDelta(t, 0.75, presets[0].Parameters["filter_cutoff"].Normalized, 1.0/127.0)
}

func TestUnknownFormat(t *testing.T) {
	_, err := DecodeSysExFile("dump.syx", sysex.Format("does_not_exist"))
	require.ErrorIs(t, err, errs.ErrFormatNotFound)

	_, err = EncodePresetToSysEx(nil, "", sysex.Format("does_not_exist"))
	require.ErrorIs(t, err, errs.ErrFormatNotFound)
}

func TestPresetIDStable(t *testing.T) {
	require.Equal(t, PresetID("Wobble Bass"), PresetID("Wobble Bass"))
	require.NotEqual(t, PresetID("Wobble Bass"), PresetID("Init Pad"))
}
