package analyze

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func createVirusMessage(fill byte) []byte {
	msg := make([]byte, 32)
	msg[0] = startMarker
	copy(msg[1:], []byte{0x00, 0x20, 0x33, 0x01, 0x00})
	for i := 6; i < 31; i++ {
		msg[i] = fill
	}
	msg[31] = endMarker

	return msg
}

func TestBytesFindsFramedMessages(t *testing.T) {
	var dump []byte
	dump = append(dump, 0x00, 0x01) // leading noise
	dump = append(dump, createVirusMessage(0x10)...)
	dump = append(dump, createVirusMessage(0x20)...)
	dump = append(dump, 0xF0, 0x41, 0x10, 0x42, 0xF7) // short Roland message
	dump = append(dump, 0xF0, 0x00, 0x20)             // unterminated tail

	report := Bytes(dump)
	require.Equal(t, len(dump), report.FileSize)
	require.Len(t, report.Messages, 3)

	first := report.Messages[0]
	require.Equal(t, 1, first.Index)
	require.Equal(t, 2, first.StartOffset)
	require.Equal(t, 32, first.Length)
	require.Equal(t, []byte{0x00, 0x20, 0x33}, first.ManufacturerID)

	require.Equal(t, 3, report.Messages[2].Index)
	require.Equal(t, []byte{0x41, 0x10, 0x42}, report.Messages[2].ManufacturerID)

	require.Equal(t, 2, report.ManufacturerCounts["00 20 33"])
	require.Equal(t, 1, report.ManufacturerCounts["41 10 42"])
}

func TestBytesHexPreviewTruncation(t *testing.T) {
	report := Bytes(createVirusMessage(0x7F))
	require.Len(t, report.Messages, 1)

	preview := report.Messages[0].HexPreview
	require.Equal(t, "f0 00 20 33 01 00", preview[:17])
	require.Contains(t, preview, "...")

	// Messages at or under the preview bound are shown whole.
	short := Bytes([]byte{0xF0, 0x00, 0x20, 0x33, 0xF7})
	require.Equal(t, "f0 00 20 33 f7", short.Messages[0].HexPreview)
}

func TestBytesMinimalMessageHasNoManufacturer(t *testing.T) {
	report := Bytes([]byte{0xF0, 0xF7})
	require.Len(t, report.Messages, 1)
	require.Nil(t, report.Messages[0].ManufacturerID)
	require.Empty(t, report.ManufacturerCounts)
}

func TestBytesEmptyDump(t *testing.T) {
	report := Bytes(nil)
	require.Zero(t, report.FileSize)
	require.Empty(t, report.Messages)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dump.syx")
	require.NoError(t, os.WriteFile(path, createVirusMessage(0x40), 0o644))

	report, err := File(path)
	require.NoError(t, err)
	require.Equal(t, 32, report.FileSize)
	require.Len(t, report.Messages, 1)

	_, err = File(filepath.Join(t.TempDir(), "missing.syx"))
	require.Error(t, err)
}
