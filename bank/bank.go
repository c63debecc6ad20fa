// Package bank persists collections of decoded presets as a single
// compressed binary artifact.
//
// A bank is framed as a fixed little-endian header (magic, version, a flag
// byte carrying the compression type, entry count, payload length), a
// CBOR-encoded entry payload compressed by the selected codec, and an
// xxHash64 integrity footer over the compressed payload. The reader
// validates magic, compression type and hash before decoding anything.
package bank

import (
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/syxkit/syxkit/compress"
	"github.com/syxkit/syxkit/endian"
	"github.com/syxkit/syxkit/errs"
	"github.com/syxkit/syxkit/format"
	"github.com/syxkit/syxkit/internal/hash"
	"github.com/syxkit/syxkit/internal/options"
	"github.com/syxkit/syxkit/sysex"
)

const (
	// MagicV1 marks a version 1 preset bank ("SY" little-endian).
	MagicV1 uint16 = 0x5953

	// VersionV1 is the current bank layout version.
	VersionV1 uint8 = 0x01

	// HeaderSize is the fixed frame header size in bytes.
	HeaderSize = 12

	// FooterSize is the size of the xxHash64 integrity footer in bytes.
	FooterSize = 8
)

// frameEngine is the byte order of the bank framing.
var frameEngine = endian.GetLittleEndianEngine()

// Entry is one stored preset.
//
// ID is the xxHash64 of the raw message bytes when present, else of
// "<format>/<name>", giving stable content-addressed identifiers for
// duplicate detection across banks.
type Entry struct {
	ID         uint64             `cbor:"1,keyasint"`
	Name       string             `cbor:"2,keyasint"`
	Format     string             `cbor:"3,keyasint"`
	Parameters map[string]float64 `cbor:"4,keyasint"`
	Raw        []byte             `cbor:"5,keyasint,omitempty"`
}

// Writer accumulates entries and serializes them into one bank frame.
//
// A Writer is not safe for concurrent use and is not reusable after Finish.
type Writer struct {
	compression format.CompressionType
	codec       compress.Codec
	entries     []Entry
}

// WriterOption represents a functional option for configuring a Writer.
type WriterOption = options.Option[*Writer]

// WithCompression selects the payload compression codec. The default is
// Zstd; CompressionNone stores the CBOR payload as-is.
func WithCompression(compression format.CompressionType) WriterOption {
	return options.New(func(w *Writer) error {
		codec, err := compress.GetCodec(compression)
		if err != nil {
			return err
		}
		w.compression = compression
		w.codec = codec

		return nil
	})
}

// NewWriter creates a bank writer.
func NewWriter(opts ...WriterOption) (*Writer, error) {
	writer := &Writer{compression: format.CompressionZstd}
	codec, err := compress.GetCodec(writer.compression)
	if err != nil {
		return nil, err
	}
	writer.codec = codec

	if err := options.Apply(writer, opts...); err != nil {
		return nil, err
	}

	return writer, nil
}

// Add stores a decoded preset under the format identifier it was decoded
// with. The preset name falls back to "Unknown" when the message carried
// none.
func (w *Writer) Add(formatID sysex.Format, preset *sysex.DecodedPreset) {
	name := preset.Metadata.PresetName
	if name == "" {
		name = "Unknown"
	}

	entry := Entry{
		Name:       name,
		Format:     string(formatID),
		Parameters: preset.NormalizedMap(),
		Raw:        preset.Raw.Bytes,
	}
	entry.ID = entryID(&entry)

	w.entries = append(w.entries, entry)
}

// AddEntry stores a prepared entry, computing its ID when unset.
func (w *Writer) AddEntry(entry Entry) {
	if entry.ID == 0 {
		entry.ID = entryID(&entry)
	}
	w.entries = append(w.entries, entry)
}

// Len returns the number of entries added so far.
func (w *Writer) Len() int {
	return len(w.entries)
}

// Finish serializes the accumulated entries into a complete bank frame.
func (w *Writer) Finish() ([]byte, error) {
	payload, err := cbor.Marshal(w.entries)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bank payload: %w", err)
	}

	compressed, err := w.codec.Compress(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to compress bank payload: %w", err)
	}

	out := make([]byte, 0, HeaderSize+len(compressed)+FooterSize)
	out = frameEngine.AppendUint16(out, MagicV1)
	out = append(out, VersionV1, byte(w.compression))
	out = frameEngine.AppendUint32(out, uint32(len(w.entries)))
	out = frameEngine.AppendUint32(out, uint32(len(compressed)))
	out = append(out, compressed...)
	out = frameEngine.AppendUint64(out, hash.Sum(compressed))

	return out, nil
}

// WriteFile serializes the bank and writes it to path.
func (w *Writer) WriteFile(path string) error {
	data, err := w.Finish()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Read parses a bank frame and returns its entries in stored order.
func Read(data []byte) ([]Entry, error) {
	if len(data) < HeaderSize+FooterSize {
		return nil, errs.ErrBankTruncated
	}
	if frameEngine.Uint16(data[0:2]) != MagicV1 {
		return nil, errs.ErrInvalidMagic
	}
	if data[2] != VersionV1 {
		return nil, fmt.Errorf("%w: unsupported bank version %d", errs.ErrInvalidMagic, data[2])
	}

	compression := format.CompressionType(data[3])
	codec, err := compress.GetCodec(compression)
	if err != nil {
		return nil, fmt.Errorf("%w: flag 0x%02x", errs.ErrInvalidCompression, data[3])
	}

	count := int(frameEngine.Uint32(data[4:8]))
	payloadLen := int(frameEngine.Uint32(data[8:12]))
	if len(data) != HeaderSize+payloadLen+FooterSize {
		return nil, errs.ErrBankTruncated
	}

	compressed := data[HeaderSize : HeaderSize+payloadLen]
	if frameEngine.Uint64(data[HeaderSize+payloadLen:]) != hash.Sum(compressed) {
		return nil, errs.ErrChecksumMismatch
	}

	payload, err := codec.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress bank payload: %w", err)
	}

	var entries []Entry
	if err := cbor.Unmarshal(payload, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode bank payload: %w", err)
	}
	if len(entries) != count {
		return nil, fmt.Errorf("%w: header declares %d entries, payload holds %d",
			errs.ErrBankTruncated, count, len(entries))
	}

	return entries, nil
}

// ReadFile reads and parses a bank file.
func ReadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bank file: %w", err)
	}

	return Read(data)
}

func entryID(entry *Entry) uint64 {
	if len(entry.Raw) > 0 {
		return hash.Sum(entry.Raw)
	}

	return hash.ID(entry.Format + "/" + entry.Name)
}
