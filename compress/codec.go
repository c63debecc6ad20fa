// Package compress provides the compression codecs used by preset bank
// archives.
//
// Bank payloads are small CBOR blobs (typically a few KB for a full bank of
// presets), so the codecs favor simple one-shot Compress/Decompress calls
// over streaming. Zstd gives the best ratio for archival banks; S2 and LZ4
// trade ratio for speed; None stores the payload as-is.
package compress

import (
	"fmt"

	"github.com/syxkit/syxkit/format"
)

// Compressor compresses a complete payload in one call.
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	//
	// The returned slice is newly allocated and owned by the caller; the
	// input slice is not modified.
	Compress(data []byte) ([]byte, error)
}

// Decompressor restores a payload previously produced by the matching
// Compressor. It returns an error if the data is corrupted or was
// compressed with an incompatible algorithm.
type Decompressor interface {
	// Decompress decompresses the input data and returns the original result.
	//
	// The returned slice is newly allocated and owned by the caller; the
	// input slice is not modified.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec retrieves a built-in Codec for the specified compression type.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", compressionType)
}
