package compress

import (
	"bytes"
	"errors"
	"sync"

	"github.com/pierrec/lz4/v4"

	"github.com/syxkit/syxkit/endian"
)

// lz4CompressorPool pools lz4.Compressor instances; the compressor keeps
// internal state that benefits from reuse across banks.
var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// lz4HeaderEngine encodes the size prefix in front of each block.
var lz4HeaderEngine = endian.GetLittleEndianEngine()

const (
	// lz4HeaderSize is the size prefix length in bytes.
	lz4HeaderSize = 4

	// lz4RawFlag in the size prefix marks a block stored uncompressed.
	// CompressBlock reports incompressible input by returning zero bytes,
	// so such payloads are stored as-is instead.
	lz4RawFlag = 1 << 31

	// lz4MaxSize bounds the decompressed size a header may declare,
	// guarding against corrupted input.
	lz4MaxSize = 128 * 1024 * 1024
)

var (
	errLZ4HeaderTooShort = errors.New("lz4 block shorter than its size header")
	errLZ4SizeInvalid    = errors.New("lz4 block declares an invalid decompressed size")
)

type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates a new LZ4 block compressor.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress compresses the input data as a single LZ4 block prefixed with
// its decompressed size. LZ4 blocks do not carry that size themselves, and
// Decompress needs it to allocate the output buffer exactly once.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dst := make([]byte, lz4HeaderSize+lz4.CompressBlockBound(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	n, err := lc.CompressBlock(data, dst[lz4HeaderSize:])
	if err != nil {
		return nil, err
	}
	if n == 0 || n >= len(data) {
		// Incompressible input: store it raw rather than expanded.
		out := make([]byte, lz4HeaderSize+len(data))
		lz4HeaderEngine.PutUint32(out, uint32(len(data))|lz4RawFlag)
		copy(out[lz4HeaderSize:], data)

		return out, nil
	}

	lz4HeaderEngine.PutUint32(dst, uint32(len(data)))

	return dst[:lz4HeaderSize+n], nil
}

// Decompress decompresses a size-prefixed LZ4 block produced by Compress.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	if len(data) < lz4HeaderSize {
		return nil, errLZ4HeaderTooShort
	}

	header := lz4HeaderEngine.Uint32(data[:lz4HeaderSize])
	size := int(header &^ lz4RawFlag)
	block := data[lz4HeaderSize:]
	if size > lz4MaxSize {
		return nil, errLZ4SizeInvalid
	}

	if header&lz4RawFlag != 0 {
		if size != len(block) {
			return nil, errLZ4SizeInvalid
		}

		return bytes.Clone(block), nil
	}

	buf := make([]byte, size)
	n, err := lz4.UncompressBlock(block, buf)
	if err != nil {
		return nil, err
	}

	return buf[:n], nil
}
