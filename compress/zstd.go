package compress

// ZstdCompressor provides Zstandard compression, the recommended codec for
// archival preset banks where ratio matters more than speed.
//
// Two implementations exist behind build tags: the cgo build uses
// valyala/gozstd, the pure-Go build uses klauspost/compress/zstd. Both
// produce interchangeable frames.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
