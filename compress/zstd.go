package compress

// ZstdCompressor compresses with Zstandard.
//
// It gives the best ratio of the built-in codecs and is the default for
// bundles meant for storage. Building with both cgo and the gozstd tag
// switches to the libzstd binding; otherwise the pure Go implementation is used.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a Zstandard codec.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
