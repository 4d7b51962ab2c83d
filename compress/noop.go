package compress

// NoOpCompressor stores payloads as they are.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a pass-through codec.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress returns data itself.
//
// Note: the result shares memory with data.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress returns data itself.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
