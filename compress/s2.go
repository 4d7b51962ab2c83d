package compress

import (
	"fmt"

	"github.com/klauspost/compress/s2"
)

// S2Compressor compresses with S2. It decodes fastest of the built-in codecs
// and suits bundles read back many times during a modding session.
type S2Compressor struct {
	better bool
}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates an S2 codec using the "better" encoder, which
// gives up some encode speed for ratio.
func NewS2Compressor() S2Compressor {
	return S2Compressor{better: true}
}

// Compress compresses data as one S2 block.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	if c.better {
		return s2.EncodeBetter(nil, data), nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress decodes one S2 block.
//
// The decoded size is read from the block header first and rejected above
// maxDecodedSize before any buffer is allocated.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	n, err := s2.DecodedLen(data)
	if err != nil {
		return nil, err
	}

	if n > maxDecodedSize {
		return nil, fmt.Errorf("s2 block of %d bytes: %w", n, s2.ErrTooLarge)
	}

	return s2.Decode(make([]byte, n), data)
}
