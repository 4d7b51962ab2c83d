package compress

import (
	"fmt"
	"sync"

	"github.com/insurgentsworkshop/segpack/endian"
	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/pierrec/lz4/v4"
)

// maxDecodedSize bounds the decompression buffer. A section larger than this
// is not a plausible game asset.
const maxDecodedSize = 128 << 20

// lz4SizeField is the u32 decoded size written in front of every block.
const lz4SizeField = 4

var lz4Compressors = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Compressor compresses with the LZ4 block format.
//
// A frame is the u32 little-endian payload size followed by the block. When
// LZ4 cannot shrink a payload the payload is stored as is, which a reader
// recognizes by the block being exactly the recorded size.
type LZ4Compressor struct{}

var _ Codec = (*LZ4Compressor)(nil)

// NewLZ4Compressor creates an LZ4 codec.
func NewLZ4Compressor() LZ4Compressor {
	return LZ4Compressor{}
}

// Compress packs one section payload. An empty payload stays empty.
func (c LZ4Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	if len(data) > maxDecodedSize {
		return nil, fmt.Errorf("lz4 payload of %d bytes: %w", len(data), errs.ErrOffsetOverflow)
	}

	out := make([]byte, lz4SizeField+lz4.CompressBlockBound(len(data)))
	endian.GetLittleEndianEngine().PutUint32(out, uint32(len(data)))

	lc, _ := lz4Compressors.Get().(*lz4.Compressor)
	defer lz4Compressors.Put(lc)

	n, err := lc.CompressBlock(data, out[lz4SizeField:])
	if err != nil {
		return nil, err
	}

	if n == 0 || n >= len(data) {
		return append(out[:lz4SizeField], data...), nil
	}

	return out[:lz4SizeField+n], nil
}

// Decompress unpacks one frame written by Compress.
func (c LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	if len(data) < lz4SizeField {
		return nil, fmt.Errorf("lz4 frame of %d bytes: %w", len(data), lz4.ErrInvalidSourceShortBuffer)
	}

	size := int(endian.GetLittleEndianEngine().Uint32(data))
	block := data[lz4SizeField:]
	if size > maxDecodedSize {
		return nil, fmt.Errorf("lz4 frame claims %d bytes: %w", size, errs.ErrOffsetOverflow)
	}

	out := make([]byte, size)
	if len(block) == size {
		copy(out, block)
		return out, nil
	}

	n, err := lz4.UncompressBlock(block, out)
	if err != nil {
		return nil, fmt.Errorf("lz4 block: %w", err)
	}

	if n != size {
		return nil, fmt.Errorf("lz4 block decoded to %d bytes, want %d: %w", n, size, errs.ErrChecksumMismatch)
	}

	return out, nil
}
