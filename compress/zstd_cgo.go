//go:build cgo && gozstd

package compress

import (
	"fmt"

	"github.com/valyala/gozstd"
)

// gozstdLevel is the libzstd level matching the pure Go SpeedDefault.
const gozstdLevel = 3

// Compress packs one section payload into a single libzstd frame. An empty
// payload stays empty.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return gozstd.CompressLevel(nil, data, gozstdLevel), nil
}

// Decompress unpacks one section frame through libzstd.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	out, err := gozstd.Decompress(nil, data)
	if err != nil {
		return nil, fmt.Errorf("zstd section frame: %w", err)
	}

	if len(out) > maxDecodedSize {
		return nil, fmt.Errorf("zstd section frame of %d bytes exceeds %d", len(out), maxDecodedSize)
	}

	return out, nil
}
