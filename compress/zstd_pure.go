//go:build !cgo || !gozstd

package compress

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Section payloads are compressed one frame each, so single-threaded encoders
// and decoders are kept per goroutine through the pools below. Decoders refuse
// frames that would inflate past maxDecodedSize.
var (
	zstdDecoders = sync.Pool{
		New: func() any {
			dec, err := zstd.NewReader(nil,
				zstd.WithDecoderConcurrency(1),
				zstd.WithDecoderMaxMemory(maxDecodedSize),
			)
			if err != nil {
				panic(fmt.Sprintf("zstd section decoder: %v", err))
			}

			return dec
		},
	}

	zstdEncoders = sync.Pool{
		New: func() any {
			// SpeedDefault matches gozstdLevel, so both backends write
			// comparable bundles.
			enc, err := zstd.NewWriter(nil,
				zstd.WithEncoderLevel(zstd.SpeedDefault),
				zstd.WithEncoderConcurrency(1),
				zstd.WithEncoderCRC(false),
			)
			if err != nil {
				panic(fmt.Sprintf("zstd section encoder: %v", err))
			}

			return enc
		},
	}
)

// Compress packs one section payload into a single Zstandard frame. An empty
// payload stays empty.
func (c ZstdCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	enc, _ := zstdEncoders.Get().(*zstd.Encoder)
	defer zstdEncoders.Put(enc)

	return enc.EncodeAll(data, make([]byte, 0, len(data)/2)), nil
}

// Decompress unpacks one section frame.
func (c ZstdCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dec, _ := zstdDecoders.Get().(*zstd.Decoder)
	defer zstdDecoders.Put(dec)

	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd section frame: %w", err)
	}

	return out, nil
}
