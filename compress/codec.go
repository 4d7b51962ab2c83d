package compress

import (
	"fmt"

	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/insurgentsworkshop/segpack/format"
)

// Compressor compresses one section payload.
//
// Section payloads are opaque game data: textures, palettes, record tables.
// Textures dominate archive size and compress well; already-packed payloads
// may grow slightly, which callers accept.
type Compressor interface {
	// Compress returns the compressed form of data. The input is not
	// modified; the result may alias it for codecs that do not transform.
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor.
//
// Thread Safety: every built-in implementation is safe for concurrent use.
type Decompressor interface {
	// Decompress returns the original bytes of data, or an error if data is
	// corrupted or was produced by another algorithm.
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions.
type Codec interface {
	Compressor
	Decompressor
}

// CreateCodec returns a new Codec for compressionType.
//
// Parameters:
//   - compressionType: Algorithm to use
//   - target: What the codec is for, used in error messages
//
// Returns:
//   - Codec: Codec instance
//   - error: errs.ErrInvalidCodec for an unknown type
func CreateCodec(compressionType format.CompressionType, target string) (Codec, error) {
	switch compressionType {
	case format.CompressionNone:
		return NewNoOpCompressor(), nil
	case format.CompressionZstd:
		return NewZstdCompressor(), nil
	case format.CompressionS2:
		return NewS2Compressor(), nil
	case format.CompressionLZ4:
		return NewLZ4Compressor(), nil
	default:
		return nil, fmt.Errorf("%s compression %s: %w", target, compressionType, errs.ErrInvalidCodec)
	}
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NewNoOpCompressor(),
	format.CompressionZstd: NewZstdCompressor(),
	format.CompressionS2:   NewS2Compressor(),
	format.CompressionLZ4:  NewLZ4Compressor(),
}

// GetCodec returns the shared built-in Codec for compressionType.
func GetCodec(compressionType format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[compressionType]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("compression %s: %w", compressionType, errs.ErrInvalidCodec)
}
