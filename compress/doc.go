// Package compress provides the payload codecs used by section bundles.
//
// A bundle compresses every raw section payload independently, so any one
// section can be extracted without touching the others. Four algorithms are
// available, selected by format.CompressionType:
//
//   - None: payloads are stored as they are
//   - Zstd: best ratio, moderate speed
//   - S2: fast, moderate ratio
//   - LZ4: fastest decompression; frames carry the decoded size
//
// # Usage
//
//	codec, err := compress.GetCodec(format.CompressionZstd)
//	if err != nil {
//		return err
//	}
//	packed, err := codec.Compress(payload)
//
// GetCodec returns shared instances; CreateCodec builds a fresh one.
//
// # Zstandard backends
//
// By default Zstd uses github.com/klauspost/compress/zstd with pooled
// encoders and decoders. Building with cgo enabled and the gozstd tag
// switches to github.com/valyala/gozstd:
//
//	go build -tags gozstd ./...
//
// Both produce standard Zstandard frames, so bundles written by one backend
// are readable by the other.
package compress
