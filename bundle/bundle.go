// Package bundle stores a decoded container in a self-describing,
// compressed form.
//
// A bundle names its layout and carries the raw container header, so it can
// be turned back into the original container without any side information
// beyond a layout registry. Every raw section is compressed on its own and
// checked against an xxHash64 of its original bytes on the way back. Nested
// sections are stored as nested bundles.
//
// Byte layout, all fields little-endian:
//
//	0x00  "SGPB"
//	0x04  u8 version, u8 compression, u8 name length, u8 flags
//	0x08  u32 section count
//	0x0C  u32 header length
//	0x10  layout name, container header, zero padding to 4
//	      directory: one 24-byte entry per section
//	        u32 offset, u32 stored length, u32 raw length,
//	        u8 kind, 3 bytes padding, u64 checksum of the raw payload
//	      zero padding to 16, then every payload padded to 16
package bundle

import (
	"github.com/insurgentsworkshop/segpack/container"
	"github.com/insurgentsworkshop/segpack/endian"
	"github.com/insurgentsworkshop/segpack/format"
	"github.com/insurgentsworkshop/segpack/internal/options"
	"github.com/insurgentsworkshop/segpack/section"
)

// Magic starts every bundle.
const Magic = "SGPB"

// Version is the only bundle version this package reads and writes.
const Version = 1

const (
	preambleSize     = 0x10
	countAt          = 0x08
	entrySize        = 24
	nameAlignment    = 4
	payloadAlignment = 16
)

// LayoutResolver finds a layout by name. The flavor registry satisfies it.
type LayoutResolver interface {
	Layout(name string) (*container.Layout, error)
}

// Stats summarises an encoded bundle, nested bundles included.
type Stats struct {
	// Size is the number of bytes written.
	Size int64
	// Sections counts raw sections; a nested section contributes the raw
	// sections inside it.
	Sections int
	// Raw is the total size of raw payloads before compression.
	Raw int64
	// Stored is the total size of raw payloads after compression.
	Stored int64
}

func (s *Stats) add(other *Stats) {
	s.Sections += other.Sections
	s.Raw += other.Raw
	s.Stored += other.Stored
}

type config struct {
	compression format.CompressionType
}

// Option configures Encode.
type Option = options.Option[*config]

// WithCompression selects the payload codec. The default is Zstd.
func WithCompression(ct format.CompressionType) Option {
	return options.NoError(func(c *config) {
		c.compression = ct
	})
}

// entry is one directory entry.
type entry struct {
	offset   int64
	stored   uint32
	raw      uint32
	kind     format.SectionKind
	checksum uint64
}

// directory addresses the offset field that leads every directory entry.
func directory(engine endian.EndianEngine) section.Directory {
	return section.Directory{Width: format.Width32, Engine: engine, Stride: entrySize}
}
