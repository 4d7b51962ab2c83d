// Package format holds the small enumerations shared by the codec packages.
package format

import (
	"strconv"
	"strings"
)

type (
	// FieldWidth is the byte width of one directory field.
	FieldWidth uint8
	// Resolution selects how section lengths are derived from a directory.
	Resolution uint8
	// CountKind selects where a container's section count comes from.
	CountKind uint8
	// SectionKind classifies a slot in a bundle directory.
	SectionKind uint8
	// CompressionType identifies a bundle payload codec.
	CompressionType uint8
)

const (
	Width16 FieldWidth = 2 // Width16 is a 16-bit directory field.
	Width32 FieldWidth = 4 // Width32 is a 32-bit directory field.
	Width64 FieldWidth = 8 // Width64 is a 64-bit field, used for record scans only.
)

const (
	// ResolveSequential diffs offsets in slot order. Directories written in slot
	// order use it, and equal neighbours are zero-length present sections.
	ResolveSequential Resolution = 0x1
	// ResolveSorted sorts non-zero offsets by value before diffing, so slots may be
	// stored in any physical order.
	ResolveSorted Resolution = 0x2
)

const (
	CountFixed      CountKind = 0x1 // CountFixed is a count implied by the format.
	CountPrefixed   CountKind = 0x2 // CountPrefixed is a count stored in the header.
	CountTerminated CountKind = 0x3 // CountTerminated is a directory ended by a terminator value.
)

const (
	KindAbsent SectionKind = 0x0 // KindAbsent is an empty slot.
	KindRaw    SectionKind = 0x1 // KindRaw is an opaque payload.
	KindNested SectionKind = 0x2 // KindNested is a nested container.
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// Valid reports whether w is a width a directory can use.
func (w FieldWidth) Valid() bool {
	return w == Width16 || w == Width32 || w == Width64
}

// Max returns the largest value a field of width w can hold.
func (w FieldWidth) Max() uint64 {
	if w >= Width64 {
		return ^uint64(0)
	}

	return 1<<(8*uint(w)) - 1
}

func (w FieldWidth) String() string {
	switch w {
	case Width16:
		return "u16"
	case Width32:
		return "u32"
	case Width64:
		return "u64"
	default:
		return "width(" + strconv.Itoa(int(w)) + ")"
	}
}

func (r Resolution) String() string {
	switch r {
	case ResolveSequential:
		return "Sequential"
	case ResolveSorted:
		return "Sorted"
	default:
		return "Unknown"
	}
}

func (k CountKind) String() string {
	switch k {
	case CountFixed:
		return "Fixed"
	case CountPrefixed:
		return "Prefixed"
	case CountTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

func (k SectionKind) String() string {
	switch k {
	case KindAbsent:
		return "Absent"
	case KindRaw:
		return "Raw"
	case KindNested:
		return "Nested"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// ParseCompression maps a case-insensitive codec name to its CompressionType.
func ParseCompression(name string) (CompressionType, bool) {
	switch strings.ToLower(name) {
	case "none", "":
		return CompressionNone, true
	case "zstd":
		return CompressionZstd, true
	case "s2":
		return CompressionS2, true
	case "lz4":
		return CompressionLZ4, true
	default:
		return 0, false
	}
}
