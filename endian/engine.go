// Package endian provides byte order utilities for directory and record fields.
//
// EndianEngine combines the ByteOrder and AppendByteOrder interfaces of
// encoding/binary, so one value can both read fields in place and append them
// to a growing buffer. The width-aware helpers read and write the 16-, 32- and
// 64-bit fields that offset directories are built from.
//
// Every built-in layout is little-endian:
//
//	engine := endian.GetLittleEndianEngine()
//	offset := endian.Uint(engine, buf[4:], format.Width32)
//
// All functions in this package are safe for concurrent use.
package endian

import (
	"encoding/binary"
	"fmt"

	"github.com/insurgentsworkshop/segpack/format"
)

// EndianEngine combines ByteOrder and AppendByteOrder interfaces from encoding/binary
// into a single interface for convenient byte order operations.
//
// This interface is satisfied by binary.LittleEndian and binary.BigEndian.
type EndianEngine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// GetLittleEndianEngine returns the little-endian engine.
func GetLittleEndianEngine() EndianEngine {
	return binary.LittleEndian
}

// GetBigEndianEngine returns the big-endian engine.
func GetBigEndianEngine() EndianEngine {
	return binary.BigEndian
}

// Uint reads one field of the given width from the start of b.
//
// Panics if b is shorter than width or width is not a valid field width,
// like the binary.ByteOrder methods it wraps.
func Uint(engine EndianEngine, b []byte, width format.FieldWidth) uint64 {
	switch width {
	case format.Width16:
		return uint64(engine.Uint16(b))
	case format.Width32:
		return uint64(engine.Uint32(b))
	case format.Width64:
		return engine.Uint64(b)
	default:
		panic(fmt.Sprintf("endian: unsupported field width %d", width))
	}
}

// PutUint writes v as one field of the given width at the start of b.
//
// The caller is responsible for checking v against width.Max(); higher bits
// are truncated.
func PutUint(engine EndianEngine, b []byte, width format.FieldWidth, v uint64) {
	switch width {
	case format.Width16:
		engine.PutUint16(b, uint16(v))
	case format.Width32:
		engine.PutUint32(b, uint32(v))
	case format.Width64:
		engine.PutUint64(b, v)
	default:
		panic(fmt.Sprintf("endian: unsupported field width %d", width))
	}
}

// AppendUint appends v as one field of the given width to b.
func AppendUint(engine EndianEngine, b []byte, width format.FieldWidth, v uint64) []byte {
	switch width {
	case format.Width16:
		return engine.AppendUint16(b, uint16(v))
	case format.Width32:
		return engine.AppendUint32(b, uint32(v))
	case format.Width64:
		return engine.AppendUint64(b, v)
	default:
		panic(fmt.Sprintf("endian: unsupported field width %d", width))
	}
}
