package record

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/insurgentsworkshop/segpack/endian"
	"github.com/insurgentsworkshop/segpack/errs"
)

const (
	// TableMagic starts every fixed-width record table.
	TableMagic = "st2e"
	// TableHeaderSize is the size of the table header; entries follow it.
	TableHeaderSize = 0x20
)

// Table is a table of fixed-width records.
//
// Layout (little-endian):
//
//	0x00  magic "st2e"
//	0x04  u32 entry count
//	0x08  u16 entry size
//	0x0A  u16 reserved
//	0x0C  u32 entry section offset (0x20, 0 without entries; nothing else is accepted)
//	0x10  u32 unknown
//	0x14  u32 text section offset
//	0x18  u32 unknown
//	0x1C  u32 unknown
//	0x20  entries, then the trailer
//
// The reserved and unknown words and the trailer (usually the text section)
// are carried through untouched.
type Table struct {
	EntrySize   int
	Entries     [][]byte
	Reserved    uint16
	Unknown0    uint32
	TextSection uint32
	Unknown1    uint32
	Unknown2    uint32
	Trailer     []byte
}

// NewTable builds a table, checking every entry against entrySize.
func NewTable(entrySize int, entries [][]byte) (*Table, error) {
	if entrySize <= 0 || entrySize > 0xFFFF {
		return nil, fmt.Errorf("entry size %d: %w", entrySize, errs.ErrRecordSize)
	}

	for i, e := range entries {
		if len(e) != entrySize {
			return nil, fmt.Errorf("entry %d is %d bytes, want %d: %w", i, len(e), entrySize, errs.ErrRecordSize)
		}
	}

	return &Table{EntrySize: entrySize, Entries: entries}, nil
}

// TableSchema is the Schema of Table payloads.
type TableSchema struct{}

var _ Schema[*Table] = TableSchema{}

// Decode parses a record table.
func (TableSchema) Decode(data []byte) (*Table, error) {
	if len(data) < TableHeaderSize {
		return nil, fmt.Errorf("table of %d bytes: %w", len(data), errs.ErrOffsetOutOfRange)
	}

	if !bytes.Equal(data[:4], []byte(TableMagic)) {
		return nil, fmt.Errorf("table magic %q: %w", data[:4], errs.ErrMagicMismatch)
	}

	engine := endian.GetLittleEndianEngine()
	count := int(engine.Uint32(data[0x04:]))
	size := int(engine.Uint16(data[0x08:]))
	entriesAt := int(engine.Uint32(data[0x0C:]))

	t := &Table{
		EntrySize:   size,
		Reserved:    engine.Uint16(data[0x0A:]),
		Unknown0:    engine.Uint32(data[0x10:]),
		TextSection: engine.Uint32(data[0x14:]),
		Unknown1:    engine.Uint32(data[0x18:]),
		Unknown2:    engine.Uint32(data[0x1C:]),
	}

	if want := tableEntriesAt(count); entriesAt != want {
		return nil, fmt.Errorf("entry section at 0x%X for %d entries, want 0x%X: %w", entriesAt, count, want, errs.ErrOffsetOutOfRange)
	}

	end := TableHeaderSize
	if count > 0 {
		if size == 0 {
			return nil, fmt.Errorf("%d entries of size 0: %w", count, errs.ErrRecordSize)
		}

		end = entriesAt + count*size
		if end > len(data) {
			return nil, fmt.Errorf("%d entries of %d bytes at 0x%X in %d bytes: %w", count, size, entriesAt, len(data), errs.ErrOffsetOutOfRange)
		}

		t.Entries = make([][]byte, count)
		for i := range t.Entries {
			at := entriesAt + i*size
			t.Entries[i] = slices.Clone(data[at : at+size])
		}
	}

	if end < len(data) {
		t.Trailer = slices.Clone(data[end:])
	}

	return t, nil
}

// Encode serializes a record table with its entries right after the header.
func (TableSchema) Encode(t *Table) ([]byte, error) {
	if _, err := NewTable(t.EntrySize, t.Entries); err != nil {
		return nil, err
	}

	engine := endian.GetLittleEndianEngine()
	out := make([]byte, 0, TableHeaderSize+len(t.Entries)*t.EntrySize+len(t.Trailer))
	out = append(out, TableMagic...)
	out = engine.AppendUint32(out, uint32(len(t.Entries)))
	out = engine.AppendUint16(out, uint16(t.EntrySize))
	out = engine.AppendUint16(out, t.Reserved)
	out = engine.AppendUint32(out, uint32(tableEntriesAt(len(t.Entries))))
	out = engine.AppendUint32(out, t.Unknown0)
	out = engine.AppendUint32(out, t.TextSection)
	out = engine.AppendUint32(out, t.Unknown1)
	out = engine.AppendUint32(out, t.Unknown2)

	for _, e := range t.Entries {
		out = append(out, e...)
	}

	return append(out, t.Trailer...), nil
}

// tableEntriesAt is where count entries start: right after the header, or 0
// for an empty table.
func tableEntriesAt(count int) int {
	if count == 0 {
		return 0
	}

	return TableHeaderSize
}
