package section

import (
	"fmt"
	"io"

	"github.com/insurgentsworkshop/segpack/endian"
	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/insurgentsworkshop/segpack/format"
)

// Directory describes how one offset table is encoded.
//
// Offsets handed to and returned from a Directory are absolute within the
// container. Base is added to every non-zero raw value on read and subtracted
// on write, for formats that store offsets relative to a sub-header. A raw 0
// is the absent sentinel and stays 0 in both directions.
//
// Stride is the distance between consecutive entries when an entry carries
// more than the offset field (the offset is always the first field of an
// entry). A zero Stride means entries are packed at Width.
type Directory struct {
	Width  format.FieldWidth
	Engine endian.EndianEngine
	Base   int64
	Stride int
}

// NewDirectory returns a packed directory of width-sized fields.
func NewDirectory(width format.FieldWidth, engine endian.EndianEngine) Directory {
	return Directory{Width: width, Engine: engine}
}

func (d Directory) stride() int {
	if d.Stride > 0 {
		return d.Stride
	}

	return int(d.Width)
}

// EntrySize returns the number of bytes one entry occupies.
func (d Directory) EntrySize() int {
	return d.stride()
}

// Size returns the number of bytes count entries occupy.
func (d Directory) Size(count int) int64 {
	return int64(count) * int64(d.stride())
}

func (d Directory) absolute(raw uint64) int64 {
	if raw == 0 {
		return 0
	}

	return int64(raw) + d.Base
}

// Relative converts an absolute offset to the raw value stored on disk.
//
// Returns errs.ErrOffsetOverflow when the value falls before Base or does not
// fit the field width.
func (d Directory) Relative(offset int64) (uint64, error) {
	if offset == 0 {
		return 0, nil
	}

	rel := offset - d.Base
	if rel < 0 || uint64(rel) > d.Width.Max() {
		return 0, fmt.Errorf("offset 0x%X (base 0x%X) in %s field: %w", offset, d.Base, d.Width, errs.ErrOffsetOverflow)
	}

	return uint64(rel), nil
}

// Read reads count entries from the current position of r.
//
// Parameters:
//   - r: Reader positioned at the first entry
//   - count: Number of entries to read
//
// Returns:
//   - []int64: Absolute offsets in slot order, 0 for absent slots
//   - error: Short read or invalid count
func (d Directory) Read(r io.Reader, count int) ([]int64, error) {
	if count < 0 {
		return nil, fmt.Errorf("directory count %d: %w", count, errs.ErrCountOutOfRange)
	}

	stride := d.stride()
	buf := make([]byte, count*stride)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read directory of %d entries: %w", count, err)
	}

	offsets := make([]int64, count)
	for i := range offsets {
		offsets[i] = d.absolute(endian.Uint(d.Engine, buf[i*stride:], d.Width))
	}

	return offsets, nil
}

// ReadUntil reads entries until one holds the terminator value.
//
// The terminator entry is consumed but not returned. Reading more than limit
// entries without meeting the terminator is errs.ErrCountOutOfRange, which
// bounds the damage of a corrupted or mis-identified stream.
func (d Directory) ReadUntil(r io.Reader, terminator uint64, limit int) ([]int64, error) {
	stride := d.stride()
	buf := make([]byte, stride)

	var offsets []int64
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("read directory entry %d: %w", len(offsets), err)
		}

		raw := endian.Uint(d.Engine, buf, d.Width)
		if raw == terminator {
			return offsets, nil
		}

		if len(offsets) == limit {
			return nil, fmt.Errorf("no terminator within %d entries: %w", limit, errs.ErrCountOutOfRange)
		}

		offsets = append(offsets, d.absolute(raw))
	}
}

// Reserve writes count zeroed entries at the current position of w.
//
// Returns the position of every entry, for Write to patch once the offsets
// are known.
func (d Directory) Reserve(w io.WriteSeeker, count int) ([]int64, error) {
	start, err := Position(w)
	if err != nil {
		return nil, err
	}

	stride := d.stride()
	if _, err := w.Write(make([]byte, count*stride)); err != nil {
		return nil, fmt.Errorf("reserve directory of %d entries: %w", count, err)
	}

	patches := make([]int64, count)
	for i := range patches {
		patches[i] = start + int64(i*stride)
	}

	return patches, nil
}

// Write patches resolved offsets into previously reserved entries and
// restores the position of w.
func (d Directory) Write(w io.WriteSeeker, patches []int64, offsets []int64) error {
	if len(patches) != len(offsets) {
		return fmt.Errorf("patch %d entries with %d offsets: %w", len(patches), len(offsets), errs.ErrCountOutOfRange)
	}

	for i, off := range offsets {
		raw, err := d.Relative(off)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}

		if err := PatchUint(w, patches[i], d.Engine, d.Width, raw); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}

	return nil
}

// Terminate appends the terminator value as one more entry.
func (d Directory) Terminate(w io.Writer, terminator uint64) error {
	buf := make([]byte, d.stride())
	endian.PutUint(d.Engine, buf, d.Width, terminator)
	_, err := w.Write(buf)

	return err
}

func outOfRange(offset, limit int64) error {
	return fmt.Errorf("offset 0x%X beyond 0x%X: %w", offset, limit, errs.ErrOffsetOutOfRange)
}
