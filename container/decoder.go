package container

import (
	"bytes"
	"fmt"
	"io"

	"github.com/insurgentsworkshop/segpack/endian"
	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/insurgentsworkshop/segpack/format"
	"github.com/insurgentsworkshop/segpack/section"
)

// Decode reads a container of the given layout from r.
//
// The whole stream is the container: when the layout stores no end offset,
// the last section runs to the end of r.
//
// Parameters:
//   - r: Stream positioned anywhere; it is read from offset 0
//   - layout: Layout the stream is expected to follow
//
// Returns:
//   - *Container: Decoded container, nested slots decoded recursively
//   - error: errs.ErrMagicMismatch, a directory corruption error, or an I/O
//     error, wrapped with the layout name and section index
func Decode(r io.ReadSeeker, layout *Layout) (*Container, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}

	d := &decoder{r: r, size: size, layout: layout}

	c, err := d.decode()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", layout.name, err)
	}

	return c, nil
}

// DecodeBytes decodes a container held in memory.
func DecodeBytes(data []byte, layout *Layout) (*Container, error) {
	return Decode(bytes.NewReader(data), layout)
}

// decoder holds the state of one Decode call.
//
// Note: decoder is NOT reusable.
type decoder struct {
	r      io.ReadSeeker
	size   int64
	layout *Layout
	// dirEnd is the first byte past the directory; no section starts before it.
	dirEnd int64
}

func (d *decoder) decode() (*Container, error) {
	l := d.layout

	// 1. Header and magic
	if l.directoryAt > d.size {
		return nil, fmt.Errorf("header of 0x%X bytes in stream of 0x%X: %w", l.directoryAt, d.size, errs.ErrOffsetOutOfRange)
	}

	header := make([]byte, l.directoryAt)
	if _, err := d.r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	if _, err := io.ReadFull(d.r, header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	if !bytes.HasPrefix(header, l.magic) {
		return nil, fmt.Errorf("magic %q, want %q: %w", header[:len(l.magic)], l.magic, errs.ErrMagicMismatch)
	}

	// 2. Directory
	offsets, err := d.readDirectory(header)
	if err != nil {
		return nil, err
	}

	end := d.size
	if l.endOffset {
		if len(offsets) == 0 {
			return nil, fmt.Errorf("missing end entry: %w", errs.ErrCountOutOfRange)
		}
		end = offsets[len(offsets)-1]
		offsets = offsets[:len(offsets)-1]
		if end > d.size {
			return nil, fmt.Errorf("end entry: %w", errOutOfRange(end, d.size))
		}
	}

	// 3. Lengths
	var slots []section.Slot
	switch {
	case l.resolution == format.ResolveSorted:
		slots, err = section.ResolveLengths(offsets, end)
	case l.sentinel:
		slots, err = section.ResolveSequentialSparse(offsets, end)
	default:
		slots, err = section.ResolveSequential(offsets, end)
	}
	if err != nil {
		return nil, err
	}

	// 4. Payloads
	c := &Container{
		layout:   l,
		Header:   header,
		Sections: make([]Section, len(slots)),
	}

	for i, slot := range slots {
		s, err := d.readSection(slot)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		c.Sections[i] = s
	}

	return c, nil
}

func (d *decoder) readDirectory(header []byte) ([]int64, error) {
	l := d.layout
	dir := l.directory()

	if _, err := d.r.Seek(l.directoryAt, io.SeekStart); err != nil {
		return nil, err
	}

	if l.countKind == format.CountTerminated {
		limit := int((d.size - l.directoryAt) / int64(dir.EntrySize()))
		offsets, err := dir.ReadUntil(d.r, l.terminator, limit)
		if err != nil {
			return nil, err
		}
		d.dirEnd = l.directoryAt + dir.Size(len(offsets)+1)

		return offsets, nil
	}

	count := l.fixedCount
	if l.countKind == format.CountPrefixed {
		count = int(endian.Uint(l.engine, header[l.countAt:], l.countWidth))
	}

	entries := l.entries(count)
	if l.directoryAt+dir.Size(entries) > d.size {
		return nil, fmt.Errorf("%d directory entries at 0x%X in stream of 0x%X: %w", entries, l.directoryAt, d.size, errs.ErrCountOutOfRange)
	}

	d.dirEnd = l.directoryAt + dir.Size(entries)

	return dir.Read(d.r, entries)
}

func (d *decoder) readSection(slot section.Slot) (Section, error) {
	s := Section{Index: slot.Index, Offset: slot.Offset, Length: slot.Length}
	if d.layout.sentinel && slot.Absent() {
		return s, nil
	}

	if slot.Offset < d.dirEnd || slot.End() > d.size {
		return s, errOutOfRange(slot.Offset, d.size)
	}

	if slot.Length == 0 {
		return s, nil
	}

	payload := make([]byte, slot.Length)
	if _, err := d.r.Seek(slot.Offset, io.SeekStart); err != nil {
		return s, err
	}

	if _, err := io.ReadFull(d.r, payload); err != nil {
		return s, fmt.Errorf("read 0x%X bytes at 0x%X: %w", slot.Length, slot.Offset, err)
	}

	if nl, ok := d.layout.Nested(slot.Index); ok {
		nested, err := Decode(bytes.NewReader(payload), nl)
		if err != nil {
			return s, err
		}
		s.Nested = nested

		return s, nil
	}

	s.Payload = payload

	return s, nil
}

func errOutOfRange(offset, size int64) error {
	return fmt.Errorf("offset 0x%X in stream of 0x%X: %w", offset, size, errs.ErrOffsetOutOfRange)
}
