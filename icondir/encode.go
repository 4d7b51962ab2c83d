package icondir

import (
	"fmt"
	"io"

	"github.com/insurgentsworkshop/segpack/endian"
	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/insurgentsworkshop/segpack/format"
	"github.com/insurgentsworkshop/segpack/section"
)

const listAlignment = 16

// Encode writes d as an eXt header and lists at the current position of w.
//
// The header is reserved first and its size and list offsets are patched
// once the lists have been written, so w must be seekable. Offsets are
// relative to the position w was at when Encode was called.
//
// Returns the number of bytes written, trailing padding included.
func Encode(w io.Writer, d *Directory) (int64, error) {
	ws, err := section.RequireSeeker(w)
	if err != nil {
		return 0, err
	}

	win, err := section.NewWindow(ws)
	if err != nil {
		return 0, err
	}

	engine := endian.GetLittleEndianEngine()

	// Reserve the header.
	hdr := make([]byte, extHeaderSize)
	copy(hdr, extMagic)
	if _, err := win.Write(hdr); err != nil {
		return 0, err
	}

	// Section list: the word index of every section's first group, counted
	// from the start of the section list.
	var lists []byte
	next := uint64(len(d.Sections))
	for i, s := range d.Sections {
		if next > format.Width16.Max() {
			return 0, fmt.Errorf("section %d: group list index %d: %w", i, next, errs.ErrCountOutOfRange)
		}
		lists = engine.AppendUint16(lists, uint16(next))
		next += uint64(len(s.Groups))
	}

	// Group list: the cumulative index of every group's first icon.
	var icons []byte
	total := uint64(0)
	for i, s := range d.Sections {
		for j, g := range s.Groups {
			if total > format.Width16.Max() {
				return 0, fmt.Errorf("section %d group %d: icon index %d: %w", i, j, total, errs.ErrCountOutOfRange)
			}
			lists = engine.AppendUint16(lists, uint16(total))
			total += uint64(len(g.Icons))

			for k, icon := range g.Icons {
				if err := icon.Validate(); err != nil {
					return 0, fmt.Errorf("section %d group %d icon %d: %w", i, j, k, err)
				}
				icons = engine.AppendUint16(icons, icon.X)
				icons = engine.AppendUint16(icons, icon.Y)
				icons = engine.AppendUint32(icons, icon.flags())
			}
		}
	}

	if _, err := win.Write(lists); err != nil {
		return 0, err
	}

	if _, err := section.PadTo(win, listAlignment, 0); err != nil {
		return 0, err
	}

	clutList, err := section.Position(win)
	if err != nil {
		return 0, err
	}

	if _, err := win.Write(d.ClutGroups); err != nil {
		return 0, err
	}

	iconList, err := section.Position(win)
	if err != nil {
		return 0, err
	}

	if _, err := win.Write(icons); err != nil {
		return 0, err
	}

	if _, err := section.PadTo(win, listAlignment, 0); err != nil {
		return 0, err
	}

	size, err := section.Position(win)
	if err != nil {
		return 0, err
	}

	// Patch the header.
	patches := []struct {
		at    int64
		width format.FieldWidth
		v     int64
	}{
		{extSizeAt, format.Width32, size},
		{extSizeDupAt, format.Width32, size},
		{iconListAt, format.Width16, iconList},
		{clutListAt, format.Width16, clutList},
	}
	for _, p := range patches {
		if err := section.PatchUint(win, p.at, engine, p.width, uint64(p.v)); err != nil {
			return 0, fmt.Errorf("patch eXt header at 0x%X: %w", p.at, err)
		}
	}

	return size, nil
}
