package icondir

import (
	"bytes"
	"fmt"
	"io"

	"github.com/insurgentsworkshop/segpack/endian"
	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/insurgentsworkshop/segpack/section"
)

// eXt header fields, relative to the header base.
const (
	extSizeAt     = 0x04
	extSizeDupAt  = 0x08
	iconListAt    = 0x10
	clutListAt    = 0x12
	extHeaderSize = 0x14

	iconEntrySize = 8
	listWordSize  = 2

	// Tim2ExtBase is where the eXt header starts in a single-picture TIM2:
	// after the 0x10-byte file header and the 0x30-byte picture header.
	Tim2ExtBase = 0x40
)

var (
	extMagic  = []byte("eXt\x00")
	tim2Magic = []byte("TIM2")
)

// ReadTim2 decodes the icon directory of a TIM2 texture.
//
// Returns errs.ErrMagicMismatch when r is not a TIM2 and errs.ErrNoExtHeader
// when the texture carries no icon directory.
func ReadTim2(r io.ReadSeeker) (*Directory, error) {
	magic := make([]byte, len(tim2Magic))
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}

	if !bytes.Equal(magic, tim2Magic) {
		return nil, fmt.Errorf("magic %q: %w", magic, errs.ErrMagicMismatch)
	}

	return Decode(r, Tim2ExtBase)
}

// Decode reads an eXt icon directory whose header starts at base.
//
// Parameters:
//   - r: Stream holding the directory
//   - base: Absolute position of the eXt header; every list offset is relative to it
//
// Returns:
//   - *Directory: Decoded directory
//   - error: errs.ErrNoExtHeader, errs.ErrOffsetOutOfRange or
//     errs.ErrCountOutOfRange for inconsistent lists, or a read error
func Decode(r io.ReadSeeker, base int64) (*Directory, error) {
	engine := endian.GetLittleEndianEngine()

	hdr := make([]byte, extHeaderSize)
	if _, err := r.Seek(base, io.SeekStart); err != nil {
		return nil, err
	}

	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, fmt.Errorf("read eXt header at 0x%X: %w", base, err)
	}

	if !bytes.Equal(hdr[:len(extMagic)], extMagic) {
		return nil, fmt.Errorf("at 0x%X: %w", base, errs.ErrNoExtHeader)
	}

	size := int64(engine.Uint32(hdr[extSizeAt:]))
	iconList := int64(engine.Uint16(hdr[iconListAt:]))
	clutList := int64(engine.Uint16(hdr[clutListAt:]))
	if clutList < extHeaderSize || clutList > iconList || iconList > size {
		return nil, fmt.Errorf("clut list 0x%X, icon list 0x%X, size 0x%X: %w", clutList, iconList, size, errs.ErrOffsetOutOfRange)
	}

	d := &extDecoder{
		r:         r,
		engine:    engine,
		listStart: base + extHeaderSize,
		clutStart: base + clutList,
		iconStart: base + iconList,
		end:       base + size,
	}

	return d.decode()
}

type extDecoder struct {
	r      io.ReadSeeker
	engine endian.EndianEngine

	listStart int64
	clutStart int64
	iconStart int64
	end       int64

	words []uint16
}

func (d *extDecoder) decode() (*Directory, error) {
	raw := make([]byte, d.clutStart-d.listStart)
	if err := d.readAt(d.listStart, raw); err != nil {
		return nil, fmt.Errorf("read lists: %w", err)
	}

	d.words = make([]uint16, len(raw)/listWordSize)
	for i := range d.words {
		d.words[i] = d.engine.Uint16(raw[i*listWordSize:])
	}

	dir := &Directory{ClutGroups: make([]byte, d.iconStart-d.clutStart)}
	if err := d.readAt(d.clutStart, dir.ClutGroups); err != nil {
		return nil, fmt.Errorf("read clut groups: %w", err)
	}

	if len(d.words) == 0 {
		return dir, nil
	}

	// The first section entry points just past the section list, so it
	// doubles as the section count.
	sectionCount := int(d.words[0])
	if sectionCount > len(d.words) {
		return nil, fmt.Errorf("%d sections in a list of %d words: %w", sectionCount, len(d.words), errs.ErrCountOutOfRange)
	}

	dir.Sections = make([]Section, sectionCount)
	for i := range sectionCount {
		groups, err := d.decodeSection(i, sectionCount)
		if err != nil {
			return nil, fmt.Errorf("section %d: %w", i, err)
		}
		dir.Sections[i].Groups = groups
	}

	return dir, nil
}

func (d *extDecoder) decodeSection(i, sectionCount int) ([]Group, error) {
	first := int(d.words[i])

	var groupCount int
	if i < sectionCount-1 {
		groupCount = int(d.words[i+1]) - first
		if groupCount < 0 {
			return nil, fmt.Errorf("group list at word %d after %d: %w", first, d.words[i+1], errs.ErrNegativeLength)
		}
	} else {
		n, err := section.CountByScan(d.r, d.listStart+int64(first)*listWordSize, d.clutStart, listWordSize)
		if err != nil {
			return nil, err
		}
		groupCount = n
	}

	if first+groupCount > len(d.words) {
		return nil, fmt.Errorf("%d groups from word %d: %w", groupCount, first, errs.ErrCountOutOfRange)
	}

	last := i == sectionCount-1
	groups := make([]Group, groupCount)
	for j := range groupCount {
		icons, err := d.decodeGroup(first+j, last && j == groupCount-1)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", j, err)
		}
		groups[j].Icons = icons
	}

	return groups, nil
}

func (d *extDecoder) decodeGroup(word int, last bool) ([]Icon, error) {
	first := int64(d.words[word])
	start := d.iconStart + first*iconEntrySize

	var count int64
	if last || word+1 >= len(d.words) {
		n, err := section.CountByScan(d.r, start, d.end, iconEntrySize)
		if err != nil {
			return nil, err
		}
		count = int64(n)
	} else {
		count = int64(d.words[word+1]) - first
		if count < 0 {
			return nil, fmt.Errorf("icon index %d after %d: %w", d.words[word+1], first, errs.ErrNegativeLength)
		}
	}

	if start+count*iconEntrySize > d.end {
		return nil, fmt.Errorf("%d icons from 0x%X past 0x%X: %w", count, start, d.end, errs.ErrOffsetOutOfRange)
	}

	raw := make([]byte, count*iconEntrySize)
	if err := d.readAt(start, raw); err != nil {
		return nil, err
	}

	icons := make([]Icon, count)
	for k := range icons {
		b := raw[k*iconEntrySize:]
		icons[k] = iconFromRaw(d.engine.Uint16(b), d.engine.Uint16(b[2:]), d.engine.Uint32(b[4:]))
	}

	return icons, nil
}

func (d *extDecoder) readAt(pos int64, buf []byte) error {
	if _, err := d.r.Seek(pos, io.SeekStart); err != nil {
		return err
	}

	_, err := io.ReadFull(d.r, buf)

	return err
}
