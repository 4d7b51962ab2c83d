package bundle

import (
	"bytes"
	"fmt"
	"io"

	"github.com/insurgentsworkshop/segpack/compress"
	"github.com/insurgentsworkshop/segpack/container"
	"github.com/insurgentsworkshop/segpack/endian"
	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/insurgentsworkshop/segpack/format"
	"github.com/insurgentsworkshop/segpack/internal/hash"
	"github.com/insurgentsworkshop/segpack/section"
)

// Decode reads a bundle from r and rebuilds its container.
//
// Parameters:
//   - r: Stream holding exactly one bundle, read from offset 0
//   - resolver: Resolves the layout name stored in the bundle
//
// Returns:
//   - *container.Container: The rebuilt container
//   - error: errs.ErrMagicMismatch, errs.ErrUnsupportedVersion,
//     errs.ErrChecksumMismatch, a resolver error or a read error
func Decode(r io.ReadSeeker, resolver LayoutResolver) (*container.Container, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}

	d := &decoder{r: r, size: size, resolver: resolver, engine: endian.GetLittleEndianEngine()}

	return d.decode()
}

// DecodeBytes decodes a bundle held in memory.
func DecodeBytes(data []byte, resolver LayoutResolver) (*container.Container, error) {
	return Decode(bytes.NewReader(data), resolver)
}

type decoder struct {
	r        io.ReadSeeker
	size     int64
	resolver LayoutResolver
	engine   endian.EndianEngine
}

func (d *decoder) decode() (*container.Container, error) {
	pre := make([]byte, preambleSize)
	if err := d.readAt(0, pre); err != nil {
		return nil, fmt.Errorf("read preamble: %w", err)
	}

	if !bytes.Equal(pre[:len(Magic)], []byte(Magic)) {
		return nil, fmt.Errorf("bundle magic %q: %w", pre[:len(Magic)], errs.ErrMagicMismatch)
	}

	if pre[4] != Version || pre[7] != 0 {
		return nil, fmt.Errorf("bundle version %d flags 0x%02X: %w", pre[4], pre[7], errs.ErrUnsupportedVersion)
	}

	codec, err := compress.GetCodec(format.CompressionType(pre[5]))
	if err != nil {
		return nil, err
	}

	nameLen := int64(pre[6])
	count := int64(d.engine.Uint32(pre[countAt:]))
	headerLen := int64(d.engine.Uint32(pre[0x0C:]))

	dirAt := preambleSize + nameLen + headerLen
	dirAt += section.Padding(dirAt, nameAlignment)
	if dirAt+count*entrySize > d.size {
		return nil, fmt.Errorf("%d entries at 0x%X in bundle of 0x%X: %w", count, dirAt, d.size, errs.ErrCountOutOfRange)
	}

	nameAndHeader := make([]byte, nameLen+headerLen)
	if err := d.readAt(preambleSize, nameAndHeader); err != nil {
		return nil, err
	}
	name := string(nameAndHeader[:nameLen])

	layout, err := d.resolver.Layout(name)
	if err != nil {
		return nil, err
	}

	c, err := container.New(layout, int(count))
	if err != nil {
		return nil, err
	}

	if headerLen != layout.HeaderSize() {
		return nil, fmt.Errorf("%s: header of %d bytes, want %d: %w", name, headerLen, layout.HeaderSize(), errs.ErrHeaderSize)
	}
	c.Header = nameAndHeader[nameLen:]

	dir := make([]byte, count*entrySize)
	if err := d.readAt(dirAt, dir); err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	offsets, err := directory(d.engine).Read(bytes.NewReader(dir), int(count))
	if err != nil {
		return nil, err
	}

	for i := range c.Sections {
		ent := d.parseEntry(offsets[i], dir[i*entrySize:])
		if err := d.readSection(c, i, ent, codec); err != nil {
			return nil, fmt.Errorf("%s: section %d: %w", name, i, err)
		}
	}

	return c, nil
}

// parseEntry decodes the fields of an entry that follow its offset.
func (d *decoder) parseEntry(offset int64, b []byte) entry {
	return entry{
		offset:   offset,
		stored:   d.engine.Uint32(b[4:]),
		raw:      d.engine.Uint32(b[8:]),
		kind:     format.SectionKind(b[12]),
		checksum: d.engine.Uint64(b[16:]),
	}
}

func (d *decoder) readSection(c *container.Container, i int, ent entry, codec compress.Codec) error {
	if ent.kind == format.KindAbsent {
		return nil
	}

	if end := ent.offset + int64(ent.stored); end > d.size {
		return fmt.Errorf("offset 0x%X ends at 0x%X in bundle of 0x%X: %w", ent.offset, end, d.size, errs.ErrOffsetOutOfRange)
	}

	stored := make([]byte, ent.stored)
	if err := d.readAt(ent.offset, stored); err != nil {
		return err
	}

	switch ent.kind {
	case format.KindNested:
		nested, err := DecodeBytes(stored, d.resolver)
		if err != nil {
			return err
		}

		return c.SetNested(i, nested)
	case format.KindRaw:
		raw, err := codec.Decompress(stored)
		if err != nil {
			return err
		}

		if len(raw) != int(ent.raw) {
			return fmt.Errorf("%d bytes decompressed, want %d: %w", len(raw), ent.raw, errs.ErrChecksumMismatch)
		}

		if sum := hash.Checksum(raw); sum != ent.checksum {
			return fmt.Errorf("checksum %s, want %s: %w", hash.Hex(sum), hash.Hex(ent.checksum), errs.ErrChecksumMismatch)
		}

		return c.SetPayload(i, raw)
	default:
		return fmt.Errorf("section kind %d: %w", ent.kind, errs.ErrUnsupportedVersion)
	}
}

func (d *decoder) readAt(pos int64, buf []byte) error {
	if _, err := d.r.Seek(pos, io.SeekStart); err != nil {
		return err
	}

	_, err := io.ReadFull(d.r, buf)

	return err
}
