package bundle

import (
	"fmt"
	"io"
	"math"

	"github.com/insurgentsworkshop/segpack/compress"
	"github.com/insurgentsworkshop/segpack/container"
	"github.com/insurgentsworkshop/segpack/endian"
	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/insurgentsworkshop/segpack/format"
	"github.com/insurgentsworkshop/segpack/internal/hash"
	"github.com/insurgentsworkshop/segpack/internal/options"
	"github.com/insurgentsworkshop/segpack/internal/pool"
	"github.com/insurgentsworkshop/segpack/section"
)

// Encode writes c as a bundle at the current position of w.
//
// Like container.Write it reserves the directory, emits payloads and patches
// the directory afterwards, so w must be seekable. Nested containers become
// nested bundles using the same compression.
//
// Returns the bundle statistics, or errs.ErrNotSeekable before anything is
// written when w cannot seek. A failure after that leaves partial output.
func Encode(w io.Writer, c *container.Container, opts ...Option) (*Stats, error) {
	cfg := &config{compression: format.CompressionZstd}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return nil, err
	}

	ws, err := section.RequireSeeker(w)
	if err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	win, err := section.NewWindow(ws)
	if err != nil {
		return nil, err
	}

	e := &encoder{sink: win, codec: codec, cfg: cfg, engine: endian.GetLittleEndianEngine()}

	return e.encode(c)
}

// encoder writes one bundle.
//
// Note: encoder is NOT reusable.
type encoder struct {
	sink   io.WriteSeeker
	codec  compress.Codec
	cfg    *config
	engine endian.EndianEngine
}

func (e *encoder) encode(c *container.Container) (*Stats, error) {
	name := c.Layout().Name()
	if len(name) > math.MaxUint8 {
		return nil, fmt.Errorf("layout name of %d bytes: %w", len(name), errs.ErrInvalidLayout)
	}

	// 1. Preamble, name and header; the count is patched last.
	pre := make([]byte, 0, preambleSize+len(name)+len(c.Header))
	pre = append(pre, Magic...)
	pre = append(pre, Version, byte(e.cfg.compression), byte(len(name)), 0)
	pre = e.engine.AppendUint32(pre, 0)
	pre = e.engine.AppendUint32(pre, uint32(len(c.Header)))
	pre = append(pre, name...)
	pre = append(pre, c.Header...)
	if _, err := e.sink.Write(pre); err != nil {
		return nil, err
	}

	if _, err := section.PadTo(e.sink, nameAlignment, 0); err != nil {
		return nil, err
	}

	// 2. Directory placeholder.
	dir := directory(e.engine)
	patches, err := dir.Reserve(e.sink, c.Len())
	if err != nil {
		return nil, err
	}

	// 3. Payloads.
	stats := &Stats{}
	entries := make([]entry, c.Len())
	for i := range c.Sections {
		ent, err := e.emit(&c.Sections[i], stats)
		if err != nil {
			return nil, fmt.Errorf("%s: section %d: %w", name, i, err)
		}
		entries[i] = ent
	}

	if _, err := section.PadTo(e.sink, payloadAlignment, 0); err != nil {
		return nil, err
	}

	size, err := section.Position(e.sink)
	if err != nil {
		return nil, err
	}
	stats.Size = size

	// 4. Patch the directory offsets, the rest of every entry, then the count.
	offsets, release := pool.GetInt64Slice(len(entries))
	defer release()

	for i, ent := range entries {
		offsets[i] = ent.offset
	}

	if err := dir.Write(e.sink, patches, offsets); err != nil {
		return nil, fmt.Errorf("patch directory: %w", err)
	}

	for i, ent := range entries {
		if _, err := e.sink.Seek(patches[i]+int64(format.Width32), io.SeekStart); err != nil {
			return nil, err
		}

		if _, err := e.sink.Write(e.appendEntryFields(nil, ent)); err != nil {
			return nil, fmt.Errorf("patch directory entry %d: %w", i, err)
		}
	}

	if err := section.PatchUint(e.sink, countAt, e.engine, format.Width32, uint64(len(entries))); err != nil {
		return nil, fmt.Errorf("patch count: %w", err)
	}

	if _, err := e.sink.Seek(size, io.SeekStart); err != nil {
		return nil, err
	}

	return stats, nil
}

func (e *encoder) emit(s *container.Section, stats *Stats) (entry, error) {
	if s.Empty() {
		return entry{kind: format.KindAbsent}, nil
	}

	if _, err := section.PadTo(e.sink, payloadAlignment, 0); err != nil {
		return entry{}, err
	}

	offset, err := section.Position(e.sink)
	if err != nil {
		return entry{}, err
	}

	if s.Nested != nil {
		win, err := section.NewWindow(e.sink)
		if err != nil {
			return entry{}, err
		}

		child := &encoder{sink: win, codec: e.codec, cfg: e.cfg, engine: e.engine}
		nested, err := child.encode(s.Nested)
		if err != nil {
			return entry{}, err
		}
		stats.add(nested)

		return e.newEntry(offset, nested.Size, nested.Size, format.KindNested, 0)
	}

	stored, err := e.codec.Compress(s.Payload)
	if err != nil {
		return entry{}, fmt.Errorf("compress: %w", err)
	}

	if _, err := e.sink.Write(stored); err != nil {
		return entry{}, err
	}

	stats.Sections++
	stats.Raw += int64(len(s.Payload))
	stats.Stored += int64(len(stored))

	return e.newEntry(offset, int64(len(stored)), int64(len(s.Payload)), format.KindRaw, hash.Checksum(s.Payload))
}

func (e *encoder) newEntry(offset, stored, raw int64, kind format.SectionKind, sum uint64) (entry, error) {
	for _, v := range []int64{offset, stored, raw} {
		if v > math.MaxUint32 {
			return entry{}, fmt.Errorf("value 0x%X: %w", v, errs.ErrOffsetOverflow)
		}
	}

	return entry{offset: offset, stored: uint32(stored), raw: uint32(raw), kind: kind, checksum: sum}, nil
}

// appendEntryFields appends everything in an entry after its offset.
func (e *encoder) appendEntryFields(b []byte, ent entry) []byte {
	b = e.engine.AppendUint32(b, ent.stored)
	b = e.engine.AppendUint32(b, ent.raw)
	b = append(b, byte(ent.kind), 0, 0, 0)

	return e.engine.AppendUint64(b, ent.checksum)
}
