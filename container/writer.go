package container

import (
	"fmt"
	"io"
	"slices"

	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/insurgentsworkshop/segpack/format"
	"github.com/insurgentsworkshop/segpack/internal/pool"
	"github.com/insurgentsworkshop/segpack/section"
)

// Receipt reports where an encode placed every section.
type Receipt struct {
	// Size is the number of bytes written, trailing padding included.
	Size int64
	// End is the end of the section data, before trailing padding.
	End int64
	// Slots holds the resolved directory in logical order, offsets relative
	// to the container start.
	Slots []section.Slot
	// Children holds the receipts of nested containers by slot index.
	Children map[int]*Receipt
}

type writeState uint8

const (
	stateReserving writeState = iota
	stateEmitting
	statePatching
	stateDone
)

func (s writeState) String() string {
	switch s {
	case stateReserving:
		return "Reserving"
	case stateEmitting:
		return "Emitting"
	case statePatching:
		return "Patching"
	case stateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Write encodes c to w.
//
// w must be seekable; the position it is at becomes the container start and
// every recorded offset is relative to it. The writer leaves w positioned at
// the end of the container.
//
// Returns errs.ErrNotSeekable before writing anything if w cannot seek. Any
// later failure aborts the encode and leaves the bytes written so far in w.
func Write(w io.Writer, c *Container) (*Receipt, error) {
	ws, err := section.RequireSeeker(w)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.layout.name, err)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	win, err := section.NewWindow(ws)
	if err != nil {
		return nil, err
	}

	rec, err := newWriter(c, win).run()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.layout.name, err)
	}

	return rec, nil
}

// Encode encodes c into a new byte slice.
func Encode(c *Container) ([]byte, error) {
	buf := pool.GetContainerBuffer()
	defer pool.PutContainerBuffer(buf)

	if _, err := Write(buf, c); err != nil {
		return nil, err
	}

	return slices.Clone(buf.Bytes()), nil
}

// writer runs one two-pass encode. Its phases must run in order:
// Reserving, Emitting, Patching, Done.
//
// Note: writer is NOT reusable.
type writer struct {
	c     *Container
	l     *Layout
	sink  io.WriteSeeker
	state writeState

	patches []int64
	slots   []section.Slot
	end     int64
	size    int64

	children map[int]*Receipt
}

func newWriter(c *Container, sink io.WriteSeeker) *writer {
	return &writer{
		c:        c,
		l:        c.layout,
		sink:     sink,
		state:    stateReserving,
		children: make(map[int]*Receipt),
	}
}

func (w *writer) advance(from, to writeState) error {
	if w.state != from {
		return fmt.Errorf("writer in state %s, want %s", w.state, from)
	}
	w.state = to

	return nil
}

func (w *writer) run() (*Receipt, error) {
	if err := w.reserve(); err != nil {
		return nil, err
	}

	if err := w.emit(); err != nil {
		return nil, err
	}

	if err := w.patch(); err != nil {
		return nil, err
	}

	return &Receipt{
		Size:     w.size,
		End:      w.end,
		Slots:    w.slots,
		Children: w.children,
	}, nil
}

// reserve writes the header with a zeroed count field and a placeholder
// directory, then pads up to where the first section may start.
func (w *writer) reserve() error {
	l := w.l
	if w.state != stateReserving {
		return fmt.Errorf("writer in state %s, want %s", w.state, stateReserving)
	}

	header := l.maskHeader(w.c.Header)
	copy(header, l.magic)
	if _, err := w.sink.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	dir := l.directory()
	patches, err := dir.Reserve(w.sink, l.entries(len(w.c.Sections)))
	if err != nil {
		return err
	}
	w.patches = patches

	if l.countKind == format.CountTerminated {
		if err := dir.Terminate(w.sink, l.terminator); err != nil {
			return fmt.Errorf("write terminator: %w", err)
		}
	}

	if l.payloadStart > 0 {
		if _, err := section.FillTo(w.sink, l.payloadStart, l.directoryFill); err != nil {
			return fmt.Errorf("directory overruns payload start: %w", err)
		}
	}

	if l.padDirectory {
		if _, err := section.PadTo(w.sink, l.alignment, l.directoryFill); err != nil {
			return err
		}
	}

	return w.advance(stateReserving, stateEmitting)
}

// emit writes every section at its aligned position and records where it went.
func (w *writer) emit() error {
	l := w.l
	if w.state != stateEmitting {
		return fmt.Errorf("writer in state %s, want %s", w.state, stateEmitting)
	}

	w.slots = make([]section.Slot, len(w.c.Sections))
	for i := range w.slots {
		w.slots[i].Index = i
	}

	lastTail := false
	for _, idx := range l.emitOrder(len(w.c.Sections)) {
		s := &w.c.Sections[idx]
		if l.sentinel && s.Empty() {
			continue
		}

		if _, err := section.PadTo(w.sink, l.alignment, l.fill); err != nil {
			return fmt.Errorf("section %d: %w", idx, err)
		}

		offset, err := section.Position(w.sink)
		if err != nil {
			return err
		}

		if l.sentinel && offset == 0 {
			return fmt.Errorf("section %d at offset 0 collides with the absent sentinel: %w", idx, errs.ErrInvalidLayout)
		}

		length, err := w.emitSection(idx, s)
		if err != nil {
			return fmt.Errorf("section %d: %w", idx, err)
		}

		w.slots[idx] = section.Slot{Index: idx, Offset: offset, Length: length}
		lastTail = l.IsTail(idx)
	}

	end, err := section.Position(w.sink)
	if err != nil {
		return err
	}
	w.end = end

	if !lastTail {
		if _, err := section.PadTo(w.sink, l.alignment, l.fill); err != nil {
			return err
		}
	}

	if w.size, err = section.Position(w.sink); err != nil {
		return err
	}

	return w.advance(stateEmitting, statePatching)
}

func (w *writer) emitSection(idx int, s *Section) (int64, error) {
	if s.Nested == nil {
		n, err := w.sink.Write(s.Payload)
		return int64(n), err
	}

	win, err := section.NewWindow(w.sink)
	if err != nil {
		return 0, err
	}

	rec, err := newWriter(s.Nested, win).run()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", s.Nested.layout.name, err)
	}
	w.children[idx] = rec

	return rec.Size, nil
}

// patch fills in the reserved directory and count fields.
func (w *writer) patch() error {
	l := w.l
	if w.state != statePatching {
		return fmt.Errorf("writer in state %s, want %s", w.state, statePatching)
	}

	offsets, release := pool.GetInt64Slice(len(w.patches))
	defer release()

	for i, slot := range w.slots {
		offsets[i] = slot.Offset
	}

	if l.endOffset {
		offsets[len(offsets)-1] = w.end
	}

	if err := l.directory().Write(w.sink, w.patches, offsets); err != nil {
		return fmt.Errorf("patch directory: %w", err)
	}

	if l.countKind == format.CountPrefixed {
		err := section.PatchUint(w.sink, l.countAt, l.engine, l.countWidth, uint64(len(w.c.Sections)))
		if err != nil {
			return fmt.Errorf("patch count: %w", err)
		}
	}

	if _, err := w.sink.Seek(w.size, io.SeekStart); err != nil {
		return err
	}

	return w.advance(statePatching, stateDone)
}
