package container

import (
	"fmt"
	"slices"

	"github.com/insurgentsworkshop/segpack/endian"
	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/insurgentsworkshop/segpack/format"
	"github.com/insurgentsworkshop/segpack/internal/options"
	"github.com/insurgentsworkshop/segpack/section"
)

// DefaultAlignment is the section alignment used when a layout sets none.
const DefaultAlignment = 16

// Layout describes the on-disk shape of one container format.
type Layout struct {
	name        string
	magic       []byte
	directoryAt int64

	countKind  format.CountKind
	fixedCount int
	countAt    int64
	countWidth format.FieldWidth
	terminator uint64

	width  format.FieldWidth
	engine endian.EndianEngine
	base   int64

	resolution format.Resolution
	sentinel   bool
	endOffset  bool

	payloadStart  int64
	alignment     int
	fill          byte
	padDirectory  bool
	directoryFill byte

	tail   []int
	nested map[int]*Layout
}

// LayoutOption configures a Layout.
type LayoutOption = options.Option[*Layout]

// NewLayout builds and validates a layout.
//
// Unless overridden a layout has little-endian 32-bit fields, sequential
// resolution, no absent sentinel and 16-byte zero-filled section alignment.
// A count source (WithFixedCount, WithPrefixedCount or WithTerminatedCount)
// is required.
//
// Returns errs.ErrInvalidLayout describing the first inconsistency found.
func NewLayout(name string, opts ...LayoutOption) (*Layout, error) {
	l := &Layout{
		name:       name,
		width:      format.Width32,
		engine:     endian.GetLittleEndianEngine(),
		resolution: format.ResolveSequential,
		alignment:  DefaultAlignment,
		nested:     make(map[int]*Layout),
	}

	if err := options.Apply(l, opts...); err != nil {
		return nil, fmt.Errorf("layout %q: %w", name, err)
	}

	if err := l.validate(); err != nil {
		return nil, fmt.Errorf("layout %q: %w", name, err)
	}

	return l, nil
}

func invalid(msg string, args ...any) error {
	return fmt.Errorf("%w: %s", errs.ErrInvalidLayout, fmt.Sprintf(msg, args...))
}

func (l *Layout) validate() error {
	if l.name == "" {
		return invalid("empty name")
	}

	if l.width != format.Width16 && l.width != format.Width32 {
		return invalid("directory field width %s", l.width)
	}

	if !section.ValidAlignment(l.alignment) {
		return fmt.Errorf("%w: %d", errs.ErrInvalidAlignment, l.alignment)
	}

	if int64(len(l.magic)) > l.directoryAt {
		return invalid("magic of %d bytes overlaps directory at 0x%X", len(l.magic), l.directoryAt)
	}

	switch l.countKind {
	case format.CountFixed:
		if l.fixedCount < 0 {
			return invalid("negative fixed count %d", l.fixedCount)
		}
	case format.CountPrefixed:
		if l.countAt < int64(len(l.magic)) || l.countAt+int64(l.countWidth) > l.directoryAt {
			return invalid("count field at 0x%X outside header [0x%X, 0x%X)", l.countAt, len(l.magic), l.directoryAt)
		}
		if l.countWidth != format.Width16 && l.countWidth != format.Width32 {
			return invalid("count field width %s", l.countWidth)
		}
	case format.CountTerminated:
		if l.terminator > l.width.Max() {
			return invalid("terminator 0x%X wider than %s", l.terminator, l.width)
		}
	default:
		return invalid("no count source")
	}

	if l.resolution == format.ResolveSorted && !l.sentinel {
		return invalid("sorted resolution needs the absent sentinel")
	}

	if len(l.tail) > 0 && l.resolution != format.ResolveSorted {
		return invalid("tail-relocated slots need sorted resolution")
	}

	for _, idx := range l.tail {
		if idx < 0 || (l.countKind == format.CountFixed && idx >= l.fixedCount) {
			return invalid("tail slot %d out of range", idx)
		}
	}

	for idx, nl := range l.nested {
		if nl == nil {
			return invalid("nested slot %d has no layout", idx)
		}
		if idx < 0 || (l.countKind == format.CountFixed && idx >= l.fixedCount) {
			return invalid("nested slot %d out of range", idx)
		}
	}

	if l.payloadStart > 0 && l.countKind == format.CountFixed {
		if dirEnd := l.directoryAt + l.directory().Size(l.entries(l.fixedCount)); dirEnd > l.payloadStart {
			return invalid("directory ends at 0x%X past payload start 0x%X", dirEnd, l.payloadStart)
		}
	}

	return nil
}

// WithMagic sets the bytes every container of this layout starts with.
func WithMagic(magic []byte) LayoutOption {
	return options.NoError(func(l *Layout) {
		l.magic = slices.Clone(magic)
	})
}

// WithDirectoryAt sets the offset of the first directory entry. Everything
// before it is the header.
func WithDirectoryAt(offset int64) LayoutOption {
	return options.New(func(l *Layout) error {
		if offset < 0 {
			return invalid("negative directory offset %d", offset)
		}
		l.directoryAt = offset

		return nil
	})
}

// WithFixedCount declares a section count implied by the format.
func WithFixedCount(n int) LayoutOption {
	return options.NoError(func(l *Layout) {
		l.countKind = format.CountFixed
		l.fixedCount = n
	})
}

// WithPrefixedCount declares a section count stored in the header.
func WithPrefixedCount(at int64, width format.FieldWidth) LayoutOption {
	return options.NoError(func(l *Layout) {
		l.countKind = format.CountPrefixed
		l.countAt = at
		l.countWidth = width
	})
}

// WithTerminatedCount declares a directory that ends at the first entry
// holding terminator.
func WithTerminatedCount(terminator uint64) LayoutOption {
	return options.NoError(func(l *Layout) {
		l.countKind = format.CountTerminated
		l.terminator = terminator
	})
}

// WithFieldWidth sets the directory field width.
func WithFieldWidth(w format.FieldWidth) LayoutOption {
	return options.NoError(func(l *Layout) {
		l.width = w
	})
}

// WithByteOrder sets the byte order of directory and count fields.
func WithByteOrder(engine endian.EndianEngine) LayoutOption {
	return options.New(func(l *Layout) error {
		if engine == nil {
			return invalid("nil byte order")
		}
		l.engine = engine

		return nil
	})
}

// WithRelativeBase stores offsets relative to base instead of the container start.
func WithRelativeBase(base int64) LayoutOption {
	return options.NoError(func(l *Layout) {
		l.base = base
	})
}

// WithAbsentSentinel makes offset 0 mean "no payload". On a sequential
// layout each present slot then runs to the next present offset.
func WithAbsentSentinel() LayoutOption {
	return options.NoError(func(l *Layout) {
		l.sentinel = true
	})
}

// WithSortedOffsets resolves lengths by sorting offsets by value, allowing
// slots to be stored in any order. It implies the absent sentinel.
func WithSortedOffsets() LayoutOption {
	return options.NoError(func(l *Layout) {
		l.resolution = format.ResolveSorted
		l.sentinel = true
	})
}

// WithEndOffset adds one directory entry after the last slot holding the end
// of the section data. Without it the last section runs to the end of the stream.
func WithEndOffset() LayoutOption {
	return options.NoError(func(l *Layout) {
		l.endOffset = true
	})
}

// WithPayloadStart fixes where the first section may start. The gap between
// the directory and this offset is filled with the directory fill byte.
func WithPayloadStart(offset int64) LayoutOption {
	return options.NoError(func(l *Layout) {
		l.payloadStart = offset
	})
}

// WithAlignment sets the section alignment and the byte padding is filled with.
func WithAlignment(alignment int, fill byte) LayoutOption {
	return options.NoError(func(l *Layout) {
		l.alignment = alignment
		l.fill = fill
	})
}

// WithDirectoryPadding pads the end of the directory to the section
// alignment with fill, even when no section follows.
func WithDirectoryPadding(fill byte) LayoutOption {
	return options.NoError(func(l *Layout) {
		l.padDirectory = true
		l.directoryFill = fill
	})
}

// WithTailSlots moves the given slots after every other slot on encode.
// Their offsets stay in their logical directory entries.
func WithTailSlots(indices ...int) LayoutOption {
	return options.NoError(func(l *Layout) {
		for _, idx := range indices {
			if !slices.Contains(l.tail, idx) {
				l.tail = append(l.tail, idx)
			}
		}
		slices.Sort(l.tail)
	})
}

// WithNested declares that slot index holds a container of layout nested.
func WithNested(index int, nested *Layout) LayoutOption {
	return options.NoError(func(l *Layout) {
		l.nested[index] = nested
	})
}

// Name returns the layout name.
func (l *Layout) Name() string { return l.name }

// Magic returns a copy of the layout magic.
func (l *Layout) Magic() []byte { return slices.Clone(l.magic) }

// HeaderSize returns the number of bytes before the directory.
func (l *Layout) HeaderSize() int64 { return l.directoryAt }

// CountKind returns where the section count comes from.
func (l *Layout) CountKind() format.CountKind { return l.countKind }

// FixedCount returns the implied section count of fixed-count layouts.
func (l *Layout) FixedCount() (int, bool) {
	return l.fixedCount, l.countKind == format.CountFixed
}

// Resolution returns the length resolution strategy.
func (l *Layout) Resolution() format.Resolution { return l.resolution }

// Sentinel reports whether offset 0 marks an absent slot.
func (l *Layout) Sentinel() bool { return l.sentinel }

// Alignment returns the section alignment and fill byte.
func (l *Layout) Alignment() (int, byte) { return l.alignment, l.fill }

// Width returns the directory field width.
func (l *Layout) Width() format.FieldWidth { return l.width }

// IsTail reports whether slot index is written after all other slots.
func (l *Layout) IsTail(index int) bool {
	_, found := slices.BinarySearch(l.tail, index)
	return found
}

// Nested returns the layout declared for slot index, if any.
func (l *Layout) Nested(index int) (*Layout, bool) {
	nl, ok := l.nested[index]
	return nl, ok
}

func (l *Layout) String() string {
	return fmt.Sprintf("%s(%s %s, %s resolution, align %d)", l.name, l.countKind, l.width, l.resolution, l.alignment)
}

func (l *Layout) directory() section.Directory {
	return section.Directory{Width: l.width, Engine: l.engine, Base: l.base}
}

// entries returns the number of directory entries for count sections.
func (l *Layout) entries(count int) int {
	if l.endOffset {
		return count + 1
	}

	return count
}

// maskHeader returns a copy of header with the magic and count fields zeroed.
func (l *Layout) maskHeader(header []byte) []byte {
	out := slices.Clone(header)
	clear(out[:min(len(out), len(l.magic))])

	if l.countKind == format.CountPrefixed {
		end := min(int64(len(out)), l.countAt+int64(l.countWidth))
		if l.countAt < end {
			clear(out[l.countAt:end])
		}
	}

	return out
}

// emitOrder returns slot indices in the order the writer places them.
func (l *Layout) emitOrder(count int) []int {
	order := make([]int, 0, count)
	for i := range count {
		if !l.IsTail(i) {
			order = append(order, i)
		}
	}

	for _, idx := range l.tail {
		if idx < count {
			order = append(order, idx)
		}
	}

	return order
}
