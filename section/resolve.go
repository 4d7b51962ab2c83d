package section

import (
	"fmt"
	"slices"

	"github.com/insurgentsworkshop/segpack/errs"
)

// ResolveLengths derives section lengths from an unordered offset directory.
//
// The directory stores no lengths and its slots need not be in physical
// order, so a slot's length cannot be computed from its neighbour in slot
// order. Instead every non-zero offset is paired with its slot index, the
// pairs are sorted by offset, and each length is the distance to the next
// offset in sorted order; the last one runs to end. The result is reassembled
// in slot order.
//
// The outcome depends only on the offset-to-slot mapping, never on the order
// the slots were written in.
//
// Parameters:
//   - offsets: Absolute offsets in slot order; 0 marks an absent slot
//   - end: Where the last section stops, either an explicit end entry or the
//     physical end of the stream, as the layout dictates
//
// Returns:
//   - []Slot: One slot per input offset, in slot order
//   - error: errs.ErrDuplicateOffset if two present slots share an offset,
//     errs.ErrNegativeLength if a section would end before it starts
func ResolveLengths(offsets []int64, end int64) ([]Slot, error) {
	slots := make([]Slot, len(offsets))
	present := make([]Slot, 0, len(offsets))
	for i, off := range offsets {
		slots[i] = Slot{Index: i}
		if off != 0 {
			present = append(present, Slot{Index: i, Offset: off})
		}
	}

	slices.SortFunc(present, func(a, b Slot) int {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		default:
			return a.Index - b.Index
		}
	})

	for i := range present {
		next := end
		if i+1 < len(present) {
			next = present[i+1].Offset
			if next == present[i].Offset {
				return nil, fmt.Errorf("slots %d and %d at 0x%X: %w",
					present[i].Index, present[i+1].Index, next, errs.ErrDuplicateOffset)
			}
		}

		length := next - present[i].Offset
		if length < 0 {
			return nil, fmt.Errorf("slot %d at 0x%X ends at 0x%X: %w",
				present[i].Index, present[i].Offset, next, errs.ErrNegativeLength)
		}

		present[i].Length = length
		slots[present[i].Index] = present[i]
	}

	return slots, nil
}

// ResolveSequential derives section lengths from a directory whose slots are
// stored in ascending physical order.
//
// Each length is the distance to the next slot's offset, the last one runs to
// end. Equal neighbours are legitimate empty sections. There is no absent
// sentinel: an offset of 0 is an ordinary value.
func ResolveSequential(offsets []int64, end int64) ([]Slot, error) {
	slots := make([]Slot, len(offsets))
	for i, off := range offsets {
		next := end
		if i+1 < len(offsets) {
			next = offsets[i+1]
		}

		length := next - off
		if length < 0 {
			return nil, fmt.Errorf("slot %d at 0x%X ends at 0x%X: %w", i, off, next, errs.ErrNegativeLength)
		}

		slots[i] = Slot{Index: i, Offset: off, Length: length}
	}

	return slots, nil
}

// ResolveSequentialSparse is ResolveSequential for directories that also mark
// absent slots with offset 0.
//
// Absent slots resolve to a zero slot. Every present slot runs to the next
// present offset in slot order, the last one to end.
func ResolveSequentialSparse(offsets []int64, end int64) ([]Slot, error) {
	slots := make([]Slot, len(offsets))
	next := end
	for i := len(offsets) - 1; i >= 0; i-- {
		slots[i] = Slot{Index: i}

		off := offsets[i]
		if off == 0 {
			continue
		}

		length := next - off
		if length < 0 {
			return nil, fmt.Errorf("slot %d at 0x%X ends at 0x%X: %w", i, off, next, errs.ErrNegativeLength)
		}

		slots[i] = Slot{Index: i, Offset: off, Length: length}
		next = off
	}

	return slots, nil
}
