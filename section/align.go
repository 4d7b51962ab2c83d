package section

import (
	"io"
)

// Padding returns how many bytes take pos to the next multiple of alignment.
// An alignment of 0 or 1 never pads.
func Padding(pos int64, alignment int) int64 {
	if alignment <= 1 {
		return 0
	}

	a := int64(alignment)

	return (a - pos%a) % a
}

// ValidAlignment reports whether a is a usable alignment: a positive power of two.
func ValidAlignment(a int) bool {
	return a > 0 && a&(a-1) == 0
}

// PadTo writes fill bytes until the position of w is a multiple of alignment.
//
// Nothing is written when w is already aligned. The position is taken from w
// itself, so padding inside a Window is relative to the window start.
//
// Parameters:
//   - w: Sink to pad
//   - alignment: Boundary in bytes (4 or 16 for every built-in layout)
//   - fill: Padding byte, 0x00 or 0xFF depending on the format
//
// Returns:
//   - int64: Number of padding bytes written
//   - error: Seek or write error
func PadTo(w io.WriteSeeker, alignment int, fill byte) (int64, error) {
	pos, err := Position(w)
	if err != nil {
		return 0, err
	}

	n := Padding(pos, alignment)
	if n == 0 {
		return 0, nil
	}

	pad := make([]byte, n)
	if fill != 0 {
		for i := range pad {
			pad[i] = fill
		}
	}

	if _, err := w.Write(pad); err != nil {
		return 0, err
	}

	return n, nil
}

// FillTo writes fill bytes until w reaches position target.
//
// Used for formats whose payload region starts at a fixed offset. Returns
// errs.ErrOffsetOutOfRange when w is already past target.
func FillTo(w io.WriteSeeker, target int64, fill byte) (int64, error) {
	pos, err := Position(w)
	if err != nil {
		return 0, err
	}

	if pos > target {
		return 0, outOfRange(pos, target)
	}

	n := target - pos
	if n == 0 {
		return 0, nil
	}

	pad := make([]byte, n)
	if fill != 0 {
		for i := range pad {
			pad[i] = fill
		}
	}

	if _, err := w.Write(pad); err != nil {
		return 0, err
	}

	return n, nil
}
