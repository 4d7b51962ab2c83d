package section

import (
	"fmt"
	"io"

	"github.com/insurgentsworkshop/segpack/endian"
	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/insurgentsworkshop/segpack/format"
)

// RequireSeeker checks that w can seek before anything is written to it.
//
// A type assertion alone is not enough: *os.File satisfies io.Seeker even for
// pipes and terminals, so the current position is probed as well.
//
// Returns:
//   - io.WriteSeeker: w as a seekable sink
//   - error: errs.ErrNotSeekable if w cannot seek
func RequireSeeker(w io.Writer) (io.WriteSeeker, error) {
	ws, ok := w.(io.WriteSeeker)
	if !ok {
		return nil, fmt.Errorf("%T: %w", w, errs.ErrNotSeekable)
	}

	if _, err := ws.Seek(0, io.SeekCurrent); err != nil {
		return nil, fmt.Errorf("%T: %w: %w", w, errs.ErrNotSeekable, err)
	}

	return ws, nil
}

// Position returns the current position of s.
func Position(s io.Seeker) (int64, error) {
	return s.Seek(0, io.SeekCurrent)
}

// PatchUint writes v as one field at position at, then restores the position.
func PatchUint(w io.WriteSeeker, at int64, engine endian.EndianEngine, width format.FieldWidth, v uint64) error {
	if v > width.Max() {
		return fmt.Errorf("value %d at 0x%X: %w", v, at, errs.ErrOffsetOverflow)
	}

	cur, err := Position(w)
	if err != nil {
		return err
	}

	if _, err := w.Seek(at, io.SeekStart); err != nil {
		return err
	}

	buf := make([]byte, width)
	endian.PutUint(engine, buf, width, v)
	if _, err := w.Write(buf); err != nil {
		return err
	}

	_, err = w.Seek(cur, io.SeekStart)

	return err
}

// Window is a view of a seekable sink whose position 0 is the sink position
// at the time the window was opened.
//
// A nested container is written through a Window so that the offsets it
// records are relative to its own start, exactly as if it had been written to
// a file of its own.
type Window struct {
	w    io.WriteSeeker
	base int64
}

var _ io.WriteSeeker = (*Window)(nil)

// NewWindow opens a window at the current position of w.
func NewWindow(w io.WriteSeeker) (*Window, error) {
	base, err := Position(w)
	if err != nil {
		return nil, err
	}

	return &Window{w: w, base: base}, nil
}

// Base returns the position in the underlying sink that the window starts at.
func (win *Window) Base() int64 {
	return win.base
}

func (win *Window) Write(p []byte) (int, error) {
	return win.w.Write(p)
}

// Seek moves within the window. Seeking before the window start is an error.
func (win *Window) Seek(offset int64, whence int) (int64, error) {
	var (
		abs int64
		err error
	)

	switch whence {
	case io.SeekStart:
		if offset < 0 {
			return 0, fmt.Errorf("window seek to %d: %w", offset, errs.ErrOffsetOutOfRange)
		}
		abs, err = win.w.Seek(win.base+offset, io.SeekStart)
	case io.SeekCurrent, io.SeekEnd:
		abs, err = win.w.Seek(offset, whence)
	default:
		return 0, fmt.Errorf("window seek: invalid whence %d", whence)
	}

	if err != nil {
		return 0, err
	}

	if abs < win.base {
		return 0, fmt.Errorf("window seek to %d: %w", abs-win.base, errs.ErrOffsetOutOfRange)
	}

	return abs - win.base, nil
}
