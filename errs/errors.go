// Package errs defines the sentinel errors returned by segpack packages.
//
// Callers wrap these with layout and section context using fmt.Errorf and %w,
// so errors.Is works across the whole call chain.
package errs

import "errors"

// Format errors: the stream is not what the layout says it is.
var (
	ErrMagicMismatch      = errors.New("magic mismatch")
	ErrUnknownTag         = errors.New("unknown record tag")
	ErrUnknownLayout      = errors.New("unknown layout")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrNoExtHeader        = errors.New("no eXt header")
)

// Directory corruption errors.
var (
	ErrDuplicateOffset  = errors.New("duplicate section offset")
	ErrNegativeLength   = errors.New("negative section length")
	ErrCountOutOfRange  = errors.New("section count out of range")
	ErrOffsetOutOfRange = errors.New("section offset out of range")
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// ErrNotSeekable is returned when an encoder is handed a sink that cannot seek.
var ErrNotSeekable = errors.New("sink is not seekable")

// Construction errors, reported once when a value is built.
var (
	ErrInvalidLayout    = errors.New("invalid layout")
	ErrInvalidAlignment = errors.New("invalid alignment")
	ErrInvalidIcon      = errors.New("invalid icon entry")
	ErrRecordSize       = errors.New("record size mismatch")
	ErrSectionIndex     = errors.New("section index out of range")
	ErrNestedLayout     = errors.New("nested layout mismatch")
	ErrHeaderSize       = errors.New("header size mismatch")
	ErrOffsetOverflow   = errors.New("offset does not fit directory field")
	ErrInvalidCodec     = errors.New("invalid compression codec")
	ErrDuplicateTag     = errors.New("duplicate record tag")
)
