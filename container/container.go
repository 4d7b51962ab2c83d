package container

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/insurgentsworkshop/segpack/format"
)

// Section is one slot of a container.
//
// Offset and Length describe where the section was found on decode; the
// writer ignores them and derives fresh values. A section carries either an
// opaque Payload or, for slots the layout declares nested, a Nested container.
type Section struct {
	Index   int
	Offset  int64
	Length  int64
	Payload []byte
	Nested  *Container
}

// Empty reports whether the section has no content to write. In layouts with
// the absent sentinel an empty section is written as offset 0.
func (s *Section) Empty() bool {
	return s.Nested == nil && len(s.Payload) == 0
}

// Container is a decoded segmented container.
type Container struct {
	layout *Layout

	// Header holds the raw bytes preceding the directory, magic included.
	// Bytes the layout does not interpret (such as an index field) survive a
	// decode and encode unchanged; the magic and count fields are rewritten.
	Header []byte

	// Sections holds every slot in logical order, absent ones included.
	Sections []Section
}

// New creates an empty container with count slots.
//
// Returns errs.ErrCountOutOfRange when count disagrees with a fixed-count layout.
func New(layout *Layout, count int) (*Container, error) {
	if fixed, ok := layout.FixedCount(); ok && count != fixed {
		return nil, fmt.Errorf("%s: %d sections, layout has %d: %w", layout.name, count, fixed, errs.ErrCountOutOfRange)
	}

	if count < 0 {
		return nil, fmt.Errorf("%s: %d sections: %w", layout.name, count, errs.ErrCountOutOfRange)
	}

	header := make([]byte, layout.directoryAt)
	copy(header, layout.magic)

	c := &Container{
		layout:   layout,
		Header:   header,
		Sections: make([]Section, count),
	}
	for i := range c.Sections {
		c.Sections[i].Index = i
	}

	return c, nil
}

// Layout returns the container layout.
func (c *Container) Layout() *Layout {
	return c.layout
}

// Len returns the number of slots.
func (c *Container) Len() int {
	return len(c.Sections)
}

// Section returns slot i.
func (c *Container) Section(i int) (*Section, error) {
	if i < 0 || i >= len(c.Sections) {
		return nil, fmt.Errorf("%s: section %d of %d: %w", c.layout.name, i, len(c.Sections), errs.ErrSectionIndex)
	}

	return &c.Sections[i], nil
}

// SetPayload replaces slot i with an opaque payload.
func (c *Container) SetPayload(i int, data []byte) error {
	s, err := c.Section(i)
	if err != nil {
		return err
	}

	s.Payload = data
	s.Nested = nil

	return nil
}

// SetNested replaces slot i with a nested container.
//
// When the layout declares slot i nested, the nested container must use a
// layout of the same name.
func (c *Container) SetNested(i int, nested *Container) error {
	s, err := c.Section(i)
	if err != nil {
		return err
	}

	if want, ok := c.layout.Nested(i); ok && nested != nil && nested.layout.name != want.name {
		return fmt.Errorf("%s: section %d holds %s, want %s: %w", c.layout.name, i, nested.layout.name, want.name, errs.ErrNestedLayout)
	}

	s.Nested = nested
	s.Payload = nil

	return nil
}

// Present iterates over the slots that have content, in logical order.
func (c *Container) Present() iter.Seq2[int, *Section] {
	return func(yield func(int, *Section) bool) {
		for i := range c.Sections {
			if c.Sections[i].Empty() {
				continue
			}
			if !yield(i, &c.Sections[i]) {
				return
			}
		}
	}
}

// Validate checks the container against its layout before an encode.
func (c *Container) Validate() error {
	if int64(len(c.Header)) != c.layout.directoryAt {
		return fmt.Errorf("%s: header of %d bytes, want %d: %w", c.layout.name, len(c.Header), c.layout.directoryAt, errs.ErrHeaderSize)
	}

	if fixed, ok := c.layout.FixedCount(); ok && len(c.Sections) != fixed {
		return fmt.Errorf("%s: %d sections, layout has %d: %w", c.layout.name, len(c.Sections), fixed, errs.ErrCountOutOfRange)
	}

	if c.layout.countKind == format.CountPrefixed && uint64(len(c.Sections)) > c.layout.countWidth.Max() {
		return fmt.Errorf("%s: %d sections: %w", c.layout.name, len(c.Sections), errs.ErrCountOutOfRange)
	}

	for i := range c.Sections {
		s := &c.Sections[i]
		if s.Index != i {
			return fmt.Errorf("%s: section at position %d has index %d: %w", c.layout.name, i, s.Index, errs.ErrSectionIndex)
		}

		if s.Nested == nil {
			continue
		}

		if want, ok := c.layout.Nested(i); ok && s.Nested.layout.name != want.name {
			return fmt.Errorf("%s: section %d holds %s, want %s: %w", c.layout.name, i, s.Nested.layout.name, want.name, errs.ErrNestedLayout)
		}

		if err := s.Nested.Validate(); err != nil {
			return fmt.Errorf("%s: section %d: %w", c.layout.name, i, err)
		}
	}

	return nil
}

// Equal reports whether two containers have the same layout name, header and
// section contents. Decode positions and the stored count field are not compared.
func (c *Container) Equal(other *Container) bool {
	if c == nil || other == nil {
		return c == other
	}

	if c.layout.name != other.layout.name || len(c.Sections) != len(other.Sections) {
		return false
	}

	if !bytes.Equal(c.layout.maskHeader(c.Header), other.layout.maskHeader(other.Header)) {
		return false
	}

	for i := range c.Sections {
		a, b := &c.Sections[i], &other.Sections[i]
		if !bytes.Equal(a.Payload, b.Payload) || !a.Nested.Equal(b.Nested) {
			return false
		}
	}

	return true
}
