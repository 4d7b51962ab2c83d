package container

import (
	"testing"

	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/insurgentsworkshop/segpack/format"
	"github.com/stretchr/testify/require"
)

func TestNewLayout_Defaults(t *testing.T) {
	l, err := NewLayout("plain", WithFixedCount(2), WithDirectoryAt(0))
	require.NoError(t, err)

	require.Equal(t, "plain", l.Name())
	require.Equal(t, format.Width32, l.Width())
	require.Equal(t, format.ResolveSequential, l.Resolution())
	require.False(t, l.Sentinel())
	align, fill := l.Alignment()
	require.Equal(t, DefaultAlignment, align)
	require.Zero(t, fill)
	n, ok := l.FixedCount()
	require.True(t, ok)
	require.Equal(t, 2, n)
}

func TestNewLayout_Options(t *testing.T) {
	inner, err := NewLayout("inner", WithFixedCount(1), WithDirectoryAt(4), WithMagic([]byte("IN")))
	require.NoError(t, err)

	magic := []byte("OUTR")
	l, err := NewLayout("outer",
		WithMagic(magic),
		WithDirectoryAt(8),
		WithFixedCount(4),
		WithSortedOffsets(),
		WithPayloadStart(0x20),
		WithTailSlots(3, 1, 3),
		WithNested(2, inner),
	)
	require.NoError(t, err)

	magic[0] = 'X'
	require.Equal(t, []byte("OUTR"), l.Magic(), "layout keeps its own copy of the magic")
	require.True(t, l.Sentinel())
	require.True(t, l.IsTail(1))
	require.True(t, l.IsTail(3))
	require.False(t, l.IsTail(0))
	require.Equal(t, []int{0, 2, 1, 3}, l.emitOrder(4))

	nl, ok := l.Nested(2)
	require.True(t, ok)
	require.Same(t, inner, nl)
	_, ok = l.Nested(0)
	require.False(t, ok)

	require.Contains(t, l.String(), "outer")
}

func TestNewLayout_Invalid(t *testing.T) {
	tests := []struct {
		name string
		opts []LayoutOption
		want error
	}{
		{"no count source", []LayoutOption{WithDirectoryAt(4)}, errs.ErrInvalidLayout},
		{"bad width", []LayoutOption{WithFixedCount(1), WithFieldWidth(format.Width64)}, errs.ErrInvalidLayout},
		{"bad alignment", []LayoutOption{WithFixedCount(1), WithAlignment(12, 0)}, errs.ErrInvalidAlignment},
		{"magic overlaps directory", []LayoutOption{WithFixedCount(1), WithMagic([]byte("EBP2")), WithDirectoryAt(2)}, errs.ErrInvalidLayout},
		{"count outside header", []LayoutOption{WithPrefixedCount(2, format.Width32), WithDirectoryAt(4)}, errs.ErrInvalidLayout},
		{"tail needs sorted resolution", []LayoutOption{WithFixedCount(1), WithTailSlots(0)}, errs.ErrInvalidLayout},
		{"tail out of range", []LayoutOption{WithFixedCount(2), WithSortedOffsets(), WithDirectoryAt(4), WithTailSlots(2)}, errs.ErrInvalidLayout},
		{"nested nil", []LayoutOption{WithFixedCount(2), WithNested(0, nil)}, errs.ErrInvalidLayout},
		{"directory past payload start", []LayoutOption{WithFixedCount(8), WithDirectoryAt(8), WithPayloadStart(0x20)}, errs.ErrInvalidLayout},
		{"terminator too wide", []LayoutOption{WithTerminatedCount(0x1FFFF), WithFieldWidth(format.Width16)}, errs.ErrInvalidLayout},
		{"negative directory", []LayoutOption{WithFixedCount(1), WithDirectoryAt(-1)}, errs.ErrInvalidLayout},
		{"nil byte order", []LayoutOption{WithFixedCount(1), WithByteOrder(nil)}, errs.ErrInvalidLayout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLayout("bad", tt.opts...)
			require.ErrorIs(t, err, tt.want)
		})
	}

	_, err := NewLayout("", WithFixedCount(1))
	require.ErrorIs(t, err, errs.ErrInvalidLayout)
}
