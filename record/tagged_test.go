package record

import (
	"testing"

	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/stretchr/testify/require"
)

func menuList(t *testing.T) TaggedList {
	t.Helper()

	reg, err := NewRegistry(MenuVariants()...)
	require.NoError(t, err)

	return TaggedList{Registry: reg}
}

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry(MenuVariants()...)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 4, 5, 6, 7, 8}, reg.Tags())

	v, err := reg.Lookup(7)
	require.NoError(t, err)
	require.Equal(t, 0x48, v.Size)

	_, err = reg.Lookup(3)
	require.ErrorIs(t, err, errs.ErrUnknownTag)

	_, err = NewRegistry(Variant{Tag: 1, Size: 4}, Variant{Tag: 1, Size: 8})
	require.ErrorIs(t, err, errs.ErrDuplicateTag)

	_, err = NewRegistry(Variant{Tag: 1, Size: 2})
	require.ErrorIs(t, err, errs.ErrRecordSize)
}

func TestTaggedList(t *testing.T) {
	list := menuList(t)

	entries := []Entry{
		{Tag: 1, Index: 0, Body: make([]byte, 0x10-3)},
		{Tag: 5, Index: 1, Body: make([]byte, 0x18-3)},
		{Tag: 8, Index: 2, Body: make([]byte, 0x2C-3)},
	}
	entries[1].Body[0] = 0x10

	data, err := list.Encode(entries)
	require.NoError(t, err)
	require.Len(t, data, 0x10+0x18+0x2C)
	require.Equal(t, []byte{0x10, 1, 0}, data[:3])
	require.Equal(t, []byte{0x18, 5, 1, 0x10}, data[0x10:0x14])

	got, err := list.Decode(data)
	require.NoError(t, err)
	require.Equal(t, entries, got)
}

func TestTaggedList_Errors(t *testing.T) {
	list := menuList(t)

	t.Run("unknown tag", func(t *testing.T) {
		data := append([]byte{0x10, 3, 0}, make([]byte, 13)...)
		_, err := list.Decode(data)
		require.ErrorIs(t, err, errs.ErrUnknownTag)

		_, err = list.Encode([]Entry{{Tag: 9}})
		require.ErrorIs(t, err, errs.ErrUnknownTag)
	})

	t.Run("size byte disagrees", func(t *testing.T) {
		data := append([]byte{0x11, 1, 0}, make([]byte, 14)...)
		_, err := list.Decode(data)
		require.ErrorIs(t, err, errs.ErrRecordSize)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := list.Decode([]byte{0x10, 1})
		require.ErrorIs(t, err, errs.ErrRecordSize)

		data := append([]byte{0x10, 1, 0}, make([]byte, 4)...)
		_, err = list.Decode(data)
		require.ErrorIs(t, err, errs.ErrRecordSize)
	})

	t.Run("wrong body length", func(t *testing.T) {
		_, err := list.Encode([]Entry{{Tag: 1, Body: []byte{1}}})
		require.ErrorIs(t, err, errs.ErrRecordSize)
	})
}
