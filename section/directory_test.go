package section

import (
	"bytes"
	"io"
	"testing"

	"github.com/insurgentsworkshop/segpack/endian"
	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/insurgentsworkshop/segpack/format"
	"github.com/insurgentsworkshop/segpack/internal/pool"
	"github.com/stretchr/testify/require"
)

var le = endian.GetLittleEndianEngine()

func TestDirectory_Read(t *testing.T) {
	t.Run("u32", func(t *testing.T) {
		d := NewDirectory(format.Width32, le)
		data := []byte{0x80, 0, 0, 0, 0, 0, 0, 0, 0x90, 0x01, 0, 0}

		offsets, err := d.Read(bytes.NewReader(data), 3)
		require.NoError(t, err)
		require.Equal(t, []int64{0x80, 0, 0x190}, offsets)
	})

	t.Run("u16 relative to base", func(t *testing.T) {
		d := Directory{Width: format.Width16, Engine: le, Base: 0x40}
		data := []byte{0x14, 0, 0, 0, 0x20, 0}

		offsets, err := d.Read(bytes.NewReader(data), 3)
		require.NoError(t, err)
		require.Equal(t, []int64{0x54, 0, 0x60}, offsets, "zero stays the absent sentinel")
	})

	t.Run("big endian", func(t *testing.T) {
		d := NewDirectory(format.Width32, endian.GetBigEndianEngine())
		offsets, err := d.Read(bytes.NewReader([]byte{0, 0, 1, 0}), 1)
		require.NoError(t, err)
		require.Equal(t, []int64{0x100}, offsets)
	})

	t.Run("stride", func(t *testing.T) {
		d := Directory{Width: format.Width32, Engine: le, Stride: 8}
		data := []byte{0x10, 0, 0, 0, 0xAA, 0xAA, 0xAA, 0xAA, 0x20, 0, 0, 0, 0xBB, 0xBB, 0xBB, 0xBB}

		offsets, err := d.Read(bytes.NewReader(data), 2)
		require.NoError(t, err)
		require.Equal(t, []int64{0x10, 0x20}, offsets)
		require.Equal(t, int64(16), d.Size(2))
	})

	t.Run("short read", func(t *testing.T) {
		d := NewDirectory(format.Width32, le)
		_, err := d.Read(bytes.NewReader([]byte{1, 0, 0}), 1)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("negative count", func(t *testing.T) {
		d := NewDirectory(format.Width32, le)
		_, err := d.Read(bytes.NewReader(nil), -1)
		require.ErrorIs(t, err, errs.ErrCountOutOfRange)
	})
}

func TestDirectory_ReadUntil(t *testing.T) {
	d := NewDirectory(format.Width32, le)
	data := []byte{
		0x10, 0, 0, 0,
		0x30, 0, 0, 0,
		0xFF, 0xFF, 0xFF, 0xFF,
		0xEE, 0xEE, 0xEE, 0xEE,
	}

	r := bytes.NewReader(data)
	offsets, err := d.ReadUntil(r, 0xFFFFFFFF, 8)
	require.NoError(t, err)
	require.Equal(t, []int64{0x10, 0x30}, offsets)
	require.Equal(t, 4, r.Len(), "terminator consumed, nothing after it")

	_, err = d.ReadUntil(bytes.NewReader(data), 0xFFFFFFFF, 1)
	require.ErrorIs(t, err, errs.ErrCountOutOfRange)

	_, err = d.ReadUntil(bytes.NewReader(data[:8]), 0xFFFFFFFF, 8)
	require.ErrorIs(t, err, io.EOF)
}

func TestDirectory_ReserveAndWrite(t *testing.T) {
	d := NewDirectory(format.Width32, le)
	buf := pool.NewByteBuffer(64)
	_, _ = buf.Write([]byte("HDR!"))

	patches, err := d.Reserve(buf, 3)
	require.NoError(t, err)
	require.Equal(t, []int64{4, 8, 12}, patches)
	require.Equal(t, 16, buf.Len())
	require.Equal(t, make([]byte, 12), buf.Bytes()[4:16], "placeholders are zero")

	_, _ = buf.Write([]byte{0xCC, 0xCC})
	require.NoError(t, d.Write(buf, patches, []int64{0x10, 0, 0x11}))
	require.Equal(t, 18, buf.Pos(), "position restored after patching")
	require.Equal(t, []byte{
		'H', 'D', 'R', '!',
		0x10, 0, 0, 0,
		0, 0, 0, 0,
		0x11, 0, 0, 0,
		0xCC, 0xCC,
	}, buf.Bytes())

	err = d.Write(buf, patches, []int64{1, 2})
	require.ErrorIs(t, err, errs.ErrCountOutOfRange)
}

func TestDirectory_Relative(t *testing.T) {
	d := Directory{Width: format.Width16, Engine: le, Base: 0x40}

	raw, err := d.Relative(0)
	require.NoError(t, err)
	require.Zero(t, raw)

	raw, err = d.Relative(0x54)
	require.NoError(t, err)
	require.Equal(t, uint64(0x14), raw)

	_, err = d.Relative(0x20)
	require.ErrorIs(t, err, errs.ErrOffsetOverflow)

	_, err = d.Relative(0x40 + 0x10000)
	require.ErrorIs(t, err, errs.ErrOffsetOverflow)
}

func TestDirectory_Terminate(t *testing.T) {
	d := NewDirectory(format.Width32, le)
	var out bytes.Buffer
	require.NoError(t, d.Terminate(&out, 0xFFFFFFFF))
	require.Equal(t, []byte{0xFF, 0xFF, 0xFF, 0xFF}, out.Bytes())
}
