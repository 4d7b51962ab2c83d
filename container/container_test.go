package container

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/insurgentsworkshop/segpack/format"
	"github.com/insurgentsworkshop/segpack/internal/pool"
	"github.com/insurgentsworkshop/segpack/record"
	"github.com/stretchr/testify/require"
)

// sparseLayout: 2 byte magic, 2 opaque header bytes, 3 u32 offsets, payload
// at 0x10, 4 byte alignment, slot 0 written last.
func sparseLayout(t *testing.T) *Layout {
	t.Helper()

	l, err := NewLayout("sparse",
		WithMagic([]byte("TS")),
		WithDirectoryAt(4),
		WithFixedCount(3),
		WithSortedOffsets(),
		WithPayloadStart(0x10),
		WithAlignment(4, 0),
		WithTailSlots(0),
	)
	require.NoError(t, err)

	return l
}

var sparseBytes = []byte{
	'T', 'S', 0x01, 0x02,
	0x14, 0, 0, 0, // slot 0, written last
	0, 0, 0, 0, // slot 1 absent
	0x10, 0, 0, 0, // slot 2
	'B', 'B', 0, 0,
	'A', 'A', 'A', 'A', 'A', // tail slot, no trailing padding
}

// listLayout: u16 count at 0, u32 offsets with an end entry, 16 byte alignment.
func listLayout(t *testing.T, opts ...LayoutOption) *Layout {
	t.Helper()

	l, err := NewLayout("list", append([]LayoutOption{
		WithPrefixedCount(0, format.Width16),
		WithDirectoryAt(2),
		WithEndOffset(),
	}, opts...)...)
	require.NoError(t, err)

	return l
}

func TestWrite_SparseTailRelocated(t *testing.T) {
	c, err := New(sparseLayout(t), 3)
	require.NoError(t, err)
	c.Header[2], c.Header[3] = 0x01, 0x02
	require.NoError(t, c.SetPayload(0, []byte("AAAAA")))
	require.NoError(t, c.SetPayload(2, []byte("BB")))

	buf := pool.NewByteBuffer(64)
	rec, err := Write(buf, c)
	require.NoError(t, err)
	require.Equal(t, sparseBytes, buf.Bytes())

	require.Equal(t, int64(len(sparseBytes)), rec.Size)
	require.Equal(t, rec.Size, rec.End)
	require.Equal(t, int64(0x14), rec.Slots[0].Offset)
	require.Equal(t, int64(5), rec.Slots[0].Length)
	require.True(t, rec.Slots[1].Absent())
	require.Equal(t, int64(0x10), rec.Slots[2].Offset)
	require.Equal(t, len(sparseBytes), buf.Pos(), "sink left at the end")
}

func TestDecode_Sparse(t *testing.T) {
	c, err := DecodeBytes(sparseBytes, sparseLayout(t))
	require.NoError(t, err)
	require.Equal(t, 3, c.Len())
	require.Equal(t, []byte{'T', 'S', 1, 2}, c.Header)

	require.Equal(t, Section{Index: 0, Offset: 0x14, Length: 5, Payload: []byte("AAAAA")}, c.Sections[0])
	require.True(t, c.Sections[1].Empty())
	require.Zero(t, c.Sections[1].Offset)
	// padding up to the next section belongs to the section before it
	require.Equal(t, []byte("BB\x00\x00"), c.Sections[2].Payload)

	out, err := Encode(c)
	require.NoError(t, err)
	require.Equal(t, sparseBytes, out, "decode then encode reproduces the stream")
}

func TestRoundTrip_AbsentSentinel(t *testing.T) {
	l := sparseLayout(t)
	c, err := New(l, 3)
	require.NoError(t, err)

	out, err := Encode(c)
	require.NoError(t, err)
	require.Equal(t, []byte{'T', 'S', 0, 0}, out[:4])
	require.Equal(t, make([]byte, 12), out[4:16], "all slots absent")
	require.Len(t, out, 0x10)

	back, err := DecodeBytes(out, l)
	require.NoError(t, err)
	for _, s := range back.Sections {
		require.True(t, s.Empty())
	}

	again, err := Encode(back)
	require.NoError(t, err)
	require.Equal(t, out, again)
}

func TestRoundTrip_SequentialAbsentSentinel(t *testing.T) {
	l, err := NewLayout("seqsent",
		WithMagic([]byte("SEQ1")),
		WithDirectoryAt(4),
		WithFixedCount(3),
		WithAbsentSentinel(),
	)
	require.NoError(t, err)
	require.Equal(t, format.ResolveSequential, l.Resolution())

	tests := []struct {
		name     string
		payloads [][]byte
		offsets  []int64
		lengths  []int64
	}{
		{"middle absent", [][]byte{[]byte("aaaa"), nil, []byte("bbbb")}, []int64{0x10, 0, 0x20}, []int64{0x10, 0, 0x10}},
		{"last absent", [][]byte{[]byte("aaaa"), []byte("bbbb"), nil}, []int64{0x10, 0x20, 0}, []int64{0x10, 0x10, 0}},
		{"first absent", [][]byte{nil, []byte("aaaa"), []byte("bbbb")}, []int64{0, 0x10, 0x20}, []int64{0, 0x10, 0x10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(l, 3)
			require.NoError(t, err)
			for i, p := range tt.payloads {
				require.NoError(t, c.SetPayload(i, p))
			}

			out, err := Encode(c)
			require.NoError(t, err)
			require.Len(t, out, 0x30)

			back, err := DecodeBytes(out, l)
			require.NoError(t, err)
			for i, s := range back.Sections {
				require.Equal(t, tt.offsets[i], s.Offset, "slot %d", i)
				require.Equal(t, tt.lengths[i], s.Length, "slot %d", i)
				require.True(t, bytes.HasPrefix(s.Payload, tt.payloads[i]), "slot %d", i)
			}

			again, err := Encode(back)
			require.NoError(t, err)
			require.Equal(t, out, again)
		})
	}
}

func TestWrite_EndOffsetAndCount(t *testing.T) {
	l := listLayout(t)
	c, err := New(l, 2)
	require.NoError(t, err)
	require.NoError(t, c.SetPayload(0, []byte{0xAA}))
	// slot 1 stays empty: sequential layouts still give it an offset

	out, err := Encode(c)
	require.NoError(t, err)

	want := []byte{
		2, 0, // count
		0x10, 0, 0, 0, // slot 0
		0x20, 0, 0, 0, // slot 1, empty, after padding
		0x20, 0, 0, 0, // end entry, before trailing padding
		0, 0, // pad to 0x10
		0xAA, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
	require.Equal(t, want, out)

	back, err := DecodeBytes(out, l)
	require.NoError(t, err)
	require.Equal(t, 2, back.Len())
	require.Equal(t, int64(0x10), back.Sections[0].Length)
	require.True(t, back.Sections[1].Empty())
	require.Equal(t, int64(0x20), back.Sections[1].Offset)

	again, err := Encode(back)
	require.NoError(t, err)
	require.Equal(t, out, again)
}

func TestRoundTrip_Nested(t *testing.T) {
	inner := sparseLayout(t)
	outer := listLayout(t, WithNested(1, inner))

	in, err := New(inner, 3)
	require.NoError(t, err)
	require.NoError(t, in.SetPayload(0, []byte("tail")))
	require.NoError(t, in.SetPayload(1, []byte("mid")))

	c, err := New(outer, 3)
	require.NoError(t, err)
	require.NoError(t, c.SetPayload(0, []byte("first")))
	require.NoError(t, c.SetNested(1, in))
	require.NoError(t, c.SetPayload(2, []byte("last")))

	buf := pool.NewByteBuffer(256)
	rec, err := Write(buf, c)
	require.NoError(t, err)

	child := rec.Children[1]
	require.NotNil(t, child)
	require.Equal(t, rec.Slots[1].Length, child.Size)
	// nested offsets are relative to the nested container start
	require.Equal(t, int64(0x10), child.Slots[1].Offset)
	require.Equal(t, int64(0x14), child.Slots[0].Offset)

	nestedStart := rec.Slots[1].Offset
	require.Equal(t, []byte("TS"), buf.Bytes()[nestedStart:nestedStart+2])

	back, err := DecodeBytes(buf.Bytes(), outer)
	require.NoError(t, err)
	require.NotNil(t, back.Sections[1].Nested)
	require.Nil(t, back.Sections[1].Payload)
	// the inner tail slot now runs to the end of the outer section
	require.Equal(t, []byte("tail"), back.Sections[1].Nested.Sections[0].Payload[:4])

	again, err := Encode(back)
	require.NoError(t, err)
	require.Equal(t, buf.Bytes(), again)
}

func TestWrite_RelativeToSinkStart(t *testing.T) {
	c, err := New(sparseLayout(t), 3)
	require.NoError(t, err)
	c.Header[2], c.Header[3] = 0x01, 0x02
	require.NoError(t, c.SetPayload(0, []byte("AAAAA")))
	require.NoError(t, c.SetPayload(2, []byte("BB")))

	buf := pool.NewByteBuffer(64)
	_, _ = buf.Write([]byte("prefix.."))

	_, err = Write(buf, c)
	require.NoError(t, err)
	require.Equal(t, sparseBytes, buf.Bytes()[8:])
}

func TestWrite_NotSeekable(t *testing.T) {
	c, err := New(sparseLayout(t), 3)
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = Write(&out, c)
	require.ErrorIs(t, err, errs.ErrNotSeekable)
	require.Zero(t, out.Len(), "nothing written before the capability check")
}

// failAfter is a seekable sink that fails once limit bytes have been written.
type failAfter struct {
	*pool.ByteBuffer
	limit int
}

var errDiskFull = errors.New("disk full")

func (f *failAfter) Write(p []byte) (int, error) {
	if f.Len()+len(p) > f.limit {
		return 0, errDiskFull
	}

	return f.ByteBuffer.Write(p)
}

func TestWrite_PartialOutputOnFailure(t *testing.T) {
	c, err := New(sparseLayout(t), 3)
	require.NoError(t, err)
	require.NoError(t, c.SetPayload(0, bytes.Repeat([]byte{1}, 64)))

	sink := &failAfter{ByteBuffer: pool.NewByteBuffer(64), limit: 0x18}
	_, err = Write(sink, c)
	require.ErrorIs(t, err, errDiskFull)
	require.Contains(t, err.Error(), "sparse: section 0")
	require.Equal(t, 0x10, sink.Len(), "reserved header and directory stay in the sink")
}

func TestDecode_Errors(t *testing.T) {
	t.Run("magic mismatch", func(t *testing.T) {
		data := bytes.Clone(sparseBytes)
		data[0] = 'X'
		_, err := DecodeBytes(data, sparseLayout(t))
		require.ErrorIs(t, err, errs.ErrMagicMismatch)
		require.Contains(t, err.Error(), "sparse")
	})

	t.Run("truncated header", func(t *testing.T) {
		_, err := DecodeBytes([]byte("TS"), sparseLayout(t))
		require.ErrorIs(t, err, errs.ErrOffsetOutOfRange)
	})

	t.Run("duplicate offset", func(t *testing.T) {
		data := bytes.Clone(sparseBytes)
		data[4] = 0x10
		_, err := DecodeBytes(data, sparseLayout(t))
		require.ErrorIs(t, err, errs.ErrDuplicateOffset)
	})

	t.Run("offset past end", func(t *testing.T) {
		data := bytes.Clone(sparseBytes)
		data[4] = 0x40
		_, err := DecodeBytes(data, sparseLayout(t))
		require.ErrorIs(t, err, errs.ErrNegativeLength)
	})

	t.Run("offset inside header", func(t *testing.T) {
		data := []byte{1, 0, 0x01, 0, 0, 0, 0x08, 0, 0, 0}
		_, err := DecodeBytes(data, listLayout(t))
		require.ErrorIs(t, err, errs.ErrOffsetOutOfRange)
	})

	t.Run("offset inside directory", func(t *testing.T) {
		// slot 0 points at its own directory entry
		data := []byte{1, 0, 0x04, 0, 0, 0, 0x0A, 0, 0, 0}
		_, err := DecodeBytes(data, listLayout(t))
		require.ErrorIs(t, err, errs.ErrOffsetOutOfRange)
	})

	t.Run("count larger than stream", func(t *testing.T) {
		data := []byte{0xFF, 0xFF, 0, 0, 0, 0}
		_, err := DecodeBytes(data, listLayout(t))
		require.ErrorIs(t, err, errs.ErrCountOutOfRange)
	})

	t.Run("end entry past stream", func(t *testing.T) {
		data := []byte{1, 0, 0x0A, 0, 0, 0, 0xFF, 0, 0, 0}
		_, err := DecodeBytes(data, listLayout(t))
		require.ErrorIs(t, err, errs.ErrOffsetOutOfRange)
	})

	t.Run("nested failure names the section", func(t *testing.T) {
		outer := listLayout(t, WithNested(0, sparseLayout(t)))
		data := []byte{1, 0, 0x0A, 0, 0, 0, 0x0E, 0, 0, 0, 'N', 'O', 'P', 'E'}
		_, err := DecodeBytes(data, outer)
		require.ErrorIs(t, err, errs.ErrMagicMismatch)
		require.Contains(t, err.Error(), "list: section 0: sparse")
	})
}

func TestContainer_Accessors(t *testing.T) {
	l := sparseLayout(t)

	_, err := New(l, 4)
	require.ErrorIs(t, err, errs.ErrCountOutOfRange)

	c, err := New(l, 3)
	require.NoError(t, err)
	require.Same(t, l, c.Layout())
	require.Equal(t, []byte{'T', 'S', 0, 0}, c.Header)

	_, err = c.Section(3)
	require.ErrorIs(t, err, errs.ErrSectionIndex)
	require.ErrorIs(t, c.SetPayload(-1, nil), errs.ErrSectionIndex)

	require.NoError(t, c.SetPayload(2, []byte("x")))
	var seen []int
	for i, s := range c.Present() {
		seen = append(seen, i)
		require.Equal(t, i, s.Index)
	}
	require.Equal(t, []int{2}, seen)
}

func TestContainer_Validate(t *testing.T) {
	inner := sparseLayout(t)
	other, err := NewLayout("other", WithFixedCount(0))
	require.NoError(t, err)
	outer := listLayout(t, WithNested(0, inner))

	c, err := New(outer, 1)
	require.NoError(t, err)

	wrong, err := New(other, 0)
	require.NoError(t, err)
	require.ErrorIs(t, c.SetNested(0, wrong), errs.ErrNestedLayout)

	c.Sections[0].Nested = wrong
	require.ErrorIs(t, c.Validate(), errs.ErrNestedLayout)

	c.Sections[0].Nested = nil
	c.Header = []byte{0}
	_, err = Encode(c)
	require.ErrorIs(t, err, errs.ErrHeaderSize)
}

func TestContainer_Equal(t *testing.T) {
	l := listLayout(t)
	a, _ := New(l, 1)
	b, _ := New(l, 1)
	require.True(t, a.Equal(b))

	a.Header[0] = 9 // count field is not compared
	require.True(t, a.Equal(b))

	require.NoError(t, a.SetPayload(0, []byte{1}))
	require.False(t, a.Equal(b))
	require.False(t, a.Equal(nil))
}

func TestWriter_PhaseOrder(t *testing.T) {
	c, err := New(sparseLayout(t), 3)
	require.NoError(t, err)

	w := newWriter(c, pool.NewByteBuffer(16))
	require.ErrorContains(t, w.emit(), "want Emitting")
	require.ErrorContains(t, w.patch(), "want Patching")

	require.NoError(t, w.reserve())
	require.ErrorContains(t, w.reserve(), "want Reserving")
	require.NoError(t, w.emit())
	require.NoError(t, w.patch())
	require.Equal(t, stateDone, w.state)
}

func TestSectionRecords(t *testing.T) {
	c, err := New(sparseLayout(t), 3)
	require.NoError(t, err)

	tbl, err := record.NewTable(2, [][]byte{{1, 2}})
	require.NoError(t, err)
	require.NoError(t, EncodeSection[*record.Table](c, 1, record.TableSchema{}, tbl))

	got, err := DecodeSection[*record.Table](c, 1, record.TableSchema{})
	require.NoError(t, err)
	require.Equal(t, tbl.Entries, got.Entries)

	_, err = DecodeSection[*record.Table](c, 0, record.TableSchema{})
	require.ErrorIs(t, err, errs.ErrOffsetOutOfRange)
	require.Contains(t, err.Error(), "sparse: section 0")

	_, err = DecodeSection[*record.Table](c, 5, record.TableSchema{})
	require.ErrorIs(t, err, errs.ErrSectionIndex)
}

func TestDecode_SeekerError(t *testing.T) {
	_, err := Decode(errSeeker{}, sparseLayout(t))
	require.Error(t, err)
}

type errSeeker struct{}

func (errSeeker) Read([]byte) (int, error)       { return 0, io.ErrUnexpectedEOF }
func (errSeeker) Seek(int64, int) (int64, error) { return 0, errors.New("no seek") }
