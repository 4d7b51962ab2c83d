package section

import (
	"bytes"
	"testing"

	"github.com/insurgentsworkshop/segpack/errs"
	"github.com/stretchr/testify/require"
)

func u16s(vals ...uint16) []byte {
	out := make([]byte, 0, 2*len(vals))
	for _, v := range vals {
		out = le.AppendUint16(out, v)
	}

	return out
}

func TestCountByScan(t *testing.T) {
	tests := []struct {
		name      string
		data      []byte
		start     int64
		following int64
		width     int
		want      int
	}{
		{
			name:      "stops at zero padding",
			data:      u16s(3, 5, 8, 0, 0, 0),
			following: 12,
			width:     2,
			want:      3,
		},
		{
			name:      "leading zero record is counted",
			data:      u16s(0, 4, 9, 0, 0, 0),
			following: 12,
			width:     2,
			want:      3,
		},
		{
			name:      "single zero record group",
			data:      u16s(0, 0, 0, 0),
			following: 8,
			width:     2,
			want:      1,
		},
		{
			name:      "runs to the bound without a terminator",
			data:      u16s(1, 2, 3, 4),
			following: 8,
			width:     2,
			want:      4,
		},
		{
			name:      "record crossing the bound is not read",
			data:      u16s(1, 2, 3, 4),
			following: 7,
			width:     2,
			want:      3,
		},
		{
			name:      "starts mid stream",
			data:      u16s(9, 9, 1, 1, 0),
			start:     4,
			following: 10,
			width:     2,
			want:      2,
		},
		{
			name:      "empty region",
			data:      u16s(1),
			start:     2,
			following: 2,
			width:     2,
			want:      0,
		},
		{
			name:      "wide records",
			data:      append(bytes.Repeat([]byte{0}, 8), append([]byte{1, 0, 0, 0, 0, 0, 0, 0}, make([]byte, 16)...)...),
			following: 32,
			width:     8,
			want:      2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CountByScan(bytes.NewReader(tt.data), tt.start, tt.following, tt.width)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCountByScan_Errors(t *testing.T) {
	_, err := CountByScan(bytes.NewReader(u16s(1, 2)), 4, 2, 2)
	require.ErrorIs(t, err, errs.ErrCountOutOfRange)

	_, err = CountByScan(bytes.NewReader(u16s(1, 2)), 0, 4, 0)
	require.ErrorIs(t, err, errs.ErrCountOutOfRange)

	_, err = CountByScan(bytes.NewReader(u16s(1)), 0, 8, 2)
	require.Error(t, err, "bound beyond the stream is a read error")
}
