package bytesenc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ndimiduk/orderly/bytesenc"
	"github.com/ndimiduk/orderly/cursor"
	"github.com/ndimiduk/orderly/order"
)

func encode(t *testing.T, c *bytesenc.Codec, v []byte) []byte {
	t.Helper()
	n, err := c.SerializedLength(v)
	require.NoError(t, err)
	buf := make([]byte, n)
	require.NoError(t, c.Serialize(v, cursor.New(buf)))
	return buf
}

func TestAscendingLiteralVectors(t *testing.T) {
	c := bytesenc.New(order.Ascending)

	cases := []struct {
		v    []byte
		want []byte
	}{
		{[]byte{}, []byte{0x00}},
		{[]byte{0x00}, []byte{0x01, 0x00}},
		{[]byte{0xFF}, []byte{0xFF, 0x02, 0x00}},
		{[]byte{0x41, 0x42}, []byte{0x42, 0x43, 0x00}},
	}
	for _, tc := range cases {
		got := encode(t, c, tc.v)
		require.Equal(t, tc.want, got)

		v, err := c.Deserialize(cursor.New(got))
		require.NoError(t, err)
		require.Equal(t, tc.v, v)
	}
}

func TestDescendingIsDualEncoding(t *testing.T) {
	asc := bytesenc.New(order.Ascending)
	desc := bytesenc.New(order.Descending)

	for _, v := range [][]byte{{}, {0x00}, {0xFF}, {0x41, 0x42}, {0xFE, 0x00, 0x01, 0xFF}} {
		a := encode(t, asc, v)
		d := encode(t, desc, v)

		got, err := desc.Deserialize(cursor.New(d))
		require.NoError(t, err)
		require.Equal(t, v, got)

		require.Equal(t, len(a), len(d))
	}
}

func TestPrefixSafety(t *testing.T) {
	c := bytesenc.New(order.Ascending)

	short := encode(t, c, []byte("a"))
	long := encode(t, c, []byte("aa"))
	require.True(t, compareBytes(short, long) < 0)

	shortD := encode(t, bytesenc.New(order.Descending), []byte("a"))
	longD := encode(t, bytesenc.New(order.Descending), []byte("aa"))
	require.True(t, compareBytes(shortD, longD) > 0)
}

func TestNoTerminatorInBody(t *testing.T) {
	c := bytesenc.New(order.Ascending)
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}
	enc := encode(t, c, all)
	for _, b := range enc[:len(enc)-1] {
		require.NotEqual(t, byte(0x00), b, "terminator leaked into body")
	}

	got, err := c.Deserialize(cursor.New(enc))
	require.NoError(t, err)
	require.Equal(t, all, got)
}

func TestSkip(t *testing.T) {
	c := bytesenc.New(order.Ascending)
	a := encode(t, c, []byte{0xFF, 0xFE})
	b := encode(t, c, []byte("z"))
	buf := append(append([]byte{}, a...), b...)

	cur := cursor.New(buf)
	require.NoError(t, c.Skip(cur))
	require.Equal(t, len(b), cur.Remaining())
	got, err := c.Deserialize(cur)
	require.NoError(t, err)
	require.Equal(t, []byte("z"), got)
}

func TestTruncatedIsError(t *testing.T) {
	c := bytesenc.New(order.Ascending)
	enc := encode(t, c, []byte{0xFF})
	_, err := c.Deserialize(cursor.New(enc[:1]))
	require.Error(t, err)
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}
