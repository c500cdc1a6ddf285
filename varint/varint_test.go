package varint_test

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ndimiduk/orderly/cursor"
	"github.com/ndimiduk/orderly/order"
	"github.com/ndimiduk/orderly/varint"
)

func i64(v int64) *int64 { return &v }

func encodeSigned(t *testing.T, s *varint.Signed, v *int64) []byte {
	t.Helper()
	n, err := s.SerializedLength(v)
	require.NoError(t, err)
	buf := make([]byte, n)
	c := cursor.New(buf)
	require.NoError(t, s.Serialize(v, c))
	require.Equal(t, 0, c.Remaining())
	return buf
}

func TestSignedLiteralVectors(t *testing.T) {
	s, err := varint.NewSigned(0, order.Ascending)
	require.NoError(t, err)

	cases := []struct {
		v    *int64
		want []byte
	}{
		{i64(0), []byte{0x80}},
		{i64(1), []byte{0x81}},
		{i64(-1), []byte{0x7F}},
		{i64(63), []byte{0xBF}},
		{i64(64), []byte{0xC0, 0x40}},
		{i64(8191), []byte{0xDF, 0xFF}},
		{nil, []byte{0x00}},
	}
	for _, tc := range cases {
		got := encodeSigned(t, s, tc.v)
		require.Equal(t, tc.want, got)

		c := cursor.New(got)
		v, err := s.Deserialize(c)
		require.NoError(t, err)
		if tc.v == nil {
			require.Nil(t, v)
		} else {
			require.NotNil(t, v)
			require.Equal(t, *tc.v, *v)
		}
	}
}

func TestSignedDescendingIsByteInverted(t *testing.T) {
	asc, err := varint.NewSigned(0, order.Ascending)
	require.NoError(t, err)
	desc, err := varint.NewSigned(0, order.Descending)
	require.NoError(t, err)

	for _, v := range []*int64{i64(0), i64(1), i64(-1), i64(8191), nil} {
		a := encodeSigned(t, asc, v)
		d := encodeSigned(t, desc, v)
		require.Equal(t, len(a), len(d))
		for i := range a {
			require.Equal(t, a[i]^0xFF, d[i])
		}
	}
}

func TestSignedRoundTripAndOrder(t *testing.T) {
	for _, ord := range []order.Order{order.Ascending, order.Descending} {
		s, err := varint.NewSigned(0, ord)
		require.NoError(t, err)

		values := []int64{
			0, 1, -1, 63, 64, -64, -65, 8191, -8192, 8192, -8193,
			1 << 20, -(1 << 20), 1 << 40, -(1 << 40),
			9223372036854775807, -9223372036854775808,
		}
		type encoded struct {
			v   int64
			enc []byte
		}
		all := make([]encoded, 0, len(values))
		for _, v := range values {
			all = append(all, encoded{v, encodeSigned(t, s, i64(v))})
		}

		for _, e := range all {
			c := cursor.New(e.enc)
			got, err := s.Deserialize(c)
			require.NoError(t, err)
			require.NotNil(t, got)
			require.Equal(t, e.v, *got)
			require.Equal(t, 0, c.Remaining())
		}

		sorted := make([]encoded, len(all))
		copy(sorted, all)
		sort.Slice(sorted, func(i, j int) bool {
			if ord == order.Descending {
				return sorted[i].v > sorted[j].v
			}
			return sorted[i].v < sorted[j].v
		})
		byBytes := make([]encoded, len(all))
		copy(byBytes, all)
		sort.Slice(byBytes, func(i, j int) bool {
			return compareBytes(byBytes[i].enc, byBytes[j].enc) < 0
		})
		for i := range sorted {
			require.Equal(t, sorted[i].v, byBytes[i].v, "order=%v", ord)
		}
	}
}

func TestSignedSkip(t *testing.T) {
	s, err := varint.NewSigned(0, order.Ascending)
	require.NoError(t, err)

	a := encodeSigned(t, s, i64(64))
	b := encodeSigned(t, s, i64(-1))
	buf := append(append([]byte{}, a...), b...)

	c := cursor.New(buf)
	require.NoError(t, s.Skip(c))
	require.Equal(t, len(b), c.Remaining())
	v, err := s.Deserialize(c)
	require.NoError(t, err)
	require.Equal(t, int64(-1), *v)
}

func TestSignedReservedBitsTransparent(t *testing.T) {
	s, err := varint.NewSigned(2, order.Ascending)
	require.NoError(t, err)

	for _, v := range []int64{0, 1, -1, 8191, -8192, 1 << 40} {
		enc := encodeSigned(t, s, i64(v))
		c := cursor.New(enc)
		got, err := s.Deserialize(c)
		require.NoError(t, err)
		require.Equal(t, v, *got)
	}
}

func TestSignedReservedBitsRejectsOutOfRange(t *testing.T) {
	_, err := varint.NewSigned(3, order.Ascending)
	require.Error(t, err)
	_, err = varint.NewSigned(-1, order.Ascending)
	require.Error(t, err)
}

func u64(v uint64) *uint64 { return &v }

func encodeUnsigned(t *testing.T, u *varint.Unsigned, v *uint64) []byte {
	t.Helper()
	n, err := u.SerializedLength(v)
	require.NoError(t, err)
	buf := make([]byte, n)
	c := cursor.New(buf)
	require.NoError(t, u.Serialize(v, c))
	require.Equal(t, 0, c.Remaining())
	return buf
}

func TestUnsignedRoundTripAndOrder(t *testing.T) {
	u, err := varint.NewUnsigned(0, order.Ascending)
	require.NoError(t, err)

	values := []uint64{0, 1, 63, 64, 127, 128, 8191, 8192, 1 << 40, 1<<64 - 1}
	type encoded struct {
		v   uint64
		enc []byte
	}
	all := make([]encoded, 0, len(values))
	for _, v := range values {
		all = append(all, encoded{v, encodeUnsigned(t, u, u64(v))})
	}
	for _, e := range all {
		c := cursor.New(e.enc)
		got, err := u.Deserialize(c)
		require.NoError(t, err)
		require.Equal(t, e.v, *got)
	}

	sorted := make([]encoded, len(all))
	copy(sorted, all)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].v < sorted[j].v })
	byBytes := make([]encoded, len(all))
	copy(byBytes, all)
	sort.Slice(byBytes, func(i, j int) bool { return compareBytes(byBytes[i].enc, byBytes[j].enc) < 0 })
	for i := range sorted {
		require.Equal(t, sorted[i].v, byBytes[i].v)
	}
}

func TestUnsignedNull(t *testing.T) {
	u, err := varint.NewUnsigned(0, order.Ascending)
	require.NoError(t, err)
	enc := encodeUnsigned(t, u, nil)
	require.Equal(t, []byte{0x00}, enc)
	c := cursor.New(enc)
	v, err := u.Deserialize(c)
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestDeserializeTruncatedIsError(t *testing.T) {
	s, err := varint.NewSigned(0, order.Ascending)
	require.NoError(t, err)
	full := encodeSigned(t, s, i64(8191))
	c := cursor.New(full[:1])
	_, err = s.Deserialize(c)
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
