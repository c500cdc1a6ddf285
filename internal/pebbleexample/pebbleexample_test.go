package pebbleexample_test

import (
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/require"

	"github.com/ndimiduk/orderly/cursor"
	"github.com/ndimiduk/orderly/internal/pebbleexample"
	"github.com/ndimiduk/orderly/order"
	"github.com/ndimiduk/orderly/structcodec"
)

func u64(v uint64) *uint64 { return &v }

func encodeEventKey(t *testing.T, s *structcodec.Struct, values []any) []byte {
	t.Helper()
	n, err := s.SerializedLength(values)
	require.NoError(t, err)
	buf := make([]byte, n)
	require.NoError(t, s.Serialize(values, cursor.New(buf)))
	return buf
}

func TestOpenMemOpensAndCloses(t *testing.T) {
	db, err := pebbleexample.OpenMem()
	require.NoError(t, err)
	defer db.Close()
}

func TestEventKeyOrderingWithDescendingTimestamp(t *testing.T) {
	s, err := pebbleexample.EventKey(order.Ascending, order.Ascending, order.Descending)
	require.NoError(t, err)

	older := encodeEventKey(t, s, []any{uint64(1), u64(1), u64(1000)})
	newer := encodeEventKey(t, s, []any{uint64(1), u64(1), u64(2000)})

	// descending timestamp: the newer event sorts first within the same
	// tenant and sequence number.
	require.True(t, pebble.DefaultComparer.Compare(newer, older) < 0)
}

func TestEventKeyRoundTripsThroughPebble(t *testing.T) {
	db, err := pebbleexample.OpenMem()
	require.NoError(t, err)
	defer db.Close()

	s, err := pebbleexample.EventKey(order.Ascending, order.Ascending, order.Ascending)
	require.NoError(t, err)

	k1 := encodeEventKey(t, s, []any{uint64(7), u64(1), u64(100)})
	k2 := encodeEventKey(t, s, []any{uint64(7), u64(2), u64(200)})

	require.NoError(t, db.Set(k1, []byte("first"), nil))
	require.NoError(t, db.Set(k2, []byte("second"), nil))

	it := db.NewIter(&pebble.IterOptions{})
	defer it.Close()

	require.True(t, it.First())
	require.Equal(t, k1, it.Key())
	require.Equal(t, []byte("first"), it.Value())

	require.True(t, it.Next())
	require.Equal(t, k2, it.Key())
	require.Equal(t, []byte("second"), it.Value())

	require.False(t, it.Next())
}

func TestEventKeyTenantIsFixedWidthPrefix(t *testing.T) {
	s, err := pebbleexample.EventKey(order.Ascending, order.Ascending, order.Ascending)
	require.NoError(t, err)

	a := encodeEventKey(t, s, []any{uint64(1), u64(1), u64(1)})
	b := encodeEventKey(t, s, []any{uint64(2), u64(1), u64(1)})

	// only the leading 4 bytes (Width32) should differ between two keys
	// that share every other field.
	require.NotEqual(t, a[:4], b[:4])
	require.Equal(t, a[4:], b[4:])
}
