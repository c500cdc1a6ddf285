package structcodec_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/ndimiduk/orderly/cursor"
	"github.com/ndimiduk/orderly/fixedint"
	"github.com/ndimiduk/orderly/order"
	"github.com/ndimiduk/orderly/structcodec"
	"github.com/ndimiduk/orderly/textcodec"
	"github.com/ndimiduk/orderly/varint"
)

func i64(v int64) *int64 { return &v }

func newPersonKey(ord order.Order) *structcodec.Struct {
	age, err := fixedint.NewSigned(fixedint.Width8, ord)
	if err != nil {
		panic(err)
	}
	id, err := varint.NewSigned(0, ord)
	if err != nil {
		panic(err)
	}
	name := textcodec.New(ord)

	return structcodec.New([]structcodec.Field{
		structcodec.Wrap[int64](age),
		structcodec.Wrap[*int64](id),
		structcodec.Wrap[*[]byte](name),
	})
}

func encode(t *testing.T, s *structcodec.Struct, values []any) []byte {
	t.Helper()
	n, err := s.SerializedLength(values)
	require.NoError(t, err)
	buf := make([]byte, n)
	require.NoError(t, s.Serialize(values, cursor.New(buf)))
	return buf
}

func namePtr(s string) *[]byte {
	b := []byte(s)
	return &b
}

func TestRoundTrip(t *testing.T) {
	s := newPersonKey(order.Ascending)
	values := []any{int64(30), i64(42), namePtr("ada")}

	buf := encode(t, s, values)
	got, err := s.Deserialize(cursor.New(buf))
	require.NoError(t, err)
	if diff := cmp.Diff(values, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLastFieldOmitsTerminatorUnderAscending(t *testing.T) {
	s := newPersonKey(order.Ascending)
	values := []any{int64(30), i64(42), namePtr("ada")}
	buf := encode(t, s, values)

	// age (1 byte) + varint(42, no reserved bits, single byte) + "ada"
	// shifted by 2 with no trailing terminator (implicit termination).
	require.Equal(t, 1+1+3, len(buf))
}

func TestLastFieldTerminatesUnderDescending(t *testing.T) {
	s := newPersonKey(order.Descending)
	values := []any{int64(30), i64(42), namePtr("ada")}
	buf := encode(t, s, values)

	require.Equal(t, 1+1+4, len(buf))

	got, err := s.Deserialize(cursor.New(buf))
	require.NoError(t, err)
	if diff := cmp.Diff(values, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSetOrderFlipsFieldsNotWrapper(t *testing.T) {
	age, err := fixedint.NewSigned(fixedint.Width8, order.Ascending)
	require.NoError(t, err)
	name := textcodec.New(order.Ascending)

	s := structcodec.New([]structcodec.Field{
		structcodec.Wrap[int64](age),
		structcodec.Wrap[*[]byte](name),
	})
	require.Equal(t, order.Ascending, age.Order())

	s.SetOrder(order.Descending)
	require.Equal(t, order.Descending, age.Order())
	require.Equal(t, order.Descending, name.Order())
	require.True(t, name.MustTerminate())

	s.SetOrder(order.Ascending)
	require.Equal(t, order.Ascending, age.Order())
	require.False(t, name.MustTerminate())
}

func TestArityMismatch(t *testing.T) {
	s := newPersonKey(order.Ascending)

	_, err := s.SerializedLength([]any{int64(1)})
	require.Error(t, err)

	buf := make([]byte, 10)
	err = s.Serialize([]any{int64(1)}, cursor.New(buf))
	require.Error(t, err)
}

func TestEmptyStructSerializesToZeroBytes(t *testing.T) {
	s := structcodec.New(nil)
	buf := encode(t, s, nil)
	require.Empty(t, buf)

	got, err := s.Deserialize(cursor.New(buf))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSkip(t *testing.T) {
	// Descending fields keep the last text field's terminator, so the first
	// encoded struct ends where the second begins.
	s := newPersonKey(order.Descending)
	first := encode(t, s, []any{int64(1), i64(2), namePtr("x")})
	second := []any{int64(3), i64(4), namePtr("y")}
	secondBuf := encode(t, s, second)
	buf := append(append([]byte{}, first...), secondBuf...)

	cur := cursor.New(buf)
	require.NoError(t, s.Skip(cur))
	got, err := s.Deserialize(cur)
	require.NoError(t, err)
	if diff := cmp.Diff(second, got); diff != "" {
		t.Fatalf("skip mismatch (-want +got):\n%s", diff)
	}
}
