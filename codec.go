package orderly

import (
	"github.com/ndimiduk/orderly/cursor"
	"github.com/ndimiduk/orderly/order"
)

// Codec is the capability every concrete codec in this module implements
// for its associated logical value type T: compute an encoded length,
// serialize a value into a Cursor, skip an encoded value without
// materializing it, and deserialize a value back out of a Cursor.
//
// This mirrors the RowKey base class of the original gotometrics
// implementation, generalized from Java's class-based polymorphism to a Go
// generic interface parameterized on the value type, per the "Polymorphism
// over the codec capability" design note.
type Codec[T any] interface {
	// Order reports the sort direction this codec instance preserves.
	Order() order.Order

	// SerializedLength returns the number of bytes Serialize(v, ...) will
	// write for v.
	SerializedLength(v T) (int, error)

	// Serialize writes v's encoding into c, advancing c by exactly
	// SerializedLength(v) bytes.
	Serialize(v T, c *cursor.Cursor) error

	// Skip advances c past one encoded value without decoding it,
	// advancing c by exactly the number of bytes that value occupies.
	Skip(c *cursor.Cursor) error

	// Deserialize reads one encoded value from c, advancing c by exactly
	// the number of bytes that value occupies.
	Deserialize(c *cursor.Cursor) (T, error)
}

// Terminating is implemented by codecs whose wire format ends in an
// explicit terminator byte that may, under some conditions (see individual
// codec documentation), be omitted when the codec is the last field of a
// composed key.
type Terminating interface {
	// MustTerminate reports whether this codec instance currently emits its
	// terminator byte.
	MustTerminate() bool

	// SetMustTerminate configures whether this codec instance emits its
	// terminator byte. Implementations return ErrInvalidConfiguration if
	// asked to disable termination in a configuration that would violate
	// prefix safety (for example, Descending order).
	SetMustTerminate(must bool) error
}

// Orderable is implemented by codecs whose sort direction can be flipped
// after construction, as used by the struct composer to push a descending
// composite order into each of its fields.
type Orderable interface {
	// SetOrder reassigns this codec instance's sort direction.
	SetOrder(o order.Order)
}
