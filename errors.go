// Package orderly is a library of order-preserving binary codecs for
// primitive and composite values, for use as row keys in a byte-ordered
// key-value store: sorting encoded keys byte-wise yields the same total
// order as sorting the original values.
//
// The core codec families live in their own sub-packages (varint, decimal,
// bytesenc, textcodec, floatcodec, fixedint, structcodec); this package
// holds the shared Codec capability and the error taxonomy every codec
// reports through.
package orderly

import "github.com/cockroachdb/errors"

var (
	// ErrTruncated is returned when a Cursor ran out of bytes before a codec
	// finished decoding.
	ErrTruncated = errors.New("orderly: truncated input")

	// ErrCorrupt is returned when bytes were readable but violated a
	// structural invariant of the encoding (a bad BCD nibble, an invalid
	// length class, an unexpected reserved-bit pattern).
	ErrCorrupt = errors.New("orderly: corrupt encoding")

	// ErrInvalidConfiguration is returned when a codec is configured with an
	// out-of-range parameter, such as a reserved-bit count exceeding the
	// per-variant maximum.
	ErrInvalidConfiguration = errors.New("orderly: invalid codec configuration")

	// ErrArityMismatch is returned when a struct composer receives the
	// wrong number of values to serialize or deserialize.
	ErrArityMismatch = errors.New("orderly: arity mismatch")

	// ErrOutOfRange is returned when a value cannot fit the domain of a
	// fixed-width codec.
	ErrOutOfRange = errors.New("orderly: value out of range")
)
