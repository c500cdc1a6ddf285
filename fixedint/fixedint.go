// Package fixedint implements a fixed-width integer codec: big-endian byte
// layout, with signed values additionally XOR'd against their sign bit so
// that two's complement ordering matches unsigned byte-wise comparison.
// There is no NULL representation; every bit pattern in the domain is a
// valid value.
//
// The transform is the one used throughout internal/binarysort's
// AppendInt64/AppendUint64, generalized here from a single fixed width to
// the 8/16/32/64-bit widths this package supports and wired to this
// module's Cursor and Order abstractions.
package fixedint

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"

	orderly "github.com/ndimiduk/orderly"
	"github.com/ndimiduk/orderly/cursor"
	"github.com/ndimiduk/orderly/order"
)

// inRange reports whether v falls within [lo, hi], shared by the signed and
// unsigned range checks below.
func inRange[T constraints.Integer](v, lo, hi T) bool {
	return v >= lo && v <= hi
}

// Width is the bit width of a fixed-width integer codec.
type Width int

const (
	Width8  Width = 8
	Width16 Width = 16
	Width32 Width = 32
	Width64 Width = 64
)

func (w Width) bytes() int { return int(w) / 8 }

func (w Width) valid() bool {
	switch w {
	case Width8, Width16, Width32, Width64:
		return true
	default:
		return false
	}
}

func (w Width) signBit() uint64 {
	return uint64(1) << (uint(w) - 1)
}

func (w Width) maxUnsigned() uint64 {
	if w == Width64 {
		return ^uint64(0)
	}
	return (uint64(1) << uint(w)) - 1
}

// Signed is the fixed-width signed integer codec.
type Signed struct {
	width Width
	ord   order.Order
}

// NewSigned constructs a signed fixed-width codec of the given width and
// sort direction.
func NewSigned(w Width, ord order.Order) (*Signed, error) {
	if !w.valid() {
		return nil, errors.Wrapf(orderly.ErrInvalidConfiguration, "invalid fixed-width integer width %d", w)
	}
	return &Signed{width: w, ord: ord}, nil
}

// Order implements orderly.Codec.
func (s *Signed) Order() order.Order { return s.ord }

// SetOrder implements orderly.Orderable.
func (s *Signed) SetOrder(o order.Order) { s.ord = o }

// SerializedLength implements orderly.Codec.
func (s *Signed) SerializedLength(int64) (int, error) { return s.width.bytes(), nil }

func (s *Signed) rangeCheck(v int64) error {
	if s.width == Width64 {
		return nil
	}
	half := int64(s.width.signBit())
	if !inRange(v, -half, half-1) {
		return errors.Wrapf(orderly.ErrOutOfRange, "%d does not fit in a signed %d-bit integer", v, s.width)
	}
	return nil
}

// Serialize implements orderly.Codec.
func (s *Signed) Serialize(v int64, c *cursor.Cursor) error {
	if err := s.rangeCheck(v); err != nil {
		return err
	}
	bits := uint64(v) ^ s.width.signBit()
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, bits)
	enc := buf[8-s.width.bytes():]
	for i := range enc {
		enc[i] = s.ord.Apply(enc[i])
	}
	return c.Write(enc)
}

// Skip implements orderly.Codec.
func (s *Signed) Skip(c *cursor.Cursor) error {
	if err := c.Advance(s.width.bytes()); err != nil {
		return errors.Wrap(orderly.ErrTruncated, "fixedint: skip past end of buffer")
	}
	return nil
}

// Deserialize implements orderly.Codec.
func (s *Signed) Deserialize(c *cursor.Cursor) (int64, error) {
	raw, err := c.Read(s.width.bytes())
	if err != nil {
		return 0, errors.Wrap(orderly.ErrTruncated, "fixedint: short read")
	}
	buf := make([]byte, 8)
	for i, b := range raw {
		buf[8-s.width.bytes()+i] = s.ord.Apply(b)
	}
	bits := binary.BigEndian.Uint64(buf) ^ s.width.signBit()
	shift := 64 - uint(s.width)
	return int64(bits<<shift) >> shift, nil
}

// Unsigned is the fixed-width unsigned integer codec.
type Unsigned struct {
	width Width
	ord   order.Order
}

// NewUnsigned constructs an unsigned fixed-width codec of the given width
// and sort direction.
func NewUnsigned(w Width, ord order.Order) (*Unsigned, error) {
	if !w.valid() {
		return nil, errors.Wrapf(orderly.ErrInvalidConfiguration, "invalid fixed-width integer width %d", w)
	}
	return &Unsigned{width: w, ord: ord}, nil
}

// Order implements orderly.Codec.
func (u *Unsigned) Order() order.Order { return u.ord }

// SetOrder implements orderly.Orderable.
func (u *Unsigned) SetOrder(o order.Order) { u.ord = o }

// SerializedLength implements orderly.Codec.
func (u *Unsigned) SerializedLength(uint64) (int, error) { return u.width.bytes(), nil }

// Serialize implements orderly.Codec.
func (u *Unsigned) Serialize(v uint64, c *cursor.Cursor) error {
	if !inRange(v, 0, u.width.maxUnsigned()) {
		return errors.Wrapf(orderly.ErrOutOfRange, "%d does not fit in an unsigned %d-bit integer", v, u.width)
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	enc := buf[8-u.width.bytes():]
	for i := range enc {
		enc[i] = u.ord.Apply(enc[i])
	}
	return c.Write(enc)
}

// Skip implements orderly.Codec.
func (u *Unsigned) Skip(c *cursor.Cursor) error {
	if err := c.Advance(u.width.bytes()); err != nil {
		return errors.Wrap(orderly.ErrTruncated, "fixedint: skip past end of buffer")
	}
	return nil
}

// Deserialize implements orderly.Codec.
func (u *Unsigned) Deserialize(c *cursor.Cursor) (uint64, error) {
	raw, err := c.Read(u.width.bytes())
	if err != nil {
		return 0, errors.Wrap(orderly.ErrTruncated, "fixedint: short read")
	}
	buf := make([]byte, 8)
	for i, b := range raw {
		buf[8-u.width.bytes()+i] = u.ord.Apply(b)
	}
	return binary.BigEndian.Uint64(buf), nil
}
