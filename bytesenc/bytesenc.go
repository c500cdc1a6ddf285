// Package bytesenc implements a null-terminated byte-sequence codec: an
// escaping scheme that keeps the terminator byte value from ever appearing
// in the encoded body, so that an encoded sequence sorts correctly even
// when it is a byte-wise prefix of another.
//
// This is a direct, order-parameterized port of
// com.gotometrics.hbase.util.NullUtils: each input byte (first inverted
// under Descending) is shifted by one step away from the terminator, and the
// continuator value and the value one step before it escape to a two-byte
// {continuator, biased value} sequence, keeping the terminator unique in
// the stream. The codec's logical domain
// is the raw byte sequence itself, including the empty sequence (which the
// NullUtils.ByteArrayFormat pairing never distinguishes from a separate
// NULL state); it does not carry a distinguished NULL value, matching that
// source exactly.
package bytesenc

import (
	"github.com/cockroachdb/errors"

	orderly "github.com/ndimiduk/orderly"
	"github.com/ndimiduk/orderly/cursor"
	"github.com/ndimiduk/orderly/order"
)

const (
	ascTerminator  byte = 0x00
	ascContinuator byte = 0xFF
	ascBias        byte = 0x03
	ascDirection   int8 = 1

	descTerminator  byte = 0xFF
	descContinuator byte = 0x00
	descBias        byte = 0x01
	descDirection   int8 = -1
)

func params(ord order.Order) (terminator, continuator, bias byte, dir int8) {
	if ord == order.Descending {
		return descTerminator, descContinuator, descBias, descDirection
	}
	return ascTerminator, ascContinuator, ascBias, ascDirection
}

func isContinued(continuator byte, dir int8, b byte) bool {
	return b == continuator || b == byte(int16(continuator)-int16(dir))
}

// Codec is the null-terminated byte-sequence codec.
type Codec struct {
	ord order.Order
}

// New constructs a null-terminated bytes codec with the given sort
// direction.
func New(ord order.Order) *Codec { return &Codec{ord: ord} }

// Order implements orderly.Codec.
func (c *Codec) Order() order.Order { return c.ord }

// SetOrder implements orderly.Orderable.
func (c *Codec) SetOrder(o order.Order) { c.ord = o }

// SerializedLength implements orderly.Codec.
func (c *Codec) SerializedLength(v []byte) (int, error) {
	_, continuator, _, dir := params(c.ord)
	n := len(v) + 1
	for _, b := range v {
		if isContinued(continuator, dir, c.ord.Apply(b)) {
			n++
		}
	}
	return n, nil
}

// Serialize implements orderly.Codec.
func (c *Codec) Serialize(v []byte, cur *cursor.Cursor) error {
	terminator, continuator, bias, dir := params(c.ord)
	n, err := c.SerializedLength(v)
	if err != nil {
		return err
	}
	out := make([]byte, 0, n)
	for _, b := range v {
		b = c.ord.Apply(b)
		if !isContinued(continuator, dir, b) {
			out = append(out, b+byte(dir))
			continue
		}
		out = append(out, continuator, b+bias)
	}
	out = append(out, terminator)
	return cur.Write(out)
}

// Skip implements orderly.Codec.
func (c *Codec) Skip(cur *cursor.Cursor) error {
	terminator, continuator, _, _ := params(c.ord)
	i := 0
	for {
		b, err := cur.PeekByte(i)
		if err != nil {
			return errors.Wrap(orderly.ErrTruncated, "bytesenc: terminator not found")
		}
		if b == terminator {
			return cur.Advance(i + 1)
		}
		if b == continuator {
			i += 2
			continue
		}
		i++
	}
}

// Deserialize implements orderly.Codec.
func (c *Codec) Deserialize(cur *cursor.Cursor) ([]byte, error) {
	terminator, continuator, bias, dir := params(c.ord)
	var out []byte
	i := 0
	for {
		b, err := cur.PeekByte(i)
		if err != nil {
			return nil, errors.Wrap(orderly.ErrTruncated, "bytesenc: terminator not found")
		}
		if b == terminator {
			if err := cur.Advance(i + 1); err != nil {
				return nil, errors.Wrap(orderly.ErrTruncated, "bytesenc: advance past terminator")
			}
			if out == nil {
				out = []byte{}
			}
			return out, nil
		}
		if b == continuator {
			next, err := cur.PeekByte(i + 1)
			if err != nil {
				return nil, errors.Wrap(orderly.ErrTruncated, "bytesenc: dangling continuator")
			}
			out = append(out, c.ord.Apply(next-bias))
			i += 2
			continue
		}
		out = append(out, c.ord.Apply(b-byte(dir)))
		i++
	}
}
