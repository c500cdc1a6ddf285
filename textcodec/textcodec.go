// Package textcodec implements a UTF-8 row-key codec: NULL is a single
// reserved byte, non-null byte sequences (expected to be valid UTF-8,
// though the codec itself is byte-agnostic) are shifted by +2 per byte to
// leave 0x00 and 0x01 free, and a terminator byte closes the sequence —
// except when this codec is the final field of an ascending composite key,
// where the terminator may be omitted and end-of-buffer serves the same
// purpose.
//
// This is a direct, order- and termination-parameterized port of
// com.gotometrics.hbase.rowkey.UTF8Key, including its implicit-termination
// special case for the last field of a row key.
package textcodec

import (
	"github.com/cockroachdb/errors"

	orderly "github.com/ndimiduk/orderly"
	"github.com/ndimiduk/orderly/cursor"
	"github.com/ndimiduk/orderly/order"
)

const (
	nullByte       byte = 0x00
	terminatorByte byte = 0x01
	byteOffset          = 2
)

// Codec is the UTF-8 row-key codec over nullable byte sequences. A nil
// slice denotes NULL; a non-nil, possibly empty, slice denotes a string.
type Codec struct {
	ord           order.Order
	mustTerminate bool
}

// New constructs a UTF-8 codec with the given sort direction. Termination
// is enabled by default; call SetMustTerminate(false) to opt into implicit
// termination once this codec is known to be the last field of an
// ascending composite key.
func New(ord order.Order) *Codec {
	return &Codec{ord: ord, mustTerminate: true}
}

// Order implements orderly.Codec.
func (c *Codec) Order() order.Order { return c.ord }

// SetOrder implements orderly.Orderable.
func (c *Codec) SetOrder(o order.Order) {
	c.ord = o
	if o == order.Descending {
		c.mustTerminate = true
	}
}

// MustTerminate implements orderly.Terminating.
func (c *Codec) MustTerminate() bool { return c.mustTerminate }

// SetMustTerminate implements orderly.Terminating. Descending codecs may
// not disable termination, since an omitted terminator would invert the
// prefix relationship between strings under a reversed order.
func (c *Codec) SetMustTerminate(must bool) error {
	if !must && c.ord == order.Descending {
		return errors.Wrap(orderly.ErrInvalidConfiguration,
			"textcodec: descending order cannot use implicit termination")
	}
	c.mustTerminate = must
	return nil
}

// SerializedLength implements orderly.Codec.
func (c *Codec) SerializedLength(v *[]byte) (int, error) {
	if v == nil {
		if c.mustTerminate {
			return 1, nil
		}
		return 0, nil
	}
	n := len(*v)
	if c.mustTerminate || n == 0 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n, nil
}

// Serialize implements orderly.Codec.
func (c *Codec) Serialize(v *[]byte, cur *cursor.Cursor) error {
	if v == nil {
		if c.mustTerminate {
			return cur.WriteByte(c.ord.Apply(nullByte))
		}
		return nil
	}

	s := *v
	out := make([]byte, 0, len(s)+1)
	for _, b := range s {
		out = append(out, c.ord.Apply(b+byteOffset))
	}
	if c.mustTerminate || len(s) == 0 {
		out = append(out, c.ord.Apply(terminatorByte))
	}
	return cur.Write(out)
}

func (c *Codec) isNullAt(cur *cursor.Cursor) (bool, error) {
	if !c.mustTerminate {
		return cur.Remaining() == 0, nil
	}
	b, err := cur.PeekByte(0)
	if err != nil {
		return false, err
	}
	return c.ord.Apply(b) == nullByte, nil
}

func (c *Codec) isEmptyAt(cur *cursor.Cursor) (bool, error) {
	b, err := cur.PeekByte(0)
	if err != nil {
		return false, err
	}
	return c.ord.Apply(b) == terminatorByte, nil
}

// stringLength returns the number of body bytes (excluding NULL/terminator
// markers) making up the string at the front of cur, without advancing it.
func (c *Codec) stringLength(cur *cursor.Cursor) (int, error) {
	isNull, err := c.isNullAt(cur)
	if err != nil {
		return 0, err
	}
	if isNull {
		return 0, nil
	}
	isEmpty, err := c.isEmptyAt(cur)
	if err != nil {
		return 0, err
	}
	if isEmpty {
		return 0, nil
	}
	if !c.mustTerminate {
		return cur.Remaining(), nil
	}
	i := 0
	for {
		b, err := cur.PeekByte(i)
		if err != nil {
			return 0, err
		}
		if c.ord.Apply(b) == terminatorByte {
			return i, nil
		}
		i++
	}
}

// encodedLength returns the total number of wire bytes (body plus any
// NULL/terminator marker) occupied by the value at the front of cur.
func (c *Codec) encodedLength(cur *cursor.Cursor) (int, error) {
	isNull, err := c.isNullAt(cur)
	if err != nil {
		return 0, err
	}
	if isNull {
		if c.mustTerminate {
			return 1, nil
		}
		return 0, nil
	}
	isEmpty, err := c.isEmptyAt(cur)
	if err != nil {
		return 0, err
	}
	if isEmpty {
		return 1, nil
	}
	n, err := c.stringLength(cur)
	if err != nil {
		return 0, err
	}
	if c.mustTerminate {
		n++
	}
	return n, nil
}

// Skip implements orderly.Codec.
func (c *Codec) Skip(cur *cursor.Cursor) error {
	n, err := c.encodedLength(cur)
	if err != nil {
		return errors.Wrap(orderly.ErrTruncated, "textcodec: cannot determine length")
	}
	if err := cur.Advance(n); err != nil {
		return errors.Wrap(orderly.ErrTruncated, "textcodec: skip past end of buffer")
	}
	return nil
}

// Deserialize implements orderly.Codec.
func (c *Codec) Deserialize(cur *cursor.Cursor) (*[]byte, error) {
	isNull, err := c.isNullAt(cur)
	if err != nil {
		return nil, errors.Wrap(orderly.ErrTruncated, "textcodec: cannot read value")
	}
	if isNull {
		if c.mustTerminate {
			if err := cur.Advance(1); err != nil {
				return nil, errors.Wrap(orderly.ErrTruncated, "textcodec: advance past NULL")
			}
		}
		return nil, nil
	}

	isEmpty, err := c.isEmptyAt(cur)
	if err != nil {
		return nil, errors.Wrap(orderly.ErrTruncated, "textcodec: cannot read value")
	}
	if isEmpty {
		if err := cur.Advance(1); err != nil {
			return nil, errors.Wrap(orderly.ErrTruncated, "textcodec: advance past terminator")
		}
		empty := []byte{}
		return &empty, nil
	}

	n, err := c.stringLength(cur)
	if err != nil {
		return nil, errors.Wrap(orderly.ErrTruncated, "textcodec: terminator not found")
	}
	raw, err := cur.Read(n)
	if err != nil {
		return nil, errors.Wrap(orderly.ErrTruncated, "textcodec: short read")
	}
	out := make([]byte, n)
	for i, b := range raw {
		out[i] = c.ord.Apply(b) - byteOffset
	}
	if c.mustTerminate {
		if err := cur.Advance(1); err != nil {
			return nil, errors.Wrap(orderly.ErrTruncated, "textcodec: advance past terminator")
		}
	}
	return &out, nil
}
