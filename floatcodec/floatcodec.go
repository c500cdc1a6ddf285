// Package floatcodec implements an order-preserving IEEE-754 codec: flip
// the sign bit of non-negative values and invert every bit of negative
// values, so that the resulting bit pattern sorts, as an unsigned integer,
// in the same order as the source float. NaN is canonicalized to a single
// bit pattern before encoding. NULL is the reserved all-zero pattern, which
// the transform never otherwise produces; every non-null encoded value is
// incremented by one to keep clear of it.
//
// The 64-bit transform matches internal/binarysort.AppendFloat64/
// DecodeFloat64 bit-for-bit, generalized to also cover the 32-bit width and
// the NULL/NaN handling of com.gotometrics.hbase.rowkey
// DoubleWritableRowKey/FloatWritableRowKey.
package floatcodec

import (
	"math"

	"github.com/cockroachdb/errors"

	orderly "github.com/ndimiduk/orderly"
	"github.com/ndimiduk/orderly/cursor"
	"github.com/ndimiduk/orderly/order"
)

// canonicalNaN64 is the bit pattern every 64-bit NaN is canonicalized to
// before encoding, so that all NaNs compare equal and sort to one place.
var canonicalNaN64 = math.Float64bits(math.NaN())

// canonicalNaN32 is the 32-bit analogue of canonicalNaN64.
const canonicalNaN32 uint32 = 0x7FC00000

func transform64(bits uint64) uint64 {
	return bits ^ ((bits>>63)*0xFFFFFFFFFFFFFFFF | (1 << 63))
}

func untransform64(bits uint64) uint64 {
	return bits ^ (((^bits)>>63)*0xFFFFFFFFFFFFFFFF | (1 << 63))
}

func transform32(bits uint32) uint32 {
	return bits ^ ((bits>>31)*0xFFFFFFFF | (1 << 31))
}

func untransform32(bits uint32) uint32 {
	return bits ^ (((^bits)>>31)*0xFFFFFFFF | (1 << 31))
}

// Float64 is the order-preserving codec over nullable float64 values.
type Float64 struct {
	ord order.Order
}

// NewFloat64 constructs a 64-bit float codec with the given sort direction.
func NewFloat64(ord order.Order) *Float64 { return &Float64{ord: ord} }

// Order implements orderly.Codec.
func (f *Float64) Order() order.Order { return f.ord }

// SetOrder implements orderly.Orderable.
func (f *Float64) SetOrder(o order.Order) { f.ord = o }

// SerializedLength implements orderly.Codec.
func (f *Float64) SerializedLength(*float64) (int, error) { return 8, nil }

// Serialize implements orderly.Codec.
func (f *Float64) Serialize(v *float64, c *cursor.Cursor) error {
	var bits uint64
	if v == nil {
		bits = 0
	} else {
		raw := math.Float64bits(*v)
		if math.IsNaN(*v) {
			raw = canonicalNaN64
		}
		bits = transform64(raw) + 1
	}
	return writeUint64(bits, f.ord, c)
}

// Skip implements orderly.Codec.
func (f *Float64) Skip(c *cursor.Cursor) error {
	if err := c.Advance(8); err != nil {
		return errors.Wrap(orderly.ErrTruncated, "floatcodec: skip past end of buffer")
	}
	return nil
}

// Deserialize implements orderly.Codec.
func (f *Float64) Deserialize(c *cursor.Cursor) (*float64, error) {
	bits, err := readUint64(f.ord, c)
	if err != nil {
		return nil, err
	}
	if bits == 0 {
		return nil, nil
	}
	fv := math.Float64frombits(untransform64(bits - 1))
	if math.IsNaN(fv) {
		fv = math.NaN()
	}
	return &fv, nil
}

// Float32 is the order-preserving codec over nullable float32 values.
type Float32 struct {
	ord order.Order
}

// NewFloat32 constructs a 32-bit float codec with the given sort direction.
func NewFloat32(ord order.Order) *Float32 { return &Float32{ord: ord} }

// Order implements orderly.Codec.
func (f *Float32) Order() order.Order { return f.ord }

// SetOrder implements orderly.Orderable.
func (f *Float32) SetOrder(o order.Order) { f.ord = o }

// SerializedLength implements orderly.Codec.
func (f *Float32) SerializedLength(*float32) (int, error) { return 4, nil }

// Serialize implements orderly.Codec.
func (f *Float32) Serialize(v *float32, c *cursor.Cursor) error {
	var bits uint32
	if v == nil {
		bits = 0
	} else {
		raw := math.Float32bits(*v)
		if math.IsNaN(float64(*v)) {
			raw = canonicalNaN32
		}
		bits = transform32(raw) + 1
	}
	return writeUint32(bits, f.ord, c)
}

// Skip implements orderly.Codec.
func (f *Float32) Skip(c *cursor.Cursor) error {
	if err := c.Advance(4); err != nil {
		return errors.Wrap(orderly.ErrTruncated, "floatcodec: skip past end of buffer")
	}
	return nil
}

// Deserialize implements orderly.Codec.
func (f *Float32) Deserialize(c *cursor.Cursor) (*float32, error) {
	bits, err := readUint32(f.ord, c)
	if err != nil {
		return nil, err
	}
	if bits == 0 {
		return nil, nil
	}
	fv := math.Float32frombits(untransform32(bits - 1))
	if math.IsNaN(float64(fv)) {
		fv = float32(math.NaN())
	}
	return &fv, nil
}

func writeUint64(bits uint64, ord order.Order, c *cursor.Cursor) error {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = ord.Apply(byte(bits >> uint(56-8*i)))
	}
	return c.Write(buf)
}

func readUint64(ord order.Order, c *cursor.Cursor) (uint64, error) {
	raw, err := c.Read(8)
	if err != nil {
		return 0, errors.Wrap(orderly.ErrTruncated, "floatcodec: short read")
	}
	var bits uint64
	for i, b := range raw {
		bits |= uint64(ord.Apply(b)) << uint(56-8*i)
	}
	return bits, nil
}

func writeUint32(bits uint32, ord order.Order, c *cursor.Cursor) error {
	buf := make([]byte, 4)
	for i := 0; i < 4; i++ {
		buf[i] = ord.Apply(byte(bits >> uint(24-8*i)))
	}
	return c.Write(buf)
}

func readUint32(ord order.Order, c *cursor.Cursor) (uint32, error) {
	raw, err := c.Read(4)
	if err != nil {
		return 0, errors.Wrap(orderly.ErrTruncated, "floatcodec: short read")
	}
	var bits uint32
	for i, b := range raw {
		bits |= uint32(ord.Apply(b)) << uint(24-8*i)
	}
	return bits, nil
}
