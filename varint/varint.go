// Package varint implements a sortable variable-length integer codec: a
// self-describing header byte followed by 0-8 big-endian data bytes, in
// signed and unsigned variants, both with optional reserved header bits and
// a dedicated NULL encoding.
//
// The bit-level algorithm is a direct port of
// com.gotometrics.hbase.util.IntUtils: only the bits that differ from the
// (explicit, for signed; implicit-zero, for unsigned) sign bit are encoded,
// and the header byte's own bits are XOR'd against the sign so that
// big-endian unsigned byte comparison of headers preserves numeric order
// across lengths and signs.
package varint

import (
	"math/bits"

	"github.com/ndimiduk/orderly/cursor"
	"github.com/ndimiduk/orderly/order"

	"github.com/cockroachdb/errors"
	"golang.org/x/exp/constraints"

	orderly "github.com/ndimiduk/orderly"
)

// inRange reports whether v falls within [lo, hi], shared by every
// reserved-bit-count validation below.
func inRange[T constraints.Integer](v, lo, hi T) bool {
	return v >= lo && v <= hi
}

const (
	headerSign   byte = 0x80
	headerSingle byte = 0x40
	headerDouble byte = 0x20

	headerSingleDataBitsSigned = 6
	headerDoubleDataBitsSigned = 5
	headerMultiDataBitsSigned  = 2

	headerLenBias = 3
	headerLenBits = 3
	headerLenOff  = 2

	headerNullASC byte = 0x00
	headerNullDSC byte = 0xFF

	// MaxSignedReservedBits is the largest reserved-bit count a Signed codec
	// accepts: signed encodings have only 2 data bits in the worst case
	// (multi-byte) header, so at most 2 bits may be reserved.
	MaxSignedReservedBits = headerMultiDataBitsSigned

	// MaxUnsignedReservedBits is the largest reserved-bit count an Unsigned
	// codec accepts: unsigned encodings gain one extra header data bit over
	// signed (no explicit sign bit to store), so at most 3 bits may be
	// reserved.
	MaxUnsignedReservedBits = headerMultiDataBitsSigned + 1
)

func headerDataBits(base int, signed bool) int {
	if signed {
		return base
	}
	return base + 1
}

func numHeaderDataBits(numBytes int, signed bool) int {
	switch numBytes {
	case 1:
		return headerDataBits(headerSingleDataBitsSigned, signed)
	case 2:
		return headerDataBits(headerDoubleDataBitsSigned, signed)
	default:
		return headerDataBits(headerMultiDataBitsSigned, signed)
	}
}

func maxReservedBits(signed bool) int {
	return headerDataBits(headerMultiDataBitsSigned, signed)
}

// bitSize returns the number of bits required to represent bits in a
// minimal-length two's complement representation, excluding the sign bit
// (signed), or in its raw unsigned form (unsigned).
func bitSize(x int64, signed bool) int {
	var diff uint64
	if signed {
		diff = uint64(x ^ (x >> 63))
	} else {
		diff = uint64(x)
	}
	if diff == 0 {
		return 0
	}
	return 64 - bits.LeadingZeros64(diff)
}

func varLength(reservedBits int, x int64, signed bool) int {
	numBits := bitSize(x, signed) + reservedBits
	single := headerDataBits(headerSingleDataBitsSigned, signed)
	double := headerDataBits(headerDoubleDataBitsSigned, signed)
	multi := headerDataBits(headerMultiDataBitsSigned, signed)

	switch {
	case numBits <= single:
		return 1
	case numBits <= double+8:
		return 2
	default:
		return 1 + ((numBits - multi + 7) >> 3)
	}
}

// headerByte computes the unmasked (Ascending), un-reserved-shifted header
// byte for a value whose "non-negative" indicator is negSign (0xFF if the
// value is >= 0 or codec is unsigned, 0x00 if the value is negative).
func headerByte(reservedBits int, negSign byte, numBytes int, signed bool) byte {
	var b byte
	b = negSign & headerSign
	switch numBytes {
	case 1:
		b |= (^negSign) & headerSingle
	case 2:
		b |= (negSign & headerSingle) | ((^negSign) & headerDouble)
	default:
		raw := byte(numBytes - headerLenBias)
		encLen := (raw ^ (^negSign)) & byte((1<<headerLenBits)-1)
		b |= (negSign & (headerSingle | headerDouble)) | (encLen << headerLenOff)
	}
	if !signed {
		b <<= 1
	}
	return b >> uint(reservedBits)
}

func readByte(x int64, offset int, mask byte, signed bool) byte {
	if offset >= 63 {
		if signed {
			return byte(x>>63) & mask
		}
		return 0
	}
	if signed {
		return byte(x>>uint(offset)) & mask
	}
	return byte(uint64(x)>>uint(offset)) & mask
}

func writeByte(b byte, offset int, mask byte, x int64, signed bool) int64 {
	if offset >= 63 {
		return x
	}
	if x >= 0 || !signed {
		x |= int64(b&mask) << uint(offset)
	} else {
		x &^= int64(^b&mask) << uint(offset)
	}
	return x
}

// negSignOf returns the negated sign byte used to seed header
// construction: 0xFF when x is zero or positive, and always 0xFF for
// unsigned codecs (the unsigned path then discards the sign bit via its own
// left-shift in headerByte), 0x00 when x is negative.
func negSignOf(x int64, signed bool) byte {
	if !signed {
		return 0xFF
	}
	if x < 0 {
		return 0x00
	}
	return 0xFF
}

// encodeBytes writes the Ascending, un-reserved-bit-masked encoding of x
// (or, if x == nil, the NULL header) using reservedBits reserved header
// bits, returning the freshly allocated encoding.
func encodeBytes(reservedBits int, x *int64, signed bool) ([]byte, error) {
	if !inRange(reservedBits, 0, maxReservedBits(signed)) {
		return nil, errors.Wrapf(orderly.ErrInvalidConfiguration,
			"reserved bits %d exceeds maximum %d", reservedBits, maxReservedBits(signed))
	}

	if x == nil {
		return []byte{headerNullASC >> uint(reservedBits)}, nil
	}

	numBytes := varLength(reservedBits, *x, signed)
	negSign := negSignOf(*x, signed)
	headerBits := numHeaderDataBits(numBytes, signed) - reservedBits
	numBits := headerBits + 8*(numBytes-1)

	b := make([]byte, numBytes)
	b[0] = headerByte(reservedBits, negSign, numBytes, signed)
	numBits -= headerBits
	b[0] |= readByte(*x, numBits, byte((1<<uint(headerBits))-1), signed)
	if !signed {
		b[0]++
	}

	for i := 1; i < numBytes; i++ {
		numBits -= 8
		b[i] = readByte(*x, numBits, 0xff, signed)
	}
	return b, nil
}

// isNullHeader reports whether the Ascending, un-reserved-bit-masked header
// byte h denotes NULL.
func isNullHeader(h byte, reservedBits int) bool {
	shifted := byte(int8(h<<uint(reservedBits)) >> uint(reservedBits))
	return shifted == headerNullASC
}

// decodeLength returns the total encoded length (header + data bytes) given
// only the Ascending, un-reserved-bit-masked header byte.
func decodeLength(reservedBits int, h byte, signed bool) (int, error) {
	if !inRange(reservedBits, 0, maxReservedBits(signed)) {
		return 0, errors.Wrapf(orderly.ErrInvalidConfiguration,
			"reserved bits %d exceeds maximum %d", reservedBits, maxReservedBits(signed))
	}

	b := h
	if !signed {
		b--
	}
	b <<= uint(reservedBits)
	negSign := byte(0xFF)
	if signed {
		negSign = byte(int8(b) >> 7)
	} else {
		b >>= 1
	}

	if isNullHeader(h, reservedBits) || ((b^negSign)&headerSingle) != 0 {
		return 1, nil
	}
	if ((b ^ negSign) & headerDouble) != 0 {
		return 2, nil
	}

	length := (int((b^^negSign)>>headerLenOff) & ((1 << headerLenBits) - 1)) + headerLenBias
	if length > 9 {
		return 0, errors.Wrapf(orderly.ErrCorrupt, "varint length class implies %d bytes", length)
	}
	return length, nil
}

// decodeBytes decodes an Ascending, un-reserved-bit-masked encoding from b,
// returning the value (nil for NULL) and the number of bytes consumed.
func decodeBytes(reservedBits int, b []byte, signed bool) (*int64, int, error) {
	if len(b) == 0 {
		return nil, 0, errors.Wrap(orderly.ErrTruncated, "varint: empty input")
	}

	length, err := decodeLength(reservedBits, b[0], signed)
	if err != nil {
		return nil, 0, err
	}
	if len(b) < length {
		return nil, 0, errors.Wrapf(orderly.ErrTruncated, "varint: need %d bytes, have %d", length, len(b))
	}

	if isNullHeader(b[0], reservedBits) {
		return nil, 1, nil
	}

	headerBits := numHeaderDataBits(length, signed) - reservedBits
	numBits := headerBits + 8*(length-1)

	shifted := byte(int8(b[0]<<uint(reservedBits)) >> uint(reservedBits))
	var signMask byte
	if signed {
		signMask = headerSign >> uint(reservedBits)
	} else {
		signMask = 0
	}

	var negSign int64
	if signed {
		if shifted&signMask != 0 {
			negSign = -1
		} else {
			negSign = 0
		}
	} else {
		negSign = -1
	}
	x := ^negSign

	firstData := shifted
	if !signed {
		firstData--
	}
	numBits -= headerBits
	x = writeByte(firstData, numBits, byte((1<<uint(headerBits))-1), x, signed)

	for i := 1; i < length; i++ {
		numBits -= 8
		x = writeByte(b[i], numBits, 0xff, x, signed)
	}

	return &x, length, nil
}

// lengthOf returns the number of bytes required to encode x.
func lengthOf(reservedBits int, x *int64, signed bool) (int, error) {
	if !inRange(reservedBits, 0, maxReservedBits(signed)) {
		return 0, errors.Wrapf(orderly.ErrInvalidConfiguration,
			"reserved bits %d exceeds maximum %d", reservedBits, maxReservedBits(signed))
	}
	if x == nil {
		return 1, nil
	}
	return varLength(reservedBits, *x, signed), nil
}

// Signed is the varint codec over nullable, arbitrary-magnitude int64
// values.
type Signed struct {
	reservedBits int
	ord          order.Order
}

// NewSigned constructs a signed varint codec with reservedBits reserved
// header bits (0..MaxSignedReservedBits) and sort direction ord.
func NewSigned(reservedBits int, ord order.Order) (*Signed, error) {
	if !inRange(reservedBits, 0, MaxSignedReservedBits) {
		return nil, errors.Wrapf(orderly.ErrInvalidConfiguration,
			"signed varint reserved bits %d exceeds maximum %d", reservedBits, MaxSignedReservedBits)
	}
	return &Signed{reservedBits: reservedBits, ord: ord}, nil
}

// Order implements orderly.Codec.
func (s *Signed) Order() order.Order { return s.ord }

// SetOrder implements orderly.Orderable.
func (s *Signed) SetOrder(o order.Order) { s.ord = o }

// SerializedLength implements orderly.Codec.
func (s *Signed) SerializedLength(v *int64) (int, error) {
	return lengthOf(s.reservedBits, v, true)
}

// Serialize implements orderly.Codec.
func (s *Signed) Serialize(v *int64, c *cursor.Cursor) error {
	b, err := encodeBytes(s.reservedBits, v, true)
	if err != nil {
		return err
	}
	for i := range b {
		b[i] = s.ord.Apply(b[i])
	}
	return c.Write(b)
}

// Skip implements orderly.Codec.
func (s *Signed) Skip(c *cursor.Cursor) error {
	h, err := c.PeekByte(0)
	if err != nil {
		return errors.Wrap(orderly.ErrTruncated, "varint: cannot read header")
	}
	length, err := decodeLength(s.reservedBits, s.ord.Apply(h), true)
	if err != nil {
		return err
	}
	if err := c.Advance(length); err != nil {
		return errors.Wrap(orderly.ErrTruncated, "varint: skip past end of buffer")
	}
	return nil
}

// Deserialize implements orderly.Codec.
func (s *Signed) Deserialize(c *cursor.Cursor) (*int64, error) {
	h, err := c.PeekByte(0)
	if err != nil {
		return nil, errors.Wrap(orderly.ErrTruncated, "varint: cannot read header")
	}
	length, err := decodeLength(s.reservedBits, s.ord.Apply(h), true)
	if err != nil {
		return nil, err
	}
	raw, err := c.Read(length)
	if err != nil {
		return nil, errors.Wrap(orderly.ErrTruncated, "varint: short read")
	}
	unmasked := make([]byte, length)
	for i, b := range raw {
		unmasked[i] = s.ord.Apply(b)
	}
	v, _, err := decodeBytes(s.reservedBits, unmasked, true)
	return v, err
}

// Unsigned is the varint codec over nullable, arbitrary-magnitude uint64
// values.
type Unsigned struct {
	reservedBits int
	ord          order.Order
}

// NewUnsigned constructs an unsigned varint codec with reservedBits
// reserved header bits (0..MaxUnsignedReservedBits) and sort direction ord.
func NewUnsigned(reservedBits int, ord order.Order) (*Unsigned, error) {
	if !inRange(reservedBits, 0, MaxUnsignedReservedBits) {
		return nil, errors.Wrapf(orderly.ErrInvalidConfiguration,
			"unsigned varint reserved bits %d exceeds maximum %d", reservedBits, MaxUnsignedReservedBits)
	}
	return &Unsigned{reservedBits: reservedBits, ord: ord}, nil
}

// Order implements orderly.Codec.
func (u *Unsigned) Order() order.Order { return u.ord }

// SetOrder implements orderly.Orderable.
func (u *Unsigned) SetOrder(o order.Order) { u.ord = o }

// SerializedLength implements orderly.Codec.
func (u *Unsigned) SerializedLength(v *uint64) (int, error) {
	if v == nil {
		return 1, nil
	}
	x := int64(*v)
	return lengthOf(u.reservedBits, &x, false)
}

// Serialize implements orderly.Codec.
func (u *Unsigned) Serialize(v *uint64, c *cursor.Cursor) error {
	var x *int64
	if v != nil {
		xv := int64(*v)
		x = &xv
	}
	b, err := encodeBytes(u.reservedBits, x, false)
	if err != nil {
		return err
	}
	for i := range b {
		b[i] = u.ord.Apply(b[i])
	}
	return c.Write(b)
}

// Skip implements orderly.Codec.
func (u *Unsigned) Skip(c *cursor.Cursor) error {
	h, err := c.PeekByte(0)
	if err != nil {
		return errors.Wrap(orderly.ErrTruncated, "varint: cannot read header")
	}
	length, err := decodeLength(u.reservedBits, u.ord.Apply(h), false)
	if err != nil {
		return err
	}
	if err := c.Advance(length); err != nil {
		return errors.Wrap(orderly.ErrTruncated, "varint: skip past end of buffer")
	}
	return nil
}

// Deserialize implements orderly.Codec.
func (u *Unsigned) Deserialize(c *cursor.Cursor) (*uint64, error) {
	h, err := c.PeekByte(0)
	if err != nil {
		return nil, errors.Wrap(orderly.ErrTruncated, "varint: cannot read header")
	}
	length, err := decodeLength(u.reservedBits, u.ord.Apply(h), false)
	if err != nil {
		return nil, err
	}
	raw, err := c.Read(length)
	if err != nil {
		return nil, errors.Wrap(orderly.ErrTruncated, "varint: short read")
	}
	unmasked := make([]byte, length)
	for i, b := range raw {
		unmasked[i] = u.ord.Apply(b)
	}
	v, _, err := decodeBytes(u.reservedBits, unmasked, false)
	if v == nil {
		return nil, nil
	}
	uv := uint64(*v)
	return &uv, err
}

// EncodeSignedReserved encodes x (Ascending, un-order-masked) with
// reservedBits reserved header bits, leaving the top reservedBits bits of
// the returned slice's first byte zero for an embedder to OR its own bits
// into. This is the low-level entry point the decimal codec uses to embed
// its header bits alongside the adjusted exponent, mirroring
// BigDecimalUtils.toBytes's direct use of IntUtils.writeVarLong in the
// original implementation.
func EncodeSignedReserved(reservedBits int, x *int64) ([]byte, error) {
	return encodeBytes(reservedBits, x, true)
}

// DecodeSignedReserved decodes a value encoded by EncodeSignedReserved,
// returning the value and the number of bytes consumed.
func DecodeSignedReserved(reservedBits int, b []byte) (*int64, int, error) {
	return decodeBytes(reservedBits, b, true)
}

// SignedReservedLength returns the number of bytes EncodeSignedReserved
// will produce for x.
func SignedReservedLength(reservedBits int, x *int64) (int, error) {
	return lengthOf(reservedBits, x, true)
}

// SignedReservedHeaderLength returns the encoded length of a signed,
// reserved-bit varint given only its (already order-unmasked) header byte.
func SignedReservedHeaderLength(reservedBits int, header byte) (int, error) {
	return decodeLength(reservedBits, header, true)
}

// IsNullHeader reports whether h, a header byte already unmasked to
// Ascending order, denotes NULL under reservedBits reserved bits.
func IsNullHeader(reservedBits int, h byte) bool {
	return isNullHeader(h, reservedBits)
}
