// Package decimal implements an arbitrary-precision decimal codec: an
// adjusted base-10 exponent (stored as a signed varint with two reserved
// header bits) followed by a null-terminated packed-BCD significand, with
// the two reserved header bits carrying the sign information needed to
// order values of differing sign and to special-case zero.
//
// This is a direct port of com.gotometrics.hbase.util.BigDecimalUtils,
// expressed over *apd.Decimal (this module's arbitrary-precision decimal
// type) instead of java.math.BigDecimal, and wired to this module's varint
// package for the underlying reserved-bit exponent encoding exactly as
// BigDecimalUtils.toBytes calls IntUtils.writeVarLong.
package decimal

import (
	"math/big"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"

	orderly "github.com/ndimiduk/orderly"
	"github.com/ndimiduk/orderly/cursor"
	"github.com/ndimiduk/orderly/order"
	"github.com/ndimiduk/orderly/varint"
)

const (
	reservedBits = varint.MaxSignedReservedBits

	headerNegOrder byte = 0x80
	headerZero     byte = 0x40
)

// Codec is the arbitrary-precision decimal codec over nullable
// *apd.Decimal values.
type Codec struct {
	ord order.Order
}

// New constructs a decimal codec with the given sort direction.
func New(ord order.Order) *Codec { return &Codec{ord: ord} }

// Order implements orderly.Codec.
func (c *Codec) Order() order.Order { return c.ord }

// SetOrder implements orderly.Orderable.
func (c *Codec) SetOrder(o order.Order) { c.ord = o }

// canonical strips trailing base-10 zeros from d's coefficient, returning
// the canonicalized (magnitude, exponent, negative, isZero) tuple.
func canonical(d *apd.Decimal) (coeff *big.Int, exp int32, negative, isZero bool) {
	coeff = new(big.Int).Set(d.Coeff.MathBigInt())
	exp = d.Exponent

	ten := big.NewInt(10)
	mod := new(big.Int)
	for coeff.Sign() != 0 {
		mod.Mod(coeff, ten)
		if mod.Sign() != 0 {
			break
		}
		coeff.Div(coeff, ten)
		exp++
	}

	isZero = coeff.Sign() == 0
	negative = d.Negative && !isZero
	if isZero {
		exp = 0
	}
	return coeff, exp, negative, isZero
}

// omegaOf returns the sign-extended significand-sign byte (0xFF if the
// canonicalized value is negative, 0x00 otherwise) XOR'd with the codec's
// own order mask: the byte every exponent and significand byte is XOR'd
// against, per BigDecimalUtils's "order" variable.
func (c *Codec) omegaOf(negative bool) byte {
	sig := byte(0x00)
	if negative {
		sig = 0xFF
	}
	return c.ord.Mask() ^ sig
}

func toBCD(omega byte, digits string) []byte {
	n := (len(digits) + 2) >> 1
	out := make([]byte, n)
	pos := 0
	for i := 0; i < n; i++ {
		var b byte
		if pos < len(digits) {
			b = (1 + digits[pos] - '0') << 4
		}
		pos++
		if pos < len(digits) {
			b |= 1 + digits[pos] - '0'
		}
		pos++
		out[i] = b ^ omega
	}
	return out
}

// build returns the on-wire encoding of v.
func (c *Codec) build(v *apd.Decimal) ([]byte, error) {
	if v == nil {
		enc, err := varint.EncodeSignedReserved(reservedBits, nil)
		if err != nil {
			return nil, err
		}
		enc[0] = c.ord.Apply(enc[0])
		return enc, nil
	}

	coeff, exp, negative, isZero := canonical(v)
	omega := c.omegaOf(negative)
	header := (^omega) & headerNegOrder

	if isZero {
		return []byte{header | (omega & headerZero)}, nil
	}
	header |= (^omega) & headerZero

	digits := coeff.String()
	precision := int64(len(digits))
	adjustedExp := int64(exp) + precision - 1

	var mask64 int64
	if omega == 0xFF {
		mask64 = -1
	}
	xored := adjustedExp ^ mask64

	expBytes, err := varint.EncodeSignedReserved(reservedBits, &xored)
	if err != nil {
		return nil, err
	}
	expBytes[0] |= header

	bcd := toBCD(omega, digits)
	return append(expBytes, bcd...), nil
}

// SerializedLength implements orderly.Codec.
func (c *Codec) SerializedLength(v *apd.Decimal) (int, error) {
	b, err := c.build(v)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// Serialize implements orderly.Codec.
func (c *Codec) Serialize(v *apd.Decimal, cur *cursor.Cursor) error {
	b, err := c.build(v)
	if err != nil {
		return err
	}
	return cur.Write(b)
}

// omegaFromHeader recovers the omega byte (significand sign XOR order) from
// an on-wire byte0 that still carries its header bits, using the same
// sign-extension trick BigDecimalUtils.toBigDecimal uses to read
// ~b[offset] >> 7.
func omegaFromHeader(raw0 byte) byte {
	return byte(int8(^raw0) >> 7)
}

func (c *Codec) encodedLength(cur *cursor.Cursor) (int, error) {
	raw0, err := cur.PeekByte(0)
	if err != nil {
		return 0, err
	}
	// NULL is the whole unmasked byte 0x00; zero shares its all-zero exponent
	// field but always has one of the two header bits set.
	if c.ord.Apply(raw0) == 0x00 {
		return 1, nil
	}
	omega := omegaFromHeader(raw0)
	if isRealZero(raw0, omega) {
		return 1, nil
	}

	expLen, err := varint.SignedReservedHeaderLength(reservedBits, raw0)
	if err != nil {
		return 0, errors.Wrap(orderly.ErrCorrupt, "decimal: invalid exponent header")
	}

	i := expLen
	for {
		b, err := cur.PeekByte(i)
		if err != nil {
			return 0, errors.Wrap(orderly.ErrTruncated, "decimal: BCD terminator not found")
		}
		unxored := b ^ omega
		i++
		if unxored&0x0F == 0 {
			return i, nil
		}
	}
}

// isRealZero extracts the isZero header bit given the recovered omega: the
// bit was stored XOR'd against omega's own bit 6, so XOR-ing again with
// omega's complement recovers it directly. Must only be called after
// ruling out NULL.
func isRealZero(raw0, omega byte) bool {
	return (raw0^(^omega))&headerZero != 0
}

// Skip implements orderly.Codec.
func (c *Codec) Skip(cur *cursor.Cursor) error {
	n, err := c.encodedLength(cur)
	if err != nil {
		return err
	}
	if err := cur.Advance(n); err != nil {
		return errors.Wrap(orderly.ErrTruncated, "decimal: skip past end of buffer")
	}
	return nil
}

// Deserialize implements orderly.Codec.
func (c *Codec) Deserialize(cur *cursor.Cursor) (*apd.Decimal, error) {
	raw0, err := cur.PeekByte(0)
	if err != nil {
		return nil, errors.Wrap(orderly.ErrTruncated, "decimal: cannot read header")
	}

	if c.ord.Apply(raw0) == 0x00 {
		if err := cur.Advance(1); err != nil {
			return nil, errors.Wrap(orderly.ErrTruncated, "decimal: advance past NULL")
		}
		return nil, nil
	}

	omega := omegaFromHeader(raw0)

	if isRealZero(raw0, omega) {
		if err := cur.Advance(1); err != nil {
			return nil, errors.Wrap(orderly.ErrTruncated, "decimal: advance past zero")
		}
		return new(apd.Decimal), nil
	}

	expLen, err := varint.SignedReservedHeaderLength(reservedBits, raw0)
	if err != nil {
		return nil, errors.Wrap(orderly.ErrCorrupt, "decimal: invalid exponent header")
	}
	expRaw, err := cur.Read(expLen)
	if err != nil {
		return nil, errors.Wrap(orderly.ErrTruncated, "decimal: short read of exponent")
	}
	xored, _, err := varint.DecodeSignedReserved(reservedBits, expRaw)
	if err != nil || xored == nil {
		return nil, errors.Wrap(orderly.ErrCorrupt, "decimal: cannot decode exponent")
	}
	var mask64 int64
	if omega == 0xFF {
		mask64 = -1
	}
	adjustedExp := *xored ^ mask64

	var digits []byte
	for {
		b, err := cur.ReadByte()
		if err != nil {
			return nil, errors.Wrap(orderly.ErrTruncated, "decimal: BCD terminator not found")
		}
		unxored := b ^ omega
		hi, lo := unxored>>4, unxored&0x0F

		if hi == 0 {
			if len(digits) == 0 {
				return nil, errors.Wrap(orderly.ErrCorrupt, "decimal: empty BCD significand")
			}
			break
		}
		if hi > 10 {
			return nil, errors.Wrap(orderly.ErrCorrupt, "decimal: invalid BCD nibble")
		}
		digits = append(digits, '0'+hi-1)

		if lo == 0 {
			break
		}
		if lo > 10 {
			return nil, errors.Wrap(orderly.ErrCorrupt, "decimal: invalid BCD nibble")
		}
		digits = append(digits, '0'+lo-1)
	}

	precision := int64(len(digits))
	scale := adjustedExp - precision + 1

	negative := (omega ^ c.ord.Mask()) != 0

	dec := new(apd.Decimal)
	if _, ok := dec.Coeff.SetString(string(digits), 10); !ok {
		return nil, errors.Wrap(orderly.ErrCorrupt, "decimal: invalid significand digits")
	}
	dec.Negative = negative
	dec.Exponent = int32(scale)
	dec.Form = apd.Finite
	return dec, nil
}
