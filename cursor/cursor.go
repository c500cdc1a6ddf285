// Package cursor provides the mutable buffer view that every codec in this
// module reads from and writes into.
//
// A Cursor is the Go analogue of com.gotometrics.hbase.rowkey.RowKeyUtils's
// ImmutableBytesWritable-based writer/reader pairing: a base byte slice
// plus an offset and a remaining length, mutated in place by exactly one
// caller at a time.
package cursor

import (
	"github.com/cockroachdb/errors"
)

// ErrOutOfBounds is returned when an operation would move a Cursor's offset
// outside of its backing buffer.
var ErrOutOfBounds = errors.New("cursor: operation out of bounds")

// Cursor is a mutable view over a byte slice: a base buffer, a current
// offset into that buffer, and the number of bytes remaining from the
// offset to the end of the view. Cursors are not safe for concurrent use;
// each encode or decode call owns a Cursor exclusively for its duration.
type Cursor struct {
	buf       []byte
	offset    int
	remaining int
}

// New wraps buf in a Cursor covering its entire length.
func New(buf []byte) *Cursor {
	return &Cursor{buf: buf, offset: 0, remaining: len(buf)}
}

// NewAt wraps buf in a Cursor starting at offset and extending length bytes.
func NewAt(buf []byte, offset, length int) (*Cursor, error) {
	if offset < 0 || length < 0 || offset+length > len(buf) {
		return nil, errors.Wrapf(ErrOutOfBounds, "offset=%d length=%d buffer=%d", offset, length, len(buf))
	}
	return &Cursor{buf: buf, offset: offset, remaining: length}, nil
}

// Remaining returns the number of unconsumed bytes in the view.
func (c *Cursor) Remaining() int { return c.remaining }

// Offset returns the current absolute offset into the backing buffer.
func (c *Cursor) Offset() int { return c.offset }

// Bytes returns the unconsumed portion of the backing buffer, without
// advancing the cursor.
func (c *Cursor) Bytes() []byte {
	return c.buf[c.offset : c.offset+c.remaining]
}

// PeekByte returns the byte at the given offset from the current position
// without advancing the cursor.
func (c *Cursor) PeekByte(at int) (byte, error) {
	if at < 0 || at >= c.remaining {
		return 0, errors.Wrapf(ErrOutOfBounds, "peek at %d, remaining %d", at, c.remaining)
	}
	return c.buf[c.offset+at], nil
}

// Advance moves the cursor forward by n bytes. It requires n <= Remaining().
func (c *Cursor) Advance(n int) error {
	if n < 0 || n > c.remaining {
		return errors.Wrapf(ErrOutOfBounds, "advance %d, remaining %d", n, c.remaining)
	}
	c.offset += n
	c.remaining -= n
	return nil
}

// ReadByte consumes and returns the next byte.
func (c *Cursor) ReadByte() (byte, error) {
	if c.remaining < 1 {
		return 0, errors.Wrap(ErrOutOfBounds, "read byte past end of cursor")
	}
	b := c.buf[c.offset]
	c.offset++
	c.remaining--
	return b, nil
}

// Read consumes and returns the next n bytes as a sub-slice of the backing
// buffer (no copy is made; callers that need to retain the bytes beyond the
// life of the buffer must copy them explicitly).
func (c *Cursor) Read(n int) ([]byte, error) {
	if n < 0 || n > c.remaining {
		return nil, errors.Wrapf(ErrOutOfBounds, "read %d, remaining %d", n, c.remaining)
	}
	b := c.buf[c.offset : c.offset+n]
	c.offset += n
	c.remaining -= n
	return b, nil
}

// WriteByte writes a single byte at the current position and advances the
// cursor by one.
func (c *Cursor) WriteByte(b byte) error {
	if c.remaining < 1 {
		return errors.Wrap(ErrOutOfBounds, "write byte past end of cursor")
	}
	c.buf[c.offset] = b
	c.offset++
	c.remaining--
	return nil
}

// Write copies b into the buffer at the current position and advances the
// cursor by len(b).
func (c *Cursor) Write(b []byte) error {
	if len(b) > c.remaining {
		return errors.Wrapf(ErrOutOfBounds, "write %d, remaining %d", len(b), c.remaining)
	}
	copy(c.buf[c.offset:], b)
	c.offset += len(b)
	c.remaining -= len(b)
	return nil
}
