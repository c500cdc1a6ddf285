// Package structcodec implements a struct composer: an ordered list of
// field codecs serialized back to back, with descending order pushed into
// each field rather than wrapped around the whole struct, and the last
// field configured to omit its terminator when its codec and direction
// allow it.
//
// This is a direct port of com.gotometrics.hbase.rowkey.StructRowKey,
// generalized from Java's Object[] value array and RowKey[] field array to
// a slice of type-erased Field adapters wrapping this module's generic
// Codec[T] instances.
package structcodec

import (
	"github.com/cockroachdb/errors"

	orderly "github.com/ndimiduk/orderly"
	"github.com/ndimiduk/orderly/cursor"
	"github.com/ndimiduk/orderly/order"
)

// Field is a type-erased adapter over a concrete orderly.Codec[T],
// letting the struct composer hold a heterogeneous ordered list of field
// codecs. Construct one with Wrap.
type Field struct {
	order            func() order.Order
	setOrder         func(order.Order)
	length           func(any) (int, error)
	serialize        func(any, *cursor.Cursor) error
	skip             func(*cursor.Cursor) error
	deserialize      func(*cursor.Cursor) (any, error)
	mustTerminate    func() (bool, bool)
	setMustTerminate func(bool) error
}

// Wrap adapts a concrete orderly.Codec[T] into a Field. If the underlying
// codec implements orderly.Orderable and/or orderly.Terminating, Wrap
// exposes those capabilities through the Field as well; a codec that
// doesn't implement Terminating always reports mustTerminate.
func Wrap[T any](c orderly.Codec[T]) Field {
	return Field{
		order: c.Order,
		setOrder: func(o order.Order) {
			if oc, ok := any(c).(orderly.Orderable); ok {
				oc.SetOrder(o)
			}
		},
		length: func(v any) (int, error) { return c.SerializedLength(v.(T)) },
		serialize: func(v any, cur *cursor.Cursor) error {
			return c.Serialize(v.(T), cur)
		},
		skip: c.Skip,
		deserialize: func(cur *cursor.Cursor) (any, error) {
			return c.Deserialize(cur)
		},
		mustTerminate: func() (bool, bool) {
			if t, ok := any(c).(orderly.Terminating); ok {
				return t.MustTerminate(), true
			}
			return true, false
		},
		setMustTerminate: func(must bool) error {
			if t, ok := any(c).(orderly.Terminating); ok {
				return t.SetMustTerminate(must)
			}
			if !must {
				return errors.Wrap(orderly.ErrInvalidConfiguration,
					"structcodec: field codec does not support implicit termination")
			}
			return nil
		},
	}
}

// Struct is the struct (record) composer: a fixed, ordered list of field
// codecs serialized one after another. Structs are never themselves NULL;
// individual fields may be NULL iff their own codec supports it.
type Struct struct {
	fields []Field
	ord    order.Order
}

// New constructs a struct composer over fields in declaration order,
// ascending by default.
func New(fields []Field) *Struct {
	s := &Struct{fields: fields, ord: order.Ascending}
	s.configureLastField()
	return s
}

// Order implements orderly.Codec.
func (s *Struct) Order() order.Order { return s.ord }

// SetOrder implements orderly.Orderable. It flips every field's own
// direction rather than wrapping the composed bytes in an outer inversion,
// so the overall sort order inverts without inserting any wrapper bytes.
func (s *Struct) SetOrder(o order.Order) {
	if o == s.ord {
		return
	}
	s.ord = o
	for _, f := range s.fields {
		f.setOrder(f.order().Invert())
	}
	s.configureLastField()
}

// configureLastField marks the last field as omitting its terminator only
// when its own direction is ascending and its codec supports implicit
// termination; every other field, and a last field that doesn't qualify,
// must terminate.
func (s *Struct) configureLastField() {
	if len(s.fields) == 0 {
		return
	}
	last := s.fields[len(s.fields)-1]
	if _, ok := last.mustTerminate(); !ok {
		return
	}
	if last.order() == order.Ascending {
		_ = last.setMustTerminate(false)
	} else {
		_ = last.setMustTerminate(true)
	}
}

func (s *Struct) checkArity(values []any) error {
	if len(values) != len(s.fields) {
		return errors.Wrapf(orderly.ErrArityMismatch,
			"structcodec: expected %d values, got %d", len(s.fields), len(values))
	}
	return nil
}

// SerializedLength implements orderly.Codec.
func (s *Struct) SerializedLength(values []any) (int, error) {
	if err := s.checkArity(values); err != nil {
		return 0, err
	}
	total := 0
	for i, f := range s.fields {
		n, err := f.length(values[i])
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// Serialize implements orderly.Codec.
func (s *Struct) Serialize(values []any, cur *cursor.Cursor) error {
	if err := s.checkArity(values); err != nil {
		return err
	}
	for i, f := range s.fields {
		if err := f.serialize(values[i], cur); err != nil {
			return err
		}
	}
	return nil
}

// Skip implements orderly.Codec.
func (s *Struct) Skip(cur *cursor.Cursor) error {
	for _, f := range s.fields {
		if err := f.skip(cur); err != nil {
			return err
		}
	}
	return nil
}

// Deserialize implements orderly.Codec.
func (s *Struct) Deserialize(cur *cursor.Cursor) ([]any, error) {
	out := make([]any, len(s.fields))
	for i, f := range s.fields {
		v, err := f.deserialize(cur)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
