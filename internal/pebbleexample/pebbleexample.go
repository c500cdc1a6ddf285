// Package pebbleexample wires this module's codecs into a pebble key-value
// store. It exists to demonstrate, end to end, the property the rest of the
// module is built around: once row keys are encoded with an order-preserving
// codec, byte-lexicographic comparison already matches logical value order,
// so Pebble's own bytewise default comparer is the correct comparer, and no
// custom Compare/Separator/Successor/AbbreviatedKey implementation is
// needed.
//
// This is grounded on com.gotometrics.hbase.rowkey's use as HBase row keys
// (where the store's comparator is always plain byte comparison) and on
// this pack's own use of pebble.DefaultComparer for a similar reason:
// internal/database/pebble/open.go builds a *custom* comparer only because
// its own encoding tags values by type and needs type-aware comparison
// logic; this module's codecs carry no such tags; every codec's contract is
// that encoded bytes sort the same way bytes.Compare already sorts them.
package pebbleexample

import (
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"github.com/ndimiduk/orderly/fixedint"
	"github.com/ndimiduk/orderly/order"
	"github.com/ndimiduk/orderly/structcodec"
	"github.com/ndimiduk/orderly/varint"
)

// Comparer is the pebble.Comparer for keys produced by this module's
// codecs. Compare, Equal, Separator, Successor, and AbbreviatedKey are all
// taken verbatim from pebble.DefaultComparer: order-preserving encoding
// guarantees plain byte comparison already yields the correct order, so
// nothing about those algorithms needs to know about the encoding above it.
// Name is kept aligned with LevelDB's bytewise comparator, matching
// pebble.DefaultComparer.Name, so stores opened with this Comparer remain
// interchangeable with ones opened with the default.
var Comparer = &pebble.Comparer{
	Compare:        pebble.DefaultComparer.Compare,
	Equal:          pebble.DefaultComparer.Equal,
	AbbreviatedKey: pebble.DefaultComparer.AbbreviatedKey,
	FormatKey:      pebble.DefaultComparer.FormatKey,
	Separator:      pebble.DefaultComparer.Separator,
	Successor:      pebble.DefaultComparer.Successor,
	Name:           pebble.DefaultComparer.Name,
}

// Open opens a pebble store at path configured with Comparer, following the
// same "fill in the comparer if the caller left it nil" pattern as this
// pack's own database/pebble.Open. Passing an in-memory pebble.Options.FS
// (e.g. vfs.NewMem()) is the caller's responsibility; Open does not choose
// one.
func Open(path string, opts *pebble.Options) (*pebble.DB, error) {
	if opts == nil {
		opts = &pebble.Options{}
	}
	if opts.Comparer == nil {
		opts.Comparer = Comparer
	}
	return pebble.Open(path, opts)
}

// OpenMem opens an in-memory pebble store using Comparer, for tests and
// examples that don't want to touch disk.
func OpenMem() (*pebble.DB, error) {
	return Open("", &pebble.Options{FS: vfs.NewMem()})
}

// EventKey builds an example composite row key: a fixed-width tenant id,
// then a variable-length event sequence number, then a variable-length
// timestamp, each with its own independently chosen direction. A tenant's
// events group together (fixed-width prefix), while within a tenant the
// remaining fields sort by whatever direction the caller picks, e.g.
// descending timestamps to read the newest events first. It mirrors the
// kind of multi-field row key com.gotometrics.hbase.rowkey.StructRowKey
// composers were built to produce for HBase table keys.
func EventKey(tenantOrd, seqOrd, tsOrd order.Order) (*structcodec.Struct, error) {
	tenant, err := fixedint.NewUnsigned(fixedint.Width32, tenantOrd)
	if err != nil {
		return nil, err
	}
	seq, err := varint.NewUnsigned(0, seqOrd)
	if err != nil {
		return nil, err
	}
	ts, err := varint.NewUnsigned(0, tsOrd)
	if err != nil {
		return nil, err
	}

	return structcodec.New([]structcodec.Field{
		structcodec.Wrap[uint64](tenant),
		structcodec.Wrap[*uint64](seq),
		structcodec.Wrap[*uint64](ts),
	}), nil
}
