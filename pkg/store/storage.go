// Copyright 2025 Grug Framework
//
// The Storage abstraction every layer of the execution core reads and
// writes through: the disk store's views, the copy-on-write buffers, and the
// per-contract prefixed facades.

package store

import (
	"bytes"

	"github.com/grugnet/grug/pkg/types"
)

// Storage is an ordered byte-to-byte map. Scan bounds are inclusive on min
// and exclusive on max; nil means unbounded. A scan whose min sorts after
// max yields nothing rather than failing.
type Storage interface {
	// Read returns the value for key, or nil if absent.
	Read(key []byte) ([]byte, error)
	// Scan iterates records within [min, max) in the given order.
	Scan(min, max []byte, order types.Order) (Iterator, error)
	Write(key, value []byte) error
	Remove(key []byte) error
	RemoveRange(min, max []byte) error
}

// Iterator yields records lazily. Callers must Close it when done.
type Iterator interface {
	// Next returns the next record, with ok = false once exhausted.
	Next() (types.Record, bool, error)
	Close() error
}

// Concat joins a namespace and a key.
func Concat(namespace, key []byte) []byte {
	out := make([]byte, 0, len(namespace)+len(key))
	out = append(out, namespace...)
	return append(out, key...)
}

// TrimPrefix strips a namespace from a prefixed key.
func TrimPrefix(namespace, key []byte) []byte {
	return bytes.Clone(key[len(namespace):])
}

// IncrementLastByte returns the smallest byte string strictly greater than
// every string with the given prefix, for use as an exclusive upper bound.
// Trailing 0xff bytes are dropped; an all-0xff prefix has no upper bound and
// yields nil (unbounded).
func IncrementLastByte(prefix []byte) []byte {
	out := bytes.Clone(prefix)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i] < 0xff {
			out[i]++
			return out[:i+1]
		}
	}
	return nil
}

// PrefixRange maps user-side scan bounds into the namespaced keyspace.
func PrefixRange(namespace, min, max []byte) ([]byte, []byte) {
	var lo, hi []byte
	if min != nil {
		lo = Concat(namespace, min)
	} else {
		lo = bytes.Clone(namespace)
	}
	if max != nil {
		hi = Concat(namespace, max)
	} else {
		hi = IncrementLastByte(namespace)
	}
	return lo, hi
}

// emptyIterator is returned for degenerate ranges.
type emptyIterator struct{}

func (emptyIterator) Next() (types.Record, bool, error) { return types.Record{}, false, nil }
func (emptyIterator) Close() error                      { return nil }

// EmptyIterator yields nothing.
func EmptyIterator() Iterator {
	return emptyIterator{}
}

// rangeIsEmpty reports whether [min, max) is degenerate. A nil bound is
// unbounded on that side.
func rangeIsEmpty(min, max []byte) bool {
	return min != nil && max != nil && bytes.Compare(min, max) >= 0
}
