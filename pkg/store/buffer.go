// Copyright 2025 Grug Framework
//
// Copy-on-write buffer: the snapshot primitive of the execution core.
// Writes accumulate in the buffer; reads fall through to the base; commit
// merges the pending ops into the base; discarding the buffer reverts them.
// The submessage scheduler and the transaction pipeline stack these.

package store

import (
	"bytes"
	"sort"

	"github.com/grugnet/grug/pkg/types"
)

// Buffer overlays pending ops on a base Storage.
type Buffer struct {
	base    Storage
	pending types.Batch
}

func NewBuffer(base Storage) *Buffer {
	return &Buffer{base: base, pending: make(types.Batch)}
}

// Pending returns the buffered ops. The caller must not mutate the map
// while the buffer is live.
func (b *Buffer) Pending() types.Batch {
	return b.pending
}

// Commit pushes the pending ops into the base storage and resets the buffer.
func (b *Buffer) Commit() error {
	for _, k := range b.pending.SortedKeys() {
		op := b.pending[k]
		if op.Delete {
			if err := b.base.Remove([]byte(k)); err != nil {
				return err
			}
		} else {
			if err := b.base.Write([]byte(k), op.Value); err != nil {
				return err
			}
		}
	}
	b.pending = make(types.Batch)
	return nil
}

// Discard drops the pending ops.
func (b *Buffer) Discard() {
	b.pending = make(types.Batch)
}

func (b *Buffer) Read(key []byte) ([]byte, error) {
	if op, ok := b.pending[string(key)]; ok {
		if op.Delete {
			return nil, nil
		}
		return bytes.Clone(op.Value), nil
	}
	return b.base.Read(key)
}

func (b *Buffer) Write(key, value []byte) error {
	b.pending[string(key)] = types.Insert(bytes.Clone(value))
	return nil
}

func (b *Buffer) Remove(key []byte) error {
	b.pending[string(key)] = types.DeleteOp()
	return nil
}

func (b *Buffer) RemoveRange(min, max []byte) error {
	// Tombstone everything visible in the range: base records plus pending
	// inserts.
	it, err := b.base.Scan(min, max, types.Ascending)
	if err != nil {
		return err
	}
	defer it.Close()
	for {
		rec, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		b.pending[string(rec.Key)] = types.DeleteOp()
	}
	for k := range b.pending {
		kb := []byte(k)
		if min != nil && bytes.Compare(kb, min) < 0 {
			continue
		}
		if max != nil && bytes.Compare(kb, max) >= 0 {
			continue
		}
		b.pending[k] = types.DeleteOp()
	}
	return nil
}

func (b *Buffer) Scan(min, max []byte, order types.Order) (Iterator, error) {
	if rangeIsEmpty(min, max) {
		return EmptyIterator(), nil
	}
	base, err := b.base.Scan(min, max, order)
	if err != nil {
		return nil, err
	}
	// Snapshot the pending keys in range, sorted in scan order.
	keys := make([]string, 0)
	for k := range b.pending {
		kb := []byte(k)
		if min != nil && bytes.Compare(kb, min) < 0 {
			continue
		}
		if max != nil && bytes.Compare(kb, max) >= 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if order == types.Descending {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	return &mergeIterator{
		buffer:  b,
		base:    base,
		pending: keys,
		order:   order,
	}, nil
}

// mergeIterator interleaves the base iterator with the buffered ops,
// pending ops shadowing base records of the same key.
type mergeIterator struct {
	buffer  *Buffer
	base    Iterator
	pending []string
	order   types.Order

	baseRec  *types.Record
	baseDone bool
}

func (it *mergeIterator) Next() (types.Record, bool, error) {
	for {
		if it.baseRec == nil && !it.baseDone {
			rec, ok, err := it.base.Next()
			if err != nil {
				return types.Record{}, false, err
			}
			if ok {
				it.baseRec = &rec
			} else {
				it.baseDone = true
			}
		}

		var pendingKey string
		hasPending := len(it.pending) > 0
		if hasPending {
			pendingKey = it.pending[0]
		}

		switch {
		case it.baseRec == nil && !hasPending:
			return types.Record{}, false, nil

		case it.baseRec == nil:
			it.pending = it.pending[1:]
			op := it.buffer.pending[pendingKey]
			if op.Delete {
				continue
			}
			return types.Record{Key: []byte(pendingKey), Value: bytes.Clone(op.Value)}, true, nil

		case !hasPending:
			rec := *it.baseRec
			it.baseRec = nil
			return rec, true, nil

		default:
			cmp := bytes.Compare(it.baseRec.Key, []byte(pendingKey))
			if it.order == types.Descending {
				cmp = -cmp
			}
			if cmp < 0 {
				rec := *it.baseRec
				it.baseRec = nil
				return rec, true, nil
			}
			if cmp == 0 {
				// Pending op shadows the base record.
				it.baseRec = nil
			}
			it.pending = it.pending[1:]
			op := it.buffer.pending[pendingKey]
			if op.Delete {
				continue
			}
			return types.Record{Key: []byte(pendingKey), Value: bytes.Clone(op.Value)}, true, nil
		}
	}
}

func (it *mergeIterator) Close() error {
	return it.base.Close()
}
