// Copyright 2025 Grug Framework

package store

import (
	"bytes"
	"sort"

	"github.com/grugnet/grug/pkg/types"
)

// MemStore is an in-memory Storage, used in tests and as the base of
// short-lived scratch states. Not safe for concurrent use; the execution
// path is single-threaded.
type MemStore struct {
	data map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string][]byte)}
}

func (m *MemStore) Read(key []byte) ([]byte, error) {
	v, ok := m.data[string(key)]
	if !ok {
		return nil, nil
	}
	return bytes.Clone(v), nil
}

func (m *MemStore) Scan(min, max []byte, order types.Order) (Iterator, error) {
	if rangeIsEmpty(min, max) {
		return EmptyIterator(), nil
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
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
	records := make([]types.Record, len(keys))
	for i, k := range keys {
		records[i] = types.Record{Key: []byte(k), Value: bytes.Clone(m.data[k])}
	}
	return &sliceIterator{records: records}, nil
}

func (m *MemStore) Write(key, value []byte) error {
	m.data[string(key)] = bytes.Clone(value)
	return nil
}

func (m *MemStore) Remove(key []byte) error {
	delete(m.data, string(key))
	return nil
}

func (m *MemStore) RemoveRange(min, max []byte) error {
	for k := range m.data {
		kb := []byte(k)
		if min != nil && bytes.Compare(kb, min) < 0 {
			continue
		}
		if max != nil && bytes.Compare(kb, max) >= 0 {
			continue
		}
		delete(m.data, k)
	}
	return nil
}

// Len returns the number of entries, for tests.
func (m *MemStore) Len() int {
	return len(m.data)
}

type sliceIterator struct {
	records []types.Record
	pos     int
}

func (it *sliceIterator) Next() (types.Record, bool, error) {
	if it.pos >= len(it.records) {
		return types.Record{}, false, nil
	}
	rec := it.records[it.pos]
	it.pos++
	return rec, true, nil
}

func (it *sliceIterator) Close() error {
	return nil
}
