// Copyright 2025 Grug Framework
//
// The storage provider: a prefixed key-value facade giving each contract an
// isolated keyspace. The prefix is the single byte "w" followed by the
// contract address. Every operation charges gas; writes in an immutable
// context fail; iterators are invalidated by any mutation on the namespace.

package vm

import (
	"github.com/grugnet/grug/pkg/gas"
	"github.com/grugnet/grug/pkg/store"
	"github.com/grugnet/grug/pkg/types"
)

// StorageProvider scopes a Storage to one contract's namespace.
type StorageProvider struct {
	storage   store.Storage
	namespace []byte
	readonly  bool
	gasTracker *gas.Tracker

	iterators  map[int32]*providerIter
	nextIterID int32
}

// NewStorageProvider builds a provider over storage for the given contract.
// readonly marks immutable contexts (queries); writes then fail with
// ErrImmutableState.
func NewStorageProvider(storage store.Storage, contract types.Addr, readonly bool, gasTracker *gas.Tracker) *StorageProvider {
	namespace := make([]byte, 0, len(types.AddrNamespace)+types.AddrLen)
	namespace = append(namespace, types.AddrNamespace...)
	namespace = append(namespace, contract.Bytes()...)
	return &StorageProvider{
		storage:    storage,
		namespace:  namespace,
		readonly:   readonly,
		gasTracker: gasTracker,
		iterators:  make(map[int32]*providerIter),
	}
}

// Namespace returns the raw key prefix, for tests.
func (p *StorageProvider) Namespace() []byte {
	return p.namespace
}

func (p *StorageProvider) Read(key []byte) ([]byte, error) {
	value, err := p.storage.Read(store.Concat(p.namespace, key))
	if err != nil {
		return nil, err
	}
	if err := p.gasTracker.Consume(GasReadFlat+uint64(len(value))*GasReadPerByte, "db_read"); err != nil {
		return nil, err
	}
	return value, nil
}

func (p *StorageProvider) Write(key, value []byte) error {
	if p.readonly {
		return types.ErrImmutableState
	}
	if err := p.gasTracker.Consume(GasWriteFlat+uint64(len(key)+len(value))*GasWritePerByte, "db_write"); err != nil {
		return err
	}
	if err := p.storage.Write(store.Concat(p.namespace, key), value); err != nil {
		return err
	}
	p.invalidateIterators()
	return nil
}

func (p *StorageProvider) Remove(key []byte) error {
	if p.readonly {
		return types.ErrImmutableState
	}
	if err := p.gasTracker.Consume(GasRemoveFlat, "db_remove"); err != nil {
		return err
	}
	if err := p.storage.Remove(store.Concat(p.namespace, key)); err != nil {
		return err
	}
	p.invalidateIterators()
	return nil
}

func (p *StorageProvider) RemoveRange(min, max []byte) error {
	if p.readonly {
		return types.ErrImmutableState
	}
	if err := p.gasTracker.Consume(GasRemoveFlat, "db_remove_range"); err != nil {
		return err
	}
	lo, hi := store.PrefixRange(p.namespace, min, max)
	if err := p.storage.RemoveRange(lo, hi); err != nil {
		return err
	}
	p.invalidateIterators()
	return nil
}

// Scan opens a lazy iterator over [min, max) in the contract's namespace
// and returns its id. Records are pulled one at a time with Next.
func (p *StorageProvider) Scan(min, max []byte, order types.Order) (int32, error) {
	if err := p.gasTracker.Consume(GasScanFlat, "db_scan"); err != nil {
		return 0, err
	}
	id := p.nextIterID
	p.nextIterID++
	lo, hi := store.PrefixRange(p.namespace, min, max)
	p.iterators[id] = &providerIter{min: lo, max: hi, order: order}
	return id, nil
}

// Next advances the iterator. It returns ok = false when exhausted, and
// ErrIteratorInvalidated if the namespace was mutated since the scan.
func (p *StorageProvider) Next(id int32) (types.Record, bool, error) {
	iter, found := p.iterators[id]
	if !found {
		return types.Record{}, false, types.ErrIteratorInvalidated
	}
	if iter.invalidated {
		return types.Record{}, false, types.ErrIteratorInvalidated
	}
	rec, ok, err := iter.next(p.storage)
	if err != nil || !ok {
		return types.Record{}, false, err
	}
	if err := p.gasTracker.Consume(GasIterNextFlat+uint64(len(rec.Key)+len(rec.Value))*GasIterPerByte, "db_next"); err != nil {
		return types.Record{}, false, err
	}
	rec.Key = store.TrimPrefix(p.namespace, rec.Key)
	return rec, true, nil
}

// invalidateIterators marks every live iterator dead. The next advance on
// any of them observes the sentinel error, making invalidation visible to
// the guest rather than yielding phantom records.
func (p *StorageProvider) invalidateIterators() {
	for _, iter := range p.iterators {
		iter.invalidated = true
	}
}

// providerIter is a cursor that re-scans the store on every advance, so it
// never holds a live reference into a snapshot that may change beneath it.
type providerIter struct {
	min         []byte
	max         []byte
	order       types.Order
	invalidated bool
}

func (it *providerIter) next(storage store.Storage) (types.Record, bool, error) {
	inner, err := storage.Scan(it.min, it.max, it.order)
	if err != nil {
		return types.Record{}, false, err
	}
	defer inner.Close()
	rec, ok, err := inner.Next()
	if err != nil || !ok {
		return types.Record{}, false, err
	}
	if it.order == types.Ascending {
		it.min = nextKey(rec.Key)
	} else {
		it.max = rec.Key
	}
	return rec, true, nil
}

// nextKey returns the immediate successor of key in byte order.
func nextKey(key []byte) []byte {
	out := make([]byte, len(key)+1)
	copy(out, key)
	return out
}
