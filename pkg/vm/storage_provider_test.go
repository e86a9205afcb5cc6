// Copyright 2025 Grug Framework

package vm

import (
	"bytes"
	"errors"
	"testing"

	"github.com/grugnet/grug/pkg/gas"
	"github.com/grugnet/grug/pkg/store"
	"github.com/grugnet/grug/pkg/types"
)

func newTestProvider(contract types.Addr, readonly bool) (*StorageProvider, store.Storage, *gas.Tracker) {
	base := store.NewMemStore()
	tracker := gas.NewLimitless()
	return NewStorageProvider(base, contract, readonly, tracker), base, tracker
}

func TestProviderNamespaceIsolation(t *testing.T) {
	base := store.NewMemStore()
	tracker := gas.NewLimitless()
	alice := NewStorageProvider(base, types.MockAddr(1), false, tracker)
	bob := NewStorageProvider(base, types.MockAddr(2), false, tracker)

	if err := alice.Write([]byte("k"), []byte("alice")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := bob.Write([]byte("k"), []byte("bob")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	value, _ := alice.Read([]byte("k"))
	if string(value) != "alice" {
		t.Errorf("alice reads bob's data: %q", value)
	}

	// Scans stay inside the namespace too.
	id, _ := bob.Scan(nil, nil, types.Ascending)
	rec, ok, err := bob.Next(id)
	if err != nil || !ok {
		t.Fatalf("scan failed: %v", err)
	}
	if string(rec.Value) != "bob" {
		t.Errorf("bob's scan returned foreign data: %q", rec.Value)
	}
	if _, ok, _ := bob.Next(id); ok {
		t.Error("bob's scan must see exactly one record")
	}

	// The physical keys carry the "w" + address prefix.
	raw, _ := base.Read(store.Concat(alice.Namespace(), []byte("k")))
	if !bytes.Equal(raw, []byte("alice")) {
		t.Error("physical key layout unexpected")
	}
}

func TestProviderImmutableContext(t *testing.T) {
	provider, _, _ := newTestProvider(types.MockAddr(1), true)
	if err := provider.Write([]byte("k"), []byte("v")); !errors.Is(err, types.ErrImmutableState) {
		t.Errorf("expected ErrImmutableState, got %v", err)
	}
	if err := provider.Remove([]byte("k")); !errors.Is(err, types.ErrImmutableState) {
		t.Errorf("expected ErrImmutableState, got %v", err)
	}
	if err := provider.RemoveRange(nil, nil); !errors.Is(err, types.ErrImmutableState) {
		t.Errorf("expected ErrImmutableState, got %v", err)
	}
}

func TestProviderIteratorInvalidation(t *testing.T) {
	provider, _, _ := newTestProvider(types.MockAddr(1), false)
	_ = provider.Write([]byte("a"), []byte("1"))
	_ = provider.Write([]byte("b"), []byte("2"))

	id, err := provider.Scan(nil, nil, types.Ascending)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if _, ok, err := provider.Next(id); err != nil || !ok {
		t.Fatalf("first advance failed: %v", err)
	}

	// A write on the namespace invalidates the live iterator; the next
	// advance observes the sentinel error.
	_ = provider.Write([]byte("c"), []byte("3"))
	if _, _, err := provider.Next(id); !errors.Is(err, types.ErrIteratorInvalidated) {
		t.Errorf("expected ErrIteratorInvalidated, got %v", err)
	}

	// A fresh scan opened after the write works.
	id2, _ := provider.Scan(nil, nil, types.Ascending)
	if _, ok, err := provider.Next(id2); err != nil || !ok {
		t.Errorf("fresh iterator must work: %v", err)
	}
}

func TestProviderScanBounds(t *testing.T) {
	provider, _, _ := newTestProvider(types.MockAddr(1), false)
	for _, k := range []string{"a", "b", "c"} {
		_ = provider.Write([]byte(k), []byte(k))
	}

	// Inclusive min, exclusive max.
	id, _ := provider.Scan([]byte("a"), []byte("c"), types.Ascending)
	var keys []string
	for {
		rec, ok, err := provider.Next(id)
		if err != nil {
			t.Fatalf("next failed: %v", err)
		}
		if !ok {
			break
		}
		keys = append(keys, string(rec.Key))
	}
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Errorf("unexpected range result: %v", keys)
	}
}

func TestProviderChargesGas(t *testing.T) {
	base := store.NewMemStore()
	tracker := gas.NewLimited(GasWriteFlat + 2*GasWritePerByte - 1)
	provider := NewStorageProvider(base, types.MockAddr(1), false, tracker)

	err := provider.Write([]byte("k"), []byte("v"))
	if !types.IsOutOfGas(err) {
		t.Errorf("expected out of gas, got %v", err)
	}
}
