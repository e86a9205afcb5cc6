// Copyright 2025 Grug Framework

package store

import (
	"bytes"
	"testing"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/grugnet/grug/pkg/types"
)

func newTestDisk(t *testing.T) *DiskStore {
	t.Helper()
	return NewDiskStore(dbm.NewMemDB(), nil)
}

func apply(t *testing.T, s *DiskStore, oldV, newV uint64, entries map[string]types.Op) {
	t.Helper()
	batch := types.Batch{}
	for k, op := range entries {
		batch[k] = op
	}
	if err := s.Apply(oldV, newV, batch, types.Batch{}); err != nil {
		t.Fatalf("apply %d -> %d failed: %v", oldV, newV, err)
	}
}

func TestDiskStoreVersioning(t *testing.T) {
	s := newTestDisk(t)

	if _, ok, err := s.LatestVersion(); err != nil || ok {
		t.Fatalf("fresh store must have no version (ok=%v, err=%v)", ok, err)
	}

	apply(t, s, 0, 0, map[string]types.Op{"k": types.Insert([]byte("v0"))})
	version, ok, _ := s.LatestVersion()
	if !ok || version != 0 {
		t.Fatalf("expected version 0, got %d (ok=%v)", version, ok)
	}

	apply(t, s, 0, 1, map[string]types.Op{"k": types.Insert([]byte("v1"))})
	version, _, _ = s.LatestVersion()
	if version != 1 {
		t.Fatalf("expected version 1, got %d", version)
	}

	// The pointer advances by exactly 1; anything else is rejected.
	if err := s.Apply(1, 3, types.Batch{}, types.Batch{}); err == nil {
		t.Error("version skip must be rejected")
	}
	if err := s.Apply(0, 1, types.Batch{}, types.Batch{}); err == nil {
		t.Error("stale old version must be rejected")
	}
}

func TestDiskStoreHistoricalReads(t *testing.T) {
	s := newTestDisk(t)
	apply(t, s, 0, 0, map[string]types.Op{"k": types.Insert([]byte("v0"))})
	apply(t, s, 0, 1, map[string]types.Op{"k": types.Insert([]byte("v1"))})
	apply(t, s, 1, 2, map[string]types.Op{"k": types.DeleteOp()})

	// Latest view: deleted.
	if value, _ := s.StateView(nil).Read([]byte("k")); value != nil {
		t.Errorf("expected deletion at latest, got %q", value)
	}

	// Pinned views see their version.
	for version, want := range map[uint64][]byte{
		0: []byte("v0"),
		1: []byte("v1"),
		2: nil,
	} {
		v := version
		value, err := s.StateView(&v).Read([]byte("k"))
		if err != nil {
			t.Fatalf("historical read at %d failed: %v", version, err)
		}
		if !bytes.Equal(value, want) {
			t.Errorf("at version %d: got %q, want %q", version, value, want)
		}
	}
}

func TestDiskStoreHistoricalReadWithNulKeys(t *testing.T) {
	s := newTestDisk(t)
	// Keys containing 0x00 must not confuse the history encoding.
	weird := string([]byte{'a', 0x00, 'b'})
	longer := string([]byte{'a', 0x00, 'b', 0x00, 'c'})
	apply(t, s, 0, 0, map[string]types.Op{
		weird:  types.Insert([]byte("first")),
		longer: types.Insert([]byte("second")),
	})
	v := uint64(0)
	value, err := s.StateView(&v).Read([]byte(weird))
	if err != nil || string(value) != "first" {
		t.Errorf("nul-key read failed: %q (%v)", value, err)
	}
	value, _ = s.StateView(&v).Read([]byte(longer))
	if string(value) != "second" {
		t.Errorf("nested nul-key read failed: %q", value)
	}
}

func TestDiskStoreLatestScan(t *testing.T) {
	s := newTestDisk(t)
	apply(t, s, 0, 0, map[string]types.Op{
		"a": types.Insert([]byte("1")),
		"b": types.Insert([]byte("2")),
		"c": types.Insert([]byte("3")),
	})
	apply(t, s, 0, 1, map[string]types.Op{"b": types.DeleteOp()})

	it, err := s.StateView(nil).Scan(nil, nil, types.Ascending)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	records := collect(t, it)
	if len(records) != 2 || string(records[0].Key) != "a" || string(records[1].Key) != "c" {
		t.Errorf("unexpected latest scan: %v", records)
	}
}

func TestDiskStoreHistoricalScan(t *testing.T) {
	s := newTestDisk(t)
	apply(t, s, 0, 0, map[string]types.Op{
		"a": types.Insert([]byte("a0")),
		"b": types.Insert([]byte("b0")),
	})
	apply(t, s, 0, 1, map[string]types.Op{
		"a": types.DeleteOp(),
		"c": types.Insert([]byte("c1")),
	})

	v0 := uint64(0)
	it, _ := s.StateView(&v0).Scan(nil, nil, types.Ascending)
	records := collect(t, it)
	if len(records) != 2 || string(records[0].Value) != "a0" || string(records[1].Value) != "b0" {
		t.Errorf("scan at version 0 wrong: %v", records)
	}

	v1 := uint64(1)
	it, _ = s.StateView(&v1).Scan(nil, nil, types.Ascending)
	records = collect(t, it)
	if len(records) != 2 || string(records[0].Key) != "b" || string(records[1].Key) != "c" {
		t.Errorf("scan at version 1 wrong: %v", records)
	}
}

func TestStateViewIsImmutable(t *testing.T) {
	s := newTestDisk(t)
	apply(t, s, 0, 0, map[string]types.Op{"k": types.Insert([]byte("v"))})
	view := s.StateView(nil)
	if err := view.Write([]byte("k"), []byte("x")); err == nil {
		t.Error("writes through a view must fail")
	}
	if err := view.Remove([]byte("k")); err == nil {
		t.Error("removes through a view must fail")
	}
}

func TestDiskStorePrune(t *testing.T) {
	s := newTestDisk(t)
	apply(t, s, 0, 0, map[string]types.Op{"k": types.Insert([]byte("v0"))})
	apply(t, s, 0, 1, map[string]types.Op{"k": types.Insert([]byte("v1"))})
	apply(t, s, 1, 2, map[string]types.Op{"k": types.Insert([]byte("v2"))})

	if err := s.Prune(2); err != nil {
		t.Fatalf("prune failed: %v", err)
	}

	// Reads at or above the prune point still resolve.
	v2 := uint64(2)
	if value, _ := s.StateView(&v2).Read([]byte("k")); string(value) != "v2" {
		t.Errorf("read at retained version broken after prune: %q", value)
	}
	oldest, _ := s.OldestVersion()
	if oldest != 2 {
		t.Errorf("expected oldest version 2, got %d", oldest)
	}
}
