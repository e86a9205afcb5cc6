// Copyright 2025 Grug Framework

package store

import (
	"bytes"
	"testing"

	"github.com/grugnet/grug/pkg/types"
)

func collect(t *testing.T, it Iterator) []types.Record {
	t.Helper()
	defer it.Close()
	var records []types.Record
	for {
		rec, ok, err := it.Next()
		if err != nil {
			t.Fatalf("iterator error: %v", err)
		}
		if !ok {
			return records
		}
		records = append(records, rec)
	}
}

func TestBufferReadThrough(t *testing.T) {
	base := NewMemStore()
	_ = base.Write([]byte("a"), []byte("1"))
	buffer := NewBuffer(base)

	value, err := buffer.Read([]byte("a"))
	if err != nil || string(value) != "1" {
		t.Fatalf("expected read-through value 1, got %q (%v)", value, err)
	}

	_ = buffer.Write([]byte("a"), []byte("2"))
	value, _ = buffer.Read([]byte("a"))
	if string(value) != "2" {
		t.Errorf("pending write must shadow base, got %q", value)
	}
	// Base untouched until commit.
	value, _ = base.Read([]byte("a"))
	if string(value) != "1" {
		t.Errorf("base mutated before commit: %q", value)
	}

	_ = buffer.Remove([]byte("a"))
	value, _ = buffer.Read([]byte("a"))
	if value != nil {
		t.Errorf("pending delete must hide the key, got %q", value)
	}
}

func TestBufferCommitAndDiscard(t *testing.T) {
	base := NewMemStore()
	buffer := NewBuffer(base)
	_ = buffer.Write([]byte("k"), []byte("v"))
	buffer.Discard()
	if err := buffer.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if value, _ := base.Read([]byte("k")); value != nil {
		t.Error("discarded write reached the base")
	}

	_ = buffer.Write([]byte("k"), []byte("v"))
	if err := buffer.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if value, _ := base.Read([]byte("k")); string(value) != "v" {
		t.Errorf("committed write missing, got %q", value)
	}
}

func TestBufferNestedScopes(t *testing.T) {
	base := NewMemStore()
	outer := NewBuffer(base)
	_ = outer.Write([]byte("outer"), []byte("1"))

	inner := NewBuffer(outer)
	_ = inner.Write([]byte("inner"), []byte("2"))

	// Inner sees through to outer's pending writes.
	if value, _ := inner.Read([]byte("outer")); string(value) != "1" {
		t.Errorf("inner cannot see outer writes: %q", value)
	}

	inner.Discard()
	if err := outer.Commit(); err != nil {
		t.Fatalf("outer commit failed: %v", err)
	}
	if value, _ := base.Read([]byte("inner")); value != nil {
		t.Error("discarded inner write survived")
	}
	if value, _ := base.Read([]byte("outer")); string(value) != "1" {
		t.Error("outer write lost")
	}
}

func TestBufferMergedScan(t *testing.T) {
	base := NewMemStore()
	_ = base.Write([]byte("a"), []byte("base"))
	_ = base.Write([]byte("c"), []byte("base"))
	_ = base.Write([]byte("e"), []byte("base"))

	buffer := NewBuffer(base)
	_ = buffer.Write([]byte("b"), []byte("pending"))
	_ = buffer.Write([]byte("c"), []byte("pending")) // shadows base
	_ = buffer.Remove([]byte("e"))                   // hides base

	it, err := buffer.Scan(nil, nil, types.Ascending)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	records := collect(t, it)
	expected := []struct{ key, value string }{
		{"a", "base"}, {"b", "pending"}, {"c", "pending"},
	}
	if len(records) != len(expected) {
		t.Fatalf("expected %d records, got %d", len(expected), len(records))
	}
	for i, want := range expected {
		if string(records[i].Key) != want.key || string(records[i].Value) != want.value {
			t.Errorf("record %d: got (%s, %s), want (%s, %s)",
				i, records[i].Key, records[i].Value, want.key, want.value)
		}
	}

	// Descending order reverses the merge.
	it, _ = buffer.Scan(nil, nil, types.Descending)
	records = collect(t, it)
	if len(records) != 3 || string(records[0].Key) != "c" || string(records[2].Key) != "a" {
		t.Errorf("descending scan wrong: %v", records)
	}
}

func TestScanEmptyRange(t *testing.T) {
	base := NewMemStore()
	_ = base.Write([]byte("m"), []byte("1"))
	buffer := NewBuffer(base)

	// min > max yields nothing rather than failing.
	it, err := buffer.Scan([]byte("z"), []byte("a"), types.Ascending)
	if err != nil {
		t.Fatalf("degenerate scan must not fail: %v", err)
	}
	if records := collect(t, it); len(records) != 0 {
		t.Errorf("expected empty iterator, got %d records", len(records))
	}

	// min == max is empty too (inclusive-exclusive).
	it, _ = buffer.Scan([]byte("m"), []byte("m"), types.Ascending)
	if records := collect(t, it); len(records) != 0 {
		t.Errorf("expected empty iterator for min == max")
	}
}

func TestBufferRemoveRange(t *testing.T) {
	base := NewMemStore()
	_ = base.Write([]byte("a1"), []byte("x"))
	_ = base.Write([]byte("a2"), []byte("x"))
	_ = base.Write([]byte("b1"), []byte("x"))

	buffer := NewBuffer(base)
	_ = buffer.Write([]byte("a3"), []byte("x"))
	if err := buffer.RemoveRange([]byte("a"), []byte("b")); err != nil {
		t.Fatalf("remove range failed: %v", err)
	}

	it, _ := buffer.Scan(nil, nil, types.Ascending)
	records := collect(t, it)
	if len(records) != 1 || !bytes.Equal(records[0].Key, []byte("b1")) {
		t.Errorf("expected only b1 to survive, got %v", records)
	}
}

func TestIncrementLastByte(t *testing.T) {
	if got := IncrementLastByte([]byte{0x01, 0x02}); !bytes.Equal(got, []byte{0x01, 0x03}) {
		t.Errorf("unexpected increment: %v", got)
	}
	if got := IncrementLastByte([]byte{0x01, 0xff}); !bytes.Equal(got, []byte{0x02}) {
		t.Errorf("trailing 0xff must be dropped: %v", got)
	}
	if got := IncrementLastByte([]byte{0xff, 0xff}); got != nil {
		t.Errorf("all-0xff prefix has no bound, got %v", got)
	}
}
