// Copyright 2025 Grug Framework

package gas

import (
	"testing"

	"github.com/grugnet/grug/pkg/types"
)

func TestLimitedTracker(t *testing.T) {
	tracker := NewLimited(100)
	if err := tracker.Consume(60, "step one"); err != nil {
		t.Fatalf("consume within limit failed: %v", err)
	}
	if err := tracker.Consume(40, "step two"); err != nil {
		t.Fatalf("consume up to limit failed: %v", err)
	}
	if tracker.Used() != 100 {
		t.Errorf("expected 100 used, got %d", tracker.Used())
	}
	if rem := tracker.Remaining(); rem == nil || *rem != 0 {
		t.Errorf("expected 0 remaining, got %v", rem)
	}

	err := tracker.Consume(1, "over")
	if err == nil {
		t.Fatal("expected out of gas")
	}
	if !types.IsOutOfGas(err) {
		t.Errorf("expected OutOfGasError, got %T", err)
	}
	// A failed consume does not advance the counter.
	if tracker.Used() != 100 {
		t.Errorf("used advanced on failure: %d", tracker.Used())
	}
}

func TestOutOfGasDetails(t *testing.T) {
	tracker := NewLimited(50)
	err := tracker.Consume(51, "db_write")
	oog, ok := err.(types.OutOfGasError)
	if !ok {
		t.Fatalf("expected OutOfGasError, got %T", err)
	}
	if oog.Limit != 50 || oog.Used != 51 || oog.Label != "db_write" {
		t.Errorf("unexpected error details: %+v", oog)
	}
}

func TestLimitlessTracker(t *testing.T) {
	tracker := NewLimitless()
	if err := tracker.Consume(1<<40, "huge"); err != nil {
		t.Fatalf("limitless tracker must not fail: %v", err)
	}
	if tracker.Limit() != nil {
		t.Error("limit must be nil")
	}
	if tracker.Remaining() != nil {
		t.Error("remaining must be nil")
	}
	if tracker.Used() != 1<<40 {
		t.Errorf("expected used to accumulate, got %d", tracker.Used())
	}
}
