// Copyright 2025 Grug Framework
//
// Gas tracking. One tracker is shared by every invocation a transaction
// triggers, so the limit covers the whole call tree.

package gas

import (
	"fmt"

	"github.com/grugnet/grug/pkg/types"
)

// Tracker counts gas consumption and errors once the optional limit is
// exceeded. The execution path is single-threaded, so no locking is needed;
// share the tracker by pointer.
type Tracker struct {
	// limit is nil for unlimited mode, used for cronjobs, genesis, and
	// queries initiated by the chain itself.
	limit *uint64
	used  uint64
}

// NewLimited creates a tracker with the given gas limit.
func NewLimited(limit uint64) *Tracker {
	return &Tracker{limit: &limit}
}

// NewLimitless creates a tracker without a limit.
func NewLimitless() *Tracker {
	return &Tracker{}
}

// Limit returns the gas limit, or nil if there isn't one.
func (t *Tracker) Limit() *uint64 {
	return t.limit
}

// Used returns the amount of gas consumed so far.
func (t *Tracker) Used() uint64 {
	return t.used
}

// Remaining returns the gas left, or nil in unlimited mode.
func (t *Tracker) Remaining() *uint64 {
	if t.limit == nil {
		return nil
	}
	rem := *t.limit - t.used
	return &rem
}

// Consume adds the given amount, failing with OutOfGas if the new total
// would exceed the limit. The label names what the gas paid for.
func (t *Tracker) Consume(amount uint64, label string) error {
	used := t.used + amount
	if used < t.used {
		// u64 overflow counts as out of gas rather than wrapping.
		return types.OutOfGasError{Limit: t.limitOrMax(), Used: t.used, Label: label}
	}
	if t.limit != nil && used > *t.limit {
		return types.OutOfGasError{Limit: *t.limit, Used: used, Label: label}
	}
	t.used = used
	return nil
}

func (t *Tracker) limitOrMax() uint64 {
	if t.limit != nil {
		return *t.limit
	}
	return ^uint64(0)
}

func (t *Tracker) String() string {
	if t.limit == nil {
		return fmt.Sprintf("Tracker{limit: none, used: %d}", t.used)
	}
	return fmt.Sprintf("Tracker{limit: %d, used: %d}", *t.limit, t.used)
}
