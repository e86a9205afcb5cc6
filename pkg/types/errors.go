// Copyright 2025 Grug Framework
//
// Error taxonomy of the execution core. Sentinel errors are matched with
// errors.Is; structured errors carry the details the outcome needs.

package types

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrUnauthorized is returned on a permission failure: wrong owner,
	// wrong admin, or a sender not on a permission list.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrExceedMaxMessageDepth is returned when submessage recursion passes
	// the fixed bound. It is handled like any other message error: it fails
	// the enclosing message, a reply_on error/always policy can catch it,
	// and the block keeps executing; it does not halt the node.
	ErrExceedMaxMessageDepth = errors.New("exceed max message depth")

	// ErrExceedMaxQueryDepth is returned when query recursion passes the
	// configured bound.
	ErrExceedMaxQueryDepth = errors.New("exceed max query depth")

	// ErrImmutableState is returned on a write attempted while holding an
	// immutable context, e.g. from a query entry point.
	ErrImmutableState = errors.New("state is immutable in this context")

	// ErrIteratorInvalidated is returned when an iterator is advanced after
	// a mutation on the same namespace.
	ErrIteratorInvalidated = errors.New("iterator invalidated by a write")

	// ErrCommitment is returned when the state store fails to apply a batch.
	ErrCommitment = errors.New("commitment error")

	ErrInvalidAddr = errors.New("invalid address")
	ErrInvalidHash = errors.New("invalid hash")
	ErrInvalidCoin = errors.New("invalid coin")
)

// NotFoundError reports a missing account, code, or storage entry.
type NotFoundError struct {
	Kind string
	Key  string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// IsNotFound reports whether err is a NotFoundError of any kind.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}

// AlreadyExistsError reports an account address or code hash collision.
type AlreadyExistsError struct {
	Kind string
	Key  string
}

func (e AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Kind, e.Key)
}

// OutOfGasError is raised by the gas tracker when a consume call would
// exceed the limit. It aborts the current invocation.
type OutOfGasError struct {
	Limit uint64
	Used  uint64
	Label string
}

func (e OutOfGasError) Error() string {
	return fmt.Sprintf("out of gas: limit %d, used %d, while %s", e.Limit, e.Used, e.Label)
}

// IsOutOfGas reports whether err is an OutOfGasError.
func IsOutOfGas(err error) bool {
	var oog OutOfGasError
	return errors.As(err, &oog)
}

// VmError wraps a failure inside the virtual machine: module loading,
// instantiation, a trap, a memory access fault, or a malformed return shape.
type VmError struct {
	Inner error
}

func (e VmError) Error() string {
	return fmt.Sprintf("vm error: %v", e.Inner)
}

func (e VmError) Unwrap() error {
	return e.Inner
}

// SerdeError reports malformed JSON at the host/guest boundary.
type SerdeError struct {
	What  string
	Inner error
}

func (e SerdeError) Error() string {
	return fmt.Sprintf("failed to deserialize %s: %v", e.What, e.Inner)
}

func (e SerdeError) Unwrap() error {
	return e.Inner
}
