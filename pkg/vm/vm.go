// Copyright 2025 Grug Framework
//
// The VM abstraction. The contract is deliberately small (build an
// instance, call an entry point by name) so mock and production backends
// are interchangeable under tests. Everything crossing the boundary is raw
// bytes; typed (de)serialization stays on the host side.

package vm

import (
	"github.com/grugnet/grug/pkg/gas"
	"github.com/grugnet/grug/pkg/types"
)

// Querier is the chain-query capability handed to an instance. It is
// implemented by the app's querier provider, which recurses into the
// execution engine with a bounded depth.
type Querier interface {
	QueryChain(req types.Query) (types.QueryResponse, error)
}

// VM builds callable instances out of stored code.
type VM interface {
	// BuildInstance loads (or retrieves from cache) the module identified by
	// codeHash and binds it to a fresh host environment. No state is ever
	// shared between instances.
	BuildInstance(code []byte, codeHash types.Hash, storage *StorageProvider, querier Querier, gasTracker *gas.Tracker) (Instance, error)
}

// Instance is one sandboxed, single-use invocation target.
type Instance interface {
	// CallInOut1 invokes a one-input entry point (instantiate, execute,
	// query, authenticate, ...). The input and output are serialized values.
	CallInOut1(name string, ctx types.Context, input []byte) ([]byte, error)

	// CallInOut2 invokes a two-input entry point (reply, finalize_fee).
	CallInOut2(name string, ctx types.Context, input1, input2 []byte) ([]byte, error)
}

// Entry point names. A module exports a subset of these; calling an
// unexported entry point is a VmError.
const (
	EntryInstantiate  = "instantiate"
	EntryExecute      = "execute"
	EntryMigrate      = "migrate"
	EntryReceive      = "receive"
	EntryReply        = "reply"
	EntryQuery        = "query"
	EntryAuthenticate = "authenticate"
	EntryBackrun      = "backrun"
	EntryWithholdFee  = "withhold_fee"
	EntryFinalizeFee  = "finalize_fee"
	EntryBankExecute  = "bank_execute"
	EntryBankQuery    = "bank_query"
	EntryCronExecute  = "cron_execute"
)
