// Copyright 2025 Grug Framework
//
// The native VM backend: contract modules are Go implementations compiled
// into the node binary and registered under the hash of their code bytes.
// This is the backend used by the built-in contracts and by tests; a
// sandboxed Wasm backend plugs into the same VM interface.

package vm

import (
	"fmt"
	"log"

	"github.com/grugnet/grug/pkg/gas"
	"github.com/grugnet/grug/pkg/types"
)

// Deps is the host environment handed to a native contract: its scoped
// storage, the metered host API, the chain querier, and the gas tracker.
type Deps struct {
	Storage *StorageProvider
	API     *HostAPI
	Querier Querier
	Gas     *gas.Tracker
}

// Fn1 is a one-input entry point. Input and output are serialized values;
// the output is a GenericResult envelope.
type Fn1 func(deps *Deps, ctx types.Context, msg []byte) ([]byte, error)

// Fn2 is a two-input entry point (reply, finalize_fee).
type Fn2 func(deps *Deps, ctx types.Context, msg1, msg2 []byte) ([]byte, error)

// NativeContract is the set of entry points a native module exports. Nil
// fields are unexported; calling one is a VmError.
type NativeContract struct {
	Name string

	Instantiate  Fn1
	Execute      Fn1
	Migrate      Fn1
	Receive      Fn1
	Query        Fn1
	Authenticate Fn1
	Backrun      Fn1
	WithholdFee  Fn1
	BankExecute  Fn1
	BankQuery    Fn1
	CronExecute  Fn1

	Reply       Fn2
	FinalizeFee Fn2
}

// NativeVM dispatches entry-point calls to registered Go contracts.
type NativeVM struct {
	registry map[types.Hash]*NativeContract
	cache    *ModuleCache
	logger   *log.Logger
}

// NewNativeVM builds a native VM with the given module cache capacity in
// bytes.
func NewNativeVM(cacheCapacityBytes int, logger *log.Logger) *NativeVM {
	if logger == nil {
		logger = log.New(log.Writer(), "[NativeVM] ", log.LstdFlags)
	}
	return &NativeVM{
		registry: make(map[types.Hash]*NativeContract),
		cache:    NewModuleCache(cacheCapacityBytes),
		logger:   logger,
	}
}

// Register adds a contract under the hash of its code bytes and returns
// that hash. The code bytes are what gets stored on chain by Upload; for
// native contracts they are a short identifier, conventionally
// "native/<name>".
func (vm *NativeVM) Register(code []byte, contract *NativeContract) types.Hash {
	codeHash := types.HashOf(code)
	vm.registry[codeHash] = contract
	return codeHash
}

// CodeFor returns the conventional code bytes for a native contract name.
func CodeFor(name string) []byte {
	return []byte("native/" + name)
}

func (vm *NativeVM) BuildInstance(code []byte, codeHash types.Hash, storage *StorageProvider, querier Querier, gasTracker *gas.Tracker) (Instance, error) {
	var contract *NativeContract
	if cached, ok := vm.cache.Get(codeHash); ok {
		contract = cached.(*NativeContract)
	} else {
		// "Compilation" for the native backend is a registry lookup keyed by
		// the hash of the stored code bytes.
		registered, ok := vm.registry[codeHash]
		if !ok {
			return nil, types.VmError{Inner: fmt.Errorf("no native module registered for code hash %s", codeHash)}
		}
		contract = registered
		vm.cache.Put(codeHash, contract, len(code))
	}

	return &nativeInstance{
		contract: contract,
		deps: &Deps{
			Storage: storage,
			API:     NewHostAPI(gasTracker, vm.logger),
			Querier: querier,
			Gas:     gasTracker,
		},
	}, nil
}

type nativeInstance struct {
	contract *NativeContract
	deps     *Deps
}

func (i *nativeInstance) CallInOut1(name string, ctx types.Context, input []byte) ([]byte, error) {
	if err := i.deps.Gas.Consume(GasCallFlat, name); err != nil {
		return nil, err
	}
	var fn Fn1
	switch name {
	case EntryInstantiate:
		fn = i.contract.Instantiate
	case EntryExecute:
		fn = i.contract.Execute
	case EntryMigrate:
		fn = i.contract.Migrate
	case EntryReceive:
		fn = i.contract.Receive
	case EntryQuery:
		fn = i.contract.Query
	case EntryAuthenticate:
		fn = i.contract.Authenticate
	case EntryBackrun:
		fn = i.contract.Backrun
	case EntryWithholdFee:
		fn = i.contract.WithholdFee
	case EntryBankExecute:
		fn = i.contract.BankExecute
	case EntryBankQuery:
		fn = i.contract.BankQuery
	case EntryCronExecute:
		fn = i.contract.CronExecute
	default:
		return nil, types.VmError{Inner: fmt.Errorf("unknown entry point %q", name)}
	}
	if fn == nil {
		return nil, types.VmError{Inner: fmt.Errorf("contract %s does not export %q", i.contract.Name, name)}
	}
	return fn(i.deps, ctx, input)
}

func (i *nativeInstance) CallInOut2(name string, ctx types.Context, input1, input2 []byte) ([]byte, error) {
	if err := i.deps.Gas.Consume(GasCallFlat, name); err != nil {
		return nil, err
	}
	var fn Fn2
	switch name {
	case EntryReply:
		fn = i.contract.Reply
	case EntryFinalizeFee:
		fn = i.contract.FinalizeFee
	default:
		return nil, types.VmError{Inner: fmt.Errorf("unknown entry point %q", name)}
	}
	if fn == nil {
		return nil, types.VmError{Inner: fmt.Errorf("contract %s does not export %q", i.contract.Name, name)}
	}
	return fn(i.deps, ctx, input1, input2)
}
