// Copyright 2025 Grug Framework

package contracts

import (
	"github.com/grugnet/grug/pkg/types"
	"github.com/grugnet/grug/pkg/vm"
)

// Codes maps contract names to their on-chain code bytes and hashes after
// registration.
type Codes struct {
	Account types.Hash
	Bank    types.Hash
	Taxman  types.Hash
	Tester  types.Hash
}

// CodeBytes returns the code bytes for a native contract name, the same
// bytes Upload stores on chain.
func CodeBytes(name string) []byte {
	return vm.CodeFor(name)
}

// RegisterAll registers the built-in contracts with the native VM and
// returns their code hashes.
func RegisterAll(machine *vm.NativeVM) Codes {
	return Codes{
		Account: machine.Register(vm.CodeFor("account"), NewAccount()),
		Bank:    machine.Register(vm.CodeFor("bank"), NewBank()),
		Taxman:  machine.Register(vm.CodeFor("taxman"), NewTaxman()),
		Tester:  machine.Register(vm.CodeFor("tester"), NewTester()),
	}
}
