// Copyright 2025 Grug Framework

package vm

import (
	"errors"
	"testing"

	"github.com/grugnet/grug/pkg/gas"
	"github.com/grugnet/grug/pkg/store"
	"github.com/grugnet/grug/pkg/types"
)

type nullQuerier struct{}

func (nullQuerier) QueryChain(types.Query) (types.QueryResponse, error) {
	return types.QueryResponse{}, errors.New("no chain attached")
}

func echoContract() *NativeContract {
	return &NativeContract{
		Name: "echo",
		Execute: func(_ *Deps, _ types.Context, msg []byte) ([]byte, error) {
			return msg, nil
		},
	}
}

func buildEcho(t *testing.T, machine *NativeVM, code []byte, codeHash types.Hash, tracker *gas.Tracker) Instance {
	t.Helper()
	provider := NewStorageProvider(store.NewMemStore(), types.MockAddr(1), false, tracker)
	instance, err := machine.BuildInstance(code, codeHash, provider, nullQuerier{}, tracker)
	if err != nil {
		t.Fatalf("build instance failed: %v", err)
	}
	return instance
}

func TestNativeVMDispatch(t *testing.T) {
	machine := NewNativeVM(1<<20, nil)
	code := CodeFor("echo")
	codeHash := machine.Register(code, echoContract())

	instance := buildEcho(t, machine, code, codeHash, gas.NewLimitless())
	out, err := instance.CallInOut1(EntryExecute, types.Context{}, []byte(`{"hello":1}`))
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if string(out) != `{"hello":1}` {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestNativeVMUnknownCodeHash(t *testing.T) {
	machine := NewNativeVM(1<<20, nil)
	tracker := gas.NewLimitless()
	provider := NewStorageProvider(store.NewMemStore(), types.MockAddr(1), false, tracker)

	_, err := machine.BuildInstance([]byte("mystery"), types.HashOf([]byte("mystery")), provider, nullQuerier{}, tracker)
	var vmErr types.VmError
	if !errors.As(err, &vmErr) {
		t.Errorf("expected VmError, got %v", err)
	}
}

func TestNativeVMUnexportedEntryPoint(t *testing.T) {
	machine := NewNativeVM(1<<20, nil)
	code := CodeFor("echo")
	codeHash := machine.Register(code, echoContract())

	instance := buildEcho(t, machine, code, codeHash, gas.NewLimitless())
	if _, err := instance.CallInOut1(EntryMigrate, types.Context{}, nil); err == nil {
		t.Error("calling an unexported entry point must fail")
	}
	if _, err := instance.CallInOut1("teleport", types.Context{}, nil); err == nil {
		t.Error("unknown entry point must fail")
	}
}

func TestNativeVMCallChargesGas(t *testing.T) {
	machine := NewNativeVM(1<<20, nil)
	code := CodeFor("echo")
	codeHash := machine.Register(code, echoContract())

	tracker := gas.NewLimited(GasCallFlat - 1)
	instance := buildEcho(t, machine, code, codeHash, tracker)
	if _, err := instance.CallInOut1(EntryExecute, types.Context{}, nil); !types.IsOutOfGas(err) {
		t.Errorf("expected out of gas, got %v", err)
	}
}

func TestNativeVMCachesModules(t *testing.T) {
	machine := NewNativeVM(1<<20, nil)
	code := CodeFor("echo")
	codeHash := machine.Register(code, echoContract())

	tracker := gas.NewLimitless()
	buildEcho(t, machine, code, codeHash, tracker)
	buildEcho(t, machine, code, codeHash, tracker)
	if machine.cache.Len() != 1 {
		t.Errorf("expected 1 cached module, got %d", machine.cache.Len())
	}
}
