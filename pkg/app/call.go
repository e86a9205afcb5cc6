// Copyright 2025 Grug Framework
//
// The execution context threaded through block processing, and the helpers
// that build VM instances and invoke entry points.

package app

import (
	"encoding/json"

	"github.com/grugnet/grug/pkg/gas"
	"github.com/grugnet/grug/pkg/store"
	"github.com/grugnet/grug/pkg/types"
	"github.com/grugnet/grug/pkg/vm"
)

// Bounds on nested work. Exceeding the message depth is unrecoverable for
// the current chain; exceeding the query depth fails only the query.
const (
	MaxMessageDepth = 30
	MaxQueryDepth   = 3
)

// execCtx carries everything one frame of execution needs. Copy it and swap
// fields to descend into a nested scope; the storage field points at the
// frame's copy-on-write buffer.
type execCtx struct {
	app        *App
	storage    store.Storage
	block      types.BlockInfo
	gasTracker *gas.Tracker
	msgDepth   int
	queryDepth int
	// genesis relaxes permission checks while replaying genesis messages.
	genesis bool
}

func (ctx execCtx) withStorage(storage store.Storage) execCtx {
	ctx.storage = storage
	return ctx
}

func (ctx execCtx) deeper() execCtx {
	ctx.msgDepth++
	return ctx
}

// buildInstance loads the contract's code and binds a fresh instance to the
// frame's storage. readonly selects the immutable host environment used by
// queries.
func (ctx execCtx) buildInstance(contract types.Addr, codeHash types.Hash, readonly bool) (vm.Instance, error) {
	code, err := loadCode(ctx.storage, codeHash)
	if err != nil {
		return nil, err
	}
	provider := vm.NewStorageProvider(ctx.storage, contract, readonly, ctx.gasTracker)
	querier := newQuerierProvider(ctx)
	return ctx.app.vm.BuildInstance(code, codeHash, provider, querier, ctx.gasTracker)
}

// callInOut1 invokes a one-input entry point and decodes the Response
// envelope.
func (ctx execCtx) callInOut1(contract types.Addr, codeHash types.Hash, name string, callCtx types.Context, input any) (types.Response, error) {
	instance, err := ctx.buildInstance(contract, codeHash, false)
	if err != nil {
		return types.Response{}, err
	}
	raw, err := json.Marshal(input)
	if err != nil {
		return types.Response{}, err
	}
	out, err := instance.CallInOut1(name, callCtx, raw)
	if err != nil {
		return types.Response{}, err
	}
	result, err := types.UnmarshalResult[types.Response](out)
	if err != nil {
		return types.Response{}, err
	}
	return result.Unwrap()
}

// callInOut2 invokes a two-input entry point and decodes the Response
// envelope.
func (ctx execCtx) callInOut2(contract types.Addr, codeHash types.Hash, name string, callCtx types.Context, input1, input2 any) (types.Response, error) {
	instance, err := ctx.buildInstance(contract, codeHash, false)
	if err != nil {
		return types.Response{}, err
	}
	raw1, err := json.Marshal(input1)
	if err != nil {
		return types.Response{}, err
	}
	raw2, err := json.Marshal(input2)
	if err != nil {
		return types.Response{}, err
	}
	out, err := instance.CallInOut2(name, callCtx, raw1, raw2)
	if err != nil {
		return types.Response{}, err
	}
	result, err := types.UnmarshalResult[types.Response](out)
	if err != nil {
		return types.Response{}, err
	}
	return result.Unwrap()
}

// handleResponse turns a contract response into the guest event plus the
// events of its submessages, processed depth-first.
func (ctx execCtx) handleResponse(contract types.Addr, entry string, resp types.Response) ([]types.Event, error) {
	events := []types.Event{evtGuest(contract, entry, resp.Attributes)}
	if len(resp.SubMsgs) > 0 {
		subEvents, err := ctx.app.handleSubmessages(ctx, contract, resp.SubMsgs)
		if err != nil {
			return nil, err
		}
		events = append(events, subEvents...)
	}
	return events, nil
}

// callAndHandle is the common path: invoke a one-input entry point, then
// process its submessages.
func (ctx execCtx) callAndHandle(contract types.Addr, codeHash types.Hash, name string, callCtx types.Context, input any) ([]types.Event, error) {
	resp, err := ctx.callInOut1(contract, codeHash, name, callCtx, input)
	if err != nil {
		return nil, err
	}
	return ctx.handleResponse(contract, name, resp)
}
