// Copyright 2025 Grug Framework
//
// Shared plumbing for the built-in native contracts: typed entry-point
// wrappers that serialize the GenericResult envelope, and small JSON
// storage helpers.

package contracts

import (
	"encoding/json"
	"errors"

	"github.com/grugnet/grug/pkg/types"
	"github.com/grugnet/grug/pkg/vm"
)

// Handler1 is a typed one-input entry point returning a Response.
type Handler1 func(deps *vm.Deps, ctx types.Context, msg []byte) (types.Response, error)

// Handler2 is a typed two-input entry point returning a Response.
type Handler2 func(deps *vm.Deps, ctx types.Context, msg1, msg2 []byte) (types.Response, error)

// QueryHandler is a query entry point returning an arbitrary JSON value.
type QueryHandler func(deps *vm.Deps, ctx types.Context, msg []byte) (types.Json, error)

// hostError reports whether an error must propagate to the host rather
// than be folded into the contract's Err result. Gas exhaustion is not
// catchable, and immutable-state violations are host faults.
func hostError(err error) bool {
	return types.IsOutOfGas(err) || errors.Is(err, types.ErrImmutableState)
}

func wrap1(handler Handler1) vm.Fn1 {
	return func(deps *vm.Deps, ctx types.Context, msg []byte) ([]byte, error) {
		resp, err := handler(deps, ctx, msg)
		if err != nil {
			if hostError(err) {
				return nil, err
			}
			return types.MarshalResult(types.Err[types.Response](err)), nil
		}
		return types.MarshalResult(types.Ok(resp)), nil
	}
}

func wrap2(handler Handler2) vm.Fn2 {
	return func(deps *vm.Deps, ctx types.Context, msg1, msg2 []byte) ([]byte, error) {
		resp, err := handler(deps, ctx, msg1, msg2)
		if err != nil {
			if hostError(err) {
				return nil, err
			}
			return types.MarshalResult(types.Err[types.Response](err)), nil
		}
		return types.MarshalResult(types.Ok(resp)), nil
	}
}

func wrapQuery(handler QueryHandler) vm.Fn1 {
	return func(deps *vm.Deps, ctx types.Context, msg []byte) ([]byte, error) {
		out, err := handler(deps, ctx, msg)
		if err != nil {
			if hostError(err) {
				return nil, err
			}
			return types.MarshalResult(types.Err[types.Json](err)), nil
		}
		return types.MarshalResult(types.Ok(out)), nil
	}
}

// loadJSON reads and decodes a JSON value from contract storage. ok is
// false when the key is absent.
func loadJSON(deps *vm.Deps, key []byte, target any) (bool, error) {
	raw, err := deps.Storage.Read(key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return false, types.SerdeError{What: string(key), Inner: err}
	}
	return true, nil
}

// saveJSON encodes and writes a JSON value into contract storage.
func saveJSON(deps *vm.Deps, key []byte, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return deps.Storage.Write(key, raw)
}

// chainConfig queries the chain for its config via the querier.
func chainConfig(deps *vm.Deps) (types.Config, error) {
	resp, err := deps.Querier.QueryChain(types.Query{Info: &types.QueryInfo{}})
	if err != nil {
		return types.Config{}, err
	}
	if resp.Info == nil {
		return types.Config{}, errors.New("malformed info response")
	}
	return resp.Info.Config, nil
}
