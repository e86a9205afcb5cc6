// Copyright 2025 Grug Framework
//
// Query processing and the querier provider handed to contracts. Queries
// run on an immutable view of the state, with their own gas tracker derived
// from the caller's remaining budget, and bounded recursion depth.

package app

import (
	"encoding/json"
	"fmt"

	"github.com/grugnet/grug/pkg/gas"
	"github.com/grugnet/grug/pkg/store"
	"github.com/grugnet/grug/pkg/types"
	"github.com/grugnet/grug/pkg/vm"
)

// processQuery answers one typed chain query on the frame's storage.
func (a *App) processQuery(ctx execCtx, req types.Query) (types.QueryResponse, error) {
	if ctx.queryDepth > MaxQueryDepth {
		return types.QueryResponse{}, types.ErrExceedMaxQueryDepth
	}

	switch {
	case req.Info != nil:
		return a.queryInfo(ctx)
	case req.AppConfig != nil:
		raw, err := ctx.storage.Read(appConfigKey(req.AppConfig.Key))
		if err != nil {
			return types.QueryResponse{}, err
		}
		if raw == nil {
			return types.QueryResponse{}, types.NotFoundError{Kind: "app config", Key: req.AppConfig.Key}
		}
		return types.QueryResponse{AppConfig: raw}, nil
	case req.Code != nil:
		code, err := loadCode(ctx.storage, req.Code.Hash)
		if err != nil {
			return types.QueryResponse{}, err
		}
		return types.QueryResponse{Code: code}, nil
	case req.Account != nil:
		acct, err := loadAccount(ctx.storage, req.Account.Address)
		if err != nil {
			return types.QueryResponse{}, err
		}
		return types.QueryResponse{Account: &types.AccountResponse{
			Address:  req.Account.Address,
			CodeHash: acct.CodeHash,
			Admin:    acct.Admin,
		}}, nil
	case req.WasmRaw != nil:
		key := store.Concat(store.Concat(types.AddrNamespace, req.WasmRaw.Contract.Bytes()), req.WasmRaw.Key)
		value, err := ctx.storage.Read(key)
		if err != nil {
			return types.QueryResponse{}, err
		}
		return types.QueryResponse{WasmRaw: value}, nil
	case req.WasmSmart != nil:
		out, err := a.queryWasmSmart(ctx, req.WasmSmart.Contract, req.WasmSmart.Msg)
		if err != nil {
			return types.QueryResponse{}, err
		}
		return types.QueryResponse{WasmSmart: out}, nil
	case req.Balance != nil:
		resp, err := a.queryBank(ctx, types.BankQuery{Balance: req.Balance})
		if err != nil {
			return types.QueryResponse{}, err
		}
		return types.QueryResponse{Balance: resp.Balance}, nil
	case req.Balances != nil:
		resp, err := a.queryBank(ctx, types.BankQuery{Balances: req.Balances})
		if err != nil {
			return types.QueryResponse{}, err
		}
		return types.QueryResponse{Balances: resp.Balances}, nil
	case req.Supply != nil:
		resp, err := a.queryBank(ctx, types.BankQuery{Supply: req.Supply})
		if err != nil {
			return types.QueryResponse{}, err
		}
		return types.QueryResponse{Supply: resp.Supply}, nil
	case req.Supplies != nil:
		resp, err := a.queryBank(ctx, types.BankQuery{Supplies: req.Supplies})
		if err != nil {
			return types.QueryResponse{}, err
		}
		return types.QueryResponse{Supplies: resp.Supplies}, nil
	default:
		return types.QueryResponse{}, fmt.Errorf("empty query")
	}
}

func (a *App) queryInfo(ctx execCtx) (types.QueryResponse, error) {
	chainID, err := loadChainID(ctx.storage)
	if err != nil {
		return types.QueryResponse{}, err
	}
	cfg, err := loadConfig(ctx.storage)
	if err != nil {
		return types.QueryResponse{}, err
	}
	lastBlock, err := loadLastBlock(ctx.storage)
	if err != nil {
		return types.QueryResponse{}, err
	}
	return types.QueryResponse{Info: &types.InfoResponse{
		ChainID:            chainID,
		Config:             cfg,
		LastFinalizedBlock: lastBlock,
	}}, nil
}

// queryWasmSmart invokes a contract's query entry point with an immutable
// store.
func (a *App) queryWasmSmart(ctx execCtx, contract types.Addr, msg types.Json) (types.Json, error) {
	acct, err := loadAccount(ctx.storage, contract)
	if err != nil {
		return nil, err
	}
	code, err := loadCode(ctx.storage, acct.CodeHash)
	if err != nil {
		return nil, err
	}
	provider := vm.NewStorageProvider(ctx.storage, contract, true, ctx.gasTracker)
	querier := newQuerierProvider(ctx)
	instance, err := a.vm.BuildInstance(code, acct.CodeHash, provider, querier, ctx.gasTracker)
	if err != nil {
		return nil, err
	}
	callCtx := types.Context{
		ChainID:  a.chainID,
		Block:    ctx.block,
		Contract: contract,
	}
	out, err := instance.CallInOut1("query", callCtx, msg)
	if err != nil {
		return nil, err
	}
	result, err := types.UnmarshalResult[types.Json](out)
	if err != nil {
		return nil, err
	}
	return result.Unwrap()
}

// queryBank forwards a bank query to the bank contract's bank_query entry
// point.
func (a *App) queryBank(ctx execCtx, req types.BankQuery) (types.BankQueryResponse, error) {
	cfg, err := loadConfig(ctx.storage)
	if err != nil {
		return types.BankQueryResponse{}, err
	}
	acct, err := loadAccount(ctx.storage, cfg.Bank)
	if err != nil {
		return types.BankQueryResponse{}, err
	}
	code, err := loadCode(ctx.storage, acct.CodeHash)
	if err != nil {
		return types.BankQueryResponse{}, err
	}
	provider := vm.NewStorageProvider(ctx.storage, cfg.Bank, true, ctx.gasTracker)
	querier := newQuerierProvider(ctx)
	instance, err := a.vm.BuildInstance(code, acct.CodeHash, provider, querier, ctx.gasTracker)
	if err != nil {
		return types.BankQueryResponse{}, err
	}
	callCtx := types.Context{
		ChainID:  a.chainID,
		Block:    ctx.block,
		Contract: cfg.Bank,
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return types.BankQueryResponse{}, err
	}
	out, err := instance.CallInOut1("bank_query", callCtx, raw)
	if err != nil {
		return types.BankQueryResponse{}, err
	}
	result, err := types.UnmarshalResult[types.BankQueryResponse](out)
	if err != nil {
		return types.BankQueryResponse{}, err
	}
	return result.Unwrap()
}

// querierProvider exposes the chain-query surface to one VM instance,
// recursing into processQuery with an incremented depth and a gas tracker
// derived from the caller's remaining budget.
type querierProvider struct {
	ctx execCtx
}

func newQuerierProvider(ctx execCtx) vm.Querier {
	return &querierProvider{ctx: ctx}
}

func (q *querierProvider) QueryChain(req types.Query) (types.QueryResponse, error) {
	if err := q.ctx.gasTracker.Consume(vm.GasQueryFlat, "query_chain"); err != nil {
		return types.QueryResponse{}, err
	}

	// The nested query runs on its own tracker bounded by what the caller
	// has left, so a runaway query cannot bill more than the caller's
	// budget.
	var sub *gas.Tracker
	if remaining := q.ctx.gasTracker.Remaining(); remaining != nil {
		sub = gas.NewLimited(*remaining)
	} else {
		sub = gas.NewLimitless()
	}

	subCtx := q.ctx
	subCtx.gasTracker = sub
	subCtx.queryDepth++

	resp, err := q.ctx.app.processQuery(subCtx, req)

	// Bill the caller for what the nested query actually used.
	if cerr := q.ctx.gasTracker.Consume(sub.Used(), "nested_query"); cerr != nil {
		return types.QueryResponse{}, cerr
	}
	return resp, err
}
