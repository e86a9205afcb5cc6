// Copyright 2025 Grug Framework
//
// Handlers for the contract lifecycle messages: Instantiate, Execute, and
// Migrate.

package app

import (
	"fmt"

	"github.com/grugnet/grug/pkg/types"
)

// doInstantiate registers a new account at the derived address, transfers
// any attached funds, and calls the contract's instantiate entry point.
func (a *App) doInstantiate(ctx execCtx, sender types.Addr, msg types.MsgInstantiate) (types.Event, error) {
	contract := types.DeriveAddr(sender, msg.CodeHash, msg.Salt)
	evt := evtInstantiate(sender, contract, msg.CodeHash)

	if !ctx.genesis {
		cfg, err := loadConfig(ctx.storage)
		if err != nil {
			return evt, err
		}
		if !cfg.Permissions.Instantiate.Allows(sender) {
			return evt, fmt.Errorf("%w: sender may not instantiate contracts", types.ErrUnauthorized)
		}
	}

	exists, err := accountExists(ctx.storage, contract)
	if err != nil {
		return evt, err
	}
	if exists {
		return evt, types.AlreadyExistsError{Kind: "account", Key: contract.String()}
	}
	// No account may reference a code entry that doesn't exist.
	haveCode, err := codeExists(ctx.storage, msg.CodeHash)
	if err != nil {
		return evt, err
	}
	if !haveCode {
		return evt, types.NotFoundError{Kind: "code", Key: msg.CodeHash.String()}
	}

	if err := saveAccount(ctx.storage, contract, types.Account{
		CodeHash: msg.CodeHash,
		Admin:    msg.Admin,
	}); err != nil {
		return evt, err
	}

	if !msg.Funds.IsEmpty() {
		// The funds context is delivered through instantiate itself, so the
		// transfer skips the receive hook.
		transferEvt, err := a.doTransfer(ctx, sender, types.MsgTransfer{
			To:    contract,
			Coins: msg.Funds,
		}, false)
		if err != nil {
			return evt, err
		}
		evt = evt.AddChildren(transferEvt)
	}

	callCtx := types.Context{
		ChainID:  a.chainID,
		Block:    ctx.block,
		Contract: contract,
		Sender:   &sender,
		Funds:    &msg.Funds,
	}
	events, err := ctx.callAndHandle(contract, msg.CodeHash, "instantiate", callCtx, msg.Msg)
	if err != nil {
		return evt, err
	}
	return evt.AddChildren(events...), nil
}

// doExecute transfers any attached funds to the contract, then calls its
// execute entry point with the sender and funds in context.
func (a *App) doExecute(ctx execCtx, sender types.Addr, msg types.MsgExecute) (types.Event, error) {
	evt := evtExecute(sender, msg.Contract, msg.Funds)

	acct, err := loadAccount(ctx.storage, msg.Contract)
	if err != nil {
		return evt, err
	}

	if !msg.Funds.IsEmpty() {
		transferEvt, err := a.doTransfer(ctx, sender, types.MsgTransfer{
			To:    msg.Contract,
			Coins: msg.Funds,
		}, false)
		if err != nil {
			return evt, err
		}
		evt = evt.AddChildren(transferEvt)
	}

	callCtx := types.Context{
		ChainID:  a.chainID,
		Block:    ctx.block,
		Contract: msg.Contract,
		Sender:   &sender,
		Funds:    &msg.Funds,
	}
	events, err := ctx.callAndHandle(msg.Contract, acct.CodeHash, "execute", callCtx, msg.Msg)
	if err != nil {
		return evt, err
	}
	return evt.AddChildren(events...), nil
}

// doMigrate updates the contract's code hash. Only the admin may call; the
// migrate entry point of the new code runs afterwards.
func (a *App) doMigrate(ctx execCtx, sender types.Addr, msg types.MsgMigrate) (types.Event, error) {
	evt := evtMigrate(sender, msg.Contract, msg.NewCodeHash)

	acct, err := loadAccount(ctx.storage, msg.Contract)
	if err != nil {
		return evt, err
	}
	if acct.Admin == nil || *acct.Admin != sender {
		return evt, fmt.Errorf("%w: sender is not the contract admin", types.ErrUnauthorized)
	}
	haveCode, err := codeExists(ctx.storage, msg.NewCodeHash)
	if err != nil {
		return evt, err
	}
	if !haveCode {
		return evt, types.NotFoundError{Kind: "code", Key: msg.NewCodeHash.String()}
	}

	acct.CodeHash = msg.NewCodeHash
	if err := saveAccount(ctx.storage, msg.Contract, acct); err != nil {
		return evt, err
	}

	callCtx := types.Context{
		ChainID:  a.chainID,
		Block:    ctx.block,
		Contract: msg.Contract,
		Sender:   &sender,
	}
	events, err := ctx.callAndHandle(msg.Contract, msg.NewCodeHash, "migrate", callCtx, msg.Msg)
	if err != nil {
		return evt, err
	}
	return evt.AddChildren(events...), nil
}
