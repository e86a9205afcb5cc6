// Copyright 2025 Grug Framework
//
// The Transfer handler. Token bookkeeping belongs to the bank contract; the
// core invokes its bank_execute entry point, then delivers the receive
// notification to the recipient.

package app

import (
	"github.com/grugnet/grug/pkg/types"
)

// doTransfer moves coins by calling bank_execute on the bank contract, then
// invokes receive on the recipient. doReceive is false when the caller
// delivers the funds context itself (Instantiate and Execute attach the
// funds to the entry point they are about to call).
func (a *App) doTransfer(ctx execCtx, from types.Addr, msg types.MsgTransfer, doReceive bool) (types.Event, error) {
	evt := evtTransfer(from, msg.To, msg.Coins)

	cfg, err := loadConfig(ctx.storage)
	if err != nil {
		return evt, err
	}
	bankAcct, err := loadAccount(ctx.storage, cfg.Bank)
	if err != nil {
		return evt, err
	}

	// Sudo-style call: the chain is the caller, so no sender or funds.
	bankCtx := types.Context{
		ChainID:  a.chainID,
		Block:    ctx.block,
		Contract: cfg.Bank,
	}
	bankEvents, err := ctx.callAndHandle(cfg.Bank, bankAcct.CodeHash, "bank_execute", bankCtx, types.BankMsg{
		From:  from,
		To:    msg.To,
		Coins: msg.Coins,
	})
	if err != nil {
		return evt, err
	}
	evt = evt.AddChildren(bankEvents...)

	if doReceive {
		recvEvents, err := a.doReceive(ctx, from, msg.To, msg.Coins)
		if err != nil {
			return evt, err
		}
		evt = evt.AddChildren(recvEvents...)
	}
	return evt, nil
}

// doReceive notifies the recipient contract of incoming funds by calling
// its receive entry point.
func (a *App) doReceive(ctx execCtx, from, to types.Addr, coins types.Coins) ([]types.Event, error) {
	acct, err := loadAccount(ctx.storage, to)
	if err != nil {
		return nil, err
	}
	recvCtx := types.Context{
		ChainID:  a.chainID,
		Block:    ctx.block,
		Contract: to,
		Sender:   &from,
		Funds:    &coins,
	}
	events, err := ctx.callAndHandle(to, acct.CodeHash, "receive", recvCtx, struct{}{})
	if err != nil {
		return nil, err
	}
	return []types.Event{evtReceive(from, to, coins).AddChildren(events...)}, nil
}
