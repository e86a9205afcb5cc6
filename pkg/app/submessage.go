// Copyright 2025 Grug Framework
//
// The submessage scheduler. Submessages emitted in a contract response run
// depth-first in emission order, each in a nested snapshot of the parent's
// buffered store, with the reply policy deciding commit/revert and whether
// the parent gets a callback. This is what gives contracts fine-grained,
// composable try/catch.

package app

import (
	"github.com/grugnet/grug/pkg/store"
	"github.com/grugnet/grug/pkg/types"
)

// handleSubmessages processes a contract's emitted submessages. sender is
// the contract that emitted them, not the transaction's sender.
func (a *App) handleSubmessages(ctx execCtx, sender types.Addr, submsgs []types.SubMessage) ([]types.Event, error) {
	if ctx.msgDepth+1 > MaxMessageDepth {
		return nil, types.ErrExceedMaxMessageDepth
	}

	var events []types.Event
	for _, submsg := range submsgs {
		buffer := store.NewBuffer(ctx.storage)
		evt, err := a.processMsg(ctx.withStorage(buffer).deeper(), sender, submsg.Msg)

		switch {
		case err == nil && (submsg.ReplyOn.Kind == types.ReplySuccess || submsg.ReplyOn.Kind == types.ReplyAlways):
			// Success, callback requested: flush, log, reply.
			if err := buffer.Commit(); err != nil {
				return nil, err
			}
			events = append(events, evt)
			replyEvents, err := a.doReply(ctx, sender, submsg.ReplyOn.Payload, types.Ok([]types.Event{evt}))
			if err != nil {
				return nil, err
			}
			events = append(events, replyEvents...)

		case err == nil:
			// Success, no callback: flush, log, continue.
			if err := buffer.Commit(); err != nil {
				return nil, err
			}
			events = append(events, evt)

		case submsg.ReplyOn.Kind == types.ReplyError || submsg.ReplyOn.Kind == types.ReplyAlways:
			// Error, callback requested: discard the nested writes, reply.
			if types.IsOutOfGas(err) {
				// Gas exhaustion is not catchable; the budget is gone either way.
				return nil, err
			}
			buffer.Discard()
			replyEvents, rerr := a.doReply(ctx, sender, submsg.ReplyOn.Payload, types.Err[[]types.Event](err))
			if rerr != nil {
				return nil, rerr
			}
			events = append(events, replyEvents...)

		default:
			// Error, no callback: abort the enclosing invocation.
			return nil, err
		}
	}
	return events, nil
}

// doReply calls the parent contract's reply entry point with the payload
// from the reply policy and the inner result.
func (a *App) doReply(ctx execCtx, contract types.Addr, payload types.Json, result types.GenericResult[[]types.Event]) ([]types.Event, error) {
	acct, err := loadAccount(ctx.storage, contract)
	if err != nil {
		return nil, err
	}
	callCtx := types.Context{
		ChainID:  a.chainID,
		Block:    ctx.block,
		Contract: contract,
	}
	resp, err := ctx.deeper().callInOut2(contract, acct.CodeHash, "reply", callCtx, payload, result)
	if err != nil {
		return nil, err
	}
	events, err := ctx.deeper().handleResponse(contract, "reply", resp)
	if err != nil {
		return nil, err
	}
	return []types.Event{evtReply(contract, result.Err == "").AddChildren(events...)}, nil
}
