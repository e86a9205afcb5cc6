// Copyright 2025 Grug Framework
//
// The per-transaction pipeline:
//
//	1. withhold_fee on the taxman   (failure is fatal: the tx never runs)
//	2. authenticate on the sender
//	3. the messages, in order
//	4. backrun on the sender
//	5. finalize_fee on the taxman   (failure reverts steps 2-4)
//
// Steps 2-4 each run in their own snapshot over a shared revertible layer;
// finalize_fee decides whether that layer reaches the chain state. One gas
// tracker spans the whole transaction.

package app

import (
	"github.com/grugnet/grug/pkg/gas"
	"github.com/grugnet/grug/pkg/store"
	"github.com/grugnet/grug/pkg/types"
)

// processTx executes one transaction against base. The tx is included in
// the block with this outcome regardless of step 2-5 success, provided
// step 1 succeeded.
func (a *App) processTx(ctx execCtx, base *store.Buffer, tx types.Tx, mode types.AuthMode) types.TxOutcome {
	tracker := ctx.gasTracker
	gasLimit := tx.GasLimit

	outcome := types.TxOutcome{
		MsgOutcome: types.Outcome{GasLimit: &gasLimit, Status: types.StatusNotReached},
		TaxOutcome: types.Outcome{GasLimit: &gasLimit, Status: types.StatusNotReached},
	}
	if tracker.Limit() == nil {
		outcome.MsgOutcome.GasLimit = nil
		outcome.TaxOutcome.GasLimit = nil
	}

	cfg, err := loadConfig(base)
	if err != nil {
		outcome.TaxOutcome.Status = types.StatusFailed
		outcome.TaxOutcome.Result = types.Err[[]types.Event](err)
		return outcome
	}

	// ------------------------------ step 1 -------------------------------
	// Withhold the fee. The taxman typically force-transfers
	// gas_limit x fee_rate from the sender to itself. Failure means the tx
	// does not enter the chain; this is what keeps mempool spam out.
	withholdBuf := store.NewBuffer(base)
	withholdEvt, err := a.doWithholdFee(ctx.withStorage(withholdBuf), cfg.Taxman, tx, mode)
	if err != nil {
		withholdBuf.Discard()
		outcome.TaxOutcome.GasUsed = tracker.Used()
		outcome.TaxOutcome.Status = types.StatusFailed
		outcome.TaxOutcome.Result = types.Err[[]types.Event](err)
		return outcome
	}
	if err := withholdBuf.Commit(); err != nil {
		outcome.TaxOutcome.Status = types.StatusFailed
		outcome.TaxOutcome.Result = types.Err[[]types.Event](err)
		return outcome
	}
	withholdGas := tracker.Used()

	// --------------------------- steps 2 to 4 ----------------------------
	// The shared layer all three steps commit into. finalize_fee failure
	// discards it wholesale, reverting even steps that succeeded.
	layer := store.NewBuffer(base)
	msgEvents, msgErr := a.runTxSteps(ctx.withStorage(layer), tx, mode)
	msgGas := tracker.Used() - withholdGas

	outcome.MsgOutcome.GasUsed = msgGas
	if msgErr != nil {
		outcome.MsgOutcome.Status = types.StatusFailed
		outcome.MsgOutcome.Result = types.Err[[]types.Event](msgErr)
	} else {
		outcome.MsgOutcome.Status = types.StatusCommitted
		outcome.MsgOutcome.Result = types.Ok(msgEvents)
	}

	// ------------------------------ step 5 -------------------------------
	// Finalize the fee on top of the layer, so the taxman sees the tx's
	// state (and the withheld-fee record from step 1). On success both
	// commit; on failure the layer is dropped, step statuses flip to
	// Reverted, and the finalize error is the user-visible reason. The
	// withholding from step 1 stands either way.
	// The outcome the taxman prices carries the gas burned so far, across
	// withholding, auth, messages, and backrun.
	feeOutcome := outcome.MsgOutcome
	feeOutcome.GasUsed = tracker.Used()

	feeBuf := store.NewBuffer(layer)
	finalizeEvt, feeErr := a.doFinalizeFee(ctx.withStorage(feeBuf), cfg.Taxman, tx, feeOutcome, mode)
	outcome.TaxOutcome.GasUsed = withholdGas + (tracker.Used() - withholdGas - msgGas)

	if feeErr != nil {
		feeBuf.Discard()
		layer.Discard()
		if outcome.MsgOutcome.Status == types.StatusCommitted {
			outcome.MsgOutcome.Status = types.StatusReverted
		}
		outcome.TaxOutcome.Status = types.StatusFailed
		outcome.TaxOutcome.Result = types.Err[[]types.Event](feeErr)
		return outcome
	}

	if err := feeBuf.Commit(); err != nil {
		outcome.TaxOutcome.Status = types.StatusFailed
		outcome.TaxOutcome.Result = types.Err[[]types.Event](err)
		return outcome
	}
	if err := layer.Commit(); err != nil {
		outcome.TaxOutcome.Status = types.StatusFailed
		outcome.TaxOutcome.Result = types.Err[[]types.Event](err)
		return outcome
	}

	outcome.TaxOutcome.Status = types.StatusCommitted
	outcome.TaxOutcome.Result = types.Ok([]types.Event{withholdEvt, finalizeEvt})
	return outcome
}

// runTxSteps executes authenticate, the messages, and backrun, each in its
// own snapshot over the shared layer. A step's success commits its snapshot
// into the layer; a failure discards only that snapshot and aborts the
// remaining steps. In particular, authenticate's writes (e.g. the recorded
// nonce) survive a message failure, which is what prevents replaying a
// failed transaction.
func (a *App) runTxSteps(ctx execCtx, tx types.Tx, mode types.AuthMode) ([]types.Event, error) {
	layer := ctx.storage.(*store.Buffer)
	var events []types.Event

	// Authenticate.
	authBuf := store.NewBuffer(layer)
	authEvt, err := a.doAuthenticate(ctx.withStorage(authBuf), tx, mode)
	if err != nil {
		authBuf.Discard()
		return nil, err
	}
	if err := authBuf.Commit(); err != nil {
		return nil, err
	}
	events = append(events, authEvt)

	// Messages: one snapshot for the whole list, so a failure reverts every
	// message of the tx. Subsequent messages are skipped after a failure.
	msgBuf := store.NewBuffer(layer)
	var msgEvents []types.Event
	for _, msg := range tx.Msgs {
		evt, err := a.processMsg(ctx.withStorage(msgBuf), tx.Sender, msg)
		if err != nil {
			msgBuf.Discard()
			return nil, err
		}
		msgEvents = append(msgEvents, evt)
	}
	if err := msgBuf.Commit(); err != nil {
		return nil, err
	}
	events = append(events, msgEvents...)

	// Backrun.
	backrunBuf := store.NewBuffer(layer)
	backrunEvt, err := a.doBackrun(ctx.withStorage(backrunBuf), tx, mode)
	if err != nil {
		backrunBuf.Discard()
		return nil, err
	}
	if err := backrunBuf.Commit(); err != nil {
		return nil, err
	}
	events = append(events, backrunEvt)

	return events, nil
}

func (a *App) doAuthenticate(ctx execCtx, tx types.Tx, mode types.AuthMode) (types.Event, error) {
	acct, err := loadAccount(ctx.storage, tx.Sender)
	if err != nil {
		return evtAuthenticate(tx.Sender), err
	}
	callCtx := types.Context{
		ChainID:  a.chainID,
		Block:    ctx.block,
		Contract: tx.Sender,
		Mode:     &mode,
	}
	events, err := ctx.callAndHandle(tx.Sender, acct.CodeHash, "authenticate", callCtx, tx)
	if err != nil {
		return evtAuthenticate(tx.Sender), err
	}
	return evtAuthenticate(tx.Sender).AddChildren(events...), nil
}

func (a *App) doBackrun(ctx execCtx, tx types.Tx, mode types.AuthMode) (types.Event, error) {
	acct, err := loadAccount(ctx.storage, tx.Sender)
	if err != nil {
		return evtBackrun(tx.Sender), err
	}
	callCtx := types.Context{
		ChainID:  a.chainID,
		Block:    ctx.block,
		Contract: tx.Sender,
		Mode:     &mode,
	}
	events, err := ctx.callAndHandle(tx.Sender, acct.CodeHash, "backrun", callCtx, tx)
	if err != nil {
		return evtBackrun(tx.Sender), err
	}
	return evtBackrun(tx.Sender).AddChildren(events...), nil
}

func (a *App) doWithholdFee(ctx execCtx, taxman types.Addr, tx types.Tx, mode types.AuthMode) (types.Event, error) {
	acct, err := loadAccount(ctx.storage, taxman)
	if err != nil {
		return evtWithholdFee(taxman), err
	}
	callCtx := types.Context{
		ChainID:  a.chainID,
		Block:    ctx.block,
		Contract: taxman,
		Mode:     &mode,
	}
	events, err := ctx.callAndHandle(taxman, acct.CodeHash, "withhold_fee", callCtx, tx)
	if err != nil {
		return evtWithholdFee(taxman), err
	}
	return evtWithholdFee(taxman).AddChildren(events...), nil
}

func (a *App) doFinalizeFee(ctx execCtx, taxman types.Addr, tx types.Tx, msgOutcome types.Outcome, mode types.AuthMode) (types.Event, error) {
	acct, err := loadAccount(ctx.storage, taxman)
	if err != nil {
		return evtFinalizeFee(taxman), err
	}
	callCtx := types.Context{
		ChainID:  a.chainID,
		Block:    ctx.block,
		Contract: taxman,
		Mode:     &mode,
	}
	resp, err := ctx.callInOut2(taxman, acct.CodeHash, "finalize_fee", callCtx, tx, msgOutcome)
	if err != nil {
		return evtFinalizeFee(taxman), err
	}
	events, err := ctx.handleResponse(taxman, "finalize_fee", resp)
	if err != nil {
		return evtFinalizeFee(taxman), err
	}
	return evtFinalizeFee(taxman).AddChildren(events...), nil
}

// trackerFor builds the gas tracker for one transaction. Simulation runs
// without a limit.
func trackerFor(tx types.Tx, mode types.AuthMode) *gas.Tracker {
	if mode == types.AuthModeSimulate {
		return gas.NewLimitless()
	}
	return gas.NewLimited(tx.GasLimit)
}
