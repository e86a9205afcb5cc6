// Copyright 2025 Grug Framework
//
// Cronjobs: contract calls scheduled by chain config rather than by a
// transaction. Jobs with a period run in the before-tx phase once their
// scheduled time arrives; jobs with a zero period run in the after-block
// phase of every block. Cronjobs run with unlimited gas; a failed job is
// logged and its state changes (including those of any submessages it
// emitted) are dropped without contributing events to the block outcome.

package app

import (
	"github.com/grugnet/grug/pkg/gas"
	"github.com/grugnet/grug/pkg/store"
	"github.com/grugnet/grug/pkg/types"
)

// rescheduleCronjobs rebuilds the next-run index from the config. Called at
// genesis and whenever Configure replaces the config.
func (a *App) rescheduleCronjobs(ctx execCtx, cfg types.Config) error {
	if err := ctx.storage.RemoveRange(prefixCron, store.IncrementLastByte(prefixCron)); err != nil {
		return err
	}
	for addr, period := range cfg.Cronjobs {
		if period == 0 {
			continue // after-block jobs need no schedule index
		}
		next := types.Timestamp(uint64(ctx.block.Timestamp) + uint64(period))
		if err := ctx.storage.Write(cronKey(next, addr), []byte{}); err != nil {
			return err
		}
	}
	return nil
}

// dueCronjobs collects the scheduled jobs whose next run time is at or
// before now, in schedule order.
func dueCronjobs(storage store.Storage, now types.Timestamp) ([]types.Addr, [][]byte, error) {
	// Everything under cron/ up to and including timestamp `now`.
	max := cronKey(now+1, types.Addr{})
	it, err := storage.Scan(prefixCron, max, types.Ascending)
	if err != nil {
		return nil, nil, err
	}
	defer it.Close()

	var (
		contracts []types.Addr
		keys      [][]byte
	)
	for {
		rec, ok, err := it.Next()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}
		_, addr, err := parseCronKey(rec.Key)
		if err != nil {
			return nil, nil, err
		}
		contracts = append(contracts, addr)
		keys = append(keys, rec.Key)
	}
	return contracts, keys, nil
}

// doCron invokes one cronjob in its own snapshot with an unlimited gas
// tracker. A failure does not halt the block.
func (a *App) doCron(ctx execCtx, base *store.Buffer, contract types.Addr) types.Outcome {
	tracker := gas.NewLimitless()
	buffer := store.NewBuffer(base)
	cronCtx := ctx.withStorage(buffer)
	cronCtx.gasTracker = tracker

	evt, err := a.runCron(cronCtx, contract)
	outcome := types.Outcome{GasUsed: tracker.Used()}
	if err != nil {
		buffer.Discard()
		a.logger.Printf("Cronjob %s failed: %v", contract, err)
		outcome.Status = types.StatusFailed
		outcome.Result = types.Err[[]types.Event](err)
		return outcome
	}
	if err := buffer.Commit(); err != nil {
		outcome.Status = types.StatusFailed
		outcome.Result = types.Err[[]types.Event](err)
		return outcome
	}
	outcome.Status = types.StatusCommitted
	outcome.Result = types.Ok([]types.Event{evt})
	return outcome
}

func (a *App) runCron(ctx execCtx, contract types.Addr) (types.Event, error) {
	acct, err := loadAccount(ctx.storage, contract)
	if err != nil {
		return evtCron(contract), err
	}
	callCtx := types.Context{
		ChainID:  a.chainID,
		Block:    ctx.block,
		Contract: contract,
	}
	events, err := ctx.callAndHandle(contract, acct.CodeHash, "cron_execute", callCtx, struct{}{})
	if err != nil {
		return evtCron(contract), err
	}
	return evtCron(contract).AddChildren(events...), nil
}

// runScheduledCrons runs the due before-tx cronjobs and reschedules each for
// its next period. Rescheduling happens outside the job's snapshot, so a
// failed job still advances its schedule instead of wedging every block.
func (a *App) runScheduledCrons(ctx execCtx, base *store.Buffer, cfg types.Config) ([]types.Outcome, error) {
	contracts, keys, err := dueCronjobs(base, ctx.block.Timestamp)
	if err != nil {
		return nil, err
	}
	var outcomes []types.Outcome
	for i, contract := range contracts {
		if err := base.Remove(keys[i]); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, a.doCron(ctx, base, contract))
		if period, ok := cfg.Cronjobs[contract]; ok && period > 0 {
			next := types.Timestamp(uint64(ctx.block.Timestamp) + uint64(period))
			if err := base.Write(cronKey(next, contract), []byte{}); err != nil {
				return nil, err
			}
		}
	}
	return outcomes, nil
}

// runAfterBlockCrons runs the zero-period jobs at the end of every block.
func (a *App) runAfterBlockCrons(ctx execCtx, base *store.Buffer, cfg types.Config) []types.Outcome {
	// Deterministic order: ascending address.
	var addrs []types.Addr
	for addr, period := range cfg.Cronjobs {
		if period == 0 {
			addrs = append(addrs, addr)
		}
	}
	sortAddrs(addrs)
	var outcomes []types.Outcome
	for _, addr := range addrs {
		outcomes = append(outcomes, a.doCron(ctx, base, addr))
	}
	return outcomes
}

func sortAddrs(addrs []types.Addr) {
	for i := 1; i < len(addrs); i++ {
		for j := i; j > 0 && lessAddr(addrs[j], addrs[j-1]); j-- {
			addrs[j], addrs[j-1] = addrs[j-1], addrs[j]
		}
	}
}

func lessAddr(a, b types.Addr) bool {
	for i := 0; i < types.AddrLen; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
