// Copyright 2025 Grug Framework
//
// The execution engine: ties the versioned store, the commitment scheme,
// the VM, and the indexer hook into the block pipeline the consensus
// adapter drives.

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/grugnet/grug/pkg/commitment"
	"github.com/grugnet/grug/pkg/gas"
	"github.com/grugnet/grug/pkg/indexer"
	"github.com/grugnet/grug/pkg/metrics"
	"github.com/grugnet/grug/pkg/store"
	"github.com/grugnet/grug/pkg/types"
	"github.com/grugnet/grug/pkg/vm"
)

// App is the deterministic execution core. One instance serves one chain.
//
// Execution of a block is single-threaded: FinalizeBlock runs everything to
// completion on the caller's goroutine. Queries may run concurrently
// against committed versions.
type App struct {
	db      *store.DiskStore
	vm      vm.VM
	scheme  commitment.Scheme
	indexer indexer.Indexer
	logger  *log.Logger

	chainID string
}

func New(db *store.DiskStore, machine vm.VM, scheme commitment.Scheme, idx indexer.Indexer, logger *log.Logger) *App {
	if logger == nil {
		logger = log.New(log.Writer(), "[App] ", log.LstdFlags)
	}
	if idx == nil {
		idx = indexer.Null{}
	}
	return &App{
		db:      db,
		vm:      machine,
		scheme:  scheme,
		indexer: idx,
		logger:  logger,
	}
}

// ChainID returns the chain id loaded at init or restore time.
func (a *App) ChainID() string {
	return a.chainID
}

// LastCommitted returns the latest committed version and its root. ok is
// false before genesis.
func (a *App) LastCommitted() (uint64, types.Hash, bool, error) {
	version, ok, err := a.db.LatestVersion()
	if err != nil || !ok {
		return 0, types.Hash{}, false, err
	}
	root, found, err := a.scheme.RootHash(a.db.CommitmentView(), version)
	if err != nil {
		return 0, types.Hash{}, false, err
	}
	if !found {
		return version, types.Hash{}, true, nil
	}
	return version, root, true, nil
}

// Restore reloads the chain id after a restart.
func (a *App) Restore() error {
	_, ok, err := a.db.LatestVersion()
	if err != nil {
		return err
	}
	if !ok {
		return nil // pre-genesis, nothing to restore
	}
	chainID, err := loadChainID(a.db.StateView(nil))
	if err != nil {
		return err
	}
	a.chainID = chainID
	return nil
}

// InitChain replays the genesis state at version zero and returns the
// initial app hash.
func (a *App) InitChain(chainID string, genesisTime time.Time, genesis types.GenesisState) (types.Hash, error) {
	if _, ok, err := a.db.LatestVersion(); err != nil {
		return types.Hash{}, err
	} else if ok {
		return types.Hash{}, fmt.Errorf("chain is already initialized")
	}
	a.chainID = chainID

	block := types.BlockInfo{
		Height:    0,
		Timestamp: types.TimestampFromTime(genesisTime),
		Hash:      types.ZeroHash,
	}

	base := store.NewBuffer(a.db.StateView(nil))
	ctx := execCtx{
		app:        a,
		storage:    base,
		block:      block,
		gasTracker: gas.NewLimitless(),
		genesis:    true,
	}

	if err := saveChainID(base, chainID); err != nil {
		return types.Hash{}, err
	}
	if err := saveConfig(base, genesis.Config); err != nil {
		return types.Hash{}, err
	}
	if err := saveLastBlock(base, block); err != nil {
		return types.Hash{}, err
	}
	for key, value := range genesis.AppConfigs {
		if err := base.Write(appConfigKey(key), value); err != nil {
			return types.Hash{}, err
		}
	}
	if err := a.rescheduleCronjobs(ctx, genesis.Config); err != nil {
		return types.Hash{}, err
	}

	// Genesis messages run with unlimited gas and the zero address as
	// sender; permission checks are relaxed.
	var sender types.Addr
	for i, msg := range genesis.Msgs {
		if _, err := a.processMsg(ctx, sender, msg); err != nil {
			return types.Hash{}, fmt.Errorf("genesis message %d (%s) failed: %w", i, msg.Name(), err)
		}
	}

	root, err := a.commitBatch(0, 0, base.Pending())
	if err != nil {
		return types.Hash{}, err
	}
	a.logger.Printf("Initialized chain %s with %d genesis messages, app hash %s", chainID, len(genesis.Msgs), root)
	return root, nil
}

// FinalizeBlock runs the block pipeline: before-tx cronjobs, the
// transactions in delivery order, after-block cronjobs, then commits the
// accumulated batch and produces the block outcome. Steps 3-7 of the
// pipeline are a pure function of the prior committed state and the block.
func (a *App) FinalizeBlock(block types.Block) (*types.BlockOutcome, error) {
	started := time.Now()

	oldVersion, ok, err := a.db.LatestVersion()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: chain is not initialized", types.ErrCommitment)
	}

	lastBlock, err := loadLastBlock(a.db.StateView(nil))
	if err != nil {
		return nil, err
	}
	if block.Info.Height != lastBlock.Height+1 {
		return nil, fmt.Errorf("block height must increase by 1: last %d, got %d", lastBlock.Height, block.Info.Height)
	}
	if block.Info.Timestamp < lastBlock.Timestamp {
		return nil, fmt.Errorf("block timestamp must be non-decreasing: last %d, got %d", lastBlock.Timestamp, block.Info.Timestamp)
	}

	base := store.NewBuffer(a.db.StateView(nil))
	ctx := execCtx{
		app:     a,
		storage: base,
		block:   block.Info,
	}

	cfg, err := loadConfig(base)
	if err != nil {
		return nil, err
	}
	if err := saveLastBlock(base, block.Info); err != nil {
		return nil, err
	}

	// Before-tx cronjobs.
	cronOutcomes, err := a.runScheduledCrons(ctx, base, cfg)
	if err != nil {
		return nil, err
	}

	// Transactions, in delivery order.
	txOutcomes := make([]types.TxOutcome, len(block.Txs))
	for i, tx := range block.Txs {
		txCtx := ctx
		txCtx.gasTracker = trackerFor(tx, types.AuthModeFinalize)
		txOutcomes[i] = a.processTx(txCtx, base, tx, types.AuthModeFinalize)

		result := "ok"
		if txOutcomes[i].MsgOutcome.Status != types.StatusCommitted {
			result = "failed"
		}
		metrics.TxsExecuted.WithLabelValues(result).Inc()
		metrics.GasUsed.Add(float64(txOutcomes[i].GasUsed()))
	}

	// After-block cronjobs.
	cronOutcomes = append(cronOutcomes, a.runAfterBlockCrons(ctx, base, cfg)...)

	// Commit the accumulated batch and compute the new root.
	root, err := a.commitBatch(oldVersion, oldVersion+1, base.Pending())
	if err != nil {
		return nil, err
	}

	outcome := &types.BlockOutcome{
		AppHash:      root,
		CronOutcomes: cronOutcomes,
		TxOutcomes:   txOutcomes,
	}

	metrics.BlocksExecuted.Inc()
	metrics.BlockExecutionSeconds.Observe(time.Since(started).Seconds())
	a.logger.Printf("Finalized block %d with %d txs, app hash %s", block.Info.Height, len(block.Txs), root)

	// The indexer hook observes the committed block; failures are logged
	// and never affect the chain.
	if err := a.indexer.IndexBlock(&block, outcome); err != nil {
		a.logger.Printf("Indexer failed for block %d: %v", block.Info.Height, err)
	}

	return outcome, nil
}

// commitBatch computes the new root over the batch and persists both
// atomically.
func (a *App) commitBatch(oldVersion, newVersion uint64, batch types.Batch) (types.Hash, error) {
	cbuf := store.NewBuffer(a.db.CommitmentView())
	root, err := a.scheme.Apply(cbuf, oldVersion, newVersion, batch)
	if err != nil {
		return types.Hash{}, err
	}
	if err := a.db.Apply(oldVersion, newVersion, batch, cbuf.Pending()); err != nil {
		return types.Hash{}, err
	}
	return root, nil
}

// CheckTx runs steps 1-2 of the tx pipeline on a scratch state to gate
// mempool admission.
func (a *App) CheckTx(tx types.Tx) error {
	if len(tx.Msgs) == 0 {
		return fmt.Errorf("transaction contains no messages")
	}
	lastBlock, err := loadLastBlock(a.db.StateView(nil))
	if err != nil {
		return err
	}
	base := store.NewBuffer(a.db.StateView(nil))
	ctx := execCtx{
		app:        a,
		storage:    base,
		block:      lastBlock,
		gasTracker: gas.NewLimited(tx.GasLimit),
	}
	cfg, err := loadConfig(base)
	if err != nil {
		return err
	}

	withholdBuf := store.NewBuffer(base)
	if _, err := a.doWithholdFee(ctx.withStorage(withholdBuf), cfg.Taxman, tx, types.AuthModeCheck); err != nil {
		return err
	}
	if err := withholdBuf.Commit(); err != nil {
		return err
	}

	authBuf := store.NewBuffer(base)
	if _, err := a.doAuthenticate(ctx.withStorage(authBuf), tx, types.AuthModeCheck); err != nil {
		return err
	}
	// The scratch state is discarded; nothing commits.
	return nil
}

// Simulate runs the full pipeline for an unsigned tx in simulate mode with
// unlimited gas, returning the outcome for fee estimation.
func (a *App) Simulate(unsigned types.UnsignedTx) (types.TxOutcome, error) {
	lastBlock, err := loadLastBlock(a.db.StateView(nil))
	if err != nil {
		return types.TxOutcome{}, err
	}
	tx := types.Tx{
		Sender:     unsigned.Sender,
		GasLimit:   0,
		Msgs:       unsigned.Msgs,
		Data:       json.RawMessage("null"),
		Credential: json.RawMessage("null"),
	}
	base := store.NewBuffer(a.db.StateView(nil))
	ctx := execCtx{
		app:        a,
		storage:    base,
		block:      lastBlock,
		gasTracker: trackerFor(tx, types.AuthModeSimulate),
	}
	return a.processTx(ctx, base, tx, types.AuthModeSimulate), nil
}

// Query answers a typed chain query at the given version (nil = latest),
// with unlimited gas since the chain itself is asking.
func (a *App) Query(req types.Query, version *uint64) (types.QueryResponse, error) {
	view := a.db.StateView(version)
	lastBlock, err := loadLastBlock(view)
	if err != nil {
		return types.QueryResponse{}, err
	}
	ctx := execCtx{
		app:        a,
		storage:    view,
		block:      lastBlock,
		gasTracker: gas.NewLimitless(),
	}
	return a.processQuery(ctx, req)
}

// QueryRaw reads one raw key from the state at the given version.
func (a *App) QueryRaw(key []byte, version *uint64) ([]byte, error) {
	return a.db.StateView(version).Read(key)
}

// Prune garbage-collects history below the given version.
func (a *App) Prune(upToVersion uint64) error {
	cbuf := store.NewBuffer(a.db.CommitmentView())
	if err := a.scheme.Prune(cbuf, upToVersion); err != nil {
		return err
	}
	// Writes the scheme makes to cbuf are not persisted; the Simple scheme
	// makes none.
	return a.db.Prune(upToVersion)
}
