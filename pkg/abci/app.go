// Copyright 2025 Grug Framework
//
// ABCI adapter: drives the execution core from CometBFT. This is the only
// layer that speaks protobuf; everything below works with the core's own
// types.

package abci

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	abcitypes "github.com/cometbft/cometbft/abci/types"

	"github.com/grugnet/grug/pkg/app"
	"github.com/grugnet/grug/pkg/types"
)

// App implements abcitypes.Application on top of the execution core.
type App struct {
	core   *app.App
	logger *log.Logger

	// retainVersions bounds history kept after each commit; 0 disables
	// pruning.
	retainVersions uint64

	mu sync.Mutex
	// Staged between FinalizeBlock and Commit.
	lastAppHash types.Hash
	lastHeight  int64
}

var _ abcitypes.Application = (*App)(nil)

func New(core *app.App, retainVersions uint64, logger *log.Logger) *App {
	if logger == nil {
		logger = log.New(log.Writer(), "[ABCI] ", log.LstdFlags)
	}
	return &App{core: core, retainVersions: retainVersions, logger: logger}
}

// Info lets CometBFT sync with the application state after a restart.
func (a *App) Info(_ context.Context, _ *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	if err := a.core.Restore(); err != nil {
		return nil, err
	}
	version, root, ok, err := a.core.LastCommitted()
	if err != nil {
		return nil, err
	}
	resp := &abcitypes.ResponseInfo{
		Data:       "Grug Execution Core",
		Version:    "1.0.0",
		AppVersion: 1,
	}
	if ok {
		resp.LastBlockHeight = int64(version)
		resp.LastBlockAppHash = root.Bytes()
	}
	a.logger.Printf("Info: height %d, app hash %s", resp.LastBlockHeight, root)
	return resp, nil
}

// InitChain replays the genesis app state and returns the initial hash.
func (a *App) InitChain(_ context.Context, req *abcitypes.RequestInitChain) (*abcitypes.ResponseInitChain, error) {
	var genesis types.GenesisState
	if len(req.AppStateBytes) > 0 {
		if err := json.Unmarshal(req.AppStateBytes, &genesis); err != nil {
			return nil, types.SerdeError{What: "genesis app state", Inner: err}
		}
	}
	root, err := a.core.InitChain(req.ChainId, req.Time, genesis)
	if err != nil {
		return nil, err
	}
	a.logger.Printf("Initialized chain %s, genesis app hash %s", req.ChainId, root)
	return &abcitypes.ResponseInitChain{AppHash: root.Bytes()}, nil
}

// CheckTx gates mempool admission with steps 1-2 of the tx pipeline on a
// scratch state.
func (a *App) CheckTx(_ context.Context, req *abcitypes.RequestCheckTx) (*abcitypes.ResponseCheckTx, error) {
	var tx types.Tx
	if err := json.Unmarshal(req.Tx, &tx); err != nil {
		return &abcitypes.ResponseCheckTx{Code: 1, Log: "invalid tx JSON: " + err.Error()}, nil
	}
	if err := a.core.CheckTx(tx); err != nil {
		return &abcitypes.ResponseCheckTx{Code: 2, Log: err.Error()}, nil
	}
	return &abcitypes.ResponseCheckTx{Code: 0, GasWanted: int64(tx.GasLimit)}, nil
}

// PrepareProposal passes transactions through unmodified, respecting the
// byte limit. Proposal transformers (e.g. an oracle feeder) wrap this.
func (a *App) PrepareProposal(_ context.Context, req *abcitypes.RequestPrepareProposal) (*abcitypes.ResponsePrepareProposal, error) {
	var (
		total int64
		txs   [][]byte
	)
	for _, tx := range req.Txs {
		if req.MaxTxBytes > 0 && total+int64(len(tx)) > req.MaxTxBytes {
			break
		}
		total += int64(len(tx))
		txs = append(txs, tx)
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

// ProcessProposal performs stateless validation: every tx must decode.
func (a *App) ProcessProposal(_ context.Context, req *abcitypes.RequestProcessProposal) (*abcitypes.ResponseProcessProposal, error) {
	for _, raw := range req.Txs {
		var tx types.Tx
		if err := json.Unmarshal(raw, &tx); err != nil {
			return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}, nil
		}
		if len(tx.Msgs) == 0 {
			return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}, nil
		}
	}
	return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_ACCEPT}, nil
}

// FinalizeBlock runs the block pipeline.
func (a *App) FinalizeBlock(_ context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	blockHash, err := types.HashFromBytes(req.Hash)
	if err != nil {
		// CometBFT block hashes are 32 bytes; anything else is malformed.
		return nil, err
	}

	block := types.Block{
		Info: types.BlockInfo{
			Height:    uint64(req.Height),
			Timestamp: types.TimestampFromTime(req.Time),
			Hash:      blockHash,
		},
		Txs: make([]types.Tx, 0, len(req.Txs)),
	}

	// Txs that fail to decode still occupy a slot in the response; they are
	// marked failed without entering the pipeline.
	decodable := make([]bool, len(req.Txs))
	for i, raw := range req.Txs {
		var tx types.Tx
		if err := json.Unmarshal(raw, &tx); err == nil {
			decodable[i] = true
			block.Txs = append(block.Txs, tx)
		}
	}

	outcome, err := a.core.FinalizeBlock(block)
	if err != nil {
		// A failure here is unrecoverable: committing anything could
		// produce a divergent root. Halt.
		return nil, fmt.Errorf("failed to finalize block %d: %w", req.Height, err)
	}

	results := make([]*abcitypes.ExecTxResult, len(req.Txs))
	next := 0
	for i := range req.Txs {
		if !decodable[i] {
			results[i] = &abcitypes.ExecTxResult{Code: 1, Log: "undecodable transaction"}
			continue
		}
		results[i] = execTxResult(outcome.TxOutcomes[next])
		next++
	}

	a.lastAppHash = outcome.AppHash
	a.lastHeight = req.Height
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: results,
		AppHash:   outcome.AppHash.Bytes(),
	}, nil
}

func execTxResult(outcome types.TxOutcome) *abcitypes.ExecTxResult {
	raw, err := json.Marshal(outcome)
	if err != nil {
		raw = []byte("{}")
	}
	result := &abcitypes.ExecTxResult{
		GasUsed: int64(outcome.GasUsed()),
		Data:    raw,
	}
	if outcome.MsgOutcome.GasLimit != nil {
		result.GasWanted = int64(*outcome.MsgOutcome.GasLimit)
	}
	switch {
	case outcome.TaxOutcome.Status == types.StatusFailed && outcome.MsgOutcome.Status == types.StatusNotReached:
		result.Code = 2
		result.Log = outcome.TaxOutcome.Error()
	case outcome.MsgOutcome.Status == types.StatusFailed:
		result.Code = 3
		result.Log = outcome.MsgOutcome.Error()
	case outcome.MsgOutcome.Status == types.StatusReverted:
		result.Code = 4
		result.Log = outcome.TaxOutcome.Error()
	default:
		result.Code = 0
	}
	return result
}

// Commit acknowledges persistence (the core commits atomically inside
// FinalizeBlock) and drives pruning.
func (a *App) Commit(context.Context, *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.logger.Printf("Committed block %d, app hash %s", a.lastHeight, a.lastAppHash)

	var retainHeight int64
	if a.retainVersions > 0 && uint64(a.lastHeight) > a.retainVersions {
		retainHeight = a.lastHeight - int64(a.retainVersions)
		if err := a.core.Prune(uint64(retainHeight)); err != nil {
			a.logger.Printf("Pruning below %d failed: %v", retainHeight, err)
		}
	}
	return &abcitypes.ResponseCommit{RetainHeight: retainHeight}, nil
}

// Query serves read-only requests against committed state.
func (a *App) Query(_ context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	var version *uint64
	if req.Height > 0 {
		v := uint64(req.Height)
		version = &v
	}

	switch req.Path {
	case "/app", "":
		var query types.Query
		if err := json.Unmarshal(req.Data, &query); err != nil {
			return &abcitypes.ResponseQuery{Code: 1, Log: "invalid query JSON: " + err.Error()}, nil
		}
		resp, err := a.core.Query(query, version)
		if err != nil {
			return &abcitypes.ResponseQuery{Code: 2, Log: err.Error()}, nil
		}
		raw, err := json.Marshal(resp)
		if err != nil {
			return &abcitypes.ResponseQuery{Code: 2, Log: err.Error()}, nil
		}
		return &abcitypes.ResponseQuery{Code: 0, Value: raw}, nil

	case "/simulate":
		var unsigned types.UnsignedTx
		if err := json.Unmarshal(req.Data, &unsigned); err != nil {
			return &abcitypes.ResponseQuery{Code: 1, Log: "invalid unsigned tx JSON: " + err.Error()}, nil
		}
		outcome, err := a.core.Simulate(unsigned)
		if err != nil {
			return &abcitypes.ResponseQuery{Code: 2, Log: err.Error()}, nil
		}
		raw, err := json.Marshal(outcome)
		if err != nil {
			return &abcitypes.ResponseQuery{Code: 2, Log: err.Error()}, nil
		}
		return &abcitypes.ResponseQuery{Code: 0, Value: raw}, nil

	case "/store":
		if req.Prove {
			return &abcitypes.ResponseQuery{Code: 3, Log: "proofs are not supported by the active commitment scheme"}, nil
		}
		value, err := a.core.QueryRaw(req.Data, version)
		if err != nil {
			return &abcitypes.ResponseQuery{Code: 2, Log: err.Error()}, nil
		}
		return &abcitypes.ResponseQuery{Code: 0, Value: value}, nil

	default:
		return &abcitypes.ResponseQuery{Code: 4, Log: "unknown query path: " + req.Path}, nil
	}
}

// ------------- remaining ABCI surface: stubs, as in most apps -------------

func (a *App) ExtendVote(context.Context, *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (a *App) VerifyVoteExtension(context.Context, *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (a *App) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (a *App) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{Result: abcitypes.ResponseOfferSnapshot_ABORT}, nil
}

func (a *App) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (a *App) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{Result: abcitypes.ResponseApplySnapshotChunk_ABORT}, nil
}

// Echo/Flush are handled by the server layer in CometBFT v0.38.
