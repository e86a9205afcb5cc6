// Copyright 2025 Grug Framework
//
// End-to-end tests of the execution core: genesis, transfers, fees,
// submessage semantics, gas exhaustion, query isolation, and cronjobs, all
// running on the native VM with the built-in contracts.

package app_test

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	dbm "github.com/cometbft/cometbft-db"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/grugnet/grug/pkg/app"
	"github.com/grugnet/grug/pkg/commitment"
	"github.com/grugnet/grug/pkg/contracts"
	"github.com/grugnet/grug/pkg/store"
	"github.com/grugnet/grug/pkg/types"
	"github.com/grugnet/grug/pkg/vm"
)

const (
	testChainID  = "grug-test"
	feeDenom     = "uusdc"
	feeRatePPM   = 10_000 // 0.01 per gas
	initialMint  = 1_000_000
	testGasLimit = 1_000_000
)

type suite struct {
	t    *testing.T
	core *app.App

	codes contracts.Codes

	alice, bob             types.Addr
	bank, taxman           types.Addr
	tester1, tester2       types.Addr
	aliceKey, bobKey       *ecdsa.PrivateKey
	aliceSeq, bobSeq       uint32

	height uint64
	now    time.Time
}

func coins(t *testing.T, denom string, amount uint64) types.Coins {
	t.Helper()
	out, err := types.NewCoins(types.NewCoin(denom, amount))
	require.NoError(t, err)
	return out
}

func testKey(t *testing.T, seed byte) *ecdsa.PrivateKey {
	t.Helper()
	raw := make([]byte, 32)
	raw[31] = seed
	key, err := ethcrypto.ToECDSA(raw)
	require.NoError(t, err)
	return key
}

// newSuite boots a fresh chain: codes uploaded, bank/taxman/accounts/testers
// instantiated, alice funded with 1_000_000 uusdc.
func newSuite(t *testing.T, cronPeriod types.Duration) *suite {
	t.Helper()

	machine := vm.NewNativeVM(1<<24, nil)
	codes := contracts.RegisterAll(machine)
	diskStore := store.NewDiskStore(dbm.NewMemDB(), nil)
	core := app.New(diskStore, machine, commitment.NewSimple(), nil, nil)

	var zero types.Addr
	s := &suite{
		t:        t,
		core:     core,
		codes:    codes,
		aliceKey: testKey(t, 1),
		bobKey:   testKey(t, 2),
		now:      time.Unix(1_700_000_000, 0).UTC(),
	}
	s.alice = types.DeriveAddr(zero, codes.Account, []byte("alice"))
	s.bob = types.DeriveAddr(zero, codes.Account, []byte("bob"))
	s.bank = types.DeriveAddr(zero, codes.Bank, []byte("bank"))
	s.taxman = types.DeriveAddr(zero, codes.Taxman, []byte("taxman"))
	s.tester1 = types.DeriveAddr(zero, codes.Tester, []byte("t1"))
	s.tester2 = types.DeriveAddr(zero, codes.Tester, []byte("t2"))

	cronjobs := map[types.Addr]types.Duration{}
	if cronPeriod > 0 {
		cronjobs[s.tester1] = cronPeriod
	}

	genesis := types.GenesisState{
		Config: types.Config{
			Owner:    &s.alice,
			Bank:     s.bank,
			Taxman:   s.taxman,
			Cronjobs: cronjobs,
			Permissions: types.Permissions{
				Upload:      types.PermissionEverybody(),
				Instantiate: types.PermissionEverybody(),
			},
		},
		Msgs: s.genesisMsgs(),
	}

	_, err := core.InitChain(testChainID, s.now, genesis)
	require.NoError(t, err)
	return s
}

func (s *suite) genesisMsgs() []types.Message {
	bankInit, err := json.Marshal(contracts.BankInstantiateMsg{
		InitialBalances: map[types.Addr]types.Coins{
			s.alice: coins(s.t, feeDenom, initialMint),
		},
	})
	require.NoError(s.t, err)

	taxmanInit, err := json.Marshal(contracts.TaxmanInstantiateMsg{
		Config: contracts.TaxmanConfig{FeeDenom: feeDenom, FeeRatePPM: feeRatePPM},
	})
	require.NoError(s.t, err)

	aliceInit, err := json.Marshal(contracts.AccountInstantiateMsg{
		PublicKey: ethcrypto.CompressPubkey(&s.aliceKey.PublicKey),
	})
	require.NoError(s.t, err)

	bobInit, err := json.Marshal(contracts.AccountInstantiateMsg{
		PublicKey: ethcrypto.CompressPubkey(&s.bobKey.PublicKey),
	})
	require.NoError(s.t, err)

	return []types.Message{
		types.NewUploadMsg(contracts.CodeBytes("account")),
		types.NewUploadMsg(contracts.CodeBytes("bank")),
		types.NewUploadMsg(contracts.CodeBytes("taxman")),
		types.NewUploadMsg(contracts.CodeBytes("tester")),
		types.NewInstantiateMsg(s.codes.Bank, bankInit, []byte("bank"), types.Coins{}, nil),
		types.NewInstantiateMsg(s.codes.Taxman, taxmanInit, []byte("taxman"), types.Coins{}, nil),
		types.NewInstantiateMsg(s.codes.Account, aliceInit, []byte("alice"), types.Coins{}, nil),
		types.NewInstantiateMsg(s.codes.Account, bobInit, []byte("bob"), types.Coins{}, nil),
		types.NewInstantiateMsg(s.codes.Tester, json.RawMessage(`{}`), []byte("t1"), types.Coins{}, nil),
		types.NewInstantiateMsg(s.codes.Tester, json.RawMessage(`{}`), []byte("t2"), types.Coins{}, nil),
	}
}

// signTx builds a signed transaction from alice (or bob) with the account
// contract's canonical sign doc.
func (s *suite) signTx(key *ecdsa.PrivateKey, sender types.Addr, seq *uint32, gasLimit uint64, msgs ...types.Message) types.Tx {
	prehash, err := contracts.SignDocBytes(msgs, sender, testChainID, *seq)
	require.NoError(s.t, err)
	digest := sha256.Sum256(prehash)
	sig, err := ethcrypto.Sign(digest[:], key)
	require.NoError(s.t, err)
	cred, err := contracts.BuildCredential(*seq, sig[:64])
	require.NoError(s.t, err)
	*seq++
	return types.Tx{
		Sender:     sender,
		GasLimit:   gasLimit,
		Msgs:       msgs,
		Data:       json.RawMessage(`{}`),
		Credential: cred,
	}
}

// runBlock finalizes the next block with the given txs, one second after
// the previous block.
func (s *suite) runBlock(txs ...types.Tx) *types.BlockOutcome {
	return s.runBlockAt(s.now.Add(time.Second), txs...)
}

func (s *suite) runBlockAt(at time.Time, txs ...types.Tx) *types.BlockOutcome {
	s.height++
	s.now = at
	outcome, err := s.core.FinalizeBlock(types.Block{
		Info: types.BlockInfo{
			Height:    s.height,
			Timestamp: types.TimestampFromTime(at),
			Hash:      types.HashOf([]byte(fmt.Sprintf("block-%d", s.height))),
		},
		Txs: txs,
	})
	require.NoError(s.t, err)
	return outcome
}

func (s *suite) balance(addr types.Addr) uint64 {
	resp, err := s.core.Query(types.Query{Balance: &types.QueryBalance{Address: addr, Denom: feeDenom}}, nil)
	require.NoError(s.t, err)
	require.NotNil(s.t, resp.Balance)
	return resp.Balance.Amount.Uint64()
}

func (s *suite) wasmRaw(contract types.Addr, key []byte) []byte {
	resp, err := s.core.Query(types.Query{WasmRaw: &types.QueryWasmRaw{Contract: contract, Key: key}}, nil)
	require.NoError(s.t, err)
	return resp.WasmRaw
}

// ---------------------------------------------------------------------------

func TestGenesisAndFirstTransfer(t *testing.T) {
	s := newSuite(t, 0)

	require.EqualValues(t, initialMint, s.balance(s.alice))
	require.EqualValues(t, 0, s.balance(s.bob))

	tx := s.signTx(s.aliceKey, s.alice, &s.aliceSeq, testGasLimit,
		types.NewTransferMsg(s.bob, coins(t, feeDenom, 100)))
	outcome := s.runBlock(tx)

	require.Len(t, outcome.TxOutcomes, 1)
	txOutcome := outcome.TxOutcomes[0]
	require.Equal(t, types.StatusCommitted, txOutcome.MsgOutcome.Status, "msg error: %s", txOutcome.MsgOutcome.Error())
	require.Equal(t, types.StatusCommitted, txOutcome.TaxOutcome.Status, "tax error: %s", txOutcome.TaxOutcome.Error())
	require.False(t, outcome.AppHash.IsZero())

	// Bob got exactly 100; alice paid 100 plus the fee; the taxman holds
	// the fee; total supply is conserved.
	require.EqualValues(t, 100, s.balance(s.bob))
	alice := s.balance(s.alice)
	taxman := s.balance(s.taxman)
	require.Less(t, alice, uint64(initialMint-100), "a fee must have been charged")
	require.NotZero(t, taxman)
	require.EqualValues(t, initialMint, alice+100+taxman, "supply must be conserved")

	// Gas accounting stays within the limit.
	require.LessOrEqual(t, txOutcome.GasUsed(), uint64(testGasLimit))

	// A transfer event is present in the message events.
	raw, err := json.Marshal(txOutcome.MsgOutcome.Events())
	require.NoError(t, err)
	require.Contains(t, string(raw), `"transfer"`)
}

func TestDeterministicReplay(t *testing.T) {
	run := func() (types.Hash, []byte) {
		s := newSuite(t, 0)
		tx := s.signTx(s.aliceKey, s.alice, &s.aliceSeq, testGasLimit,
			types.NewTransferMsg(s.bob, coins(t, feeDenom, 250)))
		outcome := s.runBlock(tx)
		raw, err := json.Marshal(outcome)
		require.NoError(t, err)
		return outcome.AppHash, raw
	}

	hash1, bytes1 := run()
	hash2, bytes2 := run()
	require.Equal(t, hash1, hash2, "app hash must be identical across replays")
	require.Equal(t, bytes1, bytes2, "outcome bytes must be identical across replays")
}

func TestInstantiateAddressCollision(t *testing.T) {
	s := newSuite(t, 0)

	instantiate := func() types.Message {
		return types.NewInstantiateMsg(s.codes.Tester, json.RawMessage(`{}`), []byte("x"), types.Coins{}, nil)
	}

	first := s.runBlock(s.signTx(s.aliceKey, s.alice, &s.aliceSeq, testGasLimit, instantiate()))
	require.Equal(t, types.StatusCommitted, first.TxOutcomes[0].MsgOutcome.Status,
		"error: %s", first.TxOutcomes[0].MsgOutcome.Error())

	expected := types.DeriveAddr(s.alice, s.codes.Tester, []byte("x"))
	resp, err := s.core.Query(types.Query{Account: &types.QueryAccount{Address: expected}}, nil)
	require.NoError(t, err)
	require.Equal(t, s.codes.Tester, resp.Account.CodeHash)

	// Instantiating with the same (code, salt) again collides.
	second := s.runBlock(s.signTx(s.aliceKey, s.alice, &s.aliceSeq, testGasLimit, instantiate()))
	require.Equal(t, types.StatusFailed, second.TxOutcomes[0].MsgOutcome.Status)
	require.Contains(t, second.TxOutcomes[0].MsgOutcome.Error(), "already exists")
}

func TestUploadIsIdempotent(t *testing.T) {
	s := newSuite(t, 0)
	outcome := s.runBlock(s.signTx(s.aliceKey, s.alice, &s.aliceSeq, testGasLimit,
		types.NewUploadMsg(contracts.CodeBytes("tester"))))
	require.Equal(t, types.StatusCommitted, outcome.TxOutcomes[0].MsgOutcome.Status,
		"re-uploading existing code must be a no-op, got: %s", outcome.TxOutcomes[0].MsgOutcome.Error())

	resp, err := s.core.Query(types.Query{Code: &types.QueryCode{Hash: s.codes.Tester}}, nil)
	require.NoError(t, err)
	require.Equal(t, contracts.CodeBytes("tester"), []byte(resp.Code))
}

func TestSubmessageRollback(t *testing.T) {
	s := newSuite(t, 0)

	inner, err := json.Marshal(contracts.TesterExecuteMsg{WriteThenFail: &struct {
		Key   types.Binary `json:"key"`
		Value types.Binary `json:"value"`
	}{Key: []byte("k"), Value: []byte("doomed")}})
	require.NoError(t, err)

	emit, err := json.Marshal(contracts.TesterExecuteMsg{Emit: &struct {
		SubMsgs []types.SubMessage `json:"sub_msgs"`
	}{SubMsgs: []types.SubMessage{{
		Msg:     types.NewExecuteMsg(s.tester2, inner, types.Coins{}),
		ReplyOn: types.ReplyOnError(json.RawMessage(`"abc"`)),
	}}}})
	require.NoError(t, err)

	outcome := s.runBlock(s.signTx(s.aliceKey, s.alice, &s.aliceSeq, testGasLimit,
		types.NewExecuteMsg(s.tester1, emit, types.Coins{})))

	// The tx as a whole succeeds: the error was caught by the reply policy.
	require.Equal(t, types.StatusCommitted, outcome.TxOutcomes[0].MsgOutcome.Status,
		"error: %s", outcome.TxOutcomes[0].MsgOutcome.Error())

	// tester2's write was reverted.
	require.Nil(t, s.wasmRaw(s.tester2, []byte("k")))

	// tester1 received the reply with the payload and the inner error.
	replyQuery, err := json.Marshal(contracts.TesterQueryMsg{Reply: &struct{}{}})
	require.NoError(t, err)
	resp, err := s.core.Query(types.Query{WasmSmart: &types.QueryWasmSmart{Contract: s.tester1, Msg: replyQuery}}, nil)
	require.NoError(t, err)
	require.Contains(t, string(resp.WasmSmart), "abc")
	require.Contains(t, string(resp.WasmSmart), "deliberate failure")
}

func TestSubmessageNeverAborts(t *testing.T) {
	s := newSuite(t, 0)

	inner, err := json.Marshal(contracts.TesterExecuteMsg{Fail: &struct{}{}})
	require.NoError(t, err)
	emit, err := json.Marshal(contracts.TesterExecuteMsg{Emit: &struct {
		SubMsgs []types.SubMessage `json:"sub_msgs"`
	}{SubMsgs: []types.SubMessage{{
		Msg:     types.NewExecuteMsg(s.tester2, inner, types.Coins{}),
		ReplyOn: types.ReplyOnNever(),
	}}}})
	require.NoError(t, err)

	outcome := s.runBlock(s.signTx(s.aliceKey, s.alice, &s.aliceSeq, testGasLimit,
		types.NewExecuteMsg(s.tester1, emit, types.Coins{})))

	// reply_on = never does not catch: the parent aborts.
	require.Equal(t, types.StatusFailed, outcome.TxOutcomes[0].MsgOutcome.Status)
	require.Contains(t, outcome.TxOutcomes[0].MsgOutcome.Error(), "deliberate failure")
}

func TestOutOfGasInLoop(t *testing.T) {
	s := newSuite(t, 0)

	loop, err := json.Marshal(contracts.TesterExecuteMsg{Loop: &struct {
		Iterations uint64 `json:"iterations"`
	}{Iterations: 1_000_000_000}})
	require.NoError(t, err)

	outcome := s.runBlock(s.signTx(s.aliceKey, s.alice, &s.aliceSeq, testGasLimit,
		types.NewExecuteMsg(s.tester1, loop, types.Coins{})))

	txOutcome := outcome.TxOutcomes[0]
	require.Equal(t, types.StatusFailed, txOutcome.MsgOutcome.Status)
	require.Contains(t, txOutcome.MsgOutcome.Error(), "out of gas")

	// No storage writes by the tester persist.
	require.Nil(t, s.wasmRaw(s.tester1, []byte("loop")))

	// The entire withheld fee is kept: withheld = ceil(1e6 * 0.01). The loop
	// leaves less gas than the finalize_fee call costs, so finalize_fee runs
	// out of gas and fails; the withholding stands and no refund is paid.
	require.EqualValues(t, initialMint-10_000, s.balance(s.alice))
	require.EqualValues(t, 10_000, s.balance(s.taxman))
}

func TestFeeRefund(t *testing.T) {
	s := newSuite(t, 0)

	tx := s.signTx(s.aliceKey, s.alice, &s.aliceSeq, testGasLimit,
		types.NewTransferMsg(s.bob, coins(t, feeDenom, 1)))
	outcome := s.runBlock(tx)
	txOutcome := outcome.TxOutcomes[0]
	require.Equal(t, types.StatusCommitted, txOutcome.MsgOutcome.Status)

	// The taxman withheld 10_000, then refunded everything above
	// ceil(gas_used_at_finalize x 0.01). The net charge is what it kept.
	taxman := s.balance(s.taxman)
	alice := s.balance(s.alice)
	require.Greater(t, taxman, uint64(0))
	require.Less(t, taxman, uint64(10_000), "most of the withheld fee must come back")
	require.EqualValues(t, initialMint-1-taxman, alice)
}

func TestForcedWriteViaQuery(t *testing.T) {
	s := newSuite(t, 0)

	query, err := json.Marshal(contracts.TesterQueryMsg{ForbiddenWrite: &struct{}{}})
	require.NoError(t, err)
	_, err = s.core.Query(types.Query{WasmSmart: &types.QueryWasmSmart{Contract: s.tester1, Msg: query}}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "immutable")

	// Nothing was written.
	require.Nil(t, s.wasmRaw(s.tester1, []byte("sneaky")))
}

func TestQueryRecursionDepth(t *testing.T) {
	s := newSuite(t, 0)

	recurse := func(depth uint32) types.Json {
		raw, err := json.Marshal(contracts.TesterQueryMsg{Recurse: &struct {
			Contract types.Addr `json:"contract"`
			Depth    uint32     `json:"depth"`
		}{Contract: s.tester1, Depth: depth}})
		require.NoError(t, err)
		return raw
	}

	// Shallow recursion is fine.
	resp, err := s.core.Query(types.Query{WasmSmart: &types.QueryWasmSmart{Contract: s.tester1, Msg: recurse(2)}}, nil)
	require.NoError(t, err)
	require.Contains(t, string(resp.WasmSmart), "bottom")

	// Past the bound it fails with the typed error.
	_, err = s.core.Query(types.Query{WasmSmart: &types.QueryWasmSmart{Contract: s.tester1, Msg: recurse(6)}}, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "exceed max query depth")
}

func TestMigrateRequiresAdmin(t *testing.T) {
	s := newSuite(t, 0)

	// tester1 was instantiated with no admin: immutable.
	outcome := s.runBlock(s.signTx(s.aliceKey, s.alice, &s.aliceSeq, testGasLimit,
		types.NewMigrateMsg(s.tester1, s.codes.Tester, json.RawMessage(`{}`))))
	require.Equal(t, types.StatusFailed, outcome.TxOutcomes[0].MsgOutcome.Status)
	require.Contains(t, outcome.TxOutcomes[0].MsgOutcome.Error(), "unauthorized")
}

func TestAuthenticationFailures(t *testing.T) {
	s := newSuite(t, 0)

	// A wrong signature is rejected in authenticate; the fee was withheld
	// in step 1, so the tx still lands in the block with a failed outcome.
	tx := s.signTx(s.aliceKey, s.alice, &s.aliceSeq, testGasLimit,
		types.NewTransferMsg(s.bob, coins(t, feeDenom, 5)))
	var cred contracts.AccountCredential
	require.NoError(t, json.Unmarshal(tx.Credential, &cred))
	cred.Signature[0] ^= 0xff
	mangled, err := json.Marshal(cred)
	require.NoError(t, err)
	tx.Credential = mangled

	outcome := s.runBlock(tx)
	require.Equal(t, types.StatusFailed, outcome.TxOutcomes[0].MsgOutcome.Status)
	require.Contains(t, strings.ToLower(outcome.TxOutcomes[0].MsgOutcome.Error()), "signature")
	require.EqualValues(t, 0, s.balance(s.bob))
}

func TestReplayIsRejected(t *testing.T) {
	s := newSuite(t, 0)

	tx := s.signTx(s.aliceKey, s.alice, &s.aliceSeq, testGasLimit,
		types.NewTransferMsg(s.bob, coins(t, feeDenom, 10)))
	first := s.runBlock(tx)
	require.Equal(t, types.StatusCommitted, first.TxOutcomes[0].MsgOutcome.Status)

	// The same signed tx again: the sequence has advanced, authenticate
	// fails, and bob receives nothing more.
	second := s.runBlock(tx)
	require.Equal(t, types.StatusFailed, second.TxOutcomes[0].MsgOutcome.Status)
	require.Contains(t, second.TxOutcomes[0].MsgOutcome.Error(), "sequence")
	require.EqualValues(t, 10, s.balance(s.bob))
}

func TestCheckTxGatesMempool(t *testing.T) {
	s := newSuite(t, 0)

	// A tx with no messages is rejected outright.
	require.Error(t, s.core.CheckTx(types.Tx{
		Sender:     s.alice,
		GasLimit:   testGasLimit,
		Data:       json.RawMessage(`{}`),
		Credential: json.RawMessage(`{}`),
	}))

	// A sender who cannot cover the worst-case fee is rejected in
	// withhold_fee.
	poor := s.signTx(s.bobKey, s.bob, &s.bobSeq, testGasLimit,
		types.NewTransferMsg(s.alice, coins(t, feeDenom, 1)))
	require.Error(t, s.core.CheckTx(poor))

	// A well-funded, well-signed tx passes, and checking leaves no trace in
	// state.
	good := types.Tx{
		Sender:   s.alice,
		GasLimit: testGasLimit,
		Msgs:     []types.Message{types.NewTransferMsg(s.bob, coins(t, feeDenom, 1))},
		Data:     json.RawMessage(`{}`),
	}
	prehash, err := contracts.SignDocBytes(good.Msgs, s.alice, testChainID, s.aliceSeq)
	require.NoError(t, err)
	digest := sha256.Sum256(prehash)
	sig, err := ethcrypto.Sign(digest[:], s.aliceKey)
	require.NoError(t, err)
	good.Credential, err = contracts.BuildCredential(s.aliceSeq, sig[:64])
	require.NoError(t, err)

	require.NoError(t, s.core.CheckTx(good))
	require.EqualValues(t, initialMint, s.balance(s.alice), "CheckTx must not mutate state")
}

func TestScheduledCron(t *testing.T) {
	period := types.Duration(2 * time.Second.Nanoseconds())
	s := newSuite(t, period)

	base := s.now

	// One second in: not due yet.
	s.runBlockAt(base.Add(1 * time.Second))
	require.Nil(t, s.wasmRaw(s.tester1, []byte("cron_runs")))

	// Two seconds in: due, runs once, reschedules for +2s.
	outcome := s.runBlockAt(base.Add(2 * time.Second))
	require.Len(t, outcome.CronOutcomes, 1)
	require.Equal(t, types.StatusCommitted, outcome.CronOutcomes[0].Status)
	require.JSONEq(t, "1", string(s.wasmRaw(s.tester1, []byte("cron_runs"))))

	// Three seconds in: not due.
	outcome = s.runBlockAt(base.Add(3 * time.Second))
	require.Empty(t, outcome.CronOutcomes)

	// Four seconds in: due again.
	s.runBlockAt(base.Add(4 * time.Second))
	require.JSONEq(t, "2", string(s.wasmRaw(s.tester1, []byte("cron_runs"))))
}

func TestSimulateEstimatesGas(t *testing.T) {
	s := newSuite(t, 0)

	outcome, err := s.core.Simulate(types.UnsignedTx{
		Sender: s.alice,
		Msgs:   []types.Message{types.NewTransferMsg(s.bob, coins(t, feeDenom, 7))},
	})
	require.NoError(t, err)
	require.Equal(t, types.StatusCommitted, outcome.MsgOutcome.Status,
		"error: %s", outcome.MsgOutcome.Error())
	require.NotZero(t, outcome.MsgOutcome.GasUsed)
	require.Nil(t, outcome.MsgOutcome.GasLimit, "simulation runs without a limit")

	// Simulation does not touch state.
	require.EqualValues(t, initialMint, s.balance(s.alice))
	require.EqualValues(t, 0, s.balance(s.bob))
}

func TestHistoricalBalanceQuery(t *testing.T) {
	s := newSuite(t, 0)

	s.runBlock(s.signTx(s.aliceKey, s.alice, &s.aliceSeq, testGasLimit,
		types.NewTransferMsg(s.bob, coins(t, feeDenom, 100))))

	// At the genesis version, bob had nothing.
	genesisVersion := uint64(0)
	resp, err := s.core.Query(types.Query{Balance: &types.QueryBalance{Address: s.bob, Denom: feeDenom}}, &genesisVersion)
	require.NoError(t, err)
	require.True(t, resp.Balance.Amount.IsZero())

	// At the latest version he has the 100.
	require.EqualValues(t, 100, s.balance(s.bob))
}
