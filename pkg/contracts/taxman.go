// Copyright 2025 Grug Framework
//
// The taxman contract: fee withholding and settlement. At the start of a
// transaction it force-transfers the worst-case fee (gas_limit x rate) from
// the sender to itself; at the end it refunds the difference against the
// gas actually used. Amounts round up, so the chain never undercharges.

package contracts

import (
	"encoding/json"
	"errors"

	"github.com/grugnet/grug/pkg/types"
	"github.com/grugnet/grug/pkg/vm"
)

var (
	taxmanConfigKey   = []byte("config")
	taxmanWithheldKey = []byte("withheld")
)

// TaxmanConfig is the fee configuration. FeeRatePPM is the fee per gas unit
// in parts per million of a coin, e.g. 10_000 means 0.01 per gas.
type TaxmanConfig struct {
	FeeDenom   string `json:"fee_denom"`
	FeeRatePPM uint64 `json:"fee_rate_ppm"`
}

// TaxmanInstantiateMsg sets the fee configuration.
type TaxmanInstantiateMsg struct {
	Config TaxmanConfig `json:"config"`
}

type withheldRecord struct {
	Config TaxmanConfig  `json:"config"`
	Amount types.Uint128 `json:"amount"`
}

// NewTaxman builds the native taxman contract.
func NewTaxman() *vm.NativeContract {
	return &vm.NativeContract{
		Name:        "taxman",
		Instantiate: wrap1(taxmanInstantiate),
		WithholdFee: wrap1(taxmanWithholdFee),
		FinalizeFee: wrap2(taxmanFinalizeFee),
		Receive:     wrap1(taxmanReceive),
		Query:       wrapQuery(taxmanQuery),
	}
}

func taxmanInstantiate(deps *vm.Deps, _ types.Context, msg []byte) (types.Response, error) {
	var init TaxmanInstantiateMsg
	if err := json.Unmarshal(msg, &init); err != nil {
		return types.Response{}, types.SerdeError{What: "taxman instantiate msg", Inner: err}
	}
	if err := types.ValidateDenom(init.Config.FeeDenom); err != nil {
		return types.Response{}, err
	}
	return types.NewResponse(), saveJSON(deps, taxmanConfigKey, init.Config)
}

func taxmanReceive(*vm.Deps, types.Context, []byte) (types.Response, error) {
	// Fee revenue arrives through force transfers; direct sends are fine too.
	return types.NewResponse(), nil
}

func taxmanWithholdFee(deps *vm.Deps, ctx types.Context, msg []byte) (types.Response, error) {
	var tx types.Tx
	if err := json.Unmarshal(msg, &tx); err != nil {
		return types.Response{}, types.SerdeError{What: "tx", Inner: err}
	}

	var cfg TaxmanConfig
	found, err := loadJSON(deps, taxmanConfigKey, &cfg)
	if err != nil {
		return types.Response{}, err
	}
	if !found {
		return types.Response{}, errors.New("taxman config not initialized")
	}

	// The worst case this tx can cost. Ceil, never floor. Nothing is
	// withheld in simulation mode.
	var withhold types.Uint128
	if ctx.Mode == nil || *ctx.Mode != types.AuthModeSimulate {
		withhold = types.NewUint128(tx.GasLimit).MulDecCeil(cfg.FeeRatePPM)
	}

	if err := saveJSON(deps, taxmanWithheldKey, withheldRecord{Config: cfg, Amount: withhold}); err != nil {
		return types.Response{}, err
	}

	resp := types.NewResponse().AddAttribute("withheld", withhold.String()+cfg.FeeDenom)
	if !withhold.IsZero() {
		// If the sender cannot cover the worst-case fee, this submessage
		// errors and the tx never enters the chain.
		chainCfg, err := chainConfig(deps)
		if err != nil {
			return types.Response{}, err
		}
		raw, err := json.Marshal(BankExecuteMsg{ForceTransfer: &struct {
			From   types.Addr    `json:"from"`
			To     types.Addr    `json:"to"`
			Denom  string        `json:"denom"`
			Amount types.Uint128 `json:"amount"`
		}{From: tx.Sender, To: ctx.Contract, Denom: cfg.FeeDenom, Amount: withhold}})
		if err != nil {
			return types.Response{}, err
		}
		resp = resp.AddMessage(types.NewExecuteMsg(chainCfg.Bank, raw, types.Coins{}))
	}
	return resp, nil
}

func taxmanFinalizeFee(deps *vm.Deps, ctx types.Context, msg1, msg2 []byte) (types.Response, error) {
	var tx types.Tx
	if err := json.Unmarshal(msg1, &tx); err != nil {
		return types.Response{}, types.SerdeError{What: "tx", Inner: err}
	}
	var outcome types.Outcome
	if err := json.Unmarshal(msg2, &outcome); err != nil {
		return types.Response{}, types.SerdeError{What: "outcome", Inner: err}
	}

	var rec withheldRecord
	found, err := loadJSON(deps, taxmanWithheldKey, &rec)
	if err != nil {
		return types.Response{}, err
	}
	if !found {
		return types.Response{}, errors.New("no withheld fee on record")
	}
	if err := deps.Storage.Remove(taxmanWithheldKey); err != nil {
		return types.Response{}, err
	}

	// Charge for the gas actually burned, again rounding up, and refund
	// the rest of what was withheld.
	var charge types.Uint128
	if ctx.Mode == nil || *ctx.Mode != types.AuthModeSimulate {
		charge = types.NewUint128(outcome.GasUsed).MulDecCeil(rec.Config.FeeRatePPM)
	}
	refund := rec.Amount.SaturatingSub(charge)

	resp := types.NewResponse().
		AddAttribute("charged", charge.String()+rec.Config.FeeDenom).
		AddAttribute("refunded", refund.String()+rec.Config.FeeDenom)

	if !refund.IsZero() {
		cfg, err := chainConfig(deps)
		if err != nil {
			return types.Response{}, err
		}
		raw, err := json.Marshal(BankExecuteMsg{ForceTransfer: &struct {
			From   types.Addr    `json:"from"`
			To     types.Addr    `json:"to"`
			Denom  string        `json:"denom"`
			Amount types.Uint128 `json:"amount"`
		}{From: ctx.Contract, To: tx.Sender, Denom: rec.Config.FeeDenom, Amount: refund}})
		if err != nil {
			return types.Response{}, err
		}
		resp = resp.AddMessage(types.NewExecuteMsg(cfg.Bank, raw, types.Coins{}))
	}
	return resp, nil
}

func taxmanQuery(deps *vm.Deps, _ types.Context, _ []byte) (types.Json, error) {
	var cfg TaxmanConfig
	found, err := loadJSON(deps, taxmanConfigKey, &cfg)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New("taxman config not initialized")
	}
	return json.Marshal(cfg)
}
