// Copyright 2025 Grug Framework
//
// The typed chain-query surface exposed to contracts and external clients.

package types

import (
	"encoding/json"
	"fmt"
)

// QueryInfo requests chain id, config, and the last finalized block.
type QueryInfo struct{}

// QueryAppConfig requests one app-level config entry by key.
type QueryAppConfig struct {
	Key string `json:"key"`
}

// QueryCode requests the raw bytes of a code by hash.
type QueryCode struct {
	Hash Hash `json:"hash"`
}

// QueryAccount requests the metadata of an account.
type QueryAccount struct {
	Address Addr `json:"address"`
}

// QueryWasmRaw reads one raw key from a contract's storage namespace.
type QueryWasmRaw struct {
	Contract Addr   `json:"contract"`
	Key      Binary `json:"key"`
}

// QueryWasmSmart invokes a contract's query entry point with an immutable
// store. Recursion is depth-bounded.
type QueryWasmSmart struct {
	Contract Addr `json:"contract"`
	Msg      Json `json:"msg"`
}

// QueryBalance asks the bank contract for one balance.
type QueryBalance struct {
	Address Addr   `json:"address"`
	Denom   string `json:"denom"`
}

// QueryBalances asks the bank contract for all balances of an address.
type QueryBalances struct {
	Address Addr `json:"address"`
}

// QuerySupply asks the bank contract for the total supply of one denom.
type QuerySupply struct {
	Denom string `json:"denom"`
}

// QuerySupplies asks the bank contract for all supplies.
type QuerySupplies struct{}

// Query is the request sum type. Exactly one field is non-nil.
type Query struct {
	Info      *QueryInfo
	AppConfig *QueryAppConfig
	Code      *QueryCode
	Account   *QueryAccount
	WasmRaw   *QueryWasmRaw
	WasmSmart *QueryWasmSmart
	Balance   *QueryBalance
	Balances  *QueryBalances
	Supply    *QuerySupply
	Supplies  *QuerySupplies
}

// InfoResponse answers QueryInfo.
type InfoResponse struct {
	ChainID            string    `json:"chain_id"`
	Config             Config    `json:"config"`
	LastFinalizedBlock BlockInfo `json:"last_finalized_block"`
}

// AccountResponse answers QueryAccount.
type AccountResponse struct {
	Address  Addr  `json:"address"`
	CodeHash Hash  `json:"code_hash"`
	Admin    *Addr `json:"admin,omitempty"`
}

// QueryResponse is the response sum type, mirroring Query.
type QueryResponse struct {
	Info      *InfoResponse    `json:"info,omitempty"`
	AppConfig Json             `json:"app_config,omitempty"`
	Code      Binary           `json:"code,omitempty"`
	Account   *AccountResponse `json:"account,omitempty"`
	WasmRaw   Binary           `json:"wasm_raw,omitempty"`
	WasmSmart Json             `json:"wasm_smart,omitempty"`
	Balance   *Coin            `json:"balance,omitempty"`
	Balances  *Coins           `json:"balances,omitempty"`
	Supply    *Coin            `json:"supply,omitempty"`
	Supplies  *Coins           `json:"supplies,omitempty"`
}

func (q Query) MarshalJSON() ([]byte, error) {
	var (
		tag   string
		inner any
	)
	switch {
	case q.Info != nil:
		tag, inner = "info", q.Info
	case q.AppConfig != nil:
		tag, inner = "app_config", q.AppConfig
	case q.Code != nil:
		tag, inner = "code", q.Code
	case q.Account != nil:
		tag, inner = "account", q.Account
	case q.WasmRaw != nil:
		tag, inner = "wasm_raw", q.WasmRaw
	case q.WasmSmart != nil:
		tag, inner = "wasm_smart", q.WasmSmart
	case q.Balance != nil:
		tag, inner = "balance", q.Balance
	case q.Balances != nil:
		tag, inner = "balances", q.Balances
	case q.Supply != nil:
		tag, inner = "supply", q.Supply
	case q.Supplies != nil:
		tag, inner = "supplies", q.Supplies
	default:
		return nil, fmt.Errorf("cannot serialize empty query")
	}
	return json.Marshal(map[string]any{tag: inner})
}

func (q *Query) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if len(tagged) != 1 {
		return fmt.Errorf("query must have exactly one variant tag, got %d", len(tagged))
	}
	out := Query{}
	for tag, raw := range tagged {
		var err error
		switch tag {
		case "info":
			out.Info = &QueryInfo{}
			err = json.Unmarshal(raw, out.Info)
		case "app_config":
			out.AppConfig = &QueryAppConfig{}
			err = json.Unmarshal(raw, out.AppConfig)
		case "code":
			out.Code = &QueryCode{}
			err = json.Unmarshal(raw, out.Code)
		case "account":
			out.Account = &QueryAccount{}
			err = json.Unmarshal(raw, out.Account)
		case "wasm_raw":
			out.WasmRaw = &QueryWasmRaw{}
			err = json.Unmarshal(raw, out.WasmRaw)
		case "wasm_smart":
			out.WasmSmart = &QueryWasmSmart{}
			err = json.Unmarshal(raw, out.WasmSmart)
		case "balance":
			out.Balance = &QueryBalance{}
			err = json.Unmarshal(raw, out.Balance)
		case "balances":
			out.Balances = &QueryBalances{}
			err = json.Unmarshal(raw, out.Balances)
		case "supply":
			out.Supply = &QuerySupply{}
			err = json.Unmarshal(raw, out.Supply)
		case "supplies":
			out.Supplies = &QuerySupplies{}
			err = json.Unmarshal(raw, out.Supplies)
		default:
			return fmt.Errorf("unknown query variant %q", tag)
		}
		if err != nil {
			return err
		}
	}
	*q = out
	return nil
}
