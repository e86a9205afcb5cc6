// Copyright 2025 Grug Framework
//
// The bank contract: token balances and supplies. All token bookkeeping of
// the chain lives in this contract's namespace; the core routes Transfer
// messages through its bank_execute entry point and balance queries through
// bank_query.
//
// ====== Key Layout ======
//
//	b/<addr><denom> -> decimal amount
//	s/<denom>       -> decimal amount (total supply)

package contracts

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/grugnet/grug/pkg/store"
	"github.com/grugnet/grug/pkg/types"
	"github.com/grugnet/grug/pkg/vm"
)

var (
	bankPrefixBalance = []byte("b/")
	bankPrefixSupply  = []byte("s/")
)

func balanceKey(addr types.Addr, denom string) []byte {
	return append(store.Concat(bankPrefixBalance, addr.Bytes()), []byte(denom)...)
}

func supplyKey(denom string) []byte {
	return store.Concat(bankPrefixSupply, []byte(denom))
}

// BankInstantiateMsg seeds initial balances (genesis mints).
type BankInstantiateMsg struct {
	InitialBalances map[types.Addr]types.Coins `json:"initial_balances"`
}

// BankExecuteMsg is the execute sum of the bank contract.
type BankExecuteMsg struct {
	Mint *struct {
		To     types.Addr    `json:"to"`
		Denom  string        `json:"denom"`
		Amount types.Uint128 `json:"amount"`
	} `json:"mint,omitempty"`
	Burn *struct {
		From   types.Addr    `json:"from"`
		Denom  string        `json:"denom"`
		Amount types.Uint128 `json:"amount"`
	} `json:"burn,omitempty"`
	ForceTransfer *struct {
		From   types.Addr    `json:"from"`
		To     types.Addr    `json:"to"`
		Denom  string        `json:"denom"`
		Amount types.Uint128 `json:"amount"`
	} `json:"force_transfer,omitempty"`
}

// NewBank builds the native bank contract.
func NewBank() *vm.NativeContract {
	return &vm.NativeContract{
		Name:        "bank",
		Instantiate: wrap1(bankInstantiate),
		Execute:     wrap1(bankExecute),
		BankExecute: wrap1(bankSudoExecute),
		BankQuery:   wrapQuery(bankQuery),
		Query:       wrapQuery(bankQuery),
		Receive:     wrap1(bankReceive),
	}
}

func bankInstantiate(deps *vm.Deps, _ types.Context, msg []byte) (types.Response, error) {
	var init BankInstantiateMsg
	if err := json.Unmarshal(msg, &init); err != nil {
		return types.Response{}, types.SerdeError{What: "bank instantiate msg", Inner: err}
	}
	for addr, coins := range init.InitialBalances {
		for _, coin := range coins.List() {
			if err := bankMint(deps, addr, coin.Denom, coin.Amount); err != nil {
				return types.Response{}, err
			}
		}
	}
	return types.NewResponse(), nil
}

func bankReceive(*vm.Deps, types.Context, []byte) (types.Response, error) {
	// Nobody should be sending funds to the bank contract itself.
	return types.Response{}, errors.New("the bank does not accept transfers")
}

func bankExecute(deps *vm.Deps, ctx types.Context, msg []byte) (types.Response, error) {
	var exec BankExecuteMsg
	if err := json.Unmarshal(msg, &exec); err != nil {
		return types.Response{}, types.SerdeError{What: "bank execute msg", Inner: err}
	}
	switch {
	case exec.Mint != nil:
		if err := bankOnlyOwner(deps, ctx); err != nil {
			return types.Response{}, err
		}
		return types.NewResponse().AddAttribute("minted", exec.Mint.Amount.String()+exec.Mint.Denom),
			bankMint(deps, exec.Mint.To, exec.Mint.Denom, exec.Mint.Amount)
	case exec.Burn != nil:
		if err := bankOnlyOwner(deps, ctx); err != nil {
			return types.Response{}, err
		}
		return types.NewResponse().AddAttribute("burned", exec.Burn.Amount.String()+exec.Burn.Denom),
			bankBurn(deps, exec.Burn.From, exec.Burn.Denom, exec.Burn.Amount)
	case exec.ForceTransfer != nil:
		// Only the taxman may move funds without the owner's signature;
		// this is what fee withholding and refunding run on.
		cfg, err := chainConfig(deps)
		if err != nil {
			return types.Response{}, err
		}
		if ctx.Sender == nil || *ctx.Sender != cfg.Taxman {
			return types.Response{}, fmt.Errorf("%w: only the taxman may force-transfer", types.ErrUnauthorized)
		}
		ft := exec.ForceTransfer
		if err := bankMove(deps, ft.From, ft.To, ft.Denom, ft.Amount); err != nil {
			return types.Response{}, err
		}
		return types.NewResponse(), nil
	default:
		return types.Response{}, errors.New("unknown bank execute message")
	}
}

// bankOnlyOwner gates mint/burn to the chain owner.
func bankOnlyOwner(deps *vm.Deps, ctx types.Context) error {
	cfg, err := chainConfig(deps)
	if err != nil {
		return err
	}
	if cfg.Owner == nil || ctx.Sender == nil || *ctx.Sender != *cfg.Owner {
		return fmt.Errorf("%w: only the chain owner may mint or burn", types.ErrUnauthorized)
	}
	return nil
}

// bankSudoExecute handles the chain-initiated bank_execute entry point.
func bankSudoExecute(deps *vm.Deps, _ types.Context, msg []byte) (types.Response, error) {
	var bankMsg types.BankMsg
	if err := json.Unmarshal(msg, &bankMsg); err != nil {
		return types.Response{}, types.SerdeError{What: "bank msg", Inner: err}
	}
	for _, coin := range bankMsg.Coins.List() {
		if err := bankMove(deps, bankMsg.From, bankMsg.To, coin.Denom, coin.Amount); err != nil {
			return types.Response{}, err
		}
	}
	return types.NewResponse(), nil
}

func bankQuery(deps *vm.Deps, _ types.Context, msg []byte) (types.Json, error) {
	var query types.BankQuery
	if err := json.Unmarshal(msg, &query); err != nil {
		return nil, types.SerdeError{What: "bank query", Inner: err}
	}
	var resp types.BankQueryResponse
	switch {
	case query.Balance != nil:
		amount, err := bankBalance(deps, query.Balance.Address, query.Balance.Denom)
		if err != nil {
			return nil, err
		}
		resp.Balance = &types.Coin{Denom: query.Balance.Denom, Amount: amount}
	case query.Balances != nil:
		coins, err := bankCollect(deps, store.Concat(bankPrefixBalance, query.Balances.Address.Bytes()))
		if err != nil {
			return nil, err
		}
		resp.Balances = &coins
	case query.Supply != nil:
		amount, err := bankAmountAt(deps, supplyKey(query.Supply.Denom))
		if err != nil {
			return nil, err
		}
		resp.Supply = &types.Coin{Denom: query.Supply.Denom, Amount: amount}
	case query.Supplies != nil:
		coins, err := bankCollect(deps, bankPrefixSupply)
		if err != nil {
			return nil, err
		}
		resp.Supplies = &coins
	default:
		return nil, errors.New("unknown bank query")
	}
	return json.Marshal(resp)
}

// ------------------------------ bookkeeping -------------------------------

func bankAmountAt(deps *vm.Deps, key []byte) (types.Uint128, error) {
	raw, err := deps.Storage.Read(key)
	if err != nil {
		return types.Uint128{}, err
	}
	if raw == nil {
		return types.Uint128{}, nil
	}
	return types.Uint128FromString(string(raw))
}

func bankSetAmount(deps *vm.Deps, key []byte, amount types.Uint128) error {
	if amount.IsZero() {
		return deps.Storage.Remove(key)
	}
	return deps.Storage.Write(key, []byte(amount.String()))
}

func bankBalance(deps *vm.Deps, addr types.Addr, denom string) (types.Uint128, error) {
	return bankAmountAt(deps, balanceKey(addr, denom))
}

func bankMint(deps *vm.Deps, to types.Addr, denom string, amount types.Uint128) error {
	if err := types.ValidateDenom(denom); err != nil {
		return err
	}
	balance, err := bankAmountAt(deps, balanceKey(to, denom))
	if err != nil {
		return err
	}
	newBalance, err := balance.Add(amount)
	if err != nil {
		return err
	}
	if err := bankSetAmount(deps, balanceKey(to, denom), newBalance); err != nil {
		return err
	}
	supply, err := bankAmountAt(deps, supplyKey(denom))
	if err != nil {
		return err
	}
	newSupply, err := supply.Add(amount)
	if err != nil {
		return err
	}
	return bankSetAmount(deps, supplyKey(denom), newSupply)
}

func bankBurn(deps *vm.Deps, from types.Addr, denom string, amount types.Uint128) error {
	balance, err := bankAmountAt(deps, balanceKey(from, denom))
	if err != nil {
		return err
	}
	newBalance, err := balance.Sub(amount)
	if err != nil {
		return fmt.Errorf("insufficient %s balance of %s: %w", denom, from, err)
	}
	if err := bankSetAmount(deps, balanceKey(from, denom), newBalance); err != nil {
		return err
	}
	supply, err := bankAmountAt(deps, supplyKey(denom))
	if err != nil {
		return err
	}
	newSupply, err := supply.Sub(amount)
	if err != nil {
		return err
	}
	return bankSetAmount(deps, supplyKey(denom), newSupply)
}

func bankMove(deps *vm.Deps, from, to types.Addr, denom string, amount types.Uint128) error {
	if amount.IsZero() {
		return nil
	}
	fromBalance, err := bankAmountAt(deps, balanceKey(from, denom))
	if err != nil {
		return err
	}
	newFrom, err := fromBalance.Sub(amount)
	if err != nil {
		return fmt.Errorf("insufficient %s balance of %s: %w", denom, from, err)
	}
	if err := bankSetAmount(deps, balanceKey(from, denom), newFrom); err != nil {
		return err
	}
	toBalance, err := bankAmountAt(deps, balanceKey(to, denom))
	if err != nil {
		return err
	}
	newTo, err := toBalance.Add(amount)
	if err != nil {
		return err
	}
	return bankSetAmount(deps, balanceKey(to, denom), newTo)
}

// bankCollect walks a prefix and accumulates (denom, amount) entries.
func bankCollect(deps *vm.Deps, prefix []byte) (types.Coins, error) {
	// Bounds are relative to the contract's own namespace.
	iterID, err := deps.Storage.Scan(prefix, store.IncrementLastByte(prefix), types.Ascending)
	if err != nil {
		return types.Coins{}, err
	}
	var coins types.Coins
	for {
		rec, ok, err := deps.Storage.Next(iterID)
		if err != nil {
			return types.Coins{}, err
		}
		if !ok {
			break
		}
		denom := string(rec.Key[len(prefix):])
		amount, err := types.Uint128FromString(string(rec.Value))
		if err != nil {
			return types.Coins{}, err
		}
		if err := coins.Insert(types.Coin{Denom: denom, Amount: amount}); err != nil {
			return types.Coins{}, err
		}
	}
	return coins, nil
}
