// Copyright 2025 Grug Framework
//
// Messages the chain itself sends to the bank contract through the
// bank_execute and bank_query entry points.

package types

// BankMsg instructs the bank contract to move coins. From and To may be any
// addresses; only the chain can send this message.
type BankMsg struct {
	From  Addr  `json:"from"`
	To    Addr  `json:"to"`
	Coins Coins `json:"coins"`
}

// BankQuery is the query sum the chain forwards to the bank contract.
// Exactly one field is non-nil.
type BankQuery struct {
	Balance  *QueryBalance  `json:"balance,omitempty"`
	Balances *QueryBalances `json:"balances,omitempty"`
	Supply   *QuerySupply   `json:"supply,omitempty"`
	Supplies *QuerySupplies `json:"supplies,omitempty"`
}

// BankQueryResponse mirrors BankQuery.
type BankQueryResponse struct {
	Balance  *Coin  `json:"balance,omitempty"`
	Balances *Coins `json:"balances,omitempty"`
	Supply   *Coin  `json:"supply,omitempty"`
	Supplies *Coins `json:"supplies,omitempty"`
}

// Account is the on-chain record of an addressable entity. An account exists
// iff there is a record for its address.
type Account struct {
	CodeHash Hash `json:"code_hash"`
	// Admin may migrate the account to a new code hash. None means the
	// account is immutable.
	Admin *Addr `json:"admin,omitempty"`
}
