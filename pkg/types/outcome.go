// Copyright 2025 Grug Framework
//
// Execution outcomes at the invocation, transaction, and block level.

package types

// CommitmentStatus describes whether a step's state changes ended up in the
// committed chain state.
type CommitmentStatus string

const (
	// StatusCommitted: the step succeeded and its writes are in state.
	StatusCommitted CommitmentStatus = "committed"
	// StatusFailed: the step errored and its writes were discarded.
	StatusFailed CommitmentStatus = "failed"
	// StatusReverted: the step succeeded, but a later part of the flow
	// (specifically finalize_fee) failed and forced its writes out.
	StatusReverted CommitmentStatus = "reverted"
	// StatusNotReached: an earlier part of the flow failed before this step.
	StatusNotReached CommitmentStatus = "not_reached"
)

// Outcome of executing one scope: a group of messages, a cronjob, or a fee
// step. GasLimit is nil for scopes run with unlimited gas.
type Outcome struct {
	GasLimit *uint64              `json:"gas_limit"`
	GasUsed  uint64               `json:"gas_used"`
	Status   CommitmentStatus     `json:"status"`
	Result   GenericResult[[]Event] `json:"result"`
}

// Events returns the committed events, or nil if the scope failed.
func (o Outcome) Events() []Event {
	if o.Result.Ok == nil {
		return nil
	}
	return *o.Result.Ok
}

// Error returns the failure message, empty on success.
func (o Outcome) Error() string {
	return o.Result.Err
}

// TxOutcome is the per-transaction result pair.
type TxOutcome struct {
	// MsgOutcome covers authenticate, the messages, and backrun.
	MsgOutcome Outcome `json:"msg_outcome"`
	// TaxOutcome covers withhold_fee and finalize_fee.
	TaxOutcome Outcome `json:"tax_outcome"`
}

// GasUsed is the total gas the transaction consumed across both outcomes.
func (t TxOutcome) GasUsed() uint64 {
	return t.MsgOutcome.GasUsed + t.TaxOutcome.GasUsed
}

// BlockOutcome is the result of executing one block.
type BlockOutcome struct {
	// AppHash is the state root after committing this block.
	AppHash Hash `json:"app_hash"`
	// CronOutcomes holds the results of the cronjobs, in execution order.
	CronOutcomes []Outcome `json:"cron_outcomes"`
	// TxOutcomes holds the results of the transactions, in delivery order.
	TxOutcomes []TxOutcome `json:"tx_outcomes"`
}
