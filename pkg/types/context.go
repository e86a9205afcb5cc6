// Copyright 2025 Grug Framework
//
// The typed bag of call context passed to every contract entry point.

package types

import (
	"encoding/json"
	"fmt"
)

// AuthMode designates why the transaction pipeline is calling the account or
// taxman contract.
type AuthMode int

const (
	// AuthModeSimulate: gas estimation; contracts typically skip signature
	// verification in this mode.
	AuthModeSimulate AuthMode = iota
	// AuthModeCheck: mempool admission (the CheckTx path).
	AuthModeCheck
	// AuthModeFinalize: the real thing, inside FinalizeBlock.
	AuthModeFinalize
)

func (m AuthMode) String() string {
	switch m {
	case AuthModeSimulate:
		return "simulate"
	case AuthModeCheck:
		return "check"
	case AuthModeFinalize:
		return "finalize"
	}
	return fmt.Sprintf("auth_mode(%d)", int(m))
}

func (m AuthMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *AuthMode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "simulate":
		*m = AuthModeSimulate
	case "check":
		*m = AuthModeCheck
	case "finalize":
		*m = AuthModeFinalize
	default:
		return fmt.Errorf("unknown auth mode %q", s)
	}
	return nil
}

// Context is the union of all entry-point context shapes. The host fills the
// fields appropriate for the entry point being invoked:
//
//   - Sender and Funds are present for instantiate/execute/receive, Sender
//     alone for migrate, neither for sudo-style calls (reply, cron, bank).
//   - Mode is present only for the auth entry points (authenticate, backrun,
//     withhold_fee, finalize_fee).
type Context struct {
	ChainID  string    `json:"chain_id"`
	Block    BlockInfo `json:"block"`
	Contract Addr      `json:"contract"`
	Sender   *Addr     `json:"sender,omitempty"`
	Funds    *Coins    `json:"funds,omitempty"`
	Mode     *AuthMode `json:"mode,omitempty"`
}
