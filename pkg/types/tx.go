// Copyright 2025 Grug Framework
//
// Transactions and the message sum type. Messages use an externally-tagged
// canonical JSON shape so that sign bytes are stable across implementations;
// unknown tags are rejected.

package types

import (
	"encoding/json"
	"fmt"
)

// Tx is an externally-originated transaction. Data and Credential are opaque
// blobs whose schemas are defined by the sender's account contract.
type Tx struct {
	Sender     Addr      `json:"sender"`
	GasLimit   uint64    `json:"gas_limit"`
	Msgs       []Message `json:"msgs"`
	Data       Json      `json:"data"`
	Credential Json      `json:"credential"`
}

// UnsignedTx is a transaction without a gas limit or credential, used for
// gas simulation.
type UnsignedTx struct {
	Sender Addr      `json:"sender"`
	Msgs   []Message `json:"msgs"`
}

// MsgConfigure replaces chain config fields and/or per-key app-config
// entries. Only the current owner may send it. A Null value in AppCfgs
// deletes that key.
type MsgConfigure struct {
	Cfg     *Config         `json:"cfg,omitempty"`
	AppCfgs map[string]Json `json:"app_cfgs,omitempty"`
}

// MsgTransfer sends coins to the given recipient.
type MsgTransfer struct {
	To    Addr  `json:"to"`
	Coins Coins `json:"coins"`
}

// MsgUpload stores a contract code under its hash. Idempotent.
type MsgUpload struct {
	Code Binary `json:"code"`
}

// MsgInstantiate registers a new account running the given code.
type MsgInstantiate struct {
	CodeHash Hash   `json:"code_hash"`
	Msg      Json   `json:"msg"`
	Salt     Binary `json:"salt"`
	Funds    Coins  `json:"funds"`
	Admin    *Addr  `json:"admin,omitempty"`
}

// MsgExecute calls a contract's execute entry point, optionally attaching
// funds which are transferred first.
type MsgExecute struct {
	Contract Addr  `json:"contract"`
	Msg      Json  `json:"msg"`
	Funds    Coins `json:"funds"`
}

// MsgMigrate updates the code hash of a contract. Only the admin may send it.
type MsgMigrate struct {
	Contract    Addr `json:"contract"`
	NewCodeHash Hash `json:"new_code_hash"`
	Msg         Json `json:"msg"`
}

// Message is the sum of all built-in message variants. Exactly one field is
// non-nil.
type Message struct {
	Configure   *MsgConfigure
	Transfer    *MsgTransfer
	Upload      *MsgUpload
	Instantiate *MsgInstantiate
	Execute     *MsgExecute
	Migrate     *MsgMigrate
}

func NewTransferMsg(to Addr, coins Coins) Message {
	return Message{Transfer: &MsgTransfer{To: to, Coins: coins}}
}

func NewUploadMsg(code []byte) Message {
	return Message{Upload: &MsgUpload{Code: code}}
}

func NewInstantiateMsg(codeHash Hash, msg Json, salt []byte, funds Coins, admin *Addr) Message {
	return Message{Instantiate: &MsgInstantiate{
		CodeHash: codeHash,
		Msg:      msg,
		Salt:     salt,
		Funds:    funds,
		Admin:    admin,
	}}
}

func NewExecuteMsg(contract Addr, msg Json, funds Coins) Message {
	return Message{Execute: &MsgExecute{Contract: contract, Msg: msg, Funds: funds}}
}

func NewMigrateMsg(contract Addr, newCodeHash Hash, msg Json) Message {
	return Message{Migrate: &MsgMigrate{Contract: contract, NewCodeHash: newCodeHash, Msg: msg}}
}

// Name returns the variant tag, for logs and events.
func (m Message) Name() string {
	switch {
	case m.Configure != nil:
		return "configure"
	case m.Transfer != nil:
		return "transfer"
	case m.Upload != nil:
		return "upload"
	case m.Instantiate != nil:
		return "instantiate"
	case m.Execute != nil:
		return "execute"
	case m.Migrate != nil:
		return "migrate"
	}
	return "empty"
}

func (m Message) MarshalJSON() ([]byte, error) {
	var (
		tag   string
		inner any
	)
	switch {
	case m.Configure != nil:
		tag, inner = "configure", m.Configure
	case m.Transfer != nil:
		tag, inner = "transfer", m.Transfer
	case m.Upload != nil:
		tag, inner = "upload", m.Upload
	case m.Instantiate != nil:
		tag, inner = "instantiate", m.Instantiate
	case m.Execute != nil:
		tag, inner = "execute", m.Execute
	case m.Migrate != nil:
		tag, inner = "migrate", m.Migrate
	default:
		return nil, fmt.Errorf("cannot serialize empty message")
	}
	return json.Marshal(map[string]any{tag: inner})
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if len(tagged) != 1 {
		return fmt.Errorf("message must have exactly one variant tag, got %d", len(tagged))
	}
	out := Message{}
	for tag, raw := range tagged {
		var err error
		switch tag {
		case "configure":
			out.Configure = &MsgConfigure{}
			err = json.Unmarshal(raw, out.Configure)
		case "transfer":
			out.Transfer = &MsgTransfer{}
			err = json.Unmarshal(raw, out.Transfer)
		case "upload":
			out.Upload = &MsgUpload{}
			err = json.Unmarshal(raw, out.Upload)
		case "instantiate":
			out.Instantiate = &MsgInstantiate{}
			err = json.Unmarshal(raw, out.Instantiate)
		case "execute":
			out.Execute = &MsgExecute{}
			err = json.Unmarshal(raw, out.Execute)
		case "migrate":
			out.Migrate = &MsgMigrate{}
			err = json.Unmarshal(raw, out.Migrate)
		default:
			return fmt.Errorf("unknown message variant %q", tag)
		}
		if err != nil {
			return err
		}
	}
	*m = out
	return nil
}
