// Copyright 2025 Grug Framework
//
// The canonical account contract: a single secp256k1 key with a sequence
// number. Authenticate verifies the transaction signature over the
// canonical sign doc; the sequence is included so a signature can be used
// exactly once, and the chain id so it cannot be replayed cross-chain.

package contracts

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/grugnet/grug/pkg/types"
	"github.com/grugnet/grug/pkg/vm"
)

var accountStateKey = []byte("state")

// AccountState is the persistent state of the account contract.
type AccountState struct {
	PublicKey types.Binary `json:"public_key"` // 33-byte compressed secp256k1
	Sequence  uint32       `json:"sequence"`
}

// AccountInstantiateMsg sets the key the account verifies against.
type AccountInstantiateMsg struct {
	PublicKey types.Binary `json:"public_key"`
}

// AccountCredential is the schema of Tx.Credential this account expects.
type AccountCredential struct {
	Sequence  uint32       `json:"sequence"`
	Signature types.Binary `json:"signature"` // 64-byte r || s
}

// AccountExecuteMsg rotates the key.
type AccountExecuteMsg struct {
	UpdateKey *struct {
		NewPublicKey types.Binary `json:"new_public_key"`
	} `json:"update_key,omitempty"`
}

// AccountStateQuery requests the account state.
type AccountStateQuery struct {
	State *struct{} `json:"state,omitempty"`
}

// SignDocBytes builds the prehash bytes the sender signs:
//
//	canonical_json(msgs) || sender || utf8(chain_id) || be_u32(sequence)
//
// The digest to sign is the SHA-256 of these bytes.
func SignDocBytes(msgs []types.Message, sender types.Addr, chainID string, sequence uint32) ([]byte, error) {
	msgsJSON, err := types.MarshalCanonical(msgs)
	if err != nil {
		return nil, err
	}
	var seq [4]byte
	binary.BigEndian.PutUint32(seq[:], sequence)

	prehash := make([]byte, 0, len(msgsJSON)+types.AddrLen+len(chainID)+4)
	prehash = append(prehash, msgsJSON...)
	prehash = append(prehash, sender.Bytes()...)
	prehash = append(prehash, []byte(chainID)...)
	prehash = append(prehash, seq[:]...)
	return prehash, nil
}

// NewAccount builds the native account contract.
func NewAccount() *vm.NativeContract {
	return &vm.NativeContract{
		Name:         "account",
		Instantiate:  wrap1(accountInstantiate),
		Execute:      wrap1(accountExecute),
		Authenticate: wrap1(accountAuthenticate),
		Backrun:      wrap1(accountBackrun),
		Receive:      wrap1(accountReceive),
		Query:        wrapQuery(accountQuery),
	}
}

func accountInstantiate(deps *vm.Deps, _ types.Context, msg []byte) (types.Response, error) {
	var init AccountInstantiateMsg
	if err := json.Unmarshal(msg, &init); err != nil {
		return types.Response{}, types.SerdeError{What: "account instantiate msg", Inner: err}
	}
	if len(init.PublicKey) != 33 {
		return types.Response{}, fmt.Errorf("public key must be 33 bytes, got %d", len(init.PublicKey))
	}
	return types.NewResponse(), saveJSON(deps, accountStateKey, AccountState{
		PublicKey: init.PublicKey,
		Sequence:  0,
	})
}

func accountAuthenticate(deps *vm.Deps, ctx types.Context, msg []byte) (types.Response, error) {
	var tx types.Tx
	if err := json.Unmarshal(msg, &tx); err != nil {
		return types.Response{}, types.SerdeError{What: "tx", Inner: err}
	}
	if len(tx.Msgs) == 0 {
		return types.Response{}, errors.New("transaction contains no messages")
	}

	var state AccountState
	found, err := loadJSON(deps, accountStateKey, &state)
	if err != nil {
		return types.Response{}, err
	}
	if !found {
		return types.Response{}, errors.New("account state not initialized")
	}

	simulate := ctx.Mode != nil && *ctx.Mode == types.AuthModeSimulate

	var cred AccountCredential
	if err := json.Unmarshal(tx.Credential, &cred); err != nil {
		return types.Response{}, types.SerdeError{What: "credential", Inner: err}
	}
	if !simulate && cred.Sequence != state.Sequence {
		return types.Response{}, fmt.Errorf("sequence mismatch: expected %d, got %d", state.Sequence, cred.Sequence)
	}

	// Skip the signature check in simulation mode; the caller has no
	// signature yet when estimating gas.
	if !simulate {
		prehash, err := SignDocBytes(tx.Msgs, tx.Sender, ctx.ChainID, cred.Sequence)
		if err != nil {
			return types.Response{}, err
		}
		digest, err := deps.API.Sha2_256(prehash)
		if err != nil {
			return types.Response{}, err
		}
		if err := deps.API.Secp256k1Verify(digest[:], cred.Signature, state.PublicKey); err != nil {
			return types.Response{}, fmt.Errorf("invalid signature: %w", err)
		}
	}

	// Record the used sequence. This write survives even if the messages
	// later fail, so a failed tx cannot be replayed.
	state.Sequence++
	if err := saveJSON(deps, accountStateKey, state); err != nil {
		return types.Response{}, err
	}
	return types.NewResponse().AddAttribute("sequence", fmt.Sprintf("%d", state.Sequence)), nil
}

func accountBackrun(*vm.Deps, types.Context, []byte) (types.Response, error) {
	return types.NewResponse(), nil
}

func accountReceive(*vm.Deps, types.Context, []byte) (types.Response, error) {
	// Plain accounts accept any incoming transfer.
	return types.NewResponse(), nil
}

func accountExecute(deps *vm.Deps, ctx types.Context, msg []byte) (types.Response, error) {
	var exec AccountExecuteMsg
	if err := json.Unmarshal(msg, &exec); err != nil {
		return types.Response{}, types.SerdeError{What: "account execute msg", Inner: err}
	}
	if exec.UpdateKey == nil {
		return types.Response{}, errors.New("unknown account execute message")
	}
	// Only the account itself (i.e. a message the key holder signed) may
	// rotate the key.
	if ctx.Sender == nil || *ctx.Sender != ctx.Contract {
		return types.Response{}, fmt.Errorf("%w: only the account itself may update its key", types.ErrUnauthorized)
	}
	if len(exec.UpdateKey.NewPublicKey) != 33 {
		return types.Response{}, errors.New("public key must be 33 bytes")
	}
	var state AccountState
	if _, err := loadJSON(deps, accountStateKey, &state); err != nil {
		return types.Response{}, err
	}
	state.PublicKey = exec.UpdateKey.NewPublicKey
	return types.NewResponse().AddAttribute("updated", "public_key"), saveJSON(deps, accountStateKey, state)
}

func accountQuery(deps *vm.Deps, _ types.Context, msg []byte) (types.Json, error) {
	var query AccountStateQuery
	if err := json.Unmarshal(msg, &query); err != nil {
		return nil, types.SerdeError{What: "account query", Inner: err}
	}
	if query.State == nil {
		return nil, errors.New("unknown account query")
	}
	var state AccountState
	found, err := loadJSON(deps, accountStateKey, &state)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errors.New("account state not initialized")
	}
	return json.Marshal(state)
}

// Signer produces a signature over a digest. The signature layout this
// account verifies is r || s.
type Signer interface {
	Sign(digest []byte) ([]byte, error)
}

// BuildCredential assembles the credential JSON from a signature.
func BuildCredential(sequence uint32, signature []byte) (types.Json, error) {
	return json.Marshal(AccountCredential{
		Sequence:  sequence,
		Signature: signature,
	})
}

// encodeBase64 renders bytes in the base64 form Binary fields use in JSON.
// Nothing in the repository calls it.
func encodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
