// Copyright 2025 Grug Framework
//
// The host API: cryptography, address derivation, and debug printing
// offered to guest modules. Every call is metered.

package vm

import (
	"log"

	"github.com/grugnet/grug/pkg/crypto"
	"github.com/grugnet/grug/pkg/gas"
	"github.com/grugnet/grug/pkg/types"
)

// HostAPI is bound to one instance; it carries the instance's gas tracker
// so crypto work counts against the transaction's budget.
type HostAPI struct {
	gasTracker *gas.Tracker
	logger     *log.Logger
}

func NewHostAPI(gasTracker *gas.Tracker, logger *log.Logger) *HostAPI {
	if logger == nil {
		logger = log.New(log.Writer(), "[VM] ", log.LstdFlags)
	}
	return &HostAPI{gasTracker: gasTracker, logger: logger}
}

func (a *HostAPI) hashGas(name string, n int) error {
	return a.gasTracker.Consume(GasHashFlat+uint64(n)*GasHashPerByte, name)
}

func (a *HostAPI) Sha2_256(data []byte) ([32]byte, error) {
	if err := a.hashGas("sha2_256", len(data)); err != nil {
		return [32]byte{}, err
	}
	return crypto.Sha2_256(data), nil
}

func (a *HostAPI) Sha2_512(data []byte) ([64]byte, error) {
	if err := a.hashGas("sha2_512", len(data)); err != nil {
		return [64]byte{}, err
	}
	return crypto.Sha2_512(data), nil
}

func (a *HostAPI) Sha3_256(data []byte) ([32]byte, error) {
	if err := a.hashGas("sha3_256", len(data)); err != nil {
		return [32]byte{}, err
	}
	return crypto.Sha3_256(data), nil
}

func (a *HostAPI) Keccak256(data []byte) ([32]byte, error) {
	if err := a.hashGas("keccak256", len(data)); err != nil {
		return [32]byte{}, err
	}
	return crypto.Keccak256(data), nil
}

func (a *HostAPI) Blake2s_256(data []byte) ([32]byte, error) {
	if err := a.hashGas("blake2s_256", len(data)); err != nil {
		return [32]byte{}, err
	}
	return crypto.Blake2s_256(data), nil
}

func (a *HostAPI) Blake2b_512(data []byte) ([64]byte, error) {
	if err := a.hashGas("blake2b_512", len(data)); err != nil {
		return [64]byte{}, err
	}
	return crypto.Blake2b_512(data), nil
}

func (a *HostAPI) Secp256k1Verify(msgHash, sig, pubKey []byte) error {
	if err := a.gasTracker.Consume(GasSecp256k1Verify, "secp256k1_verify"); err != nil {
		return err
	}
	return crypto.Secp256k1Verify(msgHash, sig, pubKey)
}

func (a *HostAPI) Secp256k1Recover(msgHash, sig []byte) ([]byte, error) {
	if err := a.gasTracker.Consume(GasSecp256k1Recover, "secp256k1_recover"); err != nil {
		return nil, err
	}
	return crypto.Secp256k1Recover(msgHash, sig)
}

func (a *HostAPI) Secp256r1Verify(msgHash, sig, pubKey []byte) error {
	if err := a.gasTracker.Consume(GasSecp256r1Verify, "secp256r1_verify"); err != nil {
		return err
	}
	return crypto.Secp256r1Verify(msgHash, sig, pubKey)
}

func (a *HostAPI) Ed25519Verify(msgHash, sig, pubKey []byte) error {
	if err := a.gasTracker.Consume(GasEd25519Verify, "ed25519_verify"); err != nil {
		return err
	}
	return crypto.Ed25519Verify(msgHash, sig, pubKey)
}

func (a *HostAPI) Ed25519BatchVerify(msgHashes, sigs, pubKeys [][]byte) error {
	if err := a.gasTracker.Consume(uint64(len(msgHashes))*GasEd25519PerBatchItem, "ed25519_batch_verify"); err != nil {
		return err
	}
	return crypto.Ed25519BatchVerify(msgHashes, sigs, pubKeys)
}

func (a *HostAPI) DeriveAddr(sender types.Addr, codeHash types.Hash, salt []byte) (types.Addr, error) {
	if err := a.gasTracker.Consume(GasAddrDerive, "addr_derive"); err != nil {
		return types.Addr{}, err
	}
	return types.DeriveAddr(sender, codeHash, salt), nil
}

// Debug prints a guest message to the node's log. It has no effect on
// consensus.
func (a *HostAPI) Debug(contract types.Addr, msg string) error {
	if err := a.gasTracker.Consume(GasDebugFlat, "debug"); err != nil {
		return err
	}
	a.logger.Printf("Contract %s: %s", contract, msg)
	return nil
}
