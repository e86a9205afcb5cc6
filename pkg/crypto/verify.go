// Copyright 2025 Grug Framework
//
// Signature verification primitives for the host API. All functions take a
// prehashed 32-byte message digest; hashing the message is the caller's job
// so different signing schemes can pick their own hashers.

package crypto

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"errors"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrInvalidSignature = errors.New("signature verification failed")
	ErrMalformedInput   = errors.New("malformed cryptographic input")
)

// Secp256k1Verify checks a 64-byte (r || s) signature over a 32-byte digest
// against a 33-byte compressed public key.
func Secp256k1Verify(msgHash, sig, pubKey []byte) error {
	if len(msgHash) != 32 || len(sig) != 64 || len(pubKey) != 33 {
		return ErrMalformedInput
	}
	if !ethcrypto.VerifySignature(pubKey, msgHash, sig) {
		return ErrInvalidSignature
	}
	return nil
}

// Secp256k1Recover recovers the compressed public key from a 65-byte
// (r || s || v) signature over a 32-byte digest.
func Secp256k1Recover(msgHash, sig []byte) ([]byte, error) {
	if len(msgHash) != 32 || len(sig) != 65 {
		return nil, ErrMalformedInput
	}
	uncompressed, err := ethcrypto.Ecrecover(msgHash, sig)
	if err != nil {
		return nil, ErrInvalidSignature
	}
	pub, err := ethcrypto.UnmarshalPubkey(uncompressed)
	if err != nil {
		return nil, ErrInvalidSignature
	}
	return ethcrypto.CompressPubkey(pub), nil
}

// Secp256r1Verify checks a 64-byte (r || s) signature over a 32-byte digest
// against a 33-byte compressed NIST P-256 public key.
func Secp256r1Verify(msgHash, sig, pubKey []byte) error {
	if len(msgHash) != 32 || len(sig) != 64 || len(pubKey) != 33 {
		return ErrMalformedInput
	}
	x, y := elliptic.UnmarshalCompressed(elliptic.P256(), pubKey)
	if x == nil {
		return ErrMalformedInput
	}
	pub := ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}
	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).SetBytes(sig[32:])
	if !ecdsa.Verify(&pub, msgHash, r, s) {
		return ErrInvalidSignature
	}
	return nil
}

// Ed25519Verify checks a 64-byte signature over a 32-byte digest against a
// 32-byte public key.
func Ed25519Verify(msgHash, sig, pubKey []byte) error {
	if len(msgHash) != 32 || len(sig) != ed25519.SignatureSize || len(pubKey) != ed25519.PublicKeySize {
		return ErrMalformedInput
	}
	if !ed25519.Verify(ed25519.PublicKey(pubKey), msgHash, sig) {
		return ErrInvalidSignature
	}
	return nil
}

// Ed25519BatchVerify checks several signatures over their digests. All
// slices must have equal length.
func Ed25519BatchVerify(msgHashes, sigs, pubKeys [][]byte) error {
	if len(msgHashes) != len(sigs) || len(sigs) != len(pubKeys) {
		return ErrMalformedInput
	}
	for i := range msgHashes {
		if err := Ed25519Verify(msgHashes[i], sigs[i], pubKeys[i]); err != nil {
			return err
		}
	}
	return nil
}
