// Copyright 2025 Grug Framework
//
// Hash functions exposed to contracts through the host API.

package crypto

import (
	"crypto/sha256"
	"crypto/sha512"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/sha3"
)

func Sha2_256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

func Sha2_512(data []byte) [64]byte {
	return sha512.Sum512(data)
}

func Sha3_256(data []byte) [32]byte {
	return sha3.Sum256(data)
}

func Sha3_512(data []byte) [64]byte {
	return sha3.Sum512(data)
}

func Keccak256(data []byte) [32]byte {
	var out [32]byte
	copy(out[:], ethcrypto.Keccak256(data))
	return out
}

func Blake2s_256(data []byte) [32]byte {
	return blake2s.Sum256(data)
}

func Blake2b_512(data []byte) [64]byte {
	return blake2b.Sum512(data)
}
