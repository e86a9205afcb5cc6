// Copyright 2025 Grug Framework
//
// 32-byte digests used for code hashes and state roots.

package types

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HashLen is the byte length of every digest in the system.
const HashLen = 32

// Hash is a 32-byte digest. When produced by the commitment engine it is the
// state root at some height.
type Hash [HashLen]byte

// ZeroHash is the all-zero digest, used as the app hash of an empty chain.
var ZeroHash Hash

// HashOf returns the SHA-256 digest of data.
func HashOf(data []byte) Hash {
	return Hash(sha256.Sum256(data))
}

// HashFromBytes converts a raw 32-byte slice into a Hash.
func HashFromBytes(b []byte) (Hash, error) {
	if len(b) != HashLen {
		return Hash{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidHash, HashLen, len(b))
	}
	var h Hash
	copy(h[:], b)
	return h, nil
}

// HashFromHex parses a hex string, with or without a 0x prefix.
func HashFromHex(s string) (Hash, error) {
	if len(s) >= 2 && s[:2] == "0x" {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}
	return HashFromBytes(b)
}

func (h Hash) Bytes() []byte {
	return h[:]
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) IsZero() bool {
	return h == ZeroHash
}

func (h Hash) Equal(other Hash) bool {
	return bytes.Equal(h[:], other[:])
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.String())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := HashFromHex(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// MarshalText lets Hash be used as a JSON object key.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hash) UnmarshalText(data []byte) error {
	parsed, err := HashFromHex(string(data))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
