// Copyright 2025 Grug Framework
//
// Account addresses and the deterministic derivation scheme for contract
// accounts.

package types

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// AddrLen is the byte length of an account address.
const AddrLen = 32

// AddrNamespace is the single-byte domain separator prepended when deriving
// contract addresses and when prefixing contract storage keys.
var AddrNamespace = []byte("w")

// Addr is a 32-byte account identifier. Textual form is lowercase hex with a
// 0x prefix.
type Addr [AddrLen]byte

// DeriveAddr computes the address of a contract account instantiated by
// sender with the given code hash and salt:
//
//	addr = first_32_bytes(sha256("w" || sender || code_hash || salt))
func DeriveAddr(sender Addr, codeHash Hash, salt []byte) Addr {
	h := sha256.New()
	h.Write(AddrNamespace)
	h.Write(sender[:])
	h.Write(codeHash[:])
	h.Write(salt)
	var addr Addr
	copy(addr[:], h.Sum(nil))
	return addr
}

// MockAddr returns a deterministic address for tests: the index byte in the
// last position, everything else zero.
func MockAddr(index uint8) Addr {
	var addr Addr
	addr[AddrLen-1] = index
	return addr
}

// AddrFromBytes converts a raw 32-byte slice into an Addr.
func AddrFromBytes(b []byte) (Addr, error) {
	if len(b) != AddrLen {
		return Addr{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddr, AddrLen, len(b))
	}
	var addr Addr
	copy(addr[:], b)
	return addr, nil
}

// AddrFromHex parses the canonical textual form. The 0x prefix is optional.
func AddrFromHex(s string) (Addr, error) {
	if len(s) >= 2 && s[:2] == "0x" {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Addr{}, fmt.Errorf("%w: %v", ErrInvalidAddr, err)
	}
	return AddrFromBytes(b)
}

func (a Addr) Bytes() []byte {
	return a[:]
}

func (a Addr) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Addr) IsZero() bool {
	return a == Addr{}
}

func (a Addr) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Addr) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := AddrFromHex(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalText lets Addr be used as a JSON object key (e.g. the cronjobs map).
func (a Addr) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Addr) UnmarshalText(data []byte) error {
	parsed, err := AddrFromHex(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
