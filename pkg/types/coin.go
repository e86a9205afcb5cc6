// Copyright 2025 Grug Framework
//
// Coin and Coins: token amounts keyed by denom, with deterministic ordering.

package types

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/holiman/uint256"
)

// maxAmountBits bounds coin amounts to unsigned 128-bit integers.
const maxAmountBits = 128

// Uint128 is an unsigned 128-bit token amount. It serializes to a decimal
// string in JSON so that large values survive every JSON parser.
type Uint128 struct {
	inner uint256.Int
}

func NewUint128(v uint64) Uint128 {
	var u Uint128
	u.inner.SetUint64(v)
	return u
}

// Uint128FromString parses a decimal string.
func Uint128FromString(s string) (Uint128, error) {
	var u Uint128
	if err := u.inner.SetFromDecimal(s); err != nil {
		return Uint128{}, fmt.Errorf("%w: %v", ErrInvalidCoin, err)
	}
	if u.inner.BitLen() > maxAmountBits {
		return Uint128{}, fmt.Errorf("%w: amount exceeds 128 bits", ErrInvalidCoin)
	}
	return u, nil
}

func (u Uint128) IsZero() bool {
	return u.inner.IsZero()
}

func (u Uint128) Uint64() uint64 {
	return u.inner.Uint64()
}

func (u Uint128) String() string {
	return u.inner.Dec()
}

func (u Uint128) Cmp(other Uint128) int {
	return u.inner.Cmp(&other.inner)
}

// Add returns u + other, erroring on 128-bit overflow.
func (u Uint128) Add(other Uint128) (Uint128, error) {
	var out Uint128
	out.inner.Add(&u.inner, &other.inner)
	if out.inner.BitLen() > maxAmountBits {
		return Uint128{}, fmt.Errorf("%w: addition overflow", ErrInvalidCoin)
	}
	return out, nil
}

// Sub returns u - other, erroring on underflow.
func (u Uint128) Sub(other Uint128) (Uint128, error) {
	if u.inner.Cmp(&other.inner) < 0 {
		return Uint128{}, fmt.Errorf("%w: subtraction underflow", ErrInvalidCoin)
	}
	var out Uint128
	out.inner.Sub(&u.inner, &other.inner)
	return out, nil
}

// SaturatingSub returns u - other, clamped at zero.
func (u Uint128) SaturatingSub(other Uint128) Uint128 {
	out, err := u.Sub(other)
	if err != nil {
		return Uint128{}
	}
	return out
}

// MulDecCeil multiplies by a rate expressed in parts per million, rounding up.
// This is how the taxman turns a gas amount into a fee amount.
func (u Uint128) MulDecCeil(ratePPM uint64) Uint128 {
	var prod, rate, million, rem uint256.Int
	rate.SetUint64(ratePPM)
	million.SetUint64(1_000_000)
	prod.Mul(&u.inner, &rate)
	var out Uint128
	out.inner.Div(&prod, &million)
	rem.Mod(&prod, &million)
	if !rem.IsZero() {
		var one uint256.Int
		one.SetUint64(1)
		out.inner.Add(&out.inner, &one)
	}
	return out
}

func (u Uint128) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

func (u *Uint128) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Uint128FromString(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// ValidateDenom checks that a denom is a non-empty, slash-separated path of
// ASCII-alphanumeric parts, e.g. "uusdc" or "hyp/eth/usdc".
func ValidateDenom(denom string) error {
	if denom == "" {
		return fmt.Errorf("%w: empty denom", ErrInvalidCoin)
	}
	for _, part := range strings.Split(denom, "/") {
		if part == "" {
			return fmt.Errorf("%w: empty denom path segment in %q", ErrInvalidCoin, denom)
		}
		for _, c := range part {
			if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
				return fmt.Errorf("%w: invalid character %q in denom %q", ErrInvalidCoin, c, denom)
			}
		}
	}
	return nil
}

// Coin is a single (denom, amount) pair.
type Coin struct {
	Denom  string  `json:"denom"`
	Amount Uint128 `json:"amount"`
}

func NewCoin(denom string, amount uint64) Coin {
	return Coin{Denom: denom, Amount: NewUint128(amount)}
}

func (c Coin) String() string {
	return c.Amount.String() + c.Denom
}

// Coins maps denoms to non-zero amounts. The zero value is an empty, usable
// set. Internally kept sorted ascending by denom so that iteration and
// serialization are deterministic.
type Coins struct {
	coins []Coin
}

// NewCoins builds a Coins set from the given coins, merging duplicates and
// dropping zero amounts.
func NewCoins(coins ...Coin) (Coins, error) {
	var out Coins
	for _, c := range coins {
		if err := out.Insert(c); err != nil {
			return Coins{}, err
		}
	}
	return out, nil
}

func (cs Coins) IsEmpty() bool {
	return len(cs.coins) == 0
}

func (cs Coins) Len() int {
	return len(cs.coins)
}

// AmountOf returns the amount of the given denom; zero if absent.
func (cs Coins) AmountOf(denom string) Uint128 {
	i := sort.Search(len(cs.coins), func(i int) bool { return cs.coins[i].Denom >= denom })
	if i < len(cs.coins) && cs.coins[i].Denom == denom {
		return cs.coins[i].Amount
	}
	return Uint128{}
}

// List returns the coins in ascending denom order. The caller must not
// mutate the returned slice.
func (cs Coins) List() []Coin {
	return cs.coins
}

// Insert adds a coin to the set, merging with an existing entry of the same
// denom. Zero amounts are ignored.
func (cs *Coins) Insert(c Coin) error {
	if err := ValidateDenom(c.Denom); err != nil {
		return err
	}
	if c.Amount.IsZero() {
		return nil
	}
	i := sort.Search(len(cs.coins), func(i int) bool { return cs.coins[i].Denom >= c.Denom })
	if i < len(cs.coins) && cs.coins[i].Denom == c.Denom {
		sum, err := cs.coins[i].Amount.Add(c.Amount)
		if err != nil {
			return err
		}
		cs.coins[i].Amount = sum
		return nil
	}
	cs.coins = append(cs.coins, Coin{})
	copy(cs.coins[i+1:], cs.coins[i:])
	cs.coins[i] = c
	return nil
}

// Deduct removes a coin amount from the set, erroring if the balance is
// insufficient. Entries that reach zero are dropped.
func (cs *Coins) Deduct(c Coin) error {
	i := sort.Search(len(cs.coins), func(i int) bool { return cs.coins[i].Denom >= c.Denom })
	if i >= len(cs.coins) || cs.coins[i].Denom != c.Denom {
		return fmt.Errorf("%w: no %s balance", ErrInvalidCoin, c.Denom)
	}
	rest, err := cs.coins[i].Amount.Sub(c.Amount)
	if err != nil {
		return err
	}
	if rest.IsZero() {
		cs.coins = append(cs.coins[:i], cs.coins[i+1:]...)
	} else {
		cs.coins[i].Amount = rest
	}
	return nil
}

func (cs Coins) String() string {
	parts := make([]string, len(cs.coins))
	for i, c := range cs.coins {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// MarshalJSON encodes the set as an object keyed by denom. encoding/json
// sorts map keys, so the wire form is deterministic.
func (cs Coins) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(cs.coins))
	for _, c := range cs.coins {
		m[c.Denom] = c.Amount.String()
	}
	return json.Marshal(m)
}

func (cs *Coins) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	out := Coins{}
	for denom, amount := range m {
		parsed, err := Uint128FromString(amount)
		if err != nil {
			return err
		}
		if parsed.IsZero() {
			return fmt.Errorf("%w: zero amount for denom %q", ErrInvalidCoin, denom)
		}
		if err := out.Insert(Coin{Denom: denom, Amount: parsed}); err != nil {
			return err
		}
	}
	*cs = out
	return nil
}
