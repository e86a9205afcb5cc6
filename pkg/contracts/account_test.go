// Copyright 2025 Grug Framework

package contracts

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/grugnet/grug/pkg/types"
)

func TestSignDocBytesDeterministic(t *testing.T) {
	coins, err := types.NewCoins(types.NewCoin("uusdc", 100))
	if err != nil {
		t.Fatalf("failed to build coins: %v", err)
	}
	msgs := []types.Message{types.NewTransferMsg(types.MockAddr(2), coins)}
	sender := types.MockAddr(1)

	first, err := SignDocBytes(msgs, sender, "grug-1", 7)
	if err != nil {
		t.Fatalf("sign doc failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := SignDocBytes(msgs, sender, "grug-1", 7)
		if !bytes.Equal(first, again) {
			t.Fatal("sign doc must be deterministic")
		}
	}

	// Chain id and sequence are bound into the bytes: changing either
	// changes the doc, which is what prevents cross-chain and replay reuse.
	otherChain, _ := SignDocBytes(msgs, sender, "grug-2", 7)
	if bytes.Equal(first, otherChain) {
		t.Error("chain id must affect the sign doc")
	}
	otherSeq, _ := SignDocBytes(msgs, sender, "grug-1", 8)
	if bytes.Equal(first, otherSeq) {
		t.Error("sequence must affect the sign doc")
	}
}

func TestCredentialRoundTrip(t *testing.T) {
	sig := make([]byte, 64)
	for i := range sig {
		sig[i] = byte(i)
	}
	raw, err := BuildCredential(3, sig)
	if err != nil {
		t.Fatalf("build credential failed: %v", err)
	}
	var cred AccountCredential
	if err := json.Unmarshal(raw, &cred); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if cred.Sequence != 3 || !bytes.Equal(cred.Signature, sig) {
		t.Error("credential round trip mismatch")
	}
}

func TestTaxmanFeeMath(t *testing.T) {
	// 1_000_000 gas at 10_000 ppm withholds 10_000; 123_456 gas charges
	// 1_235; the refund is the difference.
	withheld := types.NewUint128(1_000_000).MulDecCeil(10_000)
	charge := types.NewUint128(123_456).MulDecCeil(10_000)
	refund := withheld.SaturatingSub(charge)
	if withheld.String() != "10000" || charge.String() != "1235" || refund.String() != "8765" {
		t.Errorf("unexpected fee math: withheld %s, charge %s, refund %s", withheld, charge, refund)
	}
}
