// Copyright 2025 Grug Framework

package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMessageRoundTrip(t *testing.T) {
	admin := MockAddr(9)
	coins, _ := NewCoins(NewCoin("uusdc", 123))
	msgs := []Message{
		NewTransferMsg(MockAddr(1), coins),
		NewUploadMsg([]byte("some code")),
		NewInstantiateMsg(HashOf([]byte("code")), Json(`{"a":1}`), []byte("salt"), coins, &admin),
		NewExecuteMsg(MockAddr(2), Json(`{"do":"it"}`), Coins{}),
		NewMigrateMsg(MockAddr(3), HashOf([]byte("new code")), Json(`null`)),
	}
	for _, msg := range msgs {
		raw, err := json.Marshal(msg)
		if err != nil {
			t.Fatalf("marshal %s failed: %v", msg.Name(), err)
		}
		var decoded Message
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("unmarshal %s failed: %v", msg.Name(), err)
		}
		again, err := json.Marshal(decoded)
		if err != nil {
			t.Fatalf("re-marshal %s failed: %v", msg.Name(), err)
		}
		if string(raw) != string(again) {
			t.Errorf("%s round trip mismatch:\n%s\n%s", msg.Name(), raw, again)
		}
	}
}

func TestMessageVariantTag(t *testing.T) {
	raw, _ := json.Marshal(NewUploadMsg([]byte("abc")))
	if !strings.Contains(string(raw), `"upload"`) {
		t.Errorf("expected externally tagged form, got %s", raw)
	}
}

func TestMessageRejectsUnknownTag(t *testing.T) {
	var msg Message
	if err := json.Unmarshal([]byte(`{"teleport":{}}`), &msg); err == nil {
		t.Error("unknown variant must be rejected")
	}
}

func TestMessageRejectsMultipleTags(t *testing.T) {
	var msg Message
	raw := `{"upload":{"code":"YWJj"},"transfer":{"to":"0x` + strings.Repeat("00", 32) + `","coins":{}}}`
	if err := json.Unmarshal([]byte(raw), &msg); err == nil {
		t.Error("multiple variant tags must be rejected")
	}
}

func TestReplyOnRoundTrip(t *testing.T) {
	cases := []ReplyOn{
		ReplyOnNever(),
		ReplyOnSuccess(Json(`"p1"`)),
		ReplyOnError(Json(`{"x":2}`)),
		ReplyOnAlways(Json(`null`)),
	}
	for _, replyOn := range cases {
		raw, err := json.Marshal(replyOn)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		var decoded ReplyOn
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("unmarshal %s failed: %v", raw, err)
		}
		if decoded.Kind != replyOn.Kind {
			t.Errorf("kind mismatch for %s", raw)
		}
	}
}

func TestPermissionRoundTrip(t *testing.T) {
	cases := []Permission{
		PermissionNobody(),
		PermissionEverybody(),
		PermissionSomebodies(MockAddr(1), MockAddr(2)),
	}
	for _, perm := range cases {
		raw, err := json.Marshal(perm)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		var decoded Permission
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("unmarshal %s failed: %v", raw, err)
		}
		if decoded.Allows(MockAddr(1)) != perm.Allows(MockAddr(1)) {
			t.Errorf("permission semantics changed through round trip: %s", raw)
		}
	}
}

func TestPermissionAllows(t *testing.T) {
	if PermissionNobody().Allows(MockAddr(1)) {
		t.Error("nobody must deny")
	}
	if !PermissionEverybody().Allows(MockAddr(1)) {
		t.Error("everybody must allow")
	}
	somebodies := PermissionSomebodies(MockAddr(1))
	if !somebodies.Allows(MockAddr(1)) || somebodies.Allows(MockAddr(2)) {
		t.Error("somebodies must allow only the listed addresses")
	}
}

func TestCanonicalJSONSortsKeys(t *testing.T) {
	out, err := CanonicalJSON([]byte(`{"b":1,"a":{"z":2,"y":[3,{"q":4,"p":5}]}}`))
	if err != nil {
		t.Fatalf("canonicalize failed: %v", err)
	}
	expected := `{"a":{"y":[3,{"p":5,"q":4}],"z":2},"b":1}`
	if string(out) != expected {
		t.Errorf("expected %s, got %s", expected, out)
	}
}
