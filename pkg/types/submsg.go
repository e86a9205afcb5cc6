// Copyright 2025 Grug Framework
//
// Submessages: the unit of scheduled nested work inside a contract response,
// with the reply policy that gives contracts composable try/catch.

package types

import (
	"encoding/json"
	"fmt"
)

// ReplyOnKind selects when the scheduler calls the parent's reply entry
// point after processing a submessage.
type ReplyOnKind int

const (
	// ReplyNever: no callback; an inner error aborts the parent.
	ReplyNever ReplyOnKind = iota
	// ReplySuccess: callback on success; an inner error aborts the parent.
	ReplySuccess
	// ReplyError: callback on error (state reverted); success continues
	// without a callback.
	ReplyError
	// ReplyAlways: callback on both outcomes.
	ReplyAlways
)

// ReplyOn is the reply policy plus the payload echoed back to the parent.
type ReplyOn struct {
	Kind    ReplyOnKind
	Payload Json
}

func ReplyOnNever() ReplyOn {
	return ReplyOn{Kind: ReplyNever}
}

func ReplyOnSuccess(payload Json) ReplyOn {
	return ReplyOn{Kind: ReplySuccess, Payload: payload}
}

func ReplyOnError(payload Json) ReplyOn {
	return ReplyOn{Kind: ReplyError, Payload: payload}
}

func ReplyOnAlways(payload Json) ReplyOn {
	return ReplyOn{Kind: ReplyAlways, Payload: payload}
}

func (r ReplyOn) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ReplyNever:
		return json.Marshal("never")
	case ReplySuccess:
		return json.Marshal(map[string]Json{"success": r.Payload})
	case ReplyError:
		return json.Marshal(map[string]Json{"error": r.Payload})
	case ReplyAlways:
		return json.Marshal(map[string]Json{"always": r.Payload})
	}
	return nil, fmt.Errorf("unknown reply_on kind %d", r.Kind)
}

func (r *ReplyOn) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "never" {
			return fmt.Errorf("unknown reply_on %q", s)
		}
		*r = ReplyOnNever()
		return nil
	}
	var tagged map[string]Json
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if len(tagged) != 1 {
		return fmt.Errorf("reply_on must have exactly one variant tag")
	}
	for tag, payload := range tagged {
		switch tag {
		case "success":
			*r = ReplyOnSuccess(payload)
		case "error":
			*r = ReplyOnError(payload)
		case "always":
			*r = ReplyOnAlways(payload)
		default:
			return fmt.Errorf("unknown reply_on variant %q", tag)
		}
	}
	return nil
}

// SubMessage is a message emitted by a contract, to be processed depth-first
// with its own commit/revert scope.
type SubMessage struct {
	Msg     Message `json:"msg"`
	ReplyOn ReplyOn `json:"reply_on"`
}

// ReplyResult is what the reply entry point receives: the inner outcome and
// the payload from the reply policy.
type ReplyResult struct {
	// Events is set on success.
	Events []Event `json:"events,omitempty"`
	// Error is set on failure.
	Error string `json:"error,omitempty"`
	// Payload echoes ReplyOn.Payload.
	Payload Json `json:"payload,omitempty"`
}

func (r ReplyResult) IsOk() bool {
	return r.Error == ""
}
