// Copyright 2025 Grug Framework

package types

import (
	"encoding/json"
	"fmt"
)

// Response is what a state-mutating entry point returns: submessages to be
// scheduled, and attributes recorded on the invocation's event.
type Response struct {
	SubMsgs    []SubMessage `json:"sub_msgs,omitempty"`
	Attributes []Attribute  `json:"attributes,omitempty"`
}

func NewResponse() Response {
	return Response{}
}

// AddMessage appends a fire-and-forget submessage (reply_on = never).
func (r Response) AddMessage(msg Message) Response {
	r.SubMsgs = append(r.SubMsgs, SubMessage{Msg: msg, ReplyOn: ReplyOnNever()})
	return r
}

// AddSubMessage appends a submessage with an explicit reply policy.
func (r Response) AddSubMessage(sub SubMessage) Response {
	r.SubMsgs = append(r.SubMsgs, sub)
	return r
}

// AddAttribute records a key/value pair on the invocation's event.
func (r Response) AddAttribute(key, value string) Response {
	r.Attributes = append(r.Attributes, Attr(key, value))
	return r
}

// GenericResult is the serialized Ok/Err envelope every entry point returns
// across the VM boundary.
type GenericResult[T any] struct {
	Ok  *T     `json:"ok,omitempty"`
	Err string `json:"err,omitempty"`
}

func Ok[T any](value T) GenericResult[T] {
	return GenericResult[T]{Ok: &value}
}

func Err[T any](err error) GenericResult[T] {
	return GenericResult[T]{Err: err.Error()}
}

// Unwrap returns the Ok value, or an error carrying the guest's message.
func (r GenericResult[T]) Unwrap() (T, error) {
	if r.Err != "" {
		var zero T
		return zero, fmt.Errorf("contract returned error: %s", r.Err)
	}
	if r.Ok == nil {
		var zero T
		return zero, fmt.Errorf("contract returned neither ok nor err")
	}
	return *r.Ok, nil
}

// MarshalResult serializes a GenericResult for the VM boundary.
func MarshalResult[T any](r GenericResult[T]) []byte {
	out, err := json.Marshal(r)
	if err != nil {
		// Result types are host-defined and always serializable.
		panic(err)
	}
	return out
}

// UnmarshalResult parses a GenericResult coming back from the guest.
func UnmarshalResult[T any](data []byte) (GenericResult[T], error) {
	var r GenericResult[T]
	if err := json.Unmarshal(data, &r); err != nil {
		return r, SerdeError{What: "contract result", Inner: err}
	}
	return r, nil
}
