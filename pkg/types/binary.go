// Copyright 2025 Grug Framework

package types

import (
	"encoding/base64"
	"encoding/json"
)

// Binary is a byte slice that serializes to base64 in JSON, for opaque blobs
// such as uploaded code and instantiate salts.
type Binary []byte

func (b Binary) String() string {
	return base64.StdEncoding.EncodeToString(b)
}

func (b Binary) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func (b *Binary) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}

// Json is a raw JSON value whose schema is defined elsewhere, e.g. by the
// contract receiving it.
type Json = json.RawMessage
