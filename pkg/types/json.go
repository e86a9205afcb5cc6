// Copyright 2025 Grug Framework
//
// Canonical JSON: deterministic key order, stable formatting. Sign bytes and
// commitment inputs go through here so they are identical on every node.

package types

import (
	"encoding/json"
	"sort"
)

// CanonicalJSON re-encodes raw JSON bytes with sorted object keys at every
// level. Arrays retain their order.
func CanonicalJSON(raw []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, SerdeError{What: "canonical json input", Inner: err}
	}
	return json.Marshal(canonicalizeValue(v))
}

// MarshalCanonical marshals a value and canonicalizes the result.
func MarshalCanonical(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return CanonicalJSON(raw)
}

func canonicalizeValue(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := make(map[string]any, len(vv))
		for _, k := range keys {
			ordered[k] = canonicalizeValue(vv[k])
		}
		return ordered
	case []any:
		out := make([]any, len(vv))
		for i, e := range vv {
			out[i] = canonicalizeValue(e)
		}
		return out
	default:
		return vv
	}
}
