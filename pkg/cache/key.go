package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// transportOnlyFields are generate-request fields that affect delivery but
// not the produced output. They are stripped before fingerprinting so a
// streamed and a buffered request for the same generation share one entry.
var transportOnlyFields = map[string]struct{}{
	"stream":     {},
	"keep_alive": {},
}

// ComputeKey derives the cache fingerprint for a generate request body.
//
// The body is decoded, transport-only fields are stripped, and the remainder
// is re-encoded canonically before hashing: object keys sort alphabetically
// (Go's map marshaling), inter-token whitespace disappears, and numbers are
// normalized by value so "1.0" and "1" fingerprint identically. Two
// syntactically different but semantically identical payloads therefore
// collide correctly, while any change to an output-affecting field produces
// a different key (collision probability bounded by the SHA-256 width).
func ComputeKey(body []byte) (Key, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil {
		return "", &MalformedRequestError{Cause: err}
	}
	// Reject trailing garbage after the object
	if dec.More() {
		return "", &MalformedRequestError{Cause: fmt.Errorf("trailing data after JSON object")}
	}

	for field := range transportOnlyFields {
		delete(payload, field)
	}

	canonical, err := json.Marshal(normalizeValue(payload))
	if err != nil {
		return "", &MalformedRequestError{Cause: err}
	}

	sum := sha256.Sum256(canonical)
	return Key(hex.EncodeToString(sum[:])), nil
}

// normalizeValue rewrites decoded JSON so that equivalent payloads encode
// identically: json.Number becomes int64 where integral, float64 otherwise.
func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		normalized := make(map[string]interface{}, len(val))
		for k, item := range val {
			normalized[k] = normalizeValue(item)
		}
		return normalized
	case []interface{}:
		normalized := make([]interface{}, len(val))
		for i, item := range val {
			normalized[i] = normalizeValue(item)
		}
		return normalized
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	default:
		return v
	}
}
