// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"

	"github.com/bureau-foundation/emoteboard/lib/ref"
)

// sampleRequest is a representative admin-socket request shape.
type sampleRequest struct {
	Action string      `cbor:"action"`
	Review ref.EventID `cbor:"review,omitempty"`
	Limit  int         `cbor:"limit"`
}

func TestRoundTrip(t *testing.T) {
	original := sampleRequest{
		Action: "reviews",
		Review: ref.MustParseEventID("$vote123"),
		Limit:  10,
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded sampleRequest
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded != original {
		t.Errorf("round trip changed value: got %+v, want %+v", decoded, original)
	}
}

func TestDeterministicEncoding(t *testing.T) {
	value := map[string]any{
		"zebra": 1,
		"apple": 2,
		"mango": 3,
	}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	second, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same logical value produced different encodings")
	}
}

func TestRefTypesEncodeAsTextStrings(t *testing.T) {
	data, err := Marshal(ref.MustParseEventID("$vote123"))
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded string
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal into string failed: %v", err)
	}
	if decoded != "$vote123" {
		t.Errorf("event ID encoded as %q, want %q", decoded, "$vote123")
	}
}

func TestStreamEncoderDecoder(t *testing.T) {
	var buffer bytes.Buffer

	if err := NewEncoder(&buffer).Encode(sampleRequest{Action: "status"}); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	var decoded sampleRequest
	if err := NewDecoder(&buffer).Decode(&decoded); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded.Action != "status" {
		t.Errorf("decoded action = %q, want %q", decoded.Action, "status")
	}
}
