// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/json"
	"testing"
)

func TestParseUserID(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"@alice:example.com", false},
		{"@emoteboard:example.com", false},
		{"", true},
		{"alice:example.com", true},
		{"@:example.com", true},
		{"@alice", true},
		{"@alice:", true},
	}
	for _, test := range tests {
		_, err := ParseUserID(test.raw)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseUserID(%q): err = %v, wantErr = %v", test.raw, err, test.wantErr)
		}
	}
}

func TestUserIDLocalpart(t *testing.T) {
	u := MustParseUserID("@alice:example.com")
	if got := u.Localpart(); got != "alice" {
		t.Errorf("Localpart() = %q, want %q", got, "alice")
	}
}

func TestParseRoomID(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"!abc123:example.com", false},
		{"", true},
		{"abc123:example.com", true},
		{"!abc123", true},
		{"!:example.com", true},
	}
	for _, test := range tests {
		_, err := ParseRoomID(test.raw)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseRoomID(%q): err = %v, wantErr = %v", test.raw, err, test.wantErr)
		}
	}
}

func TestParseRoomAlias(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"#emotes:example.com", false},
		{"", true},
		{"emotes:example.com", true},
		{"#emotes", true},
	}
	for _, test := range tests {
		_, err := ParseRoomAlias(test.raw)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseRoomAlias(%q): err = %v, wantErr = %v", test.raw, err, test.wantErr)
		}
	}
}

func TestParseEventID(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"$abc123", false},
		{"$a", false},
		{"", true},
		{"$", true},
		{"abc123", true},
	}
	for _, test := range tests {
		_, err := ParseEventID(test.raw)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseEventID(%q): err = %v, wantErr = %v", test.raw, err, test.wantErr)
		}
	}
}

func TestEventIDJSONRoundTrip(t *testing.T) {
	type payload struct {
		Event EventID `json:"event_id"`
	}
	original := payload{Event: MustParseEventID("$vote123")}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded payload
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Event != original.Event {
		t.Errorf("round trip changed value: got %v, want %v", decoded.Event, original.Event)
	}

	// Malformed IDs are rejected during decoding.
	var bad payload
	if err := json.Unmarshal([]byte(`{"event_id":"vote123"}`), &bad); err == nil {
		t.Error("expected error decoding event ID without '$' prefix")
	}
}
