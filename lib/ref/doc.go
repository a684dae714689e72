// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated value types for Matrix identifiers.
//
// The service treats Matrix IDs as opaque: user IDs, room IDs, room
// aliases, and event IDs arrive from the homeserver (or from operator
// configuration) and are parsed into these types at the boundary. Code
// past the boundary never handles a raw identifier string, so a
// malformed ID fails loudly at parse time instead of producing a
// confusing homeserver error later.
//
// All types are immutable value types. The zero value of each is not a
// valid identifier; use IsZero to check. Each type implements
// encoding.TextMarshaler and TextUnmarshaler, so identifiers embedded
// in JSON, YAML, or CBOR payloads are validated during decoding.
package ref
