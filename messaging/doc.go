// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging is a Matrix client-server API implementation sized
// for the emote review service. It covers the endpoints the service
// actually exercises: login and token validation, room membership and
// aliases, message and state events, reactions and their aggregation,
// redaction, media upload and download, and long-poll sync.
//
// The entry point is Client, which holds the homeserver URL and the
// underlying HTTP client. Authenticated calls go through DirectSession,
// obtained from Client.Login or Client.SessionFromToken. Session is the
// interface the rest of the module consumes so tests can substitute
// fakes.
//
// Errors returned by the homeserver are surfaced as *MatrixError with
// the errcode and HTTP status preserved, so callers can distinguish a
// missing event (M_NOT_FOUND) from a permission failure (M_FORBIDDEN).
package messaging
