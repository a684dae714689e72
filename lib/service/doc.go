// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the runtime scaffolding shared by the
// emote review binaries:
//
//   - Logging: a structured slog logger, JSON in production and
//     human-readable text when stderr is a terminal.
//   - Sync loop: incremental Matrix /sync long-poll with exponential
//     backoff, delivering responses to a caller-provided handler.
//   - Invite handling: joining rooms the service has been invited to.
//   - Socket server: a CBOR Unix socket server with action dispatch,
//     connection timeouts, and graceful shutdown, used for local
//     admin queries.
//
// The service composes these utilities in its own main() rather than
// subclassing a framework. The package provides building blocks, not
// a runtime.
package service
