// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// emoteboard-service is the Matrix bot coordinating custom-emote
// suggestions for a community room.
//
// Participants submit a candidate emote by posting an image with the
// caption "!emote suggest <name>". The service validates the
// submission, announces it in the configured announce room together
// with a vote message seeded with 👍/👎 reactions, and tracks the open
// review. Privileged operators run "!emote tally" for a report of the
// reaction ratios and "!emote remove <event-id>" to close a review.
//
// Configuration is read from the YAML file named by --config or the
// EMOTEBOARD_CONFIG environment variable. The access token comes from
// the configured token file, stdin, or an interactive prompt. An
// optional Unix admin socket answers status and review-list queries.
package main
