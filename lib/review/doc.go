// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package review implements the emote submission and voting workflow.
//
// A participant submits a candidate emote as an image with a caption.
// The Coordinator validates the submission, registers the emote
// temporarily so it renders in chat, posts an announcement and a vote
// message for the community to react to, and records the pair as an
// open review. Later, a privileged operator tallies the reaction
// ratios across all open reviews, or finalizes a single review, which
// redacts both messages and drops the record.
//
// The Coordinator owns all state: a quota ledger capping how many
// open submissions each participant may hold, and a registry of open
// reviews keyed by their vote message. No locks are held across
// network calls; quota slots are reserved before the slow validation
// work and committed or released at the end.
//
// External effects go through the Chat, EmoteRegistry, and
// Thumbnailer interfaces, with production adapters built on the
// messaging, emotepack, and thumbnail packages.
package review
