// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/emoteboard/lib/ref"
)

// Chat is the announce-room surface the Coordinator posts to and
// reads from. Implementations are bound to a single room.
type Chat interface {
	// Download fetches the submitted attachment, limited to maxBytes.
	Download(ctx context.Context, url string, maxBytes int64) ([]byte, error)

	// Redact removes an event from the room.
	Redact(ctx context.Context, event ref.EventID, reason string) error

	// PostImage posts the announcement message carrying the review
	// thumbnail and returns its event ID.
	PostImage(ctx context.Context, name string, png []byte) (ref.EventID, error)

	// PostVote posts the vote message rendering the candidate emote,
	// seeds its approve/reject reactions, and returns its event ID.
	PostVote(ctx context.Context, name, shortcode string) (ref.EventID, error)

	// VoteCounts returns the approve and reject reaction counts on a
	// vote message, excluding the seed reactions.
	VoteCounts(ctx context.Context, vote ref.EventID) (approve, reject int, err error)
}

// EmoteRegistry manages the room emote pack the candidate is
// temporarily registered in so chat clients can render it.
type EmoteRegistry interface {
	// Register adds the emote image under name and returns the
	// shortcode handle it was registered as.
	Register(ctx context.Context, name string, png []byte) (string, error)

	// Deregister removes a previously registered emote.
	Deregister(ctx context.Context, shortcode string) error
}

// Thumbnailer renders a submitted image into the square PNG used for
// the announcement and the temporary emote.
type Thumbnailer interface {
	Render(data []byte, size int) ([]byte, error)
}

// Attachment is the image attached to a submission, described by the
// metadata the chat system delivered with it.
type Attachment struct {
	Filename string
	URL      string
	Size     int64
	Width    int
	Height   int
}

// Submission is one incoming emote suggestion.
type Submission struct {
	// Event is the triggering message, redacted as the acknowledgment
	// that the submission was picked up.
	Event ref.EventID

	// Sender is the submitting participant.
	Sender ref.UserID

	// SenderName is the sender's display name. Empty falls back to
	// the localpart of Sender.
	SenderName string

	// Name is the proposed emote name from the caption.
	Name string

	// Attachments are the images attached to the triggering message.
	// Exactly one is required.
	Attachments []Attachment
}

// Emote identifies what a review is about.
type Emote struct {
	Name   string
	Author string
}

// Review is one open review: the announcement and vote message pair,
// keyed in the registry by the vote event ID.
type Review struct {
	Announce ref.EventID
	Vote     ref.EventID
	Emote    Emote
}

// Config configures a Coordinator.
type Config struct {
	// Quota is the number of open submissions each participant may
	// hold. Default: 3.
	Quota int

	// MaxImageBytes is the exclusive upper bound on attachment size.
	// Default: 6000000.
	MaxImageBytes int64

	// MinImageDimension is the minimum attachment width and height.
	// Default: 120.
	MinImageDimension int

	// ThumbnailSize is the edge length of the rendered review
	// thumbnail. Default: 128.
	ThumbnailSize int

	Chat        Chat
	Emotes      EmoteRegistry
	Thumbnailer Thumbnailer

	// Logger receives operational failures. Default: slog.Default().
	Logger *slog.Logger
}

// Coordinator owns the review workflow state and runs the submission,
// tally, and removal operations. Safe for concurrent use.
type Coordinator struct {
	cfg      Config
	ledger   ledger
	registry registry
	logger   *slog.Logger
}

// NewCoordinator creates a Coordinator. Chat, Emotes, and Thumbnailer
// are required.
func NewCoordinator(cfg Config) (*Coordinator, error) {
	if cfg.Chat == nil || cfg.Emotes == nil || cfg.Thumbnailer == nil {
		return nil, fmt.Errorf("review: Chat, Emotes, and Thumbnailer are required")
	}
	if cfg.Quota == 0 {
		cfg.Quota = 3
	}
	if cfg.MaxImageBytes == 0 {
		cfg.MaxImageBytes = 6000000
	}
	if cfg.MinImageDimension == 0 {
		cfg.MinImageDimension = 120
	}
	if cfg.ThumbnailSize == 0 {
		cfg.ThumbnailSize = 128
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		cfg:      cfg,
		ledger:   newLedger(),
		registry: newRegistry(),
		logger:   logger,
	}, nil
}

// OpenReviews returns a snapshot of all open reviews.
func (c *Coordinator) OpenReviews() []Review {
	return c.registry.snapshot()
}

// SubmissionCount returns how many open submissions the participant
// holds, including in-flight reservations.
func (c *Coordinator) SubmissionCount(user ref.UserID) int {
	return c.ledger.count(user)
}
