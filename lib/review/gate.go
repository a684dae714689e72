// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"context"
	"fmt"
	"strings"
)

// allowedExtensions are the attachment filename extensions accepted
// for submission, compared as provided (no case folding).
var allowedExtensions = map[string]bool{
	"jpeg": true,
	"jpg":  true,
	"png":  true,
}

// Submit runs one submission through the full gate: quota, caption
// and attachment validation, download, acknowledgment, thumbnail
// rendering, temporary emote registration, announcement and vote
// posting, and record insertion.
//
// A *Rejection return means the submission was refused for a policy
// or input reason and no quota was consumed. Any other error is an
// operational failure; the quota slot is released unless the review
// record was already inserted.
func (c *Coordinator) Submit(ctx context.Context, sub Submission) error {
	author := sub.SenderName
	if author == "" {
		author = sub.Sender.Localpart()
	}

	// Take the quota slot first so concurrent submissions from the
	// same participant cannot overshoot the cap while this one is in
	// flight.
	if !c.ledger.reserve(sub.Sender, author, c.cfg.Quota) {
		return reject(fmt.Sprintf(msgQuotaExhausted, c.cfg.Quota))
	}
	committed := false
	defer func() {
		if !committed {
			c.ledger.release(sub.Sender)
		}
	}()

	if sub.Name == "" {
		return reject(msgNoName)
	}
	if len(sub.Attachments) != 1 {
		return reject(msgNoAttachment)
	}
	attachment := sub.Attachments[0]

	if attachment.Size >= c.cfg.MaxImageBytes {
		return reject(msgTooLarge)
	}
	if attachment.Width == 0 || attachment.Height == 0 {
		return reject(msgNotAnImage)
	}
	if attachment.Width < c.cfg.MinImageDimension || attachment.Height < c.cfg.MinImageDimension {
		return reject(msgTooSmall)
	}

	data, err := c.cfg.Chat.Download(ctx, attachment.URL, c.cfg.MaxImageBytes)
	if err != nil {
		return fmt.Errorf("review: download attachment: %w", err)
	}

	// Redacting the triggering message is the acknowledgment that the
	// submission was picked up.
	if err := c.cfg.Chat.Redact(ctx, sub.Event, "submission received"); err != nil {
		return fmt.Errorf("review: acknowledge submission: %w", err)
	}

	ext, ok := filenameExtension(attachment.Filename)
	if !ok {
		return reject(msgBadFilename)
	}
	if !allowedExtensions[ext] {
		return reject(msgBadExtension)
	}

	thumbnail, err := c.cfg.Thumbnailer.Render(data, c.cfg.ThumbnailSize)
	if err != nil {
		return fmt.Errorf("review: render thumbnail: %w", err)
	}

	shortcode, err := c.cfg.Emotes.Register(ctx, sub.Name, thumbnail)
	if err != nil {
		return fmt.Errorf("review: register emote: %w", err)
	}

	announceID, err := c.cfg.Chat.PostImage(ctx, sub.Name, thumbnail)
	if err != nil {
		return fmt.Errorf("review: post announcement: %w", err)
	}

	voteID, err := c.cfg.Chat.PostVote(ctx, sub.Name, shortcode)
	if err != nil {
		// The announcement stays behind; repairing it here could
		// redact a message voters already reacted to.
		c.logger.Error("vote message failed, announcement orphaned",
			"announce_id", announceID,
			"name", sub.Name,
			"error", err,
		)
		return fmt.Errorf("review: post vote message: %w", err)
	}

	c.registry.insert(Review{
		Announce: announceID,
		Vote:     voteID,
		Emote:    Emote{Name: sub.Name, Author: author},
	})
	c.ledger.commit(sub.Sender)
	committed = true

	// The emote only needs to exist while the vote message renders;
	// voting works off the posted messages. A failed deregistration
	// leaves a stray pack entry but the review stands.
	if err := c.cfg.Emotes.Deregister(ctx, shortcode); err != nil {
		return fmt.Errorf("review: deregister emote: %w", err)
	}
	return nil
}

// filenameExtension returns the extension after the last dot,
// reporting false for filenames without one or ending in one.
func filenameExtension(filename string) (string, bool) {
	idx := strings.LastIndexByte(filename, '.')
	if idx < 0 || idx == len(filename)-1 {
		return "", false
	}
	return filename[idx+1:], true
}
