// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/emoteboard/lib/ref"
)

// Remove finalizes the review keyed by the given vote event ID: both
// the announcement and the vote message are redacted, then the record
// is dropped.
//
// An unknown ID yields a *Rejection. A redaction failure leaves the
// record in place so the removal can be retried; the registry entry
// is only removed once every redaction has succeeded. Removing an
// already-removed ID yields the unknown-ID rejection and has no side
// effects.
func (c *Coordinator) Remove(ctx context.Context, vote ref.EventID) error {
	review, ok := c.registry.lookup(vote)
	if !ok {
		return reject(msgUnknownReviewID)
	}

	if err := c.cfg.Chat.Redact(ctx, review.Announce, "review closed"); err != nil {
		return fmt.Errorf("review: redact announcement %s: %w", review.Announce, err)
	}
	if err := c.cfg.Chat.Redact(ctx, review.Vote, "review closed"); err != nil {
		return fmt.Errorf("review: redact vote message %s: %w", review.Vote, err)
	}

	// A concurrent Remove may have won the race after our lookup;
	// that is fine, the messages are gone either way.
	c.registry.remove(vote)
	return nil
}
