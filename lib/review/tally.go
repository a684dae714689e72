// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// tallyWorkers bounds the concurrent vote-count fetches during a
// tally.
const tallyWorkers = 8

// voteLineError is the report line for a review whose approve or
// reject side is zero, where no ratio can be computed.
const voteLineError = "\nError, could not retrieve votes"

// Tally fetches the reaction counts of every open review and returns
// the report: one line per review with the approve/reject ratio to
// six decimals. Reviews whose counts cannot be fetched are skipped;
// reviews with a zero side produce an error line instead of a ratio.
// Line order follows fetch completion and is not deterministic.
func (c *Coordinator) Tally(ctx context.Context) string {
	reviews := c.registry.snapshot()

	jobs := make(chan Review)
	var mu sync.Mutex
	var report strings.Builder

	var wg sync.WaitGroup
	for i := 0; i < tallyWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for review := range jobs {
				line, ok := c.tallyLine(ctx, review)
				if !ok {
					continue
				}
				mu.Lock()
				report.WriteString(line)
				mu.Unlock()
			}
		}()
	}
	for _, review := range reviews {
		jobs <- review
	}
	close(jobs)
	wg.Wait()

	return report.String()
}

// tallyLine fetches one review's counts and formats its report line.
// A fetch failure drops the review from the report.
func (c *Coordinator) tallyLine(ctx context.Context, review Review) (string, bool) {
	approve, rejectCount, err := c.cfg.Chat.VoteCounts(ctx, review.Vote)
	if err != nil {
		c.logger.Error("vote count fetch failed",
			"vote_id", review.Vote,
			"name", review.Emote.Name,
			"error", err,
		)
		return "", false
	}
	if approve == 0 || rejectCount == 0 {
		return voteLineError, true
	}
	ratio := float64(approve) / float64(rejectCount)
	return fmt.Sprintf("\n%s: %.6f from: %s", review.Emote.Name, ratio, review.Emote.Author), true
}
