// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"sync"

	"github.com/bureau-foundation/emoteboard/lib/ref"
)

// participant is the ledger's record of one submitter. Created lazily
// on the first submission and never deleted; a closed review does not
// return the quota slot.
type participant struct {
	displayName string
	// committed counts submissions that made it all the way to an
	// open review.
	committed int
	// reserved counts in-flight submissions between the quota check
	// and the commit or release at the end of the gate.
	reserved int
}

// ledger enforces the per-participant submission quota. A slot is
// reserved under the write lock before the gate's slow external work
// begins, so concurrent submissions from one participant can never
// overshoot the cap, and no lock is held across a network call.
type ledger struct {
	mu           sync.RWMutex
	participants map[ref.UserID]*participant
}

func newLedger() ledger {
	return ledger{participants: make(map[ref.UserID]*participant)}
}

// reserve records the participant (capturing the display name on
// first contact) and takes a quota slot. It reports false when the
// participant already holds quota open or in-flight submissions.
func (l *ledger) reserve(user ref.UserID, displayName string, quota int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	p := l.participants[user]
	if p == nil {
		p = &participant{displayName: displayName}
		l.participants[user] = p
	}
	if p.committed+p.reserved >= quota {
		return false
	}
	p.reserved++
	return true
}

// commit converts a reservation into a counted submission.
func (l *ledger) commit(user ref.UserID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := l.participants[user]
	if p == nil || p.reserved == 0 {
		panic("review: commit without reservation")
	}
	p.reserved--
	p.committed++
}

// release returns a reservation without counting it.
func (l *ledger) release(user ref.UserID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p := l.participants[user]
	if p == nil || p.reserved == 0 {
		panic("review: release without reservation")
	}
	p.reserved--
}

// count returns the participant's open plus in-flight submissions.
func (l *ledger) count(user ref.UserID) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p := l.participants[user]
	if p == nil {
		return 0
	}
	return p.committed + p.reserved
}

// displayName returns the name captured at first contact.
func (l *ledger) displayName(user ref.UserID) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	p := l.participants[user]
	if p == nil {
		return "", false
	}
	return p.displayName, true
}
