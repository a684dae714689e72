// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"sync"

	"github.com/bureau-foundation/emoteboard/lib/ref"
)

// registry holds the open reviews, keyed by vote event ID. On the
// submission path the ledger lock is always taken before the registry
// lock; the two are never held at the same time elsewhere.
type registry struct {
	mu      sync.RWMutex
	reviews map[ref.EventID]Review
}

func newRegistry() registry {
	return registry{reviews: make(map[ref.EventID]Review)}
}

func (r *registry) insert(review Review) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews[review.Vote] = review
}

func (r *registry) lookup(vote ref.EventID) (Review, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	review, ok := r.reviews[vote]
	return review, ok
}

// remove deletes the review if it is still present, reporting whether
// it was. Callers delete only after every side effect of finalization
// has succeeded.
func (r *registry) remove(vote ref.EventID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[vote]; !ok {
		return false
	}
	delete(r.reviews, vote)
	return true
}

// snapshot copies out all open reviews so callers can iterate without
// holding the lock.
func (r *registry) snapshot() []Review {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reviews := make([]Review, 0, len(r.reviews))
	for _, review := range r.reviews {
		reviews = append(reviews, review)
	}
	return reviews
}

func (r *registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.reviews)
}
