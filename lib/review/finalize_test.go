// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package review

import (
	"context"
	"errors"
	"testing"

	"github.com/bureau-foundation/emoteboard/lib/ref"
)

func TestRemove(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	if err := fx.coordinator.Submit(ctx, validSubmission(1)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	review := fx.coordinator.OpenReviews()[0]

	if err := fx.coordinator.Remove(ctx, review.Vote); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if !fx.chat.wasRedacted(review.Announce) || !fx.chat.wasRedacted(review.Vote) {
		t.Error("anchors were not both redacted")
	}
	if len(fx.coordinator.OpenReviews()) != 0 {
		t.Error("review still open")
	}
}

func TestRemoveUnknownID(t *testing.T) {
	fx := newFixture(t)

	err := fx.coordinator.Remove(context.Background(), ref.MustParseEventID("$ghost"))
	reason, ok := AsRejection(err)
	if !ok || reason != "ID is not in messages." {
		t.Fatalf("error = %v, want unknown-ID rejection", err)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	if err := fx.coordinator.Submit(ctx, validSubmission(1)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	review := fx.coordinator.OpenReviews()[0]

	if err := fx.coordinator.Remove(ctx, review.Vote); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	redactions := len(fx.chat.redacted)

	err := fx.coordinator.Remove(ctx, review.Vote)
	if reason, ok := AsRejection(err); !ok || reason != "ID is not in messages." {
		t.Fatalf("second remove = %v, want unknown-ID rejection", err)
	}
	if len(fx.chat.redacted) != redactions {
		t.Error("second remove issued redactions")
	}
}

func TestRemoveRedactionFailureRetainsRecord(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	if err := fx.coordinator.Submit(ctx, validSubmission(1)); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	review := fx.coordinator.OpenReviews()[0]

	fx.chat.redactErr[review.Vote.String()] = errors.New("federation timeout")

	err := fx.coordinator.Remove(ctx, review.Vote)
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := AsRejection(err); ok {
		t.Fatalf("redaction failure surfaced as rejection: %v", err)
	}
	if len(fx.coordinator.OpenReviews()) != 1 {
		t.Fatal("record dropped despite failed redaction")
	}

	// The retry succeeds once the redaction goes through.
	delete(fx.chat.redactErr, review.Vote.String())
	if err := fx.coordinator.Remove(ctx, review.Vote); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(fx.coordinator.OpenReviews()) != 0 {
		t.Error("review still open after retry")
	}
}

func TestRemoveDoesNotReturnQuota(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	for n := 1; n <= 3; n++ {
		if err := fx.coordinator.Submit(ctx, validSubmission(n)); err != nil {
			t.Fatalf("Submit %d: %v", n, err)
		}
	}
	review := fx.coordinator.OpenReviews()[0]
	if err := fx.coordinator.Remove(ctx, review.Vote); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	// Closing a review does not free the submitter's quota slot.
	err := fx.coordinator.Submit(ctx, validSubmission(4))
	if reason, ok := AsRejection(err); !ok || reason != "You can only post 3 suggestions." {
		t.Fatalf("error = %v, want quota rejection", err)
	}
}
