// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/emoteboard/lib/clock"
	"github.com/bureau-foundation/emoteboard/lib/ref"
	"github.com/bureau-foundation/emoteboard/messaging"
)

// fakeSyncSession scripts the Sync and JoinRoom calls of a session.
// Embedding the Session interface leaves unused methods panicking,
// which catches unexpected calls.
type fakeSyncSession struct {
	messaging.Session

	mu        sync.Mutex
	responses []syncStep
	joined    []ref.RoomID
}

type syncStep struct {
	response *messaging.SyncResponse
	err      error
}

func (f *fakeSyncSession) Sync(ctx context.Context, opts messaging.SyncOptions) (*messaging.SyncResponse, error) {
	f.mu.Lock()
	if len(f.responses) == 0 {
		f.mu.Unlock()
		// Out of script: behave like an idle long poll until the test
		// cancels the context.
		<-ctx.Done()
		return nil, ctx.Err()
	}
	step := f.responses[0]
	f.responses = f.responses[1:]
	f.mu.Unlock()
	return step.response, step.err
}

func (f *fakeSyncSession) JoinRoom(ctx context.Context, room ref.RoomID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, room)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitialSync(t *testing.T) {
	session := &fakeSyncSession{responses: []syncStep{
		{response: &messaging.SyncResponse{NextBatch: "s1"}},
	}}

	since, response, err := InitialSync(context.Background(), session, "")
	if err != nil {
		t.Fatalf("InitialSync: %v", err)
	}
	if since != "s1" || response.NextBatch != "s1" {
		t.Errorf("since = %q, response = %+v", since, response)
	}
}

func TestRunSyncLoopDeliversResponses(t *testing.T) {
	session := &fakeSyncSession{responses: []syncStep{
		{response: &messaging.SyncResponse{NextBatch: "s2"}},
		{response: &messaging.SyncResponse{NextBatch: "s3"}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	var batches []string
	handler := func(ctx context.Context, response *messaging.SyncResponse) {
		batches = append(batches, response.NextBatch)
		if len(batches) == 2 {
			cancel()
		}
	}

	RunSyncLoop(ctx, session, SyncConfig{}, "s1", handler, clock.Fake(time.Now()), discardLogger())

	if len(batches) != 2 || batches[0] != "s2" || batches[1] != "s3" {
		t.Errorf("batches = %v", batches)
	}
}

func TestRunSyncLoopBacksOffOnError(t *testing.T) {
	session := &fakeSyncSession{responses: []syncStep{
		{err: errors.New("connection refused")},
		{response: &messaging.SyncResponse{NextBatch: "s2"}},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	clk := clock.Fake(time.Now())

	done := make(chan struct{})
	var delivered int
	go func() {
		defer close(done)
		RunSyncLoop(ctx, session, SyncConfig{}, "s1", func(ctx context.Context, response *messaging.SyncResponse) {
			delivered++
			cancel()
		}, clk, discardLogger())
	}()

	// The loop must be parked on the backoff timer after the scripted
	// error before we advance the clock.
	deadline := time.After(5 * time.Second)
	for clk.Waiters() == 0 {
		select {
		case <-deadline:
			t.Fatal("sync loop never entered backoff")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	clk.Advance(time.Second)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sync loop did not finish")
	}
	if delivered != 1 {
		t.Errorf("delivered = %d, want 1", delivered)
	}
}

func TestAcceptInvites(t *testing.T) {
	session := &fakeSyncSession{}
	invites := map[string]messaging.InvitedRoom{
		"!a:example.org": {},
		"not-a-room-id":  {},
	}

	accepted := AcceptInvites(context.Background(), session, invites, discardLogger())

	if len(accepted) != 1 || accepted[0].String() != "!a:example.org" {
		t.Errorf("accepted = %v", accepted)
	}
	if len(session.joined) != 1 {
		t.Errorf("joined = %v", session.joined)
	}
}
