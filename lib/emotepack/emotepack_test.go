// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package emotepack

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/bureau-foundation/emoteboard/lib/ref"
	"github.com/bureau-foundation/emoteboard/messaging"
)

// fakeStateSession stores state event content in memory.
type fakeStateSession struct {
	messaging.Session

	content map[string]json.RawMessage
	writes  int
}

func newFakeStateSession() *fakeStateSession {
	return &fakeStateSession{content: map[string]json.RawMessage{}}
}

func (f *fakeStateSession) StateEvent(ctx context.Context, room ref.RoomID, eventType, stateKey string) (json.RawMessage, error) {
	raw, ok := f.content[eventType+"/"+stateKey]
	if !ok {
		return nil, &messaging.MatrixError{Code: messaging.ErrCodeNotFound, Message: "not found", StatusCode: 404}
	}
	return raw, nil
}

func (f *fakeStateSession) SendStateEvent(ctx context.Context, room ref.RoomID, eventType, stateKey string, content any) (ref.EventID, error) {
	raw, err := json.Marshal(content)
	if err != nil {
		return ref.EventID{}, err
	}
	f.content[eventType+"/"+stateKey] = raw
	f.writes++
	return ref.MustParseEventID("$state"), nil
}

func testManager(t *testing.T) (*Manager, *fakeStateSession) {
	t.Helper()
	session := newFakeStateSession()
	return NewManager(session, ref.MustParseRoomID("!emotes:example.org")), session
}

func TestRegisterCreatesPack(t *testing.T) {
	manager, session := testManager(t)

	if err := manager.Register(context.Background(), "blobcat", "mxc://example.org/m1"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	images, err := manager.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if images["blobcat"].URL != "mxc://example.org/m1" {
		t.Errorf("images = %v", images)
	}
	if session.writes != 1 {
		t.Errorf("writes = %d", session.writes)
	}
}

func TestRegisterPreservesExistingEmotes(t *testing.T) {
	manager, _ := testManager(t)
	ctx := context.Background()

	if err := manager.Register(ctx, "blobcat", "mxc://example.org/m1"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := manager.Register(ctx, "partyparrot", "mxc://example.org/m2"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	images, err := manager.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(images) != 2 {
		t.Errorf("images = %v", images)
	}
}

func TestRegisterOverwritesShortcode(t *testing.T) {
	manager, _ := testManager(t)
	ctx := context.Background()

	manager.Register(ctx, "blobcat", "mxc://example.org/old")
	manager.Register(ctx, "blobcat", "mxc://example.org/new")

	images, _ := manager.List(ctx)
	if images["blobcat"].URL != "mxc://example.org/new" {
		t.Errorf("images = %v", images)
	}
}

func TestRegisterRejectsEmptyShortcode(t *testing.T) {
	manager, _ := testManager(t)
	if err := manager.Register(context.Background(), "", "mxc://example.org/m1"); err == nil {
		t.Fatal("expected error for empty shortcode")
	}
}

func TestDeregister(t *testing.T) {
	manager, session := testManager(t)
	ctx := context.Background()

	manager.Register(ctx, "blobcat", "mxc://example.org/m1")
	if err := manager.Deregister(ctx, "blobcat"); err != nil {
		t.Fatalf("Deregister: %v", err)
	}

	images, _ := manager.List(ctx)
	if len(images) != 0 {
		t.Errorf("images = %v", images)
	}

	// Deregistering an absent shortcode is a no-op and writes nothing.
	writesBefore := session.writes
	if err := manager.Deregister(ctx, "ghost"); err != nil {
		t.Fatalf("Deregister absent: %v", err)
	}
	if session.writes != writesBefore {
		t.Errorf("writes = %d, want %d", session.writes, writesBefore)
	}
}
