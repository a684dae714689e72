// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/emoteboard/lib/clock"
	"github.com/bureau-foundation/emoteboard/lib/ref"
	"github.com/bureau-foundation/emoteboard/lib/review"
	"github.com/bureau-foundation/emoteboard/lib/service"
	"github.com/bureau-foundation/emoteboard/messaging"
)

// syncFilter restricts /sync to room message timelines. State and
// ephemeral events are not needed; reaction counts are fetched on
// demand during a tally.
const syncFilter = `{
	"room": {
		"state": {
			"types": []
		},
		"timeline": {
			"types": ["m.room.message"],
			"limit": 50
		},
		"ephemeral": {
			"types": []
		},
		"account_data": {
			"types": []
		}
	},
	"presence": {
		"types": []
	},
	"account_data": {
		"types": []
	}
}`

// emoteService wires the sync loop to the review coordinator.
type emoteService struct {
	session      messaging.Session
	coordinator  *review.Coordinator
	announceRoom ref.RoomID
	privileged   map[ref.UserID]bool
	clock        clock.Clock
	startedAt    time.Time
	logger       *slog.Logger

	// directRooms caches the one-to-one rooms created for replies:
	// per recipient, and as a set for the group-only command check.
	directMu     sync.Mutex
	directByUser map[ref.UserID]ref.RoomID
	directRooms  map[ref.RoomID]bool

	// inFlight tracks dispatched command goroutines so shutdown can
	// wait for them.
	inFlight sync.WaitGroup
}

func newEmoteService(session messaging.Session, coordinator *review.Coordinator, announceRoom ref.RoomID, privileged []ref.UserID, clk clock.Clock, logger *slog.Logger) *emoteService {
	privilegedSet := make(map[ref.UserID]bool, len(privileged))
	for _, user := range privileged {
		privilegedSet[user] = true
	}
	return &emoteService{
		session:      session,
		coordinator:  coordinator,
		announceRoom: announceRoom,
		privileged:   privilegedSet,
		clock:        clk,
		startedAt:    clk.Now(),
		logger:       logger,
		directByUser: make(map[ref.UserID]ref.RoomID),
		directRooms:  make(map[ref.RoomID]bool),
	}
}

// handleSync processes one /sync response: accept invites, then
// dispatch any commands found in the new timeline events. Dispatch is
// concurrent; the sync loop is only the delivery layer.
func (s *emoteService) handleSync(ctx context.Context, response *messaging.SyncResponse) {
	if len(response.Rooms.Invite) > 0 {
		service.AcceptInvites(ctx, s.session, response.Rooms.Invite, s.logger)
	}

	for rawRoomID, room := range response.Rooms.Join {
		roomID, err := ref.ParseRoomID(rawRoomID)
		if err != nil {
			s.logger.Error("sync delivered malformed room ID", "room_id", rawRoomID, "error", err)
			continue
		}
		for _, event := range room.Timeline.Events {
			s.maybeDispatch(ctx, roomID, event)
		}
	}
}

// maybeDispatch checks one timeline event for a command invocation
// and runs it on its own goroutine.
func (s *emoteService) maybeDispatch(ctx context.Context, room ref.RoomID, event messaging.Event) {
	if event.Type != "m.room.message" {
		return
	}
	sender, err := ref.ParseUserID(event.Sender)
	if err != nil || sender == s.session.UserID() {
		return
	}
	content, ok := messaging.TextContent(event)
	if !ok {
		return
	}
	invocation, ok := parseCommand(content.Body)
	if !ok {
		return
	}
	eventID, err := ref.ParseEventID(event.EventID)
	if err != nil {
		s.logger.Error("command event with malformed ID", "event_id", event.EventID, "error", err)
		return
	}

	cmd := commandContext{
		room:    room,
		event:   eventID,
		sender:  sender,
		name:    invocation.name,
		args:    invocation.args,
		content: content,
	}

	s.inFlight.Add(1)
	go func() {
		defer s.inFlight.Done()
		s.dispatch(ctx, cmd)
	}()
}

// wait blocks until all dispatched command goroutines finish.
func (s *emoteService) wait() {
	s.inFlight.Wait()
}

// isDirectRoom reports whether the service created this room for
// replies.
func (s *emoteService) isDirectRoom(room ref.RoomID) bool {
	s.directMu.Lock()
	defer s.directMu.Unlock()
	return s.directRooms[room]
}
