// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/bureau-foundation/emoteboard/lib/ref"
	"github.com/bureau-foundation/emoteboard/messaging"
)

// reply delivers text to the command's sender in a one-to-one room,
// creating and caching that room on first contact. When direct
// delivery fails the reply falls back to the room the command came
// from, so the sender is never left without an answer.
func (s *emoteService) reply(ctx context.Context, cmd commandContext, text string) {
	directRoom, err := s.directRoom(ctx, cmd.sender)
	if err == nil {
		if _, err = s.session.SendMessage(ctx, directRoom, messaging.NewTextMessage(text)); err == nil {
			return
		}
	}
	s.logger.Error("direct reply failed, falling back to invoking room",
		"user_id", cmd.sender,
		"error", err,
	)
	if _, err := s.session.SendMessage(ctx, cmd.room, messaging.NewTextMessage(text)); err != nil {
		s.logger.Error("fallback reply failed",
			"room_id", cmd.room,
			"user_id", cmd.sender,
			"error", err,
		)
	}
}

// directRoom returns the cached one-to-one room for user, creating it
// on first use.
func (s *emoteService) directRoom(ctx context.Context, user ref.UserID) (ref.RoomID, error) {
	s.directMu.Lock()
	if room, ok := s.directByUser[user]; ok {
		s.directMu.Unlock()
		return room, nil
	}
	s.directMu.Unlock()

	room, err := s.session.CreateRoom(ctx, messaging.CreateRoomRequest{
		Preset:   "trusted_private_chat",
		IsDirect: true,
		Invite:   []string{user.String()},
	})
	if err != nil {
		return ref.RoomID{}, err
	}

	s.directMu.Lock()
	defer s.directMu.Unlock()
	// A concurrent reply may have created a room for the same user;
	// keep the first one cached and use ours for this reply only.
	if existing, ok := s.directByUser[user]; ok {
		s.directRooms[room] = true
		return existing, nil
	}
	s.directByUser[user] = room
	s.directRooms[room] = true
	return room, nil
}
