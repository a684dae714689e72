// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"github.com/bureau-foundation/emoteboard/lib/service"
)

// statusResponse answers the "status" admin action.
type statusResponse struct {
	UserID        string `cbor:"user_id"`
	AnnounceRoom  string `cbor:"announce_room"`
	UptimeSeconds int64  `cbor:"uptime_seconds"`
	OpenReviews   int    `cbor:"open_reviews"`
}

// reviewEntry is one open review in the "reviews" admin action
// response.
type reviewEntry struct {
	VoteID     string `cbor:"vote_id"`
	AnnounceID string `cbor:"announce_id"`
	Name       string `cbor:"name"`
	Author     string `cbor:"author"`
}

type reviewsResponse struct {
	Reviews []reviewEntry `cbor:"reviews"`
}

// registerAdminActions wires the service's introspection queries into
// the admin socket server.
func (s *emoteService) registerAdminActions(server *service.SocketServer) {
	server.Handle("status", func(ctx context.Context, raw []byte) (any, error) {
		open := s.coordinator.OpenReviews()
		return statusResponse{
			UserID:        s.session.UserID().String(),
			AnnounceRoom:  s.announceRoom.String(),
			UptimeSeconds: int64(s.clock.Now().Sub(s.startedAt).Seconds()),
			OpenReviews:   len(open),
		}, nil
	})

	server.Handle("reviews", func(ctx context.Context, raw []byte) (any, error) {
		open := s.coordinator.OpenReviews()
		entries := make([]reviewEntry, 0, len(open))
		for _, review := range open {
			entries = append(entries, reviewEntry{
				VoteID:     review.Vote.String(),
				AnnounceID: review.Announce.String(),
				Name:       review.Emote.Name,
				Author:     review.Emote.Author,
			})
		}
		return reviewsResponse{Reviews: entries}, nil
	})
}
