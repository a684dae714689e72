// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"

	"github.com/bureau-foundation/emoteboard/lib/emotepack"
	"github.com/bureau-foundation/emoteboard/lib/ref"
	"github.com/bureau-foundation/emoteboard/lib/review"
	"github.com/bureau-foundation/emoteboard/lib/thumbnail"
	"github.com/bureau-foundation/emoteboard/messaging"
)

// Reaction keys seeded on every vote message.
const (
	approveKey = "👍"
	rejectKey  = "👎"
)

// announceChat implements review.Chat against the announce room.
type announceChat struct {
	session messaging.Session
	room    ref.RoomID
}

var _ review.Chat = (*announceChat)(nil)

func (c *announceChat) Download(ctx context.Context, url string, maxBytes int64) ([]byte, error) {
	data, _, err := c.session.DownloadMedia(ctx, url, maxBytes)
	return data, err
}

func (c *announceChat) Redact(ctx context.Context, event ref.EventID, reason string) error {
	return c.session.RedactEvent(ctx, c.room, event, reason)
}

func (c *announceChat) PostImage(ctx context.Context, name string, png []byte) (ref.EventID, error) {
	filename := name + ".png"
	mxcURI, err := c.session.UploadMedia(ctx, "image/png", filename, png)
	if err != nil {
		return ref.EventID{}, err
	}
	return c.session.SendMessage(ctx, c.room, messaging.NewImageMessage(
		name, filename, mxcURI, messaging.FileInfo{
			MimeType: "image/png",
			Size:     int64(len(png)),
		}))
}

func (c *announceChat) PostVote(ctx context.Context, name, shortcode string) (ref.EventID, error) {
	voteID, err := c.session.SendMessage(ctx, c.room,
		messaging.NewTextMessage(fmt.Sprintf("Vote on %q :%s:", name, shortcode)))
	if err != nil {
		return ref.EventID{}, err
	}
	for _, key := range []string{approveKey, rejectKey} {
		if _, err := c.session.SendReaction(ctx, c.room, voteID, key); err != nil {
			return ref.EventID{}, fmt.Errorf("seed %s reaction: %w", key, err)
		}
	}
	return voteID, nil
}

// VoteCounts aggregates the reactions annotating a vote message. The
// service's own seed reactions are excluded so a fresh vote message
// counts as zero on both sides.
func (c *announceChat) VoteCounts(ctx context.Context, vote ref.EventID) (int, int, error) {
	own := c.session.UserID().String()
	var approve, rejectCount int
	from := ""
	for {
		page, err := c.session.Relations(ctx, c.room, vote, from)
		if err != nil {
			return 0, 0, err
		}
		for _, event := range page.Chunk {
			if event.Type != "m.reaction" || event.Sender == own {
				continue
			}
			key, ok := messaging.ReactionKey(event)
			if !ok {
				continue
			}
			switch key {
			case approveKey:
				approve++
			case rejectKey:
				rejectCount++
			}
		}
		if page.NextBatch == "" {
			return approve, rejectCount, nil
		}
		from = page.NextBatch
	}
}

// packRegistry implements review.EmoteRegistry on top of the announce
// room's emote pack: the image is uploaded as media, then registered
// under its name as the shortcode.
type packRegistry struct {
	session messaging.Session
	pack    *emotepack.Manager
}

var _ review.EmoteRegistry = (*packRegistry)(nil)

func (r *packRegistry) Register(ctx context.Context, name string, png []byte) (string, error) {
	mxcURI, err := r.session.UploadMedia(ctx, "image/png", name+".png", png)
	if err != nil {
		return "", fmt.Errorf("upload emote image: %w", err)
	}
	if err := r.pack.Register(ctx, name, mxcURI); err != nil {
		return "", err
	}
	return name, nil
}

func (r *packRegistry) Deregister(ctx context.Context, shortcode string) error {
	return r.pack.Deregister(ctx, shortcode)
}

// renderThumbnail adapts lib/thumbnail to the review.Thumbnailer
// interface.
type renderThumbnail struct{}

var _ review.Thumbnailer = renderThumbnail{}

func (renderThumbnail) Render(data []byte, size int) ([]byte, error) {
	return thumbnail.Render(data, size)
}
