// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package emotepack manages the room emote pack: the
// im.ponies.room_emotes state event that maps emote shortcodes to
// their images. Approved submissions are registered here; clients
// that understand the event render the emotes inline.
package emotepack

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bureau-foundation/emoteboard/lib/ref"
	"github.com/bureau-foundation/emoteboard/messaging"
)

// EventType is the state event type holding a room's emote pack.
const EventType = "im.ponies.room_emotes"

// Image is one emote in the pack.
type Image struct {
	// URL is the mxc:// URI of the emote image.
	URL string `json:"url"`
}

// Content is the state event content: shortcode to image.
type Content struct {
	Images map[string]Image `json:"images"`
}

// Manager performs read-modify-write updates of a room's emote pack.
// Updates are serialized by a mutex; the homeserver has no
// compare-and-set for state events, so concurrent writers would
// otherwise lose updates.
type Manager struct {
	session messaging.Session
	room    ref.RoomID

	mu sync.Mutex
}

// NewManager creates a Manager for the pack in the given room.
func NewManager(session messaging.Session, room ref.RoomID) *Manager {
	return &Manager{session: session, room: room}
}

// load fetches the current pack content. A room with no pack yet
// yields an empty content, not an error.
func (m *Manager) load(ctx context.Context) (Content, error) {
	raw, err := m.session.StateEvent(ctx, m.room, EventType, "")
	if err != nil {
		if messaging.IsMatrixError(err, messaging.ErrCodeNotFound) {
			return Content{Images: map[string]Image{}}, nil
		}
		return Content{}, fmt.Errorf("emotepack: load pack: %w", err)
	}
	var content Content
	if err := json.Unmarshal(raw, &content); err != nil {
		return Content{}, fmt.Errorf("emotepack: decode pack: %w", err)
	}
	if content.Images == nil {
		content.Images = map[string]Image{}
	}
	return content, nil
}

// Register adds an emote under the given shortcode, overwriting any
// previous image for that shortcode.
func (m *Manager) Register(ctx context.Context, shortcode, mxcURI string) error {
	if shortcode == "" {
		return fmt.Errorf("emotepack: empty shortcode")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	content, err := m.load(ctx)
	if err != nil {
		return err
	}
	content.Images[shortcode] = Image{URL: mxcURI}
	if _, err := m.session.SendStateEvent(ctx, m.room, EventType, "", content); err != nil {
		return fmt.Errorf("emotepack: register %q: %w", shortcode, err)
	}
	return nil
}

// Deregister removes the emote under the given shortcode. Removing a
// shortcode that is not in the pack is a no-op.
func (m *Manager) Deregister(ctx context.Context, shortcode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	content, err := m.load(ctx)
	if err != nil {
		return err
	}
	if _, exists := content.Images[shortcode]; !exists {
		return nil
	}
	delete(content.Images, shortcode)
	if _, err := m.session.SendStateEvent(ctx, m.room, EventType, "", content); err != nil {
		return fmt.Errorf("emotepack: deregister %q: %w", shortcode, err)
	}
	return nil
}

// List returns the current shortcode to image mapping.
func (m *Manager) List(ctx context.Context) (map[string]Image, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	content, err := m.load(ctx)
	if err != nil {
		return nil, err
	}
	return content.Images, nil
}
