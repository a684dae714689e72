// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"

	"github.com/bureau-foundation/emoteboard/lib/ref"
)

// Event is a single Matrix event, as delivered by sync or a relations
// query. Content is left raw so callers can decode it into the typed
// content struct matching the event type.
type Event struct {
	Type           string          `json:"type"`
	EventID        string          `json:"event_id,omitempty"`
	Sender         string          `json:"sender,omitempty"`
	StateKey       *string         `json:"state_key,omitempty"`
	OriginServerTS int64           `json:"origin_server_ts,omitempty"`
	Content        json.RawMessage `json:"content,omitempty"`
}

// FileInfo carries the metadata of an uploaded attachment: mimetype,
// byte size, and pixel dimensions for images.
type FileInfo struct {
	MimeType string `json:"mimetype,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Width    int    `json:"w,omitempty"`
	Height   int    `json:"h,omitempty"`
}

// MessageContent is the content of an m.room.message event. Text
// messages fill MsgType and Body; image messages additionally carry
// the upload URL, original filename, and file info.
type MessageContent struct {
	MsgType  string    `json:"msgtype"`
	Body     string    `json:"body"`
	Filename string    `json:"filename,omitempty"`
	URL      string    `json:"url,omitempty"`
	Info     *FileInfo `json:"info,omitempty"`
}

// NewTextMessage builds the content for a plain text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{MsgType: "m.text", Body: body}
}

// NewImageMessage builds the content for an image message referencing
// previously uploaded media.
func NewImageMessage(body, filename, mxcURI string, info FileInfo) MessageContent {
	return MessageContent{
		MsgType:  "m.image",
		Body:     body,
		Filename: filename,
		URL:      mxcURI,
		Info:     &info,
	}
}

// RelatesTo is the m.relates_to field linking an event to another.
type RelatesTo struct {
	RelType string `json:"rel_type"`
	EventID string `json:"event_id"`
	Key     string `json:"key,omitempty"`
}

// ReactionContent is the content of an m.reaction event: an annotation
// of a target event with an emoji key.
type ReactionContent struct {
	RelatesTo RelatesTo `json:"m.relates_to"`
}

// RelationsResponse is a page of events relating to a target event,
// from /rooms/{roomId}/relations.
type RelationsResponse struct {
	Chunk     []Event `json:"chunk"`
	NextBatch string  `json:"next_batch,omitempty"`
}

// CreateRoomRequest describes a room to create. Only the fields the
// service uses are included.
type CreateRoomRequest struct {
	Name       string   `json:"name,omitempty"`
	Preset     string   `json:"preset,omitempty"`
	Visibility string   `json:"visibility,omitempty"`
	IsDirect   bool     `json:"is_direct,omitempty"`
	Invite     []string `json:"invite,omitempty"`
}

// SyncOptions controls a call to Session.Sync.
type SyncOptions struct {
	// Since is the batch token from the previous sync, or empty for an
	// initial sync.
	Since string
	// TimeoutMS is the server-side long-poll timeout in milliseconds.
	TimeoutMS int
	// Filter is an inline JSON filter or server-side filter ID.
	Filter string
}

// SyncResponse is the payload returned by /sync.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection groups the per-room updates in a sync response by the
// session's membership.
type RoomsSection struct {
	Join   map[string]JoinedRoom  `json:"join"`
	Invite map[string]InvitedRoom `json:"invite"`
}

// JoinedRoom holds the updates for a room the session has joined.
type JoinedRoom struct {
	Timeline Timeline   `json:"timeline"`
	State    StateBlock `json:"state"`
}

// Timeline is the ordered slice of new timeline events for a room.
type Timeline struct {
	Events    []Event `json:"events"`
	Limited   bool    `json:"limited"`
	PrevBatch string  `json:"prev_batch,omitempty"`
}

// StateBlock is the state delta for a room.
type StateBlock struct {
	Events []Event `json:"events"`
}

// InvitedRoom holds the stripped state of a room the session has been
// invited to.
type InvitedRoom struct {
	InviteState StateBlock `json:"invite_state"`
}

// TextContent decodes ev.Content as message content. It returns false
// when the content does not decode or carries no msgtype.
func TextContent(ev Event) (MessageContent, bool) {
	var content MessageContent
	if err := json.Unmarshal(ev.Content, &content); err != nil {
		return MessageContent{}, false
	}
	if content.MsgType == "" {
		return MessageContent{}, false
	}
	return content, true
}

// ReactionKey decodes ev.Content as a reaction annotation and returns
// its key. It returns false for events that are not valid annotations.
func ReactionKey(ev Event) (string, bool) {
	var content ReactionContent
	if err := json.Unmarshal(ev.Content, &content); err != nil {
		return "", false
	}
	if content.RelatesTo.RelType != "m.annotation" || content.RelatesTo.Key == "" {
		return "", false
	}
	return content.RelatesTo.Key, true
}

// Session is the authenticated Matrix API surface the service
// consumes. DirectSession implements it against a live homeserver;
// tests substitute fakes.
type Session interface {
	// UserID returns the Matrix user ID the session is authenticated
	// as.
	UserID() ref.UserID

	// WhoAmI asks the homeserver which user the access token belongs
	// to.
	WhoAmI(ctx context.Context) (ref.UserID, error)

	// ResolveAlias resolves a room alias to a room ID.
	ResolveAlias(ctx context.Context, alias ref.RoomAlias) (ref.RoomID, error)

	// JoinRoom joins the given room.
	JoinRoom(ctx context.Context, room ref.RoomID) error

	// JoinedRooms lists the rooms the session is currently joined to.
	JoinedRooms(ctx context.Context) ([]ref.RoomID, error)

	// InviteUser invites a user to the given room.
	InviteUser(ctx context.Context, room ref.RoomID, user ref.UserID) error

	// CreateRoom creates a room and returns its ID.
	CreateRoom(ctx context.Context, req CreateRoomRequest) (ref.RoomID, error)

	// SendMessage sends an m.room.message event.
	SendMessage(ctx context.Context, room ref.RoomID, content MessageContent) (ref.EventID, error)

	// SendReaction sends an m.reaction annotation of target with the
	// given key.
	SendReaction(ctx context.Context, room ref.RoomID, target ref.EventID, key string) (ref.EventID, error)

	// SendStateEvent sends a state event and returns its event ID.
	SendStateEvent(ctx context.Context, room ref.RoomID, eventType, stateKey string, content any) (ref.EventID, error)

	// StateEvent fetches the content of a state event. A missing event
	// surfaces as a *MatrixError with code M_NOT_FOUND.
	StateEvent(ctx context.Context, room ref.RoomID, eventType, stateKey string) (json.RawMessage, error)

	// RedactEvent redacts the given event.
	RedactEvent(ctx context.Context, room ref.RoomID, event ref.EventID, reason string) error

	// Relations pages through the events annotating target. An empty
	// from token starts at the beginning; the returned next_batch token
	// is empty on the last page.
	Relations(ctx context.Context, room ref.RoomID, target ref.EventID, from string) (*RelationsResponse, error)

	// Sync performs a single long-poll sync.
	Sync(ctx context.Context, opts SyncOptions) (*SyncResponse, error)

	// UploadMedia uploads media and returns its mxc:// URI.
	UploadMedia(ctx context.Context, contentType, filename string, data []byte) (string, error)

	// DownloadMedia downloads the media behind an mxc:// URI, limited
	// to maxBytes. It returns the body and the Content-Type reported by
	// the server.
	DownloadMedia(ctx context.Context, mxcURI string, maxBytes int64) ([]byte, string, error)

	// DisplayName fetches the profile display name of a user. A user
	// without one yields an empty string, not an error.
	DisplayName(ctx context.Context, user ref.UserID) (string, error)

	// Close releases the session's token material. The session must
	// not be used afterwards.
	Close() error
}
