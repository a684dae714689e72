// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/emoteboard/lib/ref"
	"github.com/bureau-foundation/emoteboard/lib/secret"
)

// DirectSession is an authenticated session against a live homeserver.
// It implements Session. Methods are safe for concurrent use.
type DirectSession struct {
	client             *Client
	userID             ref.UserID
	accessToken        *secret.Buffer
	transactionCounter atomic.Int64
}

var _ Session = (*DirectSession)(nil)

func newDirectSession(client *Client, userID ref.UserID, accessToken *secret.Buffer) *DirectSession {
	return &DirectSession{
		client:      client,
		userID:      userID,
		accessToken: accessToken,
	}
}

// UserID returns the user the session is authenticated as.
func (s *DirectSession) UserID() ref.UserID {
	return s.userID
}

// Close zeroes and releases the access token.
func (s *DirectSession) Close() error {
	return s.accessToken.Close()
}

// nextTransactionID returns a transaction ID unique within this
// session, as required by the PUT /send and /redact endpoints.
func (s *DirectSession) nextTransactionID() string {
	return fmt.Sprintf("emoteboard-%d-%d", time.Now().UnixMilli(), s.transactionCounter.Add(1))
}

func (s *DirectSession) get(ctx context.Context, path string, out any) error {
	body, err := s.client.doRequest(ctx, s.accessToken, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (s *DirectSession) send(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	} else {
		body = []byte("{}")
	}
	respBody, err := s.client.doRequest(ctx, s.accessToken, method, path, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// WhoAmI asks the homeserver which user the access token belongs to.
func (s *DirectSession) WhoAmI(ctx context.Context) (ref.UserID, error) {
	var resp struct {
		UserID string `json:"user_id"`
	}
	if err := s.get(ctx, "/_matrix/client/v3/account/whoami", &resp); err != nil {
		return ref.UserID{}, fmt.Errorf("messaging: whoami: %w", err)
	}
	userID, err := ref.ParseUserID(resp.UserID)
	if err != nil {
		return ref.UserID{}, fmt.Errorf("messaging: whoami response: %w", err)
	}
	return userID, nil
}

// ResolveAlias resolves a room alias to a room ID.
func (s *DirectSession) ResolveAlias(ctx context.Context, alias ref.RoomAlias) (ref.RoomID, error) {
	var resp struct {
		RoomID string `json:"room_id"`
	}
	path := "/_matrix/client/v3/directory/room/" + url.PathEscape(alias.String())
	if err := s.get(ctx, path, &resp); err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: resolve alias %s: %w", alias, err)
	}
	roomID, err := ref.ParseRoomID(resp.RoomID)
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: resolve alias %s: %w", alias, err)
	}
	return roomID, nil
}

// JoinRoom joins the given room.
func (s *DirectSession) JoinRoom(ctx context.Context, room ref.RoomID) error {
	path := "/_matrix/client/v3/rooms/" + url.PathEscape(room.String()) + "/join"
	if err := s.send(ctx, http.MethodPost, path, nil, nil); err != nil {
		return fmt.Errorf("messaging: join room %s: %w", room, err)
	}
	return nil
}

// JoinedRooms lists the rooms the session is currently joined to.
func (s *DirectSession) JoinedRooms(ctx context.Context) ([]ref.RoomID, error) {
	var resp struct {
		JoinedRooms []string `json:"joined_rooms"`
	}
	if err := s.get(ctx, "/_matrix/client/v3/joined_rooms", &resp); err != nil {
		return nil, fmt.Errorf("messaging: joined rooms: %w", err)
	}
	rooms := make([]ref.RoomID, 0, len(resp.JoinedRooms))
	for _, raw := range resp.JoinedRooms {
		room, err := ref.ParseRoomID(raw)
		if err != nil {
			return nil, fmt.Errorf("messaging: joined rooms: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, nil
}

// InviteUser invites a user to the given room.
func (s *DirectSession) InviteUser(ctx context.Context, room ref.RoomID, user ref.UserID) error {
	path := "/_matrix/client/v3/rooms/" + url.PathEscape(room.String()) + "/invite"
	body := struct {
		UserID string `json:"user_id"`
	}{UserID: user.String()}
	if err := s.send(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("messaging: invite %s to %s: %w", user, room, err)
	}
	return nil
}

// CreateRoom creates a room and returns its ID.
func (s *DirectSession) CreateRoom(ctx context.Context, req CreateRoomRequest) (ref.RoomID, error) {
	var resp struct {
		RoomID string `json:"room_id"`
	}
	if err := s.send(ctx, http.MethodPost, "/_matrix/client/v3/createRoom", req, &resp); err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: create room: %w", err)
	}
	roomID, err := ref.ParseRoomID(resp.RoomID)
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: create room response: %w", err)
	}
	return roomID, nil
}

type sendEventResponse struct {
	EventID string `json:"event_id"`
}

// sendEvent sends a timeline event of the given type and returns the
// event ID assigned by the homeserver.
func (s *DirectSession) sendEvent(ctx context.Context, room ref.RoomID, eventType string, content any) (ref.EventID, error) {
	path := "/_matrix/client/v3/rooms/" + url.PathEscape(room.String()) +
		"/send/" + url.PathEscape(eventType) + "/" + url.PathEscape(s.nextTransactionID())
	var resp sendEventResponse
	if err := s.send(ctx, http.MethodPut, path, content, &resp); err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: send %s to %s: %w", eventType, room, err)
	}
	eventID, err := ref.ParseEventID(resp.EventID)
	if err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: send %s response: %w", eventType, err)
	}
	return eventID, nil
}

// SendMessage sends an m.room.message event.
func (s *DirectSession) SendMessage(ctx context.Context, room ref.RoomID, content MessageContent) (ref.EventID, error) {
	return s.sendEvent(ctx, room, "m.room.message", content)
}

// SendReaction sends an m.reaction annotation of target with the given
// key.
func (s *DirectSession) SendReaction(ctx context.Context, room ref.RoomID, target ref.EventID, key string) (ref.EventID, error) {
	return s.sendEvent(ctx, room, "m.reaction", ReactionContent{
		RelatesTo: RelatesTo{
			RelType: "m.annotation",
			EventID: target.String(),
			Key:     key,
		},
	})
}

// SendStateEvent sends a state event and returns its event ID.
func (s *DirectSession) SendStateEvent(ctx context.Context, room ref.RoomID, eventType, stateKey string, content any) (ref.EventID, error) {
	path := "/_matrix/client/v3/rooms/" + url.PathEscape(room.String()) +
		"/state/" + url.PathEscape(eventType) + "/" + url.PathEscape(stateKey)
	var resp sendEventResponse
	if err := s.send(ctx, http.MethodPut, path, content, &resp); err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: send state %s to %s: %w", eventType, room, err)
	}
	eventID, err := ref.ParseEventID(resp.EventID)
	if err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: send state %s response: %w", eventType, err)
	}
	return eventID, nil
}

// StateEvent fetches the content of a state event.
func (s *DirectSession) StateEvent(ctx context.Context, room ref.RoomID, eventType, stateKey string) (json.RawMessage, error) {
	path := "/_matrix/client/v3/rooms/" + url.PathEscape(room.String()) +
		"/state/" + url.PathEscape(eventType) + "/" + url.PathEscape(stateKey)
	body, err := s.client.doRequest(ctx, s.accessToken, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: state %s in %s: %w", eventType, room, err)
	}
	return json.RawMessage(body), nil
}

// RedactEvent redacts the given event.
func (s *DirectSession) RedactEvent(ctx context.Context, room ref.RoomID, event ref.EventID, reason string) error {
	path := "/_matrix/client/v3/rooms/" + url.PathEscape(room.String()) +
		"/redact/" + url.PathEscape(event.String()) + "/" + url.PathEscape(s.nextTransactionID())
	body := struct {
		Reason string `json:"reason,omitempty"`
	}{Reason: reason}
	if err := s.send(ctx, http.MethodPut, path, body, nil); err != nil {
		return fmt.Errorf("messaging: redact %s in %s: %w", event, room, err)
	}
	return nil
}

// Relations fetches a page of m.annotation events relating to target.
func (s *DirectSession) Relations(ctx context.Context, room ref.RoomID, target ref.EventID, from string) (*RelationsResponse, error) {
	path := "/_matrix/client/v1/rooms/" + url.PathEscape(room.String()) +
		"/relations/" + url.PathEscape(target.String()) + "/m.annotation"
	if from != "" {
		path += "?from=" + url.QueryEscape(from)
	}
	var resp RelationsResponse
	if err := s.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("messaging: relations of %s: %w", target, err)
	}
	return &resp, nil
}

// Sync performs a single long-poll sync.
func (s *DirectSession) Sync(ctx context.Context, opts SyncOptions) (*SyncResponse, error) {
	query := url.Values{}
	if opts.Since != "" {
		query.Set("since", opts.Since)
	}
	if opts.TimeoutMS > 0 {
		query.Set("timeout", strconv.Itoa(opts.TimeoutMS))
	}
	if opts.Filter != "" {
		query.Set("filter", opts.Filter)
	}
	path := "/_matrix/client/v3/sync"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	var resp SyncResponse
	if err := s.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("messaging: sync: %w", err)
	}
	return &resp, nil
}

// UploadMedia uploads media to the homeserver and returns its mxc://
// URI.
func (s *DirectSession) UploadMedia(ctx context.Context, contentType, filename string, data []byte) (string, error) {
	path := "/_matrix/media/v3/upload"
	if filename != "" {
		path += "?filename=" + url.QueryEscape(filename)
	}
	body, _, err := s.client.doRequestRaw(ctx, s.accessToken, http.MethodPost, path, contentType, bytes.NewReader(data), maxResponseSize)
	if err != nil {
		return "", fmt.Errorf("messaging: upload media: %w", err)
	}
	var resp struct {
		ContentURI string `json:"content_uri"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("messaging: decode upload response: %w", err)
	}
	if !strings.HasPrefix(resp.ContentURI, "mxc://") {
		return "", fmt.Errorf("messaging: upload response: malformed content URI %q", resp.ContentURI)
	}
	return resp.ContentURI, nil
}

// DownloadMedia downloads the media behind an mxc:// URI, limited to
// maxBytes. It returns the body and the Content-Type reported by the
// server.
func (s *DirectSession) DownloadMedia(ctx context.Context, mxcURI string, maxBytes int64) ([]byte, string, error) {
	serverName, mediaID, err := splitMXC(mxcURI)
	if err != nil {
		return nil, "", fmt.Errorf("messaging: download media: %w", err)
	}
	path := "/_matrix/client/v1/media/download/" + url.PathEscape(serverName) + "/" + url.PathEscape(mediaID)
	body, contentType, err := s.client.doRequestRaw(ctx, s.accessToken, http.MethodGet, path, "", nil, maxBytes)
	if err != nil {
		return nil, "", fmt.Errorf("messaging: download media %s: %w", mxcURI, err)
	}
	return body, contentType, nil
}

// splitMXC splits an mxc://server/mediaID URI into its components.
func splitMXC(mxcURI string) (serverName, mediaID string, err error) {
	rest, ok := strings.CutPrefix(mxcURI, "mxc://")
	if !ok {
		return "", "", fmt.Errorf("not an mxc URI: %q", mxcURI)
	}
	serverName, mediaID, ok = strings.Cut(rest, "/")
	if !ok || serverName == "" || mediaID == "" || strings.Contains(mediaID, "/") {
		return "", "", fmt.Errorf("malformed mxc URI: %q", mxcURI)
	}
	return serverName, mediaID, nil
}

// DisplayName fetches the profile display name of a user. A user
// without a display name yields an empty string.
func (s *DirectSession) DisplayName(ctx context.Context, user ref.UserID) (string, error) {
	var resp struct {
		DisplayName string `json:"displayname"`
	}
	path := "/_matrix/client/v3/profile/" + url.PathEscape(user.String()) + "/displayname"
	if err := s.get(ctx, path, &resp); err != nil {
		if IsMatrixError(err, ErrCodeNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("messaging: display name of %s: %w", user, err)
	}
	return resp.DisplayName, nil
}
