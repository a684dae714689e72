// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bureau-foundation/emoteboard/lib/ref"
	"github.com/bureau-foundation/emoteboard/lib/secret"
)

// maxResponseSize bounds how much of a homeserver response body is
// read into memory. Media downloads carry their own caller-supplied
// limit.
const maxResponseSize = 64 << 20 // 64 MiB

// ClientConfig configures a Client.
type ClientConfig struct {
	// HomeserverURL is the base URL of the homeserver, without a
	// trailing slash, e.g. "https://matrix.example.org".
	HomeserverURL string

	// HTTPClient is the HTTP client for all requests. Defaults to a
	// client with a 60 second timeout, long enough for sync long
	// polls.
	HTTPClient *http.Client

	// Logger receives request-level debug logging. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Client is an unauthenticated handle to a Matrix homeserver. Use
// Login or SessionFromToken to obtain an authenticated session.
type Client struct {
	homeserverURL string
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewClient creates a Client for the given homeserver.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.HomeserverURL == "" {
		return nil, fmt.Errorf("messaging: homeserver URL is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		homeserverURL: strings.TrimRight(cfg.HomeserverURL, "/"),
		httpClient:    httpClient,
		logger:        logger,
	}, nil
}

// HomeserverURL returns the base URL the client talks to.
func (c *Client) HomeserverURL() string {
	return c.homeserverURL
}

type loginRequest struct {
	Type       string          `json:"type"`
	Identifier loginIdentifier `json:"identifier"`
	Password   string          `json:"password"`
	DeviceName string          `json:"initial_device_display_name,omitempty"`
}

type loginIdentifier struct {
	Type string `json:"type"`
	User string `json:"user"`
}

type loginResponse struct {
	UserID      string `json:"user_id"`
	AccessToken string `json:"access_token"`
	DeviceID    string `json:"device_id"`
}

// Login authenticates with m.login.password and returns a session.
// The password buffer is not retained.
func (c *Client) Login(ctx context.Context, user ref.UserID, password *secret.Buffer) (*DirectSession, error) {
	body, err := json.Marshal(loginRequest{
		Type:       "m.login.password",
		Identifier: loginIdentifier{Type: "m.id.user", User: user.String()},
		Password:   password.String(),
		DeviceName: "emoteboard",
	})
	if err != nil {
		return nil, fmt.Errorf("messaging: marshal login request: %w", err)
	}
	defer secret.Zero(body)

	respBody, err := c.doRequest(ctx, nil, http.MethodPost, "/_matrix/client/v3/login", body)
	if err != nil {
		return nil, fmt.Errorf("messaging: login %s: %w", user, err)
	}
	var resp loginResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("messaging: decode login response: %w", err)
	}
	userID, err := ref.ParseUserID(resp.UserID)
	if err != nil {
		return nil, fmt.Errorf("messaging: login response: %w", err)
	}
	token, err := secret.NewFromBytes([]byte(resp.AccessToken))
	if err != nil {
		return nil, fmt.Errorf("messaging: store access token: %w", err)
	}
	return newDirectSession(c, userID, token), nil
}

// SessionFromToken builds a session from an existing access token and
// validates it against /account/whoami. The session takes ownership of
// the token buffer.
func (c *Client) SessionFromToken(ctx context.Context, token *secret.Buffer) (*DirectSession, error) {
	session := newDirectSession(c, ref.UserID{}, token)
	userID, err := session.WhoAmI(ctx)
	if err != nil {
		return nil, fmt.Errorf("messaging: validate access token: %w", err)
	}
	session.userID = userID
	return session, nil
}

// doRequest performs a JSON API request and returns the response body.
// A non-2xx response with a decodable Matrix error body is returned as
// a *MatrixError. token may be nil for unauthenticated endpoints.
func (c *Client) doRequest(ctx context.Context, token *secret.Buffer, method, path string, body []byte) ([]byte, error) {
	var contentType string
	if body != nil {
		contentType = "application/json"
	}
	respBody, _, err := c.doRequestRaw(ctx, token, method, path, contentType, bytes.NewReader(body), maxResponseSize)
	return respBody, err
}

// doRequestRaw performs a request with an arbitrary body and returns
// the response body (read up to maxBytes) and its Content-Type.
func (c *Client) doRequestRaw(ctx context.Context, token *secret.Buffer, method, path, contentType string, body io.Reader, maxBytes int64) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.homeserverURL+path, body)
	if err != nil {
		return nil, "", fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != nil {
		req.Header.Set("Authorization", "Bearer "+token.String())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%s %s: read response: %w", method, path, err)
	}
	if int64(len(respBody)) > maxBytes {
		return nil, "", fmt.Errorf("%s %s: response exceeds %d bytes", method, path, maxBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		matrixErr := &MatrixError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, matrixErr); err != nil || matrixErr.Code == "" {
			matrixErr.Code = ErrCodeUnknown
			matrixErr.Message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, truncateForLog(respBody))
		}
		return nil, "", matrixErr
	}
	return respBody, resp.Header.Get("Content-Type"), nil
}

// truncateForLog trims a response body for inclusion in an error
// message.
func truncateForLog(body []byte) string {
	const limit = 256
	s := string(body)
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
