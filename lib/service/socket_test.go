// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/bureau-foundation/emoteboard/lib/codec"
)

// startSocketServer runs server on a socket under t.TempDir and
// returns the socket path. The server is stopped at test cleanup.
func startSocketServer(t *testing.T, configure func(*SocketServer)) string {
	t.Helper()
	socketPath := filepath.Join(t.TempDir(), "admin.sock")
	server := NewSocketServer(socketPath, discardLogger())
	configure(server)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down")
		}
	})

	// Wait for the socket file to appear.
	deadline := time.Now().Add(5 * time.Second)
	for {
		conn, err := net.Dial("unix", socketPath)
		if err == nil {
			conn.Close()
			return socketPath
		}
		if time.Now().After(deadline) {
			t.Fatalf("socket never came up: %v", err)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// roundTrip sends one CBOR request and decodes the response.
func roundTrip(t *testing.T, socketPath string, request any) Response {
	t.Helper()
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		t.Fatalf("encode request: %v", err)
	}
	var response Response
	if err := codec.NewDecoder(conn).Decode(&response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return response
}

func TestSocketServerDispatchesActions(t *testing.T) {
	socketPath := startSocketServer(t, func(server *SocketServer) {
		server.Handle("status", func(ctx context.Context, raw []byte) (any, error) {
			return map[string]int{"open_reviews": 2}, nil
		})
	})

	response := roundTrip(t, socketPath, map[string]string{"action": "status"})
	if !response.OK {
		t.Fatalf("response = %+v", response)
	}
	var data map[string]int
	if err := codec.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data["open_reviews"] != 2 {
		t.Errorf("data = %v", data)
	}
}

func TestSocketServerActionError(t *testing.T) {
	socketPath := startSocketServer(t, func(server *SocketServer) {
		server.Handle("fail", func(ctx context.Context, raw []byte) (any, error) {
			return nil, errors.New("nope")
		})
	})

	response := roundTrip(t, socketPath, map[string]string{"action": "fail"})
	if response.OK || response.Error != "nope" {
		t.Errorf("response = %+v", response)
	}
}

func TestSocketServerUnknownAction(t *testing.T) {
	socketPath := startSocketServer(t, func(server *SocketServer) {})

	response := roundTrip(t, socketPath, map[string]string{"action": "bogus"})
	if response.OK || response.Error == "" {
		t.Errorf("response = %+v", response)
	}
}

func TestSocketServerMissingAction(t *testing.T) {
	socketPath := startSocketServer(t, func(server *SocketServer) {})

	response := roundTrip(t, socketPath, map[string]string{"other": "field"})
	if response.OK {
		t.Errorf("response = %+v", response)
	}
}

func TestSocketServerHandlerSeesFullRequest(t *testing.T) {
	socketPath := startSocketServer(t, func(server *SocketServer) {
		server.Handle("echo", func(ctx context.Context, raw []byte) (any, error) {
			var request struct {
				Action string `cbor:"action"`
				Name   string `cbor:"name"`
			}
			if err := codec.Unmarshal(raw, &request); err != nil {
				return nil, err
			}
			return map[string]string{"name": request.Name}, nil
		})
	})

	response := roundTrip(t, socketPath, map[string]string{"action": "echo", "name": "blobcat"})
	if !response.OK {
		t.Fatalf("response = %+v", response)
	}
	var data map[string]string
	if err := codec.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data["name"] != "blobcat" {
		t.Errorf("data = %v", data)
	}
}
