// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "emoteboard.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const validConfig = `
environment: development
homeserver:
  url: https://matrix.example.org
  user_id: "@emoteboard:example.org"
  token_path: /run/secrets/emoteboard-token
review:
  announce_room: "#emotes:example.org"
  privileged_users:
    - "@alice:example.org"
`

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}
	if cfg.Review.Quota != 3 {
		t.Errorf("expected quota=3, got %d", cfg.Review.Quota)
	}
	if cfg.Review.MaxImageBytes != 6000000 {
		t.Errorf("expected max_image_bytes=6000000, got %d", cfg.Review.MaxImageBytes)
	}
	if cfg.Review.MinImageDimension != 120 {
		t.Errorf("expected min_image_dimension=120, got %d", cfg.Review.MinImageDimension)
	}
	if cfg.Review.ThumbnailSize != 128 {
		t.Errorf("expected thumbnail_size=128, got %d", cfg.Review.ThumbnailSize)
	}
	if cfg.Homeserver.SyncTimeoutMS != 30000 {
		t.Errorf("expected sync_timeout_ms=30000, got %d", cfg.Homeserver.SyncTimeoutMS)
	}
}

func TestLoad_RequiresEnvVar(t *testing.T) {
	origConfig := os.Getenv("EMOTEBOARD_CONFIG")
	defer os.Setenv("EMOTEBOARD_CONFIG", origConfig)
	os.Unsetenv("EMOTEBOARD_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when EMOTEBOARD_CONFIG not set, got nil")
	}
	if !strings.Contains(err.Error(), "EMOTEBOARD_CONFIG") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Homeserver.URL != "https://matrix.example.org" {
		t.Errorf("url = %q", cfg.Homeserver.URL)
	}
	if cfg.ServiceUserID().String() != "@emoteboard:example.org" {
		t.Errorf("user_id = %q", cfg.ServiceUserID())
	}
	if cfg.AnnounceRoomAlias().String() != "#emotes:example.org" {
		t.Errorf("announce_room = %q", cfg.AnnounceRoomAlias())
	}
	// Defaults survive partial configs.
	if cfg.Review.Quota != 3 {
		t.Errorf("quota = %d, want default 3", cfg.Review.Quota)
	}
	users := cfg.PrivilegedUserIDs()
	if len(users) != 1 || users[0].String() != "@alice:example.org" {
		t.Errorf("privileged users = %v", users)
	}
}

func TestLoadFile_EnvironmentOverrides(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, validConfig+`
production:
  review:
    announce_room: "#emotes-prod:example.org"
    quota: 5
    max_image_bytes: 6000000
    min_image_dimension: 120
    thumbnail_size: 128
`))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	// Environment is development, so production overrides stay inert.
	if cfg.Review.Quota != 3 {
		t.Errorf("quota = %d, want 3", cfg.Review.Quota)
	}

	prodCfg, err := LoadFile(writeConfig(t, strings.Replace(validConfig,
		"environment: development", "environment: production", 1)+`
production:
  review:
    announce_room: "#emotes-prod:example.org"
    quota: 5
    max_image_bytes: 6000000
    min_image_dimension: 120
    thumbnail_size: 128
`))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if prodCfg.Review.Quota != 5 {
		t.Errorf("quota = %d, want 5", prodCfg.Review.Quota)
	}
	if prodCfg.AnnounceRoomAlias().String() != "#emotes-prod:example.org" {
		t.Errorf("announce_room = %q", prodCfg.AnnounceRoomAlias())
	}
}

func TestValidateRejectsBadInput(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"missing url", func(c *Config) { c.Homeserver.URL = "" }, "homeserver.url"},
		{"bad user id", func(c *Config) { c.Homeserver.UserID = "emoteboard" }, "homeserver.user_id"},
		{"missing token path", func(c *Config) { c.Homeserver.TokenPath = "" }, "homeserver.token_path"},
		{"bad announce room", func(c *Config) { c.Review.AnnounceRoom = "!room:example.org" }, "review.announce_room"},
		{"bad privileged user", func(c *Config) { c.Review.PrivilegedUsers = []string{"alice"} }, "review.privileged_users"},
		{"zero quota", func(c *Config) { c.Review.Quota = 0 }, "review.quota"},
		{"unknown environment", func(c *Config) { c.Environment = "qa" }, "unknown environment"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadFile(writeConfig(t, validConfig))
			if err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			tc.mutate(cfg)
			err = cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Errorf("error = %v, want mention of %q", err, tc.wantMsg)
			}
		})
	}
}
