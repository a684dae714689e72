// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the emote review
// service.
//
// Configuration is loaded from a single YAML file specified by:
//   - EMOTEBOARD_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. The config file may
// contain environment-specific sections (development, staging,
// production) that override base values when the environment matches.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/emoteboard/lib/ref"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for the emote review service.
type Config struct {
	// Environment identifies the deployment type.
	Environment Environment `yaml:"environment"`

	// Homeserver configures the Matrix connection.
	Homeserver HomeserverConfig `yaml:"homeserver"`

	// Review configures the submission and voting rules.
	Review ReviewConfig `yaml:"review"`

	// Admin configures the local admin socket.
	Admin AdminConfig `yaml:"admin"`

	// Per-environment overrides, applied after the base config is
	// loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per
// environment.
type ConfigOverrides struct {
	Homeserver *HomeserverConfig `yaml:"homeserver,omitempty"`
	Review     *ReviewConfig     `yaml:"review,omitempty"`
	Admin      *AdminConfig      `yaml:"admin,omitempty"`
}

// HomeserverConfig configures the Matrix connection.
type HomeserverConfig struct {
	// URL is the base URL of the homeserver, e.g.
	// "https://matrix.example.org".
	URL string `yaml:"url"`

	// UserID is the Matrix user the service runs as.
	UserID string `yaml:"user_id"`

	// TokenPath is the file holding the access token, or "-" to read
	// it from stdin.
	TokenPath string `yaml:"token_path"`

	// SyncTimeoutMS is the server-side long-poll timeout in
	// milliseconds. Default: 30000.
	SyncTimeoutMS int `yaml:"sync_timeout_ms"`
}

// ReviewConfig configures the submission and voting rules.
type ReviewConfig struct {
	// AnnounceRoom is the alias of the room where submissions are
	// announced and voted on, e.g. "#emotes:example.org".
	AnnounceRoom string `yaml:"announce_room"`

	// PrivilegedUsers may run tally and removal commands. Matrix user
	// IDs.
	PrivilegedUsers []string `yaml:"privileged_users"`

	// Quota is the number of open submissions each user may hold.
	// Default: 3.
	Quota int `yaml:"quota"`

	// MaxImageBytes is the upper bound on submitted image size.
	// Default: 6000000.
	MaxImageBytes int64 `yaml:"max_image_bytes"`

	// MinImageDimension is the minimum width and height in pixels.
	// Default: 120.
	MinImageDimension int `yaml:"min_image_dimension"`

	// ThumbnailSize is the edge length of the square review thumbnail.
	// Default: 128.
	ThumbnailSize int `yaml:"thumbnail_size"`
}

// AdminConfig configures the local admin socket.
type AdminConfig struct {
	// SocketPath is the Unix socket path for admin queries. Empty
	// disables the socket.
	SocketPath string `yaml:"socket_path"`
}

// Default returns the configuration defaults. Fields without a
// sensible default (homeserver URL, user, announce room) are left
// empty and caught by Validate.
func Default() *Config {
	return &Config{
		Environment: Development,
		Homeserver: HomeserverConfig{
			SyncTimeoutMS: 30000,
		},
		Review: ReviewConfig{
			Quota:             3,
			MaxImageBytes:     6000000,
			MinImageDimension: 120,
			ThumbnailSize:     128,
		},
	}
}

// Load reads the config file named by EMOTEBOARD_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv("EMOTEBOARD_CONFIG")
	if path == "" {
		return nil, fmt.Errorf("EMOTEBOARD_CONFIG environment variable not set")
	}
	return LoadFile(path)
}

// LoadFile reads the config file at path, applies environment
// overrides, and validates the result.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}
	if overrides.Homeserver != nil {
		c.Homeserver = *overrides.Homeserver
	}
	if overrides.Review != nil {
		c.Review = *overrides.Review
	}
	if overrides.Admin != nil {
		c.Admin = *overrides.Admin
	}
}

// Validate checks that the configuration is complete and well-formed.
func (c *Config) Validate() error {
	switch c.Environment {
	case Development, Staging, Production:
	default:
		return fmt.Errorf("unknown environment %q", c.Environment)
	}
	if c.Homeserver.URL == "" {
		return fmt.Errorf("homeserver.url is required")
	}
	if _, err := ref.ParseUserID(c.Homeserver.UserID); err != nil {
		return fmt.Errorf("homeserver.user_id: %w", err)
	}
	if c.Homeserver.TokenPath == "" {
		return fmt.Errorf("homeserver.token_path is required")
	}
	if _, err := ref.ParseRoomAlias(c.Review.AnnounceRoom); err != nil {
		return fmt.Errorf("review.announce_room: %w", err)
	}
	for _, raw := range c.Review.PrivilegedUsers {
		if _, err := ref.ParseUserID(raw); err != nil {
			return fmt.Errorf("review.privileged_users: %w", err)
		}
	}
	if c.Review.Quota < 1 {
		return fmt.Errorf("review.quota must be at least 1, got %d", c.Review.Quota)
	}
	if c.Review.MaxImageBytes < 1 {
		return fmt.Errorf("review.max_image_bytes must be positive, got %d", c.Review.MaxImageBytes)
	}
	if c.Review.MinImageDimension < 1 {
		return fmt.Errorf("review.min_image_dimension must be positive, got %d", c.Review.MinImageDimension)
	}
	if c.Review.ThumbnailSize < 1 {
		return fmt.Errorf("review.thumbnail_size must be positive, got %d", c.Review.ThumbnailSize)
	}
	return nil
}

// AnnounceRoomAlias returns the parsed announce room alias. Validate
// must have succeeded.
func (c *Config) AnnounceRoomAlias() ref.RoomAlias {
	return ref.MustParseRoomAlias(c.Review.AnnounceRoom)
}

// ServiceUserID returns the parsed service user ID. Validate must have
// succeeded.
func (c *Config) ServiceUserID() ref.UserID {
	return ref.MustParseUserID(c.Homeserver.UserID)
}

// PrivilegedUserIDs returns the parsed privileged user set. Validate
// must have succeeded.
func (c *Config) PrivilegedUserIDs() []ref.UserID {
	users := make([]ref.UserID, 0, len(c.Review.PrivilegedUsers))
	for _, raw := range c.Review.PrivilegedUsers {
		users = append(users, ref.MustParseUserID(raw))
	}
	return users
}
