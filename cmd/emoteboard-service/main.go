// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/emoteboard/lib/clock"
	"github.com/bureau-foundation/emoteboard/lib/config"
	"github.com/bureau-foundation/emoteboard/lib/emotepack"
	"github.com/bureau-foundation/emoteboard/lib/review"
	"github.com/bureau-foundation/emoteboard/lib/secret"
	"github.com/bureau-foundation/emoteboard/lib/service"
	"github.com/bureau-foundation/emoteboard/lib/version"
	"github.com/bureau-foundation/emoteboard/messaging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		tokenFile   string
		socketPath  string
		showVersion bool
	)
	pflag.StringVar(&configPath, "config", "", "config file path (default: $EMOTEBOARD_CONFIG)")
	pflag.StringVar(&tokenFile, "token-file", "", "access token file, or \"-\" for stdin (overrides config)")
	pflag.StringVar(&socketPath, "socket", "", "admin socket path (overrides config)")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("emoteboard-service %s\n", version.Info())
		return nil
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}

	logger := service.NewLogger(slog.LevelInfo)

	token, err := loadToken(cfg, tokenFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Homeserver.URL,
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	session, err := client.SessionFromToken(ctx, token)
	if err != nil {
		return err
	}
	defer session.Close()
	if session.UserID() != cfg.ServiceUserID() {
		return fmt.Errorf("access token belongs to %s, config expects %s",
			session.UserID(), cfg.ServiceUserID())
	}
	logger.Info("authenticated", "user_id", session.UserID())

	announceRoom, err := session.ResolveAlias(ctx, cfg.AnnounceRoomAlias())
	if err != nil {
		return err
	}
	if err := session.JoinRoom(ctx, announceRoom); err != nil {
		return err
	}
	logger.Info("joined announce room",
		"alias", cfg.AnnounceRoomAlias(),
		"room_id", announceRoom,
	)

	coordinator, err := review.NewCoordinator(review.Config{
		Quota:             cfg.Review.Quota,
		MaxImageBytes:     cfg.Review.MaxImageBytes,
		MinImageDimension: cfg.Review.MinImageDimension,
		ThumbnailSize:     cfg.Review.ThumbnailSize,
		Chat:              &announceChat{session: session, room: announceRoom},
		Emotes:            &packRegistry{session: session, pack: emotepack.NewManager(session, announceRoom)},
		Thumbnailer:       renderThumbnail{},
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	clk := clock.Real()
	svc := newEmoteService(session, coordinator, announceRoom,
		cfg.PrivilegedUserIDs(), clk, logger)

	if socketPath == "" {
		socketPath = cfg.Admin.SocketPath
	}
	if socketPath != "" {
		socketServer := service.NewSocketServer(socketPath, logger)
		svc.registerAdminActions(socketServer)
		socketDone := make(chan error, 1)
		go func() { socketDone <- socketServer.Serve(ctx) }()
		defer func() {
			if err := <-socketDone; err != nil {
				logger.Error("admin socket server failed", "error", err)
			}
		}()
	}

	// Initial sync establishes the since token; its backlog is not
	// replayed as commands.
	sinceToken, _, err := service.InitialSync(ctx, session, syncFilter)
	if err != nil {
		return err
	}
	logger.Info("initial sync complete")

	service.RunSyncLoop(ctx, session, service.SyncConfig{
		Filter:  syncFilter,
		Timeout: cfg.Homeserver.SyncTimeoutMS,
	}, sinceToken, svc.handleSync, clk, logger)

	// Let dispatched commands finish before the session closes.
	svc.wait()
	logger.Info("shut down")
	return nil
}

// loadToken reads the access token: from the --token-file override or
// the configured path, with "-" meaning stdin. When stdin is a
// terminal, "-" prompts for the token without echo.
func loadToken(cfg *config.Config, override string) (*secret.Buffer, error) {
	path := cfg.Homeserver.TokenPath
	if override != "" {
		path = override
	}
	if path == "-" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, "access token: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fmt.Errorf("read token: %w", err)
		}
		return secret.NewFromBytes(raw)
	}
	return secret.ReadFromPath(path)
}
