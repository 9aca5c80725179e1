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

	"github.com/bureau-foundation/assetpipe/lib/asset"
	"github.com/bureau-foundation/assetpipe/lib/assethost"
	"github.com/bureau-foundation/assetpipe/lib/clock"
	"github.com/bureau-foundation/assetpipe/lib/config"
	"github.com/bureau-foundation/assetpipe/lib/importers"
	"github.com/bureau-foundation/assetpipe/lib/service"
	"github.com/bureau-foundation/assetpipe/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("assetd", pflag.ContinueOnError)
	var (
		showVersion bool
		configPath  string
		socketPath  string
		preload     []string
	)
	flags.BoolVar(&showVersion, "version", false, "print version information and exit")
	flags.StringVar(&configPath, "config", "", "configuration file (default: $ASSETPIPE_CONFIG)")
	flags.StringVar(&socketPath, "socket", "", "override service.socket_path")
	flags.StringArrayVar(&preload, "preload", nil, "logical path to load at startup (repeatable)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if showVersion {
		fmt.Printf("assetd %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if socketPath != "" {
		cfg.Service.SocketPath = socketPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := service.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, preload, logger)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

// serve runs the host and socket until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, preload []string, logger *slog.Logger) error {
	sources, closeSources, err := assethost.OpenSources(cfg.Assets.Roots, cfg.Assets.Packs, logger)
	if err != nil {
		return err
	}
	defer closeSources()

	realClock := clock.Real()
	store := asset.NewStore(importers.NewDefaultRegistry(), asset.StoreConfig{
		Workers: cfg.Store.Workers,
		Logger:  logger,
		Clock:   realClock,
		Sources: sources,
	})
	defer store.Close()

	host, err := assethost.New(assethost.Config{
		Store:         store,
		FrameInterval: cfg.Host.FrameInterval,
		Steps:         cfg.Host.PumpSteps,
		TimeSlice:     cfg.Host.PumpSlice,
		Clock:         realClock,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	if err := cfg.EnsureSocketDir(); err != nil {
		return err
	}
	server := service.NewSocketServer(cfg.Service.SocketPath, logger)
	host.RegisterActions(server)

	for _, logicalPath := range preload {
		id := store.Load(asset.NewKey(logicalPath, 0))
		logger.Info("preload requested", "path", logicalPath, "id", id)
	}

	socketDone := make(chan error, 1)
	go func() {
		socketDone <- server.Serve(ctx)
	}()
	go host.Run(ctx)

	logger.Info("assetd running",
		"version", version.Info(),
		"environment", cfg.Environment,
		"socket", cfg.Service.SocketPath,
		"sources", len(sources),
		"extensions", len(store.Registry().Extensions()),
	)

	<-ctx.Done()
	logger.Info("shutting down")

	<-host.Done()
	if err := <-socketDone; err != nil {
		logger.Error("socket listener error", "error", err)
		return err
	}
	return nil
}
