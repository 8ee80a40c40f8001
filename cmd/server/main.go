package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"

	"github.com/mbaird/fediback/internal/bluesky"
	"github.com/mbaird/fediback/internal/config"
	"github.com/mbaird/fediback/internal/domain"
	"github.com/mbaird/fediback/internal/httpclient"
	"github.com/mbaird/fediback/internal/httpserver"
	"github.com/mbaird/fediback/internal/mastodon"
	"github.com/mbaird/fediback/internal/sqlite"
	"github.com/mbaird/fediback/internal/supabase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Local store for settings and the status ledger.
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	logger.Info("opened local store", "path", cfg.DBPath)

	remote := httpclient.New(cfg.HTTPTimeout, logger)
	backupService := domain.NewBackupService(
		store,
		store,
		bluesky.NewClient(remote, logger),
		mastodon.NewClient(remote, logger),
		supabase.NewOpener(remote, logger),
		cfg.Retention,
		logger,
	)

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// Start the scheduled backup job in the background
	go backupService.StartBackupJob(ctx, cfg.BackupInterval)

	// Start the HTTP server
	server := httpserver.NewServer(cfg, backupService, store, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server exited with error", "error", err)
		}
	}()

	logger.Info("server started", "port", cfg.Port, "backup_interval", cfg.BackupInterval)

	// Wait for shutdown signal
	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig)
	cancel()

	if err := server.Shutdown(context.Background()); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}

	return nil
}
