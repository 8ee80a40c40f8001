package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/mbaird/fediback/internal/bluesky"
	"github.com/mbaird/fediback/internal/domain"
	"github.com/mbaird/fediback/internal/httpclient"
	"github.com/mbaird/fediback/internal/mastodon"
	"github.com/mbaird/fediback/internal/sqlite"
	"github.com/mbaird/fediback/internal/supabase"
)

// One-shot backup pass, for running under cron instead of the built-in
// scheduler. Exit code is 0 unless the run failed fatally; per-account
// failures are printed and recorded in the ledger but do not fail the run.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dbPath    string
		retention time.Duration
		timeout   time.Duration
		verbose   bool
	)

	flag.StringVar(&dbPath, "db", envOrDefault("FEDIBACK_DB_PATH", "fediback.db"), "path of the local settings/ledger database")
	flag.DurationVar(&retention, "retention", 48*time.Hour, "how long status entries stay in the ledger")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "timeout per remote call")
	flag.BoolVar(&verbose, "v", false, "log remote call details")
	flag.Parse()

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	store, err := sqlite.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	remote := httpclient.New(timeout, logger)
	backupService := domain.NewBackupService(
		store,
		store,
		bluesky.NewClient(remote, logger),
		mastodon.NewClient(remote, logger),
		supabase.NewOpener(remote, logger),
		retention,
		logger,
	)

	fmt.Println("Running backup...")
	report := backupService.Run(context.Background())
	for _, outcome := range report.Outcomes {
		if outcome.Success {
			fmt.Printf("  ok      %s %s\n", outcome.AccountType, outcome.AccountID)
		} else {
			fmt.Printf("  failed  %s %s: %s\n", outcome.AccountType, outcome.AccountID, outcome.Error)
		}
	}
	if report.Err != nil {
		return report.Err
	}

	fmt.Printf("Backup complete: %d accounts, %d failures\n", len(report.Outcomes), report.FailureCount())
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
