package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// RunReport is the aggregate result of one backup pass. Err is non-nil only
// for run-fatal conditions (missing settings, archive session, ledger I/O);
// individual account failures are reported as outcomes, not as Err.
type RunReport struct {
	Outcomes []BackupOutcome
	Err      error
}

// FailureCount returns the number of failed account outcomes.
func (r *RunReport) FailureCount() int {
	n := 0
	for _, o := range r.Outcomes {
		if !o.Success {
			n++
		}
	}
	return n
}

// BackupService is the core domain service. It owns one backup pass across
// all configured accounts: fetch via the matching provider adapter, persist
// via the archive session, and record one outcome per account into the
// status ledger regardless of per-account success or failure.
type BackupService struct {
	settings  SettingsStore
	ledger    LedgerStore
	bluesky   BlueskyFetcher
	mastodon  MastodonFetcher
	archive   ArchiveOpener
	retention time.Duration
	logger    *slog.Logger

	// now is replaceable in tests.
	now func() time.Time

	// mu serializes runs: the ledger load-filter-append-store is a
	// read-modify-write, and the ticker and the HTTP trigger share this
	// service.
	mu sync.Mutex
}

// NewBackupService creates a BackupService with the given collaborators.
// A retention of zero selects DefaultRetention.
func NewBackupService(
	settings SettingsStore,
	ledger LedgerStore,
	bluesky BlueskyFetcher,
	mastodon MastodonFetcher,
	archive ArchiveOpener,
	retention time.Duration,
	logger *slog.Logger,
) *BackupService {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &BackupService{
		settings:  settings,
		ledger:    ledger,
		bluesky:   bluesky,
		mastodon:  mastodon,
		archive:   archive,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// Run executes one full backup pass. Every Bluesky account is processed
// first, then every Mastodon account, each in configuration order. No
// failure of one account prevents processing of subsequent accounts; each
// account yields exactly one outcome either way. After all accounts, the
// outcomes are merged into the retention-windowed ledger.
func (s *BackupService) Run(ctx context.Context) *RunReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings, err := s.settings.LoadSettings(ctx)
	if err != nil {
		return &RunReport{Err: fmt.Errorf("load settings: %w", err)}
	}
	if settings == nil {
		return &RunReport{Err: ErrNoSettings}
	}

	archive, err := s.archive.Open(ctx, settings.Supabase)
	if err != nil {
		return &RunReport{Err: fmt.Errorf("%w: %v", ErrArchiveSession, err)}
	}

	s.logger.Info("backup run started",
		"bluesky_accounts", len(settings.BlueskyAccounts),
		"mastodon_accounts", len(settings.MastodonAccounts),
	)

	outcomes := make([]BackupOutcome, 0, settings.AccountCount())
	for _, account := range settings.BlueskyAccounts {
		err := s.backupBluesky(ctx, archive, settings, account)
		outcomes = append(outcomes, s.outcome(ProviderBluesky, account.Username, err))
	}
	for _, account := range settings.MastodonAccounts {
		err := s.backupMastodon(ctx, archive, settings, account)
		outcomes = append(outcomes, s.outcome(ProviderMastodon, account.UserID, err))
	}

	if err := s.recordOutcomes(ctx, outcomes); err != nil {
		return &RunReport{Outcomes: outcomes, Err: fmt.Errorf("%w: %v", ErrLedgerIO, err)}
	}

	return &RunReport{Outcomes: outcomes}
}

// Status returns the ledger entries still within the retention window. The
// filter is applied at read time: entries valid at the last write may have
// aged out since.
func (s *BackupService) Status(ctx context.Context) ([]BackupOutcome, error) {
	entries, err := s.ledger.LoadLedger(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load: %v", ErrLedgerIO, err)
	}
	return FilterWindow(entries, s.now(), s.retention), nil
}

// StartBackupJob runs a backup pass immediately and then on every tick of
// interval. It blocks until ctx is cancelled.
func (s *BackupService) StartBackupJob(ctx context.Context, interval time.Duration) {
	s.runScheduled(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runScheduled(ctx)
		}
	}
}

func (s *BackupService) runScheduled(ctx context.Context) {
	report := s.Run(ctx)
	if report.Err != nil {
		s.logger.Error("scheduled backup failed", "error", report.Err)
		return
	}
	s.logger.Info("scheduled backup complete",
		"accounts", len(report.Outcomes),
		"failures", report.FailureCount(),
	)
}

func (s *BackupService) backupBluesky(ctx context.Context, archive Archive, settings *Settings, account BlueskyAccount) error {
	posts, likes, err := s.bluesky.FetchRecent(ctx, account)
	if err != nil {
		return err
	}

	userID := settings.Supabase.ArchiveUserID(account.Username)
	if err := archive.InsertPosts(ctx, CollectionBlueskyPosts, stampPosts(posts, userID)); err != nil {
		return fmt.Errorf("insert posts: %w", err)
	}
	if err := archive.InsertLikes(ctx, CollectionBlueskyLikes, stampLikes(likes, userID)); err != nil {
		return fmt.Errorf("insert likes: %w", err)
	}
	return nil
}

func (s *BackupService) backupMastodon(ctx context.Context, archive Archive, settings *Settings, account MastodonAccount) error {
	posts, likes, err := s.mastodon.FetchRecent(ctx, account)
	if err != nil {
		return err
	}

	userID := settings.Supabase.ArchiveUserID(account.UserID)
	if err := archive.InsertPosts(ctx, CollectionMastodonPosts, stampPosts(posts, userID)); err != nil {
		return fmt.Errorf("insert posts: %w", err)
	}
	if err := archive.InsertLikes(ctx, CollectionMastodonLikes, stampLikes(likes, userID)); err != nil {
		return fmt.Errorf("insert likes: %w", err)
	}
	return nil
}

// outcome builds the single BackupOutcome for one account's pass.
func (s *BackupService) outcome(provider Provider, accountID string, err error) BackupOutcome {
	o := BackupOutcome{
		Timestamp:   s.now().UTC(),
		Success:     err == nil,
		AccountType: provider,
		AccountID:   accountID,
	}
	if err != nil {
		o.Error = err.Error()
		s.logger.Error("account backup failed",
			"accountType", provider,
			"accountId", accountID,
			"error", err,
		)
	} else {
		s.logger.Info("account backup complete", "accountType", provider, "accountId", accountID)
	}
	return o
}

// recordOutcomes merges this run's outcomes into the persisted ledger:
// load, evict aged-out entries, append new ones after the old, store.
func (s *BackupService) recordOutcomes(ctx context.Context, outcomes []BackupOutcome) error {
	existing, err := s.ledger.LoadLedger(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	merged := Append(FilterWindow(existing, s.now(), s.retention), outcomes)
	if err := s.ledger.StoreLedger(ctx, merged); err != nil {
		return fmt.Errorf("store ledger: %w", err)
	}
	return nil
}

func stampPosts(posts []Post, userID string) []Post {
	for i := range posts {
		posts[i].AccountID = userID
	}
	return posts
}

func stampLikes(likes []Like, userID string) []Like {
	for i := range likes {
		likes[i].AccountID = userID
	}
	return likes
}
