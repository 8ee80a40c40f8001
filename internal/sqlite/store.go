package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mbaird/fediback/internal/domain"
	_ "modernc.org/sqlite"
)

// The store is a small key-value table; these are the two keys it holds.
const (
	settingsKey = "backup_settings"
	ledgerKey   = "status_list"
)

// Store implements domain.SettingsStore and domain.LedgerStore on a local
// SQLite database. Each value is one JSON blob replaced atomically by an
// upsert, so readers never observe a partially written ledger.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path, verifies the
// connection, and ensures the schema exists. The caller should call Close
// when the store is no longer needed.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadSettings returns the stored settings, or nil if none have been saved.
func (s *Store) LoadSettings(ctx context.Context) (*domain.Settings, error) {
	blob, err := s.get(ctx, settingsKey)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if blob == nil {
		return nil, nil
	}

	var settings domain.Settings
	if err := json.Unmarshal(blob, &settings); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings replaces the stored settings.
func (s *Store) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	blob, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := s.put(ctx, settingsKey, blob); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// LoadLedger returns the persisted outcome sequence in insertion order, or
// an empty sequence if none exists yet.
func (s *Store) LoadLedger(ctx context.Context) ([]domain.BackupOutcome, error) {
	blob, err := s.get(ctx, ledgerKey)
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}
	if blob == nil {
		return []domain.BackupOutcome{}, nil
	}

	var entries []domain.BackupOutcome
	if err := json.Unmarshal(blob, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal ledger: %w", err)
	}
	return entries, nil
}

// StoreLedger replaces the persisted outcome sequence.
func (s *Store) StoreLedger(ctx context.Context, entries []domain.BackupOutcome) error {
	if entries == nil {
		entries = []domain.BackupOutcome{}
	}
	blob, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal ledger: %w", err)
	}
	if err := s.put(ctx, ledgerKey, blob); err != nil {
		return fmt.Errorf("store ledger: %w", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return value, err
}

func (s *Store) put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	return err
}
