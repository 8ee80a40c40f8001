package domain

import "context"

// SettingsStore persists the backup configuration blob.
type SettingsStore interface {
	// LoadSettings returns the stored settings, or nil if none have been
	// saved yet.
	LoadSettings(ctx context.Context) (*Settings, error)

	// SaveSettings replaces the stored settings.
	SaveSettings(ctx context.Context, settings *Settings) error
}

// LedgerStore persists the status ledger as one atomic value. Readers never
// observe a partially written ledger.
type LedgerStore interface {
	// LoadLedger returns the persisted outcome sequence in insertion
	// order. Returns an empty sequence if none exists yet.
	LoadLedger(ctx context.Context) ([]BackupOutcome, error)

	// StoreLedger replaces the persisted outcome sequence.
	StoreLedger(ctx context.Context, entries []BackupOutcome) error
}

// BlueskyFetcher retrieves one bounded page of recent posts and likes for a
// Bluesky account. Implementations hold no per-account state across calls.
type BlueskyFetcher interface {
	FetchRecent(ctx context.Context, account BlueskyAccount) (posts []Post, likes []Like, err error)
}

// MastodonFetcher retrieves one bounded page of recent statuses and
// favourites for a Mastodon account.
type MastodonFetcher interface {
	FetchRecent(ctx context.Context, account MastodonAccount) (posts []Post, likes []Like, err error)
}

// Archive is one destination-store session, reused for every account in a
// run. The posts and likes of an account are inserted in two separate calls
// with no transaction between them: when the first succeeds and the second
// fails, the first call's rows stay persisted and the account is marked
// failed.
type Archive interface {
	InsertPosts(ctx context.Context, collection string, rows []Post) error
	InsertLikes(ctx context.Context, collection string, rows []Like) error
}

// ArchiveOpener establishes the destination-store session for a run.
type ArchiveOpener interface {
	Open(ctx context.Context, cfg SupabaseConfig) (Archive, error)
}
