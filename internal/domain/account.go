package domain

// Provider identifies which platform family an account belongs to.
type Provider string

const (
	ProviderBluesky  Provider = "bluesky"
	ProviderMastodon Provider = "mastodon"
)

// SupabaseConfig holds the destination-store connection settings.
type SupabaseConfig struct {
	// URL is the Supabase project URL (e.g. https://xyz.supabase.co).
	URL string `json:"url"`

	// ServiceKey is the service-role API key used for inserts.
	ServiceKey string `json:"serviceKey"`

	// UserID optionally overrides the user_id written to every archived
	// row. When empty, each account's own identifier is used.
	UserID string `json:"userId,omitempty"`
}

// ArchiveUserID returns the user_id to stamp on archived rows for an
// account identified by fallback.
func (c SupabaseConfig) ArchiveUserID(fallback string) string {
	if c.UserID != "" {
		return c.UserID
	}
	return fallback
}

// BlueskyAccount describes one Bluesky identity to back up.
type BlueskyAccount struct {
	// InstanceURL is the PDS to authenticate against. Empty means the
	// default public PDS.
	InstanceURL string `json:"instanceUrl"`

	// Username is the account handle (e.g. user.bsky.social). It is also
	// the accountId reported in backup outcomes.
	Username string `json:"username"`

	// Password is an app password, not the main account password.
	Password string `json:"password"`
}

// MastodonAccount describes one Mastodon identity to back up.
type MastodonAccount struct {
	// InstanceURL is the base URL of the account's home instance.
	InstanceURL string `json:"instanceUrl"`

	// UserID is the numeric account id on the instance. It is also the
	// accountId reported in backup outcomes.
	UserID string `json:"userId"`

	// APIToken is a bearer token with read scope.
	APIToken string `json:"apiToken"`
}

// Settings is the full backup configuration, stored as one JSON blob by the
// settings store and edited by the web UI. It is read fresh at the start of
// every run and never mutated by the orchestrator.
type Settings struct {
	Supabase         SupabaseConfig    `json:"supabase"`
	BlueskyAccounts  []BlueskyAccount  `json:"blueskyAccounts"`
	MastodonAccounts []MastodonAccount `json:"mastodonAccounts"`
}

// AccountCount returns the total number of configured accounts.
func (s *Settings) AccountCount() int {
	return len(s.BlueskyAccounts) + len(s.MastodonAccounts)
}
