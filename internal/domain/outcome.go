package domain

import "time"

// DefaultRetention is how long a backup outcome stays visible in the status
// ledger before it is evicted.
const DefaultRetention = 48 * time.Hour

// BackupOutcome records the result of backing up one account in one run.
// Outcomes are immutable once created; the ledger only appends and evicts.
type BackupOutcome struct {
	Timestamp   time.Time `json:"timestamp"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	AccountType Provider  `json:"accountType"`
	AccountID   string    `json:"accountId"`
}

// FilterWindow returns the entries whose timestamp is within retention of
// now, preserving their relative order. Entries on the boundary are evicted.
func FilterWindow(entries []BackupOutcome, now time.Time, retention time.Duration) []BackupOutcome {
	cutoff := now.Add(-retention)
	kept := make([]BackupOutcome, 0, len(entries))
	for _, e := range entries {
		if e.Timestamp.After(cutoff) {
			kept = append(kept, e)
		}
	}
	return kept
}

// Append concatenates new outcomes after existing ones, preserving
// chronological insertion order.
func Append(entries, added []BackupOutcome) []BackupOutcome {
	merged := make([]BackupOutcome, 0, len(entries)+len(added))
	merged = append(merged, entries...)
	return append(merged, added...)
}
