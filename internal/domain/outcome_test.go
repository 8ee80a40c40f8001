package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterWindow(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	entry := func(age time.Duration, id string) BackupOutcome {
		return BackupOutcome{
			Timestamp:   now.Add(-age),
			Success:     true,
			AccountType: ProviderBluesky,
			AccountID:   id,
		}
	}

	testCases := []struct {
		name      string
		entries   []BackupOutcome
		retention time.Duration
		wantIDs   []string
	}{
		{
			name:      "empty input",
			entries:   nil,
			retention: DefaultRetention,
			wantIDs:   []string{},
		},
		{
			name: "all within window",
			entries: []BackupOutcome{
				entry(time.Hour, "a"),
				entry(time.Minute, "b"),
			},
			retention: DefaultRetention,
			wantIDs:   []string{"a", "b"},
		},
		{
			name: "aged-out entries evicted",
			entries: []BackupOutcome{
				entry(72*time.Hour, "old"),
				entry(time.Hour, "fresh"),
			},
			retention: DefaultRetention,
			wantIDs:   []string{"fresh"},
		},
		{
			name: "entry exactly at the boundary is evicted",
			entries: []BackupOutcome{
				entry(DefaultRetention, "boundary"),
			},
			retention: DefaultRetention,
			wantIDs:   []string{},
		},
		{
			name: "order preserved across evictions",
			entries: []BackupOutcome{
				entry(time.Hour, "a"),
				entry(50*time.Hour, "old"),
				entry(30*time.Minute, "b"),
				entry(time.Minute, "c"),
			},
			retention: DefaultRetention,
			wantIDs:   []string{"a", "b", "c"},
		},
		{
			name: "shorter retention evicts more",
			entries: []BackupOutcome{
				entry(2*time.Hour, "old"),
				entry(30*time.Minute, "fresh"),
			},
			retention: time.Hour,
			wantIDs:   []string{"fresh"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			kept := FilterWindow(tc.entries, now, tc.retention)

			gotIDs := make([]string, 0, len(kept))
			for _, e := range kept {
				gotIDs = append(gotIDs, e.AccountID)
			}
			assert.Equal(t, tc.wantIDs, gotIDs)
		})
	}
}

func TestFilterWindowDoesNotMutateInput(t *testing.T) {
	now := time.Now()
	entries := []BackupOutcome{
		{Timestamp: now.Add(-72 * time.Hour), AccountID: "old"},
		{Timestamp: now, AccountID: "fresh"},
	}

	FilterWindow(entries, now, DefaultRetention)

	require.Len(t, entries, 2)
	assert.Equal(t, "old", entries[0].AccountID)
}

func TestAppend(t *testing.T) {
	old := []BackupOutcome{
		{AccountID: "a"},
		{AccountID: "b"},
	}
	added := []BackupOutcome{
		{AccountID: "c"},
		{AccountID: "d"},
		{AccountID: "e"},
	}

	merged := Append(old, added)

	require.Len(t, merged, 5)
	for i, want := range []string{"a", "b", "c", "d", "e"} {
		assert.Equal(t, want, merged[i].AccountID)
	}
}

func TestAppendEmptySides(t *testing.T) {
	one := []BackupOutcome{{AccountID: "a"}}

	assert.Len(t, Append(nil, one), 1)
	assert.Len(t, Append(one, nil), 1)
	assert.Empty(t, Append(nil, nil))
}
